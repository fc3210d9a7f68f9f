package http

import (
	"encoding/json"
	"log"
	"net/http"

	"horizon/internal/domain/account"
	"horizon/internal/shared/middleware"
)

// AccountHandler serves the aggregated account views.
type AccountHandler struct {
	accounts *account.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *account.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleListAccounts returns the aggregated snapshot list for the
// authenticated user.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing accounts for user %s: %v", userID, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// HandleAccountByID returns one bank's snapshot with its unified ledger.
func (h *AccountHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	bankID := r.PathValue("id")
	if bankID == "" {
		http.Error(w, "Bank ID is required", http.StatusBadRequest)
		return
	}

	detail, err := h.accounts.GetAccount(r.Context(), userID, bankID)
	if err != nil {
		log.Printf("Error loading account %s for user %s: %v", bankID, userID, err)
		http.Error(w, "Failed to load account", http.StatusInternalServerError)
		return
	}
	if detail.Account == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}
