package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/user"
	"horizon/internal/shared/middleware"
)

// BankHandler serves the Link flow: token creation, public token exchange,
// reconnection, and removal of bank connections.
type BankHandler struct {
	banks *bank.Service
	users user.Repository
}

// NewBankHandler creates a new bank handler
func NewBankHandler(banks *bank.Service, users user.Repository) *BankHandler {
	return &BankHandler{banks: banks, users: users}
}

type LinkTokenResponse struct {
	LinkToken string `json:"linkToken"`
}

type ExchangeTokenRequest struct {
	PublicToken string `json:"publicToken"`
}

// HandleCreateLinkToken issues a client-side Link token for the
// authenticated user.
func (h *BankHandler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userModel, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		log.Printf("Error loading user %s for link token: %v", userID, err)
		http.Error(w, "Failed to create link token", http.StatusInternalServerError)
		return
	}

	token, err := h.banks.CreateLinkToken(r.Context(), userID, userModel.Name())
	if err != nil {
		log.Printf("Error creating link token for user %s: %v", userID, err)
		http.Error(w, "Failed to create link token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LinkTokenResponse{LinkToken: token})
}

// HandleExchangePublicToken completes a Link flow and persists the new bank
// connection.
func (h *BankHandler) HandleExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ExchangeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PublicToken == "" {
		http.Error(w, "Public token is required", http.StatusBadRequest)
		return
	}

	userModel, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		log.Printf("Error loading user %s for token exchange: %v", userID, err)
		http.Error(w, "Failed to link bank", http.StatusInternalServerError)
		return
	}

	linked, err := h.banks.ExchangePublicToken(r.Context(), req.PublicToken, bank.ExchangeParams{
		UserID:            userID,
		UserName:          userModel.Name(),
		DwollaCustomerURL: userModel.DwollaCustomerURL,
	})
	if err != nil {
		log.Printf("Error exchanging public token for user %s: %v", userID, err)
		http.Error(w, "Failed to link bank", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(linked)
}

// HandleCreateUpdateLinkToken issues an update-mode Link token so the user
// can reauthorize an expired connection.
func (h *BankHandler) HandleCreateUpdateLinkToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	token, err := h.banks.CreateUpdateLinkToken(r.Context(), bankID, userID)
	if err != nil {
		h.writeBankError(w, bankID, err, "Failed to create update link token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LinkTokenResponse{LinkToken: token})
}

// HandleReconnect completes an update-mode Link flow, replacing the stored
// access token for an existing connection.
func (h *BankHandler) HandleReconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	var req ExchangeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PublicToken == "" {
		http.Error(w, "Public token is required", http.StatusBadRequest)
		return
	}

	if err := h.banks.Reconnect(r.Context(), bankID, userID, req.PublicToken); err != nil {
		h.writeBankError(w, bankID, err, "Failed to reconnect bank")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleBankByID handles operations on a specific bank connection.
func (h *BankHandler) HandleBankByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
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

	if err := h.banks.Remove(r.Context(), bankID, userID); err != nil {
		h.writeBankError(w, bankID, err, "Failed to remove bank")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BankHandler) writeBankError(w http.ResponseWriter, bankID string, err error, fallback string) {
	switch {
	case errors.Is(err, bank.ErrBankNotFound):
		http.Error(w, "Bank not found", http.StatusNotFound)
	case errors.Is(err, bank.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		log.Printf("Error on bank %s: %v", bankID, err)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}
