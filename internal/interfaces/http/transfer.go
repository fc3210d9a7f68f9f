package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/transfer"
	"horizon/internal/shared/middleware"
)

// TransferHandler serves peer-to-peer transfer creation and history.
type TransferHandler struct {
	transfers *transfer.Service
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(transfers *transfer.Service) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

type CreateTransferRequest struct {
	SenderBankID string `json:"senderBankId"`
	ShareableID  string `json:"shareableId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Amount       string `json:"amount"`
}

// HandleTransfers dispatches on method: POST creates a transfer, GET lists
// the authenticated user's transfer history.
func (h *TransferHandler) HandleTransfers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r, userID)
	case http.MethodGet:
		h.handleHistory(w, r, userID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransferHandler) handleCreate(w http.ResponseWriter, r *http.Request, userID string) {
	var req CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "Invalid amount", http.StatusBadRequest)
		return
	}

	record, err := h.transfers.Create(r.Context(), transfer.Params{
		SenderID:     userID,
		SenderBankID: req.SenderBankID,
		ShareableID:  req.ShareableID,
		Email:        req.Email,
		Name:         req.Name,
		Amount:       amount,
	})
	if err != nil {
		h.writeTransferError(w, userID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

func (h *TransferHandler) handleHistory(w http.ResponseWriter, r *http.Request, userID string) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.transfers.History(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("Error listing transfers for user %s: %v", userID, err)
		http.Error(w, "Failed to list transfers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *TransferHandler) writeTransferError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, transfer.ErrInvalidAmount):
		http.Error(w, "Amount must be positive", http.StatusBadRequest)
	case errors.Is(err, transfer.ErrUnknownShareID):
		http.Error(w, "Recipient not found", http.StatusNotFound)
	case errors.Is(err, transfer.ErrSameBank):
		http.Error(w, "Cannot transfer to the same bank", http.StatusBadRequest)
	case errors.Is(err, transfer.ErrMissingFunding):
		http.Error(w, "Bank is not set up for transfers", http.StatusUnprocessableEntity)
	case errors.Is(err, bank.ErrBankNotFound):
		http.Error(w, "Bank not found", http.StatusNotFound)
	case errors.Is(err, bank.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			http.Error(w, "Missing or invalid transfer fields", http.StatusBadRequest)
			return
		}
		log.Printf("Error creating transfer for user %s: %v", userID, err)
		http.Error(w, "Failed to create transfer", http.StatusInternalServerError)
	}
}
