package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrTransferNotFound = errors.New("transfer record not found")

// Transaction is a single transaction fetched from the linking gateway.
// Immutable once fetched; never persisted locally.
type Transaction struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	PaymentChannel string          `json:"paymentChannel"`
	Type           string          `json:"type"`
	AccountID      string          `json:"accountId"`
	Amount         decimal.Decimal `json:"amount"`
	Pending        bool            `json:"pending"`
	Category       string          `json:"category"`
	Date           time.Time       `json:"date"`
	Image          string          `json:"image,omitempty"`
}

// TransferRecord is an internally-recorded peer-to-peer transfer, persisted
// when a user-initiated transfer completes. Direction (debit/credit) is not
// stored; it is computed at read time relative to the bank being viewed.
type TransferRecord struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Channel        string          `json:"channel"`
	Category       string          `json:"category"`
	SenderID       string          `json:"senderId"`
	ReceiverID     string          `json:"receiverId"`
	SenderBankID   string          `json:"senderBankId"`
	ReceiverBankID string          `json:"receiverBankId"`
	Email          string          `json:"email"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// LedgerEntry is the read-time projection of either a gateway Transaction or
// a TransferRecord into a common shape. Recomputed on every read.
type LedgerEntry struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Date           time.Time       `json:"date"`
	PaymentChannel string          `json:"paymentChannel"`
	Category       string          `json:"category"`
	Type           string          `json:"type"`
}

// CreateTransferParams holds the fields persisted for a completed transfer.
type CreateTransferParams struct {
	Name           string
	Amount         decimal.Decimal
	Channel        string
	Category       string
	SenderID       string
	ReceiverID     string
	SenderBankID   string
	ReceiverBankID string
	Email          string
}

// TransferRepository is the internal transfer record source.
type TransferRepository interface {
	Create(ctx context.Context, params CreateTransferParams) (*TransferRecord, error)
	ListByBankID(ctx context.Context, bankID string) ([]*TransferRecord, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*TransferRecord, error)
}
