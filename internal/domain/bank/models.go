package bank

import (
	"context"
	"errors"
)

var (
	ErrBankNotFound = errors.New("bank not found")
	ErrForbidden    = errors.New("bank does not belong to user")
)

// LinkedBank is one bank connection owned by a user. The access token is a
// gateway secret: it is stored encrypted and must never leave server-side
// logic, so it is excluded from serialization.
type LinkedBank struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	ItemID           string `json:"itemId"`
	AccountID        string `json:"accountId"`
	AccessToken      string `json:"-"`
	FundingSourceURL string `json:"fundingSourceUrl"`
	ShareableID      string `json:"shareableId"`
}

// CreateParams holds the fields persisted when a bank is linked.
type CreateParams struct {
	UserID           string
	ItemID           string
	AccountID        string
	AccessToken      string
	FundingSourceURL string
	ShareableID      string
}

// Repository is the credential store for bank links. Implementations return
// ErrBankNotFound when an id does not resolve.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*LinkedBank, error)
	GetByID(ctx context.Context, id string) (*LinkedBank, error)
	GetByAccountID(ctx context.Context, accountID string) (*LinkedBank, error)
	ListByUserID(ctx context.Context, userID string) ([]*LinkedBank, error)
	UpdateAccessToken(ctx context.Context, id, accessToken string) error
	Delete(ctx context.Context, id string) error
}
