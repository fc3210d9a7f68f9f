package plaid

import (
	"context"
)

// ClientInterface defines the methods required from the Plaid API client
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, userID, clientName string) (*LinkTokenResponse, error)
	CreateUpdateLinkToken(ctx context.Context, accessToken, userID string) (*LinkTokenResponse, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error)
	GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error)
	GetInstitution(ctx context.Context, institutionID string) (*Institution, error)
	TransactionsSync(ctx context.Context, accessToken, cursor string) (*SyncResponse, error)
	CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (*ProcessorTokenResponse, error)
}
