package bank

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"horizon/internal/infrastructure/dwolla"
	"horizon/internal/infrastructure/plaid"
)

// MockRepository implements Repository for testing
type MockRepository struct {
	CreateFunc            func(ctx context.Context, params CreateParams) (*LinkedBank, error)
	GetByIDFunc           func(ctx context.Context, id string) (*LinkedBank, error)
	GetByAccountIDFunc    func(ctx context.Context, accountID string) (*LinkedBank, error)
	ListByUserIDFunc      func(ctx context.Context, userID string) ([]*LinkedBank, error)
	UpdateAccessTokenFunc func(ctx context.Context, id, accessToken string) error
	DeleteFunc            func(ctx context.Context, id string) error
}

func (m *MockRepository) Create(ctx context.Context, params CreateParams) (*LinkedBank, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &LinkedBank{ID: "bank-1", UserID: params.UserID, ShareableID: params.ShareableID}, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*LinkedBank, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrBankNotFound
}

func (m *MockRepository) GetByAccountID(ctx context.Context, accountID string) (*LinkedBank, error) {
	if m.GetByAccountIDFunc != nil {
		return m.GetByAccountIDFunc(ctx, accountID)
	}
	return nil, ErrBankNotFound
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID string) ([]*LinkedBank, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) UpdateAccessToken(ctx context.Context, id, accessToken string) error {
	if m.UpdateAccessTokenFunc != nil {
		return m.UpdateAccessTokenFunc(ctx, id, accessToken)
	}
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockGateway implements plaid.ClientInterface for testing
type MockGateway struct {
	CreateLinkTokenFunc       func(ctx context.Context, userID, clientName string) (*plaid.LinkTokenResponse, error)
	CreateUpdateLinkTokenFunc func(ctx context.Context, accessToken, userID string) (*plaid.LinkTokenResponse, error)
	ExchangePublicTokenFunc   func(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error)
	GetAccountsFunc           func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error)
	GetInstitutionFunc        func(ctx context.Context, institutionID string) (*plaid.Institution, error)
	TransactionsSyncFunc      func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error)
	CreateProcessorTokenFunc  func(ctx context.Context, accessToken, accountID, processor string) (*plaid.ProcessorTokenResponse, error)
}

func (m *MockGateway) CreateLinkToken(ctx context.Context, userID, clientName string) (*plaid.LinkTokenResponse, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID, clientName)
	}
	return &plaid.LinkTokenResponse{LinkToken: "link-test-token"}, nil
}

func (m *MockGateway) CreateUpdateLinkToken(ctx context.Context, accessToken, userID string) (*plaid.LinkTokenResponse, error) {
	if m.CreateUpdateLinkTokenFunc != nil {
		return m.CreateUpdateLinkTokenFunc(ctx, accessToken, userID)
	}
	return &plaid.LinkTokenResponse{LinkToken: "link-update-token"}, nil
}

func (m *MockGateway) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return &plaid.ExchangeResponse{AccessToken: "access-token-1", ItemID: "item-1"}, nil
}

func (m *MockGateway) GetAccounts(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return &plaid.AccountsResponse{
		Accounts: []plaid.Account{{AccountID: "acc-1", Name: "Checking"}},
		Item:     plaid.Item{ItemID: "item-1", InstitutionID: "ins-1"},
	}, nil
}

func (m *MockGateway) GetInstitution(ctx context.Context, institutionID string) (*plaid.Institution, error) {
	if m.GetInstitutionFunc != nil {
		return m.GetInstitutionFunc(ctx, institutionID)
	}
	return &plaid.Institution{InstitutionID: institutionID, Name: "Test Bank"}, nil
}

func (m *MockGateway) TransactionsSync(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
	if m.TransactionsSyncFunc != nil {
		return m.TransactionsSyncFunc(ctx, accessToken, cursor)
	}
	return &plaid.SyncResponse{}, nil
}

func (m *MockGateway) CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (*plaid.ProcessorTokenResponse, error) {
	if m.CreateProcessorTokenFunc != nil {
		return m.CreateProcessorTokenFunc(ctx, accessToken, accountID, processor)
	}
	return &plaid.ProcessorTokenResponse{ProcessorToken: "processor-token"}, nil
}

// MockPayments implements dwolla.ClientInterface for testing
type MockPayments struct {
	CreateCustomerFunc   func(ctx context.Context, customer dwolla.Customer) (string, error)
	AddFundingSourceFunc func(ctx context.Context, customerURL, processorToken, bankName string) (string, error)
	CreateTransferFunc   func(ctx context.Context, sourceURL, destinationURL string, amount decimal.Decimal) (string, error)
}

func (m *MockPayments) CreateCustomer(ctx context.Context, customer dwolla.Customer) (string, error) {
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, customer)
	}
	return "https://api-sandbox.dwolla.com/customers/cust-1", nil
}

func (m *MockPayments) AddFundingSource(ctx context.Context, customerURL, processorToken, bankName string) (string, error) {
	if m.AddFundingSourceFunc != nil {
		return m.AddFundingSourceFunc(ctx, customerURL, processorToken, bankName)
	}
	return "https://api-sandbox.dwolla.com/funding-sources/fs-1", nil
}

func (m *MockPayments) CreateTransfer(ctx context.Context, sourceURL, destinationURL string, amount decimal.Decimal) (string, error) {
	if m.CreateTransferFunc != nil {
		return m.CreateTransferFunc(ctx, sourceURL, destinationURL, amount)
	}
	return "https://api-sandbox.dwolla.com/transfers/tr-1", nil
}

// fakeEncryptor prefixes strings so Encrypt and Decrypt round-trip without
// real crypto.
type fakeEncryptor struct{}

func (fakeEncryptor) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (fakeEncryptor) Decrypt(ciphertext string) (string, error) {
	if len(ciphertext) > 4 && ciphertext[:4] == "enc:" {
		return ciphertext[4:], nil
	}
	return "", errors.New("malformed ciphertext")
}

func exchangeParams() ExchangeParams {
	return ExchangeParams{
		UserID:            "user-1",
		UserName:          "Jane Doe",
		DwollaCustomerURL: "https://api-sandbox.dwolla.com/customers/cust-1",
	}
}

func TestExchangePublicToken(t *testing.T) {
	var created CreateParams
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, params CreateParams) (*LinkedBank, error) {
			created = params
			return &LinkedBank{ID: "bank-1", UserID: params.UserID, ShareableID: params.ShareableID}, nil
		},
	}
	var fundingCustomer string
	payments := &MockPayments{
		AddFundingSourceFunc: func(ctx context.Context, customerURL, processorToken, bankName string) (string, error) {
			fundingCustomer = customerURL
			return "https://api-sandbox.dwolla.com/funding-sources/fs-1", nil
		},
	}

	svc := NewService(repo, &MockGateway{}, payments, fakeEncryptor{})
	linked, err := svc.ExchangePublicToken(context.Background(), "public-token", exchangeParams())
	if err != nil {
		t.Fatalf("ExchangePublicToken failed: %v", err)
	}

	if linked.ID != "bank-1" {
		t.Errorf("Expected bank-1, got %q", linked.ID)
	}
	if created.AccessToken != "access-token-1" || created.ItemID != "item-1" {
		t.Errorf("Unexpected persisted exchange result: %+v", created)
	}
	if created.ShareableID != "enc:acc-1" {
		t.Errorf("Shareable id should be the encrypted account id, got %q", created.ShareableID)
	}
	if created.FundingSourceURL == "" {
		t.Error("Expected a funding source URL on the new link")
	}
	if fundingCustomer != exchangeParams().DwollaCustomerURL {
		t.Errorf("Funding source created under wrong customer: %q", fundingCustomer)
	}
}

func TestExchangePublicToken_NoAccounts(t *testing.T) {
	gateway := &MockGateway{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
			return &plaid.AccountsResponse{}, nil
		},
	}

	svc := NewService(&MockRepository{}, gateway, &MockPayments{}, fakeEncryptor{})
	if _, err := svc.ExchangePublicToken(context.Background(), "public-token", exchangeParams()); err == nil {
		t.Fatal("Expected an error when the new link has no accounts")
	}
}

func TestReconnect(t *testing.T) {
	var updatedToken string
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*LinkedBank, error) {
			return &LinkedBank{ID: id, UserID: "user-1", AccessToken: "stale-token"}, nil
		},
		UpdateAccessTokenFunc: func(ctx context.Context, id, accessToken string) error {
			updatedToken = accessToken
			return nil
		},
	}

	svc := NewService(repo, &MockGateway{}, &MockPayments{}, fakeEncryptor{})
	if err := svc.Reconnect(context.Background(), "bank-1", "user-1", "public-token"); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}
	if updatedToken != "access-token-1" {
		t.Errorf("Expected the fresh access token to be stored, got %q", updatedToken)
	}
}

func TestReconnect_ForeignBank(t *testing.T) {
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*LinkedBank, error) {
			return &LinkedBank{ID: id, UserID: "someone-else"}, nil
		},
	}

	svc := NewService(repo, &MockGateway{}, &MockPayments{}, fakeEncryptor{})
	err := svc.Reconnect(context.Background(), "bank-1", "user-1", "public-token")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	deleted := false
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*LinkedBank, error) {
			return &LinkedBank{ID: id, UserID: "user-1"}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}

	svc := NewService(repo, &MockGateway{}, &MockPayments{}, fakeEncryptor{})
	if err := svc.Remove(context.Background(), "bank-1", "user-1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !deleted {
		t.Error("Expected the bank link to be deleted")
	}
}

func TestRemove_Errors(t *testing.T) {
	tests := []struct {
		name     string
		repo     *MockRepository
		expected error
	}{
		{
			name:     "Not Found",
			repo:     &MockRepository{},
			expected: ErrBankNotFound,
		},
		{
			name: "Foreign Bank",
			repo: &MockRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*LinkedBank, error) {
					return &LinkedBank{ID: id, UserID: "someone-else"}, nil
				},
			},
			expected: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo, &MockGateway{}, &MockPayments{}, fakeEncryptor{})
			if err := svc.Remove(context.Background(), "bank-1", "user-1"); !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestResolveShareableID(t *testing.T) {
	repo := &MockRepository{
		GetByAccountIDFunc: func(ctx context.Context, accountID string) (*LinkedBank, error) {
			if accountID != "acc-2" {
				return nil, ErrBankNotFound
			}
			return &LinkedBank{ID: "bank-2", UserID: "user-2", AccountID: accountID}, nil
		},
	}

	svc := NewService(repo, &MockGateway{}, &MockPayments{}, fakeEncryptor{})

	linked, err := svc.ResolveShareableID(context.Background(), "enc:acc-2")
	if err != nil {
		t.Fatalf("ResolveShareableID failed: %v", err)
	}
	if linked.ID != "bank-2" {
		t.Errorf("Expected bank-2, got %q", linked.ID)
	}

	if _, err := svc.ResolveShareableID(context.Background(), "garbage"); err == nil {
		t.Fatal("Expected an error for a malformed shareable id")
	}
}
