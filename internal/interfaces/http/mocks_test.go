package http

import (
	"context"

	"github.com/shopspring/decimal"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/transaction"
	"horizon/internal/domain/user"
	"horizon/internal/infrastructure/dwolla"
	"horizon/internal/infrastructure/plaid"
)

// MockUserRepo implements user.Repository for testing
type MockUserRepo struct {
	CreateFunc            func(ctx context.Context, params user.CreateUserParams) (*user.User, error)
	GetByIDFunc           func(ctx context.Context, id string) (*user.User, error)
	GetByEmailFunc        func(ctx context.Context, email string) (*user.User, error)
	ListFunc              func(ctx context.Context) ([]*user.User, error)
	UpdateDeviceTokenFunc func(ctx context.Context, userID string, token *string) error
	ClearDeviceTokenFunc  func(ctx context.Context, token string) error
}

func (m *MockUserRepo) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, user.ErrUserNotFound
}

func (m *MockUserRepo) List(ctx context.Context) ([]*user.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockUserRepo) UpdateDeviceToken(ctx context.Context, userID string, token *string) error {
	if m.UpdateDeviceTokenFunc != nil {
		return m.UpdateDeviceTokenFunc(ctx, userID, token)
	}
	return nil
}

func (m *MockUserRepo) ClearDeviceToken(ctx context.Context, token string) error {
	if m.ClearDeviceTokenFunc != nil {
		return m.ClearDeviceTokenFunc(ctx, token)
	}
	return nil
}

// MockBankRepo implements bank.Repository for testing
type MockBankRepo struct {
	CreateFunc            func(ctx context.Context, params bank.CreateParams) (*bank.LinkedBank, error)
	GetByIDFunc           func(ctx context.Context, id string) (*bank.LinkedBank, error)
	GetByAccountIDFunc    func(ctx context.Context, accountID string) (*bank.LinkedBank, error)
	ListByUserIDFunc      func(ctx context.Context, userID string) ([]*bank.LinkedBank, error)
	UpdateAccessTokenFunc func(ctx context.Context, id, accessToken string) error
	DeleteFunc            func(ctx context.Context, id string) error
}

func (m *MockBankRepo) Create(ctx context.Context, params bank.CreateParams) (*bank.LinkedBank, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &bank.LinkedBank{ID: "bank-1", UserID: params.UserID}, nil
}

func (m *MockBankRepo) GetByID(ctx context.Context, id string) (*bank.LinkedBank, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, bank.ErrBankNotFound
}

func (m *MockBankRepo) GetByAccountID(ctx context.Context, accountID string) (*bank.LinkedBank, error) {
	if m.GetByAccountIDFunc != nil {
		return m.GetByAccountIDFunc(ctx, accountID)
	}
	return nil, bank.ErrBankNotFound
}

func (m *MockBankRepo) ListByUserID(ctx context.Context, userID string) ([]*bank.LinkedBank, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockBankRepo) UpdateAccessToken(ctx context.Context, id, accessToken string) error {
	if m.UpdateAccessTokenFunc != nil {
		return m.UpdateAccessTokenFunc(ctx, id, accessToken)
	}
	return nil
}

func (m *MockBankRepo) Delete(ctx context.Context, id string) error {
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
	return &plaid.ExchangeResponse{AccessToken: "access-token", ItemID: "item-1"}, nil
}

func (m *MockGateway) GetAccounts(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	balance := decimal.RequireFromString("100.00")
	return &plaid.AccountsResponse{
		Accounts: []plaid.Account{{
			AccountID: "acc-1",
			Name:      "Checking",
			Balances:  plaid.Balances{Available: &balance, Current: &balance},
		}},
		Item: plaid.Item{ItemID: "item-1", InstitutionID: "ins-1"},
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
	return &plaid.SyncResponse{NextCursor: cursor}, nil
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

// MockTransferRepo implements transaction.TransferRepository for testing
type MockTransferRepo struct {
	CreateFunc       func(ctx context.Context, params transaction.CreateTransferParams) (*transaction.TransferRecord, error)
	ListByBankIDFunc func(ctx context.Context, bankID string) ([]*transaction.TransferRecord, error)
	ListByUserIDFunc func(ctx context.Context, userID string, limit, offset int) ([]*transaction.TransferRecord, error)
}

func (m *MockTransferRepo) Create(ctx context.Context, params transaction.CreateTransferParams) (*transaction.TransferRecord, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &transaction.TransferRecord{ID: "transfer-1", Amount: params.Amount}, nil
}

func (m *MockTransferRepo) ListByBankID(ctx context.Context, bankID string) ([]*transaction.TransferRecord, error) {
	if m.ListByBankIDFunc != nil {
		return m.ListByBankIDFunc(ctx, bankID)
	}
	return nil, nil
}

func (m *MockTransferRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*transaction.TransferRecord, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID, limit, offset)
	}
	return nil, nil
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
	return ciphertext, nil
}
