package linking

import (
	"context"
	"errors"
	"testing"

	"horizon/internal/infrastructure/plaid"
)

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
	return nil, nil
}

func (m *MockGateway) CreateUpdateLinkToken(ctx context.Context, accessToken, userID string) (*plaid.LinkTokenResponse, error) {
	if m.CreateUpdateLinkTokenFunc != nil {
		return m.CreateUpdateLinkTokenFunc(ctx, accessToken, userID)
	}
	return nil, nil
}

func (m *MockGateway) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResponse, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return nil, nil
}

func (m *MockGateway) GetAccounts(ctx context.Context, accessToken string) (*plaid.AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *MockGateway) GetInstitution(ctx context.Context, institutionID string) (*plaid.Institution, error) {
	if m.GetInstitutionFunc != nil {
		return m.GetInstitutionFunc(ctx, institutionID)
	}
	return nil, nil
}

func (m *MockGateway) TransactionsSync(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
	if m.TransactionsSyncFunc != nil {
		return m.TransactionsSyncFunc(ctx, accessToken, cursor)
	}
	return nil, nil
}

func (m *MockGateway) CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (*plaid.ProcessorTokenResponse, error) {
	if m.CreateProcessorTokenFunc != nil {
		return m.CreateProcessorTokenFunc(ctx, accessToken, accountID, processor)
	}
	return nil, nil
}

func syncedTx(id string) plaid.SyncedTransaction {
	return plaid.SyncedTransaction{
		TransactionID:  id,
		Name:           "Test Merchant",
		PaymentChannel: "online",
		AccountID:      "acc-1",
		Category:       []string{"Shops", "Supermarkets"},
		Date:           "2024-01-02",
	}
}

func TestSyncTransactions_MultiplePages(t *testing.T) {
	calls := 0
	gateway := &MockGateway{
		TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
			calls++
			switch calls {
			case 1:
				if cursor != "" {
					t.Errorf("first call cursor = %q, want empty", cursor)
				}
				return &plaid.SyncResponse{
					Added:      []plaid.SyncedTransaction{syncedTx("tx-1"), syncedTx("tx-2")},
					NextCursor: "cursor-1",
					HasMore:    true,
				}, nil
			case 2:
				if cursor != "cursor-1" {
					t.Errorf("second call cursor = %q, want %q", cursor, "cursor-1")
				}
				return &plaid.SyncResponse{
					Added:      []plaid.SyncedTransaction{syncedTx("tx-3")},
					NextCursor: "cursor-2",
					HasMore:    false,
				}, nil
			default:
				t.Fatal("unexpected third call")
				return nil, nil
			}
		},
	}

	svc := NewSyncService(gateway)
	txs, err := svc.SyncTransactions(context.Background(), "access-token")
	if err != nil {
		t.Fatalf("SyncTransactions() failed: %v", err)
	}

	if len(txs) != 3 {
		t.Fatalf("SyncTransactions() returned %d transactions, want 3", len(txs))
	}
	// Fetch order preserved, not date-sorted.
	for i, want := range []string{"tx-1", "tx-2", "tx-3"} {
		if txs[i].ID != want {
			t.Errorf("txs[%d].ID = %q, want %q", i, txs[i].ID, want)
		}
	}
	if txs[0].Category != "Shops" {
		t.Errorf("txs[0].Category = %q, want first category element", txs[0].Category)
	}
	if txs[0].Type != "online" {
		t.Errorf("txs[0].Type = %q, want payment channel", txs[0].Type)
	}
}

func TestSyncTransactions_EmptyCursorTerminates(t *testing.T) {
	calls := 0
	gateway := &MockGateway{
		TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
			calls++
			// Server claims more data but never advances the cursor.
			return &plaid.SyncResponse{
				Added:      []plaid.SyncedTransaction{syncedTx("tx-1")},
				NextCursor: "",
				HasMore:    true,
			}, nil
		},
	}

	svc := NewSyncService(gateway)
	txs, err := svc.SyncTransactions(context.Background(), "access-token")
	if err != nil {
		t.Fatalf("SyncTransactions() failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("gateway called %d times, want exactly 1", calls)
	}
	if len(txs) != 1 {
		t.Errorf("SyncTransactions() returned %d transactions, want 1", len(txs))
	}
}

func TestSyncTransactions_MissingAddedIsFatal(t *testing.T) {
	gateway := &MockGateway{
		TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
			return &plaid.SyncResponse{Added: nil, NextCursor: "c", HasMore: false}, nil
		},
	}

	svc := NewSyncService(gateway)
	_, err := svc.SyncTransactions(context.Background(), "access-token")
	if !errors.Is(err, ErrMissingAdded) {
		t.Errorf("SyncTransactions() error = %v, want ErrMissingAdded", err)
	}
}

func TestSyncTransactions_InvalidCursorRetry(t *testing.T) {
	calls := 0
	gateway := &MockGateway{
		TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
			calls++
			switch calls {
			case 1:
				return &plaid.SyncResponse{
					Added:      []plaid.SyncedTransaction{syncedTx("stale-1")},
					NextCursor: "stale-cursor",
					HasMore:    true,
				}, nil
			case 2:
				return nil, &plaid.APIError{StatusCode: 400, ErrorCode: "INVALID_CURSOR"}
			case 3:
				if cursor != "" {
					t.Errorf("retry call cursor = %q, want empty (full resync)", cursor)
				}
				return &plaid.SyncResponse{
					Added:      []plaid.SyncedTransaction{syncedTx("tx-1"), syncedTx("tx-2"), syncedTx("tx-3")},
					NextCursor: "fresh-cursor",
					HasMore:    true, // must not be paginated on the retry path
				}, nil
			default:
				t.Fatal("unexpected fourth call")
				return nil, nil
			}
		},
	}

	svc := NewSyncService(gateway)
	txs, err := svc.SyncTransactions(context.Background(), "access-token")
	if err != nil {
		t.Fatalf("SyncTransactions() failed: %v", err)
	}

	if calls != 3 {
		t.Errorf("gateway called %d times, want 3 (initial page, failure, single retry)", calls)
	}
	if len(txs) != 3 {
		t.Fatalf("SyncTransactions() returned %d transactions, want the 3 from the retry page", len(txs))
	}
	if txs[0].ID != "tx-1" {
		t.Errorf("txs[0].ID = %q, want retry page contents, not stale page", txs[0].ID)
	}
}

func TestSyncTransactions_InvalidCursorWithoutCursorIsFatal(t *testing.T) {
	calls := 0
	gateway := &MockGateway{
		TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
			calls++
			return nil, &plaid.APIError{StatusCode: 400, ErrorCode: "INVALID_CURSOR"}
		},
	}

	svc := NewSyncService(gateway)
	_, err := svc.SyncTransactions(context.Background(), "access-token")
	if err == nil {
		t.Fatal("SyncTransactions() expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("gateway called %d times, want 1 (no cursor was set, so no retry)", calls)
	}
}

func TestSyncTransactions_RetryFailureIsFatal(t *testing.T) {
	calls := 0
	gateway := &MockGateway{
		TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
			calls++
			switch calls {
			case 1:
				return &plaid.SyncResponse{
					Added:      []plaid.SyncedTransaction{},
					NextCursor: "c1",
					HasMore:    true,
				}, nil
			case 2:
				return nil, &plaid.APIError{StatusCode: 400, ErrorCode: "INVALID_CURSOR"}
			default:
				return nil, &plaid.APIError{StatusCode: 500, ErrorCode: "INTERNAL_SERVER_ERROR"}
			}
		},
	}

	svc := NewSyncService(gateway)
	_, err := svc.SyncTransactions(context.Background(), "access-token")
	if err == nil {
		t.Fatal("SyncTransactions() expected error after failed retry, got nil")
	}
	if calls != 3 {
		t.Errorf("gateway called %d times, want 3 (no second retry)", calls)
	}
}

func TestSyncTransactions_OtherErrorNotRetried(t *testing.T) {
	calls := 0
	gateway := &MockGateway{
		TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
			calls++
			return nil, &plaid.APIError{StatusCode: 400, ErrorType: "ITEM_ERROR", ErrorCode: "ITEM_LOGIN_REQUIRED"}
		},
	}

	svc := NewSyncService(gateway)
	_, err := svc.SyncTransactions(context.Background(), "access-token")
	if err == nil {
		t.Fatal("SyncTransactions() expected error, got nil")
	}
	if plaid.Classify(err) != plaid.KindCredentialExpired {
		t.Errorf("propagated error lost its classification: %v", err)
	}
	if calls != 1 {
		t.Errorf("gateway called %d times, want 1", calls)
	}
}
