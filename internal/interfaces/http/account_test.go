package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"horizon/internal/domain/account"
	"horizon/internal/domain/bank"
	"horizon/internal/domain/transaction"
	"horizon/internal/shared/middleware"
)

// MockSyncer implements account.TransactionSyncer for testing
type MockSyncer struct {
	SyncTransactionsFunc func(ctx context.Context, accessToken string) ([]transaction.Transaction, error)
}

func (m *MockSyncer) SyncTransactions(ctx context.Context, accessToken string) ([]transaction.Transaction, error) {
	if m.SyncTransactionsFunc != nil {
		return m.SyncTransactionsFunc(ctx, accessToken)
	}
	return nil, nil
}

func newAccountHandler(banks *MockBankRepo, gateway *MockGateway) *AccountHandler {
	svc := account.NewService(banks, gateway, &MockSyncer{}, &MockTransferRepo{}, nil)
	return NewAccountHandler(svc)
}

func authedRequest(method, target string, userID string) *http.Request {
	return authedRequestWithBody(method, target, userID, nil)
}

func authedRequestWithBody(method, target, userID string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestHandleListAccounts(t *testing.T) {
	banks := &MockBankRepo{
		ListByUserIDFunc: func(ctx context.Context, userID string) ([]*bank.LinkedBank, error) {
			return []*bank.LinkedBank{
				{ID: "bank-1", UserID: userID, AccessToken: "token-1", ShareableID: "share-1"},
			}, nil
		},
	}
	handler := newAccountHandler(banks, &MockGateway{})

	req := authedRequest(http.MethodGet, "/api/accounts", "user-1")
	rr := httptest.NewRecorder()
	handler.HandleListAccounts(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var list account.AccountList
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if list.TotalLinkedBanks != 1 {
		t.Errorf("Expected 1 linked bank, got %d", list.TotalLinkedBanks)
	}
	if len(list.Accounts) != 1 || list.Accounts[0].BankID != "bank-1" {
		t.Errorf("Unexpected accounts payload: %+v", list.Accounts)
	}
}

func TestHandleListAccounts_Unauthenticated(t *testing.T) {
	handler := newAccountHandler(&MockBankRepo{}, &MockGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rr := httptest.NewRecorder()
	handler.HandleListAccounts(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
	}
}

func TestHandleAccountByID_NotFound(t *testing.T) {
	handler := newAccountHandler(&MockBankRepo{}, &MockGateway{})

	req := authedRequest(http.MethodGet, "/api/accounts/missing", "user-1")
	req.SetPathValue("id", "missing")
	rr := httptest.NewRecorder()
	handler.HandleAccountByID(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestHandleAccountByID_ForeignBankHidden(t *testing.T) {
	banks := &MockBankRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*bank.LinkedBank, error) {
			return &bank.LinkedBank{ID: id, UserID: "someone-else", AccessToken: "token-1"}, nil
		},
	}
	handler := newAccountHandler(banks, &MockGateway{})

	req := authedRequest(http.MethodGet, "/api/accounts/bank-1", "user-1")
	req.SetPathValue("id", "bank-1")
	rr := httptest.NewRecorder()
	handler.HandleAccountByID(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestHandleAccountByID_Success(t *testing.T) {
	banks := &MockBankRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*bank.LinkedBank, error) {
			return &bank.LinkedBank{ID: id, UserID: "user-1", AccessToken: "token-1"}, nil
		},
	}
	handler := newAccountHandler(banks, &MockGateway{})

	req := authedRequest(http.MethodGet, "/api/accounts/bank-1", "user-1")
	req.SetPathValue("id", "bank-1")
	rr := httptest.NewRecorder()
	handler.HandleAccountByID(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var detail account.AccountDetail
	if err := json.NewDecoder(rr.Body).Decode(&detail); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if detail.Account == nil || detail.Account.BankID != "bank-1" {
		t.Errorf("Unexpected account payload: %+v", detail.Account)
	}
	if detail.Transactions == nil {
		t.Error("Expected a non-nil transactions list")
	}
}

func TestHandleListAccounts_MethodNotAllowed(t *testing.T) {
	handler := newAccountHandler(&MockBankRepo{}, &MockGateway{})

	req := authedRequest(http.MethodPost, "/api/accounts", "user-1")
	rr := httptest.NewRecorder()
	handler.HandleListAccounts(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusMethodNotAllowed)
	}
}
