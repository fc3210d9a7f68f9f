package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"horizon/internal/domain/user"
)

func TestHandleMe(t *testing.T) {
	tests := []struct {
		name           string
		users          *MockUserRepo
		expectedStatus int
	}{
		{
			name: "Success",
			users: &MockUserRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
					return &user.User{ID: id, Email: "jane@example.com"}, nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Not Found",
			users: &MockUserRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
					return nil, user.ErrUserNotFound
				},
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewUserHandler(tt.users)

			req := authedRequest(http.MethodGet, "/api/users/me", "user-1")
			rr := httptest.NewRecorder()
			handler.HandleMe(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}

			if tt.expectedStatus == http.StatusOK {
				var u user.User
				if err := json.NewDecoder(rr.Body).Decode(&u); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if u.ID != "user-1" {
					t.Errorf("Expected user-1, got %q", u.ID)
				}
			}
		})
	}
}

func TestHandleDeviceToken_Put(t *testing.T) {
	var gotToken *string
	users := &MockUserRepo{
		UpdateDeviceTokenFunc: func(ctx context.Context, userID string, token *string) error {
			gotToken = token
			return nil
		},
	}
	handler := NewUserHandler(users)

	req := authedRequestWithBody(http.MethodPut, "/api/users/me/device-token", "user-1", strings.NewReader(`{"token": "fcm-token-1"}`))
	rr := httptest.NewRecorder()
	handler.HandleDeviceToken(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusNoContent)
	}
	if gotToken == nil || *gotToken != "fcm-token-1" {
		t.Errorf("Expected token fcm-token-1 to be stored, got %v", gotToken)
	}
}

func TestHandleDeviceToken_PutEmptyToken(t *testing.T) {
	handler := NewUserHandler(&MockUserRepo{})

	req := authedRequestWithBody(http.MethodPut, "/api/users/me/device-token", "user-1", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handler.HandleDeviceToken(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleDeviceToken_Delete(t *testing.T) {
	cleared := false
	users := &MockUserRepo{
		UpdateDeviceTokenFunc: func(ctx context.Context, userID string, token *string) error {
			cleared = token == nil
			return nil
		},
	}
	handler := NewUserHandler(users)

	req := authedRequest(http.MethodDelete, "/api/users/me/device-token", "user-1")
	rr := httptest.NewRecorder()
	handler.HandleDeviceToken(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusNoContent)
	}
	if !cleared {
		t.Error("Expected the stored token to be cleared")
	}
}
