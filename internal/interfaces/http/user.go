package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"horizon/internal/domain/user"
	"horizon/internal/shared/middleware"
)

// UserHandler serves the authenticated user's profile and device token
// registration.
type UserHandler struct {
	users user.Repository
}

// NewUserHandler creates a new user handler
func NewUserHandler(users user.Repository) *UserHandler {
	return &UserHandler{users: users}
}

type DeviceTokenRequest struct {
	Token string `json:"token"`
}

// HandleMe returns the authenticated user's profile.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
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
		if errors.Is(err, user.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("Error loading user %s: %v", userID, err)
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userModel)
}

// HandleDeviceToken registers (PUT) or clears (DELETE) the push notification
// token for the authenticated user's device.
func (h *UserHandler) HandleDeviceToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req DeviceTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Token == "" {
			http.Error(w, "Token is required", http.StatusBadRequest)
			return
		}
		if err := h.users.UpdateDeviceToken(r.Context(), userID, &req.Token); err != nil {
			log.Printf("Error updating device token for user %s: %v", userID, err)
			http.Error(w, "Failed to update device token", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := h.users.UpdateDeviceToken(r.Context(), userID, nil); err != nil {
			log.Printf("Error clearing device token for user %s: %v", userID, err)
			http.Error(w, "Failed to clear device token", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
