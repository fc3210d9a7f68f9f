package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"horizon/internal/domain/user"
	"horizon/internal/shared/messages"
)

// Deduper suppresses repeat notifications for the same subject inside a
// window. Backed by Redis in production.
type Deduper interface {
	// Mark records key for ttl and reports whether it was already recorded.
	Mark(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

const defaultReauthWindow = 24 * time.Hour

// Service sends push notifications to users about the health of their bank
// links.
type Service struct {
	users     user.Repository
	messenger Messenger
	dedup     Deduper
	window    time.Duration
}

// NewService creates a new notification service. dedup may be nil, in which
// case every detected reauth triggers a push. messenger may be nil when push
// messaging is not configured; alerts are then dropped with a log line.
func NewService(users user.Repository, messenger Messenger, dedup Deduper) *Service {
	return &Service{
		users:     users,
		messenger: messenger,
		dedup:     dedup,
		window:    defaultReauthWindow,
	}
}

// NotifyReauth alerts the owner of a bank link that its credentials expired.
// Alerts for the same bank are suppressed for the dedup window so a scheduler
// running every few minutes does not spam the user.
func (s *Service) NotifyReauth(ctx context.Context, userID, bankID, institutionName string) error {
	if s.messenger == nil {
		log.Printf("Push messaging not configured, dropping reauth alert for bank %s", bankID)
		return nil
	}

	if s.dedup != nil {
		already, err := s.dedup.Mark(ctx, "notify:reauth:"+bankID, s.window)
		if err != nil {
			// Dedup store being down should not silence alerts.
			log.Printf("Reauth dedup check failed for bank %s, sending anyway: %v", bankID, err)
		} else if already {
			return nil
		}
	}

	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s for reauth alert: %w", userID, err)
	}
	if owner.DeviceToken == nil || *owner.DeviceToken == "" {
		log.Printf("User %s has no device token, skipping reauth alert", userID)
		return nil
	}

	name := institutionName
	if name == "" {
		name = "One of your banks"
	}

	text := messages.BankReauth()
	return s.messenger.Send(ctx, *owner.DeviceToken,
		text.Title,
		fmt.Sprintf(text.Body, name),
		map[string]string{
			"type":   "bank_reauth",
			"bankId": bankID,
		},
	)
}
