package scheduler

import (
	"context"
	"fmt"
	"log"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/user"
	"horizon/internal/infrastructure/plaid"
)

// ReauthNotifier alerts a user that one of their banks needs to be
// reconnected. Implemented by notification.Service.
type ReauthNotifier interface {
	NotifyReauth(ctx context.Context, userID, bankID, institutionName string) error
}

// LinkHealthJob probes every bank link of one user against the gateway and
// notifies the user about links whose credentials expired.
type LinkHealthJob struct {
	userID   string
	banks    bank.Repository
	gateway  plaid.ClientInterface
	notifier ReauthNotifier
}

// NewLinkHealthJob creates a link health check job for a user.
func NewLinkHealthJob(userID string, banks bank.Repository, gateway plaid.ClientInterface, notifier ReauthNotifier) *LinkHealthJob {
	return &LinkHealthJob{
		userID:   userID,
		banks:    banks,
		gateway:  gateway,
		notifier: notifier,
	}
}

// Execute checks each link. Expired credentials are the expected finding and
// trigger a notification; only infrastructure failures count as job errors.
func (j *LinkHealthJob) Execute(ctx context.Context) error {
	links, err := j.banks.ListByUserID(ctx, j.userID)
	if err != nil {
		return fmt.Errorf("failed to load bank links: %w", err)
	}

	failures := 0
	for _, linked := range links {
		_, err := j.gateway.GetAccounts(ctx, linked.AccessToken)
		if err == nil {
			continue
		}

		if plaid.Classify(err) == plaid.KindCredentialExpired {
			if nerr := j.notifier.NotifyReauth(ctx, j.userID, linked.ID, ""); nerr != nil {
				log.Printf("Failed to send reauth alert for bank %s: %v", linked.ID, nerr)
				failures++
			}
			continue
		}

		log.Printf("Link health probe failed for bank %s: %v", linked.ID, err)
		failures++
	}

	if failures > 0 {
		return fmt.Errorf("link health check completed with %d errors", failures)
	}
	return nil
}

func (j *LinkHealthJob) UserID() string {
	return j.userID
}

func (j *LinkHealthJob) Description() string {
	return fmt.Sprintf("Link health check for user %s", j.userID)
}

// LinkHealthProvider builds one LinkHealthJob per registered user.
func LinkHealthProvider(users user.Repository, banks bank.Repository, gateway plaid.ClientInterface, notifier ReauthNotifier) JobProvider {
	return func(ctx context.Context) ([]Job, error) {
		all, err := users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		jobs := make([]Job, 0, len(all))
		for _, u := range all {
			jobs = append(jobs, NewLinkHealthJob(u.ID, banks, gateway, notifier))
		}
		return jobs, nil
	}
}
