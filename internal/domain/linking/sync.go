package linking

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"horizon/internal/domain/transaction"
	"horizon/internal/infrastructure/plaid"
)

var (
	syncTracer      = otel.Tracer("horizon/linking")
	syncMeter       = otel.Meter("horizon/linking")
	syncPages, _    = syncMeter.Int64Counter("linking.sync.pages", metric.WithDescription("Transaction sync pages fetched"))
	syncRetries, _  = syncMeter.Int64Counter("linking.sync.cursor_retries", metric.WithDescription("Full resyncs triggered by an invalid cursor"))
	syncFailures, _ = syncMeter.Int64Counter("linking.sync.failures", metric.WithDescription("Sync attempts that ended in a fatal error"))
)

// ErrMissingAdded reports a sync response without an added collection, which
// is a malformed response rather than a retryable condition.
var ErrMissingAdded = errors.New("gateway sync response missing added collection")

// SyncService performs cursor-driven incremental pulls of transaction deltas
// from the linking gateway.
type SyncService struct {
	gateway plaid.ClientInterface
}

// NewSyncService creates a new transaction sync service
func NewSyncService(gateway plaid.ClientInterface) *SyncService {
	return &SyncService{gateway: gateway}
}

// SyncTransactions pulls the full transaction stream for one access token.
//
// The loop holds an opaque cursor, initially absent. Each page advances the
// cursor and appends the mapped added transactions; an empty next cursor
// forces termination even when the server still reports has_more, so a cursor
// that never stabilizes cannot loop forever. Results are returned in fetch
// order; chronological sorting happens downstream in the ledger merge.
//
// A cursor the gateway rejects as invalid is never reused: when a cursor had
// been set, the sync restarts from the beginning exactly once and returns
// that single page. Any other error, or a failure on the retry, is fatal for
// this sync attempt.
func (s *SyncService) SyncTransactions(ctx context.Context, accessToken string) ([]transaction.Transaction, error) {
	ctx, span := syncTracer.Start(ctx, "linking.SyncTransactions")
	defer span.End()

	var (
		transactions []transaction.Transaction
		cursor       string
		hasMore      = true
	)

	for hasMore {
		resp, err := s.gateway.TransactionsSync(ctx, accessToken, cursor)
		if err != nil {
			if plaid.Classify(err) == plaid.KindInvalidCursor && cursor != "" {
				return s.retryWithoutCursor(ctx, accessToken, err)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			syncFailures.Add(ctx, 1)
			return nil, fmt.Errorf("transaction sync failed: %w", err)
		}

		if resp.Added == nil {
			syncFailures.Add(ctx, 1)
			return nil, ErrMissingAdded
		}

		page, err := mapTransactions(resp.Added)
		if err != nil {
			syncFailures.Add(ctx, 1)
			return nil, err
		}
		transactions = append(transactions, page...)
		syncPages.Add(ctx, 1)

		cursor = resp.NextCursor
		hasMore = resp.HasMore

		// A cursor that never stabilizes must not loop forever.
		if cursor == "" {
			hasMore = false
		}
	}

	span.SetAttributes(attribute.Int("sync.transactions", len(transactions)))
	return transactions, nil
}

// retryWithoutCursor performs the single full-resync retry after an invalid
// cursor. Only the first page is returned; no further pagination.
func (s *SyncService) retryWithoutCursor(ctx context.Context, accessToken string, cause error) ([]transaction.Transaction, error) {
	log.Printf("Retrying transaction sync without cursor after invalid cursor: %v", cause)
	syncRetries.Add(ctx, 1)

	resp, err := s.gateway.TransactionsSync(ctx, accessToken, "")
	if err != nil {
		syncFailures.Add(ctx, 1)
		return nil, fmt.Errorf("transaction sync retry failed: %w", err)
	}
	if resp.Added == nil {
		syncFailures.Add(ctx, 1)
		return nil, ErrMissingAdded
	}

	return mapTransactions(resp.Added)
}

func mapTransactions(added []plaid.SyncedTransaction) ([]transaction.Transaction, error) {
	mapped := make([]transaction.Transaction, 0, len(added))
	for i := range added {
		tx := &added[i]
		date, err := tx.GetDate()
		if err != nil {
			return nil, fmt.Errorf("failed to map transaction %s: %w", tx.TransactionID, err)
		}
		mapped = append(mapped, transaction.Transaction{
			ID:             tx.TransactionID,
			Name:           tx.Name,
			PaymentChannel: tx.PaymentChannel,
			Type:           tx.PaymentChannel,
			AccountID:      tx.AccountID,
			Amount:         tx.Amount,
			Pending:        tx.Pending,
			Category:       tx.FirstCategory(),
			Date:           date,
			Image:          tx.LogoURL,
		})
	}
	return mapped, nil
}
