package account

import (
	"context"
	"log"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/transaction"
	"horizon/internal/infrastructure/plaid"
)

var (
	aggTracer         = otel.Tracer("horizon/account")
	aggMeter          = otel.Meter("horizon/account")
	reauthDetected, _ = aggMeter.Int64Counter("account.reauth_detected",
		metric.WithDescription("Snapshots classified as needing reauthorization"))
)

// TransactionSyncer pulls the full gateway transaction stream for one access
// token. Implemented by linking.SyncService.
type TransactionSyncer interface {
	SyncTransactions(ctx context.Context, accessToken string) ([]transaction.Transaction, error)
}

// InstitutionCache caches institution metadata lookups. A nil cache is valid
// and simply disables caching.
type InstitutionCache interface {
	Get(ctx context.Context, institutionID string) (*plaid.Institution, bool)
	Set(ctx context.Context, institutionID string, institution *plaid.Institution)
}

// Service assembles the per-user aggregated account view. Every per-bank
// failure is contained at the bank level: one broken bank degrades to a
// placeholder snapshot, never aborting the listing.
type Service struct {
	banks        bank.Repository
	gateway      plaid.ClientInterface
	syncer       TransactionSyncer
	transfers    transaction.TransferRepository
	institutions InstitutionCache
}

// NewService creates a new account aggregation service
func NewService(
	banks bank.Repository,
	gateway plaid.ClientInterface,
	syncer TransactionSyncer,
	transfers transaction.TransferRepository,
	institutions InstitutionCache,
) *Service {
	return &Service{
		banks:        banks,
		gateway:      gateway,
		syncer:       syncer,
		transfers:    transfers,
		institutions: institutions,
	}
}

// ListAccounts resolves a live snapshot for every bank the user has linked
// and aggregates the totals.
//
// Gateway calls fan out with one goroutine per bank; each resolution is
// independent and results are collected positionally. Totals count only
// snapshots with NeedsReauth=false. A credential-store failure degrades to an
// empty result so callers always have a renderable state.
func (s *Service) ListAccounts(ctx context.Context, userID string) (*AccountList, error) {
	ctx, span := aggTracer.Start(ctx, "account.ListAccounts")
	defer span.End()

	empty := &AccountList{Accounts: []Snapshot{}, TotalCurrentBalance: decimal.Zero}

	banks, err := s.banks.ListByUserID(ctx, userID)
	if err != nil {
		log.Printf("Failed to load linked banks for user %s: %v", userID, err)
		return empty, nil
	}
	if len(banks) == 0 {
		return empty, nil
	}

	snapshots := make([]Snapshot, len(banks))
	var wg sync.WaitGroup
	for i, linked := range banks {
		wg.Add(1)
		go func(i int, linked *bank.LinkedBank) {
			defer wg.Done()
			snapshots[i] = s.resolveSnapshot(ctx, linked)
		}(i, linked)
	}
	wg.Wait()

	result := &AccountList{Accounts: snapshots, TotalCurrentBalance: decimal.Zero}
	for i := range snapshots {
		if snapshots[i].NeedsReauth {
			continue
		}
		result.TotalLinkedBanks++
		result.TotalCurrentBalance = result.TotalCurrentBalance.Add(snapshots[i].CurrentBalance)
	}

	span.SetAttributes(
		attribute.Int("account.total_banks", len(banks)),
		attribute.Int("account.healthy_banks", result.TotalLinkedBanks),
	)
	return result, nil
}

// GetAccount resolves a single bank's snapshot and builds its unified ledger.
// On total failure the result carries a nil account and an empty ledger
// rather than an error. A bank owned by another user is indistinguishable
// from a missing one.
func (s *Service) GetAccount(ctx context.Context, userID, bankID string) (*AccountDetail, error) {
	ctx, span := aggTracer.Start(ctx, "account.GetAccount")
	defer span.End()

	detail := &AccountDetail{Transactions: []transaction.LedgerEntry{}}

	linked, err := s.banks.GetByID(ctx, bankID)
	if err != nil {
		log.Printf("Failed to load bank %s: %v", bankID, err)
		return detail, nil
	}
	if linked.UserID != userID {
		log.Printf("Bank %s requested by non-owner %s", bankID, userID)
		return detail, nil
	}

	snapshot := s.resolveSnapshot(ctx, linked)
	detail.Account = &snapshot
	if snapshot.NeedsReauth {
		return detail, nil
	}

	gatewayTxs, err := s.syncer.SyncTransactions(ctx, linked.AccessToken)
	if err != nil {
		// A failed sync degrades the whole bank view; partial ledgers would
		// be misleading.
		log.Printf("Transaction sync failed for bank %s: %v", bankID, err)
		s.markUnresolved(&snapshot, plaid.Classify(err))
		return detail, nil
	}

	transfers, err := s.transfers.ListByBankID(ctx, linked.ID)
	if err != nil {
		log.Printf("Failed to load transfer records for bank %s, merging without them: %v", bankID, err)
		transfers = nil
	}

	detail.Transactions = transaction.MergeLedger(linked.ID, gatewayTxs, transfers)
	return detail, nil
}

// resolveSnapshot fetches the live account data for one bank link and
// classifies any failure into a placeholder snapshot.
func (s *Service) resolveSnapshot(ctx context.Context, linked *bank.LinkedBank) Snapshot {
	snapshot := Snapshot{
		BankID:      linked.ID,
		ShareableID: linked.ShareableID,
	}

	resp, err := s.gateway.GetAccounts(ctx, linked.AccessToken)
	if err != nil {
		log.Printf("Account snapshot failed for bank %s: %v", linked.ID, err)
		s.markUnresolved(&snapshot, plaid.Classify(err))
		return snapshot
	}
	if len(resp.Accounts) == 0 {
		s.markUnresolved(&snapshot, plaid.KindOther)
		return snapshot
	}

	data := resp.Accounts[0]
	snapshot.ID = data.AccountID
	snapshot.Name = data.Name
	snapshot.OfficialName = data.OfficialName
	snapshot.Mask = data.Mask
	snapshot.Type = data.Type
	snapshot.Subtype = data.Subtype
	snapshot.InstitutionID = resp.Item.InstitutionID
	if data.Balances.Available != nil {
		snapshot.AvailableBalance = *data.Balances.Available
	}
	if data.Balances.Current != nil {
		snapshot.CurrentBalance = *data.Balances.Current
	}

	if institution := s.lookupInstitution(ctx, resp.Item.InstitutionID); institution != nil && institution.Name != "" {
		snapshot.Name = institution.Name
	}

	return snapshot
}

// markUnresolved turns a snapshot into a reauth placeholder. Balances stay
// zeroed so the snapshot cannot leak into aggregate totals.
func (s *Service) markUnresolved(snapshot *Snapshot, kind plaid.Kind) {
	snapshot.NeedsReauth = true
	snapshot.AvailableBalance = decimal.Zero
	snapshot.CurrentBalance = decimal.Zero
	if kind == plaid.KindCredentialExpired {
		snapshot.Name = NameNeedsReconnection
	} else {
		snapshot.Name = NameUnavailable
	}
	reauthDetected.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("credential_expired", kind == plaid.KindCredentialExpired)))
}

// lookupInstitution resolves institution metadata, via the cache when one is
// configured. Lookup failures are non-fatal; the raw account name is kept.
func (s *Service) lookupInstitution(ctx context.Context, institutionID string) *plaid.Institution {
	if institutionID == "" {
		return nil
	}

	if s.institutions != nil {
		if cached, ok := s.institutions.Get(ctx, institutionID); ok {
			return cached
		}
	}

	institution, err := s.gateway.GetInstitution(ctx, institutionID)
	if err != nil {
		log.Printf("Institution lookup failed for %s: %v", institutionID, err)
		return nil
	}

	if s.institutions != nil {
		s.institutions.Set(ctx, institutionID, institution)
	}
	return institution
}
