package account

import (
	"github.com/shopspring/decimal"

	"horizon/internal/domain/transaction"
)

// Placeholder display names for banks whose live snapshot could not be
// resolved.
const (
	NameUnavailable       = "Account Unavailable"
	NameNeedsReconnection = "Bank Needs Reconnection"
)

// Snapshot is the live view of one linked bank. Derived on every read from
// the credential store plus a gateway call; never persisted. When NeedsReauth
// is set the balances are zeroed placeholders, not real data, and must never
// be summed into aggregate totals.
type Snapshot struct {
	ID               string          `json:"id"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	InstitutionID    string          `json:"institutionId"`
	Name             string          `json:"name"`
	OfficialName     string          `json:"officialName"`
	Mask             string          `json:"mask"`
	Type             string          `json:"type"`
	Subtype          string          `json:"subtype"`
	BankID           string          `json:"bankId"`
	ShareableID      string          `json:"shareableId"`
	NeedsReauth      bool            `json:"needsReauth"`
}

// AccountList is the aggregated per-user summary. Totals cover only accounts
// with NeedsReauth=false; placeholder snapshots are still listed for display.
type AccountList struct {
	Accounts            []Snapshot      `json:"accounts"`
	TotalLinkedBanks    int             `json:"totalLinkedBanks"`
	TotalCurrentBalance decimal.Decimal `json:"totalCurrentBalance"`
}

// AccountDetail is the single-bank view with its unified ledger. Account is
// nil when the bank could not be resolved at all; callers must check.
type AccountDetail struct {
	Account      *Snapshot                 `json:"account"`
	Transactions []transaction.LedgerEntry `json:"transactions"`
}
