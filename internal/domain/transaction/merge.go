package transaction

import "sort"

// TypeDebit and TypeCredit are the directions assigned to transfer records
// relative to the bank being viewed.
const (
	TypeDebit  = "debit"
	TypeCredit = "credit"
)

// MergeLedger combines gateway transactions with internally-recorded transfer
// records into a single chronologically ordered ledger for one bank.
//
// Transfer records carry no stored direction: a record whose SenderBankID
// matches the viewed bank is a debit, anything else a credit. The result is
// sorted most recent first; the sort is stable so entries sharing a timestamp
// keep their original relative order.
func MergeLedger(bankID string, gatewayTxs []Transaction, transfers []*TransferRecord) []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(gatewayTxs)+len(transfers))

	for _, tx := range gatewayTxs {
		entries = append(entries, LedgerEntry{
			ID:             tx.ID,
			Name:           tx.Name,
			Amount:         tx.Amount,
			Date:           tx.Date,
			PaymentChannel: tx.PaymentChannel,
			Category:       tx.Category,
			Type:           tx.Type,
		})
	}

	for _, tr := range transfers {
		direction := TypeCredit
		if tr.SenderBankID == bankID {
			direction = TypeDebit
		}
		entries = append(entries, LedgerEntry{
			ID:             tr.ID,
			Name:           tr.Name,
			Amount:         tr.Amount,
			Date:           tr.CreatedAt,
			PaymentChannel: tr.Channel,
			Category:       tr.Category,
			Type:           direction,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})

	return entries
}
