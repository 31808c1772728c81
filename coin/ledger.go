/*
ledger.go - Append-only transaction log

PURPOSE:
  The ledger is the audit trail for every balance-affecting event: credit,
  debit, transfer, link payment, redemption. Entries are written in the
  same atomic unit of work as the balance change they describe.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No update, no delete. Ever.
  2. RECONCILIATION: For every account, the running sum of entry deltas
     equals the account's current balance.
  3. CORRELATION: Every entry carries the record it belongs to (redemption
     ID, link token, transfer ID) so statements can be traced.

WHY APPEND-ONLY?
  - Statements: the student-facing "extrato" is just the entries, newest first
  - Audits: any balance can be explained by replaying its entries
  - Correctness: no partial update can corrupt history

SEE ALSO:
  - store.go: AppendEntry/Entries primitives
  - bank.go: Writes entries alongside balance changes
*/
package coin

import "context"

// Ledger reads the append-only entry log.
type Ledger struct {
	Store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{Store: store}
}

// Statement returns the account's entries newest-first, the order a
// statement is displayed. Fails with ErrNotFound for unknown accounts.
func (l *Ledger) Statement(ctx context.Context, id AccountID) ([]LedgerEntry, error) {
	if _, err := l.Store.Account(ctx, id); err != nil {
		return nil, err
	}
	entries, err := l.Store.Entries(ctx, id)
	if err != nil {
		return nil, err
	}
	// Entries loads chronologically; reverse for display.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// ReplayBalance computes the account's balance from its entries alone.
// Used by audits and tests to check the reconciliation invariant against
// the stored balance.
func (l *Ledger) ReplayBalance(ctx context.Context, id AccountID) (int64, error) {
	entries, err := l.Store.Entries(ctx, id)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, e := range entries {
		sum += e.Delta
	}
	return sum, nil
}
