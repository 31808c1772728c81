/*
bank.go - Balance store operations

PURPOSE:
  Credit, Debit, and Transfer: the only ways a balance changes outside of
  link payments and redemptions. Each operation is one atomic unit of work
  that adjusts the balance and appends the matching ledger entry; either
  both happen or neither does.

CONCURRENCY:
  Two concurrent debits that would individually succeed but jointly
  overdraw must see exactly one success and one InsufficientFunds. The
  store's AdjustBalance guard enforces this; Bank never reads a balance
  and writes it back.

SEE ALSO:
  - store.go: AdjustBalance contract
  - ledger.go: Entry log this writes to
*/
package coin

import "context"

// Bank mutates account balances through the atomic store contract.
type Bank struct {
	Store TxStore
	Clock Clock
}

func NewBank(store TxStore, clock Clock) *Bank {
	return &Bank{Store: store, Clock: clock}
}

// Credit adds amount coins to the account. Amount must be positive.
// Returns the new balance.
func (b *Bank) Credit(ctx context.Context, id AccountID, amount int64, note string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var newBalance int64
	err := b.Store.WithTx(ctx, func(s Store) error {
		bal, err := s.AdjustBalance(ctx, id, amount)
		if err != nil {
			return err
		}
		newBalance = bal
		return s.AppendEntry(ctx, LedgerEntry{
			ID:        NewEntryID(),
			AccountID: id,
			Delta:     amount,
			Reason:    ReasonCredit,
			Note:      note,
			At:        b.Clock.Now(),
		})
	})
	return newBalance, err
}

// Debit removes amount coins from the account. Amount must be positive.
// Fails with InsufficientFunds if the balance is short; no partial debit
// is ever visible. Returns the new balance.
func (b *Bank) Debit(ctx context.Context, id AccountID, amount int64, note string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var newBalance int64
	err := b.Store.WithTx(ctx, func(s Store) error {
		bal, err := s.AdjustBalance(ctx, id, -amount)
		if err != nil {
			return err
		}
		newBalance = bal
		return s.AppendEntry(ctx, LedgerEntry{
			ID:        NewEntryID(),
			AccountID: id,
			Delta:     -amount,
			Reason:    ReasonDebit,
			Note:      note,
			At:        b.Clock.Now(),
		})
	})
	return newBalance, err
}

// Transfer moves amount coins from one account to another, atomically.
// This is how teachers grant coins to students: the sender is debited,
// the recipient credited, and both sides get a ledger entry sharing one
// transfer ID. Coins are conserved, unlike a link payment.
func (b *Bank) Transfer(ctx context.Context, from, to AccountID, amount int64, note string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrInvalidAmount
	}
	transferID := string(NewEntryID())
	now := b.Clock.Now()
	return b.Store.WithTx(ctx, func(s Store) error {
		if _, err := s.AdjustBalance(ctx, from, -amount); err != nil {
			return err
		}
		if _, err := s.AdjustBalance(ctx, to, amount); err != nil {
			return err
		}
		if err := s.AppendEntry(ctx, LedgerEntry{
			ID:        NewEntryID(),
			AccountID: from,
			Delta:     -amount,
			Reason:    ReasonTransferOut,
			Note:      note,
			Correlate: transferID,
			At:        now,
		}); err != nil {
			return err
		}
		return s.AppendEntry(ctx, LedgerEntry{
			ID:        NewEntryID(),
			AccountID: to,
			Delta:     amount,
			Reason:    ReasonTransferIn,
			Note:      note,
			Correlate: transferID,
			At:        now,
		})
	})
}

// Balance returns the current stored balance.
func (b *Bank) Balance(ctx context.Context, id AccountID) (int64, error) {
	a, err := b.Store.Account(ctx, id)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}
