/*
store.go - Persistence interface for the coin engine

PURPOSE:
  Defines the contract between the engine and the database. Every state
  transition the engine relies on is an atomic primitive here: conditional
  balance adjustment, compare-and-clear of payment links, consume-once of
  redemption records. The engine composes primitives inside WithTx for
  multi-write units of work.

ATOMICITY CONTRACT:
  - AdjustBalance never leaves a balance negative: the guard and the write
    are one operation.
  - ClearLink only clears when the stored token still matches: the read,
    the compare, and the clear are one operation.
  - ConsumeRedemption flips consumed false->true at most once across all
    concurrent callers.

APPEND-ONLY LEDGER:
  AppendEntry is the only ledger write. There is no update or delete;
  the entries for an account replay to its current balance.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - coin/store: In-memory store for tests

SEE ALSO:
  - ledger.go: Higher-level ledger access
  - bank.go, link.go, redemption.go: Engine components composing these ops
*/
package coin

import (
	"context"
	"time"
)

// Store handles persistence for accounts, links, redemptions, rewards, and
// the append-only ledger.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, a Account) error
	Account(ctx context.Context, id AccountID) (Account, error)
	Accounts(ctx context.Context) ([]Account, error)

	// AdjustBalance applies delta to the account's balance atomically.
	// Returns the new balance. Fails with ErrNotFound if the account does
	// not exist, or *InsufficientFundsError if the result would be negative
	// (in which case the balance is untouched).
	AdjustBalance(ctx context.Context, id AccountID, delta int64) (int64, error)

	// Ledger (append-only; no update, no delete)
	AppendEntry(ctx context.Context, e LedgerEntry) error
	Entries(ctx context.Context, id AccountID) ([]LedgerEntry, error)

	// Payment links: at most one per owner, replace-on-create.
	PutLink(ctx context.Context, link PaymentLink) error
	LinkByOwner(ctx context.Context, owner AccountID) (PaymentLink, error)
	LinkByToken(ctx context.Context, token string) (PaymentLink, error)

	// ClearLink removes the owner's link. With a non-empty token it is a
	// compare-and-clear: the link is removed only if the stored token still
	// matches, and the return value reports whether anything was cleared.
	// With an empty token it clears unconditionally (idempotent delete).
	ClearLink(ctx context.Context, owner AccountID, token string) (bool, error)

	// PurgeExpiredLinks removes every link whose expiry is before now.
	// Returns the number of links removed.
	PurgeExpiredLinks(ctx context.Context, now time.Time) (int, error)

	// Redemption records: inserted once, consumed at most once, never deleted.
	InsertRedemption(ctx context.Context, rec RedemptionRecord) error
	Redemption(ctx context.Context, id RedemptionID) (RedemptionRecord, error)
	RedemptionsByAccount(ctx context.Context, id AccountID) ([]RedemptionRecord, error)

	// ConsumeRedemption flips consumed false->true. Returns false if the
	// record was already consumed. Fails with ErrNotFound if absent.
	ConsumeRedemption(ctx context.Context, id RedemptionID) (bool, error)

	// Reward catalog. Store satisfies RewardCatalog so the redemption
	// engine can resolve rewards from the same transactional source.
	SaveReward(ctx context.Context, r Reward) error
	Reward(ctx context.Context, id RewardID) (Reward, error)
	Rewards(ctx context.Context) ([]Reward, error)
}

// TxStore wraps Store with transaction support. Engine operations that
// touch more than one row (debit + record, credit + entry + link clear)
// run inside WithTx: if fn returns an error everything rolls back.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
