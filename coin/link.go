/*
link.go - Payment link manager

PURPOSE:
  Creates, reads, deletes, and pays the time-bound payment links that let
  anyone push coins into an account. A link is a (token, amount, expiry)
  triple attached to its owner; at most one is active per owner and
  creating a new one replaces the old.

ONE-SHOT CONSUMPTION:
  Paying a link credits the owner and deletes the link in one atomic unit.
  If two payers race on the same token, the store's compare-and-clear
  guarantees exactly one succeeds; the loser observes LinkNotFound because
  the token is already gone.

MINTING SEMANTICS:
  PayLink credits the owner WITHOUT debiting the payer. Coins are created
  at payment, mirroring an external top-up rather than a peer transfer.
  This reproduces the observed behavior of the system it replaces and is
  pinned by tests; peer movement that conserves coins is Bank.Transfer.

EXPIRY:
  Links live for a fixed TTL (5 minutes by default). ReadLink and PayLink
  check expiry at call time against the injected clock; the background
  reaper only reclaims storage and is never needed for correctness.

SEE ALSO:
  - store.go: PutLink/ClearLink/PurgeExpiredLinks primitives
  - api/reaper.go: Periodic purge of expired links
*/
package coin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLinkTTL is how long a payment link stays payable after creation.
const DefaultLinkTTL = 5 * time.Minute

// LinkManager owns the PaymentLink lifecycle.
type LinkManager struct {
	Store  TxStore
	Clock  Clock
	Tokens TokenSource
	TTL    time.Duration
}

func NewLinkManager(store TxStore, clock Clock, tokens TokenSource) *LinkManager {
	return &LinkManager{Store: store, Clock: clock, Tokens: tokens, TTL: DefaultLinkTTL}
}

// CreateLink mints a fresh link for the owner, replacing any existing one.
// The old token becomes immediately unresolvable. Negative amounts are
// rejected; a zero amount is storable but never payable.
func (m *LinkManager) CreateLink(ctx context.Context, owner AccountID, amount decimal.Decimal) (PaymentLink, error) {
	if amount.IsNegative() {
		return PaymentLink{}, ErrInvalidAmount
	}
	if _, err := m.Store.Account(ctx, owner); err != nil {
		return PaymentLink{}, err
	}
	token, err := m.Tokens.LinkToken()
	if err != nil {
		return PaymentLink{}, err
	}
	now := m.Clock.Now()
	link := PaymentLink{
		Owner:     owner,
		Token:     token,
		Amount:    amount,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl()),
	}
	if err := m.Store.PutLink(ctx, link); err != nil {
		return PaymentLink{}, err
	}
	return link, nil
}

// ReadLink returns the owner's active link, or an expired view if the link
// is absent or past expiry. Expiry on read is not an error: repeated reads
// after expiry keep returning the same expired view.
func (m *LinkManager) ReadLink(ctx context.Context, owner AccountID) (LinkView, error) {
	if _, err := m.Store.Account(ctx, owner); err != nil {
		return LinkView{}, err
	}
	link, err := m.Store.LinkByOwner(ctx, owner)
	if err != nil {
		if IsNotFound(err) {
			return LinkView{Expired: true}, nil
		}
		return LinkView{}, err
	}
	if link.ExpiredAt(m.Clock.Now()) {
		return LinkView{ExpiresAt: link.ExpiresAt, Expired: true}, nil
	}
	return LinkView{
		Token:     link.Token,
		Amount:    link.Amount,
		ExpiresAt: link.ExpiresAt,
	}, nil
}

// DeleteLink clears the owner's link. Idempotent: deleting an absent link
// is a no-op.
func (m *LinkManager) DeleteLink(ctx context.Context, owner AccountID) error {
	_, err := m.Store.ClearLink(ctx, owner, "")
	return err
}

// PayLink resolves the token, credits the owner with the link's integer
// coin value, appends the ledger entry, and consumes the link, all in one
// atomic unit. The payer's balance is untouched (see MINTING SEMANTICS).
//
// Exactly one concurrent payer can win: the compare-and-clear fails for
// everyone else with LinkNotFound.
func (m *LinkManager) PayLink(ctx context.Context, payer AccountID, token string) (LedgerEntry, error) {
	var entry LedgerEntry
	err := m.Store.WithTx(ctx, func(s Store) error {
		link, err := s.LinkByToken(ctx, token)
		if err != nil {
			return err
		}
		if link.ExpiredAt(m.Clock.Now()) {
			return ErrLinkExpired
		}
		if !link.Amount.IsPositive() {
			return ErrInvalidAmount
		}
		cleared, err := s.ClearLink(ctx, link.Owner, token)
		if err != nil {
			return err
		}
		if !cleared {
			// Lost the race: someone consumed the token first.
			return ErrLinkNotFound
		}
		if _, err := s.AdjustBalance(ctx, link.Owner, link.CreditValue()); err != nil {
			return err
		}
		entry = LedgerEntry{
			ID:        NewEntryID(),
			AccountID: link.Owner,
			Delta:     link.CreditValue(),
			Reason:    ReasonLinkPayment,
			Note:      "paid by " + string(payer),
			Correlate: token,
			At:        m.Clock.Now(),
		}
		return s.AppendEntry(ctx, entry)
	})
	if err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

func (m *LinkManager) ttl() time.Duration {
	if m.TTL <= 0 {
		return DefaultLinkTTL
	}
	return m.TTL
}
