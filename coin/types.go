/*
Package coin provides the core virtual-currency engine.

PURPOSE:
  This package contains the domain types and operations for the student
  coin system: accounts with integer coin balances, an append-only ledger
  of every balance change, short-lived payment links, and single-use
  reward redemptions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A balance holder (student, teacher, or partner)
  - LedgerEntry: An immutable record of one balance delta
  - PaymentLink: A time-bound, one-shot token for pushing coins to an account
  - Reward / RedemptionRecord: Catalog items and proof of redemption

DESIGN PRINCIPLES:
  1. Immutability: Ledger entries are never modified or deleted
  2. Integer coins: Balances are int64 coins and can never go negative
  3. Derived trust: sum of ledger deltas must always equal the balance
  4. One-shot capabilities: links and redemption codes are consumed exactly once

USAGE:
  bank := &coin.Bank{Store: store, Clock: coin.SystemClock{}}
  balance, err := bank.Credit(ctx, "acct-1", 100)

SEE ALSO:
  - errors.go: Error taxonomy
  - bank.go: Credit/Debit/Transfer operations
  - link.go: Payment link lifecycle
  - redemption.go: Reward redemption engine
*/
package coin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type RewardID string
type RedemptionID string
type EntryID string

// =============================================================================
// ACCOUNT - A balance holder
// =============================================================================

// Role tags what kind of holder an account belongs to. Authorization at the
// boundary only needs this tag; there is no subtype hierarchy.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RolePartner Role = "partner"
)

// Account holds a non-negative integer coin balance.
// Balance is mutated only through the atomic store operations; every
// mutation is paired with a LedgerEntry in the same unit of work.
type Account struct {
	ID        AccountID
	Name      string
	Email     string
	Role      Role
	Balance   int64
	CreatedAt time.Time
}

// =============================================================================
// LEDGER ENTRY - Immutable record of one balance delta
// =============================================================================

type EntryReason string

const (
	ReasonCredit      EntryReason = "credit"
	ReasonDebit       EntryReason = "debit"
	ReasonTransferOut EntryReason = "transfer sent"
	ReasonTransferIn  EntryReason = "transfer received"
	ReasonLinkPayment EntryReason = "payment via link"
	ReasonRedemption  EntryReason = "redemption"
)

// LedgerEntry is an append-only fact. The running sum of Delta for an
// account, replayed from account creation, equals the account's balance.
type LedgerEntry struct {
	ID        EntryID
	AccountID AccountID
	Delta     int64
	Reason    EntryReason
	Note      string // free-text motive, e.g. why a teacher sent coins
	Correlate string // related record: redemption ID, link token, transfer ID
	At        time.Time
}

// =============================================================================
// PAYMENT LINK - Time-bound one-shot capability
// =============================================================================

// PaymentLink lets anyone holding the token push coins into the owner's
// account. At most one link exists per owner; creating a new one replaces
// the old. Paying consumes the link.
//
// Amount is a decimal because link amounts arrive from the boundary as
// decimals; the credit applied on payment is the truncated integer part.
type PaymentLink struct {
	Owner     AccountID
	Token     string
	Amount    decimal.Decimal
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the link is past its expiry at the given time.
func (l PaymentLink) ExpiredAt(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// CreditValue is the integer number of coins minted when the link is paid.
func (l PaymentLink) CreditValue() int64 {
	return l.Amount.IntPart()
}

// LinkView is the read model for a link. Reads never fail on expiry: an
// expired or absent link yields a view with Expired set, so repeated reads
// after expiry stay idempotent.
type LinkView struct {
	Token     string
	Amount    decimal.Decimal
	ExpiresAt time.Time
	Expired   bool
}

// =============================================================================
// REWARD CATALOG
// =============================================================================

// Reward is a catalog item a student can spend coins on.
type Reward struct {
	ID          RewardID
	PartnerID   AccountID
	Name        string
	Description string
	Cost        int64
	Active      bool
	CreatedAt   time.Time
}

// RewardCatalog resolves rewards for the redemption engine. The engine only
// needs cost and availability; the catalog may live anywhere.
type RewardCatalog interface {
	Reward(ctx context.Context, id RewardID) (Reward, error)
}

// =============================================================================
// REDEMPTION RECORD - Proof that coins were spent on a reward
// =============================================================================

// RedemptionRecord transitions CREATED -> CONSUMED exactly once and is
// never deleted. CoinsSpent is fixed at redemption time.
type RedemptionRecord struct {
	ID         RedemptionID
	AccountID  AccountID
	RewardID   RewardID
	RewardName string
	CoinsSpent int64
	Code       string
	Consumed   bool
	CreatedAt  time.Time
}
