/*
redemption.go - Reward redemption engine

PURPOSE:
  Converts balance into a reward claim. Redeem debits the account and
  creates a RedemptionRecord with a fresh single-use code in one atomic
  unit; Validate later consumes the code exactly once.

STATE MACHINE:
  Each record moves CREATED -> CONSUMED, once, and is never deleted.
  Concurrent validations of the same record yield exactly one success;
  the rest fail AlreadyConsumed via the store's consume-once primitive.

NOTIFICATIONS:
  Successful Redeem and Validate notify the account holder. Dispatch is
  fire-and-forget: it runs off the request path, never blocks the unit of
  work, and its failure is logged, not propagated.

SEE ALSO:
  - store.go: InsertRedemption/ConsumeRedemption primitives
  - notify.go: Notifier collaborator
*/
package coin

import (
	"context"
	"fmt"
)

// RedemptionEngine owns the RedemptionRecord lifecycle.
type RedemptionEngine struct {
	Store    TxStore
	Catalog  RewardCatalog
	Clock    Clock
	Tokens   TokenSource
	Notifier Notifier
}

func NewRedemptionEngine(store TxStore, catalog RewardCatalog, clock Clock, tokens TokenSource, notifier Notifier) *RedemptionEngine {
	return &RedemptionEngine{
		Store:    store,
		Catalog:  catalog,
		Clock:    clock,
		Tokens:   tokens,
		Notifier: notifier,
	}
}

// Redeem spends the reward's cost from the account and records the claim.
// Fails RewardUnavailable for inactive rewards and InsufficientFunds when
// the balance is short; on any failure the balance is unchanged and no
// record exists.
func (e *RedemptionEngine) Redeem(ctx context.Context, accountID AccountID, rewardID RewardID) (RedemptionRecord, error) {
	reward, err := e.Catalog.Reward(ctx, rewardID)
	if err != nil {
		return RedemptionRecord{}, err
	}
	if !reward.Active {
		return RedemptionRecord{}, ErrRewardUnavailable
	}
	code, err := e.Tokens.RedemptionCode()
	if err != nil {
		return RedemptionRecord{}, err
	}
	rec := RedemptionRecord{
		ID:         NewRedemptionID(),
		AccountID:  accountID,
		RewardID:   reward.ID,
		RewardName: reward.Name,
		CoinsSpent: reward.Cost,
		Code:       code,
		Consumed:   false,
		CreatedAt:  e.Clock.Now(),
	}
	err = e.Store.WithTx(ctx, func(s Store) error {
		if _, err := s.AdjustBalance(ctx, accountID, -reward.Cost); err != nil {
			return err
		}
		if err := s.AppendEntry(ctx, LedgerEntry{
			ID:        NewEntryID(),
			AccountID: accountID,
			Delta:     -reward.Cost,
			Reason:    ReasonRedemption,
			Note:      reward.Name,
			Correlate: string(rec.ID),
			At:        rec.CreatedAt,
		}); err != nil {
			return err
		}
		return s.InsertRedemption(ctx, rec)
	})
	if err != nil {
		return RedemptionRecord{}, err
	}

	e.notify(accountID, fmt.Sprintf("You redeemed %q. Redemption code: %s", reward.Name, rec.Code), string(rec.ID))
	return rec, nil
}

// Validate consumes a redemption code exactly once and returns the updated
// record. A non-empty callerID enforces ownership: validating someone
// else's record fails Forbidden. Partner terminals validate with an empty
// callerID.
func (e *RedemptionEngine) Validate(ctx context.Context, id RedemptionID, callerID AccountID) (RedemptionRecord, error) {
	rec, err := e.Store.Redemption(ctx, id)
	if err != nil {
		return RedemptionRecord{}, err
	}
	if callerID != "" && rec.AccountID != callerID {
		return RedemptionRecord{}, &ForbiddenError{
			RedemptionID: id,
			OwnerID:      rec.AccountID,
			CallerID:     callerID,
		}
	}
	consumed, err := e.Store.ConsumeRedemption(ctx, id)
	if err != nil {
		return RedemptionRecord{}, err
	}
	if !consumed {
		return RedemptionRecord{}, ErrAlreadyConsumed
	}
	rec.Consumed = true

	e.notify(rec.AccountID,
		fmt.Sprintf("Your redemption of %q (code %s) was validated.", rec.RewardName, rec.Code),
		string(rec.ID))
	return rec, nil
}

// GetRedemption returns a record without touching its state.
func (e *RedemptionEngine) GetRedemption(ctx context.Context, id RedemptionID) (RedemptionRecord, error) {
	return e.Store.Redemption(ctx, id)
}

// ListRedemptions returns the account's records, newest first.
func (e *RedemptionEngine) ListRedemptions(ctx context.Context, accountID AccountID) ([]RedemptionRecord, error) {
	if _, err := e.Store.Account(ctx, accountID); err != nil {
		return nil, err
	}
	return e.Store.RedemptionsByAccount(ctx, accountID)
}

func (e *RedemptionEngine) notify(accountID AccountID, message, correlationID string) {
	if e.Notifier == nil {
		return
	}
	Dispatch(e.Notifier, accountID, message, correlationID)
}
