package coin_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtus/coin-engine/coin"
	"github.com/virtus/coin-engine/coin/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, _ coin.AccountID, message, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func newTestRedemptionEngine(t *testing.T) (*coin.RedemptionEngine, *store.Memory, *recordingNotifier) {
	t.Helper()
	mem := store.NewMemory()
	clock := coin.NewManualClock(testStart)
	notifier := &recordingNotifier{}
	engine := coin.NewRedemptionEngine(mem, mem, clock, coin.RandomTokenSource{}, notifier)
	return engine, mem, notifier
}

func seedReward(t *testing.T, s coin.Store, id string, cost int64, active bool) {
	t.Helper()
	err := s.SaveReward(context.Background(), coin.Reward{
		ID:        coin.RewardID(id),
		PartnerID: "cafe",
		Name:      id,
		Cost:      cost,
		Active:    active,
		CreatedAt: testStart,
	})
	require.NoError(t, err)
}

// =============================================================================
// REDEEM TESTS
// =============================================================================

func TestRedemptionEngine_Redeem_DebitsAndRecords(t *testing.T) {
	// GIVEN: A student with 100 coins and a 40-coin reward
	// WHEN: The student redeems it
	// THEN: Balance drops to 60, a record with a code exists, a ledger
	//       entry was written

	engine, mem, _ := newTestRedemptionEngine(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 100)
	seedReward(t, mem, "free-snack", 40, true)

	rec, err := engine.Redeem(ctx, "alice", "free-snack")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, rec.Code)
	assert.Equal(t, int64(40), rec.CoinsSpent)
	assert.Equal(t, "free-snack", rec.RewardName)
	assert.False(t, rec.Consumed)

	alice, _ := mem.Account(ctx, "alice")
	assert.Equal(t, int64(60), alice.Balance)

	entries, _ := mem.Entries(ctx, "alice")
	require.Len(t, entries, 1)
	assert.Equal(t, int64(-40), entries[0].Delta)
	assert.Equal(t, coin.ReasonRedemption, entries[0].Reason)
	assert.Equal(t, string(rec.ID), entries[0].Correlate)
}

func TestRedemptionEngine_Redeem_InsufficientFundsLeavesNoTrace(t *testing.T) {
	// GIVEN: A student with 10 coins and a 40-coin reward
	// WHEN: Redeeming
	// THEN: InsufficientFunds; no record, no entry, balance intact

	engine, mem, _ := newTestRedemptionEngine(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 10)
	seedReward(t, mem, "free-snack", 40, true)

	_, err := engine.Redeem(ctx, "alice", "free-snack")
	assert.ErrorIs(t, err, coin.ErrInsufficientFunds)

	alice, _ := mem.Account(ctx, "alice")
	assert.Equal(t, int64(10), alice.Balance)

	entries, _ := mem.Entries(ctx, "alice")
	assert.Empty(t, entries)

	records, err := mem.RedemptionsByAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRedemptionEngine_Redeem_InactiveReward(t *testing.T) {
	engine, mem, _ := newTestRedemptionEngine(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 100)
	seedReward(t, mem, "retired", 10, false)

	_, err := engine.Redeem(ctx, "alice", "retired")
	assert.ErrorIs(t, err, coin.ErrRewardUnavailable)

	alice, _ := mem.Account(ctx, "alice")
	assert.Equal(t, int64(100), alice.Balance)
}

func TestRedemptionEngine_Redeem_UnknownReward(t *testing.T) {
	engine, mem, _ := newTestRedemptionEngine(t)
	seedAccount(t, mem, "alice", 100)

	_, err := engine.Redeem(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, coin.ErrNotFound)
}

func TestRedemptionEngine_Redeem_ConcurrentSpendBoundedByBalance(t *testing.T) {
	// GIVEN: 50 coins and a 40-coin reward
	// WHEN: Two concurrent redemptions
	// THEN: Exactly one succeeds; exactly one record exists

	engine, mem, _ := newTestRedemptionEngine(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 50)
	seedReward(t, mem, "free-snack", 40, true)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Redeem(ctx, "alice", "free-snack")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, coin.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, successes)

	alice, _ := mem.Account(ctx, "alice")
	assert.Equal(t, int64(10), alice.Balance)

	records, _ := mem.RedemptionsByAccount(ctx, "alice")
	assert.Len(t, records, 1)
}

// =============================================================================
// VALIDATE TESTS
// =============================================================================

func TestRedemptionEngine_Validate_ConsumesOnce(t *testing.T) {
	// GIVEN: A fresh redemption record
	// WHEN: Validating twice
	// THEN: First succeeds and marks it consumed; second fails

	engine, mem, _ := newTestRedemptionEngine(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 100)
	seedReward(t, mem, "free-snack", 40, true)

	rec, err := engine.Redeem(ctx, "alice", "free-snack")
	require.NoError(t, err)

	validated, err := engine.Validate(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.True(t, validated.Consumed)

	_, err = engine.Validate(ctx, rec.ID, "alice")
	assert.ErrorIs(t, err, coin.ErrAlreadyConsumed)
}

func TestRedemptionEngine_Validate_ConcurrentExactlyOneSuccess(t *testing.T) {
	// GIVEN: One record and five concurrent validators
	// WHEN: All validate at once
	// THEN: Exactly one success, four AlreadyConsumed

	engine, mem, _ := newTestRedemptionEngine(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 100)
	seedReward(t, mem, "free-snack", 40, true)

	rec, err := engine.Redeem(ctx, "alice", "free-snack")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Validate(ctx, rec.ID, "alice")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, coin.ErrAlreadyConsumed)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestRedemptionEngine_Validate_OwnershipEnforced(t *testing.T) {
	// GIVEN: Alice's record
	// WHEN: Bob validates with his own identity
	// THEN: Forbidden; the record stays unconsumed

	engine, mem, _ := newTestRedemptionEngine(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 100)
	seedAccount(t, mem, "bob", 100)
	seedReward(t, mem, "free-snack", 40, true)

	rec, err := engine.Redeem(ctx, "alice", "free-snack")
	require.NoError(t, err)

	_, err = engine.Validate(ctx, rec.ID, "bob")
	assert.ErrorIs(t, err, coin.ErrForbidden)

	var forbidden *coin.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, coin.AccountID("alice"), forbidden.OwnerID)
	assert.Equal(t, coin.AccountID("bob"), forbidden.CallerID)

	stored, err := engine.GetRedemption(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, stored.Consumed)
}

func TestRedemptionEngine_Validate_PartnerTerminalSkipsOwnership(t *testing.T) {
	// An empty caller identity validates any record (partner terminal).
	engine, mem, _ := newTestRedemptionEngine(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 100)
	seedReward(t, mem, "free-snack", 40, true)

	rec, err := engine.Redeem(ctx, "alice", "free-snack")
	require.NoError(t, err)

	validated, err := engine.Validate(ctx, rec.ID, "")
	require.NoError(t, err)
	assert.True(t, validated.Consumed)
}

func TestRedemptionEngine_Validate_UnknownRecord(t *testing.T) {
	engine, _, _ := newTestRedemptionEngine(t)

	_, err := engine.Validate(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, coin.ErrNotFound)
}

// =============================================================================
// LISTING TESTS
// =============================================================================

func TestRedemptionEngine_ListRedemptions_NewestFirst(t *testing.T) {
	engine, mem, _ := newTestRedemptionEngine(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 100)
	seedReward(t, mem, "snack", 10, true)

	first, err := engine.Redeem(ctx, "alice", "snack")
	require.NoError(t, err)
	second, err := engine.Redeem(ctx, "alice", "snack")
	require.NoError(t, err)

	records, err := engine.ListRedemptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 2)
	ids := []coin.RedemptionID{records[0].ID, records[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestRedemptionEngine_ListRedemptions_UnknownAccount(t *testing.T) {
	engine, _, _ := newTestRedemptionEngine(t)

	_, err := engine.ListRedemptions(context.Background(), "ghost")
	assert.ErrorIs(t, err, coin.ErrNotFound)
}
