package coin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtus/coin-engine/coin"
	"github.com/virtus/coin-engine/coin/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testStart = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func newTestBank(t *testing.T) (*coin.Bank, *store.Memory, *coin.ManualClock) {
	t.Helper()
	mem := store.NewMemory()
	clock := coin.NewManualClock(testStart)
	return coin.NewBank(mem, clock), mem, clock
}

func seedAccount(t *testing.T, s coin.Store, id string, balance int64) {
	t.Helper()
	err := s.CreateAccount(context.Background(), coin.Account{
		ID:        coin.AccountID(id),
		Name:      id,
		Role:      coin.RoleStudent,
		Balance:   balance,
		CreatedAt: testStart,
	})
	require.NoError(t, err)
}

// =============================================================================
// CREDIT / DEBIT TESTS
// =============================================================================

func TestBank_Credit_IncreasesBalanceAndRecordsEntry(t *testing.T) {
	// GIVEN: An account with 10 coins
	// WHEN: Crediting 40 coins
	// THEN: Balance is 50 and a credit entry exists

	bank, mem, _ := newTestBank(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 10)

	balance, err := bank.Credit(ctx, "alice", 40, "weekly allowance")
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	entries, err := mem.Entries(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(40), entries[0].Delta)
	assert.Equal(t, coin.ReasonCredit, entries[0].Reason)
	assert.Equal(t, "weekly allowance", entries[0].Note)
}

func TestBank_Credit_RejectsNonPositiveAmounts(t *testing.T) {
	bank, mem, _ := newTestBank(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 10)

	_, err := bank.Credit(ctx, "alice", 0, "")
	assert.ErrorIs(t, err, coin.ErrInvalidAmount)

	_, err = bank.Credit(ctx, "alice", -5, "")
	assert.ErrorIs(t, err, coin.ErrInvalidAmount)

	// Balance untouched
	balance, err := bank.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
}

func TestBank_Credit_UnknownAccount(t *testing.T) {
	bank, _, _ := newTestBank(t)

	_, err := bank.Credit(context.Background(), "ghost", 10, "")
	assert.ErrorIs(t, err, coin.ErrNotFound)
}

func TestBank_Debit_InsufficientFunds(t *testing.T) {
	// GIVEN: An account with 30 coins
	// WHEN: Debiting 31 coins
	// THEN: The debit fails and neither balance nor ledger changed

	bank, mem, _ := newTestBank(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 30)

	_, err := bank.Debit(ctx, "alice", 31, "too much")
	require.Error(t, err)
	assert.ErrorIs(t, err, coin.ErrInsufficientFunds)

	var ife *coin.InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, int64(30), ife.Available)
	assert.Equal(t, int64(31), ife.Requested)

	balance, err := bank.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(30), balance)

	entries, err := mem.Entries(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries, "failed debit must not leave an entry")
}

func TestBank_Debit_ExactBalanceToZero(t *testing.T) {
	bank, mem, _ := newTestBank(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 25)

	balance, err := bank.Debit(ctx, "alice", 25, "spend it all")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestBank_ConcurrentDebits_ExactlyOneOverdrawLoses(t *testing.T) {
	// GIVEN: An account with 100 coins
	// WHEN: Two concurrent debits of 60 each
	// THEN: Exactly one succeeds; the final balance is 40

	bank, mem, _ := newTestBank(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 100)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = bank.Debit(ctx, "alice", 60, "race")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, coin.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, successes)

	balance, err := bank.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}

// =============================================================================
// TRANSFER TESTS
// =============================================================================

func TestBank_Transfer_MovesCoinsAndConservesTotal(t *testing.T) {
	// GIVEN: A teacher with 100 coins and a student with 5
	// WHEN: The teacher transfers 20 to the student
	// THEN: Balances are 80/25 and both sides share a correlated entry pair

	bank, mem, _ := newTestBank(t)
	ctx := context.Background()
	seedAccount(t, mem, "teacher", 100)
	seedAccount(t, mem, "student", 5)

	err := bank.Transfer(ctx, "teacher", "student", 20, "participation")
	require.NoError(t, err)

	from, _ := bank.Balance(ctx, "teacher")
	to, _ := bank.Balance(ctx, "student")
	assert.Equal(t, int64(80), from)
	assert.Equal(t, int64(25), to)
	assert.Equal(t, int64(105), from+to, "transfers conserve coins")

	fromEntries, err := mem.Entries(ctx, "teacher")
	require.NoError(t, err)
	toEntries, err := mem.Entries(ctx, "student")
	require.NoError(t, err)
	require.Len(t, fromEntries, 1)
	require.Len(t, toEntries, 1)
	assert.Equal(t, coin.ReasonTransferOut, fromEntries[0].Reason)
	assert.Equal(t, coin.ReasonTransferIn, toEntries[0].Reason)
	assert.Equal(t, fromEntries[0].Correlate, toEntries[0].Correlate)
	assert.NotEmpty(t, fromEntries[0].Correlate)
}

func TestBank_Transfer_InsufficientFundsLeavesBothUntouched(t *testing.T) {
	bank, mem, _ := newTestBank(t)
	ctx := context.Background()
	seedAccount(t, mem, "teacher", 10)
	seedAccount(t, mem, "student", 5)

	err := bank.Transfer(ctx, "teacher", "student", 20, "")
	assert.ErrorIs(t, err, coin.ErrInsufficientFunds)

	from, _ := bank.Balance(ctx, "teacher")
	to, _ := bank.Balance(ctx, "student")
	assert.Equal(t, int64(10), from)
	assert.Equal(t, int64(5), to)

	fromEntries, _ := mem.Entries(ctx, "teacher")
	toEntries, _ := mem.Entries(ctx, "student")
	assert.Empty(t, fromEntries)
	assert.Empty(t, toEntries)
}

func TestBank_Transfer_RejectsSelfAndNonPositive(t *testing.T) {
	bank, mem, _ := newTestBank(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 50)

	assert.ErrorIs(t, bank.Transfer(ctx, "alice", "alice", 10, ""), coin.ErrInvalidAmount)
	assert.ErrorIs(t, bank.Transfer(ctx, "alice", "bob", 0, ""), coin.ErrInvalidAmount)
	assert.ErrorIs(t, bank.Transfer(ctx, "alice", "bob", -3, ""), coin.ErrInvalidAmount)
}

func TestBank_Transfer_UnknownRecipientRollsBackDebit(t *testing.T) {
	// GIVEN: A sender with 50 coins and no recipient account
	// WHEN: Transferring 10 to the missing account
	// THEN: The whole unit rolls back; the sender keeps 50

	bank, mem, _ := newTestBank(t)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 50)

	err := bank.Transfer(ctx, "alice", "ghost", 10, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, coin.ErrNotFound))

	balance, _ := bank.Balance(ctx, "alice")
	assert.Equal(t, int64(50), balance)
}

// =============================================================================
// LEDGER RECONCILIATION TESTS
// =============================================================================

func TestLedger_ReplayBalanceMatchesStoredBalance(t *testing.T) {
	// GIVEN: A sequence of credits, debits, and transfers
	// WHEN: Replaying the account's ledger entries
	// THEN: The sum of deltas equals the stored balance

	bank, mem, _ := newTestBank(t)
	ledger := coin.NewLedger(mem)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 0)
	seedAccount(t, mem, "bob", 0)

	_, err := bank.Credit(ctx, "alice", 100, "grant")
	require.NoError(t, err)
	_, err = bank.Debit(ctx, "alice", 30, "spend")
	require.NoError(t, err)
	require.NoError(t, bank.Transfer(ctx, "alice", "bob", 15, "gift"))

	replayed, err := ledger.ReplayBalance(ctx, "alice")
	require.NoError(t, err)
	stored, err := bank.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, stored, replayed)
	assert.Equal(t, int64(55), stored)

	replayedBob, err := ledger.ReplayBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(15), replayedBob)
}

func TestLedger_StatementNewestFirst(t *testing.T) {
	bank, mem, clock := newTestBank(t)
	ledger := coin.NewLedger(mem)
	ctx := context.Background()
	seedAccount(t, mem, "alice", 0)

	_, err := bank.Credit(ctx, "alice", 10, "first")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = bank.Credit(ctx, "alice", 20, "second")
	require.NoError(t, err)

	entries, err := ledger.Statement(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Note)
	assert.Equal(t, "first", entries[1].Note)
}

func TestLedger_StatementUnknownAccount(t *testing.T) {
	_, mem, _ := newTestBank(t)
	ledger := coin.NewLedger(mem)

	_, err := ledger.Statement(context.Background(), "ghost")
	assert.ErrorIs(t, err, coin.ErrNotFound)
}
