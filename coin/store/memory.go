// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/virtus/coin-engine/coin"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.Mutex
	accounts    map[coin.AccountID]coin.Account
	entries     map[coin.AccountID][]coin.LedgerEntry
	links       map[coin.AccountID]coin.PaymentLink
	tokens      map[string]coin.AccountID // token -> owner index
	redemptions map[coin.RedemptionID]coin.RedemptionRecord
	rewards     map[coin.RewardID]coin.Reward
}

func NewMemory() *Memory {
	return &Memory{
		accounts:    make(map[coin.AccountID]coin.Account),
		entries:     make(map[coin.AccountID][]coin.LedgerEntry),
		links:       make(map[coin.AccountID]coin.PaymentLink),
		tokens:      make(map[string]coin.AccountID),
		redemptions: make(map[coin.RedemptionID]coin.RedemptionRecord),
		rewards:     make(map[coin.RewardID]coin.Reward),
	}
}

var _ coin.TxStore = (*Memory)(nil)

// -----------------------------------------------------------------------------
// Accounts
// -----------------------------------------------------------------------------

func (m *Memory) CreateAccount(_ context.Context, a coin.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) Account(_ context.Context, id coin.AccountID) (coin.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accountLocked(id)
}

func (m *Memory) accountLocked(id coin.AccountID) (coin.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return coin.Account{}, coin.ErrNotFound
	}
	return a, nil
}

func (m *Memory) Accounts(_ context.Context) ([]coin.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]coin.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) AdjustBalance(_ context.Context, id coin.AccountID, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjustBalanceLocked(id, delta)
}

func (m *Memory) adjustBalanceLocked(id coin.AccountID, delta int64) (int64, error) {
	a, ok := m.accounts[id]
	if !ok {
		return 0, coin.ErrNotFound
	}
	next := a.Balance + delta
	if next < 0 {
		return 0, &coin.InsufficientFundsError{
			AccountID: id,
			Available: a.Balance,
			Requested: -delta,
		}
	}
	a.Balance = next
	m.accounts[id] = a
	return next, nil
}

// -----------------------------------------------------------------------------
// Ledger
// -----------------------------------------------------------------------------

func (m *Memory) AppendEntry(_ context.Context, e coin.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendEntryLocked(e)
	return nil
}

func (m *Memory) appendEntryLocked(e coin.LedgerEntry) {
	m.entries[e.AccountID] = append(m.entries[e.AccountID], e)
}

func (m *Memory) Entries(_ context.Context, id coin.AccountID) ([]coin.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]coin.LedgerEntry, len(m.entries[id]))
	copy(out, m.entries[id])
	return out, nil
}

// -----------------------------------------------------------------------------
// Payment links
// -----------------------------------------------------------------------------

func (m *Memory) PutLink(_ context.Context, link coin.PaymentLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLinkLocked(link)
	return nil
}

func (m *Memory) putLinkLocked(link coin.PaymentLink) {
	if old, ok := m.links[link.Owner]; ok {
		delete(m.tokens, old.Token)
	}
	m.links[link.Owner] = link
	m.tokens[link.Token] = link.Owner
}

func (m *Memory) LinkByOwner(_ context.Context, owner coin.AccountID) (coin.PaymentLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[owner]
	if !ok {
		return coin.PaymentLink{}, coin.ErrLinkNotFound
	}
	return link, nil
}

func (m *Memory) LinkByToken(_ context.Context, token string) (coin.PaymentLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linkByTokenLocked(token)
}

func (m *Memory) linkByTokenLocked(token string) (coin.PaymentLink, error) {
	owner, ok := m.tokens[token]
	if !ok {
		return coin.PaymentLink{}, coin.ErrLinkNotFound
	}
	return m.links[owner], nil
}

func (m *Memory) ClearLink(_ context.Context, owner coin.AccountID, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearLinkLocked(owner, token), nil
}

func (m *Memory) clearLinkLocked(owner coin.AccountID, token string) bool {
	link, ok := m.links[owner]
	if !ok {
		return false
	}
	if token != "" && link.Token != token {
		return false
	}
	delete(m.links, owner)
	delete(m.tokens, link.Token)
	return true
}

func (m *Memory) PurgeExpiredLinks(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for owner, link := range m.links {
		if link.ExpiredAt(now) {
			delete(m.links, owner)
			delete(m.tokens, link.Token)
			purged++
		}
	}
	return purged, nil
}

// -----------------------------------------------------------------------------
// Redemptions
// -----------------------------------------------------------------------------

func (m *Memory) InsertRedemption(_ context.Context, rec coin.RedemptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redemptions[rec.ID] = rec
	return nil
}

func (m *Memory) Redemption(_ context.Context, id coin.RedemptionID) (coin.RedemptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.redemptions[id]
	if !ok {
		return coin.RedemptionRecord{}, coin.ErrNotFound
	}
	return rec, nil
}

func (m *Memory) RedemptionsByAccount(_ context.Context, id coin.AccountID) ([]coin.RedemptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []coin.RedemptionRecord
	for _, rec := range m.redemptions {
		if rec.AccountID == id {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ConsumeRedemption(_ context.Context, id coin.RedemptionID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumeRedemptionLocked(id)
}

func (m *Memory) consumeRedemptionLocked(id coin.RedemptionID) (bool, error) {
	rec, ok := m.redemptions[id]
	if !ok {
		return false, coin.ErrNotFound
	}
	if rec.Consumed {
		return false, nil
	}
	rec.Consumed = true
	m.redemptions[id] = rec
	return true, nil
}

// -----------------------------------------------------------------------------
// Rewards
// -----------------------------------------------------------------------------

func (m *Memory) SaveReward(_ context.Context, r coin.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewards[r.ID] = r
	return nil
}

func (m *Memory) Reward(_ context.Context, id coin.RewardID) (coin.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rewards[id]
	if !ok {
		return coin.Reward{}, coin.ErrNotFound
	}
	return r, nil
}

func (m *Memory) Rewards(_ context.Context) ([]coin.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]coin.Reward, 0, len(m.rewards))
	for _, r := range m.rewards {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn against a transactional view while holding the store
// lock. On error the pre-transaction state is restored, simulating the
// all-or-nothing guarantee of the SQL store.
func (m *Memory) WithTx(ctx context.Context, fn func(coin.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txMemoryView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	accounts    map[coin.AccountID]coin.Account
	entries     map[coin.AccountID][]coin.LedgerEntry
	links       map[coin.AccountID]coin.PaymentLink
	tokens      map[string]coin.AccountID
	redemptions map[coin.RedemptionID]coin.RedemptionRecord
	rewards     map[coin.RewardID]coin.Reward
}

func (m *Memory) snapshot() memorySnapshot {
	snap := memorySnapshot{
		accounts:    make(map[coin.AccountID]coin.Account, len(m.accounts)),
		entries:     make(map[coin.AccountID][]coin.LedgerEntry, len(m.entries)),
		links:       make(map[coin.AccountID]coin.PaymentLink, len(m.links)),
		tokens:      make(map[string]coin.AccountID, len(m.tokens)),
		redemptions: make(map[coin.RedemptionID]coin.RedemptionRecord, len(m.redemptions)),
		rewards:     make(map[coin.RewardID]coin.Reward, len(m.rewards)),
	}
	for k, v := range m.accounts {
		snap.accounts[k] = v
	}
	for k, v := range m.entries {
		snap.entries[k] = append([]coin.LedgerEntry{}, v...)
	}
	for k, v := range m.links {
		snap.links[k] = v
	}
	for k, v := range m.tokens {
		snap.tokens[k] = v
	}
	for k, v := range m.redemptions {
		snap.redemptions[k] = v
	}
	for k, v := range m.rewards {
		snap.rewards[k] = v
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.accounts = snap.accounts
	m.entries = snap.entries
	m.links = snap.links
	m.tokens = snap.tokens
	m.redemptions = snap.redemptions
	m.rewards = snap.rewards
}

// txMemoryView routes Store calls to the parent's unlocked internals.
// The parent lock is already held for the duration of WithTx.
type txMemoryView struct {
	parent *Memory
}

func (v *txMemoryView) CreateAccount(_ context.Context, a coin.Account) error {
	v.parent.accounts[a.ID] = a
	return nil
}

func (v *txMemoryView) Account(_ context.Context, id coin.AccountID) (coin.Account, error) {
	return v.parent.accountLocked(id)
}

func (v *txMemoryView) Accounts(_ context.Context) ([]coin.Account, error) {
	out := make([]coin.Account, 0, len(v.parent.accounts))
	for _, a := range v.parent.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *txMemoryView) AdjustBalance(_ context.Context, id coin.AccountID, delta int64) (int64, error) {
	return v.parent.adjustBalanceLocked(id, delta)
}

func (v *txMemoryView) AppendEntry(_ context.Context, e coin.LedgerEntry) error {
	v.parent.appendEntryLocked(e)
	return nil
}

func (v *txMemoryView) Entries(_ context.Context, id coin.AccountID) ([]coin.LedgerEntry, error) {
	out := make([]coin.LedgerEntry, len(v.parent.entries[id]))
	copy(out, v.parent.entries[id])
	return out, nil
}

func (v *txMemoryView) PutLink(_ context.Context, link coin.PaymentLink) error {
	v.parent.putLinkLocked(link)
	return nil
}

func (v *txMemoryView) LinkByOwner(_ context.Context, owner coin.AccountID) (coin.PaymentLink, error) {
	link, ok := v.parent.links[owner]
	if !ok {
		return coin.PaymentLink{}, coin.ErrLinkNotFound
	}
	return link, nil
}

func (v *txMemoryView) LinkByToken(_ context.Context, token string) (coin.PaymentLink, error) {
	return v.parent.linkByTokenLocked(token)
}

func (v *txMemoryView) ClearLink(_ context.Context, owner coin.AccountID, token string) (bool, error) {
	return v.parent.clearLinkLocked(owner, token), nil
}

func (v *txMemoryView) PurgeExpiredLinks(_ context.Context, now time.Time) (int, error) {
	purged := 0
	for owner, link := range v.parent.links {
		if link.ExpiredAt(now) {
			delete(v.parent.links, owner)
			delete(v.parent.tokens, link.Token)
			purged++
		}
	}
	return purged, nil
}

func (v *txMemoryView) InsertRedemption(_ context.Context, rec coin.RedemptionRecord) error {
	v.parent.redemptions[rec.ID] = rec
	return nil
}

func (v *txMemoryView) Redemption(_ context.Context, id coin.RedemptionID) (coin.RedemptionRecord, error) {
	rec, ok := v.parent.redemptions[id]
	if !ok {
		return coin.RedemptionRecord{}, coin.ErrNotFound
	}
	return rec, nil
}

func (v *txMemoryView) RedemptionsByAccount(_ context.Context, id coin.AccountID) ([]coin.RedemptionRecord, error) {
	var out []coin.RedemptionRecord
	for _, rec := range v.parent.redemptions {
		if rec.AccountID == id {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (v *txMemoryView) ConsumeRedemption(_ context.Context, id coin.RedemptionID) (bool, error) {
	return v.parent.consumeRedemptionLocked(id)
}

func (v *txMemoryView) SaveReward(_ context.Context, r coin.Reward) error {
	v.parent.rewards[r.ID] = r
	return nil
}

func (v *txMemoryView) Reward(_ context.Context, id coin.RewardID) (coin.Reward, error) {
	r, ok := v.parent.rewards[id]
	if !ok {
		return coin.Reward{}, coin.ErrNotFound
	}
	return r, nil
}

func (v *txMemoryView) Rewards(_ context.Context) ([]coin.Reward, error) {
	out := make([]coin.Reward, 0, len(v.parent.rewards))
	for _, r := range v.parent.rewards {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
