/*
Package sqlite provides the SQLite-backed implementation of coin.TxStore.

PURPOSE:
  Implements every persistence primitive the engine depends on using
  SQLite. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

ATOMICITY:
  Every invariant-bearing transition is a single conditional statement:
  - AdjustBalance:     UPDATE ... WHERE balance + delta >= 0
  - ClearLink:         DELETE ... WHERE owner_id = ? AND token = ?
  - ConsumeRedemption: UPDATE ... WHERE id = ? AND consumed = 0
  The rows-affected count tells the caller whether it won or lost.

APPEND-ONLY LEDGER:
  No UPDATE or DELETE statement touches ledger_entries. A CHECK constraint
  keeps balances non-negative even if a future write path skips the guard.

KEY TABLES:
  accounts:       id, role tag, non-negative balance
  payment_links:  PRIMARY KEY on owner_id enforces at most one per owner;
                  UNIQUE token index enforces token uniqueness
  redemptions:    single-use records, UNIQUE code
  ledger_entries: append-only audit log
  rewards:        partner catalog

CONCURRENCY:
  A sync.RWMutex serializes writers on top of SQLite's single-writer model;
  WithTx holds the write lock for the whole unit of work so a transactional
  view never re-locks. WAL mode keeps readers unblocked.

USAGE:
  store, err := sqlite.New("./data/virtus.db")
  if err != nil { log.Fatal(err) }
  defer store.Close()
  bank := coin.NewBank(store, coin.SystemClock{})

SEE ALSO:
  - coin/store.go: Interface contracts
  - coin/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/virtus/coin-engine/coin"
)

// Store implements coin.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ coin.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database disappears when the pool closes its only
	// connection; a single connection also avoids SQLITE_BUSY between
	// pooled writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Accounts (balance can never go negative, enforced twice: by the
	-- conditional UPDATE and by this constraint)
	CREATE TABLE IF NOT EXISTS accounts (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL,
		balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TEXT NOT NULL
	);

	-- Payment links: at most one row per owner (PRIMARY KEY), tokens
	-- globally unique so a token resolves to exactly one owner
	CREATE TABLE IF NOT EXISTS payment_links (
		owner_id   TEXT PRIMARY KEY REFERENCES accounts(id),
		token      TEXT NOT NULL UNIQUE,
		amount     TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payment_links_expires
		ON payment_links(expires_at);

	-- Redemption records (never deleted; consumed flips once)
	CREATE TABLE IF NOT EXISTS redemptions (
		id          TEXT PRIMARY KEY,
		account_id  TEXT NOT NULL REFERENCES accounts(id),
		reward_id   TEXT NOT NULL,
		reward_name TEXT NOT NULL,
		coins_spent INTEGER NOT NULL,
		code        TEXT NOT NULL UNIQUE,
		consumed    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_redemptions_account
		ON redemptions(account_id, created_at DESC);

	-- Ledger (append-only; no UPDATE or DELETE anywhere in this package)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id            TEXT PRIMARY KEY,
		account_id    TEXT NOT NULL,
		delta         INTEGER NOT NULL,
		reason        TEXT NOT NULL,
		note          TEXT,
		correlated_id TEXT,
		at            TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_account_at
		ON ledger_entries(account_id, at ASC);

	-- Reward catalog
	CREATE TABLE IF NOT EXISTS rewards (
		id          TEXT PRIMARY KEY,
		partner_id  TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		cost        INTEGER NOT NULL,
		active      INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so every operation can run
// standalone or inside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) CreateAccount(ctx context.Context, a coin.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createAccount(ctx, s.db, a)
}

func createAccount(ctx context.Context, db dbtx, a coin.Account) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, role, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.Role, a.Balance, a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *Store) Account(ctx context.Context, id coin.AccountID) (coin.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAccount(ctx, s.db, id)
}

func getAccount(ctx context.Context, db dbtx, id coin.AccountID) (coin.Account, error) {
	var (
		a         coin.Account
		createdAt string
	)
	err := db.QueryRowContext(ctx,
		"SELECT id, name, email, role, balance, created_at FROM accounts WHERE id = ?", id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.Balance, &createdAt)
	if err == sql.ErrNoRows {
		return coin.Account{}, coin.ErrNotFound
	}
	if err != nil {
		return coin.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return a, nil
}

func (s *Store) Accounts(ctx context.Context) ([]coin.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAccounts(ctx, s.db)
}

func listAccounts(ctx context.Context, db dbtx) ([]coin.Account, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, email, role, balance, created_at FROM accounts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []coin.Account
	for rows.Next() {
		var (
			a         coin.Account
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.Balance, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) AdjustBalance(ctx context.Context, id coin.AccountID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return adjustBalance(ctx, s.db, id, delta)
}

// adjustBalance is the never-negative guard: the condition and the write
// are one statement, so no interleaving can overdraw the account.
func adjustBalance(ctx context.Context, db dbtx, id coin.AccountID, delta int64) (int64, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE accounts SET balance = balance + ? WHERE id = ? AND balance + ? >= 0",
		delta, id, delta,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		// Either the account is missing or the guard refused the debit.
		a, err := getAccount(ctx, db, id)
		if err != nil {
			return 0, err
		}
		return 0, &coin.InsufficientFundsError{
			AccountID: id,
			Available: a.Balance,
			Requested: -delta,
		}
	}
	var balance int64
	if err := db.QueryRowContext(ctx,
		"SELECT balance FROM accounts WHERE id = ?", id).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// =============================================================================
// LEDGER (append-only)
// =============================================================================

func (s *Store) AppendEntry(ctx context.Context, e coin.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, e)
}

func appendEntry(ctx context.Context, db dbtx, e coin.LedgerEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, account_id, delta, reason, note, correlated_id, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AccountID, e.Delta, e.Reason, e.Note, e.Correlate,
		e.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (s *Store) Entries(ctx context.Context, id coin.AccountID) ([]coin.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadEntries(ctx, s.db, id)
}

func loadEntries(ctx context.Context, db dbtx, id coin.AccountID) ([]coin.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, account_id, delta, reason, note, correlated_id, at
		FROM ledger_entries WHERE account_id = ?
		ORDER BY at ASC, rowid ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []coin.LedgerEntry
	for rows.Next() {
		var (
			e    coin.LedgerEntry
			note sql.NullString
			corr sql.NullString
			at   string
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Delta, &e.Reason, &note, &corr, &at); err != nil {
			return nil, err
		}
		e.Note = note.String
		e.Correlate = corr.String
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// PAYMENT LINKS
// =============================================================================

func (s *Store) PutLink(ctx context.Context, link coin.PaymentLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putLink(ctx, s.db, link)
}

// putLink upserts on owner_id: replace-on-create, never a second active
// link for the same owner.
func putLink(ctx context.Context, db dbtx, link coin.PaymentLink) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO payment_links (owner_id, token, amount, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			token      = excluded.token,
			amount     = excluded.amount,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		link.Owner, link.Token, link.Amount.String(),
		link.CreatedAt.UTC().Format(time.RFC3339Nano),
		link.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			// Token collision across owners: fatal invariant violation.
			return fmt.Errorf("%w: payment link token collision", coin.ErrInternal)
		}
		return fmt.Errorf("failed to store payment link: %w", err)
	}
	return nil
}

func (s *Store) LinkByOwner(ctx context.Context, owner coin.AccountID) (coin.PaymentLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return linkWhere(ctx, s.db, "owner_id = ?", string(owner))
}

func (s *Store) LinkByToken(ctx context.Context, token string) (coin.PaymentLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return linkWhere(ctx, s.db, "token = ?", token)
}

func linkWhere(ctx context.Context, db dbtx, cond, arg string) (coin.PaymentLink, error) {
	var (
		link      coin.PaymentLink
		amount    string
		createdAt string
		expiresAt string
	)
	err := db.QueryRowContext(ctx,
		"SELECT owner_id, token, amount, created_at, expires_at FROM payment_links WHERE "+cond,
		arg,
	).Scan(&link.Owner, &link.Token, &amount, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return coin.PaymentLink{}, coin.ErrLinkNotFound
	}
	if err != nil {
		return coin.PaymentLink{}, fmt.Errorf("failed to load payment link: %w", err)
	}
	link.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return coin.PaymentLink{}, fmt.Errorf("corrupt link amount %q: %w", amount, err)
	}
	link.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	link.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expiresAt)
	return link, nil
}

func (s *Store) ClearLink(ctx context.Context, owner coin.AccountID, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clearLink(ctx, s.db, owner, token)
}

// clearLink is the compare-and-clear: with a token the DELETE only matches
// while the stored token is unchanged, so concurrent payers race on the
// rows-affected count rather than on a read-then-write.
func clearLink(ctx context.Context, db dbtx, owner coin.AccountID, token string) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if token == "" {
		res, err = db.ExecContext(ctx,
			"DELETE FROM payment_links WHERE owner_id = ?", owner)
	} else {
		res, err = db.ExecContext(ctx,
			"DELETE FROM payment_links WHERE owner_id = ? AND token = ?", owner, token)
	}
	if err != nil {
		return false, fmt.Errorf("failed to clear payment link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) PurgeExpiredLinks(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return purgeExpiredLinks(ctx, s.db, now)
}

func purgeExpiredLinks(ctx context.Context, db dbtx, now time.Time) (int, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM payment_links WHERE expires_at < ?",
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired links: %w", err)
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

// =============================================================================
// REDEMPTIONS
// =============================================================================

func (s *Store) InsertRedemption(ctx context.Context, rec coin.RedemptionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertRedemption(ctx, s.db, rec)
}

func insertRedemption(ctx context.Context, db dbtx, rec coin.RedemptionRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO redemptions (id, account_id, reward_id, reward_name, coins_spent, code, consumed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AccountID, rec.RewardID, rec.RewardName, rec.CoinsSpent,
		rec.Code, boolToInt(rec.Consumed), rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: redemption code collision", coin.ErrInternal)
		}
		return fmt.Errorf("failed to insert redemption: %w", err)
	}
	return nil
}

func (s *Store) Redemption(ctx context.Context, id coin.RedemptionID) (coin.RedemptionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRedemption(ctx, s.db, id)
}

func getRedemption(ctx context.Context, db dbtx, id coin.RedemptionID) (coin.RedemptionRecord, error) {
	var (
		rec       coin.RedemptionRecord
		consumed  int
		createdAt string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, account_id, reward_id, reward_name, coins_spent, code, consumed, created_at
		FROM redemptions WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.AccountID, &rec.RewardID, &rec.RewardName,
		&rec.CoinsSpent, &rec.Code, &consumed, &createdAt)
	if err == sql.ErrNoRows {
		return coin.RedemptionRecord{}, coin.ErrNotFound
	}
	if err != nil {
		return coin.RedemptionRecord{}, fmt.Errorf("failed to load redemption: %w", err)
	}
	rec.Consumed = consumed != 0
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return rec, nil
}

func (s *Store) RedemptionsByAccount(ctx context.Context, id coin.AccountID) ([]coin.RedemptionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return redemptionsByAccount(ctx, s.db, id)
}

func redemptionsByAccount(ctx context.Context, db dbtx, id coin.AccountID) ([]coin.RedemptionRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, account_id, reward_id, reward_name, coins_spent, code, consumed, created_at
		FROM redemptions WHERE account_id = ?
		ORDER BY created_at DESC, rowid DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []coin.RedemptionRecord
	for rows.Next() {
		var (
			rec       coin.RedemptionRecord
			consumed  int
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.RewardID, &rec.RewardName,
			&rec.CoinsSpent, &rec.Code, &consumed, &createdAt); err != nil {
			return nil, err
		}
		rec.Consumed = consumed != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) ConsumeRedemption(ctx context.Context, id coin.RedemptionID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return consumeRedemption(ctx, s.db, id)
}

// consumeRedemption enforces exactly-once: the consumed=0 condition and
// the flip are one statement.
func consumeRedemption(ctx context.Context, db dbtx, id coin.RedemptionID) (bool, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE redemptions SET consumed = 1 WHERE id = ? AND consumed = 0", id)
	if err != nil {
		return false, fmt.Errorf("failed to consume redemption: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		if _, err := getRedemption(ctx, db, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// =============================================================================
// REWARD CATALOG
// =============================================================================

func (s *Store) SaveReward(ctx context.Context, r coin.Reward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveReward(ctx, s.db, r)
}

func saveReward(ctx context.Context, db dbtx, r coin.Reward) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO rewards (id, partner_id, name, description, cost, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			partner_id  = excluded.partner_id,
			name        = excluded.name,
			description = excluded.description,
			cost        = excluded.cost,
			active      = excluded.active`,
		r.ID, r.PartnerID, r.Name, r.Description, r.Cost, boolToInt(r.Active),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save reward: %w", err)
	}
	return nil
}

func (s *Store) Reward(ctx context.Context, id coin.RewardID) (coin.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getReward(ctx, s.db, id)
}

func getReward(ctx context.Context, db dbtx, id coin.RewardID) (coin.Reward, error) {
	var (
		r         coin.Reward
		active    int
		createdAt string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, partner_id, name, description, cost, active, created_at
		FROM rewards WHERE id = ?`, id,
	).Scan(&r.ID, &r.PartnerID, &r.Name, &r.Description, &r.Cost, &active, &createdAt)
	if err == sql.ErrNoRows {
		return coin.Reward{}, coin.ErrNotFound
	}
	if err != nil {
		return coin.Reward{}, fmt.Errorf("failed to load reward: %w", err)
	}
	r.Active = active != 0
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return r, nil
}

func (s *Store) Rewards(ctx context.Context) ([]coin.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRewards(ctx, s.db)
}

func listRewards(ctx context.Context, db dbtx) ([]coin.Reward, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, partner_id, name, description, cost, active, created_at
		FROM rewards ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rewards []coin.Reward
	for rows.Next() {
		var (
			r         coin.Reward
			active    int
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.PartnerID, &r.Name, &r.Description,
			&r.Cost, &active, &createdAt); err != nil {
			return nil, err
		}
		r.Active = active != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (coin.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. The write lock is held
// for the whole unit of work; the txStore view talks straight to the
// sql.Tx and never re-locks.
func (s *Store) WithTx(ctx context.Context, fn func(coin.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

var _ coin.Store = (*txStore)(nil)

func (ts *txStore) CreateAccount(ctx context.Context, a coin.Account) error {
	return createAccount(ctx, ts.tx, a)
}

func (ts *txStore) Account(ctx context.Context, id coin.AccountID) (coin.Account, error) {
	return getAccount(ctx, ts.tx, id)
}

func (ts *txStore) Accounts(ctx context.Context) ([]coin.Account, error) {
	return listAccounts(ctx, ts.tx)
}

func (ts *txStore) AdjustBalance(ctx context.Context, id coin.AccountID, delta int64) (int64, error) {
	return adjustBalance(ctx, ts.tx, id, delta)
}

func (ts *txStore) AppendEntry(ctx context.Context, e coin.LedgerEntry) error {
	return appendEntry(ctx, ts.tx, e)
}

func (ts *txStore) Entries(ctx context.Context, id coin.AccountID) ([]coin.LedgerEntry, error) {
	return loadEntries(ctx, ts.tx, id)
}

func (ts *txStore) PutLink(ctx context.Context, link coin.PaymentLink) error {
	return putLink(ctx, ts.tx, link)
}

func (ts *txStore) LinkByOwner(ctx context.Context, owner coin.AccountID) (coin.PaymentLink, error) {
	return linkWhere(ctx, ts.tx, "owner_id = ?", string(owner))
}

func (ts *txStore) LinkByToken(ctx context.Context, token string) (coin.PaymentLink, error) {
	return linkWhere(ctx, ts.tx, "token = ?", token)
}

func (ts *txStore) ClearLink(ctx context.Context, owner coin.AccountID, token string) (bool, error) {
	return clearLink(ctx, ts.tx, owner, token)
}

func (ts *txStore) PurgeExpiredLinks(ctx context.Context, now time.Time) (int, error) {
	return purgeExpiredLinks(ctx, ts.tx, now)
}

func (ts *txStore) InsertRedemption(ctx context.Context, rec coin.RedemptionRecord) error {
	return insertRedemption(ctx, ts.tx, rec)
}

func (ts *txStore) Redemption(ctx context.Context, id coin.RedemptionID) (coin.RedemptionRecord, error) {
	return getRedemption(ctx, ts.tx, id)
}

func (ts *txStore) RedemptionsByAccount(ctx context.Context, id coin.AccountID) ([]coin.RedemptionRecord, error) {
	return redemptionsByAccount(ctx, ts.tx, id)
}

func (ts *txStore) ConsumeRedemption(ctx context.Context, id coin.RedemptionID) (bool, error) {
	return consumeRedemption(ctx, ts.tx, id)
}

func (ts *txStore) SaveReward(ctx context.Context, r coin.Reward) error {
	return saveReward(ctx, ts.tx, r)
}

func (ts *txStore) Reward(ctx context.Context, id coin.RewardID) (coin.Reward, error) {
	return getReward(ctx, ts.tx, id)
}

func (ts *txStore) Rewards(ctx context.Context) ([]coin.Reward, error) {
	return listRewards(ctx, ts.tx)
}

// Helper functions

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
