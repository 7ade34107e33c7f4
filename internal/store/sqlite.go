// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"optstrat/internal/contracts"
	apperrors "optstrat/internal/errors"
	"optstrat/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	syncTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		syncTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Contract reference data
	CREATE TABLE IF NOT EXISTS contracts (
		con_id INTEGER PRIMARY KEY,
		opt_right TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		strike REAL NOT NULL DEFAULT 0,
		symbol TEXT NOT NULL DEFAULT '',
		expiry TEXT NOT NULL DEFAULT '',
		multiplier REAL NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Saved strategies, legs stored as JSON
	CREATE TABLE IF NOT EXISTS strategies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		legs TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Sync status table
	CREATE TABLE IF NOT EXISTS sync_status (
		data_type TEXT PRIMARY KEY,
		last_sync DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_symbol ON contracts(symbol);
	CREATE INDEX IF NOT EXISTS idx_contracts_kind_strike ON contracts(kind, strike);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Contract Methods
// ============================================================================

// SaveContracts inserts or replaces reference rows and returns how many were written.
func (s *SQLiteStore) SaveContracts(ctx context.Context, records []models.Contract) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO contracts (con_id, opt_right, kind, strike, symbol, expiry, multiplier, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range records {
		kind, _ := c.Kind()
		_, err := stmt.ExecContext(ctx, c.ID, c.Right, string(kind), c.Strike, c.Symbol,
			contracts.NormalizeExpiry(c.Expiry), c.Multiplier, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert contract %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(records), nil
}

// GetContract returns the contract with the given id.
func (s *SQLiteStore) GetContract(ctx context.Context, id int64) (models.Contract, error) {
	var c models.Contract
	err := s.db.QueryRowContext(ctx, `
		SELECT con_id, opt_right, strike, symbol, expiry, multiplier FROM contracts WHERE con_id = ?
	`, id).Scan(&c.ID, &c.Right, &c.Strike, &c.Symbol, &c.Expiry, &c.Multiplier)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contract{}, apperrors.NewContractError(id, "lookup by id", apperrors.ErrContractNotFound)
	}
	if err != nil {
		return models.Contract{}, fmt.Errorf("failed to query contract: %w", err)
	}
	return c, nil
}

// FindContracts returns contracts matching every set predicate of filter, ordered by id.
func (s *SQLiteStore) FindContracts(ctx context.Context, filter contracts.Filter) ([]models.Contract, error) {
	query := "SELECT con_id, opt_right, strike, symbol, expiry, multiplier FROM contracts WHERE 1=1"
	args := []interface{}{}

	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Strike != 0 {
		query += " AND ABS(strike - ?) < 1e-9"
		args = append(args, filter.Strike)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ? COLLATE NOCASE"
		args = append(args, strings.TrimSpace(filter.Symbol))
	}
	if filter.Expiry != "" {
		query += " AND expiry = ?"
		args = append(args, contracts.NormalizeExpiry(filter.Expiry))
	}

	query += " ORDER BY con_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var out []models.Contract
	for rows.Next() {
		var c models.Contract
		if err := rows.Scan(&c.ID, &c.Right, &c.Strike, &c.Symbol, &c.Expiry, &c.Multiplier); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

// CountContracts returns the number of stored contracts.
func (s *SQLiteStore) CountContracts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contracts").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}
	return n, nil
}

// ============================================================================
// Strategy Methods
// ============================================================================

// SaveStrategy creates or replaces the strategy called name.
func (s *SQLiteStore) SaveStrategy(ctx context.Context, name string, legs []models.Leg) (*models.StrategyRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", name, "strategy name must not be empty")
	}

	legsJSON, err := json.Marshal(legs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode legs: %w", err)
	}

	now := time.Now().UTC()
	record := &models.StrategyRecord{Name: name, Legs: legs, CreatedAt: now, UpdatedAt: now}

	existing, err := s.GetStrategy(ctx, name)
	switch {
	case err == nil:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	case apperrors.Is(err, apperrors.ErrStrategyNotFound):
		record.ID = uuid.New().String()
	default:
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO strategies (id, name, legs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, record.ID, record.Name, string(legsJSON), record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save strategy: %w", err)
	}

	return record, nil
}

// GetStrategy returns the strategy called name.
func (s *SQLiteStore) GetStrategy(ctx context.Context, name string) (*models.StrategyRecord, error) {
	var r models.StrategyRecord
	var legsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, legs, created_at, updated_at FROM strategies WHERE name = ?
	`, name).Scan(&r.ID, &r.Name, &legsJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrapf(apperrors.ErrStrategyNotFound, "%q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query strategy: %w", err)
	}

	if err := json.Unmarshal([]byte(legsJSON), &r.Legs); err != nil {
		return nil, fmt.Errorf("failed to decode legs of %q: %w", name, err)
	}
	return &r, nil
}

// ListStrategies returns every saved strategy ordered by name.
func (s *SQLiteStore) ListStrategies(ctx context.Context) ([]models.StrategyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, legs, created_at, updated_at FROM strategies ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer rows.Close()

	var out []models.StrategyRecord
	for rows.Next() {
		var r models.StrategyRecord
		var legsJSON string
		if err := rows.Scan(&r.ID, &r.Name, &legsJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		if err := json.Unmarshal([]byte(legsJSON), &r.Legs); err != nil {
			return nil, fmt.Errorf("failed to decode legs of %q: %w", r.Name, err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

// DeleteStrategy removes the strategy called name.
func (s *SQLiteStore) DeleteStrategy(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM strategies WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete strategy: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.Wrapf(apperrors.ErrStrategyNotFound, "%q", name)
	}
	return nil
}

// ============================================================================
// Sync Methods
// ============================================================================

// GetLastSync returns the last sync time for a data type.
func (s *SQLiteStore) GetLastSync(dataType string) time.Time {
	s.mu.RLock()
	if t, ok := s.syncTimes[dataType]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var lastSync time.Time
	err := s.db.QueryRow(`
		SELECT last_sync FROM sync_status WHERE data_type = ?
	`, dataType).Scan(&lastSync)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.syncTimes[dataType] = lastSync
	s.mu.Unlock()

	return lastSync
}

// SetLastSync sets the last sync time for a data type.
func (s *SQLiteStore) SetLastSync(dataType string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sync_status (data_type, last_sync, updated_at)
		VALUES (?, ?, ?)
	`, dataType, t, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}

	s.mu.Lock()
	s.syncTimes[dataType] = t
	s.mu.Unlock()

	return nil
}
