package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"address-rest-api/internal/model"
	"address-rest-api/pkg/uid"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteAddressRepository implements AddressRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteAddressRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteAddressRepository creates a new SQLite address repository.
// dbPath is the path to the SQLite database file (e.g., "./data/addresses.db")
func NewSQLiteAddressRepository(dbPath string) (*SQLiteAddressRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteAddressRepository] Initialized at %s", dbPath)
	return &SQLiteAddressRepository{db: db}, nil
}

// createSQLiteTables creates the addresses table.
func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS addresses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		line1 TEXT NOT NULL,
		line2 TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		country TEXT NOT NULL,
		postal_code TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_addresses_user ON addresses(user_id);
	`
	_, err := db.Exec(query)
	return err
}

const sqliteAddressColumns = `id, user_id, type, line1, line2, city, state, country, postal_code`

// Save inserts or updates an address using ON CONFLICT.
func (r *SQLiteAddressRepository) Save(ctx context.Context, addr *model.Address) (*model.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *addr
	if saved.ID == "" {
		saved.ID = uid.New()
	}

	query := `
		INSERT INTO addresses (` + sqliteAddressColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			type = excluded.type,
			line1 = excluded.line1,
			line2 = excluded.line2,
			city = excluded.city,
			state = excluded.state,
			country = excluded.country,
			postal_code = excluded.postal_code`

	_, err := r.db.ExecContext(ctx, query,
		saved.ID, saved.UserID, saved.Type, saved.Line1, saved.Line2,
		saved.City, saved.State, saved.Country, saved.PostalCode)
	if err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}
	return &saved, nil
}

// FindByID retrieves an address by id. Returns (nil, nil) when absent.
func (r *SQLiteAddressRepository) FindByID(ctx context.Context, id string) (*model.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + sqliteAddressColumns + ` FROM addresses WHERE id = ?`

	var addr model.Address
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&addr.ID, &addr.UserID, &addr.Type, &addr.Line1, &addr.Line2,
		&addr.City, &addr.State, &addr.Country, &addr.PostalCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return &addr, nil
}

// ExistsByID reports whether an address with the id exists.
func (r *SQLiteAddressRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM addresses WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check address existence: %w", err)
	}
	return exists == 1, nil
}

// DeleteByID removes an address by id.
func (r *SQLiteAddressRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

// FindAll returns every address ordered by id.
func (r *SQLiteAddressRepository) FindAll(ctx context.Context) ([]model.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + sqliteAddressColumns + ` FROM addresses ORDER BY id`
	return r.queryAddresses(ctx, query)
}

// FindByUserID returns all addresses belonging to a user.
func (r *SQLiteAddressRepository) FindByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + sqliteAddressColumns + ` FROM addresses WHERE user_id = ? ORDER BY id`
	return r.queryAddresses(ctx, query, userID)
}

func (r *SQLiteAddressRepository) queryAddresses(ctx context.Context, query string, args ...interface{}) ([]model.Address, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		var addr model.Address
		if err := rows.Scan(
			&addr.ID, &addr.UserID, &addr.Type, &addr.Line1, &addr.Line2,
			&addr.City, &addr.State, &addr.Country, &addr.PostalCode); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

// Stats returns statistics about the address database.
func (r *SQLiteAddressRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["status"] = "connected"

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM addresses").Scan(&count); err != nil {
		return stats, err
	}
	stats["total_addresses"] = count

	var pageCount, pageSize int64
	if err := r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			stats["db_size_bytes"] = pageCount * pageSize
		}
	}

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteAddressRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteAddressRepository implements AddressRepository
var _ AddressRepository = (*SQLiteAddressRepository)(nil)
