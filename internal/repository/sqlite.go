package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/copaslink/copas/internal/domain"
)

const counterName = "session_id"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS clipboard_sessions (
			sort_id TEXT PRIMARY KEY,
			password TEXT,
			item_count INTEGER NOT NULL DEFAULT 0,
			last_accessed DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS clipboard_items (
			sort_id TEXT NOT NULL,
			content TEXT NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY (sort_id) REFERENCES clipboard_sessions(sort_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_session ON clipboard_items(sort_id, position)`,
		`CREATE TABLE IF NOT EXISTS id_counter (
			name TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`,
		// Seed the shared counter. An operator may drop this row to force
		// the allocator onto its scan fallback.
		`INSERT OR IGNORE INTO id_counter (name, value) VALUES ('` + counterName + `', 0)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// rejection, the store-level collision signal the allocator relies on.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// NextCounterValue atomically increments and returns the shared id counter.
func (s *SQLiteStore) NextCounterValue(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE id_counter SET value = value + 1 WHERE name = ?`, counterName)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrCounterUnavailable
	}

	var value int64
	if err := tx.QueryRowContext(ctx,
		`SELECT value FROM id_counter WHERE name = ?`, counterName).Scan(&value); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return value, nil
}

// ReserveSession inserts an empty session row for id.
func (s *SQLiteStore) ReserveSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clipboard_sessions (sort_id, item_count, last_accessed) VALUES (?, 0, ?)`,
		id, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrIDTaken
		}
		return err
	}
	return nil
}

// TouchSession refreshes last_accessed for id.
func (s *SQLiteStore) TouchSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE clipboard_sessions SET last_accessed = ? WHERE sort_id = ?`,
		time.Now().UTC(), id)
	return err
}

// GetSession retrieves a session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	var password sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT sort_id, password, item_count, last_accessed FROM clipboard_sessions WHERE sort_id = ?`,
		id).Scan(&session.ID, &password, &session.ItemCount, &session.LastAccessed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if password.Valid {
		session.Password = &password.String
	}
	return &session, nil
}

// ListSessionIDs returns the ids of all sessions.
func (s *SQLiteStore) ListSessionIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sort_id FROM clipboard_sessions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountSessions returns the total number of sessions.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clipboard_sessions`).Scan(&count)
	return count, err
}

// CountItems returns the number of items stored for id.
func (s *SQLiteStore) CountItems(ctx context.Context, id string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clipboard_items WHERE sort_id = ?`, id).Scan(&count)
	return count, err
}

// GetItems returns item contents for id ordered by position, newest first.
func (s *SQLiteStore) GetItems(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content FROM clipboard_items WHERE sort_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		items = append(items, content)
	}
	return items, rows.Err()
}

// ReplaceItems replaces the full item set for id as a single transaction.
// The session row is upserted in the same transaction so item_count and
// last_accessed never drift from the true item set.
func (s *SQLiteStore) ReplaceItems(ctx context.Context, id string, items []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO clipboard_sessions (sort_id, item_count, last_accessed) VALUES (?, ?, ?)
		 ON CONFLICT(sort_id) DO UPDATE SET item_count = excluded.item_count, last_accessed = excluded.last_accessed`,
		id, len(items), time.Now().UTC())
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM clipboard_items WHERE sort_id = ?`, id); err != nil {
		return err
	}

	for i, content := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clipboard_items (sort_id, content, position) VALUES (?, ?, ?)`,
			id, content, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SetPassword sets or clears the session password.
func (s *SQLiteStore) SetPassword(ctx context.Context, id string, password *string) error {
	var value sql.NullString
	if password != nil {
		value = sql.NullString{String: *password, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE clipboard_sessions SET password = ? WHERE sort_id = ?`, value, id)
	return err
}

// RemoveSession deletes the items for id, then the session row. Items go
// first so an item never outlives its parent session.
func (s *SQLiteStore) RemoveSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM clipboard_items WHERE sort_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM clipboard_sessions WHERE sort_id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

// DropCounter removes the shared counter row. Used to exercise the
// allocator's scan fallback.
func (s *SQLiteStore) DropCounter(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM id_counter WHERE name = ?`, counterName)
	return err
}
