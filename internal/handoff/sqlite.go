package handoff

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"greywaterbot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps named conversation sets in one SQLite table so they
// survive restarts.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Set returns the conversation set stored under name.
func (s *SQLiteStore) Set(name string) domain.ConversationSet {
	return &sqliteSet{db: s.db, name: name}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteSet struct {
	db   *sql.DB
	name string
}

func (s *sqliteSet) Has(ctx context.Context, conversationID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM conversation_sets WHERE set_name = ? AND conversation_id = ?`,
		s.name, conversationID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("handoff %s: lookup %d: %w", s.name, conversationID, err)
	}
	return true, nil
}

func (s *sqliteSet) Add(ctx context.Context, conversationID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversation_sets (set_name, conversation_id) VALUES (?, ?)`,
		s.name, conversationID,
	)
	if err != nil {
		return fmt.Errorf("handoff %s: add %d: %w", s.name, conversationID, err)
	}
	return nil
}
