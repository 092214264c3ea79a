package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"rentalbot/internal/model"
)

// SQLiteDB holds the conversations of every session in one SQLite file
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at dbPath
func OpenSQLite(dbPath string) (*SQLiteDB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteDB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteDB) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS conversations (
		session_id TEXT PRIMARY KEY,
		state      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

// Session returns the storage for one conversation
func (s *SQLiteDB) Session(sessionID string) *SQLiteStorage {
	return &SQLiteStorage{db: s.db, sessionID: sessionID}
}

// Close closes the database
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// SQLiteStorage persists one session's conversation document as a row
type SQLiteStorage struct {
	db        *sql.DB
	sessionID string
}

// Load reads the session row. A missing row yields an empty state.
func (s *SQLiteStorage) Load(ctx context.Context) (*model.ConversationState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM conversations WHERE session_id = ?`, s.sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", s.sessionID, err)
	}

	var state model.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", s.sessionID, err)
	}
	return &state, nil
}

// Save upserts the session row
func (s *SQLiteStorage) Save(ctx context.Context, state *model.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (session_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		s.sessionID, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.sessionID, err)
	}
	return nil
}
