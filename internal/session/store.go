package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

const keyPrefix = "session:"

// Store persists sessions as JSON values in a single-table SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`)
	return err
}

// Save inserts or replaces sess.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id required")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, keyPrefix+sess.ID, data, sess.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

// Get loads one session.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, keyPrefix+id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return decode(data)
}

// List returns every session, most recently updated first.
func (s *Store) List(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT value FROM kv WHERE key LIKE ? ORDER BY updated_at DESC`, keyPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		sess, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, keyPrefix+id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError{ID: id}
	}
	return nil
}

// Clear drops the messages of a session, and with them its trees.
func (s *Store) Clear(ctx context.Context, id string) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Messages = []Message{}
	sess.UpdatedAt = s.now()
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func decode(data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.Messages == nil {
		sess.Messages = []Message{}
	}
	return &sess, nil
}
