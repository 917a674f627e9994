// Package stats is the bot's persistent usage ledger: per-conversation
// message and command counters plus a small key/value area for things
// like the bot's bio. Backed by SQLite so counts survive restarts.
package stats

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the stats database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS activity (
    conversation TEXT NOT NULL,
    sender       TEXT NOT NULL,
    messages     INTEGER NOT NULL DEFAULT 0,
    commands     INTEGER NOT NULL DEFAULT 0,
    last_seen    TEXT NOT NULL,
    PRIMARY KEY (conversation, sender)
);
CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Open opens (or creates) the stats database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create stats dir: %w", err)
	}

	// WAL so counter writes never block status reads.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping stats db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create stats schema: %w", err)
	}

	s := &Store{db: db}
	totals := s.Totals()
	slog.Info("stats opened", "path", path, "messages", totals.Messages, "commands", totals.Commands)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordMessage bumps the message counter for (conversation, sender);
// command also bumps the command counter.
func (s *Store) RecordMessage(conversation, sender string, command bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	cmd := 0
	if command {
		cmd = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO activity (conversation, sender, messages, commands, last_seen)
		 VALUES (?, ?, 1, ?, ?)
		 ON CONFLICT (conversation, sender) DO UPDATE SET
		   messages = messages + 1,
		   commands = commands + excluded.commands,
		   last_seen = excluded.last_seen`,
		conversation, sender, cmd, now,
	)
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

// Totals are the whole-bot counters.
type Totals struct {
	Messages      int
	Commands      int
	Conversations int
}

// Totals sums activity across all conversations.
func (s *Store) Totals() Totals {
	var t Totals
	s.db.QueryRow("SELECT COALESCE(SUM(messages), 0), COALESCE(SUM(commands), 0) FROM activity").Scan(&t.Messages, &t.Commands)
	s.db.QueryRow("SELECT COUNT(DISTINCT conversation) FROM activity").Scan(&t.Conversations)
	return t
}

// Rank is one entry in a conversation leaderboard.
type Rank struct {
	Sender   string
	Messages int
}

// TopSenders returns the most active senders in a conversation.
func (s *Store) TopSenders(conversation string, limit int) ([]Rank, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.Query(
		`SELECT sender, messages FROM activity
		 WHERE conversation = ? ORDER BY messages DESC, sender ASC LIMIT ?`,
		conversation, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top senders: %w", err)
	}
	defer rows.Close()

	var out []Rank
	for rows.Next() {
		var r Rank
		if err := rows.Scan(&r.Sender, &r.Messages); err != nil {
			return nil, fmt.Errorf("scan rank: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get reads a kv entry; the empty string means unset.
func (s *Store) Get(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, nil
}

// Set writes a kv entry.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}
