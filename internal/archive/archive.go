// Package archive keeps an append-only SQLite audit trail of every
// completed agent turn. The canonical conversation history is the JSON
// log; the archive exists so that evicted or overwritten history can
// still be inspected later. Recording is best-effort and must never
// fail a turn.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wrenlabs/wren/internal/conversation"
)

// Store is the SQLite-backed turn archive.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the archive database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS turn_messages (
			id         TEXT NOT NULL PRIMARY KEY,
			request_id TEXT NOT NULL,
			seq        INTEGER NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_turn_messages_request
			ON turn_messages(request_id, seq);
	`)
	if err != nil {
		return fmt.Errorf("archive migration: %w", err)
	}
	return nil
}

// Record appends one turn's messages under the given request id. It
// satisfies the agent's Recorder contract.
func (s *Store) Record(ctx context.Context, requestID string, msgs []conversation.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for seq, m := range msgs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO turn_messages (id, request_id, seq, role, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), requestID, seq, m.Role.String(), m.Content, now)
		if err != nil {
			return fmt.Errorf("insert archive message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	s.logger.Debug("turn archived", "request_id", requestID, "messages", len(msgs))
	return nil
}

// ArchivedMessage is one row of the audit trail.
type ArchivedMessage struct {
	ID        string
	RequestID string
	Seq       int
	Role      string
	Content   string
	CreatedAt time.Time
}

// Turn returns the archived messages of one request in order.
func (s *Store) Turn(ctx context.Context, requestID string) ([]ArchivedMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, seq, role, content, created_at
		FROM turn_messages WHERE request_id = ? ORDER BY seq
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("query turn: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// Recent returns the newest archived messages, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]ArchivedMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, seq, role, content, created_at
		FROM turn_messages ORDER BY created_at DESC, seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]ArchivedMessage, error) {
	var msgs []ArchivedMessage
	for rows.Next() {
		var m ArchivedMessage
		var createdAt string
		if err := rows.Scan(&m.ID, &m.RequestID, &m.Seq, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
