// Package history persists chat sessions to a local SQLite database.
//
// The store fails soft: if the database cannot be opened or read, Load
// returns an empty collection so the application always starts with a usable
// state, and Save reports an error the caller may log and ignore. In-memory
// session state stays authoritative for the current run.
package history

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/nexusagent/nexus/internal/chat"
	"github.com/nexusagent/nexus/internal/logger"
)

// ErrUnavailable indicates the underlying database could not be opened.
var ErrUnavailable = errors.New("history: store unavailable")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	position   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT NOT NULL,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	seq        INTEGER NOT NULL
);`

// Store is a SQLite-backed session store. Not safe for concurrent use; the
// session manager accesses it from a single event loop.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path. Open never fails
// hard: on error it logs a warning and returns a store whose Load yields an
// empty collection and whose Save returns ErrUnavailable.
func Open(path string) *Store {
	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000&_fk=1")
	if err == nil {
		_, err = db.Exec(schema)
	}
	if err != nil {
		logger.L.Warn("sqlite open failed; session history disabled", "path", path, "error", err)
		return &Store{}
	}
	return &Store{db: db}
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the persisted session collection, most recent first. Any
// failure is logged and an empty collection returned, never an error.
func (s *Store) Load(ctx context.Context) []chat.Session {
	if s.db == nil {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM sessions ORDER BY position ASC;`)
	if err != nil {
		logger.L.Warn("failed to load sessions; starting fresh", "error", err)
		return nil
	}
	defer rows.Close()

	var sessions []chat.Session
	for rows.Next() {
		var sess chat.Session
		var createdAt string
		if err := rows.Scan(&sess.ID, &sess.Title, &createdAt); err != nil {
			logger.L.Warn("failed to scan session row; starting fresh", "error", err)
			return nil
		}
		sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			logger.L.Warn("corrupt session timestamp; starting fresh", "error", err)
			return nil
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		logger.L.Warn("failed to iterate sessions; starting fresh", "error", err)
		return nil
	}

	for i := range sessions {
		msgs, err := s.loadMessages(ctx, sessions[i].ID)
		if err != nil {
			logger.L.Warn("failed to load messages; starting fresh", "error", err)
			return nil
		}
		sessions[i].Messages = msgs
	}
	return sessions
}

func (s *Store) loadMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content FROM messages WHERE session_id = ? ORDER BY seq ASC;`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Save replaces the persisted collection with sessions, in one transaction
// so readers never observe a partial write.
func (s *Store) Save(ctx context.Context, sessions []chat.Session) error {
	if s.db == nil {
		return ErrUnavailable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages;`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions;`); err != nil {
		return err
	}

	for pos, sess := range sessions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, title, created_at, position) VALUES (?,?,?,?);`,
			sess.ID, sess.Title, sess.CreatedAt.Format(time.RFC3339Nano), pos)
		if err != nil {
			return err
		}
		for seq, m := range sess.Messages {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO messages (id, session_id, role, content, seq) VALUES (?,?,?,?,?);`,
				m.ID, sess.ID, m.Role, m.Content, seq)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}
