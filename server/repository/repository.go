package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/ponyo877/lanshare/server/domain"
	"github.com/ponyo877/lanshare/server/usecase"
)

const driverName = "sqlite3_with_go_func"

var registerOnce sync.Once

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	sender_id   TEXT NOT NULL,
	sender_name TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
)`

func regex(re, s string) (bool, error) {
	return regexp.MatchString(re, s)
}

// Open connects to the archive database and creates its schema. The DSN is
// passed to go-sqlite3 unchanged; ":memory:" keeps the archive in process.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	registerOnce.Do(func() {
		sql.Register(driverName,
			&sqlite3.SQLiteDriver{
				ConnectHook: func(conn *sqlite3.SQLiteConn) error {
					return conn.RegisterFunc("regexp", regex, true)
				},
			})
	})
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %q: %w", dsn, err)
	}
	// A second connection to ":memory:" would be a different database.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return db, nil
}

// Repository archives chat messages. When limit is positive only the newest
// limit messages are retained.
type Repository struct {
	db    *sql.DB
	limit int
}

func NewRepository(db *sql.DB, limit int) usecase.Repository {
	return &Repository{db: db, limit: limit}
}

func (r *Repository) CreateMessage(ctx context.Context, message domain.ChatMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "INSERT INTO messages (id, sender_id, sender_name, content, created_at) VALUES (?, ?, ?, ?, ?)"
	if _, err := tx.ExecContext(ctx, query, message.ID, message.SenderID, message.SenderName, message.Content, message.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert message %s: %w", message.ID, err)
	}
	if r.limit > 0 {
		query = "DELETE FROM messages WHERE seq <= (SELECT MAX(seq) FROM messages) - ?"
		if _, err := tx.ExecContext(ctx, query, r.limit); err != nil {
			return fmt.Errorf("failed to trim archive: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListMessages returns the newest limit messages, oldest first.
func (r *Repository) ListMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, sender_id, sender_name, content, created_at FROM (
			SELECT seq, id, sender_id, sender_name, content, created_at FROM messages ORDER BY seq DESC LIMIT ?
		) ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("error iterating over messages: %w", err)
	}
	return messages, nil
}

// SearchMessages returns the newest limit messages whose content matches the
// regular expression pattern, oldest first.
func (r *Repository) SearchMessages(ctx context.Context, pattern string, limit int) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, sender_id, sender_name, content, created_at FROM (
			SELECT seq, id, sender_id, sender_name, content, created_at FROM messages
			WHERE content REGEXP ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, query, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search for query '%s': %w", pattern, err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("error iterating over search results for query '%s': %w", pattern, err)
	}
	return messages, nil
}

func scanMessages(rows *sql.Rows) ([]domain.ChatMessage, error) {
	var id, senderID, senderName, content string
	var createdAt time.Time
	messages := []domain.ChatMessage{}
	for rows.Next() {
		if err := rows.Scan(&id, &senderID, &senderName, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, domain.NewChatMessage(id, senderID, senderName, content, createdAt))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
