package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/rahul/campaigner/internal/tone"
)

// ErrNotFound is returned when a draft does not exist.
var ErrNotFound = errors.New("not found")

// Store keeps tone snippets, chat wizard drafts and chat transcripts in a
// sqlite database.
type Store struct {
	DB *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// one connection keeps :memory: databases and write ordering sane
	db.SetMaxOpenConns(1)

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tone_snippets (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			audiences TEXT NOT NULL,
			purposes TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS drafts (
			chat_id TEXT PRIMARY KEY,
			step INTEGER NOT NULL,
			answers TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT,
			role TEXT,
			content TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		if _, err = db.Exec(q); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// AddSnippet inserts or replaces a snippet by ID.
func (s *Store) AddSnippet(ctx context.Context, snippet tone.Snippet) error {
	if snippet.ID == "" || snippet.Text == "" {
		return fmt.Errorf("snippet needs an id and text")
	}
	audiences, err := json.Marshal(orGeneral(snippet.Audiences))
	if err != nil {
		return err
	}
	purposes, err := json.Marshal(orGeneral(snippet.Purposes))
	if err != nil {
		return err
	}
	query := `INSERT INTO tone_snippets (id, text, audiences, purposes) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text, audiences = excluded.audiences, purposes = excluded.purposes`
	_, err = s.DB.ExecContext(ctx, query, snippet.ID, snippet.Text, string(audiences), string(purposes))
	return err
}

// ListSnippets returns every snippet in insertion order.
func (s *Store) ListSnippets(ctx context.Context) ([]tone.Snippet, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, text, audiences, purposes FROM tone_snippets ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snippets []tone.Snippet
	for rows.Next() {
		var sn tone.Snippet
		var audiences, purposes string
		if err := rows.Scan(&sn.ID, &sn.Text, &audiences, &purposes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(audiences), &sn.Audiences); err != nil {
			return nil, fmt.Errorf("snippet %s audiences: %w", sn.ID, err)
		}
		if err := json.Unmarshal([]byte(purposes), &sn.Purposes); err != nil {
			return nil, fmt.Errorf("snippet %s purposes: %w", sn.ID, err)
		}
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

func orGeneral(tags []string) []string {
	if len(tags) == 0 {
		return []string{tone.General}
	}
	return tags
}

func (s *Store) SaveDraft(ctx context.Context, d Draft) error {
	answers, err := json.Marshal(d.Answers)
	if err != nil {
		return err
	}
	query := `INSERT INTO drafts (chat_id, step, answers, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET step = excluded.step, answers = excluded.answers, updated_at = excluded.updated_at`
	_, err = s.DB.ExecContext(ctx, query, d.ChatID, d.Step, string(answers), time.Now().UTC())
	return err
}

// GetDraft returns ErrNotFound when chatID has no draft.
func (s *Store) GetDraft(ctx context.Context, chatID string) (Draft, error) {
	d := Draft{ChatID: chatID}
	var answers string
	row := s.DB.QueryRowContext(ctx, `SELECT step, answers, updated_at FROM drafts WHERE chat_id = ?`, chatID)
	if err := row.Scan(&d.Step, &answers, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, err
	}
	if err := json.Unmarshal([]byte(answers), &d.Answers); err != nil {
		return Draft{}, fmt.Errorf("draft %s: %w", chatID, err)
	}
	return d, nil
}

func (s *Store) ClearDraft(ctx context.Context, chatID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM drafts WHERE chat_id = ?`, chatID)
	return err
}

func (s *Store) AddMessage(ctx context.Context, chatID string, role string, content string) error {
	query := `INSERT INTO messages (chat_id, role, content) VALUES (?, ?, ?)`
	_, err := s.DB.ExecContext(ctx, query, chatID, role, content)
	return err
}

// GetHistory returns up to limit of the latest messages in chronological
// order.
func (s *Store) GetHistory(ctx context.Context, chatID string, limit int) ([]Message, error) {
	query := `SELECT role, content, timestamp FROM messages WHERE chat_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := s.DB.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}
