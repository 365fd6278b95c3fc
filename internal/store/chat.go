package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const chatCols = `chat_id, title, user_id, created_at, updated_at`

func scanChat(sc scanner) (Chat, error) {
	var c Chat
	err := sc.Scan(&c.ID, &c.Title, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateChat inserts a new chat, stamping CreatedAt and UpdatedAt.
// Returns ErrDuplicateKey when the id already exists.
func (s *Store) CreateChat(ctx context.Context, chat Chat) (Chat, error) {
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if chat.UserID == "" {
		chat.UserID = DefaultUserID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (`+chatCols+`) VALUES (?, ?, ?, ?, ?)`,
		chat.ID, chat.Title, chat.UserID, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		if isConstraintViolation(err) {
			return Chat{}, fmt.Errorf("chat %s: %w", chat.ID, ErrDuplicateKey)
		}
		return Chat{}, fmt.Errorf("creating chat: %w", err)
	}
	return chat, nil
}

// UpdateChat writes a chat with put semantics and always refreshes
// UpdatedAt, which keeps recency sorting honest.
func (s *Store) UpdateChat(ctx context.Context, chat Chat) (Chat, error) {
	chat.UpdatedAt = time.Now().UTC()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = chat.UpdatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (`+chatCols+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET
		     title = excluded.title,
		     user_id = excluded.user_id,
		     updated_at = excluded.updated_at`,
		chat.ID, chat.Title, chat.UserID, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		return Chat{}, fmt.Errorf("updating chat: %w", err)
	}
	return chat, nil
}

// UpdateChatTitle sets a chat's title (and refreshes UpdatedAt).
// Missing chats are a no-op, mirroring put semantics elsewhere.
func (s *Store) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE chat_id = ?`,
		title, time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("updating chat title: %w", err)
	}
	return nil
}

// TouchChat refreshes a chat's UpdatedAt without changing anything else.
func (s *Store) TouchChat(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chats SET updated_at = ? WHERE chat_id = ?`,
		time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("touching chat: %w", err)
	}
	return nil
}

// GetChat returns the chat with the given id, or ErrNotFound.
func (s *Store) GetChat(ctx context.Context, chatID string) (Chat, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+chatCols+` FROM chats WHERE chat_id = ?`, chatID)
	c, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Chat{}, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	if err != nil {
		return Chat{}, fmt.Errorf("getting chat: %w", err)
	}
	return c, nil
}

// Chats returns all chats, most recently updated first.
func (s *Store) Chats(ctx context.Context) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chatCols+` FROM chats ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chats: %w", err)
	}
	return chats, nil
}

// DeleteChat removes a chat and all its messages. Messages go first so a
// crash mid-cascade can only strand inert orphans, never a chat whose
// messages are gone but whose record still lists it.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	if err := s.DeleteChatMessages(ctx, chatID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	return nil
}
