package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const messageCols = `msg_id, chat_id, parent_msg_id, p_order, msg_index,
	user_msg, user_image, model, sent_at, ai_response, responded_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(sc scanner) (Message, error) {
	var (
		m         Message
		parent    sql.NullString
		responded sql.NullTime
	)
	err := sc.Scan(&m.ID, &m.ChatID, &parent, &m.Order, &m.Index,
		&m.UserText, &m.UserImage, &m.Model, &m.SentAt, &m.Response, &responded)
	if err != nil {
		return Message{}, err
	}
	if parent.Valid {
		m.ParentID = &parent.String
	}
	if responded.Valid {
		t := responded.Time
		m.RespondedAt = &t
	}
	return m, nil
}

// AddMessage inserts a new message. Returns ErrDuplicateKey if a message
// with the same id already exists.
func (s *Store) AddMessage(ctx context.Context, m Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ChatID, nullable(m.ParentID), m.Order, m.Index,
		m.UserText, m.UserImage, m.Model, m.SentAt, m.Response, nullTime(m.RespondedAt))
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("message %s: %w", m.ID, ErrDuplicateKey)
		}
		return fmt.Errorf("adding message: %w", err)
	}
	return nil
}

// UpdateMessage writes a message with put semantics: the record is created
// if absent, replaced if present.
func (s *Store) UpdateMessage(ctx context.Context, m Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(msg_id) DO UPDATE SET
		     chat_id = excluded.chat_id,
		     parent_msg_id = excluded.parent_msg_id,
		     p_order = excluded.p_order,
		     msg_index = excluded.msg_index,
		     user_msg = excluded.user_msg,
		     user_image = excluded.user_image,
		     model = excluded.model,
		     sent_at = excluded.sent_at,
		     ai_response = excluded.ai_response,
		     responded_at = excluded.responded_at`,
		m.ID, m.ChatID, nullable(m.ParentID), m.Order, m.Index,
		m.UserText, m.UserImage, m.Model, m.SentAt, m.Response, nullTime(m.RespondedAt))
	if err != nil {
		return fmt.Errorf("updating message: %w", err)
	}
	return nil
}

// GetMessage returns the message with the given id, or ErrNotFound.
func (s *Store) GetMessage(ctx context.Context, msgID string) (Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageCols+` FROM messages WHERE msg_id = ?`, msgID)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, fmt.Errorf("message %s: %w", msgID, ErrNotFound)
	}
	if err != nil {
		return Message{}, fmt.Errorf("getting message: %w", err)
	}
	return m, nil
}

// MessagesByChat returns every message belonging to a chat, in no
// particular order. Ordering is the tree builder's responsibility.
func (s *Store) MessagesByChat(ctx context.Context, chatID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageCols+` FROM messages WHERE chat_id = ?`, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return msgs, nil
}

// Children returns the direct children of a node (the roots of the chat
// when parentID is nil), sorted ascending by sibling order.
func (s *Store) Children(ctx context.Context, chatID string, parentID *string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageCols+` FROM messages
		 WHERE chat_id = ? AND parent_msg_id IS ?
		 ORDER BY p_order ASC`,
		chatID, nullable(parentID))
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning child: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating children: %w", err)
	}
	return msgs, nil
}

// DeleteMessage removes a single message. Missing ids are not an error.
func (s *Store) DeleteMessage(ctx context.Context, msgID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE msg_id = ?`, msgID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}

// DeleteSubtree removes a message and all its descendants, children
// before parents. Not atomic across records: a crash mid-cascade leaves
// inert orphans, never a corrupted surviving tree.
func (s *Store) DeleteSubtree(ctx context.Context, msgID string) error {
	root, err := s.GetMessage(ctx, msgID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// Iterative preorder walk; deleting the collected ids in reverse
	// removes every child before its parent.
	order := []string{root.ID}
	stack := []string{root.ID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := s.Children(ctx, root.ChatID, &cur)
		if err != nil {
			return err
		}
		for _, c := range children {
			order = append(order, c.ID)
			stack = append(stack, c.ID)
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		if err := s.DeleteMessage(ctx, order[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteChatMessages removes every message belonging to a chat.
func (s *Store) DeleteChatMessages(ctx context.Context, chatID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("deleting chat messages: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
