package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

// SendMessage delivers a direct message, opening the two-person conversation on
// first contact.
func (s *Service) SendMessage(ctx context.Context, fromID, to, content string) (Message, error) {
	var out Message
	content = strings.TrimSpace(content)
	if err := ValidateMessage(content); err != nil {
		return out, err
	}
	var notes []Notification
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		notes = notes[:0]
		sender, err := lockActiveUserTx(ctx, tx, fromID)
		if err != nil {
			return err
		}
		toID, err := resolveUserIDTx(ctx, tx, to)
		if err != nil {
			return err
		}
		if toID == fromID {
			return fmt.Errorf("%w: cannot message yourself", ErrInvalidInput)
		}
		convID, err := directConversationTx(ctx, tx, fromID, toID)
		if err != nil {
			return err
		}
		out = Message{ConversationID: convID, SenderID: fromID, Content: content}
		if err := tx.QueryRow(ctx, `
			INSERT INTO messages (conversation_id, sender_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, convID, fromID, content).Scan(&out.ID, &out.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = now() WHERE id = $1`, convID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE conversation_members SET last_read_at = now() WHERE conversation_id = $1 AND user_id = $2
		`, convID, fromID); err != nil {
			return err
		}
		if err := chargeActionTx(ctx, tx, fromID, economy.ActionMessage, strconv.FormatInt(out.ID, 10)); err != nil {
			return err
		}
		n, err := notifyTx(ctx, tx, toID, fromID, "message", nil, fmt.Sprintf("@%s sent you a message", sender.Username))
		if err != nil {
			return err
		}
		notes = append(notes, n)
		return nil
	})
	if err != nil {
		return out, err
	}
	s.afterCommit(ctx, notes)
	return out, nil
}

func directConversationTx(ctx context.Context, tx pgx.Tx, a, b string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		SELECT m1.conversation_id
		FROM conversation_members m1
		JOIN conversation_members m2 ON m2.conversation_id = m1.conversation_id
		WHERE m1.user_id = $1 AND m2.user_id = $2
		  AND (SELECT COUNT(1) FROM conversation_members m WHERE m.conversation_id = m1.conversation_id) = 2
		LIMIT 1
	`, a, b).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	if err := tx.QueryRow(ctx, `INSERT INTO conversations DEFAULT VALUES RETURNING id`).Scan(&id); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO conversation_members (conversation_id, user_id, last_read_at)
		VALUES ($1, $2, now()), ($1, $3, 'epoch')
	`, id, a, b); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Service) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, other.user_id, u.username,
		       COALESCE(last.content, ''), COALESCE(last.created_at, c.created_at),
		       (SELECT COUNT(1) FROM messages m
		        WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.created_at > me.last_read_at)
		FROM conversation_members me
		JOIN conversations c ON c.id = me.conversation_id
		JOIN conversation_members other ON other.conversation_id = c.id AND other.user_id <> $1
		JOIN users u ON u.id = other.user_id
		LEFT JOIN LATERAL (
			SELECT content, created_at FROM messages
			WHERE conversation_id = c.id
			ORDER BY id DESC
			LIMIT 1
		) last ON true
		WHERE me.user_id = $1
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Conversation, 0, 16)
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.OtherUserID, &c.OtherUsername, &c.LastMessage, &c.LastMessageAt, &c.Unread); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListMessages returns a page of a conversation oldest first and marks it read.
func (s *Service) ListMessages(ctx context.Context, userID string, conversationID, before int64, limit int) ([]Message, error) {
	var out []Message
	err := s.readCommitted(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
			UPDATE conversation_members SET last_read_at = now()
			WHERE conversation_id = $1 AND user_id = $2
		`, conversationID, userID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrForbidden
		}
		rows, err := tx.Query(ctx, `
			SELECT id, conversation_id, sender_id, content, created_at FROM (
				SELECT id, conversation_id, sender_id, content, created_at
				FROM messages
				WHERE conversation_id = $1 AND ($2::bigint = 0 OR id < $2::bigint)
				ORDER BY id DESC
				LIMIT $3
			) page
			ORDER BY id ASC
		`, conversationID, before, clampLimit(limit))
		if err != nil {
			return err
		}
		defer rows.Close()
		out = make([]Message, 0, 32)
		for rows.Next() {
			var m Message
			if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}
