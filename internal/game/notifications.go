package game

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func (s *Service) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, user_id, COALESCE(actor_id, ''), type, spit_id, body, read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, unreadOnly, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Notification, 0, 32)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.ActorID, &n.Type, &n.SpitID, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationsRead marks the given ids read, or every notification when ids
// is empty. It returns how many changed.
func (s *Service) MarkNotificationsRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		cmd, err := s.db.Exec(ctx, `UPDATE notifications SET read = true WHERE user_id = $1 AND NOT read`, userID)
		if err != nil {
			return 0, err
		}
		return cmd.RowsAffected(), nil
	}
	cmd, err := s.db.Exec(ctx, `
		UPDATE notifications SET read = true
		WHERE user_id = $1 AND NOT read AND id::text = ANY($2)
	`, userID, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// PushNotification stores a notification raised outside the API, such as the push
// webhook, and relays it.
func (s *Service) PushNotification(ctx context.Context, userID, kind, body string) (Notification, error) {
	var n Notification
	err := s.readCommitted(ctx, func(tx pgx.Tx) error {
		if _, err := lockUserTx(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		n, err = notifyTx(ctx, tx, userID, "", kind, nil, body)
		return err
	})
	if err != nil {
		return n, err
	}
	s.afterCommit(ctx, []Notification{n})
	return n, nil
}
