package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

type CreateSpitInput struct {
	UserID      string
	Content     string
	ReplyToID   *int64
	QuoteSpitID *int64
}

type CreateSpitResult struct {
	Spit    Spit  `json:"spit"`
	Balance int64 `json:"balance"`
	Level   int   `json:"level"`
}

func (s *Service) CreateSpit(ctx context.Context, in CreateSpitInput) (CreateSpitResult, error) {
	var out CreateSpitResult
	if err := economy.ValidateSpitContent(in.Content); err != nil {
		return out, invalid(err)
	}
	if in.ReplyToID != nil && in.QuoteSpitID != nil {
		return out, fmt.Errorf("%w: a spit is either a reply or a quote", ErrInvalidInput)
	}
	action := economy.ActionPost
	parentID := in.ReplyToID
	switch {
	case in.ReplyToID != nil:
		action = economy.ActionReply
	case in.QuoteSpitID != nil:
		action = economy.ActionQuote
		parentID = in.QuoteSpitID
	}

	var notes []Notification
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		notes = notes[:0]
		u, err := lockActiveUserTx(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		var parentAuthor string
		if parentID != nil {
			err := tx.QueryRow(ctx, `SELECT user_id FROM spits WHERE id = $1`, *parentID).Scan(&parentAuthor)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: spit %d", ErrNotFound, *parentID)
			}
			if err != nil {
				return err
			}
		}

		sp := Spit{UserID: u.ID, Username: u.Username, Content: in.Content, ReplyToID: in.ReplyToID, QuoteSpitID: in.QuoteSpitID}
		if err := tx.QueryRow(ctx, `
			INSERT INTO spits (user_id, content, reply_to_id, quote_spit_id, hp)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, hp, created_at
		`, u.ID, in.Content, in.ReplyToID, in.QuoteSpitID, economy.SpitStartingHP).Scan(&sp.ID, &sp.HP, &sp.CreatedAt); err != nil {
			return err
		}
		ref := strconv.FormatInt(sp.ID, 10)
		if err := chargeActionTx(ctx, tx, u.ID, action, ref); err != nil {
			return err
		}
		level, err := grantXPTx(ctx, tx, &u, economy.ActionXP(action))
		if err != nil {
			return err
		}
		if parentAuthor != "" && parentAuthor != u.ID {
			n, err := notifyTx(ctx, tx, parentAuthor, u.ID, string(action), &sp.ID, fmt.Sprintf("@%s: %s", u.Username, in.Content))
			if err != nil {
				return err
			}
			notes = append(notes, n)
		}
		out.Spit = sp
		out.Level = level
		out.Balance, err = balanceTx(ctx, tx, u.ID, economy.CurrencySpits)
		return err
	})
	if err != nil {
		return out, err
	}
	s.afterCommit(ctx, notes)
	return out, nil
}

func (s *Service) DeleteSpit(ctx context.Context, userID string, spitID int64) error {
	return s.readCommitted(ctx, func(tx pgx.Tx) error {
		var owner string
		err := tx.QueryRow(ctx, `SELECT user_id FROM spits WHERE id = $1 FOR UPDATE`, spitID).Scan(&owner)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: spit %d", ErrNotFound, spitID)
		}
		if err != nil {
			return err
		}
		if owner != userID {
			return ErrForbidden
		}
		_, err = tx.Exec(ctx, `DELETE FROM spits WHERE id = $1`, spitID)
		return err
	})
}

const spitColumns = `
	s.id, s.user_id, u.username, s.content, s.reply_to_id, s.quote_spit_id, s.hp, s.destroyed, s.created_at,
	(SELECT COUNT(1) FROM likes l WHERE l.spit_id = s.id),
	(SELECT COUNT(1) FROM respits r WHERE r.spit_id = s.id),
	(SELECT COUNT(1) FROM spits c WHERE c.reply_to_id = s.id),
	EXISTS (SELECT 1 FROM likes l WHERE l.spit_id = s.id AND l.user_id = $1),
	EXISTS (SELECT 1 FROM respits r WHERE r.spit_id = s.id AND r.user_id = $1)
`

func scanSpits(rows pgx.Rows) ([]Spit, error) {
	defer rows.Close()
	out := make([]Spit, 0, 32)
	for rows.Next() {
		var sp Spit
		if err := rows.Scan(
			&sp.ID, &sp.UserID, &sp.Username, &sp.Content, &sp.ReplyToID, &sp.QuoteSpitID, &sp.HP, &sp.Destroyed, &sp.CreatedAt,
			&sp.Likes, &sp.Respits, &sp.Replies, &sp.LikedByMe, &sp.RespitedByMe,
		); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Feed lists spits by the viewer and everyone they follow, plus spits those users
// respat, newest first. before is an exclusive id cursor; zero starts at the top.
func (s *Service) Feed(ctx context.Context, viewerID string, before int64, limit int) ([]Spit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+spitColumns+`
		FROM spits s
		JOIN users u ON u.id = s.user_id
		WHERE ($2::bigint = 0 OR s.id < $2::bigint)
		  AND (
		    s.user_id = $1
		    OR s.user_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
		    OR s.id IN (
		      SELECT r.spit_id FROM respits r
		      WHERE r.user_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
		    )
		  )
		ORDER BY s.id DESC
		LIMIT $3
	`, viewerID, before, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanSpits(rows)
}

func (s *Service) UserSpits(ctx context.Context, viewerID, idOrUsername string, before int64, limit int) ([]Spit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+spitColumns+`
		FROM spits s
		JOIN users u ON u.id = s.user_id
		WHERE (u.id = $2 OR u.username = lower($2))
		  AND ($3::bigint = 0 OR s.id < $3::bigint)
		ORDER BY s.id DESC
		LIMIT $4
	`, viewerID, idOrUsername, before, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanSpits(rows)
}

func (s *Service) GetSpit(ctx context.Context, viewerID string, spitID int64) (Spit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+spitColumns+`
		FROM spits s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $2
	`, viewerID, spitID)
	if err != nil {
		return Spit{}, err
	}
	out, err := scanSpits(rows)
	if err != nil {
		return Spit{}, err
	}
	if len(out) == 0 {
		return Spit{}, fmt.Errorf("%w: spit %d", ErrNotFound, spitID)
	}
	return out[0], nil
}

type LikeResult struct {
	Rewarded bool  `json:"rewarded"`
	Balance  int64 `json:"balance"`
	SpitHP   int64 `json:"spit_hp"`
}

// LikeSpit charges the liker and, the first time this user ever likes this spit,
// pays the author and heals both author and spit. Unlike and like again pays nothing.
func (s *Service) LikeSpit(ctx context.Context, userID string, spitID int64) (LikeResult, error) {
	var out LikeResult
	var notes []Notification
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		notes = notes[:0]
		out = LikeResult{}
		u, err := lockActiveUserTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		var author string
		var spitHP int64
		var spitDestroyed bool
		err = tx.QueryRow(ctx, `SELECT user_id, hp, destroyed FROM spits WHERE id = $1 FOR UPDATE`, spitID).Scan(&author, &spitHP, &spitDestroyed)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: spit %d", ErrNotFound, spitID)
		}
		if err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `
			INSERT INTO likes (user_id, spit_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, userID, spitID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("%w: already liked", ErrAlreadyExists)
		}
		ref := strconv.FormatInt(spitID, 10)
		if err := chargeActionTx(ctx, tx, userID, economy.ActionLike, ref); err != nil {
			return err
		}
		if _, err := grantXPTx(ctx, tx, &u, economy.ActionXP(economy.ActionLike)); err != nil {
			return err
		}
		out.SpitHP = spitHP

		if author != userID {
			cmd, err := tx.Exec(ctx, `
				INSERT INTO like_rewards (user_id, spit_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
			`, userID, spitID)
			if err != nil {
				return err
			}
			if cmd.RowsAffected() == 1 {
				out.Rewarded = true
				if err := rewardLikeTx(ctx, tx, author, spitID, ref); err != nil {
					return err
				}
				if !spitDestroyed {
					if err := tx.QueryRow(ctx, `
						UPDATE spits SET hp = LEAST(hp + $1, $2) WHERE id = $3 RETURNING hp
					`, economy.LikeSpitHeal, economy.SpitMaxHP, spitID).Scan(&out.SpitHP); err != nil {
						return err
					}
				}
			}
			n, err := notifyTx(ctx, tx, author, userID, "like", &spitID, fmt.Sprintf("@%s liked your spit", u.Username))
			if err != nil {
				return err
			}
			notes = append(notes, n)
		}
		out.Balance, err = balanceTx(ctx, tx, userID, economy.CurrencySpits)
		return err
	})
	if err != nil {
		return out, err
	}
	s.afterCommit(ctx, notes)
	return out, nil
}

func rewardLikeTx(ctx context.Context, tx pgx.Tx, authorID string, spitID int64, ref string) error {
	author, err := lockUserTx(ctx, tx, authorID)
	if err != nil {
		return err
	}
	if _, err := adjustBalanceTx(ctx, tx, authorID, economy.CurrencySpits, economy.LikeAuthorReward, economy.TxLikeReward, ref); err != nil {
		return err
	}
	hp := economy.ClampHP(author.HP+economy.LikeAuthorHeal, economy.MaxHP(author.Level))
	return setHPTx(ctx, tx, authorID, hp)
}

func (s *Service) UnlikeSpit(ctx context.Context, userID string, spitID int64) error {
	cmd, err := s.db.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND spit_id = $2`, userID, spitID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: not liked", ErrNotFound)
	}
	return nil
}

func (s *Service) Respit(ctx context.Context, userID string, spitID int64) error {
	var notes []Notification
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		notes = notes[:0]
		u, err := lockActiveUserTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		var author string
		err = tx.QueryRow(ctx, `SELECT user_id FROM spits WHERE id = $1`, spitID).Scan(&author)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: spit %d", ErrNotFound, spitID)
		}
		if err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `INSERT INTO respits (user_id, spit_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, spitID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("%w: already respat", ErrAlreadyExists)
		}
		if err := chargeActionTx(ctx, tx, userID, economy.ActionRespit, strconv.FormatInt(spitID, 10)); err != nil {
			return err
		}
		if _, err := grantXPTx(ctx, tx, &u, economy.ActionXP(economy.ActionRespit)); err != nil {
			return err
		}
		if author != userID {
			n, err := notifyTx(ctx, tx, author, userID, "respit", &spitID, fmt.Sprintf("@%s respat your spit", u.Username))
			if err != nil {
				return err
			}
			notes = append(notes, n)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx, notes)
	return nil
}

func (s *Service) Unrespit(ctx context.Context, userID string, spitID int64) error {
	cmd, err := s.db.Exec(ctx, `DELETE FROM respits WHERE user_id = $1 AND spit_id = $2`, userID, spitID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: not respat", ErrNotFound)
	}
	return nil
}

func (s *Service) Follow(ctx context.Context, userID, target string) error {
	var notes []Notification
	err := s.readCommitted(ctx, func(tx pgx.Tx) error {
		notes = notes[:0]
		targetID, err := resolveUserIDTx(ctx, tx, target)
		if err != nil {
			return err
		}
		if targetID == userID {
			return fmt.Errorf("%w: cannot follow yourself", ErrInvalidInput)
		}
		u, err := lockUserTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `INSERT INTO follows (follower_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, targetID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("%w: already following", ErrAlreadyExists)
		}
		if err := chargeActionTx(ctx, tx, userID, economy.ActionFollow, targetID); err != nil {
			return err
		}
		n, err := notifyTx(ctx, tx, targetID, userID, "follow", nil, fmt.Sprintf("@%s followed you", u.Username))
		if err != nil {
			return err
		}
		notes = append(notes, n)
		return nil
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx, notes)
	return nil
}

func (s *Service) Unfollow(ctx context.Context, userID, target string) error {
	cmd, err := s.db.Exec(ctx, `
		DELETE FROM follows
		WHERE follower_id = $1
		  AND following_id = (SELECT id FROM users WHERE id = $2 OR username = lower($2) LIMIT 1)
	`, userID, target)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: not following", ErrNotFound)
	}
	return nil
}
