package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"spitr/internal/economy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EnsureUser creates the game account for an authenticated identity on first sight.
// New accounts start with the signup balances at full HP; existing ones are left alone.
func (s *Service) EnsureUser(ctx context.Context, userID, email, username string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if ValidateUsername(username) != nil {
		username = usernameFromEmail(email)
	}

	candidate := username
	for attempt := 0; attempt < 4; attempt++ {
		err := s.readCommitted(ctx, func(tx pgx.Tx) error {
			return createUserTx(ctx, tx, userID, email, candidate, false)
		})
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		candidate = sanitizeUsername(trimTo(username, usernameMaxLength-7) + "_" + suffix)
	}
	return fmt.Errorf("%w: could not find a free username", ErrAlreadyExists)
}

func createUserTx(ctx context.Context, tx pgx.Tx, userID, email, username string, isBot bool) error {
	spits, gold := economy.StartingSpits, economy.StartingGold
	if isBot {
		spits, gold = 0, 0
	}
	cmd, err := tx.Exec(ctx, `
		INSERT INTO users (id, email, username, display_name, hp, level, spits, gold, is_bot)
		VALUES ($1, $2, $3, $3, $4, 1, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, userID, email, username, economy.MaxHP(1), spits, gold, isBot)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 || spits == 0 {
		return nil
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO credit_transactions (user_id, type, amount, balance_after)
		VALUES ($1, $2, $3, $3)
	`, userID, string(economy.TxSignup), spits)
	return err
}

// Profile looks a user up by id or username. viewerID decides is_following.
func (s *Service) Profile(ctx context.Context, viewerID, idOrUsername string) (Profile, error) {
	var p Profile
	err := s.db.QueryRow(ctx, `
		SELECT u.id, u.username, u.display_name, u.bio, u.hp, u.destroyed, u.xp, u.level,
		       u.spits, u.gold, u.is_bot, u.created_at,
		       (SELECT COUNT(1) FROM follows WHERE following_id = u.id),
		       (SELECT COUNT(1) FROM follows WHERE follower_id = u.id),
		       EXISTS (SELECT 1 FROM follows WHERE follower_id = $2 AND following_id = u.id)
		FROM users u
		WHERE u.id = $1 OR u.username = lower($1)
		LIMIT 1
	`, idOrUsername, viewerID).Scan(
		&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.HP, &p.Destroyed, &p.XP, &p.Level,
		&p.Spits, &p.Gold, &p.IsBot, &p.CreatedAt,
		&p.Followers, &p.Following, &p.IsFollowing,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, fmt.Errorf("%w: user %s", ErrNotFound, idOrUsername)
	}
	if err != nil {
		return p, err
	}
	p.MaxHP = economy.MaxHP(p.Level)
	p.XPToNextLevel = economy.XPToNextLevel(p.XP)
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID, displayName, bio string) error {
	displayName = strings.TrimSpace(displayName)
	bio = strings.TrimSpace(bio)
	if displayName == "" || utf8.RuneCountInString(displayName) > DisplayNameMaxLen {
		return fmt.Errorf("%w: display name must be 1-%d characters", ErrInvalidInput, DisplayNameMaxLen)
	}
	if utf8.RuneCountInString(bio) > BioMaxLength {
		return fmt.Errorf("%w: bio longer than %d characters", ErrInvalidInput, BioMaxLength)
	}
	cmd, err := s.db.Exec(ctx, `
		UPDATE users SET display_name = $1, bio = $2, updated_at = now() WHERE id = $3
	`, displayName, bio, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Balances(ctx context.Context, userID string) (Balances, error) {
	var b Balances
	err := s.db.QueryRow(ctx, `SELECT spits, gold FROM users WHERE id = $1`, userID).Scan(&b.Spits, &b.Gold)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

func trimTo(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
