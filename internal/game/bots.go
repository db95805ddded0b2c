package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"spitr/internal/auth"
	"spitr/internal/economy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BotTokenIssuer signs bot tokens. *auth.BotTokens implements it.
type BotTokenIssuer interface {
	Issue(botID, ownerID string) (auth.IssuedBotToken, error)
}

// BotCredential is what the API needs to finish authenticating a bot token.
type BotCredential struct {
	BotID   string
	OwnerID string
	Hash    string
}

const botColumns = `b.user_id, b.owner_id, b.name, u.username, b.strategy, b.spit_reserve, b.max_open_cds, b.cd_term_days, b.auto_consolidate, b.created_at`

func scanBot(row pgx.Row) (Bot, error) {
	var b Bot
	var strategy string
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Username, &strategy, &b.Config.SpitReserve,
		&b.Config.MaxOpenCDs, &b.Config.CDTermDays, &b.Config.AutoConsolidate, &b.CreatedAt)
	b.Config.Strategy = economy.Strategy(strategy)
	return b, err
}

func getBot(row pgx.Row) (Bot, error) {
	b, err := scanBot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, fmt.Errorf("%w: bot", ErrNotFound)
	}
	return b, err
}

// CreateBot opens a secondary account owned by ownerID. Bots start with empty
// balances and are funded by transfers like anyone else.
func (s *Service) CreateBot(ctx context.Context, ownerID, name string, cfg economy.BotConfig) (Bot, error) {
	var out Bot
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > DisplayNameMaxLen {
		return out, fmt.Errorf("%w: bot name must be 1-%d characters", ErrInvalidInput, DisplayNameMaxLen)
	}
	if cfg.Strategy == "" {
		cfg = economy.DefaultBotConfig()
	}
	if err := cfg.Validate(); err != nil {
		return out, invalid(err)
	}
	botID := botIDPrefix + uuid.NewString()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	username := sanitizeUsername("bot_" + trimTo(sanitizeUsername(name), usernameMaxLength-11) + "_" + suffix)

	err := s.serializable(ctx, func(tx pgx.Tx) error {
		owner, err := lockActiveUserTx(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if owner.IsBot {
			return fmt.Errorf("%w: bots cannot own bots", ErrForbidden)
		}
		var count int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM bots WHERE owner_id = $1`, ownerID).Scan(&count); err != nil {
			return err
		}
		if count >= MaxBotsPerOwner {
			return fmt.Errorf("%w: at most %d bots per account", ErrForbidden, MaxBotsPerOwner)
		}
		if err := createUserTx(ctx, tx, botID, "", username, true); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO bots (user_id, owner_id, name, strategy, spit_reserve, max_open_cds, cd_term_days, auto_consolidate)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, botID, ownerID, name, string(cfg.Strategy), cfg.SpitReserve, cfg.MaxOpenCDs, cfg.CDTermDays, cfg.AutoConsolidate); err != nil {
			return err
		}
		out, err = getBot(tx.QueryRow(ctx, `
			SELECT `+botColumns+` FROM bots b JOIN users u ON u.id = b.user_id WHERE b.user_id = $1
		`, botID))
		return err
	})
	if err != nil {
		return out, err
	}
	s.log.Info("bot created", "bot_id", botID, "owner_id", ownerID)
	return out, nil
}

func (s *Service) ListBots(ctx context.Context, ownerID string) ([]Bot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+botColumns+` FROM bots b JOIN users u ON u.id = b.user_id
		WHERE b.owner_id = $1
		ORDER BY b.created_at
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Bot, 0, MaxBotsPerOwner)
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Service) UpdateBotConfig(ctx context.Context, ownerID, botID string, cfg economy.BotConfig) (Bot, error) {
	if err := cfg.Validate(); err != nil {
		return Bot{}, invalid(err)
	}
	strategy, _ := economy.ParseStrategy(string(cfg.Strategy))
	cmd, err := s.db.Exec(ctx, `
		UPDATE bots
		SET strategy = $3, spit_reserve = $4, max_open_cds = $5, cd_term_days = $6, auto_consolidate = $7, updated_at = now()
		WHERE user_id = $1 AND owner_id = $2
	`, botID, ownerID, string(strategy), cfg.SpitReserve, cfg.MaxOpenCDs, cfg.CDTermDays, cfg.AutoConsolidate)
	if err != nil {
		return Bot{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Bot{}, fmt.Errorf("%w: bot %s", ErrNotFound, botID)
	}
	return getBot(s.db.QueryRow(ctx, `
		SELECT `+botColumns+` FROM bots b JOIN users u ON u.id = b.user_id WHERE b.user_id = $1
	`, botID))
}

// IssueBotToken signs a new token for one of the owner's bots and stores its hash.
// The plaintext token is only ever returned here.
func (s *Service) IssueBotToken(ctx context.Context, ownerID, botID string, issuer BotTokenIssuer) (auth.IssuedBotToken, error) {
	var owner string
	err := s.db.QueryRow(ctx, `SELECT owner_id FROM bots WHERE user_id = $1`, botID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && owner != ownerID) {
		return auth.IssuedBotToken{}, fmt.Errorf("%w: bot %s", ErrNotFound, botID)
	}
	if err != nil {
		return auth.IssuedBotToken{}, err
	}
	issued, err := issuer.Issue(botID, ownerID)
	if err != nil {
		return auth.IssuedBotToken{}, err
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO bot_tokens (id, bot_id, secret_hash) VALUES ($1, $2, $3)
	`, issued.ID, botID, issued.Hash); err != nil {
		return auth.IssuedBotToken{}, err
	}
	return issued, nil
}

// BotCredential loads the stored hash for a token id. Revoked or unknown tokens
// are ErrForbidden.
func (s *Service) BotCredential(ctx context.Context, tokenID, botID string) (BotCredential, error) {
	if _, err := uuid.Parse(tokenID); err != nil {
		return BotCredential{}, ErrForbidden
	}
	var c BotCredential
	err := s.db.QueryRow(ctx, `
		SELECT t.bot_id, b.owner_id, t.secret_hash
		FROM bot_tokens t
		JOIN bots b ON b.user_id = t.bot_id
		WHERE t.id = $1 AND t.bot_id = $2 AND NOT t.revoked
	`, tokenID, botID).Scan(&c.BotID, &c.OwnerID, &c.Hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrForbidden
	}
	return c, err
}

func (s *Service) RevokeBotTokens(ctx context.Context, ownerID, botID string) (int64, error) {
	cmd, err := s.db.Exec(ctx, `
		UPDATE bot_tokens t SET revoked = true
		FROM bots b
		WHERE b.user_id = t.bot_id AND t.bot_id = $1 AND b.owner_id = $2 AND NOT t.revoked
	`, botID, ownerID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// BotStatus gathers the bot's account state and runs the advisor over it. It only
// suggests; executing is up to the caller.
func (s *Service) BotStatus(ctx context.Context, botID string) (BotStatus, error) {
	var out BotStatus
	bot, err := getBot(s.db.QueryRow(ctx, `
		SELECT `+botColumns+` FROM bots b JOIN users u ON u.id = b.user_id WHERE b.user_id = $1
	`, botID))
	if err != nil {
		return out, err
	}
	balances, err := s.Balances(ctx, botID)
	if err != nil {
		return out, err
	}
	deposits, err := s.ListDeposits(ctx, botID)
	if err != nil {
		return out, err
	}
	sent, err := s.SentToday(ctx, botID)
	if err != nil {
		return out, err
	}

	snap := economy.AdvisorSnapshot{
		OwnerID:   bot.OwnerID,
		Spits:     balances.Spits,
		Gold:      balances.Gold,
		SentToday: sent,
	}
	for _, d := range deposits {
		if d.Kind == depositCD {
			snap.CDs = append(snap.CDs, economy.CDSnapshot{
				ID: d.ID, Currency: d.Currency, Principal: d.Principal, Rate: d.Rate,
				DepositedAt: d.DepositedAt, TermDays: d.TermDays,
			})
			continue
		}
		snap.Deposits = append(snap.Deposits, economy.DepositSnapshot{
			ID: d.ID, Currency: d.Currency, Principal: d.Principal, Rate: d.Rate,
			DepositedAt: d.DepositedAt, Withdrawn: d.Withdrawn,
		})
	}

	now := s.now()
	out = BotStatus{
		Bot:         bot,
		Balances:    balances,
		Deposits:    deposits,
		SentToday:   make(map[string]int64, len(sent)),
		Advice:      economy.Advise(snap, bot.Config, now),
		GeneratedAt: now.UTC(),
	}
	for c, v := range sent {
		out.SentToday[string(c)] = v
	}
	return out, nil
}
