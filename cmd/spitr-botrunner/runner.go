package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"spitr/internal/economy"
	"spitr/internal/game"

	"github.com/google/uuid"
)

// botAPI is the part of the API client the runner drives.
type botAPI interface {
	BotStatus(ctx context.Context, botToken string, out any) error
	RedeemCD(ctx context.Context, accessToken string, id int64, idem string) (map[string]any, error)
	Convert(ctx context.Context, accessToken, from string, amount int64, idem string) (map[string]any, error)
	OpenCD(ctx context.Context, accessToken, currency string, amount int64, termDays int, idem string) (map[string]any, error)
	Transfer(ctx context.Context, accessToken, to, currency string, amount int64, idem string) (map[string]any, error)
}

type runner struct {
	api botAPI
	log *slog.Logger
	now func() time.Time
}

type runSummary struct {
	BotID    string
	Executed int
	Failed   int
}

// runBot polls one bot's advisor and carries out every suggestion in order. A
// failed step is logged and the rest still run; the next poll recomputes advice.
func (r *runner) runBot(ctx context.Context, token string) (runSummary, error) {
	var resp struct {
		Status game.BotStatus `json:"status"`
	}
	if err := r.api.BotStatus(ctx, token, &resp); err != nil {
		return runSummary{}, fmt.Errorf("bot status: %w", err)
	}
	status := resp.Status
	sum := runSummary{BotID: status.Bot.ID}
	day := r.now().UTC().Format("2006-01-02")

	for _, advice := range status.Advice {
		key := idempotencyKey(status.Bot.ID, advice, day)
		err := r.execute(ctx, token, advice, key)
		if err != nil {
			sum.Failed++
			r.log.Warn("bot action failed",
				"bot_id", status.Bot.ID,
				"kind", advice.Kind,
				"amount", advice.Amount,
				"err", err,
			)
			continue
		}
		sum.Executed++
		r.log.Info("bot action",
			"bot_id", status.Bot.ID,
			"kind", advice.Kind,
			"amount", advice.Amount,
			"reason", advice.Reason,
		)
	}
	return sum, nil
}

func (r *runner) execute(ctx context.Context, token string, a economy.Advice, key string) error {
	var err error
	switch a.Kind {
	case economy.AdviceRedeemCD:
		_, err = r.api.RedeemCD(ctx, token, a.CDID, key)
	case economy.AdviceConvert:
		_, err = r.api.Convert(ctx, token, string(a.From), a.Amount, key)
	case economy.AdviceOpenCD:
		_, err = r.api.OpenCD(ctx, token, string(a.Currency), a.Amount, a.TermDays, key)
	case economy.AdviceConsolidate:
		_, err = r.api.Transfer(ctx, token, a.ToUserID, string(a.Currency), a.Amount, key)
	default:
		err = fmt.Errorf("unknown advice kind %q", a.Kind)
	}
	return err
}

// idempotencyKey is stable for one bot, action and day, so a crashed or repeated
// run cannot apply the same suggestion twice.
func idempotencyKey(botID string, a economy.Advice, day string) string {
	target := string(a.Currency)
	if a.Kind == economy.AdviceRedeemCD {
		target = strconv.FormatInt(a.CDID, 10)
	}
	name := botID + "|" + string(a.Kind) + "|" + target + "|" + day
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("spitr:bot:"+name)).String()
}
