package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"spitr/internal/economy"
	"spitr/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op     string
	target string
	amount int64
	key    string
}

type fakeAPI struct {
	status game.BotStatus
	calls  []call
	fail   string
}

func (f *fakeAPI) BotStatus(_ context.Context, _ string, out any) error {
	raw, err := json.Marshal(map[string]any{"status": f.status, "success": true})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeAPI) record(op, target string, amount int64, key string) (map[string]any, error) {
	f.calls = append(f.calls, call{op, target, amount, key})
	if op == f.fail {
		return nil, errors.New("api status 400: insufficient funds")
	}
	return map[string]any{"success": true}, nil
}

func (f *fakeAPI) RedeemCD(_ context.Context, _ string, id int64, idem string) (map[string]any, error) {
	return f.record("redeem", "", id, idem)
}

func (f *fakeAPI) Convert(_ context.Context, _, from string, amount int64, idem string) (map[string]any, error) {
	return f.record("convert", from, amount, idem)
}

func (f *fakeAPI) OpenCD(_ context.Context, _, currency string, amount int64, _ int, idem string) (map[string]any, error) {
	return f.record("open_cd", currency, amount, idem)
}

func (f *fakeAPI) Transfer(_ context.Context, _, to, _ string, amount int64, idem string) (map[string]any, error) {
	return f.record("transfer", to, amount, idem)
}

func newRunner(api botAPI, now time.Time) *runner {
	return &runner{api: api, log: slog.New(slog.NewTextHandler(io.Discard, nil)), now: func() time.Time { return now }}
}

func TestRunBotExecutesAdviceInOrder(t *testing.T) {
	api := &fakeAPI{status: game.BotStatus{
		Bot: game.Bot{ID: "bot_1", OwnerID: "owner"},
		Advice: []economy.Advice{
			{Priority: 1, Kind: economy.AdviceRedeemCD, CDID: 4, Currency: economy.CurrencySpits, Amount: 110},
			{Priority: 2, Kind: economy.AdviceConvert, From: economy.CurrencySpits, Currency: economy.CurrencyGold, Amount: 200},
			{Priority: 3, Kind: economy.AdviceOpenCD, Currency: economy.CurrencySpits, Amount: 150, TermDays: 7},
			{Priority: 4, Kind: economy.AdviceConsolidate, Currency: economy.CurrencyGold, Amount: 20, ToUserID: "owner"},
		},
	}}
	api.fail = "open_cd"
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	sum, err := newRunner(api, now).runBot(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, runSummary{BotID: "bot_1", Executed: 3, Failed: 1}, sum)
	require.Len(t, api.calls, 4)
	assert.Equal(t, []string{"redeem", "convert", "open_cd", "transfer"}, []string{api.calls[0].op, api.calls[1].op, api.calls[2].op, api.calls[3].op})
	assert.Equal(t, "owner", api.calls[3].target)
}

func TestIdempotencyKeyIsStablePerDay(t *testing.T) {
	a := economy.Advice{Kind: economy.AdviceOpenCD, Currency: economy.CurrencySpits, Amount: 100}
	b := a
	b.Amount = 250

	assert.Equal(t, idempotencyKey("bot_1", a, "2026-05-02"), idempotencyKey("bot_1", b, "2026-05-02"))
	assert.NotEqual(t, idempotencyKey("bot_1", a, "2026-05-02"), idempotencyKey("bot_1", a, "2026-05-03"))
	assert.NotEqual(t, idempotencyKey("bot_1", a, "2026-05-02"), idempotencyKey("bot_2", a, "2026-05-02"))

	gold := economy.Advice{Kind: economy.AdviceConsolidate, Currency: economy.CurrencyGold}
	spits := economy.Advice{Kind: economy.AdviceConsolidate, Currency: economy.CurrencySpits}
	assert.NotEqual(t, idempotencyKey("bot_1", gold, "d"), idempotencyKey("bot_1", spits, "d"))

	cd1 := economy.Advice{Kind: economy.AdviceRedeemCD, CDID: 1}
	cd2 := economy.Advice{Kind: economy.AdviceRedeemCD, CDID: 2}
	assert.NotEqual(t, idempotencyKey("bot_1", cd1, "d"), idempotencyKey("bot_1", cd2, "d"))
}

func TestRunBotStatusError(t *testing.T) {
	_, err := newRunner(failingStatus{&fakeAPI{}}, time.Now()).runBot(context.Background(), "tok")
	assert.ErrorContains(t, err, "bot status")
}

type failingStatus struct{ *fakeAPI }

func (failingStatus) BotStatus(context.Context, string, any) error {
	return errors.New("api status 401: invalid bot token")
}
