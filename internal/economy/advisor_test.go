package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdviseRedeemsMaturedCDsFirst(t *testing.T) {
	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	snap := AdvisorSnapshot{
		Spits: 50,
		CDs: []CDSnapshot{
			{ID: 7, Currency: CurrencySpits, Principal: 1000, Rate: 0.01, DepositedAt: now.Add(-48 * time.Hour), TermDays: 1},
			{ID: 8, Currency: CurrencySpits, Principal: 1000, Rate: 0.01, DepositedAt: now.Add(-time.Hour), TermDays: 7},
		},
	}
	cfg := BotConfig{Strategy: StrategyConservative, SpitReserve: 100, MaxOpenCDs: 2, CDTermDays: 7}

	got := Advise(snap, cfg, now)
	require.Len(t, got, 2)
	assert.Equal(t, AdviceRedeemCD, got[0].Kind)
	assert.Equal(t, int64(7), got[0].CDID)
	assert.Equal(t, int64(1010), got[0].Amount)
	assert.Equal(t, 1, got[0].Priority)

	assert.Equal(t, AdviceOpenCD, got[1].Kind)
	assert.Equal(t, int64(50+1010-100), got[1].Amount)
	assert.Equal(t, 7, got[1].TermDays)
	assert.Equal(t, 2, got[1].Priority)
}

func TestAdviseRespectsOpenCDLimit(t *testing.T) {
	now := time.Now()
	snap := AdvisorSnapshot{
		Spits: 5000,
		CDs: []CDSnapshot{
			{ID: 1, Principal: 100, Rate: 0.01, DepositedAt: now, TermDays: 30},
		},
	}
	cfg := BotConfig{Strategy: StrategyConservative, SpitReserve: 100, MaxOpenCDs: 1, CDTermDays: 30}
	assert.Empty(t, Advise(snap, cfg, now))
}

func TestAdviseBalancedConvertsTheWholeExcess(t *testing.T) {
	now := time.Now()
	snap := AdvisorSnapshot{Spits: 1105}
	cfg := BotConfig{Strategy: StrategyBalanced, SpitReserve: 100, MaxOpenCDs: 2, CDTermDays: 1}

	got := Advise(snap, cfg, now)
	require.Len(t, got, 1, "nothing idle is left for a cd after converting")
	assert.Equal(t, AdviceConvert, got[0].Kind)
	assert.Equal(t, int64(1000), got[0].Amount)
}

func TestAdviseConsolidatesWithinDailyCap(t *testing.T) {
	now := time.Now()
	snap := AdvisorSnapshot{
		OwnerID:   "owner-1",
		Spits:     400,
		Gold:      30,
		SentToday: map[Currency]int64{CurrencySpits: 40, CurrencyGold: 10},
	}
	cfg := BotConfig{Strategy: StrategyConservative, SpitReserve: 100, MaxOpenCDs: 0, CDTermDays: 1, AutoConsolidate: true}

	got := Advise(snap, cfg, now)
	require.Len(t, got, 1, "gold cap already used today")
	assert.Equal(t, AdviceConsolidate, got[0].Kind)
	assert.Equal(t, CurrencySpits, got[0].Currency)
	assert.Equal(t, int64(60), got[0].Amount)
	assert.Equal(t, "owner-1", got[0].ToUserID)
}

func TestAdviseAggressiveSkipsCDs(t *testing.T) {
	now := time.Now()
	snap := AdvisorSnapshot{Spits: 1000}
	cfg := BotConfig{Strategy: StrategyAggressive, SpitReserve: 100, MaxOpenCDs: 5, CDTermDays: 1}
	got := Advise(snap, cfg, now)
	require.Len(t, got, 1)
	assert.Equal(t, AdviceConvert, got[0].Kind)
	assert.Equal(t, int64(900), got[0].Amount)
}

func TestBotConfigValidate(t *testing.T) {
	require.NoError(t, DefaultBotConfig().Validate())
	bad := DefaultBotConfig()
	bad.CDTermDays = 2
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCDTerm)
	bad = DefaultBotConfig()
	bad.Strategy = "yolo"
	assert.ErrorIs(t, bad.Validate(), ErrUnknownStrategy)
}
