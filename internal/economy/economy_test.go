package economy

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand replays canned values.
type fixedRand struct {
	floats []float64
	ints   []int
}

func (r *fixedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *fixedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func TestXPThresholdsIncrease(t *testing.T) {
	prev := XPForLevel(1)
	assert.Equal(t, int64(0), prev)
	for level := 2; level <= MaxLevel; level++ {
		cur := XPForLevel(level)
		require.Greater(t, cur, prev, "level %d", level)
		prev = cur
	}
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{XPForLevel(MaxLevel) * 10, MaxLevel},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, LevelForXP(tc.xp), "xp=%d", tc.xp)
	}
	assert.Equal(t, int64(1), XPToNextLevel(99))
	assert.Equal(t, int64(0), XPToNextLevel(XPForLevel(MaxLevel)))
}

func TestMaxHPScalesWithLevel(t *testing.T) {
	assert.Equal(t, BaseMaxHP, MaxHP(1))
	assert.Equal(t, BaseMaxHP+MaxHPPerLevel, MaxHP(2))
	assert.Equal(t, MaxHP(MaxLevel), MaxHP(MaxLevel+5))
}

func TestValidateSpitContent(t *testing.T) {
	require.NoError(t, ValidateSpitContent("hello"))
	assert.Error(t, ValidateSpitContent("   "))
	assert.Error(t, ValidateSpitContent(strings.Repeat("a", SpitMaxLength+1)))
	require.NoError(t, ValidateSpitContent(strings.Repeat("é", SpitMaxLength)))
}

func TestSpitsToGoldKeepsRemainder(t *testing.T) {
	gold, used := SpitsToGold(125)
	assert.Equal(t, int64(12), gold)
	assert.Equal(t, int64(120), used)
	assert.Equal(t, int64(50), GoldToSpits(5))
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("GOLD")
	require.NoError(t, err)
	assert.Equal(t, CurrencyGold, c)
	c, err = ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, CurrencySpits, c)
	_, err = ParseCurrency("bitcoin")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestCatalogLookup(t *testing.T) {
	item, err := LookupItem(" Kevlar ")
	require.NoError(t, err)
	assert.Equal(t, KindBuff, item.Kind)
	assert.Equal(t, int64(3), item.Charges)

	_, err = LookupItem("laser")
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Len(t, Catalog(), len(catalog))
}

func TestHealAmount(t *testing.T) {
	small, _ := LookupItem(string(PotionSmall))
	full, _ := LookupItem(string(PotionFull))
	assert.Equal(t, int64(600), HealAmount(small, 100, 5000))
	assert.Equal(t, int64(5000), HealAmount(small, 4900, 5000))
	assert.Equal(t, int64(5000), HealAmount(full, 0, 5000))
}

func TestTransferPenalty(t *testing.T) {
	tests := []struct {
		name       string
		prior, amt int64
		want       int64
	}{
		{"under cap", 0, 50, 0},
		{"exactly cap", 50, 50, 0},
		{"crosses cap", 90, 20, 1000},
		{"already over", 120, 5, 500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TransferPenalty(tc.prior, tc.amt, DailySpitTransferCap))
		})
	}
	assert.Equal(t, int64(300), TransferPenalty(8, 5, DailyGoldTransferCap))
	assert.Equal(t, int64(0), RemainingAllowance(150, DailySpitTransferCap))
	assert.Equal(t, int64(30), RemainingAllowance(70, DailySpitTransferCap))
}

func TestApplyHPPenalty(t *testing.T) {
	hp, destroyed := ApplyHPPenalty(1000, 300)
	assert.Equal(t, int64(700), hp)
	assert.False(t, destroyed)
	hp, destroyed = ApplyHPPenalty(100, 300)
	assert.Equal(t, int64(0), hp)
	assert.True(t, destroyed)
}

func TestDayStart(t *testing.T) {
	ts := time.Date(2026, 3, 4, 23, 59, 0, 0, time.FixedZone("x", -5*3600))
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), DayStart(ts))
}

func TestVerifyLedgerChain(t *testing.T) {
	entries := []LedgerEntry{
		{ID: 1, Type: TxSignup, Amount: 1000, BalanceAfter: 1000},
		{ID: 2, Type: TxActionCost, Amount: -1, BalanceAfter: 999},
		{ID: 3, Type: TxLikeReward, Amount: 1, BalanceAfter: 1000},
	}
	assert.Nil(t, VerifyLedgerChain(entries))

	entries[2].BalanceAfter = 1005
	brk := VerifyLedgerChain(entries)
	require.NotNil(t, brk)
	assert.Equal(t, int64(3), brk.EntryID)
	assert.Equal(t, int64(1000), brk.Expected)
	assert.Contains(t, brk.Error(), "ledger entry 3")
}

func TestRollChest(t *testing.T) {
	r, err := ParseChestRarity("Rare")
	require.NoError(t, err)
	reward := RollChest(r, &fixedRand{ints: []int{0}})
	assert.Equal(t, int64(300), reward.Spits)

	reward = RollChest(ChestCommon, &fixedRand{ints: []int{99}})
	assert.Equal(t, BuffKevlar, reward.Item)

	_, err = ParseChestRarity("mythic")
	assert.ErrorIs(t, err, ErrUnknownChest)
}

func TestScratchPrize(t *testing.T) {
	assert.Equal(t, int64(0), ScratchPrize(&fixedRand{floats: []float64{0.1}}))
	assert.Equal(t, int64(5), ScratchPrize(&fixedRand{floats: []float64{0.80}}))
	assert.Equal(t, int64(100), ScratchPrize(&fixedRand{floats: []float64{0.99}}))
	assert.Equal(t, scratchJackpot, ScratchPrize(&fixedRand{floats: []float64{0.999}}))
}
