package economy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestRateOscillatesWithinBand(t *testing.T) {
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, BaseDailyRate, InterestRateAt(day), 1e-9)
	assert.InDelta(t, BaseDailyRate+DailyRateAmplitude, InterestRateAt(day.Add(6*time.Hour)), 1e-9)
	assert.InDelta(t, BaseDailyRate-DailyRateAmplitude, InterestRateAt(day.Add(18*time.Hour)), 1e-9)
	for m := 0; m < 24*60; m += 7 {
		r := InterestRateAt(day.Add(time.Duration(m) * time.Minute))
		require.GreaterOrEqual(t, r, BaseDailyRate-DailyRateAmplitude-1e-12)
		require.LessOrEqual(t, r, BaseDailyRate+DailyRateAmplitude+1e-12)
	}
}

func TestDepositValueNeverBelowPrincipal(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, principal := range []int64{1, 7, 100, 12_345} {
		for _, offset := range []time.Duration{-time.Hour, 0, time.Second, time.Hour, 24 * time.Hour, 90 * 24 * time.Hour} {
			v := DepositValue(principal, 0.012, start, 0, start.Add(offset))
			require.GreaterOrEqual(t, v, principal, "principal=%d offset=%s", principal, offset)
		}
	}
}

func TestDepositValueCompoundsDaily(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(1010), DepositValue(1000, 0.01, start, 0, start.Add(24*time.Hour)))
	assert.Equal(t, int64(1020), DepositValue(1000, 0.01, start, 0, start.Add(48*time.Hour)))
	assert.Equal(t, int64(520), DepositValue(1000, 0.01, start, 500, start.Add(48*time.Hour)))
	assert.Equal(t, int64(0), DepositValue(1000, 0.01, start, 5000, start))
	assert.Equal(t, int64(20), DepositInterest(1000, 0.01, start, start.Add(48*time.Hour)))
}

func TestCDLifecycle(t *testing.T) {
	term, err := LookupCDTerm(7)
	require.NoError(t, err)
	opened := time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)
	rate := CDRate(term, opened)
	assert.InDelta(t, (BaseDailyRate+DailyRateAmplitude)*1.25, rate, 1e-9)

	_, err = RedeemCD(1000, rate, opened, term.Days, opened.Add(6*24*time.Hour))
	assert.ErrorIs(t, err, ErrNotMatured)

	maturity := CDMaturesAt(opened, term.Days)
	atMaturity, err := RedeemCD(1000, rate, opened, term.Days, maturity)
	require.NoError(t, err)
	later, err := RedeemCD(1000, rate, opened, term.Days, maturity.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, atMaturity, later, "no accrual after maturity")
	assert.Greater(t, atMaturity, int64(1000))

	_, err = LookupCDTerm(3)
	assert.ErrorIs(t, err, ErrInvalidCDTerm)
}

func TestStockPriceIsDeterministic(t *testing.T) {
	at := time.Unix(1_800_000_000, 0)
	assert.Equal(t, StockPriceAt(at), StockPriceAt(at))
	for i := 0; i < 500; i++ {
		p := StockPriceAt(at.Add(time.Duration(i) * 13 * time.Minute))
		require.GreaterOrEqual(t, p, int64(65))
		require.LessOrEqual(t, p, int64(135))
	}
}

func TestCreditTiers(t *testing.T) {
	limit := CreditLimit(1)
	assert.Equal(t, int64(500), limit)
	assert.Equal(t, int64(600), CreditLimit(2))

	tests := []struct {
		owed int64
		want CreditTier
	}{
		{0, TierExcellent},
		{49, TierExcellent},
		{50, TierGood},
		{149, TierGood},
		{200, TierFair},
		{300, TierPoor},
		{375, TierMaxed},
		{500, TierMaxed},
	}
	for _, tc := range tests {
		tier, _ := CreditTierFor(tc.owed, limit)
		assert.Equal(t, tc.want, tier, "owed=%d", tc.owed)
	}

	require.NoError(t, CanCharge(0, limit, 100))
	assert.ErrorIs(t, CanCharge(400, limit, 10), ErrCreditMaxed)
	assert.ErrorIs(t, CanCharge(300, limit, 250), ErrCreditMaxed)
	assert.Error(t, CanCharge(0, limit, 0))
}

func TestCanChargeRejectsOverflowingAmounts(t *testing.T) {
	limit := CreditLimit(1)
	assert.ErrorIs(t, CanCharge(200, limit, math.MaxInt64-199), ErrCreditMaxed)
	assert.ErrorIs(t, CanCharge(0, limit, math.MaxInt64), ErrCreditMaxed)
	require.NoError(t, CanCharge(200, limit, limit-200))
	assert.ErrorIs(t, CanCharge(200, limit, limit-199), ErrCreditMaxed)
}

func TestAccruedOwed(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(0), AccruedOwed(0, 500, start, start.Add(72*time.Hour)))
	assert.Equal(t, int64(41), AccruedOwed(40, 500, start, start.Add(24*time.Hour)))
	assert.Equal(t, int64(400), AccruedOwed(400, 500, start, start))
}
