package economy

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	BaseDailyRate      = 0.01
	DailyRateAmplitude = 0.005

	secondsPerDay = 86400.0
)

// InterestRateAt is the daily rate offered at t. It oscillates once per UTC day
// between 0.5% and 1.5%; a deposit locks the rate it was opened at.
func InterestRateAt(t time.Time) float64 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	phase := t.Sub(midnight).Seconds() / secondsPerDay
	return BaseDailyRate + DailyRateAmplitude*math.Sin(2*math.Pi*phase)
}

func elapsedDays(from, to time.Time) float64 {
	d := to.Sub(from).Seconds() / secondsPerDay
	if d < 0 {
		return 0
	}
	return d
}

func compound(principal int64, rate, days float64) int64 {
	if principal <= 0 {
		return 0
	}
	v := math.Floor(float64(principal) * math.Pow(1+rate, days))
	if v < float64(principal) {
		return principal
	}
	if v > math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	return int64(v)
}

// DepositValue is the withdrawable balance of a deposit at now.
func DepositValue(principal int64, rate float64, depositedAt time.Time, withdrawn int64, now time.Time) int64 {
	v := compound(principal, rate, elapsedDays(depositedAt, now)) - withdrawn
	if v < 0 {
		return 0
	}
	return v
}

// DepositInterest is the accrued interest not yet withdrawn.
func DepositInterest(principal int64, rate float64, depositedAt time.Time, now time.Time) int64 {
	return compound(principal, rate, elapsedDays(depositedAt, now)) - principal
}

type CDTerm struct {
	Days       int     `json:"days"`
	RateFactor float64 `json:"rate_factor"`
}

var cdTerms = []CDTerm{
	{Days: 1, RateFactor: 1.0},
	{Days: 7, RateFactor: 1.25},
	{Days: 30, RateFactor: 1.5},
}

var (
	ErrInvalidCDTerm = errors.New("cd term must be 1, 7 or 30 days")
	ErrNotMatured    = errors.New("certificate of deposit has not matured")
)

func CDTerms() []CDTerm {
	return append([]CDTerm(nil), cdTerms...)
}

func LookupCDTerm(days int) (CDTerm, error) {
	for _, t := range cdTerms {
		if t.Days == days {
			return t, nil
		}
	}
	return CDTerm{}, fmt.Errorf("%w: %d", ErrInvalidCDTerm, days)
}

// CDRate is the locked rate for a CD opened at t.
func CDRate(term CDTerm, t time.Time) float64 {
	return InterestRateAt(t) * term.RateFactor
}

func CDMaturesAt(depositedAt time.Time, termDays int) time.Time {
	return depositedAt.Add(time.Duration(termDays) * 24 * time.Hour)
}

func CDMatured(depositedAt time.Time, termDays int, now time.Time) bool {
	return !now.Before(CDMaturesAt(depositedAt, termDays))
}

// CDValue stops accruing at maturity.
func CDValue(principal int64, rate float64, depositedAt time.Time, termDays int, now time.Time) int64 {
	end := now
	if maturity := CDMaturesAt(depositedAt, termDays); end.After(maturity) {
		end = maturity
	}
	return compound(principal, rate, elapsedDays(depositedAt, end))
}

// RedeemCD returns the payout of a matured CD.
func RedeemCD(principal int64, rate float64, depositedAt time.Time, termDays int, now time.Time) (int64, error) {
	if !CDMatured(depositedAt, termDays, now) {
		return 0, ErrNotMatured
	}
	return CDValue(principal, rate, depositedAt, termDays, now), nil
}

const (
	StockBasePrice = 100.0
	stockSlowWave  = 6 * time.Hour
	stockFastWave  = 47 * time.Minute
)

// StockPriceAt is the spit price of one share at t; there is no order book.
func StockPriceAt(t time.Time) int64 {
	sec := float64(t.Unix())
	slow := math.Sin(2 * math.Pi * sec / stockSlowWave.Seconds())
	fast := math.Sin(2 * math.Pi * sec / stockFastWave.Seconds())
	p := math.Round(StockBasePrice * (1 + 0.25*slow + 0.10*fast))
	if p < 1 {
		return 1
	}
	return int64(p)
}

type CreditTier string

const (
	TierExcellent CreditTier = "excellent"
	TierGood      CreditTier = "good"
	TierFair      CreditTier = "fair"
	TierPoor      CreditTier = "poor"
	TierMaxed     CreditTier = "maxed"
)

type creditBand struct {
	tier      CreditTier
	below     float64
	dailyRate float64
}

var creditBands = []creditBand{
	{TierExcellent, 0.10, 0.001},
	{TierGood, 0.30, 0.0025},
	{TierFair, 0.50, 0.005},
	{TierPoor, 0.75, 0.01},
}

const maxedDailyRate = 0.02

var ErrCreditMaxed = errors.New("credit card utilization is maxed")

func CreditLimit(level int) int64 {
	if level < 1 {
		level = 1
	}
	return 500 + 100*int64(level-1)
}

func Utilization(owed, limit int64) float64 {
	if limit <= 0 {
		return 1
	}
	if owed <= 0 {
		return 0
	}
	return float64(owed) / float64(limit)
}

// CreditTierFor returns the tier and the daily rate charged on the owed balance.
func CreditTierFor(owed, limit int64) (CreditTier, float64) {
	u := Utilization(owed, limit)
	for _, b := range creditBands {
		if u < b.below {
			return b.tier, b.dailyRate
		}
	}
	return TierMaxed, maxedDailyRate
}

// AccruedOwed projects the owed balance from the last materialization to now.
func AccruedOwed(owed, limit int64, lastAccrued, now time.Time) int64 {
	if owed <= 0 {
		return 0
	}
	_, rate := CreditTierFor(owed, limit)
	v := math.Ceil(float64(owed) * math.Pow(1+rate, elapsedDays(lastAccrued, now)))
	return int64(v)
}

// CanCharge reports whether amount can be added to the owed balance.
func CanCharge(owed, limit, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be > 0")
	}
	if tier, _ := CreditTierFor(owed, limit); tier == TierMaxed {
		return ErrCreditMaxed
	}
	if amount > limit-owed {
		return fmt.Errorf("%w: %d available", ErrCreditMaxed, limit-owed)
	}
	return nil
}
