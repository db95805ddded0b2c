package economy

import "time"

const (
	DailySpitTransferCap = int64(100)
	DailyGoldTransferCap = int64(10)

	// HP lost per unit moved beyond the daily cap.
	OverCapHPPenalty = int64(100)
)

func DailyTransferCap(c Currency) int64 {
	if c == CurrencyGold {
		return DailyGoldTransferCap
	}
	return DailySpitTransferCap
}

// Overage is how much of amount lands above cap given what was already moved today.
func Overage(priorTotal, amount, cap int64) int64 {
	over := priorTotal + amount - cap
	if over <= 0 {
		return 0
	}
	if over > amount {
		return amount
	}
	return over
}

// TransferPenalty is the HP cost of moving amount on top of priorTotal today.
func TransferPenalty(priorTotal, amount, cap int64) int64 {
	return OverCapHPPenalty * Overage(priorTotal, amount, cap)
}

// RemainingAllowance is what can still be moved today without a penalty.
func RemainingAllowance(priorTotal, cap int64) int64 {
	if priorTotal >= cap {
		return 0
	}
	return cap - priorTotal
}

// DayStart is the UTC midnight that opens the transfer window containing t.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ApplyHPPenalty subtracts penalty and reports whether the user is now destroyed.
func ApplyHPPenalty(hp, penalty int64) (int64, bool) {
	next := hp - penalty
	if next <= 0 {
		return 0, true
	}
	return next, false
}
