package game

import (
	"errors"
	"strings"
	"testing"
	"time"

	"spitr/internal/economy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	for _, name := range []string{"alice", "bob_99", "x_y_z"} {
		require.NoError(t, ValidateUsername(name), name)
	}
	for _, name := range []string{"ab", "Alice", "has space", strings.Repeat("a", 25), "superadmin", "spitr_fan"} {
		assert.ErrorIs(t, ValidateUsername(name), ErrInvalidInput, name)
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Alice.Smith", "alice_smith"},
		{"  ", "spitter"},
		{"jo", "spitter_jo"},
		{"__x__", "spitter_x"},
		{strings.Repeat("k", 40), strings.Repeat("k", usernameMaxLength)},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, sanitizeUsername(tc.in), tc.in)
	}
	assert.Equal(t, "carol", usernameFromEmail("Carol@example.com"))
	assert.Equal(t, "spitter", usernameFromEmail("@nowhere"))
}

func TestValidateMessage(t *testing.T) {
	require.NoError(t, ValidateMessage("hey"))
	assert.ErrorIs(t, ValidateMessage(" \n "), ErrInvalidInput)
	assert.ErrorIs(t, ValidateMessage(strings.Repeat("m", MessageMaxLength+1)), ErrInvalidInput)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, clampLimit(0))
	assert.Equal(t, 50, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, 100, clampLimit(1000))
}

func TestInvalidKeepsBothSentinels(t *testing.T) {
	err := invalid(economy.ErrUnknownItem)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, economy.ErrUnknownItem)

	_, err = parseCurrency("doubloons")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, errors.Is(err, economy.ErrUnknownCurrency))

	assert.ErrorIs(t, requirePositive("amount", 0), ErrInvalidInput)
	require.NoError(t, requirePositive("amount", 1))
}

type seqRand struct{ n int }

func (r *seqRand) Float64() float64 { r.n++; return 0.5 }
func (r *seqRand) Intn(int) int     { r.n++; return 0 }

func TestLockedRandIsSafeForConcurrentUse(t *testing.T) {
	src := &seqRand{}
	l := &lockedRand{r: src}
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				l.Float64()
				l.Intn(3)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(t, 8*100*2, src.n)
}

func TestDepositView(t *testing.T) {
	opened := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	savings := depositRow{ID: 1, Kind: depositSavings, Currency: economy.CurrencySpits, Principal: 1000, Rate: 0.01, DepositedAt: opened}
	v := savings.view(opened.Add(24 * time.Hour))
	assert.Equal(t, int64(1010), v.Value)
	assert.Nil(t, v.MaturesAt)

	term := 7
	cd := depositRow{ID: 2, Kind: depositCD, Currency: economy.CurrencyGold, Principal: 100, Rate: 0.01, DepositedAt: opened, TermDays: &term}
	v = cd.view(opened.Add(24 * time.Hour))
	require.NotNil(t, v.MaturesAt)
	assert.Equal(t, opened.Add(7*24*time.Hour), *v.MaturesAt)
	assert.False(t, v.Matured)
	assert.True(t, cd.view(opened.Add(8*24*time.Hour)).Matured)
}

func TestCreditView(t *testing.T) {
	now := time.Now()
	card := creditView(100, 1, now, 42)
	assert.Equal(t, int64(500), card.Limit)
	assert.Equal(t, int64(400), card.Available)
	assert.Equal(t, economy.TierGood, card.Tier)
	assert.InDelta(t, 0.2, card.Utilization, 1e-9)
	assert.Equal(t, int64(0), creditView(900, 1, now, 0).Available)
}
