package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"spitr/internal/economy"
	"spitr/internal/game"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleDeposits() []game.Deposit {
	return []game.Deposit{
		{ID: 1, Kind: "savings", Currency: economy.CurrencySpits, Principal: 1000, Rate: 0.05, DepositedAt: start},
		{ID: 2, Kind: "cd", Currency: economy.CurrencyGold, Principal: 100, Rate: 0.1, DepositedAt: start, TermDays: 7},
	}
}

func TestRevalue(t *testing.T) {
	d := sampleDeposits()
	later := start.Add(30 * 24 * time.Hour)

	savings := Revalue(d[0], later)
	assert.Equal(t, economy.DepositValue(1000, 0.05, start, 0, later), savings.Value)
	assert.False(t, savings.Matured)

	cd := Revalue(d[1], later)
	assert.True(t, cd.Matured)
	assert.Equal(t, economy.CDValue(100, 0.1, start, 7, start.Add(7*24*time.Hour)), cd.Value)

	early := Revalue(d[1], start.Add(24*time.Hour))
	assert.False(t, early.Matured)
	assert.LessOrEqual(t, early.Value, cd.Value)
}

func TestTotals(t *testing.T) {
	now := start.Add(10 * 24 * time.Hour)
	totals := Totals(sampleDeposits(), now)
	assert.Equal(t, Revalue(sampleDeposits()[0], now).Value, totals[economy.CurrencySpits])
	assert.Equal(t, Revalue(sampleDeposits()[1], now).Value, totals[economy.CurrencyGold])
}

func TestBankWatchUpdate(t *testing.T) {
	fetches := 0
	m := NewBankWatch(func(context.Context) ([]game.Deposit, error) {
		fetches++
		return sampleDeposits(), nil
	}, time.Minute)
	now := start.Add(time.Hour)
	m.now = func() time.Time { return now }

	assert.Contains(t, m.View(), "loading deposits")

	msg := m.load()()
	require.Equal(t, 1, fetches)
	_, _ = m.Update(msg)
	assert.Len(t, m.table.Rows(), 2)
	assert.Contains(t, m.View(), "total")

	_, cmd := m.Update(tickMsg(now))
	assert.NotNil(t, cmd)

	_, _ = m.Update(depositsMsg{err: errors.New("api down")})
	assert.Contains(t, m.View(), "refresh failed: api down")
	assert.Len(t, m.table.Rows(), 2)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBankWatchEmpty(t *testing.T) {
	m := NewBankWatch(func(context.Context) ([]game.Deposit, error) { return nil, nil }, 0)
	_, _ = m.Update(m.load()())
	assert.Contains(t, m.View(), "No open deposits")
}
