// Package tui holds the terminal views of the CLI.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"spitr/internal/economy"
	"spitr/internal/game"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FetchDeposits loads the user's open deposits from the API.
type FetchDeposits func(ctx context.Context) ([]game.Deposit, error)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	totalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tableBorder = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

type tickMsg time.Time

type depositsMsg struct {
	deposits []game.Deposit
	err      error
}

// BankWatch re-values deposits locally every tick with the same interest rules the
// server uses, and refetches them from the API every refresh interval.
type BankWatch struct {
	fetch   FetchDeposits
	now     func() time.Time
	refresh time.Duration

	deposits    []game.Deposit
	lastFetch   time.Time
	err         error
	table       table.Model
	width       int
	initialized bool
}

func NewBankWatch(fetch FetchDeposits, refresh time.Duration) *BankWatch {
	if refresh <= 0 {
		refresh = 30 * time.Second
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "KIND", Width: 8},
			{Title: "CUR", Width: 6},
			{Title: "PRINCIPAL", Width: 11},
			{Title: "RATE", Width: 8},
			{Title: "VALUE", Width: 11},
			{Title: "EARNED", Width: 9},
			{Title: "MATURES", Width: 17},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	return &BankWatch{fetch: fetch, now: time.Now, refresh: refresh, table: t}
}

func (m *BankWatch) Init() tea.Cmd {
	return tea.Batch(m.load(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *BankWatch) load() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		deposits, err := fetch(ctx)
		return depositsMsg{deposits: deposits, err: err}
	}
}

func (m *BankWatch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(max(msg.Height-8, 3))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.load()
		}
	case depositsMsg:
		m.lastFetch = m.now()
		m.err = msg.err
		if msg.err == nil {
			m.deposits = msg.deposits
			m.initialized = true
		}
		m.table.SetRows(m.rows(m.now()))
		return m, nil
	case tickMsg:
		m.table.SetRows(m.rows(m.now()))
		cmds := []tea.Cmd{tick()}
		if m.now().Sub(m.lastFetch) >= m.refresh {
			m.lastFetch = m.now()
			cmds = append(cmds, m.load())
		}
		return m, tea.Batch(cmds...)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *BankWatch) View() string {
	now := m.now()
	out := titleStyle.Render("SPITr bank") + "  " + helpStyle.Render(now.Format("15:04:05")) + "\n\n"
	if !m.initialized && m.err == nil {
		return out + "loading deposits...\n"
	}
	if len(m.deposits) == 0 {
		out += "No open deposits. Try `spitr bank deposit`.\n"
	} else {
		out += tableBorder.Render(m.table.View()) + "\n"
		totals := Totals(m.deposits, now)
		out += totalStyle.Render(fmt.Sprintf("total  %d spits  %d gold", totals[economy.CurrencySpits], totals[economy.CurrencyGold])) + "\n"
	}
	if m.err != nil {
		out += errStyle.Render("refresh failed: "+m.err.Error()) + "\n"
	}
	return out + helpStyle.Render("r refresh  q quit") + "\n"
}

func (m *BankWatch) rows(now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(m.deposits))
	for _, d := range m.deposits {
		d = Revalue(d, now)
		matures := "-"
		if d.MaturesAt != nil {
			matures = d.MaturesAt.Local().Format("Jan 02 15:04")
			if d.Matured {
				matures = "matured"
			}
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(d.ID, 10),
			d.Kind,
			string(d.Currency),
			strconv.FormatInt(d.Principal, 10),
			fmt.Sprintf("%.2f%%", d.Rate*100),
			strconv.FormatInt(d.Value, 10),
			fmt.Sprintf("%+d", d.Value-(d.Principal-d.Withdrawn)),
			matures,
		})
	}
	return rows
}

// Revalue recomputes a deposit's value at now. CDs stop growing at maturity.
func Revalue(d game.Deposit, now time.Time) game.Deposit {
	if d.TermDays > 0 {
		d.Value = economy.CDValue(d.Principal, d.Rate, d.DepositedAt, d.TermDays, now)
		d.Matured = economy.CDMatured(d.DepositedAt, d.TermDays, now)
		return d
	}
	d.Value = economy.DepositValue(d.Principal, d.Rate, d.DepositedAt, d.Withdrawn, now)
	return d
}

func Totals(deposits []game.Deposit, now time.Time) map[economy.Currency]int64 {
	out := map[economy.Currency]int64{}
	for _, d := range deposits {
		out[d.Currency] += Revalue(d, now).Value
	}
	return out
}
