package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	cl "spitr/internal/cli"
	"spitr/internal/game"
	"spitr/internal/syncq"
	"spitr/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func bankCommands(apiBase *string) []*cobra.Command {
	return []*cobra.Command{
		newBankCmd(apiBase),
		newStocksCmd(apiBase),
		newCreditCmd(apiBase),
	}
}

func newBankCmd(apiBase *string) *cobra.Command {
	bank := &cobra.Command{
		Use:   "bank",
		Short: "Savings, CDs and rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Deposits(ctx, token)
			}, renderDeposits)
		},
	}
	bank.AddCommand(&cobra.Command{
		Use:   "rates",
		Short: "Current savings and CD rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Rates(ctx, token)
			}, resultWith(""))
		},
	})
	bank.AddCommand(&cobra.Command{
		Use:   "deposit <spits|gold> <amount>",
		Short: "Move currency into savings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency := strings.ToLower(args[0])
			amount, err := int64Arg(args, 1, "Amount")
			if err != nil {
				return err
			}
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   "/api/bank/deposit",
				Body:   map[string]any{"currency": currency, "amount": amount},
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.Deposit(ctx, token, currency, amount, idem)
			}, fmt.Sprintf("Deposited %s %s.", comma(amount), currency))
		},
	})
	bank.AddCommand(&cobra.Command{
		Use:   "withdraw <deposit-id> [amount]",
		Short: "Withdraw from savings, everything when amount is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := int64Arg(args, 0, "Deposit id")
			if err != nil {
				return err
			}
			var amount int64
			if len(args) == 2 {
				if amount, err = int64Arg(args, 1, "Amount"); err != nil {
					return err
				}
			}
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   "/api/bank/withdraw",
				Body:   map[string]any{"deposit_id": id, "amount": amount},
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.Withdraw(ctx, token, id, amount, idem)
			}, "Withdrawn.")
		},
	})
	bank.AddCommand(&cobra.Command{
		Use:   "cd <spits|gold> <amount> <days>",
		Short: "Open a certificate of deposit",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency := strings.ToLower(args[0])
			amount, err := int64Arg(args, 1, "Amount")
			if err != nil {
				return err
			}
			days, err := strconv.Atoi(strings.TrimSpace(args[2]))
			if err != nil || days <= 0 {
				return fmt.Errorf("invalid term days")
			}
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   "/api/bank/cd",
				Body:   map[string]any{"currency": currency, "amount": amount, "term_days": days},
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.OpenCD(ctx, token, currency, amount, days, idem)
			}, fmt.Sprintf("Opened a %d day CD.", days))
		},
	})
	bank.AddCommand(&cobra.Command{
		Use:   "redeem <cd-id>",
		Short: "Redeem a matured CD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := int64Arg(args, 0, "CD id")
			if err != nil {
				return err
			}
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   fmt.Sprintf("/api/bank/cd/%d/redeem", id),
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.RedeemCD(ctx, token, id, idem)
			}, "CD redeemed.")
		},
	})
	bank.AddCommand(newBankWatchCmd(apiBase))
	return bank
}

func newBankWatchCmd(apiBase *string) *cobra.Command {
	var refresh time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of deposits accruing interest",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			client := newClient(apiBase)
			fetch := func(ctx context.Context) ([]game.Deposit, error) {
				raw, err := client.Deposits(ctx, sess.AccessToken)
				if err != nil {
					return nil, err
				}
				out, err := decodeInto[depositsPayload](raw)
				return out.Deposits, err
			}
			_, err = tea.NewProgram(tui.NewBankWatch(fetch, refresh), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&refresh, "refresh", 30*time.Second, "how often to refetch from the API")
	return cmd
}

func newStocksCmd(apiBase *string) *cobra.Command {
	stocks := &cobra.Command{
		Use:     "stocks",
		Short:   "The SPITr index: quote, holdings and trading",
		Aliases: []string{"stock"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.StockQuote(ctx, token)
			}, resultWith(""))
		},
	}
	stocks.AddCommand(&cobra.Command{
		Use:   "holdings",
		Short: "Shares you hold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Holdings(ctx, token)
			}, resultWith(""))
		},
	})
	for _, side := range []string{"buy", "sell"} {
		stocks.AddCommand(&cobra.Command{
			Use:   side + " <shares>",
			Short: strings.ToUpper(side[:1]) + side[1:] + " shares at the current price",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				shares, err := int64Arg(args, 0, "Shares")
				if err != nil {
					return err
				}
				return mutate(cmd, apiBase, syncq.Command{
					Method: http.MethodPost,
					Path:   "/api/stocks/" + side,
					Body:   map[string]any{"shares": shares},
				}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
					return c.Trade(ctx, token, side, shares, idem)
				}, "")
			},
		})
	}
	return stocks
}

func newCreditCmd(apiBase *string) *cobra.Command {
	credit := &cobra.Command{
		Use:   "credit",
		Short: "Your credit card",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.CreditCard(ctx, token)
			}, resultWith(""))
		},
	}
	ops := []struct{ name, short string }{
		{"charge", "Borrow spits against your limit"},
		{"pay", "Pay down the card balance"},
	}
	for _, op := range ops {
		credit.AddCommand(&cobra.Command{
			Use:   op.name + " <amount>",
			Short: op.short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := int64Arg(args, 0, "Amount")
				if err != nil {
					return err
				}
				return mutate(cmd, apiBase, syncq.Command{
					Method: http.MethodPost,
					Path:   "/api/credit/" + op.name,
					Body:   map[string]any{"amount": amount},
				}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
					return c.Card(ctx, token, op.name, amount, idem)
				}, "")
			},
		})
	}
	return credit
}
