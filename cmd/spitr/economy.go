package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	cl "spitr/internal/cli"
	"spitr/internal/economy"
	"spitr/internal/syncq"

	"github.com/spf13/cobra"
)

func economyCommands(apiBase *string) []*cobra.Command {
	return []*cobra.Command{
		newAttackCmd(apiBase),
		newShopCmd(apiBase),
		newInventoryCmd(apiBase),
		newConvertCmd(apiBase),
		newChestCmd(apiBase),
		newScratchCmd(apiBase),
		newTransferCmd(apiBase),
		newLedgerCmd(apiBase),
	}
}

func newAttackCmd(apiBase *string) *cobra.Command {
	var user string
	var spitID int64
	cmd := &cobra.Command{
		Use:   "attack <weapon>",
		Short: "Attack a user (--user) or a spit (--spit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weapon := strings.ToLower(strings.TrimSpace(args[0]))
			user = strings.TrimPrefix(user, "@")
			if (user == "") == (spitID == 0) {
				return fmt.Errorf("pass exactly one of --user or --spit")
			}
			body := map[string]any{"weapon": weapon}
			if spitID > 0 {
				body["target_spit_id"] = spitID
			} else {
				body["target_user"] = user
			}
			return mutate(cmd, apiBase, syncq.Command{Method: http.MethodPost, Path: "/api/attack", Body: body},
				func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
					return c.Attack(ctx, token, weapon, user, spitID, idem)
				}, "")
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "target username or id")
	cmd.Flags().Int64Var(&spitID, "spit", 0, "target spit id")
	cmd.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Recent attacks by or against you",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.AttackLog(ctx, token, 20)
			}, resultWith(""))
		},
	})
	return cmd
}

func newShopCmd(apiBase *string) *cobra.Command {
	shop := &cobra.Command{
		Use:   "shop",
		Short: "Item catalog, buying and using items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Shop(ctx, token)
			}, renderCatalog)
		},
	}
	shop.AddCommand(&cobra.Command{
		Use:   "buy <item> [quantity]",
		Short: "Buy items with gold",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item := strings.ToLower(args[0])
			qty := int64(1)
			if len(args) == 2 {
				var err error
				if qty, err = int64Arg(args, 1, "Quantity"); err != nil {
					return err
				}
			}
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   "/api/shop/buy",
				Body:   map[string]any{"item": item, "quantity": qty},
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.BuyItem(ctx, token, item, qty, idem)
			}, fmt.Sprintf("Bought %d x %s.", qty, item))
		},
	})
	shop.AddCommand(&cobra.Command{
		Use:   "use <item>",
		Short: "Use a potion or buff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item := strings.ToLower(args[0])
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   "/api/items/use",
				Body:   map[string]any{"item": item},
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.UseItem(ctx, token, item, idem)
			}, "Used "+item+".")
		},
	})
	return shop
}

func newInventoryCmd(apiBase *string) *cobra.Command {
	inv := &cobra.Command{
		Use:     "inventory",
		Short:   "Items you own",
		Aliases: []string{"inv"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Inventory(ctx, token)
			}, renderInventory)
		},
	}
	inv.AddCommand(&cobra.Command{
		Use:   "buffs",
		Short: "Active buffs and their charges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Buffs(ctx, token)
			}, resultWith(""))
		},
	})
	return inv
}

func newConvertCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <spits|gold> <amount>",
		Short: "Convert between spits and gold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from := strings.ToLower(args[0])
			amount, err := int64Arg(args, 1, "Amount")
			if err != nil {
				return err
			}
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   "/api/convert",
				Body:   map[string]any{"from": from, "amount": amount},
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.Convert(ctx, token, from, amount, idem)
			}, "Converted.")
		},
	}
}

func newChestCmd(apiBase *string) *cobra.Command {
	chest := &cobra.Command{
		Use:     "chest",
		Short:   "Your chests",
		Aliases: []string{"chests"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Chests(ctx, token)
			}, resultWith(""))
		},
	}
	chest.AddCommand(&cobra.Command{
		Use:   "buy <common|rare|legendary>",
		Short: "Buy a chest with gold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rarity := strings.ToLower(args[0])
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   "/api/chests",
				Body:   map[string]any{"rarity": rarity},
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.BuyChest(ctx, token, rarity, idem)
			}, "Chest bought.")
		},
	})
	chest.AddCommand(&cobra.Command{
		Use:   "open <id>",
		Short: "Open a chest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := int64Arg(args, 0, "Chest id")
			if err != nil {
				return err
			}
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.OpenChest(ctx, token, id)
			}, resultWith("Chest opened."))
		},
	})
	return chest
}

func newScratchCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scratch",
		Short: fmt.Sprintf("Buy a scratch ticket for %d spits", economy.ScratchTicketPrice),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, apiBase, syncq.Command{Method: http.MethodPost, Path: "/api/lottery/scratch"},
				func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
					return c.Scratch(ctx, token, idem)
				}, "")
		},
	}
}

func newTransferCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <user> <spits|gold> <amount>",
		Short: "Send currency to another user",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := strings.TrimPrefix(args[0], "@")
			currency := strings.ToLower(args[1])
			amount, err := int64Arg(args, 2, "Amount")
			if err != nil {
				return err
			}
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   "/api/transfers",
				Body:   map[string]any{"to": to, "currency": currency, "amount": amount},
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.Transfer(ctx, token, to, currency, amount, idem)
			}, fmt.Sprintf("Sent %s %s to @%s.", strconv.FormatInt(amount, 10), currency, to))
		},
	}
}

func newLedgerCmd(apiBase *string) *cobra.Command {
	var currency string
	var limit int
	ledger := &cobra.Command{
		Use:   "ledger",
		Short: "Your transaction history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Ledger(ctx, token, currency, limit)
			}, renderLedger)
		},
	}
	ledger.PersistentFlags().StringVar(&currency, "currency", "spits", "spits or gold")
	ledger.Flags().IntVar(&limit, "limit", 30, "max entries")
	ledger.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check that the ledger chain matches your balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := call(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.VerifyLedger(ctx, token, currency)
			})
			if err != nil {
				return err
			}
			if report, ok := out["report"].(map[string]any); ok && report["ok"] == true {
				printSuccess("Ledger verified.")
				return nil
			}
			printError("Ledger mismatch.")
			return renderResult(out, "")
		},
	})
	return ledger
}
