package main

import (
	"context"
	"fmt"
	"strings"

	"spitr/internal/auth"
	cl "spitr/internal/cli"
	"spitr/internal/economy"
	"spitr/internal/game"

	"github.com/spf13/cobra"
)

// botConfigFlags holds the --strategy style flags shared by create and config.
// Only flags the user set are applied over the base config.
type botConfigFlags struct {
	strategy    string
	reserve     int64
	maxCDs      int
	termDays    int
	consolidate bool
}

func (f *botConfigFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "conservative, balanced or aggressive")
	cmd.Flags().Int64Var(&f.reserve, "reserve", 0, "spits the bot never locks away")
	cmd.Flags().IntVar(&f.maxCDs, "max-cds", 0, "max open CDs")
	cmd.Flags().IntVar(&f.termDays, "term", 0, "CD term in days")
	cmd.Flags().BoolVar(&f.consolidate, "consolidate", false, "sweep surplus to the owner")
}

func (f *botConfigFlags) apply(cmd *cobra.Command, base economy.BotConfig) (map[string]any, error) {
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		s, err := economy.ParseStrategy(f.strategy)
		if err != nil {
			return nil, err
		}
		base.Strategy = s
	}
	if flags.Changed("reserve") {
		base.SpitReserve = f.reserve
	}
	if flags.Changed("max-cds") {
		base.MaxOpenCDs = f.maxCDs
	}
	if flags.Changed("term") {
		base.CDTermDays = f.termDays
	}
	if flags.Changed("consolidate") {
		base.AutoConsolidate = f.consolidate
	}
	return decodeInto[map[string]any](base)
}

type botStatusPayload struct {
	Status game.BotStatus `json:"status"`
}

type botTokenPayload struct {
	Token auth.IssuedBotToken `json:"token"`
}

func newBotsCmd(apiBase *string) *cobra.Command {
	bots := &cobra.Command{
		Use:     "bots",
		Short:   "Bot accounts you own",
		Aliases: []string{"bot"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.ListBots(ctx, token)
			}, renderBots)
		},
	}

	var createFlags botConfigFlags
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a bot account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			cfg, err := createFlags.apply(cmd, economy.DefaultBotConfig())
			if err != nil {
				return err
			}
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.CreateBot(ctx, token, name, cfg)
			}, resultWith("Bot created. Issue a token with `spitr bots token <id>`."))
		},
	}
	createFlags.bind(create)

	var configFlags botConfigFlags
	config := &cobra.Command{
		Use:   "config <bot-id>",
		Short: "Change a bot's strategy settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			botID := args[0]
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				raw, err := c.OwnedBotStatus(ctx, token, botID)
				if err != nil {
					return nil, err
				}
				current, err := decodeInto[botStatusPayload](raw)
				if err != nil {
					return nil, err
				}
				cfg, err := configFlags.apply(cmd, current.Status.Bot.Config)
				if err != nil {
					return nil, err
				}
				return c.UpdateBotConfig(ctx, token, botID, cfg)
			}, resultWith("Bot config updated."))
		},
	}
	configFlags.bind(config)

	bots.AddCommand(create, config)
	bots.AddCommand(&cobra.Command{
		Use:   "status <bot-id>",
		Short: "Balances, deposits and pending advice for a bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.OwnedBotStatus(ctx, token, args[0])
			}, renderBotStatus)
		},
	})
	bots.AddCommand(&cobra.Command{
		Use:   "token <bot-id>",
		Short: "Issue an API token for a bot runner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.IssueBotToken(ctx, token, args[0])
			}, func(raw map[string]any) error {
				out, err := decodeInto[botTokenPayload](raw)
				if err != nil {
					return err
				}
				printSuccess("Bot token issued. It is shown once.")
				fmt.Println(out.Token.Token)
				faint.Printf("expires %s\n", out.Token.ExpiresAt.Local().Format("2006-01-02 15:04"))
				return nil
			})
		},
	})
	bots.AddCommand(&cobra.Command{
		Use:   "revoke <bot-id>",
		Short: "Revoke every token of a bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.RevokeBotTokens(ctx, token, args[0])
			}, resultWith("Tokens revoked."))
		},
	})
	return bots
}

func renderBotStatus(raw map[string]any) error {
	out, err := decodeInto[botStatusPayload](raw)
	if err != nil {
		return err
	}
	st := out.Status
	accent.Printf("\n@%s", st.Bot.Username)
	faint.Printf("  %s\n", st.Bot.Config.Strategy)
	fmt.Printf("spits: %s  gold: %s  deposits: %d\n", comma(st.Balances.Spits), comma(st.Balances.Gold), len(st.Deposits))
	for cur, v := range st.SentToday {
		faint.Printf("sent today (%s): %s\n", cur, comma(v))
	}
	if len(st.Advice) == 0 {
		printInfo("Nothing to do.")
		return nil
	}
	for _, a := range st.Advice {
		fmt.Printf("  %d. %-12s %s\n", a.Priority, a.Kind, a.Reason)
	}
	fmt.Println()
	return nil
}
