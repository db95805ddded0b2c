package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	cl "spitr/internal/cli"
	"spitr/internal/config"
	"spitr/internal/db"
	"spitr/internal/economy"
	"spitr/internal/syncq"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	config.LoadDotEnv()
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "spitr",
		Short:        "SPITr command line client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newSignupCmd(&apiBase),
		newLoginCmd(&apiBase),
		newLogoutCmd(),
		newSyncCmd(&apiBase),
		newMigrateCmd(),
	)
	root.AddCommand(socialCommands(&apiBase)...)
	root.AddCommand(economyCommands(&apiBase)...)
	root.AddCommand(bankCommands(&apiBase)...)
	root.AddCommand(newBotsCmd(&apiBase))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func saveSession(email, username string, session cl.Session) error {
	if session.Email == "" {
		session.Email = email
	}
	if session.Username == "" {
		session.Username = username
	}
	return cl.SaveSession(session)
}

func newSignupCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create a SPITr account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptRequired("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			username, err := promptOptional("Username (optional)")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			session, err := newClient(apiBase).Signup(ctx, email, password, username)
			if err != nil {
				return err
			}
			if strings.TrimSpace(session.AccessToken) == "" {
				printWarn("Signup created. Verify your email, then run `spitr login`.")
				return nil
			}
			if err := saveSession(email, username, cl.Session{
				AccessToken:  session.AccessToken,
				RefreshToken: session.RefreshToken,
				Email:        session.User.Email,
				UserID:       session.User.ID,
			}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Signup complete. You start with %s spits.", comma(economy.StartingSpits)))
			return nil
		},
	}
}

func newLoginCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to SPITr",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptRequired("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			session, err := newClient(apiBase).Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := saveSession(email, session.User.Username(), cl.Session{
				AccessToken:  session.AccessToken,
				RefreshToken: session.RefreshToken,
				Email:        session.User.Email,
				UserID:       session.User.ID,
			}); err != nil {
				return err
			}
			printSuccess("Login successful.")
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Logged out.")
			return nil
		},
	}
}

// call runs fn with the saved session. An expired access token is refreshed once.
func call(cmd *cobra.Command, apiBase *string, fn func(ctx context.Context, c *cl.Client, token string) (map[string]any, error)) (map[string]any, error) {
	sess, err := cl.LoadSession()
	if err != nil {
		return nil, err
	}
	client := newClient(apiBase)
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	out, err := fn(ctx, client, sess.AccessToken)
	var apiErr *cl.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || sess.RefreshToken == "" {
		return out, err
	}
	refreshed, rerr := client.Refresh(ctx, sess.RefreshToken)
	if rerr != nil {
		return nil, fmt.Errorf("session expired, run `spitr login`: %w", rerr)
	}
	sess.AccessToken, sess.RefreshToken = refreshed.AccessToken, refreshed.RefreshToken
	if err := cl.SaveSession(sess); err != nil {
		return nil, err
	}
	return fn(ctx, client, sess.AccessToken)
}

// show is call followed by a renderer.
func show(cmd *cobra.Command, apiBase *string, fn func(ctx context.Context, c *cl.Client, token string) (map[string]any, error), render func(map[string]any) error) error {
	out, err := call(cmd, apiBase, fn)
	if err != nil {
		return err
	}
	return render(out)
}

// mutate sends a write with a fresh idempotency key. When the API cannot be
// reached the same request is queued for `spitr sync`.
func mutate(cmd *cobra.Command, apiBase *string, queued syncq.Command, fn func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error), successMessage string) error {
	idem := uuid.NewString()
	out, err := call(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
		return fn(ctx, c, token, idem)
	})
	if err != nil {
		queued.IdempotencyKey = idem
		return queueOnNetworkError(err, queued)
	}
	return renderResult(out, successMessage)
}

func queueOnNetworkError(err error, queued syncq.Command) error {
	var apiErr *cl.APIError
	if errors.As(err, &apiErr) || errors.Is(err, context.Canceled) {
		return err
	}
	dir, derr := cl.BaseDir()
	if derr != nil {
		return fmt.Errorf("%w (queue unavailable: %v)", err, derr)
	}
	q, qerr := syncq.New(dir)
	if qerr == nil {
		qerr = q.Push(queued)
	}
	if qerr != nil {
		return fmt.Errorf("%w (queue failed: %v)", err, qerr)
	}
	printWarn(fmt.Sprintf("API unreachable, queued %s %s. Run `spitr sync` later.", queued.Method, queued.Path))
	return nil
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay writes queued while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			dir, err := cl.BaseDir()
			if err != nil {
				return err
			}
			q, err := syncq.New(dir)
			if err != nil {
				return err
			}
			client := newClient(apiBase)
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			res, err := q.Drain(ctx, func(ctx context.Context, c syncq.Command) error {
				_, err := client.Do(ctx, c.Method, c.Path, sess.AccessToken, c.Body, c.IdempotencyKey)
				if err != nil && cl.IsPermanent(err) {
					printError(fmt.Sprintf("Dropped %s %s: %v", c.Method, c.Path, err))
				}
				return err
			}, cl.IsPermanent)
			printInfo(fmt.Sprintf("Sync: replayed=%d dropped=%d remaining=%d", res.Sent, res.Dropped, res.Left))
			if err != nil {
				return fmt.Errorf("sync stopped: %w", err)
			}
			if res.Left == 0 {
				printSuccess("Sync complete.")
			}
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema (needs DATABASE_URL)",
	}
	databaseURL := func() (string, error) {
		url := strings.TrimSpace(os.Getenv("DATABASE_URL"))
		if url == "" {
			return "", fmt.Errorf("DATABASE_URL is required")
		}
		return url, nil
	}
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			changed, err := db.MigrateUp(url)
			if err != nil {
				return err
			}
			if !changed {
				printInfo("Schema already up to date.")
				return nil
			}
			printSuccess("Migrations applied.")
			return nil
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			steps := 1
			if len(args) == 1 {
				if steps, err = strconv.Atoi(args[0]); err != nil || steps <= 0 {
					return fmt.Errorf("invalid steps")
				}
			}
			if err := db.MigrateDown(url, steps); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Rolled back %d step(s).", steps))
			return nil
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			st, err := db.Status(url)
			if err != nil {
				return err
			}
			if !st.Applied {
				printWarn("No migrations applied.")
				return nil
			}
			msg := fmt.Sprintf("Schema version %d", st.Version)
			if st.Dirty {
				printError(msg + " (dirty)")
				return nil
			}
			printSuccess(msg)
			return nil
		},
	})
	return migrateCmd
}

func int64Arg(args []string, idx int, label string) (int64, error) {
	if len(args) > idx {
		v, err := strconv.ParseInt(strings.TrimSpace(args[idx]), 10, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid %s", strings.ToLower(label))
		}
		return v, nil
	}
	return promptInt64(label, 1)
}
