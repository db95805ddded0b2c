package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	cl "spitr/internal/cli"
	"spitr/internal/syncq"

	"github.com/spf13/cobra"
)

func socialCommands(apiBase *string) []*cobra.Command {
	return []*cobra.Command{
		newMeCmd(apiBase),
		newProfileCmd(apiBase),
		newBalancesCmd(apiBase),
		newPostCmd(apiBase),
		newFeedCmd(apiBase),
		newSpitCmd(apiBase),
		newFollowCmd(apiBase),
		newDMCmd(apiBase),
		newNotificationsCmd(apiBase),
	}
}

func resultWith(msg string) func(map[string]any) error {
	return func(out map[string]any) error { return renderResult(out, msg) }
}

func newMeCmd(apiBase *string) *cobra.Command {
	var name, bio string
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show or edit your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("name") || cmd.Flags().Changed("bio") {
				fields := map[string]any{"display_name": name, "bio": bio}
				return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
					return c.UpdateProfile(ctx, token, fields)
				}, resultWith("Profile updated."))
			}
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Me(ctx, token)
			}, renderProfile)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&bio, "bio", "", "bio")
	return cmd
}

func newProfileCmd(apiBase *string) *cobra.Command {
	var spits bool
	var limit int
	cmd := &cobra.Command{
		Use:   "profile <user>",
		Short: "Show someone's profile and spits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := strings.TrimPrefix(args[0], "@")
			if err := show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Profile(ctx, token, user)
			}, renderProfile); err != nil {
				return err
			}
			if !spits {
				return nil
			}
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.UserSpits(ctx, token, user, 0, limit)
			}, renderSpits)
		},
	}
	cmd.Flags().BoolVar(&spits, "spits", false, "also list their spits")
	cmd.Flags().IntVar(&limit, "limit", 20, "max spits")
	return cmd
}

func newBalancesCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:     "balances",
		Short:   "Show spits and gold",
		Aliases: []string{"bal"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Balances(ctx, token)
			}, renderBalances)
		},
	}
}

func newPostCmd(apiBase *string) *cobra.Command {
	var replyTo int64
	cmd := &cobra.Command{
		Use:   "post <text>",
		Short: "Post a spit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")
			body := map[string]any{"content": content}
			if replyTo > 0 {
				body["reply_to_id"] = replyTo
			}
			return mutate(cmd, apiBase, syncq.Command{Method: http.MethodPost, Path: "/api/spits", Body: body},
				func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
					return c.Post(ctx, token, content, replyTo, idem)
				}, "Spit posted.")
		},
	}
	cmd.Flags().Int64Var(&replyTo, "reply", 0, "spit id to reply to")
	return cmd
}

func newFeedCmd(apiBase *string) *cobra.Command {
	var before int64
	var limit int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show spits from you and the people you follow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Feed(ctx, token, before, limit)
			}, renderSpits)
		},
	}
	cmd.Flags().Int64Var(&before, "before", 0, "only spits older than this id")
	cmd.Flags().IntVar(&limit, "limit", 20, "max spits")
	return cmd
}

func newSpitCmd(apiBase *string) *cobra.Command {
	spit := &cobra.Command{
		Use:   "spit",
		Short: "Act on a single spit",
	}
	spit.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a spit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := int64Arg(args, 0, "Spit id")
			if err != nil {
				return err
			}
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.GetSpit(ctx, token, id)
			}, resultWith(""))
		},
	})
	spit.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your spits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := int64Arg(args, 0, "Spit id")
			if err != nil {
				return err
			}
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.DeleteSpit(ctx, token, id)
			}, resultWith("Spit deleted."))
		},
	})
	for _, action := range []string{"like", "respit"} {
		var undo bool
		sub := &cobra.Command{
			Use:   action + " <id>",
			Short: strings.ToUpper(action[:1]) + action[1:] + " a spit",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := int64Arg(args, 0, "Spit id")
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("Added %s on #%d.", action, id)
				if undo {
					msg = fmt.Sprintf("Removed %s on #%d.", action, id)
				}
				return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
					return c.SpitAction(ctx, token, id, action, undo)
				}, resultWith(msg))
			},
		}
		sub.Flags().BoolVar(&undo, "undo", false, "remove instead of add")
		spit.AddCommand(sub)
	}
	return spit
}

func newFollowCmd(apiBase *string) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "follow <user>",
		Short: "Follow or unfollow someone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := strings.TrimPrefix(args[0], "@")
			if undo {
				return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
					return c.Unfollow(ctx, token, user)
				}, resultWith("Unfollowed @"+user+"."))
			}
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Follow(ctx, token, user)
			}, resultWith("Following @"+user+"."))
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "unfollow")
	return cmd
}

func newDMCmd(apiBase *string) *cobra.Command {
	dm := &cobra.Command{
		Use:     "dm",
		Short:   "Direct messages",
		Aliases: []string{"messages"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Conversations(ctx, token)
			}, resultWith(""))
		},
	}
	dm.AddCommand(&cobra.Command{
		Use:   "send <user> <text>",
		Short: "Send a direct message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := strings.TrimPrefix(args[0], "@")
			content := strings.Join(args[1:], " ")
			return mutate(cmd, apiBase, syncq.Command{
				Method: http.MethodPost,
				Path:   "/api/messages",
				Body:   map[string]any{"to": to, "content": content},
			}, func(ctx context.Context, c *cl.Client, token, idem string) (map[string]any, error) {
				return c.SendMessage(ctx, token, to, content, idem)
			}, "Message sent.")
		},
	})
	dm.AddCommand(&cobra.Command{
		Use:   "read <conversation-id>",
		Short: "Show a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := int64Arg(args, 0, "Conversation id")
			if err != nil {
				return err
			}
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Messages(ctx, token, id, 0, 50)
			}, resultWith(""))
		},
	})
	return dm
}

func newNotificationsCmd(apiBase *string) *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:     "notifications",
		Short:   "Show notifications",
		Aliases: []string{"notifs"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.Notifications(ctx, token, unread)
			}, renderNotifications)
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread")
	cmd.AddCommand(&cobra.Command{
		Use:   "read [id...]",
		Short: "Mark notifications read (all when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, apiBase, func(ctx context.Context, c *cl.Client, token string) (map[string]any, error) {
				return c.MarkRead(ctx, token, args)
			}, resultWith("Notifications marked read."))
		},
	})
	return cmd
}
