// Package notify relays committed notifications to places outside the database.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"spitr/internal/game"

	"github.com/bwmarrin/discordgo"
)

const (
	colorInfo    = 0x5865F2
	colorDanger  = 0xED4245
	colorWarning = 0xFEE75C
)

// Log writes each notification as a structured log line. It is the relay used
// when no webhook is configured.
type Log struct {
	log *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{log: logger}
}

func (l *Log) Relay(ctx context.Context, n game.Notification) error {
	l.log.InfoContext(ctx, "notification",
		"id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"body", n.Body,
	)
	return nil
}

type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts notifications to a Discord channel webhook as embeds.
type Discord struct {
	exec      webhookExecutor
	webhookID string
	token     string
	types     map[string]bool
}

// NewDiscord parses a webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>. When types is non-empty only those
// notification types are posted.
func NewDiscord(webhookURL string, types ...string) (*Discord, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Client.Timeout = 5 * time.Second
	d := &Discord{exec: session, webhookID: id, token: token}
	if len(types) > 0 {
		d.types = make(map[string]bool, len(types))
		for _, t := range types {
			d.types[t] = true
		}
	}
	return d, nil
}

func (d *Discord) Relay(ctx context.Context, n game.Notification) error {
	if d.types != nil && !d.types[n.Type] {
		return nil
	}
	_, err := d.exec.WebhookExecute(d.webhookID, d.token, false, &discordgo.WebhookParams{
		Username: "spitr",
		Embeds:   []*discordgo.MessageEmbed{embedFor(n)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

func embedFor(n game.Notification) *discordgo.MessageEmbed {
	color := colorInfo
	switch n.Type {
	case "destroyed":
		color = colorDanger
	case "attack", "attack_blocked":
		color = colorWarning
	}
	embed := &discordgo.MessageEmbed{
		Title:       strings.ReplaceAll(n.Type, "_", " "),
		Description: n.Body,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: n.UserID, Inline: true},
		},
	}
	if n.SpitID != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Spit",
			Value:  fmt.Sprintf("#%d", *n.SpitID),
			Inline: true,
		})
	}
	if !n.CreatedAt.IsZero() {
		embed.Timestamp = n.CreatedAt.UTC().Format(time.RFC3339)
	}
	return embed
}

func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", errors.New("webhook url must look like https://discord.com/api/webhooks/<id>/<token>")
}

// Fanout relays to every relay in turn and joins their errors.
type Fanout []game.Relay

func (f Fanout) Relay(ctx context.Context, n game.Notification) error {
	var errs []error
	for _, r := range f {
		if err := r.Relay(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
