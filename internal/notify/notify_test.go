package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"spitr/internal/game"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	calls []*discordgo.WebhookParams
	id    string
	token string
	err   error
}

func (f *fakeExecutor) WebhookExecute(webhookID, token string, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.id, f.token = webhookID, token
	f.calls = append(f.calls, data)
	return nil, f.err
}

func TestParseWebhookURL(t *testing.T) {
	id, token, err := parseWebhookURL("https://discord.com/api/webhooks/123/abc-def")
	require.NoError(t, err)
	assert.Equal(t, "123", id)
	assert.Equal(t, "abc-def", token)

	_, _, err = parseWebhookURL("https://discord.com/api/channels/123")
	assert.Error(t, err)
	_, _, err = parseWebhookURL("https://discord.com/api/webhooks/123")
	assert.Error(t, err)
}

func TestDiscordRelay(t *testing.T) {
	d, err := NewDiscord("https://discord.com/api/webhooks/42/tok", "destroyed", "attack")
	require.NoError(t, err)
	exec := &fakeExecutor{}
	d.exec = exec

	spit := int64(9)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, d.Relay(context.Background(), game.Notification{
		UserID: "u1", Type: "destroyed", Body: "@bob destroyed your spit with Gun", SpitID: &spit, CreatedAt: at,
	}))
	require.NoError(t, d.Relay(context.Background(), game.Notification{UserID: "u1", Type: "like", Body: "liked"}))

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "42", exec.id)
	assert.Equal(t, "tok", exec.token)
	embed := exec.calls[0].Embeds[0]
	assert.Equal(t, "destroyed", embed.Title)
	assert.Equal(t, colorDanger, embed.Color)
	assert.Equal(t, "2026-03-01T12:00:00Z", embed.Timestamp)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "#9", embed.Fields[1].Value)
}

func TestDiscordRelayError(t *testing.T) {
	d, err := NewDiscord("https://discord.com/api/webhooks/42/tok")
	require.NoError(t, err)
	d.exec = &fakeExecutor{err: errors.New("429")}
	err = d.Relay(context.Background(), game.Notification{Type: "attack_blocked"})
	assert.ErrorContains(t, err, "discord webhook")
}

func TestLogAndFanout(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))
	d, err := NewDiscord("https://discord.com/api/webhooks/1/t")
	require.NoError(t, err)
	d.exec = &fakeExecutor{err: errors.New("down")}

	err = Fanout{l, d}.Relay(context.Background(), game.Notification{ID: "n1", UserID: "u1", Type: "transfer", Body: "sent you 5 spits"})
	assert.ErrorContains(t, err, "down")
	assert.Contains(t, buf.String(), `"user_id":"u1"`)
	assert.Contains(t, buf.String(), `"type":"transfer"`)
}
