package syncq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected")

func TestQueuePushLoad(t *testing.T) {
	q, err := New(t.TempDir())
	require.NoError(t, err)

	cmds, err := q.Load()
	require.NoError(t, err)
	assert.Empty(t, cmds)

	require.NoError(t, q.Push(Command{Method: "POST", Path: "/api/spits", IdempotencyKey: "a"}))
	require.NoError(t, q.Push(Command{Method: "POST", Path: "/api/transfers", IdempotencyKey: "b"}))
	cmds, err = q.Load()
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "b", cmds[1].IdempotencyKey)
	assert.False(t, cmds[0].QueuedAt.IsZero())
}

func TestQueueDrain(t *testing.T) {
	q, err := New(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"ok", "bad", "down", "later"} {
		require.NoError(t, q.Push(Command{Method: "POST", Path: "/api/spits", IdempotencyKey: key}))
	}

	var sent []string
	send := func(_ context.Context, c Command) error {
		sent = append(sent, c.IdempotencyKey)
		switch c.IdempotencyKey {
		case "bad":
			return errRejected
		case "down":
			return errors.New("connection refused")
		}
		return nil
	}
	permanent := func(err error) bool { return errors.Is(err, errRejected) }

	res, err := q.Drain(context.Background(), send, permanent)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, Result{Sent: 1, Dropped: 1, Left: 2}, res)
	assert.Equal(t, []string{"ok", "bad", "down"}, sent)

	left, err := q.Load()
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "down", left[0].IdempotencyKey)

	res, err = q.Drain(context.Background(), func(context.Context, Command) error { return nil }, permanent)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2}, res)
}
