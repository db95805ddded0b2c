// Package syncq keeps mutating CLI commands that could not reach the API so they
// can be replayed later with their original idempotency keys.
package syncq

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

type Command struct {
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Body           map[string]any `json:"body,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
	QueuedAt       time.Time      `json:"queued_at"`
}

type Queue struct {
	path string
}

// New stores the queue as queue.json inside dir.
func New(dir string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Queue{path: filepath.Join(dir, "queue.json")}, nil
}

func (q *Queue) Load() ([]Command, error) {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Queue) Save(commands []Command) error {
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}

func (q *Queue) Push(cmd Command) error {
	commands, err := q.Load()
	if err != nil {
		return err
	}
	if cmd.QueuedAt.IsZero() {
		cmd.QueuedAt = time.Now().UTC()
	}
	commands = append(commands, cmd)
	return q.Save(commands)
}

// Result counts what a Drain did.
type Result struct {
	Sent    int
	Dropped int
	Left    int
}

// Drain replays queued commands in order. A command is removed once send succeeds
// or fails permanently; the first transient failure stops the drain and keeps the
// rest queued.
func (q *Queue) Drain(ctx context.Context, send func(context.Context, Command) error, permanent func(error) bool) (Result, error) {
	var res Result
	commands, err := q.Load()
	if err != nil {
		return res, err
	}
	i := 0
	var sendErr error
	for ; i < len(commands); i++ {
		if err := send(ctx, commands[i]); err != nil {
			if permanent != nil && permanent(err) {
				res.Dropped++
				continue
			}
			sendErr = err
			break
		}
		res.Sent++
	}
	rest := commands[i:]
	res.Left = len(rest)
	if err := q.Save(rest); err != nil {
		return res, err
	}
	return res, sendErr
}
