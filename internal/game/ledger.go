package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

type LedgerRow struct {
	economy.LedgerEntry
	ReferenceID string    `json:"reference_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ledger lists the most recent entries for one currency, newest first.
func (s *Service) Ledger(ctx context.Context, userID, currency string, limit int) ([]LedgerRow, error) {
	c, err := parseCurrency(currency)
	if err != nil {
		return nil, err
	}
	_, table := ledgerTable(c)
	rows, err := s.db.Query(ctx, `
		SELECT id, type, amount, balance_after, COALESCE(reference_id, ''), created_at
		FROM `+table+`
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LedgerRow, 0, 32)
	for rows.Next() {
		var r LedgerRow
		var kind string
		if err := rows.Scan(&r.ID, &kind, &r.Amount, &r.BalanceAfter, &r.ReferenceID, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Type = economy.TxType(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// VerifyLedger replays a user's ledger for one currency and checks that it chains
// and that the final balance_after matches the live balance.
func (s *Service) VerifyLedger(ctx context.Context, userID, currency string) (LedgerReport, error) {
	c, err := parseCurrency(currency)
	if err != nil {
		return LedgerReport{}, err
	}
	out := LedgerReport{Currency: c}
	_, table := ledgerTable(c)

	// One snapshot for the balance and the entries.
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)
	out.Balance, err = balanceTx(ctx, tx, userID, c)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return out, err
	}
	rows, err := tx.Query(ctx, `
		SELECT id, type, amount, balance_after FROM `+table+` WHERE user_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		return out, err
	}
	entries := make([]economy.LedgerEntry, 0, 64)
	for rows.Next() {
		var e economy.LedgerEntry
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Amount, &e.BalanceAfter); err != nil {
			rows.Close()
			return out, err
		}
		e.Type = economy.TxType(kind)
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return out, err
	}

	out.Entries = len(entries)
	out.Break = economy.VerifyLedgerChain(entries)
	if len(entries) > 0 {
		out.LastBalanceAfter = entries[len(entries)-1].BalanceAfter
	}
	out.OK = out.Break == nil && out.LastBalanceAfter == out.Balance
	return out, nil
}
