package game

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

type TransferInput struct {
	FromID string
	// To is a user id or username.
	To             string
	Currency       string
	Amount         int64
	IdempotencyKey string
}

// Transfer moves a balance between users. Going over the daily cap never blocks
// the transfer; each side loses HP for the part of the amount above its own cap.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (TransferResult, error) {
	var out TransferResult
	c, err := parseCurrency(in.Currency)
	if err != nil {
		return out, err
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return out, err
	}
	var notes []Notification
	err = s.serializable(ctx, func(tx pgx.Tx) error {
		notes = notes[:0]
		if err := claimIdempotency(ctx, tx, in.FromID, in.IdempotencyKey, "transfer"); err != nil {
			return err
		}
		toID, err := resolveUserIDTx(ctx, tx, in.To)
		if err != nil {
			return err
		}
		if toID == in.FromID {
			return fmt.Errorf("%w: cannot transfer to yourself", ErrInvalidInput)
		}

		// Lock in id order so two opposite transfers cannot deadlock.
		first, second := in.FromID, toID
		if second < first {
			first, second = second, first
		}
		locked := map[string]userRow{}
		for _, id := range []string{first, second} {
			u, err := lockUserTx(ctx, tx, id)
			if err != nil {
				return err
			}
			locked[id] = u
		}
		sender, receiver := locked[in.FromID], locked[toID]
		if sender.Destroyed {
			return ErrDestroyed
		}

		now := s.now()
		dayStart := economy.DayStart(now)
		sent, err := transferTotalTx(ctx, tx, "from_user_id", sender.ID, c, dayStart)
		if err != nil {
			return err
		}
		received, err := transferTotalTx(ctx, tx, "to_user_id", receiver.ID, c, dayStart)
		if err != nil {
			return err
		}
		limit := economy.DailyTransferCap(c)
		senderPenalty := economy.TransferPenalty(sent, in.Amount, limit)
		receiverPenalty := economy.TransferPenalty(received, in.Amount, limit)
		if receiver.Destroyed {
			// A destroyed account has no HP left to lose.
			receiverPenalty = 0
		}

		var transferID int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO transfers (from_user_id, to_user_id, currency, amount, sender_penalty_hp, receiver_penalty_hp, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, sender.ID, receiver.ID, string(c), in.Amount, senderPenalty, receiverPenalty, now).Scan(&transferID); err != nil {
			return err
		}
		ref := strconv.FormatInt(transferID, 10)
		senderBalance, err := adjustBalanceTx(ctx, tx, sender.ID, c, -in.Amount, economy.TxTransferOut, ref)
		if err != nil {
			return err
		}
		if _, err := adjustBalanceTx(ctx, tx, receiver.ID, c, in.Amount, economy.TxTransferIn, ref); err != nil {
			return err
		}

		senderHP, senderDestroyed := sender.HP, sender.Destroyed
		if senderPenalty > 0 {
			senderHP, senderDestroyed = economy.ApplyHPPenalty(sender.HP, senderPenalty)
			if err := setHPTx(ctx, tx, sender.ID, senderHP); err != nil {
				return err
			}
		}
		if receiverPenalty > 0 {
			hp, _ := economy.ApplyHPPenalty(receiver.HP, receiverPenalty)
			if err := setHPTx(ctx, tx, receiver.ID, hp); err != nil {
				return err
			}
		}

		body := fmt.Sprintf("@%s sent you %d %s", sender.Username, in.Amount, c)
		if receiverPenalty > 0 {
			body += fmt.Sprintf(" (over the daily cap: -%d HP)", receiverPenalty)
		}
		n, err := notifyTx(ctx, tx, receiver.ID, sender.ID, "transfer", nil, body)
		if err != nil {
			return err
		}
		notes = append(notes, n)

		out = TransferResult{
			TransferID:        transferID,
			Currency:          c,
			Amount:            in.Amount,
			SenderBalance:     senderBalance,
			SenderPenaltyHP:   senderPenalty,
			ReceiverPenaltyHP: receiverPenalty,
			SenderHP:          senderHP,
			SenderDestroyed:   senderDestroyed,
			RemainingToday:    economy.RemainingAllowance(sent+in.Amount, limit),
		}
		return nil
	})
	if err != nil {
		return out, err
	}
	if out.SenderPenaltyHP > 0 || out.ReceiverPenaltyHP > 0 {
		s.log.Info("transfer over daily cap",
			"from", in.FromID,
			"currency", out.Currency,
			"amount", out.Amount,
			"sender_penalty_hp", out.SenderPenaltyHP,
			"receiver_penalty_hp", out.ReceiverPenaltyHP,
		)
	}
	s.afterCommit(ctx, notes)
	return out, nil
}

func transferTotalTx(ctx context.Context, tx pgx.Tx, column, userID string, c economy.Currency, since time.Time) (int64, error) {
	var total int64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::bigint
		FROM transfers
		WHERE `+column+` = $1 AND currency = $2 AND created_at >= $3
	`, userID, string(c), since).Scan(&total)
	return total, err
}

// SentToday sums what a user has sent per currency since UTC midnight.
func (s *Service) SentToday(ctx context.Context, userID string) (map[economy.Currency]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT currency, COALESCE(SUM(amount), 0)::bigint
		FROM transfers
		WHERE from_user_id = $1 AND created_at >= $2
		GROUP BY currency
	`, userID, economy.DayStart(s.now()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[economy.Currency]int64{economy.CurrencySpits: 0, economy.CurrencyGold: 0}
	for rows.Next() {
		var c string
		var total int64
		if err := rows.Scan(&c, &total); err != nil {
			return nil, err
		}
		out[economy.Currency(c)] = total
	}
	return out, rows.Err()
}
