package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

func creditView(owed int64, level int, lastAccrued time.Time, balance int64) CreditCard {
	limit := economy.CreditLimit(level)
	tier, rate := economy.CreditTierFor(owed, limit)
	available := limit - owed
	if available < 0 {
		available = 0
	}
	return CreditCard{
		Limit:         limit,
		Owed:          owed,
		Available:     available,
		Utilization:   economy.Utilization(owed, limit),
		Tier:          tier,
		DailyRate:     rate,
		LastAccruedAt: lastAccrued,
		Balance:       balance,
	}
}

// lockCardTx creates the card on first use, locks it and materializes interest
// accrued since the last touch.
func (s *Service) lockCardTx(ctx context.Context, tx pgx.Tx, u userRow) (int64, time.Time, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO credit_cards (user_id, owed, last_accrued_at)
		VALUES ($1, 0, now())
		ON CONFLICT (user_id) DO NOTHING
	`, u.ID); err != nil {
		return 0, time.Time{}, err
	}
	var owed int64
	var last time.Time
	if err := tx.QueryRow(ctx, `
		SELECT owed, last_accrued_at FROM credit_cards WHERE user_id = $1 FOR UPDATE
	`, u.ID).Scan(&owed, &last); err != nil {
		return 0, time.Time{}, err
	}
	now := s.now()
	return economy.AccruedOwed(owed, economy.CreditLimit(u.Level), last, now), now, nil
}

func saveCardTx(ctx context.Context, tx pgx.Tx, userID string, owed int64, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE credit_cards SET owed = $2, last_accrued_at = $3 WHERE user_id = $1
	`, userID, owed, at)
	return err
}

// CreditCardState projects accrued interest without writing it.
func (s *Service) CreditCardState(ctx context.Context, userID string) (CreditCard, error) {
	var spits int64
	var level int
	var owed *int64
	var last *time.Time
	err := s.db.QueryRow(ctx, `
		SELECT u.level, u.spits, c.owed, c.last_accrued_at
		FROM users u
		LEFT JOIN credit_cards c ON c.user_id = u.id
		WHERE u.id = $1
	`, userID).Scan(&level, &spits, &owed, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return CreditCard{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return CreditCard{}, err
	}
	now := s.now()
	if owed == nil || last == nil {
		return creditView(0, level, now, spits), nil
	}
	projected := economy.AccruedOwed(*owed, economy.CreditLimit(level), *last, now)
	return creditView(projected, level, *last, spits), nil
}

type CardInput struct {
	UserID         string
	Amount         int64
	IdempotencyKey string
}

// ChargeCard borrows spits against the card. Maxed cards refuse new charges.
func (s *Service) ChargeCard(ctx context.Context, in CardInput) (CreditCard, error) {
	var out CreditCard
	if err := requirePositive("amount", in.Amount); err != nil {
		return out, err
	}
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "credit_charge"); err != nil {
			return err
		}
		u, err := lockUserTx(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		owed, now, err := s.lockCardTx(ctx, tx, u)
		if err != nil {
			return err
		}
		if err := economy.CanCharge(owed, economy.CreditLimit(u.Level), in.Amount); err != nil {
			return err
		}
		owed += in.Amount
		if err := saveCardTx(ctx, tx, u.ID, owed, now); err != nil {
			return err
		}
		balance, err := adjustBalanceTx(ctx, tx, u.ID, economy.CurrencySpits, in.Amount, economy.TxCreditCharge, "")
		if err != nil {
			return err
		}
		out = creditView(owed, u.Level, now, balance)
		return nil
	})
	return out, err
}

// PayCard repays up to amount; paying more than is owed only pays the balance.
func (s *Service) PayCard(ctx context.Context, in CardInput) (CreditCard, error) {
	var out CreditCard
	if err := requirePositive("amount", in.Amount); err != nil {
		return out, err
	}
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "credit_payment"); err != nil {
			return err
		}
		u, err := lockUserTx(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		owed, now, err := s.lockCardTx(ctx, tx, u)
		if err != nil {
			return err
		}
		pay := min(in.Amount, owed)
		balance := u.Spits
		if pay > 0 {
			if balance, err = adjustBalanceTx(ctx, tx, u.ID, economy.CurrencySpits, -pay, economy.TxCreditPayment, ""); err != nil {
				return err
			}
		}
		owed -= pay
		if err := saveCardTx(ctx, tx, u.ID, owed, now); err != nil {
			return err
		}
		out = creditView(owed, u.Level, now, balance)
		return nil
	})
	return out, err
}
