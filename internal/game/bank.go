package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

const (
	depositSavings = "savings"
	depositCD      = "cd"
)

type depositRow struct {
	ID          int64
	UserID      string
	Kind        string
	Currency    economy.Currency
	Principal   int64
	Rate        float64
	TermDays    *int
	Withdrawn   int64
	DepositedAt time.Time
	Closed      bool
}

func (d depositRow) view(now time.Time) Deposit {
	out := Deposit{
		ID:          d.ID,
		Kind:        d.Kind,
		Currency:    d.Currency,
		Principal:   d.Principal,
		Rate:        d.Rate,
		DepositedAt: d.DepositedAt,
		Withdrawn:   d.Withdrawn,
	}
	if d.Kind == depositCD && d.TermDays != nil {
		out.TermDays = *d.TermDays
		maturesAt := economy.CDMaturesAt(d.DepositedAt, out.TermDays)
		out.MaturesAt = &maturesAt
		out.Matured = economy.CDMatured(d.DepositedAt, out.TermDays, now)
		out.Value = economy.CDValue(d.Principal, d.Rate, d.DepositedAt, out.TermDays, now)
		return out
	}
	out.Value = economy.DepositValue(d.Principal, d.Rate, d.DepositedAt, d.Withdrawn, now)
	return out
}

const depositColumns = `id, user_id, kind, currency, principal, locked_rate, term_days, withdrawn, deposited_at, closed_at IS NOT NULL`

func scanDeposit(row pgx.Row) (depositRow, error) {
	var d depositRow
	var currency string
	err := row.Scan(&d.ID, &d.UserID, &d.Kind, &currency, &d.Principal, &d.Rate, &d.TermDays, &d.Withdrawn, &d.DepositedAt, &d.Closed)
	d.Currency = economy.Currency(currency)
	return d, err
}

func lockDepositTx(ctx context.Context, tx pgx.Tx, userID string, id int64) (depositRow, error) {
	d, err := scanDeposit(tx.QueryRow(ctx, `SELECT `+depositColumns+` FROM bank_deposits WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return d, fmt.Errorf("%w: deposit %d", ErrNotFound, id)
	}
	if err != nil {
		return d, err
	}
	if d.UserID != userID {
		return d, ErrForbidden
	}
	if d.Closed {
		return d, fmt.Errorf("%w: deposit %d is closed", ErrNotFound, id)
	}
	return d, nil
}

type DepositInput struct {
	UserID         string
	Currency       string
	Amount         int64
	IdempotencyKey string
}

// Deposit moves a balance into a savings deposit that locks the current rate.
func (s *Service) Deposit(ctx context.Context, in DepositInput) (Deposit, error) {
	var out Deposit
	c, err := parseCurrency(in.Currency)
	if err != nil {
		return out, err
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return out, err
	}
	err = s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "bank_deposit"); err != nil {
			return err
		}
		if _, err := lockUserTx(ctx, tx, in.UserID); err != nil {
			return err
		}
		now := s.now()
		d := depositRow{UserID: in.UserID, Kind: depositSavings, Currency: c, Principal: in.Amount, Rate: economy.InterestRateAt(now)}
		if err := tx.QueryRow(ctx, `
			INSERT INTO bank_deposits (user_id, kind, currency, principal, locked_rate, deposited_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, deposited_at
		`, d.UserID, d.Kind, string(c), d.Principal, d.Rate, now).Scan(&d.ID, &d.DepositedAt); err != nil {
			return err
		}
		if _, err := adjustBalanceTx(ctx, tx, in.UserID, c, -in.Amount, economy.TxBankDeposit, strconv.FormatInt(d.ID, 10)); err != nil {
			return err
		}
		out = d.view(now)
		return nil
	})
	return out, err
}

type WithdrawInput struct {
	UserID    string
	DepositID int64
	// Amount zero withdraws the full current value.
	Amount         int64
	IdempotencyKey string
}

type WithdrawResult struct {
	Deposit  Deposit          `json:"deposit"`
	Amount   int64            `json:"amount"`
	Currency economy.Currency `json:"currency"`
	Balance  int64            `json:"balance"`
	Closed   bool             `json:"closed"`
}

func (s *Service) Withdraw(ctx context.Context, in WithdrawInput) (WithdrawResult, error) {
	var out WithdrawResult
	if in.Amount < 0 {
		return out, fmt.Errorf("%w: amount must be >= 0", ErrInvalidInput)
	}
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "bank_withdraw"); err != nil {
			return err
		}
		d, err := lockDepositTx(ctx, tx, in.UserID, in.DepositID)
		if err != nil {
			return err
		}
		if d.Kind == depositCD {
			return fmt.Errorf("%w: certificates of deposit are redeemed, not withdrawn", ErrInvalidInput)
		}
		if _, err := lockUserTx(ctx, tx, in.UserID); err != nil {
			return err
		}
		now := s.now()
		value := economy.DepositValue(d.Principal, d.Rate, d.DepositedAt, d.Withdrawn, now)
		amount := in.Amount
		if amount == 0 {
			amount = value
		}
		if amount <= 0 || amount > value {
			return fmt.Errorf("%w: deposit is worth %d", ErrInsufficientFunds, value)
		}
		d.Withdrawn += amount
		d.Closed = amount == value
		if _, err := tx.Exec(ctx, `
			UPDATE bank_deposits
			SET withdrawn = $2, closed_at = CASE WHEN $3 THEN now() ELSE NULL END
			WHERE id = $1
		`, d.ID, d.Withdrawn, d.Closed); err != nil {
			return err
		}
		balance, err := adjustBalanceTx(ctx, tx, in.UserID, d.Currency, amount, economy.TxBankWithdraw, strconv.FormatInt(d.ID, 10))
		if err != nil {
			return err
		}
		out = WithdrawResult{Deposit: d.view(now), Amount: amount, Currency: d.Currency, Balance: balance, Closed: d.Closed}
		return nil
	})
	return out, err
}

// ListDeposits returns open deposits and CDs with values computed for now.
func (s *Service) ListDeposits(ctx context.Context, userID string) ([]Deposit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+depositColumns+` FROM bank_deposits
		WHERE user_id = $1 AND closed_at IS NULL
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	now := s.now()
	out := make([]Deposit, 0, 8)
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d.view(now))
	}
	return out, rows.Err()
}

type OpenCDInput struct {
	UserID         string
	Currency       string
	Amount         int64
	TermDays       int
	IdempotencyKey string
}

func (s *Service) OpenCD(ctx context.Context, in OpenCDInput) (Deposit, error) {
	var out Deposit
	c, err := parseCurrency(in.Currency)
	if err != nil {
		return out, err
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return out, err
	}
	term, err := economy.LookupCDTerm(in.TermDays)
	if err != nil {
		return out, invalid(err)
	}
	err = s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "cd_open"); err != nil {
			return err
		}
		if _, err := lockUserTx(ctx, tx, in.UserID); err != nil {
			return err
		}
		now := s.now()
		days := term.Days
		d := depositRow{UserID: in.UserID, Kind: depositCD, Currency: c, Principal: in.Amount, Rate: economy.CDRate(term, now), TermDays: &days}
		if err := tx.QueryRow(ctx, `
			INSERT INTO bank_deposits (user_id, kind, currency, principal, locked_rate, term_days, deposited_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, deposited_at
		`, d.UserID, d.Kind, string(c), d.Principal, d.Rate, days, now).Scan(&d.ID, &d.DepositedAt); err != nil {
			return err
		}
		if _, err := adjustBalanceTx(ctx, tx, in.UserID, c, -in.Amount, economy.TxCDOpen, strconv.FormatInt(d.ID, 10)); err != nil {
			return err
		}
		out = d.view(now)
		return nil
	})
	return out, err
}

// RedeemCD pays out a matured CD. Early redemption is refused.
func (s *Service) RedeemCD(ctx context.Context, userID string, cdID int64, idempotencyKey string) (WithdrawResult, error) {
	var out WithdrawResult
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, userID, idempotencyKey, "cd_redeem"); err != nil {
			return err
		}
		d, err := lockDepositTx(ctx, tx, userID, cdID)
		if err != nil {
			return err
		}
		if d.Kind != depositCD || d.TermDays == nil {
			return fmt.Errorf("%w: deposit %d is not a certificate of deposit", ErrInvalidInput, cdID)
		}
		now := s.now()
		value, err := economy.RedeemCD(d.Principal, d.Rate, d.DepositedAt, *d.TermDays, now)
		if err != nil {
			return err
		}
		if _, err := lockUserTx(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE bank_deposits SET withdrawn = $2, closed_at = now() WHERE id = $1
		`, d.ID, value); err != nil {
			return err
		}
		balance, err := adjustBalanceTx(ctx, tx, userID, d.Currency, value, economy.TxCDRedeem, strconv.FormatInt(d.ID, 10))
		if err != nil {
			return err
		}
		d.Closed = true
		out = WithdrawResult{Deposit: d.view(now), Amount: value, Currency: d.Currency, Balance: balance, Closed: true}
		return nil
	})
	return out, err
}

// CurrentRates exposes the live savings rate and what each CD term would lock now.
func (s *Service) CurrentRates() map[string]float64 {
	now := s.now()
	out := map[string]float64{"savings": economy.InterestRateAt(now)}
	for _, term := range economy.CDTerms() {
		out["cd_"+strconv.Itoa(term.Days)+"d"] = economy.CDRate(term, now)
	}
	return out
}
