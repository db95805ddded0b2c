package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

func (s *Service) StockQuote() StockQuote {
	now := s.now()
	return StockQuote{Symbol: StockSymbol, Price: economy.StockPriceAt(now), At: now.UTC()}
}

// maxTradeShares bounds one order so price*shares stays far from int64 overflow.
const maxTradeShares = 1_000_000

type TradeInput struct {
	UserID         string
	Shares         int64
	IdempotencyKey string
}

// BuyStock buys shares at the current price, paid in spits.
func (s *Service) BuyStock(ctx context.Context, in TradeInput) (StockTrade, error) {
	return s.trade(ctx, in, "buy")
}

// SellStock sells shares at the current price. Cost basis drops proportionally.
func (s *Service) SellStock(ctx context.Context, in TradeInput) (StockTrade, error) {
	return s.trade(ctx, in, "sell")
}

func (s *Service) trade(ctx context.Context, in TradeInput, side string) (StockTrade, error) {
	var out StockTrade
	if err := requirePositive("shares", in.Shares); err != nil {
		return out, err
	}
	if in.Shares > maxTradeShares {
		return out, fmt.Errorf("%w: at most %d shares per order", ErrInvalidInput, maxTradeShares)
	}
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "stock_"+side); err != nil {
			return err
		}
		if _, err := lockUserTx(ctx, tx, in.UserID); err != nil {
			return err
		}
		var shares, cost int64
		err := tx.QueryRow(ctx, `
			SELECT shares, total_cost FROM stock_holdings WHERE user_id = $1 FOR UPDATE
		`, in.UserID).Scan(&shares, &cost)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		price := economy.StockPriceAt(s.now())
		if in.Shares > math.MaxInt64/price {
			return fmt.Errorf("%w: order too large", ErrInvalidInput)
		}
		total := price * in.Shares
		out = StockTrade{Side: side, Shares: in.Shares, Price: price, Total: total}

		var delta int64
		var kind economy.TxType
		switch side {
		case "buy":
			shares += in.Shares
			cost += total
			delta, kind = -total, economy.TxStockBuy
		default:
			if in.Shares > shares {
				return fmt.Errorf("%w: you hold %d shares", ErrInsufficientFunds, shares)
			}
			cost -= cost * in.Shares / shares
			shares -= in.Shares
			delta, kind = total, economy.TxStockSell
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO stock_transactions (user_id, side, shares, price, total)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, in.UserID, side, in.Shares, price, total).Scan(&out.ID); err != nil {
			return err
		}
		if out.Balance, err = adjustBalanceTx(ctx, tx, in.UserID, economy.CurrencySpits, delta, kind, strconv.FormatInt(out.ID, 10)); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO stock_holdings (user_id, shares, total_cost, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (user_id) DO UPDATE
			SET shares = EXCLUDED.shares, total_cost = EXCLUDED.total_cost, updated_at = now()
		`, in.UserID, shares, cost)
		return err
	})
	return out, err
}

func (s *Service) Holdings(ctx context.Context, userID string) (Holding, error) {
	h := Holding{Symbol: StockSymbol, Price: economy.StockPriceAt(s.now())}
	err := s.db.QueryRow(ctx, `
		SELECT shares, total_cost FROM stock_holdings WHERE user_id = $1
	`, userID).Scan(&h.Shares, &h.TotalCost)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return h, err
	}
	h.MarketValue = h.Shares * h.Price
	h.Unrealized = h.MarketValue - h.TotalCost
	return h, nil
}
