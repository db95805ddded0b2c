package game

import (
	"context"
	"strconv"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

// BuyScratchTicket charges the ticket price and pays any prize in the same
// transaction, so the ledger shows both rows back to back.
func (s *Service) BuyScratchTicket(ctx context.Context, userID, idempotencyKey string) (ScratchResult, error) {
	var out ScratchResult
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, userID, idempotencyKey, "scratch"); err != nil {
			return err
		}
		if _, err := lockActiveUserTx(ctx, tx, userID); err != nil {
			return err
		}
		prize := economy.ScratchPrize(s.rng)
		out = ScratchResult{Price: economy.ScratchTicketPrice, Prize: prize}
		if err := tx.QueryRow(ctx, `
			INSERT INTO lottery_tickets (user_id, price, prize) VALUES ($1, $2, $3) RETURNING id
		`, userID, out.Price, prize).Scan(&out.TicketID); err != nil {
			return err
		}
		ref := strconv.FormatInt(out.TicketID, 10)
		balance, err := adjustBalanceTx(ctx, tx, userID, economy.CurrencySpits, -out.Price, economy.TxLotteryTicket, ref)
		if err != nil {
			return err
		}
		if prize > 0 {
			if balance, err = adjustBalanceTx(ctx, tx, userID, economy.CurrencySpits, prize, economy.TxLotteryPrize, ref); err != nil {
				return err
			}
		}
		out.Balance = balance
		return nil
	})
	return out, err
}
