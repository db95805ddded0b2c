package game

import (
	"context"
	"fmt"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

type BuyItemInput struct {
	UserID         string
	Item           string
	Quantity       int64
	IdempotencyKey string
}

type BuyItemResult struct {
	Item     economy.ItemType `json:"item"`
	Quantity int64            `json:"quantity"`
	Cost     int64            `json:"cost"`
	Gold     int64            `json:"gold"`
	Owned    int64            `json:"owned"`
}

const maxPurchaseQuantity = 100

func (s *Service) BuyItem(ctx context.Context, in BuyItemInput) (BuyItemResult, error) {
	var out BuyItemResult
	item, err := economy.LookupItem(in.Item)
	if err != nil {
		return out, invalid(err)
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 || in.Quantity > maxPurchaseQuantity {
		return out, fmt.Errorf("%w: quantity must be 1-%d", ErrInvalidInput, maxPurchaseQuantity)
	}
	cost := item.PriceGold * in.Quantity

	err = s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "buy_item"); err != nil {
			return err
		}
		if _, err := lockUserTx(ctx, tx, in.UserID); err != nil {
			return err
		}
		gold, err := adjustBalanceTx(ctx, tx, in.UserID, economy.CurrencyGold, -cost, economy.TxPurchase, string(item.Type))
		if err != nil {
			return err
		}
		if err := addInventoryTx(ctx, tx, in.UserID, item.Type, in.Quantity); err != nil {
			return err
		}
		var owned int64
		if err := tx.QueryRow(ctx, `
			SELECT quantity FROM inventory WHERE user_id = $1 AND item_type = $2
		`, in.UserID, string(item.Type)).Scan(&owned); err != nil {
			return err
		}
		out = BuyItemResult{Item: item.Type, Quantity: in.Quantity, Cost: cost, Gold: gold, Owned: owned}
		return nil
	})
	return out, err
}

// UseItem consumes a potion or buff. Potions heal up to max HP and revive a
// destroyed account; buffs add their charges to the user's buff of that type.
// Weapons are only spent by Attack.
func (s *Service) UseItem(ctx context.Context, userID, itemName, idempotencyKey string) (UseItemResult, error) {
	var out UseItemResult
	item, err := economy.LookupItem(itemName)
	if err != nil {
		return out, invalid(err)
	}
	if item.Kind == economy.KindWeapon {
		return out, fmt.Errorf("%w: weapons are used by attacking", ErrInvalidInput)
	}

	err = s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, userID, idempotencyKey, "use_item"); err != nil {
			return err
		}
		u, err := lockUserTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		left, err := takeInventoryTx(ctx, tx, userID, item.Type, 1)
		if err != nil {
			return err
		}
		out = UseItemResult{Item: item.Type, Remaining: left, MaxHP: economy.MaxHP(u.Level), HP: u.HP, Destroyed: u.Destroyed}

		switch item.Kind {
		case economy.KindPotion:
			hp := economy.HealAmount(item, u.HP, out.MaxHP)
			if err := setHPTx(ctx, tx, userID, hp); err != nil {
				return err
			}
			out.HP, out.Destroyed = hp, hp <= 0
		case economy.KindBuff:
			if err := tx.QueryRow(ctx, `
				INSERT INTO user_buffs (user_id, buff_type, charges)
				VALUES ($1, $2, $3)
				ON CONFLICT (user_id, buff_type)
				DO UPDATE SET charges = user_buffs.charges + EXCLUDED.charges, updated_at = now()
				RETURNING charges
			`, userID, string(item.Type), item.Charges).Scan(&out.Charges); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func (s *Service) Inventory(ctx context.Context, userID string) ([]InventoryItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT item_type, quantity FROM inventory
		WHERE user_id = $1 AND quantity > 0
		ORDER BY item_type
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]InventoryItem, 0, 16)
	for rows.Next() {
		var t string
		var qty int64
		if err := rows.Scan(&t, &qty); err != nil {
			return nil, err
		}
		item, err := economy.LookupItem(t)
		if err != nil {
			s.log.Warn("inventory holds unknown item", "user_id", userID, "item", t)
			continue
		}
		out = append(out, InventoryItem{Item: item, Quantity: qty})
	}
	return out, rows.Err()
}

func (s *Service) Buffs(ctx context.Context, userID string) ([]Buff, error) {
	rows, err := s.db.Query(ctx, `
		SELECT buff_type, charges FROM user_buffs WHERE user_id = $1 ORDER BY buff_type
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Buff, 0, 8)
	for rows.Next() {
		var b Buff
		var t string
		if err := rows.Scan(&t, &b.Charges); err != nil {
			return nil, err
		}
		b.Type = economy.ItemType(t)
		out = append(out, b)
	}
	return out, rows.Err()
}

type ConvertInput struct {
	UserID         string
	From           string
	Amount         int64
	IdempotencyKey string
}

type ConvertResult struct {
	From     economy.Currency `json:"from"`
	Spent    int64            `json:"spent"`
	Received int64            `json:"received"`
	Spits    int64            `json:"spits"`
	Gold     int64            `json:"gold"`
}

// ConvertCurrency swaps spits and gold at the fixed rate. Spits that do not make a
// whole gold stay with the user.
func (s *Service) ConvertCurrency(ctx context.Context, in ConvertInput) (ConvertResult, error) {
	var out ConvertResult
	from, err := parseCurrency(in.From)
	if err != nil {
		return out, err
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return out, err
	}
	out.From = from
	switch from {
	case economy.CurrencySpits:
		out.Received, out.Spent = economy.SpitsToGold(in.Amount)
		if out.Received == 0 {
			return out, fmt.Errorf("%w: need at least %d spits for one gold", ErrInvalidInput, economy.SpitsPerGold)
		}
	case economy.CurrencyGold:
		out.Spent, out.Received = in.Amount, economy.GoldToSpits(in.Amount)
	}
	to := economy.CurrencyGold
	if from == economy.CurrencyGold {
		to = economy.CurrencySpits
	}

	err = s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "convert"); err != nil {
			return err
		}
		if _, err := lockUserTx(ctx, tx, in.UserID); err != nil {
			return err
		}
		fromBal, err := adjustBalanceTx(ctx, tx, in.UserID, from, -out.Spent, economy.TxConvertOut, string(to))
		if err != nil {
			return err
		}
		toBal, err := adjustBalanceTx(ctx, tx, in.UserID, to, out.Received, economy.TxConvertIn, string(from))
		if err != nil {
			return err
		}
		if from == economy.CurrencySpits {
			out.Spits, out.Gold = fromBal, toBal
		} else {
			out.Spits, out.Gold = toBal, fromBal
		}
		return nil
	})
	return out, err
}
