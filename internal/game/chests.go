package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

func (s *Service) BuyChest(ctx context.Context, userID, rarity, idempotencyKey string) (Chest, error) {
	var out Chest
	r, err := economy.ParseChestRarity(rarity)
	if err != nil {
		return out, invalid(err)
	}
	err = s.serializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, userID, idempotencyKey, "buy_chest"); err != nil {
			return err
		}
		if _, err := lockUserTx(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := adjustBalanceTx(ctx, tx, userID, economy.CurrencyGold, -economy.ChestPrice(r), economy.TxPurchase, "chest:"+string(r)); err != nil {
			return err
		}
		out = Chest{Rarity: r}
		return tx.QueryRow(ctx, `
			INSERT INTO chests (user_id, rarity) VALUES ($1, $2) RETURNING id, created_at
		`, userID, string(r)).Scan(&out.ID, &out.CreatedAt)
	})
	return out, err
}

// OpenChest rolls the chest's loot table once and pays the reward out.
func (s *Service) OpenChest(ctx context.Context, userID string, chestID int64) (Chest, error) {
	var out Chest
	err := s.serializable(ctx, func(tx pgx.Tx) error {
		var owner, rarity string
		var opened bool
		err := tx.QueryRow(ctx, `
			SELECT user_id, rarity, opened_at IS NOT NULL, created_at FROM chests WHERE id = $1 FOR UPDATE
		`, chestID).Scan(&owner, &rarity, &opened, &out.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: chest %d", ErrNotFound, chestID)
		}
		if err != nil {
			return err
		}
		if owner != userID {
			return ErrForbidden
		}
		if opened {
			return fmt.Errorf("%w: chest already opened", ErrAlreadyExists)
		}
		if _, err := lockUserTx(ctx, tx, userID); err != nil {
			return err
		}
		r := economy.ChestRarity(rarity)
		reward := economy.RollChest(r, s.rng)
		ref := "chest:" + strconv.FormatInt(chestID, 10)
		if reward.Spits > 0 {
			if _, err := adjustBalanceTx(ctx, tx, userID, economy.CurrencySpits, reward.Spits, economy.TxChestReward, ref); err != nil {
				return err
			}
		}
		if reward.Gold > 0 {
			if _, err := adjustBalanceTx(ctx, tx, userID, economy.CurrencyGold, reward.Gold, economy.TxChestReward, ref); err != nil {
				return err
			}
		}
		if reward.Item != "" && reward.Quantity > 0 {
			if err := addInventoryTx(ctx, tx, userID, reward.Item, reward.Quantity); err != nil {
				return err
			}
		}
		raw, err := json.Marshal(reward)
		if err != nil {
			return err
		}
		out.ID, out.Rarity, out.Reward = chestID, r, &reward
		return tx.QueryRow(ctx, `
			UPDATE chests SET opened_at = now(), reward = $2::jsonb WHERE id = $1 RETURNING opened_at
		`, chestID, string(raw)).Scan(&out.OpenedAt)
	})
	return out, err
}

func (s *Service) ListChests(ctx context.Context, userID string) ([]Chest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, rarity, reward, opened_at, created_at
		FROM chests WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 100
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Chest, 0, 16)
	for rows.Next() {
		var c Chest
		var rarity string
		var raw []byte
		if err := rows.Scan(&c.ID, &rarity, &raw, &c.OpenedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Rarity = economy.ChestRarity(rarity)
		if len(raw) > 0 {
			var reward economy.ChestReward
			if err := json.Unmarshal(raw, &reward); err != nil {
				return nil, fmt.Errorf("decode chest %d reward: %w", c.ID, err)
			}
			c.Reward = &reward
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
