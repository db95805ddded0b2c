package game

import (
	"context"
	"errors"
	"fmt"

	"spitr/internal/economy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type userRow struct {
	ID        string
	Username  string
	HP        int64
	Destroyed bool
	XP        int64
	Level     int
	Spits     int64
	Gold      int64
	IsBot     bool
}

func (u userRow) balance(c economy.Currency) int64 {
	if c == economy.CurrencyGold {
		return u.Gold
	}
	return u.Spits
}

func lockUserTx(ctx context.Context, tx pgx.Tx, userID string) (userRow, error) {
	var u userRow
	err := tx.QueryRow(ctx, `
		SELECT id, username, hp, destroyed, xp, level, spits, gold, is_bot
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID).Scan(&u.ID, &u.Username, &u.HP, &u.Destroyed, &u.XP, &u.Level, &u.Spits, &u.Gold, &u.IsBot)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return u, err
}

// lockActiveUserTx locks the acting user and refuses destroyed accounts.
func lockActiveUserTx(ctx context.Context, tx pgx.Tx, userID string) (userRow, error) {
	u, err := lockUserTx(ctx, tx, userID)
	if err != nil {
		return u, err
	}
	if u.Destroyed {
		return u, ErrDestroyed
	}
	return u, nil
}

func resolveUserIDTx(ctx context.Context, tx pgx.Tx, idOrUsername string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		SELECT id FROM users WHERE id = $1 OR username = lower($1) LIMIT 1
	`, idOrUsername).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: user %s", ErrNotFound, idOrUsername)
	}
	return id, err
}

func ledgerTable(c economy.Currency) (column, table string) {
	if c == economy.CurrencyGold {
		return "gold", "gold_transactions"
	}
	return "spits", "credit_transactions"
}

// adjustBalanceTx moves a balance by delta and appends the matching ledger row. A
// debit that would go negative fails with ErrInsufficientFunds and writes nothing.
func adjustBalanceTx(ctx context.Context, tx pgx.Tx, userID string, c economy.Currency, delta int64, kind economy.TxType, ref string) (int64, error) {
	column, table := ledgerTable(c)
	if delta == 0 {
		return balanceTx(ctx, tx, userID, c)
	}
	var balance int64
	err := tx.QueryRow(ctx, `
		UPDATE users
		SET `+column+` = `+column+` + $1, updated_at = now()
		WHERE id = $2 AND `+column+` + $1 >= 0
		RETURNING `+column, delta, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: need %d %s", ErrInsufficientFunds, -delta, c)
	}
	if err != nil {
		return 0, err
	}
	var refArg any
	if ref != "" {
		refArg = ref
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO `+table+` (user_id, type, amount, balance_after, reference_id)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, string(kind), delta, balance, refArg); err != nil {
		return 0, err
	}
	return balance, nil
}

func balanceTx(ctx context.Context, tx pgx.Tx, userID string, c economy.Currency) (int64, error) {
	column, _ := ledgerTable(c)
	var balance int64
	err := tx.QueryRow(ctx, `SELECT `+column+` FROM users WHERE id = $1`, userID).Scan(&balance)
	return balance, err
}

// chargeActionTx debits the spit price of a social action.
func chargeActionTx(ctx context.Context, tx pgx.Tx, userID string, action economy.Action, ref string) error {
	cost := economy.ActionCost(action)
	if cost == 0 {
		return nil
	}
	_, err := adjustBalanceTx(ctx, tx, userID, economy.CurrencySpits, -cost, economy.TxActionCost, ref)
	return err
}

// grantXPTx adds XP and handles level ups. A level up raises max HP and heals the
// user by the increase. It returns the new level.
func grantXPTx(ctx context.Context, tx pgx.Tx, u *userRow, xp int64) (int, error) {
	if xp <= 0 {
		return u.Level, nil
	}
	newXP := u.XP + xp
	newLevel := economy.LevelForXP(newXP)
	hp := u.HP
	if newLevel > u.Level && !u.Destroyed {
		hp = economy.ClampHP(hp+economy.MaxHP(newLevel)-economy.MaxHP(u.Level), economy.MaxHP(newLevel))
	}
	if _, err := tx.Exec(ctx, `
		UPDATE users SET xp = $1, level = $2, hp = $3, updated_at = now() WHERE id = $4
	`, newXP, newLevel, hp, u.ID); err != nil {
		return 0, err
	}
	if newLevel > u.Level {
		if _, err := notifyTx(ctx, tx, u.ID, "", "level_up", nil, fmt.Sprintf("You reached level %d", newLevel)); err != nil {
			return 0, err
		}
	}
	u.XP, u.Level, u.HP = newXP, newLevel, hp
	return newLevel, nil
}

// setHPTx writes HP and keeps the destroyed flag in step: zero destroys, anything
// above zero revives.
func setHPTx(ctx context.Context, tx pgx.Tx, userID string, hp int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET hp = $1, destroyed = ($1 <= 0), updated_at = now() WHERE id = $2
	`, hp, userID)
	return err
}

func notifyTx(ctx context.Context, tx pgx.Tx, userID, actorID, kind string, spitID *int64, body string) (Notification, error) {
	n := Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		ActorID: actorID,
		Type:    kind,
		SpitID:  spitID,
		Body:    body,
	}
	var actor any
	if actorID != "" {
		actor = actorID
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, actor_id, type, spit_id, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, n.ID, userID, actor, kind, spitID, body).Scan(&n.CreatedAt)
	return n, err
}

func addInventoryTx(ctx context.Context, tx pgx.Tx, userID string, item economy.ItemType, qty int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory (user_id, item_type, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_type)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, updated_at = now()
	`, userID, string(item), qty)
	return err
}

// takeInventoryTx removes qty units and fails with ErrNoItem when the user holds fewer.
func takeInventoryTx(ctx context.Context, tx pgx.Tx, userID string, item economy.ItemType, qty int64) (int64, error) {
	var left int64
	err := tx.QueryRow(ctx, `
		UPDATE inventory
		SET quantity = quantity - $3, updated_at = now()
		WHERE user_id = $1 AND item_type = $2 AND quantity >= $3
		RETURNING quantity
	`, userID, string(item), qty).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrNoItem, item)
	}
	return left, err
}

func loadBuffsTx(ctx context.Context, tx pgx.Tx, userID string) (economy.Buffs, error) {
	rows, err := tx.Query(ctx, `
		SELECT buff_type, charges FROM user_buffs WHERE user_id = $1 FOR UPDATE
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	buffs := economy.Buffs{}
	for rows.Next() {
		var t string
		var charges int64
		if err := rows.Scan(&t, &charges); err != nil {
			return nil, err
		}
		buffs[economy.ItemType(t)] = charges
	}
	return buffs, rows.Err()
}

// spendBuffsTx burns one charge per entry of spent from the locked buffs and
// persists the result, dropping rows that reach zero.
func spendBuffsTx(ctx context.Context, tx pgx.Tx, userID string, buffs economy.Buffs, spent []economy.ItemType) error {
	if len(spent) == 0 {
		return nil
	}
	economy.ConsumeCharges(buffs, spent)
	for _, b := range spent {
		if charges, ok := buffs[b]; ok {
			if _, err := tx.Exec(ctx, `
				UPDATE user_buffs SET charges = $3, updated_at = now()
				WHERE user_id = $1 AND buff_type = $2
			`, userID, string(b), charges); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM user_buffs WHERE user_id = $1 AND buff_type = $2
		`, userID, string(b)); err != nil {
			return err
		}
	}
	return nil
}
