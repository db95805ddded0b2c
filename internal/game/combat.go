package game

import (
	"context"
	"errors"
	"fmt"

	"spitr/internal/economy"

	"github.com/jackc/pgx/v5"
)

type AttackInput struct {
	AttackerID     string
	TargetUserID   string
	TargetSpitID   int64
	Weapon         string
	IdempotencyKey string
}

// Attack spends one weapon against a user or a spit. Buffs on both sides are resolved
// by economy.ResolveAttack; damage lands through the perform_attack procedure so the
// HP write, destroyed flag and attack_log row stay in one statement.
func (s *Service) Attack(ctx context.Context, in AttackInput) (AttackResult, error) {
	var out AttackResult
	weapon, err := economy.LookupItem(in.Weapon)
	if err != nil {
		return out, invalid(err)
	}
	if weapon.Kind != economy.KindWeapon {
		return out, invalid(economy.ErrNotAWeapon)
	}
	if (in.TargetUserID == "") == (in.TargetSpitID == 0) {
		return out, fmt.Errorf("%w: choose exactly one target", ErrInvalidInput)
	}

	var notes []Notification
	err = s.serializable(ctx, func(tx pgx.Tx) error {
		notes = notes[:0]
		out = AttackResult{}
		if err := claimIdempotency(ctx, tx, in.AttackerID, in.IdempotencyKey, "attack"); err != nil {
			return err
		}
		attacker, err := lockActiveUserTx(ctx, tx, in.AttackerID)
		if err != nil {
			return err
		}

		targetIsSpit := in.TargetSpitID != 0
		var targetUserID, victimID string
		var target userRow
		if targetIsSpit {
			var destroyed bool
			err := tx.QueryRow(ctx, `SELECT user_id, destroyed FROM spits WHERE id = $1 FOR UPDATE`, in.TargetSpitID).Scan(&victimID, &destroyed)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: spit %d", ErrNotFound, in.TargetSpitID)
			}
			if err != nil {
				return err
			}
			if victimID == attacker.ID {
				return fmt.Errorf("%w: cannot attack your own spit", ErrInvalidInput)
			}
			if destroyed {
				return ErrTargetDestroyed
			}
		} else {
			targetUserID, err = resolveUserIDTx(ctx, tx, in.TargetUserID)
			if err != nil {
				return err
			}
			if targetUserID == attacker.ID {
				return fmt.Errorf("%w: cannot attack yourself", ErrInvalidInput)
			}
			target, err = lockUserTx(ctx, tx, targetUserID)
			if err != nil {
				return err
			}
			if target.Destroyed {
				return ErrTargetDestroyed
			}
			victimID = targetUserID
		}

		if _, err := takeInventoryTx(ctx, tx, attacker.ID, weapon.Type, 1); err != nil {
			return err
		}
		attackerBuffs, err := loadBuffsTx(ctx, tx, attacker.ID)
		if err != nil {
			return err
		}
		var targetBuffs economy.Buffs
		if !targetIsSpit {
			if targetBuffs, err = loadBuffsTx(ctx, tx, targetUserID); err != nil {
				return err
			}
		}

		outcome, err := economy.ResolveAttack(economy.AttackInput{
			Weapon:        weapon,
			AttackerBuffs: attackerBuffs,
			TargetBuffs:   targetBuffs,
			TargetIsSpit:  targetIsSpit,
		}, s.rng)
		if err != nil {
			return invalid(err)
		}
		out.Outcome = outcome
		if err := spendBuffsTx(ctx, tx, attacker.ID, attackerBuffs, outcome.AttackerSpent); err != nil {
			return err
		}
		if err := spendBuffsTx(ctx, tx, targetUserID, targetBuffs, outcome.TargetSpent); err != nil {
			return err
		}

		out.AttackerHP = attacker.HP
		if outcome.Blocked() {
			if _, err := tx.Exec(ctx, `
				INSERT INTO attack_log (attacker_id, target_user_id, weapon, damage, blocked_by)
				VALUES ($1, $2, $3, 0, $4)
			`, attacker.ID, targetUserID, string(weapon.Type), string(outcome.BlockedBy)); err != nil {
				return err
			}
			out.TargetHP = target.HP
			if outcome.ReflectedDamage > 0 {
				hp, destroyed, err := performAttackTx(ctx, tx, targetUserID, attacker.ID, 0, outcome.ReflectedDamage, string(economy.BuffMirrorShield))
				if err != nil {
					return err
				}
				out.AttackerHP, out.AttackerKilled = hp, destroyed
				if destroyed {
					n, err := notifyTx(ctx, tx, attacker.ID, targetUserID, "destroyed", nil, fmt.Sprintf("Your %s bounced off @%s's mirror shield and destroyed you", weapon.Name, target.Username))
					if err != nil {
						return err
					}
					notes = append(notes, n)
				}
			}
			n, err := notifyTx(ctx, tx, targetUserID, attacker.ID, "attack_blocked", nil, fmt.Sprintf("Your %s blocked @%s's %s", outcome.BlockedBy, attacker.Username, weapon.Name))
			if err != nil {
				return err
			}
			out.Level = attacker.Level
			notes = append(notes, n)
			return nil
		}

		hp, destroyed, err := performAttackTx(ctx, tx, attacker.ID, targetUserID, in.TargetSpitID, outcome.Damage, string(weapon.Type))
		if err != nil {
			return err
		}
		out.TargetHP, out.TargetDestroyed = hp, destroyed

		if outcome.StripBuffs {
			if _, err := tx.Exec(ctx, `DELETE FROM user_buffs WHERE user_id = $1`, targetUserID); err != nil {
				return err
			}
		}
		if outcome.StealItem {
			stolen, err := stealItemTx(ctx, tx, targetUserID, attacker.ID, s.rng)
			if err != nil {
				return err
			}
			out.StolenItem = stolen
		}

		out.XPGained = economy.AttackXP(outcome, destroyed, targetIsSpit)
		if out.Level, err = grantXPTx(ctx, tx, &attacker, out.XPGained); err != nil {
			return err
		}

		var spitRef *int64
		body := fmt.Sprintf("@%s hit you with %s for %d damage", attacker.Username, weapon.Name, outcome.Damage)
		kind := "attack"
		if targetIsSpit {
			spitRef = &in.TargetSpitID
			body = fmt.Sprintf("@%s hit your spit with %s for %d damage", attacker.Username, weapon.Name, outcome.Damage)
		}
		if destroyed {
			kind = "destroyed"
			if targetIsSpit {
				body = fmt.Sprintf("@%s destroyed your spit with %s", attacker.Username, weapon.Name)
			} else {
				body = fmt.Sprintf("@%s destroyed you with %s", attacker.Username, weapon.Name)
			}
		}
		n, err := notifyTx(ctx, tx, victimID, attacker.ID, kind, spitRef, body)
		if err != nil {
			return err
		}
		notes = append(notes, n)
		return nil
	})
	if err != nil {
		return out, err
	}
	s.afterCommit(ctx, notes)
	return out, nil
}

// performAttackTx calls the perform_attack procedure. Exactly one of targetUserID
// and targetSpitID is set.
func performAttackTx(ctx context.Context, tx pgx.Tx, attackerID, targetUserID string, targetSpitID, damage int64, weapon string) (int64, bool, error) {
	var userArg, spitArg any
	if targetUserID != "" {
		userArg = targetUserID
	} else {
		spitArg = targetSpitID
	}
	var hp int64
	var destroyed bool
	err := tx.QueryRow(ctx, `
		SELECT out_hp, out_destroyed FROM perform_attack($1, $2, $3, $4, $5)
	`, attackerID, userArg, spitArg, damage, weapon).Scan(&hp, &destroyed)
	return hp, destroyed, err
}

func stealItemTx(ctx context.Context, tx pgx.Tx, fromID, toID string, rng economy.Rand) (economy.ItemType, error) {
	rows, err := tx.Query(ctx, `
		SELECT item_type, quantity FROM inventory
		WHERE user_id = $1 AND quantity > 0
		ORDER BY item_type
		FOR UPDATE
	`, fromID)
	if err != nil {
		return "", err
	}
	var inv []economy.InventoryEntry
	for rows.Next() {
		var e economy.InventoryEntry
		var t string
		if err := rows.Scan(&t, &e.Quantity); err != nil {
			rows.Close()
			return "", err
		}
		e.ItemType = economy.ItemType(t)
		inv = append(inv, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", err
	}
	item, ok := economy.PickStolenItem(inv, rng)
	if !ok {
		return "", nil
	}
	if _, err := takeInventoryTx(ctx, tx, fromID, item, 1); err != nil {
		return "", err
	}
	if err := addInventoryTx(ctx, tx, toID, item, 1); err != nil {
		return "", err
	}
	return item, nil
}

// AttackLog lists recent attacks made by or against the user.
func (s *Service) AttackLog(ctx context.Context, userID string, limit int) ([]AttackLogEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, attacker_id, COALESCE(target_user_id, ''), target_spit_id, weapon, damage,
		       COALESCE(blocked_by, ''), created_at
		FROM attack_log
		WHERE attacker_id = $1 OR target_user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AttackLogEntry, 0, 32)
	for rows.Next() {
		var e AttackLogEntry
		if err := rows.Scan(&e.ID, &e.AttackerID, &e.TargetUserID, &e.TargetSpitID, &e.Weapon, &e.Damage, &e.BlockedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
