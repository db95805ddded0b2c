package economy

import (
	"errors"
	"fmt"
)

// Rand is the subset of *math/rand.Rand the rules need.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

const (
	RageMultiplier     = int64(2)
	CriticalMultiplier = int64(3)
	CriticalChance     = 0.30
)

// kevlarPiercing lists the only weapons kevlar does not stop.
var kevlarPiercing = map[ItemType]bool{
	WeaponDrone: true,
	WeaponNuke:  true,
}

var ErrNotAWeapon = errors.New("item is not a weapon")

// Buffs maps a buff type to its remaining charges.
type Buffs map[ItemType]int64

func (b Buffs) Has(t ItemType) bool {
	return b != nil && b[t] > 0
}

type AttackInput struct {
	Weapon        Item
	AttackerBuffs Buffs
	// TargetBuffs is nil when the target is a spit.
	TargetBuffs  Buffs
	TargetIsSpit bool
}

type AttackOutcome struct {
	Weapon          ItemType   `json:"weapon"`
	BaseDamage      int64      `json:"base_damage"`
	Damage          int64      `json:"damage"`
	ReflectedDamage int64      `json:"reflected_damage"`
	BlockedBy       ItemType   `json:"blocked_by,omitempty"`
	Raged           bool       `json:"raged"`
	Critical        bool       `json:"critical"`
	StripBuffs      bool       `json:"strip_buffs"`
	StealItem       bool       `json:"steal_item"`
	AttackerSpent   []ItemType `json:"attacker_spent,omitempty"`
	TargetSpent     []ItemType `json:"target_spent,omitempty"`
}

// Blocked reports whether a defensive buff absorbed the hit.
func (o AttackOutcome) Blocked() bool {
	return o.BlockedBy != ""
}

// ResolveAttack applies offensive buffs, then the target's defenses in fixed priority
// (mirror shield, firewall, kevlar). Each listed buff loses exactly one charge.
func ResolveAttack(in AttackInput, rng Rand) (AttackOutcome, error) {
	if in.Weapon.Kind != KindWeapon {
		return AttackOutcome{}, fmt.Errorf("%w: %s", ErrNotAWeapon, in.Weapon.Type)
	}
	out := AttackOutcome{
		Weapon:     in.Weapon.Type,
		BaseDamage: in.Weapon.Damage,
	}
	damage := in.Weapon.Damage

	if in.AttackerBuffs.Has(BuffRageSerum) {
		damage *= RageMultiplier
		out.Raged = true
		out.AttackerSpent = append(out.AttackerSpent, BuffRageSerum)
	}
	if in.AttackerBuffs.Has(BuffCriticalChip) {
		out.AttackerSpent = append(out.AttackerSpent, BuffCriticalChip)
		if rng.Float64() < CriticalChance {
			damage *= CriticalMultiplier
			out.Critical = true
		}
	}

	if !in.TargetIsSpit {
		switch {
		case in.TargetBuffs.Has(BuffMirrorShield):
			out.BlockedBy = BuffMirrorShield
			out.ReflectedDamage = damage
			out.TargetSpent = append(out.TargetSpent, BuffMirrorShield)
		case in.TargetBuffs.Has(BuffFirewall):
			out.BlockedBy = BuffFirewall
			out.TargetSpent = append(out.TargetSpent, BuffFirewall)
		case in.TargetBuffs.Has(BuffKevlar) && !kevlarPiercing[in.Weapon.Type]:
			out.BlockedBy = BuffKevlar
			out.TargetSpent = append(out.TargetSpent, BuffKevlar)
		}
	}
	if out.Blocked() {
		return out, nil
	}

	out.Damage = damage
	if !in.TargetIsSpit {
		out.StripBuffs = in.Weapon.Type == WeaponEMP
		out.StealItem = in.Weapon.Type == WeaponMalware
	}
	return out, nil
}

// KevlarStops reports whether kevlar absorbs the given weapon.
func KevlarStops(weapon ItemType) bool {
	item, ok := catalog[weapon]
	return ok && item.Kind == KindWeapon && !kevlarPiercing[weapon]
}

// ConsumeCharges decrements one charge per spent buff and returns the buffs that
// reached zero and must be deleted.
func ConsumeCharges(buffs Buffs, spent []ItemType) (emptied []ItemType) {
	for _, t := range spent {
		if buffs[t] <= 0 {
			continue
		}
		buffs[t]--
		if buffs[t] == 0 {
			delete(buffs, t)
			emptied = append(emptied, t)
		}
	}
	return emptied
}

type InventoryEntry struct {
	ItemType ItemType `json:"item_type"`
	Quantity int64    `json:"quantity"`
}

// PickStolenItem draws one unit uniformly from the inventory. ok is false when empty.
func PickStolenItem(inv []InventoryEntry, rng Rand) (ItemType, bool) {
	var total int64
	for _, e := range inv {
		if e.Quantity > 0 {
			total += e.Quantity
		}
	}
	if total == 0 {
		return "", false
	}
	n := int64(rng.Intn(int(total)))
	for _, e := range inv {
		if e.Quantity <= 0 {
			continue
		}
		if n < e.Quantity {
			return e.ItemType, true
		}
		n -= e.Quantity
	}
	return "", false
}

// AttackXP is the XP an attacker earns for a hit that left the target at the given state.
func AttackXP(out AttackOutcome, destroyed, targetIsSpit bool) int64 {
	if out.Blocked() {
		return 0
	}
	xp := ActionXP(ActionAttack)
	if destroyed {
		if targetIsSpit {
			xp += XPDestroySpit
		} else {
			xp += XPDestroyUser
		}
	}
	return xp
}
