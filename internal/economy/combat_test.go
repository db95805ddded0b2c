package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weapon(t *testing.T, typ ItemType) Item {
	t.Helper()
	item, err := LookupItem(string(typ))
	require.NoError(t, err)
	return item
}

func TestResolveAttackPlainHit(t *testing.T) {
	out, err := ResolveAttack(AttackInput{Weapon: weapon(t, WeaponGun)}, &fixedRand{})
	require.NoError(t, err)
	assert.Equal(t, int64(25), out.Damage)
	assert.False(t, out.Blocked())
	assert.Empty(t, out.AttackerSpent)
}

func TestResolveAttackRejectsNonWeapon(t *testing.T) {
	_, err := ResolveAttack(AttackInput{Weapon: weapon(t, PotionSmall)}, &fixedRand{})
	assert.ErrorIs(t, err, ErrNotAWeapon)
}

func TestResolveAttackRageAndCritical(t *testing.T) {
	in := AttackInput{
		Weapon:        weapon(t, WeaponSoldier),
		AttackerBuffs: Buffs{BuffRageSerum: 1, BuffCriticalChip: 2},
	}
	out, err := ResolveAttack(in, &fixedRand{floats: []float64{0.10}})
	require.NoError(t, err)
	assert.True(t, out.Raged)
	assert.True(t, out.Critical)
	assert.Equal(t, int64(100*2*3), out.Damage)
	assert.Equal(t, []ItemType{BuffRageSerum, BuffCriticalChip}, out.AttackerSpent)

	out, err = ResolveAttack(in, &fixedRand{floats: []float64{0.50}})
	require.NoError(t, err)
	assert.False(t, out.Critical)
	assert.Equal(t, int64(200), out.Damage)
	assert.Contains(t, out.AttackerSpent, BuffCriticalChip, "chip is spent even without a critical")
}

func TestResolveAttackDefensePriority(t *testing.T) {
	all := Buffs{BuffMirrorShield: 1, BuffFirewall: 1, BuffKevlar: 3}
	out, err := ResolveAttack(AttackInput{Weapon: weapon(t, WeaponGun), TargetBuffs: all}, &fixedRand{})
	require.NoError(t, err)
	assert.Equal(t, BuffMirrorShield, out.BlockedBy)
	assert.Equal(t, int64(25), out.ReflectedDamage)
	assert.Equal(t, int64(0), out.Damage)
	assert.Equal(t, []ItemType{BuffMirrorShield}, out.TargetSpent)

	out, err = ResolveAttack(AttackInput{Weapon: weapon(t, WeaponGun), TargetBuffs: Buffs{BuffFirewall: 1, BuffKevlar: 3}}, &fixedRand{})
	require.NoError(t, err)
	assert.Equal(t, BuffFirewall, out.BlockedBy)
	assert.Equal(t, int64(0), out.ReflectedDamage)
}

func TestKevlarBlocksAllButTwoWeapons(t *testing.T) {
	var pierced []ItemType
	for _, item := range Catalog() {
		if item.Kind != KindWeapon {
			continue
		}
		buffs := Buffs{BuffKevlar: 3}
		out, err := ResolveAttack(AttackInput{Weapon: item, TargetBuffs: buffs}, &fixedRand{})
		require.NoError(t, err)
		if !out.Blocked() {
			pierced = append(pierced, item.Type)
			continue
		}
		assert.Equal(t, BuffKevlar, out.BlockedBy)
		assert.Equal(t, []ItemType{BuffKevlar}, out.TargetSpent)

		emptied := ConsumeCharges(buffs, out.TargetSpent)
		assert.Empty(t, emptied)
		assert.Equal(t, int64(2), buffs[BuffKevlar], "exactly one charge per block")
	}
	assert.ElementsMatch(t, []ItemType{WeaponDrone, WeaponNuke}, pierced)
	assert.True(t, KevlarStops(WeaponKnife))
	assert.False(t, KevlarStops(WeaponNuke))
}

func TestConsumeChargesRemovesEmptyBuff(t *testing.T) {
	buffs := Buffs{BuffKevlar: 1, BuffRageSerum: 2}
	emptied := ConsumeCharges(buffs, []ItemType{BuffKevlar, BuffRageSerum})
	assert.Equal(t, []ItemType{BuffKevlar}, emptied)
	_, ok := buffs[BuffKevlar]
	assert.False(t, ok)
	assert.Equal(t, int64(1), buffs[BuffRageSerum])
}

func TestOnHitEffectsOnlyAgainstUsers(t *testing.T) {
	out, err := ResolveAttack(AttackInput{Weapon: weapon(t, WeaponEMP), TargetBuffs: Buffs{}}, &fixedRand{})
	require.NoError(t, err)
	assert.True(t, out.StripBuffs)

	out, err = ResolveAttack(AttackInput{Weapon: weapon(t, WeaponMalware), TargetIsSpit: true}, &fixedRand{})
	require.NoError(t, err)
	assert.False(t, out.StealItem)
	assert.Equal(t, int64(25), out.Damage)

	out, err = ResolveAttack(AttackInput{Weapon: weapon(t, WeaponMalware), TargetBuffs: Buffs{BuffFirewall: 1}}, &fixedRand{})
	require.NoError(t, err)
	assert.False(t, out.StealItem, "blocked hits trigger nothing")
}

func TestSpitsIgnoreDefenses(t *testing.T) {
	out, err := ResolveAttack(AttackInput{
		Weapon:       weapon(t, WeaponKnife),
		TargetBuffs:  Buffs{BuffFirewall: 1},
		TargetIsSpit: true,
	}, &fixedRand{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Damage)
}

func TestPickStolenItem(t *testing.T) {
	inv := []InventoryEntry{
		{ItemType: WeaponKnife, Quantity: 2},
		{ItemType: PotionSmall, Quantity: 0},
		{ItemType: BuffKevlar, Quantity: 1},
	}
	got, ok := PickStolenItem(inv, &fixedRand{ints: []int{2}})
	require.True(t, ok)
	assert.Equal(t, BuffKevlar, got)

	got, ok = PickStolenItem(inv, &fixedRand{ints: []int{1}})
	require.True(t, ok)
	assert.Equal(t, WeaponKnife, got)

	_, ok = PickStolenItem(nil, &fixedRand{})
	assert.False(t, ok)
}

func TestAttackXP(t *testing.T) {
	assert.Equal(t, int64(0), AttackXP(AttackOutcome{BlockedBy: BuffFirewall}, false, false))
	assert.Equal(t, int64(5), AttackXP(AttackOutcome{Damage: 5}, false, false))
	assert.Equal(t, int64(105), AttackXP(AttackOutcome{Damage: 5}, true, false))
	assert.Equal(t, int64(15), AttackXP(AttackOutcome{Damage: 5}, true, true))
}
