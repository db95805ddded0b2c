package economy

import (
	"errors"
	"sort"
	"strings"
)

type ItemKind string

const (
	KindWeapon ItemKind = "weapon"
	KindPotion ItemKind = "potion"
	KindBuff   ItemKind = "buff"
)

type ItemType string

const (
	WeaponKnife   ItemType = "knife"
	WeaponGun     ItemType = "gun"
	WeaponSoldier ItemType = "soldier"
	WeaponDrone   ItemType = "drone"
	WeaponNuke    ItemType = "nuke"
	WeaponEMP     ItemType = "emp"
	WeaponMalware ItemType = "malware"

	PotionSmall  ItemType = "small_potion"
	PotionMedium ItemType = "medium_potion"
	PotionLarge  ItemType = "large_potion"
	PotionFull   ItemType = "full_restore"

	BuffFirewall     ItemType = "firewall"
	BuffKevlar       ItemType = "kevlar"
	BuffMirrorShield ItemType = "mirror_shield"
	BuffRageSerum    ItemType = "rage_serum"
	BuffCriticalChip ItemType = "critical_chip"
)

var ErrUnknownItem = errors.New("unknown item")

// Item is one row of the shop catalog. Damage applies to weapons, Heal to potions
// (a negative Heal restores to max), Charges to buffs.
type Item struct {
	Type      ItemType `json:"type"`
	Kind      ItemKind `json:"kind"`
	Name      string   `json:"name"`
	PriceGold int64    `json:"price_gold"`
	Damage    int64    `json:"damage,omitempty"`
	Heal      int64    `json:"heal,omitempty"`
	Charges   int64    `json:"charges,omitempty"`
}

const healToMax = -1

var catalog = map[ItemType]Item{
	WeaponKnife:   {Type: WeaponKnife, Kind: KindWeapon, Name: "Knife", PriceGold: 1, Damage: 5},
	WeaponGun:     {Type: WeaponGun, Kind: KindWeapon, Name: "Gun", PriceGold: 5, Damage: 25},
	WeaponSoldier: {Type: WeaponSoldier, Kind: KindWeapon, Name: "Soldier", PriceGold: 15, Damage: 100},
	WeaponDrone:   {Type: WeaponDrone, Kind: KindWeapon, Name: "Drone", PriceGold: 50, Damage: 500},
	WeaponNuke:    {Type: WeaponNuke, Kind: KindWeapon, Name: "Nuke", PriceGold: 200, Damage: 2500},
	WeaponEMP:     {Type: WeaponEMP, Kind: KindWeapon, Name: "EMP", PriceGold: 75, Damage: 50},
	WeaponMalware: {Type: WeaponMalware, Kind: KindWeapon, Name: "Malware", PriceGold: 60, Damage: 25},

	PotionSmall:  {Type: PotionSmall, Kind: KindPotion, Name: "Small Potion", PriceGold: 5, Heal: 500},
	PotionMedium: {Type: PotionMedium, Kind: KindPotion, Name: "Medium Potion", PriceGold: 15, Heal: 1500},
	PotionLarge:  {Type: PotionLarge, Kind: KindPotion, Name: "Large Potion", PriceGold: 40, Heal: 5000},
	PotionFull:   {Type: PotionFull, Kind: KindPotion, Name: "Full Restore", PriceGold: 100, Heal: healToMax},

	BuffFirewall:     {Type: BuffFirewall, Kind: KindBuff, Name: "Firewall", PriceGold: 30, Charges: 1},
	BuffKevlar:       {Type: BuffKevlar, Kind: KindBuff, Name: "Kevlar", PriceGold: 25, Charges: 3},
	BuffMirrorShield: {Type: BuffMirrorShield, Kind: KindBuff, Name: "Mirror Shield", PriceGold: 80, Charges: 1},
	BuffRageSerum:    {Type: BuffRageSerum, Kind: KindBuff, Name: "Rage Serum", PriceGold: 20, Charges: 1},
	BuffCriticalChip: {Type: BuffCriticalChip, Kind: KindBuff, Name: "Critical Chip", PriceGold: 35, Charges: 1},
}

func LookupItem(t string) (Item, error) {
	item, ok := catalog[ItemType(strings.ToLower(strings.TrimSpace(t)))]
	if !ok {
		return Item{}, ErrUnknownItem
	}
	return item, nil
}

// Catalog returns every item ordered by kind then price.
func Catalog() []Item {
	out := make([]Item, 0, len(catalog))
	for _, it := range catalog {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].PriceGold != out[j].PriceGold {
			return out[i].PriceGold < out[j].PriceGold
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// HealAmount returns the new HP after drinking potion at hp with the given max.
func HealAmount(item Item, hp, max int64) int64 {
	if item.Heal == healToMax {
		return max
	}
	return ClampHP(hp+item.Heal, max)
}
