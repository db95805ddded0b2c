package economy

import (
	"errors"
	"strings"
)

type ChestRarity string

const (
	ChestCommon    ChestRarity = "common"
	ChestRare      ChestRarity = "rare"
	ChestLegendary ChestRarity = "legendary"
)

var ErrUnknownChest = errors.New("chest rarity must be common, rare or legendary")

var chestPrices = map[ChestRarity]int64{
	ChestCommon:    10,
	ChestRare:      50,
	ChestLegendary: 200,
}

type lootRoll struct {
	weight   int
	spits    int64
	gold     int64
	item     ItemType
	quantity int64
}

var lootTables = map[ChestRarity][]lootRoll{
	ChestCommon: {
		{weight: 40, spits: 50},
		{weight: 25, gold: 5},
		{weight: 15, item: WeaponKnife, quantity: 3},
		{weight: 10, item: PotionSmall, quantity: 1},
		{weight: 7, item: WeaponGun, quantity: 1},
		{weight: 3, item: BuffKevlar, quantity: 1},
	},
	ChestRare: {
		{weight: 30, spits: 300},
		{weight: 25, gold: 40},
		{weight: 15, item: WeaponSoldier, quantity: 2},
		{weight: 12, item: PotionMedium, quantity: 2},
		{weight: 10, item: BuffFirewall, quantity: 1},
		{weight: 8, item: WeaponDrone, quantity: 1},
	},
	ChestLegendary: {
		{weight: 25, spits: 1500},
		{weight: 25, gold: 180},
		{weight: 15, item: WeaponNuke, quantity: 1},
		{weight: 15, item: BuffMirrorShield, quantity: 1},
		{weight: 10, item: PotionFull, quantity: 1},
		{weight: 10, item: WeaponEMP, quantity: 2},
	},
}

func ParseChestRarity(v string) (ChestRarity, error) {
	r := ChestRarity(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := chestPrices[r]; !ok {
		return "", ErrUnknownChest
	}
	return r, nil
}

func ChestPrice(r ChestRarity) int64 {
	return chestPrices[r]
}

type ChestReward struct {
	Spits    int64    `json:"spits,omitempty"`
	Gold     int64    `json:"gold,omitempty"`
	Item     ItemType `json:"item,omitempty"`
	Quantity int64    `json:"quantity,omitempty"`
}

// RollChest draws one reward from the rarity's weighted table.
func RollChest(r ChestRarity, rng Rand) ChestReward {
	table := lootTables[r]
	total := 0
	for _, row := range table {
		total += row.weight
	}
	if total == 0 {
		return ChestReward{}
	}
	n := rng.Intn(total)
	for _, row := range table {
		if n < row.weight {
			return ChestReward{Spits: row.spits, Gold: row.gold, Item: row.item, Quantity: row.quantity}
		}
		n -= row.weight
	}
	return ChestReward{}
}

const ScratchTicketPrice = int64(10)

type payout struct {
	upTo  float64
	prize int64
}

// Cumulative probabilities; anything past the last band pays the jackpot.
var scratchPayouts = []payout{
	{upTo: 0.70, prize: 0},
	{upTo: 0.85, prize: 5},
	{upTo: 0.95, prize: 20},
	{upTo: 0.995, prize: 100},
}

const scratchJackpot = int64(1000)

// ScratchPrize draws the spit prize of one scratch ticket.
func ScratchPrize(rng Rand) int64 {
	roll := rng.Float64()
	for _, p := range scratchPayouts {
		if roll < p.upTo {
			return p.prize
		}
	}
	return scratchJackpot
}
