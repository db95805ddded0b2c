// Package economy holds the deterministic rules of the SPITr economy: level curves,
// action prices, item tables, combat resolution, bank and stock formulas, transfer
// limits and the bot advisor. Nothing here touches the store; callers pass in the
// state they read and persist whatever the rules return.
package economy

import (
	"errors"
	"fmt"
	"strings"
)

type Currency string

const (
	CurrencySpits Currency = "spits"
	CurrencyGold  Currency = "gold"
)

var ErrUnknownCurrency = errors.New("currency must be spits or gold")

func ParseCurrency(v string) (Currency, error) {
	switch Currency(strings.ToLower(strings.TrimSpace(v))) {
	case CurrencySpits, "credits", "":
		return CurrencySpits, nil
	case CurrencyGold:
		return CurrencyGold, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, v)
	}
}

const (
	StartingSpits = int64(1000)
	StartingGold  = int64(0)

	BaseMaxHP     = int64(5000)
	MaxHPPerLevel = int64(500)
	MaxLevel      = 100

	SpitStartingHP = int64(10)
	SpitMaxHP      = int64(100)
	SpitMaxLength  = 280

	// One gold buys or sells for this many spits.
	SpitsPerGold = int64(10)

	LikeAuthorReward = int64(1)
	LikeAuthorHeal   = int64(5)
	LikeSpitHeal     = int64(1)
)

type Action string

const (
	ActionPost    Action = "post"
	ActionReply   Action = "reply"
	ActionQuote   Action = "quote"
	ActionRespit  Action = "respit"
	ActionLike    Action = "like"
	ActionMessage Action = "message"
	ActionFollow  Action = "follow"
	ActionAttack  Action = "attack"
)

var actionCosts = map[Action]int64{
	ActionPost:    1,
	ActionReply:   1,
	ActionQuote:   1,
	ActionRespit:  1,
	ActionLike:    1,
	ActionMessage: 1,
	ActionFollow:  0,
}

var actionXP = map[Action]int64{
	ActionPost:   10,
	ActionReply:  5,
	ActionQuote:  5,
	ActionRespit: 3,
	ActionLike:   1,
	ActionAttack: 5,
}

const (
	XPDestroyUser = int64(100)
	XPDestroySpit = int64(10)
)

// ActionCost is the spit price of an action. Unknown actions are free.
func ActionCost(a Action) int64 {
	return actionCosts[a]
}

func ActionXP(a Action) int64 {
	return actionXP[a]
}

// MaxHP grows linearly with level.
func MaxHP(level int) int64 {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return BaseMaxHP + MaxHPPerLevel*int64(level-1)
}

// XPForLevel is the total XP needed to reach level. Level 1 starts at zero.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	l := int64(level)
	return 50 * l * (l - 1)
}

func LevelForXP(xp int64) int {
	level := 1
	for level < MaxLevel && XPForLevel(level+1) <= xp {
		level++
	}
	return level
}

// XPToNextLevel returns how much XP is still missing for the next level, or zero at the cap.
func XPToNextLevel(xp int64) int64 {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 0
	}
	return XPForLevel(level+1) - xp
}

// ClampHP keeps hp inside [0, max].
func ClampHP(hp, max int64) int64 {
	if hp < 0 {
		return 0
	}
	if hp > max {
		return max
	}
	return hp
}

func ValidateSpitContent(content string) error {
	clean := strings.TrimSpace(content)
	if clean == "" {
		return fmt.Errorf("content is required")
	}
	if n := len([]rune(clean)); n > SpitMaxLength {
		return fmt.Errorf("content too long (%d > %d chars)", n, SpitMaxLength)
	}
	return nil
}

// GoldToSpits and SpitsToGold implement the fixed exchange. SpitsToGold also returns the
// spits actually consumed so remainders stay with the caller.
func GoldToSpits(gold int64) int64 {
	return gold * SpitsPerGold
}

func SpitsToGold(spits int64) (gold, used int64) {
	gold = spits / SpitsPerGold
	return gold, gold * SpitsPerGold
}
