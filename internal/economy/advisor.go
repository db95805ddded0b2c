package economy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Strategy string

const (
	StrategyConservative Strategy = "conservative"
	StrategyBalanced     Strategy = "balanced"
	StrategyAggressive   Strategy = "aggressive"
)

var ErrUnknownStrategy = errors.New("strategy must be conservative, balanced or aggressive")

func ParseStrategy(v string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(v))); s {
	case StrategyConservative, StrategyBalanced, StrategyAggressive:
		return s, nil
	case "":
		return StrategyBalanced, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, v)
	}
}

type BotConfig struct {
	Strategy        Strategy `json:"strategy"`
	SpitReserve     int64    `json:"spit_reserve"`
	MaxOpenCDs      int      `json:"max_open_cds"`
	CDTermDays      int      `json:"cd_term_days"`
	AutoConsolidate bool     `json:"auto_consolidate"`
}

func DefaultBotConfig() BotConfig {
	return BotConfig{
		Strategy:    StrategyBalanced,
		SpitReserve: 100,
		MaxOpenCDs:  3,
		CDTermDays:  7,
	}
}

func (c BotConfig) Validate() error {
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if c.SpitReserve < 0 {
		return fmt.Errorf("spit_reserve must be >= 0")
	}
	if c.MaxOpenCDs < 0 || c.MaxOpenCDs > 20 {
		return fmt.Errorf("max_open_cds must be between 0 and 20")
	}
	if _, err := LookupCDTerm(c.CDTermDays); err != nil {
		return err
	}
	return nil
}

type CDSnapshot struct {
	ID          int64     `json:"id"`
	Currency    Currency  `json:"currency"`
	Principal   int64     `json:"principal"`
	Rate        float64   `json:"rate"`
	DepositedAt time.Time `json:"deposited_at"`
	TermDays    int       `json:"term_days"`
}

type DepositSnapshot struct {
	ID          int64     `json:"id"`
	Currency    Currency  `json:"currency"`
	Principal   int64     `json:"principal"`
	Rate        float64   `json:"rate"`
	DepositedAt time.Time `json:"deposited_at"`
	Withdrawn   int64     `json:"withdrawn"`
}

type AdvisorSnapshot struct {
	OwnerID   string             `json:"owner_id"`
	Spits     int64              `json:"spits"`
	Gold      int64              `json:"gold"`
	Deposits  []DepositSnapshot  `json:"deposits"`
	CDs       []CDSnapshot       `json:"cds"`
	SentToday map[Currency]int64 `json:"sent_today"`
}

type AdviceKind string

const (
	AdviceRedeemCD    AdviceKind = "redeem_cd"
	AdviceConvert     AdviceKind = "convert_currency"
	AdviceOpenCD      AdviceKind = "open_cd"
	AdviceConsolidate AdviceKind = "consolidate"
)

type Advice struct {
	Priority int        `json:"priority"`
	Kind     AdviceKind `json:"kind"`
	CDID     int64      `json:"cd_id,omitempty"`
	From     Currency   `json:"from,omitempty"`
	Currency Currency   `json:"currency,omitempty"`
	Amount   int64      `json:"amount,omitempty"`
	TermDays int        `json:"term_days,omitempty"`
	ToUserID string     `json:"to_user_id,omitempty"`
	Reason   string     `json:"reason"`
}

const (
	minConvertExcess = int64(100)
	MinCDPrincipal   = int64(100)
)

// Advise turns an account snapshot into an ordered list of suggested actions. Later
// suggestions account for the balances earlier ones would produce.
func Advise(snap AdvisorSnapshot, cfg BotConfig, now time.Time) []Advice {
	spits, gold := snap.Spits, snap.Gold
	var out []Advice
	add := func(a Advice) {
		a.Priority = len(out) + 1
		out = append(out, a)
	}

	openCDs := 0
	for _, cd := range snap.CDs {
		if !CDMatured(cd.DepositedAt, cd.TermDays, now) {
			openCDs++
			continue
		}
		value := CDValue(cd.Principal, cd.Rate, cd.DepositedAt, cd.TermDays, now)
		if cd.Currency == CurrencyGold {
			gold += value
		} else {
			spits += value
		}
		add(Advice{
			Kind:     AdviceRedeemCD,
			CDID:     cd.ID,
			Currency: cd.Currency,
			Amount:   value,
			Reason:   fmt.Sprintf("cd %d matured at %s", cd.ID, CDMaturesAt(cd.DepositedAt, cd.TermDays).Format(time.RFC3339)),
		})
	}

	excess := spits - cfg.SpitReserve
	if cfg.Strategy != StrategyConservative && excess > minConvertExcess {
		g, used := SpitsToGold(excess)
		if g > 0 {
			spits -= used
			gold += g
			add(Advice{
				Kind:     AdviceConvert,
				From:     CurrencySpits,
				Currency: CurrencyGold,
				Amount:   used,
				Reason:   fmt.Sprintf("%d spits above reserve %d", excess, cfg.SpitReserve),
			})
		}
	}

	if cfg.Strategy != StrategyAggressive && openCDs < cfg.MaxOpenCDs {
		principal := spits - cfg.SpitReserve
		if principal >= MinCDPrincipal {
			term, err := LookupCDTerm(cfg.CDTermDays)
			if err != nil {
				term = cdTerms[0]
			}
			spits -= principal
			add(Advice{
				Kind:     AdviceOpenCD,
				Currency: CurrencySpits,
				Amount:   principal,
				TermDays: term.Days,
				Reason:   fmt.Sprintf("idle spits at %.3f%% daily", CDRate(term, now)*100),
			})
		}
	}

	if cfg.AutoConsolidate && snap.OwnerID != "" {
		sent := snap.SentToday
		if amt := min(spits-cfg.SpitReserve, RemainingAllowance(sent[CurrencySpits], DailySpitTransferCap)); amt > 0 {
			add(Advice{
				Kind:     AdviceConsolidate,
				Currency: CurrencySpits,
				Amount:   amt,
				ToUserID: snap.OwnerID,
				Reason:   "move surplus spits to owner within daily cap",
			})
		}
		if amt := min(gold, RemainingAllowance(sent[CurrencyGold], DailyGoldTransferCap)); amt > 0 {
			add(Advice{
				Kind:     AdviceConsolidate,
				Currency: CurrencyGold,
				Amount:   amt,
				ToUserID: snap.OwnerID,
				Reason:   "move gold to owner within daily cap",
			})
		}
	}
	return out
}
