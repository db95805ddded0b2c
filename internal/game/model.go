package game

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"spitr/internal/economy"
)

const (
	MessageMaxLength  = 2000
	DisplayNameMaxLen = 50
	BioMaxLength      = 160
	MaxBotsPerOwner   = 5
	StockSymbol       = "SPIT"
	botIDPrefix       = "bot_"
	usernameMinLength = 3
	usernameMaxLength = 24
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrDestroyed            = errors.New("account is destroyed")
	ErrTargetDestroyed      = errors.New("target is already destroyed")
	ErrAlreadyExists        = errors.New("already exists")
	ErrNoItem               = errors.New("item not in inventory")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrTxConflict           = errors.New("transaction conflict, try again")
)

var usernameRE = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

var blockedNameFragments = []string{
	"admin",
	"moderator",
	"support",
	"spitr",
	"fuck",
	"nazi",
}

func ValidateUsername(username string) error {
	if !usernameRE.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-24 chars of a-z, 0-9 or _", ErrInvalidInput)
	}
	for _, fragment := range blockedNameFragments {
		if strings.Contains(username, fragment) {
			return fmt.Errorf("%w: username contains blocked content", ErrInvalidInput)
		}
	}
	return nil
}

func ValidateMessage(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > MessageMaxLength {
		return fmt.Errorf("%w: message longer than %d characters", ErrInvalidInput, MessageMaxLength)
	}
	return nil
}

func usernameFromEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "spitter"
	}
	return sanitizeUsername(local)
}

func sanitizeUsername(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "spitter"
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	res := strings.Trim(string(out), "_")
	if len(res) < usernameMinLength {
		res = "spitter_" + res
	}
	if len(res) > usernameMaxLength {
		res = res[:usernameMaxLength]
	}
	return res
}

// invalid wraps a rule error from the economy package so handlers map it to 400.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func parseCurrency(v string) (economy.Currency, error) {
	c, err := economy.ParseCurrency(v)
	if err != nil {
		return "", invalid(err)
	}
	return c, nil
}

func requirePositive(name string, v int64) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be > 0", ErrInvalidInput, name)
	}
	return nil
}
