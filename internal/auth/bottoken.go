package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const botTokenType = "bot"

var ErrInvalidBotToken = errors.New("invalid bot token")

type BotClaims struct {
	OwnerID string `json:"owner_id"`
	Type    string `json:"typ"`
	jwt.RegisteredClaims
}

// IssuedBotToken is returned once to the owner. Only Hash is persisted.
type IssuedBotToken struct {
	Token     string    `json:"token"`
	ID        string    `json:"id"`
	Hash      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type BotTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewBotTokens(secret string, ttl time.Duration) *BotTokens {
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &BotTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (b *BotTokens) Issue(botID, ownerID string) (IssuedBotToken, error) {
	if strings.TrimSpace(botID) == "" {
		return IssuedBotToken{}, fmt.Errorf("bot id is required")
	}
	now := b.now()
	claims := BotClaims{
		OwnerID: ownerID,
		Type:    botTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   botID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return IssuedBotToken{}, fmt.Errorf("sign bot token: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(fingerprint(signed)), bcrypt.DefaultCost)
	if err != nil {
		return IssuedBotToken{}, fmt.Errorf("hash bot token: %w", err)
	}
	return IssuedBotToken{
		Token:     signed,
		ID:        claims.ID,
		Hash:      string(hash),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse checks the signature and time claims. Callers still have to compare the
// token against the stored hash with MatchesHash to catch revoked tokens.
func (b *BotTokens) Parse(token string) (BotClaims, error) {
	var claims BotClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return b.secret, nil
	}, jwt.WithTimeFunc(b.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return BotClaims{}, fmt.Errorf("%w: %v", ErrInvalidBotToken, err)
	}
	if claims.Type != botTokenType || claims.Subject == "" || claims.ID == "" {
		return BotClaims{}, fmt.Errorf("%w: missing claims", ErrInvalidBotToken)
	}
	return claims, nil
}

func MatchesHash(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(fingerprint(token))) == nil
}

// fingerprint is the signature segment; bcrypt only looks at 72 bytes.
func fingerprint(token string) string {
	if i := strings.LastIndexByte(token, '.'); i >= 0 {
		return token[i+1:]
	}
	return token
}
