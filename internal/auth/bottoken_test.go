package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("k", 32)

func TestBotTokenRoundTrip(t *testing.T) {
	tokens := NewBotTokens(testSecret, time.Hour)
	issued, err := tokens.Issue("bot-1", "owner-1")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := tokens.Parse(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "bot-1", claims.Subject)
	assert.Equal(t, "owner-1", claims.OwnerID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.True(t, MatchesHash(issued.Token, issued.Hash))

	other, err := tokens.Issue("bot-1", "owner-1")
	require.NoError(t, err)
	assert.False(t, MatchesHash(other.Token, issued.Hash))
}

func TestBotTokenRejectsTamperingAndExpiry(t *testing.T) {
	tokens := NewBotTokens(testSecret, time.Hour)
	issued, err := tokens.Issue("bot-1", "owner-1")
	require.NoError(t, err)

	_, err = NewBotTokens(strings.Repeat("x", 32), time.Hour).Parse(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidBotToken)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidBotToken)
}

func TestBotTokenRejectsUserTokens(t *testing.T) {
	plain := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"jti": "x",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := plain.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewBotTokens(testSecret, time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidBotToken)
}
