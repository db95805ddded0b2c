package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCalls atomic.Int64

func fakeGoTrue(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"user":         map[string]any{"id": "u1", "email": in["email"], "user_metadata": in["data"]},
		})
	})
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "user": map[string]any{"id": "u1"}})
	})
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		userCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "u1", "email": "a@b.c"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSupabaseSignUpCarriesUsername(t *testing.T) {
	srv := fakeGoTrue(t)
	c := NewSupabaseClient(srv.URL+"/", "anon")

	session, err := c.SignUp(context.Background(), "a@b.c", "secret", "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, "alice", session.User.Username())
}

func TestSupabaseLoginMapsBadCredentials(t *testing.T) {
	srv := fakeGoTrue(t)
	c := NewSupabaseClient(srv.URL, "anon")

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := c.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", session.AccessToken)
}

func TestSupabaseVerifyAccessToken(t *testing.T) {
	srv := fakeGoTrue(t)
	c := NewSupabaseClient(srv.URL, "anon")

	user, err := c.VerifyAccessToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = c.VerifyAccessToken(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSupabaseVerifyCachesUntilTTL(t *testing.T) {
	srv := fakeGoTrue(t)
	c := NewSupabaseClient(srv.URL, "anon")
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	start := userCalls.Load()

	for range 3 {
		_, err := c.VerifyAccessToken(context.Background(), "tok")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), userCalls.Load()-start)

	now = now.Add(verifyTTL)
	_, err := c.VerifyAccessToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(2), userCalls.Load()-start)
}
