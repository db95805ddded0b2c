package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired access token")
)

// SupabaseClient talks to the GoTrue REST API. Verified access tokens are cached
// for verifyTTL so the auth middleware does not hit GoTrue on every request.
type SupabaseClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	now        func() time.Time

	mu       sync.Mutex
	verified map[string]cachedUser
}

type cachedUser struct {
	user    SupabaseUser
	expires time.Time
}

const (
	verifyTTL      = 30 * time.Second
	verifyCacheMax = 4096
)

type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	TokenType    string       `json:"token_type"`
	User         SupabaseUser `json:"user"`
}

type SupabaseUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Username is the handle chosen at signup, if any.
func (u SupabaseUser) Username() string {
	if v, ok := u.UserMetadata["username"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase status %d: %s", e.status, e.body)
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}

func NewSupabaseClient(baseURL, anonKey string) *SupabaseClient {
	return &SupabaseClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		now:        time.Now,
		verified:   make(map[string]cachedUser),
	}
}

func (c *SupabaseClient) SignUp(ctx context.Context, email, password, username string) (Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	if username != "" {
		payload["data"] = map[string]string{"username": username}
	}
	var out Session
	if err := c.call(ctx, http.MethodPost, "/auth/v1/signup", "", payload, &out); err != nil {
		return Session{}, err
	}
	return out, nil
}

func (c *SupabaseClient) Login(ctx context.Context, email, password string) (Session, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	var out Session
	err := c.call(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", payload, &out)
	if statusOf(err) == http.StatusBadRequest {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	return out, nil
}

func (c *SupabaseClient) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	var out Session
	err := c.call(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", map[string]string{"refresh_token": refreshToken}, &out)
	if s := statusOf(err); s == http.StatusBadRequest || s == http.StatusUnauthorized {
		return Session{}, ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	return out, nil
}

func (c *SupabaseClient) VerifyAccessToken(ctx context.Context, accessToken string) (SupabaseUser, error) {
	sum := sha256.Sum256([]byte(accessToken))
	key := hex.EncodeToString(sum[:])
	now := c.now()
	c.mu.Lock()
	hit, ok := c.verified[key]
	c.mu.Unlock()
	if ok && now.Before(hit.expires) {
		return hit.user, nil
	}

	var user SupabaseUser
	err := c.call(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user)
	if s := statusOf(err); s == http.StatusUnauthorized || s == http.StatusForbidden {
		return SupabaseUser{}, ErrInvalidToken
	}
	if err != nil {
		return SupabaseUser{}, fmt.Errorf("verify token: %w", err)
	}
	if user.ID == "" {
		return SupabaseUser{}, fmt.Errorf("verify token: empty user")
	}

	c.mu.Lock()
	if len(c.verified) >= verifyCacheMax {
		for k, v := range c.verified {
			if !now.Before(v.expires) {
				delete(c.verified, k)
			}
		}
		if len(c.verified) >= verifyCacheMax {
			clear(c.verified)
		}
	}
	c.verified[key] = cachedUser{user: user, expires: now.Add(verifyTTL)}
	c.mu.Unlock()
	return user, nil
}

func (c *SupabaseClient) call(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", c.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
