package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spitr/internal/auth"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// Permanent reports whether retrying the same request cannot succeed.
func (e *APIError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests && e.Status != http.StatusRequestTimeout
}

// IsPermanent is true for API errors that a retry will not fix. Transport errors
// are never permanent.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Permanent()
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Scheme is the Authorization scheme, "Bearer" for people and "Bot" for bots.
	Scheme string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
		Scheme: "Bearer",
	}
}

// NewBotClient authenticates every request with a bot token.
func NewBotClient(baseURL string) *Client {
	c := NewClient(baseURL)
	c.Scheme = "Bot"
	return c
}

func (c *Client) Signup(ctx context.Context, email, password, username string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":    email,
		"password": password,
		"username": username,
	}, &out, "")
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/api/auth/refresh", "", map[string]any{
		"refresh_token": refreshToken,
	}, &out, "")
	return out, err
}

func (c *Client) Me(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/me", accessToken, nil, "")
}

func (c *Client) UpdateProfile(ctx context.Context, accessToken string, fields map[string]any) (map[string]any, error) {
	return c.Do(ctx, http.MethodPatch, "/api/me", accessToken, fields, "")
}

func (c *Client) Balances(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/me/balances", accessToken, nil, "")
}

func (c *Client) Profile(ctx context.Context, accessToken, user string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(user), accessToken, nil, "")
}

func (c *Client) UserSpits(ctx context.Context, accessToken, user string, before int64, limit int) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(user)+"/spits"+page(before, limit), accessToken, nil, "")
}

func (c *Client) Follow(ctx context.Context, accessToken, user string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/users/"+url.PathEscape(user)+"/follow", accessToken, nil, "")
}

func (c *Client) Unfollow(ctx context.Context, accessToken, user string) (map[string]any, error) {
	return c.Do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(user)+"/follow", accessToken, nil, "")
}

func (c *Client) Feed(ctx context.Context, accessToken string, before int64, limit int) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/feed"+page(before, limit), accessToken, nil, "")
}

func (c *Client) Post(ctx context.Context, accessToken, content string, replyTo int64, idem string) (map[string]any, error) {
	body := map[string]any{"content": content}
	if replyTo > 0 {
		body["reply_to_id"] = replyTo
	}
	return c.Do(ctx, http.MethodPost, "/api/spits", accessToken, body, idem)
}

func (c *Client) GetSpit(ctx context.Context, accessToken string, id int64) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/spits/%d", id), accessToken, nil, "")
}

func (c *Client) DeleteSpit(ctx context.Context, accessToken string, id int64) (map[string]any, error) {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/spits/%d", id), accessToken, nil, "")
}

// SpitAction toggles a like or respit. action is "like" or "respit".
func (c *Client) SpitAction(ctx context.Context, accessToken string, id int64, action string, undo bool) (map[string]any, error) {
	method := http.MethodPost
	if undo {
		method = http.MethodDelete
	}
	return c.Do(ctx, method, fmt.Sprintf("/api/spits/%d/%s", id, action), accessToken, nil, "")
}

func (c *Client) Conversations(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/messages", accessToken, nil, "")
}

func (c *Client) SendMessage(ctx context.Context, accessToken, to, content, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/messages", accessToken, map[string]any{
		"to":      to,
		"content": content,
	}, idem)
}

func (c *Client) Messages(ctx context.Context, accessToken string, conversationID, before int64, limit int) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/messages/%d%s", conversationID, page(before, limit)), accessToken, nil, "")
}

func (c *Client) Notifications(ctx context.Context, accessToken string, unreadOnly bool) (map[string]any, error) {
	path := "/api/notifications"
	if unreadOnly {
		path += "?unread=1"
	}
	return c.Do(ctx, http.MethodGet, path, accessToken, nil, "")
}

func (c *Client) MarkRead(ctx context.Context, accessToken string, ids []string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/notifications/read", accessToken, map[string]any{"ids": ids}, "")
}

// Attack targets a user when spitID is zero and a spit otherwise.
func (c *Client) Attack(ctx context.Context, accessToken, weapon, targetUser string, spitID int64, idem string) (map[string]any, error) {
	body := map[string]any{"weapon": weapon}
	if spitID > 0 {
		body["target_spit_id"] = spitID
	} else {
		body["target_user"] = targetUser
	}
	return c.Do(ctx, http.MethodPost, "/api/attack", accessToken, body, idem)
}

func (c *Client) AttackLog(ctx context.Context, accessToken string, limit int) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/attack/log"+page(0, limit), accessToken, nil, "")
}

func (c *Client) Shop(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/shop", accessToken, nil, "")
}

func (c *Client) BuyItem(ctx context.Context, accessToken, item string, quantity int64, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/shop/buy", accessToken, map[string]any{
		"item":     item,
		"quantity": quantity,
	}, idem)
}

func (c *Client) UseItem(ctx context.Context, accessToken, item, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/items/use", accessToken, map[string]any{"item": item}, idem)
}

func (c *Client) Inventory(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/inventory", accessToken, nil, "")
}

func (c *Client) Buffs(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/buffs", accessToken, nil, "")
}

func (c *Client) Convert(ctx context.Context, accessToken, from string, amount int64, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/convert", accessToken, map[string]any{
		"from":   from,
		"amount": amount,
	}, idem)
}

func (c *Client) Chests(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/chests", accessToken, nil, "")
}

func (c *Client) BuyChest(ctx context.Context, accessToken, rarity, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/chests", accessToken, map[string]any{"rarity": rarity}, idem)
}

func (c *Client) OpenChest(ctx context.Context, accessToken string, id int64) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/chests/%d/open", id), accessToken, nil, "")
}

func (c *Client) Scratch(ctx context.Context, accessToken, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/lottery/scratch", accessToken, nil, idem)
}

func (c *Client) Rates(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/bank/rates", accessToken, nil, "")
}

func (c *Client) Deposits(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/bank/deposits", accessToken, nil, "")
}

func (c *Client) Deposit(ctx context.Context, accessToken, currency string, amount int64, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/bank/deposit", accessToken, map[string]any{
		"currency": currency,
		"amount":   amount,
	}, idem)
}

// Withdraw takes amount from a savings deposit; zero withdraws everything.
func (c *Client) Withdraw(ctx context.Context, accessToken string, depositID, amount int64, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/bank/withdraw", accessToken, map[string]any{
		"deposit_id": depositID,
		"amount":     amount,
	}, idem)
}

func (c *Client) OpenCD(ctx context.Context, accessToken, currency string, amount int64, termDays int, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/bank/cd", accessToken, map[string]any{
		"currency":  currency,
		"amount":    amount,
		"term_days": termDays,
	}, idem)
}

func (c *Client) RedeemCD(ctx context.Context, accessToken string, id int64, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/bank/cd/%d/redeem", id), accessToken, nil, idem)
}

func (c *Client) StockQuote(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/stocks", accessToken, nil, "")
}

func (c *Client) Holdings(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/stocks/holdings", accessToken, nil, "")
}

// Trade buys or sells shares. side is "buy" or "sell".
func (c *Client) Trade(ctx context.Context, accessToken, side string, shares int64, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/stocks/"+side, accessToken, map[string]any{"shares": shares}, idem)
}

func (c *Client) CreditCard(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/credit", accessToken, nil, "")
}

// Card charges or pays the credit card. op is "charge" or "pay".
func (c *Client) Card(ctx context.Context, accessToken, op string, amount int64, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/credit/"+op, accessToken, map[string]any{"amount": amount}, idem)
}

func (c *Client) Transfer(ctx context.Context, accessToken, to, currency string, amount int64, idem string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/transfers", accessToken, map[string]any{
		"to":       to,
		"currency": currency,
		"amount":   amount,
	}, idem)
}

func (c *Client) Ledger(ctx context.Context, accessToken, currency string, limit int) (map[string]any, error) {
	q := url.Values{}
	q.Set("currency", currency)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.Do(ctx, http.MethodGet, "/api/ledger?"+q.Encode(), accessToken, nil, "")
}

func (c *Client) VerifyLedger(ctx context.Context, accessToken, currency string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/ledger/verify?currency="+url.QueryEscape(currency), accessToken, nil, "")
}

func (c *Client) ListBots(ctx context.Context, accessToken string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/bots", accessToken, nil, "")
}

func (c *Client) CreateBot(ctx context.Context, accessToken, name string, config map[string]any) (map[string]any, error) {
	body := map[string]any{"name": name}
	if config != nil {
		body["config"] = config
	}
	return c.Do(ctx, http.MethodPost, "/api/bots", accessToken, body, "")
}

func (c *Client) UpdateBotConfig(ctx context.Context, accessToken, botID string, config map[string]any) (map[string]any, error) {
	return c.Do(ctx, http.MethodPut, "/api/bots/"+url.PathEscape(botID)+"/config", accessToken, config, "")
}

func (c *Client) OwnedBotStatus(ctx context.Context, accessToken, botID string) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, "/api/bots/"+url.PathEscape(botID)+"/status", accessToken, nil, "")
}

func (c *Client) IssueBotToken(ctx context.Context, accessToken, botID string) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, "/api/bots/"+url.PathEscape(botID)+"/tokens", accessToken, nil, "")
}

func (c *Client) RevokeBotTokens(ctx context.Context, accessToken, botID string) (map[string]any, error) {
	return c.Do(ctx, http.MethodDelete, "/api/bots/"+url.PathEscape(botID)+"/tokens", accessToken, nil, "")
}

// BotStatus is polled by a bot with its own token.
func (c *Client) BotStatus(ctx context.Context, botToken string, out any) error {
	return c.jsonRequest(ctx, http.MethodGet, "/api/bot/status", botToken, nil, out, "")
}

func (c *Client) Do(ctx context.Context, method, path, accessToken string, body map[string]any, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, method, path, accessToken, body, &out, idem)
	return out, err
}

func page(before int64, limit int) string {
	q := url.Values{}
	if before > 0 {
		q.Set("before", strconv.FormatInt(before, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) jsonRequest(ctx context.Context, method, path, accessToken string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		scheme := c.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}
		req.Header.Set("Authorization", scheme+" "+accessToken)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
