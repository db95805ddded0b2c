package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spitr/internal/auth"
	"spitr/internal/config"
	"spitr/internal/economy"
	"spitr/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type contextKey string

const userContextKey contextKey = "user"

const accessTokenCookie = "sb-access-token"

// Authenticator is the slice of the Supabase client the API uses.
type Authenticator interface {
	SignUp(ctx context.Context, email, password, username string) (auth.Session, error)
	Login(ctx context.Context, email, password string) (auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (auth.Session, error)
	VerifyAccessToken(ctx context.Context, accessToken string) (auth.SupabaseUser, error)
}

// BotCredentials looks up the stored hash of a bot token.
type BotCredentials interface {
	BotCredential(ctx context.Context, tokenID, botID string) (game.BotCredential, error)
}

type UserContext struct {
	UserID string
	Email  string
	Token  string
	// Set when the caller authenticated with a bot token. UserID is then the bot.
	IsBot   bool
	OwnerID string
}

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	auth     Authenticator
	bots     *auth.BotTokens
	botCreds BotCredentials
	game     *game.Service
	limiter  *RateLimiter
	mux      *chi.Mux
}

type Option func(*Server)

func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

func WithBotCredentials(c BotCredentials) Option {
	return func(s *Server) { s.botCreds = c }
}

func New(cfg config.APIConfig, logger *slog.Logger, authClient Authenticator, bots *auth.BotTokens, gameSvc *game.Service, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		auth: authClient,
		bots: bots,
		game: gameSvc,
		mux:  chi.NewRouter(),
	}
	if gameSvc != nil {
		s.botCreds = gameSvc
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewRateLimiter(nil, cfg.RateLimit, cfg.RateWindow, logger)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(instrument)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/push/webhook", s.handlePushWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/me", s.handleMe)
			r.Patch("/me", s.handleUpdateProfile)
			r.Get("/me/balances", s.handleBalances)
			r.Get("/users/{user}", s.handleProfile)
			r.Get("/users/{user}/spits", s.handleUserSpits)
			r.Post("/users/{user}/follow", s.handleFollow)
			r.Delete("/users/{user}/follow", s.handleUnfollow)

			r.Get("/feed", s.handleFeed)
			r.Post("/spits", s.handleCreateSpit)
			r.Get("/spits/{id}", s.handleGetSpit)
			r.Delete("/spits/{id}", s.handleDeleteSpit)
			r.Post("/spits/{id}/like", s.handleLike)
			r.Delete("/spits/{id}/like", s.handleUnlike)
			r.Post("/spits/{id}/respit", s.handleRespit)
			r.Delete("/spits/{id}/respit", s.handleUnrespit)

			r.Get("/messages", s.handleConversations)
			r.Post("/messages", s.handleSendMessage)
			r.Get("/messages/{conversation}", s.handleMessages)
			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/read", s.handleMarkRead)

			r.With(s.limiter.Middleware).Post("/attack", s.handleAttack)
			r.Get("/attack/log", s.handleAttackLog)

			r.Get("/shop", s.handleCatalog)
			r.Post("/shop/buy", s.handleBuyItem)
			r.Post("/items/use", s.handleUseItem)
			r.Get("/inventory", s.handleInventory)
			r.Get("/buffs", s.handleBuffs)
			r.Post("/convert", s.handleConvert)

			r.Get("/chests", s.handleChests)
			r.Post("/chests", s.handleBuyChest)
			r.Post("/chests/{id}/open", s.handleOpenChest)
			r.Post("/lottery/scratch", s.handleScratch)

			r.Get("/bank/rates", s.handleRates)
			r.Get("/bank/deposits", s.handleDeposits)
			r.Post("/bank/deposit", s.handleDeposit)
			r.Post("/bank/withdraw", s.handleWithdraw)
			r.Post("/bank/cd", s.handleOpenCD)
			r.Post("/bank/cd/{id}/redeem", s.handleRedeemCD)

			r.Get("/stocks", s.handleStockQuote)
			r.Get("/stocks/holdings", s.handleHoldings)
			r.Post("/stocks/buy", s.handleBuyStock)
			r.Post("/stocks/sell", s.handleSellStock)

			r.Get("/credit", s.handleCreditCard)
			r.Post("/credit/charge", s.handleCreditCharge)
			r.Post("/credit/pay", s.handleCreditPay)

			r.With(s.limiter.Middleware).Post("/transfers", s.handleTransfer)
			r.Get("/ledger", s.handleLedger)
			r.Get("/ledger/verify", s.handleVerifyLedger)

			r.Get("/bot/status", s.handleBotSelfStatus)

			r.Group(func(r chi.Router) {
				r.Use(humansOnly)
				r.Get("/bots", s.handleListBots)
				r.Post("/bots", s.handleCreateBot)
				r.Put("/bots/{id}/config", s.handleUpdateBotConfig)
				r.Get("/bots/{id}/status", s.handleOwnedBotStatus)
				r.Post("/bots/{id}/tokens", s.handleIssueBotToken)
				r.Delete("/bots/{id}/tokens", s.handleRevokeBotTokens)
			})
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.game != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.game.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// authMiddleware accepts a Supabase access token (header or cookie) for people and
// "Bot <jwt>" for bots.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if token := botToken(header); token != "" {
			user, err := s.authenticateBot(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid bot token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
			return
		}

		token := bearerToken(header)
		if token == "" {
			if c, err := r.Cookie(accessTokenCookie); err == nil {
				token = strings.TrimSpace(c.Value)
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, err := s.auth.VerifyAccessToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, fmt.Sprintf("invalid token: %v", err))
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, UserContext{
			UserID: user.ID,
			Email:  user.Email,
			Token:  token,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authenticateBot(ctx context.Context, token string) (UserContext, error) {
	if s.bots == nil || s.botCreds == nil {
		return UserContext{}, auth.ErrInvalidBotToken
	}
	claims, err := s.bots.Parse(token)
	if err != nil {
		return UserContext{}, err
	}
	cred, err := s.botCreds.BotCredential(ctx, claims.ID, claims.Subject)
	if err != nil {
		return UserContext{}, err
	}
	if !auth.MatchesHash(token, cred.Hash) {
		return UserContext{}, auth.ErrInvalidBotToken
	}
	return UserContext{UserID: cred.BotID, IsBot: true, OwnerID: cred.OwnerID, Token: token}, nil
}

func humansOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if user.IsBot {
			writeError(w, http.StatusForbidden, "bots cannot manage bots")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFromContext(ctx context.Context) (UserContext, error) {
	v := ctx.Value(userContextKey)
	user, ok := v.(UserContext)
	if !ok || user.UserID == "" {
		return UserContext{}, errors.New("missing auth context")
	}
	return user, nil
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username != "" {
		if err := game.ValidateUsername(username); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	session, err := s.auth.SignUp(r.Context(), strings.TrimSpace(in.Email), strings.TrimSpace(in.Password), username)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if session.User.ID != "" {
		if err := s.game.EnsureUser(r.Context(), session.User.ID, session.User.Email, username); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.auth.Login(r.Context(), strings.TrimSpace(in.Email), strings.TrimSpace(in.Password))
	if err != nil {
		s.writeAuthError(w, r, err, auth.ErrInvalidCredentials)
		return
	}
	if err := s.game.EnsureUser(r.Context(), session.User.ID, session.User.Email, session.User.Username()); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &in); err != nil || strings.TrimSpace(in.RefreshToken) == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}
	session, err := s.auth.Refresh(r.Context(), strings.TrimSpace(in.RefreshToken))
	if err != nil {
		s.writeAuthError(w, r, err, auth.ErrInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// writeAuthError answers 401 for a rejected credential and 502 when the auth
// provider itself failed.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err, rejected error) {
	if errors.Is(err, rejected) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	s.log.Error("auth provider request failed", "request_id", middleware.GetReqID(r.Context()), "err", err)
	writeError(w, http.StatusBadGateway, "authentication provider unavailable")
}

// handlePushWebhook stores and relays a notification raised by an outside system.
func (s *Server) handlePushWebhook(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("x-webhook-secret")
	if s.cfg.WebhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.WebhookSecret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}
	var in struct {
		UserID string `json:"user_id"`
		Type   string `json:"type"`
		Body   string `json:"body"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.Body) == "" {
		writeError(w, http.StatusBadRequest, "user_id and body are required")
		return
	}
	kind := strings.TrimSpace(in.Type)
	if kind == "" {
		kind = "push"
	}
	n, err := s.game.PushNotification(r.Context(), in.UserID, kind, in.Body)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"notification": n})
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrDuplicateIdempotency),
		errors.Is(err, game.ErrTxConflict),
		errors.Is(err, game.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrInvalidInput),
		errors.Is(err, game.ErrNoItem),
		errors.Is(err, game.ErrTargetDestroyed),
		errors.Is(err, economy.ErrNotMatured),
		errors.Is(err, economy.ErrCreditMaxed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrDestroyed), errors.Is(err, game.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.log.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeOK adds the success flag every mutating and read route returns.
func writeOK(w http.ResponseWriter, status int, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["success"] = true
	writeJSON(w, status, fields)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}

func bearerToken(header string) string {
	return schemeToken(header, "Bearer")
}

func botToken(header string) string {
	return schemeToken(header, "Bot")
}

func schemeToken(header, scheme string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func pathInt(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func queryInt(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v
}
