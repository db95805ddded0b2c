package api

import (
	"net/http"

	"spitr/internal/economy"

	"github.com/go-chi/chi/v5"
)

// handleBotSelfStatus is what a bot runner polls with its own token.
func (s *Server) handleBotSelfStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !user.IsBot {
		writeError(w, http.StatusForbidden, "bot token required")
		return
	}
	out, err := s.game.BotStatus(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"status": out})
}

func (s *Server) handleListBots(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.ListBots(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"bots": out})
}

func (s *Server) handleCreateBot(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Name   string            `json:"name"`
		Config economy.BotConfig `json:"config"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.CreateBot(r.Context(), user.UserID, in.Name, in.Config)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.log.Info("bot created", "owner_id", user.UserID, "bot_id", out.ID)
	writeOK(w, http.StatusCreated, map[string]any{"bot": out})
}

func (s *Server) handleUpdateBotConfig(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var cfg economy.BotConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.UpdateBotConfig(r.Context(), user.UserID, chi.URLParam(r, "id"), cfg)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"bot": out})
}

func (s *Server) handleOwnedBotStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.BotStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	// Someone else's bot looks the same as a missing one.
	if out.Bot.OwnerID != user.UserID {
		writeError(w, http.StatusNotFound, "bot not found")
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"status": out})
}

func (s *Server) handleIssueBotToken(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if s.bots == nil {
		writeError(w, http.StatusServiceUnavailable, "bot tokens are not configured")
		return
	}
	botID := chi.URLParam(r, "id")
	out, err := s.game.IssueBotToken(r.Context(), user.UserID, botID, s.bots)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.log.Info("bot token issued", "owner_id", user.UserID, "bot_id", botID, "token_id", out.ID)
	writeOK(w, http.StatusCreated, map[string]any{"token": out})
}

func (s *Server) handleRevokeBotTokens(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := s.game.RevokeBotTokens(r.Context(), user.UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"revoked": n})
}
