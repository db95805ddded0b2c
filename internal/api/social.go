package api

import (
	"net/http"
	"strconv"
	"strings"

	"spitr/internal/game"

	"github.com/go-chi/chi/v5"
)

func currentUser(w http.ResponseWriter, r *http.Request) (UserContext, bool) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return UserContext{}, false
	}
	return user, true
}

func limitParam(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	p, err := s.game.Profile(r.Context(), user.UserID, user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"profile": p})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		DisplayName string `json:"display_name"`
		Bio         string `json:"bio"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.UpdateProfile(r.Context(), user.UserID, in.DisplayName, in.Bio); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	b, err := s.game.Balances(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"balances": b})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	p, err := s.game.Profile(r.Context(), user.UserID, chi.URLParam(r, "user"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"profile": p})
}

func (s *Server) handleUserSpits(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	spits, err := s.game.UserSpits(r.Context(), user.UserID, chi.URLParam(r, "user"), queryInt(r, "before"), limitParam(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"spits": spits})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := s.game.Follow(r.Context(), user.UserID, chi.URLParam(r, "user")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := s.game.Unfollow(r.Context(), user.UserID, chi.URLParam(r, "user")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	spits, err := s.game.Feed(r.Context(), user.UserID, queryInt(r, "before"), limitParam(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"spits": spits})
}

func (s *Server) handleCreateSpit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Content     string `json:"content"`
		ReplyToID   *int64 `json:"reply_to_id"`
		QuoteSpitID *int64 `json:"quote_spit_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.CreateSpit(r.Context(), game.CreateSpitInput{
		UserID:      user.UserID,
		Content:     in.Content,
		ReplyToID:   in.ReplyToID,
		QuoteSpitID: in.QuoteSpitID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"spit": out.Spit, "balance": out.Balance, "level": out.Level})
}

func (s *Server) handleGetSpit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	spit, err := s.game.GetSpit(r.Context(), user.UserID, id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"spit": spit})
}

// spitAction runs a mutation that only needs the caller and the spit id.
func (s *Server) spitAction(w http.ResponseWriter, r *http.Request, fn func(userID string, spitID int64) (map[string]any, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := fn(user.UserID, id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, out)
}

func (s *Server) handleDeleteSpit(w http.ResponseWriter, r *http.Request) {
	s.spitAction(w, r, func(userID string, spitID int64) (map[string]any, error) {
		return nil, s.game.DeleteSpit(r.Context(), userID, spitID)
	})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	s.spitAction(w, r, func(userID string, spitID int64) (map[string]any, error) {
		res, err := s.game.LikeSpit(r.Context(), userID, spitID)
		return map[string]any{"rewarded": res.Rewarded, "balance": res.Balance, "spit_hp": res.SpitHP}, err
	})
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request) {
	s.spitAction(w, r, func(userID string, spitID int64) (map[string]any, error) {
		return nil, s.game.UnlikeSpit(r.Context(), userID, spitID)
	})
}

func (s *Server) handleRespit(w http.ResponseWriter, r *http.Request) {
	s.spitAction(w, r, func(userID string, spitID int64) (map[string]any, error) {
		return nil, s.game.Respit(r.Context(), userID, spitID)
	})
}

func (s *Server) handleUnrespit(w http.ResponseWriter, r *http.Request) {
	s.spitAction(w, r, func(userID string, spitID int64) (map[string]any, error) {
		return nil, s.game.Unrespit(r.Context(), userID, spitID)
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.ListConversations(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"conversations": out})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		To      string `json:"to"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msg, err := s.game.SendMessage(r.Context(), user.UserID, strings.TrimSpace(in.To), in.Content)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"message": msg})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt(r, "conversation")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.ListMessages(r.Context(), user.UserID, id, queryInt(r, "before"), limitParam(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	unread := r.URL.Query().Get("unread") == "1"
	out, err := s.game.ListNotifications(r.Context(), user.UserID, unread, limitParam(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"notifications": out})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.game.MarkNotificationsRead(r.Context(), user.UserID, in.IDs)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"updated": n})
}
