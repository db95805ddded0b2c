package api

import (
	"context"
	"net/http"
	"strconv"

	"spitr/internal/economy"
	"spitr/internal/game"
)

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		TargetUser   string `json:"target_user"`
		TargetSpitID int64  `json:"target_spit_id"`
		Weapon       string `json:"weapon"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.game.Attack(r.Context(), game.AttackInput{
		AttackerID:     user.UserID,
		TargetUserID:   in.TargetUser,
		TargetSpitID:   in.TargetSpitID,
		Weapon:         in.Weapon,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	switch {
	case res.Outcome.Blocked():
		attacksTotal.WithLabelValues("blocked").Inc()
	case res.TargetDestroyed:
		attacksTotal.WithLabelValues("destroyed").Inc()
	default:
		attacksTotal.WithLabelValues("hit").Inc()
	}
	writeOK(w, http.StatusOK, map[string]any{"result": res})
}

func (s *Server) handleAttackLog(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.AttackLog(r.Context(), user.UserID, limitParam(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"attacks": out})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	chests := map[string]int64{}
	for _, rarity := range []economy.ChestRarity{economy.ChestCommon, economy.ChestRare, economy.ChestLegendary} {
		chests[string(rarity)] = economy.ChestPrice(rarity)
	}
	writeOK(w, http.StatusOK, map[string]any{
		"items":         economy.Catalog(),
		"chests":        chests,
		"scratch_price": economy.ScratchTicketPrice,
	})
}

func (s *Server) handleBuyItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Item     string `json:"item"`
		Quantity int64  `json:"quantity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.BuyItem(r.Context(), game.BuyItemInput{
		UserID:         user.UserID,
		Item:           in.Item,
		Quantity:       in.Quantity,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"purchase": out})
}

func (s *Server) handleUseItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Item string `json:"item"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.UseItem(r.Context(), user.UserID, in.Item, idempotencyKey(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"result": out})
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Inventory(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"inventory": out})
}

func (s *Server) handleBuffs(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Buffs(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"buffs": out})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		From   string `json:"from"`
		Amount int64  `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.ConvertCurrency(r.Context(), game.ConvertInput{
		UserID:         user.UserID,
		From:           in.From,
		Amount:         in.Amount,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"conversion": out})
}

func (s *Server) handleChests(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.ListChests(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"chests": out})
}

func (s *Server) handleBuyChest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Rarity string `json:"rarity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.BuyChest(r.Context(), user.UserID, in.Rarity, idempotencyKey(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"chest": out})
}

func (s *Server) handleOpenChest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.OpenChest(r.Context(), user.UserID, id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"chest": out})
}

func (s *Server) handleScratch(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.BuyScratchTicket(r.Context(), user.UserID, idempotencyKey(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"ticket": out})
}

func (s *Server) handleRates(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string]any{"rates": s.game.CurrentRates()})
}

func (s *Server) handleDeposits(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.ListDeposits(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"deposits": out})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Currency string `json:"currency"`
		Amount   int64  `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.Deposit(r.Context(), game.DepositInput{
		UserID:         user.UserID,
		Currency:       in.Currency,
		Amount:         in.Amount,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"deposit": out})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		DepositID int64 `json:"deposit_id"`
		Amount    int64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.Withdraw(r.Context(), game.WithdrawInput{
		UserID:         user.UserID,
		DepositID:      in.DepositID,
		Amount:         in.Amount,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"withdrawal": out})
}

func (s *Server) handleOpenCD(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Currency string `json:"currency"`
		Amount   int64  `json:"amount"`
		TermDays int    `json:"term_days"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.OpenCD(r.Context(), game.OpenCDInput{
		UserID:         user.UserID,
		Currency:       in.Currency,
		Amount:         in.Amount,
		TermDays:       in.TermDays,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"cd": out})
}

func (s *Server) handleRedeemCD(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.RedeemCD(r.Context(), user.UserID, id, idempotencyKey(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"redemption": out})
}

func (s *Server) handleStockQuote(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string]any{"quote": s.game.StockQuote()})
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Holdings(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"holding": out})
}

func (s *Server) handleBuyStock(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, s.game.BuyStock)
}

func (s *Server) handleSellStock(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, s.game.SellStock)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, trade func(ctx context.Context, in game.TradeInput) (game.StockTrade, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Shares int64 `json:"shares"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := trade(r.Context(), game.TradeInput{UserID: user.UserID, Shares: in.Shares, IdempotencyKey: idempotencyKey(r)})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"trade": out})
}

func (s *Server) handleCreditCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.CreditCardState(r.Context(), user.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"card": out})
}

func (s *Server) handleCreditCharge(w http.ResponseWriter, r *http.Request) {
	s.handleCard(w, r, s.game.ChargeCard)
}

func (s *Server) handleCreditPay(w http.ResponseWriter, r *http.Request) {
	s.handleCard(w, r, s.game.PayCard)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, in game.CardInput) (game.CreditCard, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := op(r.Context(), game.CardInput{UserID: user.UserID, Amount: in.Amount, IdempotencyKey: idempotencyKey(r)})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"card": out})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		To       string `json:"to"`
		Currency string `json:"currency"`
		Amount   int64  `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.Transfer(r.Context(), game.TransferInput{
		FromID:         user.UserID,
		To:             in.To,
		Currency:       in.Currency,
		Amount:         in.Amount,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	penalized := out.SenderPenaltyHP > 0 || out.ReceiverPenaltyHP > 0
	transfersTotal.WithLabelValues(string(out.Currency), strconv.FormatBool(penalized)).Inc()
	writeOK(w, http.StatusOK, map[string]any{"transfer": out})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Ledger(r.Context(), user.UserID, r.URL.Query().Get("currency"), limitParam(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"entries": out})
}

func (s *Server) handleVerifyLedger(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.VerifyLedger(r.Context(), user.UserID, r.URL.Query().Get("currency"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"report": out})
}
