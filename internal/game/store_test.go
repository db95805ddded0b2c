package game

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"spitr/internal/db/dbtest"
	"spitr/internal/economy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRand struct {
	float float64
	intn  int
}

func (r stubRand) Float64() float64 { return r.float }
func (r stubRand) Intn(n int) int   { return r.intn % n }

type recordingRelay struct {
	notes []Notification
}

func (r *recordingRelay) Relay(_ context.Context, n Notification) error {
	r.notes = append(r.notes, n)
	return nil
}

func newStoreService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	tdb := dbtest.Start(t)
	svc := NewService(tdb.Pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.SetRand(stubRand{float: 0.5})
	clock := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func mustUser(t *testing.T, svc *Service, id, username string) {
	t.Helper()
	require.NoError(t, svc.EnsureUser(context.Background(), id, username+"@example.com", username))
}

func TestStore(t *testing.T) {
	svc, clock := newStoreService(t)
	ctx := context.Background()
	relay := &recordingRelay{}
	svc.SetRelay(relay)

	t.Run("signup grants starting balances once", func(t *testing.T) {
		mustUser(t, svc, "u-alice", "alice")
		mustUser(t, svc, "u-alice", "alice")

		bal, err := svc.Balances(ctx, "u-alice")
		require.NoError(t, err)
		assert.Equal(t, Balances{Spits: economy.StartingSpits, Gold: 0}, bal)

		p, err := svc.Profile(ctx, "", "alice")
		require.NoError(t, err)
		assert.Equal(t, economy.MaxHP(1), p.HP)
		assert.Equal(t, 1, p.Level)

		report, err := svc.VerifyLedger(ctx, "u-alice", "spits")
		require.NoError(t, err)
		assert.True(t, report.OK)
		assert.Equal(t, 1, report.Entries)
	})

	t.Run("taken username gets a suffix", func(t *testing.T) {
		mustUser(t, svc, "u-alice2", "alice")
		p, err := svc.Profile(ctx, "", "u-alice2")
		require.NoError(t, err)
		assert.NotEqual(t, "alice", p.Username)
		assert.Contains(t, p.Username, "alice_")
	})

	t.Run("like reward is paid once per pair", func(t *testing.T) {
		mustUser(t, svc, "u-bob", "bob")
		created, err := svc.CreateSpit(ctx, CreateSpitInput{UserID: "u-alice", Content: "first spit"})
		require.NoError(t, err)
		assert.Equal(t, economy.StartingSpits-1, created.Balance)
		spitID := created.Spit.ID

		first, err := svc.LikeSpit(ctx, "u-bob", spitID)
		require.NoError(t, err)
		assert.True(t, first.Rewarded)
		assert.Equal(t, economy.SpitStartingHP+economy.LikeSpitHeal, first.SpitHP)

		_, err = svc.LikeSpit(ctx, "u-bob", spitID)
		assert.ErrorIs(t, err, ErrAlreadyExists)

		require.NoError(t, svc.UnlikeSpit(ctx, "u-bob", spitID))
		again, err := svc.LikeSpit(ctx, "u-bob", spitID)
		require.NoError(t, err)
		assert.False(t, again.Rewarded)

		alice, err := svc.Balances(ctx, "u-alice")
		require.NoError(t, err)
		assert.Equal(t, economy.StartingSpits-1+economy.LikeAuthorReward, alice.Spits)
		bob, err := svc.Balances(ctx, "u-bob")
		require.NoError(t, err)
		assert.Equal(t, economy.StartingSpits-2, bob.Spits)

		report, err := svc.VerifyLedger(ctx, "u-alice", "spits")
		require.NoError(t, err)
		assert.True(t, report.OK, "%+v", report.Break)
		assert.NotEmpty(t, relay.notes)
	})

	t.Run("kevlar blocks a gun and loses one charge", func(t *testing.T) {
		mustUser(t, svc, "u-carol", "carol")
		mustUser(t, svc, "u-dave", "dave")
		_, err := svc.ConvertCurrency(ctx, ConvertInput{UserID: "u-carol", From: "spits", Amount: 100, IdempotencyKey: "c-conv"})
		require.NoError(t, err)
		_, err = svc.ConvertCurrency(ctx, ConvertInput{UserID: "u-dave", From: "spits", Amount: 250, IdempotencyKey: "d-conv"})
		require.NoError(t, err)

		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-carol", Item: "gun", Quantity: 2, IdempotencyKey: "c-buy"})
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-dave", Item: "kevlar", IdempotencyKey: "d-buy"})
		require.NoError(t, err)
		used, err := svc.UseItem(ctx, "u-dave", "kevlar", "d-use")
		require.NoError(t, err)
		assert.Equal(t, int64(3), used.Charges)

		res, err := svc.Attack(ctx, AttackInput{AttackerID: "u-carol", TargetUserID: "dave", Weapon: "gun", IdempotencyKey: "atk-1"})
		require.NoError(t, err)
		assert.Equal(t, economy.BuffKevlar, res.Outcome.BlockedBy)
		assert.Equal(t, economy.MaxHP(1), res.TargetHP)

		buffs, err := svc.Buffs(ctx, "u-dave")
		require.NoError(t, err)
		require.Len(t, buffs, 1)
		assert.Equal(t, int64(2), buffs[0].Charges)

		_, err = svc.Attack(ctx, AttackInput{AttackerID: "u-carol", TargetUserID: "dave", Weapon: "gun", IdempotencyKey: "atk-1"})
		assert.ErrorIs(t, err, ErrDuplicateIdempotency)

		_, err = svc.Attack(ctx, AttackInput{AttackerID: "u-carol", TargetUserID: "carol", Weapon: "gun", IdempotencyKey: "atk-self"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		log, err := svc.AttackLog(ctx, "u-dave", 10)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, "kevlar", log[0].BlockedBy)
	})

	t.Run("gun damages an unprotected spit", func(t *testing.T) {
		created, err := svc.CreateSpit(ctx, CreateSpitInput{UserID: "u-dave", Content: "come at me"})
		require.NoError(t, err)
		res, err := svc.Attack(ctx, AttackInput{AttackerID: "u-carol", TargetSpitID: created.Spit.ID, Weapon: "gun", IdempotencyKey: "atk-spit"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.TargetHP)
		assert.True(t, res.TargetDestroyed)

		_, err = svc.Attack(ctx, AttackInput{AttackerID: "u-carol", TargetSpitID: created.Spit.ID, Weapon: "gun", IdempotencyKey: "atk-spit-2"})
		assert.ErrorIs(t, err, ErrTargetDestroyed)
	})

	t.Run("transfer over the cap completes with HP penalties", func(t *testing.T) {
		mustUser(t, svc, "u-erin", "erin")
		mustUser(t, svc, "u-frank", "frank")
		res, err := svc.Transfer(ctx, TransferInput{FromID: "u-erin", To: "frank", Currency: "spits", Amount: 101, IdempotencyKey: "t-1"})
		require.NoError(t, err)
		assert.Equal(t, economy.OverCapHPPenalty, res.SenderPenaltyHP)
		assert.Equal(t, economy.OverCapHPPenalty, res.ReceiverPenaltyHP)
		assert.Equal(t, economy.MaxHP(1)-economy.OverCapHPPenalty, res.SenderHP)
		assert.Equal(t, int64(0), res.RemainingToday)
		assert.Equal(t, economy.StartingSpits-101, res.SenderBalance)

		frank, err := svc.Profile(ctx, "", "frank")
		require.NoError(t, err)
		assert.Equal(t, economy.StartingSpits+101, frank.Spits)
		assert.Equal(t, economy.MaxHP(1)-economy.OverCapHPPenalty, frank.HP)

		for _, id := range []string{"u-erin", "u-frank"} {
			report, err := svc.VerifyLedger(ctx, id, "spits")
			require.NoError(t, err)
			assert.True(t, report.OK, id)
		}

		_, err = svc.Transfer(ctx, TransferInput{FromID: "u-erin", To: "erin", Currency: "spits", Amount: 1, IdempotencyKey: "t-self"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = svc.Transfer(ctx, TransferInput{FromID: "u-erin", To: "frank", Currency: "gold", Amount: 1, IdempotencyKey: "t-broke"})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("transfer to a destroyed account skips the receiver penalty", func(t *testing.T) {
		mustUser(t, svc, "u-kim", "kim")
		mustUser(t, svc, "u-lee", "lee")
		_, err := svc.db.Exec(ctx, `UPDATE users SET hp = 0, destroyed = true WHERE id = $1`, "u-lee")
		require.NoError(t, err)

		res, err := svc.Transfer(ctx, TransferInput{FromID: "u-kim", To: "lee", Currency: "spits", Amount: 101, IdempotencyKey: "t-dead"})
		require.NoError(t, err)
		assert.Equal(t, economy.OverCapHPPenalty, res.SenderPenaltyHP)
		assert.Equal(t, int64(0), res.ReceiverPenaltyHP)

		var stored int64
		require.NoError(t, svc.db.QueryRow(ctx, `SELECT receiver_penalty_hp FROM transfers WHERE id = $1`, res.TransferID).Scan(&stored))
		assert.Equal(t, int64(0), stored)

		require.NotEmpty(t, relay.notes)
		last := relay.notes[len(relay.notes)-1]
		assert.Equal(t, "u-lee", last.UserID)
		assert.NotContains(t, last.Body, "over the daily cap")
	})

	t.Run("mirror shield reflects the hit onto the attacker", func(t *testing.T) {
		mustUser(t, svc, "u-mia", "mia")
		mustUser(t, svc, "u-ned", "ned")
		_, err := svc.ConvertCurrency(ctx, ConvertInput{UserID: "u-mia", From: "spits", Amount: 900, IdempotencyKey: "mia-conv"})
		require.NoError(t, err)
		_, err = svc.ConvertCurrency(ctx, ConvertInput{UserID: "u-ned", From: "spits", Amount: 900, IdempotencyKey: "ned-conv"})
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-mia", Item: "gun", Quantity: 2, IdempotencyKey: "mia-buy"})
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-ned", Item: "mirror_shield", IdempotencyKey: "ned-buy"})
		require.NoError(t, err)
		_, err = svc.UseItem(ctx, "u-ned", "mirror_shield", "ned-use")
		require.NoError(t, err)

		res, err := svc.Attack(ctx, AttackInput{AttackerID: "u-mia", TargetUserID: "ned", Weapon: "gun", IdempotencyKey: "mia-atk"})
		require.NoError(t, err)
		assert.Equal(t, economy.BuffMirrorShield, res.Outcome.BlockedBy)
		assert.Equal(t, economy.MaxHP(1), res.TargetHP)
		assert.Equal(t, economy.MaxHP(1)-25, res.AttackerHP)
		assert.False(t, res.AttackerKilled)

		mia, err := svc.Profile(ctx, "", "mia")
		require.NoError(t, err)
		assert.Equal(t, economy.MaxHP(1)-25, mia.HP)

		buffs, err := svc.Buffs(ctx, "u-ned")
		require.NoError(t, err)
		assert.Empty(t, buffs)

		// The shield is spent, so the second gun lands.
		res, err = svc.Attack(ctx, AttackInput{AttackerID: "u-mia", TargetUserID: "ned", Weapon: "gun", IdempotencyKey: "mia-atk-2"})
		require.NoError(t, err)
		assert.Empty(t, res.Outcome.BlockedBy)
		assert.Equal(t, economy.MaxHP(1)-25, res.TargetHP)
	})

	t.Run("firewall blocks one hit then expires", func(t *testing.T) {
		mustUser(t, svc, "u-olga", "olga")
		_, err := svc.ConvertCurrency(ctx, ConvertInput{UserID: "u-olga", From: "spits", Amount: 300, IdempotencyKey: "olga-conv"})
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-olga", Item: "firewall", IdempotencyKey: "olga-buy"})
		require.NoError(t, err)
		_, err = svc.UseItem(ctx, "u-olga", "firewall", "olga-use")
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-mia", Item: "gun", IdempotencyKey: "mia-buy-2"})
		require.NoError(t, err)

		res, err := svc.Attack(ctx, AttackInput{AttackerID: "u-mia", TargetUserID: "olga", Weapon: "gun", IdempotencyKey: "olga-atk"})
		require.NoError(t, err)
		assert.Equal(t, economy.BuffFirewall, res.Outcome.BlockedBy)
		assert.Equal(t, economy.MaxHP(1), res.TargetHP)

		buffs, err := svc.Buffs(ctx, "u-olga")
		require.NoError(t, err)
		assert.Empty(t, buffs)

		log, err := svc.AttackLog(ctx, "u-olga", 10)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, "firewall", log[0].BlockedBy)
	})

	t.Run("emp strips every buff on a hit", func(t *testing.T) {
		mustUser(t, svc, "u-pat", "pat")
		mustUser(t, svc, "u-quinn", "quinn")
		_, err := svc.ConvertCurrency(ctx, ConvertInput{UserID: "u-pat", From: "spits", Amount: 900, IdempotencyKey: "pat-conv"})
		require.NoError(t, err)
		_, err = svc.ConvertCurrency(ctx, ConvertInput{UserID: "u-quinn", From: "spits", Amount: 300, IdempotencyKey: "quinn-conv"})
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-quinn", Item: "rage_serum", IdempotencyKey: "quinn-buy"})
		require.NoError(t, err)
		_, err = svc.UseItem(ctx, "u-quinn", "rage_serum", "quinn-use")
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-pat", Item: "emp", IdempotencyKey: "pat-buy"})
		require.NoError(t, err)

		res, err := svc.Attack(ctx, AttackInput{AttackerID: "u-pat", TargetUserID: "quinn", Weapon: "emp", IdempotencyKey: "pat-atk"})
		require.NoError(t, err)
		assert.True(t, res.Outcome.StripBuffs)
		assert.Equal(t, economy.MaxHP(1)-50, res.TargetHP)

		buffs, err := svc.Buffs(ctx, "u-quinn")
		require.NoError(t, err)
		assert.Empty(t, buffs)
	})

	t.Run("malware steals one item from the target", func(t *testing.T) {
		mustUser(t, svc, "u-rex", "rex")
		_, err := svc.ConvertCurrency(ctx, ConvertInput{UserID: "u-rex", From: "spits", Amount: 900, IdempotencyKey: "rex-conv"})
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-rex", Item: "malware", IdempotencyKey: "rex-buy"})
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, BuyItemInput{UserID: "u-quinn", Item: "knife", Quantity: 2, IdempotencyKey: "quinn-knives"})
		require.NoError(t, err)

		res, err := svc.Attack(ctx, AttackInput{AttackerID: "u-rex", TargetUserID: "quinn", Weapon: "malware", IdempotencyKey: "rex-atk"})
		require.NoError(t, err)
		assert.Equal(t, economy.WeaponKnife, res.StolenItem)

		quantities := func(userID string) map[economy.ItemType]int64 {
			items, err := svc.Inventory(ctx, userID)
			require.NoError(t, err)
			out := map[economy.ItemType]int64{}
			for _, it := range items {
				out[it.Type] = it.Quantity
			}
			return out
		}
		assert.Equal(t, int64(1), quantities("u-quinn")[economy.WeaponKnife])
		rex := quantities("u-rex")
		assert.Equal(t, int64(1), rex[economy.WeaponKnife])
		assert.Zero(t, rex[economy.WeaponMalware])
	})

	t.Run("cd redeems only after maturity", func(t *testing.T) {
		mustUser(t, svc, "u-gina", "gina")
		cd, err := svc.OpenCD(ctx, OpenCDInput{UserID: "u-gina", Currency: "spits", Amount: 500, TermDays: 7, IdempotencyKey: "cd-1"})
		require.NoError(t, err)
		assert.False(t, cd.Matured)

		_, err = svc.RedeemCD(ctx, "u-gina", cd.ID, "cd-r1")
		assert.ErrorIs(t, err, economy.ErrNotMatured)

		_, err = svc.Withdraw(ctx, WithdrawInput{UserID: "u-gina", DepositID: cd.ID, IdempotencyKey: "cd-w"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		*clock = clock.Add(8 * 24 * time.Hour)
		got, err := svc.RedeemCD(ctx, "u-gina", cd.ID, "cd-r2")
		require.NoError(t, err)
		assert.Greater(t, got.Amount, int64(500))
		assert.True(t, got.Closed)
		assert.Equal(t, economy.StartingSpits-500+got.Amount, got.Balance)

		deposits, err := svc.ListDeposits(ctx, "u-gina")
		require.NoError(t, err)
		assert.Empty(t, deposits)
	})

	t.Run("savings accrue and withdraw", func(t *testing.T) {
		d, err := svc.Deposit(ctx, DepositInput{UserID: "u-gina", Currency: "spits", Amount: 200, IdempotencyKey: "dep-1"})
		require.NoError(t, err)
		*clock = clock.Add(48 * time.Hour)

		partial, err := svc.Withdraw(ctx, WithdrawInput{UserID: "u-gina", DepositID: d.ID, Amount: 50, IdempotencyKey: "w-1"})
		require.NoError(t, err)
		assert.False(t, partial.Closed)
		assert.Equal(t, int64(50), partial.Amount)

		rest, err := svc.Withdraw(ctx, WithdrawInput{UserID: "u-gina", DepositID: d.ID, IdempotencyKey: "w-2"})
		require.NoError(t, err)
		assert.True(t, rest.Closed)
		assert.GreaterOrEqual(t, partial.Amount+rest.Amount, int64(200))

		_, err = svc.Withdraw(ctx, WithdrawInput{UserID: "u-gina", DepositID: d.ID, IdempotencyKey: "w-3"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stocks keep cost basis", func(t *testing.T) {
		mustUser(t, svc, "u-ivan", "ivan")
		buy, err := svc.BuyStock(ctx, TradeInput{UserID: "u-ivan", Shares: 4, IdempotencyKey: "s-1"})
		require.NoError(t, err)
		sell, err := svc.SellStock(ctx, TradeInput{UserID: "u-ivan", Shares: 1, IdempotencyKey: "s-2"})
		require.NoError(t, err)
		assert.Equal(t, buy.Price, sell.Price, "clock did not move")

		h, err := svc.Holdings(ctx, "u-ivan")
		require.NoError(t, err)
		assert.Equal(t, int64(3), h.Shares)
		assert.Equal(t, buy.Total*3/4, h.TotalCost)

		_, err = svc.SellStock(ctx, TradeInput{UserID: "u-ivan", Shares: 10, IdempotencyKey: "s-3"})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		before, err := svc.Balances(ctx, "u-ivan")
		require.NoError(t, err)
		huge := int64(math.MaxUint64 / uint64(buy.Price))
		_, err = svc.BuyStock(ctx, TradeInput{UserID: "u-ivan", Shares: huge, IdempotencyKey: "s-4"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = svc.BuyStock(ctx, TradeInput{UserID: "u-ivan", Shares: maxTradeShares + 1, IdempotencyKey: "s-5"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		after, err := svc.Balances(ctx, "u-ivan")
		require.NoError(t, err)
		assert.Equal(t, before, after)
		h, err = svc.Holdings(ctx, "u-ivan")
		require.NoError(t, err)
		assert.Equal(t, int64(3), h.Shares)
	})

	t.Run("credit card charges and pays back", func(t *testing.T) {
		card, err := svc.ChargeCard(ctx, CardInput{UserID: "u-ivan", Amount: 200, IdempotencyKey: "cc-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(200), card.Owed)
		assert.Equal(t, economy.TierFair, card.Tier)

		_, err = svc.ChargeCard(ctx, CardInput{UserID: "u-ivan", Amount: 400, IdempotencyKey: "cc-2"})
		assert.ErrorIs(t, err, economy.ErrCreditMaxed)

		_, err = svc.ChargeCard(ctx, CardInput{UserID: "u-ivan", Amount: math.MaxInt64 - 199, IdempotencyKey: "cc-wrap"})
		assert.ErrorIs(t, err, economy.ErrCreditMaxed)
		state, err := svc.CreditCardState(ctx, "u-ivan")
		require.NoError(t, err)
		assert.Equal(t, int64(200), state.Owed)

		paid, err := svc.PayCard(ctx, CardInput{UserID: "u-ivan", Amount: 10_000, IdempotencyKey: "cc-3"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), paid.Owed)

		state, err = svc.CreditCardState(ctx, "u-ivan")
		require.NoError(t, err)
		assert.Equal(t, int64(0), state.Owed)
		assert.Equal(t, economy.TierExcellent, state.Tier)
	})

	t.Run("scratch ticket writes both ledger rows", func(t *testing.T) {
		mustUser(t, svc, "u-jay", "jay")
		svc.SetRand(stubRand{float: 0.999})
		defer svc.SetRand(stubRand{float: 0.5})

		res, err := svc.BuyScratchTicket(ctx, "u-jay", "sc-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), res.Prize)
		assert.Equal(t, economy.StartingSpits-economy.ScratchTicketPrice+1000, res.Balance)

		rows, err := svc.Ledger(ctx, "u-jay", "spits", 10)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, economy.TxLotteryPrize, rows[0].Type)
		assert.Equal(t, economy.TxLotteryTicket, rows[1].Type)
	})

	t.Run("bot advisor suggests a cd for idle spits", func(t *testing.T) {
		mustUser(t, svc, "u-hank", "hank")
		cfg := economy.BotConfig{Strategy: economy.StrategyConservative, SpitReserve: 0, MaxOpenCDs: 2, CDTermDays: 7}
		bot, err := svc.CreateBot(ctx, "u-hank", "Saver", cfg)
		require.NoError(t, err)
		assert.Equal(t, "u-hank", bot.OwnerID)

		status, err := svc.BotStatus(ctx, bot.ID)
		require.NoError(t, err)
		assert.Equal(t, Balances{}, status.Balances)
		assert.Empty(t, status.Advice)

		_, err = svc.Transfer(ctx, TransferInput{FromID: "u-hank", To: bot.ID, Currency: "spits", Amount: 100, IdempotencyKey: "fund-bot"})
		require.NoError(t, err)

		status, err = svc.BotStatus(ctx, bot.ID)
		require.NoError(t, err)
		require.Len(t, status.Advice, 1)
		assert.Equal(t, economy.AdviceOpenCD, status.Advice[0].Kind)
		assert.Equal(t, int64(100), status.Advice[0].Amount)

		_, err = svc.CreateBot(ctx, bot.ID, "Nested", cfg)
		assert.ErrorIs(t, err, ErrForbidden)

		bots, err := svc.ListBots(ctx, "u-hank")
		require.NoError(t, err)
		assert.Len(t, bots, 1)
	})
}
