package game

import (
	"time"

	"spitr/internal/economy"
)

type Profile struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Bio           string    `json:"bio"`
	HP            int64     `json:"hp"`
	MaxHP         int64     `json:"max_hp"`
	Destroyed     bool      `json:"destroyed"`
	XP            int64     `json:"xp"`
	Level         int       `json:"level"`
	XPToNextLevel int64     `json:"xp_to_next_level"`
	Spits         int64     `json:"spits"`
	Gold          int64     `json:"gold"`
	IsBot         bool      `json:"is_bot"`
	Followers     int64     `json:"followers"`
	Following     int64     `json:"following"`
	IsFollowing   bool      `json:"is_following"`
	CreatedAt     time.Time `json:"created_at"`
}

type Spit struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Content      string    `json:"content"`
	ReplyToID    *int64    `json:"reply_to_id,omitempty"`
	QuoteSpitID  *int64    `json:"quote_spit_id,omitempty"`
	HP           int64     `json:"hp"`
	Destroyed    bool      `json:"destroyed"`
	Likes        int64     `json:"likes"`
	Respits      int64     `json:"respits"`
	Replies      int64     `json:"replies"`
	LikedByMe    bool      `json:"liked_by_me"`
	RespitedByMe bool      `json:"respited_by_me"`
	CreatedAt    time.Time `json:"created_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Type      string    `json:"type"`
	SpitID    *int64    `json:"spit_id,omitempty"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID            int64     `json:"id"`
	OtherUserID   string    `json:"other_user_id"`
	OtherUsername string    `json:"other_username"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	Unread        int64     `json:"unread"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type InventoryItem struct {
	economy.Item
	Quantity int64 `json:"quantity"`
}

type Buff struct {
	Type    economy.ItemType `json:"type"`
	Charges int64            `json:"charges"`
}

type Balances struct {
	Spits int64 `json:"spits"`
	Gold  int64 `json:"gold"`
}

type AttackResult struct {
	Outcome         economy.AttackOutcome `json:"outcome"`
	TargetHP        int64                 `json:"target_hp"`
	TargetDestroyed bool                  `json:"target_destroyed"`
	AttackerHP      int64                 `json:"attacker_hp"`
	AttackerKilled  bool                  `json:"attacker_destroyed"`
	StolenItem      economy.ItemType      `json:"stolen_item,omitempty"`
	XPGained        int64                 `json:"xp_gained"`
	Level           int                   `json:"level"`
}

type AttackLogEntry struct {
	ID           int64     `json:"id"`
	AttackerID   string    `json:"attacker_id"`
	TargetUserID string    `json:"target_user_id,omitempty"`
	TargetSpitID *int64    `json:"target_spit_id,omitempty"`
	Weapon       string    `json:"weapon"`
	Damage       int64     `json:"damage"`
	BlockedBy    string    `json:"blocked_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type UseItemResult struct {
	Item      economy.ItemType `json:"item"`
	HP        int64            `json:"hp"`
	MaxHP     int64            `json:"max_hp"`
	Destroyed bool             `json:"destroyed"`
	Charges   int64            `json:"charges,omitempty"`
	Remaining int64            `json:"remaining"`
}

type Chest struct {
	ID        int64                `json:"id"`
	Rarity    economy.ChestRarity  `json:"rarity"`
	Reward    *economy.ChestReward `json:"reward,omitempty"`
	OpenedAt  *time.Time           `json:"opened_at,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

type Deposit struct {
	ID          int64            `json:"id"`
	Kind        string           `json:"kind"`
	Currency    economy.Currency `json:"currency"`
	Principal   int64            `json:"principal"`
	Rate        float64          `json:"rate"`
	DepositedAt time.Time        `json:"deposited_at"`
	Withdrawn   int64            `json:"withdrawn"`
	Value       int64            `json:"value"`
	TermDays    int              `json:"term_days,omitempty"`
	MaturesAt   *time.Time       `json:"matures_at,omitempty"`
	Matured     bool             `json:"matured"`
}

type StockQuote struct {
	Symbol string    `json:"symbol"`
	Price  int64     `json:"price"`
	At     time.Time `json:"at"`
}

type Holding struct {
	Symbol      string `json:"symbol"`
	Shares      int64  `json:"shares"`
	TotalCost   int64  `json:"total_cost"`
	Price       int64  `json:"price"`
	MarketValue int64  `json:"market_value"`
	Unrealized  int64  `json:"unrealized"`
}

type StockTrade struct {
	ID      int64  `json:"id"`
	Side    string `json:"side"`
	Shares  int64  `json:"shares"`
	Price   int64  `json:"price"`
	Total   int64  `json:"total"`
	Balance int64  `json:"balance"`
}

type CreditCard struct {
	Limit         int64              `json:"limit"`
	Owed          int64              `json:"owed"`
	Available     int64              `json:"available"`
	Utilization   float64            `json:"utilization"`
	Tier          economy.CreditTier `json:"tier"`
	DailyRate     float64            `json:"daily_rate"`
	LastAccruedAt time.Time          `json:"last_accrued_at"`
	Balance       int64              `json:"balance"`
}

type ScratchResult struct {
	TicketID int64 `json:"ticket_id"`
	Price    int64 `json:"price"`
	Prize    int64 `json:"prize"`
	Balance  int64 `json:"balance"`
}

type TransferResult struct {
	TransferID        int64            `json:"transfer_id"`
	Currency          economy.Currency `json:"currency"`
	Amount            int64            `json:"amount"`
	SenderBalance     int64            `json:"sender_balance"`
	SenderPenaltyHP   int64            `json:"sender_penalty_hp"`
	ReceiverPenaltyHP int64            `json:"receiver_penalty_hp"`
	SenderHP          int64            `json:"sender_hp"`
	SenderDestroyed   bool             `json:"sender_destroyed"`
	RemainingToday    int64            `json:"remaining_today"`
}

type Bot struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"owner_id"`
	Name      string            `json:"name"`
	Username  string            `json:"username"`
	Config    economy.BotConfig `json:"config"`
	CreatedAt time.Time         `json:"created_at"`
}

type BotStatus struct {
	Bot         Bot              `json:"bot"`
	Balances    Balances         `json:"balances"`
	Deposits    []Deposit        `json:"deposits"`
	SentToday   map[string]int64 `json:"sent_today"`
	Advice      []economy.Advice `json:"advice"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type LedgerReport struct {
	Currency         economy.Currency     `json:"currency"`
	Entries          int                  `json:"entries"`
	Balance          int64                `json:"balance"`
	LastBalanceAfter int64                `json:"last_balance_after"`
	OK               bool                 `json:"ok"`
	Break            *economy.LedgerBreak `json:"break,omitempty"`
}
