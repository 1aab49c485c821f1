// Package store is the Ledger Store: the authoritative record of user
// economic state, payment records, game statistics and the shop catalog,
// persisted as flat JSON files.
// models.go describes the persisted data structures.
package store

import "time"

// User is one ledger record, keyed by the Telegram user id
// (serialized as a string key in users.json).
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`

	// Balance is real currency in poisha (1/100 taka). Never negative.
	Balance int64 `json:"balance"`
	// Coins is the in-game currency. Never negative.
	Coins int64 `json:"coins"`

	Level int `json:"level"`
	XP    int `json:"xp"`

	DailyStreak int    `json:"daily_streak"`
	LastDaily   string `json:"last_daily,omitempty"` // calendar date "2006-01-02"

	Warnings int  `json:"warnings"`
	IsBanned bool `json:"is_banned"`

	// Inventory is ordered by purchase time; one entry per unit owned.
	Inventory []InventoryItem `json:"inventory"`

	TotalMessages int       `json:"total_messages"`
	Joined        time.Time `json:"joined"`
	LastSeen      time.Time `json:"last_seen"`
}

// InventoryItem is one owned unit of a shop item.
type InventoryItem struct {
	ItemID      string    `json:"item_id"`
	Name        string    `json:"name"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// UserSeed carries the identity fields for a new ledger record.
// Welcome-bonus amounts come from the store, not the caller.
type UserSeed struct {
	Username  string
	FirstName string
}

// UserPatch is a typed partial update for a User record. Nil fields are
// left untouched. Using explicit pointers instead of a free-form map
// keeps unknown keys from ever corrupting the ledger.
type UserPatch struct {
	Username      *string
	FirstName     *string
	Balance       *int64
	Coins         *int64
	Level         *int
	XP            *int
	DailyStreak   *int
	LastDaily     *string
	Warnings      *int
	IsBanned      *bool
	Inventory     *[]InventoryItem
	TotalMessages *int
}

// apply merges the patch into u. last_seen stamping happens in the store.
func (p UserPatch) apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.Balance != nil {
		u.Balance = *p.Balance
	}
	if p.Coins != nil {
		u.Coins = *p.Coins
	}
	if p.Level != nil {
		u.Level = *p.Level
	}
	if p.XP != nil {
		u.XP = *p.XP
	}
	if p.DailyStreak != nil {
		u.DailyStreak = *p.DailyStreak
	}
	if p.LastDaily != nil {
		u.LastDaily = *p.LastDaily
	}
	if p.Warnings != nil {
		u.Warnings = *p.Warnings
	}
	if p.IsBanned != nil {
		u.IsBanned = *p.IsBanned
	}
	if p.Inventory != nil {
		u.Inventory = *p.Inventory
	}
	if p.TotalMessages != nil {
		u.TotalMessages = *p.TotalMessages
	}
}

// Payment statuses. COMPLETED and REJECTED are terminal.
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentRejected  = "REJECTED"
)

// Payment types.
const (
	PaymentDeposit  = "DEPOSIT"
	PaymentWithdraw = "WITHDRAW"
)

// Payment is one manual deposit or withdrawal record, keyed by a
// generated id that sorts by creation time.
type Payment struct {
	ID     string `json:"id"`
	UserID int64  `json:"user_id"`
	// Amount in poisha, always positive.
	Amount  int64  `json:"amount"`
	Method  string `json:"method"` // "bkash" or "nagad"
	Type    string `json:"type"`   // DEPOSIT or WITHDRAW
	Status  string `json:"status"`
	Account string `json:"account,omitempty"` // withdrawal destination wallet

	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedBy int64      `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// Terminal reports whether the payment may not transition further.
func (p *Payment) Terminal() bool {
	return p.Status != PaymentPending
}

// GameStats accumulates per-user, per-game settlement statistics,
// keyed "<user_id>_<game>" in games.json.
type GameStats struct {
	Plays     int   `json:"plays"`
	Wins      int   `json:"wins"`
	Losses    int   `json:"losses"`
	TotalWon  int64 `json:"total_won"`
	TotalLost int64 `json:"total_lost"`
}

// ShopItem is one catalog entry. Type selects the effect applied when
// a unit is consumed; an empty type means the item is cosmetic.
type ShopItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"` // coins, > 0
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Type        string `json:"type,omitempty"`
}

// catalog is the shop.json document.
type catalog struct {
	Items []ShopItem `json:"items"`
}

// defaultCatalog seeds shop.json on first run.
func defaultCatalog() *catalog {
	return &catalog{Items: []ShopItem{
		{ID: "vip_badge", Name: "VIP Badge", Price: 500, Description: "Exclusive VIP status", Icon: "👑"},
		{ID: "color_name", Name: "Color Name", Price: 300, Description: "Colored name in chat", Icon: "🎨"},
		{ID: "double_xp", Name: "2x XP (24h)", Price: 200, Description: "Double experience for 24 hours", Icon: "⚡", Type: "double_xp"},
		{ID: "coin_boost", Name: "Coin Booster", Price: 150, Description: "+50% coins for 3 days", Icon: "💰", Type: "coin_boost"},
	}}
}
