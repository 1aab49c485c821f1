// Package shop implements the coin shop: a fixed catalog, purchases
// into a per-user inventory, and one-shot item consumption.
package shop

import (
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/store"
)

// PurchaseResult is the outcome of a successful buy.
type PurchaseResult struct {
	Item  store.ShopItem
	Coins int64 // coin balance after the debit
}

// UseResult is the outcome of consuming an inventory item.
type UseResult struct {
	Item   store.ShopItem
	Effect string // human-readable effect description
	Coins  int64
}

// Service settles purchases and item consumption.
type Service struct {
	store *store.Store
	cfg   *config.Config
}

// NewService creates the shop service.
func NewService(st *store.Store, cfg *config.Config) *Service {
	return &Service{store: st, cfg: cfg}
}

// Items returns the catalog in stable price order.
func (s *Service) Items() []store.ShopItem {
	items := s.store.Items()
	sort.Slice(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	return items
}

// Buy debits the item price and appends a unit to the inventory, both
// in one settlement.
func (s *Service) Buy(userID int64, itemID string) (*PurchaseResult, error) {
	item, err := s.store.ItemByID(itemID)
	if err != nil {
		return nil, err
	}

	res := &PurchaseResult{Item: *item}
	err = s.store.WithTx(userID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		if u.IsBanned {
			return common.ErrUserBanned
		}
		if u.Coins < item.Price {
			return common.ErrInsufficientCoins
		}

		u.Coins -= item.Price
		u.Inventory = append(u.Inventory, store.InventoryItem{
			ItemID:      item.ID,
			Name:        item.Name,
			PurchasedAt: time.Now(),
		})
		res.Coins = u.Coins

		tx.SaveUser(u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"item":    item.ID,
		"price":   item.Price,
	}).Info("Item purchased")

	return res, nil
}

// Use consumes one unit of the item from the inventory (first match)
// and applies its effect in the same settlement.
func (s *Service) Use(userID int64, itemID string) (*UseResult, error) {
	item, err := s.store.ItemByID(itemID)
	if err != nil {
		return nil, err
	}

	res := &UseResult{Item: *item}
	err = s.store.WithTx(userID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}

		idx := -1
		for i, inv := range u.Inventory {
			if inv.ItemID == itemID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return common.ErrItemNotOwned
		}
		u.Inventory = append(u.Inventory[:idx], u.Inventory[idx+1:]...)

		res.Effect = applyEffect(u, item)
		res.Coins = u.Coins

		tx.SaveUser(u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"item":    item.ID,
	}).Info("Item used")

	return res, nil
}

// applyEffect mutates the staged user per the item type and returns the
// effect line shown to the user. The effect table is closed: unknown
// types are cosmetic activations.
func applyEffect(u *store.User, item *store.ShopItem) string {
	switch item.Type {
	case "double_xp":
		u.Coins += 100
		return "⚡ +100 coin bonus!"
	case "coin_boost":
		u.Coins += 200
		return "💰 +200 coin bonus!"
	default:
		return fmt.Sprintf("🎁 %s activated!", item.Name)
	}
}

// RenderInventory formats the user's inventory grouped by item with
// counts. Returns ErrUserNotFound for unregistered users.
func (s *Service) RenderInventory(userID int64) (string, error) {
	u, err := s.store.GetUser(userID)
	if err != nil {
		return "", err
	}
	if len(u.Inventory) == 0 {
		return "📦 Your inventory is empty! Browse the /shop", nil
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, inv := range u.Inventory {
		if counts[inv.ItemID] == 0 {
			order = append(order, inv.ItemID)
		}
		counts[inv.ItemID]++
	}

	var sb strings.Builder
	sb.WriteString("🛍️ YOUR INVENTORY 🛍️\n\n")
	for _, id := range order {
		item, err := s.store.ItemByID(id)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s ×%d\n", item.Icon, item.Name, counts[id]))
		if item.Description != "" {
			sb.WriteString(fmt.Sprintf("   📝 %s\n", item.Description))
		}
		sb.WriteString(fmt.Sprintf("   Use with /use %s\n\n", item.ID))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
