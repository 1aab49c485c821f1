package shop

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
)

// Handler handles the /shop, /buy, /use and /inventory commands.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler creates the shop handler.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleShop handles /shop, listing the catalog.
func (h *Handler) HandleShop(chatID int64) {
	var sb strings.Builder
	sb.WriteString("🛒 COIN SHOP 🛒\n\n")
	for _, item := range h.service.Items() {
		sb.WriteString(fmt.Sprintf("%s %s - %s\n", item.Icon, item.Name, common.FormatCoins(item.Price)))
		if item.Description != "" {
			sb.WriteString(fmt.Sprintf("   📝 %s\n", item.Description))
		}
		sb.WriteString(fmt.Sprintf("   Buy with /buy %s\n\n", item.ID))
	}
	h.sendMessage(chatID, strings.TrimRight(sb.String(), "\n"))
}

// HandleBuy handles /buy <item_id>.
func (h *Handler) HandleBuy(chatID int64, userID int64, args string) {
	itemID := strings.TrimSpace(args)
	if itemID == "" {
		h.sendMessage(chatID, "❌ Usage: /buy <item_id> - see /shop for item ids")
		return
	}

	res, err := h.service.Buy(userID, itemID)
	if err != nil {
		h.sendShopError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Bought %s %s! -%s\n💰 Coins: %s",
		res.Item.Icon, res.Item.Name,
		common.FormatCoins(res.Item.Price), common.FormatCoins(res.Coins)))
}

// HandleUse handles /use <item_id>, consuming one inventory unit.
func (h *Handler) HandleUse(chatID int64, userID int64, args string) {
	itemID := strings.TrimSpace(args)
	if itemID == "" {
		h.sendMessage(chatID, "❌ Usage: /use <item_id> - see /inventory")
		return
	}

	res, err := h.service.Use(userID, itemID)
	if err != nil {
		h.sendShopError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Used %s %s!\n%s\n💰 Coins: %s",
		res.Item.Icon, res.Item.Name, res.Effect, common.FormatCoins(res.Coins)))
}

// HandleInventory handles /inventory.
func (h *Handler) HandleInventory(chatID int64, userID int64) {
	text, err := h.service.RenderInventory(userID)
	if err != nil {
		h.sendShopError(chatID, err)
		return
	}
	h.sendMessage(chatID, text)
}

func (h *Handler) sendShopError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrItemNotFound):
		h.sendMessage(chatID, "❌ No such item! See /shop for item ids")
	case errors.Is(err, common.ErrItemNotOwned):
		h.sendMessage(chatID, "❌ You don't own this item! See /inventory")
	case errors.Is(err, common.ErrInsufficientCoins):
		h.sendMessage(chatID, "❌ Not enough coins! Play /games or claim /daily")
	case errors.Is(err, common.ErrUserNotFound):
		h.sendMessage(chatID, "❌ Send /start first to register")
	case errors.Is(err, common.ErrUserBanned):
		h.sendMessage(chatID, "🚫 You are banned")
	default:
		log.WithError(err).Error("Shop operation failed")
		h.sendMessage(chatID, "❌ Something went wrong, try again")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}
