package members

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
)

// Handler handles /start, /help, /profile and /balance.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler creates the members handler.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleStart handles /start: registers the user and shows the welcome.
func (h *Handler) HandleStart(chatID int64, from *tgbotapi.User) {
	u, err := h.service.Ensure(from.ID, from.UserName, from.FirstName)
	if err != nil {
		log.WithError(err).WithField("user_id", from.ID).Error("Registration failed")
		h.sendMessage(chatID, "❌ Something went wrong, try again")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"👋 Welcome, %s!\n\n"+
			"💵 Balance: %s\n"+
			"💰 Coins: %s\n\n"+
			"🎮 /games - play for coins\n"+
			"🎁 /daily - claim your daily bonus\n"+
			"🛒 /shop - spend your coins\n"+
			"💳 /deposit, /withdraw - move real money\n"+
			"ℹ️ /help - all commands",
		u.FirstName, common.FormatTaka(u.Balance), common.FormatCoins(u.Coins)))
}

// HandleHelp handles /help.
func (h *Handler) HandleHelp(chatID int64) {
	h.sendMessage(chatID,
		"📖 COMMANDS 📖\n\n"+
			"👤 /profile - your profile\n"+
			"💵 /balance - balance and coins\n"+
			"🎮 /games - games menu\n"+
			"🎲 /dice <bet> - dice vs the house\n"+
			"🎰 /slot <bet> - slot machine\n"+
			"🧠 /quiz - quiz for coins\n"+
			"🎁 /daily - daily bonus with a streak\n"+
			"🛒 /shop - item catalog\n"+
			"📦 /inventory - your items\n"+
			"🛍️ /buy <item> - buy an item\n"+
			"🎁 /use <item> - use an item\n"+
			"💳 /deposit <amount> <method> - top up\n"+
			"💸 /withdraw <amount> <method> <wallet> - cash out\n"+
			"📜 /payments - payment history")
}

// HandleProfile handles /profile.
//
// Reply format:
//
//	👤 PROFILE 👤
//
//	Name: Rahim (@rahim01)
//	🏅 Level 3 [███░░░░░░░] 45/225
//	💵 Balance: ৳120.00
//	💰 Coins: 340
//	🔥 Daily streak: 4
//	✉️ Messages: 152
func (h *Handler) HandleProfile(chatID int64, userID int64) {
	u, err := h.service.Get(userID)
	if err != nil {
		h.sendMemberError(chatID, err)
		return
	}

	name := u.FirstName
	if u.Username != "" {
		name = fmt.Sprintf("%s (@%s)", u.FirstName, u.Username)
	}
	info := common.CalculateLevel(u.XP)

	var sb strings.Builder
	sb.WriteString("👤 PROFILE 👤\n\n")
	sb.WriteString(fmt.Sprintf("Name: %s\n", name))
	sb.WriteString(fmt.Sprintf("🏅 Level %d %s\n", u.Level, common.ProgressBar(info.XP, info.XPNeeded, 10)))
	sb.WriteString(fmt.Sprintf("💵 Balance: %s\n", common.FormatTaka(u.Balance)))
	sb.WriteString(fmt.Sprintf("💰 Coins: %s\n", common.FormatCoins(u.Coins)))
	sb.WriteString(fmt.Sprintf("🔥 Daily streak: %d\n", u.DailyStreak))
	sb.WriteString(fmt.Sprintf("✉️ Messages: %s\n", common.FormatNumber(int64(u.TotalMessages))))
	sb.WriteString(fmt.Sprintf("📅 Joined: %s", common.FormatDateTime(u.Joined)))
	if u.IsBanned {
		sb.WriteString("\n🚫 BANNED")
	}

	h.sendMessage(chatID, sb.String())
}

// HandleBalance handles /balance.
func (h *Handler) HandleBalance(chatID int64, userID int64) {
	u, err := h.service.Get(userID)
	if err != nil {
		h.sendMemberError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"💵 Balance: %s\n💰 Coins: %s",
		common.FormatTaka(u.Balance), common.FormatCoins(u.Coins)))
}

func (h *Handler) sendMemberError(chatID int64, err error) {
	if errors.Is(err, common.ErrUserNotFound) {
		h.sendMessage(chatID, "❌ Send /start first to register")
		return
	}
	log.WithError(err).Error("Member lookup failed")
	h.sendMessage(chatID, "❌ Something went wrong, try again")
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}
