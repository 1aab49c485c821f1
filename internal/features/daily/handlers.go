package daily

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
)

// Handler handles the /daily command.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler creates the daily bonus handler.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleDaily handles /daily.
//
// Reply format:
//
//	🎁 DAILY BONUS 🎁
//
//	+60 coins
//	🔥 Streak: 2 days
//	💰 Coins: 210
func (h *Handler) HandleDaily(chatID int64, userID int64) {
	res, err := h.service.Claim(userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrBonusAlreadyClaimed):
			h.sendMessage(chatID, "⏳ Already claimed today! Come back after midnight (Dhaka time).")
		case errors.Is(err, common.ErrUserNotFound):
			h.sendMessage(chatID, "❌ Send /start first to register")
		case errors.Is(err, common.ErrUserBanned):
			h.sendMessage(chatID, "🚫 You are banned")
		default:
			log.WithError(err).Error("Daily claim failed")
			h.sendMessage(chatID, "❌ Something went wrong, try again")
		}
		return
	}

	day := "day"
	if res.Streak > 1 {
		day = "days"
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"🎁 DAILY BONUS 🎁\n\n+%s\n🔥 Streak: %d %s\n💰 Coins: %s",
		common.FormatCoins(res.Bonus), res.Streak, day, common.FormatCoins(res.Coins)))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}
