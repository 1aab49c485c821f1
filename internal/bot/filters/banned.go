// Package filters gates updates before they reach a handler.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/store"
)

// BannedFilter blocks banned users from every command except /start,
// so they can still see their status.
type BannedFilter struct {
	store *store.Store
	bot   *tgbotapi.BotAPI
}

// NewBannedFilter creates the filter.
func NewBannedFilter(st *store.Store, bot *tgbotapi.BotAPI) *BannedFilter {
	return &BannedFilter{store: st, bot: bot}
}

// CheckAccess reports whether the user may run the command. Unknown
// users pass: registration happens downstream.
func (f *BannedFilter) CheckAccess(chatID, userID int64, cmd string) bool {
	if cmd == "start" {
		return true
	}

	u, err := f.store.GetUser(userID)
	if err != nil {
		return true
	}
	if !u.IsBanned {
		return true
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"cmd":     cmd,
	}).Debug("Banned user blocked")

	msg := tgbotapi.NewMessage(chatID, "🚫 You are banned. Contact an admin.")
	if _, err := f.bot.Send(msg); err != nil {
		log.WithError(err).Warn("Failed to send ban notice")
	}
	return false
}
