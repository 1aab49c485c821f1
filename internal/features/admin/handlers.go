package admin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/backup"
	"github.com/master-pd/marpd/internal/common"
)

// Handler handles the admin commands: /login, /logout, /admin, /stats,
// /userinfo, /warn, /ban, /unban, /addcoins, /broadcast and /backup.
type Handler struct {
	service *Service
	backups *backup.Manager
	bot     *tgbotapi.BotAPI
}

// NewHandler creates the admin handler.
func NewHandler(service *Service, backups *backup.Manager, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, backups: backups, bot: bot}
}

// HandleLogin handles /login <password>. Works only in a private chat
// so the password never lands in a group.
func (h *Handler) HandleLogin(chatID int64, userID int64, isPrivate bool, args string) {
	if !isPrivate {
		h.sendMessage(chatID, "🔒 Use /login in a private chat with the bot")
		return
	}

	password := strings.TrimSpace(args)
	if password == "" {
		h.sendMessage(chatID, "❌ Usage: /login <password>")
		return
	}

	if err := h.service.Login(userID, password); err != nil {
		switch {
		case errors.Is(err, common.ErrNotAdmin):
			h.sendMessage(chatID, "🚫 Admins only")
		case errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(chatID, "⛔ Too many attempts, try again in an hour")
		case errors.Is(err, common.ErrWrongPassword):
			h.sendMessage(chatID, "❌ Wrong password")
		default:
			log.WithError(err).Error("Admin login failed")
			h.sendMessage(chatID, "❌ Something went wrong, try again")
		}
		return
	}

	h.sendMessage(chatID, "✅ Logged in for 24 hours. See /admin")
}

// HandleLogout handles /logout.
func (h *Handler) HandleLogout(chatID int64, userID int64) {
	h.service.Logout(userID)
	h.sendMessage(chatID, "👋 Logged out")
}

// HandleAdmin handles /admin, the panel menu.
func (h *Handler) HandleAdmin(chatID int64, userID int64) {
	if err := h.service.authorize(userID); err != nil {
		h.sendAdminError(chatID, err)
		return
	}

	h.sendMessage(chatID,
		"🛠 ADMIN PANEL 🛠\n\n"+
			"📊 /stats - bot statistics\n"+
			"👤 /userinfo <id> - user record\n"+
			"⚠️ /warn <id> - warn (3 = auto-ban)\n"+
			"🚫 /ban <id>, ✅ /unban <id>\n"+
			"💰 /addcoins <id> <amount>\n"+
			"⏳ /pending - payment queue\n"+
			"📣 /broadcast <message>\n"+
			"💾 /backup - create a backup now")
}

// HandleStats handles /stats.
func (h *Handler) HandleStats(chatID int64, userID int64) {
	text, err := h.service.BotStats(userID)
	if err != nil {
		h.sendAdminError(chatID, err)
		return
	}
	h.sendMessage(chatID, text)
}

// HandleUserInfo handles /userinfo <id>.
func (h *Handler) HandleUserInfo(chatID int64, userID int64, args string) {
	targetID, err := parseUserID(args)
	if err != nil {
		h.sendMessage(chatID, "❌ Usage: /userinfo <user_id>")
		return
	}

	text, err := h.service.UserInfo(userID, targetID)
	if err != nil {
		h.sendAdminError(chatID, err)
		return
	}
	h.sendMessage(chatID, text)
}

// HandleWarn handles /warn <id>.
func (h *Handler) HandleWarn(chatID int64, userID int64, args string) {
	targetID, err := parseUserID(args)
	if err != nil {
		h.sendMessage(chatID, "❌ Usage: /warn <user_id>")
		return
	}

	res, err := h.service.Warn(userID, targetID)
	if err != nil {
		h.sendAdminError(chatID, err)
		return
	}

	text := fmt.Sprintf("⚠️ Warned user %d (%d/%d)", targetID, res.Warnings, warnLimit)
	if res.Banned {
		text += "\n🚫 Auto-banned after reaching the warning limit"
	}
	h.sendMessage(chatID, text)
}

// HandleBan handles /ban <id>.
func (h *Handler) HandleBan(chatID int64, userID int64, args string) {
	targetID, err := parseUserID(args)
	if err != nil {
		h.sendMessage(chatID, "❌ Usage: /ban <user_id>")
		return
	}

	if err := h.service.Ban(userID, targetID); err != nil {
		h.sendAdminError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🚫 Banned user %d", targetID))
}

// HandleUnban handles /unban <id>.
func (h *Handler) HandleUnban(chatID int64, userID int64, args string) {
	targetID, err := parseUserID(args)
	if err != nil {
		h.sendMessage(chatID, "❌ Usage: /unban <user_id>")
		return
	}

	if err := h.service.Unban(userID, targetID); err != nil {
		h.sendAdminError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Unbanned user %d, warnings cleared", targetID))
}

// HandleAddCoins handles /addcoins <id> <amount>.
func (h *Handler) HandleAddCoins(chatID int64, userID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		h.sendMessage(chatID, "❌ Usage: /addcoins <user_id> <amount>")
		return
	}
	targetID, err := parseUserID(fields[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Usage: /addcoins <user_id> <amount>")
		return
	}
	amount, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Enter a whole coin amount")
		return
	}

	after, err := h.service.AddCoins(userID, targetID, amount)
	if err != nil {
		h.sendAdminError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"💰 Adjusted coins for %d by %+d, now %s",
		targetID, amount, common.FormatCoins(after)))
}

// HandleBroadcast handles /broadcast <message>, fanning the text out to
// every registered user. Delivery errors are counted, not retried.
func (h *Handler) HandleBroadcast(chatID int64, userID int64, args string) {
	text := strings.TrimSpace(args)
	if text == "" {
		h.sendMessage(chatID, "❌ Usage: /broadcast <message>")
		return
	}

	targets, err := h.service.BroadcastTargets(userID)
	if err != nil {
		h.sendAdminError(chatID, err)
		return
	}

	sent, failed := 0, 0
	for _, id := range targets {
		msg := tgbotapi.NewMessage(id, "📣 "+text)
		if _, err := h.bot.Send(msg); err != nil {
			failed++
			continue
		}
		sent++
	}

	log.WithFields(log.Fields{"sent": sent, "failed": failed}).Info("Broadcast finished")
	h.sendMessage(chatID, fmt.Sprintf("📣 Broadcast sent to %d users (%d failed)", sent, failed))
}

// HandleBackup handles /backup, creating a snapshot archive on demand.
func (h *Handler) HandleBackup(chatID int64, userID int64) {
	if err := h.service.authorize(userID); err != nil {
		h.sendAdminError(chatID, err)
		return
	}

	path, err := h.backups.Create()
	if err != nil {
		log.WithError(err).Error("Manual backup failed")
		h.sendMessage(chatID, "❌ Backup failed, check the logs")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("💾 Backup created: %s", path))
}

func parseUserID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func (h *Handler) sendAdminError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(chatID, "🚫 Admins only. Log in with /login in a private chat")
	case errors.Is(err, common.ErrUserNotFound):
		h.sendMessage(chatID, "❌ User not found")
	case errors.Is(err, common.ErrInsufficientCoins):
		h.sendMessage(chatID, "❌ That debit would make the coin balance negative")
	default:
		log.WithError(err).Error("Admin operation failed")
		h.sendMessage(chatID, "❌ Something went wrong, try again")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}
