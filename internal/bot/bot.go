// Package bot is the Telegram transport: long polling, command parsing
// and routing to the feature handlers.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/bot/filters"
	"github.com/master-pd/marpd/internal/bot/middleware"
	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/features/admin"
	"github.com/master-pd/marpd/internal/features/daily"
	"github.com/master-pd/marpd/internal/features/games"
	"github.com/master-pd/marpd/internal/features/members"
	"github.com/master-pd/marpd/internal/features/payments"
	"github.com/master-pd/marpd/internal/features/shop"
)

// Bot ties the transport to the feature handlers.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	bannedFilter *filters.BannedFilter
	rateLimiter  *middleware.RateLimiter

	memberService *members.Service

	memberHandler   *members.Handler
	gamesHandler    *games.Handler
	dailyHandler    *daily.Handler
	shopHandler     *shop.Handler
	paymentsHandler *payments.Handler
	adminHandler    *admin.Handler

	parser *CommandParser

	// caps the number of updates processed in parallel
	inflight chan struct{}
}

// New creates the bot with all dependencies wired.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	memberService *members.Service,
	memberHandler *members.Handler,
	gamesHandler *games.Handler,
	dailyHandler *daily.Handler,
	shopHandler *shop.Handler,
	paymentsHandler *payments.Handler,
	adminHandler *admin.Handler,
	bannedFilter *filters.BannedFilter,
) *Bot {
	maxInflight := cfg.BotMaxInflight
	if maxInflight <= 0 {
		maxInflight = 64
	}

	limiter := middleware.NewRateLimiter(map[middleware.Category]middleware.Limit{
		middleware.CategoryCommands:    {Max: cfg.RateLimitCommands, Window: cfg.RateLimitShortWindow},
		middleware.CategoryGames:       {Max: cfg.RateLimitGames, Window: cfg.RateLimitShortWindow},
		middleware.CategoryDeposits:    {Max: cfg.RateLimitDeposits, Window: cfg.RateLimitDepositWin},
		middleware.CategoryWithdrawals: {Max: cfg.RateLimitWithdrawals, Window: cfg.RateLimitWithdrawWin},
	})

	return &Bot{
		api:             api,
		cfg:             cfg,
		bannedFilter:    bannedFilter,
		rateLimiter:     limiter,
		memberService:   memberService,
		memberHandler:   memberHandler,
		gamesHandler:    gamesHandler,
		dailyHandler:    dailyHandler,
		shopHandler:     shopHandler,
		paymentsHandler: paymentsHandler,
		adminHandler:    adminHandler,
		parser:          NewCommandParser(),
		inflight:        make(chan struct{}, maxInflight),
	}
}

// Start runs the long-polling loop until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Bot stopping (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Updates channel closed, bot stopped")
				b.rateLimiter.Close()
				return
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(upd)
			}(update)
		}
	}
}

// handleUpdate processes a single update.
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.Text == "" || update.Message.From == nil {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	chatID := message.Chat.ID
	userID := message.From.ID

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		// Plain chatter counts towards activity and XP. Unregistered
		// users are ignored until they /start.
		if err := b.memberService.OnMessage(userID); err != nil && !errors.Is(err, common.ErrUserNotFound) {
			log.WithError(err).WithField("user_id", userID).Warn("Message counting failed")
		}
		return
	}

	if !b.rateLimiter.Allow(userID, middleware.CategoryCommands) {
		log.WithField("user_id", userID).Debug("Command rate limited")
		return
	}
	if !b.bannedFilter.CheckAccess(chatID, userID, cmd) {
		return
	}

	// Refresh identity for every registered user issuing a command.
	if cmd != "start" {
		if _, err := b.memberService.Ensure(userID, message.From.UserName, message.From.FirstName); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Ensure failed")
		}
	}

	b.routeCommand(message, chatID, userID, cmd, args)
}

// handleCallback routes inline-keyboard presses (quiz answers).
func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}

	if idx, ok := strings.CutPrefix(cb.Data, "quiz_"); ok {
		answer, err := strconv.Atoi(idx)
		if err != nil {
			return
		}
		b.gamesHandler.HandleQuizAnswer(cb, answer)
	}
}

// routeCommand dispatches a parsed command to its handler.
func (b *Bot) routeCommand(message *tgbotapi.Message, chatID, userID int64, cmd, args string) {
	// Payment transitions embed the id in the command itself.
	if id, ok := strings.CutPrefix(cmd, "confirm_"); ok {
		b.paymentsHandler.HandleConfirm(chatID, userID, id)
		return
	}
	if id, ok := strings.CutPrefix(cmd, "reject_"); ok {
		b.paymentsHandler.HandleReject(chatID, userID, id)
		return
	}

	switch cmd {
	case "start":
		b.memberHandler.HandleStart(chatID, message.From)
	case "help":
		b.memberHandler.HandleHelp(chatID)
	case "profile":
		b.memberHandler.HandleProfile(chatID, userID)
	case "balance":
		b.memberHandler.HandleBalance(chatID, userID)

	case "games":
		if b.gamesEnabled(chatID) {
			b.gamesHandler.HandleGames(chatID)
		}
	case "dice":
		if b.gamesEnabled(chatID) && b.allowGame(chatID, userID) {
			b.gamesHandler.HandleDice(chatID, userID, args)
		}
	case "slot":
		if b.gamesEnabled(chatID) && b.allowGame(chatID, userID) {
			b.gamesHandler.HandleSlot(chatID, userID, args)
		}
	case "quiz":
		if b.gamesEnabled(chatID) && b.allowGame(chatID, userID) {
			b.gamesHandler.HandleQuiz(chatID, userID)
		}
	case "answer":
		if b.gamesEnabled(chatID) {
			b.gamesHandler.HandleAnswer(chatID, userID, args)
		}

	case "daily":
		b.dailyHandler.HandleDaily(chatID, userID)

	case "shop":
		if b.shopEnabled(chatID) {
			b.shopHandler.HandleShop(chatID)
		}
	case "inventory":
		if b.shopEnabled(chatID) {
			b.shopHandler.HandleInventory(chatID, userID)
		}
	case "buy":
		if b.shopEnabled(chatID) {
			b.shopHandler.HandleBuy(chatID, userID, args)
		}
	case "use":
		if b.shopEnabled(chatID) {
			b.shopHandler.HandleUse(chatID, userID, args)
		}

	case "deposit":
		if b.paymentsEnabled(chatID) && b.allowPayment(chatID, userID, middleware.CategoryDeposits) {
			b.paymentsHandler.HandleDeposit(chatID, userID, args)
		}
	case "withdraw":
		if b.paymentsEnabled(chatID) && b.allowPayment(chatID, userID, middleware.CategoryWithdrawals) {
			b.paymentsHandler.HandleWithdraw(chatID, userID, args)
		}
	case "payments":
		b.paymentsHandler.HandlePayments(chatID, userID)
	case "pending":
		b.paymentsHandler.HandlePending(chatID, userID)

	case "login":
		b.adminHandler.HandleLogin(chatID, userID, message.Chat.IsPrivate(), args)
	case "logout":
		b.adminHandler.HandleLogout(chatID, userID)
	case "admin":
		b.adminHandler.HandleAdmin(chatID, userID)
	case "stats":
		b.adminHandler.HandleStats(chatID, userID)
	case "userinfo":
		b.adminHandler.HandleUserInfo(chatID, userID, args)
	case "warn":
		b.adminHandler.HandleWarn(chatID, userID, args)
	case "ban":
		b.adminHandler.HandleBan(chatID, userID, args)
	case "unban":
		b.adminHandler.HandleUnban(chatID, userID, args)
	case "addcoins":
		b.adminHandler.HandleAddCoins(chatID, userID, args)
	case "broadcast":
		b.adminHandler.HandleBroadcast(chatID, userID, args)
	case "backup":
		b.adminHandler.HandleBackup(chatID, userID)

	default:
		log.WithField("cmd", cmd).Debug("Unknown command")
	}
}

func (b *Bot) gamesEnabled(chatID int64) bool {
	if !b.cfg.FeatureGamesEnabled {
		b.sendMessage(chatID, "🎮 Games are temporarily disabled")
		return false
	}
	return true
}

func (b *Bot) shopEnabled(chatID int64) bool {
	if !b.cfg.FeatureShopEnabled {
		b.sendMessage(chatID, "🛒 The shop is temporarily disabled")
		return false
	}
	return true
}

func (b *Bot) paymentsEnabled(chatID int64) bool {
	if !b.cfg.FeaturePaymentsEnabled {
		b.sendMessage(chatID, "💳 Payments are temporarily disabled")
		return false
	}
	return true
}

func (b *Bot) allowGame(chatID, userID int64) bool {
	if !b.rateLimiter.Allow(userID, middleware.CategoryGames) {
		b.sendMessage(chatID, "⏳ Slow down! Too many games, try again in a minute")
		return false
	}
	return true
}

func (b *Bot) allowPayment(chatID, userID int64, cat middleware.Category) bool {
	if !b.rateLimiter.Allow(userID, cat) {
		b.sendMessage(chatID, "⏳ Too many payment requests, try again later")
		return false
	}
	return true
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// CommandParser splits "/cmd arg arg" into its parts, tolerating the
// "@botname" suffix Telegram appends in groups.
type CommandParser struct{}

// NewCommandParser creates the parser.
func NewCommandParser() *CommandParser {
	return &CommandParser{}
}

// ParseCommand returns the lower-cased command, the raw argument string
// and whether the text was a command at all.
func (p *CommandParser) ParseCommand(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	cmd, args, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	if cmd == "" {
		return "", "", false
	}
	return cmd, strings.TrimSpace(args), true
}
