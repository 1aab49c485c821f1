// Package app initializes every component of the application.
// app.go is the assembly point: it opens the ledger store, creates the
// services and handlers and wires them into one Bot.
package app

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/backup"
	"github.com/master-pd/marpd/internal/bot"
	"github.com/master-pd/marpd/internal/bot/filters"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/features/admin"
	"github.com/master-pd/marpd/internal/features/daily"
	"github.com/master-pd/marpd/internal/features/games"
	"github.com/master-pd/marpd/internal/features/members"
	"github.com/master-pd/marpd/internal/features/payments"
	"github.com/master-pd/marpd/internal/features/shop"
	"github.com/master-pd/marpd/internal/jobs"
	"github.com/master-pd/marpd/internal/store"
)

// App holds the assembled components.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Store     *store.Store
	BotAPI    *tgbotapi.BotAPI
}

// New creates and wires the application. Initialization order matters:
// store, then services, then handlers, then transport.
func New(cfg *config.Config) (*App, error) {
	// === 1. Ledger store ===
	st, err := store.Open(cfg.DataDir, cfg.WelcomeBalance, cfg.WelcomeCoins)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Authorized as @%s", botAPI.Self.UserName)

	// === 3. Services ===
	backups, err := backup.NewManager(st, cfg.BackupDir, cfg.MaxBackups)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup manager: %w", err)
	}
	memberService := members.NewService(st, cfg)
	gamesService := games.NewService(st, cfg)
	quizSessions := games.NewSessionStore(cfg.QuizAnswerWindow)
	dailyService := daily.NewService(st, cfg)
	shopService := shop.NewService(st, cfg)
	paymentsService := payments.NewService(st, cfg)
	adminService := admin.NewService(st, cfg)

	// === 4. Handlers ===
	memberHandler := members.NewHandler(memberService, botAPI)
	gamesHandler := games.NewHandler(gamesService, quizSessions, botAPI)
	dailyHandler := daily.NewHandler(dailyService, botAPI)
	shopHandler := shop.NewHandler(shopService, botAPI)
	paymentsHandler := payments.NewHandler(paymentsService, cfg, botAPI)
	adminHandler := admin.NewHandler(adminService, backups, botAPI)

	// === 5. Filters ===
	bannedFilter := filters.NewBannedFilter(st, botAPI)

	// === 6. Transport ===
	b := bot.New(
		botAPI, cfg,
		memberService, memberHandler,
		gamesHandler,
		dailyHandler,
		shopHandler,
		paymentsHandler,
		adminHandler,
		bannedFilter,
	)

	// === 7. Background jobs ===
	scheduler := jobs.NewScheduler(cfg, backups, quizSessions)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Store:     st,
		BotAPI:    botAPI,
	}, nil
}
