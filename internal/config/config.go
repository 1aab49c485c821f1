// Package config loads the bot configuration from environment variables.
// envconfig maps the environment onto the Config struct fields.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds ALL application settings.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Owner is always an admin; ADMIN_IDS may add more.
	BotOwnerID  int64   `envconfig:"BOT_OWNER_ID" required:"true"`
	AdminIDsRaw string  `envconfig:"ADMIN_IDS" default:""`
	AdminIDs    []int64 `envconfig:"-"` // filled manually from AdminIDsRaw

	// --- Storage ---
	DataDir    string `envconfig:"DATA_DIR" default:"data"`
	BackupDir  string `envconfig:"BACKUP_DIR" default:"backups"`
	MaxBackups int    `envconfig:"MAX_BACKUPS" default:"30"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Dhaka"`

	// --- Bot runtime ---
	// How many updates we process in parallel. Without the cap a goroutine
	// per update leaks memory under flood.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin panel ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Economy ---
	// Welcome bonus for a freshly registered user.
	WelcomeBalance int64  `envconfig:"ECONOMY_WELCOME_BALANCE" default:"10000"` // poisha (৳100)
	WelcomeCoins   int64  `envconfig:"ECONOMY_WELCOME_COINS" default:"100"`
	CurrencySymbol string `envconfig:"ECONOMY_CURRENCY_SYMBOL" default:"৳"`

	// --- Games ---
	DiceMinBet int64 `envconfig:"GAMES_DICE_MIN_BET" default:"10"`
	SlotMinBet int64 `envconfig:"GAMES_SLOT_MIN_BET" default:"20"`
	QuizReward int64 `envconfig:"GAMES_QUIZ_REWARD" default:"50"`
	// How long a drawn quiz question stays answerable.
	QuizAnswerWindow time.Duration `envconfig:"GAMES_QUIZ_ANSWER_WINDOW" default:"60s"`

	// --- Daily bonus ---
	DailyBaseBonus   int64 `envconfig:"DAILY_BASE_BONUS" default:"50"`
	DailyStreakStep  int64 `envconfig:"DAILY_STREAK_STEP" default:"10"`
	DailyStreakExtra int64 `envconfig:"DAILY_STREAK_EXTRA_CAP" default:"100"`

	// --- Payments (manual, admin-confirmed) ---
	DepositMin  int64  `envconfig:"PAYMENTS_DEPOSIT_MIN" default:"1000"`  // poisha (৳10)
	WithdrawMin int64  `envconfig:"PAYMENTS_WITHDRAW_MIN" default:"5000"` // poisha (৳50)
	NagadNumber string `envconfig:"NAGAD_NUMBER" default:"017XXXXXXXX"`
	BkashNumber string `envconfig:"BKASH_NUMBER" default:"017XXXXXXXX"`

	// --- Rate limiting (per user, sliding window) ---
	RateLimitCommands    int           `envconfig:"RATE_LIMIT_COMMANDS" default:"60"`
	RateLimitGames       int           `envconfig:"RATE_LIMIT_GAMES" default:"20"`
	RateLimitShortWindow time.Duration `envconfig:"RATE_LIMIT_SHORT_WINDOW" default:"1m"`
	RateLimitDeposits    int           `envconfig:"RATE_LIMIT_DEPOSITS" default:"10"`
	RateLimitDepositWin  time.Duration `envconfig:"RATE_LIMIT_DEPOSIT_WINDOW" default:"1h"`
	RateLimitWithdrawals int           `envconfig:"RATE_LIMIT_WITHDRAWALS" default:"5"`
	RateLimitWithdrawWin time.Duration `envconfig:"RATE_LIMIT_WITHDRAW_WINDOW" default:"24h"`

	// --- Feature flags ---
	FeatureGamesEnabled    bool `envconfig:"FEATURE_GAMES_ENABLED" default:"true"`
	FeatureShopEnabled     bool `envconfig:"FEATURE_SHOP_ENABLED" default:"true"`
	FeaturePaymentsEnabled bool `envconfig:"FEATURE_PAYMENTS_ENABLED" default:"true"`
}

// IsAdmin reports whether userID may perform admin-only transitions.
func (c *Config) IsAdmin(userID int64) bool {
	if userID == c.BotOwnerID {
		return true
	}
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.BotOwnerID == 0 {
		return fmt.Errorf("BOT_OWNER_ID is not set")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT must be > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS must be > 0")
	}
	if c.DiceMinBet <= 0 || c.SlotMinBet <= 0 {
		return fmt.Errorf("game minimum bets must be > 0")
	}
	if c.DepositMin <= 0 || c.WithdrawMin <= 0 {
		return fmt.Errorf("payment minimums must be > 0")
	}
	if c.MaxBackups <= 0 {
		return fmt.Errorf("MAX_BACKUPS must be > 0")
	}
	return nil
}

// Load reads the environment and fills the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
