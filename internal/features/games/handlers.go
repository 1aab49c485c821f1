package games

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
)

// Handler handles the /games, /dice, /slot and /quiz commands.
type Handler struct {
	service  *Service
	sessions *SessionStore
	bot      *tgbotapi.BotAPI
}

// NewHandler creates the games handler.
func NewHandler(service *Service, sessions *SessionStore, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, sessions: sessions, bot: bot}
}

// HandleGames handles /games, the games menu.
func (h *Handler) HandleGames(chatID int64) {
	text := fmt.Sprintf(
		"🎮 GAMES MENU 🎮\n\n"+
			"🎲 /dice <bet> - beat the house roll (min %s)\n"+
			"🎰 /slot <bet> - three reels, triple 🍒🍒🍒 pays 10x (min %s)\n"+
			"🧠 /quiz - answer within %d seconds for +%s\n\n"+
			"All games are played with coins. Check /balance first!",
		common.FormatCoins(h.service.cfg.DiceMinBet),
		common.FormatCoins(h.service.cfg.SlotMinBet),
		int(h.service.cfg.QuizAnswerWindow.Seconds()),
		common.FormatCoins(h.service.cfg.QuizReward),
	)
	h.sendMessage(chatID, text)
}

// HandleDice handles /dice <bet>.
//
// Reply format:
//
//	🎲 DICE 🎲
//
//	You rolled: 6
//	House rolled: 2
//
//	🎉 You WIN! +10 coins
//	💰 Coins: 160
func (h *Handler) HandleDice(chatID int64, userID int64, args string) {
	bet, err := common.ParseCoins(strings.TrimSpace(args))
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Usage: /dice <bet> (min %s)",
			common.FormatCoins(h.service.cfg.DiceMinBet)))
		return
	}

	result, err := h.service.PlayDice(userID, bet)
	if err != nil {
		h.sendGameError(chatID, err, h.service.cfg.DiceMinBet)
		return
	}

	var sb strings.Builder
	sb.WriteString("🎲 DICE 🎲\n\n")
	sb.WriteString(fmt.Sprintf("You rolled: %d\n", result.PlayerRoll))
	sb.WriteString(fmt.Sprintf("House rolled: %d\n\n", result.HouseRoll))

	switch result.Verdict {
	case VerdictWin:
		sb.WriteString(fmt.Sprintf("🎉 You WIN! +%s\n", common.FormatCoins(result.Net)))
	case VerdictLose:
		sb.WriteString(fmt.Sprintf("💸 You lose! -%s\n", common.FormatCoins(-result.Net)))
	default:
		sb.WriteString("🤝 Draw! Your bet is returned.\n")
	}
	sb.WriteString(fmt.Sprintf("💰 Coins: %s", common.FormatCoins(result.Coins)))

	h.sendMessage(chatID, sb.String())
}

// HandleSlot handles /slot <bet>.
func (h *Handler) HandleSlot(chatID int64, userID int64, args string) {
	bet, err := common.ParseCoins(strings.TrimSpace(args))
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Usage: /slot <bet> (min %s)",
			common.FormatCoins(h.service.cfg.SlotMinBet)))
		return
	}

	result, err := h.service.PlaySlot(userID, bet)
	if err != nil {
		h.sendGameError(chatID, err, h.service.cfg.SlotMinBet)
		return
	}

	var sb strings.Builder
	sb.WriteString("🎰 SLOT 🎰\n\n")
	sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n\n",
		result.Reels[0], result.Reels[1], result.Reels[2]))

	switch result.Verdict {
	case VerdictJackpot:
		sb.WriteString(fmt.Sprintf("💎 JACKPOT!!! +%s\n", common.FormatCoins(result.Net)))
	case VerdictWin:
		sb.WriteString(fmt.Sprintf("✅ Two of a kind! +%s\n", common.FormatCoins(result.Net)))
	default:
		sb.WriteString(fmt.Sprintf("💸 No luck! -%s\n", common.FormatCoins(-result.Net)))
	}
	sb.WriteString(fmt.Sprintf("💰 Coins: %s", common.FormatCoins(result.Coins)))

	h.sendMessage(chatID, sb.String())
}

// HandleQuiz handles /quiz, sending a question with inline answer buttons.
// Settlement happens in HandleQuizAnswer when a button is pressed.
func (h *Handler) HandleQuiz(chatID int64, userID int64) {
	draw := h.service.DrawQuestion()
	h.sessions.Put(userID, draw.QuestionIndex)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(draw.Question.Options))
	for i, opt := range draw.Question.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt, fmt.Sprintf("quiz_%d", i)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"🧠 QUIZ TIME 🧠\n\n%s\n\n⏱ You have %d seconds. Correct answer pays +%s!",
		draw.Question.Text,
		int(h.sessions.ttl.Seconds()),
		common.FormatCoins(draw.Reward),
	))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send quiz question")
	}
}

// HandleQuizAnswer handles the quiz_<n> callback. The session is
// consumed on first press, so repeated taps cannot double-settle.
func (h *Handler) HandleQuizAnswer(cb *tgbotapi.CallbackQuery, answerIndex int) {
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID

	questionIndex, err := h.sessions.Take(userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrQuizExpired):
			h.answerCallback(cb.ID, "⏱ Time is up! Start a new /quiz")
		default:
			h.answerCallback(cb.ID, "❌ No active quiz. Start with /quiz")
		}
		return
	}

	result, err := h.service.CheckAnswer(userID, questionIndex, answerIndex)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Quiz settlement failed")
		h.answerCallback(cb.ID, "❌ Something went wrong, try again")
		return
	}

	h.answerCallback(cb.ID, "")
	if result.Correct {
		h.sendMessage(chatID, fmt.Sprintf(
			"✅ Correct! +%s\n💰 Coins: %s",
			common.FormatCoins(result.Reward), common.FormatCoins(result.Coins)))
	} else {
		correct := questionPool[questionIndex].Options[questionPool[questionIndex].Answer]
		h.sendMessage(chatID, fmt.Sprintf(
			"❌ Wrong! The answer was: %s\n💰 Coins: %s",
			correct, common.FormatCoins(result.Coins)))
	}
}

// HandleAnswer handles /answer <n>, the text alternative to the inline
// buttons. n is 1-based, matching the option order on screen.
func (h *Handler) HandleAnswer(chatID int64, userID int64, args string) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 1 {
		h.sendMessage(chatID, "❌ Usage: /answer <option number>")
		return
	}

	questionIndex, err := h.sessions.Take(userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrQuizExpired):
			h.sendMessage(chatID, "⏱ Time is up! Start a new /quiz")
		default:
			h.sendMessage(chatID, "❌ No active quiz. Start with /quiz")
		}
		return
	}

	result, err := h.service.CheckAnswer(userID, questionIndex, n-1)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Quiz settlement failed")
		h.sendMessage(chatID, "❌ Something went wrong, try again")
		return
	}

	if result.Correct {
		h.sendMessage(chatID, fmt.Sprintf(
			"✅ Correct! +%s\n💰 Coins: %s",
			common.FormatCoins(result.Reward), common.FormatCoins(result.Coins)))
	} else {
		correct := questionPool[questionIndex].Options[questionPool[questionIndex].Answer]
		h.sendMessage(chatID, fmt.Sprintf(
			"❌ Wrong! The answer was: %s\n💰 Coins: %s",
			correct, common.FormatCoins(result.Coins)))
	}
}

func (h *Handler) sendGameError(chatID int64, err error, minBet int64) {
	switch {
	case errors.Is(err, common.ErrBelowMinimum), errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(chatID, fmt.Sprintf("❌ Minimum bet is %s", common.FormatCoins(minBet)))
	case errors.Is(err, common.ErrInsufficientCoins):
		h.sendMessage(chatID, "❌ Not enough coins! Check /balance or claim /daily")
	case errors.Is(err, common.ErrUserNotFound):
		h.sendMessage(chatID, "❌ Send /start first to register")
	case errors.Is(err, common.ErrUserBanned):
		h.sendMessage(chatID, "🚫 You are banned from playing")
	default:
		log.WithError(err).Error("Game settlement failed")
		h.sendMessage(chatID, "❌ Something went wrong, try again")
	}
}

func (h *Handler) answerCallback(callbackID, text string) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := h.bot.Request(cb); err != nil {
		log.WithError(err).Error("Failed to answer callback query")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}
