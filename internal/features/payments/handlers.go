package payments

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/store"
)

// Handler handles /deposit, /withdraw, /payments and the admin
// /confirm_<id> and /reject_<id> commands.
type Handler struct {
	service *Service
	cfg     *config.Config
	bot     *tgbotapi.BotAPI
}

// NewHandler creates the payments handler.
func NewHandler(service *Service, cfg *config.Config, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, cfg: cfg, bot: bot}
}

// HandleDeposit handles /deposit <amount> <method>.
func (h *Handler) HandleDeposit(chatID int64, userID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		h.sendMessage(chatID, fmt.Sprintf(
			"❌ Usage: /deposit <amount> <bkash|nagad>\nMinimum: %s",
			common.FormatTaka(h.cfg.DepositMin)))
		return
	}

	amount, err := common.ParseTaka(fields[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Enter a valid amount, e.g. /deposit 100 bkash")
		return
	}

	payment, instructions, err := h.service.RequestDeposit(userID, amount, fields[1])
	if err != nil {
		h.sendPaymentError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Deposit request created!\n🆔 %s\n\n%s", payment.ID, instructions))
	h.notifyAdmin(payment)
}

// HandleWithdraw handles /withdraw <amount> <method> <wallet_number>.
func (h *Handler) HandleWithdraw(chatID int64, userID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		h.sendMessage(chatID, fmt.Sprintf(
			"❌ Usage: /withdraw <amount> <bkash|nagad> <wallet number>\nMinimum: %s",
			common.FormatTaka(h.cfg.WithdrawMin)))
		return
	}

	amount, err := common.ParseTaka(fields[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Enter a valid amount, e.g. /withdraw 100 nagad 01712345678")
		return
	}

	payment, err := h.service.RequestWithdraw(userID, amount, fields[1], fields[2])
	if err != nil {
		h.sendPaymentError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Withdrawal requested!\n🆔 %s\n💵 %s reserved from your balance.\nAn admin will process it shortly.",
		payment.ID, common.FormatTaka(payment.Amount)))
	h.notifyAdmin(payment)
}

// HandlePayments handles /payments, the user's history.
func (h *Handler) HandlePayments(chatID int64, userID int64) {
	h.sendMessage(chatID, h.service.History(userID))
}

// HandlePending handles /pending, the admin review queue.
func (h *Handler) HandlePending(chatID int64, userID int64) {
	if !h.cfg.IsAdmin(userID) {
		h.sendMessage(chatID, "🚫 Admins only")
		return
	}

	pending := h.service.Pending()
	if len(pending) == 0 {
		h.sendMessage(chatID, "✅ No pending payments!")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏳ PENDING PAYMENTS (%d)\n\n", len(pending)))
	for _, p := range pending {
		sb.WriteString(renderAdminPayment(p))
		sb.WriteString("\n")
	}
	h.sendMessage(chatID, strings.TrimRight(sb.String(), "\n"))
}

// HandleConfirm handles /confirm_<payment_id>.
func (h *Handler) HandleConfirm(chatID int64, adminID int64, paymentID string) {
	payment, err := h.service.Confirm(paymentID, adminID)
	if err != nil {
		h.sendPaymentError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Payment %s confirmed (%s %s)",
		payment.ID, payment.Type, common.FormatTaka(payment.Amount)))

	if payment.Type == store.PaymentDeposit {
		h.notifyUser(payment.UserID, fmt.Sprintf(
			"✅ Your deposit of %s is confirmed! Check /balance",
			common.FormatTaka(payment.Amount)))
	} else {
		h.notifyUser(payment.UserID, fmt.Sprintf(
			"✅ Your withdrawal of %s has been sent to %s!",
			common.FormatTaka(payment.Amount), payment.Account))
	}
}

// HandleReject handles /reject_<payment_id>.
func (h *Handler) HandleReject(chatID int64, adminID int64, paymentID string) {
	payment, err := h.service.Reject(paymentID, adminID)
	if err != nil {
		h.sendPaymentError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("❌ Payment %s rejected", payment.ID))

	if payment.Type == store.PaymentWithdraw {
		h.notifyUser(payment.UserID, fmt.Sprintf(
			"❌ Your withdrawal of %s was rejected. The amount is back on your balance.",
			common.FormatTaka(payment.Amount)))
	} else {
		h.notifyUser(payment.UserID, fmt.Sprintf(
			"❌ Your deposit request of %s was rejected.",
			common.FormatTaka(payment.Amount)))
	}
}

// notifyAdmin pushes a new request to the owner with ready-made
// confirm/reject commands.
func (h *Handler) notifyAdmin(p *store.Payment) {
	text := fmt.Sprintf(
		"🚨 New %s request!\n%s\n✅ /confirm_%s\n❌ /reject_%s",
		strings.ToLower(p.Type), renderAdminPayment(p), p.ID, p.ID)
	h.sendMessage(h.cfg.BotOwnerID, text)
}

func renderAdminPayment(p *store.Payment) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🆔 %s\n", p.ID))
	sb.WriteString(fmt.Sprintf("👤 User: %d\n", p.UserID))
	sb.WriteString(fmt.Sprintf("💵 Amount: %s (%s)\n", common.FormatTaka(p.Amount), p.Method))
	if p.Account != "" {
		sb.WriteString(fmt.Sprintf("📞 Wallet: %s\n", p.Account))
	}
	sb.WriteString(fmt.Sprintf("📅 %s\n", common.FormatDateTime(p.CreatedAt)))
	return sb.String()
}

func (h *Handler) sendPaymentError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrBelowMinimum), errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(chatID, "❌ Amount is below the minimum")
	case errors.Is(err, common.ErrUnsupportedMethod):
		h.sendMessage(chatID, "❌ Supported methods: bkash, nagad")
	case errors.Is(err, common.ErrInvalidAccount):
		h.sendMessage(chatID, "❌ Enter a valid 11-digit wallet number (01XXXXXXXXX)")
	case errors.Is(err, common.ErrInsufficientBalance):
		h.sendMessage(chatID, "❌ Not enough balance! Check /balance")
	case errors.Is(err, common.ErrPaymentNotFound):
		h.sendMessage(chatID, "❌ Payment not found")
	case errors.Is(err, common.ErrPaymentNotPending):
		h.sendMessage(chatID, "⚠️ Payment is already processed")
	case errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(chatID, "🚫 Admins only")
	case errors.Is(err, common.ErrUserNotFound):
		h.sendMessage(chatID, "❌ Send /start first to register")
	case errors.Is(err, common.ErrUserBanned):
		h.sendMessage(chatID, "🚫 You are banned")
	default:
		log.WithError(err).Error("Payment operation failed")
		h.sendMessage(chatID, "❌ Something went wrong, try again")
	}
}

// notifyUser delivers a lifecycle update to the payment's owner.
// Delivery failures are logged and ignored: the ledger is already
// consistent and the user can check /payments.
func (h *Handler) notifyUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to notify user")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}
