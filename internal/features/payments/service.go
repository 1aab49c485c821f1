// Package payments implements the manual payment lifecycle: a user
// requests a deposit or withdrawal, an admin confirms or rejects it.
// Deposits credit the balance only on confirmation; withdrawals debit
// it immediately (a reservation) and refund on rejection. COMPLETED
// and REJECTED are terminal.
package payments

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/store"
)

// Supported wallet providers.
const (
	MethodBkash = "bkash"
	MethodNagad = "nagad"
)

// Service drives payment state transitions.
type Service struct {
	store *store.Store
	cfg   *config.Config
}

// NewService creates the payment service.
func NewService(st *store.Store, cfg *config.Config) *Service {
	return &Service{store: st, cfg: cfg}
}

// NormalizeMethod maps user input (including the Bengali provider
// names) onto a supported method id.
func NormalizeMethod(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case MethodBkash, "বিকাশ":
		return MethodBkash, nil
	case MethodNagad, "নগদ":
		return MethodNagad, nil
	default:
		return "", common.ErrUnsupportedMethod
	}
}

// ValidateWalletNumber checks a Bangladeshi mobile wallet number:
// exactly 11 digits, "01" prefix, operator digit 3 through 9.
func ValidateWalletNumber(number string) error {
	if len(number) != 11 {
		return common.ErrInvalidAccount
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return common.ErrInvalidAccount
		}
	}
	if !strings.HasPrefix(number, "01") {
		return common.ErrInvalidAccount
	}
	if number[2] < '3' || number[2] > '9' {
		return common.ErrInvalidAccount
	}
	return nil
}

// RequestDeposit records a PENDING deposit and returns the payment
// together with the transfer instructions. No balance moves until an
// admin confirms.
func (s *Service) RequestDeposit(userID int64, amount int64, method string) (*store.Payment, string, error) {
	method, err := NormalizeMethod(method)
	if err != nil {
		return nil, "", err
	}
	if amount < s.cfg.DepositMin {
		return nil, "", common.ErrBelowMinimum
	}

	now := time.Now()
	payment := &store.Payment{
		ID:        store.NewPaymentID(now),
		UserID:    userID,
		Amount:    amount,
		Method:    method,
		Type:      store.PaymentDeposit,
		Status:    store.PaymentPending,
		CreatedAt: now,
	}

	err = s.store.WithTx(userID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		if u.IsBanned {
			return common.ErrUserBanned
		}
		tx.PutPayment(payment)
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	log.WithFields(log.Fields{
		"payment_id": payment.ID,
		"user_id":    userID,
		"amount":     amount,
		"method":     method,
	}).Info("Deposit requested")

	return payment, s.instructions(method, amount, now), nil
}

// instructions renders the manual transfer steps for a deposit.
func (s *Service) instructions(method string, amount int64, at time.Time) string {
	number := s.cfg.BkashNumber
	provider := "bKash"
	proof := "✅ After paying, send the transaction ID (TrxID)."
	if method == MethodNagad {
		number = s.cfg.NagadNumber
		provider = "Nagad"
		proof = "✅ After paying, send a screenshot."
	}

	return fmt.Sprintf(
		"💰 Pay with %s:\n"+
			"📱 Number: %s\n"+
			"💵 Amount: %s\n"+
			"📌 Reference: MARPd-%s\n\n"+
			"%s\n"+
			"✅ Wait for admin confirmation.",
		provider, number, common.FormatTaka(amount), at.Format("1504"), proof)
}

// RequestWithdraw reserves the amount by debiting the balance
// immediately and records a PENDING withdrawal. A rejection refunds
// the reservation exactly.
func (s *Service) RequestWithdraw(userID int64, amount int64, method, account string) (*store.Payment, error) {
	method, err := NormalizeMethod(method)
	if err != nil {
		return nil, err
	}
	if amount < s.cfg.WithdrawMin {
		return nil, common.ErrBelowMinimum
	}
	if err := ValidateWalletNumber(account); err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &store.Payment{
		ID:        store.NewPaymentID(now),
		UserID:    userID,
		Amount:    amount,
		Method:    method,
		Type:      store.PaymentWithdraw,
		Status:    store.PaymentPending,
		Account:   account,
		CreatedAt: now,
	}

	err = s.store.WithTx(userID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		if u.IsBanned {
			return common.ErrUserBanned
		}
		if u.Balance < amount {
			return common.ErrInsufficientBalance
		}

		u.Balance -= amount
		tx.SaveUser(u)
		tx.PutPayment(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"payment_id": payment.ID,
		"user_id":    userID,
		"amount":     amount,
		"method":     method,
	}).Info("Withdrawal requested")

	return payment, nil
}

// Confirm moves a PENDING payment to COMPLETED. A confirmed deposit
// credits the balance; a confirmed withdrawal was already debited at
// request time, so only the record changes. Confirming a terminal
// payment is rejected, which makes confirmation idempotent in effect:
// the balance moves exactly once.
func (s *Service) Confirm(paymentID string, adminID int64) (*store.Payment, error) {
	return s.transition(paymentID, adminID, store.PaymentCompleted)
}

// Reject moves a PENDING payment to REJECTED. A rejected withdrawal
// refunds the reserved amount; a rejected deposit never touched the
// balance.
func (s *Service) Reject(paymentID string, adminID int64) (*store.Payment, error) {
	return s.transition(paymentID, adminID, store.PaymentRejected)
}

func (s *Service) transition(paymentID string, adminID int64, target string) (*store.Payment, error) {
	if !s.cfg.IsAdmin(adminID) {
		return nil, common.ErrNotAdmin
	}

	// The owning user is needed to pick the lock; the status check is
	// repeated inside the Tx in case of a concurrent transition.
	probe, err := s.store.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}

	var result *store.Payment
	err = s.store.WithTx(probe.UserID, func(tx *store.Tx) error {
		p, err := tx.Payment(paymentID)
		if err != nil {
			return err
		}
		if p.Terminal() {
			return common.ErrPaymentNotPending
		}

		if p.Type == store.PaymentDeposit && target == store.PaymentCompleted {
			u := tx.User()
			if u == nil {
				return common.ErrUserNotFound
			}
			u.Balance += p.Amount
			tx.SaveUser(u)
		}
		if p.Type == store.PaymentWithdraw && target == store.PaymentRejected {
			u := tx.User()
			if u == nil {
				return common.ErrUserNotFound
			}
			u.Balance += p.Amount
			tx.SaveUser(u)
		}

		now := time.Now()
		p.Status = target
		p.ConfirmedBy = adminID
		p.ConfirmedAt = &now
		tx.PutPayment(p)
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"payment_id": paymentID,
		"admin_id":   adminID,
		"status":     target,
		"type":       result.Type,
	}).Info("Payment transitioned")

	return result, nil
}

// History renders the user's last 10 payments, newest first.
func (s *Service) History(userID int64) string {
	payments := s.store.PaymentsByUser(userID)
	if len(payments) == 0 {
		return "📭 No payment history yet!"
	}
	if len(payments) > 10 {
		payments = payments[:10]
	}

	var sb strings.Builder
	sb.WriteString("💳 YOUR PAYMENT HISTORY 💳\n\n")
	for _, p := range payments {
		icon := "⏳"
		switch p.Status {
		case store.PaymentCompleted:
			icon = "✅"
		case store.PaymentRejected:
			icon = "❌"
		}
		sb.WriteString(fmt.Sprintf("%s %s - %s (%s)\n", icon, p.Type, common.FormatTaka(p.Amount), p.Method))
		sb.WriteString(fmt.Sprintf("   📅 %s - %s\n\n", common.FormatDateTime(p.CreatedAt), p.Status))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Pending returns the admin review queue, oldest first.
func (s *Service) Pending() []*store.Payment {
	return s.store.PendingPayments()
}
