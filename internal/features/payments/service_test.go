package payments

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/store"
)

const adminID = int64(777)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(t.TempDir(), 10_000, 100)
	require.NoError(t, err)
	cfg := &config.Config{
		BotOwnerID:  adminID,
		DepositMin:  1000, // ৳10
		WithdrawMin: 5000, // ৳50
		BkashNumber: "01712345678",
		NagadNumber: "01887654321",
	}
	return NewService(st, cfg)
}

func registerUser(t *testing.T, s *Service, userID int64) {
	t.Helper()
	_, err := s.store.CreateUser(userID, store.UserSeed{Username: "payer", FirstName: "Payer"})
	require.NoError(t, err)
}

func balance(t *testing.T, s *Service, userID int64) int64 {
	t.Helper()
	u, err := s.store.GetUser(userID)
	require.NoError(t, err)
	return u.Balance
}

func TestValidateWalletNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		ok     bool
	}{
		{name: "valid grameenphone", number: "01712345678", ok: true},
		{name: "valid lowest operator digit", number: "01312345678", ok: true},
		{name: "valid highest operator digit", number: "01912345678", ok: true},
		{name: "too short", number: "0171234567", ok: false},
		{name: "too long", number: "017123456789", ok: false},
		{name: "bad prefix", number: "02712345678", ok: false},
		{name: "operator digit too low", number: "01212345678", ok: false},
		{name: "non-digit", number: "0171234567x", ok: false},
		{name: "empty", number: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWalletNumber(tt.number)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, common.ErrInvalidAccount)
			}
		})
	}
}

func TestNormalizeMethod(t *testing.T) {
	for _, in := range []string{"bkash", "BKASH", " bkash ", "বিকাশ"} {
		m, err := NormalizeMethod(in)
		require.NoError(t, err, in)
		require.Equal(t, MethodBkash, m)
	}
	m, err := NormalizeMethod("নগদ")
	require.NoError(t, err)
	require.Equal(t, MethodNagad, m)

	_, err = NormalizeMethod("paypal")
	require.ErrorIs(t, err, common.ErrUnsupportedMethod)
}

func TestDepositLifecycle(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)
	start := balance(t, s, 1)

	payment, instructions, err := s.RequestDeposit(1, 5000, "bkash")
	require.NoError(t, err)
	require.Equal(t, store.PaymentPending, payment.Status)
	require.Contains(t, instructions, "01712345678")
	require.Contains(t, instructions, "MARPd-")

	// A pending deposit moves no money.
	require.Equal(t, start, balance(t, s, 1))

	confirmed, err := s.Confirm(payment.ID, adminID)
	require.NoError(t, err)
	require.Equal(t, store.PaymentCompleted, confirmed.Status)
	require.Equal(t, adminID, confirmed.ConfirmedBy)
	require.NotNil(t, confirmed.ConfirmedAt)
	require.Equal(t, start+5000, balance(t, s, 1))
}

func TestConfirmIsIdempotent(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)
	start := balance(t, s, 1)

	payment, _, err := s.RequestDeposit(1, 5000, "nagad")
	require.NoError(t, err)

	_, err = s.Confirm(payment.ID, adminID)
	require.NoError(t, err)

	// The second confirmation is rejected and credits nothing.
	_, err = s.Confirm(payment.ID, adminID)
	require.ErrorIs(t, err, common.ErrPaymentNotPending)
	require.Equal(t, start+5000, balance(t, s, 1))
}

func TestDepositRejections(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)

	_, _, err := s.RequestDeposit(1, 500, "bkash") // below ৳10
	require.ErrorIs(t, err, common.ErrBelowMinimum)

	_, _, err = s.RequestDeposit(1, 5000, "paypal")
	require.ErrorIs(t, err, common.ErrUnsupportedMethod)

	_, _, err = s.RequestDeposit(42, 5000, "bkash")
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestRejectedDepositNeverCredits(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)
	start := balance(t, s, 1)

	payment, _, err := s.RequestDeposit(1, 5000, "bkash")
	require.NoError(t, err)

	rejected, err := s.Reject(payment.ID, adminID)
	require.NoError(t, err)
	require.Equal(t, store.PaymentRejected, rejected.Status)
	require.Equal(t, start, balance(t, s, 1))
}

func TestWithdrawReservation(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)
	start := balance(t, s, 1) // 10 000 poisha welcome balance

	payment, err := s.RequestWithdraw(1, 6000, "nagad", "01812345678")
	require.NoError(t, err)
	require.Equal(t, store.PaymentPending, payment.Status)
	require.Equal(t, "01812345678", payment.Account)

	// The reservation debits immediately.
	require.Equal(t, start-6000, balance(t, s, 1))

	// Rejection restores the pre-request balance exactly.
	_, err = s.Reject(payment.ID, adminID)
	require.NoError(t, err)
	require.Equal(t, start, balance(t, s, 1))
}

func TestWithdrawConfirmKeepsDebit(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)
	start := balance(t, s, 1)

	payment, err := s.RequestWithdraw(1, 6000, "bkash", "01712345678")
	require.NoError(t, err)

	confirmed, err := s.Confirm(payment.ID, adminID)
	require.NoError(t, err)
	require.Equal(t, store.PaymentCompleted, confirmed.Status)
	require.Equal(t, start-6000, balance(t, s, 1))

	// A terminal withdrawal cannot be rejected into a refund.
	_, err = s.Reject(payment.ID, adminID)
	require.ErrorIs(t, err, common.ErrPaymentNotPending)
	require.Equal(t, start-6000, balance(t, s, 1))
}

func TestWithdrawRejections(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)
	start := balance(t, s, 1)

	_, err := s.RequestWithdraw(1, 4000, "bkash", "01712345678") // below ৳50
	require.ErrorIs(t, err, common.ErrBelowMinimum)

	_, err = s.RequestWithdraw(1, 50_000, "bkash", "01712345678") // above balance
	require.ErrorIs(t, err, common.ErrInsufficientBalance)

	_, err = s.RequestWithdraw(1, 6000, "bkash", "12345")
	require.ErrorIs(t, err, common.ErrInvalidAccount)

	// No failed request may leave a reservation behind.
	require.Equal(t, start, balance(t, s, 1))
	require.Empty(t, s.Pending())
}

func TestTransitionRequiresAdmin(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)

	payment, _, err := s.RequestDeposit(1, 5000, "bkash")
	require.NoError(t, err)

	_, err = s.Confirm(payment.ID, 1)
	require.ErrorIs(t, err, common.ErrNotAdmin)

	_, err = s.Reject(payment.ID, 1)
	require.ErrorIs(t, err, common.ErrNotAdmin)
}

func TestTransitionUnknownPayment(t *testing.T) {
	s := newTestService(t)

	_, err := s.Confirm("pay_20260829_120000_deadbeef", adminID)
	require.ErrorIs(t, err, common.ErrPaymentNotFound)
}

func TestHistoryAndPending(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)

	require.Contains(t, s.History(1), "No payment history")

	p1, _, err := s.RequestDeposit(1, 5000, "bkash")
	require.NoError(t, err)
	_, err = s.RequestWithdraw(1, 6000, "nagad", "01812345678")
	require.NoError(t, err)

	require.Len(t, s.Pending(), 2)

	_, err = s.Confirm(p1.ID, adminID)
	require.NoError(t, err)
	require.Len(t, s.Pending(), 1)

	history := s.History(1)
	require.Contains(t, history, "DEPOSIT")
	require.Contains(t, history, "WITHDRAW")
	require.Contains(t, history, "✅")
	require.Contains(t, history, "⏳")
}
