package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/master-pd/marpd/internal/common"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), 10_000, 100)
	require.NoError(t, err)
	return s
}

func TestCreateUserIdempotent(t *testing.T) {
	s := newTestStore(t)

	u, err := s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)
	require.Equal(t, int64(10_000), u.Balance)
	require.Equal(t, int64(100), u.Coins)
	require.Equal(t, 1, u.Level)

	coins := int64(7)
	require.NoError(t, s.UpdateUser(1, UserPatch{Coins: &coins}))

	// Re-creating must not reset the existing record.
	u, err = s.CreateUser(1, UserSeed{Username: "other", FirstName: "Other"})
	require.NoError(t, err)
	require.Equal(t, int64(7), u.Coins)
	require.Equal(t, "rahim", u.Username)
}

func TestGetUserUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUser(42)
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestUpdateUserPatch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)

	balance := int64(5555)
	streak := 4
	require.NoError(t, s.UpdateUser(1, UserPatch{Balance: &balance, DailyStreak: &streak}))

	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(5555), u.Balance)
	require.Equal(t, 4, u.DailyStreak)
	// Untouched fields survive the patch.
	require.Equal(t, int64(100), u.Coins)
	require.Equal(t, "rahim", u.Username)
}

func TestCopiesDoNotLeakLiveState(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)

	u, err := s.GetUser(1)
	require.NoError(t, err)
	u.Coins = 999_999
	u.Inventory = append(u.Inventory, InventoryItem{ItemID: "fake"})

	fresh, err := s.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(100), fresh.Coins)
	require.Empty(t, fresh.Inventory)
}

func TestWithTxRejectsNegativeInvariant(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)

	err = s.WithTx(1, func(tx *Tx) error {
		u := tx.User()
		u.Coins = -50
		tx.SaveUser(u)
		return nil
	})
	require.Error(t, err)

	// The violating write never reached the ledger.
	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(100), u.Coins)
}

func TestWithTxErrorDiscardsStagedChanges(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)

	failErr := common.ErrInsufficientCoins
	err = s.WithTx(1, func(tx *Tx) error {
		u := tx.User()
		u.Coins += 1000
		tx.SaveUser(u)
		tx.PutPayment(&Payment{ID: "pay_x", UserID: 1, Amount: 1, Status: PaymentPending})
		tx.RecordGame("dice", true, false, 10)
		return failErr
	})
	require.ErrorIs(t, err, failErr)

	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(100), u.Coins)

	_, err = s.GetPayment("pay_x")
	require.ErrorIs(t, err, common.ErrPaymentNotFound)
	require.Equal(t, GameStats{}, s.GameStatsFor(1, "dice"))
}

func TestWithTxStorageFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 10_000, 100)
	require.NoError(t, err)
	_, err = s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)

	// Replace the users file with a non-empty directory so the atomic
	// rename in the flush fails.
	usersPath := filepath.Join(dir, usersFile)
	require.NoError(t, os.RemoveAll(usersPath))
	require.NoError(t, os.MkdirAll(filepath.Join(usersPath, "block"), 0o755))

	err = s.WithTx(1, func(tx *Tx) error {
		u := tx.User()
		u.Coins += 50
		tx.SaveUser(u)
		return nil
	})
	require.Error(t, err)
	require.True(t, common.IsStorage(err))

	// The failed flush rolled the in-memory credit back.
	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(100), u.Coins)
}

func TestRestoreWaitsForInflightTx(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)

	snap := s.Snapshot()

	entered := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan struct{})
	go func() {
		defer close(txDone)
		_ = s.WithTx(1, func(tx *Tx) error {
			close(entered)
			<-release
			u := tx.User()
			u.Coins += 50
			tx.SaveUser(u)
			return nil
		})
	}()

	<-entered
	restoreErr := make(chan error, 1)
	go func() {
		restoreErr <- s.Restore(snap)
	}()

	// Restore must not complete while the transaction is still staged.
	select {
	case <-restoreErr:
		t.Fatal("restore completed while a transaction was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-txDone
	require.NoError(t, <-restoreErr)

	// The snapshot state wins: the credit committed before the restore.
	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(100), u.Coins)
}

func TestWithTxSerializesConcurrentSettlements(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)

	// 50 concurrent +10 credits and 50 concurrent -10 debits must land
	// on exactly the starting balance, whatever the interleaving.
	const n = 50
	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = s.WithTx(1, func(tx *Tx) error {
				u := tx.User()
				u.Coins += 10
				tx.SaveUser(u)
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.WithTx(1, func(tx *Tx) error {
				u := tx.User()
				u.Coins -= 10
				tx.SaveUser(u)
				return nil
			})
		}()
	}
	wg.Wait()

	u, err := s.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(100), u.Coins)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, 10_000, 100)
	require.NoError(t, err)
	_, err = s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)

	coins := int64(4242)
	require.NoError(t, s.UpdateUser(1, UserPatch{Coins: &coins}))

	require.NoError(t, s.WithTx(1, func(tx *Tx) error {
		tx.PutPayment(&Payment{ID: "pay_a", UserID: 1, Amount: 5000, Type: PaymentDeposit, Status: PaymentPending})
		tx.RecordGame("slot", true, false, 40)
		return nil
	}))

	// A fresh store over the same directory sees everything.
	s2, err := Open(dir, 10_000, 100)
	require.NoError(t, err)

	u, err := s2.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(4242), u.Coins)

	p, err := s2.GetPayment("pay_a")
	require.NoError(t, err)
	require.Equal(t, int64(5000), p.Amount)

	stats := s2.GameStatsFor(1, "slot")
	require.Equal(t, 1, stats.Plays)
	require.Equal(t, int64(40), stats.TotalWon)

	require.NotEmpty(t, s2.Items())
}

func TestPaymentQueries(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(1, UserSeed{Username: "rahim", FirstName: "Rahim"})
	require.NoError(t, err)

	require.NoError(t, s.WithTx(1, func(tx *Tx) error {
		tx.PutPayment(&Payment{ID: "pay_1", UserID: 1, Amount: 1000, Status: PaymentPending})
		tx.PutPayment(&Payment{ID: "pay_2", UserID: 1, Amount: 2000, Status: PaymentCompleted})
		tx.PutPayment(&Payment{ID: "pay_3", UserID: 2, Amount: 3000, Status: PaymentPending})
		return nil
	}))

	require.Len(t, s.PaymentsByUser(1), 2)
	require.Len(t, s.PendingPayments(), 2)

	p, err := s.GetPayment("pay_2")
	require.NoError(t, err)
	require.True(t, p.Terminal())
}

func TestOverallStats(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(1, UserSeed{Username: "u1", FirstName: "U1"})
	require.NoError(t, err)
	_, err = s.CreateUser(2, UserSeed{Username: "u2", FirstName: "U2"})
	require.NoError(t, err)

	st := s.OverallStats()
	require.Equal(t, 2, st.TotalUsers)
	require.Equal(t, 2, st.ActiveUsers)
	require.Equal(t, int64(200), st.TotalCoins)
	require.Equal(t, int64(20_000), st.TotalBalance)
	require.Equal(t, 4, st.ShopItems)
}

func TestNewPaymentIDSortsByTime(t *testing.T) {
	earlier := NewPaymentID(mustTime(t, "2026-08-29T10:00:00Z"))
	later := NewPaymentID(mustTime(t, "2026-08-29T11:00:00Z"))
	require.True(t, earlier < later)
	require.Contains(t, earlier, "pay_20260829_")
}
