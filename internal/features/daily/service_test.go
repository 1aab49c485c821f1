package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(t.TempDir(), 10_000, 100)
	require.NoError(t, err)
	cfg := &config.Config{
		DailyBaseBonus:   50,
		DailyStreakStep:  10,
		DailyStreakExtra: 100,
	}
	return NewService(st, cfg)
}

func registerUser(t *testing.T, s *Service, userID int64) {
	t.Helper()
	_, err := s.store.CreateUser(userID, store.UserSeed{Username: "player", FirstName: "Player"})
	require.NoError(t, err)
}

func day(t *testing.T, date string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	return ts
}

func TestClaimFirstTime(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)

	res, err := s.claimOn(1, day(t, "2026-08-01"))
	require.NoError(t, err)
	require.Equal(t, int64(60), res.Bonus) // base 50 + streak 1 × 10
	require.Equal(t, 1, res.Streak)
	require.Equal(t, int64(160), res.Coins)

	u, err := s.store.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, "2026-08-01", u.LastDaily)
}

func TestClaimSameDayRejected(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)

	_, err := s.claimOn(1, day(t, "2026-08-01"))
	require.NoError(t, err)

	_, err = s.claimOn(1, day(t, "2026-08-01"))
	require.ErrorIs(t, err, common.ErrBonusAlreadyClaimed)

	// Exactly one bonus credited.
	u, err := s.store.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(160), u.Coins)
	require.Equal(t, 1, u.DailyStreak)
}

func TestClaimConsecutiveDaysExtendStreak(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)

	dates := []string{"2026-08-01", "2026-08-02", "2026-08-03"}
	var last *Result
	for _, date := range dates {
		res, err := s.claimOn(1, day(t, date))
		require.NoError(t, err)
		last = res
	}

	require.Equal(t, 3, last.Streak)
	require.Equal(t, int64(80), last.Bonus) // base 50 + streak 3 × 10
}

func TestClaimGapResetsStreak(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)

	_, err := s.claimOn(1, day(t, "2026-08-01"))
	require.NoError(t, err)
	_, err = s.claimOn(1, day(t, "2026-08-02"))
	require.NoError(t, err)

	// Skip the 3rd; claim on the 4th.
	res, err := s.claimOn(1, day(t, "2026-08-04"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Streak)
	require.Equal(t, int64(60), res.Bonus)
}

func TestClaimStreakExtraCapped(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)

	// Preload a long streak ending yesterday.
	streak := 20
	last := "2026-08-19"
	require.NoError(t, s.store.UpdateUser(1, store.UserPatch{DailyStreak: &streak, LastDaily: &last}))

	res, err := s.claimOn(1, day(t, "2026-08-20"))
	require.NoError(t, err)
	require.Equal(t, 21, res.Streak)
	require.Equal(t, int64(150), res.Bonus) // extra capped at 100
}

func TestClaimUnknownUser(t *testing.T) {
	s := newTestService(t)

	_, err := s.claimOn(42, day(t, "2026-08-01"))
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestClaimBannedUser(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1)
	banned := true
	require.NoError(t, s.store.UpdateUser(1, store.UserPatch{IsBanned: &banned}))

	_, err := s.claimOn(1, day(t, "2026-08-01"))
	require.ErrorIs(t, err, common.ErrUserBanned)
}
