// Package daily implements the daily bonus with a consecutive-day streak.
// A calendar day is a Dhaka-timezone date; the bonus resets at Dhaka
// midnight, not 24 hours after the previous claim.
package daily

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/store"
)

// Result is the outcome of one successful claim.
type Result struct {
	Bonus  int64 // coins credited
	Streak int   // streak after this claim
	Coins  int64 // coin balance after crediting
}

// Service settles daily bonus claims.
type Service struct {
	store *store.Store
	cfg   *config.Config
}

// NewService creates the daily bonus service.
func NewService(st *store.Store, cfg *config.Config) *Service {
	return &Service{store: st, cfg: cfg}
}

// Claim credits today's bonus. A second claim on the same Dhaka date is
// rejected; a claim on the day after the last one extends the streak; a
// gap of two or more days resets it to 1.
func (s *Service) Claim(userID int64) (*Result, error) {
	return s.claimOn(userID, common.DhakaTime())
}

// claimOn settles a claim as of the given instant. Split out so tests
// can drive exact calendar transitions.
func (s *Service) claimOn(userID int64, now time.Time) (*Result, error) {
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	res := &Result{}
	err := s.store.WithTx(userID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		if u.IsBanned {
			return common.ErrUserBanned
		}
		if u.LastDaily == today {
			return common.ErrBonusAlreadyClaimed
		}

		switch u.LastDaily {
		case yesterday:
			u.DailyStreak++
		default:
			u.DailyStreak = 1
		}

		res.Bonus = s.bonusFor(u.DailyStreak)
		res.Streak = u.DailyStreak

		u.Coins += res.Bonus
		u.LastDaily = today
		res.Coins = u.Coins

		tx.SaveUser(u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"bonus":   res.Bonus,
		"streak":  res.Streak,
	}).Debug("Daily bonus claimed")

	return res, nil
}

// bonusFor computes the bonus for a streak: base plus a capped
// per-day extra.
func (s *Service) bonusFor(streak int) int64 {
	extra := int64(streak) * s.cfg.DailyStreakStep
	if extra > s.cfg.DailyStreakExtra {
		extra = s.cfg.DailyStreakExtra
	}
	return s.cfg.DailyBaseBonus + extra
}
