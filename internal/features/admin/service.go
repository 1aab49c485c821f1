// Package admin implements the admin panel: password login with
// Argon2id, moderation actions and the bot-wide overview. Sessions and
// attempt tracking are process-scoped service state constructed at
// startup.
package admin

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/store"
)

const (
	sessionTTL     = 24 * time.Hour
	maxAttempts    = 3
	attemptsWindow = time.Hour
	warnLimit      = 3
)

// Service manages admin authentication and moderation.
type Service struct {
	store *store.Store
	cfg   *config.Config

	mu       sync.Mutex
	sessions map[int64]time.Time // userID -> session expiry
	attempts map[int64][]time.Time
}

// NewService creates the admin service.
func NewService(st *store.Store, cfg *config.Config) *Service {
	return &Service{
		store:    st,
		cfg:      cfg,
		sessions: make(map[int64]time.Time),
		attempts: make(map[int64][]time.Time),
	}
}

// Login verifies the admin password and opens a 24-hour session.
// Three failed attempts within an hour lock the user out for the rest
// of the window.
func (s *Service) Login(userID int64, password string) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.recentAttemptsLocked(userID)
	if len(recent) >= maxAttempts {
		return common.ErrTooManyAttempts
	}

	if !verifyArgon2id(password, s.cfg.AdminPasswordHash) {
		s.attempts[userID] = append(recent, time.Now())
		log.WithField("user_id", userID).Warn("Failed admin login attempt")
		return common.ErrWrongPassword
	}

	delete(s.attempts, userID)
	s.sessions[userID] = time.Now().Add(sessionTTL)
	log.WithField("user_id", userID).Info("Admin logged in")
	return nil
}

// HasSession reports whether the user holds an unexpired admin session.
func (s *Service) HasSession(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.sessions[userID]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.sessions, userID)
		return false
	}
	return true
}

// Logout drops the user's session.
func (s *Service) Logout(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// authorize gates moderation actions: admin id plus a live session.
func (s *Service) authorize(adminID int64) error {
	if !s.cfg.IsAdmin(adminID) {
		return common.ErrNotAdmin
	}
	if !s.HasSession(adminID) {
		return common.ErrNotAdmin
	}
	return nil
}

// recentAttemptsLocked prunes and returns failed attempts inside the
// lockout window. Caller holds s.mu.
func (s *Service) recentAttemptsLocked(userID int64) []time.Time {
	cutoff := time.Now().Add(-attemptsWindow)
	var recent []time.Time
	for _, at := range s.attempts[userID] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	s.attempts[userID] = recent
	return recent
}

// WarnResult is the outcome of a warning.
type WarnResult struct {
	Warnings int
	Banned   bool // the warning crossed the auto-ban limit
}

// Warn adds a warning; the third one bans automatically.
func (s *Service) Warn(adminID, targetID int64) (*WarnResult, error) {
	if err := s.authorize(adminID); err != nil {
		return nil, err
	}

	res := &WarnResult{}
	err := s.store.WithTx(targetID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		u.Warnings++
		if u.Warnings >= warnLimit {
			u.IsBanned = true
		}
		res.Warnings = u.Warnings
		res.Banned = u.IsBanned
		tx.SaveUser(u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"admin_id":  adminID,
		"target_id": targetID,
		"warnings":  res.Warnings,
		"banned":    res.Banned,
	}).Info("User warned")

	return res, nil
}

// Ban blocks the user from all economy operations.
func (s *Service) Ban(adminID, targetID int64) error {
	return s.setBanned(adminID, targetID, true)
}

// Unban lifts the ban and clears the warnings.
func (s *Service) Unban(adminID, targetID int64) error {
	return s.setBanned(adminID, targetID, false)
}

func (s *Service) setBanned(adminID, targetID int64, banned bool) error {
	if err := s.authorize(adminID); err != nil {
		return err
	}

	err := s.store.WithTx(targetID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		u.IsBanned = banned
		if !banned {
			u.Warnings = 0
		}
		tx.SaveUser(u)
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"admin_id":  adminID,
		"target_id": targetID,
		"banned":    banned,
	}).Info("Ban state changed")

	return nil
}

// AddCoins credits (or with a negative amount debits) coins. A debit
// below zero is rejected by the ledger invariant.
func (s *Service) AddCoins(adminID, targetID int64, amount int64) (int64, error) {
	if err := s.authorize(adminID); err != nil {
		return 0, err
	}

	var after int64
	err := s.store.WithTx(targetID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		if u.Coins+amount < 0 {
			return common.ErrInsufficientCoins
		}
		u.Coins += amount
		after = u.Coins
		tx.SaveUser(u)
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"admin_id":  adminID,
		"target_id": targetID,
		"amount":    amount,
	}).Info("Coins adjusted")

	return after, nil
}

// BotStats renders the bot-wide overview.
func (s *Service) BotStats(adminID int64) (string, error) {
	if err := s.authorize(adminID); err != nil {
		return "", err
	}

	st := s.store.OverallStats()
	return fmt.Sprintf(
		"📊 BOT STATISTICS 📊\n\n"+
			"👥 Users\n"+
			"• Total: %s\n"+
			"• Active (7d): %s\n\n"+
			"💰 Economy\n"+
			"• Total coins: %s\n"+
			"• Total balance: %s\n"+
			"• Payments: %s\n\n"+
			"🛍️ Shop items: %d",
		common.FormatNumber(int64(st.TotalUsers)),
		common.FormatNumber(int64(st.ActiveUsers)),
		common.FormatCoins(st.TotalCoins),
		common.FormatTaka(st.TotalBalance),
		common.FormatNumber(int64(st.TotalPayments)),
		st.ShopItems), nil
}

// UserInfo renders one user's full record for moderation.
func (s *Service) UserInfo(adminID, targetID int64) (string, error) {
	if err := s.authorize(adminID); err != nil {
		return "", err
	}

	u, err := s.store.GetUser(targetID)
	if err != nil {
		return "", err
	}

	status := "✅ Active"
	if u.IsBanned {
		status = "🚫 Banned"
	}
	return fmt.Sprintf(
		"👤 USER %d\n\n"+
			"Name: %s (@%s)\n"+
			"💵 Balance: %s\n"+
			"💰 Coins: %s\n"+
			"🏅 Level: %d (XP %d)\n"+
			"🔥 Streak: %d\n"+
			"⚠️ Warnings: %d/%d\n"+
			"✉️ Messages: %d\n"+
			"📅 Joined: %s\n"+
			"🚨 Status: %s",
		u.ID, u.FirstName, u.Username,
		common.FormatTaka(u.Balance), common.FormatCoins(u.Coins),
		u.Level, u.XP, u.DailyStreak,
		u.Warnings, warnLimit, u.TotalMessages,
		common.FormatDateTime(u.Joined), status), nil
}

// BroadcastTargets returns every registered user id for a broadcast.
func (s *Service) BroadcastTargets(adminID int64) ([]int64, error) {
	if err := s.authorize(adminID); err != nil {
		return nil, err
	}
	return s.store.AllUserIDs(), nil
}

// verifyArgon2id checks a password against an encoded Argon2id hash:
// $argon2id$v=19$m=65536,t=3,p=2$<salt_b64>$<hash_b64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Malformed Argon2id hash in configuration")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Failed to parse Argon2id parameters")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Failed to decode Argon2id salt")
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Failed to decode Argon2id hash")
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
