// users.go implements the user-record contract of the Ledger Store:
// get, idempotent create, typed partial update.
package store

import (
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
)

// GetUser returns a copy of the user record.
func (s *Store) GetUser(userID int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[strconv.FormatInt(userID, 10)]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return copyUser(u), nil
}

// CreateUser registers a new ledger record with the welcome bonus.
// Idempotent: when the user already exists the existing record is
// returned untouched - re-joining never resets a balance.
func (s *Store) CreateUser(userID int64, seed UserSeed) (*User, error) {
	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	s.mu.Lock()
	key := strconv.FormatInt(userID, 10)
	if existing, ok := s.users[key]; ok {
		cp := copyUser(existing)
		s.mu.Unlock()
		return cp, nil
	}

	now := time.Now()
	u := &User{
		ID:        userID,
		Username:  seed.Username,
		FirstName: seed.FirstName,
		Balance:   s.welcomeBalance,
		Coins:     s.welcomeCoins,
		Level:     1,
		Inventory: []InventoryItem{},
		Joined:    now,
		LastSeen:  now,
	}
	s.users[key] = u

	if err := s.saveLocked(usersFile, s.users); err != nil {
		delete(s.users, key)
		s.mu.Unlock()
		return nil, err
	}
	cp := copyUser(u)
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": seed.Username,
	}).Info("New user registered")

	return cp, nil
}

// UpdateUser applies a validated merge-patch to the user record and
// stamps last_seen. Runs under the per-user guard like every mutation.
func (s *Store) UpdateUser(userID int64, patch UserPatch) error {
	return s.WithTx(userID, func(tx *Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		patch.apply(u)
		tx.SaveUser(u)
		return nil
	})
}

// UserCount returns the number of registered users (broadcast sizing).
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// AllUserIDs returns every registered user id (notification fan-out).
func (s *Store) AllUserIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.users))
	for _, u := range s.users {
		ids = append(ids, u.ID)
	}
	return ids
}

// GameStatsFor returns a copy of the user's stats for one game type.
func (s *Store) GameStatsFor(userID int64, game string) GameStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.games[gameKey(userID, game)]; ok {
		return *g
	}
	return GameStats{}
}
