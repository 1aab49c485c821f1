// Package members manages user registration, activity tracking and the
// profile view. Every incoming update passes through Ensure so a user
// exists before any engine touches their ledger record.
package members

import (
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/store"
)

// XP granted per counted message.
const xpPerMessage = 5

// Service manages member records.
type Service struct {
	store *store.Store
	cfg   *config.Config
}

// NewService creates the members service.
func NewService(st *store.Store, cfg *config.Config) *Service {
	return &Service{store: st, cfg: cfg}
}

// Ensure registers the user if needed and refreshes their identity
// fields. Registration grants the welcome bonus once; repeated calls
// only update username and first name.
func (s *Service) Ensure(userID int64, username, firstName string) (*store.User, error) {
	u, err := s.store.GetUser(userID)
	if err == nil {
		if u.Username != username || u.FirstName != firstName {
			patch := store.UserPatch{Username: &username, FirstName: &firstName}
			if err := s.store.UpdateUser(userID, patch); err != nil {
				return nil, err
			}
			u.Username = username
			u.FirstName = firstName
		}
		return u, nil
	}

	return s.store.CreateUser(userID, store.UserSeed{
		Username:  username,
		FirstName: firstName,
	})
}

// OnMessage counts one message towards activity and XP. The level only
// ever moves up; XP is total and the level derived from it.
func (s *Service) OnMessage(userID int64) error {
	err := s.store.WithTx(userID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}

		u.TotalMessages++
		u.XP += xpPerMessage

		info := common.CalculateLevel(u.XP)
		if info.Level > u.Level {
			u.Level = info.Level
			log.WithFields(log.Fields{
				"user_id": userID,
				"level":   u.Level,
			}).Info("User leveled up")
		}

		tx.SaveUser(u)
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// Get returns the user record.
func (s *Service) Get(userID int64) (*store.User, error) {
	return s.store.GetUser(userID)
}
