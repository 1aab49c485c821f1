// tx.go implements the Concurrency Guard: WithTx serializes every
// read-modify-write against one user's slice of the ledger and flushes
// the result to disk before acknowledging success.
package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/master-pd/marpd/internal/common"
)

// Tx is a staging view over one user's ledger slice. Changes made through
// a Tx are invisible to other operations until commit; if the operation
// returns an error nothing is applied (no partial debits).
type Tx struct {
	store  *Store
	userID int64

	user      *User // staged copy, nil when the user does not exist
	userDirty bool

	payments map[string]*Payment // staged payment upserts
	games    map[string]*GameStats
}

// WithTx runs fn with exclusive access to userID's record. The per-user
// lock is held for the whole read-modify-write sequence, so the net
// effect of N concurrent operations equals some serial order of them.
// fn must not block on anything slow: no I/O happens under the lock
// except the final flush.
func (s *Store) WithTx(userID int64, fn func(tx *Tx) error) error {
	s.traffic.RLock()
	defer s.traffic.RUnlock()

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	tx := &Tx{
		store:    s,
		userID:   userID,
		payments: make(map[string]*Payment),
		games:    make(map[string]*GameStats),
	}

	s.mu.Lock()
	if u, ok := s.users[strconv.FormatInt(userID, 10)]; ok {
		tx.user = copyUser(u)
	}
	s.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	// Final invariant guard: engines reject violating operations up
	// front, so tripping this means a settlement bug, not user error.
	if tx.userDirty && tx.user != nil {
		if tx.user.Balance < 0 || tx.user.Coins < 0 {
			return fmt.Errorf("ledger invariant violated for user %d: balance=%d coins=%d",
				userID, tx.user.Balance, tx.user.Coins)
		}
	}

	return s.commit(tx)
}

// User returns the staged user record (nil if the user does not exist).
// The copy may be mutated freely; call SaveUser to stage it for commit.
func (tx *Tx) User() *User {
	return tx.user
}

// SaveUser stages the user record for commit and stamps last_seen.
func (tx *Tx) SaveUser(u *User) {
	u.LastSeen = time.Now()
	tx.user = u
	tx.userDirty = true
}

// Payment returns a copy of the payment, preferring a staged version.
func (tx *Tx) Payment(id string) (*Payment, error) {
	if p, ok := tx.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	p, ok := tx.store.payments[id]
	if !ok {
		return nil, common.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

// PutPayment stages a payment insert or update.
func (tx *Tx) PutPayment(p *Payment) {
	cp := *p
	tx.payments[p.ID] = &cp
}

// RecordGame stages a game-statistics update for this user.
// won=true adds a win with amount into total_won; won=false adds a loss
// with amount into total_lost; a draw (amount 0, won=false, draw=true)
// counts a play only.
func (tx *Tx) RecordGame(game string, won, draw bool, amount int64) {
	key := gameKey(tx.userID, game)

	stats, ok := tx.games[key]
	if !ok {
		tx.store.mu.Lock()
		if live, exists := tx.store.games[key]; exists {
			cp := *live
			stats = &cp
		} else {
			stats = &GameStats{}
		}
		tx.store.mu.Unlock()
		tx.games[key] = stats
	}

	stats.Plays++
	switch {
	case draw:
	case won:
		stats.Wins++
		stats.TotalWon += amount
	default:
		stats.Losses++
		stats.TotalLost += amount
	}
}

// commit applies the staged changes to the live maps and persists the
// dirty files. On a persist failure the in-memory state is rolled back
// so a StorageError never leaves ledger and disk disagreeing.
func (s *Store) commit(tx *Tx) error {
	if !tx.userDirty && len(tx.payments) == 0 && len(tx.games) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strconv.FormatInt(tx.userID, 10)

	// Remember previous values for rollback.
	prevUser, hadUser := s.users[key]
	prevPayments := make(map[string]*Payment, len(tx.payments))
	prevGames := make(map[string]*GameStats, len(tx.games))
	for id := range tx.payments {
		prevPayments[id] = s.payments[id] // nil when absent
	}
	for k := range tx.games {
		prevGames[k] = s.games[k]
	}

	rollback := func() {
		if hadUser {
			s.users[key] = prevUser
		} else {
			delete(s.users, key)
		}
		for id, prev := range prevPayments {
			if prev == nil {
				delete(s.payments, id)
			} else {
				s.payments[id] = prev
			}
		}
		for k, prev := range prevGames {
			if prev == nil {
				delete(s.games, k)
			} else {
				s.games[k] = prev
			}
		}
	}

	if tx.userDirty {
		s.users[key] = tx.user
	}
	for id, p := range tx.payments {
		s.payments[id] = p
	}
	for k, g := range tx.games {
		s.games[k] = g
	}

	// Persist dirty files. On failure roll the maps back and best-effort
	// rewrite anything already flushed so disk and memory stay aligned.
	flushed := make([]string, 0, 3)
	flush := func(name string, v any) error {
		if err := s.saveLocked(name, v); err != nil {
			rollback()
			for _, n := range flushed {
				switch n {
				case usersFile:
					_ = s.saveLocked(usersFile, s.users)
				case paymentsFile:
					_ = s.saveLocked(paymentsFile, s.payments)
				}
			}
			return err
		}
		flushed = append(flushed, name)
		return nil
	}

	if tx.userDirty {
		if err := flush(usersFile, s.users); err != nil {
			return err
		}
	}
	if len(tx.payments) > 0 {
		if err := flush(paymentsFile, s.payments); err != nil {
			return err
		}
	}
	if len(tx.games) > 0 {
		if err := flush(gamesFile, s.games); err != nil {
			return err
		}
	}
	return nil
}
