// store.go owns the JSON files and the in-memory maps. Every mutating
// operation goes through a Tx (see tx.go) so the read-modify-write
// sequence is serialized per user and flushed to disk before the
// operation reports success.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
)

// File names inside the data directory.
const (
	usersFile    = "users.json"
	paymentsFile = "payments.json"
	gamesFile    = "games.json"
	shopFile     = "shop.json"
)

// Store is the Ledger Store. One instance is constructed at startup and
// passed by reference to every engine - there is no ambient global state.
type Store struct {
	dataDir        string
	welcomeBalance int64
	welcomeCoins   int64

	// traffic quiesces the store for Restore: every WithTx holds a read
	// lock for its whole staged read-modify-write, so Restore can never
	// interleave with a transaction that staged its copy earlier.
	traffic sync.RWMutex

	// mu guards the maps and file writes. Held only for short
	// in-memory sections and the final flush, never across user code.
	mu       sync.Mutex
	users    map[string]*User
	payments map[string]*Payment
	games    map[string]*GameStats
	shop     *catalog

	// Per-user locks: the Concurrency Guard. Operations on different
	// users run in parallel; operations on the same user serialize.
	locksMu   sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// Open loads (or initializes) the ledger files under dataDir.
// welcomeBalance/welcomeCoins seed newly created user records.
func Open(dataDir string, welcomeBalance, welcomeCoins int64) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, &common.StorageError{Op: "mkdir", Err: err}
	}

	s := &Store{
		dataDir:        dataDir,
		welcomeBalance: welcomeBalance,
		welcomeCoins:   welcomeCoins,
		users:          make(map[string]*User),
		payments:       make(map[string]*Payment),
		games:          make(map[string]*GameStats),
		userLocks:      make(map[int64]*sync.Mutex),
	}

	if err := loadJSON(s.path(usersFile), &s.users); err != nil {
		return nil, err
	}
	if err := loadJSON(s.path(paymentsFile), &s.payments); err != nil {
		return nil, err
	}
	if err := loadJSON(s.path(gamesFile), &s.games); err != nil {
		return nil, err
	}

	var shop catalog
	if err := loadJSON(s.path(shopFile), &shop); err != nil {
		return nil, err
	}
	if len(shop.Items) == 0 {
		// First run: seed the default catalog so /shop is never empty.
		s.shop = defaultCatalog()
		if err := s.saveLocked(shopFile, s.shop); err != nil {
			return nil, err
		}
	} else {
		s.shop = &shop
	}

	log.WithFields(log.Fields{
		"dir":      dataDir,
		"users":    len(s.users),
		"payments": len(s.payments),
	}).Info("Ledger store initialized (JSON storage)")

	return s, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// lockUser returns the mutex guarding the given user's record,
// creating it on first use.
func (s *Store) lockUser(userID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	mu, ok := s.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.userLocks[userID] = mu
	}
	return mu
}

// loadJSON reads a JSON file into dst. A missing file leaves dst as-is
// (the store starts empty); any other failure is fatal.
func loadJSON(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &common.StorageError{Op: "read " + filepath.Base(path), Err: err}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &common.StorageError{Op: "parse " + filepath.Base(path), Err: err}
	}
	return nil
}

// saveLocked writes v into the named file atomically (temp + rename) so a
// crash mid-write never leaves a truncated ledger. Caller holds s.mu (or
// the store is not shared yet).
func (s *Store) saveLocked(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &common.StorageError{Op: "encode " + name, Err: err}
	}

	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return &common.StorageError{Op: "write " + name, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &common.StorageError{Op: "rename " + name, Err: err}
	}
	return nil
}

// Stats is the admin /stats overview.
type Stats struct {
	TotalUsers    int
	ActiveUsers   int // seen in the last 7 days
	TotalCoins    int64
	TotalBalance  int64 // poisha
	TotalPayments int
	ShopItems     int
}

// OverallStats aggregates the ledger for the admin overview.
func (s *Store) OverallStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		TotalUsers:    len(s.users),
		TotalPayments: len(s.payments),
		ShopItems:     len(s.shop.Items),
	}
	weekAgo := time.Now().AddDate(0, 0, -7)
	for _, u := range s.users {
		st.TotalCoins += u.Coins
		st.TotalBalance += u.Balance
		if u.LastSeen.After(weekAgo) {
			st.ActiveUsers++
		}
	}
	return st
}

// Snapshot is a point-in-time copy of the whole ledger, consumed by the
// backup manager. The maps are deep copies: mutating the snapshot never
// touches live state.
type Snapshot struct {
	Users     map[string]*User      `json:"users"`
	Payments  map[string]*Payment   `json:"payments"`
	Games     map[string]*GameStats `json:"games"`
	ShopItems []ShopItem            `json:"shop_items"`
	Timestamp time.Time             `json:"timestamp"`
}

// Snapshot copies the full ledger state under the store lock.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Users:     make(map[string]*User, len(s.users)),
		Payments:  make(map[string]*Payment, len(s.payments)),
		Games:     make(map[string]*GameStats, len(s.games)),
		ShopItems: append([]ShopItem(nil), s.shop.Items...),
		Timestamp: time.Now(),
	}
	for k, u := range s.users {
		snap.Users[k] = copyUser(u)
	}
	for k, p := range s.payments {
		cp := *p
		snap.Payments[k] = &cp
	}
	for k, g := range s.games {
		cp := *g
		snap.Games[k] = &cp
	}
	return snap
}

// Restore replaces the whole ledger with the snapshot contents and
// persists every file. Used by the admin backup-restore flow.
func (s *Store) Restore(snap *Snapshot) error {
	// Wait for in-flight transactions and block new ones: a Tx that
	// staged its user copy before the restore must not commit after it.
	s.traffic.Lock()
	defer s.traffic.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = snap.Users
	s.payments = snap.Payments
	s.games = snap.Games
	s.shop = &catalog{Items: snap.ShopItems}

	for name, v := range map[string]any{
		usersFile:    s.users,
		paymentsFile: s.payments,
		gamesFile:    s.games,
		shopFile:     s.shop,
	} {
		if err := s.saveLocked(name, v); err != nil {
			return err
		}
	}
	return nil
}

// copyUser returns a deep copy so callers can never mutate live state
// outside a Tx.
func copyUser(u *User) *User {
	cp := *u
	cp.Inventory = append([]InventoryItem(nil), u.Inventory...)
	return &cp
}

func gameKey(userID int64, game string) string {
	return fmt.Sprintf("%d_%s", userID, game)
}
