// service.go coordinates a settlement from draw to ledger commit.
package games

import (
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/store"
)

// Service is the game settlement engine. One instance, constructed at
// startup, shared by the transport layer.
type Service struct {
	store *store.Store
	cfg   *config.Config

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates the settlement engine with a time-seeded RNG.
func NewService(st *store.Store, cfg *config.Config) *Service {
	return &Service{
		store: st,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// rollDie draws one uniform integer in [1,6].
func (s *Service) rollDie() int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(6) + 1
}

// spinReels draws three independent symbols from the reel alphabet.
func (s *Service) spinReels() [3]string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	var reels [3]string
	for i := range reels {
		reels[i] = SlotSymbols[s.rng.Intn(len(SlotSymbols))]
	}
	return reels
}

// settleDice computes the dice verdict and net coin delta for a bet.
// Pure: always the same answer for the same rolls.
func settleDice(player, house int, bet int64) (Verdict, int64) {
	switch {
	case player > house:
		return VerdictWin, +bet
	case player < house:
		return VerdictLose, -bet
	default:
		return VerdictDraw, 0
	}
}

// settleSlot computes the slot verdict and net delta: the stake is
// debited and multiplier×stake credited back. Three equal symbols pay
// ×10, exactly one pair pays ×2, no match pays nothing.
func settleSlot(reels [3]string, bet int64) (Verdict, int64) {
	switch {
	case reels[0] == reels[1] && reels[1] == reels[2]:
		return VerdictJackpot, -bet + 10*bet
	case reels[0] == reels[1] || reels[1] == reels[2] || reels[0] == reels[2]:
		return VerdictWin, -bet + 2*bet
	default:
		return VerdictLose, -bet
	}
}

// PlayDice draws two dice and settles the bet against the user's coins.
func (s *Service) PlayDice(userID, bet int64) (*DiceResult, error) {
	if bet < s.cfg.DiceMinBet {
		return nil, common.ErrBelowMinimum
	}
	return s.playDice(userID, bet, s.rollDie(), s.rollDie())
}

// playDice settles pre-drawn rolls. Split out so tests can drive exact
// outcomes through the full ledger path.
func (s *Service) playDice(userID, bet int64, player, house int) (*DiceResult, error) {
	verdict, net := settleDice(player, house, bet)
	res := &DiceResult{PlayerRoll: player, HouseRoll: house, Verdict: verdict, Net: net}

	err := s.store.WithTx(userID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		if u.IsBanned {
			return common.ErrUserBanned
		}
		if u.Coins < bet {
			return common.ErrInsufficientCoins
		}

		// coins ≥ bet and |net| ≤ bet, so the debit can never underflow.
		u.Coins += net
		tx.SaveUser(u)
		res.Coins = u.Coins

		tx.RecordGame(GameDice, verdict == VerdictWin, verdict == VerdictDraw, statAmount(net, bet))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"bet":     bet,
		"verdict": verdict,
		"net":     net,
	}).Debug("Dice settled")

	return res, nil
}

// PlaySlot spins three reels and settles the bet.
func (s *Service) PlaySlot(userID, bet int64) (*SlotResult, error) {
	if bet < s.cfg.SlotMinBet {
		return nil, common.ErrBelowMinimum
	}
	return s.playSlot(userID, bet, s.spinReels())
}

func (s *Service) playSlot(userID, bet int64, reels [3]string) (*SlotResult, error) {
	verdict, net := settleSlot(reels, bet)
	res := &SlotResult{Reels: reels, Verdict: verdict, Net: net}

	err := s.store.WithTx(userID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		if u.IsBanned {
			return common.ErrUserBanned
		}
		if u.Coins < bet {
			return common.ErrInsufficientCoins
		}

		u.Coins += net
		tx.SaveUser(u)
		res.Coins = u.Coins

		won := verdict == VerdictWin || verdict == VerdictJackpot
		tx.RecordGame(GameSlot, won, false, statAmount(net, bet))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"bet":     bet,
		"reels":   res.Reels,
		"verdict": verdict,
		"net":     net,
	}).Debug("Slot settled")

	return res, nil
}

// StatsFor returns the user's accumulated stats for one game type.
func (s *Service) StatsFor(userID int64, game string) store.GameStats {
	return s.store.GameStatsFor(userID, game)
}

// statAmount is the magnitude recorded in game statistics: the win
// amount on a win, the stake on a loss, zero on a draw.
func statAmount(net, bet int64) int64 {
	if net > 0 {
		return net
	}
	if net < 0 {
		return bet
	}
	return 0
}
