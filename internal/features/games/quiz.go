// quiz.go implements the two-phase quiz: a draw that mutates nothing,
// then an answer check that credits the reward. The pending question is
// held in an explicit SessionStore owned by the caller side, with a
// hard 60-second answer window.
package games

import (
	"sync"
	"time"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/store"
)

// DrawQuestion picks a random question from the fixed pool. No coin
// mutation happens here - the caller stashes the index in its session
// and settles in CheckAnswer.
func (s *Service) DrawQuestion() QuizDraw {
	s.rngMu.Lock()
	idx := s.rng.Intn(len(questionPool))
	s.rngMu.Unlock()

	return QuizDraw{
		QuestionIndex: idx,
		Question:      questionPool[idx],
		Reward:        s.cfg.QuizReward,
	}
}

// CheckAnswer settles the answer phase: compares the chosen option
// against the stored correct index and credits the fixed reward only
// when correct. Statistics are recorded either way.
func (s *Service) CheckAnswer(userID int64, questionIndex, answerIndex int) (*QuizResult, error) {
	if questionIndex < 0 || questionIndex >= len(questionPool) {
		return nil, common.ErrQuizNotFound
	}

	correct := questionPool[questionIndex].Answer == answerIndex
	res := &QuizResult{Correct: correct}

	err := s.store.WithTx(userID, func(tx *store.Tx) error {
		u := tx.User()
		if u == nil {
			return common.ErrUserNotFound
		}
		if u.IsBanned {
			return common.ErrUserBanned
		}

		if correct {
			res.Reward = s.cfg.QuizReward
			u.Coins += res.Reward
			tx.SaveUser(u)
		}
		res.Coins = u.Coins

		tx.RecordGame(GameQuiz, correct, false, res.Reward)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SessionStore holds each user's pending quiz question between the draw
// and answer phases. Process-scoped, constructed once at startup and
// passed by reference - never a package global.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[int64]quizSession
}

type quizSession struct {
	questionIndex int
	expiresAt     time.Time
}

// NewSessionStore creates a session store with the given answer window.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[int64]quizSession),
	}
}

// Put stores the drawn question for the user, replacing any previous
// pending question.
func (ss *SessionStore) Put(userID int64, questionIndex int) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[userID] = quizSession{
		questionIndex: questionIndex,
		expiresAt:     time.Now().Add(ss.ttl),
	}
}

// Take removes and returns the user's pending question index.
// A question can be answered once; an expired one is gone.
func (ss *SessionStore) Take(userID int64) (int, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	sess, ok := ss.sessions[userID]
	if !ok {
		return 0, common.ErrQuizNotFound
	}
	delete(ss.sessions, userID)

	if time.Now().After(sess.expiresAt) {
		return 0, common.ErrQuizExpired
	}
	return sess.questionIndex, nil
}

// Cleanup drops expired sessions. Wired to the cron scheduler.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, sess := range ss.sessions {
		if now.After(sess.expiresAt) {
			delete(ss.sessions, id)
			removed++
		}
	}
	return removed
}
