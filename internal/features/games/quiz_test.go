package games

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/master-pd/marpd/internal/common"
)

func TestDrawQuestionNoMutation(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1, 100)

	draw := s.DrawQuestion()
	require.GreaterOrEqual(t, draw.QuestionIndex, 0)
	require.Less(t, draw.QuestionIndex, len(questionPool))
	require.Equal(t, questionPool[draw.QuestionIndex].Text, draw.Question.Text)
	require.Equal(t, int64(50), draw.Reward)

	// The draw phase moves no coins.
	u, err := s.store.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(100), u.Coins)
}

func TestCheckAnswer(t *testing.T) {
	tests := []struct {
		name       string
		answer     func(q Question) int
		wantReward int64
		wantCoins  int64
	}{
		{
			name:       "correct answer pays reward",
			answer:     func(q Question) int { return q.Answer },
			wantReward: 50,
			wantCoins:  150,
		},
		{
			name:       "wrong answer pays nothing",
			answer:     func(q Question) int { return (q.Answer + 1) % len(q.Options) },
			wantReward: 0,
			wantCoins:  100,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t)
			userID := int64(3000 + i)
			registerUser(t, s, userID, 100)

			const qIdx = 2
			res, err := s.CheckAnswer(userID, qIdx, tt.answer(questionPool[qIdx]))
			require.NoError(t, err)
			require.Equal(t, tt.wantReward > 0, res.Correct)
			require.Equal(t, tt.wantReward, res.Reward)
			require.Equal(t, tt.wantCoins, res.Coins)

			stats := s.StatsFor(userID, GameQuiz)
			require.Equal(t, 1, stats.Plays)
		})
	}
}

func TestCheckAnswerUnknownQuestion(t *testing.T) {
	s := newTestService(t)
	registerUser(t, s, 1, 100)

	_, err := s.CheckAnswer(1, -1, 0)
	require.ErrorIs(t, err, common.ErrQuizNotFound)

	_, err = s.CheckAnswer(1, len(questionPool), 0)
	require.ErrorIs(t, err, common.ErrQuizNotFound)
}

func TestSessionStoreTakeConsumes(t *testing.T) {
	ss := NewSessionStore(time.Minute)
	ss.Put(1, 3)

	idx, err := ss.Take(1)
	require.NoError(t, err)
	require.Equal(t, 3, idx)

	// A session can be taken once.
	_, err = ss.Take(1)
	require.ErrorIs(t, err, common.ErrQuizNotFound)
}

func TestSessionStoreExpiry(t *testing.T) {
	ss := NewSessionStore(-time.Second)
	ss.Put(1, 0)

	_, err := ss.Take(1)
	require.ErrorIs(t, err, common.ErrQuizExpired)

	// An expired session is gone after Take.
	_, err = ss.Take(1)
	require.ErrorIs(t, err, common.ErrQuizNotFound)
}

func TestSessionStoreReplace(t *testing.T) {
	ss := NewSessionStore(time.Minute)
	ss.Put(1, 0)
	ss.Put(1, 4)

	idx, err := ss.Take(1)
	require.NoError(t, err)
	require.Equal(t, 4, idx)
}

func TestSessionStoreCleanup(t *testing.T) {
	ss := NewSessionStore(-time.Second)
	ss.Put(1, 0)
	ss.Put(2, 1)

	removed := ss.Cleanup()
	require.Equal(t, 2, removed)
	require.Empty(t, ss.sessions)
}
