package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewRateLimiter(map[Category]Limit{
		CategoryGames: {Max: 3, Window: time.Minute},
	})
	defer rl.Close()

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow(1, CategoryGames))
	}
	require.False(t, rl.Allow(1, CategoryGames))

	// Limits are per user.
	require.True(t, rl.Allow(2, CategoryGames))
}

func TestCategoriesAreIndependent(t *testing.T) {
	rl := NewRateLimiter(map[Category]Limit{
		CategoryGames:    {Max: 1, Window: time.Minute},
		CategoryCommands: {Max: 2, Window: time.Minute},
	})
	defer rl.Close()

	require.True(t, rl.Allow(1, CategoryGames))
	require.False(t, rl.Allow(1, CategoryGames))

	require.True(t, rl.Allow(1, CategoryCommands))
	require.True(t, rl.Allow(1, CategoryCommands))
	require.False(t, rl.Allow(1, CategoryCommands))
}

func TestUnknownCategoryAllowed(t *testing.T) {
	rl := NewRateLimiter(map[Category]Limit{})
	defer rl.Close()

	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow(1, CategoryDeposits))
	}
}

func TestWindowSlides(t *testing.T) {
	rl := NewRateLimiter(map[Category]Limit{
		CategoryGames: {Max: 1, Window: 50 * time.Millisecond},
	})
	defer rl.Close()

	require.True(t, rl.Allow(1, CategoryGames))
	require.False(t, rl.Allow(1, CategoryGames))

	time.Sleep(60 * time.Millisecond)
	require.True(t, rl.Allow(1, CategoryGames))
}
