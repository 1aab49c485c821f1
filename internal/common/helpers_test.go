package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatTaka(t *testing.T) {
	require.Equal(t, "৳100.00", FormatTaka(10_000))
	require.Equal(t, "৳10.50", FormatTaka(1050))
	require.Equal(t, "৳0.05", FormatTaka(5))
	require.Equal(t, "৳1,234.50", FormatTaka(123_450))
	require.Equal(t, "-৳10.00", FormatTaka(-1000))
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "0", FormatNumber(0))
	require.Equal(t, "999", FormatNumber(999))
	require.Equal(t, "2,350", FormatNumber(2350))
	require.Equal(t, "1,000,000", FormatNumber(1_000_000))
	require.Equal(t, "-2,350", FormatNumber(-2350))
}

func TestParseTaka(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "100", want: 10_000},
		{in: "10.5", want: 1050},
		{in: "10.50", want: 1050},
		{in: "0.05", want: 5},
		{in: " 25 ", want: 2500},
		{in: "0", wantErr: true},
		{in: "0.00", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "10.505", wantErr: true},
		{in: "1.2.3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTaka(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseCoins(t *testing.T) {
	v, err := ParseCoins("50")
	require.NoError(t, err)
	require.Equal(t, int64(50), v)

	for _, in := range []string{"0", "-5", "1.5", "", "lots"} {
		_, err := ParseCoins(in)
		require.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		xp        int
		wantLevel int
	}{
		{xp: 0, wantLevel: 1},
		{xp: 99, wantLevel: 1},
		{xp: 100, wantLevel: 2}, // level 2 at 100
		{xp: 249, wantLevel: 2}, // level 3 needs 100+150
		{xp: 250, wantLevel: 3},
		{xp: 474, wantLevel: 3}, // level 4 needs 100+150+225
		{xp: 475, wantLevel: 4},
	}

	for _, tt := range tests {
		got := CalculateLevel(tt.xp)
		require.Equal(t, tt.wantLevel, got.Level, "xp=%d", tt.xp)
	}

	// Residual XP counts into the current level.
	info := CalculateLevel(120)
	require.Equal(t, 2, info.Level)
	require.Equal(t, 20, info.XP)
	require.Equal(t, 150, info.XPNeeded)
}

func TestProgressBar(t *testing.T) {
	require.Equal(t, "[███░░░░░░░] 3/10", ProgressBar(3, 10, 10))
	require.Equal(t, "[██████████] 10/10", ProgressBar(10, 10, 10))
	// Overshoot clamps to a full bar.
	require.Equal(t, "[██████████] 15/10", ProgressBar(15, 10, 10))
}
