// Package common contains shared utilities used across the project:
// money formatting and parsing, Dhaka time helpers, level calculation.
package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Balance is stored in poisha (1/100 taka) to avoid floating-point drift.
const PoishaPerTaka = 100

// FormatTaka renders a poisha amount as "৳1,234.50".
//
// Examples:
//
//	FormatTaka(10000) → "৳100.00"
//	FormatTaka(1050)  → "৳10.50"
func FormatTaka(poisha int64) string {
	sign := ""
	if poisha < 0 {
		sign = "-"
		poisha = -poisha
	}
	return fmt.Sprintf("%s৳%s.%02d", sign, FormatNumber(poisha/100), poisha%100)
}

// FormatCoins renders a coin amount as "🪙 1,250".
func FormatCoins(coins int64) string {
	return fmt.Sprintf("🪙 %s", FormatNumber(coins))
}

// FormatNumber formats a number with thousands separators.
// Example: FormatNumber(2350) → "2,350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%s,%03d", FormatNumber(n/1000), n%1000)
}

// ParseTaka converts a decimal string with up to 2 fractional digits
// into poisha. Rejects zero, negative and malformed amounts.
//
// Examples:
//
//	ParseTaka("100")   → 10000
//	ParseTaka("10.5")  → 1050
func ParseTaka(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if s[0] == '+' {
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	frac := "00"
	if len(parts) == 2 {
		if len(parts[1]) == 0 || len(parts[1]) > 2 {
			return 0, ErrInvalidAmount
		}
		frac = parts[1] + strings.Repeat("0", 2-len(parts[1]))
	}
	ip, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || ip < 0 {
		return 0, ErrInvalidAmount
	}
	fp, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	total := ip*100 + fp
	if total <= 0 {
		return 0, ErrInvalidAmount
	}
	return total, nil
}

// ParseCoins parses a positive integer coin amount (e.g. a bet).
func ParseCoins(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// DhakaTime returns the current time in the Asia/Dhaka timezone.
// Daily bonuses reset at midnight Dhaka time.
func DhakaTime() time.Time {
	loc, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		// Fall back to a fixed UTC+6 zone
		loc = time.FixedZone("BDT", 6*60*60)
	}
	return time.Now().In(loc)
}

// DhakaDate returns today's calendar date in Dhaka as "2006-01-02".
func DhakaDate() string {
	return DhakaTime().Format("2006-01-02")
}

// FormatDateTime renders a timestamp as "15:04 02/01/2006" in Dhaka time.
// Used for payment records and history listings.
func FormatDateTime(t time.Time) string {
	loc, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		loc = time.FixedZone("BDT", 6*60*60)
	}
	return t.In(loc).Format("15:04 02/01/2006")
}

// LevelInfo describes a user's position in the leveling curve.
type LevelInfo struct {
	Level    int
	XP       int // xp into the current level
	XPNeeded int // xp required to finish the current level
}

// CalculateLevel derives the level from total XP.
// Level 2 costs 100 XP; each next level costs 1.5x the previous one.
func CalculateLevel(xp int) LevelInfo {
	level := 1
	needed := 100
	for xp >= needed {
		xp -= needed
		level++
		needed = needed * 3 / 2
	}
	return LevelInfo{Level: level, XP: xp, XPNeeded: needed}
}

// ProgressBar renders a text progress bar like "[███░░░░░░░] 3/10".
func ProgressBar(current, total, length int) string {
	if total <= 0 {
		total = 1
	}
	filled := current * length / total
	if filled > length {
		filled = length
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat("█", filled), strings.Repeat("░", length-filled),
		current, total)
}
