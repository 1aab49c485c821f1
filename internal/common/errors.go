// Package common - errors.go defines the sentinel errors shared by
// all engines. They let handlers tell failure kinds apart and pick
// an understandable message for the user. All of them are expected,
// recoverable outcomes - never panics.
package common

import (
	"errors"
	"fmt"
)

// Validation errors (malformed or out-of-range input)
var (
	// ErrInvalidAmount - amount is zero, negative or not a number
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrBelowMinimum - bet or payment amount is below the allowed minimum
	ErrBelowMinimum = errors.New("amount is below the minimum")
	// ErrInvalidAccount - wallet number failed the 11-digit format check
	ErrInvalidAccount = errors.New("invalid wallet number (11 digits, starts with 01)")
	// ErrUnsupportedMethod - payment method is not bkash or nagad
	ErrUnsupportedMethod = errors.New("unsupported payment method")
)

// Funds errors
var (
	// ErrInsufficientCoins - not enough coins for the requested debit
	ErrInsufficientCoins = errors.New("not enough coins")
	// ErrInsufficientBalance - not enough balance for the requested debit
	ErrInsufficientBalance = errors.New("not enough balance")
)

// Not-found errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrItemNotFound    = errors.New("shop item not found")
	// ErrItemNotOwned - item exists but is not in the user's inventory
	ErrItemNotOwned = errors.New("item is not in your inventory")
	// ErrQuizNotFound - no pending quiz question for this user
	ErrQuizNotFound = errors.New("no active quiz question")
)

// State conflicts
var (
	// ErrPaymentNotPending - payment is already in a terminal state
	ErrPaymentNotPending = errors.New("payment is not pending")
	// ErrBonusAlreadyClaimed - daily bonus was already claimed today
	ErrBonusAlreadyClaimed = errors.New("daily bonus already claimed today")
	// ErrQuizExpired - the 60-second answer window has passed
	ErrQuizExpired = errors.New("quiz question expired")
)

// Permission errors
var (
	// ErrNotAdmin - user is not in the admin list
	ErrNotAdmin = errors.New("admin permission required")
	// ErrUserBanned - banned users cannot use the economy
	ErrUserBanned = errors.New("user is banned")
	// ErrWrongPassword - admin panel password mismatch
	ErrWrongPassword = errors.New("wrong password")
	// ErrTooManyAttempts - admin login brute-force lockout
	ErrTooManyAttempts = errors.New("too many attempts, wait an hour")
)

// StorageError marks a fatal ledger I/O failure (disk full, corrupt file).
// Unlike the sentinels above it is not an expected outcome: the operation
// is aborted without mutating state and the user sees a generic failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
