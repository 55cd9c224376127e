package domain

import (
	"strconv"
	"strings"

	dErrors "deedbook/pkg/domain-errors"
)

// AccountID is the opaque, comparable identifier of a marketplace participant.
// The ledger never authenticates it; an external identity source (wallet,
// auth service) vouches for it before a caller reaches the engine.
//
// Usage: construct via ParseAccountID at trust boundaries; direct casting
// bypasses validation.
type AccountID string

// ParseAccountID constructs an AccountID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unreasonably
// long; the format is otherwise opaque on purpose.
func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account id cannot be empty")
	}
	if len(s) > 128 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account id must be 128 characters or less")
	}
	return AccountID(s), nil
}

func (a AccountID) IsZero() bool {
	return a == ""
}

func (a AccountID) String() string {
	return string(a)
}

// PropertyID is the sequential integer identifying one property record.
// Invariant: ids are dense and increasing starting at 1; never reused.
type PropertyID uint64

// ParsePropertyID constructs a PropertyID from external input such as a URL
// path segment.
//
// Errors: returns CodeInvalidInput when the value is not a positive integer.
func ParsePropertyID(s string) (PropertyID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "property id must be a positive integer")
	}
	return PropertyID(n), nil
}

func (p PropertyID) IsZero() bool {
	return p == 0
}

func (p PropertyID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}
