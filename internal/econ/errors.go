package econ

import (
	"errors"
	"fmt"
)

// EconError represents a failure detected while ordering or reducing
// economic events.
//
// The taxonomy:
//   - DATA_INTEGRITY: malformed/unordered/duplicate/gapped input; fatal to
//     the affected match, never silently repaired.
//   - CONFIGURATION: unmapped weapon or missing rule entry; fatal, signals
//     a rules-table gap to fix before rerunning.
//   - INVARIANT_VIOLATION: would-be-negative bank or accounting identity
//     mismatch; fatal to the round, surfaced loudly as a logic or data bug.
//
// EconError includes structured fields so callers can report the offending
// match, round, and event without parsing the message.
type EconError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// MatchID identifies the affected match.
	MatchID string

	// RoundNumber identifies the affected round (0 when match-level).
	RoundNumber int

	// EventID identifies the offending event, when one exists.
	EventID string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes reducer errors.
type ErrorCode string

const (
	// CodeDataIntegrity indicates malformed, duplicated, or gapped input.
	CodeDataIntegrity ErrorCode = "DATA_INTEGRITY"

	// CodeConfiguration indicates an unmapped weapon or missing rule entry.
	CodeConfiguration ErrorCode = "CONFIGURATION"

	// CodeInvariantViolation indicates a bank or accounting invariant break.
	CodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// Error implements the error interface.
func (e *EconError) Error() string {
	switch {
	case e.EventID != "":
		return fmt.Sprintf("%s: %s (match=%s, round=%d, event=%s)",
			e.Code, e.Message, e.MatchID, e.RoundNumber, e.EventID)
	case e.RoundNumber > 0:
		return fmt.Sprintf("%s: %s (match=%s, round=%d)",
			e.Code, e.Message, e.MatchID, e.RoundNumber)
	case e.MatchID != "":
		return fmt.Sprintf("%s: %s (match=%s)", e.Code, e.Message, e.MatchID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsDataIntegrityError returns true if err is a DATA_INTEGRITY error.
// Uses errors.As to handle wrapped errors.
func IsDataIntegrityError(err error) bool {
	var ee *EconError
	return errors.As(err, &ee) && ee.Code == CodeDataIntegrity
}

// IsConfigurationError returns true if err is a CONFIGURATION error.
func IsConfigurationError(err error) bool {
	var ee *EconError
	return errors.As(err, &ee) && ee.Code == CodeConfiguration
}

// IsInvariantViolation returns true if err is an INVARIANT_VIOLATION error.
func IsInvariantViolation(err error) bool {
	var ee *EconError
	return errors.As(err, &ee) && ee.Code == CodeInvariantViolation
}

// NewDataIntegrityError creates a DATA_INTEGRITY error with context.
func NewDataIntegrityError(matchID string, round int, eventID, message string) *EconError {
	return &EconError{
		Code:        CodeDataIntegrity,
		Message:     message,
		MatchID:     matchID,
		RoundNumber: round,
		EventID:     eventID,
	}
}

// NewInvariantViolation creates an INVARIANT_VIOLATION error with context.
func NewInvariantViolation(matchID string, round int, eventID, message string) *EconError {
	return &EconError{
		Code:        CodeInvariantViolation,
		Message:     message,
		MatchID:     matchID,
		RoundNumber: round,
		EventID:     eventID,
	}
}
