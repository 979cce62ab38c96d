// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
// The HTTP layer maps them onto status codes: ErrInvalidInput -> 400,
// ErrNotFound -> 404, ErrAlreadyExists/ErrAlreadyProcessed -> 409,
// everything else -> 500.
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Infrastructure errors
	ErrInternal = errors.New("internal error")
	ErrTimeout  = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "practice", "league", "student"
	Op      string // Operation that failed, e.g., "Record", "Rollover"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Create", ErrAlreadyExists, "student already exists")
)

// Practice domain errors
var (
	ErrTopicNotFound       = NewDomainError("practice", "FindTopic", ErrNotFound, "topic not found")
	ErrQuestionNotFound    = NewDomainError("practice", "FindQuestion", ErrNotFound, "question not found")
	ErrNoQuestionAvailable = NewDomainError("practice", "Select", ErrNotFound, "no question available in topic")
	ErrProgressNotFound    = NewDomainError("practice", "FindProgress", ErrNotFound, "progress not found")
	ErrUsageLogNotFound    = NewDomainError("practice", "FindUsage", ErrNotFound, "usage log not found")
)

// League domain errors
var (
	ErrLeagueNotFound     = NewDomainError("league", "Find", ErrNotFound, "league not found")
	ErrMembershipNotFound = NewDomainError("league", "FindMembership", ErrNotFound, "membership not found")
	ErrWeekAlreadyRolled  = NewDomainError("league", "Rollover", ErrAlreadyProcessed, "league week already rolled over")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if the error is a validation error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue)
}

// IsConflict checks if the error is a conflict-style error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrAlreadyProcessed) ||
		errors.Is(err, ErrInvalidState)
}
