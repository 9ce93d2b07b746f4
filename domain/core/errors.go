package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrDatasetNotFound    = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("%w: submission", ErrNotFound)
	ErrProposalNotFound   = fmt.Errorf("%w: proposal", ErrNotFound)

	// Validation failures surfaced to the user; nothing is written when one occurs.
	ErrNoDates              = errors.New("at least one meeting date is required")
	ErrPoolTooSmall         = errors.New("reviewer pool is smaller than reviewers per proposal")
	ErrInvalidReviewerCount = errors.New("reviewers per proposal must be at least 1")
	ErrNoProposals          = errors.New("no visible proposals to assign")
	ErrNoMatchColumn        = errors.New("no match column found")
	ErrUnknownHeader        = errors.New("header is not part of the dataset")
	ErrColumnLocked         = errors.New("match column is locked")
	ErrInvalidFundingStatus = errors.New("invalid funding status")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid calendar date")
	ErrEmptyIdentity        = errors.New("proposal identity is empty")
)

// NewNotFoundError builds a not-found error carrying the resource and id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// IsNotFoundError reports whether err is any not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports whether err is a caller-input validation failure
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrNoDates, ErrPoolTooSmall, ErrInvalidReviewerCount, ErrNoProposals,
		ErrNoMatchColumn, ErrUnknownHeader, ErrColumnLocked,
		ErrInvalidFundingStatus, ErrInvalidAmount, ErrInvalidDate, ErrEmptyIdentity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
