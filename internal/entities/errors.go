// Package entities contains core business entities and errors.
package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals failed input validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDateRangeInvalid signals an end date that is not after the start date.
	ErrDateRangeInvalid = errors.New("end date must be after start date")
	// ErrDateRangeTooLarge signals a distribution window wider than allowed.
	ErrDateRangeTooLarge = errors.New("date range too large")
	// ErrInvalidDifficulty signals a difficulty outside 1..10.
	ErrInvalidDifficulty = errors.New("difficulty must be between 1 and 10")
	// ErrUnauthorized signals a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals a caller without the required group role.
	ErrForbidden = errors.New("forbidden")
	// ErrGroupNotFound signals missing group.
	ErrGroupNotFound = errors.New("group not found")
	// ErrTaskNotFound signals missing task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrPreviewNotFound signals an unknown or expired distribution preview.
	ErrPreviewNotFound = errors.New("distribution preview not found")
	// ErrMemberNotFound signals user is not a member of the group.
	ErrMemberNotFound = errors.New("member not found")
	// ErrMemberExists signals duplicate group membership.
	ErrMemberExists = errors.New("member exists")
	// ErrInvalidOperation signals a state conflict.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrAIDistribution signals a failed language-model distribution.
	ErrAIDistribution = errors.New("ai distribution failed")
	// ErrMethodUnavailable signals a distribution method that is not configured.
	ErrMethodUnavailable = errors.New("distribution method unavailable")
)

// ErrPreviewNotCompleted signals apply on a preview that is not completed. It
// is an ErrInvalidOperation.
var ErrPreviewNotCompleted = fmt.Errorf("%w: distribution preview is not completed", ErrInvalidOperation)

// ErrNoMembers signals distribution without assignees. It is an
// ErrInvalidOperation.
var ErrNoMembers = fmt.Errorf("%w: cannot distribute tasks without members", ErrInvalidOperation)
