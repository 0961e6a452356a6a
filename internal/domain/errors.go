package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every business error wraps exactly one of these.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrItemNotFound    = fmt.Errorf("item %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)

	ErrNotOwner     = fmt.Errorf("%w: only the item owner may decide on a booking", ErrForbidden)
	ErrAccessDenied = fmt.Errorf("%w: booking is visible to its booker and the item owner only", ErrForbidden)

	ErrItemUnavailable   = fmt.Errorf("%w: item is not available", ErrValidation)
	ErrSelfBooking       = fmt.Errorf("%w: owner cannot book own item", ErrValidation)
	ErrInvalidTimeRange  = fmt.Errorf("%w: end must be after start", ErrValidation)
	ErrNoEligibleBooking = fmt.Errorf("%w: must have at least one completed booking of this item", ErrValidation)

	ErrAlreadyDecided         = fmt.Errorf("%w: booking already approved or rejected", ErrConflict)
	ErrConcurrentModification = fmt.Errorf("%w: concurrent modification", ErrConflict)
	ErrEmailTaken             = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUserInUse              = fmt.Errorf("%w: user still owns items, bookings or comments", ErrConflict)

	ErrApprovalRequired = fmt.Errorf("%w: approved flag is required", ErrInvalidInput)
	ErrUnknownState     = fmt.Errorf("%w: unknown state", ErrInvalidInput)
)

// Class names the error class of err for logs and metrics. Errors outside the
// taxonomy are "internal".
func Class(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
