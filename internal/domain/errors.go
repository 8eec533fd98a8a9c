package domain

import "errors"

// Error taxonomy for the fulfillment workflow. Services wrap these with
// fmt.Errorf("...: %w", Err...) so callers can match with errors.Is and
// the HTTP layer can map each kind to a specific status code.
var (
	ErrValidation            = errors.New("validation failed")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrNotFound              = errors.New("not found")
)
