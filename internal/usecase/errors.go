package usecase

import (
	"errors"
	"fmt"

	"travel-booking/internal/data/repository"
	"travel-booking/pkg/utils"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient credit")
	ErrNoAvailableSeats  = errors.New("not enough seats available")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("operation not allowed in current booking status")
	ErrAlreadyCancelled  = errors.New("booking already cancelled")
	ErrForbidden         = errors.New("forbidden")
)

// ValidationError carries per-field messages keyed by json field name.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, utils.FormatValidationErrors(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

// isRejection reports whether err is a caller-visible business outcome rather than a fault
func isRejection(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrInsufficientFunds, ErrNoAvailableSeats,
		ErrNotFound, ErrInvalidState, ErrAlreadyCancelled, ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// storeErr translates counter failures of the stores into service errors
func storeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientSeats):
		return fmt.Errorf("%w: %w", ErrNoAvailableSeats, err)
	case errors.Is(err, repository.ErrInsufficientCredit):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
