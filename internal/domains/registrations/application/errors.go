package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
	"github.com/Apurer/herdbook-api/internal/shared/validation"
)

var (
	// ErrInvalidInput signals the request violated a wizard invariant.
	ErrInvalidInput = errors.New("invalid registration input")
	// ErrLocationUnavailable means the client could not provide coordinates for the submission.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrMissingMuzzleVideo means muzzle detection was triggered with an empty video slot.
	ErrMissingMuzzleVideo = errors.New("muzzle video not attached")
	// ErrBusy means another submission or upload is already running for the wizard.
	ErrBusy = errors.New("registration wizard busy")
)

// DraftValidationError carries the field errors found before a submission left the service.
type DraftValidationError struct {
	Fields validation.FieldErrors
}

func (e *DraftValidationError) Error() string {
	return fmt.Sprintf("draft has %d invalid field(s)", len(e.Fields))
}

func (e *DraftValidationError) Unwrap() error { return ErrInvalidInput }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyWizardID) ||
		errors.Is(err, domain.ErrUnknownSlot) ||
		errors.Is(err, domain.ErrNotOnFinalStep) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, domain.ErrSubmissionInProgress) ||
		errors.Is(err, domain.ErrUploadInProgress) {
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	return err
}
