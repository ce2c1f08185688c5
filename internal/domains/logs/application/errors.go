package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
)

// ErrInvalidInput signals a record that cannot be stored in the requested collection.
var ErrInvalidInput = errors.New("invalid log input")

// ErrEncode wraps a collection that could not be rendered as JSON.
var ErrEncode = errors.New("encode log collection")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnknownCollection) ||
		errors.Is(err, domain.ErrMissingCowID) ||
		errors.Is(err, domain.ErrMissingDate) ||
		errors.Is(err, domain.ErrDetailsMismatch) ||
		errors.Is(err, domain.ErrInvalidPregnancyStatus) ||
		errors.Is(err, domain.ErrNotBreeding) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
