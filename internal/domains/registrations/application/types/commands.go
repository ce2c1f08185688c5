package types

import (
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
	"github.com/Apurer/herdbook-api/internal/shared/validation"
)

// WizardIdentifier addresses a single wizard.
type WizardIdentifier struct {
	ID string
}

// UpdateDraftInput merges Patch into the wizard's draft.
type UpdateDraftInput struct {
	ID    string
	Patch domain.AnimalDetails
}

// AttachmentInput fills one slot with an uploaded file.
type AttachmentInput struct {
	ID          string
	Slot        domain.Slot
	File        openapi_types.File
	ContentType string
}

// ClearAttachmentInput empties one slot.
type ClearAttachmentInput struct {
	ID   string
	Slot domain.Slot
}

// Coordinates is the device position captured by the client at submit time.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// SubmitInput triggers the final submission.
type SubmitInput struct {
	ID string
	// Location is nil when the client could not acquire a position.
	Location *Coordinates
	// LocationError carries the client's geolocation failure reason, e.g. "permission_denied".
	LocationError string
	BearerToken   string
}

// ClaimInput asks the muzzle matcher to identify an already registered animal.
type ClaimInput struct {
	Video openapi_types.File
}

// StepResult is returned by navigation: the new position plus advisory issues for it.
type StepResult struct {
	Projection *WizardProjection
	Issues     validation.FieldErrors
}

// SubmitResult reports the classified outcome of a submission.
type SubmitResult struct {
	Projection *WizardProjection
	Outcome    domain.Outcome
	// Stale is set when the wizard was reset while the request was in flight; the outcome was not applied.
	Stale bool
}

// MuzzleMatch is the matcher's answer for a muzzle video.
type MuzzleMatch struct {
	ReferenceID string
	AnimalName  string
	Message     string
}

// MuzzleResult is the wizard after a successful muzzle identification.
type MuzzleResult struct {
	Projection *WizardProjection
	Match      MuzzleMatch
}
