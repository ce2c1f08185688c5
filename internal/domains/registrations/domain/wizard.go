package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/Apurer/herdbook-api/internal/shared/validation"
)

// Step is a position in the registration wizard.
type Step int

const (
	StepMuzzleDetection Step = iota
	StepAnimalDetails
	StepAttachments
)

// LastStep is the final wizard step; submission happens from here.
const LastStep = StepAttachments

func (s Step) String() string {
	switch s {
	case StepMuzzleDetection:
		return "muzzle_detection"
	case StepAnimalDetails:
		return "animal_details"
	case StepAttachments:
		return "attachments"
	default:
		return "unknown"
	}
}

// State is the submission lifecycle of a wizard.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
)

// OutcomeStatus classifies how the last submission ended.
type OutcomeStatus string

const (
	OutcomeSuccess         OutcomeStatus = "success"
	OutcomeValidationError OutcomeStatus = "validation_error"
	OutcomeSessionExpired  OutcomeStatus = "session_expired"
	OutcomeNetworkError    OutcomeStatus = "network_error"
)

// Outcome records the result of one submission attempt.
type Outcome struct {
	Status     OutcomeStatus
	Message    string
	AssetID    string
	StatusCode int
	Sequence   uint64
	At         time.Time
}

var (
	ErrEmptyWizardID        = errors.New("wizard id is required")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrUploadInProgress     = errors.New("a muzzle upload is already in progress")
	ErrNotOnFinalStep       = errors.New("submission is only available on the final step")
)

// Wizard owns one registration draft and the step the user is on.
type Wizard struct {
	ID          string
	Draft       RegistrationDraft
	CurrentStep Step
	State       State
	// Sequence increases on every submit and reset; responses carrying an older value are stale.
	Sequence    uint64
	Uploading   bool
	LastOutcome *Outcome
}

// NewWizard builds an idle wizard on the first step with an empty draft.
func NewWizard(id string) (*Wizard, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyWizardID
	}
	return &Wizard{ID: id, CurrentStep: StepMuzzleDetection, State: StateIdle}, nil
}

// Next advances one step, stopping at the last.
func (w *Wizard) Next() {
	if w.CurrentStep < LastStep {
		w.CurrentStep++
	}
}

// Back returns one step, stopping at the first.
func (w *Wizard) Back() {
	if w.CurrentStep > StepMuzzleDetection {
		w.CurrentStep--
	}
}

// StepIssues lists what the current step still misses. Advancement does not depend on it.
func (w *Wizard) StepIssues() validation.FieldErrors {
	issues := validation.FieldErrors{}
	det := w.Draft.Details
	switch w.CurrentStep {
	case StepMuzzleDetection:
		if _, ok := w.Draft.Attachment(SlotMuzzleVideo); !ok {
			issues.Add(string(SlotMuzzleVideo), "muzzle video is required")
		}
		if w.Draft.ReferenceID == "" {
			issues.Add("reference_id", "muzzle has not been identified yet")
		}
	case StepAnimalDetails:
		if det.AssetType == nil || *det.AssetType == "" {
			issues.Add("asset_type", "asset type is required")
		}
		if det.Breed == nil || *det.Breed == "" {
			issues.Add("breed", "breed is required")
		}
		if det.Gender == nil || *det.Gender == "" {
			issues.Add("gender", "gender is required")
		}
		for field, msg := range w.Draft.SubmissionIssues() {
			issues.Add(field, msg)
		}
	case StepAttachments:
		for _, slot := range []Slot{SlotLeftSideImage, SlotRightSideImage} {
			if _, ok := w.Draft.Attachment(slot); !ok {
				issues.Add(string(slot), "side profile image is required")
			}
		}
	}
	return issues
}

// EnsureEditable rejects draft changes while a submission holds the snapshot.
func (w *Wizard) EnsureEditable() error {
	if w.State == StateSubmitting {
		return ErrSubmissionInProgress
	}
	return nil
}

// BeginSubmit moves the wizard to Submitting and returns the sequence token for this attempt.
func (w *Wizard) BeginSubmit() (uint64, error) {
	if w.State == StateSubmitting {
		return 0, ErrSubmissionInProgress
	}
	if w.CurrentStep != LastStep {
		return 0, ErrNotOnFinalStep
	}
	w.Sequence++
	w.State = StateSubmitting
	return w.Sequence, nil
}

// CompleteSubmit applies an outcome if seq still identifies the latest attempt.
// Success clears the draft and returns the released attachments.
func (w *Wizard) CompleteSubmit(seq uint64, outcome Outcome) (applied bool, released []Attachment) {
	if seq != w.Sequence || w.State != StateSubmitting {
		return false, nil
	}
	outcome.Sequence = seq
	w.State = StateIdle
	w.LastOutcome = &outcome
	if outcome.Status == OutcomeSuccess {
		released = w.Draft.Reset()
		w.CurrentStep = StepMuzzleDetection
	}
	return true, released
}

// Reset cancels the flow: empty draft, first step, idle, and any in-flight submission made stale.
func (w *Wizard) Reset() []Attachment {
	released := w.Draft.Reset()
	w.CurrentStep = StepMuzzleDetection
	w.State = StateIdle
	w.Uploading = false
	w.LastOutcome = nil
	w.Sequence++
	return released
}

// BeginUpload marks the muzzle upload as running.
func (w *Wizard) BeginUpload() error {
	if w.Uploading {
		return ErrUploadInProgress
	}
	w.Uploading = true
	return nil
}

// EndUpload clears the upload flag.
func (w *Wizard) EndUpload() {
	w.Uploading = false
}

// Clone returns a deep copy safe to hand across goroutines.
func (w *Wizard) Clone() *Wizard {
	if w == nil {
		return nil
	}
	clone := *w
	clone.Draft = w.Draft.Clone()
	if w.LastOutcome != nil {
		outcome := *w.LastOutcome
		clone.LastOutcome = &outcome
	}
	return &clone
}
