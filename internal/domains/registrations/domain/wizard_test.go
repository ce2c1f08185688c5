package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWizard_RequiresID(t *testing.T) {
	_, err := NewWizard(" ")
	require.ErrorIs(t, err, ErrEmptyWizardID)
}

func TestWizard_StepBounds(t *testing.T) {
	w, err := NewWizard("w-1")
	require.NoError(t, err)

	w.Back()
	require.Equal(t, StepMuzzleDetection, w.CurrentStep)

	w.Next()
	w.Next()
	require.Equal(t, LastStep, w.CurrentStep)
	w.Next()
	require.Equal(t, LastStep, w.CurrentStep)

	w.Back()
	require.Equal(t, StepAnimalDetails, w.CurrentStep)
}

func TestWizard_SubmitLifecycle(t *testing.T) {
	w, _ := NewWizard("w-1")
	w.Draft.ReferenceID = "REF"
	_, _ = w.Draft.SetAttachment(SlotMuzzleVideo, Attachment{Key: "k"})
	w.Next()
	w.Next()

	seq, err := w.BeginSubmit()
	require.NoError(t, err)
	_, err = w.BeginSubmit()
	require.ErrorIs(t, err, ErrSubmissionInProgress)

	applied, released := w.CompleteSubmit(seq, Outcome{Status: OutcomeSuccess})
	require.True(t, applied)
	require.Len(t, released, 1)
	require.True(t, w.Draft.IsEmpty())
	require.Equal(t, StepMuzzleDetection, w.CurrentStep)
	require.Equal(t, StateIdle, w.State)
	require.Equal(t, seq, w.LastOutcome.Sequence)
}

func TestWizard_EditableOnlyWhenIdle(t *testing.T) {
	w, _ := NewWizard("w-1")
	require.NoError(t, w.EnsureEditable())
	w.Next()
	w.Next()

	seq, err := w.BeginSubmit()
	require.NoError(t, err)
	require.ErrorIs(t, w.EnsureEditable(), ErrSubmissionInProgress)

	w.CompleteSubmit(seq, Outcome{Status: OutcomeNetworkError})
	require.NoError(t, w.EnsureEditable())
}

func TestWizard_FailureKeepsDraft(t *testing.T) {
	w, _ := NewWizard("w-1")
	w.Draft.ReferenceID = "REF"
	w.Next()
	_, err := w.BeginSubmit()
	require.ErrorIs(t, err, ErrNotOnFinalStep)
	w.Next()

	seq, err := w.BeginSubmit()
	require.NoError(t, err)
	applied, released := w.CompleteSubmit(seq, Outcome{Status: OutcomeValidationError, Message: "breed missing"})
	require.True(t, applied)
	require.Empty(t, released)
	require.Equal(t, "REF", w.Draft.ReferenceID)
	require.Equal(t, LastStep, w.CurrentStep)
	require.Equal(t, StateIdle, w.State)
}

func TestWizard_StaleResponseIsDiscarded(t *testing.T) {
	w, _ := NewWizard("w-1")
	w.Draft.ReferenceID = "REF"
	w.Next()
	w.Next()
	seq, err := w.BeginSubmit()
	require.NoError(t, err)

	w.Reset()
	w.Draft.ReferenceID = "REF-2"

	applied, _ := w.CompleteSubmit(seq, Outcome{Status: OutcomeSuccess})
	require.False(t, applied)
	require.Equal(t, "REF-2", w.Draft.ReferenceID)
	require.Nil(t, w.LastOutcome)
}

func TestWizard_UploadFlag(t *testing.T) {
	w, _ := NewWizard("w-1")
	require.NoError(t, w.BeginUpload())
	require.ErrorIs(t, w.BeginUpload(), ErrUploadInProgress)
	w.EndUpload()
	require.NoError(t, w.BeginUpload())
}

func TestWizard_StepIssuesAreAdvisory(t *testing.T) {
	w, _ := NewWizard("w-1")
	require.Contains(t, w.StepIssues(), "reference_id")
	w.Next()
	require.Equal(t, StepAnimalDetails, w.CurrentStep)
	require.Contains(t, w.StepIssues(), "breed")
}

func TestWizard_CloneIsDeep(t *testing.T) {
	w, _ := NewWizard("w-1")
	w.Draft.Merge(AnimalDetails{Breed: ptr("Sahiwal")})
	_, _ = w.Draft.SetAttachment(SlotOwnerImage, Attachment{Key: "a"})

	clone := w.Clone()
	_, _ = clone.Draft.SetAttachment(SlotOwnerImage, Attachment{Key: "b"})
	*clone.Draft.Details.Breed = "Jersey"

	require.Equal(t, "a", w.Draft.Attachments[SlotOwnerImage].Key)
	require.Equal(t, "Sahiwal", *w.Draft.Details.Breed)
}
