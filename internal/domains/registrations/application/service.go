package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
	"github.com/Apurer/herdbook-api/internal/platform/blob"
)

const (
	genericFailureMessage  = "Registration failed. Please try again."
	sessionExpiredMessage  = "Your session has expired. Please log in again."
	validationFallbackText = "The registration was rejected."

	// stuckSubmissionAge is how long a wizard may sit in Submitting before purge treats it as orphaned.
	stuckSubmissionAge = time.Hour
)

// Service orchestrates the registration wizard use cases.
type Service struct {
	repo         ports.Repository
	blobs        blob.Store
	orchestrator ports.SubmissionOrchestrator
	matcher      ports.MuzzleMatcher
	reference    ports.ReferenceSource
	newID        func() string
	now          func() time.Time

	// mu serializes read-modify-write cycles on wizards.
	mu sync.Mutex
}

type Option func(*Service)

// WithOrchestrator sets how submissions reach the farm backend.
func WithOrchestrator(o ports.SubmissionOrchestrator) Option {
	return func(s *Service) { s.orchestrator = o }
}

// WithMuzzleMatcher sets the AI muzzle identification client.
func WithMuzzleMatcher(m ports.MuzzleMatcher) Option {
	return func(s *Service) { s.matcher = m }
}

// WithReferenceSource sets where dropdown lists are loaded from.
func WithReferenceSource(r ports.ReferenceSource) Option {
	return func(s *Service) { s.reference = r }
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides wizard and blob id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService wires the registrations service with its dependencies.
func NewService(repo ports.Repository, blobs blob.Store, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		blobs: blobs,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start opens a new wizard with an empty draft on the first step.
func (s *Service) Start(ctx context.Context) (*types.WizardProjection, error) {
	wizard, err := domain.NewWizard(s.newID())
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, wizard)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// Get loads a single wizard.
func (s *Service) Get(ctx context.Context, input types.WizardIdentifier) (*types.WizardProjection, error) {
	projection, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return projection, nil
}

// UpdateDraft merges a partial patch into the draft without validating it.
func (s *Service) UpdateDraft(ctx context.Context, input types.UpdateDraftInput) (*types.WizardProjection, error) {
	return s.mutate(ctx, input.ID, func(w *domain.Wizard) error {
		if err := w.EnsureEditable(); err != nil {
			return err
		}
		w.Draft.Merge(input.Patch)
		return nil
	})
}

// Next advances one step and reports what the new step still misses.
func (s *Service) Next(ctx context.Context, input types.WizardIdentifier) (*types.StepResult, error) {
	return s.navigate(ctx, input.ID, (*domain.Wizard).Next)
}

// Back returns one step.
func (s *Service) Back(ctx context.Context, input types.WizardIdentifier) (*types.StepResult, error) {
	return s.navigate(ctx, input.ID, (*domain.Wizard).Back)
}

func (s *Service) navigate(ctx context.Context, id string, move func(*domain.Wizard)) (*types.StepResult, error) {
	saved, err := s.mutate(ctx, id, func(w *domain.Wizard) error {
		move(w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &types.StepResult{Projection: saved, Issues: saved.Wizard.StepIssues()}, nil
}

// SetAttachment stores the file bytes and points the slot at them, releasing the previous file.
func (s *Service) SetAttachment(ctx context.Context, input types.AttachmentInput) (*types.WizardProjection, error) {
	if _, err := domain.ParseSlot(string(input.Slot)); err != nil {
		return nil, mapError(err)
	}
	current, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := current.Wizard.EnsureEditable(); err != nil {
		return nil, mapError(err)
	}
	att, err := s.storeFile(ctx, input)
	if err != nil {
		return nil, err
	}
	var previous *domain.Attachment
	saved, err := s.mutate(ctx, input.ID, func(w *domain.Wizard) error {
		if err := w.EnsureEditable(); err != nil {
			return err
		}
		prev, err := w.Draft.SetAttachment(input.Slot, att)
		previous = prev
		return err
	})
	if err != nil {
		s.releaseBlobs(ctx, []domain.Attachment{att})
		return nil, err
	}
	if previous != nil {
		s.releaseBlobs(ctx, []domain.Attachment{*previous})
	}
	return saved, nil
}

// ClearAttachment empties one slot and deletes its file.
func (s *Service) ClearAttachment(ctx context.Context, input types.ClearAttachmentInput) (*types.WizardProjection, error) {
	var previous *domain.Attachment
	saved, err := s.mutate(ctx, input.ID, func(w *domain.Wizard) error {
		if err := w.EnsureEditable(); err != nil {
			return err
		}
		prev, err := w.Draft.ClearAttachment(input.Slot)
		previous = prev
		return err
	})
	if err != nil {
		return nil, err
	}
	if previous != nil {
		s.releaseBlobs(ctx, []domain.Attachment{*previous})
	}
	return saved, nil
}

// DetectMuzzle sends the muzzle video to the matcher and stores the returned reference id.
func (s *Service) DetectMuzzle(ctx context.Context, input types.WizardIdentifier) (*types.MuzzleResult, error) {
	if s.matcher == nil {
		return nil, errors.New("muzzle matcher not configured")
	}
	var (
		video domain.Attachment
		seq   uint64
	)
	if _, err := s.mutate(ctx, input.ID, func(w *domain.Wizard) error {
		if err := w.EnsureEditable(); err != nil {
			return err
		}
		att, ok := w.Draft.Attachment(domain.SlotMuzzleVideo)
		if !ok {
			return ErrMissingMuzzleVideo
		}
		if err := w.BeginUpload(); err != nil {
			return err
		}
		video, seq = att, w.Sequence
		return nil
	}); err != nil {
		return nil, err
	}

	match, matchErr := s.matchVideo(ctx, video)

	saved, err := s.mutate(context.WithoutCancel(ctx), input.ID, func(w *domain.Wizard) error {
		w.EndUpload()
		if matchErr == nil && w.Sequence == seq {
			w.Draft.ReferenceID = match.ReferenceID
		}
		return nil
	})
	if matchErr != nil {
		return nil, matchErr
	}
	if err != nil {
		return nil, err
	}
	return &types.MuzzleResult{Projection: saved, Match: *match}, nil
}

func (s *Service) matchVideo(ctx context.Context, video domain.Attachment) (*types.MuzzleMatch, error) {
	_, body, err := s.blobs.Get(ctx, video.Key)
	if err != nil {
		return nil, fmt.Errorf("load muzzle video: %w", err)
	}
	defer body.Close()
	return s.matcher.Register(ctx, ports.MuzzleVideo{
		Filename:    video.Filename,
		ContentType: video.ContentType,
		Content:     body,
	})
}

// ClaimMuzzle identifies an already registered animal from a muzzle video.
func (s *Service) ClaimMuzzle(ctx context.Context, input types.ClaimInput) (*types.MuzzleMatch, error) {
	if s.matcher == nil {
		return nil, errors.New("muzzle matcher not configured")
	}
	body, err := input.Video.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	defer body.Close()
	return s.matcher.Claim(ctx, ports.MuzzleVideo{Filename: input.Video.Filename(), Content: body})
}

// ReferenceData loads every dropdown list concurrently; a failing list never fails the others.
func (s *Service) ReferenceData(ctx context.Context, bearerToken string) (*types.ReferenceData, error) {
	if s.reference == nil {
		return nil, errors.New("reference source not configured")
	}
	results := make([]types.Loadable, len(types.ReferenceLists))
	g, gctx := errgroup.WithContext(ctx)
	for i, list := range types.ReferenceLists {
		g.Go(func() error {
			items, err := s.reference.FetchList(gctx, list, bearerToken)
			if err != nil {
				results[i] = types.Loadable{Error: err.Error()}
				return nil
			}
			if items == nil {
				items = []types.ReferenceItem{}
			}
			results[i] = types.Loadable{Items: items}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	data := &types.ReferenceData{Lists: make(map[types.ReferenceList]types.Loadable, len(results))}
	for i, list := range types.ReferenceLists {
		data.Lists[list] = results[i]
	}
	return data, nil
}

// Submit sends the draft to the farm backend and applies the classified outcome.
func (s *Service) Submit(ctx context.Context, input types.SubmitInput) (*types.SubmitResult, error) {
	if s.orchestrator == nil {
		return nil, errors.New("submission orchestrator not configured")
	}
	if input.Location == nil || strings.TrimSpace(input.LocationError) != "" {
		reason := strings.TrimSpace(input.LocationError)
		if reason == "" {
			reason = "no coordinates supplied"
		}
		return nil, fmt.Errorf("%w: %s", ErrLocationUnavailable, reason)
	}
	if !validCoordinates(*input.Location) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}

	var (
		seq      uint64
		snapshot domain.RegistrationDraft
	)
	if _, err := s.mutate(ctx, input.ID, func(w *domain.Wizard) error {
		if issues := w.Draft.SubmissionIssues(); !issues.Empty() {
			return &DraftValidationError{Fields: issues}
		}
		next, err := w.BeginSubmit()
		if err != nil {
			return err
		}
		seq, snapshot = next, w.Draft.Clone()
		return nil
	}); err != nil {
		return nil, err
	}

	submission := buildSubmission(input, seq, snapshot)
	// The request is never aborted by the caller going away; only a newer sequence can supersede it.
	upstreamCtx := context.WithoutCancel(ctx)
	response, sendErr := s.orchestrator.Submit(upstreamCtx, submission)
	outcome := classify(response, sendErr, s.now())

	var (
		applied  bool
		released []domain.Attachment
	)
	saved, err := s.mutate(upstreamCtx, input.ID, func(w *domain.Wizard) error {
		applied, released = w.CompleteSubmit(seq, outcome)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.releaseBlobs(upstreamCtx, released)
	outcome.Sequence = seq
	return &types.SubmitResult{Projection: saved, Outcome: outcome, Stale: !applied}, nil
}

// Reset empties the draft, returns to the first step and makes any in-flight submission stale.
func (s *Service) Reset(ctx context.Context, input types.WizardIdentifier) (*types.WizardProjection, error) {
	var released []domain.Attachment
	saved, err := s.mutate(ctx, input.ID, func(w *domain.Wizard) error {
		released = w.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.releaseBlobs(ctx, released)
	return saved, nil
}

// PurgeAbandoned deletes wizards idle for longer than olderThan together with their files.
// A wizard still marked Submitting is only removed once it has also been idle for stuckSubmissionAge.
func (s *Service) PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("%w: purge age must be positive", ErrInvalidInput)
	}
	now := s.now()
	stale, err := s.repo.ListUpdatedBefore(ctx, now.Add(-olderThan))
	if err != nil {
		return 0, mapError(err)
	}
	stuckBefore := now.Add(-max(olderThan, stuckSubmissionAge))
	purged := 0
	for _, projection := range stale {
		if projection == nil || projection.Wizard == nil {
			continue
		}
		if projection.Wizard.State == domain.StateSubmitting && !projection.Metadata.UpdatedAt.Before(stuckBefore) {
			continue
		}
		if err := s.repo.Delete(ctx, projection.Wizard.ID); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				continue
			}
			return purged, mapError(err)
		}
		s.releaseBlobs(ctx, projection.Wizard.Draft.Reset())
		purged++
	}
	return purged, nil
}

// mutate loads the wizard, applies fn and saves it while holding the write lock.
func (s *Service) mutate(ctx context.Context, id string, fn func(*domain.Wizard) error) (*types.WizardProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if err := fn(projection.Wizard); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, projection.Wizard)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) storeFile(ctx context.Context, input types.AttachmentInput) (domain.Attachment, error) {
	body, err := input.File.Reader()
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	defer body.Close()
	key := fmt.Sprintf("registrations/%s/%s/%s", input.ID, input.Slot, s.newID())
	info, err := s.blobs.Put(ctx, key, body, blob.PutOptions{
		ContentType: input.ContentType,
		Metadata:    map[string]string{"filename": input.File.Filename(), "slot": string(input.Slot)},
	})
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("store %s: %w", input.Slot, err)
	}
	return domain.Attachment{
		Key:         info.Key,
		Filename:    input.File.Filename(),
		ContentType: input.ContentType,
		Size:        info.Size,
	}, nil
}

// releaseBlobs deletes files no slot points at anymore. Failures leave an orphan for the purger.
func (s *Service) releaseBlobs(ctx context.Context, released []domain.Attachment) {
	for _, att := range released {
		if att.Key == "" {
			continue
		}
		_, _ = s.blobs.Delete(ctx, att.Key)
	}
}

func buildSubmission(input types.SubmitInput, seq uint64, draft domain.RegistrationDraft) types.AssetSubmission {
	fields := draft.FormFields()
	submission := types.AssetSubmission{
		WizardID:    input.ID,
		Sequence:    seq,
		Fields:      make([]types.ScalarPart, 0, len(fields)),
		Latitude:    input.Location.Latitude,
		Longitude:   input.Location.Longitude,
		BearerToken: input.BearerToken,
	}
	for _, f := range fields {
		submission.Fields = append(submission.Fields, types.ScalarPart{Name: f.Name, Value: f.Value})
	}
	for _, slot := range draft.FilledSlots() {
		att, _ := draft.Attachment(slot)
		submission.Attachments = append(submission.Attachments, types.AttachmentPart{
			Field:       string(slot),
			BlobKey:     att.Key,
			Filename:    att.Filename,
			ContentType: att.ContentType,
		})
	}
	return submission
}

// classify maps the backend answer onto the wizard's terminal states.
func classify(resp *types.SubmissionResponse, err error, now time.Time) domain.Outcome {
	if err != nil || resp == nil {
		return domain.Outcome{Status: domain.OutcomeNetworkError, Message: genericFailureMessage, At: now}
	}
	outcome := domain.Outcome{StatusCode: resp.StatusCode, At: now}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		outcome.Status = domain.OutcomeSuccess
		outcome.AssetID = resp.AssetID
		outcome.Message = resp.Message
	case resp.StatusCode == http.StatusBadRequest:
		outcome.Status = domain.OutcomeValidationError
		outcome.Message = resp.Message
		if strings.TrimSpace(outcome.Message) == "" {
			outcome.Message = validationFallbackText
		}
	case resp.StatusCode == http.StatusUnauthorized:
		outcome.Status = domain.OutcomeSessionExpired
		outcome.Message = sessionExpiredMessage
	default:
		outcome.Status = domain.OutcomeNetworkError
		outcome.Message = genericFailureMessage + " (status " + strconv.Itoa(resp.StatusCode) + ")"
	}
	return outcome
}

func validCoordinates(c types.Coordinates) bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

var _ ports.Service = (*Service)(nil)
