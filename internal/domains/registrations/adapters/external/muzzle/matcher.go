package muzzle

import (
	"context"
	"errors"
	"fmt"

	muzzleclient "github.com/Apurer/herdbook-api/internal/clients/http/muzzle"
	types "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
)

// Matcher implements the muzzle matcher port with the AI service client.
type Matcher struct {
	client *muzzleclient.Client
}

// NewMatcher wires the AI client into the matcher adapter.
func NewMatcher(client *muzzleclient.Client) *Matcher {
	return &Matcher{client: client}
}

// Register asks for a new reference id.
func (m *Matcher) Register(ctx context.Context, video ports.MuzzleVideo) (*types.MuzzleMatch, error) {
	if m == nil || m.client == nil {
		return nil, errors.New("muzzle matcher not configured")
	}
	result, err := m.client.Register(ctx, toVideo(video))
	return toMatch(result, err)
}

// Claim looks up an existing animal.
func (m *Matcher) Claim(ctx context.Context, video ports.MuzzleVideo) (*types.MuzzleMatch, error) {
	if m == nil || m.client == nil {
		return nil, errors.New("muzzle matcher not configured")
	}
	result, err := m.client.Claim(ctx, toVideo(video))
	return toMatch(result, err)
}

func toVideo(video ports.MuzzleVideo) muzzleclient.Video {
	return muzzleclient.Video{Filename: video.Filename, ContentType: video.ContentType, Content: video.Content}
}

func toMatch(result *muzzleclient.Result, err error) (*types.MuzzleMatch, error) {
	switch {
	case errors.Is(err, muzzleclient.ErrNoMatch):
		return nil, fmt.Errorf("%w: %w", ports.ErrMuzzleNoMatch, err)
	case errors.Is(err, muzzleclient.ErrUnauthorized):
		return nil, fmt.Errorf("%w: %w", ports.ErrMuzzleUnauthorized, err)
	case err != nil:
		return nil, err
	}
	if result == nil || result.ID() == "" {
		return nil, fmt.Errorf("%w: response carried no identifier", ports.ErrMuzzleNoMatch)
	}
	return &types.MuzzleMatch{
		ReferenceID: result.ID(),
		AnimalName:  result.AnimalName,
		Message:     result.Message,
	}, nil
}

var _ ports.MuzzleMatcher = (*Matcher)(nil)
