package ports

import (
	"context"
	"errors"
	"io"

	"github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
)

// AssetGateway issues the asset-creation request against the farm backend.
// HTTP statuses are reported in the response; only transport failures are errors.
type AssetGateway interface {
	CreateAsset(ctx context.Context, submission types.AssetSubmission) (*types.SubmissionResponse, error)
}

// ReferenceSource loads one dropdown list from the farm backend.
type ReferenceSource interface {
	FetchList(ctx context.Context, list types.ReferenceList, bearerToken string) ([]types.ReferenceItem, error)
}

// MuzzleVideo is a video stream handed to the matcher.
type MuzzleVideo struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

var (
	// ErrMuzzleNoMatch is a 400 from the matcher: the video was not usable or matched nothing.
	ErrMuzzleNoMatch = errors.New("muzzle not matched")
	// ErrMuzzleUnauthorized is a 401 from the matcher's own authentication.
	ErrMuzzleUnauthorized = errors.New("muzzle matcher rejected credentials")
)

// MuzzleMatcher talks to the AI muzzle identification service.
type MuzzleMatcher interface {
	Register(ctx context.Context, video MuzzleVideo) (*types.MuzzleMatch, error)
	Claim(ctx context.Context, video MuzzleVideo) (*types.MuzzleMatch, error)
}
