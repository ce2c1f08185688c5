package assets

import (
	"context"
	"errors"
	"fmt"
	"io"

	assetsclient "github.com/Apurer/herdbook-api/internal/clients/http/assets"
	types "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
	"github.com/Apurer/herdbook-api/internal/platform/blob"
)

var (
	_ ports.AssetGateway    = (*Gateway)(nil)
	_ ports.ReferenceSource = (*Gateway)(nil)
)

// Gateway implements the farm backend ports on top of the assets HTTP client.
type Gateway struct {
	client *assetsclient.Client
	blobs  blob.Store
}

// NewGateway wires the HTTP client and the store holding attachment bytes.
func NewGateway(client *assetsclient.Client, blobs blob.Store) *Gateway {
	return &Gateway{client: client, blobs: blobs}
}

// CreateAsset streams every attachment from the blob store into one multipart request.
func (g *Gateway) CreateAsset(ctx context.Context, submission types.AssetSubmission) (*types.SubmissionResponse, error) {
	if g == nil || g.client == nil || g.blobs == nil {
		return nil, errors.New("asset gateway not configured")
	}
	files := make([]assetsclient.FilePart, 0, len(submission.Attachments))
	var readers []io.Closer
	defer func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}()
	for _, att := range submission.Attachments {
		info, body, err := g.blobs.Get(ctx, att.BlobKey)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", att.Field, err)
		}
		readers = append(readers, body)
		contentType := att.ContentType
		if contentType == "" {
			contentType = info.ContentType
		}
		files = append(files, assetsclient.FilePart{
			Field:       att.Field,
			Filename:    att.Filename,
			ContentType: contentType,
			Content:     body,
		})
	}
	resp, err := g.client.CreateAsset(ctx, assetsclient.CreateAssetRequest{
		Fields:      ToFormParts(submission),
		Files:       files,
		BearerToken: submission.BearerToken,
	})
	if err != nil {
		return nil, err
	}
	return FromResponse(resp), nil
}

// FetchList loads one dropdown list.
func (g *Gateway) FetchList(ctx context.Context, list types.ReferenceList, bearerToken string) ([]types.ReferenceItem, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("asset gateway not configured")
	}
	items, err := g.client.ListReference(ctx, string(list), bearerToken)
	if err != nil {
		return nil, err
	}
	return FromReferenceItems(items), nil
}
