package assets

import (
	"strconv"

	assetsclient "github.com/Apurer/herdbook-api/internal/clients/http/assets"
	types "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
)

// ToFormParts converts the submission scalars into multipart fields, coordinates last.
func ToFormParts(submission types.AssetSubmission) []assetsclient.FormPart {
	parts := make([]assetsclient.FormPart, 0, len(submission.Fields)+2)
	for _, f := range submission.Fields {
		parts = append(parts, assetsclient.FormPart{Name: f.Name, Value: f.Value})
	}
	parts = append(parts,
		assetsclient.FormPart{Name: "latitude", Value: strconv.FormatFloat(submission.Latitude, 'f', -1, 64)},
		assetsclient.FormPart{Name: "longitude", Value: strconv.FormatFloat(submission.Longitude, 'f', -1, 64)},
	)
	return parts
}

// FromResponse keeps only what the wizard needs to classify the answer.
func FromResponse(resp *assetsclient.CreateAssetResponse) *types.SubmissionResponse {
	if resp == nil {
		return nil
	}
	return &types.SubmissionResponse{
		StatusCode: resp.StatusCode,
		Message:    resp.Message,
		AssetID:    resp.AssetID,
	}
}

// FromReferenceItems converts client list entries.
func FromReferenceItems(items []assetsclient.ReferenceItem) []types.ReferenceItem {
	out := make([]types.ReferenceItem, 0, len(items))
	for _, item := range items {
		out = append(out, types.ReferenceItem{ID: item.ID, Name: item.Name})
	}
	return out
}
