package types

// AttachmentPart points at the stored bytes of one slot in a submission.
type AttachmentPart struct {
	Field       string
	BlobKey     string
	Filename    string
	ContentType string
}

// ScalarPart is one string form field of a submission.
type ScalarPart struct {
	Name  string
	Value string
}

// AssetSubmission is everything needed to issue the asset-creation request.
// It only holds references to attachment bytes so it can cross a workflow boundary.
type AssetSubmission struct {
	WizardID    string
	Sequence    uint64
	Fields      []ScalarPart
	Attachments []AttachmentPart
	Latitude    float64
	Longitude   float64
	BearerToken string
}

// SubmissionResponse is the backend's raw answer before classification.
type SubmissionResponse struct {
	StatusCode int
	Message    string
	AssetID    string
}
