package mapper

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	types "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
)

// Details is the HTTP representation of the animal details; absent fields are left untouched on PATCH.
type Details struct {
	AssetType           *string             `json:"asset_type,omitempty"`
	Breed               *string             `json:"breed,omitempty"`
	Color               *string             `json:"color,omitempty"`
	Gender              *string             `json:"gender,omitempty"`
	Age                 *int                `json:"age,omitempty"`
	Weight              *float64            `json:"weight,omitempty"`
	Height              *float64            `json:"height,omitempty"`
	VaccinationStatus   *string             `json:"vaccination_status,omitempty"`
	LastVaccinationDate *openapi_types.Date `json:"last_vaccination_date,omitempty"`
	DewormingStatus     *string             `json:"deworming_status,omitempty"`
	LastDewormingDate   *openapi_types.Date `json:"last_deworming_date,omitempty"`
	HasDisease          *bool               `json:"has_disease,omitempty"`
	DiseaseName         *string             `json:"disease_name,omitempty"`
	DiseaseTreatment    *string             `json:"disease_treatment,omitempty"`
	IsPregnant          *bool               `json:"is_pregnant,omitempty"`
	PregnancyMonths     *int                `json:"pregnancy_months,omitempty"`
	MilkProduction      *float64            `json:"milk_production,omitempty"`
	PurchaseDate        *openapi_types.Date `json:"purchase_date,omitempty"`
	PurchasePrice       *float64            `json:"purchase_price,omitempty"`
	PurchasedFrom       *string             `json:"purchased_from,omitempty"`
	OwnerName           *string             `json:"owner_name,omitempty"`
	OwnerPhone          *string             `json:"owner_phone,omitempty"`
	Remarks             *string             `json:"remarks,omitempty"`
}

// Attachment describes a filled slot without its bytes.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
}

// Outcome is the last submission result.
type Outcome struct {
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	AssetID    string    `json:"assetId,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	At         time.Time `json:"at"`
}

// Wizard is the HTTP representation of a registration wizard.
type Wizard struct {
	ID          string                `json:"id"`
	Step        int                   `json:"step"`
	StepName    string                `json:"stepName"`
	State       string                `json:"state"`
	Uploading   bool                  `json:"uploading"`
	ReferenceID string                `json:"referenceId,omitempty"`
	Draft       Details               `json:"draft"`
	Attachments map[string]Attachment `json:"attachments"`
	LastOutcome *Outcome              `json:"lastOutcome,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// StepResponse is returned by next and back.
type StepResponse struct {
	Wizard Wizard            `json:"wizard"`
	Issues map[string]string `json:"issues,omitempty"`
}

// SubmitRequest carries what the browser knows about the device position.
type SubmitRequest struct {
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	LocationError string   `json:"locationError,omitempty"`
}

// SubmitResponse reports a submission outcome.
type SubmitResponse struct {
	Wizard  Wizard  `json:"wizard"`
	Outcome Outcome `json:"outcome"`
	Stale   bool    `json:"stale,omitempty"`
}

// MuzzleResponse is returned after a successful muzzle identification.
type MuzzleResponse struct {
	Wizard      *Wizard `json:"wizard,omitempty"`
	ReferenceID string  `json:"referenceId"`
	AnimalName  string  `json:"animalName,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// ReferenceItem is one dropdown option.
type ReferenceItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReferenceList is one dropdown list or the reason it failed.
type ReferenceList struct {
	Items []ReferenceItem `json:"items"`
	Error string          `json:"error,omitempty"`
}

// ReferenceData groups every list; Failed names the lists that could not be loaded.
type ReferenceData struct {
	Lists  map[string]ReferenceList `json:"lists"`
	Failed []string                 `json:"failed,omitempty"`
}

// ToPatch maps a PATCH body onto the domain partial update.
func ToPatch(d Details) domain.AnimalDetails {
	return domain.AnimalDetails{
		AssetType:            d.AssetType,
		Breed:                d.Breed,
		Color:                d.Color,
		Gender:               d.Gender,
		AgeMonths:            d.Age,
		WeightKg:             d.Weight,
		HeightCm:             d.Height,
		VaccinationStatus:    d.VaccinationStatus,
		LastVaccinationDate:  d.LastVaccinationDate,
		DewormingStatus:      d.DewormingStatus,
		LastDewormingDate:    d.LastDewormingDate,
		HasDisease:           d.HasDisease,
		DiseaseName:          d.DiseaseName,
		DiseaseTreatment:     d.DiseaseTreatment,
		IsPregnant:           d.IsPregnant,
		PregnancyMonths:      d.PregnancyMonths,
		MilkProductionLiters: d.MilkProduction,
		PurchaseDate:         d.PurchaseDate,
		PurchasePrice:        d.PurchasePrice,
		PurchasedFrom:        d.PurchasedFrom,
		OwnerName:            d.OwnerName,
		OwnerPhone:           d.OwnerPhone,
		Remarks:              d.Remarks,
	}
}

func fromDetails(d domain.AnimalDetails) Details {
	return Details{
		AssetType:           d.AssetType,
		Breed:               d.Breed,
		Color:               d.Color,
		Gender:              d.Gender,
		Age:                 d.AgeMonths,
		Weight:              d.WeightKg,
		Height:              d.HeightCm,
		VaccinationStatus:   d.VaccinationStatus,
		LastVaccinationDate: d.LastVaccinationDate,
		DewormingStatus:     d.DewormingStatus,
		LastDewormingDate:   d.LastDewormingDate,
		HasDisease:          d.HasDisease,
		DiseaseName:         d.DiseaseName,
		DiseaseTreatment:    d.DiseaseTreatment,
		IsPregnant:          d.IsPregnant,
		PregnancyMonths:     d.PregnancyMonths,
		MilkProduction:      d.MilkProductionLiters,
		PurchaseDate:        d.PurchaseDate,
		PurchasePrice:       d.PurchasePrice,
		PurchasedFrom:       d.PurchasedFrom,
		OwnerName:           d.OwnerName,
		OwnerPhone:          d.OwnerPhone,
		Remarks:             d.Remarks,
	}
}

// FromProjection maps a wizard projection to its HTTP form.
func FromProjection(p *types.WizardProjection) Wizard {
	if p == nil || p.Wizard == nil {
		return Wizard{}
	}
	w := p.Wizard
	out := Wizard{
		ID:          w.ID,
		Step:        int(w.CurrentStep),
		StepName:    w.CurrentStep.String(),
		State:       string(w.State),
		Uploading:   w.Uploading,
		ReferenceID: w.Draft.ReferenceID,
		Draft:       fromDetails(w.Draft.Details),
		Attachments: make(map[string]Attachment, len(w.Draft.Attachments)),
		CreatedAt:   p.Metadata.CreatedAt,
		UpdatedAt:   p.Metadata.UpdatedAt,
	}
	for _, slot := range w.Draft.FilledSlots() {
		att := w.Draft.Attachments[slot]
		out.Attachments[string(slot)] = Attachment{Filename: att.Filename, ContentType: att.ContentType, Size: att.Size}
	}
	if w.LastOutcome != nil {
		outcome := FromOutcome(*w.LastOutcome)
		out.LastOutcome = &outcome
	}
	return out
}

// FromOutcome maps a submission outcome.
func FromOutcome(o domain.Outcome) Outcome {
	return Outcome{Status: string(o.Status), Message: o.Message, AssetID: o.AssetID, StatusCode: o.StatusCode, At: o.At}
}

// FromStepResult maps a navigation result.
func FromStepResult(r *types.StepResult) StepResponse {
	resp := StepResponse{Wizard: FromProjection(r.Projection)}
	if !r.Issues.Empty() {
		resp.Issues = map[string]string(r.Issues)
	}
	return resp
}

// FromSubmitResult maps a submission result.
func FromSubmitResult(r *types.SubmitResult) SubmitResponse {
	return SubmitResponse{Wizard: FromProjection(r.Projection), Outcome: FromOutcome(r.Outcome), Stale: r.Stale}
}

// ToSubmitInput maps the submit body. Coordinates are only set when both are present.
func ToSubmitInput(id, bearer string, req SubmitRequest) types.SubmitInput {
	input := types.SubmitInput{ID: id, LocationError: req.LocationError, BearerToken: bearer}
	if req.Latitude != nil && req.Longitude != nil {
		input.Location = &types.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	return input
}

// FromMuzzleResult maps a detection result.
func FromMuzzleResult(r *types.MuzzleResult) MuzzleResponse {
	wizard := FromProjection(r.Projection)
	return MuzzleResponse{Wizard: &wizard, ReferenceID: r.Match.ReferenceID, AnimalName: r.Match.AnimalName, Message: r.Match.Message}
}

// FromMuzzleMatch maps a claim result.
func FromMuzzleMatch(m *types.MuzzleMatch) MuzzleResponse {
	return MuzzleResponse{ReferenceID: m.ReferenceID, AnimalName: m.AnimalName, Message: m.Message}
}

// FromReferenceData maps the dropdown lists; every list is present even when it failed.
func FromReferenceData(r *types.ReferenceData) ReferenceData {
	out := ReferenceData{Lists: make(map[string]ReferenceList, len(types.ReferenceLists))}
	for _, name := range types.ReferenceLists {
		loadable := r.Lists[name]
		items := make([]ReferenceItem, 0, len(loadable.Items))
		for _, item := range loadable.Items {
			items = append(items, ReferenceItem{ID: item.ID, Name: item.Name})
		}
		out.Lists[string(name)] = ReferenceList{Items: items, Error: loadable.Error}
	}
	for _, name := range r.FailedLists() {
		out.Failed = append(out.Failed, string(name))
	}
	return out
}
