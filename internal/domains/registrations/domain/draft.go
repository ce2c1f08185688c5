package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Apurer/herdbook-api/internal/shared/validation"
)

// GenderFemale is the only gender for which pregnancy fields apply.
const GenderFemale = "female"

// AnimalDetails holds every scalar captured by the animal details step.
// A nil field is unset; the same type doubles as the partial update payload.
type AnimalDetails struct {
	AssetType            *string
	Breed                *string
	Color                *string
	Gender               *string
	AgeMonths            *int
	WeightKg             *float64
	HeightCm             *float64
	VaccinationStatus    *string
	LastVaccinationDate  *openapi_types.Date
	DewormingStatus      *string
	LastDewormingDate    *openapi_types.Date
	HasDisease           *bool
	DiseaseName          *string
	DiseaseTreatment     *string
	IsPregnant           *bool
	PregnancyMonths      *int
	MilkProductionLiters *float64
	PurchaseDate         *openapi_types.Date
	PurchasePrice        *float64
	PurchasedFrom        *string
	OwnerName            *string
	OwnerPhone           *string
	Remarks              *string
}

// Merge copies every set field of patch into d. Unset fields of patch leave d untouched.
func (d *AnimalDetails) Merge(patch AnimalDetails) {
	mergeField(&d.AssetType, patch.AssetType)
	mergeField(&d.Breed, patch.Breed)
	mergeField(&d.Color, patch.Color)
	mergeField(&d.Gender, patch.Gender)
	mergeField(&d.AgeMonths, patch.AgeMonths)
	mergeField(&d.WeightKg, patch.WeightKg)
	mergeField(&d.HeightCm, patch.HeightCm)
	mergeField(&d.VaccinationStatus, patch.VaccinationStatus)
	mergeField(&d.LastVaccinationDate, patch.LastVaccinationDate)
	mergeField(&d.DewormingStatus, patch.DewormingStatus)
	mergeField(&d.LastDewormingDate, patch.LastDewormingDate)
	mergeField(&d.HasDisease, patch.HasDisease)
	mergeField(&d.DiseaseName, patch.DiseaseName)
	mergeField(&d.DiseaseTreatment, patch.DiseaseTreatment)
	mergeField(&d.IsPregnant, patch.IsPregnant)
	mergeField(&d.PregnancyMonths, patch.PregnancyMonths)
	mergeField(&d.MilkProductionLiters, patch.MilkProductionLiters)
	mergeField(&d.PurchaseDate, patch.PurchaseDate)
	mergeField(&d.PurchasePrice, patch.PurchasePrice)
	mergeField(&d.PurchasedFrom, patch.PurchasedFrom)
	mergeField(&d.OwnerName, patch.OwnerName)
	mergeField(&d.OwnerPhone, patch.OwnerPhone)
	mergeField(&d.Remarks, patch.Remarks)
}

// HasDiseaseSection reports whether the disease sub-section applies.
func (d AnimalDetails) HasDiseaseSection() bool {
	return d.HasDisease != nil && *d.HasDisease
}

// IsFemale reports whether the gender field is set to female.
func (d AnimalDetails) IsFemale() bool {
	return d.Gender != nil && strings.EqualFold(strings.TrimSpace(*d.Gender), GenderFemale)
}

// PregnancySectionApplies reports whether the pregnancy sub-section applies: only females can be pregnant.
func (d AnimalDetails) PregnancySectionApplies() bool {
	return d.IsFemale() && d.IsPregnant != nil && *d.IsPregnant
}

func mergeField[T any](dst **T, src *T) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}

// Slot names one of the fixed attachment positions of a draft.
type Slot string

const (
	SlotMuzzleVideo      Slot = "muzzle_video"
	SlotLeftSideImage    Slot = "left_side_image"
	SlotRightSideImage   Slot = "right_side_image"
	SlotOwnerImage       Slot = "owner_image"
	SlotSpecialMarkImage Slot = "special_mark_image"
	SlotDocumentImage1   Slot = "document_image_1"
	SlotDocumentImage2   Slot = "document_image_2"
	SlotDocumentImage3   Slot = "document_image_3"
)

// Slots lists every attachment slot in submission order.
var Slots = []Slot{
	SlotMuzzleVideo,
	SlotLeftSideImage,
	SlotRightSideImage,
	SlotOwnerImage,
	SlotSpecialMarkImage,
	SlotDocumentImage1,
	SlotDocumentImage2,
	SlotDocumentImage3,
}

// ErrUnknownSlot is returned for a slot name outside Slots.
var ErrUnknownSlot = errors.New("unknown attachment slot")

// ParseSlot validates a slot name.
func ParseSlot(name string) (Slot, error) {
	for _, slot := range Slots {
		if string(slot) == name {
			return slot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}

// Attachment references the stored bytes of one slot.
type Attachment struct {
	Key         string
	Filename    string
	ContentType string
	Size        int64
}

// RegistrationDraft is the in-progress animal record owned by one wizard.
type RegistrationDraft struct {
	ReferenceID string
	Details     AnimalDetails
	Attachments map[Slot]Attachment
}

// Merge applies a partial update to the scalar fields.
func (d *RegistrationDraft) Merge(patch AnimalDetails) {
	d.Details.Merge(patch)
}

// SetAttachment fills slot, returning the attachment it replaced if any.
func (d *RegistrationDraft) SetAttachment(slot Slot, att Attachment) (*Attachment, error) {
	if _, err := ParseSlot(string(slot)); err != nil {
		return nil, err
	}
	if d.Attachments == nil {
		d.Attachments = make(map[Slot]Attachment, len(Slots))
	}
	var previous *Attachment
	if existing, ok := d.Attachments[slot]; ok {
		previous = &existing
	}
	d.Attachments[slot] = att
	return previous, nil
}

// ClearAttachment empties slot and returns what it held.
func (d *RegistrationDraft) ClearAttachment(slot Slot) (*Attachment, error) {
	if _, err := ParseSlot(string(slot)); err != nil {
		return nil, err
	}
	existing, ok := d.Attachments[slot]
	if !ok {
		return nil, nil
	}
	delete(d.Attachments, slot)
	return &existing, nil
}

// Attachment returns the file held by slot.
func (d RegistrationDraft) Attachment(slot Slot) (Attachment, bool) {
	att, ok := d.Attachments[slot]
	return att, ok
}

// FilledSlots lists occupied slots in submission order.
func (d RegistrationDraft) FilledSlots() []Slot {
	filled := make([]Slot, 0, len(d.Attachments))
	for _, slot := range Slots {
		if _, ok := d.Attachments[slot]; ok {
			filled = append(filled, slot)
		}
	}
	return filled
}

// Reset empties the draft and returns the attachments it released.
func (d *RegistrationDraft) Reset() []Attachment {
	released := make([]Attachment, 0, len(d.Attachments))
	for _, slot := range d.FilledSlots() {
		released = append(released, d.Attachments[slot])
	}
	*d = RegistrationDraft{}
	return released
}

// IsEmpty reports whether the draft is in its initial shape.
func (d RegistrationDraft) IsEmpty() bool {
	return d.ReferenceID == "" && d.Details == (AnimalDetails{}) && len(d.Attachments) == 0
}

// Clone returns a deep copy.
func (d RegistrationDraft) Clone() RegistrationDraft {
	clone := RegistrationDraft{ReferenceID: d.ReferenceID}
	clone.Details.Merge(d.Details)
	if len(d.Attachments) > 0 {
		clone.Attachments = make(map[Slot]Attachment, len(d.Attachments))
		for slot, att := range d.Attachments {
			clone.Attachments[slot] = att
		}
	}
	return clone
}

// FormField is one scalar part of the asset-creation payload.
type FormField struct {
	Name  string
	Value string
}

// FormFields renders every set scalar of the draft in payload order.
// Disease and pregnancy sub-fields are only emitted when their section applies.
func (d RegistrationDraft) FormFields() []FormField {
	var fields []FormField
	add := func(name, value string) {
		fields = append(fields, FormField{Name: name, Value: value})
	}
	addString := func(name string, v *string) {
		if v != nil {
			add(name, *v)
		}
	}
	addInt := func(name string, v *int) {
		if v != nil {
			add(name, strconv.Itoa(*v))
		}
	}
	addFloat := func(name string, v *float64) {
		if v != nil {
			add(name, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	addBool := func(name string, v *bool) {
		if v != nil {
			add(name, strconv.FormatBool(*v))
		}
	}
	addDate := func(name string, v *openapi_types.Date) {
		if v != nil {
			add(name, v.Format(openapi_types.DateFormat))
		}
	}

	det := d.Details
	if d.ReferenceID != "" {
		add("reference_id", d.ReferenceID)
	}
	addString("asset_type", det.AssetType)
	addString("breed", det.Breed)
	addString("color", det.Color)
	addString("gender", det.Gender)
	addInt("age", det.AgeMonths)
	addFloat("weight", det.WeightKg)
	addFloat("height", det.HeightCm)
	addString("vaccination_status", det.VaccinationStatus)
	addDate("last_vaccination_date", det.LastVaccinationDate)
	addString("deworming_status", det.DewormingStatus)
	addDate("last_deworming_date", det.LastDewormingDate)
	addBool("has_disease", det.HasDisease)
	if det.HasDiseaseSection() {
		addString("disease_name", det.DiseaseName)
		addString("disease_treatment", det.DiseaseTreatment)
	}
	if det.IsFemale() {
		addBool("is_pregnant", det.IsPregnant)
		if det.PregnancySectionApplies() {
			addInt("pregnancy_months", det.PregnancyMonths)
		}
	}
	addFloat("milk_production", det.MilkProductionLiters)
	addDate("purchase_date", det.PurchaseDate)
	addFloat("purchase_price", det.PurchasePrice)
	addString("purchased_from", det.PurchasedFrom)
	addString("owner_name", det.OwnerName)
	addString("owner_phone", det.OwnerPhone)
	addString("remarks", det.Remarks)
	return fields
}

// SubmissionIssues returns the checks that block a submission before any network call.
func (d RegistrationDraft) SubmissionIssues() validation.FieldErrors {
	issues := validation.FieldErrors{}
	if phone := d.Details.OwnerPhone; phone != nil && *phone != "" && !validation.ValidPhone(*phone) {
		issues.Add("owner_phone", "phone number must be 11 digits starting with 01")
	}
	return issues
}
