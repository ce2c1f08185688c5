package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Collection names a local log collection; the value is its storage key.
type Collection string

const (
	CollectionBreeding Collection = "breedingLogs"
	CollectionFeed     Collection = "feedLogs"
	CollectionBirth    Collection = "birthlogs"
)

// Collections lists every known collection.
var Collections = []Collection{CollectionBreeding, CollectionFeed, CollectionBirth}

var ErrUnknownCollection = errors.New("unknown log collection")

// ParseCollection accepts only the exact storage keys.
func ParseCollection(name string) (Collection, error) {
	for _, c := range Collections {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

// EventName is the change notification name clients listen for.
func (c Collection) EventName() string {
	switch c {
	case CollectionBreeding:
		return "breedingLogUpdated"
	case CollectionFeed:
		return "feedLogUpdated"
	case CollectionBirth:
		return "birthLogUpdated"
	default:
		return string(c) + "Updated"
	}
}

// PregnancyStatus tracks a breeding attempt.
type PregnancyStatus string

const (
	PregnancyPending   PregnancyStatus = "pending"
	PregnancyConfirmed PregnancyStatus = "confirmed"
	PregnancyFailed    PregnancyStatus = "failed"
)

// GestationDays is the cattle gestation period used to project calving.
const GestationDays = 283

var ErrInvalidPregnancyStatus = errors.New("invalid pregnancy status")

// ParsePregnancyStatus validates a status name.
func ParsePregnancyStatus(s string) (PregnancyStatus, error) {
	switch PregnancyStatus(strings.ToLower(strings.TrimSpace(s))) {
	case PregnancyPending:
		return PregnancyPending, nil
	case PregnancyConfirmed:
		return PregnancyConfirmed, nil
	case PregnancyFailed:
		return PregnancyFailed, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPregnancyStatus, s)
}

// BreedingDetails describes one insemination or natural service.
type BreedingDetails struct {
	Method              string              `json:"method"`
	BullID              string              `json:"bullId,omitempty"`
	Technician          string              `json:"technician,omitempty"`
	PregnancyStatus     PregnancyStatus     `json:"pregnancyStatus"`
	ExpectedCalvingDate *openapi_types.Date `json:"expectedCalvingDate,omitempty"`
	Notes               string              `json:"notes,omitempty"`
}

// FeedDetails describes one feeding.
type FeedDetails struct {
	FeedType   string  `json:"feedType"`
	QuantityKg float64 `json:"quantityKg"`
	CostPerKg  float64 `json:"costPerKg,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// BirthDetails describes one calving.
type BirthDetails struct {
	CalfID        string  `json:"calfId,omitempty"`
	CalfGender    string  `json:"calfGender"`
	BirthWeightKg float64 `json:"birthWeightKg,omitempty"`
	Difficulty    string  `json:"difficulty,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// Record is the one shape stored in every collection; exactly one detail block is set.
type Record struct {
	ID        string             `json:"id"`
	CowID     string             `json:"cowId"`
	Date      openapi_types.Date `json:"date"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Breeding  *BreedingDetails   `json:"breeding,omitempty"`
	Feed      *FeedDetails       `json:"feed,omitempty"`
	Birth     *BirthDetails      `json:"birth,omitempty"`
}

var (
	ErrMissingCowID    = errors.New("cow id is required")
	ErrMissingDate     = errors.New("date is required")
	ErrDetailsMismatch = errors.New("record details do not match the collection")
	ErrNotBreeding     = errors.New("pregnancy status only applies to breeding records")
)

// Validate checks the record can be stored in c.
func (r Record) Validate(c Collection) error {
	if strings.TrimSpace(r.CowID) == "" {
		return ErrMissingCowID
	}
	if r.Date.Time.IsZero() {
		return ErrMissingDate
	}
	blocks := 0
	for _, set := range []bool{r.Breeding != nil, r.Feed != nil, r.Birth != nil} {
		if set {
			blocks++
		}
	}
	var matches bool
	switch c {
	case CollectionBreeding:
		matches = r.Breeding != nil
	case CollectionFeed:
		matches = r.Feed != nil
	case CollectionBirth:
		matches = r.Birth != nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	if blocks != 1 || !matches {
		return fmt.Errorf("%w: %s expects exactly one %s block", ErrDetailsMismatch, c, detailName(c))
	}
	return nil
}

func detailName(c Collection) string {
	switch c {
	case CollectionBreeding:
		return "breeding"
	case CollectionFeed:
		return "feed"
	default:
		return "birth"
	}
}

// SetPregnancyStatus updates a breeding record; confirmation projects the calving date.
func (r *Record) SetPregnancyStatus(status PregnancyStatus) error {
	if r.Breeding == nil {
		return ErrNotBreeding
	}
	if _, err := ParsePregnancyStatus(string(status)); err != nil {
		return err
	}
	r.Breeding.PregnancyStatus = status
	if status == PregnancyConfirmed {
		r.Breeding.ExpectedCalvingDate = &openapi_types.Date{Time: r.Date.Time.AddDate(0, 0, GestationDays)}
	} else {
		r.Breeding.ExpectedCalvingDate = nil
	}
	return nil
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	clone := r
	if r.Breeding != nil {
		b := *r.Breeding
		if r.Breeding.ExpectedCalvingDate != nil {
			d := *r.Breeding.ExpectedCalvingDate
			b.ExpectedCalvingDate = &d
		}
		clone.Breeding = &b
	}
	if r.Feed != nil {
		f := *r.Feed
		clone.Feed = &f
	}
	if r.Birth != nil {
		b := *r.Birth
		clone.Birth = &b
	}
	return clone
}
