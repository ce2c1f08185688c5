package types

// ReferenceList names a lookup list served by the farm backend.
type ReferenceList string

const (
	ReferenceBreeds              ReferenceList = "breeds"
	ReferenceColors              ReferenceList = "colors"
	ReferenceVaccinationStatuses ReferenceList = "vaccination-statuses"
	ReferenceDewormingStatuses   ReferenceList = "deworming-statuses"
	ReferenceAssetTypes          ReferenceList = "asset-types"
)

// ReferenceLists is every list the animal details step needs.
var ReferenceLists = []ReferenceList{
	ReferenceBreeds,
	ReferenceColors,
	ReferenceVaccinationStatuses,
	ReferenceDewormingStatuses,
	ReferenceAssetTypes,
}

// ReferenceItem is one dropdown option.
type ReferenceItem struct {
	ID   string
	Name string
}

// Loadable holds a list or the reason it could not be loaded.
type Loadable struct {
	Items []ReferenceItem
	Error string
}

// Failed reports whether the list could not be loaded.
func (l Loadable) Failed() bool { return l.Error != "" }

// ReferenceData groups the dropdown lists; each one loads independently.
type ReferenceData struct {
	Lists map[ReferenceList]Loadable
}

// FailedLists returns the lists that could not be loaded, in ReferenceLists order.
func (r ReferenceData) FailedLists() []ReferenceList {
	var failed []ReferenceList
	for _, name := range ReferenceLists {
		if r.Lists[name].Failed() {
			failed = append(failed, name)
		}
	}
	return failed
}
