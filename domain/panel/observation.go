package panel

import "fmt"

// MaxLag is the largest lead, in years, derived for future-conflict outcomes.
const MaxLag = 3

// Observation is one ethnic-group-country-year record from the panel.
//
// Moderator flags are pointers so that missing values survive loading;
// rows with a nil moderator are dropped from the cross-tabs and model
// frames that need it. Outcome flags are always defined.
type Observation struct {
	GroupID   string         `json:"group_id"`
	CountryID string         `json:"country_id"`
	Year      int            `json:"year"`
	Status    StatusCategory `json:"status"`

	// Moderators (nil = missing in source data)
	GeoConcentrated *bool `json:"geo_concentrated,omitempty"`
	Upgraded        *bool `json:"upgraded,omitempty"`

	// Conflict incidence by type, as recorded in the source year
	IncidenceAny          bool `json:"incidence_any"`
	IncidenceTerritorial  bool `json:"incidence_territorial"`
	IncidenceGovernmental bool `json:"incidence_governmental"`

	// excluded and future are derived during dataset construction:
	// exclusion from the status power rank against the configured
	// threshold, future from the panel's lead outcomes (index lag-1).
	excluded bool
	future   [MaxLag]bool
}

// Key returns the group-country panel identifier used for lead derivation.
func (o Observation) Key() string {
	return o.GroupID + "_" + o.CountryID
}

// Excluded reports whether the group is politically excluded this year,
// as derived during dataset construction. Observations that never passed
// through NewDataset report false.
func (o Observation) Excluded() bool {
	return o.excluded
}

// AnyConflict reports whether any conflict type was recorded this year.
func (o Observation) AnyConflict() bool {
	return o.IncidenceAny || o.IncidenceTerritorial || o.IncidenceGovernmental
}

// FutureConflict reports the derived conflict outcome lag years ahead.
// Observations at the panel tail report false, matching the source
// convention of zero-filling truncated leads.
func (o Observation) FutureConflict(lag int) bool {
	if lag < 1 || lag > MaxLag {
		panic(fmt.Sprintf("panel: lag %d out of range [1,%d]", lag, MaxLag))
	}
	return o.future[lag-1]
}

// setFutureConflict records a derived lead outcome. Unexported: leads are
// computed once during dataset construction and never mutated after.
func (o *Observation) setFutureConflict(lag int, v bool) {
	o.future[lag-1] = v
}
