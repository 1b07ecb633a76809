package panel

import (
	"fmt"
	"sort"

	"conflictlens/domain/core"
)

// Dataset is the loaded observation panel. Observations are ordered by
// group-country key then year, and leads are derived at construction;
// the dataset is read-only afterwards.
type Dataset struct {
	observations []Observation

	// Missing-value counters recorded during loading, keyed by column.
	Missing map[string]int
}

// NewDataset builds the panel with the default exclusion threshold.
func NewDataset(observations []Observation, missing map[string]int) (*Dataset, error) {
	return NewDatasetWithThreshold(observations, missing, ExcludedRankThreshold)
}

// NewDatasetWithThreshold orders the observations, derives exclusion
// against the given power-rank threshold, derives the future-conflict
// leads for lags 1..MaxLag within each group-country panel, and seals
// the result.
func NewDatasetWithThreshold(observations []Observation, missing map[string]int, threshold int) (*Dataset, error) {
	if threshold < 1 || threshold > 7 {
		return nil, fmt.Errorf("exclusion threshold %d out of range [1,7]", threshold)
	}
	if len(observations) == 0 {
		return nil, core.ErrEmptyDataset
	}

	obs := make([]Observation, len(observations))
	copy(obs, observations)

	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].Key() != obs[j].Key() {
			return obs[i].Key() < obs[j].Key()
		}
		return obs[i].Year < obs[j].Year
	})

	for i := range obs {
		obs[i].excluded = obs[i].Status.ExcludedAt(threshold)
	}
	deriveLeads(obs)

	if missing == nil {
		missing = map[string]int{}
	}
	return &Dataset{observations: obs, Missing: missing}, nil
}

// deriveLeads shifts AnyConflict backwards within each panel so each
// observation carries its own future outcomes. Truncated leads at the
// panel tail stay false.
func deriveLeads(obs []Observation) {
	start := 0
	for i := 1; i <= len(obs); i++ {
		if i == len(obs) || obs[i].Key() != obs[start].Key() {
			for j := start; j < i; j++ {
				for lag := 1; lag <= MaxLag; lag++ {
					if j+lag < i {
						obs[j].setFutureConflict(lag, obs[j+lag].AnyConflict())
					}
				}
			}
			start = i
		}
	}
}

// Len returns the number of observations.
func (d *Dataset) Len() int {
	return len(d.observations)
}

// Observations returns the ordered observation slice. Callers must not
// modify the returned slice.
func (d *Dataset) Observations() []Observation {
	return d.observations
}

// ExcludedCount returns how many observations belong to excluded groups.
func (d *Dataset) ExcludedCount() int {
	n := 0
	for _, o := range d.observations {
		if o.Excluded() {
			n++
		}
	}
	return n
}

// Years returns the distinct observation years in ascending order.
func (d *Dataset) Years() []int {
	seen := map[int]bool{}
	for _, o := range d.observations {
		seen[o.Year] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
