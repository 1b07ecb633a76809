package descriptive

import (
	"log"
	"sort"

	montana "github.com/montanaflynn/stats"

	"conflictlens/domain/core"
	"conflictlens/domain/panel"
	"conflictlens/domain/stats"
)

// Analyzer computes the descriptive cross-tabulations of the panel.
type Analyzer struct{}

// NewAnalyzer creates a descriptive statistics analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// outcomeFn selects the boolean outcome a tabulation is computed over.
type outcomeFn func(o panel.Observation) bool

func currentConflict(o panel.Observation) bool { return o.AnyConflict() }

func futureConflict(lag int) outcomeFn {
	return func(o panel.Observation) bool { return o.FutureConflict(lag) }
}

// Compute tabulates conflict rates by exclusion status, political status
// category, geographic concentration and governance experience, for the
// current year and the derived leads.
func (a *Analyzer) Compute(ds *panel.Dataset, lagYears []int) (*stats.Descriptives, error) {
	if ds.Len() == 0 {
		return nil, core.ErrInsufficientData
	}
	obs := ds.Observations()

	excludedShare := rate(obs, func(o panel.Observation) bool { return o.Excluded() })

	d := &stats.Descriptives{
		Observations:     ds.Len(),
		ExcludedShare:    excludedShare,
		ConflictByStatus: a.byStatus(obs, currentConflict),
		FutureByStatus:   a.byStatus(obs, futureConflict(1)),
		ByExclusion:      a.byExclusion(obs, currentConflict),
		FutureByLag:      map[int][]stats.RateCell{},
		GeoCrossTab:      a.crossTab(obs, geoModerator, stats.TermGeoConcentrated, stats.OutcomeCurrentConflict, currentConflict),
		UpgradeCrossTab:  a.crossTab(obs, upgradeModerator, stats.TermUpgraded, stats.OutcomeCurrentConflict, currentConflict),
		FutureGeoTab:     a.crossTab(obs, geoModerator, stats.TermGeoConcentrated, stats.OutcomeFutureConflict, futureConflict(1)),
		FutureUpgradeTab: a.crossTab(obs, upgradeModerator, stats.TermUpgraded, stats.OutcomeFutureConflict, futureConflict(1)),
		Trend:            a.trend(ds),
	}

	for _, lag := range lagYears {
		if lag < 1 || lag > panel.MaxLag {
			continue
		}
		d.FutureByLag[lag] = a.byExclusion(obs, futureConflict(lag))
	}

	log.Printf("[Descriptives] %d observations, %.2f%% excluded-group rows", d.Observations, d.ExcludedShare*100)
	return d, nil
}

func geoModerator(o panel.Observation) *bool     { return o.GeoConcentrated }
func upgradeModerator(o panel.Observation) *bool { return o.Upgraded }

// byStatus computes the conflict rate within each political status
// category, ordered by descending rate.
func (a *Analyzer) byStatus(obs []panel.Observation, outcome outcomeFn) []stats.RateCell {
	cells := make([]stats.RateCell, 0, 7)
	for _, status := range panel.AllStatuses() {
		subset := filter(obs, func(o panel.Observation) bool { return o.Status == status })
		if len(subset) == 0 {
			continue
		}
		cells = append(cells, stats.RateCell{
			Label: status.String(),
			N:     len(subset),
			Rate:  rate(subset, outcome),
		})
	}
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].Rate > cells[j].Rate })
	return cells
}

// byExclusion computes the included/excluded conflict rate pair.
func (a *Analyzer) byExclusion(obs []panel.Observation, outcome outcomeFn) []stats.RateCell {
	included := filter(obs, func(o panel.Observation) bool { return !o.Excluded() })
	excluded := filter(obs, func(o panel.Observation) bool { return o.Excluded() })
	return []stats.RateCell{
		{Label: "included", N: len(included), Rate: rate(included, outcome)},
		{Label: "excluded", N: len(excluded), Rate: rate(excluded, outcome)},
	}
}

// crossTab tabulates the outcome rate over exclusion x one binary
// moderator. Rows with a missing moderator are dropped from the cell
// counts and recorded in Missing.
func (a *Analyzer) crossTab(obs []panel.Observation, moderator func(panel.Observation) *bool, term stats.Term, outcome stats.Outcome, fn outcomeFn) stats.CrossTab {
	tab := stats.CrossTab{Moderator: term, Outcome: outcome}

	rates := map[string]float64{}
	for _, excluded := range []bool{false, true} {
		for _, level := range []bool{false, true} {
			subset := make([]panel.Observation, 0)
			for _, o := range obs {
				m := moderator(o)
				if m == nil {
					continue
				}
				if o.Excluded() == excluded && *m == level {
					subset = append(subset, o)
				}
			}
			cell := stats.RateCell{
				Label: stats.CellLabel(excluded, level),
				N:     len(subset),
				Rate:  rate(subset, fn),
			}
			rates[cell.Label] = cell.Rate
			tab.Cells = append(tab.Cells, cell)
		}
	}

	for _, o := range obs {
		if moderator(o) == nil {
			tab.Missing++
		}
	}

	// Excluded minus included rate difference at each moderator level
	for _, level := range []bool{false, true} {
		tab.Diffs = append(tab.Diffs, stats.RateCell{
			Label: levelLabel(level),
			Rate:  rates[stats.CellLabel(true, level)] - rates[stats.CellLabel(false, level)],
		})
	}
	return tab
}

func levelLabel(level bool) string {
	if level {
		return "level=1"
	}
	return "level=0"
}

// trend computes yearly conflict rates split by exclusion status.
func (a *Analyzer) trend(ds *panel.Dataset) []stats.TrendPoint {
	points := make([]stats.TrendPoint, 0)
	for _, year := range ds.Years() {
		yearObs := filter(ds.Observations(), func(o panel.Observation) bool { return o.Year == year })
		included := filter(yearObs, func(o panel.Observation) bool { return !o.Excluded() })
		excluded := filter(yearObs, func(o panel.Observation) bool { return o.Excluded() })
		points = append(points, stats.TrendPoint{
			Year:         year,
			IncludedRate: rate(included, currentConflict),
			ExcludedRate: rate(excluded, currentConflict),
		})
	}
	return points
}

// rate is the empirical outcome rate: the mean of the boolean outcome
// coded 0/1 over the subset.
func rate(obs []panel.Observation, outcome outcomeFn) float64 {
	if len(obs) == 0 {
		return 0
	}
	values := make([]float64, len(obs))
	for i, o := range obs {
		if outcome(o) {
			values[i] = 1
		}
	}
	mean, err := montana.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

func filter(obs []panel.Observation, keep func(panel.Observation) bool) []panel.Observation {
	out := make([]panel.Observation, 0, len(obs))
	for _, o := range obs {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}
