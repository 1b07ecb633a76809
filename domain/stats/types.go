package stats

import (
	"fmt"

	"conflictlens/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES
// ============================================================================

// Outcome identifies the dependent variable of a model.
type Outcome string

const (
	OutcomeCurrentConflict Outcome = "any_conflict"
	OutcomeFutureConflict  Outcome = "future_conflict_1yr"
)

// Term identifies a model predictor. Interaction terms use a colon,
// mirroring the source formula notation.
type Term string

const (
	TermIntercept       Term = "intercept"
	TermExcluded        Term = "excluded"
	TermGeoConcentrated Term = "geo_concentrated"
	TermUpgraded        Term = "upgraded"
	TermExcludedGeo     Term = "excluded:geo_concentrated"
	TermExcludedUpgrade Term = "excluded:upgraded"
)

// TermEstimate contains the per-predictor results of a fitted model.
// INVARIANTS:
// - PValue always in [0,1]
// - OddsRatio == exp(Coefficient)
type TermEstimate struct {
	Term           Term    `json:"term"`
	Coefficient    float64 `json:"coefficient"`
	StdErr         float64 `json:"std_err"`
	ZValue         float64 `json:"z_value"`
	PValue         float64 `json:"p_value"`
	OddsRatio      float64 `json:"odds_ratio"`
	MarginalEffect float64 `json:"marginal_effect"`
}

// Significant reports whether the estimate is significant at alpha.
func (e TermEstimate) Significant(alpha float64) bool {
	return e.PValue < alpha
}

// ModelResult is a fitted logistic regression. Immutable once fit.
type ModelResult struct {
	Name      string         `json:"name"`
	Outcome   Outcome        `json:"outcome"`
	Terms     []Term         `json:"terms"` // design order, intercept first
	Estimates []TermEstimate `json:"estimates"`

	SampleSize    int     `json:"sample_size"`
	LogLikelihood float64 `json:"log_likelihood"`
	NullLogLik    float64 `json:"null_log_likelihood"`
	AIC           float64 `json:"aic"`
	PseudoR2      float64 `json:"pseudo_r2"` // McFadden
	Iterations    int     `json:"iterations"`
}

// Estimate looks up the estimate for a term.
func (m *ModelResult) Estimate(term Term) (TermEstimate, bool) {
	for _, e := range m.Estimates {
		if e.Term == term {
			return e, true
		}
	}
	return TermEstimate{}, false
}

// MustEstimate looks up a term estimate or returns a domain error.
func (m *ModelResult) MustEstimate(term Term) (TermEstimate, error) {
	if e, ok := m.Estimate(term); ok {
		return e, nil
	}
	return TermEstimate{}, core.NewTermError(m.Name, string(term))
}

// ModelFailure records a per-model numerical failure. Failures are
// surfaced alongside the models that did fit, never suppressed.
type ModelFailure struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason"`
}

// ModelSuite groups the fitted models for a single outcome.
type ModelSuite struct {
	Outcome  Outcome        `json:"outcome"`
	Models   []*ModelResult `json:"models"`
	Failures []ModelFailure `json:"failures,omitempty"`
}

// Model looks up a fitted model by name.
func (s *ModelSuite) Model(name string) (*ModelResult, bool) {
	for _, m := range s.Models {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// ============================================================================
// DESCRIPTIVE RESULTS
// ============================================================================

// RateCell is one cell of a cross-tabulation: the empirical conflict rate
// within a subgroup, computed as the mean of the boolean outcome.
type RateCell struct {
	Label string  `json:"label"`
	N     int     `json:"n"`
	Rate  float64 `json:"rate"`
}

// CrossTab is the conflict rate broken down by exclusion status and one
// binary moderator. Cells hold one entry per exclusion/moderator level
// combination, Diffs carry the excluded-included rate difference at each
// moderator level, and Missing counts rows dropped for a missing moderator.
type CrossTab struct {
	Moderator Term       `json:"moderator"`
	Outcome   Outcome    `json:"outcome"`
	Cells     []RateCell `json:"cells"`
	Diffs     []RateCell `json:"diffs"`
	Missing   int        `json:"missing"`
}

// Cell looks up the rate cell for an exclusion/moderator combination.
func (c *CrossTab) Cell(excluded, level bool) (RateCell, bool) {
	label := cellLabel(excluded, level)
	for _, cell := range c.Cells {
		if cell.Label == label {
			return cell, true
		}
	}
	return RateCell{}, false
}

func cellLabel(excluded, level bool) string {
	return fmt.Sprintf("excluded=%t,level=%t", excluded, level)
}

// CellLabel exposes the canonical cell naming for builders.
func CellLabel(excluded, level bool) string {
	return cellLabel(excluded, level)
}

// TrendPoint is one year of the conflict time-trend series.
type TrendPoint struct {
	Year         int     `json:"year"`
	IncludedRate float64 `json:"included_rate"`
	ExcludedRate float64 `json:"excluded_rate"`
}

// Descriptives is the full descriptive-statistics output.
type Descriptives struct {
	Observations     int                `json:"observations"`
	ExcludedShare    float64            `json:"excluded_share"`
	ConflictByStatus []RateCell         `json:"conflict_by_status"`
	FutureByStatus   []RateCell         `json:"future_conflict_by_status"`
	ByExclusion      []RateCell         `json:"conflict_by_exclusion"`
	FutureByLag      map[int][]RateCell `json:"future_conflict_by_lag"`
	GeoCrossTab      CrossTab           `json:"geo_cross_tab"`
	UpgradeCrossTab  CrossTab           `json:"upgrade_cross_tab"`
	FutureGeoTab     CrossTab           `json:"future_geo_cross_tab"`
	FutureUpgradeTab CrossTab           `json:"future_upgrade_cross_tab"`
	Trend            []TrendPoint       `json:"trend"`
}

// ============================================================================
// INTERACTION EFFECTS
// ============================================================================

// ConditionalEffect is the exclusion effect at one moderator level,
// derived arithmetically from a fitted model's coefficients.
type ConditionalEffect struct {
	Moderator Term    `json:"moderator"`
	Level     float64 `json:"level"`
	Effect    float64 `json:"effect"`     // base + level*interaction
	OddsRatio float64 `json:"odds_ratio"` // exp(Effect)
}

// InteractionSummary is the conditional exclusion effect across the two
// levels of one binary moderator.
type InteractionSummary struct {
	Model      string              `json:"model"`
	Outcome    Outcome             `json:"outcome"`
	Moderator  Term                `json:"moderator"`
	Base       float64             `json:"base_coefficient"`
	Interact   float64             `json:"interaction_coefficient"`
	PValue     float64             `json:"interaction_p_value"`
	Effects    []ConditionalEffect `json:"effects"`
	Difference float64             `json:"difference"` // high level minus low level
}
