package logit

import (
	"fmt"

	"conflictlens/domain/core"
	"conflictlens/domain/panel"
	"conflictlens/domain/stats"
)

// Spec describes one logistic regression: its display name, outcome and
// predictors. The intercept is implicit.
type Spec struct {
	Name    string
	Outcome stats.Outcome
	Terms   []stats.Term
}

// SuiteSpecs returns the standard five-model ladder for an outcome:
// baseline exclusion-only, controls, each interaction separately, and the
// full model with both interactions.
func SuiteSpecs(outcome stats.Outcome) []Spec {
	suffix := ""
	if outcome == stats.OutcomeFutureConflict {
		suffix = "F"
	}
	name := func(i int) string { return fmt.Sprintf("Model %d%s", i, suffix) }

	controls := []stats.Term{stats.TermExcluded, stats.TermGeoConcentrated, stats.TermUpgraded}
	return []Spec{
		{Name: name(1), Outcome: outcome, Terms: []stats.Term{stats.TermExcluded}},
		{Name: name(2), Outcome: outcome, Terms: controls},
		{Name: name(3), Outcome: outcome, Terms: append(append([]stats.Term{}, controls...), stats.TermExcludedGeo)},
		{Name: name(4), Outcome: outcome, Terms: append(append([]stats.Term{}, controls...), stats.TermExcludedUpgrade)},
		{Name: name(5), Outcome: outcome, Terms: append(append([]stats.Term{}, controls...), stats.TermExcludedGeo, stats.TermExcludedUpgrade)},
	}
}

// Frame is a complete-case design matrix and response vector for one spec.
type Frame struct {
	Terms   []stats.Term // intercept first, then spec order
	X       [][]float64  // row-major design matrix, len(Terms) columns
	Y       []float64    // 0/1 response
	N       int
	Dropped int // rows excluded for missing predictors
}

// termValue extracts one predictor value from an observation; ok is false
// when a required moderator is missing.
func termValue(o panel.Observation, term stats.Term) (float64, bool) {
	switch term {
	case stats.TermIntercept:
		return 1, true
	case stats.TermExcluded:
		return boolToFloat(o.Excluded()), true
	case stats.TermGeoConcentrated:
		if o.GeoConcentrated == nil {
			return 0, false
		}
		return boolToFloat(*o.GeoConcentrated), true
	case stats.TermUpgraded:
		if o.Upgraded == nil {
			return 0, false
		}
		return boolToFloat(*o.Upgraded), true
	case stats.TermExcludedGeo:
		if o.GeoConcentrated == nil {
			return 0, false
		}
		return boolToFloat(o.Excluded() && *o.GeoConcentrated), true
	case stats.TermExcludedUpgrade:
		if o.Upgraded == nil {
			return 0, false
		}
		return boolToFloat(o.Excluded() && *o.Upgraded), true
	default:
		return 0, false
	}
}

func outcomeValue(o panel.Observation, outcome stats.Outcome) float64 {
	switch outcome {
	case stats.OutcomeFutureConflict:
		return boolToFloat(o.FutureConflict(1))
	default:
		return boolToFloat(o.AnyConflict())
	}
}

// BuildFrame assembles the complete-case design matrix for a spec. Rows
// missing any required moderator are dropped and counted.
func BuildFrame(ds *panel.Dataset, spec Spec) (*Frame, error) {
	terms := append([]stats.Term{stats.TermIntercept}, spec.Terms...)
	frame := &Frame{Terms: terms}

	for _, o := range ds.Observations() {
		row := make([]float64, len(terms))
		complete := true
		for j, term := range terms {
			v, ok := termValue(o, term)
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		if !complete {
			frame.Dropped++
			continue
		}
		frame.X = append(frame.X, row)
		frame.Y = append(frame.Y, outcomeValue(o, spec.Outcome))
	}

	frame.N = len(frame.Y)
	if frame.N < len(terms) {
		return nil, core.ErrInsufficientData
	}
	return frame, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
