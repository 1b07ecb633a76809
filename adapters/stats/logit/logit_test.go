package logit

import (
	"errors"
	"math"
	"testing"

	"conflictlens/domain/core"
	"conflictlens/domain/stats"
)

const tol = 1e-6

// twoByTwoFrame builds a design with one binary predictor from a 2x2
// contingency table: (conflicts, total) for the x=0 and x=1 groups.
func twoByTwoFrame(yes0, n0, yes1, n1 int) *Frame {
	frame := &Frame{Terms: []stats.Term{stats.TermIntercept, stats.TermExcluded}}
	add := func(x, y float64, count int) {
		for i := 0; i < count; i++ {
			frame.X = append(frame.X, []float64{1, x})
			frame.Y = append(frame.Y, y)
		}
	}
	add(0, 1, yes0)
	add(0, 0, n0-yes0)
	add(1, 1, yes1)
	add(1, 0, n1-yes1)
	frame.N = len(frame.Y)
	return frame
}

// TestFitRecoversClosedForm checks the fit against the exact closed-form
// solution for a saturated binary model: the slope is the log odds ratio
// of the 2x2 table and its standard error is sqrt of the summed
// reciprocal cell counts.
func TestFitRecoversClosedForm(t *testing.T) {
	// x=0: 10 conflict / 90 none; x=1: 30 conflict / 70 none
	frame := twoByTwoFrame(10, 100, 30, 100)
	spec := Spec{Name: "closed form", Outcome: stats.OutcomeCurrentConflict, Terms: []stats.Term{stats.TermExcluded}}

	fitter := NewFitter()
	model, err := fitter.Fit(frame, spec)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	wantSlope := math.Log((30.0 / 70.0) / (10.0 / 90.0))
	wantIntercept := math.Log(10.0 / 90.0)
	wantSE := math.Sqrt(1.0/30 + 1.0/70 + 1.0/10 + 1.0/90)

	slope, _ := model.Estimate(stats.TermExcluded)
	intercept, _ := model.Estimate(stats.TermIntercept)

	if math.Abs(slope.Coefficient-wantSlope) > tol {
		t.Errorf("slope = %.8f, want %.8f", slope.Coefficient, wantSlope)
	}
	if math.Abs(intercept.Coefficient-wantIntercept) > tol {
		t.Errorf("intercept = %.8f, want %.8f", intercept.Coefficient, wantIntercept)
	}
	if math.Abs(slope.StdErr-wantSE) > 1e-4 {
		t.Errorf("slope SE = %.8f, want %.8f", slope.StdErr, wantSE)
	}
	if model.SampleSize != 200 {
		t.Errorf("SampleSize = %d, want 200", model.SampleSize)
	}
}

// TestOddsRatioIsExpCoefficient verifies the odds ratio invariant exactly,
// including the reference pair from the baseline exclusion model.
func TestOddsRatioIsExpCoefficient(t *testing.T) {
	frame := twoByTwoFrame(12, 112, 30, 88)
	spec := Spec{Name: "or", Outcome: stats.OutcomeCurrentConflict, Terms: []stats.Term{stats.TermExcluded}}

	model, err := NewFitter().Fit(frame, spec)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for _, e := range model.Estimates {
		if math.Abs(e.OddsRatio-math.Exp(e.Coefficient)) > tol {
			t.Errorf("%s: OddsRatio = %.8f, want exp(coef) = %.8f", e.Term, e.OddsRatio, math.Exp(e.Coefficient))
		}
	}

	// Reference values: a coefficient of 2.0025 corresponds to an odds
	// ratio of 7.4074.
	if got := math.Exp(2.0025); math.Abs(got-7.4074) > 1e-3 {
		t.Errorf("exp(2.0025) = %.4f, want 7.4074", got)
	}
}

// TestFitDeterminism refits the same frame and requires bit-identical
// coefficients: the optimizer has no stochastic component.
func TestFitDeterminism(t *testing.T) {
	frame := twoByTwoFrame(17, 93, 41, 107)
	spec := Spec{Name: "det", Outcome: stats.OutcomeCurrentConflict, Terms: []stats.Term{stats.TermExcluded}}
	fitter := NewFitter()

	first, err := fitter.Fit(frame, spec)
	if err != nil {
		t.Fatalf("first fit: %v", err)
	}
	second, err := fitter.Fit(frame, spec)
	if err != nil {
		t.Fatalf("second fit: %v", err)
	}

	for i := range first.Estimates {
		if first.Estimates[i].Coefficient != second.Estimates[i].Coefficient {
			t.Errorf("%s: coefficients differ across refits: %v vs %v",
				first.Estimates[i].Term, first.Estimates[i].Coefficient, second.Estimates[i].Coefficient)
		}
		if first.Estimates[i].StdErr != second.Estimates[i].StdErr {
			t.Errorf("%s: standard errors differ across refits", first.Estimates[i].Term)
		}
	}
	if first.LogLikelihood != second.LogLikelihood {
		t.Error("log-likelihood differs across refits")
	}
}

func TestFitConstantPredictor(t *testing.T) {
	frame := &Frame{Terms: []stats.Term{stats.TermIntercept, stats.TermExcluded}}
	for i := 0; i < 50; i++ {
		frame.X = append(frame.X, []float64{1, 1}) // excluded everywhere
		frame.Y = append(frame.Y, float64(i%2))
	}
	frame.N = len(frame.Y)

	_, err := NewFitter().Fit(frame, Spec{Name: "const", Terms: []stats.Term{stats.TermExcluded}})
	if !errors.Is(err, core.ErrConstantPredictor) {
		t.Errorf("error = %v, want ErrConstantPredictor", err)
	}
}

func TestFitRankDeficient(t *testing.T) {
	// Two perfectly collinear predictors
	frame := &Frame{Terms: []stats.Term{stats.TermIntercept, stats.TermExcluded, stats.TermGeoConcentrated}}
	for i := 0; i < 60; i++ {
		x := float64(i % 2)
		frame.X = append(frame.X, []float64{1, x, x})
		frame.Y = append(frame.Y, float64((i/2)%2))
	}
	frame.N = len(frame.Y)

	_, err := NewFitter().Fit(frame, Spec{Name: "collinear", Terms: []stats.Term{stats.TermExcluded, stats.TermGeoConcentrated}})
	if !errors.Is(err, core.ErrRankDeficient) {
		t.Errorf("error = %v, want ErrRankDeficient", err)
	}
}

// TestFitReportingStats covers the derived per-model statistics.
func TestFitReportingStats(t *testing.T) {
	frame := twoByTwoFrame(20, 120, 45, 130)
	model, err := NewFitter().Fit(frame, Spec{Name: "stats", Outcome: stats.OutcomeCurrentConflict, Terms: []stats.Term{stats.TermExcluded}})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if model.LogLikelihood >= 0 {
		t.Errorf("log-likelihood should be negative, got %f", model.LogLikelihood)
	}
	if model.LogLikelihood < model.NullLogLik {
		t.Errorf("fitted LL %.4f should not be below null LL %.4f", model.LogLikelihood, model.NullLogLik)
	}
	if model.PseudoR2 < 0 || model.PseudoR2 > 1 {
		t.Errorf("pseudo R² out of range: %f", model.PseudoR2)
	}
	wantAIC := 2*2 - 2*model.LogLikelihood
	if math.Abs(model.AIC-wantAIC) > tol {
		t.Errorf("AIC = %f, want %f", model.AIC, wantAIC)
	}

	slope, _ := model.Estimate(stats.TermExcluded)
	if slope.PValue < 0 || slope.PValue > 1 {
		t.Errorf("p-value out of range: %f", slope.PValue)
	}
	// Positive slope: the marginal effect must be positive and smaller in
	// magnitude than the log-odds coefficient
	if slope.MarginalEffect <= 0 {
		t.Errorf("marginal effect = %f, want > 0", slope.MarginalEffect)
	}
	if math.Abs(slope.MarginalEffect) >= math.Abs(slope.Coefficient) {
		t.Errorf("marginal effect %f should shrink the log-odds coefficient %f", slope.MarginalEffect, slope.Coefficient)
	}

	intercept, _ := model.Estimate(stats.TermIntercept)
	if intercept.MarginalEffect != 0 {
		t.Errorf("intercept has no marginal effect, got %f", intercept.MarginalEffect)
	}
}
