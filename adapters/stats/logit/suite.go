package logit

import (
	"log"

	"conflictlens/domain/core"
	"conflictlens/domain/panel"
	"conflictlens/domain/stats"
)

// FitSuite fits the standard model ladder for one outcome. Numerical
// failures are recorded per model and do not stop the remaining fits.
func (f *Fitter) FitSuite(ds *panel.Dataset, outcome stats.Outcome) *stats.ModelSuite {
	suite := &stats.ModelSuite{Outcome: outcome}

	for _, spec := range SuiteSpecs(outcome) {
		model, err := f.fitSpec(ds, spec)
		if err != nil {
			if core.IsFitError(err) {
				log.Printf("[Logit] %s (%s) not estimable: %v", spec.Name, outcome, err)
			} else {
				log.Printf("[Logit] %s (%s) failed: %v", spec.Name, outcome, err)
			}
			suite.Failures = append(suite.Failures, stats.ModelFailure{
				Name:    spec.Name,
				Outcome: outcome,
				Reason:  err.Error(),
			})
			continue
		}
		log.Printf("[Logit] %s (%s): N=%d, LL=%.2f, converged in %d iterations",
			spec.Name, outcome, model.SampleSize, model.LogLikelihood, model.Iterations)
		suite.Models = append(suite.Models, model)
	}

	return suite
}

func (f *Fitter) fitSpec(ds *panel.Dataset, spec Spec) (*stats.ModelResult, error) {
	frame, err := BuildFrame(ds, spec)
	if err != nil {
		return nil, err
	}
	return f.Fit(frame, spec)
}
