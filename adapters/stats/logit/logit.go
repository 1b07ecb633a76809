package logit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"conflictlens/domain/core"
	"conflictlens/domain/stats"
)

// Fitter fits logistic regressions by Newton-Raphson on the full
// likelihood. Fitting is deterministic: no random starts, no stochastic
// optimizers, so refits on identical data reproduce coefficients exactly.
type Fitter struct {
	MaxIter int
	Tol     float64
}

// NewFitter creates a fitter with the standard convergence settings
func NewFitter() *Fitter {
	return &Fitter{MaxIter: 100, Tol: 1e-10}
}

// Fit estimates the spec's coefficients on the frame and derives the
// reporting statistics (SE, z, p, odds ratio, average marginal effect).
func (f *Fitter) Fit(frame *Frame, spec Spec) (*stats.ModelResult, error) {
	n := frame.N
	k := len(frame.Terms)

	// A constant column cannot be estimated alongside the intercept.
	for j := 1; j < k; j++ {
		if isConstantColumn(frame.X, j) {
			return nil, core.NewConstantPredictorError(string(frame.Terms[j]))
		}
	}

	beta := make([]float64, k)
	p := make([]float64, n)
	var iterations int

	for iter := 0; iter < f.MaxIter; iter++ {
		iterations = iter + 1

		// Predicted probabilities under the current coefficients
		for i := 0; i < n; i++ {
			p[i] = sigmoid(dot(frame.X[i], beta))
		}

		grad := f.gradient(frame, p)
		hessian := f.hessian(frame, p, k)

		var chol mat.Cholesky
		if ok := chol.Factorize(hessian); !ok {
			return nil, fmt.Errorf("%w: observed information not positive definite", core.ErrRankDeficient)
		}

		var delta mat.VecDense
		if err := chol.SolveVecTo(&delta, mat.NewVecDense(k, grad)); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrRankDeficient, err)
		}

		maxStep := 0.0
		for j := 0; j < k; j++ {
			beta[j] += delta.AtVec(j)
			if s := math.Abs(delta.AtVec(j)); s > maxStep {
				maxStep = s
			}
		}

		if maxStep < f.Tol {
			return f.assemble(frame, spec, beta, iterations)
		}
	}

	return nil, fmt.Errorf("%w: %s after %d iterations", core.ErrNotConverged, spec.Name, f.MaxIter)
}

// gradient is the score vector X'(y - p).
func (f *Fitter) gradient(frame *Frame, p []float64) []float64 {
	k := len(frame.Terms)
	grad := make([]float64, k)
	for i, row := range frame.X {
		resid := frame.Y[i] - p[i]
		for j := 0; j < k; j++ {
			grad[j] += row[j] * resid
		}
	}
	return grad
}

// hessian is the observed information X'WX with W = diag(p(1-p)).
func (f *Fitter) hessian(frame *Frame, p []float64, k int) *mat.SymDense {
	h := mat.NewSymDense(k, nil)
	for i, row := range frame.X {
		w := p[i] * (1 - p[i])
		for a := 0; a < k; a++ {
			for b := a; b < k; b++ {
				h.SetSym(a, b, h.At(a, b)+w*row[a]*row[b])
			}
		}
	}
	return h
}

// assemble computes the reporting statistics once the fit has converged.
func (f *Fitter) assemble(frame *Frame, spec Spec, beta []float64, iterations int) (*stats.ModelResult, error) {
	n := frame.N
	k := len(frame.Terms)

	p := make([]float64, n)
	for i := 0; i < n; i++ {
		p[i] = sigmoid(dot(frame.X[i], beta))
	}

	hessian := f.hessian(frame, p, k)
	var chol mat.Cholesky
	if ok := chol.Factorize(hessian); !ok {
		return nil, fmt.Errorf("%w: information matrix at optimum", core.ErrRankDeficient)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRankDeficient, err)
	}

	// Average of p(1-p), the weight converting log-odds to probability
	// scale for the average marginal effects
	meanWeight := 0.0
	for i := 0; i < n; i++ {
		meanWeight += p[i] * (1 - p[i])
	}
	meanWeight /= float64(n)

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	estimates := make([]stats.TermEstimate, k)
	for j := 0; j < k; j++ {
		se := math.Sqrt(cov.At(j, j))
		z := beta[j] / se
		estimate := stats.TermEstimate{
			Term:        frame.Terms[j],
			Coefficient: beta[j],
			StdErr:      se,
			ZValue:      z,
			PValue:      2 * normal.Survival(math.Abs(z)),
			OddsRatio:   math.Exp(beta[j]),
		}
		if frame.Terms[j] != stats.TermIntercept {
			estimate.MarginalEffect = beta[j] * meanWeight
		}
		estimates[j] = estimate
	}

	ll := logLikelihood(frame.Y, p)
	nullLL := nullLogLikelihood(frame.Y)
	pseudoR2 := 0.0
	if nullLL != 0 {
		pseudoR2 = 1 - ll/nullLL
	}

	return &stats.ModelResult{
		Name:          spec.Name,
		Outcome:       spec.Outcome,
		Terms:         frame.Terms,
		Estimates:     estimates,
		SampleSize:    n,
		LogLikelihood: ll,
		NullLogLik:    nullLL,
		AIC:           2*float64(k) - 2*ll,
		PseudoR2:      pseudoR2,
		Iterations:    iterations,
	}, nil
}

func logLikelihood(y, p []float64) float64 {
	ll := 0.0
	for i := range y {
		// Clamp away from 0/1 so separation shows up as a large finite
		// log-likelihood rather than -Inf
		pi := math.Min(math.Max(p[i], 1e-12), 1-1e-12)
		if y[i] == 1 {
			ll += math.Log(pi)
		} else {
			ll += math.Log(1 - pi)
		}
	}
	return ll
}

// nullLogLikelihood is the intercept-only log-likelihood, which has the
// closed form n*(q*ln q + (1-q)*ln(1-q)) at the sample rate q.
func nullLogLikelihood(y []float64) float64 {
	n := float64(len(y))
	ones := 0.0
	for _, v := range y {
		ones += v
	}
	q := ones / n
	if q == 0 || q == 1 {
		return 0
	}
	return n * (q*math.Log(q) + (1-q)*math.Log(1-q))
}

func isConstantColumn(x [][]float64, j int) bool {
	first := x[0][j]
	for _, row := range x[1:] {
		if row[j] != first {
			return false
		}
	}
	return true
}

func sigmoid(eta float64) float64 {
	return 1 / (1 + math.Exp(-eta))
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
