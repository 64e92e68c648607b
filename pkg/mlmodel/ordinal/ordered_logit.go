// Package ordinal fits a cumulative-logit (proportional odds) model and
// reports coefficient significance. It is used for interpretation only and
// never for prediction.
//
// The model is
//
//	P(y <= j | x) = F(cut_j - x·beta),  F the logistic CDF,
//
// with cut points parametrised as cut_0 = theta_0 and
// cut_j = cut_{j-1} + exp(theta_j), which keeps them increasing while the
// optimiser works on unconstrained parameters. Reported threshold estimates
// are the theta values.
package ordinal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wwdelhi/congestion/pkg/logger"
)

// minProb bounds category probabilities away from zero inside the log
const minProb = 1e-300

// OrderedLogit is a cumulative logit model over ordered levels
type OrderedLogit struct {
	Features      []string
	Levels        []string // Ordered level names, lowest first
	MaxIterations int

	log *logger.Logger
}

// NewOrderedLogit creates a model over the named features and ordered levels
func NewOrderedLogit(features, levels []string, maxIterations int, log *logger.Logger) *OrderedLogit {
	if log == nil {
		log = logger.NewNop()
	}
	return &OrderedLogit{
		Features:      append([]string(nil), features...),
		Levels:        append([]string(nil), levels...),
		MaxIterations: maxIterations,
		log:           log.Component("ordinal"),
	}
}

// problem holds the data of one fit. Codes are remapped to the levels that
// actually occur, so an absent level does not leave an unidentified cut.
type problem struct {
	X      [][]float64
	y      []int
	nBeta  int
	nCuts  int
	levels []string
}

// Fit estimates the model by BFGS and derives standard errors from the
// inverse Hessian of the negative log-likelihood.
func (m *OrderedLogit) Fit(X [][]float64, y []int) (*Summary, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("empty data")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("X and y must have same number of samples")
	}
	for i, row := range X {
		if len(row) != len(m.Features) {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), len(m.Features))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("row %d: non-finite value in column '%s'", i, m.Features[j])
			}
		}
	}

	p, err := m.newProblem(X, y)
	if err != nil {
		return nil, err
	}
	n := float64(len(X))

	objective := optimize.Problem{
		Func: func(theta []float64) float64 {
			return -p.logLikelihood(theta) / n
		},
		Grad: func(grad, theta []float64) {
			p.negGradient(grad, theta)
			for i := range grad {
				grad[i] /= n
			}
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   m.MaxIterations,
		GradientThreshold: 1e-6,
	}

	result, err := optimize.Minimize(objective, p.startParams(), settings, &optimize.BFGS{})
	if result == nil {
		return nil, fmt.Errorf("optimisation failed: %w", err)
	}
	converged := err == nil && result.Status != optimize.IterationLimit
	if !converged {
		m.log.Warn("Ordered logit did not converge",
			logger.String("status", result.Status.String()),
			logger.Int("iterations", result.MajorIterations))
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, fmt.Errorf("optimisation diverged: status %s", result.Status)
	}

	params := append([]float64(nil), result.X...)
	ll := p.logLikelihood(params)

	stdErr := p.standardErrors(params)
	if stdErr == nil {
		m.log.Warn("Hessian is not positive definite, standard errors unavailable")
	}

	return m.summarise(p, params, stdErr, ll, converged, result), nil
}

func (m *OrderedLogit) newProblem(X [][]float64, y []int) (*problem, error) {
	present := make([]bool, len(m.Levels))
	for i, code := range y {
		if code < 0 || code >= len(m.Levels) {
			return nil, fmt.Errorf("row %d: level code %d out of range", i, code)
		}
		present[code] = true
	}

	remap := make([]int, len(m.Levels))
	var levels []string
	for code, ok := range present {
		remap[code] = len(levels)
		if ok {
			levels = append(levels, m.Levels[code])
		}
	}
	if len(levels) < 2 {
		return nil, fmt.Errorf("need at least 2 observed levels, got %d", len(levels))
	}

	codes := make([]int, len(y))
	for i, code := range y {
		codes[i] = remap[code]
	}

	return &problem{
		X:      X,
		y:      codes,
		nBeta:  len(m.Features),
		nCuts:  len(levels) - 1,
		levels: levels,
	}, nil
}

// cutpoints converts threshold parameters into increasing cut points
func (p *problem) cutpoints(theta []float64) []float64 {
	th := theta[p.nBeta:]
	cuts := make([]float64, p.nCuts)
	cuts[0] = th[0]
	for j := 1; j < p.nCuts; j++ {
		cuts[j] = cuts[j-1] + math.Exp(th[j])
	}
	return cuts
}

// bounds returns the standardised interval (lower, upper) of observation i
func (p *problem) bounds(cuts []float64, i int, eta float64) (float64, float64) {
	k := p.y[i]
	lower, upper := math.Inf(-1), math.Inf(1)
	if k > 0 {
		lower = cuts[k-1] - eta
	}
	if k < p.nCuts {
		upper = cuts[k] - eta
	}
	return lower, upper
}

func (p *problem) eta(theta []float64, i int) float64 {
	s := 0.0
	for j, v := range p.X[i] {
		s += theta[j] * v
	}
	return s
}

func (p *problem) logLikelihood(theta []float64) float64 {
	cuts := p.cutpoints(theta)
	ll := 0.0
	for i := range p.X {
		lower, upper := p.bounds(cuts, i, p.eta(theta, i))
		ll += math.Log(math.Max(logistic(upper)-logistic(lower), minProb))
	}
	return ll
}

// negGradient writes the gradient of the negative log-likelihood
func (p *problem) negGradient(grad, theta []float64) {
	for i := range grad {
		grad[i] = 0
	}
	cuts := p.cutpoints(theta)
	dCut := make([]float64, p.nCuts)

	for i, row := range p.X {
		k := p.y[i]
		lower, upper := p.bounds(cuts, i, p.eta(theta, i))
		prob := math.Max(logistic(upper)-logistic(lower), minProb)
		fu, fl := density(upper), density(lower)

		dEta := -(fu - fl) / prob
		for j, v := range row {
			grad[j] -= dEta * v
		}
		if k < p.nCuts {
			dCut[k] += fu / prob
		}
		if k > 0 {
			dCut[k-1] -= fl / prob
		}
	}

	// chain rule through cut_j = theta_0 + sum_{m=1..j} exp(theta_m)
	th := theta[p.nBeta:]
	for m := 0; m < p.nCuts; m++ {
		tail := 0.0
		for j := m; j < p.nCuts; j++ {
			tail += dCut[j]
		}
		if m > 0 {
			tail *= math.Exp(th[m])
		}
		grad[p.nBeta+m] = -tail
	}
}

// startParams places cuts at the logits of the cumulative level frequencies
func (p *problem) startParams() []float64 {
	theta := make([]float64, p.nBeta+p.nCuts)
	counts := make([]float64, p.nCuts+1)
	for _, k := range p.y {
		counts[k]++
	}
	n := float64(len(p.y))
	cum := 0.0
	prev := 0.0
	for j := 0; j < p.nCuts; j++ {
		cum += counts[j]
		cut := math.Log(cum / (n - cum))
		if j == 0 {
			theta[p.nBeta] = cut
		} else {
			theta[p.nBeta+j] = math.Log(cut - prev)
		}
		prev = cut
	}
	return theta
}

// standardErrors inverts the Hessian of the negative log-likelihood. The
// Hessian is the central-difference Jacobian of the analytic gradient. It
// returns nil when the Hessian is not positive definite.
func (p *problem) standardErrors(theta []float64) []float64 {
	dim := len(theta)
	jac := mat.NewDense(dim, dim, nil)
	fd.Jacobian(jac, p.negGradient, theta, &fd.JacobianSettings{Formula: fd.Central})

	hess := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			hess.SetSym(i, j, (jac.At(i, j)+jac.At(j, i))/2)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(hess); !ok {
		return nil
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil
	}
	se := make([]float64, dim)
	for i := range se {
		se[i] = math.Sqrt(cov.At(i, i))
	}
	return se
}

func (m *OrderedLogit) summarise(p *problem, params, stdErr []float64, ll float64, converged bool, result *optimize.Result) *Summary {
	names := append([]string(nil), m.Features...)
	for j := 0; j < p.nCuts; j++ {
		names = append(names, p.levels[j]+"/"+p.levels[j+1])
	}

	crit := distuv.UnitNormal.Quantile(0.975)
	coefs := make([]Coefficient, len(params))
	for i, est := range params {
		c := Coefficient{
			Name:     names[i],
			Estimate: est,
			StdErr:   math.NaN(),
			Z:        math.NaN(),
			PValue:   math.NaN(),
			Lower:    math.NaN(),
			Upper:    math.NaN(),
		}
		if stdErr != nil && stdErr[i] > 0 {
			c.StdErr = stdErr[i]
			c.Z = est / c.StdErr
			c.PValue = 2 * distuv.UnitNormal.Survival(math.Abs(c.Z))
			c.Lower = est - crit*c.StdErr
			c.Upper = est + crit*c.StdErr
		}
		coefs[i] = c
	}

	n := len(p.y)
	k := float64(len(params))
	return &Summary{
		Coefficients:  coefs,
		Cutpoints:     p.cutpoints(params),
		LogLikelihood: ll,
		AIC:           -2*ll + 2*k,
		BIC:           -2*ll + k*math.Log(float64(n)),
		NumObs:        n,
		DFModel:       p.nBeta,
		DFResid:       n - len(params),
		Converged:     converged,
		Iterations:    result.MajorIterations,
		Status:        result.Status.String(),
	}
}

func logistic(z float64) float64 {
	switch {
	case math.IsInf(z, 1):
		return 1
	case math.IsInf(z, -1):
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

// density is the logistic pdf, zero at the infinite ends
func density(z float64) float64 {
	if math.IsInf(z, 0) {
		return 0
	}
	f := logistic(z)
	return f * (1 - f)
}
