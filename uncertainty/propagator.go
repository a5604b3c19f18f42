/*
Copyright © 2019 the REM authors.
This file is part of REM.

REM is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

REM is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with REM.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package uncertainty estimates the uncertainty of regional climate metrics
// by recomputing them under perturbed parameters.
package uncertainty

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rem"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Method is an uncertainty propagation method.
type Method int

const (
	// MethodEnsemble recomputes the metric with the values of each model
	// in the multi-model ensemble.
	MethodEnsemble Method = iota

	// MethodLifetime recomputes the metric with the atmospheric lifetime
	// offset by plus and minus one standard deviation.
	MethodLifetime

	// MethodQuadrature combines the relative spread of the response
	// coefficients and scaling factors in quadrature.
	MethodQuadrature
)

var methodNames = []string{MethodEnsemble: "ensemble", MethodLifetime: "lifetime", MethodQuadrature: "quadrature"}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod returns the method with the given name.
func ParseMethod(s string) (Method, error) {
	for i, n := range methodNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Method(i), nil
		}
	}
	return -1, fmt.Errorf("uncertainty: invalid method %q; must be one of %v", s, methodNames)
}

// UncertaintyResult is a metric together with its uncertainty range.
type UncertaintyResult struct {
	// Central is the central estimate.
	Central *rem.MetricResult

	// Lower and Upper bound the range. For MethodLifetime they are the
	// results with the lifetime decreased and increased by one standard
	// deviation, so Lower > Upper where the response is negative. For the
	// other methods Lower ≤ Upper.
	Lower, Upper *rem.MetricResult

	Method Method

	// Members label the recomputations in Results: model names,
	// lifetime offsets, or emission sources.
	Members []string
	Results []*rem.MetricResult
}

// Propagator computes uncertainty ranges by recomputing metrics with an
// Engine. It is safe for concurrent use.
type Propagator struct {
	engine *rem.Engine

	// lo and hi are the percentiles bounding an ensemble; when both are
	// zero the ensemble minimum and maximum are used.
	lo, hi float64

	sequential bool

	// Log receives information about each recomputation.
	Log logrus.FieldLogger
}

// Option configures a Propagator.
type Option func(*Propagator)

// Percentiles sets the percentiles (0 ≤ lo < hi ≤ 1) that bound ensemble
// results instead of the ensemble minimum and maximum.
func Percentiles(lo, hi float64) Option {
	return func(p *Propagator) { p.lo, p.hi = lo, hi }
}

// Sequential disables parallel recomputation.
func Sequential() Option {
	return func(p *Propagator) { p.sequential = true }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Propagator) { p.Log = l }
}

// New returns a propagator that recomputes metrics with e.
func New(e *rem.Engine, opts ...Option) (*Propagator, error) {
	if e == nil {
		return nil, fmt.Errorf("uncertainty: engine must not be nil")
	}
	p := &Propagator{engine: e, Log: logrus.StandardLogger()}
	for _, o := range opts {
		o(p)
	}
	if p.lo != 0 || p.hi != 0 {
		if !(p.lo >= 0 && p.lo < p.hi && p.hi <= 1) {
			return nil, &rem.InvalidParameterError{Parameter: "Percentiles",
				Reason: fmt.Sprintf("[%g, %g] must satisfy 0 ≤ lo < hi ≤ 1", p.lo, p.hi)}
		}
	}
	return p, nil
}

// Propagate computes the uncertainty of q with method m.
func (p *Propagator) Propagate(q rem.Query, m Method) (*UncertaintyResult, error) {
	switch m {
	case MethodEnsemble:
		return p.Ensemble(q)
	case MethodLifetime:
		return p.Lifetime(q)
	case MethodQuadrature:
		return p.Quadrature(q)
	}
	return nil, &rem.InvalidParameterError{Parameter: "Method", Reason: m.String()}
}

// evaluateAll computes q under each of the given assumptions. Each
// recomputation writes only its own slot of the result.
func (p *Propagator) evaluateAll(q rem.Query, as []rem.Assumptions) ([]*rem.MetricResult, error) {
	o := make([]*rem.MetricResult, len(as))
	f := p.engine.Evaluator(q)
	var g errgroup.Group
	if p.sequential {
		g.SetLimit(1)
	} else {
		g.SetLimit(runtime.GOMAXPROCS(-1))
	}
	for i, a := range as {
		i, a := i, a
		g.Go(func() error {
			p.Log.WithFields(logrus.Fields{
				"model":          a.Model,
				"lifetime_sigma": a.LifetimeSigma,
			}).Debug("recomputing metric")
			r, err := f(a)
			if err != nil {
				return err
			}
			o[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return o, nil
}

// Ensemble recomputes q once for each model that provides values for it.
// The central estimate is the mean across models; the bounds are the
// ensemble minimum and maximum, or the configured percentiles.
func (p *Propagator) Ensemble(q rem.Query) (*UncertaintyResult, error) {
	models, err := p.engine.EnsembleMembers(q)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, &rem.InvalidParameterError{Parameter: "Model", Reason: "no per-model values available"}
	}
	as := make([]rem.Assumptions, len(models))
	for i, m := range models {
		as[i] = rem.Assumptions{Model: m}
	}
	results, err := p.evaluateAll(q, as)
	if err != nil {
		return nil, err
	}
	values := make([][]float64, len(results))
	for i, r := range results {
		values[i] = r.Values()
	}
	n := len(values[0])
	central, lower, upper := make([]float64, n), make([]float64, n), make([]float64, n)
	x := make([]float64, len(results))
	for j := 0; j < n; j++ {
		for i, v := range values {
			x[i] = v[j]
		}
		central[j] = stat.Mean(x, nil)
		if p.lo == 0 && p.hi == 0 {
			lower[j], upper[j] = floats.Min(x), floats.Max(x)
			continue
		}
		sort.Float64s(x)
		lower[j] = stat.Quantile(p.lo, stat.Empirical, x, nil)
		upper[j] = stat.Quantile(p.hi, stat.Empirical, x, nil)
	}
	base := results[0]
	return &UncertaintyResult{
		Central: withAssumptions(base.WithValues(central), rem.Assumptions{}),
		Lower:   withAssumptions(base.WithValues(lower), rem.Assumptions{}),
		Upper:   withAssumptions(base.WithValues(upper), rem.Assumptions{}),
		Method:  MethodEnsemble,
		Members: models,
		Results: results,
	}, nil
}

// Lifetime recomputes q with the nominal atmospheric lifetimes and with the
// lifetimes decreased and increased by one standard deviation. Queries
// that only involve CO2 fail with *rem.InvalidParameterError.
func (p *Propagator) Lifetime(q rem.Query) (*UncertaintyResult, error) {
	as := []rem.Assumptions{{LifetimeSigma: -1}, {}, {LifetimeSigma: 1}}
	results, err := p.evaluateAll(q, as)
	if err != nil {
		return nil, err
	}
	return &UncertaintyResult{
		Lower:   results[0],
		Central: results[1],
		Upper:   results[2],
		Method:  MethodLifetime,
		Members: []string{"-1σ", "nominal", "+1σ"},
		Results: results,
	}, nil
}

// Quadrature estimates the standard deviation of each emission source's
// contribution to q from the relative spread of its response coefficient
// and the relative standard errors of its scaling factors, combined in
// quadrature. Sources are treated as independent. The bounds are the
// central estimate minus and plus one standard deviation.
func (p *Propagator) Quadrature(q rem.Query) (*UncertaintyResult, error) {
	central, err := p.engine.Evaluate(q, rem.Assumptions{})
	if err != nil {
		return nil, err
	}
	parts, err := q.Split()
	if err != nil {
		return nil, err
	}
	n := len(central.Values())
	variance := make([]float64, n)
	o := &UncertaintyResult{Central: central, Method: MethodQuadrature}
	for _, part := range parts {
		r, err := p.engine.Evaluate(part, rem.Assumptions{})
		if err != nil {
			return nil, err
		}
		rel, err := p.engine.RelativeStd(part)
		if err != nil {
			return nil, err
		}
		for i, v := range r.Values() {
			s := rel * v
			variance[i] += s * s
		}
		src := part.Sources()[0]
		o.Members = append(o.Members, src.String())
		o.Results = append(o.Results, r)
	}
	lower, upper := make([]float64, n), make([]float64, n)
	for i, v := range central.Values() {
		s := math.Sqrt(variance[i])
		lower[i], upper[i] = v-s, v+s
	}
	o.Lower = central.WithValues(lower)
	o.Upper = central.WithValues(upper)
	return o, nil
}

func withAssumptions(r *rem.MetricResult, a rem.Assumptions) *rem.MetricResult {
	r.Provenance.Assumptions = a
	return r
}
