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

package rem

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rem/internal/hash"
	"github.com/spatialmodel/rem/irf"
)

// Engine computes climate metrics from reference data. All methods are
// safe for concurrent use; results depend only on the arguments and the
// reference data.
type Engine struct {
	ref   *ReferenceData
	onset Onset

	// Log receives debugging information. The default is
	// logrus.StandardLogger().
	Log logrus.FieldLogger

	// CacheSize is the number of resolved parameter sets to keep in memory.
	CacheSize int

	models map[string]bool

	paramCache *requestcache.Cache
	paramInit  sync.Once
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOnset sets the step-interpolation convention used for emission
// scenarios. The default is OnsetAtYear.
func WithOnset(o Onset) EngineOption {
	return func(e *Engine) { e.onset = o }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) EngineOption {
	return func(e *Engine) { e.Log = l }
}

// WithCacheSize sets the number of resolved parameter sets to keep in
// memory.
func WithCacheSize(n int) EngineOption {
	return func(e *Engine) { e.CacheSize = n }
}

// NewEngine creates a metrics engine that uses the given reference data.
// ref must not be modified afterwards.
func NewEngine(ref *ReferenceData, opts ...EngineOption) (*Engine, error) {
	if ref == nil {
		return nil, fmt.Errorf("rem: reference data must not be nil")
	}
	e := &Engine{
		ref:       ref,
		Log:       logrus.StandardLogger(),
		CacheSize: 1000,
		models:    make(map[string]bool),
	}
	for _, o := range opts {
		o(e)
	}
	if e.onset != OnsetAtYear && e.onset != OnsetFollowingYear {
		return nil, &InvalidParameterError{Parameter: "Onset", Reason: e.onset.String()}
	}
	for _, en := range ref.Coefficients.Entries() {
		for _, c := range []*Coefficient{en.Temperature, en.Precipitation} {
			if c != nil {
				for m := range c.PerModel {
					e.models[m] = true
				}
			}
		}
	}
	for _, s := range ref.Species {
		for _, k := range s.Scalings {
			f, _ := ref.Scalings.Lookup(s.Pollutant, k)
			for m := range f.PerModel {
				e.models[m] = true
			}
		}
	}
	return e, nil
}

// Reference returns the engine's reference data.
func (e *Engine) Reference() *ReferenceData { return e.ref }

// Onset returns the step-interpolation convention.
func (e *Engine) Onset() Onset { return e.onset }

// PulsePotential returns the response of quantity q in region rr at
// horizon h years after a 1 kg pulse emission of p in region er
// (ARTP or ARPP).
func (e *Engine) PulsePotential(p Pollutant, er, rr string, h float64, q Quantity) (*MetricResult, error) {
	return e.Evaluate(PotentialQuery{Pollutant: p, EmissionRegion: er, ResponseRegion: rr,
		Horizon: h, Metric: MetricFor(q, false)}, Assumptions{})
}

// IntegratedPotential returns the response of quantity q in region rr to a
// 1 kg pulse emission of p in region er, integrated from the time of the
// pulse to horizon h (iARTP or iARPP).
func (e *Engine) IntegratedPotential(p Pollutant, er, rr string, h float64, q Quantity) (*MetricResult, error) {
	return e.Evaluate(PotentialQuery{Pollutant: p, EmissionRegion: er, ResponseRegion: rr,
		Horizon: h, Metric: MetricFor(q, true)}, Assumptions{})
}

// RegionalTimeSeries returns the response of quantity q in region rr to
// the emission scenario s in every year of the scenario.
func (e *Engine) RegionalTimeSeries(s *EmissionScenario, rr string, q Quantity) (*MetricResult, error) {
	return e.Evaluate(SeriesQuery{Scenario: s, ResponseRegion: rr, Quantity: q}, Assumptions{})
}

// Evaluate computes the result of query q under assumptions a.
func (e *Engine) Evaluate(q Query, a Assumptions) (*MetricResult, error) {
	if a.Model != "" && !e.models[a.Model] {
		return nil, &InvalidParameterError{Parameter: "Model", Reason: fmt.Sprintf("unknown model %q", a.Model)}
	}
	if math.IsNaN(a.LifetimeSigma) || math.IsInf(a.LifetimeSigma, 0) {
		return nil, &InvalidParameterError{Parameter: "LifetimeSigma", Reason: "must be finite"}
	}
	if a.LifetimeSigma != 0 {
		ok := false
		for _, src := range q.Sources() {
			if src.Pollutant.Kernel() == LifetimeKernel {
				ok = true
			}
		}
		if !ok {
			return nil, &InvalidParameterError{Parameter: "LifetimeSigma",
				Reason: "no pollutant in the query has a lifetime-dependent response"}
		}
	}
	return q.evaluate(e, a)
}

// Evaluator returns a function that computes the result of q under
// the given assumptions.
func (e *Engine) Evaluator(q Query) func(Assumptions) (*MetricResult, error) {
	return func(a Assumptions) (*MetricResult, error) { return e.Evaluate(q, a) }
}

// EnsembleMembers returns the sorted names of the models the result of q
// can be computed for. These are the models with per-model coefficients
// or, for sources without them, the models with per-model scaling factors.
func (e *Engine) EnsembleMembers(q Query) ([]string, error) {
	rr, qty := q.target()
	members := make(map[string]bool)
	for _, src := range q.Sources() {
		entry, err := e.ref.Coefficients.Lookup(src.Pollutant, src.Region, rr)
		if err != nil {
			return nil, err
		}
		c, ok := entry.Coefficient(qty)
		if !ok {
			return nil, &MissingCoefficientError{Pollutant: src.Pollutant, EmissionRegion: src.Region,
				ResponseRegion: rr, Quantity: &qty}
		}
		if len(c.PerModel) > 0 {
			for m := range c.PerModel {
				members[m] = true
			}
			continue
		}
		s, err := e.ref.SpeciesOf(src.Pollutant)
		if err != nil {
			return nil, err
		}
		for _, k := range s.Scalings {
			f, err := e.ref.Scalings.Lookup(src.Pollutant, k)
			if err != nil {
				return nil, err
			}
			for m := range f.PerModel {
				members[m] = true
			}
		}
	}
	o := make([]string, 0, len(members))
	for m := range members {
		o = append(o, m)
	}
	sort.Strings(o)
	return o, nil
}

// RelativeStd returns the relative standard deviation of the result of a
// single-source query, combining in quadrature the relative spread of the
// response coefficient, the relative standard errors of the applicable
// scaling factors and, for precipitation, the relative uncertainty of the
// temperature feedback.
func (e *Engine) RelativeStd(q Query) (float64, error) {
	src := q.Sources()
	if len(src) != 1 {
		return math.NaN(), fmt.Errorf("rem: relative standard deviation requires a single-source query but have %d sources", len(src))
	}
	rr, qty := q.target()
	c, err := e.ref.Coefficients.Coefficient(src[0].Pollutant, src[0].Region, rr, qty)
	if err != nil {
		return math.NaN(), err
	}
	var v float64
	if c.Mean != 0 {
		v += (c.Std / c.Mean) * (c.Std / c.Mean)
	}
	s, err := e.ref.SpeciesOf(src[0].Pollutant)
	if err != nil {
		return math.NaN(), err
	}
	for _, k := range s.Scalings {
		f, err := e.ref.Scalings.Lookup(src[0].Pollutant, k)
		if err != nil {
			return math.NaN(), err
		}
		if f.Mean != 0 {
			v += (f.StdErr / f.Mean) * (f.StdErr / f.Mean)
		}
	}
	if qty == Precipitation && s.TemperatureFeedback != 0 {
		k := s.TemperatureFeedbackStd / s.TemperatureFeedback
		v += k * k
	}
	return math.Sqrt(v), nil
}

// paramRequest identifies a set of resolved parameters.
type paramRequest struct {
	Pollutant      Pollutant
	EmissionRegion string
	ResponseRegion string
	Quantity       Quantity
	Assumptions    Assumptions
}

// term is one additive part of the response to a 1 kg pulse.
type term struct {
	name string
	k    irf.Kernel
}

// parameters are the inputs to a single-source computation.
type parameters struct {
	// terms sum to the response to a 1 kg pulse, including the response
	// coefficient and scaling.
	terms    []term
	label    string
	scalings []ScalingKind
}

// response returns the response t years after a 1 kg pulse.
func (p *parameters) response(t float64) float64 {
	var v float64
	for _, tm := range p.terms {
		v += tm.k.Response(t)
	}
	return v
}

// parameters returns the resolved parameters for r, using a cache.
func (e *Engine) parameters(r paramRequest) (*parameters, error) {
	e.paramInit.Do(func() {
		e.paramCache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return e.resolve(request.(paramRequest))
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(e.CacheSize))
	})
	r.EmissionRegion = e.ref.Regions.Canonical(r.EmissionRegion)
	r.ResponseRegion = e.ref.Regions.Canonical(r.ResponseRegion)
	if r.Pollutant.Kernel() == CarbonCycleKernel {
		// Evaluate rejects lifetime perturbations of queries without a
		// lifetime-limited pollutant; for mixed queries CO2 is unperturbed.
		r.Assumptions.LifetimeSigma = 0
	}
	req := e.paramCache.NewRequest(context.TODO(), r, hash.Hash(r))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(*parameters), nil
}

// resolve looks up the coefficient and scaling factors for r and builds the
// response to a 1 kg pulse: the burden kernel convolved with the climate
// response for temperature and for the slow part of the precipitation
// response, and the burden kernel itself for the fast part.
func (e *Engine) resolve(r paramRequest) (*parameters, error) {
	e.Log.WithFields(logrus.Fields{
		"pollutant":       r.Pollutant,
		"emission_region": r.EmissionRegion,
		"response_region": r.ResponseRegion,
		"quantity":        r.Quantity,
		"model":           r.Assumptions.Model,
		"lifetime_sigma":  r.Assumptions.LifetimeSigma,
	}).Debug("resolving parameters")

	s, err := e.ref.SpeciesOf(r.Pollutant)
	if err != nil {
		return nil, err
	}
	entry, err := e.ref.Coefficients.Lookup(r.Pollutant, r.EmissionRegion, r.ResponseRegion)
	if err != nil {
		return nil, err
	}
	c, ok := entry.Coefficient(r.Quantity)
	if !ok {
		q := r.Quantity
		return nil, &MissingCoefficientError{Pollutant: r.Pollutant, EmissionRegion: r.EmissionRegion,
			ResponseRegion: r.ResponseRegion, Quantity: &q}
	}
	ratio := c.Value(r.Assumptions.Model)
	p := new(parameters)
	erf, sens := 1., 1.
	for _, k := range s.Scalings {
		f, err := e.ref.Scalings.Lookup(r.Pollutant, k)
		if err != nil {
			return nil, err
		}
		if k == ClimateSensitivity {
			sens *= f.Value(r.Assumptions.Model)
		} else {
			erf *= f.Value(r.Assumptions.Model)
		}
		p.scalings = append(p.scalings, k)
	}

	var burden irf.Kernel
	switch r.Pollutant.Kernel() {
	case CarbonCycleKernel:
		burden = e.ref.Kernels.CarbonCycle
	case LifetimeKernel:
		l := s.Lifetime + r.Assumptions.LifetimeSigma*s.LifetimeStd
		if !(l > 0) {
			return nil, &InvalidParameterError{Parameter: r.Pollutant.String() + ".Lifetime",
				Reason: fmt.Sprintf("perturbed lifetime %g years is not positive", l)}
		}
		burden = irf.Decay(l)
	default:
		return nil, &InvalidParameterError{Parameter: r.Pollutant.String(), Reason: "no impulse response kernel"}
	}

	climate := e.ref.Kernels.Climate
	modes := climate.ConvolveModes(burden)
	p.label = climate.Label + "*" + burden.Label
	// Regional radiative efficiency with both corrections [W m⁻² kg⁻¹].
	forcing := ratio * s.RadiativeEfficiency * erf * sens
	switch r.Quantity {
	case Temperature:
		for j, m := range modes {
			p.terms = append(p.terms, term{
				name: fmt.Sprintf("%g yr", climate.Modes[j].Tau),
				k:    m.Scale(forcing),
			})
		}
	case Precipitation:
		cf := e.ref.LatentHeatConversion
		p.terms = []term{
			{name: "slow", k: irf.Sum("slow", modes...).Scale(cf * s.TemperatureFeedback * forcing)},
			{name: "fast", k: burden.Scale(-cf * ratio * s.FastPrecipitation * s.AtmosphericEfficiency * erf)},
		}
	default:
		return nil, &InvalidParameterError{Parameter: "Quantity", Reason: r.Quantity.String()}
	}
	return p, nil
}

func (e *Engine) provenance(sources []Source, rr string, q Quantity, a Assumptions) Provenance {
	return Provenance{
		Sources:        sources,
		ResponseRegion: e.ref.Regions.Canonical(rr),
		Quantity:       q,
		Scalings:       make(map[Pollutant][]ScalingKind),
		Kernels:        make(map[Pollutant]string),
		Assumptions:    a,
		Onset:          e.onset,
	}
}

// potential computes a pulse or integrated potential.
func (e *Engine) potential(q PotentialQuery, a Assumptions) (*MetricResult, error) {
	if !(q.Horizon > 0) || math.IsInf(q.Horizon, 0) {
		return nil, &InvalidHorizonError{Horizon: q.Horizon}
	}
	qty := q.Metric.Quantity()
	p, err := e.parameters(paramRequest{
		Pollutant:      q.Pollutant,
		EmissionRegion: q.EmissionRegion,
		ResponseRegion: q.ResponseRegion,
		Quantity:       qty,
		Assumptions:    a,
	})
	if err != nil {
		return nil, err
	}
	r := &MetricResult{
		Metric:     q.Metric,
		Unit:       q.Metric.Unit(),
		Provenance: e.provenance(q.Sources(), q.ResponseRegion, qty, a),
	}
	r.Provenance.Horizon = q.Horizon
	r.Provenance.Sources[0].Region = e.ref.Regions.Canonical(q.EmissionRegion)
	r.Provenance.Scalings[q.Pollutant] = p.scalings
	r.Provenance.Kernels[q.Pollutant] = p.label
	r.Components = make([]Contribution, len(p.terms))
	for i, tm := range p.terms {
		v := tm.k.Response(q.Horizon)
		if q.Metric.Integrated() {
			v = tm.k.Integral(q.Horizon)
		}
		r.Components[i] = Contribution{Name: tm.name, Value: v}
		r.Value += v
	}
	return r, nil
}

// series convolves the annual emission rates of each source with its
// response to a 1 kg pulse:
//
//	value(y) = Σ_{y'=start}^{y} rate(y')·R(y - y')
func (e *Engine) series(q SeriesQuery, a Assumptions) (*MetricResult, error) {
	s := q.Scenario
	if s == nil {
		return nil, &InvalidScenarioError{Reason: "no scenario"}
	}
	n := s.End() - s.Start() + 1
	out := make([]float64, n)
	r := &MetricResult{
		Unit:       seriesUnit(q.Quantity),
		Provenance: e.provenance(s.Sources(), q.ResponseRegion, q.Quantity, a),
	}
	resp := make([]float64, n)
	for _, src := range s.Sources() {
		p, err := e.parameters(paramRequest{
			Pollutant:      src.Pollutant,
			EmissionRegion: src.Region,
			ResponseRegion: q.ResponseRegion,
			Quantity:       q.Quantity,
			Assumptions:    a,
		})
		if err != nil {
			return nil, err
		}
		r.Provenance.Scalings[src.Pollutant] = p.scalings
		r.Provenance.Kernels[src.Pollutant] = p.label
		for d := range resp {
			resp[d] = p.response(float64(d))
		}
		rates := s.AnnualRates(src, e.onset)
		for i := range out {
			var v float64
			for j := 0; j <= i; j++ {
				v += rates[j] * resp[i-j]
			}
			out[i] += v
		}
	}
	r.Series = make([]Point, n)
	for i, v := range out {
		r.Series[i] = Point{Year: s.Start() + i, Value: v}
	}
	return r, nil
}
