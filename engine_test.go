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
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/spatialmodel/rem/irf"
)

// closedForm returns the slow and fast parts of a potential from the
// analytical expressions for the temperature response to a burden that
// decays exponentially (or, for CO2, following the carbon cycle) convolved
// with the two-mode climate response of Boucher and Reddy (2008). The fast
// part is zero for temperature.
func closedForm(t *testing.T, ref *ReferenceData, p Pollutant, er, rr string, q Quantity, h float64, integrated bool, sigma float64) (slow, fast float64) {
	s, err := ref.SpeciesOf(p)
	if err != nil {
		t.Fatal(err)
	}
	c, err := ref.Coefficients.Coefficient(p, er, rr, q)
	if err != nil {
		t.Fatal(err)
	}
	erf, sens := 1., 1.
	for _, k := range s.Scalings {
		f, err := ref.Scalings.Lookup(p, k)
		if err != nil {
			t.Fatal(err)
		}
		if k == ClimateSensitivity {
			sens *= f.Mean
		} else {
			erf *= f.Mean
		}
	}
	cs := []float64{0.631 * sens, 0.429 * sens}
	d := []float64{8.4, 409.5}
	a0, a, tau := 0., []float64{1}, []float64{s.Lifetime + sigma*s.LifetimeStd}
	if p == CO2 {
		a0, a, tau = 0.2173, []float64{0.2240, 0.2824, 0.2763}, []float64{394.4, 36.54, 4.304}
	}
	var atp, burden float64
	for j := range d {
		if integrated {
			atp += a0 * cs[j] * (h - d[j]*(1-math.Exp(-h/d[j])))
		} else {
			atp += a0 * cs[j] * (1 - math.Exp(-h/d[j]))
		}
		for i := range a {
			x := a[i] * tau[i] * cs[j] / (tau[i] - d[j])
			if integrated {
				atp += x * (tau[i]*(1-math.Exp(-h/tau[i])) - d[j]*(1-math.Exp(-h/d[j])))
			} else {
				atp += x * (math.Exp(-h/tau[i]) - math.Exp(-h/d[j]))
			}
		}
	}
	if integrated {
		burden = a0 * h
	} else {
		burden = a0
	}
	for i := range a {
		if integrated {
			burden += a[i] * tau[i] * (1 - math.Exp(-h/tau[i]))
		} else {
			burden += a[i] * math.Exp(-h/tau[i])
		}
	}
	re := s.RadiativeEfficiency * erf
	if q == Temperature {
		return c.Mean * re * atp, 0
	}
	cf := ref.LatentHeatConversion
	return cf * s.TemperatureFeedback * re * atp * c.Mean, -cf * s.FastPrecipitation * s.AtmosphericEfficiency * erf * burden * c.Mean
}

// pulse returns the response h years after a 1 kg pulse.
func pulse(t *testing.T, ref *ReferenceData, p Pollutant, er, rr string, q Quantity, h float64) float64 {
	slow, fast := closedForm(t, ref, p, er, rr, q, h, false, 0)
	return slow + fast
}

func TestPotentials(t *testing.T) {
	e := testEngine(t)
	ref := e.Reference()
	var tests = []struct {
		p      Pollutant
		er, rr string
		q      Quantity
	}{
		{p: SO2, er: "US", rr: "Europe", q: Temperature},
		{p: SO2, er: "EastAsia", rr: "Sahel", q: Precipitation},
		{p: BC, er: "Asia", rr: "NHHL", q: Temperature},
		{p: BC, er: "Global", rr: "India", q: Precipitation},
		{p: CH4, er: "Global", rr: "Tropics", q: Temperature},
		{p: CH4, er: "Global", rr: "Global", q: Precipitation},
		{p: CO2, er: "Global", rr: "Global", q: Temperature},
		{p: CO2, er: "Global", rr: "SHHL", q: Precipitation},
	}
	for _, test := range tests {
		for _, h := range []float64{1, 5, 20, 100, 500} {
			t.Run(fmt.Sprintf("%s_%s_%s_%s_%g", test.p, test.er, test.rr, test.q, h), func(t *testing.T) {
				for _, integrated := range []bool{false, true} {
					slow, fast := closedForm(t, ref, test.p, test.er, test.rr, test.q, h, integrated, 0)
					r, err := e.Evaluate(PotentialQuery{Pollutant: test.p, EmissionRegion: test.er,
						ResponseRegion: test.rr, Horizon: h, Metric: MetricFor(test.q, integrated)}, Assumptions{})
					if err != nil {
						t.Fatal(err)
					}
					if different(r.Value, slow+fast, 1e-9) {
						t.Errorf("%s: %g != %g", r.Metric, r.Value, slow+fast)
					}
					var sum float64
					for _, cc := range r.Components {
						sum += cc.Value
					}
					if different(sum, r.Value, 1e-12) {
						t.Errorf("%s: components sum to %g, not %g", r.Metric, sum, r.Value)
					}
					if test.q == Precipitation {
						if len(r.Components) != 2 || r.Components[0].Name != "slow" || r.Components[1].Name != "fast" {
							t.Fatalf("%s: components %+v", r.Metric, r.Components)
						}
						if different(r.Components[0].Value, slow, 1e-9) || different(r.Components[1].Value, fast, 1e-9) {
							t.Errorf("%s: slow %g, fast %g; want %g, %g", r.Metric, r.Components[0].Value,
								r.Components[1].Value, slow, fast)
						}
					} else if len(r.Components) != 2 {
						t.Errorf("%s: %d climate modes", r.Metric, len(r.Components))
					}
					if r.Provenance.Horizon != h || !strings.Contains(r.Provenance.Kernels[test.p], ref.Kernels.Climate.Label) {
						t.Errorf("provenance: %+v", r.Provenance)
					}
				}
			})
		}
	}
}

// Published values of the potentials, computed with the same reference
// data from the analytical expressions.
func TestPotentialValues(t *testing.T) {
	e := testEngine(t)
	var tests = []struct {
		p                        Pollutant
		er, rr                   string
		h                        float64
		artp, iartp, arpp, iarpp float64
	}{
		{SO2, "US", "Europe", 20, -5.083443775e-16, -3.78217329e-14, -1.555180345e-17, -1.057271747e-15},
		{SO2, "US", "Europe", 100, -5.238843512e-17, -4.618248025e-14, -1.60272186e-18, -1.313052484e-15},
		{CH4, "Global", "Global", 20, 2.494942762e-14, 5.28145845e-13, 1.606000482e-15, 2.654255633e-14},
		{CH4, "Global", "Global", 100, 1.263065956e-15, 1.006617203e-12, 9.406671807e-17, 5.911061838e-14},
		{CO2, "Global", "Global", 20, 6.873462728e-16, 1.053596515e-14, 2.287038961e-17, 1.063124914e-16},
		{CO2, "Global", "Global", 100, 5.494531928e-16, 5.916698633e-14, 2.149897731e-17, 1.919333416e-15},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s_%s_%s_%g", test.p, test.er, test.rr, test.h), func(t *testing.T) {
			for i, m := range Metrics {
				want := []float64{test.artp, test.iartp, test.arpp, test.iarpp}[i]
				r, err := e.Evaluate(PotentialQuery{Pollutant: test.p, EmissionRegion: test.er,
					ResponseRegion: test.rr, Horizon: test.h, Metric: m}, Assumptions{})
				if err != nil {
					t.Fatal(err)
				}
				if different(r.Value, want, 1e-9) {
					t.Errorf("%s = %.10g, want %.10g", m, r.Value, want)
				}
			}
		})
	}
}

func TestInvalidHorizon(t *testing.T) {
	e := testEngine(t)
	for _, h := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		for _, f := range []func(Pollutant, string, string, float64, Quantity) (*MetricResult, error){
			e.PulsePotential, e.IntegratedPotential,
		} {
			_, err := f(CH4, "Global", "Global", h, Temperature)
			var herr *InvalidHorizonError
			if !errors.As(err, &herr) {
				t.Errorf("horizon %g: want *InvalidHorizonError, have %v", h, err)
			}
		}
	}
}

func TestMissingCoefficient(t *testing.T) {
	e := testEngine(t)
	if e.Reference().Coefficients.Has(SO2, "India", "Sahel") {
		t.Skip("SO2 India→Sahel is supported")
	}
	for _, f := range []func(Pollutant, string, string, float64, Quantity) (*MetricResult, error){
		e.PulsePotential, e.IntegratedPotential,
	} {
		r, err := f(SO2, "India", "Sahel", 20, Temperature)
		var merr *MissingCoefficientError
		if !errors.As(err, &merr) {
			t.Fatalf("want *MissingCoefficientError, have %v", err)
		}
		if r != nil {
			t.Error("partial result returned")
		}
		if merr.Pollutant != SO2 || merr.EmissionRegion != "India" || merr.ResponseRegion != "Sahel" {
			t.Errorf("error fields: %+v", merr)
		}
	}
	s, err := NewEmissionScenario(Emission{Year: 2000, Region: "India", Pollutant: SO2, Rate: 1})
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.RegionalTimeSeries(s, "Sahel", Precipitation)
	var merr *MissingCoefficientError
	if !errors.As(err, &merr) {
		t.Errorf("series: want *MissingCoefficientError, have %v", err)
	}
}

// Integrated temperature potentials grow in magnitude with the horizon and
// do not change sign. The slow and fast parts of the precipitation response
// each do the same, although their sum may change sign when they oppose.
func TestHorizonMonotonicity(t *testing.T) {
	e := testEngine(t)
	horizons := []float64{0.5, 1, 5, 10, 20, 50, 100, 200, 500}
	for _, entry := range e.Reference().Coefficients.Entries() {
		for _, q := range []Quantity{Temperature, Precipitation} {
			if _, ok := entry.Coefficient(q); !ok {
				continue
			}
			var prev []float64
			for i, h := range horizons {
				r, err := e.IntegratedPotential(entry.Pollutant, entry.EmissionRegion, entry.ResponseRegion, h, q)
				if err != nil {
					t.Fatal(err)
				}
				parts := []float64{r.Value}
				if q == Precipitation {
					parts = []float64{r.Components[0].Value, r.Components[1].Value}
				}
				for j, v := range parts {
					if prev == nil {
						continue
					}
					if math.Abs(v) < math.Abs(prev[j]) {
						t.Errorf("%s %s→%s %s[%d]: |I(%g)| = %g < |I(%g)| = %g", entry.Pollutant, entry.EmissionRegion,
							entry.ResponseRegion, q, j, h, v, horizons[i-1], prev[j])
					}
					if prev[j] != 0 && v != 0 && math.Signbit(prev[j]) != math.Signbit(v) {
						t.Errorf("%s %s→%s %s[%d]: sign change at %g", entry.Pollutant, entry.EmissionRegion, entry.ResponseRegion, q, j, h)
					}
				}
				prev = parts
			}
		}
	}
}

func TestCO2Kernel(t *testing.T) {
	e := testEngine(t)
	artp := func(h float64) float64 {
		r, err := e.PulsePotential(CO2, "Global", "Global", h, Temperature)
		if err != nil {
			t.Fatal(err)
		}
		if l := r.Provenance.Kernels[CO2]; !strings.Contains(l, irf.Joos2013.Label) {
			t.Errorf("CO2 uses kernel %q", l)
		}
		return r.Value
	}
	// The temperature response builds up from zero, peaks, and settles to
	// the response to the persistent airborne fraction.
	if r := artp(1) / artp(100); different(r, 0.2223, 1e-3) {
		t.Errorf("ARTP(1)/ARTP(100) = %.4f, want 0.2223", r)
	}
	if r := artp(20) / artp(100); different(r, 1.2510, 1e-3) {
		t.Errorf("ARTP(20)/ARTP(100) = %.4f, want 1.2510", r)
	}
	s, _ := e.Reference().SpeciesOf(CO2)
	persistent := s.RadiativeEfficiency * irf.Joos2013.Persistent * e.Reference().Kernels.Climate.Sensitivity()
	if v := artp(1e4); different(v, persistent, 1e-6) {
		t.Errorf("ARTP(∞) = %g, want %g", v, persistent)
	}

	q := PotentialQuery{Pollutant: CO2, EmissionRegion: "Global", ResponseRegion: "Global", Horizon: 100, Metric: ARTP}
	for _, sigma := range []float64{-1, 1} {
		_, err := e.Evaluate(q, Assumptions{LifetimeSigma: sigma})
		var perr *InvalidParameterError
		if !errors.As(err, &perr) {
			t.Errorf("σ = %g: want *InvalidParameterError, have %v", sigma, err)
		}
	}

	// CO2 in a scenario with a lifetime-limited pollutant is left unperturbed.
	sc, err := NewEmissionScenario(
		Emission{Year: 2000, Region: "Global", Pollutant: CO2, Rate: 1e12},
		Emission{Year: 2000, Region: "Global", Pollutant: CH4, Rate: 1e9},
	)
	if err != nil {
		t.Fatal(err)
	}
	sq := SeriesQuery{Scenario: sc, ResponseRegion: "Global", Quantity: Temperature}
	parts, err := sq.Split()
	if err != nil {
		t.Fatal(err)
	}
	co2Nominal, err := e.Evaluate(parts[1], Assumptions{})
	if err != nil {
		t.Fatal(err)
	}
	ch4Perturbed, err := e.Evaluate(parts[0], Assumptions{LifetimeSigma: 1})
	if err != nil {
		t.Fatal(err)
	}
	mixed, err := e.Evaluate(sq, Assumptions{LifetimeSigma: 1})
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range mixed.Series {
		if want := co2Nominal.Series[i].Value + ch4Perturbed.Series[i].Value; different(p.Value, want, 1e-12) {
			t.Errorf("year %d: %g != %g", p.Year, p.Value, want)
		}
	}
}

// A rate of 10 in year 0 and 0 in year 50 is held constant from year 0
// through year 49.
func TestStepInterpolation(t *testing.T) {
	e := testEngine(t)
	s, err := NewEmissionScenario(
		Emission{Year: 0, Region: "Global", Pollutant: BC, Rate: 10},
		Emission{Year: 50, Region: "Global", Pollutant: BC, Rate: 0},
	)
	if err != nil {
		t.Fatal(err)
	}
	s, err = s.WithEnd(100)
	if err != nil {
		t.Fatal(err)
	}
	r, err := e.RegionalTimeSeries(s, "Global", Temperature)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Series) != 101 || r.Series[0].Year != 0 || r.Series[100].Year != 100 {
		t.Fatalf("series covers %d years", len(r.Series))
	}
	convolve := func(y, first, last int) float64 {
		var v float64
		for yy := first; yy <= last && yy <= y; yy++ {
			v += 10 * pulse(t, e.Reference(), BC, "Global", "Global", Temperature, float64(y-yy))
		}
		return v
	}
	for _, y := range []int{0, 25, 49, 50, 75, 100} {
		have, ok := r.At(y)
		if !ok {
			t.Fatalf("no value for year %d", y)
		}
		if want := convolve(y, 0, 49); different(have, want, 1e-12) {
			t.Errorf("year %d: %g != %g", y, have, want)
		}
	}
	for i := 1; i < len(r.Series); i++ {
		if r.Series[i].Year != r.Series[i-1].Year+1 {
			t.Fatal("series not ordered by year")
		}
	}
}

// With the following-year convention, changes take effect one year after
// their stated year unless they are marked as steps.
func TestOnsetConvention(t *testing.T) {
	e := testEngine(t, WithOnset(OnsetFollowingYear))
	var tests = []struct {
		name        string
		step        bool
		first, last int
	}{
		{name: "following", first: 1, last: 50},
		{name: "step", step: true, first: 0, last: 50},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := NewEmissionScenario(
				Emission{Year: 0, Region: "Global", Pollutant: BC, Rate: 10, Step: test.step},
				Emission{Year: 50, Region: "Global", Pollutant: BC, Rate: 0},
			)
			if err != nil {
				t.Fatal(err)
			}
			s, err = s.WithEnd(60)
			if err != nil {
				t.Fatal(err)
			}
			r, err := e.RegionalTimeSeries(s, "Global", Temperature)
			if err != nil {
				t.Fatal(err)
			}
			if r.Provenance.Onset != OnsetFollowingYear {
				t.Errorf("onset %s", r.Provenance.Onset)
			}
			for _, y := range []int{0, 25, 50, 60} {
				var want float64
				for yy := test.first; yy <= test.last && yy <= y; yy++ {
					want += 10 * pulse(t, e.Reference(), BC, "Global", "Global", Temperature, float64(y-yy))
				}
				have, _ := r.At(y)
				if want == 0 && have != 0 || want != 0 && different(have, want, 1e-12) {
					t.Errorf("year %d: %g != %g", y, have, want)
				}
			}
		})
	}
}

// The response to a scenario is the sum of the responses to its sources,
// and a zero rate contributes nothing.
func TestSeriesSuperposition(t *testing.T) {
	e := testEngine(t)
	s, err := Compose(
		Segment{Pollutant: SO2, Region: "China", Start: 2000, End: 2030, From: 20, To: 5, Units: "Tg/year", Shape: Linear},
		Segment{Pollutant: CO2, Region: "Global", Start: 2010, End: 2030, From: 1, To: 2, Units: "Tg/year", Shape: Quadratic},
		Segment{Pollutant: BC, Region: "Asia", Start: 2000, End: 2030, To: 0},
	)
	if err != nil {
		t.Fatal(err)
	}
	q := SeriesQuery{Scenario: s, ResponseRegion: "China", Quantity: Temperature}
	total, err := e.Evaluate(q, Assumptions{})
	if err != nil {
		t.Fatal(err)
	}
	parts, err := q.Split()
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 3 {
		t.Fatalf("%d parts", len(parts))
	}
	sum := make([]float64, len(total.Series))
	for _, p := range parts {
		r, err := e.Evaluate(p, Assumptions{})
		if err != nil {
			t.Fatal(err)
		}
		if p.Sources()[0].Pollutant == BC {
			for _, v := range r.Series {
				if v.Value != 0 {
					t.Fatalf("zero emissions give %g", v.Value)
				}
			}
		}
		for i, v := range r.Series {
			sum[i] += v.Value
		}
	}
	for i, p := range total.Series {
		if different(p.Value, sum[i], 1e-12) {
			t.Errorf("year %d: %g != %g", p.Year, p.Value, sum[i])
		}
	}
	if total.Unit != "K" || len(total.Provenance.Sources) != 3 {
		t.Errorf("unit %q, provenance %+v", total.Unit, total.Provenance)
	}
}

func TestEnsembleMembers(t *testing.T) {
	e := testEngine(t)
	var tests = []struct {
		q Query
		n int
	}{
		// Per-model coefficients
		{q: PotentialQuery{Pollutant: BC, EmissionRegion: "Global", ResponseRegion: "Global", Horizon: 20, Metric: ARTP}, n: 8},
		{q: PotentialQuery{Pollutant: CO2, EmissionRegion: "Global", ResponseRegion: "US", Horizon: 20, Metric: ARPP}, n: 9},
		// Per-model scaling factors
		{q: PotentialQuery{Pollutant: SO2, EmissionRegion: "US", ResponseRegion: "Europe", Horizon: 20, Metric: ARTP}, n: 8},
	}
	for _, test := range tests {
		m, err := e.EnsembleMembers(test.q)
		if err != nil {
			t.Fatal(err)
		}
		if len(m) != test.n {
			t.Errorf("%+v: %d members %v", test.q, len(m), m)
		}
		mean, err := e.Evaluate(test.q, Assumptions{})
		if err != nil {
			t.Fatal(err)
		}
		had, err := e.Evaluate(test.q, Assumptions{Model: "HadGEM3"})
		if err != nil {
			t.Fatal(err)
		}
		if had.Value == mean.Value {
			t.Errorf("%+v: model result equals mean", test.q)
		}
	}
	_, err := e.Evaluate(tests[0].q, Assumptions{Model: "NoSuchModel"})
	var perr *InvalidParameterError
	if !errors.As(err, &perr) {
		t.Errorf("unknown model: want *InvalidParameterError, have %v", err)
	}
	// A model without values falls back to the mean.
	mean, _ := e.Evaluate(tests[0].q, Assumptions{})
	mpi, err := e.Evaluate(tests[0].q, Assumptions{Model: "MPI-ESM"})
	if err != nil {
		t.Fatal(err)
	}
	if different(mpi.Value, mean.Value, 1e-12) {
		t.Errorf("missing model: %g != %g", mpi.Value, mean.Value)
	}
}

func TestLifetimeSigma(t *testing.T) {
	e := testEngine(t)
	for _, p := range []Pollutant{SO2, BC, CH4} {
		er := e.Reference().Coefficients.EmissionRegions(p)[0]
		for _, m := range Metrics {
			q := PotentialQuery{Pollutant: p, EmissionRegion: er, ResponseRegion: "Global", Horizon: 20, Metric: m}
			var v [3]float64
			for i, sigma := range []float64{-1, 0, 1} {
				r, err := e.Evaluate(q, Assumptions{LifetimeSigma: sigma})
				if err != nil {
					t.Fatal(err)
				}
				v[i] = math.Abs(r.Value)
			}
			if !(v[0] < v[1] && v[1] < v[2]) {
				t.Errorf("%s %s: |values| %v not increasing with lifetime", p, m, v)
			}
		}
	}
	q := PotentialQuery{Pollutant: CH4, EmissionRegion: "Global", ResponseRegion: "Global", Horizon: 20, Metric: ARTP}
	_, err := e.Evaluate(q, Assumptions{LifetimeSigma: -20})
	var perr *InvalidParameterError
	if !errors.As(err, &perr) {
		t.Errorf("negative lifetime: want *InvalidParameterError, have %v", err)
	}
}

// A one standard deviation change in lifetime changes the potentials of
// short-lived pollutants in proportion to the burden.
func TestLifetimeRange(t *testing.T) {
	e := testEngine(t)
	var tests = []struct {
		p     Pollutant
		er    string
		h     float64
		ratio float64 // ARTP(τ+σ) / ARTP(τ-σ)
	}{
		{p: SO2, er: "US", h: 20, ratio: 2.1568},
		{p: BC, er: "Global", h: 20, ratio: 1.8050},
		{p: CH4, er: "Global", h: 100, ratio: 1.3442},
	}
	for _, test := range tests {
		t.Run(test.p.String(), func(t *testing.T) {
			q := PotentialQuery{Pollutant: test.p, EmissionRegion: test.er, ResponseRegion: "Global", Horizon: test.h, Metric: ARTP}
			var v [2]float64
			for i, sigma := range []float64{-1, 1} {
				r, err := e.Evaluate(q, Assumptions{LifetimeSigma: sigma})
				if err != nil {
					t.Fatal(err)
				}
				want, _ := closedForm(t, e.Reference(), test.p, test.er, "Global", Temperature, test.h, false, sigma)
				if different(r.Value, want, 1e-9) {
					t.Errorf("σ = %g: %g != %g", sigma, r.Value, want)
				}
				v[i] = r.Value
			}
			if r := v[1] / v[0]; different(r, test.ratio, 1e-3) {
				t.Errorf("upper/lower = %.4f, want %.4f", r, test.ratio)
			}
		})
	}
}

func TestRelativeStd(t *testing.T) {
	e := testEngine(t)
	ref := e.Reference()
	q := PotentialQuery{Pollutant: SO2, EmissionRegion: "US", ResponseRegion: "Europe", Horizon: 20, Metric: ARTP}
	have, err := e.RelativeStd(q)
	if err != nil {
		t.Fatal(err)
	}
	c, err := ref.Coefficients.Coefficient(SO2, "US", "Europe", Temperature)
	if err != nil {
		t.Fatal(err)
	}
	erf, _ := ref.Scalings.Lookup(SO2, ERF)
	cs, _ := ref.Scalings.Lookup(SO2, ClimateSensitivity)
	want := math.Sqrt(math.Pow(c.Std/c.Mean, 2) + math.Pow(erf.StdErr/erf.Mean, 2) + math.Pow(cs.StdErr/cs.Mean, 2))
	if different(have, want, 1e-12) {
		t.Errorf("%g != %g", have, want)
	}

	// The temperature feedback adds to the uncertainty of precipitation.
	q.Metric = IARPP
	have, err = e.RelativeStd(q)
	if err != nil {
		t.Fatal(err)
	}
	c, err = ref.Coefficients.Coefficient(SO2, "US", "Europe", Precipitation)
	if err != nil {
		t.Fatal(err)
	}
	sp, _ := ref.SpeciesOf(SO2)
	want = math.Sqrt(math.Pow(c.Std/c.Mean, 2) + math.Pow(erf.StdErr/erf.Mean, 2) + math.Pow(cs.StdErr/cs.Mean, 2) +
		math.Pow(sp.TemperatureFeedbackStd/sp.TemperatureFeedback, 2))
	if different(have, want, 1e-12) {
		t.Errorf("precipitation: %g != %g", have, want)
	}

	s, err := NewEmissionScenario(
		Emission{Year: 2000, Region: "US", Pollutant: SO2, Rate: 1},
		Emission{Year: 2000, Region: "Global", Pollutant: CO2, Rate: 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.RelativeStd(SeriesQuery{Scenario: s, ResponseRegion: "US"}); err == nil {
		t.Error("multi-source query accepted")
	}
}

func TestEngineConcurrency(t *testing.T) {
	e := testEngine(t, WithCacheSize(10))
	q := PotentialQuery{Pollutant: BC, EmissionRegion: "Asia", ResponseRegion: "China", Horizon: 50, Metric: IARPP}
	want, err := e.Evaluate(q, Assumptions{})
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make([]error, 50)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := Assumptions{LifetimeSigma: float64(i%3 - 1)}
			r, err := e.Evaluate(q, a)
			if err != nil {
				errs[i] = err
				return
			}
			if a.LifetimeSigma == 0 && r.Value != want.Value {
				errs[i] = fmt.Errorf("%g != %g", r.Value, want.Value)
			}
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

func ExampleEngine_PulsePotential() {
	ref, err := DefaultReferenceData()
	if err != nil {
		panic(err)
	}
	e, err := NewEngine(ref)
	if err != nil {
		panic(err)
	}
	r, err := e.PulsePotential(SO2, "US", "Europe", 20, Temperature)
	if err != nil {
		panic(err)
	}
	fmt.Println(r)

	r, err = e.IntegratedPotential(SO2, "US", "Europe", 20, Temperature)
	if err != nil {
		panic(err)
	}
	fmt.Println(r)

	// Output:
	// ARTP(20) = -5.083e-16 K kg-1
	// iARTP(20) = -3.782e-14 K yr kg-1
}
