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
	"fmt"
	"math"
	"strings"
)

// Pollutant is an emitted species.
type Pollutant int

// Available pollutants
const (
	SO2 Pollutant = iota
	BC
	CH4
	CO2
)

// Pollutants lists all supported pollutants.
var Pollutants = []Pollutant{SO2, BC, CH4, CO2}

var pollutantNames = []string{
	SO2: "SO2",
	BC:  "BC",
	CH4: "CH4",
	CO2: "CO2",
}

func (p Pollutant) String() string {
	if p < 0 || int(p) >= len(pollutantNames) {
		return fmt.Sprintf("Pollutant(%d)", int(p))
	}
	return pollutantNames[p]
}

// ParsePollutant returns the pollutant with the given name.
// Matching is case-insensitive.
func ParsePollutant(s string) (Pollutant, error) {
	for i, n := range pollutantNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Pollutant(i), nil
		}
	}
	return -1, fmt.Errorf("rem: unsupported pollutant %q; must be one of %v", s, pollutantNames)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pollutant) UnmarshalText(b []byte) error {
	pp, err := ParsePollutant(string(b))
	if err != nil {
		return err
	}
	*p = pp
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Pollutant) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// KernelFamily identifies the shape of the impulse response used for a
// pollutant.
type KernelFamily int

const (
	// LifetimeKernel is the climate response to a burden that decays with
	// the pollutant's atmospheric lifetime.
	LifetimeKernel KernelFamily = iota

	// CarbonCycleKernel is the multi-exponential carbon cycle response,
	// which does not depend on a single atmospheric lifetime.
	CarbonCycleKernel
)

func (k KernelFamily) String() string {
	switch k {
	case LifetimeKernel:
		return "lifetime"
	case CarbonCycleKernel:
		return "carbon-cycle"
	default:
		return fmt.Sprintf("KernelFamily(%d)", int(k))
	}
}

// kernelFamilies selects the impulse response shape for each pollutant.
var kernelFamilies = map[Pollutant]KernelFamily{
	SO2: LifetimeKernel,
	BC:  LifetimeKernel,
	CH4: LifetimeKernel,
	CO2: CarbonCycleKernel,
}

// Kernel returns the impulse response family used for p.
func (p Pollutant) Kernel() KernelFamily { return kernelFamilies[p] }

// Species holds the reference properties of a pollutant.
type Species struct {
	Pollutant Pollutant

	// Lifetime is the atmospheric lifetime [years]. It is ignored for
	// pollutants with a carbon cycle kernel.
	Lifetime float64

	// LifetimeStd is the standard deviation of Lifetime [years].
	LifetimeStd float64

	// RadiativeEfficiency is the global mean forcing per unit burden
	// [W m⁻² kg⁻¹].
	RadiativeEfficiency float64

	// AtmosphericEfficiency is the part of the forcing per unit burden
	// absorbed within the atmosphere [W m⁻² kg⁻¹]. It drives the fast
	// precipitation response.
	AtmosphericEfficiency float64

	// FastPrecipitation is the fraction of the atmospheric absorption
	// balanced by a rapid change in latent heat release.
	FastPrecipitation float64

	// TemperatureFeedback is the change in surface energy flux per unit of
	// surface warming that drives the slow precipitation response
	// [W m⁻² K⁻¹], and TemperatureFeedbackStd its standard deviation.
	TemperatureFeedback, TemperatureFeedbackStd float64

	// Scalings lists the scaling factors that apply to the pollutant's
	// coefficients.
	Scalings []ScalingKind

	// TemperatureSign is the expected sign of the pollutant's temperature
	// response coefficients: -1 for cooling species, +1 for warming species.
	TemperatureSign int
}

func (s Species) validate() error {
	if s.TemperatureSign != 1 && s.TemperatureSign != -1 {
		return &InvalidParameterError{Parameter: s.Pollutant.String() + ".TemperatureSign",
			Reason: fmt.Sprintf("%d must be 1 or -1", s.TemperatureSign)}
	}
	for _, v := range []struct {
		name        string
		v           float64
		nonNegative bool
	}{
		{"RadiativeEfficiency", s.RadiativeEfficiency, false},
		{"AtmosphericEfficiency", s.AtmosphericEfficiency, false},
		{"FastPrecipitation", s.FastPrecipitation, true},
		{"TemperatureFeedback", s.TemperatureFeedback, true},
		{"TemperatureFeedbackStd", s.TemperatureFeedbackStd, true},
	} {
		if math.IsNaN(v.v) || math.IsInf(v.v, 0) {
			return &InvalidParameterError{Parameter: s.Pollutant.String() + "." + v.name,
				Reason: fmt.Sprintf("%g must be finite", v.v)}
		}
		if v.nonNegative && v.v < 0 {
			return &InvalidParameterError{Parameter: s.Pollutant.String() + "." + v.name,
				Reason: fmt.Sprintf("%g must not be negative", v.v)}
		}
	}
	if s.Pollutant.Kernel() == CarbonCycleKernel {
		return nil
	}
	if !(s.Lifetime > 0) {
		return &InvalidParameterError{Parameter: s.Pollutant.String() + ".Lifetime",
			Reason: fmt.Sprintf("%g must be positive", s.Lifetime)}
	}
	if s.LifetimeStd < 0 || s.LifetimeStd >= s.Lifetime {
		return &InvalidParameterError{Parameter: s.Pollutant.String() + ".LifetimeStd",
			Reason: fmt.Sprintf("%g must be non-negative and smaller than the lifetime %g", s.LifetimeStd, s.Lifetime)}
	}
	return nil
}

// Quantity is a climate variable that responds to emissions.
type Quantity int

// Available quantities
const (
	Temperature Quantity = iota
	Precipitation
)

func (q Quantity) String() string {
	switch q {
	case Temperature:
		return "temperature"
	case Precipitation:
		return "precipitation"
	default:
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
}

// ParseQuantity returns the quantity with the given name.
func ParseQuantity(s string) (Quantity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temperature", "temp", "t":
		return Temperature, nil
	case "precipitation", "precip", "p":
		return Precipitation, nil
	}
	return -1, fmt.Errorf("rem: unsupported quantity %q; must be temperature or precipitation", s)
}

// Metric is a climate metric.
type Metric int

// Available metrics
const (
	// ARTP is the absolute regional temperature potential.
	ARTP Metric = iota
	// IARTP is the integrated absolute regional temperature potential.
	IARTP
	// ARPP is the absolute regional precipitation potential.
	ARPP
	// IARPP is the integrated absolute regional precipitation potential.
	IARPP
)

// Metrics lists all metrics.
var Metrics = []Metric{ARTP, IARTP, ARPP, IARPP}

var metricNames = []string{ARTP: "ARTP", IARTP: "iARTP", ARPP: "ARPP", IARPP: "iARPP"}

func (m Metric) String() string {
	if m < 0 || int(m) >= len(metricNames) {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

// ParseMetric returns the metric with the given name.
func ParseMetric(s string) (Metric, error) {
	for i, n := range metricNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Metric(i), nil
		}
	}
	return -1, fmt.Errorf("rem: unsupported metric %q; must be one of %v", s, metricNames)
}

// MetricFor returns the metric for quantity q, either integrated over
// the time horizon or not.
func MetricFor(q Quantity, integrated bool) Metric {
	switch {
	case q == Temperature && !integrated:
		return ARTP
	case q == Temperature:
		return IARTP
	case !integrated:
		return ARPP
	default:
		return IARPP
	}
}

// Quantity returns the climate variable m describes.
func (m Metric) Quantity() Quantity {
	if m == ARPP || m == IARPP {
		return Precipitation
	}
	return Temperature
}

// Integrated returns whether m is integrated over the time horizon.
func (m Metric) Integrated() bool { return m == IARTP || m == IARPP }

// Unit returns the units of m.
func (m Metric) Unit() string {
	u := "K"
	if m.Quantity() == Precipitation {
		u = "mm day-1"
	}
	if m.Integrated() {
		u += " yr"
	}
	return u + " kg-1"
}
