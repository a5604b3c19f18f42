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
	"math"
	"strings"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if a == b {
		return false
	}
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func testEngine(t testing.TB, opts ...EngineOption) *Engine {
	ref, err := DefaultReferenceData()
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(ref, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestDefaultReferenceData(t *testing.T) {
	ref, err := DefaultReferenceData()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range Pollutants {
		if _, err := ref.SpeciesOf(p); err != nil {
			t.Error(err)
		}
		if len(ref.Coefficients.EmissionRegions(p)) == 0 {
			t.Errorf("no emission regions for %s", p)
		}
	}
	if err := ref.Kernels.Validate(); err != nil {
		t.Error(err)
	}
	ref2, err := DefaultReferenceData()
	if err != nil {
		t.Fatal(err)
	}
	if ref != ref2 {
		t.Error("default reference data loaded more than once")
	}
	if ref.LatentHeatConversion != DefaultLatentHeatConversion {
		t.Errorf("latent heat conversion %g", ref.LatentHeatConversion)
	}
	for _, p := range Pollutants {
		s, _ := ref.SpeciesOf(p)
		if !(s.TemperatureFeedback > 0) || s.AtmosphericEfficiency == 0 {
			t.Errorf("%s: precipitation parameters missing: %+v", p, s)
		}
	}
}

func TestReadReferenceDataErrors(t *testing.T) {
	const species = `
[[Species]]
Pollutant = "CH4"
Lifetime = 12.4
LifetimeStd = 1.4
RadiativeEfficiency = 1.28e-13
TemperatureSign = 1
`
	const coefs = `
[[Coefficients]]
Pollutant = "CH4"
EmissionRegion = "Global"
ResponseRegions = ["Global", "Sahel"]
[Coefficients.Temperature]
Mean = [1.0, 0.9]
Std = [0.1, 0.1]
`
	var tests = []struct {
		name, data string
		ok         bool
	}{
		{name: "valid", data: species + coefs, ok: true},
		{
			name: "lifetime std too large",
			data: `
[[Species]]
Pollutant = "CH4"
Lifetime = 1
LifetimeStd = 1
TemperatureSign = 1
` + coefs,
		},
		{
			name: "unnormalized kernel",
			data: species + coefs + `
[Kernels.Climate]
Label = "c"
[[Kernels.Climate.Modes]]
Amplitude = 0.631
Tau = 8.4
[Kernels.CarbonCycle]
Label = "bad"
[[Kernels.CarbonCycle.Components]]
Amplitude = 0.5
Tau = 100
`,
		},
		{
			name: "no climate modes",
			data: species + coefs + `
[Kernels.Climate]
Label = "none"
[Kernels.CarbonCycle]
Label = "c"
[[Kernels.CarbonCycle.Components]]
Amplitude = 1
Tau = 100
`,
		},
		{name: "latent heat conversion", data: "LatentHeatConversion = 0.03\n" + species + coefs, ok: true},
		{name: "zero latent heat conversion", data: "LatentHeatConversion = 0.0\n" + species + coefs},
		{name: "negative latent heat conversion", data: "LatentHeatConversion = -0.034\n" + species + coefs},
		{
			name: "negative temperature feedback",
			data: species + "TemperatureFeedback = -2.2\n" + coefs,
		},
		{
			name: "negative fast precipitation fraction",
			data: species + "FastPrecipitation = -0.3\n" + coefs,
		},
		{
			name: "wrong sign",
			data: species + `
[[Coefficients]]
Pollutant = "CH4"
EmissionRegion = "Global"
ResponseRegions = ["Global"]
[Coefficients.Temperature]
Mean = [-0.8]
`,
		},
		{
			name: "column length",
			data: species + `
[[Coefficients]]
Pollutant = "CH4"
EmissionRegion = "Global"
ResponseRegions = ["Global", "Sahel"]
[Coefficients.Temperature]
Mean = [0.8]
`,
		},
		{
			name: "response-only region used for emissions",
			data: species + `
[[Coefficients]]
Pollutant = "CH4"
EmissionRegion = "Sahel"
ResponseRegions = ["Global"]
[Coefficients.Temperature]
Mean = [0.8]
`,
		},
		{
			name: "missing scaling",
			data: `
[[Species]]
Pollutant = "CH4"
Lifetime = 12.4
LifetimeStd = 1.4
RadiativeEfficiency = 1.28e-13
Scalings = ["ERF"]
TemperatureSign = 1
` + coefs,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ref, err := ReadReferenceData(strings.NewReader(test.data))
			if test.ok {
				if err != nil {
					t.Fatal(err)
				}
				if ref.LatentHeatConversion <= 0 {
					t.Errorf("latent heat conversion %g", ref.LatentHeatConversion)
				}
				return
			}
			var perr *InvalidParameterError
			if !errors.As(err, &perr) {
				t.Errorf("want *InvalidParameterError, have %v", err)
			}
		})
	}
}
