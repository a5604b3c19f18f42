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
)

// Experiment holds the multi-model results of a perturbation experiment
// for a single pollutant. Each map is keyed by model name; models that
// did not run the experiment are absent.
type Experiment struct {
	Pollutant Pollutant

	// Temperature is the global mean temperature change [K].
	Temperature map[string]float64

	// Forcing is the effective radiative forcing [W m⁻²].
	Forcing map[string]float64

	// Precipitation is the global mean precipitation change [%].
	Precipitation map[string]float64
}

// ScalingFromExperiments derives per-model scaling factors from
// multi-model experiment results. The effective radiative forcing scaling
// of model m is Forcing_m / Forcing_ref, where ref is the reference model.
// The climate sensitivity scaling is
//
//	(Temperature_m / Temperature_CO2,m) / (Forcing_m / Forcing_CO2,m)
//
// which is the model's temperature response per unit forcing relative to
// its response to CO2. Models missing any required value are skipped.
// co2 must be the CO2 experiment; it is also used for the CO2 factors.
func ScalingFromExperiments(ref string, co2 Experiment, experiments ...Experiment) ([]ScalingFactor, error) {
	if co2.Pollutant != CO2 {
		return nil, &InvalidParameterError{Parameter: "Experiment.Pollutant",
			Reason: fmt.Sprintf("reference experiment is %s, not CO2", co2.Pollutant)}
	}
	var o []ScalingFactor
	for _, e := range append([]Experiment{co2}, experiments...) {
		refForcing, ok := e.Forcing[ref]
		if !ok || refForcing == 0 || math.IsNaN(refForcing) {
			return nil, &InvalidParameterError{Parameter: e.Pollutant.String() + ".Forcing",
				Reason: fmt.Sprintf("no forcing for reference model %q", ref)}
		}
		erf := make(map[string]float64)
		cs := make(map[string]float64)
		for m, f := range e.Forcing {
			erf[m] = f / refForcing

			t, tok := e.Temperature[m]
			tCO2, cok := co2.Temperature[m]
			fCO2, fok := co2.Forcing[m]
			if !tok || !cok || !fok || tCO2 == 0 || fCO2 == 0 || f == 0 {
				continue
			}
			cs[m] = (t / tCO2) / (f / fCO2)
		}
		for _, kf := range []struct {
			k ScalingKind
			v map[string]float64
		}{{ERF, erf}, {ClimateSensitivity, cs}} {
			s, err := NewScalingFactor(e.Pollutant, kf.k, kf.v)
			if err != nil {
				return nil, err
			}
			o = append(o, s)
		}
	}
	return o, nil
}
