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

package irf

// BoucherReddy2008 is the two-mode temperature response of the climate
// system from:
//
// Boucher, O., & Reddy, M. S. (2008). Climate trade-off between black carbon
// and carbon dioxide emissions. Energy Policy, 36(1), 193–200.
// http://doi.org/10.1016/j.enpol.2007.08.039
var BoucherReddy2008 = ClimateResponse{
	Label: "BoucherReddy2008",
	Modes: []Component{
		{Amplitude: 0.631, Tau: 8.4},
		{Amplitude: 0.429, Tau: 409.5},
	},
}

// Joos2013 is the best-estimate carbon cycle response to a pulse of CO2
// from:
//
// Joos, F., Roth, R., Fuglestvedt, J. S., Peters, G. P., Enting, I. G.,
// von Bloh, W., … Weaver, A. J. (2013). Carbon dioxide and climate impulse
// response functions for the computation of greenhouse gas metrics: a
// multi-model analysis. Atmospheric Chemistry and Physics, 13(5), 2793–2825.
// http://doi.org/10.5194/acp-13-2793-2013
var Joos2013 = Kernel{
	Label:      "Joos2013",
	Persistent: 0.2173,
	Components: []Component{
		{Amplitude: 0.2763, Tau: 4.304},
		{Amplitude: 0.2824, Tau: 36.54},
		{Amplitude: 0.2240, Tau: 394.4},
	},
}

// Set holds the response functions used by a metrics computation.
type Set struct {
	// Climate is the temperature response to radiative forcing.
	Climate ClimateResponse

	// CarbonCycle is the burden kernel for CO2.
	CarbonCycle Kernel
}

// DefaultSet returns the default response functions.
func DefaultSet() Set {
	return Set{
		Climate: ClimateResponse{
			Label: BoucherReddy2008.Label,
			Modes: append([]Component(nil), BoucherReddy2008.Modes...),
		},
		CarbonCycle: Joos2013.Scale(1),
	}
}

// Validate checks the climate response and the carbon cycle kernel in s.
func (s Set) Validate() error {
	if err := s.Climate.Validate(); err != nil {
		return err
	}
	return s.CarbonCycle.Validate()
}
