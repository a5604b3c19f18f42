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

import (
	"fmt"
	"math"
)

// degenerate is the relative separation below which a burden time constant
// is considered equal to a climate response time. Such burden time
// constants are moved apart by this amount before convolving.
const degenerate = 1e-6

// ClimateResponse is the response of global mean surface temperature to a
// unit pulse of radiative forcing:
//
//	R_T(t) = Σ (cⱼ/dⱼ)·exp(-t/dⱼ)   [K (W m⁻²)⁻¹ yr⁻¹]
//
// so that a sustained unit forcing eventually warms the surface by Σ cⱼ.
type ClimateResponse struct {
	// Label is the name of the response.
	Label string

	// Modes hold the climate sensitivity cⱼ [K (W m⁻²)⁻¹] of each mode as
	// its Amplitude and the response time dⱼ [years] as its Tau.
	Modes []Component
}

// Validate checks that c has at least one mode, and that all sensitivities
// and response times are positive.
func (c ClimateResponse) Validate() error {
	if len(c.Modes) == 0 {
		return &ParameterError{Kernel: c.Label, Reason: "no modes"}
	}
	for i, m := range c.Modes {
		if !(m.Amplitude > 0) || math.IsInf(m.Amplitude, 0) {
			return &ParameterError{Kernel: c.Label, Reason: fmt.Sprintf("mode %d sensitivity %g must be positive and finite", i, m.Amplitude)}
		}
		if err := checkTau(c.Label, i, m.Tau); err != nil {
			return err
		}
	}
	return nil
}

// Sensitivity returns the equilibrium climate sensitivity Σ cⱼ.
func (c ClimateResponse) Sensitivity() float64 {
	var s float64
	for _, m := range c.Modes {
		s += m.Amplitude
	}
	return s
}

// Convolve returns the temperature response [K per (W m⁻²) of forcing per
// unit burden] to a pulse emission whose burden follows b:
//
//	T(t) = ∫₀ᵗ b(t')·R_T(t-t') dt'
func (c ClimateResponse) Convolve(b Kernel) Kernel {
	return Sum(c.Label+"*"+b.Label, c.ConvolveModes(b)...)
}

// ConvolveModes returns the part of Convolve(b) contributed by each climate
// mode. A burden component (a, τ) and mode (c, d) give
//
//	a·τ·c/(τ-d)·(exp(-t/τ) - exp(-t/d))
//
// and a persistent burden a₀ gives a₀·c·(1 - exp(-t/d)).
func (c ClimateResponse) ConvolveModes(b Kernel) []Kernel {
	o := make([]Kernel, len(c.Modes))
	for j, m := range c.Modes {
		k := Kernel{
			Label:      fmt.Sprintf("%s*%s[%d]", c.Label, b.Label, j),
			Persistent: b.Persistent * m.Amplitude,
		}
		var dAmp = -b.Persistent * m.Amplitude
		for _, bc := range b.Components {
			tau := bc.Tau
			if math.Abs(tau-m.Tau) <= degenerate*m.Tau {
				tau = m.Tau * (1 + degenerate)
			}
			x := bc.Amplitude * tau * m.Amplitude / (tau - m.Tau)
			k.Components = append(k.Components, Component{Amplitude: x, Tau: tau})
			dAmp -= x
		}
		k.Components = append(k.Components, Component{Amplitude: dAmp, Tau: m.Tau})
		o[j] = k
	}
	return o
}
