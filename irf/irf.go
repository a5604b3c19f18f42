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
// Package irf holds impulse response functions describing how the climate
// response to a unit pulse emission fades with time.
package irf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// normTolerance is the allowed deviation of the sum of a burden kernel's
// amplitudes from 1.
const normTolerance = 1e-6

// Component is a single exponentially decaying term of a kernel.
type Component struct {
	// Amplitude is the value of this component at t = 0. It may be
	// negative in a kernel obtained by convolution.
	Amplitude float64

	// Tau is the e-folding time of the component [years].
	Tau float64
}

// Kernel is a multi-exponential impulse response function:
//
//	R(t) = Persistent + Σ Aᵢ·exp(-t/τᵢ)
//
// Burden kernels give the fraction of a pulse emission remaining in the
// atmosphere: they start at 1, the kernel of a lifetime-limited pollutant
// decays to zero and the carbon cycle kernel for CO2 retains a persistent
// airborne fraction. Kernels returned by ClimateResponse.Convolve start at
// zero instead. Kernels are values; none of the methods modify the receiver.
type Kernel struct {
	// Label is the name of the kernel.
	Label string

	// Persistent is the part of the response that does not decay.
	Persistent float64

	// Components are the decaying terms.
	Components []Component
}

// ParameterError reports an invalid kernel configuration.
type ParameterError struct {
	Kernel, Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("irf: invalid kernel %q: %s", e.Kernel, e.Reason)
}

// Decay returns the burden kernel of a pollutant removed from the
// atmosphere with an e-folding lifetime [years].
func Decay(lifetime float64) Kernel {
	return Kernel{
		Label:      fmt.Sprintf("Decay(%.4g yr)", lifetime),
		Components: []Component{{Amplitude: 1, Tau: lifetime}},
	}
}

// Validate checks that k is a burden kernel: that it is normalized
// (R(0) = 1), that no amplitude is negative, and that all time constants are
// positive.
func (k Kernel) Validate() error {
	if len(k.Components) == 0 {
		return &ParameterError{Kernel: k.Label, Reason: "no components"}
	}
	if k.Persistent < 0 {
		return &ParameterError{Kernel: k.Label, Reason: fmt.Sprintf("persistent fraction %g < 0", k.Persistent)}
	}
	amps := make([]float64, len(k.Components))
	for i, c := range k.Components {
		if c.Amplitude < 0 {
			return &ParameterError{Kernel: k.Label, Reason: fmt.Sprintf("component %d amplitude %g < 0", i, c.Amplitude)}
		}
		if err := checkTau(k.Label, i, c.Tau); err != nil {
			return err
		}
		amps[i] = c.Amplitude
	}
	if sum := floats.Sum(amps) + k.Persistent; math.Abs(sum-1) > normTolerance {
		return &ParameterError{Kernel: k.Label, Reason: fmt.Sprintf("amplitudes sum to %g, not 1", sum)}
	}
	return nil
}

func checkTau(label string, i int, tau float64) error {
	if !(tau > 0) || math.IsInf(tau, 0) {
		return &ParameterError{Kernel: label, Reason: fmt.Sprintf("component %d time constant %g must be positive and finite", i, tau)}
	}
	return nil
}

// Response returns R(t) at t years after a unit pulse. R is zero before
// the pulse.
func (k Kernel) Response(t float64) float64 {
	if t < 0 {
		return 0
	}
	return floats.Sum(k.ComponentResponses(t)) + k.Persistent
}

// ComponentResponses returns the contribution of each decaying component
// to R(t). The persistent part is not included.
func (k Kernel) ComponentResponses(t float64) []float64 {
	o := make([]float64, len(k.Components))
	if t < 0 {
		return o
	}
	for i, c := range k.Components {
		o[i] = c.Amplitude * math.Exp(-t/c.Tau)
	}
	return o
}

// Integral returns the closed-form integral of R(t) from 0 to h.
func (k Kernel) Integral(h float64) float64 {
	if h <= 0 {
		return 0
	}
	return floats.Sum(k.ComponentIntegrals(h)) + k.Persistent*h
}

// ComponentIntegrals returns the integral of each decaying component
// from 0 to h:
//
//	Aᵢ·τᵢ·(1 - exp(-h/τᵢ))
func (k Kernel) ComponentIntegrals(h float64) []float64 {
	o := make([]float64, len(k.Components))
	if h <= 0 {
		return o
	}
	for i, c := range k.Components {
		o[i] = c.Amplitude * c.Tau * -math.Expm1(-h/c.Tau)
	}
	return o
}

// Scale returns a copy of k with every amplitude, and the persistent part,
// multiplied by f.
func (k Kernel) Scale(f float64) Kernel {
	o := Kernel{
		Label:      k.Label,
		Persistent: k.Persistent * f,
		Components: make([]Component, len(k.Components)),
	}
	for i, c := range k.Components {
		o.Components[i] = Component{Amplitude: c.Amplitude * f, Tau: c.Tau}
	}
	return o
}

// Sum returns the kernel whose response is the sum of the responses of ks.
func Sum(label string, ks ...Kernel) Kernel {
	o := Kernel{Label: label}
	for _, k := range ks {
		o.Persistent += k.Persistent
		o.Components = append(o.Components, k.Components...)
	}
	return o
}
