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
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ScalingKind is a multi-model correction applied to response coefficients.
type ScalingKind int

// Available scaling kinds
const (
	// ERF rescales coefficients by the ratio of each model's effective
	// radiative forcing to that of the reference model.
	ERF ScalingKind = iota

	// ClimateSensitivity rescales coefficients by each model's response per
	// unit forcing relative to its response to CO2.
	ClimateSensitivity
)

var scalingNames = []string{ERF: "ERF", ClimateSensitivity: "ClimateSensitivity"}

func (k ScalingKind) String() string {
	if k < 0 || int(k) >= len(scalingNames) {
		return fmt.Sprintf("ScalingKind(%d)", int(k))
	}
	return scalingNames[k]
}

// ParseScalingKind returns the scaling kind with the given name.
func ParseScalingKind(s string) (ScalingKind, error) {
	for i, n := range scalingNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return ScalingKind(i), nil
		}
	}
	return -1, fmt.Errorf("rem: unsupported scaling kind %q; must be one of %v", s, scalingNames)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ScalingKind) UnmarshalText(b []byte) error {
	kk, err := ParseScalingKind(string(b))
	if err != nil {
		return err
	}
	*k = kk
	return nil
}

// ScalingFactor is a multiplicative correction for a pollutant's
// coefficients.
type ScalingFactor struct {
	Pollutant Pollutant
	Kind      ScalingKind

	// PerModel holds the value of the factor for each model that
	// provided one.
	PerModel map[string]float64

	// Mean, Std, and StdErr are the multi-model mean, population
	// standard deviation, and standard error of the mean.
	Mean, Std, StdErr float64
}

// NewScalingFactor creates a scaling factor and derives its statistics
// from the per-model values. Non-finite values are dropped.
func NewScalingFactor(p Pollutant, kind ScalingKind, perModel map[string]float64) (ScalingFactor, error) {
	s := ScalingFactor{Pollutant: p, Kind: kind, PerModel: finiteValues(perModel)}
	if len(s.PerModel) == 0 {
		return s, &InvalidParameterError{Parameter: fmt.Sprintf("%s.%s", p, kind), Reason: "no model values"}
	}
	s.Mean, s.Std, s.StdErr = ensembleStats(s.PerModel)
	return s, nil
}

// Value returns the factor for the given model, or the multi-model
// mean when model is empty or has no value.
func (s ScalingFactor) Value(model string) float64 {
	if v, ok := s.PerModel[model]; ok {
		return v
	}
	return s.Mean
}

// Models returns the sorted names of the models with a value.
func (s ScalingFactor) Models() []string { return modelNames(s.PerModel) }

func finiteValues(m map[string]float64) map[string]float64 {
	o := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			o[k] = v
		}
	}
	return o
}

func modelNames(m map[string]float64) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// ensembleStats returns the mean, population standard deviation, and
// standard error of the values in m.
func ensembleStats(m map[string]float64) (mean, std, stdErr float64) {
	x := make([]float64, 0, len(m))
	for _, n := range modelNames(m) {
		x = append(x, m[n])
	}
	mean = stat.Mean(x, nil)
	std = math.Sqrt(stat.Moment(2, x, nil))
	stdErr = std / math.Sqrt(float64(len(x)))
	return
}

// ScalingProvider holds the scaling factors for all pollutants.
type ScalingProvider struct {
	factors map[Pollutant]map[ScalingKind]ScalingFactor
}

// NewScalingProvider creates a provider from the given factors.
func NewScalingProvider(factors ...ScalingFactor) (*ScalingProvider, error) {
	sp := &ScalingProvider{factors: make(map[Pollutant]map[ScalingKind]ScalingFactor)}
	for _, f := range factors {
		if _, ok := sp.factors[f.Pollutant]; !ok {
			sp.factors[f.Pollutant] = make(map[ScalingKind]ScalingFactor)
		}
		if _, ok := sp.factors[f.Pollutant][f.Kind]; ok {
			return nil, &InvalidParameterError{Parameter: fmt.Sprintf("%s.%s", f.Pollutant, f.Kind), Reason: "duplicate scaling factor"}
		}
		sp.factors[f.Pollutant][f.Kind] = f
	}
	return sp, nil
}

// Lookup returns the scaling factor of the given kind for p.
func (sp *ScalingProvider) Lookup(p Pollutant, kind ScalingKind) (ScalingFactor, error) {
	f, ok := sp.factors[p][kind]
	if !ok {
		return f, &InvalidParameterError{Parameter: fmt.Sprintf("%s.%s", p, kind), Reason: "no scaling factor"}
	}
	return f, nil
}
