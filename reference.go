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
	"bytes"
	_ "embed" // embedded reference data
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/rem/irf"
)

//go:embed data/reference.toml
var defaultReferenceTOML []byte

// DefaultLatentHeatConversion converts a change in latent heat flux
// [W m⁻²] into a change in precipitation [mm day⁻¹].
const DefaultLatentHeatConversion = 0.034

// ReferenceData holds the reference tables used by all metric computations.
// It is created once and is not modified afterwards, so it can be shared
// between concurrent computations.
type ReferenceData struct {
	Regions      *Regions
	Species      map[Pollutant]Species
	Kernels      irf.Set
	Coefficients *CoefficientTable
	Scalings     *ScalingProvider

	// ReferenceModel is the model the ERF scaling is relative to.
	ReferenceModel string

	// LatentHeatConversion converts latent heat flux [W m⁻²] into
	// precipitation [mm day⁻¹]. NewReferenceData sets it to
	// DefaultLatentHeatConversion.
	LatentHeatConversion float64
}

// NewReferenceData validates its arguments and assembles them into
// reference data.
func NewReferenceData(regions *Regions, species []Species, kernels irf.Set, entries []CoefficientEntry, scalings []ScalingFactor) (*ReferenceData, error) {
	if err := kernels.Validate(); err != nil {
		return nil, &InvalidParameterError{Parameter: "Kernels", Reason: err.Error()}
	}
	r := &ReferenceData{
		Regions:              regions,
		Species:              make(map[Pollutant]Species),
		Kernels:              kernels,
		LatentHeatConversion: DefaultLatentHeatConversion,
	}
	for _, s := range species {
		if _, ok := r.Species[s.Pollutant]; ok {
			return nil, &InvalidParameterError{Parameter: s.Pollutant.String(), Reason: "duplicate species"}
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		r.Species[s.Pollutant] = s
	}
	var err error
	if r.Coefficients, err = NewCoefficientTable(regions, r.Species, entries); err != nil {
		return nil, err
	}
	if r.Scalings, err = NewScalingProvider(scalings...); err != nil {
		return nil, err
	}
	for _, s := range r.Species {
		for _, k := range s.Scalings {
			if _, err := r.Scalings.Lookup(s.Pollutant, k); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// SpeciesOf returns the reference properties of p.
func (r *ReferenceData) SpeciesOf(p Pollutant) (Species, error) {
	s, ok := r.Species[p]
	if !ok {
		return s, &InvalidParameterError{Parameter: p.String(), Reason: "no species properties"}
	}
	return s, nil
}

// referenceFile is the layout of a reference data file.
type referenceFile struct {
	ReferenceModel       string
	LatentHeatConversion *float64
	Kernels              *irf.Set
	Species              []Species
	Experiments          []Experiment
	Coefficients         []coefficientBlock
}

// coefficientBlock holds the coefficients of one pollutant and emission
// region for a list of response regions.
type coefficientBlock struct {
	Pollutant       Pollutant
	EmissionRegion  string
	ResponseRegions []string
	Temperature     *coefficientColumns
	Precipitation   *coefficientColumns
}

// coefficientColumns holds one value per response region.
type coefficientColumns struct {
	Mean, Std []float64
	PerModel  map[string][]float64
}

func (c *coefficientColumns) coefficient(i, n int) (*Coefficient, error) {
	if c == nil {
		return nil, nil
	}
	if len(c.PerModel) > 0 {
		pm := make(map[string]float64)
		for m, v := range c.PerModel {
			if len(v) != n {
				return nil, fmt.Errorf("model %s has %d values for %d response regions", m, len(v), n)
			}
			pm[m] = v[i]
		}
		cc := NewCoefficient(pm)
		return &cc, nil
	}
	if len(c.Mean) != n || (len(c.Std) != 0 && len(c.Std) != n) {
		return nil, fmt.Errorf("have %d means and %d standard deviations for %d response regions", len(c.Mean), len(c.Std), n)
	}
	cc := Coefficient{Mean: c.Mean[i]}
	if len(c.Std) > 0 {
		cc.Std = c.Std[i]
	}
	return &cc, nil
}

func (b coefficientBlock) entries() ([]CoefficientEntry, error) {
	n := len(b.ResponseRegions)
	o := make([]CoefficientEntry, n)
	for i, rr := range b.ResponseRegions {
		o[i] = CoefficientEntry{
			Pollutant:      b.Pollutant,
			EmissionRegion: b.EmissionRegion,
			ResponseRegion: rr,
		}
		var err error
		if o[i].Temperature, err = b.Temperature.coefficient(i, n); err != nil {
			return nil, &InvalidParameterError{Parameter: fmt.Sprintf("%s[%s].Temperature", b.Pollutant, b.EmissionRegion), Reason: err.Error()}
		}
		if o[i].Precipitation, err = b.Precipitation.coefficient(i, n); err != nil {
			return nil, &InvalidParameterError{Parameter: fmt.Sprintf("%s[%s].Precipitation", b.Pollutant, b.EmissionRegion), Reason: err.Error()}
		}
	}
	return o, nil
}

// ReadReferenceData reads reference data in TOML format from r and
// validates it. Scaling factors are derived from the experiment results
// with ScalingFromExperiments, and the default impulse response kernels
// are used unless the file specifies its own.
func ReadReferenceData(r io.Reader) (*ReferenceData, error) {
	var f referenceFile
	if _, err := toml.DecodeReader(r, &f); err != nil {
		return nil, fmt.Errorf("rem: reading reference data: %w", err)
	}
	kernels := irf.DefaultSet()
	if f.Kernels != nil {
		kernels = *f.Kernels
	}
	var entries []CoefficientEntry
	for _, b := range f.Coefficients {
		e, err := b.entries()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e...)
	}
	var scalings []ScalingFactor
	if len(f.Experiments) > 0 {
		var co2 Experiment
		var others []Experiment
		found := false
		for _, e := range f.Experiments {
			if e.Pollutant == CO2 {
				co2, found = e, true
			} else {
				others = append(others, e)
			}
		}
		if !found {
			return nil, &InvalidParameterError{Parameter: "Experiments", Reason: "no CO2 experiment"}
		}
		var err error
		if scalings, err = ScalingFromExperiments(f.ReferenceModel, co2, others...); err != nil {
			return nil, err
		}
	}
	ref, err := NewReferenceData(DefaultRegions(), f.Species, kernels, entries, scalings)
	if err != nil {
		return nil, err
	}
	ref.ReferenceModel = f.ReferenceModel
	if c := f.LatentHeatConversion; c != nil {
		if !(*c > 0) || math.IsInf(*c, 0) {
			return nil, &InvalidParameterError{Parameter: "LatentHeatConversion", Reason: fmt.Sprintf("%g must be positive and finite", *c)}
		}
		ref.LatentHeatConversion = *c
	}
	return ref, nil
}

// ReadReferenceDataFile reads reference data from the TOML file at path.
func ReadReferenceDataFile(path string) (*ReferenceData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rem: opening reference data: %w", err)
	}
	defer f.Close()
	return ReadReferenceData(f)
}

var (
	defaultRefOnce sync.Once
	defaultRef     *ReferenceData
	defaultRefErr  error
)

// DefaultReferenceData returns the embedded reference data. It is loaded
// and validated on the first call; later calls return the same value.
func DefaultReferenceData() (*ReferenceData, error) {
	defaultRefOnce.Do(func() {
		defaultRef, defaultRefErr = ReadReferenceData(bytes.NewReader(defaultReferenceTOML))
	})
	return defaultRef, defaultRefErr
}
