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

import "fmt"

// Coefficient is a regional transient response coefficient: the ratio of
// the response in a region to the global mean response for the same
// emission, so the coefficient for the Global response region is 1 in
// every model.
type Coefficient struct {
	// Mean and Std are the multi-model mean and population standard deviation.
	Mean, Std float64

	// PerModel optionally holds the coefficient for each model.
	PerModel map[string]float64
}

// NewCoefficient creates a coefficient whose statistics are derived from
// the given per-model values.
func NewCoefficient(perModel map[string]float64) Coefficient {
	c := Coefficient{PerModel: finiteValues(perModel)}
	if len(c.PerModel) > 0 {
		c.Mean, c.Std, _ = ensembleStats(c.PerModel)
	}
	return c
}

// withStats returns a copy of c with the statistics derived from the
// per-model values, if there are any.
func withStats(c *Coefficient) *Coefficient {
	if c == nil {
		return nil
	}
	if len(c.PerModel) == 0 {
		cc := *c
		return &cc
	}
	cc := NewCoefficient(c.PerModel)
	return &cc
}

// Value returns the coefficient for the given model, or the multi-model
// mean when the model has no value.
func (c Coefficient) Value(model string) float64 {
	if v, ok := c.PerModel[model]; ok {
		return v
	}
	return c.Mean
}

// Models returns the sorted names of the models with a value.
func (c Coefficient) Models() []string { return modelNames(c.PerModel) }

// CoefficientEntry holds the response coefficients for a pollutant emitted
// in one region with the response measured in another.
type CoefficientEntry struct {
	Pollutant      Pollutant
	EmissionRegion string
	ResponseRegion string

	// Temperature and Precipitation coefficients. Either may be nil.
	Temperature, Precipitation *Coefficient
}

// Coefficient returns the entry's coefficient for q, if any.
func (e CoefficientEntry) Coefficient(q Quantity) (Coefficient, bool) {
	var c *Coefficient
	switch q {
	case Temperature:
		c = e.Temperature
	case Precipitation:
		c = e.Precipitation
	}
	if c == nil {
		return Coefficient{}, false
	}
	return *c, true
}

type coefficientKey struct {
	p      Pollutant
	er, rr string
}

// CoefficientTable holds the response coefficients for all supported
// combinations of pollutant, emission region, and response region.
// It is not modified after creation.
type CoefficientTable struct {
	regions *Regions
	entries map[coefficientKey]CoefficientEntry
	order   []coefficientKey
}

// NewCoefficientTable creates a coefficient table, checking that all
// regions are registered with the right category, that no combination
// appears twice, and that the temperature response implied by each
// coefficient has the sign expected for the species.
func NewCoefficientTable(regions *Regions, species map[Pollutant]Species, entries []CoefficientEntry) (*CoefficientTable, error) {
	t := &CoefficientTable{
		regions: regions,
		entries: make(map[coefficientKey]CoefficientEntry),
	}
	for _, e := range entries {
		name := fmt.Sprintf("%s[%s→%s]", e.Pollutant, e.EmissionRegion, e.ResponseRegion)
		er, ok := regions.Lookup(e.EmissionRegion)
		if !ok || er.Category&EmissionRegion == 0 {
			return nil, &InvalidParameterError{Parameter: name, Reason: fmt.Sprintf("%q is not an emission region", e.EmissionRegion)}
		}
		rr, ok := regions.Lookup(e.ResponseRegion)
		if !ok || rr.Category&ResponseRegion == 0 {
			return nil, &InvalidParameterError{Parameter: name, Reason: fmt.Sprintf("%q is not a response region", e.ResponseRegion)}
		}
		e.EmissionRegion, e.ResponseRegion = er.Name, rr.Name
		k := coefficientKey{p: e.Pollutant, er: er.Name, rr: rr.Name}
		if _, ok := t.entries[k]; ok {
			return nil, &InvalidParameterError{Parameter: name, Reason: "duplicate coefficient entry"}
		}
		if e.Temperature == nil && e.Precipitation == nil {
			return nil, &InvalidParameterError{Parameter: name, Reason: "entry has no coefficients"}
		}
		e.Temperature, e.Precipitation = withStats(e.Temperature), withStats(e.Precipitation)
		s, ok := species[e.Pollutant]
		if !ok {
			return nil, &InvalidParameterError{Parameter: name, Reason: "no species properties for " + e.Pollutant.String()}
		}
		if e.Temperature != nil {
			v := e.Temperature.Mean * s.RadiativeEfficiency
			if v*float64(s.TemperatureSign) < 0 {
				return nil, &InvalidParameterError{Parameter: name + ".Temperature",
					Reason: fmt.Sprintf("effective radiative efficiency %g has the wrong sign for %s", v, e.Pollutant)}
			}
		}
		t.entries[k] = e
		t.order = append(t.order, k)
	}
	return t, nil
}

// Lookup returns the entry for pollutant p emitted in region er with the
// response in region rr. It returns a *MissingCoefficientError if the
// combination is not in the table.
func (t *CoefficientTable) Lookup(p Pollutant, er, rr string) (CoefficientEntry, error) {
	e, ok := t.entries[coefficientKey{p: p, er: t.regions.Canonical(er), rr: t.regions.Canonical(rr)}]
	if !ok {
		return e, &MissingCoefficientError{Pollutant: p, EmissionRegion: er, ResponseRegion: rr}
	}
	return e, nil
}

// Coefficient returns the coefficient for quantity q. It returns a
// *MissingCoefficientError if the combination is not in the table or the
// entry has no coefficient for q.
func (t *CoefficientTable) Coefficient(p Pollutant, er, rr string, q Quantity) (Coefficient, error) {
	e, err := t.Lookup(p, er, rr)
	if err != nil {
		return Coefficient{}, err
	}
	c, ok := e.Coefficient(q)
	if !ok {
		return c, &MissingCoefficientError{Pollutant: p, EmissionRegion: er, ResponseRegion: rr, Quantity: &q}
	}
	return c, nil
}

// Has returns whether the table has an entry for the given combination.
func (t *CoefficientTable) Has(p Pollutant, er, rr string) bool {
	_, err := t.Lookup(p, er, rr)
	return err == nil
}

// EmissionRegions returns the regions where p can be emitted, in table order.
func (t *CoefficientTable) EmissionRegions(p Pollutant) []string {
	var o []string
	seen := make(map[string]bool)
	for _, k := range t.order {
		if k.p == p && !seen[k.er] {
			seen[k.er] = true
			o = append(o, k.er)
		}
	}
	return o
}

// ResponseRegions returns the response regions available for p emitted
// in region er, in table order.
func (t *CoefficientTable) ResponseRegions(p Pollutant, er string) []string {
	er = t.regions.Canonical(er)
	var o []string
	for _, k := range t.order {
		if k.p == p && k.er == er {
			o = append(o, k.rr)
		}
	}
	return o
}

// Entries returns all entries in table order.
func (t *CoefficientTable) Entries() []CoefficientEntry {
	o := make([]CoefficientEntry, len(t.order))
	for i, k := range t.order {
		o[i] = t.entries[k]
	}
	return o
}
