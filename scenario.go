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
)

// Emission is an emission rate of a pollutant from a region, starting in
// a given year.
type Emission struct {
	Year      int
	Region    string
	Pollutant Pollutant

	// Rate is the emission rate [kg/year]. It holds until the next
	// entry for the same region and pollutant.
	Rate float64

	// Step marks an entry that takes effect in its stated year regardless
	// of the onset convention.
	Step bool
}

// Source is a pollutant emitted from a region.
type Source struct {
	Pollutant Pollutant
	Region    string
}

func (s Source) String() string { return fmt.Sprintf("%s from %s", s.Pollutant, s.Region) }

func (s Source) key() Source {
	return Source{Pollutant: s.Pollutant, Region: regionKey(s.Region)}
}

// Onset specifies when a change in emission rate takes effect.
type Onset int

const (
	// OnsetAtYear applies a new rate from its stated year.
	OnsetAtYear Onset = iota

	// OnsetFollowingYear applies a new rate from the year after its
	// stated year, unless the entry is marked as a step.
	OnsetFollowingYear
)

func (o Onset) String() string {
	switch o {
	case OnsetAtYear:
		return "year"
	case OnsetFollowingYear:
		return "following"
	default:
		return fmt.Sprintf("Onset(%d)", int(o))
	}
}

// ParseOnset returns the onset convention with the given name.
func ParseOnset(s string) (Onset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "year", "at", "atyear":
		return OnsetAtYear, nil
	case "following", "next", "followingyear":
		return OnsetFollowingYear, nil
	}
	return -1, fmt.Errorf("rem: invalid onset convention %q; must be 'year' or 'following'", s)
}

// MaxScenarioYears is the longest time axis a scenario may span.
const MaxScenarioYears = 10000

// checkSpan returns an error if the years from start to end span more than
// MaxScenarioYears.
func checkSpan(start, end int) *InvalidScenarioError {
	if n := int64(end) - int64(start) + 1; n > MaxScenarioYears {
		return &InvalidScenarioError{Year: end,
			Reason: fmt.Sprintf("%d–%d spans %d years; at most %d are allowed", start, end, n, MaxScenarioYears)}
	}
	return nil
}

// EmissionScenario is a validated set of emission time series. It is not
// modified after creation.
type EmissionScenario struct {
	// entries are sorted by source and then by year.
	entries []Emission
	sources []Source
	start   int
	end     int
}

// NewEmissionScenario validates the given entries and creates a scenario
// from them. Entry order does not matter. Each year may appear at most once
// for each region and pollutant, and rates must be non-negative. Years
// without an entry hold the rate of the previous entry for that region and
// pollutant; before the first entry the rate is zero. The years may span at
// most MaxScenarioYears.
func NewEmissionScenario(entries ...Emission) (*EmissionScenario, error) {
	if len(entries) == 0 {
		return nil, &InvalidScenarioError{Reason: "no emissions"}
	}
	s := &EmissionScenario{entries: make([]Emission, len(entries))}
	copy(s.entries, entries)
	seen := make(map[Source]map[int]bool)
	for _, e := range s.entries {
		if strings.TrimSpace(e.Region) == "" {
			return nil, &InvalidScenarioError{Year: e.Year, Region: e.Region, Pollutant: e.Pollutant, Reason: "missing region"}
		}
		if e.Rate < 0 || math.IsNaN(e.Rate) || math.IsInf(e.Rate, 0) {
			return nil, &InvalidScenarioError{Year: e.Year, Region: e.Region, Pollutant: e.Pollutant,
				Reason: fmt.Sprintf("emission rate %g must be non-negative and finite", e.Rate)}
		}
		k := Source{Pollutant: e.Pollutant, Region: e.Region}.key()
		if seen[k] == nil {
			seen[k] = make(map[int]bool)
			s.sources = append(s.sources, Source{Pollutant: e.Pollutant, Region: e.Region})
		}
		if seen[k][e.Year] {
			return nil, &InvalidScenarioError{Year: e.Year, Region: e.Region, Pollutant: e.Pollutant, Reason: "duplicate year"}
		}
		seen[k][e.Year] = true
	}
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		if a.Pollutant != b.Pollutant {
			return a.Pollutant < b.Pollutant
		}
		if ra, rb := regionKey(a.Region), regionKey(b.Region); ra != rb {
			return ra < rb
		}
		return a.Year < b.Year
	})
	sort.SliceStable(s.sources, func(i, j int) bool {
		if s.sources[i].Pollutant != s.sources[j].Pollutant {
			return s.sources[i].Pollutant < s.sources[j].Pollutant
		}
		return regionKey(s.sources[i].Region) < regionKey(s.sources[j].Region)
	})
	s.start, s.end = math.MaxInt32, math.MinInt32
	for _, e := range s.entries {
		if e.Year < s.start {
			s.start = e.Year
		}
		if e.Year > s.end {
			s.end = e.Year
		}
	}
	if err := checkSpan(s.start, s.end); err != nil {
		return nil, err
	}
	return s, nil
}

// WithEnd returns a copy of s whose time axis extends to (or is truncated
// at) the given year.
func (s *EmissionScenario) WithEnd(year int) (*EmissionScenario, error) {
	if year < s.start {
		return nil, &InvalidScenarioError{Year: year, Reason: fmt.Sprintf("end year is before the first emission year %d", s.start)}
	}
	if err := checkSpan(s.start, year); err != nil {
		return nil, err
	}
	o := *s
	o.end = year
	return &o, nil
}

// Start returns the first year of the scenario.
func (s *EmissionScenario) Start() int { return s.start }

// End returns the last year of the scenario.
func (s *EmissionScenario) End() int { return s.end }

// Years returns the years from Start to End.
func (s *EmissionScenario) Years() []int {
	o := make([]int, s.end-s.start+1)
	for i := range o {
		o[i] = s.start + i
	}
	return o
}

// Sources returns the pollutant and region combinations in the scenario.
func (s *EmissionScenario) Sources() []Source {
	o := make([]Source, len(s.sources))
	copy(o, s.sources)
	return o
}

// Entries returns the scenario entries sorted by pollutant, region,
// and year.
func (s *EmissionScenario) Entries() []Emission {
	o := make([]Emission, len(s.entries))
	copy(o, s.entries)
	return o
}

// Subset returns a scenario holding only the entries of src, with the same
// time axis as s.
func (s *EmissionScenario) Subset(src Source) (*EmissionScenario, error) {
	var e []Emission
	for _, ee := range s.entries {
		if (Source{Pollutant: ee.Pollutant, Region: ee.Region}).key() == src.key() {
			e = append(e, ee)
		}
	}
	o, err := NewEmissionScenario(e...)
	if err != nil {
		return nil, err
	}
	o.start, o.end = s.start, s.end
	return o, nil
}

// AnnualRates returns the emission rate [kg/year] of src in every year
// from Start to End, holding each rate constant until the next entry
// takes effect.
func (s *EmissionScenario) AnnualRates(src Source, onset Onset) []float64 {
	o := make([]float64, s.end-s.start+1)
	var e []Emission
	for _, ee := range s.entries {
		if (Source{Pollutant: ee.Pollutant, Region: ee.Region}).key() == src.key() {
			e = append(e, ee)
		}
	}
	effective := func(ee Emission) int {
		if onset == OnsetFollowingYear && !ee.Step {
			return ee.Year + 1
		}
		return ee.Year
	}
	next := 0
	rate := 0.
	for i := range o {
		y := s.start + i
		for next < len(e) && effective(e[next]) <= y {
			rate = e[next].Rate
			next++
		}
		o[i] = rate
	}
	return o
}
