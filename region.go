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
	"sort"
	"strings"

	"github.com/ctessum/geom"
)

// Category specifies the roles a region can play.
type Category int

// Region categories. They can be combined.
const (
	EmissionRegion Category = 1 << iota
	ResponseRegion
)

func (c Category) String() string {
	var s []string
	if c&EmissionRegion != 0 {
		s = append(s, "emission")
	}
	if c&ResponseRegion != 0 {
		s = append(s, "response")
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, "+")
}

// Region is a named geographic area where pollutants are emitted or where
// the climate response is measured.
type Region struct {
	Name     string
	Category Category

	// Bounds is the longitude (X) and latitude (Y) extent of the region
	// in degrees.
	Bounds *geom.Bounds
}

// Regions is a registry of regions.
type Regions struct {
	byKey map[string]Region
	names []string
}

// regionKey normalizes region names so that, for example, "EastAsia"
// and "East Asia" refer to the same region.
func regionKey(name string) string {
	return strings.ToLower(strings.Replace(strings.TrimSpace(name), " ", "", -1))
}

// NewRegions creates a registry from the given regions.
func NewRegions(regions ...Region) (*Regions, error) {
	r := &Regions{byKey: make(map[string]Region)}
	for _, reg := range regions {
		k := regionKey(reg.Name)
		if k == "" {
			return nil, &InvalidParameterError{Parameter: "Region.Name", Reason: "empty region name"}
		}
		if _, ok := r.byKey[k]; ok {
			return nil, &InvalidParameterError{Parameter: "Region.Name", Reason: fmt.Sprintf("duplicate region %q", reg.Name)}
		}
		if reg.Bounds != nil && (reg.Bounds.Min.X > reg.Bounds.Max.X || reg.Bounds.Min.Y > reg.Bounds.Max.Y) {
			return nil, &InvalidParameterError{Parameter: reg.Name + ".Bounds", Reason: "minimum exceeds maximum"}
		}
		r.byKey[k] = reg
		r.names = append(r.names, reg.Name)
	}
	return r, nil
}

func box(lonMin, lonMax, latMin, latMax float64) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: lonMin, Y: latMin},
		Max: geom.Point{X: lonMax, Y: latMax},
	}
}

// DefaultRegions returns the regions of the precomputed simulations.
func DefaultRegions() *Regions {
	const both = EmissionRegion | ResponseRegion
	r, err := NewRegions(
		Region{Name: "Global", Category: both, Bounds: box(0, 360, -90, 90)},
		Region{Name: "Tropics", Category: ResponseRegion, Bounds: box(0, 360, -30, 30)},
		Region{Name: "NHML", Category: both, Bounds: box(0, 360, 30, 60)},
		Region{Name: "NHHL", Category: ResponseRegion, Bounds: box(0, 360, 60, 90)},
		Region{Name: "SHML", Category: ResponseRegion, Bounds: box(0, 360, -60, -30)},
		Region{Name: "SHHL", Category: ResponseRegion, Bounds: box(0, 360, -90, -60)},
		Region{Name: "Europe", Category: both, Bounds: box(-10, 40, 37, 70)},
		Region{Name: "US", Category: both, Bounds: box(235, 290, 30, 50)},
		Region{Name: "China", Category: both, Bounds: box(80, 120, 20, 50)},
		Region{Name: "East Asia", Category: both, Bounds: box(105, 145, 20, 45)},
		Region{Name: "India", Category: both, Bounds: box(70, 90, 10, 30)},
		Region{Name: "Sahel", Category: ResponseRegion, Bounds: box(-17, 38, 9, 19)},
		Region{Name: "Asia", Category: EmissionRegion, Bounds: box(60, 140, 10, 50)},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the region with the given name.
func (r *Regions) Lookup(name string) (Region, bool) {
	reg, ok := r.byKey[regionKey(name)]
	return reg, ok
}

// Canonical returns the registered spelling of a region name, or the
// name itself if it is not registered.
func (r *Regions) Canonical(name string) string {
	if reg, ok := r.Lookup(name); ok {
		return reg.Name
	}
	return name
}

// Names returns the names of all regions with any of the given categories,
// in registration order.
func (r *Regions) Names(c Category) []string {
	var o []string
	for _, n := range r.names {
		if r.byKey[regionKey(n)].Category&c != 0 {
			o = append(o, n)
		}
	}
	return o
}

// Overlapping returns the names of the other regions whose extent overlaps
// the named region, sorted alphabetically.
func (r *Regions) Overlapping(name string) ([]string, error) {
	reg, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("rem: unknown region %q", name)
	}
	if reg.Bounds == nil {
		return nil, nil
	}
	var o []string
	for _, other := range r.byKey {
		if other.Name == reg.Name || other.Bounds == nil {
			continue
		}
		if reg.Bounds.Overlaps(other.Bounds) {
			o = append(o, other.Name)
		}
	}
	sort.Strings(o)
	return o, nil
}
