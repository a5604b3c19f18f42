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
	"strings"

	"github.com/Knetic/govaluate"
)

// Shapes that can be used for scenario segments, in addition to
// arbitrary expressions of x.
const (
	Sustained = "sustained"
	Linear    = "linear"
	Quadratic = "quadratic"
	Sine      = "sine"
)

// Segment is a period of emissions from a single source whose rate
// changes from From to To following Shape.
type Segment struct {
	Pollutant Pollutant
	Region    string

	// Start and End are the first and last years of the segment.
	Start, End int

	// From and To are the rates at the start and end of the segment.
	// A Sustained segment emits To throughout.
	From, To float64

	// Units are the units of From and To. The default is kg/year.
	Units string

	// Shape is one of Sustained, Linear, Quadratic, or Sine, or an
	// expression of x, the fraction of the segment that has elapsed
	// (0 < x ≤ 1), that is 0 at the start and 1 at the end of the
	// segment; for example "x ** 3" or "1 - exp(-5 * x)".
	Shape string
}

// ShapeFunc maps the elapsed fraction of a segment to the fraction of the
// rate change that has occurred.
type ShapeFunc func(x float64) (float64, error)

var shapeFunctions = map[string]govaluate.ExpressionFunction{
	"sin":  unaryFunction("sin", math.Sin),
	"cos":  unaryFunction("cos", math.Cos),
	"exp":  unaryFunction("exp", math.Exp),
	"log":  unaryFunction("log", math.Log),
	"sqrt": unaryFunction("sqrt", math.Sqrt),
}

func unaryFunction(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("rem: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		v, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("rem: argument to '%s' must be a number", name)
		}
		return f(v), nil
	}
}

// ParseShape returns the function for the named shape or expression.
func ParseShape(shape string) (ShapeFunc, error) {
	switch strings.ToLower(strings.TrimSpace(shape)) {
	case "", Sustained:
		return func(float64) (float64, error) { return 1, nil }, nil
	case Linear:
		return func(x float64) (float64, error) { return x, nil }, nil
	case Quadratic:
		return func(x float64) (float64, error) { return x * x, nil }, nil
	case Sine, "sin":
		return func(x float64) (float64, error) { return math.Sin(math.Pi / 2 * x), nil }, nil
	}
	expression, err := govaluate.NewEvaluableExpressionWithFunctions(shape, shapeFunctions)
	if err != nil {
		return nil, fmt.Errorf("rem: invalid segment shape %q: %v", shape, err)
	}
	for _, v := range expression.Vars() {
		if v != "x" && v != "pi" {
			return nil, fmt.Errorf("rem: segment shape %q has unknown variable %q; only x and pi are allowed", shape, v)
		}
	}
	return func(x float64) (float64, error) {
		r, err := expression.Evaluate(map[string]interface{}{"x": x, "pi": math.Pi})
		if err != nil {
			return 0, fmt.Errorf("rem: evaluating segment shape %q: %v", shape, err)
		}
		v, ok := r.(float64)
		if !ok {
			return 0, fmt.Errorf("rem: segment shape %q returned %T, not a number", shape, r)
		}
		return v, nil
	}, nil
}

// Rates returns the emission entries of the segment, one per year, with
// rates in kg/year.
func (s Segment) Rates() ([]Emission, error) {
	if s.End < s.Start {
		return nil, &InvalidScenarioError{Year: s.End, Region: s.Region, Pollutant: s.Pollutant,
			Reason: fmt.Sprintf("segment ends before it starts in %d", s.Start)}
	}
	if err := checkSpan(s.Start, s.End); err != nil {
		err.Region, err.Pollutant = s.Region, s.Pollutant
		return nil, err
	}
	f, err := ParseShape(s.Shape)
	if err != nil {
		return nil, err
	}
	units := s.Units
	if units == "" {
		units = "kg/year"
	}
	from, err := ConvertRate(s.From, units)
	if err != nil {
		return nil, err
	}
	to, err := ConvertRate(s.To, units)
	if err != nil {
		return nil, err
	}
	n := s.End - s.Start + 1
	o := make([]Emission, n)
	for i := range o {
		x := float64(i+1) / float64(n)
		v, err := f(x)
		if err != nil {
			return nil, err
		}
		o[i] = Emission{
			Year:      s.Start + i,
			Region:    s.Region,
			Pollutant: s.Pollutant,
			Rate:      from + (to-from)*v,
		}
	}
	return o, nil
}

// Compose expands the segments into annual emission entries and creates
// a scenario from them. After the end of a segment its final rate holds
// unless a later segment for the same source changes it.
func Compose(segments ...Segment) (*EmissionScenario, error) {
	var e []Emission
	for _, s := range segments {
		r, err := s.Rates()
		if err != nil {
			return nil, err
		}
		e = append(e, r...)
	}
	return NewEmissionScenario(e...)
}
