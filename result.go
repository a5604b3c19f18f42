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

// Point is a value in a time series.
type Point struct {
	Year  int
	Value float64
}

// Contribution is the part of a potential carried by one term of the
// response: a mode of the climate response for temperature, or the slow or
// fast part of the precipitation response.
type Contribution struct {
	Name  string
	Value float64
}

// Provenance records the inputs a result was computed from.
type Provenance struct {
	Sources        []Source
	ResponseRegion string
	Quantity       Quantity

	// Horizon is the time horizon of a potential [years]. It is zero for
	// time series.
	Horizon float64

	// Scalings are the scaling factors that were applied, by pollutant.
	Scalings map[Pollutant][]ScalingKind

	// Kernels are the labels of the impulse responses used, by pollutant.
	Kernels map[Pollutant]string

	Assumptions Assumptions

	// Onset is the step-interpolation convention of a time series.
	Onset Onset
}

// MetricResult is the result of a metric computation: either a scalar
// potential or a time series. Results are not modified after creation.
type MetricResult struct {
	// Metric is the potential that was calculated. It is only meaningful
	// when Series is nil.
	Metric Metric

	// Value is the potential.
	Value float64

	// Components split Value by response term.
	Components []Contribution

	// Series is the response in each year, ordered by year.
	Series []Point

	Unit       string
	Provenance Provenance
}

// IsSeries returns whether r is a time series.
func (r *MetricResult) IsSeries() bool { return r.Series != nil }

// At returns the value of a time series in the given year.
func (r *MetricResult) At(year int) (float64, bool) {
	if len(r.Series) == 0 {
		return 0, false
	}
	i := year - r.Series[0].Year
	if i < 0 || i >= len(r.Series) {
		return 0, false
	}
	return r.Series[i].Value, true
}

// Values returns the scalar value, or the values of a time series.
func (r *MetricResult) Values() []float64 {
	if !r.IsSeries() {
		return []float64{r.Value}
	}
	o := make([]float64, len(r.Series))
	for i, p := range r.Series {
		o[i] = p.Value
	}
	return o
}

// WithValues returns a copy of r with its value or series values replaced
// by v, which must have the same length as r.Values(). Components are
// dropped.
func (r *MetricResult) WithValues(v []float64) *MetricResult {
	o := *r
	o.Components = nil
	if !r.IsSeries() {
		o.Value = v[0]
		return &o
	}
	o.Series = make([]Point, len(r.Series))
	for i, p := range r.Series {
		o.Series[i] = Point{Year: p.Year, Value: v[i]}
	}
	return &o
}

func (r *MetricResult) String() string {
	if r.IsSeries() {
		return fmt.Sprintf("%s response in %s, %d–%d [%s]", r.Provenance.Quantity, r.Provenance.ResponseRegion,
			r.Series[0].Year, r.Series[len(r.Series)-1].Year, r.Unit)
	}
	return fmt.Sprintf("%s(%g) = %.4g %s", r.Metric, r.Provenance.Horizon, r.Value, r.Unit)
}

// seriesUnit returns the units of a response time series.
func seriesUnit(q Quantity) string {
	if q == Precipitation {
		return "mm day-1"
	}
	return "K"
}
