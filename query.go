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

// Query is a metric computation request. It is implemented by
// PotentialQuery and SeriesQuery.
type Query interface {
	// Sources returns the emission sources the query depends on.
	Sources() []Source

	// Split returns one query per source. Summing the results of the
	// split queries gives the result of the original query.
	Split() ([]Query, error)

	evaluate(e *Engine, a Assumptions) (*MetricResult, error)
	target() (responseRegion string, q Quantity)
}

// Assumptions select the parameter values a metric is computed with.
// The zero value selects the nominal multi-model mean computation.
type Assumptions struct {
	// Model selects the coefficients and scaling factors of a single
	// model instead of the multi-model mean. Where the model has no value
	// the mean is used.
	Model string

	// LifetimeSigma offsets the atmospheric lifetime of lifetime-limited
	// pollutants by this many standard deviations.
	LifetimeSigma float64
}

// PotentialQuery requests the potential of a unit pulse emission.
type PotentialQuery struct {
	Pollutant      Pollutant
	EmissionRegion string
	ResponseRegion string

	// Horizon is the time horizon [years].
	Horizon float64

	Metric Metric
}

// Sources implements Query.
func (q PotentialQuery) Sources() []Source {
	return []Source{{Pollutant: q.Pollutant, Region: q.EmissionRegion}}
}

// Split implements Query.
func (q PotentialQuery) Split() ([]Query, error) { return []Query{q}, nil }

func (q PotentialQuery) evaluate(e *Engine, a Assumptions) (*MetricResult, error) {
	return e.potential(q, a)
}

func (q PotentialQuery) target() (string, Quantity) { return q.ResponseRegion, q.Metric.Quantity() }

// SeriesQuery requests the response to an emission scenario in every year
// of the scenario.
type SeriesQuery struct {
	Scenario       *EmissionScenario
	ResponseRegion string
	Quantity       Quantity
}

// Sources implements Query.
func (q SeriesQuery) Sources() []Source {
	if q.Scenario == nil {
		return nil
	}
	return q.Scenario.Sources()
}

// Split implements Query.
func (q SeriesQuery) Split() ([]Query, error) {
	if q.Scenario == nil {
		return nil, &InvalidScenarioError{Reason: "no scenario"}
	}
	var o []Query
	for _, src := range q.Scenario.Sources() {
		s, err := q.Scenario.Subset(src)
		if err != nil {
			return nil, err
		}
		o = append(o, SeriesQuery{Scenario: s, ResponseRegion: q.ResponseRegion, Quantity: q.Quantity})
	}
	return o, nil
}

func (q SeriesQuery) evaluate(e *Engine, a Assumptions) (*MetricResult, error) {
	return e.series(q, a)
}

func (q SeriesQuery) target() (string, Quantity) { return q.ResponseRegion, q.Quantity }
