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

package remutil

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rem"
	"github.com/spatialmodel/rem/uncertainty"
)

// PotentialRow is a calculated potential.
type PotentialRow struct {
	Pollutant      rem.Pollutant
	EmissionRegion string
	ResponseRegion string
	Metric         rem.Metric
	Horizon        float64
	Value          float64

	// Lower and Upper bound the uncertainty range. They are NaN if no
	// uncertainty was estimated.
	Lower, Upper float64

	Unit string
}

// Potentials calculates the given metrics for a pulse emission of p from
// region er, in each of the response regions rrs, at horizon h. If rrs is
// empty, all response regions with coefficients for p and er are used.
// If u is not nil, uncertainty ranges are estimated.
func Potentials(e *rem.Engine, u *Uncertainty, p rem.Pollutant, er string, rrs []string, h float64, metrics []rem.Metric) ([]PotentialRow, error) {
	if len(rrs) == 0 {
		rrs = e.Reference().Coefficients.ResponseRegions(p, er)
		if len(rrs) == 0 {
			return nil, fmt.Errorf("rem: no response regions for %s emitted in %s", p, er)
		}
	}
	var prop *uncertainty.Propagator
	if u != nil {
		var err error
		if prop, err = u.propagator(e); err != nil {
			return nil, err
		}
	}
	var o []PotentialRow
	for _, rr := range rrs {
		for _, m := range metrics {
			q := rem.PotentialQuery{Pollutant: p, EmissionRegion: er, ResponseRegion: rr, Horizon: h, Metric: m}
			row := PotentialRow{Pollutant: p, EmissionRegion: er, ResponseRegion: rr, Metric: m, Horizon: h,
				Lower: math.NaN(), Upper: math.NaN()}
			if prop == nil {
				r, err := e.Evaluate(q, rem.Assumptions{})
				if err != nil {
					return nil, err
				}
				row.Value, row.Unit = r.Value, r.Unit
			} else {
				r, err := prop.Propagate(q, u.Method)
				if err != nil {
					return nil, err
				}
				row.Value, row.Lower, row.Upper, row.Unit = r.Central.Value, r.Lower.Value, r.Upper.Value, r.Central.Unit
			}
			Log.WithFields(logrus.Fields{
				"pollutant":       p,
				"emission_region": er,
				"response_region": rr,
				"metric":          m,
				"horizon":         h,
				"value":           row.Value,
			}).Info("calculated potential")
			o = append(o, row)
		}
	}
	return o, nil
}

// WritePotentials writes a table of potentials to w.
func WritePotentials(w io.Writer, rows []PotentialRow) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Pollutant\tEmission region\tResponse region\tMetric\tHorizon\tValue\tLower\tUpper\tUnits")
	for _, r := range rows {
		lo, hi := "", ""
		if !math.IsNaN(r.Lower) {
			lo, hi = fmt.Sprintf("%.4g", r.Lower), fmt.Sprintf("%.4g", r.Upper)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g\t%.4g\t%s\t%s\t%s\n", r.Pollutant, r.EmissionRegion,
			r.ResponseRegion, r.Metric, r.Horizon, r.Value, lo, hi, r.Unit)
	}
	return tw.Flush()
}
