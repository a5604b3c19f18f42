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
	"errors"
	"fmt"
	"math"

	"github.com/spatialmodel/rem"
	"github.com/tealeg/xlsx"
)

// Table calculates the given metrics for every pollutant, emission region,
// and response region combination in the reference data of e at each of the
// horizons, and returns them as a spreadsheet with one sheet per metric and
// horizon. Each cell holds a potential and its standard deviation. Cells
// are left empty for combinations without coefficients.
func Table(e *rem.Engine, horizons []int, metrics []rem.Metric) (*xlsx.File, error) {
	ref := e.Reference()
	responseRegions := ref.Regions.Names(rem.ResponseRegion)
	f := xlsx.NewFile()
	for _, m := range metrics {
		for _, h := range horizons {
			sheet, err := f.AddSheet(fmt.Sprintf("%s %d", m, h))
			if err != nil {
				return nil, err
			}
			title := sheet.AddRow()
			title.AddCell().SetString(fmt.Sprintf("%s(%d) [%s]", m, h, m.Unit()))
			header := sheet.AddRow()
			header.AddCell().SetString("Pollutant")
			header.AddCell().SetString("Emission region")
			for _, rr := range responseRegions {
				header.AddCell().SetString(rr)
			}
			for _, p := range rem.Pollutants {
				for _, er := range ref.Coefficients.EmissionRegions(p) {
					row := sheet.AddRow()
					row.AddCell().SetString(p.String())
					row.AddCell().SetString(er)
					for _, rr := range responseRegions {
						cell := row.AddCell()
						v, std, err := potentialWithStd(e, rem.PotentialQuery{Pollutant: p, EmissionRegion: er,
							ResponseRegion: rr, Horizon: float64(h), Metric: m})
						if err != nil {
							var merr *rem.MissingCoefficientError
							if errors.As(err, &merr) {
								continue
							}
							return nil, err
						}
						cell.SetString(fmt.Sprintf("%.3g ± %.2g", v, std))
					}
				}
			}
		}
	}
	return f, nil
}

// potentialWithStd returns the value of q and its standard deviation.
func potentialWithStd(e *rem.Engine, q rem.PotentialQuery) (v, std float64, err error) {
	r, err := e.Evaluate(q, rem.Assumptions{})
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	rel, err := e.RelativeStd(q)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	return r.Value, math.Abs(r.Value) * rel, nil
}
