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
	"strings"

	"github.com/ctessum/unit"
)

// secondsPerYear is the length of a Julian year.
const secondsPerYear = 365.25 * 24 * 60 * 60

// kilogramPerSecond is the dimension of an emission rate.
var kilogramPerSecond = unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -1}

// rateUnits holds the conversion factors from supported emission rate
// units to kg/s.
var rateUnits = map[string]float64{
	"kg/s":      1,
	"g/s":       1.e-3,
	"ug/s":      1.e-9,
	"μg/s":      1.e-9,
	"kg/year":   1 / secondsPerYear,
	"tons/year": 1.e3 / secondsPerYear,
	"gg/year":   1.e6 / secondsPerYear,
	"kt/year":   1.e6 / secondsPerYear,
	"tg/year":   1.e9 / secondsPerYear,
	"mt/year":   1.e9 / secondsPerYear,
}

// RateUnits lists the names of the supported emission rate units.
var RateUnits = []string{"kg/s", "g/s", "ug/s", "kg/year", "tons/year", "Gg/year", "kt/year", "Tg/year", "Mt/year"}

func normalizeRateUnit(u string) string {
	u = strings.ToLower(strings.Replace(strings.TrimSpace(u), " ", "", -1))
	u = strings.Replace(u, "/yr", "/year", 1)
	u = strings.Replace(u, "tonnes/", "tons/", 1)
	u = strings.Replace(u, "ton/", "tons/", 1)
	return u
}

// ConvertRate converts an emission rate in the given units to kg/year.
func ConvertRate(value float64, units string) (float64, error) {
	f, ok := rateUnits[normalizeRateUnit(units)]
	if !ok {
		return 0, &InvalidParameterError{Parameter: "units",
			Reason: fmt.Sprintf("unsupported emission rate unit %q; must be one of %v", units, RateUnits)}
	}
	return RateFromUnit(unit.New(value*f, kilogramPerSecond))
}

// RateFromUnit converts a dimensioned emission rate to kg/year. It
// returns an error if u is not a mass per time.
func RateFromUnit(u *unit.Unit) (float64, error) {
	if err := u.Check(kilogramPerSecond); err != nil {
		return 0, &InvalidParameterError{Parameter: "rate", Reason: err.Error()}
	}
	return u.Value() * secondsPerYear, nil
}
