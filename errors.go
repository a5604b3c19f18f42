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

// InvalidHorizonError is returned when a time horizon is not positive.
type InvalidHorizonError struct {
	Horizon float64
}

func (e *InvalidHorizonError) Error() string {
	return fmt.Sprintf("rem: time horizon must be positive, but is %g years", e.Horizon)
}

// MissingCoefficientError is returned when the coefficient table has no
// entry for a pollutant, emission region, and response region combination.
// Missing coefficients are never treated as zero.
type MissingCoefficientError struct {
	Pollutant                      Pollutant
	EmissionRegion, ResponseRegion string

	// Quantity is set when the entry exists but lacks a coefficient for
	// this quantity.
	Quantity *Quantity
}

func (e *MissingCoefficientError) Error() string {
	if e.Quantity != nil {
		return fmt.Sprintf("rem: no %s coefficient for %s emitted in %s with response in %s",
			*e.Quantity, e.Pollutant, e.EmissionRegion, e.ResponseRegion)
	}
	return fmt.Sprintf("rem: no coefficients for %s emitted in %s with response in %s",
		e.Pollutant, e.EmissionRegion, e.ResponseRegion)
}

// InvalidScenarioError is returned for emission scenarios with duplicate
// years for the same region and pollutant or with negative emission rates.
type InvalidScenarioError struct {
	Year      int
	Region    string
	Pollutant Pollutant
	Reason    string
}

func (e *InvalidScenarioError) Error() string {
	return fmt.Sprintf("rem: invalid emission scenario entry (year %d, region %s, pollutant %s): %s",
		e.Year, e.Region, e.Pollutant, e.Reason)
}

// InvalidParameterError is returned for invalid reference data or
// parameter perturbation requests.
type InvalidParameterError struct {
	Parameter string
	Reason    string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("rem: invalid parameter %s: %s", e.Parameter, e.Reason)
}
