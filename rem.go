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

// Package rem calculates regional emission climate metrics: the absolute
// regional temperature and precipitation potentials (ARTP and ARPP) of
// pulse emissions of short-lived pollutants and CO2, their time-integrated
// forms (iARTP and iARPP), and the regional temperature and precipitation
// response to emission scenarios.
//
// Potentials are the product of a regional response coefficient, which
// links emissions in one region to the response in another, scaling
// factors that map the reference model onto other climate models, and an
// impulse response kernel (see package irf) that describes how the response
// fades with time.
package rem

// Version is the version of REM.
const Version = "0.1.0" // versioning scheme at: http://semver.org/
