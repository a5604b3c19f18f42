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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/rem"
	"github.com/spatialmodel/rem/uncertainty"
	"github.com/spf13/cast"
)

// Uncertainty specifies how uncertainty ranges are estimated.
type Uncertainty struct {
	Method uncertainty.Method

	// Percentiles optionally holds the lower and upper percentiles
	// bounding ensemble results.
	Percentiles []float64
}

// propagator returns an uncertainty propagator for e.
func (u *Uncertainty) propagator(e *rem.Engine) (*uncertainty.Propagator, error) {
	opts := []uncertainty.Option{uncertainty.WithLogger(Log)}
	if len(u.Percentiles) == 2 {
		opts = append(opts, uncertainty.Percentiles(u.Percentiles[0], u.Percentiles[1]))
	}
	return uncertainty.New(e, opts...)
}

// referenceData loads the reference data specified by the ReferenceData
// configuration variable.
func referenceData(cfg *viper.Viper) (*rem.ReferenceData, error) {
	f := os.ExpandEnv(cfg.GetString("ReferenceData"))
	if f == "" {
		return rem.DefaultReferenceData()
	}
	Log.WithField("file", f).Info("loading reference data")
	return rem.ReadReferenceDataFile(f)
}

// engine creates a metrics engine from the configuration.
func engine(cfg *viper.Viper) (*rem.Engine, error) {
	ref, err := referenceData(cfg)
	if err != nil {
		return nil, err
	}
	onset, err := rem.ParseOnset(cfg.GetString("Onset"))
	if err != nil {
		return nil, err
	}
	return rem.NewEngine(ref, rem.WithOnset(onset), rem.WithLogger(Log))
}

// uncertaintyMethod returns the uncertainty estimate specified by the
// Uncertainty and Percentiles configuration variables, or nil if no
// uncertainty is requested.
func uncertaintyMethod(cfg *viper.Viper) (*Uncertainty, error) {
	s := strings.TrimSpace(cfg.GetString("Uncertainty"))
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	m, err := uncertainty.ParseMethod(s)
	if err != nil {
		return nil, err
	}
	u := &Uncertainty{Method: m}
	pct := cfg.GetStringSlice("Percentiles")
	switch len(pct) {
	case 0:
	case 2:
		for _, p := range pct {
			v, err := cast.ToFloat64E(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("rem: reading 'Percentiles': %v", err)
			}
			u.Percentiles = append(u.Percentiles, v)
		}
	default:
		return nil, fmt.Errorf("rem: 'Percentiles' must have 2 values but has %d", len(pct))
	}
	return u, nil
}

// parseMetrics converts metric names to metrics.
func parseMetrics(names []string) ([]rem.Metric, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("rem: no metrics specified")
	}
	o := make([]rem.Metric, len(names))
	for i, n := range names {
		m, err := rem.ParseMetric(n)
		if err != nil {
			return nil, err
		}
		o[i] = m
	}
	return o, nil
}

// checkOutputFile expands any environment variables in the output file
// path and makes sure that its directory exists. An empty path is allowed.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", nil
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("rem: the output file directory doesn't exist: %v", err)
	}
	return f, nil
}

// getSegments returns the scenario segments from a viper configuration,
// accounting for the fact that they might be a JSON string if they were
// set from a command line argument.
func getSegments(varName string, cfg *viper.Viper) ([]rem.Segment, error) {
	var raw []map[string]interface{}
	switch v := cfg.Get(varName).(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("rem: no emission scenario segments in '%s'", varName)
		}
		if err := json.Unmarshal([]byte(v), &raw); err != nil {
			return nil, fmt.Errorf("rem: reading '%s': %v", varName, err)
		}
	case []map[string]interface{}:
		raw = v
	case []interface{}:
		for _, s := range v {
			m, err := cast.ToStringMapE(s)
			if err != nil {
				return nil, fmt.Errorf("rem: reading '%s': %v", varName, err)
			}
			raw = append(raw, m)
		}
	default:
		return nil, fmt.Errorf("rem: invalid type for '%s': %#v", varName, v)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("rem: no emission scenario segments in '%s'", varName)
	}
	units := cfg.GetString("Scenario.Units")
	o := make([]rem.Segment, len(raw))
	for i, m := range raw {
		s, err := segmentFromMap(m, units)
		if err != nil {
			return nil, fmt.Errorf("rem: reading '%s' segment %d: %v", varName, i, err)
		}
		o[i] = s
	}
	return o, nil
}

// segmentFromMap creates a segment from its configuration fields. Field
// names are not case-sensitive.
func segmentFromMap(m map[string]interface{}, units string) (rem.Segment, error) {
	get := func(name string) (interface{}, bool) {
		for k, v := range m {
			if strings.EqualFold(k, name) {
				return v, true
			}
		}
		return nil, false
	}
	var s rem.Segment
	v, ok := get("Pollutant")
	if !ok {
		return s, fmt.Errorf("missing Pollutant")
	}
	p, err := rem.ParsePollutant(cast.ToString(v))
	if err != nil {
		return s, err
	}
	s.Pollutant = p
	if v, ok = get("Region"); !ok {
		return s, fmt.Errorf("missing Region")
	}
	s.Region = cast.ToString(v)
	if v, ok = get("Start"); !ok {
		return s, fmt.Errorf("missing Start")
	}
	if s.Start, err = cast.ToIntE(v); err != nil {
		return s, fmt.Errorf("Start: %v", err)
	}
	s.End = s.Start
	if v, ok = get("End"); ok {
		if s.End, err = cast.ToIntE(v); err != nil {
			return s, fmt.Errorf("End: %v", err)
		}
	}
	if v, ok = get("From"); ok {
		if s.From, err = cast.ToFloat64E(v); err != nil {
			return s, fmt.Errorf("From: %v", err)
		}
	}
	if v, ok = get("To"); !ok {
		return s, fmt.Errorf("missing To")
	}
	if s.To, err = cast.ToFloat64E(v); err != nil {
		return s, fmt.Errorf("To: %v", err)
	}
	s.Units = units
	if v, ok = get("Units"); ok {
		s.Units = cast.ToString(v)
	}
	if v, ok = get("Shape"); ok {
		s.Shape = cast.ToString(v)
	}
	return s, nil
}
