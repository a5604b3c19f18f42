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
	"encoding/csv"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/spatialmodel/rem"
	"github.com/spatialmodel/rem/uncertainty"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Series composes an emission scenario from segments and calculates the
// response of quantity q in region rr in every year of the scenario. If end
// is not zero, the series ends in that year. If u is not nil, uncertainty
// ranges are estimated; otherwise only the central estimate of the result
// is set.
func Series(e *rem.Engine, u *Uncertainty, segments []rem.Segment, end int, rr string, q rem.Quantity) (*uncertainty.UncertaintyResult, error) {
	s, err := rem.Compose(segments...)
	if err != nil {
		return nil, err
	}
	if end != 0 {
		if s, err = s.WithEnd(end); err != nil {
			return nil, err
		}
	}
	query := rem.SeriesQuery{Scenario: s, ResponseRegion: rr, Quantity: q}
	Log.WithField("sources", s.Sources()).Infof("calculating %s response in %s for %d–%d", q, rr, s.Start(), s.End())
	if u == nil {
		r, err := e.Evaluate(query, rem.Assumptions{})
		if err != nil {
			return nil, err
		}
		return &uncertainty.UncertaintyResult{Central: r}, nil
	}
	prop, err := u.propagator(e)
	if err != nil {
		return nil, err
	}
	return prop.Propagate(query, u.Method)
}

// WriteSeries writes a response time series and its uncertainty range, if
// any, to w in CSV format.
func WriteSeries(w io.Writer, r *uncertainty.UncertaintyResult) error {
	cw := csv.NewWriter(w)
	header := []string{"Year", fmt.Sprintf("%s (%s)", r.Central.Provenance.Quantity, r.Central.Unit)}
	if r.Lower != nil {
		header = append(header, "Lower", "Upper")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i, p := range r.Central.Series {
		rec := []string{strconv.Itoa(p.Year), format(p.Value)}
		if r.Lower != nil {
			rec = append(rec, format(r.Lower.Series[i].Value), format(r.Upper.Series[i].Value))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PlotSeries plots a response time series and its uncertainty range, if
// any, to file. The file format is determined by its extension.
func PlotSeries(file string, r *uncertainty.UncertaintyResult) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("%s response in %s", r.Central.Provenance.Quantity, r.Central.Provenance.ResponseRegion)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = r.Central.Unit
	p.Legend.Top = true
	p.Legend.Left = true

	central, err := plotter.NewLine(seriesXYs(r.Central))
	if err != nil {
		return err
	}
	central.Color = color.NRGBA{0, 0, 0, 255}
	central.Width = vg.Points(1.5)
	p.Add(central)
	if r.Lower == nil {
		return p.Save(6*vg.Inch, 4*vg.Inch, file)
	}
	p.Legend.Add("central", central)
	for _, b := range []struct {
		name string
		r    *rem.MetricResult
	}{{"lower", r.Lower}, {"upper", r.Upper}} {
		l, err := plotter.NewLine(seriesXYs(b.r))
		if err != nil {
			return err
		}
		l.Color = color.NRGBA{127, 127, 127, 255}
		l.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s (%s)", b.name, r.Method), l)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, file)
}

func seriesXYs(r *rem.MetricResult) plotter.XYs {
	o := make(plotter.XYs, len(r.Series))
	for i, p := range r.Series {
		o[i].X = float64(p.Year)
		o[i].Y = p.Value
	}
	return o
}
