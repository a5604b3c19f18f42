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

// Package remutil contains the command-line interface to REM.
package remutil

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rem"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log receives information about calculations.
var Log = logrus.StandardLogger()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to REM.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel specifies the level of detail of log messages:
              one of debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ReferenceData",
			usage: `
              ReferenceData specifies the path to a TOML file holding the
              species properties, impulse response kernels, scaling experiments,
              and regional response coefficients. If it is empty, the built-in
              reference data are used. It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Onset",
			usage: `
              Onset specifies when changes in emission rates take effect:
              'year' applies a new rate from its stated year and 'following'
              applies it from the next year.`,
			defaultVal: "year",
			flagsets:   []*pflag.FlagSet{seriesCmd.Flags()},
		},
		{
			name: "Pollutant",
			usage: `
              Pollutant specifies the emitted pollutant: SO2, BC, CH4, or CO2.`,
			shorthand:  "p",
			defaultVal: "SO2",
			flagsets:   []*pflag.FlagSet{potentialCmd.Flags()},
		},
		{
			name: "EmissionRegion",
			usage: `
              EmissionRegion specifies the region the pollutant is emitted from.`,
			shorthand:  "e",
			defaultVal: "Global",
			flagsets:   []*pflag.FlagSet{potentialCmd.Flags()},
		},
		{
			name: "ResponseRegions",
			usage: `
              ResponseRegions specifies the regions to calculate the response in.
              If it is empty, all response regions with coefficients for the
              pollutant and emission region are used.`,
			shorthand:  "r",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{potentialCmd.Flags()},
		},
		{
			name: "ResponseRegion",
			usage: `
              ResponseRegion specifies the region to calculate the response to
              an emission scenario in.`,
			defaultVal: "Global",
			flagsets:   []*pflag.FlagSet{seriesCmd.Flags()},
		},
		{
			name: "Horizon",
			usage: `
              Horizon specifies the time horizon of potentials [years].`,
			shorthand:  "H",
			defaultVal: 20.0,
			flagsets:   []*pflag.FlagSet{potentialCmd.Flags()},
		},
		{
			name: "Horizons",
			usage: `
              Horizons specifies the time horizons [years] of the potential
              tables. One table is created for each metric and horizon.`,
			defaultVal: []int{20, 100},
			flagsets:   []*pflag.FlagSet{tableCmd.Flags()},
		},
		{
			name: "Metrics",
			usage: `
              Metrics specifies the potentials to calculate: any of ARTP, iARTP,
              ARPP, and iARPP.`,
			shorthand:  "m",
			defaultVal: []string{"ARTP", "iARTP", "ARPP", "iARPP"},
			flagsets:   []*pflag.FlagSet{potentialCmd.Flags(), tableCmd.Flags()},
		},
		{
			name: "Quantity",
			usage: `
              Quantity specifies the climate variable of emission scenario
              responses: temperature or precipitation.`,
			shorthand:  "q",
			defaultVal: "temperature",
			flagsets:   []*pflag.FlagSet{seriesCmd.Flags()},
		},
		{
			name: "Uncertainty",
			usage: `
              Uncertainty specifies how uncertainty ranges are estimated: none,
              ensemble (recompute with each climate model's values), lifetime
              (recompute with the atmospheric lifetime ± one standard deviation),
              or quadrature (combine the relative spread of coefficients and
              scaling factors).`,
			shorthand:  "u",
			defaultVal: "none",
			flagsets:   []*pflag.FlagSet{potentialCmd.Flags(), seriesCmd.Flags()},
		},
		{
			name: "Percentiles",
			usage: `
              Percentiles specifies the lower and upper percentiles (between 0 and 1)
              bounding ensemble results. If it is empty, the ensemble minimum and
              maximum are used.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{potentialCmd.Flags(), seriesCmd.Flags()},
		},
		{
			name: "Scenario.Segments",
			usage: `
              Scenario.Segments specifies the emission scenario as a list of
              segments, each with the fields Pollutant, Region, Start, End, From,
              To, Units, and Shape. Shape is sustained, linear, quadratic, sine, or
              an expression of x, the elapsed fraction of the segment. On the
              command line the list is given in JSON format, for example:
              [{"Pollutant":"SO2","Region":"China","Start":2020,"End":2050,"From":20,"To":5,"Units":"Tg/year","Shape":"linear"}]`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{seriesCmd.Flags()},
		},
		{
			name: "Scenario.Units",
			usage: `
              Scenario.Units specifies the units of segment emission rates that
              do not specify their own.`,
			defaultVal: "kg/year",
			flagsets:   []*pflag.FlagSet{seriesCmd.Flags()},
		},
		{
			name: "Scenario.End",
			usage: `
              Scenario.End specifies the last year of the response time series.
              If it is zero, the series ends with the last segment.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{seriesCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the output file: an Excel file
              for tables and a CSV file for time series. Time series are
              written to standard output if it is empty. It can include
              environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{tableCmd.Flags(), seriesCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile specifies the path to a PNG, SVG, or PDF file to plot the
              response time series to. No plot is created if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{seriesCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("REM")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(regionsCmd)
	Root.AddCommand(potentialCmd)
	Root.AddCommand(tableCmd)
	Root.AddCommand(seriesCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the logging level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("rem: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("rem: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "rem",
	Short: "Regional emission climate metrics.",
	Long: `REM calculates the regional temperature and precipitation response to
emissions of SO2, black carbon (BC), CH4, and CO2: absolute regional temperature
and precipitation potentials (ARTP and ARPP), their time-integrated forms (iARTP
and iARPP), and response time series for emission scenarios.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'REM_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of REM.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("REM v%s\n", rem.Version)
	},
	DisableAutoGenTag: true,
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the regions",
	Long: `regions lists the emission and response regions of the reference data
with their latitude and longitude bounds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := referenceData(Cfg)
		if err != nil {
			return err
		}
		return WriteRegions(cmd.OutOrStdout(), ref.Regions)
	},
	DisableAutoGenTag: true,
}

var potentialCmd = &cobra.Command{
	Use:   "potential",
	Short: "Calculate emission potentials",
	Long: `potential calculates the potentials of a pulse emission of the
pollutant specified by the Pollutant configuration variable from the
region specified by EmissionRegion, in each of ResponseRegions, for the
time horizon specified by Horizon.

	Units:
	ARTP: K kg-1
	iARTP: K yr kg-1
	ARPP: mm day-1 kg-1
	iARPP: mm day-1 yr kg-1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := engine(Cfg)
		if err != nil {
			return err
		}
		p, err := rem.ParsePollutant(Cfg.GetString("Pollutant"))
		if err != nil {
			return err
		}
		metrics, err := parseMetrics(Cfg.GetStringSlice("Metrics"))
		if err != nil {
			return err
		}
		method, err := uncertaintyMethod(Cfg)
		if err != nil {
			return err
		}
		rows, err := Potentials(e, method, p, Cfg.GetString("EmissionRegion"),
			Cfg.GetStringSlice("ResponseRegions"), Cfg.GetFloat64("Horizon"), metrics)
		if err != nil {
			return err
		}
		return WritePotentials(cmd.OutOrStdout(), rows)
	},
	DisableAutoGenTag: true,
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Create potential tables",
	Long: `table calculates the potentials of every pollutant, emission region,
and response region combination in the reference data for each of the
time horizons in Horizons and saves them to the Excel file specified by
OutputFile, with one sheet per metric and horizon. Each cell holds the
potential and its standard deviation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := engine(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		if outputFile == "" {
			return fmt.Errorf("rem: the table command requires an OutputFile")
		}
		horizons, err := cast.ToIntSliceE(Cfg.Get("Horizons"))
		if err != nil {
			return fmt.Errorf("rem: reading 'Horizons': %v", err)
		}
		metrics, err := parseMetrics(Cfg.GetStringSlice("Metrics"))
		if err != nil {
			return err
		}
		f, err := Table(e, horizons, metrics)
		if err != nil {
			return err
		}
		return f.Save(outputFile)
	},
	DisableAutoGenTag: true,
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Calculate the response to an emission scenario",
	Long: `series composes an emission scenario from the segments in
Scenario.Segments and calculates the response of Quantity in ResponseRegion
in every year of the scenario. The result is written in CSV format to
OutputFile or standard output, and optionally plotted to PlotFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := engine(Cfg)
		if err != nil {
			return err
		}
		segments, err := getSegments("Scenario.Segments", Cfg)
		if err != nil {
			return err
		}
		q, err := rem.ParseQuantity(Cfg.GetString("Quantity"))
		if err != nil {
			return err
		}
		method, err := uncertaintyMethod(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		plotFile, err := checkOutputFile(Cfg.GetString("PlotFile"))
		if err != nil {
			return err
		}
		r, err := Series(e, method, segments, Cfg.GetInt("Scenario.End"), Cfg.GetString("ResponseRegion"), q)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := WriteSeries(w, r); err != nil {
			return err
		}
		if plotFile != "" {
			return PlotSeries(plotFile, r)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// WriteRegions writes a table of regions to w.
func WriteRegions(w io.Writer, regions *rem.Regions) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Region\tCategory\tLongitude\tLatitude")
	for _, name := range regions.Names(rem.EmissionRegion | rem.ResponseRegion) {
		r, _ := regions.Lookup(name)
		lon, lat := "", ""
		if r.Bounds != nil {
			lon = fmt.Sprintf("%g to %g", r.Bounds.Min.X, r.Bounds.Max.X)
			lat = fmt.Sprintf("%g to %g", r.Bounds.Min.Y, r.Bounds.Max.Y)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Category, lon, lat)
	}
	return tw.Flush()
}
