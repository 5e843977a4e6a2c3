// ISA Globe
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/hhkbp2/go-logging"

	"github.com/udawtr/isaglobe-go/atmosphere"
	"github.com/udawtr/isaglobe-go/globe"
	"github.com/udawtr/isaglobe-go/server"
)

type options struct {
	altitude float64
	mode     string
	format   string
	filename string
	start    float64
	end      float64
	step     float64
	workers  int
	rows     int
	cols     int
	addr     string
	logLevel string
}

var errUsage = errors.New("invalid arguments")

func newParser() (*argparse.Parser, func() options) {
	parser := argparse.NewParser("isaglobe", "Computes International Standard Atmosphere properties for a geometric altitude")

	altitude := parser.FloatPositional(&argparse.Options{
		Default: atmosphere.DefaultAltitudeKm,
		Help:    "Altitude above sea level [km]"})

	mode := parser.Selector("m", "mode", []string{"point", "profile", "layers", "globe", "serve"}, &argparse.Options{
		Default: "point",
		Help:    "point: one altitude, profile: altitude sweep, layers: model table, globe: 3D scene, serve: HTTP server"})

	format := parser.Selector("f", "format", []string{"TEXT", "CSV", "YAML", "JSON"}, &argparse.Options{
		Default: "TEXT",
		Help:    "Output format TEXT, CSV, YAML or JSON"})

	filename := parser.String("o", "output", &argparse.Options{
		Default: "",
		Help:    "Output file path (stdout if empty)"})

	start := parser.Float("", "start", &argparse.Options{
		Default: atmosphere.DefaultSweep.StartKm,
		Help:    "Profile start altitude [km]"})

	end := parser.Float("", "end", &argparse.Options{
		Default: atmosphere.DefaultSweep.EndKm,
		Help:    "Profile end altitude [km]"})

	step := parser.Float("", "step", &argparse.Options{
		Default: atmosphere.DefaultSweep.StepKm,
		Help:    "Profile step [km]"})

	workers := parser.Int("", "workers", &argparse.Options{
		Default: 0,
		Help:    "Profile concurrency (0 = number of CPUs)"})

	rows := parser.Int("", "rows", &argparse.Options{
		Default: globe.DefaultRows,
		Help:    "Sphere mesh rows"})

	cols := parser.Int("", "cols", &argparse.Options{
		Default: globe.DefaultCols,
		Help:    "Sphere mesh columns"})

	addr := parser.String("", "addr", &argparse.Options{
		Default: server.DefaultConfig().Addr,
		Help:    "Listen address in serve mode"})

	logLevel := parser.Selector("", "log", []string{"DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}, &argparse.Options{
		Default: "ERROR",
		Help:    "Log level"})

	collect := func() options {
		return options{
			altitude: *altitude,
			mode:     *mode,
			format:   *format,
			filename: *filename,
			start:    *start,
			end:      *end,
			step:     *step,
			workers:  *workers,
			rows:     *rows,
			cols:     *cols,
			addr:     *addr,
			logLevel: *logLevel,
		}
	}
	return parser, collect
}

func setLogLevel(logger logging.Logger, level string) {
	switch level {
	case "DEBUG":
		logger.SetLevel(logging.LevelDebug)
	case "INFO":
		logger.SetLevel(logging.LevelInfo)
	case "WARN":
		logger.SetLevel(logging.LevelWarn)
	case "ERROR":
		logger.SetLevel(logging.LevelError)
	case "CRITICAL":
		logger.SetLevel(logging.LevelCritical)
	}
}

// render writes the result of a non-serving mode into buf.
func render(ctx context.Context, opts options, buf *bytes.Buffer) error {
	logger := logging.GetLogger("isaglobe")

	switch opts.mode {
	case "point":
		state, err := atmosphere.Compute(opts.altitude)
		if err != nil {
			return err
		}
		logger.Debugf("Computed %.3f km: %s", opts.altitude, state.Layer)
		switch opts.format {
		case "CSV":
			atmosphere.Profile{States: []atmosphere.State{state}}.ToCSV(buf)
		case "YAML":
			return state.ToYAML(buf)
		case "JSON":
			return json.NewEncoder(buf).Encode(state)
		default:
			state.ToText(buf)
		}

	case "profile":
		sw, err := atmosphere.NewSweep(opts.start, opts.end, opts.step)
		if err != nil {
			return err
		}
		logger.Infof("Computing %d altitudes from %.1f km to %.1f km", sw.Len(), sw.StartKm, sw.EndKm)
		p, err := atmosphere.ComputeProfile(ctx, sw, opts.workers)
		if err != nil {
			return err
		}
		switch opts.format {
		case "CSV":
			p.ToCSV(buf)
		case "YAML":
			return p.ToYAML(buf)
		case "JSON":
			return json.NewEncoder(buf).Encode(struct {
				Sweep   atmosphere.Sweep   `json:"sweep"`
				Summary atmosphere.Summary `json:"summary"`
				Samples []atmosphere.State `json:"samples"`
			}{p.Sweep, p.Summarize(), p.States})
		default:
			p.ToText(buf)
		}

	case "layers":
		layers := atmosphere.Layers()
		switch opts.format {
		case "JSON":
			return json.NewEncoder(buf).Encode(layers)
		default:
			for _, l := range layers {
				buf.WriteString(fmt.Sprintf("%-20s base=%6.0f m  T=%.2f K  L=%+.4f K/m  P=%g Pa\n",
					l.Layer, l.Base, l.BaseTemperature, l.LapseRate, l.BasePressure))
			}
		}

	case "globe":
		sc, err := globe.NewScene(opts.altitude, opts.rows, opts.cols)
		if err != nil {
			return err
		}
		return sc.ToJSON(buf)

	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
	return nil
}

func run(args []string, stdout io.Writer) error {
	parser, collect := newParser()
	if err := parser.Parse(args); err != nil {
		fmt.Fprint(stdout, parser.Usage(err))
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	opts := collect()

	logger := logging.GetLogger("isaglobe")
	setLogLevel(logger, opts.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.mode == "serve" {
		c := server.DefaultConfig()
		c.Addr = opts.addr
		c.Workers = opts.workers
		return server.New(c).Run(ctx)
	}

	var buf *bytes.Buffer = bytes.NewBuffer([]byte{})
	if err := render(ctx, opts, buf); err != nil {
		return err
	}

	if opts.filename == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	logger.Infof("Saving %s", opts.filename)
	return os.WriteFile(opts.filename, buf.Bytes(), 0o644)
}

func main() {
	err := run(os.Args, os.Stdout)
	if err == nil {
		return
	}
	if !errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}
