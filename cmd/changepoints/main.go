// Command changepoints segments one series and prints the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/chrissnell/changepoints/internal/detection"
	"github.com/chrissnell/changepoints/internal/log"
	"github.com/chrissnell/changepoints/internal/managers"
	"github.com/chrissnell/changepoints/internal/series"
	"github.com/chrissnell/changepoints/pkg/config"
	"github.com/chrissnell/changepoints/pkg/responseformat"
	"go.uber.org/zap"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

type options struct {
	cfgFile     string
	input       string
	inputFormat string
	column      int
	method      string
	penaltyType string
	penalty     float64
	minSegLen   int
	smoothing   int
	output      string
	store       bool
	timeout     time.Duration
	debug       bool
	showVersion bool

	// set records which flags were given explicitly
	set map[string]bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("changepoints", flag.ContinueOnError)
	fs.StringVar(&o.cfgFile, "config", "", "Optional YAML configuration file supplying defaults and the series source")
	fs.StringVar(&o.input, "input", "", "Series file to read; '-' reads standard input")
	fs.StringVar(&o.inputFormat, "input-format", "", "Input format: csv, json or text (default: from the file extension)")
	fs.IntVar(&o.column, "column", 0, "Zero-based CSV column holding the series")
	fs.StringVar(&o.method, "method", "", "Detection method: pelt or op")
	fs.StringVar(&o.penaltyType, "penalty-type", "", "Penalty: manual, bic, mbic, aic or hq")
	fs.Float64Var(&o.penalty, "penalty", 0, "Manual penalty per changepoint (implies -penalty-type manual)")
	fs.IntVar(&o.minSegLen, "min-seg-len", 0, "Minimum segment length")
	fs.IntVar(&o.smoothing, "smoothing-window", 0, "Odd median filter window applied before detection; 1 disables")
	fs.StringVar(&o.output, "output", "json", "Output format: json, yaml or msgpack")
	fs.BoolVar(&o.store, "store", false, "Persist the run to the configured storage backend")
	fs.DurationVar(&o.timeout, "timeout", time.Minute, "Timeout for reading a database source and storing the run")
	fs.BoolVar(&o.debug, "debug", false, "Turn on debugging output")
	fs.BoolVar(&o.showVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if o.showVersion {
		fmt.Printf("changepoints %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(o.debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), o, os.Stdin, os.Stdout, log.GetSugaredLogger()); err != nil {
		log.Errorf("%v", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, o *options, stdin io.Reader, stdout io.Writer, logger *zap.SugaredLogger) error {
	outFormat, err := responseformat.ParseFormat(o.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(o.cfgFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	x, err := loadSeries(ctx, o, &cfg.Source, stdin, logger)
	if err != nil {
		return err
	}
	logger.Debugf("loaded %d observations", len(x))

	var service *detection.Service
	if o.store {
		store, engine, err := managers.NewStore(ctx, &cfg.Storage)
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("-store requires a storage backend in the configuration file")
		}
		defer store.Close()
		logger.Debugf("storing run in %s", engine)

		service, err = detection.NewService(cfg.Detection, store, logger)
		if err != nil {
			return err
		}
	} else {
		service, err = detection.NewService(cfg.Detection, nil, logger)
		if err != nil {
			return err
		}
	}

	resp, err := service.Run(ctx, buildRequest(o, x))
	if err != nil {
		return err
	}

	return responseformat.Encode(stdout, outFormat, resp)
}

func loadConfig(cfgFile string) (*config.ConfigData, error) {
	if cfgFile == "" {
		cfg := &config.ConfigData{}
		cfg.ApplyDefaults()
		return cfg, cfg.Validate()
	}

	filename, _ := filepath.Abs(cfgFile)
	cfg, err := config.NewYAMLProvider(filename).LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", filename, err)
	}
	return cfg, nil
}

// loadSeries reads the series named on the command line, falling back to the
// source in the configuration file
func loadSeries(ctx context.Context, o *options, src *config.SourceData, stdin io.Reader, logger *zap.SugaredLogger) ([]float64, error) {
	formatName := src.Format
	if o.set["input-format"] {
		formatName = o.inputFormat
	}
	format, err := series.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	column := src.Column
	if o.set["column"] {
		column = o.column
	}

	switch {
	case o.input == "-":
		return series.Decode(stdin, format, column)
	case o.input != "":
		return series.LoadFile(o.input, format, column)
	case src.File != "":
		return series.LoadFile(src.File, format, column)
	case src.Database != nil:
		source, err := series.NewSQLSource(*src.Database, logger)
		if err != nil {
			return nil, err
		}
		defer source.Close()
		return source.Fetch(ctx)
	default:
		return nil, fmt.Errorf("no series given: pass -input or configure a source")
	}
}

// buildRequest turns explicitly set flags into request overrides
func buildRequest(o *options, x []float64) detection.Request {
	req := detection.Request{
		Series: x,
		Store:  o.store,
	}
	if o.set["method"] {
		req.Method = o.method
	}
	if o.set["penalty-type"] {
		req.PenaltyType = o.penaltyType
	}
	if o.set["penalty"] {
		penalty := o.penalty
		req.Penalty = &penalty
	}
	if o.set["min-seg-len"] {
		req.MinSegLen = o.minSegLen
	}
	if o.set["smoothing-window"] {
		req.SmoothingWindow = o.smoothing
	}
	return req
}
