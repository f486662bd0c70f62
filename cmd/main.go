// Command foodlca builds per-category food emission factors from an LCA
// database, simulates diets against them and calibrates the result to a
// reference total.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/okian/foodlca/internal/adapters/export"
	"github.com/okian/foodlca/internal/app"
	"github.com/okian/foodlca/internal/config"
	"github.com/okian/foodlca/internal/domain/diet"
	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/internal/domain/units"
	"github.com/okian/foodlca/pkg/logger"
)

// Exit codes.
const (
	exitOK             = 0
	exitFailure        = 1
	exitUsage          = 2
	exitFormat         = 3
	exitMissingValue   = 4
	exitRange          = 5
	exitNotConverged   = 6
	exitReviewRequired = 7
)

// Commands.
const (
	cmdBuild     = "build"
	cmdSimulate  = "simulate"
	cmdCalibrate = "calibrate"
	cmdRun       = "run"
)

const usage = `usage: foodlca [flags] [build|simulate|calibrate|run]

  build      parse the database and write the uncalibrated factor table
  simulate   print the annual totals of a diet for a factor table
  calibrate  rescale a factor table until the diet matches the reference
  run        build, calibrate and export (default)

flags:
`

type options struct {
	config    string
	db        string
	table     string
	out       string
	report    string
	sqlite    string
	metrics   string
	diet      string
	logLevel  string
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, string, error) {
	var o options
	fs := flag.NewFlagSet("foodlca", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = io.WriteString(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.config, "config", "", "YAML config file (default $"+config.EnvConfig+")")
	fs.StringVar(&o.db, "db", "", "LCA database CSV (overrides source.path)")
	fs.StringVar(&o.table, "table", "", "existing factor table to simulate or calibrate instead of building one")
	fs.StringVar(&o.out, "out", "", "factor table output path (overrides output.factor_table)")
	fs.StringVar(&o.report, "report", "", "calibration report path (overrides output.report)")
	fs.StringVar(&o.sqlite, "sqlite", "", "SQLite snapshot path (overrides output.sqlite)")
	fs.StringVar(&o.metrics, "metrics", "", "Prometheus textfile path (overrides output.metrics_textfile)")
	fs.StringVar(&o.diet, "diet", "", "diet profile (overrides simulation.diet)")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&o.logFormat, "log-format", "", "text or json")
	if err := fs.Parse(args); err != nil {
		return o, "", err
	}

	cmd := cmdRun
	switch fs.NArg() {
	case 0:
	case 1:
		cmd = fs.Arg(0)
	default:
		fs.Usage()
		return o, "", fmt.Errorf("too many arguments: %v", fs.Args())
	}
	switch cmd {
	case cmdBuild, cmdSimulate, cmdCalibrate, cmdRun:
	default:
		fs.Usage()
		return o, "", fmt.Errorf("unknown command %q", cmd)
	}
	return o, cmd, nil
}

// apply layers command-line flags over the loaded config.
func (o options) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Source.Path, o.db)
	set(&cfg.Output.FactorTable, o.out)
	set(&cfg.Output.Report, o.report)
	set(&cfg.Output.SQLite, o.sqlite)
	set(&cfg.Output.MetricsTextfile, o.metrics)
	set(&cfg.Simulation.Diet, o.diet)
	set(&cfg.LogLevel, o.logLevel)
	set(&cfg.LogFormat, o.logFormat)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, cmd, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load(ctx, o.config)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "failed to load config:", err)
		return exitUsage
	}
	o.apply(cfg)
	settings, err := cfg.Validate()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "invalid config:", err)
		return exitCode(err)
	}

	if err := logger.Init(
		logger.WithWriter(stderr),
		logger.WithFormat(settings.LogFormat),
		logger.WithLevel(settings.LogLevel),
	); err != nil {
		_, _ = fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return exitFailure
	}
	log := logger.Get().Named("cli")

	p, err := app.New(settings)
	if err != nil {
		log.Error(ctx, "failed to create pipeline", logger.Error(err))
		return exitCode(err)
	}
	log.Info(ctx, "starting", logger.String("command", cmd), logger.String("run_id", p.RunID()))

	if err := dispatch(ctx, p, cmd, o.table, stdout); err != nil {
		log.Error(ctx, "command failed", logger.String("command", cmd), logger.Error(err))
		return exitCode(err)
	}
	log.Info(ctx, "done", logger.String("command", cmd))
	return exitOK
}

func dispatch(ctx context.Context, p *app.Pipeline, cmd, tablePath string, stdout io.Writer) error {
	if cmd == cmdRun && tablePath == "" {
		cal, err := p.Run(ctx)
		if err != nil {
			return err
		}
		return reviewed(cal)
	}

	table, err := tableFor(ctx, p, tablePath)
	if err != nil {
		return err
	}
	switch cmd {
	case cmdBuild:
		return p.Export(ctx, table, nil)
	case cmdSimulate:
		res, err := p.Simulate(ctx, table, "")
		if err != nil {
			return err
		}
		return printSimulation(stdout, res)
	}

	cal, calErr := p.Calibrate(ctx, table)
	if cal.Outcome.Table != nil {
		if err := p.Export(ctx, cal.Outcome.Table, &cal.Report); err != nil {
			return err
		}
	}
	if calErr != nil {
		return calErr
	}
	return reviewed(cal)
}

func tableFor(ctx context.Context, p *app.Pipeline, path string) (*model.FactorTable, error) {
	if path != "" {
		return export.LoadFactorTable(path)
	}
	return p.Build(ctx)
}

var errReviewRequired = errors.New("calibration needs manual review")

func reviewed(cal app.Calibration) error {
	if cal.Outcome.State == model.StateReviewRequired {
		last, _ := cal.Outcome.Last()
		return fmt.Errorf("%w: error %+.2f%%", errReviewRequired, last.ErrorPct)
	}
	return nil
}

func printSimulation(w io.Writer, res diet.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintf(tw, "category\tg/day\tproduction kt\tlifecycle kt\t\n")
	for _, l := range res.Lines {
		_, _ = fmt.Fprintf(tw, "%s\t%.1f\t%.3f\t%.3f\t\n", l.Category, l.GramsPerDay,
			units.KgToKilotonnes(l.Production), units.KgToKilotonnes(l.Lifecycle))
	}
	_, _ = fmt.Fprintf(tw, "total (%s)\t\t%.3f\t%.3f\t\n", res.Profile,
		units.KgToKilotonnes(res.Production), units.KgToKilotonnes(res.Lifecycle))
	for _, sk := range res.Skipped {
		_, _ = fmt.Fprintf(tw, "skipped %s\t%s\t\t\t\n", sk.Category, sk.Reason)
	}
	return tw.Flush()
}

func exitCode(err error) int {
	var ce *model.ConvergenceError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errReviewRequired):
		return exitReviewRequired
	case errors.As(err, &ce):
		return exitNotConverged
	case errors.Is(err, model.ErrFormat):
		return exitFormat
	case errors.Is(err, model.ErrMissingValue):
		return exitMissingValue
	case errors.Is(err, model.ErrRange):
		return exitRange
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrLoadConfig):
		return exitUsage
	}
	return exitFailure
}
