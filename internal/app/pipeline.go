// Package app wires the pipeline stages into build, simulate, calibrate and
// export operations.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/foodlca/internal/adapters/export"
	"github.com/okian/foodlca/internal/adapters/source"
	"github.com/okian/foodlca/internal/adapters/worker"
	"github.com/okian/foodlca/internal/config"
	"github.com/okian/foodlca/internal/domain/aggregate"
	"github.com/okian/foodlca/internal/domain/calibrate"
	"github.com/okian/foodlca/internal/domain/diet"
	"github.com/okian/foodlca/internal/domain/fallback"
	"github.com/okian/foodlca/internal/domain/mapping"
	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/internal/domain/scope"
	"github.com/okian/foodlca/internal/domain/units"
	"github.com/okian/foodlca/pkg/logger"
	"github.com/okian/foodlca/pkg/metrics"
)

// Pipeline runs the stages configured by Settings. A Pipeline holds no
// mutable state between calls and may be reused.
type Pipeline struct {
	settings *config.Settings
	runID    string
	pool     *worker.Pool
	base     logger.Logger
	logger   logger.Logger

	mapper     *mapping.Mapper
	aggregator *aggregate.Aggregator
	resolver   *fallback.Resolver
}

// New builds a Pipeline from validated settings.
func New(s *config.Settings, opts ...Option) (*Pipeline, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil settings", config.ErrInvalidConfig)
	}
	p := &Pipeline{settings: s}
	for _, opt := range opts {
		opt(p)
	}
	if p.base == nil {
		p.base = logger.Get()
	}
	p.logger = p.base.Named("pipeline")
	if p.runID == "" {
		p.runID = uuid.NewString()
	}
	if p.pool == nil {
		p.pool = worker.NewPool(
			worker.WithName("aggregate"),
			worker.WithLimit(s.Workers),
			worker.WithLogger(p.base.Named("worker")),
		)
	}

	var err error
	p.mapper, err = mapping.NewMapper(s.Rules,
		mapping.WithFoldAccents(s.FoldAccents),
		mapping.WithLogger(p.base.Named("mapping")),
	)
	if err != nil {
		return nil, err
	}
	p.aggregator, err = aggregate.New(
		aggregate.WithMethod(s.Method),
		aggregate.WithPercentile(s.Percentile),
		aggregate.WithPool(p.pool),
		aggregate.WithLogger(p.base.Named("aggregate")),
	)
	if err != nil {
		return nil, err
	}
	p.resolver = fallback.NewResolver(s.Fallbacks,
		fallback.WithRequire(s.RequireFallback),
		fallback.WithLogger(p.base.Named("fallback")),
	)
	return p, nil
}

// RunID returns the identifier stamped into provenance.
func (p *Pipeline) RunID() string { return p.runID }

// Load reads the configured LCA database.
func (p *Pipeline) Load(ctx context.Context) ([]model.RawRecord, error) {
	s := p.settings
	if s.SourcePath == "" {
		return nil, fmt.Errorf("%w: source.path is empty", config.ErrInvalidConfig)
	}
	return source.Load(ctx, s.SourcePath,
		source.WithDelimiter(s.Delimiter),
		source.WithSkipRows(s.SkipRows),
		source.WithMinColumns(s.MinColumns),
		source.WithLayout(s.Layout),
		source.WithFallbackEncoding(s.Fallback),
		source.WithSkipMalformed(s.SkipMalformed),
		source.WithLogger(p.base.Named("source")),
	)
}

// Build loads the database and turns it into an uncalibrated factor table.
func (p *Pipeline) Build(ctx context.Context) (*model.FactorTable, error) {
	records, err := p.Load(ctx)
	if err != nil {
		metrics.RecordStageError("load", kind(err))
		return nil, err
	}
	return p.BuildFrom(ctx, records)
}

// BuildFrom maps, aggregates, splits and fills records into a factor table.
func (p *Pipeline) BuildFrom(ctx context.Context, records []model.RawRecord) (*model.FactorTable, error) {
	start := time.Now()

	sets, err := p.mapper.Map(ctx, records)
	if err != nil {
		metrics.RecordStageError("map", kind(err))
		return nil, err
	}
	aggs, err := p.aggregator.AggregateAll(ctx, sets)
	if err != nil {
		metrics.RecordStageError("aggregate", kind(err))
		return nil, err
	}
	factors := scope.ApplyAll(aggs, p.settings.Ratios)

	prov := model.Provenance{
		RunID:           p.runID,
		Method:          p.aggregator.Method(),
		RatioSource:     p.settings.Ratios.Source(),
		DefaultRatio:    p.settings.Ratios.Default(),
		DatabaseRecords: len(records),
		State:           model.StateUncalibrated,
		Adjustment:      1,
	}
	if prov.Method == model.MethodConservative {
		prov.Percentile = p.aggregator.Percentile()
	}
	table, err := p.resolver.Resolve(ctx, model.NewFactorTable(factors, prov))
	if err != nil {
		metrics.RecordStageError("fallback", kind(err))
		return nil, err
	}

	metrics.RecordStageDuration("build", float64(time.Since(start).Milliseconds()))
	p.logger.Info(ctx, "factor table built",
		logger.String("run_id", p.runID),
		logger.Int("records", len(records)),
		logger.Int("categories", table.Len()),
		logger.String("method", string(prov.Method)),
	)
	return table, nil
}

// Simulate runs the named diet profile, or the configured one when name is
// empty, against table.
func (p *Pipeline) Simulate(ctx context.Context, table *model.FactorTable, name string) (diet.Result, error) {
	profile := p.settings.Diet
	if name != "" {
		var ok bool
		if profile, ok = p.settings.Profiles[name]; !ok {
			return diet.Result{}, fmt.Errorf("%w: unknown diet profile %q", config.ErrInvalidConfig, name)
		}
	}
	return diet.Simulate(ctx, table, profile, p.settings.Params, diet.WithLogger(p.base.Named("diet")))
}

// Calibration is the result of a calibration session plus its report.
type Calibration struct {
	Outcome calibrate.Outcome
	Report  calibrate.Report
}

// Calibrate runs a session against the configured reference total. When the
// session ends without convergence, or with a rejected adjustment, the
// returned Calibration still carries the best table and its report.
func (p *Pipeline) Calibrate(ctx context.Context, table *model.FactorTable) (Calibration, error) {
	s := p.settings
	basis := s.Basis
	simulate := func(ctx context.Context, t *model.FactorTable) (float64, error) {
		res, err := p.Simulate(ctx, t, "")
		if err != nil {
			return 0, err
		}
		return res.Total(basis), nil
	}

	session, err := calibrate.NewSession(table, s.TargetKg,
		calibrate.WithPolicy(s.Policy),
		calibrate.WithID(p.runID),
		calibrate.WithLogger(p.base.Named("calibrate")),
	)
	if err != nil {
		return Calibration{}, err
	}
	outcome, runErr := session.Run(ctx, simulate)
	var ce *model.ConvergenceError
	if runErr != nil && !errors.As(runErr, &ce) {
		metrics.RecordStageError("calibrate", kind(runErr))
		if outcome.Table == nil {
			return Calibration{}, runErr
		}
	}

	final, err := p.Simulate(ctx, outcome.Table, "")
	if err != nil {
		return Calibration{}, err
	}
	eval, err := calibrate.Evaluate(final.Total(basis), s.TargetKg, s.Policy)
	if err != nil {
		return Calibration{}, err
	}
	eval.Iteration = outcome.Iterations
	report := calibrate.BuildReport(final, basis, eval, s.Groups)
	p.logReport(ctx, report, outcome.State)
	return Calibration{Outcome: outcome, Report: report}, runErr
}

func (p *Pipeline) logReport(ctx context.Context, r calibrate.Report, state model.CalibrationState) {
	p.logger.Info(ctx, "calibration report",
		logger.String("run_id", p.runID),
		logger.String("state", string(state)),
		logger.String("basis", string(r.Basis)),
		logger.Float64("simulated_kt", units.KgToKilotonnes(r.Total.Simulated)),
		logger.Float64("target_kt", units.KgToKilotonnes(r.Total.Target)),
		logger.Float64("error_pct", r.Total.ErrorPct),
		logger.String("tier", string(r.Total.Tier)),
	)
	for _, g := range r.Groups {
		p.logger.Debug(ctx, "calibration group",
			logger.String("group", g.Name),
			logger.Float64("simulated_kt", units.KgToKilotonnes(g.Simulated)),
			logger.Float64("target_kt", units.KgToKilotonnes(g.Target)),
			logger.Float64("error_pct", g.ErrorPct),
		)
	}
}

// Export writes every configured output. rep may be nil when no
// calibration ran.
func (p *Pipeline) Export(ctx context.Context, table *model.FactorTable, rep *calibrate.Report) error {
	out := p.settings.Output
	if out.FactorTable != "" {
		if err := export.SaveFactorTable(out.FactorTable, table); err != nil {
			metrics.RecordStageError("export", "factor_table")
			return err
		}
		p.logger.Info(ctx, "factor table written", logger.String("path", out.FactorTable))
	}
	if out.Report != "" && rep != nil {
		if err := export.SaveReport(out.Report, *rep); err != nil {
			metrics.RecordStageError("export", "report")
			return err
		}
		p.logger.Info(ctx, "calibration report written", logger.String("path", out.Report))
	}
	if out.SQLite != "" {
		if err := export.WriteSQLite(ctx, out.SQLite, table, rep); err != nil {
			metrics.RecordStageError("export", "sqlite")
			return err
		}
		p.logger.Info(ctx, "sqlite snapshot written", logger.String("path", out.SQLite))
	}
	if out.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(out.MetricsTextfile); err != nil {
			return err
		}
	}
	return nil
}

// Run builds, calibrates and exports. Tables that end in review or without
// convergence are still exported so they can be inspected.
func (p *Pipeline) Run(ctx context.Context) (Calibration, error) {
	table, err := p.Build(ctx)
	if err != nil {
		return Calibration{}, err
	}
	cal, calErr := p.Calibrate(ctx, table)
	if cal.Outcome.Table == nil {
		return cal, calErr
	}
	if err := p.Export(ctx, cal.Outcome.Table, &cal.Report); err != nil {
		return cal, err
	}
	return cal, calErr
}

func kind(err error) string {
	switch {
	case errors.Is(err, model.ErrFormat):
		return "format"
	case errors.Is(err, model.ErrMissingValue):
		return "missing_value"
	case errors.Is(err, model.ErrRange):
		return "range"
	case errors.Is(err, model.ErrConvergence):
		return "convergence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "other"
}
