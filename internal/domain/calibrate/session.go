package calibrate

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/pkg/logger"
	"github.com/okian/foodlca/pkg/metrics"
)

// Simulator returns the simulated emission total, in the same unit as the
// session target, for a candidate table.
type Simulator func(ctx context.Context, t *model.FactorTable) (float64, error)

// Outcome is the final state of a session.
type Outcome struct {
	State      model.CalibrationState
	Table      *model.FactorTable
	History    []Result
	Iterations int
	// Adjustment is the product of every applied adjustment.
	Adjustment float64
}

// Last returns the most recent evaluation.
func (o Outcome) Last() (Result, bool) {
	if len(o.History) == 0 {
		return Result{}, false
	}
	return o.History[len(o.History)-1], true
}

// Session drives the evaluate/adjust loop over a private copy of a table.
// A Session is not safe for concurrent use and runs once.
type Session struct {
	id     string
	target float64
	policy Policy
	logger logger.Logger

	table *model.FactorTable
	state model.CalibrationState
}

// NewSession copies table so the caller's value is never mutated.
func NewSession(table *model.FactorTable, target float64, opts ...Option) (*Session, error) {
	if table == nil {
		return nil, &model.FormatError{Message: "nil factor table"}
	}
	if target <= 0 || math.IsNaN(target) {
		return nil, &model.RangeError{Field: "target", Value: target, Want: "> 0"}
	}
	s := &Session{
		id:     uuid.NewString(),
		target: target,
		policy: DefaultPolicy(),
		table:  table.Clone(),
		state:  model.StateUncalibrated,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy.Mode == "" {
		s.policy.Mode = ModeTable
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("calibrate")
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() model.CalibrationState { return s.state }

// Run evaluates the table with simulate and rescales it until the error is
// within tolerance. A large deviation stops with StateReviewRequired unless
// the policy allows large rescales. When the iteration bound is hit or the
// error stops shrinking, Run returns a *model.ConvergenceError together with
// an outcome holding the best table seen. A rejected adjustment returns its
// error with the same kind of outcome.
func (s *Session) Run(ctx context.Context, simulate Simulator) (Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStageDuration("calibrate", float64(time.Since(start).Milliseconds()))
	}()

	var (
		history    []Result
		best       = s.table
		bestErr    = math.Inf(1)
		cumulative = 1.0
		bestAdj    = 1.0
	)
	for iter := 1; iter <= s.policy.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		sim, err := simulate(ctx, s.table)
		if err != nil {
			metrics.RecordStageError("calibrate", "simulate")
			return Outcome{}, err
		}
		res, err := Evaluate(sim, s.target, s.policy)
		if err != nil {
			metrics.RecordStageError("calibrate", "evaluate")
			return Outcome{}, err
		}
		res.Iteration = iter
		history = append(history, res)
		s.state = model.StateEvaluated
		metrics.UpdateCalibration(iter, res.ErrorPct, cumulative)
		s.logger.Info(ctx, "calibration evaluated",
			logger.String("session", s.id),
			logger.Int("iteration", iter),
			logger.Float64("simulated", res.Simulated),
			logger.Float64("target", res.Target),
			logger.Float64("error_pct", res.ErrorPct),
			logger.String("tier", string(res.Tier)),
		)

		improved := math.Abs(res.ErrorPct) < bestErr
		if improved {
			best, bestErr, bestAdj = s.table, math.Abs(res.ErrorPct), cumulative
		}

		switch {
		case res.Tier == TierWithin:
			return s.finish(model.StateAccepted, s.table, history, res.ErrorPct, cumulative), nil
		case res.Tier == TierLarge && !s.policy.AllowLargeRescale:
			s.logger.Warn(ctx, "calibration needs manual review",
				logger.String("session", s.id),
				logger.Float64("error_pct", res.ErrorPct),
				logger.Float64("review_threshold_pct", s.policy.ReviewThresholdPct),
			)
			return s.finish(model.StateReviewRequired, s.table, history, res.ErrorPct, cumulative), nil
		case !improved:
			return s.fail(ctx, best, history, bestErr, bestAdj, "error stopped improving")
		}

		next, err := s.policy.apply(s.table, res.Adjustment)
		if err != nil {
			metrics.RecordStageError("calibrate", "rescale")
			signed := signedBest(history, bestErr)
			s.logger.Error(ctx, "calibration adjustment rejected",
				logger.String("session", s.id),
				logger.Float64("adjustment", res.Adjustment),
				logger.Float64("best_error_pct", signed),
				logger.Error(err),
			)
			return s.finish(model.StateNotConverged, best, history, signed, bestAdj), err
		}
		s.table = next
		cumulative *= res.Adjustment
		s.state = model.StateAdjustmentProposed
		s.logger.Debug(ctx, "calibration adjustment applied",
			logger.String("session", s.id),
			logger.Float64("adjustment", res.Adjustment),
			logger.Float64("cumulative", cumulative),
			logger.String("mode", string(s.policy.Mode)),
		)
	}
	return s.fail(ctx, best, history, bestErr, bestAdj, "iteration limit reached")
}

func (s *Session) finish(state model.CalibrationState, t *model.FactorTable, history []Result, errPct, adj float64) Outcome {
	s.state = state
	out := t.Clone()
	out.Provenance.Iterations = len(history)
	out.Provenance.FinalErrorPct = errPct
	out.Provenance.State = state
	out.Provenance.CalibrationMode = string(s.policy.Mode)
	out.Provenance.Adjustment = adj
	return Outcome{
		State:      state,
		Table:      out,
		History:    history,
		Iterations: len(history),
		Adjustment: adj,
	}
}

func (s *Session) fail(ctx context.Context, best *model.FactorTable, history []Result, bestErr, adj float64, reason string) (Outcome, error) {
	signed := signedBest(history, bestErr)
	out := s.finish(model.StateNotConverged, best, history, signed, adj)
	s.logger.Error(ctx, "calibration did not converge",
		logger.String("session", s.id),
		logger.Int("iterations", len(history)),
		logger.Float64("best_error_pct", signed),
		logger.String("reason", reason),
	)
	return out, &model.ConvergenceError{
		Iterations:   len(history),
		BestErrorPct: signed,
		Best:         out.Table,
		Reason:       reason,
	}
}

// signedBest returns the signed error of the history entry whose magnitude
// is bestErr.
func signedBest(history []Result, bestErr float64) float64 {
	for _, r := range history {
		if math.Abs(r.ErrorPct) == bestErr {
			return r.ErrorPct
		}
	}
	return bestErr
}
