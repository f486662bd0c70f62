package calibrate_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/foodlca/internal/domain/calibrate"
	"github.com/okian/foodlca/internal/domain/diet"
	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/internal/domain/scope"
	"github.com/okian/foodlca/pkg/logger"
)

func factor(c model.Category, co2, ratio float64) model.CalibratedFactor {
	return model.CalibratedFactor{
		AggregatedFactor: model.AggregatedFactor{
			Category: c,
			CO2Total: model.Known(co2, model.UnitKgCO2ePerKg),
			Land:     model.Known(1, model.UnitM2aPerKg),
			Water:    model.Missing(model.UnitLPerKg),
		},
		ProductionRatio:  ratio,
		ProductionShare:  model.Known(co2*ratio, model.UnitKgCO2ePerKg),
		SupplyChainShare: model.Known(co2*(1-ratio), model.UnitKgCO2ePerKg),
	}
}

func beefTable() *model.FactorTable {
	return model.NewFactorTable([]model.CalibratedFactor{factor(model.Beef, 25, 0.6)}, model.Provenance{RunID: "run-1"})
}

var (
	params  = diet.Params{Population: 1_000_000, ProcessingLoss: 1}
	profile = model.DietProfile{Name: "beef", Grams: map[model.Category]float64{model.Beef: 10}}
)

func simulator(ctx context.Context, t *model.FactorTable) (float64, error) {
	res, err := diet.Simulate(ctx, t, profile, params, diet.WithLogger(logger.Nop()))
	if err != nil {
		return 0, err
	}
	return res.Total(diet.BasisProduction), nil
}

func TestEvaluate(t *testing.T) {
	p := calibrate.DefaultPolicy()

	Convey("Given a simulated total of 2,000,000 against 1,750,000", t, func() {
		r, err := calibrate.Evaluate(2_000_000, 1_750_000, p)

		Convey("Then the error is +14.29% and the adjustment 0.875", func() {
			So(err, ShouldBeNil)
			So(r.ErrorPct, ShouldAlmostEqual, 14.2857, 1e-4)
			So(r.Adjustment, ShouldAlmostEqual, 0.875, 1e-12)
			So(r.Tier, ShouldEqual, calibrate.TierModerate)
		})
	})

	Convey("Given totals at the tier boundaries", t, func() {
		r, _ := calibrate.Evaluate(105, 100, p)
		So(r.Tier, ShouldEqual, calibrate.TierWithin)
		So(r.Adjustment, ShouldEqual, 1)

		r, _ = calibrate.Evaluate(96, 100, p)
		So(r.Tier, ShouldEqual, calibrate.TierWithin)
		So(r.ErrorPct, ShouldBeLessThan, 0)

		r, _ = calibrate.Evaluate(130, 100, p)
		So(r.Tier, ShouldEqual, calibrate.TierModerate)

		r, _ = calibrate.Evaluate(131, 100, p)
		So(r.Tier, ShouldEqual, calibrate.TierLarge)

		r, _ = calibrate.Evaluate(50, 100, p)
		So(r.Tier, ShouldEqual, calibrate.TierLarge)
		So(r.Adjustment, ShouldEqual, 2)
	})

	Convey("Given a non-positive target or total", t, func() {
		_, err := calibrate.Evaluate(100, 0, p)
		So(errors.Is(err, model.ErrRange), ShouldBeTrue)
		_, err = calibrate.Evaluate(0, 100, p)
		So(errors.Is(err, model.ErrRange), ShouldBeTrue)
	})
}

func TestPolicy(t *testing.T) {
	Convey("Given policies", t, func() {
		So(calibrate.DefaultPolicy().Validate(), ShouldBeNil)

		p := calibrate.DefaultPolicy()
		p.TolerancePct = 0
		So(errors.Is(p.Validate(), model.ErrRange), ShouldBeTrue)

		p = calibrate.DefaultPolicy()
		p.ReviewThresholdPct = 2
		So(errors.Is(p.Validate(), model.ErrRange), ShouldBeTrue)

		p = calibrate.DefaultPolicy()
		p.MaxIterations = 0
		So(errors.Is(p.Validate(), model.ErrRange), ShouldBeTrue)

		p = calibrate.DefaultPolicy()
		p.Mode = "bogus"
		So(p.Validate(), ShouldNotBeNil)
	})

	Convey("Given mode names", t, func() {
		m, err := calibrate.ParseMode("")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, calibrate.ModeTable)
		m, err = calibrate.ParseMode("Production_Share")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, calibrate.ModeProductionShare)
		_, err = calibrate.ParseMode("shares")
		So(err, ShouldNotBeNil)
	})
}

func TestScale(t *testing.T) {
	Convey("Given a table with beef at 25 kg/kg and ratio 0.6", t, func() {
		table := beefTable()

		Convey("When scaling the whole table by 0.8", func() {
			out, err := calibrate.ScaleTable(table, 0.8)
			So(err, ShouldBeNil)
			f, _ := out.Get(model.Beef)

			Convey("Then every emission value shrinks and the ratio stays", func() {
				So(f.CO2Total.Value, ShouldAlmostEqual, 20, 1e-12)
				So(f.ProductionShare.Value, ShouldAlmostEqual, 12, 1e-12)
				So(f.SupplyChainShare.Value, ShouldAlmostEqual, 8, 1e-12)
				So(f.ProductionRatio, ShouldEqual, 0.6)
				So(f.Land.Value, ShouldEqual, 1)
			})

			Convey("Then the input table is untouched", func() {
				orig, _ := table.Get(model.Beef)
				So(orig.CO2Total.Value, ShouldEqual, 25)
			})
		})

		Convey("When scaling only the production share by 0.5", func() {
			out, err := calibrate.ScaleProductionShare(table, 0.5)
			So(err, ShouldBeNil)
			f, _ := out.Get(model.Beef)

			Convey("Then co2_total is fixed and the supply chain absorbs the change", func() {
				So(f.CO2Total.Value, ShouldEqual, 25)
				So(f.ProductionRatio, ShouldAlmostEqual, 0.3, 1e-12)
				So(f.ProductionShare.Value, ShouldAlmostEqual, 7.5, 1e-12)
				So(f.SupplyChainShare.Value, ShouldAlmostEqual, 17.5, 1e-12)
			})
		})

		Convey("When the production share would exceed co2_total", func() {
			_, err := calibrate.ScaleProductionShare(table, 2)
			So(errors.Is(err, model.ErrRange), ShouldBeTrue)
			var re *model.RangeError
			So(errors.As(err, &re), ShouldBeTrue)
			So(re.Category, ShouldEqual, model.Beef)
		})

		Convey("When the adjustment is not positive", func() {
			_, err := calibrate.ScaleTable(table, 0)
			So(errors.Is(err, model.ErrRange), ShouldBeTrue)
		})

		Convey("When recomputing the split from a ratio table", func() {
			ratios, err := scope.NewRatioTable(map[model.Category]float64{model.Beef: 0.8}, 0.4, "test")
			So(err, ShouldBeNil)
			out := calibrate.RecomputeSplit(table, ratios)
			f, _ := out.Get(model.Beef)
			So(f.ProductionShare.Value, ShouldAlmostEqual, 20, 1e-12)
			So(f.SupplyChainShare.Value, ShouldAlmostEqual, 5, 1e-12)
			So(out.Provenance.RatioSource, ShouldEqual, "test")
		})
	})
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	nop := calibrate.WithLogger(logger.Nop())
	base, _ := simulator(ctx, beefTable())

	Convey("Given a table whose simulated total is 20% above target", t, func() {
		target := base / 1.2

		for _, mode := range []calibrate.Mode{calibrate.ModeTable, calibrate.ModeProductionShare} {
			Convey("When running in "+string(mode)+" mode", func() {
				p := calibrate.DefaultPolicy()
				p.Mode = mode
				s, err := calibrate.NewSession(beefTable(), target, calibrate.WithPolicy(p), nop)
				So(err, ShouldBeNil)
				So(s.ID(), ShouldNotBeEmpty)

				out, err := s.Run(ctx, simulator)

				Convey("Then one moderate pass brings the error within tolerance", func() {
					So(err, ShouldBeNil)
					So(out.State, ShouldEqual, model.StateAccepted)
					So(out.Iterations, ShouldEqual, 2)
					So(out.History[0].Tier, ShouldEqual, calibrate.TierModerate)
					last, _ := out.Last()
					So(last.Tier, ShouldEqual, calibrate.TierWithin)
					So(last.ErrorPct, ShouldAlmostEqual, 0, 1e-9)
					So(out.Adjustment, ShouldAlmostEqual, 1/1.2, 1e-12)
					So(s.State(), ShouldEqual, model.StateAccepted)
				})

				Convey("Then provenance records the session", func() {
					prov := out.Table.Provenance
					So(prov.RunID, ShouldEqual, "run-1")
					So(prov.Iterations, ShouldEqual, 2)
					So(prov.State, ShouldEqual, model.StateAccepted)
					So(prov.CalibrationMode, ShouldEqual, string(mode))
				})
			})
		}
	})

	Convey("Given a simulated total 50% above target", t, func() {
		target := base / 1.5

		Convey("When large rescales are not allowed", func() {
			s, _ := calibrate.NewSession(beefTable(), target, nop)
			out, err := s.Run(ctx, simulator)

			Convey("Then the session stops for review with the table unchanged", func() {
				So(err, ShouldBeNil)
				So(out.State, ShouldEqual, model.StateReviewRequired)
				So(out.Iterations, ShouldEqual, 1)
				f, _ := out.Table.Get(model.Beef)
				So(f.CO2Total.Value, ShouldEqual, 25)
			})
		})

		Convey("When large rescales are allowed", func() {
			p := calibrate.DefaultPolicy()
			p.AllowLargeRescale = true
			s, _ := calibrate.NewSession(beefTable(), target, calibrate.WithPolicy(p), nop)
			out, err := s.Run(ctx, simulator)
			So(err, ShouldBeNil)
			So(out.State, ShouldEqual, model.StateAccepted)
		})
	})

	Convey("Given a simulator that ignores the table", t, func() {
		stuck := func(context.Context, *model.FactorTable) (float64, error) { return 120, nil }
		s, _ := calibrate.NewSession(beefTable(), 100, nop)
		out, err := s.Run(ctx, stuck)

		Convey("Then the session stops once the error no longer shrinks", func() {
			var ce *model.ConvergenceError
			So(errors.As(err, &ce), ShouldBeTrue)
			So(errors.Is(err, model.ErrConvergence), ShouldBeTrue)
			So(ce.Iterations, ShouldEqual, 2)
			So(ce.BestErrorPct, ShouldAlmostEqual, 20, 1e-9)
			So(ce.Reason, ShouldContainSubstring, "improving")

			best, _ := ce.Best.Get(model.Beef)
			So(best.CO2Total.Value, ShouldEqual, 25)
			So(out.State, ShouldEqual, model.StateNotConverged)
			So(out.Table.Provenance.State, ShouldEqual, model.StateNotConverged)
		})
	})

	Convey("Given a slowly improving simulator and a tight iteration bound", t, func() {
		calls := 0
		slow := func(context.Context, *model.FactorTable) (float64, error) {
			calls++
			return 100 * (1 + 0.25/float64(calls)), nil
		}
		p := calibrate.DefaultPolicy()
		p.MaxIterations = 3
		s, _ := calibrate.NewSession(beefTable(), 100, calibrate.WithPolicy(p), nop)
		_, err := s.Run(ctx, slow)

		var ce *model.ConvergenceError
		So(errors.As(err, &ce), ShouldBeTrue)
		So(ce.Iterations, ShouldEqual, 3)
		So(ce.BestErrorPct, ShouldAlmostEqual, 25.0/3, 1e-9)
		So(ce.Reason, ShouldContainSubstring, "iteration limit")
	})

	Convey("Given a production share rescale that would push the ratio above 1", t, func() {
		p := calibrate.DefaultPolicy()
		p.Mode = calibrate.ModeProductionShare
		p.AllowLargeRescale = true
		s, _ := calibrate.NewSession(beefTable(), base*1.8, calibrate.WithPolicy(p), nop)
		out, err := s.Run(ctx, simulator)

		Convey("Then the range error comes back with the best table seen", func() {
			var re *model.RangeError
			So(errors.As(err, &re), ShouldBeTrue)
			So(re.Category, ShouldEqual, model.Beef)
			So(out.State, ShouldEqual, model.StateNotConverged)
			So(out.History, ShouldHaveLength, 1)
			So(out.Table, ShouldNotBeNil)
			So(out.Table.Provenance.State, ShouldEqual, model.StateNotConverged)
			So(out.Table.Provenance.FinalErrorPct, ShouldAlmostEqual, out.History[0].ErrorPct, 1e-12)
			f, _ := out.Table.Get(model.Beef)
			So(f.ProductionRatio, ShouldEqual, 0.6)
			So(s.State(), ShouldEqual, model.StateNotConverged)
		})
	})

	Convey("Given failing inputs", t, func() {
		_, err := calibrate.NewSession(beefTable(), 0, nop)
		So(errors.Is(err, model.ErrRange), ShouldBeTrue)

		boom := errors.New("boom")
		s, _ := calibrate.NewSession(beefTable(), 100, nop)
		_, err = s.Run(ctx, func(context.Context, *model.FactorTable) (float64, error) { return 0, boom })
		So(errors.Is(err, boom), ShouldBeTrue)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		s, _ = calibrate.NewSession(beefTable(), 100, nop)
		_, err = s.Run(cctx, simulator)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}

func TestCompareGroups(t *testing.T) {
	ctx := context.Background()

	Convey("Given a simulation of beef and milk", t, func() {
		table := model.NewFactorTable([]model.CalibratedFactor{
			factor(model.Beef, 25, 0.6),
			factor(model.Milk, 1.4, 0.8),
		}, model.Provenance{})
		p := model.DietProfile{Name: "mix", Grams: map[model.Category]float64{model.Beef: 10, model.Milk: 200}}
		res, err := diet.Simulate(ctx, table, p, params, diet.WithLogger(logger.Nop()))
		So(err, ShouldBeNil)

		groups := []calibrate.Group{
			{Name: "Meat", SharePct: 50, Categories: []model.Category{model.Beef, model.Pork}},
			{Name: "Dairy", SharePct: 50, Categories: []model.Category{model.Milk}},
		}
		target := res.Production

		Convey("Then each group is compared with its share of the target", func() {
			cmp := calibrate.CompareGroups(res, diet.BasisProduction, target, groups)
			So(cmp, ShouldHaveLength, 2)
			beef, _ := res.Line(model.Beef)
			So(cmp[0].Simulated, ShouldAlmostEqual, beef.Production, 1e-6)
			So(cmp[0].Target, ShouldAlmostEqual, target/2, 1e-6)
			So(cmp[0].ErrorPct, ShouldAlmostEqual, (beef.Production-target/2)/(target/2)*100, 1e-9)
			So(cmp[0].Adjustment, ShouldAlmostEqual, target/2/beef.Production, 1e-12)
		})

		Convey("Then the report lists category shares summing to 100%", func() {
			eval, err := calibrate.Evaluate(res.Production, target, calibrate.DefaultPolicy())
			So(err, ShouldBeNil)
			r := calibrate.BuildReport(res, diet.BasisProduction, eval, groups)
			So(r.Categories, ShouldHaveLength, 2)
			So(r.Categories[0].SharePct+r.Categories[1].SharePct, ShouldAlmostEqual, 100, 1e-9)
			So(r.Groups, ShouldHaveLength, 2)
			So(r.Total.Tier, ShouldEqual, calibrate.TierWithin)
		})
	})

	Convey("Given reference groups", t, func() {
		So(calibrate.ValidateGroups(calibrate.MonitorGroups()), ShouldBeNil)

		total := 0.0
		for _, g := range calibrate.MonitorGroups() {
			total += g.SharePct
		}
		So(total, ShouldEqual, 79)

		So(calibrate.ValidateGroups([]calibrate.Group{{Name: "x", SharePct: 0, Categories: []model.Category{model.Beef}}}), ShouldNotBeNil)
		So(calibrate.ValidateGroups([]calibrate.Group{{Name: "x", SharePct: 5, Categories: []model.Category{"Tofu"}}}), ShouldNotBeNil)
		So(calibrate.ValidateGroups([]calibrate.Group{{Name: "", SharePct: 5, Categories: []model.Category{model.Beef}}}), ShouldNotBeNil)
	})
}
