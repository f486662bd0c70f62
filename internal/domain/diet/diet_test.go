package diet_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/foodlca/internal/domain/diet"
	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/pkg/logger"
)

func factor(c model.Category, co2, prod float64, land, water *float64) model.CalibratedFactor {
	f := model.CalibratedFactor{
		AggregatedFactor: model.AggregatedFactor{
			Category: c,
			CO2Total: model.Known(co2, model.UnitKgCO2ePerKg),
			Land:     model.Missing(model.UnitM2aPerKg),
			Water:    model.Missing(model.UnitLPerKg),
		},
		ProductionRatio:  prod / co2,
		ProductionShare:  model.Known(prod, model.UnitKgCO2ePerKg),
		SupplyChainShare: model.Known(co2-prod, model.UnitKgCO2ePerKg),
	}
	if land != nil {
		f.Land = model.Known(*land, model.UnitM2aPerKg)
	}
	if water != nil {
		f.Water = model.Known(*water, model.UnitLPerKg)
	}
	return f
}

func ptr(v float64) *float64 { return &v }

func TestSimulate(t *testing.T) {
	ctx := context.Background()
	nop := diet.WithLogger(logger.Nop())

	Convey("Given beef at 10 g/day and a production share of 15 kg/kg", t, func() {
		table := model.NewFactorTable([]model.CalibratedFactor{
			factor(model.Beef, 25, 15, ptr(20), ptr(15400)),
		}, model.Provenance{})
		profile := model.DietProfile{Name: "beef-only", Grams: map[model.Category]float64{model.Beef: 10}}

		Convey("When simulating one million people without losses", func() {
			res, err := diet.Simulate(ctx, table, profile, diet.Params{Population: 1_000_000, ProcessingLoss: 1.0}, nop)

			Convey("Then the production total is 54,750,000 kg", func() {
				So(err, ShouldBeNil)
				So(res.Lines, ShouldHaveLength, 1)
				So(res.Lines[0].AnnualKgPerCapita, ShouldAlmostEqual, 3.65, 1e-12)
				So(res.Production, ShouldAlmostEqual, 54_750_000, 1e-3)
				So(res.Total(diet.BasisProduction), ShouldEqual, res.Production)
			})

			Convey("Then the lifecycle, land and water totals come from the same pass", func() {
				So(res.Lifecycle, ShouldAlmostEqual, 3.65*25*1_000_000, 1e-3)
				So(res.Total(diet.BasisLifecycle), ShouldEqual, res.Lifecycle)
				So(res.Land, ShouldAlmostEqual, 3.65*20*1_000_000, 1e-3)
				So(res.Water, ShouldAlmostEqual, 3.65*15400*1_000_000, 1)
			})
		})

		Convey("When a processing loss applies", func() {
			res, err := diet.Simulate(ctx, table, profile, diet.Params{Population: 1_000_000, ProcessingLoss: 1.15}, nop)
			So(err, ShouldBeNil)
			So(res.Production, ShouldAlmostEqual, 54_750_000*1.15, 1e-2)
		})
	})

	Convey("Given a diet with categories the table cannot serve", t, func() {
		missing := factor(model.Pork, 5, 2.75, nil, nil)
		missing.CO2Total = model.Missing(model.UnitKgCO2ePerKg)
		missing.ProductionShare = model.Missing(model.UnitKgCO2ePerKg)
		table := model.NewFactorTable([]model.CalibratedFactor{
			factor(model.Beef, 25, 15, nil, nil),
			missing,
		}, model.Provenance{})
		profile := model.DietProfile{Name: "mixed", Grams: map[model.Category]float64{
			model.Beef: 10, model.Pork: 15, model.Tea: 3,
		}}

		res, err := diet.Simulate(ctx, table, profile, diet.Params{Population: 10, ProcessingLoss: 1}, nop)

		Convey("Then they are skipped and reported in canonical order", func() {
			So(err, ShouldBeNil)
			So(res.Lines, ShouldHaveLength, 1)
			So(res.Skipped, ShouldHaveLength, 2)
			So(res.Skipped[0].Category, ShouldEqual, model.Pork)
			So(res.Skipped[1].Category, ShouldEqual, model.Tea)
		})

		Convey("Then missing land and water do not count as zero-impact lines", func() {
			l, ok := res.Line(model.Beef)
			So(ok, ShouldBeTrue)
			So(l.Land.Present, ShouldBeFalse)
			So(l.Water.Present, ShouldBeFalse)
		})
	})

	Convey("Given invalid parameters", t, func() {
		table := model.NewFactorTable(nil, model.Provenance{})
		p := model.DietProfile{Grams: map[model.Category]float64{model.Beef: 1}}

		_, err := diet.Simulate(ctx, table, p, diet.Params{Population: 0, ProcessingLoss: 1}, nop)
		So(errors.Is(err, model.ErrRange), ShouldBeTrue)

		_, err = diet.Simulate(ctx, table, p, diet.Params{Population: 1, ProcessingLoss: -1}, nop)
		So(errors.Is(err, model.ErrRange), ShouldBeTrue)

		neg := model.DietProfile{Grams: map[model.Category]float64{model.Beef: -1}}
		_, err = diet.Simulate(ctx, table, neg, diet.Params{Population: 1, ProcessingLoss: 1}, nop)
		So(errors.Is(err, model.ErrRange), ShouldBeTrue)

		_, err = diet.Simulate(ctx, nil, p, diet.Params{Population: 1, ProcessingLoss: 1}, nop)
		So(errors.Is(err, model.ErrFormat), ShouldBeTrue)
	})
}

func TestDefaultProfiles(t *testing.T) {
	Convey("Given the built-in profiles", t, func() {
		profiles := diet.DefaultProfiles()

		So(profiles, ShouldContainKey, diet.ProfileMonitor2024)
		So(profiles[diet.ProfileMonitor2024].Grams[model.Milk], ShouldEqual, 220)
		for name, p := range profiles {
			So(p.Name, ShouldEqual, name)
			for c := range p.Grams {
				So(c.Valid(), ShouldBeTrue)
			}
		}
	})
}

func TestParseBasis(t *testing.T) {
	Convey("Given basis names", t, func() {
		b, err := diet.ParseBasis("")
		So(err, ShouldBeNil)
		So(b, ShouldEqual, diet.BasisProduction)
		b, err = diet.ParseBasis("Lifecycle")
		So(err, ShouldBeNil)
		So(b, ShouldEqual, diet.BasisLifecycle)
		_, err = diet.ParseBasis("scope3")
		So(err, ShouldNotBeNil)
	})
}
