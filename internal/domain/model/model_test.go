package model_test

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	model "github.com/okian/foodlca/internal/domain/model"
)

func TestCategory(t *testing.T) {
	convey.Convey("Given the canonical category set", t, func() {
		all := model.AllCategories()

		convey.Convey("Then it has 35 categories in a stable order", func() {
			convey.So(all, convey.ShouldHaveLength, 35)
			convey.So(all[0], convey.ShouldEqual, model.Beef)
			convey.So(all[len(all)-1], convey.ShouldEqual, model.Condiments)
			for i, c := range all {
				convey.So(c.Order(), convey.ShouldEqual, i)
				convey.So(c.Valid(), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When the returned slice is modified", func() {
			all[0] = "Tofu"
			convey.So(model.AllCategories()[0], convey.ShouldEqual, model.Beef)
		})

		convey.Convey("When parsing identifiers", func() {
			c, err := model.ParseCategory(" meat_subs ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(c, convey.ShouldEqual, model.MeatSubs)

			_, err = model.ParseCategory("Tofu")
			convey.So(errors.Is(err, model.ErrUnknownCategory), convey.ShouldBeTrue)
		})

		convey.Convey("Then non-canonical spellings are not valid values", func() {
			convey.So(model.Category("beef").Valid(), convey.ShouldBeFalse)
			convey.So(model.Category("beef").Order(), convey.ShouldEqual, -1)
		})
	})
}

func TestMeasure(t *testing.T) {
	convey.Convey("Given known and missing measures", t, func() {
		k := model.Known(2.5, model.UnitKgCO2ePerKg)
		m := model.Missing(model.UnitLPerKg)

		convey.So(k.IsMissing(), convey.ShouldBeFalse)
		convey.So(m.IsMissing(), convey.ShouldBeTrue)
		convey.So(k.Scale(2).Value, convey.ShouldEqual, 5)
		convey.So(m.Scale(2).Present, convey.ShouldBeFalse)
		convey.So(k.String(), convey.ShouldEqual, "2.5 kgCO2e/kg")
		convey.So(m.String(), convey.ShouldEqual, "NA L/kg")

		v, ok := m.Get()
		convey.So(ok, convey.ShouldBeFalse)
		convey.So(v, convey.ShouldEqual, 0)
	})

	convey.Convey("Given aggregation method names", t, func() {
		mth, err := model.ParseMethod("")
		convey.So(err, convey.ShouldBeNil)
		convey.So(mth, convey.ShouldEqual, model.MethodMedian)
		mth, err = model.ParseMethod("Conservative")
		convey.So(err, convey.ShouldBeNil)
		convey.So(mth, convey.ShouldEqual, model.MethodConservative)
		_, err = model.ParseMethod("mode")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestFactorTable(t *testing.T) {
	convey.Convey("Given a table built out of order", t, func() {
		mk := func(c model.Category, v float64) model.CalibratedFactor {
			return model.CalibratedFactor{
				AggregatedFactor: model.AggregatedFactor{
					Category:     c,
					CO2Total:     model.Known(v, model.UnitKgCO2ePerKg),
					Contributors: map[model.Quantity]int{model.QuantityCO2: 1},
				},
				Sources: map[model.Quantity]model.ValueSource{model.QuantityCO2: model.SourceAggregated},
			}
		}
		tbl := model.NewFactorTable([]model.CalibratedFactor{mk(model.Milk, 1.4), mk(model.Beef, 25)}, model.Provenance{RunID: "r"})

		convey.Convey("Then factors are kept in canonical order", func() {
			convey.So(tbl.Len(), convey.ShouldEqual, 2)
			convey.So(tbl.Factors[0].Category, convey.ShouldEqual, model.Beef)
			convey.So(tbl.Factors[1].Category, convey.ShouldEqual, model.Milk)
		})

		convey.Convey("When setting a new and an existing category", func() {
			tbl.Set(mk(model.Chicken, 6))
			tbl.Set(mk(model.Beef, 30))
			convey.So(tbl.Len(), convey.ShouldEqual, 3)
			convey.So(tbl.Factors[1].Category, convey.ShouldEqual, model.Chicken)
			b, _ := tbl.Get(model.Beef)
			convey.So(b.CO2Total.Value, convey.ShouldEqual, 30)
		})

		convey.Convey("When a clone is mutated", func() {
			c := tbl.Clone()
			c.Factors[0].CO2Total.Value = 99
			c.Factors[0].Sources[model.QuantityCO2] = model.SourceFallback
			c.Factors[0].Contributors[model.QuantityCO2] = 7
			c.Provenance.RunID = "other"

			convey.Convey("Then the original is unchanged", func() {
				convey.So(tbl.Factors[0].CO2Total.Value, convey.ShouldEqual, 25)
				convey.So(tbl.Factors[0].Source(model.QuantityCO2), convey.ShouldEqual, model.SourceAggregated)
				convey.So(tbl.Factors[0].Contributors[model.QuantityCO2], convey.ShouldEqual, 1)
				convey.So(tbl.Provenance.RunID, convey.ShouldEqual, "r")
			})
		})

		convey.Convey("Then sources default from presence", func() {
			f := model.CalibratedFactor{AggregatedFactor: model.AggregatedFactor{Land: model.Known(1, model.UnitM2aPerKg)}}
			convey.So(f.Source(model.QuantityLand), convey.ShouldEqual, model.SourceAggregated)
			convey.So(f.Source(model.QuantityWater), convey.ShouldEqual, model.SourceMissing)
		})
	})
}

func TestErrors(t *testing.T) {
	convey.Convey("Given the typed errors", t, func() {
		cause := errors.New("bad byte")
		fe := &model.FormatError{Row: 12, Message: "short row", Context: "a;b", Err: cause}
		convey.So(errors.Is(fe, model.ErrFormat), convey.ShouldBeTrue)
		convey.So(errors.Is(fe, cause), convey.ShouldBeTrue)
		convey.So(fe.Error(), convey.ShouldContainSubstring, "row 12")
		convey.So((&model.FormatError{Message: "empty"}).Error(), convey.ShouldEqual, "file: empty")

		mv := &model.MissingValueError{Category: model.Lamb, Quantity: model.QuantityWater}
		convey.So(errors.Is(mv, model.ErrMissingValue), convey.ShouldBeTrue)
		convey.So(mv.Error(), convey.ShouldContainSubstring, "Lamb")

		re := &model.RangeError{Field: "ratio", Category: model.Beef, Value: 1.2, Want: "in [0, 1]"}
		convey.So(errors.Is(re, model.ErrRange), convey.ShouldBeTrue)
		convey.So(re.Error(), convey.ShouldEqual, "ratio for Beef = 1.2, want in [0, 1]")

		ce := &model.ConvergenceError{Iterations: 3, BestErrorPct: 8.5, Reason: "iteration limit reached"}
		convey.So(errors.Is(ce, model.ErrConvergence), convey.ShouldBeTrue)
		convey.So(ce.Error(), convey.ShouldContainSubstring, "+8.50%")
	})
}
