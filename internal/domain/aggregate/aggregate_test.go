package aggregate_test

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/foodlca/internal/adapters/worker"
	"github.com/okian/foodlca/internal/domain/aggregate"
	"github.com/okian/foodlca/internal/domain/mapping"
	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/pkg/logger"
)

func record(name string, co2 float64, land, water *float64) model.RawRecord {
	r := model.RawRecord{
		Names: []string{name},
		CO2:   model.Known(co2, model.UnitKgCO2ePerKg),
		Land:  model.Missing(model.UnitM2aPerKg),
		Water: model.Missing(model.UnitM3PerKg),
	}
	if land != nil {
		r.Land = model.Known(*land, model.UnitM2aPerKg)
	}
	if water != nil {
		r.Water = model.Known(*water, model.UnitM3PerKg)
	}
	return r
}

func ptr(v float64) *float64 { return &v }

func TestAggregate(t *testing.T) {
	Convey("Given the beef match set [20, 30, 25]", t, func() {
		set := mapping.MatchSet{Category: model.Beef, Records: []model.RawRecord{
			record("a", 20, ptr(10), ptr(0.5)),
			record("b", 30, ptr(30), nil),
			record("c", 25, ptr(20), ptr(1.5)),
		}}

		Convey("When aggregating with the median", func() {
			f, err := aggregate.Aggregate(set, model.MethodMedian, 0)

			Convey("Then co2_total is 25", func() {
				So(err, ShouldBeNil)
				So(f.CO2Total, ShouldResemble, model.Known(25, model.UnitKgCO2ePerKg))
				So(f.Land.Value, ShouldEqual, 20)
				So(f.Records, ShouldEqual, 3)
				So(f.Contributors[model.QuantityCO2], ShouldEqual, 3)
			})

			Convey("Then water is converted to litres from its own contributors", func() {
				So(f.Water.Unit, ShouldEqual, model.UnitLPerKg)
				So(f.Water.Value, ShouldAlmostEqual, 1000)
				So(f.Contributors[model.QuantityWater], ShouldEqual, 2)
			})
		})

		Convey("When aggregating with the mean", func() {
			f, err := aggregate.Aggregate(set, model.MethodMean, 0)
			So(err, ShouldBeNil)
			So(f.CO2Total.Value, ShouldAlmostEqual, 25)
			So(f.Method, ShouldEqual, model.MethodMean)
		})

		Convey("When aggregating conservatively", func() {
			f, err := aggregate.Aggregate(set, model.MethodConservative, 0.75)
			So(err, ShouldBeNil)
			So(f.CO2Total.Value, ShouldAlmostEqual, 27.5)
			So(f.Percentile, ShouldEqual, 0.75)
		})

		Convey("When the percentile is out of range", func() {
			_, err := aggregate.Aggregate(set, model.MethodConservative, 1.5)
			So(errors.Is(err, model.ErrRange), ShouldBeTrue)
		})

		Convey("When the method is unknown", func() {
			_, err := aggregate.Aggregate(set, "mode", 0)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a set with co2 but no water anywhere", t, func() {
		set := mapping.MatchSet{Category: model.Lamb, Records: []model.RawRecord{
			record("a", 20, nil, nil),
			record("b", 22, nil, nil),
		}}

		f, err := aggregate.Aggregate(set, model.MethodMedian, 0)

		Convey("Then water is Missing, not zero", func() {
			So(err, ShouldBeNil)
			So(f.CO2Total.Present, ShouldBeTrue)
			So(f.Water.Present, ShouldBeFalse)
			So(f.Water.Unit, ShouldEqual, model.UnitLPerKg)
			So(f.Contributors[model.QuantityWater], ShouldEqual, 0)
		})
	})

	Convey("Given an empty match set", t, func() {
		f, err := aggregate.Aggregate(mapping.MatchSet{Category: model.Tea}, model.MethodMedian, 0)

		Convey("Then every quantity is Missing", func() {
			So(err, ShouldBeNil)
			for _, q := range model.Quantities() {
				So(f.Quantity(q).Present, ShouldBeFalse)
			}
		})
	})
}

func TestStatistics(t *testing.T) {
	Convey("Given sample values", t, func() {
		values := []float64{7, 1, 3, 9, 4, 12, 2}

		Convey("Then the median lies between min and max", func() {
			for n := 1; n <= len(values); n++ {
				m := aggregate.Median(values[:n])
				lo, hi := math.Inf(1), math.Inf(-1)
				for _, v := range values[:n] {
					lo, hi = math.Min(lo, v), math.Max(hi, v)
				}
				So(m, ShouldBeBetweenOrEqual, lo, hi)
			}
		})

		Convey("Then the median equals the 50th percentile", func() {
			p, err := aggregate.Percentile(values, 0.5)
			So(err, ShouldBeNil)
			So(p, ShouldEqual, aggregate.Median(values))
			So(aggregate.Median([]float64{1, 2, 3, 4}), ShouldEqual, 2.5)
		})

		Convey("Then percentiles never decrease as p grows", func() {
			prev := math.Inf(-1)
			for _, p := range []float64{0.05, 0.25, 0.5, 0.75, 0.9, 1} {
				v, err := aggregate.Percentile(values, p)
				So(err, ShouldBeNil)
				So(v, ShouldBeGreaterThanOrEqualTo, prev)
				prev = v
			}
			So(prev, ShouldEqual, 12)
		})

		Convey("Then inputs are not reordered", func() {
			_, _ = aggregate.Percentile(values, 0.9)
			So(values[0], ShouldEqual, 7)
		})

		Convey("Then empty inputs give NaN", func() {
			So(math.IsNaN(aggregate.Median(nil)), ShouldBeTrue)
			So(math.IsNaN(aggregate.Mean(nil)), ShouldBeTrue)
		})

		Convey("Then p outside (0, 1] is a RangeError", func() {
			_, err := aggregate.Percentile(values, 0)
			So(errors.Is(err, model.ErrRange), ShouldBeTrue)
		})
	})
}

func TestAggregateAll(t *testing.T) {
	Convey("Given several match sets", t, func() {
		sets := []mapping.MatchSet{
			{Category: model.Beef, Records: []model.RawRecord{record("a", 20, nil, nil), record("b", 30, nil, nil)}},
			{Category: model.Lamb},
			{Category: model.Pork, Records: []model.RawRecord{record("c", 5, ptr(9), ptr(6))}},
		}
		a, err := aggregate.New(
			aggregate.WithMethod(model.MethodMedian),
			aggregate.WithPool(worker.NewPool(worker.WithLimit(2), worker.WithLogger(logger.Nop()))),
			aggregate.WithLogger(logger.Nop()),
		)
		So(err, ShouldBeNil)

		Convey("When aggregating all of them", func() {
			out, err := a.AggregateAll(context.Background(), sets)

			Convey("Then results keep input order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 3)
				So(out[0].Category, ShouldEqual, model.Beef)
				So(out[0].CO2Total.Value, ShouldEqual, 25)
				So(out[1].CO2Total.Present, ShouldBeFalse)
				So(out[2].Water.Value, ShouldAlmostEqual, 6000)
			})
		})
	})

	Convey("Given invalid aggregator options", t, func() {
		_, err := aggregate.New(aggregate.WithMethod(model.MethodConservative), aggregate.WithPercentile(0), aggregate.WithLogger(logger.Nop()))
		So(errors.Is(err, model.ErrRange), ShouldBeTrue)

		_, err = aggregate.New(aggregate.WithMethod("mode"), aggregate.WithLogger(logger.Nop()))
		So(err, ShouldNotBeNil)
	})
}
