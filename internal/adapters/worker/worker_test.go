package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/foodlca/internal/adapters/worker"
	"github.com/okian/foodlca/pkg/logger"
)

func TestPool(t *testing.T) {
	Convey("Given a pool limited to two jobs", t, func() {
		ctx := context.Background()
		p := worker.NewPool(worker.WithLimit(2), worker.WithName("test"), worker.WithLogger(logger.Nop()))
		So(p.Limit(), ShouldEqual, 2)

		Convey("When running many jobs", func() {
			var running, peak, done atomic.Int32
			err := p.Run(ctx, 10, func(ctx context.Context, i int) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
				done.Add(1)
				return nil
			})

			Convey("Then every job runs and concurrency stays bounded", func() {
				So(err, ShouldBeNil)
				So(done.Load(), ShouldEqual, 10)
				So(peak.Load(), ShouldBeLessThanOrEqualTo, 2)
			})
		})

		Convey("When a job fails", func() {
			boom := errors.New("boom")
			err := p.Run(ctx, 5, func(ctx context.Context, i int) error {
				if i == 3 {
					return boom
				}
				return nil
			})

			Convey("Then the error is returned", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})

		Convey("When there is nothing to do", func() {
			So(p.Run(ctx, 0, nil), ShouldBeNil)
		})
	})
}

func TestMap(t *testing.T) {
	Convey("Given a pool and inputs", t, func() {
		p := worker.NewPool(worker.WithLimit(3), worker.WithLogger(logger.Nop()))
		in := []int{5, 1, 4, 2, 3}

		Convey("When mapping", func() {
			out, err := worker.Map(context.Background(), p, in, func(_ context.Context, v int) (int, error) {
				time.Sleep(time.Duration(v) * time.Millisecond)
				return v * v, nil
			})

			Convey("Then results keep input order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []int{25, 1, 16, 4, 9})
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := worker.Map(ctx, p, in, func(_ context.Context, v int) (int, error) { return v, nil })

			Convey("Then it fails with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
