package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	"marque/internal/domain/dedupe"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRingDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded deduper", t, func() {
		Convey("When recording a new key", func() {
			d := dedupe.New()
			seen := d.SeenAndRecord(ctx, "k1")

			Convey("Then it is reported as unseen and recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a repeat of the same key is reported as seen", func() {
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When capacity N is exceeded by one", func() {
			const n = 5
			d := dedupe.New(dedupe.WithMaxSize(n))
			for i := 0; i <= n; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i)), ShouldBeFalse)
			}

			Convey("Then the first key has been evicted", func() {
				So(d.Size(), ShouldEqual, n)
				So(d.SeenAndRecord(ctx, "k0"), ShouldBeFalse)
			})

			Convey("And the most recent keys are still present", func() {
				for i := 2; i <= n; i++ {
					So(d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i)), ShouldBeTrue)
				}
			})
		})

		Convey("When the same key alternates with others inside the window", func() {
			d := dedupe.New(dedupe.WithMaxSize(10))
			So(d.SeenAndRecord(ctx, "dup"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "other"), ShouldBeFalse)

			Convey("Then the duplicate stays suppressed", func() {
				So(d.SeenAndRecord(ctx, "dup"), ShouldBeTrue)
			})
		})
	})
}
