package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pylab/leaderboard/internal/domain/dedupe"
	"github.com/pylab/leaderboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(user string, lecture int, score float64) model.ScoreRecord {
	return model.ScoreRecord{Username: user, Lecture: lecture, Score: score}
}

func TestDeduplicator(t *testing.T) {
	Convey("Given a new Deduplicator", t, func() {
		ctx := context.Background()

		Convey("When creating a deduplicator with default options", func() {
			d := dedupe.New()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
				So(d.Overwritten(), ShouldEqual, 0)
				So(d.Records(ctx), ShouldBeEmpty)
			})
		})

		Convey("When creating a deduplicator with custom options", func() {
			d := dedupe.New(dedupe.WithExpectedSize(100), dedupe.WithExpectedSize(-1))

			Convey("Then it should still be empty", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When adding records", func() {
			d := dedupe.New()

			Convey("And the key is new", func() {
				overwritten := d.Add(ctx, rec("alice", 1, 90))

				Convey("Then it should return false and keep the record", func() {
					So(overwritten, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the key was already seen", func() {
				d.Add(ctx, rec("alice", 1, 90))
				overwritten := d.Add(ctx, rec("alice", 1, 40))

				Convey("Then the later score should win even when lower", func() {
					So(overwritten, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
					So(d.Overwritten(), ShouldEqual, 1)
					So(d.Records(ctx)[0].Score, ShouldEqual, 40)
				})
			})

			Convey("And the same user submits another lecture", func() {
				d.Add(ctx, rec("alice", 1, 90))
				overwritten := d.Add(ctx, rec("alice", 2, 90))

				Convey("Then both records should be kept", func() {
					So(overwritten, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 2)
				})
			})

			Convey("And usernames differ only by case", func() {
				d.Add(ctx, rec("alice", 1, 90))
				d.Add(ctx, rec("Alice", 1, 80))

				Convey("Then they should be distinct keys", func() {
					So(d.Size(), ShouldEqual, 2)
				})
			})
		})

		Convey("When the returned records are modified", func() {
			d := dedupe.New()
			d.Add(ctx, rec("alice", 1, 90))
			records := d.Records(ctx)
			records[0].Score = 0

			Convey("Then the internal state should be unchanged", func() {
				So(d.Records(ctx)[0].Score, ShouldEqual, 90)
			})
		})
	})
}

func TestDedupe(t *testing.T) {
	Convey("Given a sequence with resubmissions", t, func() {
		ctx := context.Background()
		input := []model.ScoreRecord{
			rec("alice", 1, 90),
			rec("bob", 1, 70),
			rec("alice", 2, 80),
			rec("alice", 1, 95),
			rec("bob", 1, 60),
		}

		out, overwritten := dedupe.Dedupe(ctx, input)

		Convey("Then one record per key should remain in first-seen order", func() {
			So(out, ShouldResemble, []model.ScoreRecord{
				rec("alice", 1, 95),
				rec("bob", 1, 60),
				rec("alice", 2, 80),
			})
			So(overwritten, ShouldEqual, 2)
		})

		Convey("Then running it again should be a no-op", func() {
			again, n := dedupe.Dedupe(ctx, out)
			So(again, ShouldResemble, out)
			So(n, ShouldEqual, 0)
		})
	})

	Convey("Given no records", t, func() {
		out, overwritten := dedupe.Dedupe(context.Background(), nil)

		Convey("Then the output should be empty", func() {
			So(out, ShouldBeEmpty)
			So(overwritten, ShouldEqual, 0)
		})
	})
}

func TestDeduplicator_Concurrency(t *testing.T) {
	Convey("Given concurrent writers", t, func() {
		ctx := context.Background()
		d := dedupe.New()
		const numGoroutines = 8
		const perGoroutine = 50

		var wg sync.WaitGroup
		for g := range numGoroutines {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := range perGoroutine {
					d.Add(ctx, rec(fmt.Sprintf("user-%d", i), 1, float64(g)))
				}
			}(g)
		}
		wg.Wait()

		Convey("Then each key should exist once", func() {
			So(d.Size(), ShouldEqual, perGoroutine)
			So(d.Overwritten(), ShouldEqual, (numGoroutines-1)*perGoroutine)
		})
	})
}
