package scoring

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Given a fresh tracker", t, func() {
		tr := NewTracker()

		Convey("Then accuracy is zero before any attempt", func() {
			So(tr.State().Accuracy(), ShouldEqual, 0)
		})

		Convey("When popper targets are popped", func() {
			tr.Pop("bauble", 5)
			tr.Pop("elf", 50)
			tr.Pop("grinch", -10)
			s := tr.State()

			Convey("Then points and per-category counts accumulate", func() {
				So(s.Points, ShouldEqual, 45)
				So(s.ByCategory, ShouldResemble, map[string]int{"bauble": 1, "elf": 1, "grinch": 1})
			})

			Convey("Then the penalty neither completes nor breaks the streak", func() {
				So(s.Completed, ShouldEqual, 2)
				So(s.Streak, ShouldEqual, 2)
				So(s.BestStreak, ShouldEqual, 2)
			})
		})

		Convey("When hits and misses interleave", func() {
			tr.Hit()
			tr.Hit()
			tr.Hit()
			tr.Miss()
			tr.Hit()
			s := tr.State()

			Convey("Then a miss resets the streak and best streak stays monotonic", func() {
				So(s.Streak, ShouldEqual, 1)
				So(s.BestStreak, ShouldEqual, 3)
				So(s.Completed, ShouldEqual, 4)
				So(s.Missed, ShouldEqual, 1)
				So(s.Accuracy(), ShouldEqual, 80)
			})
		})

		Convey("When the returned state is modified", func() {
			tr.Pop("elf", 50)
			s := tr.State()
			s.ByCategory["elf"] = 99

			Convey("Then the tracker is unaffected", func() {
				So(tr.State().ByCategory["elf"], ShouldEqual, 1)
			})
		})

		Convey("When reset", func() {
			tr.Hit()
			tr.Pop("santa", 100)
			tr.Reset()

			Convey("Then every counter is cleared", func() {
				s := tr.State()
				So(s.Points, ShouldEqual, 0)
				So(s.Completed, ShouldEqual, 0)
				So(s.BestStreak, ShouldEqual, 0)
				So(s.ByCategory, ShouldBeEmpty)
			})
		})
	})
}
