package popper

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/motionparty/internal/domain/geom"
	"github.com/okian/motionparty/internal/domain/pose"
	"github.com/okian/motionparty/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// seqRand returns the queued values in order, then 0.5.
type seqRand struct{ vals []float64 }

func (r *seqRand) Float64() float64 {
	if len(r.vals) == 0 {
		return 0.5
	}
	v := r.vals[0]
	r.vals = r.vals[1:]
	return v
}

var (
	bauble = Category{Name: "bauble", Points: 5, Interval: 1, Lifetime: 8, Speed: 0, Size: 50}
	elf    = Category{Name: "elf", Points: 50, Interval: 4, Lifetime: 3, Speed: 150, Size: 55}
	grinch = Category{Name: "grinch", Points: -10, Interval: 6, Lifetime: 3, Speed: 150, Size: 60}
	// quiet never spawns within a test.
	quiet = Category{Name: "bauble", Points: 5, Interval: 1e9, Lifetime: 8, Size: 50}
)

func hands(left, right geom.Joint) pose.Snapshot {
	return pose.Snapshot{Players: []pose.Player{{LeftHand: left, RightHand: right}}}
}

func newQuietEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine([]Category{quiet}, DefaultArena(1280, 720), &seqRand{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestTargetExpiry(t *testing.T) {
	Convey("Given a single static bauble with an 8s lifetime and no hands", t, func() {
		e := newQuietEngine(t)
		tr := scoring.NewTracker()
		e.Add(NewTarget(quiet, geom.Point{X: 400, Y: 300}, geom.Vec{}))

		Convey("When the clock runs to 8s in 0.5s ticks", func() {
			prev := 8.0
			monotonic := true
			var expiredAt []int
			for i := 1; i <= 16; i++ {
				f := e.Update(0.5, pose.Snapshot{}, tr)
				if len(f.Expired) > 0 {
					expiredAt = append(expiredAt, i)
				}
				for _, tg := range e.Targets() {
					if tg.Lifetime > prev {
						monotonic = false
					}
					prev = tg.Lifetime
				}
			}

			Convey("Then it is removed exactly once at 8s without scoring", func() {
				So(monotonic, ShouldBeTrue)
				So(expiredAt, ShouldResemble, []int{16})
				So(e.Len(), ShouldEqual, 0)
				s := tr.State()
				So(s.Points, ShouldEqual, 0)
				So(s.Missed, ShouldEqual, 0)
				So(s.Streak, ShouldEqual, 0)
			})
		})

		Convey("When the clock stops short of 8s", func() {
			for i := 0; i < 15; i++ {
				e.Update(0.5, pose.Snapshot{}, tr)
			}

			Convey("Then the target is still live with half a second left", func() {
				So(e.Len(), ShouldEqual, 1)
				So(e.Targets()[0].Lifetime, ShouldEqual, 0.5)
				So(e.Targets()[0].LifeFraction(), ShouldEqual, 0.0625)
			})
		})
	})
}

func TestPopScoresOnce(t *testing.T) {
	Convey("Given a target under a lingering hand", t, func() {
		e := newQuietEngine(t)
		tr := scoring.NewTracker()
		e.Add(NewTarget(elf, geom.Point{X: 400, Y: 300}, geom.Vec{}))
		snap := hands(geom.Joint{}, geom.At(430, 300))

		Convey("When three ticks pass", func() {
			var pops int
			for i := 0; i < 3; i++ {
				f := e.Update(0.25, snap, tr)
				pops += len(f.Pops)
				if i == 0 {
					So(f.Pop, ShouldBeTrue)
					So(f.Pops[0].Hand, ShouldEqual, pose.Right)
					So(f.Pops[0].Points, ShouldEqual, 50)
				}
			}

			Convey("Then it pops and scores exactly once", func() {
				So(pops, ShouldEqual, 1)
				s := tr.State()
				So(s.Points, ShouldEqual, 50)
				So(s.ByCategory["elf"], ShouldEqual, 1)
				So(s.Completed, ShouldEqual, 1)
			})

			Convey("Then the popped target is gone after the fade window", func() {
				So(e.Len(), ShouldEqual, 0)
			})
		})

		Convey("When one tick passes after the pop", func() {
			e.Update(0.25, snap, tr)
			f := e.Update(0.25, snap, tr)

			Convey("Then it is still fading and the tick is silent", func() {
				So(e.Len(), ShouldEqual, 1)
				tg := e.Targets()[0]
				So(tg.Popped, ShouldBeTrue)
				So(tg.Pos, ShouldResemble, geom.Point{X: 400, Y: 300})
				So(tg.FadeFraction(0.3), ShouldAlmostEqual, 0.25/0.3)
				So(f.Pop, ShouldBeFalse)
				So(f.Expired, ShouldBeEmpty)
			})
		})
	})
}

func TestHitRadius(t *testing.T) {
	Convey("Given a 60px target and the 50px hand radius", t, func() {
		e := newQuietEngine(t)
		tr := scoring.NewTracker()
		e.Add(NewTarget(grinch, geom.Point{X: 400, Y: 300}, geom.Vec{}))

		Convey("When a hand sits just outside 80px", func() {
			f := e.Update(0.1, hands(geom.At(480.5, 300), geom.Joint{}), tr)

			Convey("Then nothing pops", func() {
				So(f.Pop, ShouldBeFalse)
			})
		})

		Convey("When a hand sits exactly on 80px", func() {
			f := e.Update(0.1, hands(geom.At(480, 300), geom.Joint{}), tr)

			Convey("Then the penalty target pops and costs points without breaking the streak", func() {
				So(f.Pop, ShouldBeTrue)
				So(f.Pops[0].Penalty(), ShouldBeTrue)
				So(tr.State().Points, ShouldEqual, -10)
				So(tr.State().Completed, ShouldEqual, 0)
			})
		})

		Convey("When the hand is untracked but positioned on the target", func() {
			f := e.Update(0.1, hands(geom.Joint{Point: geom.Point{X: 400, Y: 300}}, geom.Joint{}), tr)

			Convey("Then nothing pops", func() {
				So(f.Pop, ShouldBeFalse)
				So(tr.State().Points, ShouldEqual, 0)
			})
		})
	})
}

func TestHandTieBreak(t *testing.T) {
	Convey("Given two overlapping targets", t, func() {
		e := newQuietEngine(t)
		tr := scoring.NewTracker()
		e.Add(NewTarget(elf, geom.Point{X: 400, Y: 300}, geom.Vec{}))
		e.Add(NewTarget(bauble, geom.Point{X: 410, Y: 300}, geom.Vec{}))

		Convey("When one hand covers both", func() {
			snap := hands(geom.At(405, 300), geom.Joint{})
			first := e.Update(0.1, snap, tr)
			second := e.Update(0.1, snap, tr)

			Convey("Then the first in iteration order pops this tick and the other next tick", func() {
				So(len(first.Pops), ShouldEqual, 1)
				So(first.Pops[0].Category, ShouldEqual, "elf")
				So(len(second.Pops), ShouldEqual, 1)
				So(second.Pops[0].Category, ShouldEqual, "bauble")
			})
		})

		Convey("When both hands cover both", func() {
			f := e.Update(0.1, hands(geom.At(405, 300), geom.At(405, 300)), tr)

			Convey("Then the left hand takes the first and the right the second", func() {
				So(len(f.Pops), ShouldEqual, 2)
				So(f.Pops[0].Hand, ShouldEqual, pose.Left)
				So(f.Pops[0].Category, ShouldEqual, "elf")
				So(f.Pops[1].Hand, ShouldEqual, pose.Right)
				So(f.Pops[1].Category, ShouldEqual, "bauble")
				So(tr.State().Points, ShouldEqual, 55)
			})
		})

		Convey("When a second player's hand covers them", func() {
			snap := pose.Snapshot{Players: []pose.Player{{}, {RightHand: geom.At(405, 300)}}}
			f := e.Update(0.1, snap, tr)

			Convey("Then the pop is attributed to that player", func() {
				So(len(f.Pops), ShouldEqual, 1)
				So(f.Pops[0].Player, ShouldEqual, 1)
			})
		})
	})
}

func TestWallBounce(t *testing.T) {
	Convey("Given a moving target heading into the left wall", t, func() {
		e := newQuietEngine(t)
		e.Add(NewTarget(elf, geom.Point{X: 60, Y: 300}, geom.Vec{X: -100, Y: 0}))

		Convey("When it crosses the wall margin", func() {
			e.Update(0.5, pose.Snapshot{}, nil)
			tg := e.Targets()[0]

			Convey("Then it is clamped to the margin and heads back inward at the same speed", func() {
				So(tg.Pos.X, ShouldEqual, 50)
				So(tg.Vel.X, ShouldEqual, 100)
				So(tg.Vel.Len(), ShouldEqual, 100)
			})
		})
	})

	Convey("Given a diagonal target heading into the bottom-right corner", t, func() {
		e := newQuietEngine(t)
		e.Add(NewTarget(elf, geom.Point{X: 1220, Y: 660}, geom.Vec{X: 120, Y: 160}))

		Convey("When it crosses both walls in one tick", func() {
			e.Update(0.5, pose.Snapshot{}, nil)
			tg := e.Targets()[0]

			Convey("Then both components reflect and speed is preserved", func() {
				So(tg.Pos, ShouldResemble, geom.Point{X: 1230, Y: 670})
				So(tg.Vel, ShouldResemble, geom.Vec{X: -120, Y: -160})
				So(tg.Vel.Len(), ShouldEqual, 200)
			})
		})
	})

	Convey("Given many seeded moving targets", t, func() {
		e, err := NewEngine([]Category{elf}, DefaultArena(1280, 720), rand.New(rand.NewSource(11)))
		So(err, ShouldBeNil)
		walls := geom.Inset(1280, 720, 50)

		Convey("Then they never leave the wall rectangle", func() {
			inside := true
			for i := 0; i < 600; i++ {
				e.Update(1.0/60, pose.Snapshot{}, nil)
				for _, tg := range e.Targets() {
					if !walls.Contains(tg.Pos) || math.Abs(tg.Vel.Len()-150) > 1e-6 {
						inside = false
					}
				}
			}
			So(inside, ShouldBeTrue)
		})
	})
}

func TestScheduler(t *testing.T) {
	Convey("Given a scheduler with two categories", t, func() {
		rng := &seqRand{vals: []float64{0, 1, 0.5, 0.5, 0.25}}
		s := NewScheduler([]Category{bauble, elf}, DefaultArena(1280, 720), rng)

		Convey("When 4s pass in quarter-second ticks", func() {
			var spawned []Target
			var ticks []int
			for i := 1; i <= 16; i++ {
				out := s.Update(0.25)
				for range out {
					ticks = append(ticks, i)
				}
				spawned = append(spawned, out...)
			}

			Convey("Then spawns are exactly periodic and simultaneous ones follow table order", func() {
				So(ticks, ShouldResemble, []int{4, 8, 12, 16, 16})
				So(spawned[3].Category, ShouldEqual, "bauble")
				So(spawned[4].Category, ShouldEqual, "elf")
			})

			Convey("Then positions span the spawn rectangle", func() {
				So(spawned[0].Pos, ShouldResemble, geom.Point{X: 80, Y: 640})
				for _, tg := range spawned {
					So(geom.Inset(1280, 720, 80).Contains(tg.Pos), ShouldBeTrue)
				}
			})

			Convey("Then static targets never move and moving ones get the category speed", func() {
				So(spawned[0].Vel, ShouldResemble, geom.Vec{})
				So(spawned[4].Vel.Len(), ShouldAlmostEqual, 150)
				So(spawned[4].Lifetime, ShouldEqual, 3)
				So(spawned[4].Size, ShouldEqual, 55)
			})
		})
	})
}

func TestDeterministicReplay(t *testing.T) {
	Convey("Given two engines built from the same seed", t, func() {
		table := []Category{bauble, elf, grinch}
		run := func() (scoring.State, []Target) {
			e, err := NewEngine(table, DefaultArena(1280, 720), rand.New(rand.NewSource(42)))
			So(err, ShouldBeNil)
			tr := scoring.NewTracker()
			for i := 0; i < 900; i++ {
				x := 100 + float64(i%100)*10
				e.Update(1.0/60, hands(geom.At(x, 360), geom.At(1280-x, 200)), tr)
			}
			return tr.State(), e.Targets()
		}

		a, ta := run()
		b, tb := run()

		Convey("Then identical inputs give identical scores and targets", func() {
			So(a, ShouldResemble, b)
			So(ta, ShouldResemble, tb)
			So(a.Points, ShouldNotEqual, 0)
		})
	})
}

func TestEngineValidationAndReset(t *testing.T) {
	Convey("Given invalid configurations", t, func() {
		arena := DefaultArena(1280, 720)
		cases := []struct {
			name  string
			table []Category
			arena Arena
		}{
			{"an empty table", nil, arena},
			{"zero interval", []Category{{Name: "x", Interval: 0, Lifetime: 1, Size: 1}}, arena},
			{"zero lifetime", []Category{{Name: "x", Interval: 1, Lifetime: 0, Size: 1}}, arena},
			{"zero size", []Category{{Name: "x", Interval: 1, Lifetime: 1, Size: 0}}, arena},
			{"a duplicate name", []Category{bauble, bauble}, arena},
			{"zero hand radius", []Category{bauble}, Arena{Width: 100, Height: 100}},
			{"a margin too wide", []Category{bauble}, Arena{Width: 100, Height: 100, HandRadius: 1, SpawnMargin: 50}},
			{"negative fade", []Category{bauble}, Arena{Width: 100, Height: 100, HandRadius: 1, Fade: -1}},
		}
		for _, tc := range cases {
			Convey("Then "+tc.name+" is rejected", func() {
				_, err := NewEngine(tc.table, tc.arena, &seqRand{})
				So(errors.Is(err, ErrInvalidCategory), ShouldBeTrue)
			})
		}

		Convey("Then a nil random source is rejected", func() {
			_, err := NewEngine([]Category{bauble}, arena, nil)
			So(errors.Is(err, ErrInvalidCategory), ShouldBeTrue)
		})
	})

	Convey("Given an engine with live targets and running timers", t, func() {
		e, err := NewEngine([]Category{bauble}, DefaultArena(1280, 720), &seqRand{})
		So(err, ShouldBeNil)
		e.Update(0.75, pose.Snapshot{}, nil)
		e.Add(NewTarget(bauble, geom.Point{X: 300, Y: 300}, geom.Vec{}))

		Convey("When reset", func() {
			e.Reset()
			f := e.Update(0.5, pose.Snapshot{}, nil)

			Convey("Then targets are gone and spawn timers restart from zero", func() {
				So(e.Len(), ShouldEqual, 0)
				So(f.Spawned, ShouldBeEmpty)
			})
		})
	})
}
