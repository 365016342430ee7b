package round

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/motionparty/internal/domain/choreo"
	"github.com/okian/motionparty/internal/domain/event"
	"github.com/okian/motionparty/internal/domain/geom"
	"github.com/okian/motionparty/internal/domain/popper"
	"github.com/okian/motionparty/internal/domain/pose"
	"github.com/okian/motionparty/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

type fixedRand struct{}

func (fixedRand) Float64() float64 { return 0.5 }

type memScores struct {
	best map[string]int
	ids  map[string]string
	err  error
}

func (m *memScores) UpdateBest(_ context.Context, key string, score int, roundID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if cur, ok := m.best[key]; ok && score <= cur {
		return false, nil
	}
	m.best[key] = score
	m.ids[key] = roundID
	return true, nil
}

func newScores() *memScores {
	return &memScores{best: map[string]int{}, ids: map[string]string{}}
}

func popperMode(t *testing.T) *PopperMode {
	t.Helper()
	// A single bauble spawns in the middle of the screen every second.
	e, err := popper.NewEngine(
		[]popper.Category{{Name: "bauble", Points: 5, Interval: 1, Lifetime: 8, Size: 50}},
		popper.DefaultArena(1280, 720),
		fixedRand{},
	)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return NewPopperMode(e)
}

func danceMode(t *testing.T) *DanceMode {
	t.Helper()
	seq := choreo.Sequence{Name: "mini", Moves: []choreo.Move{
		{Name: "up", Left: &choreo.Anchor{X: 0.25, Y: 0.25}, Right: &choreo.Anchor{X: 0.75, Y: 0.25}},
	}}
	timing := choreo.DefaultTiming()
	timing.Loops = 1
	s, err := choreo.NewSession(seq, timing, 1000, 1000)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return NewDanceMode(s)
}

func run(ctx context.Context, m *Machine, ticks int, dt float64, snap pose.Snapshot) []event.Frame {
	out := make([]event.Frame, 0, ticks)
	for i := 0; i < ticks; i++ {
		f, err := m.Update(ctx, dt, snap)
		So(err, ShouldBeNil)
		out = append(out, f)
	}
	return out
}

func TestCountdown(t *testing.T) {
	Convey("Given a popper machine with a 3s countdown", t, func() {
		ctx := context.Background()
		m, err := NewMachine(popperMode(t), WithCountdown(3), WithDuration(10))
		So(err, ShouldBeNil)
		So(m.State(), ShouldEqual, Menu)

		Convey("When updated in MENU", func() {
			frames := run(ctx, m, 3, 0.5, pose.Snapshot{})

			Convey("Then nothing happens", func() {
				So(m.State(), ShouldEqual, Menu)
				for _, f := range frames {
					So(f.Empty(), ShouldBeTrue)
				}
			})
		})

		Convey("When the round starts and the countdown runs", func() {
			So(m.Start(), ShouldBeNil)
			So(m.State(), ShouldEqual, Countdown)
			So(m.RoundID(), ShouldNotBeEmpty)
			frames := run(ctx, m, 6, 0.5, pose.Snapshot{})

			Convey("Then each whole second is announced once, starting with the full count", func() {
				var announced []int
				for _, f := range frames {
					if f.Countdown > 0 {
						announced = append(announced, f.Countdown)
					}
				}
				So(announced, ShouldResemble, []int{3, 2, 1})
			})

			Convey("Then play begins when the countdown reaches zero", func() {
				So(m.State(), ShouldEqual, Playing)
				So(m.TimeRemaining(), ShouldEqual, 10)
				So(frames[5].Tick, ShouldEqual, 6)
			})
		})

		Convey("When one tick spans a whole second", func() {
			So(m.Start(), ShouldBeNil)
			frames := run(ctx, m, 3, 1.0, pose.Snapshot{})

			Convey("Then no second is lost", func() {
				So(frames[0].Announced, ShouldResemble, []int{3, 2})
				So(frames[0].Countdown, ShouldEqual, 2)
				So(frames[1].Announced, ShouldResemble, []int{1})
				So(frames[2].Announced, ShouldBeEmpty)
				So(m.State(), ShouldEqual, Playing)
			})
		})

		Convey("When one tick outlasts the whole countdown", func() {
			So(m.Start(), ShouldBeNil)
			frames := run(ctx, m, 1, 5, pose.Snapshot{})

			Convey("Then every second is still announced before play", func() {
				So(frames[0].Announced, ShouldResemble, []int{3, 2, 1})
				So(frames[0].Countdown, ShouldEqual, 1)
				So(m.State(), ShouldEqual, Playing)
				So(m.TimeRemaining(), ShouldEqual, 10)
			})
		})

		Convey("When a round is started twice", func() {
			So(m.Start(), ShouldBeNil)
			err := m.Start()

			Convey("Then the second start is rejected", func() {
				So(errors.Is(err, ErrInvalidTransition), ShouldBeTrue)
			})
		})
	})
}

func TestPopperRoundTimer(t *testing.T) {
	Convey("Given a popper round with a 2s timer and a hand over the spawn point", t, func() {
		ctx := context.Background()
		scores := newScores()
		m, err := NewMachine(popperMode(t), WithCountdown(0), WithDuration(2), WithHighScores(scores, "popper/test"))
		So(err, ShouldBeNil)
		So(m.Start(), ShouldBeNil)
		hand := pose.Snapshot{Players: []pose.Player{{RightHand: geom.At(640, 360)}}}

		Convey("When the round runs out", func() {
			frames := run(ctx, m, 5, 0.5, hand)
			last := frames[len(frames)-1]

			Convey("Then PLAYING ends on the clock with a single round_complete", func() {
				complete := 0
				for _, f := range frames {
					if f.RoundComplete {
						complete++
					}
				}
				So(complete, ShouldEqual, 1)
				So(last.RoundComplete, ShouldBeTrue)
				So(m.State(), ShouldEqual, Results)
				So(m.TimeRemaining(), ShouldEqual, 0)
			})

			Convey("Then the score is final and becomes the high score", func() {
				So(m.Score().Points, ShouldEqual, 5)
				So(m.FinalScore(), ShouldEqual, 5)
				So(last.NewHighScore, ShouldBeTrue)
				So(scores.best["popper/test"], ShouldEqual, 5)
				So(scores.ids["popper/test"], ShouldEqual, m.RoundID())
			})

			Convey("Then RESULTS ignores time", func() {
				more := run(ctx, m, 4, 0.5, hand)
				for _, f := range more {
					So(f.Empty(), ShouldBeTrue)
				}
				So(m.Score().Points, ShouldEqual, 5)
			})

			Convey("Then play again starts a fresh round that does not beat the best", func() {
				first := m.RoundID()
				So(m.Start(), ShouldBeNil)
				So(m.RoundID(), ShouldNotEqual, first)
				So(m.Score().Points, ShouldEqual, 0)
				frames := run(ctx, m, 5, 0.5, hand)
				So(frames[len(frames)-1].RoundComplete, ShouldBeTrue)
				So(frames[len(frames)-1].NewHighScore, ShouldBeFalse)
				So(m.NewBest(), ShouldBeFalse)
			})
		})

		Convey("When the high score store fails", func() {
			scores.err = errors.New("store down")
			var errs []error
			for i := 0; i < 6; i++ {
				if _, err := m.Update(ctx, 0.5, hand); err != nil {
					errs = append(errs, err)
				}
			}

			Convey("Then the round still ends and the error is reported once", func() {
				So(len(errs), ShouldEqual, 1)
				So(m.State(), ShouldEqual, Results)
			})
		})
	})
}

func TestDanceRound(t *testing.T) {
	Convey("Given a dance round with one move and the default dance formula", t, func() {
		ctx := context.Background()
		formula, err := scoring.NewFormula("completed * 100 + best_streak * 50")
		So(err, ShouldBeNil)
		m, err := NewMachine(danceMode(t), WithCountdown(0), WithDuration(1), WithFormula(formula))
		So(err, ShouldBeNil)
		So(m.Select(), ShouldBeNil)
		So(m.State(), ShouldEqual, Select)
		So(m.Start(), ShouldBeNil)

		Convey("When the dancer holds the pose", func() {
			posed := pose.Snapshot{Players: []pose.Player{{LeftHand: geom.At(250, 250), RightHand: geom.At(750, 250)}}}
			frames := run(ctx, m, 9, 0.5, posed)

			Convey("Then the round ignores the round timer and ends with the sequence", func() {
				var completeAt, seqAt int
				for i, f := range frames {
					if f.RoundComplete {
						completeAt = i + 1
					}
					if f.SequenceComplete {
						seqAt = i + 1
					}
				}
				So(seqAt, ShouldEqual, 9)
				So(completeAt, ShouldEqual, 9)
				So(m.State(), ShouldEqual, Results)
				So(m.FinalScore(), ShouldEqual, 150)
			})
		})

		Convey("When nobody is detected", func() {
			frames := run(ctx, m, 11, 0.5, pose.Snapshot{})

			Convey("Then the move times out and the round still completes", func() {
				So(frames[10].Miss, ShouldBeTrue)
				So(frames[10].RoundComplete, ShouldBeTrue)
				So(m.Score().Missed, ShouldEqual, 1)
				So(m.FinalScore(), ShouldEqual, 0)
			})
		})
	})
}

func TestResetFromAnyState(t *testing.T) {
	Convey("Given a machine", t, func() {
		ctx := context.Background()
		m, err := NewMachine(popperMode(t), WithCountdown(1), WithDuration(5))
		So(err, ShouldBeNil)
		hand := pose.Snapshot{Players: []pose.Player{{RightHand: geom.At(640, 360)}}}

		for _, steps := range []int{0, 1, 4, 20} {
			So(m.Start(), ShouldBeNil)
			run(ctx, m, steps, 0.5, hand)

			m.Reset()

			So(m.State(), ShouldEqual, Menu)
			So(m.RoundID(), ShouldBeEmpty)
			So(m.Score().Points, ShouldEqual, 0)
			So(m.Mode().(*PopperMode).Engine.Len(), ShouldEqual, 0)
			So(m.CountdownRemaining(), ShouldEqual, 0)
			So(m.TimeRemaining(), ShouldEqual, 5)
		}

		Convey("Then a reset in MENU is harmless", func() {
			m.Reset()
			So(m.State(), ShouldEqual, Menu)
		})
	})
}

func TestTransitions(t *testing.T) {
	Convey("Given a machine mid-round", t, func() {
		m, err := NewMachine(popperMode(t), WithCountdown(0))
		So(err, ShouldBeNil)
		So(m.Start(), ShouldBeNil)

		Convey("Then select and mode changes are rejected", func() {
			So(errors.Is(m.Select(), ErrInvalidTransition), ShouldBeTrue)
			So(errors.Is(m.SetMode(danceMode(t), "dance/mini"), ErrInvalidTransition), ShouldBeTrue)
			f, err := scoring.NewFormula("completed")
			So(err, ShouldBeNil)
			So(errors.Is(m.SetFormula(f), ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("Then a mode change is accepted once back in MENU", func() {
			m.Reset()
			So(m.SetMode(danceMode(t), "dance/mini"), ShouldBeNil)
			So(m.Mode().Name(), ShouldEqual, "dance")
			So(m.Key(), ShouldEqual, "dance/mini")
			f, err := scoring.NewFormula("completed")
			So(err, ShouldBeNil)
			So(m.SetFormula(f), ShouldBeNil)
			So(m.Formula().Expr(), ShouldEqual, "completed")
			So(errors.Is(m.SetFormula(nil), ErrInvalidTransition), ShouldBeTrue)
		})
	})

	Convey("Given a nil mode", t, func() {
		_, err := NewMachine(nil)
		So(errors.Is(err, ErrInvalidTransition), ShouldBeTrue)
	})

	Convey("State names are stable", t, func() {
		names := make([]string, 0, len(States))
		for _, s := range States {
			names = append(names, s.String())
		}
		So(names, ShouldResemble, []string{"menu", "select", "countdown", "playing", "results"})
	})
}
