package service

import (
	"context"
	"errors"
	"math"

	"github.com/okian/motionparty/internal/adapters/repository"
	"github.com/okian/motionparty/internal/domain/choreo"
	"github.com/okian/motionparty/internal/domain/pose"
	"github.com/okian/motionparty/internal/domain/round"
	"github.com/okian/motionparty/internal/domain/scoring"
)

// TargetView is a popper target in pixels.
type TargetView struct {
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Glyph    string  `json:"glyph"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Points   int     `json:"points"`
	// Life is the remaining lifetime fraction, Fade how far the pop
	// animation has run.
	Life   float64 `json:"life"`
	Popped bool    `json:"popped"`
	Fade   float64 `json:"fade"`
}

// AnchorView is one dance hand target.
type AnchorView struct {
	Side   pose.Side `json:"side"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Radius float64   `json:"radius"`
	Hit    bool      `json:"hit"`
}

// HandView is a detected hand.
type HandView struct {
	Player  int       `json:"player"`
	Side    pose.Side `json:"side"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Tracked bool      `json:"tracked"`
}

// MoveView describes the current dance move.
type MoveView struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Index            int     `json:"index"`
	Count            int     `json:"count"`
	Loop             int     `json:"loop"`
	Loops            int     `json:"loops"`
	TimeRemaining    float64 `json:"timeRemaining"`
	Progress         float64 `json:"progress"`
	SequenceProgress float64 `json:"sequenceProgress"`
	Celebrating      bool    `json:"celebrating"`
}

// View is a read-only snapshot for renderers.
type View struct {
	State    string `json:"state"`
	Mode     string `json:"mode"`
	Theme    string `json:"theme,omitempty"`
	Sequence string `json:"sequence,omitempty"`
	RoundID  string `json:"roundId,omitempty"`
	Tick     uint64 `json:"tick"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`

	// Countdown is the whole second shown during COUNTDOWN.
	Countdown     int     `json:"countdown"`
	TimeRemaining float64 `json:"timeRemaining"`
	Duration      float64 `json:"duration"`

	Targets []TargetView `json:"targets,omitempty"`
	Anchors []AnchorView `json:"anchors,omitempty"`
	Move    *MoveView    `json:"move,omitempty"`
	Hands   []HandView   `json:"hands,omitempty"`

	Score        scoring.State `json:"score"`
	FinalScore   int           `json:"finalScore"`
	HighScore    int           `json:"highScore"`
	NewHighScore bool          `json:"newHighScore"`

	PoseAvailable bool `json:"poseAvailable"`
	Players       int  `json:"players"`
}

// View returns the current game snapshot.
func (s *Service) View(ctx context.Context) (View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return View{}, ErrNotStarted
	}
	m := s.machine
	v := View{
		State:         m.State().String(),
		Mode:          m.Mode().Name(),
		RoundID:       m.RoundID(),
		Tick:          m.Tick(),
		Width:         s.cfg.Screen.Width,
		Height:        s.cfg.Screen.Height,
		Countdown:     int(math.Ceil(m.CountdownRemaining())),
		TimeRemaining: m.TimeRemaining(),
		Duration:      m.Duration(),
		Score:         m.Score(),
		FinalScore:    m.FinalScore(),
		NewHighScore:  m.NewBest(),
		PoseAvailable: s.poller.Available(),
		Players:       len(s.lastSnap.Players),
	}

	best, err := s.store.Best(ctx, m.Key())
	switch {
	case err == nil:
		v.HighScore = best.Score
	case !errors.Is(err, repository.ErrNotFound):
		return View{}, err
	}

	switch mode := m.Mode().(type) {
	case *round.PopperMode:
		v.Theme = s.theme.Name
		v.Targets = s.targetViews(mode)
	case *round.DanceMode:
		v.Sequence = s.sequence.Name
		v.Anchors, v.Move = s.danceViews(mode.Session, m.State())
	}

	for i, p := range s.lastSnap.Players {
		for _, side := range pose.Sides {
			h := p.Hand(side)
			v.Hands = append(v.Hands, HandView{Player: i, Side: side, X: h.X, Y: h.Y, Tracked: h.Tracked})
		}
	}
	return v, nil
}

func (s *Service) targetViews(mode *round.PopperMode) []TargetView {
	targets := mode.Engine.Targets()
	out := make([]TargetView, 0, len(targets))
	fade := mode.Engine.Arena().Fade
	for _, t := range targets {
		tv := TargetView{
			Category: t.Category,
			Label:    t.Category,
			X:        t.Pos.X,
			Y:        t.Pos.Y,
			Radius:   t.Size / 2,
			Points:   t.Points,
			Life:     t.LifeFraction(),
			Popped:   t.Popped,
			Fade:     t.FadeFraction(fade),
		}
		if entry, ok := s.theme.Lookup(t.Category); ok {
			if entry.Label != "" {
				tv.Label = entry.Label
			}
			tv.Glyph = entry.Glyph
			tv.Color = entry.Color
		}
		out = append(out, tv)
	}
	return out
}

func (s *Service) danceViews(session *choreo.Session, st round.State) ([]AnchorView, *MoveView) {
	if st != round.Playing && st != round.Results {
		return nil, nil
	}
	var anchors []AnchorView
	if !session.Done() {
		for _, h := range session.Hands() {
			if !h.Tracked {
				continue
			}
			anchors = append(anchors, AnchorView{
				Side:   h.Side,
				X:      h.Target.X,
				Y:      h.Target.Y,
				Radius: s.cfg.Dance.HitRadius,
				Hit:    h.Hit,
			})
		}
	}
	move := session.CurrentMove()
	return anchors, &MoveView{
		Name:             move.Name,
		Description:      move.Description,
		Index:            session.Index(),
		Count:            len(session.Sequence().Moves),
		Loop:             session.Loop(),
		Loops:            s.cfg.Dance.Loops,
		TimeRemaining:    session.TimeRemaining(),
		Progress:         session.Progress(),
		SequenceProgress: session.SequenceProgress(),
		Celebrating:      session.Phase() == choreo.Celebrating,
	}
}
