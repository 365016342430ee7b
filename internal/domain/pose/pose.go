// Package pose describes tracked players and the sources that provide them.
//
// The engine consumes pose data as read-only snapshots pulled once per tick.
// Missing joints are normal and are represented by untracked geom.Joint values.
package pose

import (
	"sort"
	"sync"

	"github.com/okian/motionparty/internal/domain/geom"
)

// Side identifies a hand.
type Side string

// Hand sides in evaluation order.
const (
	Left  Side = "left"
	Right Side = "right"
)

// Sides lists hands in the order they are evaluated.
var Sides = [...]Side{Left, Right} //nolint:gochecknoglobals // fixed evaluation order

// Player is one detected person. Any joint may be untracked.
type Player struct {
	Nose          geom.Joint
	LeftShoulder  geom.Joint
	RightShoulder geom.Joint
	LeftElbow     geom.Joint
	RightElbow    geom.Joint
	LeftHand      geom.Joint
	RightHand     geom.Joint
	LeftHip       geom.Joint
	RightHip      geom.Joint
}

// Hand returns the hand joint for side.
func (p Player) Hand(side Side) geom.Joint {
	if side == Left {
		return p.LeftHand
	}
	return p.RightHand
}

// Snapshot is the most recent pose estimate for all players.
type Snapshot struct {
	Seq     uint64
	Players []Player
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Seq: s.Seq}
	if len(s.Players) > 0 {
		out.Players = make([]Player, len(s.Players))
		copy(out.Players, s.Players)
	}
	return out
}

// Source provides pose snapshots. Latest must not block.
type Source interface {
	Latest() Snapshot
	Available() bool
}

// Clocked is implemented by sources driven by engine time instead of a
// camera, so replays advance in lockstep with the tick.
type Clocked interface {
	Advance(dt float64)
}

// Static always returns the snapshot last passed to Set.
type Static struct {
	mu   sync.RWMutex
	snap Snapshot
	down bool
}

// NewStatic returns a Static source serving players.
func NewStatic(players ...Player) *Static {
	s := &Static{}
	s.Set(players...)
	return s
}

// Set replaces the served players and bumps the sequence number.
func (s *Static) Set(players ...Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{Seq: s.snap.Seq + 1, Players: append([]Player(nil), players...)}
}

// SetAvailable toggles the reported backend state.
func (s *Static) SetAvailable(ok bool) {
	s.mu.Lock()
	s.down = !ok
	s.mu.Unlock()
}

// Latest implements Source.
func (s *Static) Latest() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Available implements Source.
func (s *Static) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.down
}

// Keyframe holds the players visible from At seconds onwards.
type Keyframe struct {
	At      float64
	Players []Player
}

// Script replays keyframes against engine time.
type Script struct {
	frames []Keyframe
	clock  float64
	cur    int
}

// NewScript returns a Script over frames, sorted by time.
func NewScript(frames []Keyframe) *Script {
	fs := append([]Keyframe(nil), frames...)
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].At < fs[j].At })
	return &Script{frames: fs, cur: -1}
}

// Advance implements Clocked.
func (s *Script) Advance(dt float64) {
	s.clock += dt
	for s.cur+1 < len(s.frames) && s.frames[s.cur+1].At <= s.clock {
		s.cur++
	}
}

// Clock returns the script time in seconds.
func (s *Script) Clock() float64 { return s.clock }

// Latest implements Source.
func (s *Script) Latest() Snapshot {
	if s.cur < 0 {
		return Snapshot{}
	}
	return Snapshot{Seq: uint64(s.cur + 1), Players: s.frames[s.cur].Players}.Clone()
}

// Available implements Source.
func (s *Script) Available() bool { return true }
