// Package terminal is a tcell frontend: the mouse stands in for a tracked
// player and the game is drawn with glyphs.
package terminal

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/motionparty/internal/domain/geom"
	"github.com/okian/motionparty/internal/domain/pose"
)

// MouseSource is a pose.Source driven by terminal mouse events. The pointer
// is the right hand and the left hand mirrors it across the vertical
// centre line, so symmetric moves can be performed with one pointer.
type MouseSource struct {
	mu     sync.Mutex
	width  float64
	height float64
	cols   int
	rows   int
	hand   geom.Point
	seen   bool
	seq    uint64
}

// NewMouseSource maps a cols x rows terminal onto a width x height playfield.
func NewMouseSource(width, height float64, cols, rows int) *MouseSource {
	return &MouseSource{width: width, height: height, cols: max(cols, 1), rows: max(rows, 1)}
}

// HandleEvent consumes mouse and resize events and reports whether ev was
// used.
func (m *MouseSource) HandleEvent(ev tcell.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev := ev.(type) {
	case *tcell.EventMouse:
		col, row := ev.Position()
		m.hand = m.pixel(col, row)
		m.seen = true
		m.seq++
		return true
	case *tcell.EventResize:
		m.cols, m.rows = ev.Size()
		m.cols, m.rows = max(m.cols, 1), max(m.rows, 1)
		return true
	}
	return false
}

// pixel returns the playfield position of the centre of a cell.
func (m *MouseSource) pixel(col, row int) geom.Point {
	return geom.Point{
		X: (float64(col) + 0.5) * m.width / float64(m.cols),
		Y: (float64(row) + 0.5) * m.height / float64(m.rows),
	}
}

// Latest implements pose.Source. No player is reported until the pointer
// has moved once.
func (m *MouseSource) Latest() pose.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.seen {
		return pose.Snapshot{Seq: m.seq}
	}
	mirror := geom.Point{X: m.width - m.hand.X, Y: m.hand.Y}
	p := pose.Player{
		RightHand: geom.Joint{Point: m.hand, Tracked: true},
		LeftHand:  geom.Joint{Point: mirror, Tracked: true},
	}
	return pose.Snapshot{Seq: m.seq, Players: []pose.Player{p}}
}

// Available implements pose.Source.
func (m *MouseSource) Available() bool { return true }
