package pose

// Poller pulls from a Source at a fixed tick cadence and serves the cached
// snapshot in between. A nil or unavailable source yields an empty snapshot.
type Poller struct {
	src       Source
	every     int
	ticks     int
	cached    Snapshot
	available bool
}

// NewPoller polls src once every `every` ticks. every < 1 polls every tick.
func NewPoller(src Source, every int) *Poller {
	if every < 1 {
		every = 1
	}
	return &Poller{src: src, every: every}
}

// Poll advances clocked sources by dt and returns the snapshot for this
// tick. polled is true when the source was actually queried.
func (p *Poller) Poll(dt float64) (snap Snapshot, polled bool) {
	if c, ok := p.src.(Clocked); ok {
		c.Advance(dt)
	}
	if p.ticks%p.every == 0 {
		p.refresh()
		polled = true
	}
	p.ticks++
	return p.cached, polled
}

func (p *Poller) refresh() {
	if p.src == nil || !p.src.Available() {
		p.cached = Snapshot{}
		p.available = false
		return
	}
	p.cached = p.src.Latest().Clone()
	p.available = true
}

// Available reports the backend state seen at the last poll.
func (p *Poller) Available() bool { return p.available }

// Reset forgets the cached snapshot and forces a poll on the next tick.
func (p *Poller) Reset() {
	p.ticks = 0
	p.cached = Snapshot{}
}
