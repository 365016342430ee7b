package event

import (
	"testing"

	"github.com/okian/motionparty/internal/domain/pose"
)

func TestFrameEmpty(t *testing.T) {
	var f Frame
	if !f.Empty() {
		t.Fatal("zero frame should be empty")
	}
	f.Tick = 9
	if !f.Empty() {
		t.Fatal("tick number alone is not an event")
	}
	f.Expired = []string{"bauble"}
	if f.Empty() {
		t.Fatal("expiry is an event")
	}
}

func TestFrameMerge(t *testing.T) {
	f := Frame{Tick: 4, Countdown: 3}
	f.Merge(Frame{Tick: 99, Hit: true, Expired: []string{"elf", "elf"}})
	f.Merge(Frame{Miss: true, Expired: []string{"santa"}, Spawned: []string{"bauble"}, Pops: []Pop{{Category: "elf", Hand: pose.Left, Points: 50}}})

	if f.Tick != 4 {
		t.Errorf("tick overwritten: %d", f.Tick)
	}
	if !f.Hit || !f.Miss || !f.Pop {
		t.Errorf("flags not merged: %+v", f)
	}
	if f.Countdown != 3 || len(f.Expired) != 3 || len(f.Spawned) != 1 || len(f.Pops) != 1 {
		t.Errorf("counters not merged: %+v", f)
	}
	if (Pop{Points: -10}).Penalty() != true || f.Pops[0].Penalty() {
		t.Error("penalty detection wrong")
	}
}

func TestFrameAnnounce(t *testing.T) {
	var f Frame
	f.Announce(3)
	f.Merge(Frame{Countdown: 2, Announced: []int{2}})

	if f.Countdown != 2 {
		t.Errorf("countdown = %d, want 2", f.Countdown)
	}
	if len(f.Announced) != 2 || f.Announced[0] != 3 || f.Announced[1] != 2 {
		t.Errorf("announced = %v, want [3 2]", f.Announced)
	}
	if f.Empty() {
		t.Error("announcement is an event")
	}
}
