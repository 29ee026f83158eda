package availability

import (
	"testing"

	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
)

func TestSlotStarts_Basic(t *testing.T) {
	window := model.Window{Start: model.NewClock(9, 0), End: model.NewClock(10, 0)}
	busy := []Interval{{Start: model.NewClock(9, 15), End: model.NewClock(9, 45)}}

	slots := SlotStarts(window, 15, busy)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d (%v)", len(slots), slots)
	}
	if slots[0] != model.NewClock(9, 0) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0])
	}
	if slots[1] != model.NewClock(9, 45) {
		t.Fatalf("expected second slot 09:45, got %s", slots[1])
	}
}

func TestSlotStarts_DropsPartialTrailingSlot(t *testing.T) {
	window := model.Window{Start: model.NewClock(9, 0), End: model.NewClock(10, 10)}
	slots := SlotStarts(window, 30, nil)
	if len(slots) != 2 || slots[1] != model.NewClock(9, 30) {
		t.Fatalf("expected 09:00 and 09:30 only, got %v", slots)
	}
}

func TestSlotStarts_TouchingBookingsDoNotBlock(t *testing.T) {
	window := model.Window{Start: model.NewClock(9, 0), End: model.NewClock(11, 0)}
	busy := []Interval{{Start: model.NewClock(9, 30), End: model.NewClock(10, 0)}}

	slots := SlotStarts(window, 30, busy)
	want := []model.Clock{model.NewClock(9, 0), model.NewClock(10, 0), model.NewClock(10, 30)}
	if len(slots) != len(want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, slots)
		}
	}
}

func TestSlotStarts_EmptyOrInvalid(t *testing.T) {
	if got := SlotStarts(model.Window{Start: 600, End: 600}, 30, nil); len(got) != 0 {
		t.Fatalf("empty window must yield nothing, got %v", got)
	}
	if got := SlotStarts(model.Window{Start: 600, End: 540}, 30, nil); len(got) != 0 {
		t.Fatalf("inverted window must yield nothing, got %v", got)
	}
	if got := SlotStarts(model.Window{Start: 540, End: 600}, 0, nil); len(got) != 0 {
		t.Fatalf("zero size must yield nothing, got %v", got)
	}
}
