package trigger

import "fmt"

// Event is a transition of the scroll position across the trigger range.
type Event int

const (
	// Enter fires when scrolling forward past the start.
	Enter Event = iota
	// Leave fires when scrolling forward past the end.
	Leave
	// EnterBack fires when scrolling backward past the end.
	EnterBack
	// LeaveBack fires when scrolling backward past the start.
	LeaveBack
)

func (e Event) String() string {
	switch e {
	case Enter:
		return "enter"
	case Leave:
		return "leave"
	case EnterBack:
		return "enter_back"
	case LeaveBack:
		return "leave_back"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

type zone int

const (
	before zone = iota
	inside
	after
)

// ScrollTrigger tracks an element laid out at [Top, Top+Height) on a page
// scrolled by the host. The trigger is active while the scroll offset lies
// between Start and End.
type ScrollTrigger struct {
	Start  Position
	End    Position
	Top    float32
	Height float32

	zone   zone
	primed bool
}

// New creates a trigger for an element at the given page offset.
func New(start, end Position, top, height float32) *ScrollTrigger {
	return &ScrollTrigger{Start: start, End: end, Top: top, Height: height}
}

// Range returns the scroll offsets at which the start and end positions are
// reached for a viewport of height vh.
func (t *ScrollTrigger) Range(vh float32) (start, end float32) {
	start = t.Top + t.Start.Element.Offset(t.Height) - t.Start.Viewport.Offset(vh)
	end = t.Top + t.End.Element.Offset(t.Height) - t.End.Viewport.Offset(vh)
	return start, end
}

// Active reports whether the last update was inside the range.
func (t *ScrollTrigger) Active() bool {
	return t.primed && t.zone == inside
}

// Update evaluates the scroll offset and returns the events crossed since
// the previous update, in order. The first update treats the page as
// coming from above the range, so a page loaded mid-range gets Enter.
func (t *ScrollTrigger) Update(scrollY, vh float32) []Event {
	start, end := t.Range(vh)

	z := inside
	switch {
	case scrollY < start:
		z = before
	case scrollY > end:
		z = after
	}

	prev := t.zone
	if !t.primed {
		prev = before
		t.primed = true
	}
	t.zone = z

	switch {
	case prev == z:
		return nil
	case prev == before && z == inside:
		return []Event{Enter}
	case prev == inside && z == after:
		return []Event{Leave}
	case prev == after && z == inside:
		return []Event{EnterBack}
	case prev == inside && z == before:
		return []Event{LeaveBack}
	case prev == before && z == after:
		return []Event{Enter, Leave}
	default: // after -> before
		return []Event{EnterBack, LeaveBack}
	}
}

// Reset forgets the last zone; the next Update evaluates from scratch.
func (t *ScrollTrigger) Reset() {
	t.primed = false
	t.zone = before
}
