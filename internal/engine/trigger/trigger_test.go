package trigger

import (
	"reflect"
	"testing"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		elem Anchor
		view Anchor
	}{
		{"top 80%", Anchor{Fraction: 0}, Anchor{Fraction: 0.8}},
		{"bottom 20%", Anchor{Fraction: 1}, Anchor{Fraction: 0.2}},
		{"center center", Anchor{Fraction: 0.5}, Anchor{Fraction: 0.5}},
		{"top", Anchor{}, Anchor{}},
		{"100px bottom", Anchor{Pixels: 100}, Anchor{Fraction: 1}},
		{"top+=50 bottom-=25px", Anchor{Pixels: 50}, Anchor{Fraction: 1, Pixels: -25}},
		{"  top   50%  ", Anchor{}, Anchor{Fraction: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePosition(tt.in)
			if err != nil {
				t.Fatalf("ParsePosition: %v", err)
			}
			if p.Element != tt.elem || p.Viewport != tt.view {
				t.Errorf("got %+v / %+v, want %+v / %+v", p.Element, p.Viewport, tt.elem, tt.view)
			}
		})
	}
}

func TestParsePositionErrors(t *testing.T) {
	for _, in := range []string{"", "top 80% extra", "middle 10%", "top 8x%", "10+=5 top", "top+5"} {
		if _, err := ParsePosition(in); err == nil {
			t.Errorf("ParsePosition(%q) should fail", in)
		}
	}
}

func TestPositionText(t *testing.T) {
	var p Position
	if err := p.UnmarshalText([]byte("bottom 20%")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	text, _ := p.MarshalText()
	if string(text) != "bottom 20%" {
		t.Errorf("MarshalText = %q", text)
	}
}

func newTestTrigger() *ScrollTrigger {
	// Element at 1000..1500 on the page; with a 1000px viewport the range
	// runs from scroll 200 to scroll 1300.
	return New(MustParsePosition("top 80%"), MustParsePosition("bottom 20%"), 1000, 500)
}

func TestRange(t *testing.T) {
	start, end := newTestTrigger().Range(1000)
	if start != 200 || end != 1300 {
		t.Errorf("Range = %v..%v, want 200..1300", start, end)
	}
}

func TestUpdateSequence(t *testing.T) {
	tr := newTestTrigger()

	steps := []struct {
		scroll float32
		want   []Event
		active bool
	}{
		{0, nil, false},
		{199, nil, false},
		{200, []Event{Enter}, true},
		{800, nil, true},
		{1400, []Event{Leave}, false},
		{1000, []Event{EnterBack}, true},
		{100, []Event{LeaveBack}, false},
		{5000, []Event{Enter, Leave}, false},
		{0, []Event{EnterBack, LeaveBack}, false},
	}

	for _, s := range steps {
		got := tr.Update(s.scroll, 1000)
		if !reflect.DeepEqual(got, s.want) {
			t.Errorf("Update(%v) = %v, want %v", s.scroll, got, s.want)
		}
		if tr.Active() != s.active {
			t.Errorf("Update(%v): Active = %v, want %v", s.scroll, tr.Active(), s.active)
		}
	}
}

func TestInitialUpdateInsideRange(t *testing.T) {
	tr := newTestTrigger()
	if got := tr.Update(500, 1000); !reflect.DeepEqual(got, []Event{Enter}) {
		t.Errorf("first Update inside range = %v, want [enter]", got)
	}

	tr.Reset()
	if tr.Active() {
		t.Error("Reset trigger should be inactive")
	}
	if got := tr.Update(500, 1000); !reflect.DeepEqual(got, []Event{Enter}) {
		t.Errorf("Update after Reset = %v, want [enter]", got)
	}
}

func TestViewportResizeMovesRange(t *testing.T) {
	tr := newTestTrigger()
	tr.Update(100, 1000)

	// A taller viewport pulls the start position up to scroll 0.
	if got := tr.Update(100, 1250); !reflect.DeepEqual(got, []Event{Enter}) {
		t.Errorf("Update after resize = %v, want [enter]", got)
	}
}

func TestEventString(t *testing.T) {
	if Enter.String() != "enter" || LeaveBack.String() != "leave_back" {
		t.Errorf("unexpected names %s %s", Enter, LeaveBack)
	}
}
