// Package trigger implements scroll-position triggers: an element range on a
// scrolling page that reports when the viewport enters or leaves it.
package trigger

import (
	"fmt"
	"strconv"
	"strings"
)

// Anchor is a point along an edge-to-edge span: Fraction of the span plus a
// pixel offset.
type Anchor struct {
	Fraction float32
	Pixels   float32
}

// Offset resolves the anchor against a span of the given size.
func (a Anchor) Offset(size float32) float32 {
	return a.Fraction*size + a.Pixels
}

// Position pairs a point on the element with a point on the viewport. The
// position is reached when the two points meet.
type Position struct {
	Element  Anchor
	Viewport Anchor
	raw      string
}

func (p Position) String() string {
	return p.raw
}

// MustParsePosition is ParsePosition that panics on error.
func MustParsePosition(s string) Position {
	p, err := ParsePosition(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePosition parses "<element> <viewport>" as in "top 80%" or
// "bottom 20%". Each side is top, center, bottom, a percentage, a pixel
// value, or a keyword with a "+=" / "-=" pixel adjustment. A single token
// applies to both sides.
func ParsePosition(s string) (Position, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return Position{}, fmt.Errorf("position %q: want \"<element> <viewport>\"", s)
	}

	elem, err := parseAnchor(fields[0])
	if err != nil {
		return Position{}, fmt.Errorf("position %q: %w", s, err)
	}
	view := elem
	if len(fields) == 2 {
		if view, err = parseAnchor(fields[1]); err != nil {
			return Position{}, fmt.Errorf("position %q: %w", s, err)
		}
	}
	return Position{Element: elem, Viewport: view, raw: strings.Join(fields, " ")}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func parseAnchor(tok string) (Anchor, error) {
	base, adjust := tok, ""
	if i := strings.IndexAny(tok, "+-"); i > 0 {
		base, adjust = tok[:i], tok[i:]
	}

	var a Anchor
	switch base {
	case "top":
		a.Fraction = 0
	case "center":
		a.Fraction = 0.5
	case "bottom":
		a.Fraction = 1
	default:
		if adjust != "" {
			return Anchor{}, fmt.Errorf("adjustment needs a keyword: %q", tok)
		}
		return parseLength(tok)
	}

	if adjust == "" {
		return a, nil
	}
	if len(adjust) < 3 || adjust[1] != '=' {
		return Anchor{}, fmt.Errorf("bad adjustment %q", adjust)
	}
	px, err := parsePixels(adjust[2:])
	if err != nil {
		return Anchor{}, err
	}
	if adjust[0] == '-' {
		px = -px
	}
	a.Pixels = px
	return a, nil
}

func parseLength(tok string) (Anchor, error) {
	if pct, ok := strings.CutSuffix(tok, "%"); ok {
		v, err := strconv.ParseFloat(pct, 32)
		if err != nil {
			return Anchor{}, fmt.Errorf("bad percentage %q", tok)
		}
		return Anchor{Fraction: float32(v) / 100}, nil
	}
	px, err := parsePixels(tok)
	if err != nil {
		return Anchor{}, err
	}
	return Anchor{Pixels: px}, nil
}

func parsePixels(tok string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "px"), 32)
	if err != nil {
		return 0, fmt.Errorf("bad length %q", tok)
	}
	return float32(v), nil
}
