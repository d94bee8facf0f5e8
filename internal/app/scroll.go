package app

// Scroller tracks the virtual page offset driven by the mouse wheel. The
// window shows one viewport of a page PageHeight pixels tall.
type Scroller struct {
	Y          float32
	Step       float32
	PageHeight float32
	Viewport   float32
}

// Max returns the largest offset.
func (s *Scroller) Max() float32 {
	m := s.PageHeight - s.Viewport
	if m < 0 {
		return 0
	}
	return m
}

// Wheel moves by notches wheel steps and returns the new offset.
func (s *Scroller) Wheel(notches float32) float32 {
	return s.Set(s.Y + notches*s.Step)
}

// Set moves to y, clamped to the page, and returns the new offset.
func (s *Scroller) Set(y float32) float32 {
	if y < 0 {
		y = 0
	}
	if m := s.Max(); y > m {
		y = m
	}
	s.Y = y
	return y
}

// SetViewport updates the viewport height and re-clamps the offset.
func (s *Scroller) SetViewport(h float32) float32 {
	s.Viewport = h
	return s.Set(s.Y)
}

// capRatio limits the pixel ratio to limit; limit <= 0 means uncapped.
func capRatio(ratio, limit float32) float32 {
	if ratio <= 0 {
		ratio = 1
	}
	if limit > 0 && ratio > limit {
		return limit
	}
	return ratio
}
