package animation

import "time"

// Clock is a monotonic elapsed-time source for the render tick.
type Clock struct {
	now     func() time.Time
	last    time.Time
	running bool
	elapsed time.Duration
}

// NewClock returns a clock reading the wall clock's monotonic reading.
func NewClock() *Clock {
	return NewClockWithSource(time.Now)
}

// NewClockWithSource returns a clock driven by now.
func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Delta returns seconds since the previous call. The first call starts the
// clock and returns 0.
func (c *Clock) Delta() float32 {
	n := c.now()
	if !c.running {
		c.running = true
		c.last = n
		return 0
	}
	d := n.Sub(c.last)
	c.last = n
	c.elapsed += d
	return float32(d.Seconds())
}

// Elapsed returns the total time reported through Delta.
func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Restart drops the pending interval; the next Delta returns 0.
func (c *Clock) Restart() {
	c.running = false
}
