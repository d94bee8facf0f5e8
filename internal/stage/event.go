package stage

import "fmt"

// EventKind identifies a controller status change.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventLoadFailed
	EventStarted
	EventPaused
)

var eventNames = [...]string{"loaded", "load_failed", "started", "paused"}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event reports a controller status change to observers.
type Event struct {
	Kind  EventKind
	URL   string
	Clips int   // EventLoaded
	Err   error // EventLoadFailed
}
