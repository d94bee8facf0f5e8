package control

import (
	"context"
	"fmt"

	"github.com/Faultbox/avatar-stage/internal/stage"
)

// Command operations accepted from the host.
const (
	OpStart   = "start"
	OpDispose = "dispose"
	OpResize  = "resize"
	OpScroll  = "scroll"
)

// Command is a host request, e.g. {"op":"resize","width":1024,"height":768}.
type Command struct {
	Op         string  `json:"op"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	PixelRatio float32 `json:"pixel_ratio,omitempty"`
	Y          float32 `json:"y,omitempty"`
}

// Validate checks that the command is well formed.
func (c Command) Validate() error {
	switch c.Op {
	case OpStart, OpDispose, OpScroll:
		return nil
	case OpResize:
		if c.Width < 0 || c.Height < 0 {
			return fmt.Errorf("resize: negative size %dx%d", c.Width, c.Height)
		}
		return nil
	case "":
		return fmt.Errorf("missing op")
	}
	return fmt.Errorf("unknown op %q", c.Op)
}

// Status is an event sent to the host.
type Status struct {
	Event string `json:"event"`
	URL   string `json:"url,omitempty"`
	Clips int    `json:"clips,omitempty"`
	Error string `json:"error,omitempty"`
}

// StatusFromEvent converts a stage event for the wire.
func StatusFromEvent(ev stage.Event) Status {
	st := Status{Event: ev.Kind.String(), URL: ev.URL, Clips: ev.Clips}
	if ev.Err != nil {
		st.Error = ev.Err.Error()
	}
	return st
}

// Target receives host commands. *stage.Controller implements it.
type Target interface {
	Start(ctx context.Context) error
	Dispose()
	Resize(width, height int, pixelRatio float32)
	Scroll(y float32)
}

// Dispatch applies cmd to t. It must run on the thread that owns t.
func Dispatch(ctx context.Context, t Target, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	switch cmd.Op {
	case OpStart:
		return t.Start(ctx)
	case OpDispose:
		t.Dispose()
	case OpResize:
		t.Resize(cmd.Width, cmd.Height, cmd.PixelRatio)
	case OpScroll:
		t.Scroll(cmd.Y)
	}
	return nil
}
