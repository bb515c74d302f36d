package tui

import (
	"github.com/charlie0129/battmoji/pkg/animation"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
)

// FrameMsg carries one animation frame from the daemon stream.
type FrameMsg struct {
	Frame animation.Frame
}

// StatusMsg carries the status line and power state.
type StatusMsg struct {
	Status string
	State  *powerinfo.PowerState
}

// StreamEndedMsg signals the frame stream closed.
type StreamEndedMsg struct{}

// ErrorMsg carries an error to display.
type ErrorMsg struct {
	Err error
}

// AnimationStartedMsg reports whether a request started a new session.
type AnimationStartedMsg struct {
	Started bool
}

// TickMsg is a periodic tick for polling.
type TickMsg struct{}
