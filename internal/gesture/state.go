// Package gesture turns per-frame bounce events into the toy's gesture states.
package gesture

import "time"

// State is the gesture state of a session.
type State int

const (
	// Idle means no hand is being tracked. After a reset a hand has to move
	// before tracking starts again.
	Idle State = iota
	// Tracking means a hand is visible and bounces are being counted.
	Tracking
	// Active means the bounce threshold was reached: music and flashes.
	Active
	// Hype means Active lasted long enough to unleash popups.
	Hype
	// Resetting means motion stopped and feedback is fading out.
	Resetting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	case Active:
		return "active"
	case Hype:
		return "hype"
	case Resetting:
		return "resetting"
	default:
		return "unknown"
	}
}

// Engaged reports whether the state drives music and flashes.
func (s State) Engaged() bool {
	return s == Active || s == Hype
}

// Reason explains why a transition happened.
type Reason string

const (
	ReasonHandSeen  Reason = "hand seen"
	ReasonBounces   Reason = "bounce threshold"
	ReasonHypeDelay Reason = "hype delay"
	ReasonStillness Reason = "no motion"
	ReasonFaded     Reason = "fade done"
	ReasonForced    Reason = "forced reset"
)

// Transition records one state change.
type Transition struct {
	From    State
	To      State
	At      time.Time
	Bounces int // counter value at the moment of the change, before any reset
	Reason  Reason
}
