package gesture

import "time"

// Config holds the state machine timing.
type Config struct {
	// BounceThreshold is the number of reversals that turns Tracking into Active.
	BounceThreshold int
	// HypeDelay is how long Active lasts before Hype.
	HypeDelay time.Duration
	// StillnessTimeout is how long without motion resets any non-idle state.
	StillnessTimeout time.Duration
	// ResetFade is how long Resetting lasts before Idle.
	ResetFade time.Duration
}

// Input is one frame's worth of classifier output.
type Input struct {
	Now      time.Time
	Hands    int
	Reversal bool
	Moving   bool
}

// Machine is the bounce gesture state machine.
//
// Transitions depend only on the current state, the bounce counter, the time
// spent in the state and the time since the last moving frame.
//
// After a reset the machine stays Idle until a hand moves, so a hand resting
// in view does not restart tracking.
type Machine struct {
	config     Config
	state      State
	bounces    int
	enteredAt  time.Time
	lastMotion time.Time
	started    bool
	rearm      bool
}

// NewMachine creates a Machine in Idle.
func NewMachine(config Config) *Machine {
	if config.BounceThreshold < 1 {
		config.BounceThreshold = 1
	}
	return &Machine{config: config, state: Idle}
}

// Advance feeds one frame and returns the transitions it caused, in order.
// A frame without hands is treated as a still frame.
func (m *Machine) Advance(in Input) []Transition {
	if !m.started {
		m.started = true
		m.enteredAt = in.Now
		m.lastMotion = in.Now
	}
	if in.Moving {
		m.lastMotion = in.Now
	}

	var out []Transition

	if m.state == Idle {
		if in.Hands == 0 || (m.rearm && !in.Moving) {
			return nil
		}
		m.rearm = false
		out = append(out, m.enter(Tracking, in.Now, ReasonHandSeen))
		m.lastMotion = in.Now
	}

	switch m.state {
	case Tracking, Active, Hype:
		if m.Stillness(in.Now) > m.config.StillnessTimeout {
			out = append(out, m.enter(Resetting, in.Now, ReasonStillness))
			return out
		}

		if in.Reversal && (m.state == Tracking || m.state == Active) {
			m.bounces++
		}

		if m.state == Tracking && m.bounces >= m.config.BounceThreshold {
			out = append(out, m.enter(Active, in.Now, ReasonBounces))
		}

		// At most one promotion per frame
		if m.state == Active && in.Now.Sub(m.enteredAt) >= m.config.HypeDelay && len(out) == 0 {
			out = append(out, m.enter(Hype, in.Now, ReasonHypeDelay))
		}

	case Resetting:
		if in.Now.Sub(m.enteredAt) >= m.config.ResetFade {
			out = append(out, m.enter(Idle, in.Now, ReasonFaded))
		}
	}

	return out
}

// Reset forces the machine into Resetting. It returns false when the machine
// is already idle or resetting.
func (m *Machine) Reset(now time.Time) (Transition, bool) {
	if m.state == Idle || m.state == Resetting {
		return Transition{}, false
	}
	if !m.started {
		m.started = true
		m.lastMotion = now
	}
	return m.enter(Resetting, now, ReasonForced), true
}

func (m *Machine) enter(to State, now time.Time, reason Reason) Transition {
	tr := Transition{
		From:    m.state,
		To:      to,
		At:      now,
		Bounces: m.bounces,
		Reason:  reason,
	}

	m.state = to
	m.enteredAt = now
	if to == Idle || to == Resetting {
		m.bounces = 0
	}
	if to == Idle {
		m.rearm = true
	}

	return tr
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Bounces returns the bounce counter.
func (m *Machine) Bounces() int {
	return m.bounces
}

// Since returns how long the machine has been in its current state.
func (m *Machine) Since(now time.Time) time.Duration {
	if !m.started {
		return 0
	}
	return now.Sub(m.enteredAt)
}

// Stillness returns the time since the last moving frame.
func (m *Machine) Stillness(now time.Time) time.Duration {
	if !m.started {
		return 0
	}
	return now.Sub(m.lastMotion)
}

// FadeProgress returns how far Resetting has progressed, from 0 to 1.
// It returns 1 in every other state.
func (m *Machine) FadeProgress(now time.Time) float64 {
	if m.state != Resetting || m.config.ResetFade <= 0 {
		return 1
	}
	p := float64(now.Sub(m.enteredAt)) / float64(m.config.ResetFade)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
