package motion

import (
	"fmt"
	"math"
	"time"

	"github.com/ayusman/sixseven/internal/detector"
)

// Direction is the vertical direction a wrist last moved in.
type Direction int

const (
	// None means the hand has not moved past the noise threshold since it was seen.
	None Direction = iota
	// Up means the wrist moved towards the top of the frame (y decreasing).
	Up
	// Down means the wrist moved towards the bottom of the frame (y increasing).
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// Observation is one hand's wrist position for one frame, in pixels.
type Observation struct {
	Key    string
	WristY float64
}

// Observe converts detector output into observations. Each hand is keyed by
// its handedness label; unlabeled hands and label collisions fall back to a
// positional key so two hands never share a history.
func Observe(hands []detector.HandLandmarks, frameHeight int) []Observation {
	if len(hands) == 0 {
		return nil
	}

	obs := make([]Observation, 0, len(hands))
	used := make(map[string]bool, len(hands))
	for i := range hands {
		key := hands[i].Handedness
		if key == "" || used[key] {
			key = fmt.Sprintf("hand-%d", i)
		}
		used[key] = true
		obs = append(obs, Observation{
			Key:    key,
			WristY: hands[i].Wrist().Y * float64(frameHeight),
		})
	}
	return obs
}

// Config holds the classifier tuning.
type Config struct {
	// Threshold is the minimum |dy| in pixels per frame that counts as movement.
	Threshold float64
	// HistorySize is the number of samples kept per hand.
	HistorySize int
	// Forget drops a hand's history after it has been unseen this long.
	Forget time.Duration
}

// Result summarizes one frame.
type Result struct {
	// Hands is the number of hands observed this frame.
	Hands int
	// Reversal is true when at least one hand changed direction this frame.
	// Simultaneous reversals of both hands are one event.
	Reversal bool
	// Reversing is the number of hands that changed direction this frame.
	Reversing int
	// Moving is true when any hand moved past the threshold.
	Moving bool
	// Velocity is the signed dy of the fastest moving hand, pixels per frame.
	Velocity float64
	// Direction is the direction of the fastest moving hand.
	Direction Direction
}

// Speed returns |Velocity|.
func (r Result) Speed() float64 {
	return math.Abs(r.Velocity)
}

type handState struct {
	history  *History
	dir      Direction
	lastSeen time.Time
}

// Classifier tracks per-hand wrist histories and reports direction reversals.
type Classifier struct {
	config Config
	hands  map[string]*handState
}

// NewClassifier creates a Classifier with the given tuning.
func NewClassifier(config Config) *Classifier {
	return &Classifier{
		config: config,
		hands:  make(map[string]*handState),
	}
}

// Observe feeds one frame of observations and classifies it.
//
// A reversal is a change in the sign of a hand's vertical velocity, counting
// the first departure from rest. Hands missing from obs keep their history
// untouched and cannot reverse this frame.
func (c *Classifier) Observe(now time.Time, obs []Observation) Result {
	res := Result{Hands: len(obs)}

	for _, o := range obs {
		hs, ok := c.hands[o.Key]
		if !ok {
			hs = &handState{history: NewHistory(c.config.HistorySize)}
			c.hands[o.Key] = hs
		}
		hs.lastSeen = now
		hs.history.Push(o.WristY)

		dy, ok := hs.history.Delta()
		if !ok || math.Abs(dy) <= c.config.Threshold {
			continue
		}

		dir := Down
		if dy < 0 {
			dir = Up
		}

		res.Moving = true
		if math.Abs(dy) > res.Speed() {
			res.Velocity = dy
			res.Direction = dir
		}

		if dir != hs.dir {
			res.Reversing++
		}
		hs.dir = dir
	}

	res.Reversal = res.Reversing > 0

	if c.config.Forget > 0 {
		for key, hs := range c.hands {
			if now.Sub(hs.lastSeen) > c.config.Forget {
				delete(c.hands, key)
			}
		}
	}

	return res
}

// History returns the stored samples for a hand, oldest first.
func (c *Classifier) History(key string) []float64 {
	hs, ok := c.hands[key]
	if !ok {
		return nil
	}
	return hs.history.Values()
}

// Tracked returns the number of hands with a live history.
func (c *Classifier) Tracked() int {
	return len(c.hands)
}

// Reset forgets every hand.
func (c *Classifier) Reset() {
	c.hands = make(map[string]*handState)
}
