package popup

import (
	"image"
	"math/rand/v2"
	"time"
)

// Vec is a 2D position or velocity in pixels.
type Vec struct {
	X, Y float64
}

// Instance is one live popup.
type Instance struct {
	Slot  int
	Asset int
	Pos   Vec // top-left corner
	Vel   Vec // pixels per frame
	Size  image.Point
	Born  time.Time
}

// Rect returns the popup's on-screen rectangle.
func (in Instance) Rect() image.Rectangle {
	at := image.Pt(int(in.Pos.X), int(in.Pos.Y))
	return image.Rectangle{Min: at, Max: at.Add(in.Size)}
}

// PoolConfig holds the popup pool tuning.
type PoolConfig struct {
	// Capacity caps the number of live popups.
	Capacity int
	// MinSpeed and MaxSpeed bound each velocity component, pixels per frame.
	MinSpeed float64
	MaxSpeed float64
}

// Pool is a fixed set of popup slots. Spawning into a full pool reuses the
// oldest slot, so memory never grows past Capacity instances.
type Pool struct {
	config PoolConfig
	sizes  []image.Point
	slots  []Instance
	live   []bool
	next   int
	count  int
	rng    *rand.Rand
}

// NewPool creates a pool for assets of the given sizes. A nil rng uses a
// randomly seeded generator.
func NewPool(config PoolConfig, sizes []image.Point, rng *rand.Rand) *Pool {
	if config.Capacity < 0 {
		config.Capacity = 0
	}
	if config.MaxSpeed < config.MinSpeed {
		config.MaxSpeed = config.MinSpeed
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Pool{
		config: config,
		sizes:  sizes,
		slots:  make([]Instance, config.Capacity),
		live:   make([]bool, config.Capacity),
		rng:    rng,
	}
}

// Enabled reports whether the pool can ever hold a popup.
func (p *Pool) Enabled() bool {
	return len(p.sizes) > 0 && len(p.slots) > 0
}

// Capacity returns the slot count.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

// Len returns the number of live popups.
func (p *Pool) Len() int {
	return p.count
}

// Spawn places a popup with a random asset, position and velocity inside bounds.
// It returns false when the pool is disabled.
func (p *Pool) Spawn(now time.Time, bounds image.Rectangle) (Instance, bool) {
	if !p.Enabled() {
		return Instance{}, false
	}

	slot := p.next
	p.next = (p.next + 1) % len(p.slots)

	asset := p.rng.IntN(len(p.sizes))
	size := p.sizes[asset]

	in := Instance{
		Slot:  slot,
		Asset: asset,
		Pos: Vec{
			X: float64(bounds.Min.X) + p.rng.Float64()*float64(max(bounds.Dx()-size.X, 0)),
			Y: float64(bounds.Min.Y) + p.rng.Float64()*float64(max(bounds.Dy()-size.Y, 0)),
		},
		Vel:  Vec{X: p.randomSpeed(), Y: p.randomSpeed()},
		Size: size,
		Born: now,
	}

	if !p.live[slot] {
		p.live[slot] = true
		p.count++
	}
	p.slots[slot] = in

	return in, true
}

func (p *Pool) randomSpeed() float64 {
	s := p.config.MinSpeed + p.rng.Float64()*(p.config.MaxSpeed-p.config.MinSpeed)
	if p.rng.IntN(2) == 0 {
		return -s
	}
	return s
}

// Step moves every live popup by its velocity and bounces it off the edges
// of bounds.
func (p *Pool) Step(bounds image.Rectangle) {
	for i := range p.slots {
		if !p.live[i] {
			continue
		}
		in := &p.slots[i]
		in.Pos.X, in.Vel.X = bounce(in.Pos.X+in.Vel.X, in.Vel.X, float64(bounds.Min.X), float64(bounds.Max.X-in.Size.X))
		in.Pos.Y, in.Vel.Y = bounce(in.Pos.Y+in.Vel.Y, in.Vel.Y, float64(bounds.Min.Y), float64(bounds.Max.Y-in.Size.Y))
	}
}

// bounce reflects a coordinate off [lo, hi]. A popup larger than the bounds
// is pinned to lo.
func bounce(pos, vel, lo, hi float64) (float64, float64) {
	if hi < lo {
		return lo, vel
	}
	if pos < lo {
		return lo, abs(vel)
	}
	if pos > hi {
		return hi, -abs(vel)
	}
	return pos, vel
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Live returns a copy of the live popups in slot order.
func (p *Pool) Live() []Instance {
	out := make([]Instance, 0, p.count)
	for i := range p.slots {
		if p.live[i] {
			out = append(out, p.slots[i])
		}
	}
	return out
}

// Clear destroys every popup.
func (p *Pool) Clear() {
	for i := range p.live {
		p.live[i] = false
	}
	p.count = 0
	p.next = 0
}
