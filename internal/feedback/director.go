// Package feedback turns gesture transitions into music, flashes and popups.
package feedback

import (
	"image"
	"log"
	"time"

	"github.com/ayusman/sixseven/internal/audio"
	"github.com/ayusman/sixseven/internal/gesture"
	"github.com/ayusman/sixseven/internal/motion"
	"github.com/ayusman/sixseven/internal/popup"
)

// Config holds the feedback tuning.
type Config struct {
	// Flash alpha is FlashBase + FlashScale*speed/frameHeight, clamped to
	// [FlashMin, FlashMax].
	FlashBase  float64
	FlashScale float64
	FlashMin   float64
	FlashMax   float64

	// ResetFade is how long the flash takes to fade out while resetting.
	ResetFade time.Duration

	// PopupBurst popups appear on entering Hype, then one every PopupSpawnEvery.
	PopupBurst      int
	PopupSpawnEvery time.Duration
	// PopupArea confines popups. Empty means the frame.
	PopupArea image.Rectangle
}

// Overlay is what the renderer draws on top of the current frame.
type Overlay struct {
	Flash  float64
	Popups []popup.Instance
	Music  bool
}

// Director owns the side effects of the gesture states. It is driven from the
// frame loop only.
type Director struct {
	config Config
	player audio.Player
	pool   *popup.Pool

	override     bool
	flash        float64
	lastFlash    float64
	resetAt      time.Time
	resetting    bool
	pendingBurst int
	lastSpawn    time.Time
}

// NewDirector creates a Director. A nil player plays nothing; a nil pool
// shows no popups.
func NewDirector(config Config, player audio.Player, pool *popup.Pool) *Director {
	if player == nil {
		player = audio.Silent{}
	}
	if pool == nil {
		pool = popup.NewPool(popup.PoolConfig{}, nil, nil)
	}
	return &Director{config: config, player: player, pool: pool}
}

// Apply performs the entry effects of each transition, in order.
func (d *Director) Apply(transitions []gesture.Transition) {
	for _, tr := range transitions {
		switch tr.To {
		case gesture.Active:
			d.resetting = false
			if d.override {
				log.Printf("[audio] manual override, leaving music %s", onOff(d.player.Playing()))
				continue
			}
			if !d.player.Playing() {
				d.player.Play()
				log.Println("[audio] music started")
			}

		case gesture.Hype:
			d.pendingBurst = d.config.PopupBurst
			d.lastSpawn = tr.At

		case gesture.Resetting:
			if d.player.Playing() {
				d.player.Stop()
				log.Println("[audio] music stopped")
			}
			if n := d.pool.Len(); n > 0 {
				log.Printf("[popup] clearing %d popups", n)
			}
			d.pool.Clear()
			d.pendingBurst = 0
			d.override = false
			d.resetting = true
			d.resetAt = tr.At
			d.flash = 0

		case gesture.Idle:
			d.resetting = false
			d.lastFlash = 0
			d.flash = 0
		}
	}
}

// Frame updates flash and popups for one frame. bounds is the rendered frame.
func (d *Director) Frame(res motion.Result, state gesture.State, now time.Time, bounds image.Rectangle) {
	area := d.config.PopupArea
	if area.Empty() {
		area = bounds
	}

	switch {
	case state.Engaged() && res.Moving:
		d.flash = d.flashAlpha(res.Speed(), bounds.Dy())
		d.lastFlash = d.flash
	case state == gesture.Resetting && d.resetting:
		d.flash = d.fade(now)
	default:
		d.flash = 0
	}

	if state == gesture.Hype && d.pool.Enabled() {
		for ; d.pendingBurst > 0; d.pendingBurst-- {
			d.pool.Spawn(now, area)
		}
		if d.config.PopupSpawnEvery > 0 && now.Sub(d.lastSpawn) >= d.config.PopupSpawnEvery {
			d.pool.Spawn(now, area)
			d.lastSpawn = now
		}
	}

	d.pool.Step(area)
}

func (d *Director) flashAlpha(speed float64, frameHeight int) float64 {
	if frameHeight <= 0 {
		return d.config.FlashMin
	}
	alpha := d.config.FlashBase + d.config.FlashScale*speed/float64(frameHeight)
	return clamp(alpha, d.config.FlashMin, d.config.FlashMax)
}

func (d *Director) fade(now time.Time) float64 {
	if d.config.ResetFade <= 0 {
		return 0
	}
	left := 1 - float64(now.Sub(d.resetAt))/float64(d.config.ResetFade)
	return d.lastFlash * clamp(left, 0, 1)
}

// ToggleMusic flips playback and holds the choice until the next reset.
// It returns whether music is now playing. Without a loaded track it does
// nothing.
func (d *Director) ToggleMusic() bool {
	if _, silent := d.player.(audio.Silent); silent {
		log.Println("[audio] no music loaded, ignoring toggle")
		return false
	}
	on := audio.Toggle(d.player)
	d.override = true
	log.Printf("[audio] music toggled %s", onOff(on))
	return on
}

// Overridden reports whether the user toggled music since the last reset.
func (d *Director) Overridden() bool {
	return d.override
}

// Flash returns the current flash alpha.
func (d *Director) Flash() float64 {
	return d.flash
}

// Overlay returns the draw plan for the current frame.
func (d *Director) Overlay() Overlay {
	return Overlay{
		Flash:  d.flash,
		Popups: d.pool.Live(),
		Music:  d.player.Playing(),
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
