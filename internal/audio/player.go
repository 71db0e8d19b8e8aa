// Package audio plays the party track.
package audio

import "errors"

var (
	// ErrNoTrack is returned when the music file does not exist.
	ErrNoTrack = errors.New("music file not found")
	// ErrUnsupportedFormat is returned for files beep cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Player controls playback of a single looping track.
type Player interface {
	// Play starts the track from the beginning. No-op if already playing.
	Play()
	// Stop halts playback. No-op if already stopped.
	Stop()
	// Playing reports whether the track is currently audible.
	Playing() bool
	// Close releases the audio device.
	Close() error
}

// Toggle flips p between playing and stopped and returns the new state.
func Toggle(p Player) bool {
	if p.Playing() {
		p.Stop()
		return false
	}
	p.Play()
	return p.Playing()
}

// Silent is the player used when no track could be loaded.
type Silent struct{}

func (Silent) Play()         {}
func (Silent) Stop()         {}
func (Silent) Playing() bool { return false }
func (Silent) Close() error  { return nil }
