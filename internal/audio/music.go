package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// Music loops one decoded track through the speaker.
type Music struct {
	mu       sync.Mutex
	path     string
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	closed   bool
}

// LoadMusic decodes the track at path and attaches it, paused, to the
// speaker. volume is linear in [0, 1].
func LoadMusic(path string, volume float64) (*Music, error) {
	streamer, format, err := decodeTrack(path)
	if err != nil {
		return nil, err
	}

	// Buffer 100ms; the loop only pushes control changes
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Millisecond*100)); err != nil {
		streamer.Close()
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	vol := &effects.Volume{
		Streamer: beep.Loop(-1, streamer),
		Base:     2,
		Volume:   math.Log2(math.Max(volume, 1e-3)),
		Silent:   volume <= 0,
	}
	ctrl := &beep.Ctrl{Streamer: vol, Paused: true}
	speaker.Play(ctrl)

	return &Music{
		path:     path,
		streamer: streamer,
		ctrl:     ctrl,
	}, nil
}

// Path returns the file the track was loaded from.
func (m *Music) Path() string {
	return m.path
}

// Play rewinds the track and unpauses it.
func (m *Music) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()

	// If already playing, don't restart
	if !m.ctrl.Paused {
		return
	}
	m.streamer.Seek(0)
	m.ctrl.Paused = false
}

// Stop pauses the track.
func (m *Music) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	speaker.Lock()
	m.ctrl.Paused = true
	speaker.Unlock()
}

// Playing reports whether the track is unpaused.
func (m *Music) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	speaker.Lock()
	defer speaker.Unlock()
	return !m.ctrl.Paused
}

// Close detaches the track and shuts the speaker down.
func (m *Music) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	speaker.Clear()
	err := m.streamer.Close()
	speaker.Close()
	return err
}

// decodeTrack opens path and picks a decoder from its extension.
func decodeTrack(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrNoTrack, path)
		}
		return nil, beep.Format{}, fmt.Errorf("open track: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	return streamer, format, nil
}
