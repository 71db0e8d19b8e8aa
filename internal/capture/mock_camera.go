package capture

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrNoMoreFrames is returned by a non-looping MockCamera after its last frame.
var ErrNoMoreFrames = errors.New("no more frames")

// MockCamera plays back pre-recorded frames for testing
type MockCamera struct {
	frames   []*gocv.Mat
	index    int
	loop     bool
	running  bool
	failures int
	reads    int
	openErr  error
}

func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
	}
}

func (c *MockCamera) Open() error {
	if c.openErr != nil {
		return c.openErr
	}
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.reads++

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if c.failures > 0 {
		c.failures--
		return nil, errors.New("simulated read failure")
	}

	if len(c.frames) == 0 {
		return nil, ErrEmptyFrame
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrNoMoreFrames
		}
		c.index = 0
	}

	// Clone the frame so the caller may close or draw on it
	frame := c.frames[c.index].Clone()
	c.index++

	return &frame, nil
}

func (c *MockCamera) IsOpen() bool {
	return c.running
}

// FailNext makes the next n reads return an error.
func (c *MockCamera) FailNext(n int) {
	c.failures = n
}

// FailOpen makes Open return err.
func (c *MockCamera) FailOpen(err error) {
	c.openErr = err
}

// Reads returns how many times ReadFrame was called.
func (c *MockCamera) Reads() int {
	return c.reads
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.index = 0
}
