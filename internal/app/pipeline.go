package app

import (
	"context"
	"fmt"
	"log"

	"gocv.io/x/gocv"

	"github.com/ayusman/sixseven/internal/capture"
	"github.com/ayusman/sixseven/internal/detector"
	"github.com/ayusman/sixseven/internal/gesture"
	"github.com/ayusman/sixseven/internal/motion"
	"github.com/ayusman/sixseven/internal/render"
	"github.com/ayusman/sixseven/internal/tray"
)

// Key codes handled by the loop.
const (
	keyEsc = 27
	keyQ   = 'q'
	keyM   = 'm'
)

// waitKeyMs is how long each frame waits for a key press.
const waitKeyMs = 1

// Run processes frames until the user quits, ctx is cancelled, or the
// camera keeps failing.
//
// Per frame:
// 1. Read a frame (already mirrored by the camera)
// 2. While idle, skip detection if the scene did not change
// 3. Detect and validate hand landmarks
// 4. Classify wrist motion and advance the gesture machine
// 5. Apply feedback, render, show
// 6. Poll keyboard and tray
func (s *Session) Run(ctx context.Context) error {
	log.Printf("[core] running, bounce %d times to start the party", s.config.BounceThreshold)

	for {
		if err := ctx.Err(); err != nil {
			log.Println("[core] context cancelled")
			return nil
		}

		quit, err := s.Step()
		if err != nil {
			return err
		}
		if quit {
			log.Println("[core] quit requested")
			return nil
		}
	}
}

// Step runs one iteration of the loop and reports whether the user asked to quit.
func (s *Session) Step() (bool, error) {
	now := s.now()

	frame, err := s.camera.ReadFrame()
	if err != nil {
		s.readFailures++
		log.Printf("[core] camera read failed (%d/%d): %v", s.readFailures, s.config.MaxReadFailures, err)
		if s.readFailures >= s.config.MaxReadFailures {
			return true, fmt.Errorf("camera failed %d times in a row: %w", s.readFailures, err)
		}
		return s.handleInput(s.display.WaitKey(waitKeyMs)), nil
	}
	defer frame.Close()
	s.readFailures = 0

	hands := s.detect(frame)

	res := s.classifier.Observe(now, motion.Observe(hands, frame.Rows()))
	if res.Moving {
		s.motionSeen = true
	}

	counted := s.machine.Bounces()
	transitions := s.machine.Advance(gesture.Input{
		Now:      now,
		Hands:    res.Hands,
		Reversal: res.Reversal,
		Moving:   res.Moving,
	})
	if n := s.machine.Bounces(); n > counted {
		log.Printf("[motion] bounce %d (dir=%s, dy=%.1f)", n, res.Direction, res.Velocity)
	}
	s.applyTransitions(transitions)

	state := s.machine.State()
	s.director.Frame(res, state, now, capture.Size(frame))
	overlay := s.director.Overlay()

	s.renderer.Draw(frame, render.Scene{
		Hands:   hands,
		ShowHUD: s.motionSeen,
		Status: render.Status{
			State:     state,
			Hands:     res.Hands,
			Bounces:   s.machine.Bounces(),
			Threshold: s.config.BounceThreshold,
			Direction: res.Direction,
			Velocity:  res.Velocity,
			Music:     overlay.Music,
		},
		Flash:      overlay.Flash,
		FrameIndex: s.frameIndex,
		Popups:     overlay.Popups,
	})
	s.frameIndex++

	s.display.Show(*frame)
	return s.handleInput(s.display.WaitKey(waitKeyMs)), nil
}

// detect returns the validated hands in frame. Failures become a frame
// without hands and are logged once per streak.
func (s *Session) detect(frame *gocv.Mat) []detector.HandLandmarks {
	// The gate sees every frame so its baseline stays current, but only
	// skips detection while idle
	if s.gate != nil {
		changed, _ := s.gate.Changed(frame)
		if !changed && s.machine.State() == gesture.Idle {
			return nil
		}
	}

	hands, err := s.detector.Detect(frame)
	if err != nil {
		if !s.detectFailing {
			log.Printf("[detector] detection failed, treating frames as empty: %v", err)
			s.detectFailing = true
		}
		return nil
	}
	if s.detectFailing {
		log.Println("[detector] detection recovered")
		s.detectFailing = false
	}

	return detector.Sanitize(hands, s.config.MaxHands)
}

func (s *Session) applyTransitions(transitions []gesture.Transition) {
	for _, tr := range transitions {
		log.Printf("[core] %s -> %s (%s, bounces %d)", tr.From, tr.To, tr.Reason, tr.Bounces)

		if tr.To == gesture.Resetting {
			s.classifier.Reset()
			s.motionSeen = false
		}
		if s.menu != nil {
			s.menu.SetState(tr.To.String())
		}
	}

	s.director.Apply(transitions)

	if len(transitions) > 0 && s.menu != nil {
		s.menu.SetMusic(s.player.Playing())
	}
}

// handleInput reacts to a key code from WaitKey and drains tray commands.
func (s *Session) handleInput(key int) bool {
	quit := false

	if key >= 0 {
		switch key & 0xff {
		case keyQ, 'Q', keyEsc:
			quit = true
		case keyM, 'M':
			s.toggleMusic()
		}
	}

	if s.menu != nil {
		for cmd, ok := s.menu.Poll(); ok; cmd, ok = s.menu.Poll() {
			switch cmd {
			case tray.ToggleMusic:
				s.toggleMusic()
			case tray.Quit:
				quit = true
			}
		}
	}

	return quit
}

func (s *Session) toggleMusic() {
	on := s.director.ToggleMusic()
	if s.menu != nil {
		s.menu.SetMusic(on)
	}
}
