// Package app runs the bounce detector: one loop that reads frames, classifies
// hand motion and drives the feedback.
package app

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math/rand/v2"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/sixseven/internal/audio"
	"github.com/ayusman/sixseven/internal/capture"
	"github.com/ayusman/sixseven/internal/config"
	"github.com/ayusman/sixseven/internal/detector"
	"github.com/ayusman/sixseven/internal/feedback"
	"github.com/ayusman/sixseven/internal/gesture"
	"github.com/ayusman/sixseven/internal/motion"
	"github.com/ayusman/sixseven/internal/popup"
	"github.com/ayusman/sixseven/internal/render"
	"github.com/ayusman/sixseven/internal/tray"
)

// Display shows frames and reports key presses.
type Display interface {
	Show(frame gocv.Mat)
	// WaitKey waits up to delay ms for a key and returns its code, or -1.
	WaitKey(delay int) int
	Close() error
}

// Menu is the optional tray menu.
type Menu interface {
	Poll() (tray.Command, bool)
	SetState(state string)
	SetMusic(on bool)
	Stop()
}

// Resources are the collaborators a Session drives. The Session takes
// ownership and closes them in Close.
type Resources struct {
	Camera   capture.Camera
	Detector detector.Detector
	Player   audio.Player
	Assets   []popup.Asset
	Display  Display
	Menu     Menu

	// Now and Rand default to the wall clock and a random seed.
	Now  func() time.Time
	Rand *rand.Rand
}

// Session owns every resource of one run. All methods must be called from
// the goroutine that calls Run.
type Session struct {
	config     config.Config
	camera     capture.Camera
	detector   detector.Detector
	player     audio.Player
	sprites    *render.Sprites
	display    Display
	menu       Menu
	gate       *capture.SceneGate
	classifier *motion.Classifier
	machine    *gesture.Machine
	director   *feedback.Director
	renderer   *render.Renderer
	now        func() time.Time

	readFailures  int
	detectFailing bool
	motionSeen    bool
	frameIndex    int
	closed        bool
}

// NewSession wires res into a Session. The camera must already be open.
func NewSession(cfg config.Config, res Resources) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if res.Camera == nil || res.Display == nil {
		return nil, errors.New("session needs a camera and a display")
	}
	if res.Detector == nil {
		res.Detector = detector.NewMockDetector()
	}
	if res.Player == nil {
		res.Player = audio.Silent{}
	}
	if res.Now == nil {
		res.Now = time.Now
	}

	s := &Session{
		config:   cfg,
		camera:   res.Camera,
		detector: res.Detector,
		player:   res.Player,
		display:  res.Display,
		menu:     res.Menu,
		now:      res.Now,
		classifier: motion.NewClassifier(motion.Config{
			Threshold:   cfg.MovementThreshold,
			HistorySize: cfg.HistorySize,
			Forget:      cfg.HandForget,
		}),
		machine: gesture.NewMachine(gesture.Config{
			BounceThreshold:  cfg.BounceThreshold,
			HypeDelay:        cfg.HypeDelay,
			StillnessTimeout: cfg.StillnessTimeout,
			ResetFade:        cfg.ResetFade,
		}),
	}

	if cfg.IdleGate {
		s.gate = capture.NewSceneGate(cfg.GateThreshold)
	}

	var windows *render.PopupWindows
	var area image.Rectangle
	if len(res.Assets) > 0 {
		sprites, err := render.NewSprites(res.Assets)
		if err != nil {
			log.Printf("[popup] disabled: %v", err)
			res.Assets = nil
		} else {
			s.sprites = sprites
		}
		if s.sprites != nil && cfg.PopupWindows {
			windows = render.NewPopupWindows(cfg.WindowName)
			area = image.Rect(0, 0, cfg.ScreenWidth, cfg.ScreenHeight)
		}
	}

	pool := popup.NewPool(popup.PoolConfig{
		Capacity: cfg.MaxPopups,
		MinSpeed: cfg.PopupMinSpeed,
		MaxSpeed: cfg.PopupMaxSpeed,
	}, popup.Sizes(res.Assets), res.Rand)

	s.director = feedback.NewDirector(feedback.Config{
		FlashBase:       cfg.FlashBase,
		FlashScale:      cfg.FlashScale,
		FlashMin:        cfg.FlashMin,
		FlashMax:        cfg.FlashMax,
		ResetFade:       cfg.ResetFade,
		PopupBurst:      cfg.PopupBurst,
		PopupSpawnEvery: cfg.PopupSpawnEvery,
		PopupArea:       area,
	}, s.player, pool)

	s.renderer = render.NewRenderer(s.sprites, windows)

	return s, nil
}

// State returns the current gesture state.
func (s *Session) State() gesture.State {
	return s.machine.State()
}

// Bounces returns the current bounce count.
func (s *Session) Bounces() int {
	return s.machine.Bounces()
}

// Director returns the feedback director.
func (s *Session) Director() *feedback.Director {
	return s.director
}

// Close releases every resource in reverse order of acquisition. It is safe
// to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.menu != nil {
		s.menu.Stop()
	}
	if err := s.renderer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("popup windows: %w", err))
	}
	if err := s.display.Close(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}
	if s.sprites != nil {
		s.sprites.Close()
	}
	if err := s.player.Close(); err != nil {
		errs = append(errs, fmt.Errorf("audio: %w", err))
	}
	if err := s.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("detector: %w", err))
	}
	if s.gate != nil {
		s.gate.Close()
	}
	if err := s.camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("camera: %w", err))
	}

	log.Println("[core] session closed")
	return errors.Join(errs...)
}
