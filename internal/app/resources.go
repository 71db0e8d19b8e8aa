package app

import (
	"errors"
	"fmt"
	"log"

	"gocv.io/x/gocv"

	"github.com/ayusman/sixseven/internal/audio"
	"github.com/ayusman/sixseven/internal/capture"
	"github.com/ayusman/sixseven/internal/config"
	"github.com/ayusman/sixseven/internal/detector"
	"github.com/ayusman/sixseven/internal/popup"
	"github.com/ayusman/sixseven/internal/tray"
)

// windowDisplay shows frames in an OpenCV window.
type windowDisplay struct {
	window *gocv.Window
}

// NewWindowDisplay opens an OpenCV window titled title.
func NewWindowDisplay(title string) Display {
	return &windowDisplay{window: gocv.NewWindow(title)}
}

func (d *windowDisplay) Show(frame gocv.Mat) {
	d.window.IMShow(frame)
}

func (d *windowDisplay) WaitKey(delay int) int {
	return d.window.WaitKey(delay)
}

func (d *windowDisplay) Close() error {
	return d.window.Close()
}

// Open acquires the real devices and builds a Session titled title.
//
// Only the camera is required. A missing detector, music track or popup
// folder is logged and the session runs without it.
func Open(cfg config.Config, title string) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	camera := capture.NewCamera(capture.Config{
		DeviceID: cfg.CameraID,
		Width:    cfg.FrameWidth,
		Height:   cfg.FrameHeight,
		Mirror:   cfg.Mirror,
	})
	if err := camera.Open(); err != nil {
		return nil, err
	}
	log.Printf("[core] camera %d opened", cfg.CameraID)

	res := Resources{Camera: camera}

	// Try MediaPipe first, fall back to a detector that sees no hands
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.MaxHands,
		MinConfidence:   cfg.MinConfidence,
		MinTrackingConf: cfg.MinTrackingConf,
	})
	if err != nil {
		log.Printf("[detector] MediaPipe not available (%v), no hands will be seen", err)
		res.Detector = detector.NewMockDetector()
	} else {
		log.Println("[detector] using MediaPipe hand detection")
		res.Detector = mp
	}

	music, err := audio.LoadMusic(cfg.MusicFile, cfg.MasterVolume)
	switch {
	case err == nil:
		log.Printf("[audio] loaded %s", cfg.MusicFile)
		res.Player = music
	case errors.Is(err, audio.ErrNoTrack):
		log.Printf("[audio] %v, running silent", err)
		res.Player = audio.Silent{}
	default:
		log.Printf("[audio] could not load %s: %v, running silent", cfg.MusicFile, err)
		res.Player = audio.Silent{}
	}

	assets, err := popup.LoadAssets(cfg.PopupDir, cfg.PopupSize)
	if err != nil {
		log.Printf("[popup] popups disabled: %v", err)
	} else {
		log.Printf("[popup] loaded %d images from %s", len(assets), cfg.PopupDir)
		res.Assets = assets
	}

	res.Display = NewWindowDisplay(title)

	if cfg.Tray {
		menu := tray.New(cfg.WindowName)
		menu.Start()
		res.Menu = menu
	}

	s, err := NewSession(cfg, res)
	if err != nil {
		if res.Menu != nil {
			res.Menu.Stop()
		}
		res.Display.Close()
		res.Player.Close()
		res.Detector.Close()
		camera.Close()
		return nil, err
	}
	return s, nil
}
