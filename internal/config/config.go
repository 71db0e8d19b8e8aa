// Package config holds the tuning constants for the bounce detector and the
// environment overrides that can adjust them without rebuilding.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables recognized by Load.
const (
	EnvCamera       = "SIXSEVEN_CAMERA"
	EnvMusic        = "SIXSEVEN_MUSIC"
	EnvVolume       = "SIXSEVEN_VOLUME"
	EnvPopupDir     = "SIXSEVEN_POPUP_DIR"
	EnvMaxPopups    = "SIXSEVEN_MAX_POPUPS"
	EnvPopupWindows = "SIXSEVEN_POPUP_WINDOWS"
	EnvBounces      = "SIXSEVEN_BOUNCES"
	EnvHypeDelay    = "SIXSEVEN_HYPE_DELAY"
	EnvStillness    = "SIXSEVEN_STILLNESS"
	EnvTray         = "SIXSEVEN_TRAY"
)

// Config holds every tunable used by the session.
type Config struct {
	// Camera
	CameraID        int
	FrameWidth      int
	FrameHeight     int
	Mirror          bool
	MaxReadFailures int

	// Detector
	MaxHands        int
	MinConfidence   float64
	MinTrackingConf float64

	// Scene gate: skip landmark detection while idle and the picture is static.
	IdleGate      bool
	GateThreshold float64

	// Motion tuning. MovementThreshold is in pixels per frame.
	MovementThreshold float64
	HistorySize       int
	HandForget        time.Duration

	// Gesture timing
	BounceThreshold  int
	HypeDelay        time.Duration
	StillnessTimeout time.Duration
	ResetFade        time.Duration

	// Flash tuning
	FlashBase  float64
	FlashScale float64
	FlashMin   float64
	FlashMax   float64

	// Audio
	MusicFile    string
	MasterVolume float64

	// Popups
	PopupDir        string
	MaxPopups       int
	PopupBurst      int
	PopupSpawnEvery time.Duration
	PopupSize       int
	PopupMinSpeed   float64
	PopupMaxSpeed   float64
	PopupWindows    bool
	ScreenWidth     int
	ScreenHeight    int

	// UI
	WindowName string
	Tray       bool
}

// Default returns the tuning the toy ships with.
func Default() Config {
	return Config{
		CameraID:        0,
		FrameWidth:      640,
		FrameHeight:     480,
		Mirror:          true,
		MaxReadFailures: 50,

		MaxHands:        2,
		MinConfidence:   0.25,
		MinTrackingConf: 0.25,

		IdleGate:      true,
		GateThreshold: 0.5,

		MovementThreshold: 1.2, // 0.0025 of a 480px frame
		HistorySize:       8,
		HandForget:        1500 * time.Millisecond,

		BounceThreshold:  4,
		HypeDelay:        5 * time.Second,
		StillnessTimeout: 500 * time.Millisecond,
		ResetFade:        300 * time.Millisecond,

		FlashBase:  0.3,
		FlashScale: 3.0,
		FlashMin:   0.2,
		FlashMax:   0.7,

		MusicFile:    "six_seven_theme.mp3",
		MasterVolume: 1.0,

		PopupDir:        "popups",
		MaxPopups:       12,
		PopupBurst:      6,
		PopupSpawnEvery: 400 * time.Millisecond,
		PopupSize:       160,
		PopupMinSpeed:   2,
		PopupMaxSpeed:   6,
		PopupWindows:    false,
		ScreenWidth:     1920,
		ScreenHeight:    1080,

		WindowName: "67 Detector",
		Tray:       false,
	}
}

// Load returns Default with any SIXSEVEN_* environment overrides applied.
// Values that fail to parse are ignored.
func Load() Config {
	cfg := Default()
	cfg.ApplyEnv(os.Getenv)
	return cfg
}

// ApplyEnv applies overrides read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvCamera); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id >= 0 {
			c.CameraID = id
		}
	}

	if v := getenv(EnvMusic); v != "" {
		c.MusicFile = v
	}

	// Volume is given as 0-100
	if v := getenv(EnvVolume); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MasterVolume = clamp(float64(n)/100.0, 0, 1)
		}
	}

	if v := getenv(EnvPopupDir); v != "" {
		c.PopupDir = v
	}

	if v := getenv(EnvMaxPopups); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.MaxPopups = n
		}
	}

	if v := getenv(EnvPopupWindows); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.PopupWindows = b
		}
	}

	if v := getenv(EnvBounces); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.BounceThreshold = n
		}
	}

	if v := getenv(EnvHypeDelay); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.HypeDelay = d
		}
	}

	if v := getenv(EnvStillness); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.StillnessTimeout = d
		}
	}

	if v := getenv(EnvTray); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tray = b
		}
	}
}

// Validate reports settings the session cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		errs = append(errs, fmt.Errorf("frame size must be positive, got %dx%d", c.FrameWidth, c.FrameHeight))
	}
	if c.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("max hands must be at least 1, got %d", c.MaxHands))
	}
	if c.MovementThreshold < 0 {
		errs = append(errs, fmt.Errorf("movement threshold must not be negative, got %f", c.MovementThreshold))
	}
	if c.HistorySize < 2 {
		errs = append(errs, fmt.Errorf("history size must be at least 2, got %d", c.HistorySize))
	}
	if c.BounceThreshold < 1 {
		errs = append(errs, fmt.Errorf("bounce threshold must be at least 1, got %d", c.BounceThreshold))
	}
	if c.StillnessTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stillness timeout must be positive, got %s", c.StillnessTimeout))
	}
	if c.HypeDelay < 0 || c.ResetFade < 0 {
		errs = append(errs, errors.New("hype delay and reset fade must not be negative"))
	}
	if c.FlashMin < 0 || c.FlashMax > 1 || c.FlashMin > c.FlashMax {
		errs = append(errs, fmt.Errorf("flash range [%f, %f] must lie within [0, 1]", c.FlashMin, c.FlashMax))
	}
	if c.MaxPopups < 0 || c.PopupBurst < 0 {
		errs = append(errs, errors.New("popup counts must not be negative"))
	}
	if c.PopupSize <= 0 {
		errs = append(errs, fmt.Errorf("popup size must be positive, got %d", c.PopupSize))
	}

	return errors.Join(errs...)
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
