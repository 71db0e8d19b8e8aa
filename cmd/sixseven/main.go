package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"

	"github.com/ayusman/sixseven/internal/app"
	"github.com/ayusman/sixseven/internal/config"
)

func init() {
	// HighGUI windows must be driven from the main thread
	runtime.LockOSThread()
}

func main() {
	cfg := config.Load()

	flag.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "Camera device id")
	flag.StringVar(&cfg.MusicFile, "music", cfg.MusicFile, "Music track (.mp3, .wav or .ogg)")
	flag.StringVar(&cfg.PopupDir, "popups", cfg.PopupDir, "Directory of popup images")
	flag.IntVar(&cfg.MaxPopups, "max-popups", cfg.MaxPopups, "Maximum popups on screen")
	flag.BoolVar(&cfg.PopupWindows, "popup-windows", cfg.PopupWindows, "Show popups as separate desktop windows")
	flag.IntVar(&cfg.BounceThreshold, "bounces", cfg.BounceThreshold, "Direction changes needed to start the party")
	flag.DurationVar(&cfg.HypeDelay, "hype-delay", cfg.HypeDelay, "Time in active before popups appear")
	flag.DurationVar(&cfg.StillnessTimeout, "stillness", cfg.StillnessTimeout, "Time without motion before resetting")
	flag.BoolVar(&cfg.Mirror, "mirror", cfg.Mirror, "Mirror the camera preview")
	flag.BoolVar(&cfg.IdleGate, "idle-gate", cfg.IdleGate, "Skip hand detection while idle and the scene is static")
	flag.BoolVar(&cfg.Tray, "tray", cfg.Tray, "Show a system tray menu")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sessionID := uuid.New().String()[:8]
	log.SetPrefix(fmt.Sprintf("[%s] ", sessionID))

	fmt.Println("67 Detector - bounce your hands up and down")
	fmt.Println("  q / Esc  quit")
	fmt.Println("  m        toggle music")

	session, err := app.Open(cfg, fmt.Sprintf("%s (%s)", cfg.WindowName, sessionID))
	if err != nil {
		log.Fatalf("Could not open camera %d: %v", cfg.CameraID, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := session.Run(ctx)
	stop()

	if err := session.Close(); err != nil {
		log.Printf("[core] shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Session ended: %v", runErr)
	}
}
