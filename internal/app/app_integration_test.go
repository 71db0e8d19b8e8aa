package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/sixseven/internal/capture"
	"github.com/ayusman/sixseven/internal/config"
	"github.com/ayusman/sixseven/internal/detector"
	"github.com/ayusman/sixseven/internal/gesture"
	"github.com/ayusman/sixseven/internal/popup"
	"github.com/ayusman/sixseven/internal/tray"
)

type fakeDisplay struct {
	shown  int
	keys   []int
	closed int
}

func (d *fakeDisplay) Show(frame gocv.Mat) { d.shown++ }

func (d *fakeDisplay) WaitKey(delay int) int {
	if len(d.keys) == 0 {
		return -1
	}
	k := d.keys[0]
	d.keys = d.keys[1:]
	return k
}

func (d *fakeDisplay) Close() error {
	d.closed++
	return nil
}

type fakePlayer struct {
	on     bool
	closed bool
}

func (p *fakePlayer) Play()         { p.on = true }
func (p *fakePlayer) Stop()         { p.on = false }
func (p *fakePlayer) Playing() bool { return p.on }
func (p *fakePlayer) Close() error {
	p.closed = true
	return nil
}

type fakeMenu struct {
	commands []tray.Command
	states   []string
	music    bool
	stopped  bool
}

func (m *fakeMenu) Poll() (tray.Command, bool) {
	if len(m.commands) == 0 {
		return 0, false
	}
	c := m.commands[0]
	m.commands = m.commands[1:]
	return c, true
}

func (m *fakeMenu) SetState(state string) { m.states = append(m.states, state) }
func (m *fakeMenu) SetMusic(on bool)      { m.music = on }
func (m *fakeMenu) Stop()                 { m.stopped = true }

// fakeClock advances one frame per call.
func fakeClock() func() time.Time {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(33 * time.Millisecond)
		return now
	}
}

// rig is a session over a looping black camera.
type rig struct {
	session  *Session
	camera   *capture.MockCamera
	detector *detector.MockDetector
	display  *fakeDisplay
	player   *fakePlayer
	frame    gocv.Mat
}

func newRig(t *testing.T, cfg config.Config, res Resources) *rig {
	t.Helper()

	r := &rig{
		frame:    gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3),
		detector: detector.NewMockDetector(),
		display:  &fakeDisplay{},
		player:   &fakePlayer{},
	}
	r.camera = capture.NewMockCamera([]*gocv.Mat{&r.frame}, true)
	if err := r.camera.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	res.Camera = r.camera
	res.Detector = r.detector
	res.Display = r.display
	res.Player = r.player
	if res.Now == nil {
		res.Now = fakeClock()
	}

	s, err := NewSession(cfg, res)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	r.session = s

	t.Cleanup(func() {
		s.Close()
		r.frame.Close()
	})
	return r
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.IdleGate = false
	return cfg
}

// wave returns one right hand per pixel height.
func wave(ys ...float64) [][]detector.HandLandmarks {
	seq := make([][]detector.HandLandmarks, len(ys))
	for i, y := range ys {
		seq[i] = []detector.HandLandmarks{detector.HandAt("Right", 0.5, y/480)}
	}
	return seq
}

func (r *rig) steps(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if quit, err := r.session.Step(); err != nil || quit {
			t.Fatalf("Step() %d = %v, %v", i, quit, err)
		}
	}
}

func TestSession_ScenarioStartsMusic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := newRig(t, testConfig(), Resources{})
	r.detector.SetSequence(wave(100, 90, 80, 90, 100, 90, 80))

	r.steps(t, 7)
	if r.session.State() != gesture.Tracking {
		t.Fatalf("State() after 7 samples = %s, want tracking", r.session.State())
	}
	if r.player.Playing() {
		t.Error("music should not start before the threshold")
	}

	r.detector.SetSequence(wave(90))
	r.steps(t, 1)
	if r.session.State() != gesture.Active {
		t.Fatalf("State() after 8 samples = %s, want active", r.session.State())
	}
	if !r.player.Playing() {
		t.Error("music should start on active")
	}
	if r.display.shown != 8 {
		t.Errorf("shown %d frames, want 8", r.display.shown)
	}
}

func TestSession_LogsEachBounce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	r := newRig(t, testConfig(), Resources{})
	r.detector.SetSequence(wave(100, 90, 80, 90, 100, 90, 80, 90))
	r.steps(t, 8)

	if n := strings.Count(buf.String(), "[motion] bounce"); n != 4 {
		t.Errorf("logged %d bounces, want 4:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "[motion] bounce 4 (dir=down") {
		t.Errorf("missing fourth bounce line:\n%s", buf.String())
	}
}

func TestSession_StillnessResetsToIdle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := newRig(t, testConfig(), Resources{})
	r.detector.SetSequence(wave(100, 140, 100, 140, 100, 140))
	r.steps(t, 6)
	if r.session.State() != gesture.Active {
		t.Fatalf("State() = %s, want active", r.session.State())
	}

	// Hands vanish: 500ms of stillness, then a 300ms fade
	r.steps(t, 30)

	if r.session.State() != gesture.Idle {
		t.Errorf("State() = %s, want idle", r.session.State())
	}
	if r.session.Bounces() != 0 {
		t.Errorf("Bounces() = %d, want 0", r.session.Bounces())
	}
	if r.player.Playing() {
		t.Error("music should stop on reset")
	}
}

func TestSession_RestingHandStaysIdleAfterReset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	for _, gate := range []bool{false, true} {
		name := "gate off"
		if gate {
			name = "gate on"
		}
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			cfg.IdleGate = gate
			menu := &fakeMenu{}
			r := newRig(t, cfg, Resources{Menu: menu})
			r.detector.SetHands([]detector.HandLandmarks{detector.HandAt("Right", 0.5, 0.5)})

			// Ten seconds of a hand held still in view
			r.steps(t, 300)

			if r.session.State() != gesture.Idle {
				t.Fatalf("State() = %s, want idle", r.session.State())
			}
			want := []string{"tracking", "resetting", "idle"}
			if len(menu.states) != len(want) {
				t.Fatalf("menu states = %v, want %v", menu.states, want)
			}
			for i := range want {
				if menu.states[i] != want[i] {
					t.Errorf("menu states = %v, want %v", menu.states, want)
					break
				}
			}
		})
	}
}

func TestSession_HypeSpawnsPopups(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(0, 0, color.NRGBA{})

	cfg := testConfig()
	cfg.HypeDelay = 0
	r := newRig(t, cfg, Resources{
		Assets: []popup.Asset{{Name: "sq.png", Image: img}},
		Rand:   rand.New(rand.NewPCG(6, 7)),
	})

	ys := make([]float64, 12)
	for i := range ys {
		ys[i] = 100 + float64(i%2)*40
	}
	r.detector.SetSequence(wave(ys...))
	r.steps(t, len(ys))

	if r.session.State() != gesture.Hype {
		t.Fatalf("State() = %s, want hype", r.session.State())
	}
	popups := r.session.Director().Overlay().Popups
	if len(popups) < cfg.PopupBurst || len(popups) > cfg.MaxPopups {
		t.Errorf("live popups = %d, want between %d and %d", len(popups), cfg.PopupBurst, cfg.MaxPopups)
	}

	r.steps(t, 30)
	if n := len(r.session.Director().Overlay().Popups); n != 0 {
		t.Errorf("popups after reset = %d, want 0", n)
	}
}

func TestSession_Keys(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tests := []struct {
		name      string
		keys      []int
		wantQuit  bool
		wantMusic bool
	}{
		{name: "no key", keys: nil},
		{name: "q quits", keys: []int{'q'}, wantQuit: true},
		{name: "escape quits", keys: []int{27}, wantQuit: true},
		{name: "m toggles music", keys: []int{'m'}, wantMusic: true},
		{name: "modifier bits ignored", keys: []int{0x100000 | 'M'}, wantMusic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, testConfig(), Resources{})
			r.display.keys = tt.keys

			quit, err := r.session.Step()
			if err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if quit != tt.wantQuit {
				t.Errorf("quit = %v, want %v", quit, tt.wantQuit)
			}
			if r.player.Playing() != tt.wantMusic {
				t.Errorf("music = %v, want %v", r.player.Playing(), tt.wantMusic)
			}
		})
	}
}

func TestSession_ToggleTwiceRestores(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := newRig(t, testConfig(), Resources{})
	r.display.keys = []int{'m', 'm'}
	r.steps(t, 2)

	if r.player.Playing() {
		t.Error("two toggles should leave music off")
	}
}

func TestSession_TrayCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	menu := &fakeMenu{commands: []tray.Command{tray.ToggleMusic}}
	r := newRig(t, testConfig(), Resources{Menu: menu})
	r.detector.SetHands([]detector.HandLandmarks{detector.HandAt("Left", 0.5, 0.5)})

	r.steps(t, 1)
	if !r.player.Playing() || !menu.music {
		t.Error("tray toggle should start music and update the menu")
	}
	if len(menu.states) == 0 || menu.states[0] != "tracking" {
		t.Errorf("menu states = %v, want tracking first", menu.states)
	}

	menu.commands = []tray.Command{tray.Quit}
	quit, _ := r.session.Step()
	if !quit {
		t.Error("tray quit should end the loop")
	}

	r.session.Close()
	if !menu.stopped {
		t.Error("Close() should stop the tray")
	}
}

func TestSession_ReadFailuresEndRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := testConfig()
	cfg.MaxReadFailures = 3
	r := newRig(t, cfg, Resources{})
	r.camera.FailNext(100)

	err := r.session.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail after repeated read errors")
	}
	if r.camera.Reads() != 3 {
		t.Errorf("Reads() = %d, want 3", r.camera.Reads())
	}
}

func TestSession_ReadFailureRecovers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := testConfig()
	cfg.MaxReadFailures = 3
	r := newRig(t, cfg, Resources{})

	for i := 0; i < 5; i++ {
		r.camera.FailNext(2)
		r.steps(t, 3)
	}
	if r.display.shown != 5 {
		t.Errorf("shown %d frames, want 5", r.display.shown)
	}
}

func TestSession_DetectorErrorIsNoHands(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := newRig(t, testConfig(), Resources{})
	r.detector.SetError(errors.New("service crashed"))

	r.steps(t, 10)
	if r.session.State() != gesture.Idle {
		t.Errorf("State() = %s, want idle", r.session.State())
	}

	r.detector.SetError(nil)
	r.detector.SetHands([]detector.HandLandmarks{detector.HandAt("Right", 0.5, 0.5)})
	r.steps(t, 1)
	if r.session.State() != gesture.Tracking {
		t.Errorf("State() = %s, want tracking after recovery", r.session.State())
	}
}

func TestSession_IdleGateSkipsStaticScene(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := testConfig()
	cfg.IdleGate = true
	r := newRig(t, cfg, Resources{})

	r.steps(t, 5)
	if calls := r.detector.Calls(); calls != 1 {
		t.Errorf("detector called %d times on a static scene, want 1", calls)
	}
}

func TestSession_RunStopsOnCancelledContext(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := newRig(t, testConfig(), Resources{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.session.Run(ctx); err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if r.camera.Reads() != 0 {
		t.Errorf("Reads() = %d, want 0", r.camera.Reads())
	}
}

func TestSession_RunQuits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := newRig(t, testConfig(), Resources{})
	r.display.keys = []int{-1, -1, 'q'}

	if err := r.session.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if r.display.shown != 3 {
		t.Errorf("shown %d frames, want 3", r.display.shown)
	}
}

func TestSession_CloseReleasesEverything(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := newRig(t, testConfig(), Resources{})

	if err := r.session.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := r.session.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if r.camera.IsOpen() {
		t.Error("camera should be closed")
	}
	if !r.detector.Closed() {
		t.Error("detector should be closed")
	}
	if !r.player.closed {
		t.Error("player should be closed")
	}
	if r.display.closed != 1 {
		t.Errorf("display closed %d times, want 1", r.display.closed)
	}
}

func TestNewSession_Rejects(t *testing.T) {
	bad := config.Default()
	bad.BounceThreshold = 0

	tests := []struct {
		name string
		cfg  config.Config
		res  Resources
	}{
		{"invalid config", bad, Resources{Camera: capture.NewMockCamera(nil, false), Display: &fakeDisplay{}}},
		{"missing camera", config.Default(), Resources{Display: &fakeDisplay{}}},
		{"missing display", config.Default(), Resources{Camera: capture.NewMockCamera(nil, false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(tt.cfg, tt.res); err == nil {
				t.Error("NewSession() should fail")
			}
		})
	}
}
