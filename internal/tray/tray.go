// Package tray provides an optional system tray menu for the bounce detector.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Command is a menu action forwarded to the frame loop.
type Command int

const (
	ToggleMusic Command = iota + 1
	Quit
)

func (c Command) String() string {
	switch c {
	case ToggleMusic:
		return "toggle music"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// queueSize bounds the pending commands; extra clicks are dropped.
const queueSize = 8

// Tray represents the system tray icon and menu. Menu clicks are queued and
// drained by the frame loop with Poll, so no session state is touched from
// the tray goroutine.
type Tray struct {
	title    string
	commands chan Command
	mu       sync.Mutex

	// Menu items stored for later updates
	menuState *systray.MenuItem
	menuMusic *systray.MenuItem
	ready     chan struct{}
}

// New creates a Tray. Nothing is shown until Start.
func New(title string) *Tray {
	return &Tray{
		title:    title,
		commands: make(chan Command, queueSize),
		ready:    make(chan struct{}),
	}
}

// Start registers the tray with the platform event loop. It does not block;
// the GUI loop owned by the caller keeps the menu alive.
func (t *Tray) Start() {
	systray.Register(t.onReady, t.onExit)
}

// Stop removes the tray icon.
func (t *Tray) Stop() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle(t.title)
	systray.SetTooltip(t.title + ": bounce your hands")

	t.mu.Lock()
	t.menuState = systray.AddMenuItem("State: idle", "Gesture state")
	t.menuState.Disable()
	systray.AddSeparator()
	t.menuMusic = systray.AddMenuItem("Music: off", "Toggle music")
	t.mu.Unlock()

	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit "+t.title)

	close(t.ready)

	go func() {
		for {
			select {
			case <-t.menuMusic.ClickedCh:
				t.send(ToggleMusic)
			case <-menuQuit.ClickedCh:
				t.send(Quit)
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// send queues cmd without blocking.
func (t *Tray) send(cmd Command) bool {
	select {
	case t.commands <- cmd:
		return true
	default:
		return false
	}
}

// Poll returns the next queued command without blocking.
func (t *Tray) Poll() (Command, bool) {
	select {
	case cmd := <-t.commands:
		return cmd, true
	default:
		return 0, false
	}
}

// Ready is closed once the menu exists.
func (t *Tray) Ready() <-chan struct{} {
	return t.ready
}

// SetState updates the state line of the menu.
func (t *Tray) SetState(state string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.menuState != nil {
		t.menuState.SetTitle("State: " + state)
	}
}

// SetMusic updates the music item.
func (t *Tray) SetMusic(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.menuMusic == nil {
		return
	}
	if on {
		t.menuMusic.SetTitle("Music: on")
	} else {
		t.menuMusic.SetTitle("Music: off")
	}
}
