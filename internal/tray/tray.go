// Package tray provides the system tray menu of the coach.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/session"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onReset  func()
	onFinish func()
	onOpen   func()
	onQuit   func()
	enabled  bool
	status   string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray instance with the camera enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  StatusTitle(nil),
	}
}

// OnToggle sets the callback for pausing and resuming the camera.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnReset sets the callback for the reset menu item.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnFinish sets the callback for the finish menu item.
func (t *Tray) OnFinish(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFinish = fn
}

// OnOpen sets the callback for the open-in-browser menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("RepCoach")
	systray.SetTooltip("RepCoach rep counter")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume the camera")
	systray.AddSeparator()
	t.menuStatus = systray.AddMenuItem(t.status, "Current session")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuReset := systray.AddMenuItem("Reset Session", "Zero reps and recalibrate")
	menuFinish := systray.AddMenuItem("Finish Session", "Save the session")
	menuOpen := systray.AddMenuItem("Open Coach...", "Open the coach in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit RepCoach")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.call(func() func() { return t.onReset })
			case <-menuFinish.ClickedCh:
				t.call(func() func() { return t.onFinish })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

// call runs the callback picked under the read lock, outside the lock.
func (t *Tray) call(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Camera On"
	}
	return "○ Camera Paused"
}

// SetStatus shows the session state in the menu. A nil snapshot means no
// session is running. It is safe to use as a session observer.
func (t *Tray) SetStatus(snap *session.Snapshot) {
	title := StatusTitle(snap)

	t.mu.Lock()
	defer t.mu.Unlock()
	if title == t.status {
		return
	}
	t.status = title
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(title)
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// StatusTitle renders a snapshot as a one-line menu title.
func StatusTitle(snap *session.Snapshot) string {
	if snap == nil {
		return "No session"
	}
	switch snap.Phase {
	case exercise.Calibrating:
		return fmt.Sprintf("%s: calibrating", snap.Name)
	default:
		unit := "reps"
		if snap.Reps == 1 {
			unit = "rep"
		}
		return fmt.Sprintf("%s: %d %s", snap.Name, snap.Reps, unit)
	}
}
