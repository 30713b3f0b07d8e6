// Package tray provides a system tray interface for the photobooth.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/photobooth/internal/app"
)

// Status lines shown in the menu.
const (
	StatusWaiting   = "Waiting for camera and model"
	StatusDetecting = "Detecting"
	StatusError     = "Detection error"
)

// Tray represents the system tray application.
type Tray struct {
	onOpen func()
	onQuit func()
	mu     sync.RWMutex

	status    string
	lastPhoto string

	// Menu items stored for later updates
	menuStatus    *systray.MenuItem
	menuLastPhoto *systray.MenuItem
}

// New creates a new Tray in the waiting state.
func New() *Tray {
	return &Tray{
		status:    StatusWaiting,
		lastPhoto: lastPhotoTitle(nil),
	}
}

// OnOpen sets the callback for the "Open Photobooth..." item.
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
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Photobooth")
	systray.SetTooltip("Show a peace sign to take a photo")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Gesture loop status")
	t.menuStatus.Disable()
	t.menuLastPhoto = systray.AddMenuItem(t.lastPhoto, "Most recent capture")
	t.menuLastPhoto.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Photobooth...", "Open the photobooth page in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Photobooth")

	go func() {
		for {
			select {
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update reflects a loop event in the menu. Titles are only rewritten when
// they change, so it is cheap to call on every iteration.
func (t *Tray) Update(e app.Event) {
	status := StatusDetecting
	if e.Error != "" {
		status = StatusError
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if status != t.status {
		t.status = status
		if t.menuStatus != nil {
			t.menuStatus.SetTitle(status)
		}
	}
	if e.Photo != nil {
		title := lastPhotoTitle(e.Photo)
		if title != t.lastPhoto {
			t.lastPhoto = title
			if t.menuLastPhoto != nil {
				t.menuLastPhoto.SetTitle(title)
			}
		}
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// LastPhoto returns the current last-photo line.
func (t *Tray) LastPhoto() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastPhoto
}

func lastPhotoTitle(p *app.PhotoInfo) string {
	if p == nil {
		return "Last photo: none"
	}
	return "Last photo: " + p.CapturedAt.Format("15:04:05")
}
