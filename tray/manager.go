// Package tray hides the main window behind a system tray surface and brings
// it back. Window and tray visibility are only touched from the goroutine
// running Manager.Run.
package tray

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoTray is returned when the platform offers no system tray.
	ErrNoTray = errors.New("system tray is not available")

	// ErrStopped is returned by requests made after Run has returned.
	ErrStopped = errors.New("tray manager is not running")
)

// Window is the main application window
type Window interface {
	Show()
	Hide()
}

// Surface is the tray icon and its Restore/Exit menu
type Surface interface {
	Activate() error
	Deactivate()
}

// Saver persists the application settings
type Saver interface {
	Save() error
}

// Event is a lifecycle request coming from the window or the tray menu
type Event int

const (
	EventMinimize Event = iota
	EventRestore
	EventExit
)

func (e Event) String() string {
	switch e {
	case EventMinimize:
		return "minimize"
	case EventRestore:
		return "restore"
	case EventExit:
		return "exit"
	default:
		return "unknown"
	}
}

type request struct {
	event Event
	reply chan error
}

// Manager sequences minimize, restore and exit
type Manager struct {
	window  Window
	surface Surface
	saver   Saver
	quit    func()

	onChange func(minimized bool)
	onError  func(err error)

	requests chan request
	done     chan struct{}

	// Owned by the Run goroutine.
	minimized bool
	exited    bool
}

// Option configures a Manager
type Option func(*Manager)

// WithChangeHandler registers a function called, on the manager goroutine,
// whenever the window is hidden or shown.
func WithChangeHandler(fn func(minimized bool)) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// WithErrorHandler registers a function called with failures of posted events
func WithErrorHandler(fn func(err error)) Option {
	return func(m *Manager) {
		m.onError = fn
	}
}

// NewManager creates a tray manager. quit terminates the application.
func NewManager(window Window, surface Surface, saver Saver, quit func(), opts ...Option) *Manager {
	m := &Manager{
		window:   window,
		surface:  surface,
		saver:    saver,
		quit:     quit,
		requests: make(chan request, 8),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run handles lifecycle events until ctx is canceled
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-m.requests:
			err := m.handle(req.event)
			if req.reply != nil {
				req.reply <- err
				continue
			}
			if err != nil {
				log.WithError(err).WithField("event", req.event).Warn("Tray event failed")
				if m.onError != nil {
					m.onError(err)
				}
			}
		}
	}
}

// Post queues an event without waiting for it. It is meant for tray menu
// callbacks, which run on the tray's own goroutine.
func (m *Manager) Post(event Event) {
	select {
	case m.requests <- request{event: event}:
	case <-m.done:
	}
}

// Minimize hides the window and shows the tray surface. If there is no tray
// the window stays visible and ErrNoTray is returned.
func (m *Manager) Minimize() error {
	return m.send(EventMinimize)
}

// Restore shows the window again
func (m *Manager) Restore() error {
	return m.send(EventRestore)
}

// Exit saves the settings and quits the application. The application quits
// even when saving fails; the save error is returned.
func (m *Manager) Exit() error {
	return m.send(EventExit)
}

func (m *Manager) send(event Event) error {
	reply := make(chan error, 1)
	select {
	case m.requests <- request{event: event, reply: reply}:
	case <-m.done:
		return ErrStopped
	}

	select {
	case err := <-reply:
		return err
	case <-m.done:
		return ErrStopped
	}
}

func (m *Manager) handle(event Event) error {
	if m.exited {
		return nil
	}

	switch event {
	case EventMinimize:
		return m.minimize()
	case EventRestore:
		m.restore()
	case EventExit:
		return m.exit()
	}
	return nil
}

func (m *Manager) minimize() error {
	if m.minimized {
		return nil
	}
	if err := m.surface.Activate(); err != nil {
		return err
	}
	m.window.Hide()
	m.setMinimized(true)
	log.Debug("Minimized to tray")
	return nil
}

func (m *Manager) restore() {
	if !m.minimized {
		return
	}
	m.window.Show()
	m.surface.Deactivate()
	m.setMinimized(false)
	log.Debug("Restored from tray")
}

func (m *Manager) exit() error {
	m.exited = true
	err := m.saver.Save()
	if err != nil {
		log.WithError(err).Error("Failed to save settings on exit")
	}
	if m.minimized {
		m.surface.Deactivate()
	}
	log.Info("Exiting")
	m.quit()
	return err
}

func (m *Manager) setMinimized(minimized bool) {
	m.minimized = minimized
	if m.onChange != nil {
		m.onChange(minimized)
	}
}
