package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"autocopy/tray"
)

// traySurface is the system tray icon with its Restore and Exit menu.
// Fyne cannot remove a tray icon once shown, so the icon stays installed and
// Restore is only enabled while the window is hidden.
type traySurface struct {
	desk    desktop.App
	icon    fyne.Resource
	menu    *fyne.Menu
	restore *fyne.MenuItem
}

// newTraySurface builds the tray menu. Menu actions are posted to post.
func newTraySurface(a fyne.App, icon fyne.Resource, post func(tray.Event)) *traySurface {
	s := &traySurface{icon: icon}
	if desk, ok := a.(desktop.App); ok {
		s.desk = desk
	}

	s.restore = fyne.NewMenuItem("Restore", func() { post(tray.EventRestore) })
	s.restore.Disabled = true

	exit := fyne.NewMenuItem("Exit", func() { post(tray.EventExit) })
	exit.IsQuit = true

	s.menu = fyne.NewMenu("AutoCopy", s.restore, exit)
	return s
}

// Install shows the tray icon. It reports tray.ErrNoTray on drivers without
// a system tray.
func (s *traySurface) Install() error {
	if s.desk == nil {
		return tray.ErrNoTray
	}
	s.desk.SetSystemTrayMenu(s.menu)
	if s.icon != nil {
		s.desk.SetSystemTrayIcon(s.icon)
	}
	return nil
}

// Activate implements tray.Surface
func (s *traySurface) Activate() error {
	if s.desk == nil {
		return tray.ErrNoTray
	}
	s.restore.Disabled = false
	s.menu.Refresh()
	return nil
}

// Deactivate implements tray.Surface
func (s *traySurface) Deactivate() {
	if s.desk == nil {
		return
	}
	s.restore.Disabled = true
	s.menu.Refresh()
}
