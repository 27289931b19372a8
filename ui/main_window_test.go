package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocopy/controller"
	"autocopy/models"
	"autocopy/scheduler"
	"autocopy/tray"
)

func testState() controller.State {
	settings := models.DefaultSettings()
	settings.SourceFolders = []string{"/home/user/docs", "/home/user/photos"}
	settings.DestinationFolder = "/mnt/backup"
	settings.SelectedTime = "1 min"
	return controller.State{
		Settings:     settings,
		DurationText: "60",
		Phase:        scheduler.Idle,
	}
}

func TestSetupUIShowsState(t *testing.T) {
	mw := NewMainWindow(test.NewApp())
	mw.setupUI(testState())

	assert.Equal(t, 2, mw.sourceList.Length())
	assert.Equal(t, "/mnt/backup", mw.destinationEntry.Text)
	assert.Equal(t, "60", mw.durationEntry.Text)
	assert.Equal(t, "1 min", mw.presetSelect.Selected)
	assert.True(t, mw.messageCheck.Checked)
	assert.False(t, mw.autoStartCheck.Checked)
	assert.False(t, mw.immediateCheck.Checked)
	assert.Equal(t, startLabel, mw.startButton.Text)
	assert.Empty(t, mw.countdown.Text())
	assert.Equal(t, trayHint, mw.trayHintLabel.Text)
	assert.True(t, mw.trayHintLabel.Visible())
}

func TestApplyState(t *testing.T) {
	mw := NewMainWindow(test.NewApp())
	state := testState()
	mw.setupUI(state)

	mw.selected[1] = true
	state.Running = true
	state.Phase = scheduler.Armed
	state.Remaining = 42 * time.Second
	mw.apply(state)

	assert.Equal(t, stopLabel, mw.startButton.Text)
	assert.Equal(t, "Next copy in: 42 seconds", mw.countdown.Text())
	assert.True(t, mw.selected[1], "selection survives while the list is unchanged")

	state.Running = false
	state.Phase = scheduler.Idle
	state.Remaining = 0
	state.Settings = state.Settings.Clone()
	state.Settings.SourceFolders = []string{"/home/user/photos"}
	mw.apply(state)

	assert.Equal(t, startLabel, mw.startButton.Text)
	assert.Empty(t, mw.countdown.Text())
	assert.Equal(t, 1, mw.sourceList.Length())
	assert.Empty(t, mw.selected, "selection is cleared when the list changes")
}

func TestListenerKeepsLatestState(t *testing.T) {
	mw := NewMainWindow(test.NewApp())

	for _, text := range []string{"1", "2", "3"} {
		state := testState()
		state.DurationText = text
		mw.StateChanged(state)
	}

	require.Len(t, mw.states, 1)
	assert.Equal(t, "3", (<-mw.states).DurationText)
}

func TestListenerNeverBlocks(t *testing.T) {
	mw := NewMainWindow(test.NewApp())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			mw.CycleFinished(controller.Cycle{})
			mw.ErrorReported(models.ErrInvalidDuration)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener blocked the controller loop")
	}
}

type fakeDesktop struct {
	menu *fyne.Menu
	icon fyne.Resource
}

func (d *fakeDesktop) SetSystemTrayMenu(menu *fyne.Menu) { d.menu = menu }
func (d *fakeDesktop) SetSystemTrayIcon(icon fyne.Resource) { d.icon = icon }

func TestTraySurfaceWithoutTray(t *testing.T) {
	s := newTraySurface(nil, nil, func(tray.Event) {})

	assert.Equal(t, tray.ErrNoTray, s.Install())
	assert.Equal(t, tray.ErrNoTray, s.Activate())
	s.Deactivate()
}

func TestTraySurfaceMenu(t *testing.T) {
	test.NewApp()
	icon, err := iconResource()
	require.NoError(t, err)

	var posted []tray.Event
	s := newTraySurface(nil, icon, func(event tray.Event) {
		posted = append(posted, event)
	})
	desk := &fakeDesktop{}
	s.desk = desk

	require.NoError(t, s.Install())
	require.NotNil(t, desk.menu)
	assert.Equal(t, icon, desk.icon)
	require.Len(t, desk.menu.Items, 2)

	restore, exit := desk.menu.Items[0], desk.menu.Items[1]
	assert.Equal(t, "Restore", restore.Label)
	assert.True(t, restore.Disabled)
	assert.Equal(t, "Exit", exit.Label)
	assert.True(t, exit.IsQuit)

	require.NoError(t, s.Activate())
	assert.False(t, restore.Disabled)
	s.Deactivate()
	assert.True(t, restore.Disabled)

	restore.Action()
	exit.Action()
	assert.Equal(t, []tray.Event{tray.EventRestore, tray.EventExit}, posted)
}
