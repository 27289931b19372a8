package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"autocopy/controller"
	"autocopy/models"
	"autocopy/tray"
)

const (
	startLabel = "Start Copy"
	stopLabel  = "Stop Copy"

	successTitle   = "Success"
	successMessage = "Files copied successfully!"

	trayHint = "Closing the window quits. Use Minimize to Tray to keep copying in the background."
)

// MainWindow represents the main application window. It is a view over a
// controller.Controller: user input is forwarded as controller commands, and
// controller notifications are applied to the widgets by a single goroutine.
type MainWindow struct {
	app        fyne.App
	window     fyne.Window
	surface    *traySurface
	controller *controller.Controller
	tray       *tray.Manager

	states chan controller.State
	cycles chan controller.Cycle
	errs   chan error

	sources      []string
	selected     map[int]bool
	sourcesMutex sync.RWMutex // Protects sources and selected
	minimized    atomic.Bool
	exiting      atomic.Bool

	sourceList       *widget.List
	destinationEntry *widget.Entry
	presetSelect     *widget.Select
	durationEntry    *widget.Entry
	startButton      *widget.Button
	countdown        *StatusLabel
	messageCheck     *widget.Check
	autoStartCheck   *widget.Check
	immediateCheck   *widget.Check
	trayHintLabel    *widget.Label
}

// NewMainWindow creates the main window on fyneApp. The window is also a
// controller.Listener and must be registered with the controller it will show.
func NewMainWindow(fyneApp fyne.App) *MainWindow {
	window := fyneApp.NewWindow("Auto Copy Files")
	window.Resize(fyne.NewSize(600, 620))

	mw := &MainWindow{
		app:      fyneApp,
		window:   window,
		states:   make(chan controller.State, 1),
		cycles:   make(chan controller.Cycle, 4),
		errs:     make(chan error, 4),
		selected: map[int]bool{},
	}

	icon, err := iconResource()
	if err != nil {
		log.WithError(err).Warn("Failed to render tray icon")
		icon = theme.FolderIcon()
	}
	fyneApp.SetIcon(icon)
	mw.surface = newTraySurface(fyneApp, icon, func(event tray.Event) {
		if mw.tray != nil {
			mw.tray.Post(event)
		}
	})

	return mw
}

// StateChanged implements controller.Listener. Only the latest state is kept.
func (mw *MainWindow) StateChanged(state controller.State) {
	select {
	case <-mw.states:
	default:
	}
	select {
	case mw.states <- state:
	default:
	}
}

// CycleFinished implements controller.Listener
func (mw *MainWindow) CycleFinished(cycle controller.Cycle) {
	select {
	case mw.cycles <- cycle:
	default:
		log.Warn("Dropping cycle notification, window is not keeping up")
	}
}

// ErrorReported implements controller.Listener
func (mw *MainWindow) ErrorReported(err error) {
	select {
	case mw.errs <- err:
	default:
		log.WithError(err).Warn("Dropping error notification, window is not keeping up")
	}
}

// ShowAndRun wires the window to ctrl, shows it and blocks until the
// application quits. It runs the controller and tray loops for the lifetime
// of the window.
func (mw *MainWindow) ShowAndRun(ctx context.Context, ctrl *controller.Controller) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mw.controller = ctrl
	mw.tray = tray.NewManager(mw.window, mw.surface, ctrl, mw.quit,
		tray.WithChangeHandler(mw.minimized.Store),
		tray.WithErrorHandler(mw.ErrorReported),
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return ctrl.Run(ctx)
	})
	group.Go(func() error {
		return mw.tray.Run(ctx)
	})

	state, err := ctrl.Snapshot()
	if err != nil {
		cancel()
		return errors.Join(err, group.Wait())
	}
	mw.setupUI(state)

	group.Go(func() error {
		mw.pump(ctx)
		return nil
	})

	if err := mw.surface.Install(); err != nil {
		log.WithError(err).Warn("System tray unavailable")
	}
	mw.window.SetCloseIntercept(func() {
		go mw.exit()
	})
	mw.app.Lifecycle().SetOnStopped(func() {
		// Quit through the driver, not through Exit: save now.
		if !mw.exiting.Load() {
			if err := ctrl.Save(); err != nil {
				log.WithError(err).Error("Failed to save settings")
			}
		}
	})

	if err := ctrl.Launch(); err != nil {
		log.WithError(err).Warn("Auto-start failed")
	}

	mw.window.ShowAndRun()

	cancel()
	return group.Wait()
}

// setupUI sets up the user interface from the initial state
func (mw *MainWindow) setupUI(state controller.State) {
	mw.sources = append([]string{}, state.Settings.SourceFolders...)

	mw.sourceList = widget.NewList(
		func() int {
			mw.sourcesMutex.RLock()
			defer mw.sourcesMutex.RUnlock()
			return len(mw.sources)
		},
		func() fyne.CanvasObject {
			return widget.NewCheck("Source folder", nil)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			mw.sourcesMutex.RLock()
			if id >= len(mw.sources) {
				mw.sourcesMutex.RUnlock()
				return // Prevent index out of bounds
			}
			path, checked := mw.sources[id], mw.selected[id]
			mw.sourcesMutex.RUnlock()

			check := obj.(*widget.Check)
			check.OnChanged = nil
			check.Text = path
			check.SetChecked(checked)
			check.OnChanged = func(on bool) {
				mw.sourcesMutex.Lock()
				defer mw.sourcesMutex.Unlock()
				if on {
					mw.selected[id] = true
				} else {
					delete(mw.selected, id)
				}
			}
			check.Refresh()
		},
	)

	addButton := widget.NewButtonWithIcon("Add Source", theme.ContentAddIcon(), mw.addSource)
	addButton.Importance = widget.HighImportance
	removeButton := widget.NewButtonWithIcon("Remove Selected", theme.DeleteIcon(), mw.removeSelected)
	removeButton.Importance = widget.DangerImportance

	mw.destinationEntry = widget.NewEntry()
	mw.destinationEntry.SetPlaceHolder("Folder the sources are copied into")
	mw.destinationEntry.SetText(state.Settings.DestinationFolder)
	mw.destinationEntry.OnChanged = func(text string) {
		mw.command(mw.controller.SetDestination(text))
	}
	browseButton := widget.NewButtonWithIcon("Browse", theme.FolderOpenIcon(), mw.browseDestination)

	mw.durationEntry = widget.NewEntry()
	mw.durationEntry.SetText(state.DurationText)
	mw.durationEntry.OnChanged = func(text string) {
		mw.command(mw.controller.SetDuration(text))
	}

	mw.presetSelect = widget.NewSelect(models.PresetLabels(), nil)
	mw.presetSelect.SetSelected(state.Settings.SelectedTime)
	mw.presetSelect.OnChanged = mw.selectPreset

	mw.startButton = widget.NewButtonWithIcon(startLabel, theme.MediaPlayIcon(), mw.toggleRunning)
	mw.startButton.Importance = widget.HighImportance

	mw.countdown = NewStatusLabel()

	mw.messageCheck = widget.NewCheck("Show Success Message", nil)
	mw.messageCheck.SetChecked(state.Settings.ShowSuccessMessage)
	mw.messageCheck.OnChanged = mw.optionSetter(controller.OptionShowSuccessMessage)

	mw.autoStartCheck = widget.NewCheck("Auto-start at tool launch", nil)
	mw.autoStartCheck.SetChecked(state.Settings.AutoStart)
	mw.autoStartCheck.OnChanged = mw.optionSetter(controller.OptionAutoStart)

	mw.immediateCheck = widget.NewCheck("Execute copy immediately on start", nil)
	mw.immediateCheck.SetChecked(state.ImmediateExecution)
	mw.immediateCheck.OnChanged = mw.optionSetter(controller.OptionImmediateExecution)

	minimizeButton := widget.NewButtonWithIcon("Minimize to Tray", theme.VisibilityOffIcon(), func() {
		go mw.minimize()
	})
	mw.trayHintLabel = widget.NewLabelWithStyle(trayHint, fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
	mw.trayHintLabel.Wrapping = fyne.TextWrapWord

	sources := container.NewBorder(
		widget.NewLabelWithStyle("Source Folders:", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(addButton, removeButton),
		nil, nil,
		mw.sourceList,
	)
	destination := container.NewBorder(nil, nil,
		widget.NewLabel("Destination Folder:"), browseButton, mw.destinationEntry)
	timer := container.NewBorder(nil, nil,
		widget.NewLabel("Time (seconds):"), mw.startButton,
		container.NewGridWithColumns(2, mw.presetSelect, mw.durationEntry))

	controls := container.NewVBox(
		widget.NewSeparator(),
		destination,
		timer,
		mw.countdown,
		mw.messageCheck,
		mw.autoStartCheck,
		mw.immediateCheck,
		minimizeButton,
		mw.trayHintLabel,
	)

	mw.window.SetContent(container.NewPadded(container.NewBorder(nil, controls, nil, nil, sources)))
	mw.apply(state)
}

// pump applies controller notifications until ctx is canceled.
func (mw *MainWindow) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case state := <-mw.states:
			mw.apply(state)
		case cycle := <-mw.cycles:
			mw.showCycle(cycle)
		case err := <-mw.errs:
			mw.showError(err)
		}
	}
}

// apply refreshes the widgets that display controller output. Input widgets
// are left alone so typing is never overwritten.
func (mw *MainWindow) apply(state controller.State) {
	mw.sourcesMutex.Lock()
	if !slices.Equal(mw.sources, state.Settings.SourceFolders) {
		mw.sources = append([]string{}, state.Settings.SourceFolders...)
		mw.selected = map[int]bool{}
	}
	mw.sourcesMutex.Unlock()
	mw.sourceList.Refresh()

	if state.Running {
		mw.startButton.SetText(stopLabel)
		mw.startButton.SetIcon(theme.MediaStopIcon())
	} else {
		mw.startButton.SetText(startLabel)
		mw.startButton.SetIcon(theme.MediaPlayIcon())
	}

	mw.countdown.SetStatus(state.CountdownText(), state.Phase)
}

// addSource asks for a folder and appends it to the source list
func (mw *MainWindow) addSource() {
	mw.chooseFolder("Select Source Folder", "", func(folder string) {
		mw.command(mw.controller.AddSource(folder))
	})
}

// removeSelected removes every checked source folder
func (mw *MainWindow) removeSelected() {
	mw.sourcesMutex.RLock()
	indices := make([]int, 0, len(mw.selected))
	for index := range mw.selected {
		indices = append(indices, index)
	}
	mw.sourcesMutex.RUnlock()

	if len(indices) == 0 {
		dialog.ShowInformation("No Folder Selected", "Please check the source folders to remove.", mw.window)
		return
	}

	_, err := mw.controller.RemoveSources(indices)
	mw.command(err)
}

// browseDestination asks for the destination folder
func (mw *MainWindow) browseDestination() {
	mw.chooseFolder("Select Destination Folder", mw.destinationEntry.Text, func(folder string) {
		mw.destinationEntry.SetText(folder)
	})
}

// selectPreset copies the preset duration into the duration entry
func (mw *MainWindow) selectPreset(label string) {
	if seconds, ok := models.PresetSeconds(label); ok {
		mw.durationEntry.SetText(strconv.Itoa(seconds))
	}
	mw.command(mw.controller.SelectPreset(label))
}

// toggleRunning starts or stops copying. Validation failures reach the user
// through ErrorReported.
func (mw *MainWindow) toggleRunning() {
	running, err := mw.controller.ToggleRunning()
	if err != nil {
		log.WithError(err).Debug("Start rejected")
		return
	}
	log.WithField("running", running).Debug("Toggled copying")
}

func (mw *MainWindow) optionSetter(option controller.Option) func(bool) {
	return func(value bool) {
		mw.command(mw.controller.SetOption(option, value))
	}
}

// minimize hides the window behind the tray icon
func (mw *MainWindow) minimize() {
	err := mw.tray.Minimize()
	if errors.Is(err, tray.ErrNoTray) {
		dialog.ShowInformation("No System Tray",
			"This desktop has no system tray, so the window stays open.", mw.window)
		return
	}
	mw.command(err)
}

// exit saves the settings and quits
func (mw *MainWindow) exit() {
	if err := mw.tray.Exit(); err != nil && !errors.Is(err, tray.ErrStopped) {
		log.WithError(err).Error("Settings were not saved")
	}
}

// quit is called by the tray manager once settings are saved.
func (mw *MainWindow) quit() {
	mw.exiting.Store(true)
	mw.app.Quit()
}

// showCycle tells the user how a mirror cycle went
func (mw *MainWindow) showCycle(cycle controller.Cycle) {
	switch {
	case cycle.Err != nil:
		mw.showError(fmt.Errorf("copying stopped: %w", cycle.Err))
	case !cycle.Succeeded():
		mw.notify("Copy Finished With Errors", cycle.Result.Summary())
	case cycle.Notify:
		mw.notify(successTitle, successMessage)
	}
}

// notify shows a message, as an OS notification when minimized.
func (mw *MainWindow) notify(title, message string) {
	if mw.minimized.Load() {
		mw.app.SendNotification(fyne.NewNotification(title, message))
		return
	}
	dialog.ShowInformation(title, message, mw.window)
}

func (mw *MainWindow) showError(err error) {
	if mw.minimized.Load() {
		mw.app.SendNotification(fyne.NewNotification("Error", err.Error()))
		return
	}
	dialog.ShowError(err, mw.window)
}

// command logs a failed controller command.
func (mw *MainWindow) command(err error) {
	if err != nil {
		log.WithError(err).Warn("Command failed")
	}
}
