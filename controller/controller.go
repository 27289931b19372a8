// Package controller owns the running application state and drives the
// recurring mirror cycles. Every read and write of that state happens on the
// goroutine running Controller.Run; the exported methods hand closures to that
// goroutine and wait for them to complete.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"autocopy/models"
	"autocopy/scheduler"
)

// tickInterval is how often the countdown is refreshed and checked for expiry.
const tickInterval = time.Second

var (
	// ErrStopped is returned by commands issued after Run has returned.
	ErrStopped = errors.New("controller is not running")

	// ErrUnknownOption is returned by SetOption for an unrecognized option name.
	ErrUnknownOption = errors.New("unknown option")
)

// Copier runs one mirror cycle
type Copier interface {
	Copy(ctx context.Context, sources []string, destination string) (*models.CopyResult, error)
}

// Store persists the settings record
type Store interface {
	SaveSettings(settings *models.Settings) error
}

// Listener receives notifications from the controller loop. Methods are
// called on the loop goroutine and must not call back into the controller.
type Listener interface {
	StateChanged(state State)
	CycleFinished(cycle Cycle)
	ErrorReported(err error)
}

// Option names accepted by SetOption.
type Option string

const (
	OptionShowSuccessMessage Option = "show_success_message"
	OptionAutoStart          Option = "auto_start"
	OptionImmediateExecution Option = "immediate_execution"
)

// Options lists the option names in display order
var Options = []Option{OptionShowSuccessMessage, OptionAutoStart, OptionImmediateExecution}

// State is a point-in-time copy of the controller's state.
type State struct {
	Settings           *models.Settings
	DurationText       string
	ImmediateExecution bool
	Running            bool
	Phase              scheduler.Phase
	Remaining          time.Duration
	LastResult         *models.CopyResult
}

// CountdownText renders the countdown line shown under the controls.
func (s State) CountdownText() string {
	switch s.Phase {
	case scheduler.Armed:
		return fmt.Sprintf("Next copy in: %d seconds", int(s.Remaining/time.Second))
	case scheduler.Executing:
		return "Copying..."
	default:
		return ""
	}
}

// Cycle describes a finished mirror cycle.
type Cycle struct {
	Result *models.CopyResult
	Err    error

	// Notify is set when the user asked to be told about successful cycles.
	Notify bool
}

// Succeeded reports whether the cycle ran to completion without failures
func (c Cycle) Succeeded() bool {
	return c.Err == nil && (c.Result == nil || !c.Result.Failed())
}

type outcome struct {
	result *models.CopyResult
	err    error
}

// Controller sequences start, stop, countdown and copy
type Controller struct {
	clock     clockwork.Clock
	copier    Copier
	store     Store
	listeners []Listener

	commands chan func()
	finished chan outcome
	done     chan struct{}

	// Owned by the Run goroutine.
	ctx          context.Context
	settings     *models.Settings
	durationText string
	immediate    bool
	recurrence   scheduler.Recurrence
	last         *models.CopyResult
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithClock replaces the wall clock, for tests
func WithClock(clock clockwork.Clock) ControllerOption {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithListener adds a listener for state changes and cycle results
func WithListener(listener Listener) ControllerOption {
	return func(c *Controller) {
		c.listeners = append(c.listeners, listener)
	}
}

// New creates a controller seeded with settings. The controller does nothing
// until Run is called.
func New(settings *models.Settings, copier Copier, store Store, opts ...ControllerOption) *Controller {
	c := &Controller{
		clock:        clockwork.NewRealClock(),
		copier:       copier,
		store:        store,
		commands:     make(chan func()),
		finished:     make(chan outcome, 1),
		done:         make(chan struct{}),
		settings:     settings.Clone(),
		durationText: strconv.Itoa(settings.TimerSeconds),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes commands, countdown ticks and cycle completions until ctx is
// canceled. It must be called exactly once.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	ticker := c.clock.NewTicker(tickInterval)
	defer ticker.Stop()

	c.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			log.Debug("Controller loop stopped")
			return nil
		case command := <-c.commands:
			command()
		case <-ticker.Chan():
			c.tick(c.clock.Now())
		case outcome := <-c.finished:
			c.cycleFinished(outcome)
		}
	}
}

// do runs fn on the loop goroutine and waits for it to return.
func (c *Controller) do(fn func()) error {
	reply := make(chan struct{})
	command := func() {
		defer close(reply)
		fn()
	}

	select {
	case c.commands <- command:
	case <-c.done:
		return ErrStopped
	}
	<-reply
	return nil
}

// Snapshot returns the current state
func (c *Controller) Snapshot() (State, error) {
	var state State
	err := c.do(func() {
		state = c.state()
	})
	return state, err
}

// Launch applies the auto-start option. It is meant to be called once the
// interface is ready.
func (c *Controller) Launch() error {
	var err error
	if doErr := c.do(func() {
		if c.settings.AutoStart && !c.recurrence.Running() {
			log.Info("Auto-starting copy")
			err = c.start()
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

// Start switches copying on if it is off
func (c *Controller) Start() error {
	var err error
	if doErr := c.do(func() {
		if !c.recurrence.Running() {
			err = c.start()
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

// Stop switches copying off. A cycle already in progress is allowed to finish.
func (c *Controller) Stop() error {
	return c.do(c.stop)
}

// ToggleRunning starts copying when stopped and stops it when running. It
// returns whether copying is now on.
func (c *Controller) ToggleRunning() (bool, error) {
	var (
		running bool
		err     error
	)
	if doErr := c.do(func() {
		if c.recurrence.Running() {
			c.stop()
		} else {
			err = c.start()
		}
		running = c.recurrence.Running()
	}); doErr != nil {
		return false, doErr
	}
	return running, err
}

// AddSource appends a source folder. Blank paths are ignored.
func (c *Controller) AddSource(path string) error {
	return c.do(func() {
		if c.settings.AddSource(path) {
			log.WithField("path", path).Info("Added source folder")
			c.notify()
		}
	})
}

// RemoveSources removes the source folders at the given list positions and
// returns how many were removed.
func (c *Controller) RemoveSources(indices []int) (int, error) {
	var removed int
	err := c.do(func() {
		removed = c.settings.RemoveSources(indices)
		if removed > 0 {
			log.WithField("count", removed).Info("Removed source folders")
			c.notify()
		}
	})
	return removed, err
}

// SetDestination sets the destination folder
func (c *Controller) SetDestination(path string) error {
	return c.do(func() {
		if c.settings.DestinationFolder == path {
			return
		}
		c.settings.DestinationFolder = path
		c.notify()
	})
}

// SetDuration sets the manually entered duration. The text is only parsed
// when a countdown is armed.
func (c *Controller) SetDuration(text string) error {
	return c.do(func() {
		if c.durationText == text {
			return
		}
		c.durationText = text
		c.notify()
	})
}

// SelectPreset picks a preset duration by label and copies its seconds into
// the duration text. Unknown labels select the first preset.
func (c *Controller) SelectPreset(label string) error {
	return c.do(func() {
		seconds, ok := models.PresetSeconds(label)
		if !ok {
			preset := models.DefaultPreset()
			label, seconds = preset.Label, preset.Seconds
		}
		c.settings.SelectedTime = label
		c.durationText = strconv.Itoa(seconds)
		c.notify()
	})
}

// SetOption switches one of the boolean options
func (c *Controller) SetOption(name Option, value bool) error {
	var err error
	if doErr := c.do(func() {
		switch name {
		case OptionShowSuccessMessage:
			c.settings.ShowSuccessMessage = value
		case OptionAutoStart:
			c.settings.AutoStart = value
		case OptionImmediateExecution:
			c.immediate = value
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownOption, name)
			return
		}
		c.notify()
	}); doErr != nil {
		return doErr
	}
	return err
}

// Save persists the current settings
func (c *Controller) Save() error {
	var err error
	if doErr := c.do(func() {
		err = c.store.SaveSettings(c.record())
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// start validates the duration and switches the recurrence on.
func (c *Controller) start() error {
	seconds, err := models.ParseTimerSeconds(c.durationText)
	if err != nil {
		c.report(err)
		return err
	}

	execute, err := c.recurrence.Start(c.clock.Now(), models.Interval(seconds), c.immediate)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"seconds":   seconds,
		"immediate": c.immediate,
	}).Info("Copying started")

	if execute {
		c.launch()
	}
	c.notify()
	return nil
}

func (c *Controller) stop() {
	if !c.recurrence.Running() {
		return
	}
	c.recurrence.Stop()
	log.Info("Copying stopped")
	c.notify()
}

func (c *Controller) tick(now time.Time) {
	if c.recurrence.Tick(now) {
		c.launch()
		c.notify()
		return
	}
	if c.recurrence.Phase() == scheduler.Armed {
		c.notify()
	}
}

// launch runs a cycle on a worker goroutine with a snapshot of the folders.
func (c *Controller) launch() {
	ctx := c.ctx
	sources := append([]string{}, c.settings.SourceFolders...)
	destination := c.settings.DestinationFolder

	go func() {
		result, err := c.copier.Copy(ctx, sources, destination)
		c.finished <- outcome{result: result, err: err}
	}()
}

func (c *Controller) cycleFinished(outcome outcome) {
	now := c.clock.Now()
	c.last = outcome.result

	cycle := Cycle{
		Result: outcome.result,
		Err:    outcome.err,
		Notify: c.settings.ShowSuccessMessage,
	}
	for _, listener := range c.listeners {
		listener.CycleFinished(cycle)
	}

	switch {
	case outcome.err != nil:
		log.WithError(outcome.err).Error("Mirror cycle failed, copying stopped")
		c.recurrence.Abort()
	case c.recurrence.Running():
		seconds, err := models.ParseTimerSeconds(c.durationText)
		if err != nil {
			c.report(err)
			c.recurrence.Abort()
			break
		}
		c.recurrence.Finish(now, models.Interval(seconds))
	default:
		c.recurrence.Finish(now, 0)
	}
	c.notify()
}

// record builds the settings record as it would be saved. A duration that
// does not parse keeps the last valid value.
func (c *Controller) record() *models.Settings {
	record := c.settings.Clone()
	if seconds, err := models.ParseTimerSeconds(c.durationText); err == nil {
		record.TimerSeconds = seconds
	}
	return record
}

func (c *Controller) state() State {
	now := c.clock.Now()
	return State{
		Settings:           c.record(),
		DurationText:       c.durationText,
		ImmediateExecution: c.immediate,
		Running:            c.recurrence.Running(),
		Phase:              c.recurrence.Phase(),
		Remaining:          c.recurrence.Remaining(now),
		LastResult:         c.last,
	}
}

func (c *Controller) notify() {
	if len(c.listeners) == 0 {
		return
	}
	state := c.state()
	for _, listener := range c.listeners {
		listener.StateChanged(state)
	}
}

func (c *Controller) report(err error) {
	log.WithError(err).Warn("Rejected input")
	for _, listener := range c.listeners {
		listener.ErrorReported(err)
	}
}
