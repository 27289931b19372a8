package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"autocopy/controller"
	"autocopy/mirror"
)

var errNoDestination = errors.New("no destination folder configured, set one with `autocopy config set-destination`")

// Mocked for unit testing.
var notifyContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func newRunCommand(opts *options) *cobra.Command {
	var immediate bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Copy on the configured timer without opening a window",
		Long: "Run the copy timer in the foreground using the saved settings.\n" +
			"Stops on Ctrl+C or SIGTERM and saves the settings on the way out.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHeadless(cmd.Context(), opts, immediate)
		},
	}
	cmd.Flags().BoolVar(&immediate, "immediate", false,
		"Copy once right away instead of waiting for the first timer")
	return cmd
}

func runHeadless(ctx context.Context, opts *options, immediate bool) error {
	store := opts.store()
	settings := loadSettings(store)
	if strings.TrimSpace(settings.DestinationFolder) == "" {
		return errNoDestination
	}

	stopped := newStopListener()
	ctrl := controller.New(settings, mirror.NewEngine(mirror.WithFs(appFs)), store,
		controller.WithListener(logListener{}),
		controller.WithListener(stopped))

	signalCtx, stop := notifyContext(ctx)
	defer stop()

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, loopCtx := errgroup.WithContext(loopCtx)

	group.Go(func() error {
		return ctrl.Run(loopCtx)
	})
	group.Go(func() error {
		defer cancel()

		if err := ctrl.SetOption(controller.OptionImmediateExecution, immediate); err != nil {
			return err
		}
		if err := ctrl.Start(); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"sources":     len(settings.SourceFolders),
			"destination": settings.DestinationFolder,
			"seconds":     settings.TimerSeconds,
		}).Info("Copying on a timer, press Ctrl+C to stop")

		var runErr error
		select {
		case <-signalCtx.Done():
		case <-loopCtx.Done():
		case err := <-stopped.errs:
			runErr = fmt.Errorf("copying stopped: %w", err)
		}

		log.Info("Shutting down")
		return errors.Join(runErr, ctrl.Save())
	})

	return group.Wait()
}

// stopListener reports the first error that switched the recurrence off.
type stopListener struct {
	errs chan error
}

func newStopListener() stopListener {
	return stopListener{errs: make(chan error, 1)}
}

func (l stopListener) StateChanged(controller.State) {}

func (l stopListener) CycleFinished(cycle controller.Cycle) {
	if cycle.Err != nil {
		l.send(cycle.Err)
	}
}

// ErrorReported fires for a duration that stopped parsing before the next
// countdown could be armed.
func (l stopListener) ErrorReported(err error) {
	l.send(err)
}

func (l stopListener) send(err error) {
	select {
	case l.errs <- err:
	default:
	}
}
