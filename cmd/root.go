// Package cmd implements the autocopy command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"autocopy/controller"
	"autocopy/mirror"
	"autocopy/models"
	"autocopy/storage"
	"autocopy/ui"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged regardless of --log-level.
const verboseLogKey = "AUTOCOPY_LOG_VERBOSE"

// Mocked for unit testing.
var appFs = afero.NewOsFs()

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
	logFile    string
}

// Execute runs the main CLI process.
func Execute() {
	if err := New().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// New creates the root `autocopy` command. Without a subcommand it opens the
// window.
func New() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "autocopy",
		Short: "Copy folders into a destination folder on a timer",
		Long: "autocopy copies every file under a set of source folders into a\n" +
			"destination folder, keeping the folder structure, and repeats the\n" +
			"copy on a fixed timer.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,

		// Execute prints the error, so we silence errors here to avoid
		// double printing.
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.setupLogging()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGUI(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"Settings file. Defaults to ~/"+storage.DataDirName+"/"+storage.SettingsFileName)
	flags.StringVar(&opts.logLevel, "log-level", "info",
		"Log level: trace, debug, info, warn, error")
	flags.StringVar(&opts.logFile, "log-file", "",
		"Append logs to this file instead of stderr")

	rootCmd.AddCommand(
		newRunCommand(opts),
		newCopyCommand(opts),
		newConfigCommand(opts),
	)
	return rootCmd
}

func (o *options) setupLogging() error {
	level, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	if os.Getenv(verboseLogKey) == "true" {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if o.logFile != "" {
		file, err := appFs.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(file)
		log.SetFormatter(&log.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	}
	return nil
}

// store returns the settings store selected by --config.
func (o *options) store() *storage.Manager {
	path := o.configPath
	if path == "" {
		path = storage.DefaultPath()
	}
	return storage.NewManagerAt(appFs, path)
}

// loadSettings reads the settings, falling back to defaults when the file
// cannot be read at all.
func loadSettings(store *storage.Manager) *models.Settings {
	settings, err := store.LoadSettings()
	if err != nil {
		log.WithError(err).WithField("path", store.Path()).Warn("Failed to load settings, using defaults")
		return models.DefaultSettings()
	}
	return settings
}

func runGUI(ctx context.Context, opts *options) error {
	store := opts.store()
	settings := loadSettings(store)

	log.Info("Starting Auto Copy Files...")
	mw := ui.NewMainWindow(app.NewWithID("autocopy"))
	ctrl := controller.New(settings, mirror.NewEngine(mirror.WithFs(appFs)), store,
		controller.WithListener(mw),
		controller.WithListener(logListener{}),
	)
	return mw.ShowAndRun(ctx, ctrl)
}

// logListener writes controller notifications to the log.
type logListener struct{}

func (logListener) StateChanged(controller.State) {}

func (logListener) CycleFinished(cycle controller.Cycle) {
	entry := log.NewEntry(log.StandardLogger())
	if cycle.Result != nil {
		entry = entry.WithFields(log.Fields{
			"cycle":   cycle.Result.ID,
			"elapsed": cycle.Result.Elapsed(),
		})
	}

	switch {
	case cycle.Err != nil:
		entry.WithError(cycle.Err).Error("Mirror cycle failed")
	case cycle.Result == nil:
		entry.Info("Mirror cycle finished")
	case cycle.Result.Failed():
		entry.Warn(cycle.Result.Summary())
	default:
		entry.Info(cycle.Result.Summary())
	}
}

func (logListener) ErrorReported(err error) {
	log.WithError(err).Error("Copying could not continue")
}
