package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"autocopy/controller"
	"autocopy/models"
)

var errNotPersisted = errors.New("immediate_execution is not saved, use `autocopy run --immediate`")

func newConfigCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the saved settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the saved settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store := opts.store()
				printSettings(cmd.OutOrStdout(), store.Path(), loadSettings(store))
				return nil
			},
		},
		&cobra.Command{
			Use:   "presets",
			Short: "List the preset timer durations",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				for _, preset := range models.Presets {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %d\n", preset.Label, preset.Seconds)
				}
			},
		},
	)

	// Setup the commands that edit the settings file.
	type editorSpec struct {
		use, short string
		args       cobra.PositionalArgs
		fn         func(cmd *cobra.Command, settings *models.Settings, args []string) error
	}

	editors := []editorSpec{
		{
			use:   "add-source PATH...",
			short: "Append source folders",
			args:  cobra.MinimumNArgs(1),
			fn: func(_ *cobra.Command, settings *models.Settings, args []string) error {
				for _, path := range args {
					if !settings.AddSource(path) {
						return &models.ValidationError{Field: "source_folders", Value: path, Err: errors.New("path is empty")}
					}
				}
				return nil
			},
		},
		{
			use:   "remove-source INDEX...",
			short: "Remove source folders by their position in `config show`",
			args:  cobra.MinimumNArgs(1),
			fn: func(cmd *cobra.Command, settings *models.Settings, args []string) error {
				indices := make([]int, 0, len(args))
				for _, arg := range args {
					index, err := strconv.Atoi(arg)
					if err != nil {
						return &models.ValidationError{Field: "index", Value: arg, Err: err}
					}
					indices = append(indices, index)
				}
				removed := settings.RemoveSources(indices)
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d source folders\n", removed)
				return nil
			},
		},
		{
			use:   "set-destination PATH",
			short: "Set the destination folder",
			args:  cobra.ExactArgs(1),
			fn: func(_ *cobra.Command, settings *models.Settings, args []string) error {
				settings.DestinationFolder = args[0]
				return nil
			},
		},
		{
			use:   "set-duration SECONDS|PRESET",
			short: "Set the timer, in seconds or as a preset label such as \"1 hour\"",
			args:  cobra.ExactArgs(1),
			fn: func(_ *cobra.Command, settings *models.Settings, args []string) error {
				return setDuration(settings, args[0])
			},
		},
		{
			use:   "set-option NAME true|false",
			short: "Switch show_success_message or auto_start",
			args:  cobra.ExactArgs(2),
			fn: func(_ *cobra.Command, settings *models.Settings, args []string) error {
				return setOption(settings, controller.Option(args[0]), args[1])
			},
		},
	}
	for _, editor := range editors {
		editor := editor
		cmd.AddCommand(&cobra.Command{
			Use:   editor.use,
			Short: editor.short,
			Args:  editor.args,
			RunE: func(cmd *cobra.Command, args []string) error {
				store := opts.store()
				settings := loadSettings(store)
				if err := editor.fn(cmd, settings, args); err != nil {
					return err
				}
				if err := store.SaveSettings(settings); err != nil {
					return fmt.Errorf("save settings: %w", err)
				}
				return nil
			},
		})
	}

	return cmd
}

// setDuration accepts a preset label or a whole number of seconds.
func setDuration(settings *models.Settings, value string) error {
	if seconds, ok := models.PresetSeconds(value); ok {
		settings.SelectedTime = value
		settings.TimerSeconds = seconds
		return nil
	}

	seconds, err := models.ParseTimerSeconds(value)
	if err != nil {
		return err
	}
	settings.TimerSeconds = seconds
	return nil
}

func setOption(settings *models.Settings, name controller.Option, value string) error {
	on, err := strconv.ParseBool(value)
	if err != nil {
		return &models.ValidationError{Field: string(name), Value: value, Err: err}
	}

	switch name {
	case controller.OptionShowSuccessMessage:
		settings.ShowSuccessMessage = on
	case controller.OptionAutoStart:
		settings.AutoStart = on
	case controller.OptionImmediateExecution:
		return errNotPersisted
	default:
		return fmt.Errorf("%w: %s", controller.ErrUnknownOption, name)
	}
	return nil
}

func printSettings(out io.Writer, path string, settings *models.Settings) {
	fmt.Fprintf(out, "%-22s%s\n", "Settings file:", path)
	fmt.Fprintf(out, "%-22s%d\n", "Timer seconds:", settings.TimerSeconds)
	fmt.Fprintf(out, "%-22s%s\n", "Selected time:", settings.SelectedTime)
	fmt.Fprintf(out, "%-22s%s\n", "Destination folder:", settings.DestinationFolder)
	fmt.Fprintf(out, "%-22s%t\n", "Show success message:", settings.ShowSuccessMessage)
	fmt.Fprintf(out, "%-22s%t\n", "Auto start:", settings.AutoStart)
	fmt.Fprintln(out, "Source folders:")
	if len(settings.SourceFolders) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for i, folder := range settings.SourceFolders {
		fmt.Fprintf(out, "  %d: %s\n", i, folder)
	}
}
