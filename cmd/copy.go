package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"autocopy/mirror"
)

func newCopyCommand(opts *options) *cobra.Command {
	var (
		sources     []string
		destination string
		failFast    bool
	)
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Run one copy now and exit",
		Long: "Copy every file under the source folders into the destination\n" +
			"folder once. Folders not given as flags come from the saved settings.\n" +
			"Exits non-zero if any file could not be copied.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := loadSettings(opts.store())
			if len(sources) == 0 {
				sources = settings.SourceFolders
			}
			if destination == "" {
				destination = settings.DestinationFolder
			}

			ctx, stop := notifyContext(cmd.Context())
			defer stop()
			return copyOnce(ctx, cmd, sources, destination, failFast)
		},
	}
	cmd.Flags().StringArrayVar(&sources, "source", nil,
		"Source folder, repeat for several. Defaults to the saved source folders")
	cmd.Flags().StringVar(&destination, "destination", "",
		"Destination folder. Defaults to the saved destination folder")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false,
		"Stop at the first file that cannot be copied")
	return cmd
}

func copyOnce(ctx context.Context, cmd *cobra.Command, sources []string, destination string, failFast bool) error {
	engine := mirror.NewEngine(mirror.WithFs(appFs), mirror.WithFailFast(failFast))
	result, err := engine.Copy(ctx, sources, destination)
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Summary())
	for _, failure := range result.Failures {
		fmt.Fprintf(out, "  %s: %v\n", failure.Path, failure.Err)
	}

	if result.Failed() {
		return fmt.Errorf("copy finished with %d failures", len(result.Failures))
	}
	return nil
}
