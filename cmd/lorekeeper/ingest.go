package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorekeeper/internal/ingest"
)

var (
	ingestFull     bool
	ingestExcludes []string
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <world> <dir>...",
		Short: "Build a world from markdown lore files",
		Long: "Reads markdown files with YAML frontmatter (title, keys, order, position, ...)\n" +
			"into the world. Entries are matched to files by title and keep their uids.",
		Args: cobra.MinimumNArgs(2),
		RunE: runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Drop entries no file describes")
	cmd.Flags().StringSliceVar(&ingestExcludes, "exclude", nil, "Paths to skip")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	result, err := ingest.Run(ctx, args[0], args[1:], a.worlds, ingest.Options{Full: ingestFull, Excludes: ingestExcludes})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Entries created: %d\n", result.EntriesCreated)
	fmt.Fprintf(os.Stdout, "  Entries updated: %d\n", result.EntriesUpdated)
	fmt.Fprintf(os.Stdout, "  Entries removed: %d\n", result.EntriesRemoved)
	fmt.Fprintf(os.Stdout, "  Files skipped:   %d\n", result.FilesSkipped)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}
