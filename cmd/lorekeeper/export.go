package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorekeeper/internal/convert"
)

func exportCmd() *cobra.Command {
	var format string
	var output string
	cmd := &cobra.Command{
		Use:   "export <world>",
		Short: "Export a world as a native world file or a character book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(args[0], format, output)
		},
	}
	cmd.Flags().StringVar(&format, "format", "native", "native or character_book")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to stdout)")
	return cmd
}

func runExport(world, format, output string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	c, err := loadWorld(ctx, a, world)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "native":
		data, err = json.MarshalIndent(c, "", "  ")
	case "character_book":
		data, err = convert.ToCharacterBook(world, c)
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("exporting %s: %w", world, err)
	}

	if output == "" {
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", output)
	return nil
}
