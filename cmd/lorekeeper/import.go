package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lorekeeper/internal/convert"
	"lorekeeper/internal/selection"
)

func importCmd() *cobra.Command {
	var name string
	var overwrite bool
	var embedded bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a lorebook as a world",
		Long: "Imports a native world file, a NovelAI or Agnai lorebook, a Risu lorebook or a\n" +
			"character book. With --embedded the file is a character card whose book is\n" +
			"stored and bound to the configured character.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if embedded {
				return runImportEmbedded(args[0])
			}
			return runImport(args[0], name, overwrite)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "World name (defaults to the file name)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing world")
	cmd.Flags().BoolVar(&embedded, "embedded", false, "Import a character card's embedded lorebook")
	return cmd
}

func runImport(path, name string, overwrite bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if !overwrite {
		existing, err := a.worlds.Load(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("world %s already exists, use --overwrite to replace it", name)
		}
	}

	c, format, err := convert.Import(data)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	if err := a.worlds.Save(ctx, name, c, true); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Imported %d entries from %s lorebook into %s\n", c.Len(), format, name)
	return nil
}

func runImportEmbedded(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if a.cfg.Character.Name == "" {
		return fmt.Errorf("character.name must be set to import an embedded lorebook")
	}

	s := a.session()
	defer s.Close()
	world, err := s.ImportEmbedded(ctx, selection.Character{
		Name:     a.cfg.Character.Name,
		FileName: a.cfg.Character.FileName,
	}, data)
	if err != nil {
		return err
	}
	if err := a.saveState(s); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Imported %s and bound it to %s\n", world, a.cfg.Character.Name)
	return nil
}
