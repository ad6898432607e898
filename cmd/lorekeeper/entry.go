package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lorekeeper/internal/convert"
	"lorekeeper/internal/lore"
)

func entryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Edit the entries of a world",
	}
	cmd.AddCommand(entryAddCmd())
	cmd.AddCommand(entryDeleteCmd())
	cmd.AddCommand(entrySetCmd())
	return cmd
}

type entryAddOptions struct {
	keys      []string
	secondary []string
	comment   string
	content   string
	order     int
	position  string
	constant  bool
}

func entryAddCmd() *cobra.Command {
	var opts entryAddOptions
	cmd := &cobra.Command{
		Use:   "add <world>",
		Short: "Add an entry with the lowest free uid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntryAdd(args[0], opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.keys, "key", "k", nil, "Primary keys")
	cmd.Flags().StringSliceVar(&opts.secondary, "secondary", nil, "Optional secondary keys")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "Entry title")
	cmd.Flags().StringVar(&opts.content, "content", "", "Entry text")
	cmd.Flags().IntVar(&opts.order, "order", lore.DefaultOrder, "Insertion order")
	cmd.Flags().StringVar(&opts.position, "position", "before", "before, after, note_top or note_bottom")
	cmd.Flags().BoolVar(&opts.constant, "constant", false, "Always insert the entry")
	return cmd
}

func runEntryAdd(world string, opts entryAddOptions) error {
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
	position, err := lore.ParsePosition(opts.position)
	if err != nil {
		return err
	}

	e, err := c.CreateEntry()
	if err != nil {
		return err
	}
	e.Key = trimKeys(opts.keys)
	e.KeySecondary = trimKeys(opts.secondary)
	e.Selective = len(e.KeySecondary) > 0
	e.Comment = opts.comment
	e.AddMemo = opts.comment != ""
	e.Content = opts.content
	e.Order = opts.order
	e.Position = position
	e.Constant = opts.constant

	if err := a.worlds.Save(ctx, world, c, false); err != nil {
		return err
	}
	if err := a.worlds.Flush(ctx); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Added entry %d to %s\n", e.UID, world)
	return nil
}

func entryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <world> <uid>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid uid %q", args[1])
			}

			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			c, err := loadWorld(ctx, a, args[0])
			if err != nil {
				return err
			}
			deleted, err := convert.DeleteEntry(c, uid)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("entry %d not found in %s", uid, args[0])
			}
			if err := a.worlds.Save(ctx, args[0], c, false); err != nil {
				return err
			}
			if err := a.worlds.Flush(ctx); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Deleted entry %d from %s\n", uid, args[0])
			return nil
		},
	}
}

func entrySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <world> <uid> <field> <value>",
		Short: "Change one field of an entry",
		Long: "Changes one field of an entry. Worlds imported from a character book keep the\n" +
			"book in step so exports carry the edit.\n\nFields: " + strings.Join(convert.Fields, ", "),
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid uid %q", args[1])
			}

			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			c, err := loadWorld(ctx, a, args[0])
			if err != nil {
				return err
			}
			if err := convert.SetField(c, uid, args[2], args[3]); err != nil {
				return err
			}
			if err := a.worlds.Save(ctx, args[0], c, false); err != nil {
				return err
			}
			return a.worlds.Flush(ctx)
		},
	}
}

func loadWorld(ctx context.Context, a *app, name string) (*lore.Collection, error) {
	c, err := a.worlds.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("world not found: %s", name)
	}
	return c, nil
}

func trimKeys(keys []string) []string {
	out := []string{}
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			out = append(out, key)
		}
	}
	return out
}
