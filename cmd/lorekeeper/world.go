package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"lorekeeper/internal/session"
	"lorekeeper/internal/tokens"
)

func worldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Manage worlds and the world selection",
	}
	cmd.AddCommand(worldListCmd())
	cmd.AddCommand(worldShowCmd())
	cmd.AddCommand(worldCreateCmd())
	cmd.AddCommand(worldDeleteCmd())
	cmd.AddCommand(worldRenameCmd())
	cmd.AddCommand(worldSelectCmd())
	cmd.AddCommand(worldLinkCmd())
	return cmd
}

func worldListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored worlds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			names, err := a.worlds.List(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(os.Stdout, "No worlds.")
				return nil
			}
			for _, name := range names {
				var marks []string
				if slices.Contains(a.cfg.WorldInfo.GlobalSelect, name) {
					marks = append(marks, "selected")
				}
				if a.cfg.Character.World == name {
					marks = append(marks, "character")
				}
				if len(marks) > 0 {
					fmt.Fprintf(os.Stdout, "%s (%s)\n", name, strings.Join(marks, ", "))
					continue
				}
				fmt.Fprintln(os.Stdout, name)
			}
			return nil
		},
	}
}

func worldShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <world>",
		Short: "Print a world's entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			c, err := a.worlds.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("world not found: %s", args[0])
			}

			fmt.Fprintf(os.Stdout, "%s (%d entries)\n", args[0], c.Len())
			for _, e := range c.Entries() {
				var flags []string
				if e.Constant {
					flags = append(flags, "constant")
				}
				if e.Selective {
					flags = append(flags, "selective")
				}
				if e.Disable {
					flags = append(flags, "disabled")
				}
				if e.UseProbability && e.Probability != nil {
					flags = append(flags, fmt.Sprintf("%d%%", *e.Probability))
				}
				fmt.Fprintf(os.Stdout, "\n#%d %s\n", e.UID, e.Comment)
				fmt.Fprintf(os.Stdout, "  keys:     %s\n", strings.Join(e.Key, ", "))
				if len(e.KeySecondary) > 0 {
					fmt.Fprintf(os.Stdout, "  optional: %s\n", strings.Join(e.KeySecondary, ", "))
				}
				fmt.Fprintf(os.Stdout, "  order:    %d  position: %s\n", e.Order, e.Position)
				if len(flags) > 0 {
					fmt.Fprintf(os.Stdout, "  flags:    %s\n", strings.Join(flags, ", "))
				}
				fmt.Fprintf(os.Stdout, "  tokens:   %d\n", tokens.Count(e.Content))
			}
			return nil
		},
	}
}

func worldCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create an empty world",
		Long:  "Creates an empty world. Without a name the first free \"New World (n)\" is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			created, err := a.session().CreateWorld(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Created world %s\n", created)
			return nil
		},
	}
}

func worldDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <world>",
		Short: "Delete a world and forget every reference to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			s := a.session()
			defer s.Close()
			deleted, err := s.DeleteWorld(ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("world not found: %s", args[0])
			}
			if err := a.saveState(s); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Deleted world %s\n", args[0])
			return nil
		},
	}
}

func worldRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a world, keeping selections and links",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			s := a.session()
			defer s.Close()
			if err := s.RenameWorld(ctx, args[0], args[1]); err != nil {
				return err
			}
			if err := a.saveState(s); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Renamed world %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func worldSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select [names]",
		Short: "Add worlds to the global selection",
		Long: "Adds comma-separated worlds (matched case-insensitively) to the global\n" +
			"selection. Without arguments the selection is cleared.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			s := a.session()
			defer s.Close()
			notices := s.WorldCommand(ctx, strings.Join(args, " "))
			printNotices(notices)
			if err := a.saveState(s); err != nil {
				return err
			}
			if slices.ContainsFunc(notices, func(n session.Notice) bool { return n.Level == session.LevelError }) {
				return fmt.Errorf("some worlds were not found")
			}
			return nil
		},
	}
}

func worldLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <character-file> [worlds...]",
		Short: "Set the extra worlds loaded for a character",
		Long:  "Replaces the character's extra worlds. Without worlds the link is removed.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			names, err := a.worlds.List(ctx)
			if err != nil {
				return err
			}
			for _, book := range args[1:] {
				if !slices.Contains(names, book) {
					return fmt.Errorf("world not found: %s", book)
				}
			}

			s := a.session()
			defer s.Close()
			s.LinkExtraBooks(args[0], args[1:])
			if err := a.saveState(s); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Linked %d worlds to %s\n", len(args)-1, args[0])
			return nil
		},
	}
}
