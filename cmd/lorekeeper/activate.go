package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lorekeeper/internal/session"
)

func activateCmd() *cobra.Command {
	var messages []string
	var chatFile string
	var maxContext int
	var worlds []string
	var note string
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Show the world info a chat would activate",
		Long: "Scans the chat (oldest message first) against the selected worlds and prints\n" +
			"the text inserted before and after the character definition.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chat := messages
			if chatFile != "" {
				lines, err := readChat(chatFile)
				if err != nil {
					return err
				}
				chat = append(lines, chat...)
			}
			if len(chat) == 0 {
				return fmt.Errorf("no chat messages given, use --message or --chat")
			}
			return runActivate(chat, maxContext, worlds, note)
		},
	}
	cmd.Flags().StringArrayVarP(&messages, "message", "m", nil, "Chat message (repeatable, oldest first)")
	cmd.Flags().StringVar(&chatFile, "chat", "", "File with one chat message per line")
	cmd.Flags().IntVar(&maxContext, "max-context", 4096, "Context window size in tokens")
	cmd.Flags().StringSliceVar(&worlds, "world", nil, "Worlds to select instead of the configured ones")
	cmd.Flags().StringVar(&note, "note", "", "Author's note to inject into (needs world_info.note_injection)")
	return cmd
}

// noteCapture holds the author's note for one activation so it can be
// printed.
type noteCapture struct {
	original string
	text     string
	position int
	depth    int
	set      bool
}

func (n *noteCapture) Note(key string) string {
	return n.original
}

func (n *noteCapture) SetNote(key, text string, position, depth int) {
	n.text, n.position, n.depth, n.set = text, position, depth, true
}

func runActivate(chat []string, maxContext int, worlds []string, note string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	sink := &noteCapture{original: note}
	s := a.session(session.WithNoteSink(sink))
	if len(worlds) > 0 {
		notices, err := s.SelectWorlds(ctx, worlds)
		if err != nil {
			return err
		}
		printNotices(notices)
	}

	prompt, err := s.Activate(ctx, chat, maxContext)
	if err != nil {
		return err
	}
	printNotices(prompt.Notices)
	printPrompt(prompt)
	if sink.set {
		fmt.Fprintf(os.Stdout, "\nAuthor's note (position %d, depth %d):\n%s\n", sink.position, sink.depth, sink.text)
	}
	return nil
}

func printPrompt(prompt session.Prompt) {
	if len(prompt.Activated) == 0 {
		fmt.Fprintln(os.Stdout, "No entries activated.")
		return
	}
	fmt.Fprintf(os.Stdout, "Activated entries (%d):\n", len(prompt.Activated))
	for _, act := range prompt.Activated {
		label := act.Entry.Comment
		if label == "" {
			label = strings.Join(act.Entry.Key, ", ")
		}
		fmt.Fprintf(os.Stdout, "  - %s #%d %s [%s, order %d, pass %d]\n",
			act.World, act.Entry.UID, label, act.Entry.Position, act.Entry.Order, act.Pass)
	}
	if prompt.Before != "" {
		fmt.Fprintf(os.Stdout, "\nBefore:\n%s", prompt.Before)
	}
	if prompt.After != "" {
		fmt.Fprintf(os.Stdout, "\nAfter:\n%s", prompt.After)
	}
}

func readChat(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chat: %w", err)
	}
	var chat []string
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			chat = append(chat, line)
		}
	}
	return chat, nil
}
