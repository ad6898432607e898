package mcp

import (
	"context"
	"fmt"
	"slices"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"lorekeeper/internal/activation"
	"lorekeeper/internal/convert"
	"lorekeeper/internal/lore"
	"lorekeeper/internal/session"
	"lorekeeper/internal/worlds"
)

// defaultMaxContext is used when a caller does not say how large its
// context window is.
const defaultMaxContext = 4096

type ActivateLoreInput struct {
	Messages   []string `json:"messages" jsonschema:"chat messages, oldest first"`
	MaxContext int      `json:"max_context,omitempty" jsonschema:"context window size in tokens"`
}

type ListWorldsInput struct{}

type GetWorldInput struct {
	Name string `json:"name" jsonschema:"world name"`
}

type SelectWorldsInput struct {
	Names []string `json:"names" jsonschema:"worlds to select globally; empty clears the selection"`
}

type ImportWorldInput struct {
	Name      string `json:"name" jsonschema:"name to store the world under"`
	Data      string `json:"data" jsonschema:"lorebook JSON in any supported format"`
	Overwrite bool   `json:"overwrite,omitempty" jsonschema:"replace an existing world"`
}

type NoticeOutput struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type ActivatedOutput struct {
	World    string `json:"world"`
	UID      int    `json:"uid"`
	Comment  string `json:"comment,omitempty"`
	Position string `json:"position"`
	Order    int    `json:"order"`
	Pass     int    `json:"pass"`
}

type ActivateLoreOutput struct {
	Prompt    string            `json:"prompt"`
	Before    string            `json:"before"`
	After     string            `json:"after"`
	Activated []ActivatedOutput `json:"activated"`
	Notices   []NoticeOutput    `json:"notices,omitempty"`
}

type WorldSummaryOutput struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type ListWorldsOutput struct {
	Worlds []WorldSummaryOutput `json:"worlds"`
}

type EntryOutput struct {
	UID          int      `json:"uid"`
	Keys         []string `json:"keys"`
	Secondary    []string `json:"secondary_keys,omitempty"`
	Comment      string   `json:"comment,omitempty"`
	Content      string   `json:"content"`
	Constant     bool     `json:"constant,omitempty"`
	Selective    bool     `json:"selective,omitempty"`
	Disabled     bool     `json:"disabled,omitempty"`
	Order        int      `json:"order"`
	Position     string   `json:"position"`
	Probability  *int     `json:"probability,omitempty"`
	DisplayIndex int      `json:"display_index"`
}

type GetWorldOutput struct {
	Name    string        `json:"name"`
	Entries []EntryOutput `json:"entries"`
}

type SelectWorldsOutput struct {
	Selected []string       `json:"selected"`
	Notices  []NoticeOutput `json:"notices,omitempty"`
}

type ImportWorldOutput struct {
	Name    string `json:"name"`
	Format  string `json:"format"`
	Entries int    `json:"entries"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "activate_lore",
		Description: "Scan chat messages and return the world info that should be inserted into the prompt",
	}, s.handleActivateLore)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_worlds",
		Description: "List stored worlds and whether they are globally selected",
	}, s.handleListWorlds)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_world",
		Description: "Return every entry of a world",
	}, s.handleGetWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "select_worlds",
		Description: "Replace the globally selected worlds",
	}, s.handleSelectWorlds)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "import_world",
		Description: "Import a lorebook (native, NovelAI, Agnai, Risu or character book) as a world",
	}, s.handleImportWorld)
}

func (s *Server) handleActivateLore(ctx context.Context, req *sdk.CallToolRequest, input ActivateLoreInput) (*sdk.CallToolResult, ActivateLoreOutput, error) {
	maxContext := input.MaxContext
	if maxContext <= 0 {
		maxContext = defaultMaxContext
	}
	prompt, err := s.engine.Activate(ctx, input.Messages, maxContext)
	if err != nil {
		return nil, ActivateLoreOutput{}, err
	}

	activated := make([]ActivatedOutput, 0, len(prompt.Activated))
	for _, a := range prompt.Activated {
		activated = append(activated, activatedOutput(a))
	}
	return nil, ActivateLoreOutput{
		Prompt:    prompt.Text,
		Before:    prompt.Before,
		After:     prompt.After,
		Activated: activated,
		Notices:   noticeOutputs(prompt.Notices),
	}, nil
}

func (s *Server) handleListWorlds(ctx context.Context, req *sdk.CallToolRequest, input ListWorldsInput) (*sdk.CallToolResult, ListWorldsOutput, error) {
	names, err := s.worlds.List(ctx)
	if err != nil {
		return nil, ListWorldsOutput{}, err
	}
	selected := s.engine.State().GlobalSelect

	output := make([]WorldSummaryOutput, 0, len(names))
	for _, name := range names {
		output = append(output, WorldSummaryOutput{Name: name, Selected: slices.Contains(selected, name)})
	}
	return nil, ListWorldsOutput{Worlds: output}, nil
}

func (s *Server) handleGetWorld(ctx context.Context, req *sdk.CallToolRequest, input GetWorldInput) (*sdk.CallToolResult, GetWorldOutput, error) {
	if input.Name == "" {
		return nil, GetWorldOutput{}, fmt.Errorf("name is required")
	}
	c, err := s.worlds.Load(ctx, input.Name)
	if err != nil {
		return nil, GetWorldOutput{}, err
	}
	if c == nil {
		return nil, GetWorldOutput{}, fmt.Errorf("world not found")
	}

	entries := make([]EntryOutput, 0, c.Len())
	for _, e := range c.Entries() {
		entries = append(entries, entryOutput(e))
	}
	return nil, GetWorldOutput{Name: input.Name, Entries: entries}, nil
}

func (s *Server) handleSelectWorlds(ctx context.Context, req *sdk.CallToolRequest, input SelectWorldsInput) (*sdk.CallToolResult, SelectWorldsOutput, error) {
	notices, err := s.engine.SelectWorlds(ctx, input.Names)
	if err != nil {
		return nil, SelectWorldsOutput{}, err
	}
	selected := s.engine.State().GlobalSelect
	if selected == nil {
		selected = []string{}
	}
	return nil, SelectWorldsOutput{Selected: selected, Notices: noticeOutputs(notices)}, nil
}

func (s *Server) handleImportWorld(ctx context.Context, req *sdk.CallToolRequest, input ImportWorldInput) (*sdk.CallToolResult, ImportWorldOutput, error) {
	if input.Name == "" {
		return nil, ImportWorldOutput{}, fmt.Errorf("name is required")
	}
	if input.Data == "" {
		return nil, ImportWorldOutput{}, fmt.Errorf("data is required")
	}
	if !input.Overwrite {
		existing, err := s.worlds.Load(ctx, input.Name)
		if err != nil {
			return nil, ImportWorldOutput{}, err
		}
		if existing != nil {
			return nil, ImportWorldOutput{}, fmt.Errorf("%w: %s", worlds.ErrExists, input.Name)
		}
	}

	c, format, err := convert.Import([]byte(input.Data))
	if err != nil {
		return nil, ImportWorldOutput{}, err
	}
	if err := s.worlds.Save(ctx, input.Name, c, true); err != nil {
		return nil, ImportWorldOutput{}, err
	}
	return nil, ImportWorldOutput{Name: input.Name, Format: format.String(), Entries: c.Len()}, nil
}

func activatedOutput(a activation.Activated) ActivatedOutput {
	return ActivatedOutput{
		World:    a.World,
		UID:      a.Entry.UID,
		Comment:  a.Entry.Comment,
		Position: a.Entry.Position.String(),
		Order:    a.Entry.Order,
		Pass:     a.Pass,
	}
}

func entryOutput(e *lore.Entry) EntryOutput {
	return EntryOutput{
		UID:          e.UID,
		Keys:         e.Key,
		Secondary:    e.KeySecondary,
		Comment:      e.Comment,
		Content:      e.Content,
		Constant:     e.Constant,
		Selective:    e.Selective,
		Disabled:     e.Disable,
		Order:        e.Order,
		Position:     e.Position.String(),
		Probability:  e.Probability,
		DisplayIndex: e.DisplayIndex,
	}
}

func noticeOutputs(notices []session.Notice) []NoticeOutput {
	if len(notices) == 0 {
		return nil
	}
	out := make([]NoticeOutput, 0, len(notices))
	for _, n := range notices {
		out = append(out, NoticeOutput{Level: string(n.Level), Message: n.Message})
	}
	return out
}
