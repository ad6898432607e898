// Package session owns the world info state of one chat: settings, world
// selection and the character binding. Activations on a session never
// interleave.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"lorekeeper/internal/activation"
	"lorekeeper/internal/convert"
	"lorekeeper/internal/insertion"
	"lorekeeper/internal/lore"
	"lorekeeper/internal/selection"
	"lorekeeper/internal/worlds"
)

// NoteKey names the author's note slot world info is injected into.
const NoteKey = "authors_note"

// NoteSink is the prompt slot holding the author's note. Note returns the
// author's own text for the current generation.
type NoteSink interface {
	Note(key string) string
	SetNote(key, text string, position, depth int)
}

type Store interface {
	selection.Loader
	Save(ctx context.Context, name string, c *lore.Collection, immediate bool) error
	Delete(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string) (*lore.Collection, error)
	Rename(ctx context.Context, oldName, newName string) error
	List(ctx context.Context) ([]string, error)
	OnDelete(fn func(name string)) func()
	OnRename(fn func(oldName, newName string)) func()
}

var _ Store = (*worlds.Store)(nil)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warning"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level
	Message string
}

type Prompt struct {
	Text      string
	Before    string
	After     string
	Activated []activation.Activated
	Notices   []Notice
}

type Config struct {
	Settings      activation.Settings
	State         selection.State
	NoteInjection bool
	NotePosition  int
	NoteDepth     int
}

type Session struct {
	store  Store
	engine *activation.Engine
	sink   NoteSink
	logger *zap.Logger

	noteInjection bool
	notePosition  int
	noteDepth     int

	run     sync.Mutex
	stateMu sync.Mutex
	state   selection.State

	detach []func()
}

type Option func(*sessionOptions)

type sessionOptions struct {
	sink       NoteSink
	logger     *zap.Logger
	engineOpts []activation.Option
}

func WithNoteSink(sink NoteSink) Option {
	return func(o *sessionOptions) { o.sink = sink }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *sessionOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEngineOptions passes options through to the activation engine.
func WithEngineOptions(opts ...activation.Option) Option {
	return func(o *sessionOptions) { o.engineOpts = append(o.engineOpts, opts...) }
}

func New(store Store, cfg Config, opts ...Option) *Session {
	o := sessionOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		store:         store,
		engine:        activation.New(cfg.Settings, append([]activation.Option{activation.WithLogger(o.logger)}, o.engineOpts...)...),
		sink:          o.sink,
		logger:        o.logger,
		noteInjection: cfg.NoteInjection,
		notePosition:  cfg.NotePosition,
		noteDepth:     cfg.NoteDepth,
		state:         cfg.State.Clone(),
	}
	s.detach = []func(){
		store.OnDelete(s.forgetWorld),
		store.OnRename(s.followRename),
	}
	return s
}

// Close stops the session from following world deletes and renames. The
// store stays open.
func (s *Session) Close() {
	s.stateMu.Lock()
	detach := s.detach
	s.detach = nil
	s.stateMu.Unlock()
	for _, fn := range detach {
		fn()
	}
}

// State returns a copy of the current selection state.
func (s *Session) State() selection.State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state.Clone()
}

func (s *Session) Settings() activation.Settings {
	return s.engine.Settings()
}

func (s *Session) update(fn func(*selection.State)) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	fn(&s.state)
}

// Activate scans chat (oldest message first) and returns the world info
// blocks for the prompt. Load failures degrade to an empty prompt with a
// notice; only cancellation is returned as an error.
func (s *Session) Activate(ctx context.Context, chat []string, maxContext int) (Prompt, error) {
	if err := ctx.Err(); err != nil {
		return Prompt{}, err
	}
	s.run.Lock()
	defer s.run.Unlock()

	state := s.State()
	if len(state.GlobalSelect) == 0 && (state.Character == nil || state.Character.World == "") {
		return Prompt{Notices: []Notice{{Level: LevelInfo, Message: "No world info is selected"}}}, nil
	}

	candidates, err := selection.New(s.store, state, s.logger).SortedEntries(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Prompt{}, ctxErr
		}
		s.logger.Warn("loading world info failed", zap.Error(err))
		return Prompt{Notices: []Notice{{Level: LevelError, Message: fmt.Sprintf("Could not load world info: %v", err)}}}, nil
	}
	if len(candidates) == 0 {
		return Prompt{}, nil
	}

	res := s.engine.Run(chat, maxContext, candidates)
	blocks := insertion.Assemble(res.Activated)

	if s.noteInjection && s.sink != nil {
		s.sink.SetNote(NoteKey, blocks.WrapNote(s.sink.Note(NoteKey)), s.notePosition, s.noteDepth)
	}

	s.logger.Debug("world info activated",
		zap.Int("candidates", len(candidates)),
		zap.Int("activated", len(res.Activated)),
		zap.Int("passes", res.Passes),
		zap.Int("tokens", res.TokensUsed),
		zap.Bool("budget_reached", res.BudgetReached),
		zap.Bool("note", blocks.HasNote()))

	return Prompt{
		Text:      blocks.Before + blocks.After,
		Before:    blocks.Before,
		After:     blocks.After,
		Activated: res.Activated,
	}, nil
}

func (s *Session) forgetWorld(name string) {
	s.update(func(st *selection.State) { st.RemoveWorld(name) })
}

func (s *Session) followRename(oldName, newName string) {
	s.update(func(st *selection.State) { st.RenameWorld(oldName, newName) })
}

// WorldCommand handles "/world a, b": each comma-separated name is matched
// case-insensitively against the stored worlds and added to the selection.
// Without arguments the selection is cleared.
func (s *Session) WorldCommand(ctx context.Context, args string) []Notice {
	args = strings.TrimSpace(args)
	if args == "" {
		s.update(func(st *selection.State) { st.ClearSelection() })
		return []Notice{{Level: LevelSuccess, Message: "Deactivated all worlds"}}
	}

	names, err := s.store.List(ctx)
	if err != nil {
		return []Notice{{Level: LevelError, Message: fmt.Sprintf("Could not list worlds: %v", err)}}
	}

	var notices []Notice
	for _, part := range strings.Split(args, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, ok := findWorld(names, part)
		if !ok {
			notices = append(notices, Notice{Level: LevelError, Message: "No world found named: " + strings.ToLower(part)})
			continue
		}
		s.update(func(st *selection.State) { st.Select(name) })
		notices = append(notices, Notice{Level: LevelSuccess, Message: "Activated world: " + name})
	}
	return notices
}

// SelectWorlds replaces the global selection. Names that are not stored are
// left out and reported.
func (s *Session) SelectWorlds(ctx context.Context, selected []string) ([]Notice, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing worlds: %w", err)
	}

	var notices []Notice
	var keep []string
	for _, want := range selected {
		name, ok := findWorld(names, want)
		if !ok {
			notices = append(notices, Notice{Level: LevelError, Message: fmt.Sprintf("The world %s is invalid or missing", want)})
			continue
		}
		keep = append(keep, name)
	}
	s.update(func(st *selection.State) {
		st.ClearSelection()
		for _, name := range keep {
			st.Select(name)
		}
	})
	return notices, nil
}

func (s *Session) LinkExtraBooks(fileName string, books []string) {
	s.update(func(st *selection.State) { st.SetExtraBooks(fileName, books) })
}

func (s *Session) SetCharacter(ch *selection.Character) {
	s.update(func(st *selection.State) {
		if ch == nil {
			st.Character = nil
			return
		}
		c := *ch
		st.Character = &c
	})
}

// ImportEmbedded stores a character card's lorebook as a world and binds it
// to the character. The world is named after the book, or after the
// character when the book has no name. An existing world of that name is
// overwritten.
func (s *Session) ImportEmbedded(ctx context.Context, character selection.Character, book []byte) (string, error) {
	c, err := convert.Parse(convert.FormatCharacterBook, book)
	if err != nil {
		return "", fmt.Errorf("reading embedded lorebook: %w", err)
	}

	name := embeddedBookName(book)
	if name == "" {
		name = character.Name + "'s Lorebook"
	}
	if err := s.store.Save(ctx, name, c, true); err != nil {
		return "", err
	}

	character.World = name
	s.SetCharacter(&character)
	s.logger.Info("embedded lorebook imported", zap.String("world", name), zap.String("character", character.Name))
	return name, nil
}

func embeddedBookName(book []byte) string {
	root := gjson.ParseBytes(book)
	if card := root.Get("data.character_book"); card.IsObject() {
		root = card
	}
	return strings.TrimSpace(root.Get("name").String())
}

// CreateWorld creates an empty world. Without a name the first free
// "New World (n)" is used.
func (s *Session) CreateWorld(ctx context.Context, name string) (string, error) {
	if name == "" {
		names, err := s.store.List(ctx)
		if err != nil {
			return "", fmt.Errorf("listing worlds: %w", err)
		}
		if name, err = lore.FreeWorldName(names); err != nil {
			return "", err
		}
	}
	if _, err := s.store.Create(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Session) RenameWorld(ctx context.Context, oldName, newName string) error {
	return s.store.Rename(ctx, oldName, newName)
}

func (s *Session) DeleteWorld(ctx context.Context, name string) (bool, error) {
	return s.store.Delete(ctx, name)
}

func findWorld(names []string, want string) (string, bool) {
	for _, name := range names {
		if name == want {
			return name, true
		}
	}
	for _, name := range names {
		if strings.EqualFold(name, want) {
			return name, true
		}
	}
	return "", false
}
