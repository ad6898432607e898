// Package selection gathers the candidate entries for a scan from the
// globally selected worlds and the active character's worlds.
package selection

import (
	"context"
	"slices"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lorekeeper/internal/lore"
)

type Loader interface {
	Load(ctx context.Context, name string) (*lore.Collection, error)
}

type Candidate struct {
	World string
	Entry *lore.Entry
}

type Selector struct {
	loader Loader
	state  State
	logger *zap.Logger
}

func New(loader Loader, state State, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{loader: loader, state: state, logger: logger}
}

func (s *Selector) GlobalLore(ctx context.Context) ([]Candidate, error) {
	candidates, err := s.load(ctx, dedupe(s.state.GlobalSelect, nil))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("global lore loaded", zap.Int("entries", len(candidates)))
	return candidates, nil
}

// CharacterLore loads the character's own world plus its extra worlds,
// skipping any already selected globally. Without an own world the
// character contributes nothing.
func (s *Selector) CharacterLore(ctx context.Context) ([]Candidate, error) {
	ch := s.state.Character
	if ch == nil || ch.World == "" {
		s.logger.Debug("character has no world, skipping character lore")
		return nil, nil
	}

	names := append([]string{ch.World}, s.state.ExtraBooks(ch.FileName)...)
	names = dedupe(names, s.state.GlobalSelect)

	candidates, err := s.load(ctx, names)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("character lore loaded",
		zap.String("character", ch.Name),
		zap.String("world", ch.World),
		zap.Int("entries", len(candidates)))
	return candidates, nil
}

// SortedEntries returns every candidate ordered for scanning according to
// the strategy. Ties on order keep load order.
func (s *Selector) SortedEntries(ctx context.Context) ([]Candidate, error) {
	global, err := s.GlobalLore(ctx)
	if err != nil {
		return nil, err
	}
	character, err := s.CharacterLore(ctx)
	if err != nil {
		return nil, err
	}

	var entries []Candidate
	switch s.state.Strategy {
	case Evenly:
		entries = sortByOrder(slices.Concat(global, character))
	case CharacterFirst:
		entries = slices.Concat(sortByOrder(character), sortByOrder(global))
	case GlobalFirst:
		entries = slices.Concat(sortByOrder(global), sortByOrder(character))
	default:
		s.logger.Warn("unknown insertion strategy, defaulting to evenly", zap.Int("strategy", int(s.state.Strategy)))
		entries = sortByOrder(slices.Concat(global, character))
	}

	s.logger.Debug("sorted world entries",
		zap.Int("entries", len(entries)),
		zap.Stringer("strategy", s.state.Strategy))
	return entries, nil
}

// load reads the worlds concurrently and concatenates them in names order.
// Missing worlds contribute nothing.
func (s *Selector) load(ctx context.Context, names []string) ([]Candidate, error) {
	loaded := make([]*lore.Collection, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			c, err := s.loader.Load(gctx, name)
			if err != nil {
				return err
			}
			loaded[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Candidate
	for i, c := range loaded {
		if c == nil {
			continue
		}
		for _, e := range c.Entries() {
			out = append(out, Candidate{World: names[i], Entry: e})
		}
	}
	return out, nil
}

func sortByOrder(entries []Candidate) []Candidate {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Entry.Order > entries[j].Entry.Order
	})
	return entries
}

// dedupe drops empty and repeated names and any name in skip.
func dedupe(names, skip []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || slices.Contains(out, name) || slices.Contains(skip, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
