package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDepth        = 2
	DefaultBudget       = 25
	DefaultStrategy     = "character_first"
	DefaultNotePosition = 1
	DefaultNoteDepth    = 4
)

type WorldInfo struct {
	Depth             int        `yaml:"depth"`
	Budget            int        `yaml:"budget"`
	Recursive         bool       `yaml:"recursive"`
	CaseSensitive     bool       `yaml:"case_sensitive"`
	MatchWholeWords   bool       `yaml:"match_whole_words"`
	CharacterStrategy string     `yaml:"character_strategy"`
	NoteInjection     bool       `yaml:"note_injection"`
	NotePosition      int        `yaml:"note_position"`
	NoteDepth         int        `yaml:"note_depth"`
	GlobalSelect      []string   `yaml:"global_select"`
	CharLore          []CharLore `yaml:"char_lore"`
}

type CharLore struct {
	Name       string   `yaml:"name"`
	ExtraBooks []string `yaml:"extra_books"`
}

func DefaultWorldInfo() WorldInfo {
	return WorldInfo{
		Depth:             DefaultDepth,
		Budget:            DefaultBudget,
		CharacterStrategy: DefaultStrategy,
		NotePosition:      DefaultNotePosition,
		NoteDepth:         DefaultNoteDepth,
	}
}

func (w *WorldInfo) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	normalized, err := NormalizeLegacy(raw)
	if err != nil {
		return err
	}
	*w = normalized
	return nil
}

// NormalizeLegacy turns any historical shape of the world_info setting into
// the current one. A bare string or list is an old-style world selection.
// Numeric strategies become names, a budget above 100 resets to the default
// and a negative depth becomes zero.
func NormalizeLegacy(raw any) (WorldInfo, error) {
	wi := DefaultWorldInfo()

	switch v := raw.(type) {
	case nil:
		return wi, nil
	case string:
		if strings.TrimSpace(v) != "" {
			wi.GlobalSelect = []string{v}
		}
		return wi, nil
	case []any:
		names, err := stringList("world_info", v)
		if err != nil {
			return wi, err
		}
		wi.GlobalSelect = names
		return wi, nil
	case map[string]any:
		if err := wi.apply(v); err != nil {
			return wi, err
		}
	default:
		return wi, fmt.Errorf("world_info must be a mapping, got %T", raw)
	}

	if wi.Budget > 100 {
		wi.Budget = DefaultBudget
	}
	if wi.Depth < 0 {
		wi.Depth = 0
	}
	return wi, nil
}

func (w *WorldInfo) apply(m map[string]any) error {
	var err error
	if w.Depth, err = intValue(m, w.Depth, "depth"); err != nil {
		return err
	}
	if w.Budget, err = intValue(m, w.Budget, "budget"); err != nil {
		return err
	}
	if w.Recursive, err = boolValue(m, w.Recursive, "recursive"); err != nil {
		return err
	}
	if w.CaseSensitive, err = boolValue(m, w.CaseSensitive, "case_sensitive"); err != nil {
		return err
	}
	if w.MatchWholeWords, err = boolValue(m, w.MatchWholeWords, "match_whole_words"); err != nil {
		return err
	}
	if w.NoteInjection, err = boolValue(m, w.NoteInjection, "note_injection"); err != nil {
		return err
	}
	if w.NotePosition, err = intValue(m, w.NotePosition, "note_position"); err != nil {
		return err
	}
	if w.NoteDepth, err = intValue(m, w.NoteDepth, "note_depth"); err != nil {
		return err
	}

	if value, ok := lookup(m, "character_strategy"); ok {
		if w.CharacterStrategy, err = strategyName(value); err != nil {
			return err
		}
	}
	if value, ok := lookup(m, "global_select", "globalSelect"); ok {
		items, _ := value.([]any)
		if value != nil && items == nil {
			return fmt.Errorf("global_select must be a list")
		}
		if w.GlobalSelect, err = stringList("global_select", items); err != nil {
			return err
		}
	}
	if value, ok := lookup(m, "char_lore", "charLore"); ok {
		if w.CharLore, err = charLore(value); err != nil {
			return err
		}
	}
	return nil
}

var strategyNames = []string{"evenly", "character_first", "global_first"}

func strategyName(value any) (string, error) {
	switch v := value.(type) {
	case int:
		if v >= 0 && v < len(strategyNames) {
			return strategyNames[v], nil
		}
		return "", fmt.Errorf("unknown character_strategy: %d", v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return strategyName(n)
		}
		return strings.ToLower(strings.TrimSpace(v)), nil
	case nil:
		return DefaultStrategy, nil
	default:
		return "", fmt.Errorf("character_strategy must be a name or number")
	}
}

func charLore(value any) ([]CharLore, error) {
	if value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("char_lore must be a list")
	}
	out := make([]CharLore, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("char_lore %d must be a mapping", i)
		}
		name, _ := m["name"].(string)
		books, _ := lookup(m, "extra_books", "extraBooks")
		list, _ := books.([]any)
		extra, err := stringList(fmt.Sprintf("char_lore %d extra_books", i), list)
		if err != nil {
			return nil, err
		}
		out = append(out, CharLore{Name: name, ExtraBooks: extra})
	}
	return out, nil
}

func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := m[key]; ok {
			return value, true
		}
	}
	return nil, false
}

func intValue(m map[string]any, fallback int, key string) (int, error) {
	value, ok := m[key]
	if !ok || value == nil {
		return fallback, nil
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

func boolValue(m map[string]any, fallback bool, key string) (bool, error) {
	value, ok := m[key]
	if !ok || value == nil {
		return fallback, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be true or false", key)
	}
	return b, nil
}

func stringList(field string, items []any) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be strings", field)
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
