package session

import (
	"go.uber.org/zap"

	"lorekeeper/internal/activation"
	"lorekeeper/internal/config"
	"lorekeeper/internal/macro"
	"lorekeeper/internal/selection"
)

// ConfigFrom maps the project config onto session settings. An unknown
// character strategy falls back to evenly and is reported as a warning.
func ConfigFrom(cfg *config.ProjectConfig) (Config, []Notice) {
	wi := cfg.WorldInfo
	var notices []Notice

	strategy, err := selection.ParseStrategy(wi.CharacterStrategy)
	if err != nil {
		notices = append(notices, Notice{Level: LevelWarn, Message: err.Error() + ", using evenly"})
	}

	state := selection.State{
		GlobalSelect: append([]string(nil), wi.GlobalSelect...),
		Strategy:     strategy,
	}
	for _, link := range wi.CharLore {
		state.SetExtraBooks(link.Name, link.ExtraBooks)
	}
	if cfg.Character.Name != "" || cfg.Character.World != "" {
		state.Character = &selection.Character{
			Name:     cfg.Character.Name,
			FileName: cfg.Character.FileName,
			World:    cfg.Character.World,
		}
	}

	return Config{
		Settings: activation.Settings{
			Depth:           wi.Depth,
			BudgetPercent:   wi.Budget,
			Recursive:       wi.Recursive,
			CaseSensitive:   wi.CaseSensitive,
			MatchWholeWords: wi.MatchWholeWords,
		},
		State:         state,
		NoteInjection: wi.NoteInjection,
		NotePosition:  wi.NotePosition,
		NoteDepth:     wi.NoteDepth,
	}, notices
}

// NewFromConfig builds a session for the configured character. Macros in
// lore text expand to the configured user and character names.
func NewFromConfig(store Store, cfg *config.ProjectConfig, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	sc, notices := ConfigFrom(cfg)
	for _, n := range notices {
		logger.Warn(n.Message)
	}

	sub := macro.Substituter{User: cfg.Character.User, Char: cfg.Character.Name}
	base := []Option{
		WithLogger(logger),
		WithEngineOptions(activation.WithSubstituter(sub)),
	}
	return New(store, sc, append(base, opts...)...)
}
