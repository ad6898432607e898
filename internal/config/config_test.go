package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "tavern" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if cfg.Character.FileName != "Seraphina" {
			t.Fatalf("expected file name to default to character name, got %q", cfg.Character.FileName)
		}
		want := WorldInfo{
			Depth:             3,
			Budget:            40,
			Recursive:         true,
			MatchWholeWords:   true,
			CharacterStrategy: "global_first",
			NoteInjection:     true,
			NotePosition:      DefaultNotePosition,
			NoteDepth:         DefaultNoteDepth,
			GlobalSelect:      []string{"Eldoria", "Bestiary"},
			CharLore:          []CharLore{{Name: "Seraphina", ExtraBooks: []string{"Herbalism"}}},
		}
		if diff := cmp.Diff(want, cfg.WorldInfo); diff != "" {
			t.Fatalf("world info mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("defaults without world_info", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nstore:\n  dsn: file://./worlds\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if diff := cmp.Diff(DefaultWorldInfo(), cfg.WorldInfo); diff != "" {
			t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing project name", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nstore:\n  dsn: file://./worlds\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 2\nstore:\n  dsn: file://./worlds\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing store dsn", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unknown log level", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nstore:\n  dsn: file://./worlds\nlog:\n  level: loud\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("duplicate char lore", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nstore:\n  dsn: file://./worlds\nworld_info:\n  char_lore:\n    - name: a\n    - name: a\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestNormalizeLegacy(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want func(*WorldInfo)
	}{
		{
			name: "bare string is a selection",
			yaml: "Eldoria",
			want: func(w *WorldInfo) { w.GlobalSelect = []string{"Eldoria"} },
		},
		{
			name: "list is a selection",
			yaml: "[Eldoria, Bestiary]",
			want: func(w *WorldInfo) { w.GlobalSelect = []string{"Eldoria", "Bestiary"} },
		},
		{
			name: "numeric strategy",
			yaml: "character_strategy: 0",
			want: func(w *WorldInfo) { w.CharacterStrategy = "evenly" },
		},
		{
			name: "quoted numeric strategy",
			yaml: "character_strategy: '2'",
			want: func(w *WorldInfo) { w.CharacterStrategy = "global_first" },
		},
		{
			name: "oversized budget resets",
			yaml: "budget: 2048",
			want: func(w *WorldInfo) { w.Budget = DefaultBudget },
		},
		{
			name: "negative depth clamps",
			yaml: "depth: -3",
			want: func(w *WorldInfo) { w.Depth = 0 },
		},
		{
			name: "camel case keys",
			yaml: "globalSelect: [Eldoria]\ncharLore:\n  - name: sera\n    extraBooks: [Bestiary]",
			want: func(w *WorldInfo) {
				w.GlobalSelect = []string{"Eldoria"}
				w.CharLore = []CharLore{{Name: "sera", ExtraBooks: []string{"Bestiary"}}}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw any
			if err := yaml.Unmarshal([]byte(tt.yaml), &raw); err != nil {
				t.Fatalf("yaml: %v", err)
			}
			got, err := NormalizeLegacy(raw)
			if err != nil {
				t.Fatalf("NormalizeLegacy: %v", err)
			}
			want := DefaultWorldInfo()
			tt.want(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeLegacyErrors(t *testing.T) {
	for _, input := range []string{
		"depth: deep",
		"recursive: sometimes",
		"character_strategy: 7",
		"global_select: Eldoria",
		"char_lore: [1, 2]",
		"42",
	} {
		var raw any
		if err := yaml.Unmarshal([]byte(input), &raw); err != nil {
			t.Fatalf("yaml %q: %v", input, err)
		}
		if _, err := NormalizeLegacy(raw); err == nil {
			t.Errorf("NormalizeLegacy(%q) expected error", input)
		}
	}
}

func TestTemplateLoads(t *testing.T) {
	path := writeTempConfig(t, Template("tavern"))
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if cfg.Project != "tavern" || !strings.HasPrefix(cfg.Store.DSN, "sqlite://") {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestSaveProjectConfig(t *testing.T) {
	cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.WorldInfo.GlobalSelect = []string{"Vel"}
	cfg.Character.World = "Seraphina's Lorebook"

	path := filepath.Join(t.TempDir(), "lorekeeper.yaml")
	if err := SaveProjectConfig(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(cfg, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	cfg.Version = 2
	if err := SaveProjectConfig(path, cfg); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lorekeeper.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
