package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "lorekeeper.yaml"

type ProjectConfig struct {
	Project   string          `yaml:"project"`
	Version   int             `yaml:"version"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Character CharacterConfig `yaml:"character"`
	WorldInfo WorldInfo       `yaml:"world_info"`
}

type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type CharacterConfig struct {
	Name     string `yaml:"name"`
	FileName string `yaml:"file_name"`
	World    string `yaml:"world"`
	User     string `yaml:"user"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg, err := ParseProjectConfig(data)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	return cfg, nil
}

func ParseProjectConfig(data []byte) (*ProjectConfig, error) {
	cfg := ProjectConfig{WorldInfo: DefaultWorldInfo()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Character.FileName == "" {
		cfg.Character.FileName = cfg.Character.Name
	}
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveProjectConfig writes cfg to path. Comments in an existing file are
// not preserved.
func SaveProjectConfig(path string, cfg *ProjectConfig) error {
	if err := validateProjectConfig(cfg); err != nil {
		return fmt.Errorf("saving project config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Store.DSN) == "" {
		return fmt.Errorf("store dsn is required")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", cfg.Log.Level)
	}

	wi := cfg.WorldInfo
	if wi.Budget < 0 {
		return fmt.Errorf("world_info budget must be between 0 and 100")
	}
	seen := make(map[string]struct{})
	for i, link := range wi.CharLore {
		if strings.TrimSpace(link.Name) == "" {
			return fmt.Errorf("char_lore %d name is required", i)
		}
		if _, exists := seen[link.Name]; exists {
			return fmt.Errorf("duplicate char_lore name: %s", link.Name)
		}
		seen[link.Name] = struct{}{}
	}
	return nil
}

// Template is the config written by init.
func Template(project string) string {
	return fmt.Sprintf(`project: %s
version: 1

store:
  dsn: sqlite://./lorekeeper.db

log:
  level: info

character:
  name: ""
  file_name: ""
  world: ""
  user: User

world_info:
  depth: %d
  budget: %d
  recursive: false
  case_sensitive: false
  match_whole_words: false
  character_strategy: %s
  note_injection: false
  note_position: %d
  note_depth: %d
  global_select: []
  char_lore: []
`, project, DefaultDepth, DefaultBudget, DefaultStrategy, DefaultNotePosition, DefaultNoteDepth)
}
