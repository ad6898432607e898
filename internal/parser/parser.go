package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one markdown lore file: YAML frontmatter describing the entry
// and a body holding its content.
type Document struct {
	Frontmatter   map[string]any
	Title         string
	Keys          []string
	SecondaryKeys []string
	Body          string
	SourceFile    string
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle  = errors.New("frontmatter missing required 'title' field")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	trimmed = bytes.ReplaceAll(trimmed, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	yamlBytes, body, ok := splitFrontmatter(rest)
	if !ok {
		return nil, ErrNoFrontmatter
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	title, ok := frontmatter["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, ErrMissingTitle
	}

	keys, err := parseStringList("keys", frontmatter["keys"])
	if err != nil {
		return nil, err
	}
	secondary, err := parseStringList("secondary_keys", frontmatter["secondary_keys"])
	if err != nil {
		return nil, err
	}

	return &Document{
		Frontmatter:   frontmatter,
		Title:         title,
		Keys:          keys,
		SecondaryKeys: secondary,
		Body:          strings.TrimSpace(string(body)),
	}, nil
}

// splitFrontmatter finds the closing marker, which must sit on its own line.
func splitFrontmatter(rest []byte) (yamlBytes, body []byte, ok bool) {
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return nil, rest[len("---\n"):], true
	}
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			return rest[:len(rest)-len("---")], nil, true
		}
		return nil, nil, false
	}
	return rest[:end+1], rest[end+len("\n---\n"):], true
}

func parseStringList(field string, value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			var s string
			switch x := item.(type) {
			case string:
				s = x
			case int, float64, bool:
				s = fmt.Sprint(x)
			default:
				return nil, fmt.Errorf("%s must be strings", field)
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			items = append(items, s)
		}
		if len(items) == 0 {
			return nil, nil
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%s must be string or list of strings", field)
	}
}
