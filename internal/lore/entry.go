package lore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

type Position int

const (
	PositionBefore Position = iota
	PositionAfter
	PositionNoteTop
	PositionNoteBottom
)

var ErrInvalidEntry = errors.New("entry is not a JSON object")

var positionNames = map[Position]string{
	PositionBefore:     "before",
	PositionAfter:      "after",
	PositionNoteTop:    "note_top",
	PositionNoteBottom: "note_bottom",
}

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("position(%d)", int(p))
}

func (p Position) Valid() bool {
	_, ok := positionNames[p]
	return ok
}

// ParsePosition accepts the position names used in config and frontmatter
// ("before", "after", "note_top", "note_bottom") and a few common aliases.
func ParsePosition(value string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "before", "before_char":
		return PositionBefore, nil
	case "after", "after_char":
		return PositionAfter, nil
	case "note_top", "an_top", "antop":
		return PositionNoteTop, nil
	case "note_bottom", "an_bottom", "anbottom":
		return PositionNoteBottom, nil
	default:
		return PositionBefore, fmt.Errorf("unknown position: %s", value)
	}
}

// Entry is one lore item. The JSON form matches the native world file format.
type Entry struct {
	UID              int      `json:"uid"`
	Key              []string `json:"key"`
	KeySecondary     []string `json:"keysecondary"`
	Comment          string   `json:"comment"`
	Content          string   `json:"content"`
	Constant         bool     `json:"constant"`
	Selective        bool     `json:"selective"`
	Order            int      `json:"order"`
	Position         Position `json:"position"`
	Disable          bool     `json:"disable"`
	AddMemo          bool     `json:"addMemo"`
	ExcludeRecursion bool     `json:"excludeRecursion"`
	Probability      *int     `json:"probability"`
	UseProbability   bool     `json:"useProbability"`
	DisplayIndex     int      `json:"displayIndex"`
}

const DefaultOrder = 100

func NewEntry(uid int) *Entry {
	return &Entry{
		UID:          uid,
		Key:          []string{},
		KeySecondary: []string{},
		Order:        DefaultOrder,
		Position:     PositionBefore,
		DisplayIndex: uid,
	}
}

func IntPtr(v int) *int {
	return &v
}

type entryAlias Entry

func (e Entry) MarshalJSON() ([]byte, error) {
	alias := entryAlias(e)
	if alias.Key == nil {
		alias.Key = []string{}
	}
	if alias.KeySecondary == nil {
		alias.KeySecondary = []string{}
	}
	return json.Marshal(alias)
}

// UnmarshalJSON never fails on wrong-typed or missing fields; they take
// their zero value instead. Only a payload that is not an object is rejected.
func (e *Entry) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("decoding entry: %w", ErrInvalidEntry)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("decoding entry: %w", ErrInvalidEntry)
	}

	*e = Entry{
		UID:              int(root.Get("uid").Int()),
		Key:              StringList(root.Get("key")),
		KeySecondary:     StringList(root.Get("keysecondary")),
		Comment:          root.Get("comment").String(),
		Content:          root.Get("content").String(),
		Constant:         root.Get("constant").Bool(),
		Selective:        root.Get("selective").Bool(),
		Order:            int(root.Get("order").Int()),
		Position:         Position(root.Get("position").Int()),
		Disable:          root.Get("disable").Bool(),
		AddMemo:          root.Get("addMemo").Bool(),
		ExcludeRecursion: root.Get("excludeRecursion").Bool(),
		UseProbability:   root.Get("useProbability").Bool(),
		DisplayIndex:     int(root.Get("displayIndex").Int()),
	}
	if probability := root.Get("probability"); probability.Type == gjson.Number {
		e.Probability = IntPtr(int(probability.Int()))
	}
	return nil
}

// StringList reads a JSON array of strings. A bare string becomes a single
// element list; anything else is an empty list.
func StringList(value gjson.Result) []string {
	out := []string{}
	switch {
	case value.IsArray():
		for _, item := range value.Array() {
			if item.Type == gjson.Null {
				continue
			}
			out = append(out, item.String())
		}
	case value.Type == gjson.String:
		if value.Str != "" {
			out = append(out, value.Str)
		}
	}
	return out
}
