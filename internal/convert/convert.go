// Package convert imports lorebooks written by other frontends into the
// native world format and exports worlds as character books.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"lorekeeper/internal/lore"
)

type Format int

const (
	FormatNative Format = iota
	FormatNovel
	FormatAgnai
	FormatRisu
	FormatCharacterBook
)

var (
	ErrInvalidJSON   = errors.New("invalid JSON")
	ErrUnknownFormat = errors.New("unknown lorebook format")
)

func (f Format) String() string {
	switch f {
	case FormatNative:
		return "native"
	case FormatNovel:
		return "novel"
	case FormatAgnai:
		return "agnai"
	case FormatRisu:
		return "risu"
	case FormatCharacterBook:
		return "character_book"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Detect sniffs which lorebook dialect data is written in.
func Detect(data []byte) (Format, error) {
	if !gjson.ValidBytes(data) {
		return 0, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return 0, fmt.Errorf("%w: top level is not an object", ErrUnknownFormat)
	}

	switch {
	case root.Get("lorebookVersion").Exists():
		return FormatNovel, nil
	case root.Get("kind").String() == "memory":
		return FormatAgnai, nil
	case root.Get("type").String() == "risu":
		return FormatRisu, nil
	case root.Get("data.character_book").IsObject():
		return FormatCharacterBook, nil
	}

	entries := root.Get("entries")
	switch {
	case entries.IsObject():
		return FormatNative, nil
	case entries.IsArray() && looksLikeCharacterBook(entries):
		return FormatCharacterBook, nil
	}
	return 0, ErrUnknownFormat
}

func looksLikeCharacterBook(entries gjson.Result) bool {
	items := entries.Array()
	if len(items) == 0 {
		return true
	}
	for _, item := range items {
		if !item.Get("keys").IsArray() {
			return false
		}
	}
	return true
}

// Parse decodes data as format. Missing or wrong-typed fields take their
// defaults; only malformed JSON is an error.
func Parse(format Format, data []byte) (*lore.Collection, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)

	switch format {
	case FormatNative:
		c := lore.NewCollection()
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parsing native world: %w", err)
		}
		return c, nil
	case FormatNovel:
		return FromNovel(decodeNovel(root)), nil
	case FormatAgnai:
		return FromAgnai(decodeAgnai(root)), nil
	case FormatRisu:
		return FromRisu(decodeRisu(root)), nil
	case FormatCharacterBook:
		if card := root.Get("data.character_book"); card.IsObject() {
			root = card
		}
		return FromCharacterBook(DecodeCharacterBook(root), []byte(root.Raw))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Import detects the format of data and converts it.
func Import(data []byte) (*lore.Collection, Format, error) {
	format, err := Detect(data)
	if err != nil {
		return nil, 0, err
	}
	c, err := Parse(format, data)
	if err != nil {
		return nil, format, err
	}
	return c, format, nil
}

func optInt(value gjson.Result) *int {
	if value.Type != gjson.Number {
		return nil
	}
	return lore.IntPtr(int(value.Int()))
}
