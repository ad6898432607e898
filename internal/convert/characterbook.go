package convert

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"lorekeeper/internal/lore"
)

// CharacterBook is the lorebook embedded in character cards.
type CharacterBook struct {
	Name    string               `json:"name,omitempty"`
	Entries []CharacterBookEntry `json:"entries"`
}

type CharacterBookEntry struct {
	ID             *int                    `json:"id,omitempty"`
	Keys           []string                `json:"keys"`
	SecondaryKeys  []string                `json:"secondary_keys"`
	Comment        string                  `json:"comment"`
	Content        string                  `json:"content"`
	Constant       bool                    `json:"constant"`
	Selective      bool                    `json:"selective"`
	InsertionOrder int                     `json:"insertion_order"`
	Enabled        bool                    `json:"enabled"`
	Position       string                  `json:"position"`
	Extensions     CharacterBookExtensions `json:"extensions"`
}

type CharacterBookExtensions struct {
	Position         *int `json:"position,omitempty"`
	ExcludeRecursion bool `json:"exclude_recursion"`
	DisplayIndex     *int `json:"display_index,omitempty"`
	Probability      *int `json:"probability"`
	UseProbability   bool `json:"useProbability"`
}

const (
	bookBeforeChar = "before_char"
	bookAfterChar  = "after_char"
)

// DecodeCharacterBook reads a character book object, tolerating missing and
// wrong-typed fields.
func DecodeCharacterBook(root gjson.Result) CharacterBook {
	book := CharacterBook{Name: root.Get("name").String()}
	for _, item := range root.Get("entries").Array() {
		ext := item.Get("extensions")
		book.Entries = append(book.Entries, CharacterBookEntry{
			ID:             optInt(item.Get("id")),
			Keys:           lore.StringList(item.Get("keys")),
			SecondaryKeys:  lore.StringList(item.Get("secondary_keys")),
			Comment:        item.Get("comment").String(),
			Content:        item.Get("content").String(),
			Constant:       item.Get("constant").Bool(),
			Selective:      item.Get("selective").Bool(),
			InsertionOrder: int(item.Get("insertion_order").Int()),
			Enabled:        item.Get("enabled").Bool(),
			Position:       item.Get("position").String(),
			Extensions: CharacterBookExtensions{
				Position:         optInt(ext.Get("position")),
				ExcludeRecursion: ext.Get("exclude_recursion").Bool(),
				DisplayIndex:     optInt(ext.Get("display_index")),
				Probability:      optInt(ext.Get("probability")),
				UseProbability:   ext.Get("useProbability").Bool(),
			},
		})
	}
	return book
}

// FromCharacterBook converts book. raw is the book document it was decoded
// from; it is kept as the collection's original data, with ids filled in for
// entries that had none so later edits can find them.
func FromCharacterBook(book CharacterBook, raw []byte) (*lore.Collection, error) {
	c := lore.NewCollection()
	original := append([]byte(nil), raw...)

	for i, in := range book.Entries {
		uid := i
		if in.ID != nil {
			uid = *in.ID
		} else if len(original) > 0 {
			var err error
			original, err = sjson.SetBytes(original, "entries."+strconv.Itoa(i)+".id", i)
			if err != nil {
				return nil, fmt.Errorf("numbering character book entry %d: %w", i, err)
			}
		}

		e := lore.NewEntry(uid)
		e.Key = nonNil(in.Keys)
		e.KeySecondary = nonNil(in.SecondaryKeys)
		e.Comment = in.Comment
		e.Content = in.Content
		e.Constant = in.Constant
		e.Selective = in.Selective
		e.Order = in.InsertionOrder
		switch {
		case in.Extensions.Position != nil:
			e.Position = lore.Position(*in.Extensions.Position)
		case in.Position == bookBeforeChar:
			e.Position = lore.PositionBefore
		default:
			e.Position = lore.PositionAfter
		}
		e.ExcludeRecursion = in.Extensions.ExcludeRecursion
		e.Disable = !in.Enabled
		e.AddMemo = in.Comment != ""
		e.DisplayIndex = i
		if in.Extensions.DisplayIndex != nil {
			e.DisplayIndex = *in.Extensions.DisplayIndex
		}
		e.Probability = in.Extensions.Probability
		e.UseProbability = in.Extensions.UseProbability
		c.Put(e)
	}

	if len(original) > 0 {
		c.OriginalData = original
	}
	return c, nil
}

// ToCharacterBook exports c. A world imported from a character book returns
// its original document, including edits made since the import.
func ToCharacterBook(name string, c *lore.Collection) ([]byte, error) {
	if len(c.OriginalData) > 0 {
		return append([]byte(nil), c.OriginalData...), nil
	}

	book := CharacterBook{Name: name, Entries: []CharacterBookEntry{}}
	for _, e := range c.Entries() {
		position := bookAfterChar
		if e.Position == lore.PositionBefore {
			position = bookBeforeChar
		}
		book.Entries = append(book.Entries, CharacterBookEntry{
			ID:             lore.IntPtr(e.UID),
			Keys:           nonNil(e.Key),
			SecondaryKeys:  nonNil(e.KeySecondary),
			Comment:        e.Comment,
			Content:        e.Content,
			Constant:       e.Constant,
			Selective:      e.Selective,
			InsertionOrder: e.Order,
			Enabled:        !e.Disable,
			Position:       position,
			Extensions: CharacterBookExtensions{
				Position:         lore.IntPtr(int(e.Position)),
				ExcludeRecursion: e.ExcludeRecursion,
				DisplayIndex:     lore.IntPtr(e.DisplayIndex),
				Probability:      e.Probability,
				UseProbability:   e.UseProbability,
			},
		})
	}

	data, err := json.Marshal(book)
	if err != nil {
		return nil, fmt.Errorf("encoding character book: %w", err)
	}
	return data, nil
}
