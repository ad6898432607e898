// Package insertion lays activated entries out into the prompt's four
// insertion blocks.
package insertion

import (
	"slices"
	"sort"
	"strings"

	"lorekeeper/internal/activation"
	"lorekeeper/internal/lore"
)

type Blocks struct {
	Before     string
	After      string
	NoteTop    []string
	NoteBottom []string
}

// Assemble walks the entries from highest order to lowest and prepends each
// to its block, so every block reads in ascending order. Entries with equal
// order keep their activation order. Author's note blocks carry the raw,
// unsubstituted content.
func Assemble(activated []activation.Activated) Blocks {
	sorted := slices.Clone(activated)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Entry.Order > sorted[j].Entry.Order
	})

	var before, after, top, bottom []string
	for _, a := range sorted {
		switch a.Entry.Position {
		case lore.PositionBefore:
			before = slices.Insert(before, 0, a.Content)
		case lore.PositionAfter:
			after = slices.Insert(after, 0, a.Content)
		case lore.PositionNoteTop:
			top = slices.Insert(top, 0, a.Entry.Content)
		case lore.PositionNoteBottom:
			bottom = slices.Insert(bottom, 0, a.Entry.Content)
		}
	}

	return Blocks{
		Before:     block(before),
		After:      block(after),
		NoteTop:    top,
		NoteBottom: bottom,
	}
}

func block(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n") + "\n"
}

func (b Blocks) HasNote() bool {
	return len(b.NoteTop) > 0 || len(b.NoteBottom) > 0
}

// WrapNote places the author's note between the top and bottom blocks.
func (b Blocks) WrapNote(note string) string {
	return strings.Join(b.NoteTop, "\n") + "\n" + note + "\n" + strings.Join(b.NoteBottom, "\n")
}
