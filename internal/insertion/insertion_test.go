package insertion

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"lorekeeper/internal/activation"
	"lorekeeper/internal/lore"
	"lorekeeper/internal/selection"
)

func act(content string, order int, position lore.Position) activation.Activated {
	e := lore.NewEntry(0)
	e.Content = content
	e.Order = order
	e.Position = position
	return activation.Activated{Entry: e, Content: content}
}

func TestAssembleOrdering(t *testing.T) {
	blocks := Assemble([]activation.Activated{
		act("A", 10, lore.PositionBefore),
		act("B", 5, lore.PositionBefore),
		act("C", 50, lore.PositionBefore),
	})
	if want := "B\nA\nC\n"; blocks.Before != want {
		t.Errorf("Before = %q, want %q", blocks.Before, want)
	}
	if blocks.After != "" {
		t.Errorf("After = %q, want empty", blocks.After)
	}
}

func TestAssembleTiesKeepActivationOrder(t *testing.T) {
	blocks := Assemble([]activation.Activated{
		act("first", 7, lore.PositionAfter),
		act("second", 7, lore.PositionAfter),
	})
	// descending walk sees first then second; prepending reverses them
	if want := "second\nfirst\n"; blocks.After != want {
		t.Errorf("After = %q, want %q", blocks.After, want)
	}
}

func TestAssembleNoteBlocksUseRawContent(t *testing.T) {
	top := act("{{char}} top", 1, lore.PositionNoteTop)
	top.Content = "Seraphina top"
	bottom := act("bottom", 1, lore.PositionNoteBottom)
	before := act("{{char}} before", 1, lore.PositionBefore)
	before.Content = "Seraphina before"

	blocks := Assemble([]activation.Activated{top, bottom, before})
	if diff := cmp.Diff([]string{"{{char}} top"}, blocks.NoteTop); diff != "" {
		t.Errorf("NoteTop mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bottom"}, blocks.NoteBottom); diff != "" {
		t.Errorf("NoteBottom mismatch (-want +got):\n%s", diff)
	}
	if blocks.Before != "Seraphina before\n" {
		t.Errorf("Before = %q", blocks.Before)
	}
	if !blocks.HasNote() {
		t.Error("HasNote = false")
	}
}

func TestWrapNote(t *testing.T) {
	blocks := Blocks{NoteTop: []string{"t1", "t2"}, NoteBottom: []string{"b1"}}
	if got, want := blocks.WrapNote("note"), "t1\nt2\nnote\nb1"; got != want {
		t.Errorf("WrapNote = %q, want %q", got, want)
	}
	if got, want := (Blocks{}).WrapNote("note"), "\nnote\n"; got != want {
		t.Errorf("empty WrapNote = %q, want %q", got, want)
	}
}

func TestAssembleEmpty(t *testing.T) {
	blocks := Assemble(nil)
	if blocks.Before != "" || blocks.After != "" || blocks.HasNote() {
		t.Errorf("unexpected blocks: %+v", blocks)
	}
}

type lengthCounter struct{}

func (lengthCounter) Count(text string) int { return len(text) / 4 }

func TestSwordMagicScenario(t *testing.T) {
	a := lore.NewEntry(0)
	a.Key = []string{"sword"}
	a.Content = "A's content"
	a.Order = 10
	b := lore.NewEntry(1)
	b.Key = []string{"sword"}
	b.KeySecondary = []string{"magic"}
	b.Selective = true
	b.Content = "B's content"
	b.Order = 5

	eng := activation.New(activation.Settings{Depth: 1, BudgetPercent: 100},
		activation.WithTokenCounter(lengthCounter{}))
	res := eng.Run([]string{"I draw my sword, it glows with magic."}, 4096, []selection.Candidate{
		{World: "Armory", Entry: a},
		{World: "Armory", Entry: b},
	})
	if len(res.Activated) != 2 {
		t.Fatalf("activated %d entries, want 2", len(res.Activated))
	}

	blocks := Assemble(res.Activated)
	if want := "B's content\nA's content\n"; blocks.Before != want {
		t.Errorf("Before = %q, want %q", blocks.Before, want)
	}
}
