package lore

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
)

func TestFreeUID(t *testing.T) {
	cases := []struct {
		name     string
		uids     []int
		expected int
	}{
		{name: "empty", uids: nil, expected: 0},
		{name: "contiguous", uids: []int{0, 1, 2}, expected: 3},
		{name: "gap", uids: []int{0, 2, 3}, expected: 1},
		{name: "missing zero", uids: []int{1, 2}, expected: 0},
		{name: "negative ignored", uids: []int{-4, 0}, expected: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCollection()
			for _, uid := range tc.uids {
				c.Put(NewEntry(uid))
			}
			got, err := c.FreeUID()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Fatalf("expected uid %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestFreeUID_Exhausted(t *testing.T) {
	c := NewCollection()
	for uid := 0; uid < 3; uid++ {
		c.Put(NewEntry(uid))
	}
	if _, err := c.freeUID(3); !errors.Is(err, ErrNoFreeUID) {
		t.Fatalf("expected ErrNoFreeUID, got %v", err)
	}
}

func TestCreateEntry(t *testing.T) {
	c := NewCollection()
	c.Put(NewEntry(0))
	c.Put(NewEntry(2))

	e, err := c.CreateEntry()
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if e.UID != 1 {
		t.Fatalf("expected uid 1, got %d", e.UID)
	}
	if e.Order != DefaultOrder || e.Position != PositionBefore {
		t.Fatalf("unexpected defaults: %+v", e)
	}
	if got, ok := c.Get(1); !ok || got != e {
		t.Fatalf("expected entry to be stored")
	}
}

func TestPutReplacesAndKeepsOrder(t *testing.T) {
	c := NewCollection()
	for _, uid := range []int{5, 1, 3} {
		c.Put(NewEntry(uid))
	}
	replacement := NewEntry(3)
	replacement.Content = "replaced"
	c.Put(replacement)

	var uids []int
	for _, e := range c.Entries() {
		uids = append(uids, e.UID)
	}
	if diff := cmp.Diff([]int{1, 3, 5}, uids); diff != "" {
		t.Fatalf("unexpected uid order (-want +got):\n%s", diff)
	}
	if got, _ := c.Get(3); got.Content != "replaced" {
		t.Fatalf("expected replacement, got %q", got.Content)
	}
	if !c.Delete(1) || c.Delete(1) {
		t.Fatalf("expected delete to succeed once")
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestCollectionJSON(t *testing.T) {
	t.Run("round trip keeps uid order and original data", func(t *testing.T) {
		c := NewCollection()
		a := NewEntry(10)
		a.Key = []string{"sword"}
		a.Content = "A blade."
		a.Probability = IntPtr(40)
		a.UseProbability = true
		c.Put(a)
		c.Put(NewEntry(2))
		c.OriginalData = json.RawMessage(`{"name":"book","entries":[]}`)

		payload, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !gjson.ValidBytes(payload) {
			t.Fatalf("invalid JSON: %s", payload)
		}

		var decoded Collection
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if diff := cmp.Diff(c.Entries(), decoded.Entries()); diff != "" {
			t.Fatalf("entries differ (-want +got):\n%s", diff)
		}
		if string(decoded.OriginalData) != `{"name":"book","entries":[]}` {
			t.Fatalf("unexpected original data: %s", decoded.OriginalData)
		}
	})

	t.Run("map key is the identity", func(t *testing.T) {
		var c Collection
		if err := json.Unmarshal([]byte(`{"entries":{"7":{"uid":1,"content":"x"}}}`), &c); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if _, ok := c.Get(7); !ok {
			t.Fatalf("expected entry under uid 7")
		}
	})

	t.Run("malformed entries degrade to defaults", func(t *testing.T) {
		var c Collection
		raw := `{"entries":{"0":{"key":null,"content":"a","order":"high","probability":null},"1":{"key":"dragon"},"2":"garbage"}}`
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if c.Len() != 2 {
			t.Fatalf("expected 2 entries, got %d", c.Len())
		}
		first, _ := c.Get(0)
		if len(first.Key) != 0 || first.Probability != nil || first.Order != 0 {
			t.Fatalf("unexpected defaults: %+v", first)
		}
		second, _ := c.Get(1)
		if diff := cmp.Diff([]string{"dragon"}, second.Key); diff != "" {
			t.Fatalf("unexpected keys (-want +got):\n%s", diff)
		}
	})

	t.Run("empty key lists encode as arrays", func(t *testing.T) {
		payload, err := json.Marshal(Entry{UID: 1})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !gjson.GetBytes(payload, "key").IsArray() || !gjson.GetBytes(payload, "keysecondary").IsArray() {
			t.Fatalf("expected arrays, got %s", payload)
		}
	})
}

func TestParsePosition(t *testing.T) {
	cases := map[string]Position{
		"":            PositionBefore,
		"before":      PositionBefore,
		"After":       PositionAfter,
		"note_top":    PositionNoteTop,
		"an_bottom":   PositionNoteBottom,
		"before_char": PositionBefore,
	}
	for input, expected := range cases {
		got, err := ParsePosition(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != expected {
			t.Fatalf("parse %q: expected %v, got %v", input, expected, got)
		}
	}
	if _, err := ParsePosition("sideways"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFreeWorldName(t *testing.T) {
	name, err := FreeWorldName([]string{"New World (1)", "New World (3)"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "New World (2)" {
		t.Fatalf("expected New World (2), got %q", name)
	}
}
