package lore

import (
	"encoding/json"
	"testing"

	"github.com/tidwall/gjson"
)

const characterBook = `{"name":"Eldoria","scan_depth":4,"entries":[{"id":3,"keys":["sword"],"content":"A","extensions":{"position":0}},{"keys":["shield"],"content":"B"}]}`

func TestSetOriginalValue(t *testing.T) {
	t.Run("updates nested path by id", func(t *testing.T) {
		c := NewCollection()
		c.OriginalData = json.RawMessage(characterBook)

		if err := c.SetOriginalValue(3, "extensions.probability", 25); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := c.SetOriginalValue(3, "comment", "Blade"); err != nil {
			t.Fatalf("set: %v", err)
		}

		if got := gjson.GetBytes(c.OriginalData, "entries.0.extensions.probability").Int(); got != 25 {
			t.Fatalf("expected probability 25, got %d", got)
		}
		if got := gjson.GetBytes(c.OriginalData, "entries.0.extensions.position"); !got.Exists() || got.Int() != 0 {
			t.Fatalf("expected sibling field untouched, got %s", got.Raw)
		}
		if got := gjson.GetBytes(c.OriginalData, "scan_depth").Int(); got != 4 {
			t.Fatalf("expected unrelated field untouched, got %d", got)
		}
		if got := gjson.GetBytes(c.OriginalData, "entries.1.comment"); got.Exists() {
			t.Fatalf("expected other entry untouched")
		}
	})

	t.Run("entry without id is found by position", func(t *testing.T) {
		c := NewCollection()
		c.OriginalData = json.RawMessage(characterBook)
		if err := c.SetOriginalValue(1, "enabled", false); err != nil {
			t.Fatalf("set: %v", err)
		}
		if got := gjson.GetBytes(c.OriginalData, "entries.1.enabled"); !got.Exists() || got.Bool() {
			t.Fatalf("expected enabled=false, got %s", got.Raw)
		}
	})

	t.Run("no original data is a no-op", func(t *testing.T) {
		c := NewCollection()
		if err := c.SetOriginalValue(0, "comment", "x"); err != nil {
			t.Fatalf("set: %v", err)
		}
		if c.OriginalData != nil {
			t.Fatalf("expected no original data")
		}
	})
}

func TestDeleteOriginalEntry(t *testing.T) {
	c := NewCollection()
	c.OriginalData = json.RawMessage(characterBook)
	if err := c.DeleteOriginalEntry(3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	entries := gjson.GetBytes(c.OriginalData, "entries").Array()
	if len(entries) != 1 || entries[0].Get("content").String() != "B" {
		t.Fatalf("unexpected entries after delete: %s", c.OriginalData)
	}
}
