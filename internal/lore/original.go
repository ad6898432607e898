package lore

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// SetOriginalValue writes value at the dotted path inside the original
// document's entry for uid, creating intermediate objects as needed. It is a
// no-op when the collection has no original document or the entry is absent.
func (c *Collection) SetOriginalValue(uid int, path string, value any) error {
	idx, ok := c.originalIndex(uid)
	if !ok {
		return nil
	}
	updated, err := sjson.SetBytes(c.OriginalData, "entries."+strconv.Itoa(idx)+"."+path, value)
	if err != nil {
		return fmt.Errorf("setting original %s for entry %d: %w", path, uid, err)
	}
	c.OriginalData = updated
	return nil
}

func (c *Collection) DeleteOriginalEntry(uid int) error {
	idx, ok := c.originalIndex(uid)
	if !ok {
		return nil
	}
	updated, err := sjson.DeleteBytes(c.OriginalData, "entries."+strconv.Itoa(idx))
	if err != nil {
		return fmt.Errorf("deleting original entry %d: %w", uid, err)
	}
	c.OriginalData = updated
	return nil
}

// originalIndex locates the original entry whose id is uid. Entries imported
// without an id were numbered by position, so position stands in for them.
func (c *Collection) originalIndex(uid int) (int, bool) {
	if len(c.OriginalData) == 0 {
		return 0, false
	}
	entries := gjson.GetBytes(c.OriginalData, "entries")
	if !entries.IsArray() {
		return 0, false
	}
	for i, item := range entries.Array() {
		id := item.Get("id")
		if id.Exists() && id.Type == gjson.Number {
			if int(id.Int()) == uid {
				return i, true
			}
			continue
		}
		if i == uid {
			return i, true
		}
	}
	return 0, false
}
