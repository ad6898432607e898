package lore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

// MaxUID bounds the first-fit uid allocation.
const MaxUID = 1_000_000

var ErrNoFreeUID = errors.New("no free entry uid")

// Collection is a named world's entries, ordered by uid, plus the foreign
// document it was imported from (if any) for round-trip export.
type Collection struct {
	entries      []*Entry
	OriginalData json.RawMessage
}

func NewCollection() *Collection {
	return &Collection{}
}

func (c *Collection) Len() int {
	return len(c.entries)
}

// Entries returns the entries in ascending uid order. The slice is a copy;
// the entries are shared.
func (c *Collection) Entries() []*Entry {
	return append([]*Entry(nil), c.entries...)
}

func (c *Collection) Get(uid int) (*Entry, bool) {
	i := c.search(uid)
	if i < len(c.entries) && c.entries[i].UID == uid {
		return c.entries[i], true
	}
	return nil, false
}

// Put inserts e, replacing any entry with the same uid.
func (c *Collection) Put(e *Entry) {
	if e == nil {
		return
	}
	i := c.search(e.UID)
	if i < len(c.entries) && c.entries[i].UID == e.UID {
		c.entries[i] = e
		return
	}
	c.entries = append(c.entries, nil)
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = e
}

func (c *Collection) Delete(uid int) bool {
	i := c.search(uid)
	if i < len(c.entries) && c.entries[i].UID == uid {
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		return true
	}
	return false
}

func (c *Collection) FreeUID() (int, error) {
	return c.freeUID(MaxUID)
}

func (c *Collection) freeUID(limit int) (int, error) {
	next := 0
	for _, e := range c.entries {
		if e.UID < next {
			continue
		}
		if e.UID > next {
			break
		}
		next++
	}
	if next >= limit {
		return 0, ErrNoFreeUID
	}
	return next, nil
}

// CreateEntry allocates the lowest free uid and inserts a default entry.
func (c *Collection) CreateEntry() (*Entry, error) {
	uid, err := c.FreeUID()
	if err != nil {
		return nil, fmt.Errorf("creating entry: %w", err)
	}
	e := NewEntry(uid)
	c.Put(e)
	return e, nil
}

func (c *Collection) search(uid int) int {
	return sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].UID >= uid
	})
}

func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"entries":{`)
	for i, e := range c.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encoding entry %d: %w", e.UID, err)
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(e.UID)))
		buf.WriteByte(':')
		buf.Write(payload)
	}
	buf.WriteByte('}')
	if len(c.OriginalData) > 0 {
		buf.WriteString(`,"originalData":`)
		buf.Write(c.OriginalData)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the native world file. The map key is the entry's
// identity; an entry without a numeric key keeps its own uid field.
func (c *Collection) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("decoding collection: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("decoding collection: expected object")
	}

	c.entries = nil
	c.OriginalData = nil

	entries := root.Get("entries")
	entries.ForEach(func(key, value gjson.Result) bool {
		var e Entry
		if err := json.Unmarshal([]byte(value.Raw), &e); err != nil {
			// malformed entries are skipped, not fatal
			return true
		}
		if entries.IsObject() {
			if uid, err := strconv.Atoi(key.String()); err == nil {
				e.UID = uid
			}
		} else {
			e.UID = int(key.Int())
		}
		c.Put(&e)
		return true
	})

	if original := root.Get("originalData"); original.Exists() && original.Type != gjson.Null {
		c.OriginalData = json.RawMessage(original.Raw)
	}
	return nil
}
