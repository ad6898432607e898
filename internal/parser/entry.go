package parser

import (
	"fmt"
	"strconv"
	"strings"

	"lorekeeper/internal/lore"
)

// Entry builds the lore entry described by the document. Fields absent
// from the frontmatter keep the defaults of lore.NewEntry.
func (d *Document) Entry(uid int) (*lore.Entry, error) {
	e := lore.NewEntry(uid)
	e.Comment = d.Title
	e.Content = d.Body
	e.AddMemo = true
	if d.Keys != nil {
		e.Key = d.Keys
	}
	if d.SecondaryKeys != nil {
		e.KeySecondary = d.SecondaryKeys
		e.Selective = true
	}

	fm := d.Frontmatter
	var err error
	if e.Order, err = intField(fm, "order", e.Order); err != nil {
		return nil, err
	}
	if value, ok := fm["position"]; ok {
		s, _ := value.(string)
		if e.Position, err = lore.ParsePosition(s); err != nil {
			return nil, err
		}
	}
	if e.Constant, err = boolField(fm, "constant", e.Constant); err != nil {
		return nil, err
	}
	if e.Selective, err = boolField(fm, "selective", e.Selective); err != nil {
		return nil, err
	}
	if e.Disable, err = boolField(fm, "disable", e.Disable); err != nil {
		return nil, err
	}
	if e.ExcludeRecursion, err = boolField(fm, "exclude_recursion", e.ExcludeRecursion); err != nil {
		return nil, err
	}
	if _, ok := fm["probability"]; ok {
		p, err := intField(fm, "probability", 100)
		if err != nil {
			return nil, err
		}
		e.Probability = lore.IntPtr(p)
		e.UseProbability = true
	}
	return e, nil
}

func intField(fm map[string]any, field string, fallback int) (int, error) {
	value, ok := fm[field]
	if !ok || value == nil {
		return fallback, nil
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", field)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number", field)
	}
}

func boolField(fm map[string]any, field string, fallback bool) (bool, error) {
	value, ok := fm[field]
	if !ok || value == nil {
		return fallback, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be true or false", field)
	}
	return b, nil
}
