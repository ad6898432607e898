package convert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lorekeeper/internal/lore"
)

var (
	ErrUnknownField = errors.New("unknown entry field")
	ErrNoEntry      = errors.New("entry not found")
)

// Fields lists the entry fields SetField accepts.
var Fields = []string{
	"key", "keysecondary", "comment", "content", "constant", "selective", "order",
	"position", "disable", "excludeRecursion", "probability", "useProbability", "displayIndex",
}

// SetField parses value into the named field of entry uid and mirrors the
// change into the collection's original character book, if it has one.
// Keys are comma separated. An empty probability clears it; other
// probabilities are clamped to [0, 100].
func SetField(c *lore.Collection, uid int, field, value string) error {
	e, ok := c.Get(uid)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoEntry, uid)
	}

	switch field {
	case "key":
		e.Key = splitKeys(value)
		return c.SetOriginalValue(uid, "keys", e.Key)
	case "keysecondary":
		e.KeySecondary = splitKeys(value)
		return c.SetOriginalValue(uid, "secondary_keys", e.KeySecondary)
	case "comment":
		e.Comment = value
		return c.SetOriginalValue(uid, "comment", value)
	case "content":
		e.Content = value
		return c.SetOriginalValue(uid, "content", value)
	case "constant":
		b, err := parseBool(field, value)
		if err != nil {
			return err
		}
		e.Constant = b
		return c.SetOriginalValue(uid, "constant", b)
	case "selective":
		b, err := parseBool(field, value)
		if err != nil {
			return err
		}
		e.Selective = b
		return c.SetOriginalValue(uid, "selective", b)
	case "order":
		n, err := parseInt(field, value)
		if err != nil {
			return err
		}
		e.Order = n
		return c.SetOriginalValue(uid, "insertion_order", n)
	case "position":
		p, err := parsePosition(value)
		if err != nil {
			return err
		}
		e.Position = p
		book := bookAfterChar
		if p == lore.PositionBefore {
			book = bookBeforeChar
		}
		if err := c.SetOriginalValue(uid, "position", book); err != nil {
			return err
		}
		return c.SetOriginalValue(uid, "extensions.position", int(p))
	case "disable":
		b, err := parseBool(field, value)
		if err != nil {
			return err
		}
		e.Disable = b
		return c.SetOriginalValue(uid, "enabled", !b)
	case "excludeRecursion":
		b, err := parseBool(field, value)
		if err != nil {
			return err
		}
		e.ExcludeRecursion = b
		return c.SetOriginalValue(uid, "extensions.exclude_recursion", b)
	case "probability":
		if strings.TrimSpace(value) == "" {
			e.Probability = nil
			return c.SetOriginalValue(uid, "extensions.probability", nil)
		}
		n, err := parseInt(field, value)
		if err != nil {
			return err
		}
		n = min(100, max(0, n))
		e.Probability = &n
		return c.SetOriginalValue(uid, "extensions.probability", n)
	case "useProbability":
		b, err := parseBool(field, value)
		if err != nil {
			return err
		}
		e.UseProbability = b
		switch {
		case b && e.Probability == nil:
			e.Probability = lore.IntPtr(100)
		case !b:
			e.Probability = nil
		}
		if err := c.SetOriginalValue(uid, "extensions.useProbability", b); err != nil {
			return err
		}
		return c.SetOriginalValue(uid, "extensions.probability", e.Probability)
	case "displayIndex":
		n, err := parseInt(field, value)
		if err != nil {
			return err
		}
		e.DisplayIndex = n
		return c.SetOriginalValue(uid, "extensions.display_index", n)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
}

// DeleteEntry removes entry uid from the collection and its original
// character book.
func DeleteEntry(c *lore.Collection, uid int) (bool, error) {
	if !c.Delete(uid) {
		return false, nil
	}
	if err := c.DeleteOriginalEntry(uid); err != nil {
		return true, err
	}
	return true, nil
}

func parsePosition(value string) (lore.Position, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		p := lore.Position(n)
		if !p.Valid() {
			return 0, fmt.Errorf("unknown position: %d", n)
		}
		return p, nil
	}
	return lore.ParsePosition(value)
}

func parseBool(field, value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", field, err)
	}
	return b, nil
}

func parseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", field, err)
	}
	return n, nil
}
