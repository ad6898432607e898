package lore

import (
	"errors"
	"fmt"
)

const maxFreeName = 100_000

var ErrNoFreeName = errors.New("no free world name")

// FreeWorldName returns the first "New World (n)" not present in existing.
func FreeWorldName(existing []string) (string, error) {
	taken := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		taken[name] = struct{}{}
	}
	for i := 1; i < maxFreeName; i++ {
		name := fmt.Sprintf("New World (%d)", i)
		if _, ok := taken[name]; ok {
			continue
		}
		return name, nil
	}
	return "", ErrNoFreeName
}
