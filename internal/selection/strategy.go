package selection

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy decides how character lore and global lore are interleaved.
type Strategy int

const (
	Evenly Strategy = iota
	CharacterFirst
	GlobalFirst
)

var ErrUnknownStrategy = errors.New("unknown insertion strategy")

func (s Strategy) String() string {
	switch s {
	case Evenly:
		return "evenly"
	case CharacterFirst:
		return "character_first"
	case GlobalFirst:
		return "global_first"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func (s Strategy) Valid() bool {
	return s >= Evenly && s <= GlobalFirst
}

// ParseStrategy accepts a strategy name or its legacy numeric form. Unknown
// values return Evenly together with ErrUnknownStrategy.
func ParseStrategy(value string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "evenly", "0":
		return Evenly, nil
	case "character_first", "char_first", "1":
		return CharacterFirst, nil
	case "global_first", "2":
		return GlobalFirst, nil
	default:
		return Evenly, fmt.Errorf("%w: %q", ErrUnknownStrategy, value)
	}
}
