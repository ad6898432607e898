// Package tokens counts prompt tokens with the cl100k_base encoding. The
// encoding is loaded on first use; when it cannot be loaded a character
// based estimate is used instead.
package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	once     sync.Once
	encoding *tiktoken.Tiktoken
)

func load() *tiktoken.Tiktoken {
	once.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err == nil {
			encoding = enc
		}
	})
	return encoding
}

// Counter adapts Count to the activation engine's token counter.
type Counter struct{}

func (Counter) Count(text string) int {
	return Count(text)
}

func Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := load(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return EstimateFast(text)
}

// EstimateFast returns max(runes/4, words), at least 1 for non-blank text.
func EstimateFast(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	runes := len([]rune(trimmed))
	words := len(strings.Fields(trimmed))
	estimate := max(runes/4, words)
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}
