// Package macro expands the {{user}} and {{char}} placeholders in lore text.
package macro

import (
	"regexp"
	"strings"
)

var pattern = regexp.MustCompile(`(?i)\{\{user\}\}|\{\{char\}\}|<USER>|<BOT>`)

type Substituter struct {
	User string
	Char string
}

// Substitute replaces the placeholders, ignoring case. Text without
// placeholders is returned unchanged.
func (s Substituter) Substitute(text string) string {
	if !strings.ContainsAny(text, "{<") {
		return text
	}
	return pattern.ReplaceAllStringFunc(text, func(m string) string {
		switch strings.ToLower(m) {
		case "{{user}}", "<user>":
			return s.User
		default:
			return s.Char
		}
	})
}
