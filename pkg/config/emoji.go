package config

import (
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// DefaultEmoji is the status prefix and particle glyph out of the box.
const DefaultEmoji = "⚡️"

// DefaultEmojis are the glyphs offered in the icon menu. Any other
// non-empty glyph is accepted as well.
var DefaultEmojis = []string{"⚡️", "🌟", "✨", "💫", "⭐️", "🌠", "🎇", "🎆"}

// ValidateEmoji returns the trimmed glyph or an error if it is empty or
// spans multiple lines.
func ValidateEmoji(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", pkgerrors.New("emoji cannot be empty")
	}
	if strings.ContainsAny(s, "\r\n") {
		return "", pkgerrors.Errorf("emoji %q must be a single line", s)
	}
	return s, nil
}
