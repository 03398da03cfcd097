package warehouse

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize strips ANSI escape sequences and control characters from a cell
// value before it reaches the terminal. Warehouse data is untrusted input
// to the renderer: a cell containing escape sequences must not restyle or
// rewrite the screen. Tabs become single spaces; newlines become " ⏎ " so
// multi-line cells stay on one table row.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t':
			b.WriteByte(' ')
		case r == '\n':
			b.WriteString(" ⏎ ")
		case r <= 0x1F || r == 0x7F:
			// Remaining control characters are dropped.
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
