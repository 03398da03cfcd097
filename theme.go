package analyst

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg int // User message accent
	SQL     int // SQL code block gutter and label
	Table   int // Table headers and borders
	Chart   int // Bar chart fill
	Error   int // Error messages
	Success int // Success indicators
	Muted   int // Status bar, placeholders
	Accent  int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg: 4,
		SQL:     6,
		Table:   3,
		Chart:   2,
		Error:   1,
		Success: 2,
		Muted:   8,
		Accent:  5,
	}
}
