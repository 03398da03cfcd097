package analyst_test

import (
	"testing"

	analyst "github.com/ledgerline/analyst"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTheme(t *testing.T) {
	t.Parallel()

	theme := analyst.DefaultTheme()

	// All defaults must be valid ANSI indices (0-15).
	for name, idx := range map[string]int{
		"UserMsg": theme.UserMsg,
		"SQL":     theme.SQL,
		"Table":   theme.Table,
		"Chart":   theme.Chart,
		"Error":   theme.Error,
		"Success": theme.Success,
		"Muted":   theme.Muted,
		"Accent":  theme.Accent,
	} {
		assert.GreaterOrEqual(t, idx, 0, name)
		assert.LessOrEqual(t, idx, 15, name)
	}
}
