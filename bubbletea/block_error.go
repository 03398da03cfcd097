package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders an error note recorded on a turn.
type ErrorBlock struct {
	note   string
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(note string, styles Styles) *ErrorBlock {
	return &ErrorBlock{note: note, styles: styles}
}

func (b *ErrorBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render("✗ " + b.note)
	return lipgloss.NewStyle().Width(width).Render(content)
}
