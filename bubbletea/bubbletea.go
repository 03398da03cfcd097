// Package bubbletea provides the Bubble Tea TUI for the analyst chat.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	analyst "github.com/ledgerline/analyst"
	"github.com/ledgerline/analyst/turn"
)

// TurnFunc runs one question-and-answer turn. The onEvent callback receives
// each turn event as it happens. The function blocks until the turn
// completes or the context is cancelled.
type TurnFunc func(ctx context.Context, session *analyst.Session, question string, onEvent func(turn.Event)) error

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. The context is used for graceful shutdown; when cancelled,
// the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// TurnEventMsg wraps a turn event for delivery to the Bubble Tea model.
type TurnEventMsg struct {
	Event turn.Event
}

// TurnDoneMsg signals that the running turn has completed.
type TurnDoneMsg struct {
	Err error
}
