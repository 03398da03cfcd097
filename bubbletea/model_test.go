package bubbletea_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	analyst "github.com/ledgerline/analyst"
	bt "github.com/ledgerline/analyst/bubbletea"
	"github.com/ledgerline/analyst/turn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, runTurn bt.TurnFunc) bt.Model {
	t.Helper()
	return initModelWithSession(t, runTurn, &analyst.Session{})
}

func initModelWithSession(t *testing.T, runTurn bt.TurnFunc, session *analyst.Session) bt.Model {
	t.Helper()
	m := bt.New(runTurn, session, analyst.DefaultTheme())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// nopTurn is a turn function that does nothing.
func nopTurn(_ context.Context, _ *analyst.Session, _ string, _ func(turn.Event)) error {
	return nil
}

func TestNew(t *testing.T) {
	t.Parallel()

	m := bt.New(nopTurn, &analyst.Session{}, analyst.DefaultTheme())
	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	t.Run("window size initializes viewport", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		assert.Equal(t, 80, m.Viewport.Width)
		assert.Equal(t, 20, m.Viewport.Height) // 24 - 1 - 1 - 2 = 20
		assert.NotEmpty(t, m.View())
	})

	t.Run("ctrl+c when idle quits", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	})

	t.Run("enter with empty input does nothing", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		model := updated.(bt.Model)

		assert.False(t, model.Running())
		assert.Nil(t, cmd)
	})

	t.Run("fragment event updates output", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.Fragment{Text: "Total volume was $1.2M."}})

		assert.Contains(t, m.View(), "Total volume was $1.2M.")
	})

	t.Run("consecutive fragments land in one block", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.Fragment{Text: "Total volume "}})
		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.Fragment{Text: "was $1.2M."}})

		assert.Contains(t, m.View(), "Total volume was $1.2M.")
	})

	t.Run("status event shows in status line while running", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, func(ctx context.Context, s *analyst.Session, q string, onEvent func(turn.Event)) error {
			<-ctx.Done()
			return ctx.Err()
		})
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		require.True(t, m.Running())

		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.Status{Message: "Interpreting question"}})
		assert.Contains(t, m.View(), "Interpreting question...")
	})

	t.Run("table event renders query results", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.Table{Block: analyst.TableBlock{
			Columns:   []string{"region", "volume"},
			Rows:      [][]string{{"EMEA", "1200"}},
			TotalRows: 1,
		}}})

		view := m.View()
		assert.Contains(t, view, "query results")
		assert.Contains(t, view, "EMEA")
		assert.Contains(t, view, "1 row")
	})

	t.Run("error note event renders note", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.ErrorNote{Note: "query timed out"}})

		assert.Contains(t, m.View(), "query timed out")
	})

	t.Run("fragments after a table open a new text block", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.Fragment{Text: "First pass."}})
		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.Table{Block: analyst.TableBlock{
			Columns: []string{"n"}, Rows: [][]string{{"1"}}, TotalRows: 1,
		}}})
		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.Fragment{Text: "Second pass."}})

		view := m.View()
		assert.Contains(t, view, "First pass.")
		assert.Contains(t, view, "Second pass.")
	})

	t.Run("turn done clears running and surfaces error", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, func(ctx context.Context, s *analyst.Session, q string, onEvent func(turn.Event)) error {
			<-ctx.Done()
			return ctx.Err()
		})
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		require.True(t, m.Running())

		m = updateModel(t, m, bt.TurnDoneMsg{Err: assert.AnError})
		assert.False(t, m.Running())
		assert.ErrorIs(t, m.Err(), assert.AnError)
		assert.Contains(t, m.View(), "Error:")
	})

	t.Run("cancelled turn is not an error", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		m = updateModel(t, m, bt.TurnDoneMsg{Err: context.Canceled})
		assert.NoError(t, m.Err())
	})

	t.Run("tab toggles the focused table block", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopTurn)
		m = updateModel(t, m, bt.TurnEventMsg{Event: turn.Table{Block: analyst.TableBlock{
			Columns:   []string{"region", "volume"},
			Rows:      [][]string{{"EMEA", "1200"}},
			TotalRows: 1,
		}}})
		m = updateModel(t, m, bt.TurnDoneMsg{})

		// Expanded by default: cell content is visible.
		assert.Contains(t, m.View(), "EMEA")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyTab})
		assert.NotContains(t, m.View(), "EMEA")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyTab})
		assert.Contains(t, m.View(), "EMEA")
	})

	t.Run("existing session messages render on init", func(t *testing.T) {
		t.Parallel()

		session := &analyst.Session{
			Messages: []analyst.Message{
				analyst.UserMessage{Content: []analyst.ContentBlock{
					analyst.TextBlock{Text: "volume by region?"},
				}},
				analyst.AnalystMessage{Content: []analyst.ContentBlock{
					analyst.TextBlock{Text: "Here is the breakdown."},
					analyst.TableBlock{Columns: []string{"region"}, Rows: [][]string{{"EMEA"}}, TotalRows: 1},
					analyst.ErrorNoteBlock{Note: "second query timed out"},
				}},
			},
		}
		m := initModelWithSession(t, nopTurn, session)

		view := m.View()
		assert.Contains(t, view, "volume by region?")
		assert.Contains(t, view, "Here is the breakdown.")
		assert.Contains(t, view, "EMEA")
		assert.Contains(t, view, "second query timed out")
	})
}

func TestFullTurnThroughProgram(t *testing.T) {
	t.Parallel()

	runTurn := func(ctx context.Context, session *analyst.Session, question string, onEvent func(turn.Event)) error {
		onEvent(turn.Fragment{Text: "Volume was $1.2M."})
		session.Messages = append(session.Messages,
			analyst.UserMessage{Content: []analyst.ContentBlock{analyst.TextBlock{Text: question}}},
			analyst.AnalystMessage{
				Content: []analyst.ContentBlock{analyst.TextBlock{Text: "Volume was $1.2M."}},
				Status:  "done",
			},
		)
		return nil
	}

	session := &analyst.Session{}
	m := bt.New(runTurn, session, analyst.DefaultTheme())

	tm := teatest.NewTestModel(t, m,
		teatest.WithInitialTermSize(80, 24),
	)

	tm.Type("what was the volume?")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Volume was $1.2M.")) &&
			bytes.Contains(out, []byte("Enter to send"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(bt.Model)
	require.True(t, ok)
	assert.False(t, final.Running())
	assert.NoError(t, final.Err())
	assert.Len(t, session.Messages, 2)
}
