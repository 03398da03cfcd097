package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	analyst "github.com/ledgerline/analyst"
	"github.com/ledgerline/analyst/turn"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the analyst TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	runTurn TurnFunc
	session *analyst.Session
	theme   analyst.Theme
	styles  Styles

	blocks     []MessageBlock
	blockFocus int // index of focused collapsible block (-1 = none)

	// activeText receives streamed fragments for the current decode pass.
	// A table, status or error note event ends the pass, so the next
	// fragment opens a fresh block.
	activeText *AnalystTextBlock

	running bool
	status  string // transient status from the provider, shown while running
	cancel  context.CancelFunc
	eventCh chan turn.Event
	doneCh  chan error
	err     error
	ready   bool
}

// New creates a TUI Model with the given turn function, session, and theme.
func New(runTurn TurnFunc, session *analyst.Session, theme analyst.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about your data..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:      ti,
		runTurn:    runTurn,
		session:    session,
		theme:      theme,
		styles:     NewStyles(theme),
		blockFocus: -1,
	}
	return m.renderSession()
}

// Running returns whether a turn is currently in flight.
func (m Model) Running() bool { return m.running }

// Err returns the last turn error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TurnEventMsg:
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case TurnDoneMsg:
		m.running = false
		m.status = ""
		m.cancel = nil
		m.eventCh = nil
		m.doneCh = nil
		m.activeText = nil
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.err = msg.Err
		}
		m = m.updateBlockFocus()
		cmd := m.Input.Focus()
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Pass remaining messages to sub-components.
	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight

	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitQuestion(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// When idle, pass keys to both input (for typing) and viewport (for
	// scrolling). Only non-character keys go to the viewport to avoid
	// conflicts (e.g. 'j'/'k' are viewport scroll AND text characters).
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitQuestion(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil

	// The turn loop appends the user message to the session; the block is
	// added here so it shows immediately.
	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.activeText = nil
	m.status = ""

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.eventCh = make(chan turn.Event, 256)
	m.doneCh = make(chan error, 1)
	m.running = true

	m.Input.Blur()

	return m, tea.Batch(
		startTurn(m.runTurn, ctx, m.session, text, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
	)
}

// renderSession creates blocks from existing session messages.
func (m Model) renderSession() Model {
	for _, msg := range m.session.Messages {
		switch msg := msg.(type) {
		case analyst.UserMessage:
			for _, b := range msg.Content {
				if tb, ok := b.(analyst.TextBlock); ok {
					m.blocks = append(m.blocks, NewUserMessageBlock(tb.Text, m.styles))
				}
			}
		case analyst.AnalystMessage:
			for _, b := range msg.Content {
				switch cb := b.(type) {
				case analyst.TextBlock:
					block := NewAnalystTextBlock(m.theme)
					block.Append(cb.Text)
					m.blocks = append(m.blocks, block)
				case analyst.TableBlock:
					m.blocks = append(m.blocks, NewTableResultBlock(cb, m.styles))
				case analyst.ErrorNoteBlock:
					m.blocks = append(m.blocks, NewErrorBlock(cb.Note, m.styles))
				}
			}
		}
	}
	return m.updateBlockFocus()
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// processEvent routes a turn event to the appropriate block.
func (m Model) processEvent(evt turn.Event) Model {
	switch e := evt.(type) {
	case turn.Fragment:
		if m.activeText == nil {
			m.activeText = NewAnalystTextBlock(m.theme)
			m.blocks = append(m.blocks, m.activeText)
		}
		m.activeText.Append(e.Text)
	case turn.Table:
		m.activeText = nil
		m.blocks = append(m.blocks, NewTableResultBlock(e.Block, m.styles))
		m = m.updateBlockFocus()
	case turn.Status:
		m.activeText = nil
		m.status = e.Message
	case turn.ErrorNote:
		m.activeText = nil
		m.blocks = append(m.blocks, NewErrorBlock(e.Note, m.styles))
	}
	return m
}

// updateBlockFocus scans backwards to find the last collapsible block.
// Only the focused block responds to Tab. ShiftTab cycles to the previous
// collapsible block.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if _, ok := m.blocks[i].(*TableResultBlock); ok {
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves blockFocus to the previous collapsible block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if _, ok := m.blocks[idx].(*TableResultBlock); ok {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.running {
		if m.status != "" {
			return m.styles.Muted.Render(m.status + "...")
		}
		return m.styles.Muted.Render("Thinking...")
	}
	return m.styles.Muted.Render("Enter to send, Tab to toggle results, Ctrl+C to quit")
}

// startTurn runs the turn in a goroutine and signals completion.
func startTurn(runTurn TurnFunc, ctx context.Context, session *analyst.Session, question string, eventCh chan<- turn.Event, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := runTurn(ctx, session, question, func(e turn.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- err
		return nil
	}
}

// listenForEvent waits for the next event from the channel. When the
// channel closes, it reads the error from doneCh and returns TurnDoneMsg.
func listenForEvent(ch <-chan turn.Event, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			err := <-doneCh
			return TurnDoneMsg{Err: err}
		}
		return TurnEventMsg{Event: evt}
	}
}
