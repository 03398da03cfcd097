// Package turn orchestrates one question-and-answer exchange between the
// user, the analyst provider, and the warehouse.
//
// A turn opens a single provider stream and decodes it in passes. Each
// pass yields markdown until a status or error event stops it; passes
// repeat until the status reads "done" (case-insensitive) or the stream
// ends. SQL fences found in a completed pass are executed against the
// warehouse and their results attached to the turn.
package turn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	analyst "github.com/ledgerline/analyst"
	"github.com/ledgerline/analyst/decoder"
	"github.com/ledgerline/analyst/markdown"
)

// Event is a progress notification emitted while a turn runs. The concrete
// types are Fragment, Table, Status and ErrorNote.
type Event interface {
	isTurnEvent()
}

// Fragment carries one markdown fragment in stream order.
type Fragment struct {
	Text string
}

// Table carries one executed query result.
type Table struct {
	Block analyst.TableBlock
}

// Status carries a transient progress message. It is display-only and
// never part of the saved conversation.
type Status struct {
	Message string
}

// ErrorNote carries a non-fatal problem that was recorded on the turn.
type ErrorNote struct {
	Note string
}

func (Fragment) isTurnEvent()  {}
func (Table) isTurnEvent()     {}
func (Status) isTurnEvent()    {}
func (ErrorNote) isTurnEvent() {}

// Loop runs turns against a provider and an optional warehouse.
type Loop struct {
	provider analyst.Provider
	querier  analyst.Querier
}

// New creates a Loop. querier may be nil; generated SQL is then recorded
// but not executed.
func New(provider analyst.Provider, querier analyst.Querier) *Loop {
	return &Loop{provider: provider, querier: querier}
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

type runConfig struct {
	onEvent func(Event)
}

// WithEventHandler sets a callback that receives each turn event as it
// happens. If nil or not set, events are silently discarded.
func WithEventHandler(h func(Event)) RunOption {
	return func(c *runConfig) {
		c.onEvent = h
	}
}

// Run executes one turn. It appends the user's question and the analyst's
// answer to session.Messages. Upstream error events do not fail the turn:
// they are recorded on the analyst message as an error note so the
// conversation survives. Transport errors abort the turn after appending
// whatever content was already decoded.
func (l *Loop) Run(ctx context.Context, session *analyst.Session, question string, opts ...RunOption) error {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	session.Messages = append(session.Messages, analyst.UserMessage{
		Content:   []analyst.ContentBlock{analyst.TextBlock{Text: question}},
		Timestamp: time.Now(),
	})
	session.UpdatedAt = time.Now()

	req := analyst.Request{
		Messages:      session.Messages,
		SemanticModel: session.SemanticModel,
	}
	stream, err := l.provider.Stream(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	var (
		blocks    []analyst.ContentBlock
		status    string
		streamErr error
	)
	for {
		dec := decoder.New(stream)

		var md strings.Builder
		for {
			frag, err := dec.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				streamErr = err
				break
			}
			md.WriteString(frag)
			cfg.emit(Fragment{Text: frag})
		}

		if text := strings.TrimSpace(md.String()); text != "" {
			blocks = append(blocks, analyst.TextBlock{Text: md.String()})
		}
		if streamErr != nil {
			break
		}

		if payload := dec.ErrorPayload(); payload != nil {
			note := formatErrorNote(payload)
			blocks = append(blocks, analyst.ErrorNoteBlock{Note: note})
			cfg.emit(ErrorNote{Note: note})
			break
		}

		blocks = append(blocks, l.executeSQL(ctx, md.String(), &cfg)...)

		status = dec.Status()
		if status == "" || strings.EqualFold(status, "done") {
			break
		}
		cfg.emit(Status{Message: status})
	}

	session.Messages = append(session.Messages, analyst.AnalystMessage{
		Content:   blocks,
		Status:    status,
		RequestID: stream.RequestID(),
		Timestamp: time.Now(),
	})
	session.UpdatedAt = time.Now()

	return streamErr
}

// executeSQL runs every SQL fence found in md and returns the resulting
// blocks. Query failures become error notes rather than turn failures;
// remaining statements still run.
func (l *Loop) executeSQL(ctx context.Context, md string, cfg *runConfig) []analyst.ContentBlock {
	statements := markdown.ExtractSQL(md)
	if len(statements) == 0 {
		return nil
	}
	if l.querier == nil {
		note := fmt.Sprintf("%v; showing generated SQL only", analyst.ErrNoWarehouse)
		cfg.emit(ErrorNote{Note: note})
		return []analyst.ContentBlock{analyst.ErrorNoteBlock{Note: note}}
	}

	var blocks []analyst.ContentBlock
	for _, stmt := range statements {
		cfg.emit(Status{Message: "Executing SQL"})
		block, err := l.querier.Query(ctx, stmt)
		if err != nil {
			note := err.Error()
			blocks = append(blocks, analyst.ErrorNoteBlock{Note: note})
			cfg.emit(ErrorNote{Note: note})
			continue
		}
		blocks = append(blocks, block)
		cfg.emit(Table{Block: block})
	}
	return blocks
}

func (c *runConfig) emit(evt Event) {
	if c.onEvent != nil {
		c.onEvent(evt)
	}
}

// formatErrorNote renders an upstream error payload for display. Payloads
// usually carry code and message fields; anything else is shown raw.
func formatErrorNote(payload json.RawMessage) string {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		if body.Code != "" {
			return fmt.Sprintf("%s (code %s)", body.Message, body.Code)
		}
		return body.Message
	}
	return string(payload)
}
