package analyst

import "encoding/json"

// Event is a sealed interface representing one server-sent unit of a
// streamed analytics response. Events are purely semantic. Transport and
// protocol errors come from Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// ContentDelta is the subset of events that carry a fragment of answer
// content. BlockIndex identifies the logical content block (one paragraph,
// one SQL statement, one suggestion list) the fragment belongs to. Block
// indices are monotonically non-decreasing within a stream.
type ContentDelta interface {
	Event
	BlockIndex() int
}

// EventTextDelta carries a fragment of prose.
type EventTextDelta struct {
	Index int
	Delta string
}

func (EventTextDelta) event() {}

// BlockIndex returns the logical block index.
func (e EventTextDelta) BlockIndex() int { return e.Index }

// EventSQLDelta carries a fragment of a generated SQL statement.
type EventSQLDelta struct {
	Index int
	Delta string
}

func (EventSQLDelta) event() {}

// BlockIndex returns the logical block index.
func (e EventSQLDelta) BlockIndex() int { return e.Index }

// EventSuggestionDelta carries a fragment of a suggested follow-up question.
// SuggestionIndex identifies which suggestion within the block the fragment
// extends; repeated deltas to the same suggestion index continue the same
// list item.
type EventSuggestionDelta struct {
	Index           int
	SuggestionIndex int
	Delta           string
}

func (EventSuggestionDelta) event() {}

// BlockIndex returns the logical block index.
func (e EventSuggestionDelta) BlockIndex() int { return e.Index }

// EventStatus reports a change in the service's processing status.
// A status message of "done" (case-insensitive) ends the streaming turn.
type EventStatus struct {
	Message string
}

func (EventStatus) event() {}

// EventError carries the service's error payload verbatim.
type EventError struct {
	Payload json.RawMessage
}

func (EventError) event() {}

// Interface compliance checks.
var (
	_ ContentDelta = EventTextDelta{}
	_ ContentDelta = EventSQLDelta{}
	_ ContentDelta = EventSuggestionDelta{}
	_ Event        = EventStatus{}
	_ Event        = EventError{}
)
