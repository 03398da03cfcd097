package analyst

import "time"

// Message is a sealed interface representing a conversation message.
// The unexported marker method prevents external implementations.
// Role() returns the message's role without requiring a type switch.
type Message interface {
	isMessage()
	Role() Role
}

// UserMessage represents a question from the user.
type UserMessage struct {
	Content   []ContentBlock
	Timestamp time.Time
}

func (UserMessage) isMessage() {}

// Role returns RoleUser.
func (UserMessage) Role() Role { return RoleUser }

// AnalystMessage represents a completed answer turn from the analytics
// service, including any warehouse results produced while executing the
// SQL it returned.
type AnalystMessage struct {
	Content   []ContentBlock
	Status    string // last status message observed for the turn
	RequestID string
	Timestamp time.Time
}

func (AnalystMessage) isMessage() {}

// Role returns RoleAnalyst.
func (AnalystMessage) Role() Role { return RoleAnalyst }

// ContentBlock is a sealed interface representing a block of content.
// The unexported marker method prevents external implementations.
//
// Only TextBlocks are forwarded to the analytics service when conversation
// history is replayed; TableBlocks and ErrorNoteBlocks exist for local
// display and persistence and are filtered out of outbound requests.
type ContentBlock interface {
	contentBlock()
}

// TextBlock contains markdown text content.
type TextBlock struct {
	Text string
}

func (TextBlock) contentBlock() {}

// TableBlock contains the tabular result of one warehouse query.
// Rows holds display-formatted cell values in column order. When the row
// limit was hit, Truncated is set and TotalRows reports the full count.
type TableBlock struct {
	SQL       string
	Columns   []string
	Rows      [][]string
	TotalRows int
	Truncated bool
}

func (TableBlock) contentBlock() {}

// ErrorNoteBlock records an upstream error surfaced during a turn so the
// conversation can be replayed with the failure visible.
type ErrorNoteBlock struct {
	Note string
}

func (ErrorNoteBlock) contentBlock() {}

// Interface compliance checks.
var (
	_ Message = UserMessage{}
	_ Message = AnalystMessage{}

	_ ContentBlock = TextBlock{}
	_ ContentBlock = TableBlock{}
	_ ContentBlock = ErrorNoteBlock{}
)
