package analyst

import "time"

// Session represents one user conversation. It is the single owner of the
// conversation state for that user: handlers receive it explicitly rather
// than reading globals.
type Session struct {
	ID            string
	SemanticModel string
	Messages      []Message
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
