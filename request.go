package analyst

// Request carries the conversation history and the semantic model the
// analytics service should answer against.
type Request struct {
	Messages      []Message
	SemanticModel string // stage path of the semantic model file
}
