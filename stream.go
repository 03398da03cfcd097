package analyst

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving events.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream is a pull-based source of Events for one streaming turn.
// Cancellation flows through the context passed to Provider.Stream().
//
// Next() returns the next semantic event, or io.EOF when the underlying
// stream is exhausted. Exhaustion without an explicit terminal status event
// is normal completion of the transport, not an error; the caller decides
// how to treat the missing terminal status.
//
// RequestID() returns the service-assigned request identifier, known as soon
// as the stream is created. It is stable for the lifetime of the stream.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	RequestID() string
	Close() error
}
