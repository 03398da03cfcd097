package cortex

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	analyst "github.com/ledgerline/analyst"
)

// stream implements [analyst.Stream] by parsing SSE events from an HTTP
// response body.
type stream struct {
	body      io.ReadCloser
	scanner   *bufio.Scanner
	ctx       context.Context
	state     analyst.StreamState
	requestID string
	err       error // terminal error, if any
}

// Interface compliance check.
var _ analyst.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, requestID string) *stream {
	return &stream{
		body:      body,
		scanner:   bufio.NewScanner(body),
		ctx:       ctx,
		state:     analyst.StreamStateNew,
		requestID: requestID,
	}
}

// Next reads the next semantic event from the SSE stream.
// Returns io.EOF when the transport is exhausted.
func (s *stream) Next() (analyst.Event, error) {
	switch s.state {
	case analyst.StreamStateComplete:
		return nil, io.EOF
	case analyst.StreamStateError:
		return nil, s.err
	case analyst.StreamStateClosed:
		return nil, fmt.Errorf("cortex: %w", analyst.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err == io.EOF {
			s.state = analyst.StreamStateComplete
			return nil, io.EOF
		}
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = analyst.StreamStateStreaming

		evt, err := parseEvent(eventType, data)
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}
		if evt != nil {
			return evt, nil
		}
		// Unknown event or delta type: skip and keep reading.
	}
}

// State returns the current stream state.
func (s *stream) State() analyst.StreamState {
	return s.state
}

// RequestID returns the service-assigned request identifier.
func (s *stream) RequestID() string {
	return s.requestID
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != analyst.StreamStateComplete && s.state != analyst.StreamStateError {
		s.state = analyst.StreamStateClosed
	}
	return s.body.Close()
}

// terminate records a terminal error and the matching state.
func (s *stream) terminate(err error) {
	s.state = analyst.StreamStateError
	if s.ctx.Err() != nil {
		s.err = s.ctx.Err()
		return
	}
	s.err = err
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			// Empty line signals end of event.
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			// Empty event, keep reading.
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Ignore comments (lines starting with ':') and unknown fields.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("cortex: %w", err)
	}

	// Scanner exhausted without error = EOF.
	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// parseEvent maps an SSE event to a semantic analyst.Event. Returns a nil
// event for unknown event types and unknown delta kinds.
func parseEvent(eventType, data string) (analyst.Event, error) {
	switch eventType {
	case eventContentDelta:
		return parseContentDelta(data)
	case eventStatus:
		return parseStatus(data)
	case eventError:
		// The payload is surfaced verbatim; its shape is service-defined.
		return analyst.EventError{Payload: json.RawMessage(data)}, nil
	default:
		return nil, nil
	}
}

func parseContentDelta(data string) (analyst.Event, error) {
	var payload sseContentDelta
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("cortex: parse %s event: %w", eventContentDelta, err)
	}
	if payload.Index == nil {
		return nil, &analyst.MalformedEventError{EventType: eventContentDelta, Field: "index"}
	}
	if payload.Type == nil {
		return nil, &analyst.MalformedEventError{EventType: eventContentDelta, Field: "type"}
	}

	switch *payload.Type {
	case "text":
		if payload.TextDelta == nil {
			return nil, &analyst.MalformedEventError{EventType: eventContentDelta, Field: "text_delta"}
		}
		return analyst.EventTextDelta{Index: *payload.Index, Delta: *payload.TextDelta}, nil

	case "sql":
		if payload.StatementDelta == nil {
			return nil, &analyst.MalformedEventError{EventType: eventContentDelta, Field: "statement_delta"}
		}
		return analyst.EventSQLDelta{Index: *payload.Index, Delta: *payload.StatementDelta}, nil

	case "suggestions":
		sd := payload.SuggestionsDelta
		if sd == nil {
			return nil, &analyst.MalformedEventError{EventType: eventContentDelta, Field: "suggestions_delta"}
		}
		if sd.Index == nil {
			return nil, &analyst.MalformedEventError{EventType: eventContentDelta, Field: "suggestions_delta.index"}
		}
		if sd.SuggestionDelta == nil {
			return nil, &analyst.MalformedEventError{EventType: eventContentDelta, Field: "suggestions_delta.suggestion_delta"}
		}
		return analyst.EventSuggestionDelta{
			Index:           *payload.Index,
			SuggestionIndex: *sd.Index,
			Delta:           *sd.SuggestionDelta,
		}, nil

	default:
		// Unknown delta kinds are skipped so the service can add new ones.
		return nil, nil
	}
}

func parseStatus(data string) (analyst.Event, error) {
	var payload sseStatus
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("cortex: parse %s event: %w", eventStatus, err)
	}
	if payload.StatusMessage == nil {
		return nil, &analyst.MalformedEventError{EventType: eventStatus, Field: "status_message"}
	}
	return analyst.EventStatus{Message: *payload.StatusMessage}, nil
}
