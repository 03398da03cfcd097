package cortex

import (
	"context"
	"io"
	"strings"
	"testing"

	analyst "github.com/ledgerline/analyst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseBody(events ...string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(strings.Join(events, "")))
}

func sse(event, data string) string {
	return "event: " + event + "\ndata: " + data + "\n\n"
}

// drainEvents pulls every event until io.EOF.
func drainEvents(t *testing.T, s *stream) []analyst.Event {
	t.Helper()
	var events []analyst.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
}

func TestStreamParsesContentDeltas(t *testing.T) {
	t.Parallel()

	s := newStream(context.Background(), sseBody(
		sse("message.content.delta", `{"index":0,"type":"text","text_delta":"Total volume "}`),
		sse("message.content.delta", `{"index":1,"type":"sql","statement_delta":"SELECT 1"}`),
		sse("message.content.delta", `{"index":2,"type":"suggestions","suggestions_delta":{"index":0,"suggestion_delta":"Try monthly?"}}`),
		sse("status", `{"status_message":"done"}`),
	), "req-123")

	events := drainEvents(t, s)
	require.Len(t, events, 4)

	assert.Equal(t, analyst.EventTextDelta{Index: 0, Delta: "Total volume "}, events[0])
	assert.Equal(t, analyst.EventSQLDelta{Index: 1, Delta: "SELECT 1"}, events[1])
	assert.Equal(t, analyst.EventSuggestionDelta{Index: 2, SuggestionIndex: 0, Delta: "Try monthly?"}, events[2])
	assert.Equal(t, analyst.EventStatus{Message: "done"}, events[3])

	assert.Equal(t, analyst.StreamStateComplete, s.State())
	assert.Equal(t, "req-123", s.RequestID())
}

func TestStreamSurfacesErrorEventVerbatim(t *testing.T) {
	t.Parallel()

	payload := `{"code":"390112","message":"semantic model not found"}`
	s := newStream(context.Background(), sseBody(sse("error", payload)), "")

	evt, err := s.Next()
	require.NoError(t, err)
	errEvt, ok := evt.(analyst.EventError)
	require.True(t, ok)
	assert.JSONEq(t, payload, string(errEvt.Payload))
}

func TestStreamSkipsUnknownEventAndDeltaTypes(t *testing.T) {
	t.Parallel()

	s := newStream(context.Background(), sseBody(
		sse("ping", `{}`),
		sse("message.content.delta", `{"index":0,"type":"chart","chart_delta":"{}"}`),
		sse("message.content.delta", `{"index":1,"type":"text","text_delta":"hi"}`),
	), "")

	events := drainEvents(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, analyst.EventTextDelta{Index: 1, Delta: "hi"}, events[0])
}

func TestStreamMalformedPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			"missing index",
			sse("message.content.delta", `{"type":"text","text_delta":"x"}`),
			"index",
		},
		{
			"missing type",
			sse("message.content.delta", `{"index":0,"text_delta":"x"}`),
			"type",
		},
		{
			"text without text_delta",
			sse("message.content.delta", `{"index":0,"type":"text"}`),
			"text_delta",
		},
		{
			"sql without statement_delta",
			sse("message.content.delta", `{"index":0,"type":"sql"}`),
			"statement_delta",
		},
		{
			"suggestions without suggestions_delta",
			sse("message.content.delta", `{"index":0,"type":"suggestions"}`),
			"suggestions_delta",
		},
		{
			"suggestions_delta without index",
			sse("message.content.delta", `{"index":0,"type":"suggestions","suggestions_delta":{"suggestion_delta":"x"}}`),
			"suggestions_delta.index",
		},
		{
			"suggestions_delta without suggestion_delta",
			sse("message.content.delta", `{"index":0,"type":"suggestions","suggestions_delta":{"index":0}}`),
			"suggestions_delta.suggestion_delta",
		},
		{
			"status without status_message",
			sse("status", `{"progress":40}`),
			"status_message",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newStream(context.Background(), sseBody(tt.body), "")

			_, err := s.Next()
			var me *analyst.MalformedEventError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.wantField, me.Field)
			assert.Equal(t, analyst.StreamStateError, s.State())

			// Terminal: the same error comes back on the next pull.
			_, err2 := s.Next()
			assert.ErrorAs(t, err2, &me)
		})
	}
}

func TestStreamInvalidJSONIsNotALookupFault(t *testing.T) {
	t.Parallel()

	s := newStream(context.Background(), sseBody(
		sse("message.content.delta", `{"index":`),
	), "")

	_, err := s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse message.content.delta event")
}

func TestStreamMultilineDataAndComments(t *testing.T) {
	t.Parallel()

	body := ": keepalive\n" +
		"event: message.content.delta\n" +
		"data: {\"index\":0,\"type\":\"text\",\n" +
		"data: \"text_delta\":\"joined\"}\n\n"
	s := newStream(context.Background(), sseBody(body), "")

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, analyst.EventTextDelta{Index: 0, Delta: "joined"}, evt)
}

func TestStreamCloseBeforeTerminalState(t *testing.T) {
	t.Parallel()

	s := newStream(context.Background(), sseBody(
		sse("message.content.delta", `{"index":0,"type":"text","text_delta":"x"}`),
	), "")

	require.NoError(t, s.Close())
	assert.Equal(t, analyst.StreamStateClosed, s.State())

	_, err := s.Next()
	assert.ErrorIs(t, err, analyst.ErrStreamClosed)
}
