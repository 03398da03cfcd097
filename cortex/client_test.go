package cortex_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	analyst "github.com/ledgerline/analyst"
	"github.com/ledgerline/analyst/cortex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() analyst.Request {
	return analyst.Request{
		SemanticModel: "@PAY_DB.ANALYTICS.MODELS/payments.smd",
		Messages: []analyst.Message{
			analyst.UserMessage{Content: []analyst.ContentBlock{
				analyst.TextBlock{Text: "total volume by region?"},
			}},
		},
	}
}

func TestClientStreamHappyPath(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/cortex/analyst/message", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
			SemanticModelFile string `json:"semantic_model_file"`
			Stream            bool   `json:"stream"`
		}
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &body))
		assert.True(t, body.Stream)
		assert.Equal(t, "@PAY_DB.ANALYTICS.MODELS/payments.smd", body.SemanticModelFile)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)

		w.Header().Set("X-Snowflake-Request-Id", "req-42")
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: message.content.delta\n"+
			`data: {"index":0,"type":"text","text_delta":"hello"}`+"\n\n"+
			"event: status\n"+
			`data: {"status_message":"done"}`+"\n\n")
	}))
	defer srv.Close()

	client := cortex.New(srv.URL, "tok-1")
	stream, err := client.Stream(context.Background(), validRequest())
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, "req-42", stream.RequestID())

	evt, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, analyst.EventTextDelta{Index: 0, Delta: "hello"}, evt)

	evt, err = stream.Next()
	require.NoError(t, err)
	assert.Equal(t, analyst.EventStatus{Message: "done"}, evt)
}

func TestClientFiltersTablesAndErrorNotesFromHistory(t *testing.T) {
	t.Parallel()

	var got struct {
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &got))
		_, _ = io.WriteString(w, "event: status\ndata: {\"status_message\":\"done\"}\n\n")
	}))
	defer srv.Close()

	req := analyst.Request{
		SemanticModel: "@PAY_DB.ANALYTICS.MODELS/payments.smd",
		Messages: []analyst.Message{
			analyst.UserMessage{Content: []analyst.ContentBlock{analyst.TextBlock{Text: "q1"}}},
			analyst.AnalystMessage{Content: []analyst.ContentBlock{
				analyst.TextBlock{Text: "answer text"},
				analyst.TableBlock{Columns: []string{"C"}, Rows: [][]string{{"1"}}},
				analyst.ErrorNoteBlock{Note: "transient failure"},
			}},
			analyst.UserMessage{Content: []analyst.ContentBlock{analyst.TextBlock{Text: "q2"}}},
		},
	}

	client := cortex.New(srv.URL, "tok")
	stream, err := client.Stream(context.Background(), req)
	require.NoError(t, err)
	defer stream.Close()

	require.Len(t, got.Messages, 3)
	assert.Equal(t, "analyst", got.Messages[1].Role)
	// Table and error note were dropped; only the text block survives.
	require.Len(t, got.Messages[1].Content, 1)
	assert.Equal(t, "answer text", got.Messages[1].Content[0].Text)
}

func TestClientHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("structured error body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"code":"390112","message":"semantic model not found"}`)
		}))
		defer srv.Close()

		client := cortex.New(srv.URL, "tok")
		_, err := client.Stream(context.Background(), validRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "390112")
		assert.Contains(t, err.Error(), "semantic model not found")
	})

	t.Run("opaque error body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream unavailable")
		}))
		defer srv.Close()

		client := cortex.New(srv.URL, "tok")
		_, err := client.Stream(context.Background(), validRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 502")
		assert.Contains(t, err.Error(), "upstream unavailable")
	})
}

func TestClientRejectsInvalidRequest(t *testing.T) {
	t.Parallel()

	client := cortex.New("http://unused.invalid", "tok")
	_, err := client.Stream(context.Background(), analyst.Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, analyst.ErrValidation)
}
