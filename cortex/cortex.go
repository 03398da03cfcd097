// Package cortex implements [analyst.Provider] for the hosted conversational
// analytics API.
//
// It posts the conversation to the message endpoint and parses the SSE
// response body into semantic events through the pull-based [analyst.Stream]
// interface. Only text content is replayed to the service: tables and error
// notes from earlier turns are filtered out when the request body is built.
package cortex

const (
	messagesPath    = "/api/v2/cortex/analyst/message"
	requestIDHeader = "X-Snowflake-Request-Id"
	tokenTypeHeader = "X-Snowflake-Authorization-Token-Type"

	eventContentDelta = "message.content.delta"
	eventStatus       = "status"
	eventError        = "error"
)

// apiRequest is the JSON body sent to the analytics message endpoint.
type apiRequest struct {
	Messages          []apiMessage `json:"messages"`
	SemanticModelFile string       `json:"semantic_model_file"`
	Stream            bool         `json:"stream"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"` // always "text" in outbound requests
	Text string `json:"text"`
}

// sseContentDelta is the payload of a message.content.delta event. Required
// fields are pointers so missing ones can be told apart from zero values.
type sseContentDelta struct {
	Index            *int                `json:"index"`
	Type             *string             `json:"type"`
	TextDelta        *string             `json:"text_delta"`
	StatementDelta   *string             `json:"statement_delta"`
	SuggestionsDelta *sseSuggestionDelta `json:"suggestions_delta"`
}

type sseSuggestionDelta struct {
	Index           *int    `json:"index"`
	SuggestionDelta *string `json:"suggestion_delta"`
}

// sseStatus is the payload of a status event.
type sseStatus struct {
	StatusMessage *string `json:"status_message"`
}

// apiErrorResponse is the body of a non-2xx HTTP response.
type apiErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}
