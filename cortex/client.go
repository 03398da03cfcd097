package cortex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	analyst "github.com/ledgerline/analyst"
)

// Interface compliance check.
var _ analyst.Provider = (*Client)(nil)

// Client implements [analyst.Provider] for the analytics message endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a debug logger. The default discards everything: the
// terminal UI owns stdout.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new [Client] for the service at baseURL, authenticating
// with the given bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
		logger:     log.New(io.Discard),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream sends a streaming request to the message endpoint and returns an
// [analyst.Stream] that emits semantic events.
func (c *Client) Stream(ctx context.Context, req analyst.Request) (analyst.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("cortex: %w", err)
	}

	body, err := json.Marshal(apiRequest{
		Messages:          convertMessages(req.Messages),
		SemanticModelFile: req.SemanticModel,
		Stream:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("cortex: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cortex: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set(tokenTypeHeader, "OAUTH")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cortex: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	requestID := resp.Header.Get(requestIDHeader)
	c.logger.Debug("request accepted", "request_id", requestID, "messages", len(req.Messages))

	return newStream(ctx, resp.Body, requestID), nil
}

// convertMessages builds the outbound message list. Tables and error notes
// are local display artifacts; only text blocks are replayed to the service.
func convertMessages(msgs []analyst.Message) []apiMessage {
	result := make([]apiMessage, 0, len(msgs))
	for _, msg := range msgs {
		var content []apiContentBlock
		var blocks []analyst.ContentBlock
		switch m := msg.(type) {
		case analyst.UserMessage:
			blocks = m.Content
		case analyst.AnalystMessage:
			blocks = m.Content
		}
		for _, b := range blocks {
			if tb, ok := b.(analyst.TextBlock); ok {
				content = append(content, apiContentBlock{Type: "text", Text: tb.Text})
			}
		}
		result = append(result, apiMessage{
			Role:    string(msg.Role()),
			Content: content,
		})
	}
	return result
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cortex: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		return fmt.Errorf("cortex: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("cortex: %s: %s", apiErr.Code, apiErr.Message)
}
