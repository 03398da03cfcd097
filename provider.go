package analyst

import "context"

// Provider is a strategy pattern interface for conversational analytics
// backends. Stream opens one streaming answer turn for the given request.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
