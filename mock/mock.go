// Package mock provides test doubles for analyst interfaces using function fields.
package mock

import (
	"context"
	"io"

	analyst "github.com/ledgerline/analyst"
)

// Interface compliance checks.
var (
	_ analyst.Provider = (*Provider)(nil)
	_ analyst.Stream   = (*Stream)(nil)
	_ analyst.Querier  = (*Querier)(nil)
)

// Provider is a test double for analyst.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req analyst.Request) (analyst.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req analyst.Request) (analyst.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Stream is a test double for analyst.Stream.
// NextFn panics when nil to catch missing setup. The other function fields
// are nil-safe (zero value, no-op) because test code commonly calls
// defer stream.Close() and rarely needs custom behavior for them.
type Stream struct {
	NextFn      func() (analyst.Event, error)
	StateFn     func() analyst.StreamState
	RequestIDFn func() string
	CloseFn     func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (analyst.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() analyst.StreamState {
	if s.StateFn == nil {
		return analyst.StreamStateNew
	}
	return s.StateFn()
}

// RequestID delegates to RequestIDFn. Returns "" when RequestIDFn is nil.
func (s *Stream) RequestID() string {
	if s.RequestIDFn == nil {
		return ""
	}
	return s.RequestIDFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Querier is a test double for analyst.Querier.
// Set QueryFn before calling Query.
type Querier struct {
	QueryFn func(ctx context.Context, statement string) (analyst.TableBlock, error)
}

// Query delegates to QueryFn.
func (q *Querier) Query(ctx context.Context, statement string) (analyst.TableBlock, error) {
	return q.QueryFn(ctx, statement)
}

// EventStream returns a Stream whose Next yields the given events in order
// followed by io.EOF. Handy for decoder and loop tests.
func EventStream(events ...analyst.Event) *Stream {
	i := 0
	return &Stream{
		NextFn: func() (analyst.Event, error) {
			if i >= len(events) {
				return nil, io.EOF
			}
			evt := events[i]
			i++
			return evt, nil
		},
	}
}
