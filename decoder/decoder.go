// Package decoder turns a stream of analytics events into display fragments.
//
// The decoder is pull-driven: it advances only when the caller asks for the
// next fragment, so one render loop can consume it synchronously. One
// Decoder instance covers one decode pass; a fresh instance is created per
// streaming pass and discarded once a status or error event is observed.
package decoder

import (
	"encoding/json"
	"io"
	"iter"

	analyst "github.com/ledgerline/analyst"
)

// Fragment boundaries emitted around content blocks. Fenced SQL regions are
// opened exactly once per SQL block and closed exactly once, either when a
// new block begins or when the stream ends mid-block.
const (
	sqlOpen         = "```sql\n"
	sqlClose        = "\n```\n\n"
	suggestionIntro = "\nHere are some example questions:\n\n- "
	suggestionItem  = "\n- "
)

// blockKind identifies the kind of the previously observed content block.
type blockKind int

const (
	kindNone blockKind = iota
	kindText
	kindSQL
	kindSuggestions
)

// noIndex is the sentinel for "no block seen yet".
const noIndex = -1

// Source is the pull-based event source the decoder consumes. It is
// satisfied by [analyst.Stream].
type Source interface {
	Next() (analyst.Event, error)
}

// Decoder produces markdown fragments from a Source. Zero value is not
// usable; construct with New.
type Decoder struct {
	src Source

	prevIndex      int
	prevKind       blockKind
	prevSuggestion int

	// queue holds fragments produced by one event but not yet returned.
	// A single event can produce up to three fragments (fence close, fence
	// open or list marker, delta).
	queue []string

	status   string
	errEvent json.RawMessage
	done     bool
}

// New creates a Decoder reading from src with fresh accumulator state.
func New(src Source) *Decoder {
	return &Decoder{
		src:            src,
		prevIndex:      noIndex,
		prevKind:       kindNone,
		prevSuggestion: noIndex,
	}
}

// Next returns the next display fragment in stream order. It returns io.EOF
// when the pass is over: the source is exhausted, or a status or error event
// stopped it (check Status and ErrorPayload afterwards). Transport errors,
// including [analyst.MalformedEventError], are returned unchanged and abort
// the pass.
func (d *Decoder) Next() (string, error) {
	for len(d.queue) == 0 {
		if d.done {
			return "", io.EOF
		}

		evt, err := d.src.Next()
		if err == io.EOF {
			// End of stream without a terminal marker: normal completion
			// of this pass. An open SQL fence still gets closed.
			d.done = true
			if d.prevKind == kindSQL {
				d.prevKind = kindNone
				d.queue = append(d.queue, sqlClose)
			}
			continue
		}
		if err != nil {
			d.done = true
			return "", err
		}

		d.process(evt)
	}

	frag := d.queue[0]
	d.queue = d.queue[1:]
	return frag, nil
}

// process applies one event to the accumulator state, appending any
// resulting fragments to the queue.
func (d *Decoder) process(evt analyst.Event) {
	delta, isDelta := evt.(analyst.ContentDelta)
	newBlock := !isDelta || delta.BlockIndex() != d.prevIndex

	// A still-open SQL fence closes before anything from the new block,
	// including terminal events, is handled.
	if d.prevKind == kindSQL && newBlock {
		d.queue = append(d.queue, sqlClose)
	}

	switch e := evt.(type) {
	case analyst.EventTextDelta:
		d.queue = append(d.queue, e.Delta)
		d.prevIndex, d.prevKind = e.Index, kindText

	case analyst.EventSQLDelta:
		if newBlock {
			d.queue = append(d.queue, sqlOpen)
		}
		d.queue = append(d.queue, e.Delta)
		d.prevIndex, d.prevKind = e.Index, kindSQL

	case analyst.EventSuggestionDelta:
		if newBlock {
			d.queue = append(d.queue, suggestionIntro)
		} else if e.SuggestionIndex != d.prevSuggestion {
			d.queue = append(d.queue, suggestionItem)
		}
		d.queue = append(d.queue, e.Delta)
		d.prevSuggestion = e.SuggestionIndex
		d.prevIndex, d.prevKind = e.Index, kindSuggestions

	case analyst.EventStatus:
		d.status = e.Message
		d.prevKind = kindNone
		d.done = true

	case analyst.EventError:
		d.errEvent = e.Payload
		d.prevKind = kindNone
		d.done = true
	}
}

// Status returns the status message recorded by a terminal status event, or
// "" if the pass ended without one.
func (d *Decoder) Status() string { return d.status }

// ErrorPayload returns the upstream error payload recorded by an error
// event, or nil. The payload is surfaced verbatim; it is the caller's job
// to display it and discard the in-progress turn.
func (d *Decoder) ErrorPayload() json.RawMessage { return d.errEvent }

// All returns an iterator over the remaining fragments, in stream order.
// Iteration ends at the end of the pass; a transport error is yielded as
// the final pair with an empty fragment. Breaking out of the range leaves
// the decoder usable for further Next calls.
func (d *Decoder) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			frag, err := d.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(frag, nil) {
				return
			}
		}
	}
}

// Drain pulls the remaining fragments and returns their concatenation.
// It stops at the end of the pass or at the first transport error.
func (d *Decoder) Drain() (string, error) {
	var out []byte
	for {
		frag, err := d.Next()
		if err == io.EOF {
			return string(out), nil
		}
		if err != nil {
			return string(out), err
		}
		out = append(out, frag...)
	}
}
