package analyst_test

import (
	"testing"

	analyst "github.com/ledgerline/analyst"
	"github.com/stretchr/testify/assert"
)

func TestContentDelta_BlockIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event analyst.ContentDelta
		want  int
	}{
		{"text delta", analyst.EventTextDelta{Index: 0, Delta: "hi"}, 0},
		{"sql delta", analyst.EventSQLDelta{Index: 3, Delta: "SELECT"}, 3},
		{"suggestion delta", analyst.EventSuggestionDelta{Index: 7, SuggestionIndex: 1, Delta: "q"}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.event.BlockIndex())
		})
	}
}

func TestStatusAndErrorAreNotContentDeltas(t *testing.T) {
	t.Parallel()

	var status analyst.Event = analyst.EventStatus{Message: "done"}
	_, ok := status.(analyst.ContentDelta)
	assert.False(t, ok)

	var errEvt analyst.Event = analyst.EventError{}
	_, ok = errEvt.(analyst.ContentDelta)
	assert.False(t, ok)
}
