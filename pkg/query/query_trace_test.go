package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingTracer struct {
	events []TraceEvent
}

func (r *recordingTracer) Record(event TraceEvent) {
	r.events = append(r.events, event)
}

func TestQueryTrace_Snapshot(t *testing.T) {
	trace := NewQueryTrace()
	extra := &recordingTracer{}
	tracer := MultiTracer{trace, nil, extra}

	RecordScopedEntityIDs(tracer, "ENT:b", "ENT:a")
	RecordConsideredSourceIDs(tracer, "PCH:2", "PCH:1", "", "PCH:2")
	RecordUsedSourceIDs(tracer, "PCH:1")
	trace.Record(TraceEvent{Kind: "unknown", SourceIDs: []string{"PCH:9"}})

	assert.Equal(t, QueryTraceSnapshot{
		ScopedEntityIDs:     []string{"ENT:a", "ENT:b"},
		ConsideredSourceIDs: []string{"PCH:1", "PCH:2"},
		UsedSourceIDs:       []string{"PCH:1"},
	}, trace.Snapshot())
	assert.Len(t, extra.events, 3)
}

func TestQueryTrace_Nil(t *testing.T) {
	var trace *QueryTrace
	assert.NotPanics(t, func() {
		trace.Record(TraceEvent{Kind: TraceEventUsedSourceIDs, SourceIDs: []string{"x"}})
		RecordUsedSourceIDs(nil, "x")
	})
	assert.Equal(t, QueryTraceSnapshot{}, trace.Snapshot())
}
