package query

import (
	"sort"
	"sync"
)

type TraceEventKind string

const (
	TraceEventScopedEntityIDs     TraceEventKind = "scoped_entity_ids"
	TraceEventConsideredSourceIDs TraceEventKind = "considered_source_ids"
	TraceEventUsedSourceIDs       TraceEventKind = "used_source_ids"
)

// TraceEvent is an extensible event envelope for query tracing.
type TraceEvent struct {
	Kind TraceEventKind

	SourceIDs []string
	EntityIDs []string
}

// Tracer is a sink for query tracing events.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func RecordScopedEntityIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventScopedEntityIDs, EntityIDs: ids})
}

func RecordConsideredSourceIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventConsideredSourceIDs, SourceIDs: ids})
}

func RecordUsedSourceIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventUsedSourceIDs, SourceIDs: ids})
}

// QueryTrace collects which entities scoped a query and which fragments
// were considered and cited.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu sync.Mutex

	scopedEntityIDs     map[string]struct{}
	consideredSourceIDs map[string]struct{}
	usedSourceIDs       map[string]struct{}
}

type QueryTraceSnapshot struct {
	ScopedEntityIDs     []string `json:"scoped_entity_ids"`
	ConsideredSourceIDs []string `json:"considered_source_ids"`
	UsedSourceIDs       []string `json:"used_source_ids"`
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{
		scopedEntityIDs:     make(map[string]struct{}),
		consideredSourceIDs: make(map[string]struct{}),
		usedSourceIDs:       make(map[string]struct{}),
	}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []string
	var into map[string]struct{}
	switch event.Kind {
	case TraceEventScopedEntityIDs:
		ids, into = event.EntityIDs, t.scopedEntityIDs
	case TraceEventConsideredSourceIDs:
		ids, into = event.SourceIDs, t.consideredSourceIDs
	case TraceEventUsedSourceIDs:
		ids, into = event.SourceIDs, t.usedSourceIDs
	default:
		return
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		into[id] = struct{}{}
	}
}

func (t *QueryTrace) Snapshot() QueryTraceSnapshot {
	if t == nil {
		return QueryTraceSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return QueryTraceSnapshot{
		ScopedEntityIDs:     sortedKeys(t.scopedEntityIDs),
		ConsideredSourceIDs: sortedKeys(t.consideredSourceIDs),
		UsedSourceIDs:       sortedKeys(t.usedSourceIDs),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
