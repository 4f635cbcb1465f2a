package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docgraph/docgraph/internal/util"
	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/graph"
	"github.com/docgraph/docgraph/pkg/index"
	"github.com/docgraph/docgraph/pkg/logger"
)

var (
	// ErrRetrieval is returned when searching or answering fails or times out.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrEmptyQuestion is returned by Ask for a blank question.
	ErrEmptyQuestion = errors.New("question must not be empty")
)

const (
	DefaultContextSize = 12
	DefaultSearchLimit = 60
	DefaultTimeout     = 2 * time.Minute
)

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	// ContextSize caps the fragments handed to the answerer.
	ContextSize int
	// SearchLimit is how many hits are fetched before scope filtering.
	SearchLimit int
	// Timeout bounds search plus answer for one question.
	Timeout    time.Duration
	MaxRetries int
	Tracer     Tracer
}

// Snapshot is the read-only state a question is answered from.
type Snapshot struct {
	Graph     *graph.Graph
	Fragments common.FragmentMap
	Index     index.SemanticIndex
}

// SnapshotLoader reads the persisted artifacts. Missing artifacts should
// surface as store.ErrNotBuilt or index.ErrNotBuilt.
type SnapshotLoader func(ctx context.Context) (*Snapshot, error)

// Response is the outcome of Ask.
type Response struct {
	Question  string             `json:"question"`
	Answer    string             `json:"answer"`
	Citations []common.Citation  `json:"citations"`
	Trace     QueryTraceSnapshot `json:"trace"`
}

// Engine answers questions over a corpus snapshot. The snapshot is loaded
// on first use and replaced atomically by Reload, so Ask never blocks on
// other questions.
type Engine struct {
	load     SnapshotLoader
	answerer Answerer
	opts     Options

	snap     atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// NewEngine creates an Engine.
func NewEngine(load SnapshotLoader, answerer Answerer, opts Options) *Engine {
	if opts.ContextSize <= 0 {
		opts.ContextSize = DefaultContextSize
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	return &Engine{load: load, answerer: answerer, opts: opts}
}

// Reload reads the artifacts again and swaps them in. On failure the
// current snapshot stays in place.
func (e *Engine) Reload(ctx context.Context) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()
	_, err := e.reload(ctx)
	return err
}

func (e *Engine) reload(ctx context.Context) (*Snapshot, error) {
	snap, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	old := e.snap.Swap(snap)
	if old != nil && old.Index != nil && old.Index != snap.Index {
		if err := old.Index.Close(); err != nil {
			logger.Warn("[Query] Failed to close previous index", "err", err)
		}
	}
	logger.Info("[Query] Loaded snapshot", "nodes", snap.Graph.NodeCount(), "edges", snap.Graph.EdgeCount(), "fragments", len(snap.Fragments))
	return snap, nil
}

func (e *Engine) snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := e.snap.Load(); snap != nil {
		return snap, nil
	}
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()
	if snap := e.snap.Load(); snap != nil {
		return snap, nil
	}
	return e.reload(ctx)
}

// Close releases the current snapshot's index.
func (e *Engine) Close() error {
	snap := e.snap.Swap(nil)
	if snap == nil || snap.Index == nil {
		return nil
	}
	return snap.Index.Close()
}

// Ask answers question, restricted to chunks connected to entities when
// any are given. Entities that match nothing yield an empty context, never
// a fallback to unscoped search.
func (e *Engine) Ask(ctx context.Context, question string, entities []string) (*Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	trace := NewQueryTrace()
	tracer := MultiTracer{trace, e.opts.Tracer}

	scope := EntityScope(snap.Graph, entities)
	if scope != nil {
		RecordScopedEntityIDs(tracer, entityIDs(snap.Graph, entities)...)
	}

	rCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	hits, err := util.RetryWithContext(rCtx, e.opts.MaxRetries, func(ctx context.Context) ([]index.Hit, error) {
		return snap.Index.Search(ctx, question, e.opts.SearchLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrRetrieval, err)
	}

	items := TopContext(ScopedFragments(hits, scope, snap.Fragments), e.opts.ContextSize)
	considered := make([]string, len(items))
	for i, item := range items {
		considered[i] = item.ID
	}
	RecordConsideredSourceIDs(tracer, considered...)

	logger.Debug("[Query] Built context", "hits", len(hits), "scoped", scope != nil, "scope_size", len(scope), "context", len(items))

	ans, err := util.RetryWithContext(rCtx, e.opts.MaxRetries, func(ctx context.Context) (Answer, error) {
		return e.answerer.Answer(ctx, question, items)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: answer: %w", ErrRetrieval, err)
	}
	RecordUsedSourceIDs(tracer, ans.CitedIDs...)

	return &Response{
		Question:  question,
		Answer:    ans.Text,
		Citations: ResolveCitations(snap.Fragments, ans.CitedIDs),
		Trace:     trace.Snapshot(),
	}, nil
}
