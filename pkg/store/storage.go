package store

import (
	"context"
	"errors"

	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/graph"
)

// ErrNotBuilt is returned when a persisted artifact the query path needs
// does not exist yet.
var ErrNotBuilt = errors.New("index not built")

// GraphStorage persists the artifacts of a corpus run: the corpus graph,
// the per-document summaries and the fragment map.
//
// Storage is batch oriented with a single writer. Every Save replaces the
// previous artifact wholesale. Loads of missing artifacts fail with an
// error wrapping ErrNotBuilt.
type GraphStorage interface {
	SaveGraph(ctx context.Context, g *graph.Graph) error
	LoadGraph(ctx context.Context) (*graph.Graph, error)

	SaveSummaries(ctx context.Context, summaries []common.Summary) error
	LoadSummaries(ctx context.Context) ([]common.Summary, error)

	SaveFragments(ctx context.Context, fragments common.FragmentMap) error
	LoadFragments(ctx context.Context) (common.FragmentMap, error)
}
