package query

import (
	"iter"

	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/index"
)

// ContextItem is one fragment handed to the answerer.
type ContextItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ScopedFragments yields, in hit order, the fragments of hits allowed by
// scope. Hits missing from fragments are stale index entries and are
// skipped.
func ScopedFragments(hits []index.Hit, scope Scope, fragments common.FragmentMap) iter.Seq[ContextItem] {
	return func(yield func(ContextItem) bool) {
		for _, h := range hits {
			if !scope.Allows(h.ID) {
				continue
			}
			f, ok := fragments[h.ID]
			if !ok {
				continue
			}
			if !yield(ContextItem{ID: h.ID, Text: f.Text}) {
				return
			}
		}
	}
}

// TopContext takes at most k items from items. The result is never nil.
func TopContext(items iter.Seq[ContextItem], k int) []ContextItem {
	out := make([]ContextItem, 0, max(k, 0))
	if k <= 0 {
		return out
	}
	for item := range items {
		out = append(out, item)
		if len(out) >= k {
			break
		}
	}
	return out
}
