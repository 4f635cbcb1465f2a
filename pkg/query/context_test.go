package query

import (
	"fmt"
	"slices"
	"testing"

	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/index"

	"github.com/stretchr/testify/assert"
)

func fragmentsFor(ids ...string) common.FragmentMap {
	m := common.FragmentMap{}
	for _, id := range ids {
		m.Add(common.Fragment{ID: id, Text: "text of " + id})
	}
	return m
}

func hitsFor(ids ...string) []index.Hit {
	hits := make([]index.Hit, len(ids))
	for i, id := range ids {
		hits[i] = index.Hit{ID: id, Score: 1 - float64(i)/100}
	}
	return hits
}

func contextIDs(items []ContextItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestScopedFragments(t *testing.T) {
	hits := hitsFor("PCH:b", "PCH:stale", "PCH:a", "TBL:t", "PCH:c")
	fragments := fragmentsFor("PCH:a", "PCH:b", "PCH:c", "TBL:t")

	unscoped := slices.Collect(ScopedFragments(hits, nil, fragments))
	assert.Equal(t, []string{"PCH:b", "PCH:a", "TBL:t", "PCH:c"}, contextIDs(unscoped))
	assert.Equal(t, "text of PCH:b", unscoped[0].Text)

	scoped := slices.Collect(ScopedFragments(hits, Scope{"PCH:a": {}, "TBL:t": {}, "PCH:stale": {}}, fragments))
	assert.Equal(t, []string{"PCH:a", "TBL:t"}, contextIDs(scoped))

	empty := slices.Collect(ScopedFragments(hits, Scope{}, fragments))
	assert.Empty(t, empty)
}

func TestTopContext_Cap(t *testing.T) {
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprintf("PCH:%02d", i)
	}

	items := TopContext(ScopedFragments(hitsFor(ids...), nil, fragmentsFor(ids...)), DefaultContextSize)
	assert.Len(t, items, 12)
	assert.Equal(t, ids[:12], contextIDs(items))
}

func TestTopContext_StopsEarly(t *testing.T) {
	pulled := 0
	seq := func(yield func(ContextItem) bool) {
		for i := 0; i < 100; i++ {
			pulled++
			if !yield(ContextItem{ID: fmt.Sprint(i)}) {
				return
			}
		}
	}

	items := TopContext(seq, 3)
	assert.Len(t, items, 3)
	assert.Equal(t, 3, pulled)
}

func TestTopContext_Empty(t *testing.T) {
	items := TopContext(ScopedFragments(nil, nil, nil), 12)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	items = TopContext(ScopedFragments(hitsFor("PCH:a"), nil, fragmentsFor("PCH:a")), 0)
	assert.Empty(t, items)
}
