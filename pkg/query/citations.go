package query

import (
	"regexp"
	"strings"

	"github.com/docgraph/docgraph/pkg/common"
)

var citationPattern = regexp.MustCompile(`\[\[\s*([^\[\]\s]+)\s*\]\]`)

// ExtractCitationIDs returns the IDs of [[id]] markers in text in order of
// first appearance.
func ExtractCitationIDs(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// cleanID strips citation brackets a model may have copied into a
// declared source.
func cleanID(id string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(id), "[]"))
}

// ResolveCitations maps cited fragment IDs to their document, page and
// kind. IDs unknown to fragments are kept with empty provenance.
func ResolveCitations(fragments common.FragmentMap, ids []string) []common.Citation {
	out := make([]common.Citation, 0, len(ids))
	for _, id := range ids {
		f := fragments[id]
		out = append(out, common.Citation{
			ID:      id,
			DocName: f.DocName,
			Page:    f.Page,
			Type:    f.Type,
		})
	}
	return out
}
