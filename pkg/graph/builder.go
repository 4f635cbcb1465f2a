package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/ids"
	"github.com/docgraph/docgraph/pkg/loader"
	"github.com/docgraph/docgraph/pkg/logger"
)

const (
	// EntityTypeVendor is the type tag of sniffed primary entities.
	EntityTypeVendor = "Vendor"

	maxLineItemDesc = 200
)

// Result is everything one document contributes to the corpus.
type Result struct {
	Graph   *Graph
	Summary common.Summary
	// Fragments holds table-row fragments followed by paragraph fragments.
	Fragments []common.Fragment
}

// Builder turns one document into a graph fragment, a summary record and
// fragment records. It holds no per-document state and may be shared
// between goroutines.
type Builder struct {
	extractor loader.DocumentExtractor
	adapter   *loader.FragmentAdapter
	sniffer   Sniffer
}

// NewBuilder creates a Builder. A nil sniffer selects NewPatternSniffer.
func NewBuilder(extractor loader.DocumentExtractor, sniffer Sniffer) *Builder {
	if sniffer == nil {
		sniffer = NewPatternSniffer()
	}
	return &Builder{
		extractor: extractor,
		adapter:   loader.NewFragmentAdapter(extractor),
		sniffer:   sniffer,
	}
}

// DocumentID derives the ID of a document from its name and size.
func DocumentID(file loader.GraphFile) string {
	return ids.Make(ids.KindDocument, map[string]any{"name": file.Name, "size": file.Size})
}

// EntityID derives the ID of an entity from its type and name. Names are
// compared case-insensitively with runs of whitespace collapsed, so the same
// party found in several documents maps to one node.
func EntityID(entityType, name string) string {
	return ids.Make(ids.KindEntity, map[string]any{"type": entityType, "name": NormalizeName(name)})
}

// NormalizeName lower-cases name and collapses whitespace.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// BuildDocument extracts and links the contents of file.
//
// A paragraph extraction error is returned. A table extraction error is
// logged and the document is built without table rows. Data cached for file
// by the extractor or its loader is released before returning.
func (b *Builder) BuildDocument(ctx context.Context, file loader.GraphFile) (*Result, error) {
	defer loader.ReleaseFile(b.extractor, file)

	g := New()
	docID := DocumentID(file)
	g.AddNode(Node{ID: docID, Label: LabelDocument, DocName: file.Name, Path: file.FilePath})

	paragraphs, err := b.adapter.Paragraphs(ctx, docID, file)
	if err != nil {
		return nil, fmt.Errorf("failed to extract paragraphs from %s: %w", file.Name, err)
	}

	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Text
	}
	meta := b.sniffer.Sniff(strings.Join(texts, "\n"))

	entityID := ""
	if meta.Entity != nil {
		entityID = EntityID(EntityTypeVendor, *meta.Entity)
		g.AddNode(Node{ID: entityID, Label: LabelEntity, Type: EntityTypeVendor, Name: *meta.Entity})
		g.AddEdge(docID, entityID, RelHasEntity)
	}

	rows, err := b.adapter.TableRows(ctx, docID, file)
	if err != nil {
		logger.Warn("[Graph] Table extraction failed, continuing without table rows", "file", file.Name, "err", err)
		rows = nil
	}

	items := make([]common.LineItem, 0)
	for _, row := range rows {
		g.AddNode(Node{ID: row.ID, Label: LabelChunk, Type: string(row.Type), DocName: row.DocName, Page: row.Page})
		g.AddEdge(docID, row.ID, RelHasChunk)

		item, ok := lineItemFromRow(row.Text, row.Page)
		if !ok {
			continue
		}
		items = append(items, item)

		itemID := ids.Make(ids.KindLineItem, map[string]any{
			"doc":   docID,
			"chunk": row.ID,
			"page":  row.Page,
			"desc":  item.Desc,
			"ext":   *item.ExtCost,
		})
		g.AddNode(Node{ID: itemID, Label: LabelLineItem, Desc: item.Desc, ExtCost: item.ExtCost, Page: row.Page})
		g.AddEdge(row.ID, itemID, RelHasLineItem)
		if entityID != "" {
			g.AddEdge(itemID, entityID, RelItemFor)
		}
	}

	for _, p := range paragraphs {
		g.AddNode(Node{ID: p.ID, Label: LabelChunk, Type: string(p.Type), DocName: p.DocName})
		g.AddEdge(docID, p.ID, RelHasChunk)
		if entityID != "" {
			g.AddEdge(p.ID, entityID, RelMentions)
		}
	}

	fragments := make([]common.Fragment, 0, len(rows)+len(paragraphs))
	fragments = append(fragments, rows...)
	fragments = append(fragments, paragraphs...)

	return &Result{
		Graph: g,
		Summary: common.Summary{
			DocID:      docID,
			DocName:    file.Name,
			Vendor:     meta.Entity,
			GrandTotal: meta.Total,
			Items:      items,
		},
		Fragments: fragments,
	}, nil
}

// lineItemFromRow builds a line item from a table row whose last cell is a
// currency amount.
func lineItemFromRow(text string, page *int) (common.LineItem, bool) {
	parts := strings.Split(text, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return common.LineItem{}, false
	}
	cost, ok := ParseMoney(parts[len(parts)-1])
	if !ok {
		return common.LineItem{}, false
	}

	desc := strings.Join(parts[:len(parts)-1], loader.CellSeparator)
	if runes := []rune(desc); len(runes) > maxLineItemDesc {
		desc = string(runes[:maxLineItemDesc])
	}
	return common.LineItem{Desc: desc, ExtCost: &cost, Page: page}, true
}
