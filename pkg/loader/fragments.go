package loader

import (
	"context"
	"strings"

	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/ids"
)

const (
	// paragraphIDTextLength is how much paragraph text is part of its ID.
	paragraphIDTextLength = 300
	// tableIDCellCount is how many leading cells are part of a row ID.
	tableIDCellCount = 10
	// CellSeparator joins the cells of a table row into fragment text.
	CellSeparator = " | "
)

// FragmentAdapter turns the output of a DocumentExtractor into uniform
// fragment records keyed by content-addressed IDs.
type FragmentAdapter struct {
	extractor DocumentExtractor
}

// NewFragmentAdapter wraps extractor.
func NewFragmentAdapter(extractor DocumentExtractor) *FragmentAdapter {
	return &FragmentAdapter{extractor: extractor}
}

// Paragraphs returns one fragment per non-blank paragraph of file in
// extractor order.
func (a *FragmentAdapter) Paragraphs(ctx context.Context, docID string, file GraphFile) ([]common.Fragment, error) {
	paragraphs, err := a.extractor.Paragraphs(ctx, file)
	if err != nil {
		return nil, err
	}
	return ParagraphFragments(docID, file, paragraphs), nil
}

// TableRows returns one fragment per non-blank table row of file in page,
// table and row order.
func (a *FragmentAdapter) TableRows(ctx context.Context, docID string, file GraphFile) ([]common.Fragment, error) {
	pages, err := a.extractor.Tables(ctx, file)
	if err != nil {
		return nil, err
	}
	return TableRowFragments(docID, file, pages), nil
}

// ParagraphFragments builds paragraph fragments. The paragraph position is
// part of the ID so identical paragraphs in one document stay distinct.
func ParagraphFragments(docID string, file GraphFile, paragraphs []string) []common.Fragment {
	out := make([]common.Fragment, 0, len(paragraphs))
	for i, text := range paragraphs {
		if strings.TrimSpace(text) == "" {
			continue
		}
		id := ids.Make(ids.KindParagraph, map[string]any{
			"doc": docID,
			"i":   i,
			"t":   truncateRunes(text, paragraphIDTextLength),
		})
		out = append(out, common.Fragment{
			ID:      id,
			Text:    text,
			DocName: file.Name,
			Source:  file.FilePath,
			Type:    common.FragmentParagraph,
		})
	}
	return out
}

// TableRowFragments builds table-row fragments. Rows where every cell is
// blank are skipped.
func TableRowFragments(docID string, file GraphFile, pages []PageTables) []common.Fragment {
	out := make([]common.Fragment, 0)
	for _, page := range pages {
		for t, table := range page.Tables {
			for r, row := range table {
				cells := trimCells(row)
				if allBlank(cells) {
					continue
				}
				id := ids.Make(ids.KindTableRow, map[string]any{
					"doc": docID,
					"p":   page.Page,
					"tb":  t,
					"r":   r,
					"c":   cells[:min(len(cells), tableIDCellCount)],
				})
				out = append(out, common.Fragment{
					ID:      id,
					Text:    strings.Join(cells, CellSeparator),
					DocName: file.Name,
					Source:  file.FilePath,
					Type:    common.FragmentTableRow,
					Page:    common.Ptr(page.Page),
				})
			}
		}
	}
	return out
}

func trimCells(row []string) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
