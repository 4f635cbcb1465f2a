package common

// FragmentKind distinguishes the two kinds of extracted text.
type FragmentKind string

const (
	FragmentParagraph FragmentKind = "paragraph"
	FragmentTableRow  FragmentKind = "table-row"
)

// Fragment is one unit of extracted text (a paragraph or a table row) with
// its provenance. Fragments feed both the graph and the semantic index.
//
// Page is nil for paragraphs, since the paragraph extractor yields a flat
// sequence without page boundaries.
type Fragment struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	DocName string       `json:"docname"`
	Source  string       `json:"source"`
	Type    FragmentKind `json:"type"`
	Page    *int         `json:"page,omitempty"`
}

// FragmentMap maps a fragment ID to its record. It is what the query path
// uses to turn search hits and citations back into text and provenance.
type FragmentMap map[string]Fragment

// Add inserts f unless a fragment with the same ID is already present.
func (m FragmentMap) Add(f Fragment) {
	if _, ok := m[f.ID]; ok {
		return
	}
	m[f.ID] = f
}

// LineItem is a costed table row projected into a document summary.
type LineItem struct {
	Desc     string   `json:"desc"`
	Qty      *float64 `json:"qty"`
	Unit     *string  `json:"unit"`
	UnitCost *float64 `json:"unit_cost"`
	ExtCost  *float64 `json:"ext_cost"`
	Page     *int     `json:"page"`
}

// Summary is the denormalized per-document record written to mapped.json.
// It is meant for auditing and is not consulted during retrieval.
type Summary struct {
	DocID      string     `json:"doc_id"`
	DocName    string     `json:"docname"`
	Vendor     *string    `json:"vendor"`
	GrandTotal *float64   `json:"grand_total"`
	Items      []LineItem `json:"items"`
}

// Citation points an answer back at the fragment it was drawn from.
type Citation struct {
	ID      string       `json:"id"`
	DocName string       `json:"docname"`
	Page    *int         `json:"page,omitempty"`
	Type    FragmentKind `json:"type"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
