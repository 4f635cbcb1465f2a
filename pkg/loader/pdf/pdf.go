package pdf

import (
	"context"
	"sync"

	"github.com/docgraph/docgraph/pkg/loader"

	"golang.org/x/sync/singleflight"
)

const (
	defaultMinParagraph = 80
	defaultMinTableRows = 2
	defaultEncoder      = "cl100k_base"
)

// PDFExtractor implements loader.DocumentExtractor on top of the poppler
// command line tools. Paragraphs come from the reading-order text and
// tables from the layout-preserving text of the same document.
type PDFExtractor struct {
	minParagraph int
	minTableRows int
	encoder      string

	cache   map[string]string
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFExtractorParams configures a PDFExtractor. Zero values select the
// defaults.
type NewPDFExtractorParams struct {
	MinParagraph int
	MinTableRows int
	TokenEncoder string
}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor(params NewPDFExtractorParams) *PDFExtractor {
	e := &PDFExtractor{
		minParagraph: params.MinParagraph,
		minTableRows: params.MinTableRows,
		encoder:      params.TokenEncoder,
		cache:        make(map[string]string),
	}
	if e.minParagraph <= 0 {
		e.minParagraph = defaultMinParagraph
	}
	if e.minTableRows <= 0 {
		e.minTableRows = defaultMinTableRows
	}
	if e.encoder == "" {
		e.encoder = defaultEncoder
	}
	return e
}

// Paragraphs returns the paragraphs of file in reading order. Paragraphs
// above file.MaxTokens tokens are split.
func (e *PDFExtractor) Paragraphs(ctx context.Context, file loader.GraphFile) ([]string, error) {
	text, err := e.text(ctx, file, false)
	if err != nil {
		return nil, err
	}
	return splitByTokens(splitParagraphs(text, e.minParagraph), e.encoder, file.MaxTokens)
}

// Tables returns the tables of file grouped by page. Pages without tables
// are omitted.
func (e *PDFExtractor) Tables(ctx context.Context, file loader.GraphFile) ([]loader.PageTables, error) {
	text, err := e.text(ctx, file, true)
	if err != nil {
		return nil, err
	}

	var out []loader.PageTables
	for i, page := range splitPages(text) {
		tables := detectTables(page, e.minTableRows)
		if len(tables) == 0 {
			continue
		}
		out = append(out, loader.PageTables{Page: i + 1, Tables: tables})
	}
	return out, nil
}

// Release implements loader.Releaser.
func (e *PDFExtractor) Release(file loader.GraphFile) {
	key := loader.CacheKey(file)
	e.cacheMu.Lock()
	delete(e.cache, key+":text")
	delete(e.cache, key+":layout")
	e.cacheMu.Unlock()
}

func (e *PDFExtractor) text(ctx context.Context, file loader.GraphFile, layout bool) (string, error) {
	key := loader.CacheKey(file) + ":text"
	if layout {
		key = loader.CacheKey(file) + ":layout"
	}

	e.cacheMu.RLock()
	if cached, ok := e.cache[key]; ok {
		e.cacheMu.RUnlock()
		return cached, nil
	}
	e.cacheMu.RUnlock()

	result, err, _ := e.group.Do(key, func() (any, error) {
		e.cacheMu.RLock()
		if cached, ok := e.cache[key]; ok {
			e.cacheMu.RUnlock()
			return cached, nil
		}
		e.cacheMu.RUnlock()

		content, err := file.GetContent(ctx)
		if err != nil {
			return nil, err
		}

		text, err := runPdftotext(ctx, content, layout)
		if err != nil {
			return nil, err
		}

		e.cacheMu.Lock()
		e.cache[key] = text
		e.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}
