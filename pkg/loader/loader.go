package loader

import (
	"context"
	"path/filepath"
)

// GraphFile represents a source document that is turned into fragments for
// graph construction. The actual bytes are retrieved via the associated
// GraphFileLoader, so a GraphFile can point at local disk or object storage
// alike.
//
// Name is the display name used as "docname" throughout the graph and Size
// is the byte size used, together with Name, to derive the document ID.
type GraphFile struct {
	ID        string
	FilePath  string
	Name      string
	Size      int64
	MaxTokens int
	Loader    GraphFileLoader
}

// NewGraphFileParams defines the input parameters for creating a new
// GraphFile.
type NewGraphFileParams struct {
	ID        string
	FilePath  string
	Size      int64
	MaxTokens int
	Loader    GraphFileLoader
}

// NewGraphDocumentFile creates a GraphFile for a PDF document. The display
// name is derived from the last element of FilePath.
func NewGraphDocumentFile(params NewGraphFileParams) GraphFile {
	return GraphFile{
		ID:        params.ID,
		FilePath:  params.FilePath,
		Name:      filepath.Base(params.FilePath),
		Size:      params.Size,
		MaxTokens: params.MaxTokens,
		Loader:    params.Loader,
	}
}

// GetContent retrieves the raw bytes of the file using its Loader.
func (f *GraphFile) GetContent(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileContent(ctx, *f)
}

// GraphFileLoader defines the interface for loading the raw contents of a
// GraphFile. Implementations may load files from disk, cloud storage, or
// other sources.
type GraphFileLoader interface {
	GetFileContent(ctx context.Context, file GraphFile) ([]byte, error)
}

// GraphFileSource lists the documents available for indexing. Files are
// returned sorted by path so corpus runs are reproducible.
type GraphFileSource interface {
	ListFiles(ctx context.Context, maxTokens int) ([]GraphFile, error)
}

// Table is one extracted table: an ordered list of rows of cell strings.
type Table [][]string

// PageTables holds the tables found on one page. Page is 1-based.
type PageTables struct {
	Page   int
	Tables []Table
}

// DocumentExtractor pulls paragraphs and tables out of a document.
//
// Paragraphs are returned in reading order. An extractor that can only
// produce the whole document as one string returns a single-element slice.
// Tables are returned in page order.
type DocumentExtractor interface {
	Paragraphs(ctx context.Context, file GraphFile) ([]string, error)
	Tables(ctx context.Context, file GraphFile) ([]PageTables, error)
}

// Releaser is implemented by extractors and loaders that cache data per
// document. Release drops everything cached for file.
type Releaser interface {
	Release(file GraphFile)
}

// ReleaseFile releases file from extractor and from file.Loader when they
// implement Releaser.
func ReleaseFile(extractor DocumentExtractor, file GraphFile) {
	if r, ok := extractor.(Releaser); ok {
		r.Release(file)
	}
	if r, ok := file.Loader.(Releaser); ok {
		r.Release(file)
	}
}
