package graph

// GraphClient builds the corpus graph from a set of documents. It controls
// how many documents are processed in parallel.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	builder       *Builder
	parallelFiles int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// ParallelFiles controls how many files are built concurrently.
type NewGraphClientParams struct {
	Builder       *Builder
	ParallelFiles int
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client := graph.NewGraphClient(graph.NewGraphClientParams{
//		Builder:       graph.NewBuilder(pdf.NewPDFExtractor(pdf.NewPDFExtractorParams{}), nil),
//		ParallelFiles: 4,
//	})
//	corpus, err := client.ProcessCorpus(ctx, files)
func NewGraphClient(params NewGraphClientParams) *GraphClient {
	parallel := params.ParallelFiles
	if parallel <= 0 {
		parallel = 1
	}
	return &GraphClient{
		builder:       params.Builder,
		parallelFiles: parallel,
	}
}
