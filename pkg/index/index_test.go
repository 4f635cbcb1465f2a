package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docgraph/docgraph/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto one axis per keyword it contains.
type keywordEmbedder struct {
	keywords []string
}

func (e keywordEmbedder) GenerateEmbedding(_ context.Context, input []byte) ([]float32, error) {
	text := strings.ToLower(string(input))
	vec := make([]float32, len(e.keywords))
	for i, k := range e.keywords {
		if strings.Contains(text, k) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func testOptions(backend Backend) Options {
	return Options{
		Backend:  backend,
		Embedder: keywordEmbedder{keywords: []string{"asphalt", "paving", "electrical", "total"}},
		Model:    "keywords",
	}
}

func testFragments() []common.Fragment {
	return []common.Fragment{
		{ID: "TBL:1", Text: "Asphalt paving | 12,500.00", Type: common.FragmentTableRow},
		{ID: "TBL:2", Text: "Electrical | 3,000.00", Type: common.FragmentTableRow},
		{ID: "PCH:1", Text: "Grand Total: $15,500.00", Type: common.FragmentParagraph},
		{ID: "TBL:1", Text: "duplicate", Type: common.FragmentTableRow},
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	idx, err := New(ctx, testOptions(""))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteIndex{}, idx)

	idx, err = New(ctx, testOptions(BackendMemory))
	require.NoError(t, err)
	assert.IsType(t, &MemoryIndex{}, idx)

	_, err = New(ctx, testOptions("faiss"))
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = New(ctx, Options{Backend: BackendMemory})
	assert.Error(t, err)
}

func TestBackends_IndexSaveLoadSearch(t *testing.T) {
	for _, backend := range []Backend{BackendMemory, BackendSQLite} {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			idx, err := New(ctx, testOptions(backend))
			require.NoError(t, err)
			defer idx.Close()

			_, err = idx.Search(ctx, "asphalt", 5)
			assert.ErrorIs(t, err, ErrNotBuilt)

			require.NoError(t, idx.Index(ctx, testFragments()))

			hits, err := idx.Search(ctx, "asphalt paving", 2)
			require.NoError(t, err)
			require.Len(t, hits, 2)
			assert.Equal(t, "TBL:1", hits[0].ID)
			assert.Equal(t, "Asphalt paving | 12,500.00", hits[0].Text)
			assert.InDelta(t, 1.0, hits[0].Score, 1e-6)

			require.NoError(t, idx.Save(ctx, dir))
			assert.FileExists(t, filepath.Join(dir, ManifestFile))

			hits, err = idx.Search(ctx, "electrical", 1)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, "TBL:2", hits[0].ID)

			reloaded, err := New(ctx, testOptions(backend))
			require.NoError(t, err)
			defer reloaded.Close()
			require.NoError(t, reloaded.Load(ctx, dir))

			hits, err = reloaded.Search(ctx, "grand total", 0)
			require.NoError(t, err)
			require.Len(t, hits, 3)
			assert.Equal(t, "PCH:1", hits[0].ID)
			// ties keep index order
			assert.Equal(t, []string{"TBL:1", "TBL:2"}, []string{hits[1].ID, hits[2].ID})

			m, err := ReadManifest(dir, backend, 0)
			require.NoError(t, err)
			assert.Equal(t, 3, m.Count)
			assert.Equal(t, 4, m.Dimensions)
			assert.Equal(t, "keywords", m.Model)
		})
	}
}

func TestLoad_MissingManifest(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []Backend{BackendMemory, BackendSQLite} {
		idx, err := New(ctx, testOptions(backend))
		require.NoError(t, err)
		err = idx.Load(ctx, t.TempDir())
		assert.ErrorIs(t, err, ErrNotBuilt, backend)
	}
}

func TestReadManifest_Mismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteManifest(dir, Manifest{Backend: BackendMemory, Dimensions: 4}))

	_, err := ReadManifest(dir, BackendSQLite, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotBuilt)

	_, err = ReadManifest(dir, BackendMemory, 8)
	assert.Error(t, err)

	_, err = ReadManifest(dir, BackendMemory, 4)
	assert.NoError(t, err)
}

func TestMemoryIndex_MissingEmbeddings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteManifest(dir, Manifest{Backend: BackendMemory}))

	err := NewMemoryIndex(testOptions(BackendMemory)).Load(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestSQLiteIndex_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	idx := NewSQLiteIndex(testOptions(BackendSQLite))
	defer idx.Close()

	require.NoError(t, idx.Index(ctx, testFragments()))
	require.NoError(t, idx.Save(ctx, dir))
	require.NoError(t, idx.Index(ctx, testFragments()[:1]))
	require.NoError(t, idx.Save(ctx, dir))

	hits, err := idx.Search(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = os.Stat(filepath.Join(dir, SQLiteFile))
	assert.NoError(t, err)
}

func TestVectorHelpers(t *testing.T) {
	v := []float32{0.5, -1.25, 3}
	assert.Equal(t, v, deserializeVector(serializeVector(v)))

	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{0, 1}))
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 0}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))

	hits := topHits([]Hit{{ID: "a", Score: 0.1}, {ID: "b", Score: 0.9}, {ID: "c", Score: 0.9}}, 2)
	assert.Equal(t, []Hit{{ID: "b", Score: 0.9}, {ID: "c", Score: 0.9}}, hits)
}

func TestPgvector_TableIdentifier(t *testing.T) {
	table, err := tableIdentifier("")
	require.NoError(t, err)
	assert.Equal(t, `"fragment_embeddings"`, table)

	_, err = tableIdentifier("x; DROP TABLE y")
	assert.Error(t, err)

	idx, err := NewPgvectorIndexWithConnection(nil, Options{Table: "chunks"})
	require.NoError(t, err)
	assert.Contains(t, idx.searchSQL(), `FROM "chunks" ORDER BY embedding <=> $1`)
	assert.Contains(t, idx.createTableSQL(384), "vector(384)")
}

func TestPgvector_NeedsRecreate(t *testing.T) {
	assert.False(t, needsRecreate(0, false, 384), "missing table")
	assert.False(t, needsRecreate(384, true, 384), "same dimension")
	assert.False(t, needsRecreate(-1, true, 384), "unconstrained column")
	assert.True(t, needsRecreate(1536, true, 384), "dimension changed")

	idx, err := NewPgvectorIndexWithConnection(nil, Options{Table: "chunks"})
	require.NoError(t, err)
	assert.Contains(t, idx.columnDimensionSQL(), "to_regclass($1)")
	assert.Contains(t, idx.columnDimensionSQL(), "attname = 'embedding'")
}

func TestPgvector_RequiresURL(t *testing.T) {
	_, err := New(context.Background(), testOptions(BackendPgvector))
	assert.Error(t, err)
}
