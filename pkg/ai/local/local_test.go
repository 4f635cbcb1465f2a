package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestNewLocalEmbedder_InvalidDimensions(t *testing.T) {
	_, err := NewLocalEmbedder(0)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e, err := NewLocalEmbedder(64)
	require.NoError(t, err)

	a, err := e.GenerateEmbedding(context.Background(), []byte("Asphalt paving | 12,500.00"))
	require.NoError(t, err)
	b, err := e.GenerateEmbedding(context.Background(), []byte("Asphalt paving | 12,500.00"))
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, cosine(a, a), 1e-6)
}

func TestLocalEmbedder_Similarity(t *testing.T) {
	e, err := NewLocalEmbedder(DefaultDimensions)
	require.NoError(t, err)
	ctx := context.Background()

	out, err := e.GenerateEmbeddings(ctx, [][]byte{
		[]byte("asphalt paving labor"),
		[]byte("paving asphalt"),
		[]byte("electrical wiring inspection"),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Greater(t, cosine(out[0], out[1]), cosine(out[0], out[2]))
}

func TestLocalEmbedder_NoWords(t *testing.T) {
	e, err := NewLocalEmbedder(8)
	require.NoError(t, err)

	vec, err := e.GenerateEmbedding(context.Background(), []byte("  the , of "))
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vec)
}

func TestLocalEmbedder_Canceled(t *testing.T) {
	e, err := NewLocalEmbedder(8)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.GenerateEmbeddings(ctx, [][]byte{[]byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}
