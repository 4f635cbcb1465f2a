package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type singleEmbedder struct {
	calls atomic.Int32
	fail  string
}

func (e *singleEmbedder) GenerateEmbedding(_ context.Context, input []byte) ([]float32, error) {
	e.calls.Add(1)
	if string(input) == e.fail {
		return nil, errors.New("boom")
	}
	return []float32{float32(len(input))}, nil
}

type batchEmbedder struct {
	singleEmbedder
	batches [][]string
}

func (e *batchEmbedder) GenerateEmbeddings(_ context.Context, inputs [][]byte) ([][]float32, error) {
	batch := make([]string, len(inputs))
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		batch[i] = string(in)
		out[i] = []float32{float32(len(in))}
	}
	e.batches = append(e.batches, batch)
	return out, nil
}

func TestChunkRange(t *testing.T) {
	var windows [][2]int
	err := ChunkRange(5, 2, func(start, end int) error {
		windows = append(windows, [2]int{start, end})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, windows)

	windows = nil
	require.NoError(t, ChunkRange(3, 0, func(start, end int) error {
		windows = append(windows, [2]int{start, end})
		return nil
	}))
	assert.Equal(t, [][2]int{{0, 3}}, windows)

	assert.NoError(t, ChunkRange(0, 2, func(int, int) error { return errors.New("never") }))
}

func TestGenerateEmbeddings_Single(t *testing.T) {
	e := &singleEmbedder{}
	inputs := [][]byte{[]byte("a"), []byte("bbb"), []byte("cc")}

	out, err := GenerateEmbeddings(context.Background(), e, inputs, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {3}, {2}}, out)
	assert.EqualValues(t, 3, e.calls.Load())
}

func TestGenerateEmbeddings_Batched(t *testing.T) {
	e := &batchEmbedder{}
	inputs := [][]byte{[]byte("a"), []byte("bbb"), []byte("cc")}

	out, err := GenerateEmbeddings(context.Background(), e, inputs, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {3}, {2}}, out)
	assert.Equal(t, [][]string{{"a", "bbb"}, {"cc"}}, e.batches)
	assert.Zero(t, e.calls.Load())
}

func TestGenerateEmbeddings_Error(t *testing.T) {
	e := &singleEmbedder{fail: "bad"}
	_, err := GenerateEmbeddings(context.Background(), e, [][]byte{[]byte("ok"), []byte("bad")}, 0, 0)
	require.Error(t, err)

	_, err = GenerateEmbeddings(context.Background(), nil, [][]byte{[]byte("x")}, 0, 0)
	require.Error(t, err)

	out, err := GenerateEmbeddings(context.Background(), e, nil, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, out)
}
