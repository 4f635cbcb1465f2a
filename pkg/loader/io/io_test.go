package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("bb"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.PDF"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o700))

	l := NewIOGraphFileLoader(dir)
	files, err := l.ListFiles(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "a.PDF", files[0].Name)
	assert.Equal(t, int64(1), files[0].Size)
	assert.Equal(t, "b.pdf", files[1].Name)
	assert.Equal(t, int64(2), files[1].Size)

	content, err := files[1].GetContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("bb"), content)
}

func TestListFiles_MissingDir(t *testing.T) {
	l := NewIOGraphFileLoader(filepath.Join(t.TempDir(), "missing"))
	files, err := l.ListFiles(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRelease(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bid.pdf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	l := NewIOGraphFileLoader(dir)
	files, err := l.ListFiles(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, err = files[0].GetContent(context.Background())
	require.NoError(t, err)
	assert.Len(t, l.cache, 1)

	l.Release(files[0])
	assert.Empty(t, l.cache)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
	content, err := files[0].GetContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), content)
}
