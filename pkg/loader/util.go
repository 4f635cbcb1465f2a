package loader

import (
	"fmt"
	"os"
	"path/filepath"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CacheKey generates a unique cache key for a GraphFile based on its ID and path.
func CacheKey(file GraphFile) string {
	return file.ID + ":" + file.FilePath
}

// WriteTempPDF writes input to a fresh temporary directory and returns the
// path of the written file together with a cleanup function that removes
// the directory.
func WriteTempPDF(input []byte, prefix string) (string, func(), error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", nil, fmt.Errorf("nanoid: %w", err)
	}
	tmpDir := filepath.Join(os.TempDir(), prefix+"-"+id)
	if err := os.MkdirAll(tmpDir, 0o700); err != nil {
		return "", nil, fmt.Errorf("mkdir tmp: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, input, 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write pdf: %w", err)
	}
	return pdfPath, cleanup, nil
}
