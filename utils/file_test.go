package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestHashFile(t *testing.T) {
	path := writeTemp(t, "a.txt", []byte("hello world"))

	got, err := HashFile(path)
	require.NoError(t, err)
	// echo -n "hello world" | sha256sum
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", got)

	again, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, got, again, "hashing must be deterministic")
}

func TestHashFileSensitivity(t *testing.T) {
	a := writeTemp(t, "a.bin", []byte("content"))
	b := writeTemp(t, "b.bin", []byte("content!"))

	ha, err := HashFile(a)
	require.NoError(t, err)
	hb, err := HashFile(b)
	require.NoError(t, err)

	assert.NotEqual(t, ha, hb)
	assert.Len(t, ha, 64)
	assert.Len(t, hb, 64)
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}

func TestGetFileNameWithoutExt(t *testing.T) {
	assert.Equal(t, "tender", GetFileNameWithoutExt("/docs/tender.pdf"))
	assert.Equal(t, "boq.v2", GetFileNameWithoutExt("boq.v2.xlsx"))
}

func TestFileExt(t *testing.T) {
	assert.Equal(t, ".pdf", FileExt("/docs/Tender.PDF"))
	assert.Equal(t, "", FileExt("README"))
}
