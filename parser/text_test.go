package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeText(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestTextParseUTF8(t *testing.T) {
	path := writeText(t, t.TempDir(), "notes.txt", []byte("line one\nline two\n"))

	p := NewTextParser()
	content, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "line one\nline two", content.Text)
	assert.Equal(t, "utf-8", content.Metadata["encoding"])
	assert.Equal(t, 3, content.Metadata["line_count"])
}

func TestTextParseUTF16LE(t *testing.T) {
	// "hi\n" with a little-endian BOM
	data := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00, '\n', 0x00}
	path := writeText(t, t.TempDir(), "notes.txt", data)

	p := NewTextParser()
	content, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "hi", content.Text)
	assert.Equal(t, "utf-16le", content.Metadata["encoding"])
}

func TestTextParseUTF16BE(t *testing.T) {
	data := []byte{0xFE, 0xFF, 0x00, 'o', 0x00, 'k'}
	path := writeText(t, t.TempDir(), "notes.txt", data)

	p := NewTextParser()
	content, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "ok", content.Text)
	assert.Equal(t, "utf-16be", content.Metadata["encoding"])
}

func TestTextParseLatin1Fallback(t *testing.T) {
	// 0xE9 is é in latin-1 and invalid on its own in UTF-8
	data := []byte{'r', 0xE9, 's', 'u', 'm', 0xE9}
	path := writeText(t, t.TempDir(), "notes.txt", data)

	p := NewTextParser()
	content, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "résumé", content.Text)
	assert.Equal(t, "latin-1", content.Metadata["encoding"])
}

func TestTextParseEmpty(t *testing.T) {
	path := writeText(t, t.TempDir(), "empty.txt", nil)

	p := NewTextParser()
	content, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, content.Text)
	assert.Equal(t, "utf-8", content.Metadata["encoding"])
}
