package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerShortText(t *testing.T) {
	c := NewChunker(1000, 200)
	chunks := c.Chunk("a short document", nil)

	require.Len(t, chunks, 1)
	assert.Equal(t, "a short document", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len("a short document"), chunks[0].End)
}

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(1000, 200)
	assert.Nil(t, c.Chunk("", nil))
	assert.Nil(t, c.Chunk("   \n\t  ", nil))
}

func TestChunkerCoversText(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		sb.WriteString("The contractor shall comply with all applicable regulations. ")
	}
	text := sb.String()

	c := NewChunker(500, 100)
	chunks := c.Chunk(text, nil)

	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 500)
		assert.Equal(t, ch.Text, text[ch.Start:ch.End], "offsets must index the original text")
	}
	// the last chunk reaches the end of the text, modulo trailing whitespace
	last := chunks[len(chunks)-1]
	assert.GreaterOrEqual(t, last.End, len(strings.TrimRight(text, " \n")))
}

func TestChunkerMonotonicOffsets(t *testing.T) {
	// repeated content must not map offsets backwards
	text := strings.Repeat("Section A requirements apply.\n\n", 100)
	c := NewChunker(200, 50)
	chunks := c.Chunk(text, nil)

	require.Greater(t, len(chunks), 2)
	prevStart := -1
	for _, ch := range chunks {
		assert.Greater(t, ch.Start, prevStart, "chunk starts must advance")
		prevStart = ch.Start
	}
}

func TestChunkerPrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("word ", 60) // ~300 chars
	text := para + "\n\n" + para + "\n\n" + para

	c := NewChunker(400, 50)
	chunks := c.Chunk(text, nil)

	require.Greater(t, len(chunks), 1)
	// the first chunk should end at the paragraph break, not mid-word
	assert.False(t, strings.HasSuffix(chunks[0].Text, "wo"))
}

func TestChunkerOverlapClamped(t *testing.T) {
	c := NewChunker(100, 100)
	assert.Equal(t, 25, c.overlap)

	c = NewChunker(100, 500)
	assert.Equal(t, 25, c.overlap)
}

func TestChunkerDefaults(t *testing.T) {
	c := NewChunker(0, -1)
	assert.Equal(t, 1000, c.chunkSize)
	assert.Equal(t, 200, c.overlap)
}

func TestChunkerNeverSplitsRunes(t *testing.T) {
	// unbroken Arabic text forces hard cuts, and an odd window size lands
	// them inside the two-byte runes
	text := strings.Repeat("تخطيط", 50)
	c := NewChunker(25, 7)
	chunks := c.Chunk(text, nil)

	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text), "chunk %q must be valid UTF-8", ch.Text)
		assert.Equal(t, ch.Text, text[ch.Start:ch.End])
	}
}

func TestChunkerPageAttribution(t *testing.T) {
	page1 := strings.Repeat("alpha ", 50)
	page2 := strings.Repeat("beta ", 50)
	text := page1 + "\n\n" + page2
	pages := []string{page1, page2}

	c := NewChunker(200, 40)
	chunks := c.Chunk(text, pages)

	require.NotEmpty(t, chunks)
	assert.Equal(t, 1, chunks[0].Page)
	last := chunks[len(chunks)-1]
	assert.Equal(t, 2, last.Page)
}
