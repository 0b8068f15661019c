package service

import (
	"strings"
	"unicode/utf8"
)

// separators in descending order of preference when looking for a chunk
// boundary near the window edge.
var chunkSeparators = []string{"\n\n", "\n", ". ", " "}

// Chunk is one window of document text with its source offsets. Offsets
// index into the original extracted text, Page is 1-based when page markers
// were available.
type Chunk struct {
	Text  string
	Start int
	End   int
	Page  int
}

// Chunker splits extracted text into overlapping windows sized for
// embedding.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker returns a chunker with the given window size and overlap. An
// overlap at or above the window size would stall the window, so it is
// clamped to a quarter of the size.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 200
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits text into windows. pages, when non-empty, holds the per-page
// text used to attribute each chunk to a source page.
func (c *Chunker) Chunk(text string, pages []string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	bounds := pageBoundaries(pages)
	var chunks []Chunk

	// cursor tracks where offset recovery resumes; it only moves forward so
	// repeated chunk text cannot map an offset backwards.
	cursor := 0
	pos := 0
	for pos < len(text) {
		end := pos + c.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.splitPoint(text, pos, end)
		}

		raw := text[pos:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			start := strings.Index(text[cursor:], trimmed)
			if start >= 0 {
				start += cursor
			} else {
				start = pos
			}
			chunkEnd := start + len(trimmed)
			if chunkEnd > cursor {
				cursor = chunkEnd
			}
			chunks = append(chunks, Chunk{
				Text:  trimmed,
				Start: start,
				End:   chunkEnd,
				Page:  pageForOffset(bounds, start),
			})
		}

		if end == len(text) {
			break
		}
		next := end - c.overlap
		if next <= pos {
			next = pos + 1
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		pos = next
	}
	return chunks
}

// splitPoint walks the separator hierarchy looking for a boundary in the
// second half of the window, so chunks break on paragraphs before
// sentences before words.
func (c *Chunker) splitPoint(text string, start, limit int) int {
	window := text[start:limit]
	min := len(window) / 2
	for _, sep := range chunkSeparators {
		idx := strings.LastIndex(window, sep)
		if idx >= min {
			return start + idx + len(sep)
		}
	}
	// hard cut: back off so the window never ends mid-rune
	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return limit
}

// pageBoundaries returns the cumulative end offset of each page within the
// combined text, accounting for the separators between pages.
func pageBoundaries(pages []string) []int {
	if len(pages) == 0 {
		return nil
	}
	bounds := make([]int, len(pages))
	offset := 0
	for i, p := range pages {
		offset += len(p)
		if i < len(pages)-1 {
			offset += 2 // page join separator
		}
		bounds[i] = offset
	}
	return bounds
}

func pageForOffset(bounds []int, offset int) int {
	for i, end := range bounds {
		if offset < end {
			return i + 1
		}
	}
	if len(bounds) > 0 {
		return len(bounds)
	}
	return 0
}
