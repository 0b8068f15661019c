package types

import "strings"

// ParsedContent is the transient result of parsing one source file. It is
// produced by a parser, consumed by the ingestion pipeline and discarded.
type ParsedContent struct {
	Text             string         // combined, normalized text
	Metadata         map[string]any // format-specific metadata
	Pages            []string       // per-page text, aligned with "[Page N]" markers
	Tables           []Table        // extracted tables, also flattened into Text
	Language         string         // optional language tag
	PageCount        int            // 0 when the format has no page concept
	ProcessingTimeMs int64
	Warnings         []string
}

// Table is a structured table pulled out of a document. Exactly one of the
// location fields is meaningful depending on the source format.
type Table struct {
	Page  int        `json:"page,omitempty"`
	Sheet string     `json:"sheet,omitempty"`
	Slide int        `json:"slide,omitempty"`
	Index int        `json:"index,omitempty"`
	Data  [][]string `json:"data"`
}

// HasContent reports whether any extractable text came out of the parse.
func (p *ParsedContent) HasContent() bool {
	return strings.TrimSpace(p.Text) != ""
}

// WordCount returns the approximate word count of the extracted text.
func (p *ParsedContent) WordCount() int {
	return len(strings.Fields(p.Text))
}
