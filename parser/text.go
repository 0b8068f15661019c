package parser

import (
	"context"
	"os"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// TextParser handles plain text formats. It never fails on encoding: files
// that are not valid UTF-8 are decoded as UTF-16 when a BOM is present, and
// otherwise fall back to a byte-per-rune latin-1 read.
type TextParser struct{}

func NewTextParser() *TextParser { return &TextParser{} }

func (p *TextParser) Extensions() []string {
	return []string{".txt", ".md", ".csv", ".log", ".rtf", ".json", ".xml", ".yaml", ".yml"}
}

func (p *TextParser) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}

	text, encoding := decodeText(data)
	content := &types.ParsedContent{
		Text: strings.TrimSpace(text),
		Metadata: map[string]any{
			"encoding":   encoding,
			"line_count": strings.Count(text, "\n") + 1,
		},
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	return content, nil
}

func (p *TextParser) ExtractMetadata(ctx context.Context, path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	return map[string]any{"file_size": info.Size()}, nil
}

func decodeText(data []byte) (string, string) {
	if len(data) >= 2 {
		if data[0] == 0xFF && data[1] == 0xFE {
			return decodeUTF16(data[2:], false), "utf-16le"
		}
		if data[0] == 0xFE && data[1] == 0xFF {
			return decodeUTF16(data[2:], true), "utf-16be"
		}
	}
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}
	// lossy byte-per-rune fallback, every byte maps to a codepoint
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), "latin-1"
}

func decodeUTF16(data []byte, bigEndian bool) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		var u uint16
		if bigEndian {
			u = uint16(data[i])<<8 | uint16(data[i+1])
		} else {
			u = uint16(data[i+1])<<8 | uint16(data[i])
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}
