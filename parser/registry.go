package parser

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Khalid-Galal/bidops-ai/config"
	"github.com/Khalid-Galal/bidops-ai/types"
	"github.com/Khalid-Galal/bidops-ai/utils"
)

// Parser extracts text and metadata from one family of file formats.
type Parser interface {
	// Extensions lists the lowercase extensions this parser claims, with dot.
	Extensions() []string
	// Parse extracts the full content of the file.
	Parse(ctx context.Context, path string) (*types.ParsedContent, error)
	// ExtractMetadata returns format-specific metadata without a full parse.
	ExtractMetadata(ctx context.Context, path string) (map[string]any, error)
}

// Registry maps file extensions to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry builds a registry with every supported parser registered.
func NewRegistry(cfg config.ProcessingConfig) *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	r.Register(NewPDFParser(cfg.TesseractLang, cfg.OCRMinChars))
	r.Register(NewDocxParser())
	r.Register(NewXlsxParser())
	r.Register(NewPptxParser())
	r.Register(NewImageParser(cfg.TesseractLang))
	r.Register(NewCADParser(cfg.ODAConverterPath, cfg.ConvertTimeoutSec))
	r.Register(NewXERParser())
	r.Register(NewEmailParser())
	r.Register(NewTextParser())
	return r
}

// Register claims every extension the parser reports. A later registration
// for the same extension wins.
func (r *Registry) Register(p Parser) {
	for _, ext := range p.Extensions() {
		r.parsers[strings.ToLower(ext)] = p
	}
}

// Get returns the parser for the file's extension.
func (r *Registry) Get(path string) (Parser, error) {
	ext := utils.FileExt(path)
	p, ok := r.parsers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, ext)
	}
	return p, nil
}

// CanParse reports whether any registered parser claims the file.
func (r *Registry) CanParse(path string) bool {
	_, ok := r.parsers[utils.FileExt(path)]
	return ok
}

// Supported returns the sorted list of registered extensions.
func (r *Registry) Supported() []string {
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Validate checks that the file exists and has a registered extension.
func (r *Registry) Validate(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", types.ErrNotFound, path)
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if !r.CanParse(path) {
		return fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, utils.FileExt(path))
	}
	return nil
}

// Parse validates the file, dispatches to the claimed parser and stamps
// common metadata onto the result.
func (r *Registry) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	if err := r.Validate(path); err != nil {
		return nil, err
	}
	p, err := r.Get(path)
	if err != nil {
		return nil, err
	}
	content, err := p.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	if content.Metadata == nil {
		content.Metadata = make(map[string]any)
	}
	if info, err := os.Stat(path); err == nil {
		content.Metadata["file_size"] = info.Size()
	}
	return content, nil
}
