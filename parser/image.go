package parser

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// ImageParser OCRs standalone images with tesseract. Unlike the PDF path
// there is no text layer to fall back on, so a failed OCR run fails the
// parse.
type ImageParser struct {
	tesseractLang string
}

func NewImageParser(tesseractLang string) *ImageParser {
	if tesseractLang == "" {
		tesseractLang = "eng"
	}
	return &ImageParser{tesseractLang: tesseractLang}
}

func (p *ImageParser) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".tiff", ".tif", ".bmp", ".gif"}
}

func (p *ImageParser) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	start := time.Now()

	text, err := runTesseract(ctx, path, p.tesseractLang)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}

	content := &types.ParsedContent{
		Text:     strings.TrimSpace(text),
		Metadata: map[string]any{"ocr_applied": true},
	}
	if dims := imageDimensions(path); dims != "" {
		content.Metadata["dimensions"] = dims
	}
	if !content.HasContent() {
		content.Warnings = append(content.Warnings, "OCR produced no text")
	}
	content.ProcessingTimeMs = time.Since(start).Milliseconds()
	return content, nil
}

func (p *ImageParser) ExtractMetadata(ctx context.Context, path string) (map[string]any, error) {
	meta := make(map[string]any)
	if dims := imageDimensions(path); dims != "" {
		meta["dimensions"] = dims
	}
	if info, err := os.Stat(path); err == nil {
		meta["file_size"] = info.Size()
	}
	return meta, nil
}

// imageDimensions decodes only the header, not the pixel data. TIFF and BMP
// have no registered decoder here, so they simply report no dimensions.
func imageDimensions(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)
}
