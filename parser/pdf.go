package parser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// PDFParser extracts the embedded text layer of a PDF. When the layer is
// missing or too thin (scanned documents) it rasterizes the pages and runs
// tesseract over them.
type PDFParser struct {
	tesseractLang string
	ocrMinChars   int

	// seams for tests, defaulted in NewPDFParser
	textLayer func(path string) ([]string, int, error)
	ocr       func(ctx context.Context, path string) ([]string, error)
}

func NewPDFParser(tesseractLang string, ocrMinChars int) *PDFParser {
	if tesseractLang == "" {
		tesseractLang = "eng"
	}
	if ocrMinChars <= 0 {
		ocrMinChars = 100
	}
	p := &PDFParser{tesseractLang: tesseractLang, ocrMinChars: ocrMinChars}
	p.textLayer = p.extractTextLayer
	p.ocr = p.ocrPages
	return p
}

func (p *PDFParser) Extensions() []string {
	return []string{".pdf"}
}

func (p *PDFParser) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	start := time.Now()

	pages, pageCount, err := p.safeTextLayer(path)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}

	content := &types.ParsedContent{
		Pages:     pages,
		PageCount: pageCount,
		Metadata:  map[string]any{"page_count": pageCount},
	}

	total := 0
	for _, pg := range pages {
		total += len(strings.TrimSpace(pg))
	}

	// Scanned PDFs carry little or no text layer. Fall back to OCR, but a
	// failed OCR run degrades to a warning rather than failing the document.
	if total < p.ocrMinChars {
		content.Warnings = append(content.Warnings,
			fmt.Sprintf("text layer has %d chars, below %d, attempting OCR", total, p.ocrMinChars))
		ocrPages, err := p.ocr(ctx, path)
		if err != nil {
			content.Warnings = append(content.Warnings, fmt.Sprintf("OCR failed: %v", err))
		} else {
			content.Pages = ocrPages
			content.Metadata["ocr_applied"] = true
			if len(ocrPages) > 0 {
				content.PageCount = len(ocrPages)
				content.Metadata["page_count"] = len(ocrPages)
			}
		}
	}

	var sb strings.Builder
	for i, pg := range content.Pages {
		pg = strings.TrimSpace(pg)
		if pg == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("[Page %d]\n", i+1))
		sb.WriteString(pg)
		sb.WriteString("\n\n")
	}
	content.Text = strings.TrimSpace(sb.String())
	content.ProcessingTimeMs = time.Since(start).Milliseconds()
	return content, nil
}

func (p *PDFParser) ExtractMetadata(ctx context.Context, path string) (map[string]any, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	defer f.Close()

	meta := map[string]any{"page_count": r.NumPage()}
	if info, err := os.Stat(path); err == nil {
		meta["file_size"] = info.Size()
	}
	return meta, nil
}

// safeTextLayer guards the pdf reader, which panics on malformed xref
// tables and content streams. A panic here must fail only this file, not
// the whole ingestion batch.
func (p *PDFParser) safeTextLayer(path string) (pages []string, pageCount int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, pageCount = nil, 0
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	return p.textLayer(path)
}

func (p *PDFParser) extractTextLayer(path string) ([]string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// malformed page content streams are common in the wild
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, numPages, nil
}

// ocrPages renders each page to PNG with pdftoppm and runs tesseract on the
// rendered images.
func (p *PDFParser) ocrPages(ctx context.Context, path string) ([]string, error) {
	tmpDir, err := os.MkdirTemp("", "pdf-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-r", "300", path, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, string(out))
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}
	sort.Strings(images)

	pages := make([]string, 0, len(images))
	for _, img := range images {
		text, err := runTesseract(ctx, img, p.tesseractLang)
		if err != nil {
			return nil, err
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// runTesseract OCRs a single image file and returns the recognized text.
func runTesseract(ctx context.Context, imagePath, lang string) (string, error) {
	cmd := exec.CommandContext(ctx, "tesseract", imagePath, "stdout",
		"-l", lang, "--oem", "3", "--psm", "3")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return string(out), nil
}
