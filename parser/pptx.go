package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Khalid-Galal/bidops-ai/types"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PptxParser reads PowerPoint OpenXML decks. Each slide becomes a
// "=== Slide N ===" section; speaker notes are appended as "[Notes: ...]".
// Legacy .ppt files fail at the container check.
type PptxParser struct{}

func NewPptxParser() *PptxParser { return &PptxParser{} }

func (p *PptxParser) Extensions() []string {
	return []string{".pptx", ".ppt"}
}

func (p *PptxParser) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, types.NewParseError(path, fmt.Errorf("not a valid OpenXML container: %w", err))
	}
	defer zr.Close()

	slideNums := listSlideNumbers(&zr.Reader)
	var (
		sb     strings.Builder
		pages  []string
		tables []types.Table
	)
	for _, n := range slideNums {
		f := findZipFile(&zr.Reader, fmt.Sprintf("ppt/slides/slide%d.xml", n))
		if f == nil {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, types.NewParseError(path, err)
		}
		text, slideTables, err := extractSlide(rc)
		rc.Close()
		if err != nil {
			return nil, types.NewParseError(path, err)
		}

		var slide strings.Builder
		if text != "" {
			slide.WriteString(text)
			slide.WriteString("\n")
		}
		for _, tbl := range slideTables {
			tbl.Slide = n
			tables = append(tables, tbl)
			for _, row := range tbl.Data {
				slide.WriteString(strings.Join(row, " | "))
				slide.WriteString("\n")
			}
		}

		if notes := readSlideNotes(&zr.Reader, n); notes != "" {
			slide.WriteString(fmt.Sprintf("[Notes: %s]\n", notes))
		}

		pageText := strings.TrimSpace(slide.String())
		pages = append(pages, pageText)
		sb.WriteString(fmt.Sprintf("=== Slide %d ===\n", n))
		if pageText != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	content := &types.ParsedContent{
		Text:      strings.TrimSpace(sb.String()),
		Pages:     pages,
		Tables:    tables,
		PageCount: len(slideNums),
		Metadata:  map[string]any{"slide_count": len(slideNums)},
	}
	for k, v := range readCoreProperties(&zr.Reader) {
		content.Metadata[k] = v
	}
	content.ProcessingTimeMs = time.Since(start).Milliseconds()
	return content, nil
}

func (p *PptxParser) ExtractMetadata(ctx context.Context, path string) (map[string]any, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, types.NewParseError(path, fmt.Errorf("not a valid OpenXML container: %w", err))
	}
	defer zr.Close()

	meta := readCoreProperties(&zr.Reader)
	meta["slide_count"] = len(listSlideNumbers(&zr.Reader))
	return meta, nil
}

func listSlideNumbers(zr *zip.Reader) []int {
	var nums []int
	for _, f := range zr.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums
}

// extractSlide pulls the text runs and tables out of one slide part.
// Paragraph boundaries (a:p) become newlines.
func extractSlide(r io.Reader) (string, []types.Table, error) {
	dec := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		tables []types.Table

		inTable  bool
		curTable [][]string
		curRow   []string
		cellBuf  strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to decode slide: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				inTable = true
				curTable = nil
			case "tr":
				if inTable {
					curRow = nil
				}
			case "tc":
				if inTable {
					cellBuf.Reset()
				}
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					continue
				}
				if inTable {
					cellBuf.WriteString(text)
				} else {
					sb.WriteString(text)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				inTable = false
				if len(curTable) > 0 {
					tables = append(tables, types.Table{Data: curTable})
				}
			case "tr":
				if inTable && len(curRow) > 0 {
					curTable = append(curTable, curRow)
				}
			case "tc":
				if inTable {
					curRow = append(curRow, strings.TrimSpace(cellBuf.String()))
				}
			case "p":
				if !inTable {
					sb.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(sb.String()), tables, nil
}

func readSlideNotes(zr *zip.Reader, slideNum int) string {
	f := findZipFile(zr, fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", slideNum))
	if f == nil {
		return ""
	}
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	text, _, err := extractSlide(rc)
	if err != nil {
		return ""
	}
	// drop the slide-number placeholder that notes masters inject
	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || line == strconv.Itoa(slideNum) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}
