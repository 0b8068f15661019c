package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// DocxParser reads Word OpenXML documents straight from the zip container.
// Legacy .doc files are claimed too but fail at the container check, since
// they are not zip archives.
type DocxParser struct{}

func NewDocxParser() *DocxParser { return &DocxParser{} }

func (p *DocxParser) Extensions() []string {
	return []string{".docx", ".doc"}
}

func (p *DocxParser) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, types.NewParseError(path, fmt.Errorf("not a valid OpenXML container: %w", err))
	}
	defer zr.Close()

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, types.NewParseError(path, fmt.Errorf("word/document.xml missing"))
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	defer rc.Close()

	paragraphs, tables, err := extractWordBody(rc)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}

	var sb strings.Builder
	for _, para := range paragraphs {
		sb.WriteString(para)
		sb.WriteString("\n\n")
	}
	for _, tbl := range tables {
		for _, row := range tbl.Data {
			sb.WriteString(strings.Join(row, " | "))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	content := &types.ParsedContent{
		Text:     strings.TrimSpace(sb.String()),
		Tables:   tables,
		Metadata: map[string]any{"paragraph_count": len(paragraphs), "table_count": len(tables)},
	}
	if meta := readCoreProperties(&zr.Reader); len(meta) > 0 {
		for k, v := range meta {
			content.Metadata[k] = v
		}
	}
	content.ProcessingTimeMs = time.Since(start).Milliseconds()
	return content, nil
}

func (p *DocxParser) ExtractMetadata(ctx context.Context, path string) (map[string]any, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, types.NewParseError(path, fmt.Errorf("not a valid OpenXML container: %w", err))
	}
	defer zr.Close()
	return readCoreProperties(&zr.Reader), nil
}

// extractWordBody walks the document body token by token. Paragraphs styled
// as headings are prefixed with "## " so downstream chunking can split on
// section boundaries. Paragraphs inside tables are collected as cells
// instead of flowing text.
func extractWordBody(r io.Reader) ([]string, []types.Table, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		tables     []types.Table

		tableDepth int
		curTable   [][]string
		curRow     []string

		inPara    bool
		paraBuf   strings.Builder
		isHeading bool
		cellBuf   strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					curTable = nil
				}
			case "tr":
				if tableDepth == 1 {
					curRow = nil
				}
			case "tc":
				if tableDepth == 1 {
					cellBuf.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inPara = true
					isHeading = false
					paraBuf.Reset()
				}
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" && strings.HasPrefix(attr.Value, "Heading") {
						isHeading = true
					}
				}
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					continue
				}
				if tableDepth > 0 {
					cellBuf.WriteString(text)
				} else if inPara {
					paraBuf.WriteString(text)
				}
			case "tab":
				if inPara && tableDepth == 0 {
					paraBuf.WriteString("\t")
				}
			case "br":
				if inPara && tableDepth == 0 {
					paraBuf.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(curTable) > 0 {
					tables = append(tables, types.Table{Index: len(tables), Data: curTable})
				}
			case "tr":
				if tableDepth == 1 && len(curRow) > 0 {
					curTable = append(curTable, curRow)
				}
			case "tc":
				if tableDepth == 1 {
					curRow = append(curRow, strings.TrimSpace(cellBuf.String()))
				}
			case "p":
				if tableDepth == 0 && inPara {
					inPara = false
					text := strings.TrimSpace(paraBuf.String())
					if text == "" {
						continue
					}
					if isHeading {
						text = "## " + text
					}
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}
	return paragraphs, tables, nil
}

type coreProps struct {
	Title    string `xml:"title"`
	Subject  string `xml:"subject"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

// readCoreProperties pulls docProps/core.xml, shared by all OpenXML formats.
func readCoreProperties(zr *zip.Reader) map[string]any {
	meta := make(map[string]any)
	for _, f := range zr.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return meta
		}
		var props coreProps
		err = xml.NewDecoder(rc).Decode(&props)
		rc.Close()
		if err != nil {
			return meta
		}
		if props.Title != "" {
			meta["title"] = props.Title
		}
		if props.Subject != "" {
			meta["subject"] = props.Subject
		}
		if props.Creator != "" {
			meta["author"] = props.Creator
		}
		if props.Created != "" {
			meta["created"] = props.Created
		}
		if props.Modified != "" {
			meta["modified"] = props.Modified
		}
	}
	return meta
}
