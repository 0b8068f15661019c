package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// XlsxParser reads Excel OpenXML workbooks. Each sheet is rendered as a
// "=== Sheet: name ===" section with pipe-joined rows, which keeps BOQ line
// items searchable as plain text. Legacy .xls files fail at the container
// check.
type XlsxParser struct{}

func NewXlsxParser() *XlsxParser { return &XlsxParser{} }

func (p *XlsxParser) Extensions() []string {
	return []string{".xlsx", ".xlsm", ".xls"}
}

func (p *XlsxParser) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, types.NewParseError(path, fmt.Errorf("not a valid OpenXML container: %w", err))
	}
	defer zr.Close()

	shared, err := readSharedStrings(&zr.Reader)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	names, err := readSheetNames(&zr.Reader)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}

	var (
		sb     strings.Builder
		tables []types.Table
	)
	for i, name := range names {
		f := findZipFile(&zr.Reader, fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1))
		if f == nil {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, types.NewParseError(path, err)
		}
		rows, err := readSheetRows(rc, shared)
		rc.Close()
		if err != nil {
			return nil, types.NewParseError(path, err)
		}
		if len(rows) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("=== Sheet: %s ===\n", name))
		for _, row := range rows {
			sb.WriteString(strings.Join(row, " | "))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		tables = append(tables, types.Table{Sheet: name, Data: rows})
	}

	content := &types.ParsedContent{
		Text:     strings.TrimSpace(sb.String()),
		Tables:   tables,
		Metadata: map[string]any{"sheet_count": len(names), "sheet_names": names},
	}
	for k, v := range readCoreProperties(&zr.Reader) {
		content.Metadata[k] = v
	}
	content.ProcessingTimeMs = time.Since(start).Milliseconds()
	return content, nil
}

func (p *XlsxParser) ExtractMetadata(ctx context.Context, path string) (map[string]any, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, types.NewParseError(path, fmt.Errorf("not a valid OpenXML container: %w", err))
	}
	defer zr.Close()

	meta := readCoreProperties(&zr.Reader)
	if names, err := readSheetNames(&zr.Reader); err == nil {
		meta["sheet_count"] = len(names)
		meta["sheet_names"] = names
	}
	return meta, nil
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// readSharedStrings loads xl/sharedStrings.xml. String cells reference this
// table by index. A workbook with only inline or numeric cells has no
// shared strings part at all.
func readSharedStrings(zr *zip.Reader) ([]string, error) {
	f := findZipFile(zr, "xl/sharedStrings.xml")
	if f == nil {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		shared []string
		cur    strings.Builder
		inSI   bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode sharedStrings.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inSI = true
				cur.Reset()
			case "t":
				if inSI {
					var text string
					if err := dec.DecodeElement(&text, &t); err == nil {
						cur.WriteString(text)
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "si" {
				inSI = false
				shared = append(shared, cur.String())
			}
		}
	}
	return shared, nil
}

func readSheetNames(zr *zip.Reader) ([]string, error) {
	f := findZipFile(zr, "xl/workbook.xml")
	if f == nil {
		return nil, fmt.Errorf("xl/workbook.xml missing")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var wb struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheets>sheet"`
	}
	if err := xml.NewDecoder(rc).Decode(&wb); err != nil {
		return nil, fmt.Errorf("failed to decode workbook.xml: %w", err)
	}
	names := make([]string, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	return names, nil
}

type xlsxCell struct {
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

func (c xlsxCell) resolve(shared []string) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(c.Value)
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		return c.Inline
	default:
		return c.Value
	}
}

func readSheetRows(r io.Reader, shared []string) ([][]string, error) {
	dec := xml.NewDecoder(r)
	var (
		rows   [][]string
		curRow []string
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode worksheet: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				curRow = nil
			case "c":
				var cell xlsxCell
				if err := dec.DecodeElement(&cell, &t); err != nil {
					continue
				}
				curRow = append(curRow, strings.TrimSpace(cell.resolve(shared)))
			}
		case xml.EndElement:
			if t.Name.Local == "row" {
				if rowHasContent(curRow) {
					rows = append(rows, curRow)
				}
			}
		}
	}
	return rows, nil
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return true
		}
	}
	return false
}
