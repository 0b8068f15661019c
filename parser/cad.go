package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Khalid-Galal/bidops-ai/types"
	"github.com/Khalid-Galal/bidops-ai/utils"
)

// titleBlockTags marks ATTRIB tags that usually live in a drawing's title
// block. Their values carry the searchable identity of the sheet.
var titleBlockTags = []string{"title", "dwg", "rev", "date", "scale", "project"}

// CADParser extracts annotation text from DXF drawings. DWG files are first
// converted to DXF through an external ODA File Converter binary; without a
// configured converter DWG files are rejected.
type CADParser struct {
	converterPath  string
	convertTimeout time.Duration
}

func NewCADParser(converterPath string, timeoutSec int) *CADParser {
	if timeoutSec <= 0 {
		timeoutSec = 120
	}
	return &CADParser{
		converterPath:  converterPath,
		convertTimeout: time.Duration(timeoutSec) * time.Second,
	}
}

func (p *CADParser) Extensions() []string {
	return []string{".dxf", ".dwg"}
}

func (p *CADParser) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	start := time.Now()

	dxfPath := path
	var warnings []string
	if utils.FileExt(path) == ".dwg" {
		converted, err := p.convertDWG(ctx, path)
		if err != nil {
			if errors.Is(err, types.ErrConversionTimeout) {
				return nil, types.NewParseError(path, err)
			}
			// some .dwg files in the wild are mislabeled DXF, try directly
			warnings = append(warnings, fmt.Sprintf("DWG conversion failed, trying direct parse: %v", err))
		} else {
			dxfPath = converted
			defer os.RemoveAll(filepath.Dir(converted))
		}
	}

	f, err := os.Open(dxfPath)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	defer f.Close()

	result, err := parseDXF(f)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}

	content := &types.ParsedContent{
		Text:     result.text(),
		Warnings: warnings,
		Metadata: map[string]any{
			"entity_count": result.entityCount,
			"layers":       result.layers,
		},
	}
	if len(result.titleBlock) > 0 {
		content.Metadata["title_block"] = result.titleBlock
	}
	content.ProcessingTimeMs = time.Since(start).Milliseconds()
	return content, nil
}

func (p *CADParser) ExtractMetadata(ctx context.Context, path string) (map[string]any, error) {
	meta := make(map[string]any)
	if info, err := os.Stat(path); err == nil {
		meta["file_size"] = info.Size()
	}
	meta["format"] = strings.TrimPrefix(utils.FileExt(path), ".")
	return meta, nil
}

// convertDWG shells out to the ODA File Converter, which operates on
// directories. The DWG is copied into a scratch input dir and the converted
// DXF is picked up from the output dir.
func (p *CADParser) convertDWG(ctx context.Context, path string) (string, error) {
	if p.converterPath == "" {
		return "", fmt.Errorf("no DWG converter configured")
	}

	workDir, err := os.MkdirTemp("", "dwg-convert-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	inDir := filepath.Join(workDir, "in")
	outDir := filepath.Join(workDir, "out")
	for _, dir := range []string{inDir, outDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			os.RemoveAll(workDir)
			return "", fmt.Errorf("failed to create temp dir: %w", err)
		}
	}

	if err := copyFile(path, filepath.Join(inDir, filepath.Base(path))); err != nil {
		os.RemoveAll(workDir)
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.convertTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.converterPath, inDir, outDir, "ACAD2018", "DXF", "0", "1")
	if out, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(workDir)
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w after %s", types.ErrConversionTimeout, p.convertTimeout)
		}
		return "", fmt.Errorf("converter failed: %w: %s", err, string(out))
	}

	base := utils.GetFileNameWithoutExt(path)
	dxfPath := filepath.Join(outDir, base+".dxf")
	if _, err := os.Stat(dxfPath); err != nil {
		os.RemoveAll(workDir)
		return "", fmt.Errorf("converter produced no output for %s", filepath.Base(path))
	}
	return dxfPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return nil
}

type dxfResult struct {
	titleBlock  map[string]string
	texts       []string
	dimensions  []string
	attributes  []string
	blocks      []string
	layers      []string
	entityCount int
}

func (r *dxfResult) text() string {
	var sb strings.Builder
	for tag, val := range r.titleBlock {
		sb.WriteString(fmt.Sprintf("%s: %s\n", strings.ToUpper(tag), val))
	}
	for _, t := range r.texts {
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	for _, d := range r.dimensions {
		sb.WriteString(d)
		sb.WriteString("\n")
	}
	for _, a := range r.attributes {
		sb.WriteString(a)
		sb.WriteString("\n")
	}
	if len(r.blocks) > 0 {
		sb.WriteString("Blocks: " + strings.Join(r.blocks, ", ") + "\n")
	}
	if len(r.layers) > 0 {
		sb.WriteString("Layers: " + strings.Join(r.layers, ", ") + "\n")
	}
	return strings.TrimSpace(sb.String())
}

// parseDXF walks the group-code/value pair stream of an ASCII DXF file.
// Only annotation entities are kept: TEXT, MTEXT, DIMENSION, ATTRIB, plus
// LAYER and INSERT names for context.
func parseDXF(r io.Reader) (*dxfResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	result := &dxfResult{titleBlock: make(map[string]string)}
	var (
		entity    string
		attribTag string
		pairOK    bool
		code      int
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !pairOK {
			n, err := strconv.Atoi(line)
			if err != nil {
				// binary DXF or garbage, bail out
				return nil, fmt.Errorf("not an ASCII DXF stream")
			}
			code = n
			pairOK = true
			continue
		}
		pairOK = false
		value := line

		switch code {
		case 0:
			entity = value
			attribTag = ""
			switch entity {
			case "TEXT", "MTEXT", "DIMENSION", "ATTRIB", "INSERT":
				result.entityCount++
			}
		case 1:
			switch entity {
			case "TEXT", "MTEXT":
				if text := cleanMText(value); text != "" {
					result.texts = append(result.texts, text)
				}
			case "ATTRIB":
				if attribTag != "" && value != "" {
					line := fmt.Sprintf("%s: %s", strings.ToUpper(attribTag), value)
					if isTitleBlockTag(attribTag) {
						result.titleBlock[strings.ToLower(attribTag)] = value
					} else {
						result.attributes = append(result.attributes, line)
					}
				}
			case "DIMENSION":
				if value != "" && value != "<>" {
					result.dimensions = append(result.dimensions, "Dimension: "+value)
				}
			}
		case 2:
			switch entity {
			case "ATTRIB":
				attribTag = value
			case "LAYER":
				result.layers = append(result.layers, value)
			case "INSERT":
				result.blocks = append(result.blocks, value)
			}
		case 3:
			if entity == "MTEXT" {
				if text := cleanMText(value); text != "" {
					result.texts = append(result.texts, text)
				}
			}
		case 42:
			if entity == "DIMENSION" {
				result.dimensions = append(result.dimensions, "Dimension: "+value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan DXF: %w", err)
	}
	return result, nil
}

func isTitleBlockTag(tag string) bool {
	lower := strings.ToLower(tag)
	for _, kw := range titleBlockTags {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// cleanMText strips the inline formatting codes MTEXT values carry.
func cleanMText(s string) string {
	s = strings.ReplaceAll(s, `\P`, " ")
	s = strings.ReplaceAll(s, "{", "")
	s = strings.ReplaceAll(s, "}", "")
	for {
		i := strings.Index(s, `\`)
		if i < 0 || i+1 >= len(s) {
			break
		}
		// formatting codes run to the next semicolon
		if j := strings.Index(s[i:], ";"); j >= 0 {
			s = s[:i] + s[i+j+1:]
		} else {
			s = s[:i] + s[i+2:]
		}
	}
	return strings.TrimSpace(s)
}
