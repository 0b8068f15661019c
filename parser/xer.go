package parser

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// XERParser reads Primavera P6 export files. The format is a sequence of
// tab-separated tables: %T names a table, %F its columns, %R a row. Only
// the scheduling tables that carry human-readable names are rendered.
type XERParser struct{}

func NewXERParser() *XERParser { return &XERParser{} }

func (p *XERParser) Extensions() []string {
	return []string{".xer"}
}

func (p *XERParser) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		sb         strings.Builder
		table      string
		fields     []string
		rowCounts  = make(map[string]int)
		activities int
	)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.Split(line, "\t")
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "%T":
			if len(parts) > 1 {
				table = parts[1]
				fields = nil
			}
		case "%F":
			fields = parts[1:]
		case "%R":
			rowCounts[table]++
			row := rowFields(fields, parts[1:])
			switch table {
			case "PROJECT":
				if name := firstNonEmpty(row, "proj_short_name", "proj_name"); name != "" {
					sb.WriteString("Project: " + name + "\n")
				}
			case "TASK":
				activities++
				code := row["task_code"]
				name := row["task_name"]
				switch {
				case code != "" && name != "":
					sb.WriteString(fmt.Sprintf("Activity: %s - %s\n", code, name))
				case name != "":
					sb.WriteString("Activity: " + name + "\n")
				}
			case "PROJWBS":
				if name := row["wbs_name"]; name != "" {
					sb.WriteString("WBS: " + name + "\n")
				}
			case "RSRC":
				if name := firstNonEmpty(row, "rsrc_name", "rsrc_short_name"); name != "" {
					sb.WriteString("Resource: " + name + "\n")
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, types.NewParseError(path, err)
	}

	content := &types.ParsedContent{
		Text: strings.TrimSpace(sb.String()),
		Metadata: map[string]any{
			"activity_count": activities,
			"table_counts":   rowCounts,
		},
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	return content, nil
}

func (p *XERParser) ExtractMetadata(ctx context.Context, path string) (map[string]any, error) {
	meta := make(map[string]any)
	if info, err := os.Stat(path); err == nil {
		meta["file_size"] = info.Size()
	}
	return meta, nil
}

func rowFields(fields, values []string) map[string]string {
	row := make(map[string]string, len(fields))
	for i, f := range fields {
		if i < len(values) {
			row[f] = strings.TrimSpace(values[i])
		}
	}
	return row
}

func firstNonEmpty(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}
