package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dxfFixture() string {
	pairs := []string{
		"0", "SECTION",
		"2", "TABLES",
		"0", "LAYER",
		"2", "STRUCTURAL",
		"0", "LAYER",
		"2", "ELECTRICAL",
		"0", "ENDSEC",
		"0", "SECTION",
		"2", "ENTITIES",
		"0", "TEXT",
		"1", "GROUND FLOOR PLAN",
		"0", "MTEXT",
		"1", `{\fArial;FOUNDATION DETAIL}\PSCALE 1:50`,
		"0", "DIMENSION",
		"42", "4500.0",
		"0", "INSERT",
		"2", "TITLEBLOCK",
		"0", "ATTRIB",
		"2", "DWG_NO",
		"1", "A-101",
		"0", "ATTRIB",
		"2", "CLIENT",
		"1", "Harbor Authority",
		"0", "ENDSEC",
		"0", "EOF",
	}
	return strings.Join(pairs, "\n") + "\n"
}

func TestDXFParse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.dxf")
	require.NoError(t, os.WriteFile(path, []byte(dxfFixture()), 0o644))

	p := NewCADParser("", 0)
	content, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Contains(t, content.Text, "GROUND FLOOR PLAN")
	assert.Contains(t, content.Text, "FOUNDATION DETAIL", "MTEXT formatting codes are stripped")
	assert.NotContains(t, content.Text, `\fArial`)
	assert.Contains(t, content.Text, "Dimension: 4500.0")
	assert.Contains(t, content.Text, "DWG_NO: A-101", "title block tags are surfaced")
	assert.Contains(t, content.Text, "CLIENT: Harbor Authority")
	assert.Contains(t, content.Text, "Blocks: TITLEBLOCK")
	assert.Contains(t, content.Text, "STRUCTURAL")

	titleBlock, ok := content.Metadata["title_block"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "A-101", titleBlock["dwg_no"])

	layers, ok := content.Metadata["layers"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"STRUCTURAL", "ELECTRICAL"}, layers)
}

func TestDXFBinaryRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.dxf")
	require.NoError(t, os.WriteFile(path, []byte("AutoCAD Binary DXF\x0d\x0a\x1a\x00"), 0o644))

	p := NewCADParser("", 0)
	_, err := p.Parse(context.Background(), path)
	assert.Error(t, err)
}

func TestDWGWithoutConverter(t *testing.T) {
	dir := t.TempDir()
	// a mislabeled DWG that is really ASCII DXF still parses directly
	path := filepath.Join(dir, "plan.dwg")
	require.NoError(t, os.WriteFile(path, []byte(dxfFixture()), 0o644))

	p := NewCADParser("", 0)
	content, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Contains(t, content.Text, "GROUND FLOOR PLAN")
	require.NotEmpty(t, content.Warnings)
	assert.Contains(t, content.Warnings[0], "DWG conversion failed")
}

func TestCleanMText(t *testing.T) {
	assert.Equal(t, "A B", cleanMText(`A\PB`))
	assert.Equal(t, "DETAIL", cleanMText(`{\fArial|b0;DETAIL}`))
	assert.Equal(t, "plain", cleanMText("plain"))
}
