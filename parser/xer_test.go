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

func xerFixture() string {
	lines := []string{
		"ERMHDR\t19.12\t2026-01-10",
		"%T\tPROJECT",
		"%F\tproj_id\tproj_short_name\tproj_name",
		"%R\t1001\tPORT-EXP\tPort Expansion Phase 2",
		"%T\tPROJWBS",
		"%F\twbs_id\twbs_name",
		"%R\t10\tMarine Works",
		"%R\t11\t",
		"%T\tTASK",
		"%F\ttask_id\ttask_code\ttask_name",
		"%R\t1\tA1010\tMobilization",
		"%R\t2\tA1020\tDredging",
		"%R\t3\t\tUnnamed activity",
		"%T\tRSRC",
		"%F\trsrc_id\trsrc_name\trsrc_short_name",
		"%R\t5\tCrane Crew\tCC",
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestXERParse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.xer")
	require.NoError(t, os.WriteFile(path, []byte(xerFixture()), 0o644))

	p := NewXERParser()
	content, err := p.Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Contains(t, content.Text, "Project: PORT-EXP")
	assert.Contains(t, content.Text, "WBS: Marine Works")
	assert.Contains(t, content.Text, "Activity: A1010 - Mobilization")
	assert.Contains(t, content.Text, "Activity: A1020 - Dredging")
	assert.Contains(t, content.Text, "Activity: Unnamed activity", "code-less tasks fall back to the name")
	assert.Contains(t, content.Text, "Resource: Crane Crew")

	assert.Equal(t, 3, content.Metadata["activity_count"])
	counts, ok := content.Metadata["table_counts"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 3, counts["TASK"])
	assert.Equal(t, 2, counts["PROJWBS"])
	assert.Equal(t, 1, counts["RSRC"])
}

func TestXEREmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.xer")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	p := NewXERParser()
	content, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, content.Text)
	assert.Equal(t, 0, content.Metadata["activity_count"])
}
