package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khalid-Galal/bidops-ai/config"
	"github.com/Khalid-Galal/bidops-ai/parser"
	"github.com/Khalid-Galal/bidops-ai/types"
)

func newIngestFixture(t *testing.T) (*DocumentService, *fakeVectorStore, *fakeDocRepo, *fakeProjectRepo, string) {
	t.Helper()
	registry := parser.NewRegistry(config.ProcessingConfig{})
	chunker := NewChunker(200, 40)
	store := newFakeVectorStore()
	docRepo := newFakeDocRepo()
	projectRepo := newFakeProjectRepo()
	svc := NewDocumentService(registry, chunker, store, docRepo, projectRepo)

	folder := t.TempDir()
	projectID := "proj-1"
	require.NoError(t, projectRepo.Create(context.Background(), &types.Project{
		ID:         projectID,
		Name:       "Test Project",
		FolderPath: folder,
	}))
	return svc, store, docRepo, projectRepo, folder
}

func writeFile(t *testing.T, folder, name, content string) string {
	t.Helper()
	path := filepath.Join(folder, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestProjectFolder(t *testing.T) {
	svc, store, docRepo, projectRepo, folder := newIngestFixture(t)
	ctx := context.Background()

	writeFile(t, folder, "itt.txt", "Invitation to Tender for the new warehouse.\n\nSubmission deadline 15 March.")
	writeFile(t, folder, "notes.bin", "unsupported format, ignored by discovery")

	var progress []types.IngestProgress
	stats, err := svc.IngestProjectFolder(ctx, "proj-1", "", false, func(p types.IngestProgress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalFiles, "unsupported files are not discovered")
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 0, stats.Failed)
	require.Len(t, progress, 1)
	assert.Equal(t, "indexed", progress[0].Status)
	assert.Equal(t, "itt.txt", progress[0].File)

	// document record carries classification and language
	doc, err := docRepo.FindByProjectAndPath(ctx, "proj-1", filepath.Join(folder, "itt.txt"))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, types.StatusIndexed, doc.Status)
	assert.Equal(t, types.CategoryITT, doc.Category)
	assert.Equal(t, "en", doc.Language)
	assert.NotEmpty(t, doc.ContentHash)
	assert.NotEmpty(t, doc.VectorIDs)

	// chunks landed in both stores
	chunks, err := docRepo.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
	assert.Len(t, store.added, len(chunks))

	// project counters were finalized
	project, err := projectRepo.Get(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, types.ProjectReady, project.Status)
	assert.Equal(t, 1, project.IndexedDocuments)
}

func TestIngestSkipsUnchangedFiles(t *testing.T) {
	svc, _, _, _, folder := newIngestFixture(t)
	ctx := context.Background()

	writeFile(t, folder, "doc.txt", "The contract terms and conditions.")

	stats, err := svc.IngestProjectFolder(ctx, "proj-1", "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	// unchanged content is skipped on the second run
	stats, err = svc.IngestProjectFolder(ctx, "proj-1", "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)

	// force reindex processes it again
	stats, err = svc.IngestProjectFolder(ctx, "proj-1", "", true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
}

func TestIngestReprocessesChangedContent(t *testing.T) {
	svc, _, docRepo, _, folder := newIngestFixture(t)
	ctx := context.Background()

	path := writeFile(t, folder, "doc.txt", "Original agreement content.")

	_, err := svc.IngestProjectFolder(ctx, "proj-1", "", false, nil)
	require.NoError(t, err)
	first, err := docRepo.FindByProjectAndPath(ctx, "proj-1", path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("Amended agreement content."), 0o644))

	stats, err := svc.IngestProjectFolder(ctx, "proj-1", "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed, "changed hash must reprocess")

	second, err := docRepo.FindByProjectAndPath(ctx, "proj-1", path)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same path keeps the same record")
	assert.NotEqual(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.Version+1, second.Version, "content change bumps the version")
}

func TestIngestEmptyFileSkipped(t *testing.T) {
	svc, _, docRepo, _, folder := newIngestFixture(t)
	ctx := context.Background()

	path := writeFile(t, folder, "blank.txt", "   \n\n  ")

	stats, err := svc.IngestProjectFolder(ctx, "proj-1", "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Indexed)

	doc, err := docRepo.FindByProjectAndPath(ctx, "proj-1", path)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, types.StatusSkipped, doc.Status)
}

func TestIngestContinuesAfterFailure(t *testing.T) {
	svc, _, docRepo, _, folder := newIngestFixture(t)
	ctx := context.Background()

	// a .docx that is not a zip container fails to parse
	badPath := writeFile(t, folder, "broken.docx", "this is not a zip archive")
	writeFile(t, folder, "good.txt", "Bill of Quantities for earthworks.")

	stats, err := svc.IngestProjectFolder(ctx, "proj-1", "", false, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, badPath, stats.Errors[0].File)

	doc, err := docRepo.FindByProjectAndPath(ctx, "proj-1", badPath)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, types.StatusFailed, doc.Status)
	assert.NotEmpty(t, doc.ErrorMessage)
}

func TestIngestReindexClearsOldVectors(t *testing.T) {
	svc, store, _, _, folder := newIngestFixture(t)
	ctx := context.Background()

	writeFile(t, folder, "doc.txt", "Specification for concrete works.")

	_, err := svc.IngestProjectFolder(ctx, "proj-1", "", false, nil)
	require.NoError(t, err)
	firstCount := len(store.added)

	_, err = svc.IngestProjectFolder(ctx, "proj-1", "", true, nil)
	require.NoError(t, err)

	assert.Equal(t, firstCount, len(store.added), "reindex must not accumulate vectors")
	assert.NotEmpty(t, store.deletes, "reindex clears old vectors first")
}

func TestIngestMissingProject(t *testing.T) {
	svc, _, _, _, _ := newIngestFixture(t)
	_, err := svc.IngestProjectFolder(context.Background(), "nope", "", false, nil)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSearchDocumentsCategoryFilter(t *testing.T) {
	svc, store, _, _, _ := newIngestFixture(t)
	store.hits = []types.SearchResult{
		{Text: "BOQ line", Score: 0.9, Metadata: map[string]any{"category": "boq", "filename": "boq.xlsx", "document_id": "d1"}},
		{Text: "Spec clause", Score: 0.8, Metadata: map[string]any{"category": "specs", "filename": "spec.pdf", "document_id": "d2"}},
	}

	results, err := svc.SearchDocuments(context.Background(), "concrete", "proj-1", []types.DocumentCategory{types.CategoryBOQ}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "boq.xlsx", results[0].Filename)

	// no category filter returns everything
	results, err = svc.SearchDocuments(context.Background(), "concrete", "proj-1", nil, 10, 0.5)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
