package service

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Khalid-Galal/bidops-ai/database"
	"github.com/Khalid-Galal/bidops-ai/parser"
	"github.com/Khalid-Galal/bidops-ai/repository"
	"github.com/Khalid-Galal/bidops-ai/types"
	"github.com/Khalid-Galal/bidops-ai/utils"
)

// DocumentService drives the ingestion pipeline: file discovery, hashing,
// parsing, classification, chunking, embedding and persistence.
type DocumentService struct {
	registry    *parser.Registry
	chunker     *Chunker
	classifier  *Classifier
	store       database.VectorStore
	docRepo     repository.DocumentRepo
	projectRepo repository.ProjectRepo
}

func NewDocumentService(
	registry *parser.Registry,
	chunker *Chunker,
	store database.VectorStore,
	docRepo repository.DocumentRepo,
	projectRepo repository.ProjectRepo,
) *DocumentService {
	return &DocumentService{
		registry:    registry,
		chunker:     chunker,
		classifier:  NewClassifier(),
		store:       store,
		docRepo:     docRepo,
		projectRepo: projectRepo,
	}
}

// IngestProjectFolder processes every supported file under the project
// folder. Files whose content hash is already indexed are skipped unless
// forceReindex is set. Per-file failures are recorded in the returned stats
// and never abort the batch.
func (s *DocumentService) IngestProjectFolder(
	ctx context.Context,
	projectID string,
	folderPath string,
	forceReindex bool,
	progress types.ProgressFunc,
) (*types.IngestStats, error) {
	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	folder := folderPath
	if folder == "" {
		folder = project.FolderPath
	}
	if _, err := os.Stat(folder); err != nil {
		return nil, fmt.Errorf("%w: folder %s", types.ErrNotFound, folder)
	}

	files, err := s.discoverFiles(folder)
	if err != nil {
		return nil, err
	}

	stats := &types.IngestStats{TotalFiles: len(files)}

	if err := s.projectRepo.UpdateCounters(ctx, projectID, len(files), 0, 0, types.ProjectIngesting); err != nil {
		return nil, err
	}

	for i, path := range files {
		status, err := s.processFile(ctx, projectID, path, forceReindex)
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, types.IngestError{File: path, Error: err.Error()})
			log.Printf("Failed to process %s: %v", path, err)
		} else {
			switch status {
			case "indexed":
				stats.Indexed++
			case "skipped":
				stats.Skipped++
			default:
				stats.Failed++
			}
		}
		stats.Processed++

		if progress != nil {
			if status == "" {
				status = "failed"
			}
			progress(types.IngestProgress{
				Current: i + 1,
				Total:   len(files),
				File:    filepath.Base(path),
				Status:  status,
			})
		}
	}

	if err := s.projectRepo.UpdateCounters(ctx, projectID, len(files), stats.Indexed, stats.Failed, types.ProjectReady); err != nil {
		return nil, err
	}
	return stats, nil
}

// discoverFiles walks the folder and returns the sorted paths of every file
// a registered parser claims.
func (s *DocumentService) discoverFiles(folder string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if s.registry.CanParse(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk folder: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// processFile runs one file through the pipeline and returns its terminal
// status: indexed, skipped or failed.
func (s *DocumentService) processFile(ctx context.Context, projectID, path string, forceReindex bool) (string, error) {
	contentHash, err := utils.HashFile(path)
	if err != nil {
		return "failed", err
	}

	if !forceReindex {
		existing, err := s.docRepo.FindIndexedByHash(ctx, projectID, contentHash)
		if err != nil {
			return "failed", err
		}
		if existing != nil {
			return "skipped", nil
		}
	}

	doc, err := s.upsertDocumentRecord(ctx, projectID, path, contentHash)
	if err != nil {
		return "failed", err
	}

	parsed, err := s.registry.Parse(ctx, path)
	if err != nil {
		s.markFailed(ctx, doc, err)
		return "failed", err
	}
	for _, w := range parsed.Warnings {
		log.Printf("Warning parsing %s: %s", filepath.Base(path), w)
	}

	// a file that parses cleanly but yields no text carries nothing worth
	// indexing (blank scans, empty sheets)
	if !parsed.HasContent() {
		doc.Status = types.StatusSkipped
		doc.UpdatedAt = time.Now().Unix()
		if err := s.docRepo.Update(ctx, doc); err != nil {
			return "failed", err
		}
		return "skipped", nil
	}

	doc.ExtractedText = parsed.Text
	doc.PageCount = parsed.PageCount
	doc.Metadata = parsed.Metadata
	doc.ProcessingTimeMs = parsed.ProcessingTimeMs
	doc.Category = s.classifier.Classify(parsed.Text)
	doc.Language = s.classifier.Language(parsed.Text)

	if err := s.chunkAndEmbed(ctx, doc, parsed); err != nil {
		s.markFailed(ctx, doc, err)
		return "failed", err
	}

	doc.Status = types.StatusIndexed
	doc.ErrorMessage = ""
	doc.IndexedAt = time.Now().Unix()
	doc.UpdatedAt = time.Now().Unix()
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return "failed", err
	}
	return "indexed", nil
}

// upsertDocumentRecord finds the document by project and path or creates a
// fresh record, and moves it into processing state.
func (s *DocumentService) upsertDocumentRecord(ctx context.Context, projectID, path, contentHash string) (*types.Document, error) {
	doc, err := s.docRepo.FindByProjectAndPath(ctx, projectID, path)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	if doc == nil {
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		doc = &types.Document{
			ID:          uuid.NewString(),
			ProjectID:   projectID,
			Filename:    filepath.Base(path),
			FilePath:    path,
			FileType:    trimDot(utils.FileExt(path)),
			FileSize:    size,
			ContentHash: contentHash,
			Status:      types.StatusProcessing,
			Category:    types.CategoryUnknown,
			Version:     1,
			CreatedAt:   now,
		}
		if err := s.docRepo.Create(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	if doc.ContentHash != contentHash {
		doc.Version++
	}
	doc.ContentHash = contentHash
	doc.Status = types.StatusProcessing
	doc.ErrorMessage = ""
	doc.UpdatedAt = now
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// chunkAndEmbed replaces the stored chunks and vectors for the document
// with a fresh set derived from the parsed content.
func (s *DocumentService) chunkAndEmbed(ctx context.Context, doc *types.Document, parsed *types.ParsedContent) error {
	// stale vectors first, so a reindex never leaves orphans behind
	if err := s.store.DeleteByFilter(ctx, map[string]any{"document_id": doc.ID}); err != nil {
		return fmt.Errorf("failed to clear old vectors: %w", err)
	}

	chunks := s.chunker.Chunk(parsed.Text, parsed.Pages)
	if len(chunks) == 0 {
		doc.VectorIDs = nil
		return s.docRepo.ReplaceChunks(ctx, doc.ID, nil)
	}

	texts := make([]string, len(chunks))
	metadatas := make([]types.ChunkMetadata, len(chunks))
	ids := make([]string, len(chunks))
	records := make([]*types.DocumentChunk, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		ids[i] = uuid.NewString()
		metadatas[i] = types.ChunkMetadata{
			DocumentID: doc.ID,
			ProjectID:  doc.ProjectID,
			Filename:   doc.Filename,
			ChunkIndex: i,
			PageNumber: c.Page,
			Category:   string(doc.Category),
		}
		records[i] = &types.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			ChunkIndex: i,
			ChunkText:  c.Text,
			CharStart:  c.Start,
			CharEnd:    c.End,
			PageNumber: c.Page,
			VectorID:   ids[i],
			Metadata:   metadatas[i],
		}
	}

	vectorIDs, err := s.store.AddTexts(ctx, texts, metadatas, ids)
	if err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}

	if err := s.docRepo.ReplaceChunks(ctx, doc.ID, records); err != nil {
		return err
	}
	doc.VectorIDs = vectorIDs
	return nil
}

func (s *DocumentService) markFailed(ctx context.Context, doc *types.Document, cause error) {
	doc.Status = types.StatusFailed
	doc.ErrorMessage = cause.Error()
	doc.UpdatedAt = time.Now().Unix()
	if err := s.docRepo.Update(ctx, doc); err != nil {
		log.Printf("Failed to mark document %s as failed: %v", doc.ID, err)
	}
}

// SearchDocuments runs a semantic search across a project. Category
// filtering happens after retrieval, the store only filters on equality
// conditions.
func (s *DocumentService) SearchDocuments(
	ctx context.Context,
	query string,
	projectID string,
	categories []types.DocumentCategory,
	limit int,
	minScore float64,
) ([]types.DocumentSearchResult, error) {
	filter := map[string]any{}
	if projectID != "" {
		filter["project_id"] = projectID
	}

	fetchLimit := limit
	if len(categories) > 0 && limit > 0 {
		// over-fetch so post-filtering can still fill the requested limit
		fetchLimit = limit * len(categories)
	}

	hits, err := s.store.Search(ctx, query, fetchLimit, filter, minScore)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[string(c)] = true
	}

	var results []types.DocumentSearchResult
	for _, hit := range hits {
		category, _ := hit.Metadata["category"].(string)
		if len(wanted) > 0 && !wanted[category] {
			continue
		}
		r := types.DocumentSearchResult{
			ChunkText: hit.Text,
			Score:     hit.Score,
			Metadata:  hit.Metadata,
		}
		r.DocumentID, _ = hit.Metadata["document_id"].(string)
		r.Filename, _ = hit.Metadata["filename"].(string)
		if page, ok := hit.Metadata["page_number"].(int); ok {
			r.PageNumber = page
		}
		results = append(results, r)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// GetDocumentContent returns the stored document with its extracted text.
func (s *DocumentService) GetDocumentContent(ctx context.Context, documentID string) (*types.Document, error) {
	return s.docRepo.GetByID(ctx, documentID)
}

func trimDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
