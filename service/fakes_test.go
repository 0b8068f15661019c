package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// fakeGenerator serves canned responses per task and counts calls.
type fakeGenerator struct {
	responses map[string]string
	err       error
	calls     int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, task string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	if resp, ok := g.responses[task]; ok {
		return resp, nil
	}
	return "", fmt.Errorf("no canned response for task %s", task)
}

func (g *fakeGenerator) GenerateStructured(ctx context.Context, prompt string, task string, out any) error {
	text, err := g.Generate(ctx, prompt, task)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(StripJSONFence(text)), out); err != nil {
		return fmt.Errorf("%w: %v", types.ErrSchemaViolation, err)
	}
	return nil
}

// fakeVectorStore keeps vectors in memory and serves preset search hits.
type fakeVectorStore struct {
	mu        sync.Mutex
	added     map[string]types.ChunkMetadata
	addedText map[string]string
	deletes   []map[string]any
	hits      []types.SearchResult
	searchErr error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{
		added:     make(map[string]types.ChunkMetadata),
		addedText: make(map[string]string),
	}
}

func (f *fakeVectorStore) AddTexts(ctx context.Context, texts []string, metadatas []types.ChunkMetadata, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ids == nil {
		ids = make([]string, len(texts))
		for i := range ids {
			ids[i] = uuid.NewString()
		}
	}
	for i, id := range ids {
		f.added[id] = metadatas[i]
		f.addedText[id] = texts[i]
	}
	return ids, nil
}

func (f *fakeVectorStore) Search(ctx context.Context, query string, limit int, filter map[string]any, minScore float64) ([]types.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []types.SearchResult
	for _, h := range f.hits {
		if h.Score < minScore {
			continue
		}
		out = append(out, h)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeVectorStore) DeleteByFilter(ctx context.Context, filter map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, filter)
	for id, m := range f.added {
		if docID, ok := filter["document_id"].(string); ok && m.DocumentID == docID {
			delete(f.added, id)
			delete(f.addedText, id)
		}
	}
	return nil
}

// fakeDocRepo is an in-memory repository.DocumentRepo.
type fakeDocRepo struct {
	mu     sync.Mutex
	docs   map[string]*types.Document
	chunks map[string][]*types.DocumentChunk
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{
		docs:   make(map[string]*types.Document),
		chunks: make(map[string][]*types.DocumentChunk),
	}
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *types.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocRepo) Update(ctx context.Context, doc *types.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return fmt.Errorf("%w: document %s", types.ErrNotFound, doc.ID)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id string) (*types.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", types.ErrNotFound, id)
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeDocRepo) FindByProjectAndPath(ctx context.Context, projectID, filePath string) (*types.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.ProjectID == projectID && doc.FilePath == filePath {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDocRepo) FindIndexedByHash(ctx context.Context, projectID, contentHash string) (*types.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.ProjectID == projectID && doc.ContentHash == contentHash && doc.Status == types.StatusIndexed {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDocRepo) ListByProject(ctx context.Context, projectID string) ([]*types.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Document
	for _, doc := range r.docs {
		if doc.ProjectID == projectID {
			cp := *doc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeDocRepo) ListIndexedByProject(ctx context.Context, projectID string) ([]*types.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Document
	for _, doc := range r.docs {
		if doc.ProjectID == projectID && doc.Status == types.StatusIndexed {
			cp := *doc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeDocRepo) ReplaceChunks(ctx context.Context, documentID string, chunks []*types.DocumentChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks[documentID] = chunks
	return nil
}

func (r *fakeDocRepo) ListChunks(ctx context.Context, documentID string) ([]*types.DocumentChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chunks[documentID], nil
}

// fakeProjectRepo is an in-memory repository.ProjectRepo.
type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*types.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*types.Project)}
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *types.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *project
	r.projects[project.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) Get(ctx context.Context, id string) (*types.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", types.ErrNotFound, id)
	}
	cp := *project
	return &cp, nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, project *types.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID]; !ok {
		return fmt.Errorf("%w: project %s", types.ErrNotFound, project.ID)
	}
	cp := *project
	r.projects[project.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) UpdateCounters(ctx context.Context, id string, total, indexed, failed int, status types.ProjectStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("%w: project %s", types.ErrNotFound, id)
	}
	project.TotalDocuments = total
	project.IndexedDocuments = indexed
	project.FailedDocuments = failed
	project.Status = status
	return nil
}

func (r *fakeProjectRepo) SaveSummary(ctx context.Context, id string, summary map[string]types.ExtractionField) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("%w: project %s", types.ErrNotFound, id)
	}
	project.Summary = summary
	return nil
}

func (r *fakeProjectRepo) SaveChecklist(ctx context.Context, id string, checklist []types.ChecklistItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("%w: project %s", types.ErrNotFound, id)
	}
	project.Checklist = checklist
	return nil
}
