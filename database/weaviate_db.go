package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/Khalid-Galal/bidops-ai/config"
	"github.com/Khalid-Galal/bidops-ai/types"
)

const BATCH_SIZE = 200

// Embedder turns text into vectors. Implemented by service.OpenAIEmbedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is the retrieval surface the ingestion and extraction
// services depend on.
type VectorStore interface {
	AddTexts(ctx context.Context, texts []string, metadatas []types.ChunkMetadata, ids []string) ([]string, error)
	Search(ctx context.Context, query string, limit int, filter map[string]any, minScore float64) ([]types.SearchResult, error)
	DeleteByFilter(ctx context.Context, filter map[string]any) error
}

func chunkClassObject(className string) *models.Class {
	return &models.Class{
		Class: className,
		Properties: []*models.Property{
			{Name: "chunk_text", DataType: []string{"text"}},
			{Name: "document_id", DataType: []string{"text"}},
			{Name: "project_id", DataType: []string{"text"}},
			{Name: "filename", DataType: []string{"text"}},
			{Name: "chunk_index", DataType: []string{"int"}},
			{Name: "page_number", DataType: []string{"int"}},
			{Name: "category", DataType: []string{"text"}},
		},
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}
}

// WeaviateStore stores chunk vectors in a single Weaviate class. Vectors are
// always supplied explicitly through the injected embedder, the class has no
// vectorizer module.
type WeaviateStore struct {
	client    *weaviate.Client
	embedder  Embedder
	className string
}

func NewWeaviateStore(config config.WeaviateStoreConfig, embedder Embedder) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(config.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(config.Host, scheme+"://")
	cfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if config.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{
			Value: config.APIKey,
		}
	}
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	className := config.ClassName
	if className == "" {
		className = "TenderChunk"
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %v", err)
	}

	hasClass := false
	for _, class := range schema.Classes {
		if class.Class == className {
			hasClass = true
			break
		}
	}
	if !hasClass {
		err = client.Schema().ClassCreator().WithClass(chunkClassObject(className)).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create %s class: %v", className, err)
		}
	}

	return &WeaviateStore{
		client:    client,
		embedder:  embedder,
		className: className,
	}, nil
}

// ReInit drops and recreates the chunk class, wiping every stored vector.
func (s *WeaviateStore) ReInit() error {
	err := s.client.Schema().ClassDeleter().WithClassName(s.className).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete %s class: %v", s.className, err)
	}
	err = s.client.Schema().ClassCreator().WithClass(chunkClassObject(s.className)).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create %s class: %v", s.className, err)
	}
	return nil
}

// AddTexts embeds and stores the texts with their metadata. When ids is nil
// a fresh UUID is minted per chunk. The assigned ids are returned in order.
func (s *WeaviateStore) AddTexts(ctx context.Context, texts []string, metadatas []types.ChunkMetadata, ids []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(metadatas) != len(texts) {
		return nil, fmt.Errorf("metadata count mismatch: got %d, want %d", len(metadatas), len(texts))
	}
	if ids == nil {
		ids = make([]string, len(texts))
		for i := range ids {
			ids[i] = uuid.NewString()
		}
	}
	if len(ids) != len(texts) {
		return nil, fmt.Errorf("id count mismatch: got %d, want %d", len(ids), len(texts))
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed texts: %w", err)
	}

	total := len(texts)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			m := metadatas[j]
			properties := map[string]interface{}{
				"chunk_text":  texts[j],
				"document_id": m.DocumentID,
				"project_id":  m.ProjectID,
				"filename":    m.Filename,
				"chunk_index": m.ChunkIndex,
				"page_number": m.PageNumber,
				"category":    m.Category,
			}
			batcher = batcher.WithObjects(&models.Object{
				Class:      s.className,
				ID:         strfmt.UUID(ids[j]),
				Properties: properties,
				Vector:     vectors[j],
			})
		}

		if _, err := batcher.Do(ctx); err != nil {
			return nil, fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}
		log.Printf("Inserted batch %d-%d of %d chunks", i, end, total)
	}

	return ids, nil
}

// Search embeds the query and returns the nearest chunks above minScore.
// filter holds equality conditions on chunk properties, all ANDed together.
func (s *WeaviateStore) Search(ctx context.Context, query string, limit int, filter map[string]any, minScore float64) ([]types.SearchResult, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	fields := []graphql.Field{
		{Name: "chunk_text"},
		{Name: "document_id"},
		{Name: "project_id"},
		{Name: "filename"},
		{Name: "chunk_index"},
		{Name: "page_number"},
		{Name: "category"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}, {Name: "id"}}},
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	if minScore > 0 {
		nearVector = nearVector.WithCertainty(float32(minScore))
	}

	getBuilder := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(fields...).
		WithNearVector(nearVector)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}
	if where := buildEqualityFilter(filter); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	var hits []types.SearchResult
	if data, ok := result.Data["Get"].(map[string]interface{})[s.className].([]interface{}); ok {
		for _, item := range data {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			hit := types.SearchResult{
				Metadata: map[string]any{},
			}
			if text, ok := obj["chunk_text"].(string); ok {
				hit.Text = text
			}
			for _, key := range []string{"document_id", "project_id", "filename", "category"} {
				if v, ok := obj[key].(string); ok {
					hit.Metadata[key] = v
				}
			}
			for _, key := range []string{"chunk_index", "page_number"} {
				if v, ok := obj[key].(float64); ok {
					hit.Metadata[key] = int(v)
				}
			}
			if additional, ok := obj["_additional"].(map[string]interface{}); ok {
				if id, ok := additional["id"].(string); ok {
					hit.ID = id
				}
				if certainty, ok := additional["certainty"].(float64); ok {
					hit.Score = certainty
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// CollectionInfo reports the chunk class name and how many objects it holds.
func (s *WeaviateStore) CollectionInfo(ctx context.Context) (string, int64, error) {
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(s.className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return s.className, 0, fmt.Errorf("failed to aggregate %s: %v", s.className, err)
	}
	if result.Errors != nil {
		return s.className, 0, fmt.Errorf("failed to aggregate %s: %v", s.className, result.Errors[0].Message)
	}

	var count int64
	if data, ok := result.Data["Aggregate"].(map[string]interface{})[s.className].([]interface{}); ok && len(data) > 0 {
		if obj, ok := data[0].(map[string]interface{}); ok {
			if meta, ok := obj["meta"].(map[string]interface{}); ok {
				if c, ok := meta["count"].(float64); ok {
					count = int64(c)
				}
			}
		}
	}
	return s.className, count, nil
}

// DeleteByFilter removes every chunk matching the equality filter. Deleting
// with an empty filter is refused, it would wipe the class.
func (s *WeaviateStore) DeleteByFilter(ctx context.Context, filter map[string]any) error {
	where := buildEqualityFilter(filter)
	if where == nil {
		return fmt.Errorf("refusing to delete without a filter")
	}
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.className).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %v", err)
	}
	return nil
}

func buildEqualityFilter(filter map[string]any) *filters.WhereBuilder {
	var conds []*filters.WhereBuilder
	for key, value := range filter {
		cond := filters.Where().
			WithPath([]string{key}).
			WithOperator(filters.Equal)
		switch v := value.(type) {
		case string:
			cond = cond.WithValueString(v)
		case int:
			cond = cond.WithValueInt(int64(v))
		case int64:
			cond = cond.WithValueInt(v)
		default:
			cond = cond.WithValueString(fmt.Sprintf("%v", v))
		}
		conds = append(conds, cond)
	}
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(conds)
	}
}
