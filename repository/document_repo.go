package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// DocumentRepo persists documents and their chunks. Lookup methods return
// (nil, nil) when nothing matches, callers branch on the nil document.
type DocumentRepo interface {
	Create(ctx context.Context, doc *types.Document) error
	Update(ctx context.Context, doc *types.Document) error
	GetByID(ctx context.Context, id string) (*types.Document, error)
	FindByProjectAndPath(ctx context.Context, projectID, filePath string) (*types.Document, error)
	FindIndexedByHash(ctx context.Context, projectID, contentHash string) (*types.Document, error)
	ListByProject(ctx context.Context, projectID string) ([]*types.Document, error)
	ListIndexedByProject(ctx context.Context, projectID string) ([]*types.Document, error)
	ReplaceChunks(ctx context.Context, documentID string, chunks []*types.DocumentChunk) error
	ListChunks(ctx context.Context, documentID string) ([]*types.DocumentChunk, error)
}

type documentRepo struct {
	collection      *mongo.Collection
	chunkCollection *mongo.Collection
}

func NewDocumentRepo(db *mongo.Database) DocumentRepo {
	collection := db.Collection("documents")
	chunkCollection := db.Collection("document_chunks")

	// dedup lookups hit (project_id, content_hash, status) on every ingest
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "content_hash", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "file_path", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(context.Background(), indexes); err != nil {
		log.Printf("Error creating document indexes: %v", err)
	}
	chunkIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "chunk_index", Value: 1}},
	}
	if _, err := chunkCollection.Indexes().CreateOne(context.Background(), chunkIndex); err != nil {
		log.Printf("Error creating chunk index: %v", err)
	}

	return &documentRepo{
		collection:      collection,
		chunkCollection: chunkCollection,
	}
}

func (r *documentRepo) Create(ctx context.Context, doc *types.Document) error {
	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (r *documentRepo) Update(ctx context.Context, doc *types.Document) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: document %s", types.ErrNotFound, doc.ID)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (*types.Document, error) {
	var doc types.Document
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: document %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) FindByProjectAndPath(ctx context.Context, projectID, filePath string) (*types.Document, error) {
	var doc types.Document
	err := r.collection.FindOne(ctx, bson.M{
		"project_id": projectID,
		"file_path":  filePath,
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) FindIndexedByHash(ctx context.Context, projectID, contentHash string) (*types.Document, error) {
	var doc types.Document
	err := r.collection.FindOne(ctx, bson.M{
		"project_id":   projectID,
		"content_hash": contentHash,
		"status":       types.StatusIndexed,
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) ListByProject(ctx context.Context, projectID string) ([]*types.Document, error) {
	return r.list(ctx, bson.M{"project_id": projectID})
}

func (r *documentRepo) ListIndexedByProject(ctx context.Context, projectID string) ([]*types.Document, error) {
	return r.list(ctx, bson.M{
		"project_id": projectID,
		"status":     types.StatusIndexed,
	})
}

func (r *documentRepo) list(ctx context.Context, filter bson.M) ([]*types.Document, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*types.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

// ReplaceChunks swaps the stored chunk set for a document in one pass, used
// on reindex so stale chunks never survive.
func (r *documentRepo) ReplaceChunks(ctx context.Context, documentID string, chunks []*types.DocumentChunk) error {
	if _, err := r.chunkCollection.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]interface{}, len(chunks))
	for i, c := range chunks {
		docs[i] = c
	}
	if _, err := r.chunkCollection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

func (r *documentRepo) ListChunks(ctx context.Context, documentID string) ([]*types.DocumentChunk, error) {
	opts := options.Find().SetSort(bson.D{{Key: "chunk_index", Value: 1}})
	cursor, err := r.chunkCollection.Find(ctx, bson.M{"document_id": documentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []*types.DocumentChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode chunks: %w", err)
	}
	return chunks, nil
}
