package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// ProjectRepo persists projects and the extraction artifacts attached to
// them.
type ProjectRepo interface {
	Create(ctx context.Context, project *types.Project) error
	Get(ctx context.Context, id string) (*types.Project, error)
	Update(ctx context.Context, project *types.Project) error
	UpdateCounters(ctx context.Context, id string, total, indexed, failed int, status types.ProjectStatus) error
	SaveSummary(ctx context.Context, id string, summary map[string]types.ExtractionField) error
	SaveChecklist(ctx context.Context, id string, checklist []types.ChecklistItem) error
}

type projectRepo struct {
	collection *mongo.Collection
}

func NewProjectRepo(db *mongo.Database) ProjectRepo {
	return &projectRepo{
		collection: db.Collection("projects"),
	}
}

func (r *projectRepo) Create(ctx context.Context, project *types.Project) error {
	if project.CreatedAt == 0 {
		project.CreatedAt = time.Now().Unix()
	}
	_, err := r.collection.InsertOne(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (r *projectRepo) Get(ctx context.Context, id string) (*types.Project, error) {
	var project types.Project
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: project %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return &project, nil
}

func (r *projectRepo) Update(ctx context.Context, project *types.Project) error {
	project.UpdatedAt = time.Now().Unix()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": project.ID}, project)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: project %s", types.ErrNotFound, project.ID)
	}
	return nil
}

func (r *projectRepo) UpdateCounters(ctx context.Context, id string, total, indexed, failed int, status types.ProjectStatus) error {
	return r.setFields(ctx, id, bson.M{
		"total_documents":   total,
		"indexed_documents": indexed,
		"failed_documents":  failed,
		"status":            status,
	})
}

func (r *projectRepo) SaveSummary(ctx context.Context, id string, summary map[string]types.ExtractionField) error {
	return r.setFields(ctx, id, bson.M{"summary": summary})
}

func (r *projectRepo) SaveChecklist(ctx context.Context, id string, checklist []types.ChecklistItem) error {
	return r.setFields(ctx, id, bson.M{"checklist": checklist})
}

func (r *projectRepo) setFields(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now().Unix()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: project %s", types.ErrNotFound, id)
	}
	return nil
}
