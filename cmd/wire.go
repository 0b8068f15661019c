/*
Copyright © 2026 Khalid-Galal
*/
package cmd

import (
	"fmt"

	"github.com/Khalid-Galal/bidops-ai/config"
	"github.com/Khalid-Galal/bidops-ai/database"
	"github.com/Khalid-Galal/bidops-ai/parser"
	"github.com/Khalid-Galal/bidops-ai/repository"
	"github.com/Khalid-Galal/bidops-ai/service"
)

// app bundles the wired services every command works with.
type app struct {
	cfg         *config.Config
	documents   *service.DocumentService
	extraction  *service.ExtractionService
	llm         *service.LLMService
	store       *database.WeaviateStore
	projectRepo repository.ProjectRepo
	docRepo     repository.DocumentRepo
}

// buildApp wires config, storage and services for a command invocation.
func buildApp() (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	mongoClient, err := database.NewMongoClient(cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	docRepo := repository.NewDocumentRepo(db)
	projectRepo := repository.NewProjectRepo(db)

	embedder := service.NewOpenAIEmbedder(cfg.Embedding)
	store, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig, embedder)
	if err != nil {
		return nil, err
	}

	llm, err := service.NewLLMService(cfg.LLM)
	if err != nil {
		return nil, err
	}

	registry := parser.NewRegistry(cfg.Processing)
	chunker := service.NewChunker(cfg.Processing.ChunkSize, cfg.Processing.ChunkOverlap)

	documents := service.NewDocumentService(registry, chunker, store, docRepo, projectRepo)
	extraction := service.NewExtractionService(llm, store, docRepo, projectRepo, cfg.LLM, cfg.Processing)

	return &app{
		cfg:         cfg,
		documents:   documents,
		extraction:  extraction,
		llm:         llm,
		store:       store,
		projectRepo: projectRepo,
		docRepo:     docRepo,
	}, nil
}
