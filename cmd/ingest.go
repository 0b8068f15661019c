/*
Copyright © 2026 Khalid-Galal
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a folder of tender documents into a project",
	Long: `Walks the project folder, parses every supported document, classifies
it, chunks and embeds the text and indexes it for semantic search. Files
already indexed under the same content hash are skipped unless --force is
given.`,
	Run: func(cmd *cobra.Command, args []string) {
		projectID, _ := cmd.Flags().GetString("project")
		folder, _ := cmd.Flags().GetString("folder")
		name, _ := cmd.Flags().GetString("name")
		force, _ := cmd.Flags().GetBool("force")

		a, err := buildApp()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.llm.Close()

		ctx := context.Background()

		if projectID == "" {
			if folder == "" {
				log.Fatal("Either --project or --folder is required")
			}
			if name == "" {
				name = folder
			}
			project := &types.Project{
				ID:         uuid.NewString(),
				Name:       name,
				FolderPath: folder,
				Status:     types.ProjectDraft,
				CreatedAt:  time.Now().Unix(),
			}
			if err := a.projectRepo.Create(ctx, project); err != nil {
				log.Fatalf("Failed to create project: %v", err)
			}
			projectID = project.ID
			fmt.Println("Created project", projectID)
		}

		stats, err := a.documents.IngestProjectFolder(ctx, projectID, folder, force, func(p types.IngestProgress) {
			fmt.Printf("[%d/%d] %s: %s\n", p.Current, p.Total, p.File, p.Status)
		})
		if err != nil {
			log.Fatalf("Ingestion failed: %v", err)
		}

		fmt.Printf("\nIngestion complete: %d files, %d indexed, %d skipped, %d failed\n",
			stats.TotalFiles, stats.Indexed, stats.Skipped, stats.Failed)
		for _, e := range stats.Errors {
			fmt.Printf("  error: %s: %s\n", e.File, e.Error)
		}
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("project", "p", "", "Existing project ID")
	ingestCmd.Flags().StringP("folder", "d", "", "Folder of documents to ingest")
	ingestCmd.Flags().StringP("name", "n", "", "Project name when creating a new project")
	ingestCmd.Flags().BoolP("force", "f", false, "Reindex documents even if already indexed")
}
