/*
Copyright © 2026 Khalid-Galal
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a project's ingestion state and the vector index size",
	Run: func(cmd *cobra.Command, args []string) {
		projectID, _ := cmd.Flags().GetString("project")

		a, err := buildApp()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.llm.Close()

		ctx := context.Background()

		if projectID != "" {
			project, err := a.projectRepo.Get(ctx, projectID)
			if err != nil {
				log.Fatalf("Failed to load project: %v", err)
			}
			fmt.Printf("Project: %s (%s)\n", project.Name, project.ID)
			fmt.Printf("Status: %s\n", project.Status)
			fmt.Printf("Documents: %d total, %d indexed, %d failed\n",
				project.TotalDocuments, project.IndexedDocuments, project.FailedDocuments)

			docs, err := a.docRepo.ListByProject(ctx, projectID)
			if err != nil {
				log.Fatalf("Failed to list documents: %v", err)
			}
			for _, d := range docs {
				line := fmt.Sprintf("  [%s] %s (%s", d.Status, d.Filename, d.Category)
				if d.Language != "" {
					line += ", " + d.Language
				}
				line += ")"
				if d.ErrorMessage != "" {
					line += " - " + d.ErrorMessage
				}
				fmt.Println(line)
			}
		}

		className, count, err := a.store.CollectionInfo(ctx)
		if err != nil {
			log.Fatalf("Failed to read vector index: %v", err)
		}
		fmt.Printf("Vector index: %s holds %d chunks\n", className, count)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringP("project", "p", "", "Project ID to inspect")
}
