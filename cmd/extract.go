/*
Copyright © 2026 Khalid-Galal
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// extractCmd represents the extract command group
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run AI extraction flows over an ingested project",
}

var extractSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Extract the structured project summary with evidence citations",
	Run: func(cmd *cobra.Command, args []string) {
		projectID, _ := cmd.Flags().GetString("project")
		force, _ := cmd.Flags().GetBool("force")
		if projectID == "" {
			log.Fatal("--project is required")
		}

		a, err := buildApp()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.llm.Close()

		summary, err := a.extraction.ExtractProjectSummary(context.Background(), projectID, force)
		if err != nil {
			log.Fatalf("Summary extraction failed: %v", err)
		}
		printJSON(summary)
	},
}

var extractChecklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Generate the tender requirements checklist",
	Run: func(cmd *cobra.Command, args []string) {
		projectID, _ := cmd.Flags().GetString("project")
		force, _ := cmd.Flags().GetBool("force")
		if projectID == "" {
			log.Fatal("--project is required")
		}

		a, err := buildApp()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.llm.Close()

		checklist, err := a.extraction.GenerateChecklist(context.Background(), projectID, force)
		if err != nil {
			log.Fatalf("Checklist generation failed: %v", err)
		}
		printJSON(checklist)
	},
}

var extractClassifyCmd = &cobra.Command{
	Use:   "classify-document",
	Short: "Classify a single document with the LLM",
	Run: func(cmd *cobra.Command, args []string) {
		documentID, _ := cmd.Flags().GetString("document")
		if documentID == "" {
			log.Fatal("--document is required")
		}

		a, err := buildApp()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.llm.Close()

		result, err := a.extraction.ClassifyDocument(context.Background(), documentID)
		if err != nil {
			log.Fatalf("Classification failed: %v", err)
		}
		printJSON(result)
	},
}

var extractDatesCmd = &cobra.Command{
	Use:   "key-dates",
	Short: "Sweep the project documents for key dates",
	Run: func(cmd *cobra.Command, args []string) {
		projectID, _ := cmd.Flags().GetString("project")
		if projectID == "" {
			log.Fatal("--project is required")
		}

		a, err := buildApp()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.llm.Close()

		dates, err := a.extraction.ExtractKeyDates(context.Background(), projectID)
		if err != nil {
			log.Fatalf("Date extraction failed: %v", err)
		}
		printJSON(dates)
	},
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Println("Failed to encode output:", err)
	}
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.AddCommand(extractSummaryCmd)
	extractCmd.AddCommand(extractChecklistCmd)
	extractCmd.AddCommand(extractClassifyCmd)
	extractCmd.AddCommand(extractDatesCmd)

	for _, c := range []*cobra.Command{extractSummaryCmd, extractChecklistCmd, extractDatesCmd} {
		c.Flags().StringP("project", "p", "", "Project ID")
	}
	extractSummaryCmd.Flags().BoolP("force", "f", false, "Re-extract even if a summary exists")
	extractChecklistCmd.Flags().BoolP("force", "f", false, "Re-generate even if a checklist exists")
	extractClassifyCmd.Flags().StringP("document", "d", "", "Document ID")
}
