/*
Copyright © 2026 Khalid-Galal
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantic search across a project's documents",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		projectID, _ := cmd.Flags().GetString("project")
		limit, _ := cmd.Flags().GetInt("limit")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		categoryFlags, _ := cmd.Flags().GetStringArray("category")

		a, err := buildApp()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.llm.Close()

		if minScore < 0 {
			minScore = a.cfg.Processing.DefaultMinScore
		}
		if limit <= 0 {
			limit = a.cfg.Processing.DefaultSearchLimit
		}

		var categories []types.DocumentCategory
		for _, c := range categoryFlags {
			categories = append(categories, types.DocumentCategory(strings.ToLower(c)))
		}

		query := strings.Join(args, " ")
		results, err := a.documents.SearchDocuments(context.Background(), query, projectID, categories, limit, minScore)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}

		if len(results) == 0 {
			fmt.Println("No results")
			return
		}
		for i, r := range results {
			fmt.Printf("%d. %s (page %d, score %.3f)\n", i+1, r.Filename, r.PageNumber, r.Score)
			fmt.Printf("   %s\n\n", truncate(r.ChunkText, 300))
		}
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("project", "p", "", "Project ID to search within")
	searchCmd.Flags().IntP("limit", "l", 0, "Maximum number of results")
	searchCmd.Flags().Float64P("min-score", "s", -1, "Minimum similarity score")
	searchCmd.Flags().StringArrayP("category", "c", nil, "Restrict results to document categories")
}
