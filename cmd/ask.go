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
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered from the project documents",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		projectID, _ := cmd.Flags().GetString("project")
		topK, _ := cmd.Flags().GetInt("top-k")

		if projectID == "" {
			log.Fatal("--project is required")
		}

		a, err := buildApp()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.llm.Close()

		question := strings.Join(args, " ")
		answer, err := a.extraction.SearchWithContext(context.Background(), question, projectID, topK)
		if err != nil {
			log.Fatalf("Failed to answer: %v", err)
		}

		fmt.Println(answer.Answer)
		if len(answer.Sources) > 0 {
			fmt.Printf("\nSources (confidence %.2f):\n", answer.Confidence)
			for _, s := range answer.Sources {
				fmt.Printf("  - %s (page %d, score %.3f)\n", s.Document, s.Page, s.Score)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("project", "p", "", "Project ID")
	askCmd.Flags().IntP("top-k", "k", 5, "Number of chunks to retrieve")
}
