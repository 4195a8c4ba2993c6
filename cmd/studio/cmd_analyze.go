package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/integrations/gemini"
	"github.com/vlatan/anime-studio/internal/models"
)

var analyzeOutput string

// analyzeCmd runs the vision analysis on photos
var analyzeCmd = &cobra.Command{
	Use:   "analyze <photo>...",
	Short: "Analyze photos with the vision model",
	Long: `Send photos to the vision model and print the structured analysis,
gender presentation, age, background and caption, as JSON keyed by
file name. With --output the JSON goes to a file instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(
		&analyzeOutput, "output", "o", "",
		"write the analysis JSON to a file",
	)
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {

	service, err := gemini.New(cmd.Context(), config.New())
	if err != nil {
		return fmt.Errorf("could not create the gemini client: %w", err)
	}

	results := make(map[string]*models.PhotoAnalysis, len(args))
	for _, path := range args {
		photo, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("could not read the photo: %w", err)
		}

		mimeType := http.DetectContentType(photo)
		analysis, err := service.AnalyzePhoto(cmd.Context(), photo, mimeType)
		if err != nil {
			return fmt.Errorf("photo analysis of %s failed: %w", path, err)
		}

		results[path] = analysis
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}

	if analyzeOutput != "" {
		return os.WriteFile(analyzeOutput, append(out, '\n'), 0644)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
