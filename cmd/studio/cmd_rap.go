package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/integrations/elevenlabs"
	"github.com/vlatan/anime-studio/internal/prompts"
)

var (
	rapLyrics      string
	rapVocalPrompt string
	rapVideoID     string
	rapOutput      string
	rapVocalOutput string
	rapDuration    int
)

// rapCmd turns written lyrics into a lip synced rap video
var rapCmd = &cobra.Command{
	Use:   "rap",
	Short: "Lip sync a generated video to rap vocals made from lyrics",
	Long: `Generate an acapella rap vocal track from a lyrics file with the
ElevenLabs sound generation API, then lip sync a previously generated
video to it. Downloads the result to the output path.`,
	RunE: runRap,
}

func init() {
	rapCmd.Flags().StringVar(&rapLyrics, "lyrics", "", "path to the lyrics text file")
	rapCmd.Flags().StringVar(
		&rapVocalPrompt, "vocal-prompt", "",
		"path to a vocal prompt template with a {LYRICS} placeholder",
	)
	rapCmd.Flags().StringVar(&rapVideoID, "video-id", "", "provider video ID")
	rapCmd.Flags().StringVar(&rapOutput, "output", "", "output video path")
	rapCmd.Flags().StringVar(
		&rapVocalOutput, "vocal-output", "",
		"also save the generated vocal MP3 to this path",
	)
	rapCmd.Flags().IntVar(
		&rapDuration, "duration", 0,
		"vocal track duration in seconds, 0 uses VOCAL_DURATION_SECONDS",
	)

	rapCmd.MarkFlagRequired("lyrics")
	rapCmd.MarkFlagRequired("video-id")
	rapCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(rapCmd)
}

func runRap(cmd *cobra.Command, args []string) error {

	ctx := cmd.Context()
	cfg := config.New()

	lyrics, err := os.ReadFile(rapLyrics)
	if err != nil {
		return fmt.Errorf("could not read the lyrics file: %w", err)
	}

	var template string
	if rapVocalPrompt != "" {
		data, err := os.ReadFile(rapVocalPrompt)
		if err != nil {
			return fmt.Errorf("could not read the vocal prompt file: %w", err)
		}
		template = string(data)
	}

	prompt, err := prompts.BuildVocalPrompt(template, strings.TrimSpace(string(lyrics)))
	if err != nil {
		return err
	}

	duration := rapDuration
	if duration <= 0 {
		duration = cfg.VocalDuration
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generating a %ds vocal track...\n", duration)

	vocals, err := elevenlabs.New(cfg).GenerateVocals(ctx, prompt, duration)
	if err != nil {
		return fmt.Errorf("vocal generation failed: %w", err)
	}

	if rapVocalOutput != "" {
		if dir := filepath.Dir(rapVocalOutput); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(rapVocalOutput, vocals, 0644); err != nil {
			return fmt.Errorf("could not write the vocal track: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved vocals to %s\n", rapVocalOutput)
	}

	// The lip sync rides the full vocal track
	return lipSyncFlow(
		ctx, cfg, cmd.OutOrStdout(),
		rapVideoID, vocals, duration*1000, rapOutput,
	)
}
