package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootCmd is the studio command line entry point
var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Anime studio tooling",
	Long: `Tooling around the selfie to anime video pipeline.

Available subcommands:
  genderize - Harmonize a video prompt for a gender presentation
  analyze   - Analyze a photo with the vision model
  run       - Run the whole pipeline over the input directory
  lipsync   - Overlay audio onto a generated video
  music     - Manage the music track library in the bucket
  archive   - Pack the output directory and upload it`,
}

func main() {

	// Listen for interruption signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
