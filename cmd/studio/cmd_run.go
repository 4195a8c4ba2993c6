package main

import (
	"github.com/spf13/cobra"

	"github.com/vlatan/anime-studio/internal/worker"
)

// runCmd runs the whole pipeline once
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline over the input directory",
	Long: `Analyze every selfie in the input directory, stylize the clear
single-person ones into anime stills, animate them and upload the
videos to the bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		service := worker.New(cmd.Context())
		defer service.Close()
		return service.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
