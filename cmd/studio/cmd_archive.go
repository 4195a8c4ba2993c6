package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vlatan/anime-studio/internal/archive"
	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/integrations/s3"
)

// archiveCmd packs the output directory and uploads it
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Pack the output directory and upload it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New()
		service := archive.New(cfg, s3.New(cmd.Context(), cfg))

		key, err := service.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Archived to %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
