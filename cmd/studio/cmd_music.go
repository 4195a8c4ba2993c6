package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/integrations/s3"
	"github.com/vlatan/anime-studio/internal/music"
)

var (
	musicCSV string
	musicDir string
)

// musicCmd manages the music track library
var musicCmd = &cobra.Command{
	Use:   "music",
	Short: "Manage the music track library in the bucket",
	Long: `Manage the music tracks stored in the bucket.

Available subcommands:
  list          - List the uploaded tracks
  upload        - Upload library tracks missing from the bucket
  delete-marked - Delete tracks marked for removal`,
}

// musicListCmd lists the uploaded tracks
var musicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the uploaded tracks",
	RunE: func(cmd *cobra.Command, args []string) error {
		library := newLibrary(cmd)

		keys, err := library.ListKeys(cmd.Context())
		if err != nil {
			return err
		}

		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}

		return nil
	},
}

// musicUploadCmd uploads library tracks missing from the bucket
var musicUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload library tracks missing from the bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		library := newLibrary(cmd)

		uploaded, err := library.UploadMissing(cmd.Context(), musicCSV, musicDir)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d tracks\n", uploaded)
		return nil
	},
}

// musicDeleteMarkedCmd deletes tracks marked for removal
var musicDeleteMarkedCmd = &cobra.Command{
	Use:   "delete-marked",
	Short: "Delete tracks marked for removal",
	RunE: func(cmd *cobra.Command, args []string) error {
		library := newLibrary(cmd)

		deleted, err := library.DeleteMarked(cmd.Context(), musicCSV)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d tracks\n", deleted)
		return nil
	},
}

func init() {
	musicCmd.PersistentFlags().StringVar(
		&musicCSV, "csv", "outputs/music/library.csv",
		"path to the track library CSV",
	)
	musicUploadCmd.Flags().StringVar(
		&musicDir, "dir", "outputs/music", "directory with the local track files",
	)

	musicCmd.AddCommand(musicListCmd, musicUploadCmd, musicDeleteMarkedCmd)
	rootCmd.AddCommand(musicCmd)
}

// newLibrary builds the music library service for a command
func newLibrary(cmd *cobra.Command) *music.Library {
	cfg := config.New()
	return music.NewLibrary(cfg, s3.New(cmd.Context(), cfg))
}
