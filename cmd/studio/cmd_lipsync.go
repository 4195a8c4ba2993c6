package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/drivers/rdb"
	"github.com/vlatan/anime-studio/internal/integrations/kling"
	"github.com/vlatan/anime-studio/internal/models"
)

var (
	lipsyncVideoID    string
	lipsyncAudio      string
	lipsyncOutput     string
	lipsyncDurationMS int
)

// lipsyncCmd overlays audio onto a generated video
var lipsyncCmd = &cobra.Command{
	Use:   "lipsync",
	Short: "Overlay audio onto a generated video",
	Long: `Identify the face in a previously generated video and lip sync
it to an audio file. Downloads the result to the output path.`,
	RunE: runLipsync,
}

func init() {
	lipsyncCmd.Flags().StringVar(&lipsyncVideoID, "video-id", "", "provider video ID")
	lipsyncCmd.Flags().StringVar(&lipsyncAudio, "audio", "", "path to the audio file")
	lipsyncCmd.Flags().StringVar(&lipsyncOutput, "output", "", "output video path")
	lipsyncCmd.Flags().IntVar(
		&lipsyncDurationMS, "audio-duration-ms", 0,
		"audio duration in milliseconds, 0 trims to the face's screen time",
	)

	lipsyncCmd.MarkFlagRequired("video-id")
	lipsyncCmd.MarkFlagRequired("audio")
	lipsyncCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(lipsyncCmd)
}

func runLipsync(cmd *cobra.Command, args []string) error {

	audio, err := os.ReadFile(lipsyncAudio)
	if err != nil {
		return fmt.Errorf("could not read the audio file: %w", err)
	}

	return lipSyncFlow(
		cmd.Context(), config.New(), cmd.OutOrStdout(),
		lipsyncVideoID, audio, lipsyncDurationMS, lipsyncOutput,
	)
}

// lipSyncFlow lip syncs a generated video to the audio, polls the task
// to completion and writes the result to outputPath. The task state is
// recorded in redis so an interrupted poll resumes on the next worker run.
func lipSyncFlow(
	ctx context.Context,
	cfg *config.Config,
	out io.Writer,
	videoID string,
	audio []byte,
	durationMS int,
	outputPath string,
) error {

	service := kling.New(cfg)

	session, err := service.IdentifyFace(ctx, videoID)
	if err != nil {
		return err
	}

	taskID, err := service.CreateLipSync(ctx, session, audio, durationMS)
	if err != nil {
		return err
	}

	task := &models.Task{
		ID:          taskID,
		Kind:        models.TaskLipSync,
		Status:      models.StatusSubmitted,
		SourceImage: videoID,
	}

	tasks, err := rdb.New(cfg)
	if err == nil {
		defer tasks.Close()
	}
	recordTask(ctx, cfg, tasks, task)

	fmt.Fprintf(out, "Lip sync task %s submitted, polling...\n", taskID)

	url, err := service.PollLipSync(ctx, taskID)
	if err != nil {
		task.Status = models.StatusFailed
		task.Error = err.Error()
		recordTask(ctx, cfg, tasks, task)
		return err
	}

	video, err := service.DownloadVideo(ctx, url)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := os.WriteFile(outputPath, video, 0644); err != nil {
		return fmt.Errorf("could not write the output video: %w", err)
	}

	task.Status = models.StatusSucceeded
	task.VideoURL = url
	recordTask(ctx, cfg, tasks, task)

	fmt.Fprintf(out, "Saved %s (%.2f MB)\n",
		outputPath, float64(len(video))/1024/1024,
	)

	return nil
}

// recordTask stores the task state, best effort. A CLI run without a
// reachable redis still works, it just cannot be resumed.
func recordTask(ctx context.Context, cfg *config.Config, tasks *rdb.Service, task *models.Task) {
	if tasks == nil {
		return
	}
	if err := tasks.SaveTask(ctx, cfg.TaskTTL, task); err != nil {
		log.Printf("failed to record task %q; %v", task.ID, err)
	}
}
