package kling

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	statusSucceed = "succeed"
	statusFailed  = "failed"

	imageToVideoPath = "/v1/videos/image2video"
)

// videoTask mirrors the task object Kling returns on create and poll
type videoTask struct {
	TaskID        string `json:"task_id"`
	TaskStatus    string `json:"task_status"`
	TaskStatusMsg string `json:"task_status_msg"`
	TaskResult    struct {
		Videos []struct {
			URL string `json:"url"`
		} `json:"videos"`
	} `json:"task_result"`
}

// CreateImageToVideo submits an image to video task and returns its task ID.
// The image travels base64 encoded in the JSON body.
func (s *Service) CreateImageToVideo(
	ctx context.Context,
	image []byte,
	prompt string,
) (string, error) {

	payload := map[string]any{
		"model_name": s.config.KlingModel,
		"duration":   strconv.Itoa(s.config.VideoDuration),
		"image":      base64.StdEncoding.EncodeToString(image),
		"cfg_scale":  0.5,
		"prompt":     prompt,
	}

	var task videoTask
	if err := s.call(ctx, http.MethodPost, imageToVideoPath, payload, &task); err != nil {
		return "", fmt.Errorf("failed to create image to video task: %w", err)
	}

	if task.TaskID == "" {
		return "", fmt.Errorf("create response missing task_id")
	}

	return task.TaskID, nil
}

// PollVideo polls an image to video task until it succeeds,
// fails or the poll deadline passes. Returns the video URL.
func (s *Service) PollVideo(ctx context.Context, taskID string) (string, error) {
	return s.pollTask(ctx, imageToVideoPath+"/"+taskID)
}

// pollTask polls a task status endpoint until a terminal status
func (s *Service) pollTask(ctx context.Context, path string) (string, error) {

	deadline := time.Now().Add(s.config.PollDeadline)
	for {
		var task videoTask
		if err := s.call(ctx, http.MethodGet, path, nil, &task); err != nil {
			return "", fmt.Errorf("failed to poll task: %w", err)
		}

		switch task.TaskStatus {
		case statusSucceed:
			if len(task.TaskResult.Videos) == 0 || task.TaskResult.Videos[0].URL == "" {
				return "", fmt.Errorf("no video URL in succeeded task %q", task.TaskID)
			}
			return task.TaskResult.Videos[0].URL, nil
		case statusFailed:
			return "", fmt.Errorf("task %q failed: %s", task.TaskID, task.TaskStatusMsg)
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("task polling timed out after %v", s.config.PollDeadline)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.config.PollInterval):
		}
	}
}

// DownloadVideo fetches the finished video from its result URL
func (s *Service) DownloadVideo(ctx context.Context, url string) ([]byte, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read video body: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("downloaded video is empty")
	}

	return data, nil
}
