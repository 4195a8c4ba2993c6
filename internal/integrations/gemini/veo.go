package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// awaitOperation waits for an async operation to finish, checking the
// deadline and the context before each poll.
func awaitOperation(
	ctx context.Context,
	interval, timeout time.Duration,
	poll func(context.Context) (bool, error),
) error {
	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("operation timed out after %v", timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		done, err := poll(ctx)
		if err != nil {
			return err
		}

		if done {
			return nil
		}
	}
}

// GenerateVideo animates an anime still with Veo. The still rides along as
// the first frame, the prompt describes the motion. Blocks until the async
// operation finishes, gets filtered or hits the poll deadline. Returns the
// raw MP4 bytes.
func (s *Service) GenerateVideo(
	ctx context.Context,
	prompt string,
	imageData []byte,
	imageMimeType string,
) ([]byte, error) {

	firstFrame := &genai.Image{
		ImageBytes: imageData,
		MIMEType:   imageMimeType,
	}

	videoConfig := &genai.GenerateVideosConfig{
		AspectRatio:      "9:16",
		PersonGeneration: "allow_adult",
		NumberOfVideos:   1,
	}

	operation, err := s.gemini.Models.GenerateVideos(
		ctx,
		s.config.VeoModel,
		sanitizePrompt(prompt),
		firstFrame,
		videoConfig,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to start video generation: %w", err)
	}

	// Poll until done, cancelled or past the deadline
	if !operation.Done {
		err = awaitOperation(ctx, s.config.PollInterval, s.config.PollDeadline,
			func(ctx context.Context) (bool, error) {
				operation, err = s.gemini.Operations.GetVideosOperation(ctx, operation, nil)
				if err != nil {
					return false, fmt.Errorf("failed to poll video operation: %w", err)
				}
				return operation.Done, nil
			},
		)
		if err != nil {
			return nil, err
		}
	}

	if len(operation.Error) > 0 {
		return nil, fmt.Errorf("video generation failed: %v", operation.Error)
	}

	if operation.Response == nil {
		return nil, fmt.Errorf("no response in completed operation %q", operation.Name)
	}

	// The safety filters report how many videos they ate and why
	if operation.Response.RAIMediaFilteredCount > 0 {
		reasons := strings.Join(operation.Response.RAIMediaFilteredReasons, ", ")
		return nil, fmt.Errorf("video filtered by safety checks: %s", reasons)
	}

	if len(operation.Response.GeneratedVideos) == 0 {
		return nil, fmt.Errorf("no videos in response for operation %q", operation.Name)
	}

	video := operation.Response.GeneratedVideos[0].Video
	if video == nil {
		return nil, fmt.Errorf("generated video object is nil")
	}

	downloadURI := genai.NewDownloadURIFromVideo(video)
	videoBytes, err := s.gemini.Files.Download(ctx, downloadURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download generated video: %w", err)
	}

	if len(videoBytes) == 0 {
		return nil, fmt.Errorf("downloaded video is empty")
	}

	return videoBytes, nil
}
