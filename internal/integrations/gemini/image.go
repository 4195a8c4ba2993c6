package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/vlatan/anime-studio/internal/utils"
)

// GenerateAnimeImage converts a photo into an anime still using the image
// model. The prompt describes the target style, the photo rides along as
// the identity reference. Returns the image bytes and their mime type.
func (s *Service) GenerateAnimeImage(
	ctx context.Context,
	photo []byte,
	mimeType string,
	prompt string,
) ([]byte, string, error) {

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(photo, mimeType),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := s.gemini.Models.GenerateContent(
		ctx,
		s.config.GeminiImageModel,
		contents,
		&genai.GenerateContentConfig{
			SafetySettings: safetySettings,
		},
	)

	if err != nil {
		return nil, "", err
	}

	if len(result.Candidates) == 0 {
		return nil, "", &BlockedErr{Feedback: result.PromptFeedback}
	}

	// The image model returns the still as an inline data part
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, part.InlineData.MIMEType, nil
		}
	}

	return nil, "", fmt.Errorf("no image data in the model response")
}

// GenerateAnimeImageWithRetry stylizes a photo with exponential backoff
func (s *Service) GenerateAnimeImageWithRetry(
	ctx context.Context,
	photo []byte,
	mimeType string,
	prompt string,
) ([]byte, string, error) {

	rc := &utils.RetryConfig{
		MaxRetries: s.config.MaxRetries,
		MaxJitter:  2 * time.Second,
		Delay:      s.config.InitialBackoff,
	}

	type image struct {
		data     []byte
		mimeType string
	}

	img, err := utils.Retry(
		ctx, rc,
		func() (image, error) {
			data, mime, err := s.GenerateAnimeImage(ctx, photo, mimeType, prompt)
			return image{data, mime}, err
		},
	)

	return img.data, img.mimeType, err
}
