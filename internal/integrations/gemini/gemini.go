package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/models"
	"github.com/vlatan/anime-studio/internal/utils"
)

// Gemini service
type Service struct {
	config *config.Config
	gemini *genai.Client
}

// Configure safety settings to block none
var blockNone = genai.HarmBlockThresholdBlockNone
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHateSpeech, Threshold: blockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: blockNone},
	{Category: genai.HarmCategoryHarassment, Threshold: blockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: blockNone},
}

// Define the JSON schema for the photo analysis response
var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"gender": {
			Type:        genai.TypeString,
			Description: "Gender presentation of the person/people (Male, Female, Mixed, Unclear)",
		},
		"num_people": {
			Type:        genai.TypeInteger,
			Description: "Number of people visible in the photo",
		},
		"age": {
			Type:        genai.TypeString,
			Description: "Estimated age or age range of the person/people",
		},
		"background": {
			Type:        genai.TypeString,
			Description: "Brief description of the background/setting",
		},
		"caption": {
			Type:        genai.TypeString,
			Description: "Brief 1-2 sentence caption describing what's happening in the photo",
		},
	},
	Required: []string{"gender", "num_people", "age", "background", "caption"},
}

const analysisPrompt = `Analyze this photo and provide the following information:

1. Gender: What is the gender presentation of the person/people? ("Male", "Female", "Mixed", "Unclear")
2. Number of people: How many people are visible in the photo? (as an integer)
3. Age: Estimate the age or age range of the person/people (e.g., "25-30", "Early 20s", "Teenager")
4. Background: Briefly describe the background/setting (e.g., "indoor office", "beach at sunset")
5. Caption: Provide a brief 1-2 sentence caption describing what's happening in the photo

Be concise and factual.`

// Create new Gemini service
func New(ctx context.Context, config *config.Config) (*Service, error) {
	// Configure new client
	gemini, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: config.GeminiAPIKey})
	return &Service{gemini: gemini, config: config}, err
}

// AnalyzePhoto sends an image to the vision model and
// returns the structured photo metadata.
func (s *Service) AnalyzePhoto(ctx context.Context, image []byte, mimeType string) (*models.PhotoAnalysis, error) {

	parts := []*genai.Part{
		genai.NewPartFromText(analysisPrompt),
		genai.NewPartFromBytes(image, mimeType),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := s.gemini.Models.GenerateContent(
		ctx,
		s.config.GeminiModel,
		contents,
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			SafetySettings:   safetySettings,
			ResponseSchema:   analysisSchema,
		},
	)

	if err != nil {
		return nil, err
	}

	if len(result.Candidates) == 0 {
		return nil, &BlockedErr{Feedback: result.PromptFeedback}
	}

	var analysis models.PhotoAnalysis
	if err := json.Unmarshal([]byte(result.Text()), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse the photo analysis to JSON: %w", err)
	}

	// The caption travels into prompts, keep it plain text
	analysis.Caption = scrubText(analysis.Caption)
	analysis.Background = scrubText(analysis.Background)

	return &analysis, nil
}

// AnalyzePhotoWithRetry analyzes a photo with exponential backoff
func (s *Service) AnalyzePhotoWithRetry(ctx context.Context, image []byte, mimeType string) (*models.PhotoAnalysis, error) {

	rc := &utils.RetryConfig{
		MaxRetries: s.config.MaxRetries,
		MaxJitter:  2 * time.Second,
		Delay:      s.config.InitialBackoff,
	}

	return utils.Retry(
		ctx, rc,
		func() (*models.PhotoAnalysis, error) {
			return s.AnalyzePhoto(ctx, image, mimeType)
		},
	)
}
