package worker

import (
	"bytes"
	"fmt"
	"image"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/vlatan/anime-studio/internal/prompts"
	"github.com/vlatan/anime-studio/internal/utils"
)

// Image formats the pipeline accepts as input
var imageMimeTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// listImages returns the paths of the image files in a directory,
// judged by extension, sorted by name
func listImages(dir string) ([]string, error) {

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
		if ext == "jpg" {
			ext = "jpeg"
		}

		if _, ok := imageMimeTypes[ext]; ok {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}

	slices.Sort(images)
	return images, nil
}

// readImage loads an image file and sniffs its actual format,
// the extension alone is not trusted
func readImage(path string) ([]byte, string, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("not a decodable image: %w", err)
	}

	mimeType, ok := imageMimeTypes[format]
	if !ok {
		return nil, "", fmt.Errorf("unsupported image format %q", format)
	}

	return data, mimeType, nil
}

// extForMime maps a returned image mime type to a file extension
func extForMime(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// pickPrompt selects a dance style prompt by name,
// or a random one when no name is configured
func pickPrompt(namedPrompts []prompts.NamedPrompt, name string) (string, error) {

	if len(namedPrompts) == 0 {
		return "", fmt.Errorf("no dance style prompts available")
	}

	if name == "" {
		return namedPrompts[rand.IntN(len(namedPrompts))].Prompt, nil
	}

	for _, np := range namedPrompts {
		if np.Name == name {
			return np.Prompt, nil
		}
	}

	return "", fmt.Errorf("no dance style prompt named %q", name)
}

// writeOutput stores a generated artifact in the output directory
func writeOutput(dir, name string, data []byte) error {

	if err := utils.ValidateFilePath(name); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create the output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	return nil
}
