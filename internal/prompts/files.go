package prompts

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// NamedPrompt is one entry of a prompts file.
// Name is empty for plain, unnamed lines.
type NamedPrompt struct {
	Name   string
	Prompt string
}

// ReadPrompts reads a prompts file, one prompt per non-empty line
func ReadPrompts(path string) ([]string, error) {

	entries, err := ReadNamedPrompts(path)
	if err != nil {
		return nil, err
	}

	prompts := make([]string, len(entries))
	for i, entry := range entries {
		prompts[i] = entry.Prompt
	}

	return prompts, nil
}

// ReadNamedPrompts parses a prompts file supporting either plain lines or
// named "name: prompt text" lines. Lines starting with '#' are ignored.
func ReadNamedPrompts(path string) ([]NamedPrompt, error) {

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the prompts file %s: %w", path, err)
	}
	defer file.Close()

	var entries []NamedPrompt
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, prompt, found := strings.Cut(line, ":")
		if !found {
			entries = append(entries, NamedPrompt{Prompt: line})
			continue
		}

		entries = append(entries, NamedPrompt{
			Name:   strings.TrimSpace(name),
			Prompt: strings.TrimSpace(prompt),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("couldn't read the prompts file %s: %w", path, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no prompts found in %s", path)
	}

	return entries, nil
}
