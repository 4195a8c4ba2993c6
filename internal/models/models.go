package models

import (
	"strings"
	"time"
)

// PhotoAnalysis is the structured output of the vision analysis of a selfie
type PhotoAnalysis struct {
	Gender     string `json:"gender"`     // Male, Female, Mixed, Unclear
	NumPeople  int    `json:"num_people"` //
	Age        string `json:"age"`        // free-form range, e.g. "Early 20s"
	Background string `json:"background"`
	Caption    string `json:"caption"`
}

// GenderCode maps the reported gender presentation to a genderizer code.
// Returns false when the presentation is mixed or unclear.
func (pa *PhotoAnalysis) GenderCode() (string, bool) {
	switch strings.ToLower(strings.TrimSpace(pa.Gender)) {
	case "male", "man", "masculine", "m":
		return "M", true
	case "female", "woman", "feminine", "f":
		return "F", true
	}
	return "", false
}

// Task kinds. The anime stylization has no kind of its own,
// it is synchronous and leaves nothing to resume.
const (
	TaskVideo   = "i2v"     // still to video
	TaskLipSync = "lipsync" // audio onto a generated video
)

// Task statuses
const (
	StatusSubmitted = "submitted"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Task is one unit of provider work tracked across a batch run,
// so an interrupted run resumes polling instead of resubmitting.
type Task struct {
	ID          string     `json:"id,omitempty"` // provider task/operation id
	Kind        string     `json:"kind,omitempty"`
	Status      string     `json:"status,omitempty"`
	SourceImage string     `json:"source_image,omitempty"`
	Prompt      string     `json:"prompt,omitempty"`
	OutputKey   string     `json:"output_key,omitempty"` // S3 key of the result
	VideoURL    string     `json:"video_url,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Done reports whether the task reached a terminal status
func (t *Task) Done() bool {
	return t.Status == StatusSucceeded || t.Status == StatusFailed
}

// Track is one row of the music library CSV
type Track struct {
	Filename string `json:"filename"`
	SafeName string `json:"safe_name"` // S3 safe object name, without extension
	Marked   bool   `json:"marked"`    // marked for deletion
}

// Key returns the track's object key under the given prefix
func (t *Track) Key(prefix string) string {
	return prefix + t.SafeName + ".mp3"
}
