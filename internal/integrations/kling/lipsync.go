package kling

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	identifyFacePath = "/v1/videos/identify-face"
	lipSyncPath      = "/v1/videos/advanced-lip-sync"
)

// Face is a single face detected in a generated video,
// time range in milliseconds
type Face struct {
	FaceID    string `json:"face_id"`
	StartTime int    `json:"start_time"`
	EndTime   int    `json:"end_time"`
}

// FaceSession is the result of face identification on a video
type FaceSession struct {
	SessionID string          `json:"session_id"`
	FaceData  json.RawMessage `json:"face_data"`
}

// Faces decodes the raw face data list
func (fs *FaceSession) Faces() ([]Face, error) {
	var faces []Face
	if err := json.Unmarshal(fs.FaceData, &faces); err != nil {
		return nil, fmt.Errorf("failed to decode face data: %w", err)
	}
	return faces, nil
}

// IdentifyFace locates faces in a previously generated video.
// The lip sync endpoint needs both the session and the raw face
// data exactly as this call returned them.
func (s *Service) IdentifyFace(ctx context.Context, videoID string) (*FaceSession, error) {

	payload := map[string]any{"video_id": videoID}

	var session FaceSession
	if err := s.call(ctx, http.MethodPost, identifyFacePath, payload, &session); err != nil {
		return nil, fmt.Errorf("failed to identify face: %w", err)
	}

	if session.SessionID == "" || len(session.FaceData) == 0 {
		return nil, fmt.Errorf("missing session_id or face_data in response")
	}

	return &session, nil
}

// CreateLipSync overlays audio onto the first identified face
// and returns the task ID. The audio is inserted at the moment
// the face enters the frame, trimmed to the face's screen time.
func (s *Service) CreateLipSync(
	ctx context.Context,
	session *FaceSession,
	audio []byte,
	audioDurationMS int,
) (string, error) {

	faces, err := session.Faces()
	if err != nil {
		return "", err
	}

	// Fall back to a whole frame face when detection came back empty
	face := Face{FaceID: "0", StartTime: 0, EndTime: 10000}
	if len(faces) > 0 {
		face = faces[0]
	}

	if audioDurationMS <= 0 {
		audioDurationMS = min(10000, face.EndTime-face.StartTime)
	}

	faceChoose := map[string]any{
		"face_id":               face.FaceID,
		"sound_file":            base64.StdEncoding.EncodeToString(audio),
		"sound_start_time":      0,
		"sound_end_time":        audioDurationMS,
		"sound_insert_time":     face.StartTime,
		"sound_volume":          1.0,
		"original_audio_volume": 0.5,
	}

	payload := map[string]any{
		"session_id":  session.SessionID,
		"face_choose": []any{faceChoose},
	}

	var task videoTask
	if err := s.call(ctx, http.MethodPost, lipSyncPath, payload, &task); err != nil {
		return "", fmt.Errorf("failed to create lip sync task: %w", err)
	}

	if task.TaskID == "" {
		return "", fmt.Errorf("create response missing task_id")
	}

	return task.TaskID, nil
}

// PollLipSync polls a lip sync task until it succeeds, fails or
// the poll deadline passes. Returns the video URL.
func (s *Service) PollLipSync(ctx context.Context, taskID string) (string, error) {
	return s.pollTask(ctx, lipSyncPath+"/"+taskID)
}
