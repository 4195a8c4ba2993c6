package kling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vlatan/anime-studio/internal/config"
)

// testConfig returns a config pointed at the given base URL
func testConfig(baseURL string) *config.Config {
	return &config.Config{
		KlingAccessKey: "test-access-key",
		KlingSecretKey: config.Secret{Bytes: []byte("test-secret")},
		KlingBaseURL:   baseURL,
		KlingModel:     "kling-v2-1",
		KlingRPS:       100,
		VideoDuration:  5,
		PollInterval:   time.Millisecond,
		PollDeadline:   time.Second,
		RequestTimeout: time.Second,
	}
}

func TestAuthToken(t *testing.T) {

	service := New(testConfig("http://localhost"))

	tokenString, err := service.authToken()
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				t.Fatalf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte("test-secret"), nil
		},
	)

	if err != nil || !token.Valid {
		t.Fatalf("failed to parse token: %v", err)
	}

	if claims.Issuer != "test-access-key" {
		t.Errorf("got issuer %q, want %q", claims.Issuer, "test-access-key")
	}

	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > 30*time.Minute {
		t.Errorf("token expiry %v outside the expected window", claims.ExpiresAt)
	}

	if claims.NotBefore == nil || claims.NotBefore.Time.After(time.Now()) {
		t.Errorf("token not valid yet, nbf %v", claims.NotBefore)
	}
}

func TestCallEnvelope(t *testing.T) {

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{
			"success envelope",
			http.StatusOK,
			`{"code": 0, "message": "ok", "data": {"task_id": "abc"}}`,
			false,
		},
		{
			"api error envelope",
			http.StatusOK,
			`{"code": 1102, "message": "insufficient balance"}`,
			true,
		},
		{
			"http error",
			http.StatusUnauthorized,
			`{"code": 1004, "message": "auth failed"}`,
			true,
		},
		{
			"invalid json",
			http.StatusOK,
			`<html>gateway timeout</html>`,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					if auth := r.Header.Get("Authorization"); len(auth) < 8 {
						t.Errorf("missing bearer token, got %q", auth)
					}
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				},
			))
			defer server.Close()

			service := New(testConfig(server.URL))

			var task videoTask
			err := service.call(t.Context(), http.MethodGet, "/v1/videos/image2video/abc", nil, &task)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got error = %v, want error = %v", err, tt.wantErr)
			}

			if !tt.wantErr && task.TaskID != "abc" {
				t.Errorf("got task_id %q, want %q", task.TaskID, "abc")
			}
		})
	}
}

func TestCreateAndPollVideo(t *testing.T) {

	polls := 0
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost:
				var payload map[string]any
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Errorf("failed to decode create payload: %v", err)
				}
				if payload["model_name"] != "kling-v2-1" {
					t.Errorf("got model %q, want %q", payload["model_name"], "kling-v2-1")
				}
				if payload["duration"] != "5" {
					t.Errorf("got duration %q, want %q", payload["duration"], "5")
				}
				w.Write([]byte(`{"code": 0, "data": {"task_id": "task-1"}}`))
			case polls < 2:
				polls++
				w.Write([]byte(`{"code": 0, "data": {"task_id": "task-1", "task_status": "processing"}}`))
			default:
				w.Write([]byte(`{"code": 0, "data": {
					"task_id": "task-1",
					"task_status": "succeed",
					"task_result": {"videos": [{"url": "https://cdn.example.com/task-1.mp4"}]}
				}}`))
			}
		},
	))
	defer server.Close()

	service := New(testConfig(server.URL))

	taskID, err := service.CreateImageToVideo(t.Context(), []byte("fake-image"), "she dances")
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	if taskID != "task-1" {
		t.Fatalf("got task id %q, want %q", taskID, "task-1")
	}

	url, err := service.PollVideo(t.Context(), taskID)
	if err != nil {
		t.Fatalf("failed to poll task: %v", err)
	}

	if url != "https://cdn.example.com/task-1.mp4" {
		t.Errorf("got video url %q", url)
	}

	if polls != 2 {
		t.Errorf("got %d in-flight polls, want 2", polls)
	}
}

func TestCreateLipSync(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case identifyFacePath:
				w.Write([]byte(`{"code": 0, "data": {
					"session_id": "sess-1",
					"face_data": [{"face_id": "f1", "start_time": 500, "end_time": 4500}]
				}}`))
			case lipSyncPath:
				var payload map[string]any
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Errorf("failed to decode lip sync payload: %v", err)
				}
				if payload["session_id"] != "sess-1" {
					t.Errorf("got session %q, want %q", payload["session_id"], "sess-1")
				}
				w.Write([]byte(`{"code": 0, "data": {"task_id": "lip-1"}}`))
			default:
				t.Errorf("unexpected path %q", r.URL.Path)
			}
		},
	))
	defer server.Close()

	service := New(testConfig(server.URL))

	session, err := service.IdentifyFace(t.Context(), "video-1")
	if err != nil {
		t.Fatalf("failed to identify face: %v", err)
	}

	faces, err := session.Faces()
	if err != nil {
		t.Fatal(err)
	}

	if len(faces) != 1 || faces[0].FaceID != "f1" {
		t.Fatalf("got faces %+v, want a single f1", faces)
	}

	taskID, err := service.CreateLipSync(t.Context(), session, []byte("fake-audio"), 0)
	if err != nil {
		t.Fatalf("failed to create lip sync task: %v", err)
	}

	if taskID != "lip-1" {
		t.Errorf("got task id %q, want %q", taskID, "lip-1")
	}
}
