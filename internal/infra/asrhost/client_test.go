package asrhost_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"voiceops/internal/domain"
	"voiceops/internal/infra/asrhost"
)

func TestClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}

		json.NewEncoder(w).Encode(map[string]string{"text": " fan off "})
	}))
	defer server.Close()

	client := asrhost.NewClient(server.URL)

	clip := domain.AudioClip{Samples: make([]int16, 800), SampleRate: 16000}
	text, err := client.Transcribe(context.Background(), clip, "")
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}

	if text != "fan off" {
		t.Errorf("text: got %q, want %q", text, "fan off")
	}
}

func TestClient_Transcribe_Unconfigured(t *testing.T) {
	client := asrhost.NewClient("")

	clip := domain.AudioClip{Samples: make([]int16, 10), SampleRate: 16000}
	if _, err := client.Transcribe(context.Background(), clip, ""); err == nil {
		t.Error("expected error when no host configured")
	}
}
