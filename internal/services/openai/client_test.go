package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"audioscribe/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{
		APIKey:   "sk-test",
		BaseURL:  srv.URL + "/v1",
		Language: "en",
		WorkDir:  t.TempDir(),
	}, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestTranscribeUploadsWAV(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("model") != DefaultModel {
			t.Errorf("unexpected model %q", r.FormValue("model"))
		}
		if r.FormValue("language") != "en" {
			t.Errorf("unexpected language %q", r.FormValue("language"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if !strings.HasSuffix(header.Filename, ".wav") || string(data[:4]) != "RIFF" {
			t.Errorf("expected a wav upload, got %s", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"hello from the api"}`)
	})

	text, err := client.Transcribe(context.Background(), make([]float32, 1600))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "hello from the api" {
		t.Fatalf("text = %q", text)
	}
}

func TestTranscribeClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		marker error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, marker: services.ErrConfiguration},
		{name: "bad request", status: http.StatusBadRequest, marker: services.ErrValidation},
		{name: "server error", status: http.StatusInternalServerError, marker: services.ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"invalid_request_error"}}`)
			})
			_, err := client.Transcribe(context.Background(), make([]float32, 16))
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
