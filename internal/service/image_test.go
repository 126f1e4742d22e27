package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fikebr/notes-to-blog/internal/config"
)

func TestFirstOutputURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"string output", `"https://example.com/a.png"`, "https://example.com/a.png", false},
		{"array output", `["https://example.com/b.png","https://example.com/c.png"]`, "https://example.com/b.png", false},
		{"empty array", `[]`, "", true},
		{"null", `null`, "", true},
		{"object", `{"x":1}`, "", true},
	}
	for _, tt := range tests {
		got, err := firstOutputURL(json.RawMessage(tt.raw))
		if tt.wantErr != (err != nil) {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/out.webp", ".webp"},
		{"https://example.com/out.jpeg?sig=abc", ".jpeg"},
		{"https://example.com/out", ".png"},
		{"://bad", ".png"},
	}
	for _, tt := range tests {
		if got := extensionFor(tt.url); got != tt.want {
			t.Errorf("extensionFor(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNewReplicateClientRejectsBadModel(t *testing.T) {
	if _, err := NewReplicateClient(config.ImageConfig{Model: "no-version"}, "tok"); err == nil {
		t.Error("expected error for model without version")
	}
	if _, err := NewReplicateClient(config.ImageConfig{Model: "owner/name:v1"}, ""); err == nil {
		t.Error("expected error for missing token")
	}
}

func TestReplicateGenerate(t *testing.T) {
	polls := 0
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("POST /predictions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(prediction{ID: "p1", Status: "processing"})
	})
	mux.HandleFunc("GET /predictions/p1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			json.NewEncoder(w).Encode(prediction{ID: "p1", Status: "processing"})
			return
		}
		out, _ := json.Marshal([]string{srv.URL + "/files/out.png"})
		json.NewEncoder(w).Encode(prediction{ID: "p1", Status: "succeeded", Output: out})
	})
	mux.HandleFunc("GET /files/out.png", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "IMAGEBYTES")
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewReplicateClient(config.ImageConfig{Model: "stability-ai/sdxl:abc123"}, "tok")
	if err != nil {
		t.Fatal(err)
	}
	c.baseURL = srv.URL
	c.pollInterval = time.Millisecond

	data, ext, err := c.Generate(context.Background(), "a compost bin", 1024, 1024)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(data) != "IMAGEBYTES" {
		t.Errorf("unexpected payload: %q", data)
	}
	if ext != ".png" {
		t.Errorf("expected .png, got %q", ext)
	}
	if polls < 2 {
		t.Errorf("expected polling until terminal status, got %d polls", polls)
	}
}

func TestReplicateGenerateFailedPrediction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predictions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(prediction{ID: "p2", Status: "failed", Error: "NSFW content detected"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewReplicateClient(config.ImageConfig{Model: "stability-ai/sdxl:abc123"}, "tok")
	if err != nil {
		t.Fatal(err)
	}
	c.baseURL = srv.URL
	c.pollInterval = time.Millisecond

	if _, _, err := c.Generate(context.Background(), "prompt", 512, 512); err == nil {
		t.Error("expected error for failed prediction")
	}
}
