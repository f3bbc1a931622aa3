package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDisabledGeneratorSkipsMedia(t *testing.T) {
	g := NewGenerator(Config{})
	if g.Enabled() {
		t.Fatal("generator without key reports enabled")
	}

	url, err := g.EncounterImage(context.Background(), "a ruined chapel")
	if err != nil || url != "" {
		t.Fatalf("EncounterImage = (%q, %v), want empty and nil", url, err)
	}
	url, err = g.Narration(context.Background(), "You enter the chapel.")
	if err != nil || url != "" {
		t.Fatalf("Narration = (%q, %v), want empty and nil", url, err)
	}
	if _, err := g.Transcribe(context.Background(), "clip.webm", strings.NewReader("audio")); err == nil {
		t.Fatal("Transcribe succeeded without an API key")
	}
}

func TestEncounterImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var body struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !strings.Contains(body.Prompt, "ruined chapel") {
			t.Errorf("prompt = %q", body.Prompt)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"url": "https://img.example/chapel.png"}},
		})
	}))
	defer srv.Close()

	g := NewGenerator(Config{APIKey: "test-key", BaseURL: srv.URL})
	url, err := g.EncounterImage(context.Background(), "a ruined chapel at dusk")
	if err != nil {
		t.Fatalf("EncounterImage: %v", err)
	}
	if url != "https://img.example/chapel.png" {
		t.Fatalf("url = %q", url)
	}
}

func TestNarrationWritesAudioFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	g := NewGenerator(Config{APIKey: "test-key", BaseURL: srv.URL, AudioDir: dir})
	url, err := g.Narration(context.Background(), "You enter the chapel.")
	if err != nil {
		t.Fatalf("Narration: %v", err)
	}
	if !strings.HasPrefix(url, MountRoute+"/") || !strings.HasSuffix(url, ".mp3") {
		t.Fatalf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, MountRoute+"/")))
	if err != nil {
		t.Fatalf("read audio file: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Fatalf("audio contents = %q", data)
	}
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			file.Close()
			if header.Filename != "clip.webm" {
				t.Errorf("filename = %q", header.Filename)
			}
		}
		json.NewEncoder(w).Encode(map[string]string{"text": " I search the altar. "})
	}))
	defer srv.Close()

	g := NewGenerator(Config{APIKey: "test-key", BaseURL: srv.URL})
	text, err := g.Transcribe(context.Background(), "clip.webm", strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "I search the altar." {
		t.Fatalf("text = %q", text)
	}
}
