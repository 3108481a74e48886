package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateScript(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != scriptEndpoint {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "INT. STORE - DAY"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	script, err := c.GenerateScript(context.Background(), "Launch our new summer shoe line", "product")
	if err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}
	if script != "INT. STORE - DAY" {
		t.Errorf("script = %q", script)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	msgs, _ := gotBody["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(msgs))
	}
	system := msgs[0].(map[string]interface{})
	if !strings.Contains(system["content"].(string), "product marketing specialist") {
		t.Errorf("system prompt is not the product template: %v", system["content"])
	}
}

func TestGenerateScriptProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "model overloaded", "type": "overloaded_error"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.GenerateScript(context.Background(), "prompt text here", "social")
	if !errors.Is(err, ErrScriptGeneration) {
		t.Fatalf("expected ErrScriptGeneration, got %v", err)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("provider message not surfaced: %v", err)
	}
}

func TestGenerateVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != videoEndpoint {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["resolution"] != "720p" {
			t.Errorf("resolution = %v", body["resolution"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"video_url":     "https://cdn.example.com/v.mp4",
			"thumbnail_url": "https://cdn.example.com/t.jpg",
			"duration":      30,
			"resolution":    "720p",
			"file_size":     1048576,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	res, err := c.GenerateVideo(context.Background(), "a script", "tour", VideoSettings{Resolution: "720p"})
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if res.VideoURL != "https://cdn.example.com/v.mp4" {
		t.Errorf("video url = %q", res.VideoURL)
	}
	if res.Duration != 30 {
		t.Errorf("duration = %d", res.Duration)
	}
	if res.Format != "mp4" {
		t.Errorf("format default = %q", res.Format)
	}
}

func TestGenerateVideoMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"duration": 30})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.GenerateVideo(context.Background(), "a script", "tour", VideoSettings{Resolution: "1080p"})
	if !errors.Is(err, ErrVideoGeneration) {
		t.Fatalf("expected ErrVideoGeneration, got %v", err)
	}
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if !strings.Contains(body["prompt"].(string), "realistic style") {
			t.Errorf("default style not applied: %v", body["prompt"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": "https://cdn.example.com/i.png"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	url, err := c.GenerateImage(context.Background(), "red sneaker on white", "")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if url != "https://cdn.example.com/i.png" {
		t.Errorf("image url = %q", url)
	}
}

func TestGenerateVoiceover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	audio, err := c.GenerateVoiceover(context.Background(), "welcome to our store", "")
	if err != nil {
		t.Fatalf("GenerateVoiceover: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}
}
