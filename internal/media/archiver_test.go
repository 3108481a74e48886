package media

import "testing"

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		sourceURL string
		kind      string
		want      string
	}{
		{"video with extension", "https://cdn.example.com/out/abc.mp4", "video", "videos/job-1/video.mp4"},
		{"thumbnail with extension", "https://cdn.example.com/out/abc.png", "thumbnail", "videos/job-1/thumbnail.png"},
		{"query string stripped", "https://cdn.example.com/out/abc.mp4?expires=123", "video", "videos/job-1/video.mp4"},
		{"video without extension", "https://cdn.example.com/out/abc", "video", "videos/job-1/video.mp4"},
		{"thumbnail without extension", "https://cdn.example.com/out/abc", "thumbnail", "videos/job-1/thumbnail.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectKey("job-1", tt.sourceURL, tt.kind); got != tt.want {
				t.Errorf("ObjectKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := contentTypeFor("videos/j/video.mp4", ""); got != "video/mp4" {
		t.Errorf("mp4 content type = %q", got)
	}
	if got := contentTypeFor("videos/j/thumbnail.jpg", ""); got != "image/jpeg" {
		t.Errorf("jpg content type = %q", got)
	}
	if got := contentTypeFor("videos/j/video.bin", "video/webm"); got != "video/webm" {
		t.Errorf("fallback content type = %q", got)
	}
	if got := contentTypeFor("videos/j/video.bin", ""); got != "application/octet-stream" {
		t.Errorf("default content type = %q", got)
	}
}
