package protocol

import "testing"

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"notes.txt", "text/plain"},
		{"index.html", "text/html"},
		{"style.css", "text/css"},
		{"photo.jpg", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"clip.mp4", "video/mp4"},
		{"movie.mkv", "video/x-matroska"},
		{"logo.png", "image/png"},
		{"data.json", "application/json"},
		{"archive.tar.gz", "application/octet-stream"},
		{"README", "application/octet-stream"},
		{"", "application/octet-stream"},
		{"/srv/www/deep/path/page.html", "text/html"},
		{"UPPER.HTML", "text/html"},
		{"trailing.", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ContentTypeFor(tt.path); got != tt.want {
				t.Errorf("ContentTypeFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
