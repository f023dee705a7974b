package http11

import "testing"

func TestMimeType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/index.html", "text/html"},
		{"/a/b/page.HTM", "text/html"},
		{"/style.css", "text/css"},
		{"/app.js", "application/javascript"},
		{"/data.json", "application/json"},
		{"/feed.xml", "application/xml"},
		{"/photo.jpg", "image/jpeg"},
		{"/photo.jpeg", "image/jpeg"},
		{"/logo.png", "image/png"},
		{"/anim.gif", "image/gif"},
		{"/icon.svg", "image/svg+xml"},
		{"/favicon.ico", "image/x-icon"},
		{"/notes.txt", "text/plain"},
		{"/doc.pdf", "application/pdf"},
		{"/bundle.zip", "application/zip"},
		{"/song.mp3", "audio/mpeg"},
		{"/clip.mp4", "video/mp4"},
		{"/font.woff", "font/woff"},
		{"/font.woff2", "font/woff2"},
		{"/font.ttf", "font/ttf"},
		{"/binary.bin", "application/octet-stream"},
		{"/no-extension", "application/octet-stream"},
		{"/.hidden", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := MimeType(tt.path); got != tt.want {
			t.Errorf("MimeType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/script.py", ".py"},
		{"/a/b.c/script.sh", ".sh"},
		{"/archive.tar.gz", ".gz"},
		{"/plain", ""},
		{"/dir.ext/plain", ""},
		{"/.bashrc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Ext(tt.path); got != tt.want {
			t.Errorf("Ext(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
