package handler

import (
	"path/filepath"
	"testing"

	"github.com/yourusername/webserv/pkg/webserv/config"
)

func TestSafeURI(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/index.html", true},
		{"/a/b/c", true},
		{"/..", false},
		{"/../etc/passwd", false},
		{"/a/../b", false},
		{"/a/..", false},
		{"/..hidden", true},   // not a dot-dot segment
		{"/a..b/file", true},  // dots inside a segment
	}
	for _, tt := range tests {
		if got := SafeURI(tt.path); got != tt.want {
			t.Errorf("SafeURI(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	loc := &config.Location{Prefix: "/static", Root: "/srv/www"}

	tests := []struct {
		urlPath string
		want    string
		ok      bool
	}{
		{"/static/site.css", filepath.Join("/srv/www", "site.css"), true},
		{"/static", "/srv/www", true},
		{"/static/", "/srv/www", true},
		{"/static/a/b.txt", filepath.Join("/srv/www", "a/b.txt"), true},
		{"/static/../../etc/passwd", "", false},
	}
	for _, tt := range tests {
		got, ok := Resolve(loc, tt.urlPath)
		if ok != tt.ok {
			t.Errorf("Resolve(%q) ok = %v, want %v", tt.urlPath, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.urlPath, got, tt.want)
		}
	}
}

func TestResolveRootPrefix(t *testing.T) {
	loc := &config.Location{Prefix: "/", Root: "www"}
	got, ok := Resolve(loc, "/index.html")
	if !ok || got != filepath.Join("www", "index.html") {
		t.Errorf("Resolve = %q ok=%v", got, ok)
	}
}
