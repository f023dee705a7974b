// Package handler produces responses: static content, multipart uploads,
// DELETE, CGI execution, error pages and response content coding.
// Handlers never return Go errors across the component boundary; every
// outcome is a *http11.Response.
package handler

import (
	"path/filepath"
	"strings"

	"github.com/yourusername/webserv/pkg/webserv/config"
)

// SafeURI reports whether a request path is free of ".." segments.
// Traversal is rejected before any filesystem join happens.
func SafeURI(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

// Resolve joins a location's root with the request path minus the
// location prefix and verifies the canonical result stays under the
// root. ok is false when the join escapes.
func Resolve(loc *config.Location, urlPath string) (string, bool) {
	rel := strings.TrimPrefix(urlPath, loc.Prefix)
	rel = strings.TrimPrefix(rel, "/")

	root := filepath.Clean(loc.Root)
	full := filepath.Clean(filepath.Join(root, rel))

	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}
