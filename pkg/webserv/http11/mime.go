package http11

import "strings"

// mimeTypes is the closed extension set served by the static handler.
// Anything else falls back to application/octet-stream.
var mimeTypes = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "application/javascript",
	".json":  "application/json",
	".xml":   "application/xml",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".png":   "image/png",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".txt":   "text/plain",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".mp3":   "audio/mpeg",
	".mp4":   "video/mp4",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
}

// MimeType returns the Content-Type for a file path from its extension.
func MimeType(path string) string {
	if t, ok := mimeTypes[strings.ToLower(Ext(path))]; ok {
		return t
	}
	return ContentTypeOctetStream
}

// Ext returns the extension of the final path element including the
// leading dot, or "" when the element has none. A lone leading dot
// (a hidden file) does not count as an extension.
func Ext(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '/':
			return ""
		case '.':
			if i > 0 && path[i-1] != '/' {
				return path[i:]
			}
			return ""
		}
	}
	return ""
}
