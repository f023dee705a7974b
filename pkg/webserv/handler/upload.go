package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/webserv/pkg/webserv/config"
	"github.com/yourusername/webserv/pkg/webserv/http11"
)

// Upload decodes multipart/form-data POST bodies and writes the file
// parts under the location's upload directory.
type Upload struct {
	Log *zap.Logger
}

// Serve handles a completed POST upload request.
func (h *Upload) Serve(req *http11.Request, loc *config.Location, srv *config.Server) *http11.Response {
	if req.Method != http11.MethodPOST {
		return ErrorResponse(http11.StatusMethodNotAllowed, srv)
	}
	if srv.MaxBodySize > 0 && req.ContentLength > srv.MaxBodySize {
		return ErrorResponse(http11.StatusPayloadTooLarge, srv)
	}
	if req.Boundary == "" {
		return ErrorResponse(http11.StatusBadRequest, srv)
	}

	dir := loc.UploadPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.Log.Error("upload dir", zap.String("dir", dir), zap.Error(err))
		return ErrorResponse(http11.StatusInternalServerError, srv)
	}

	var saved []string
	for _, p := range decodeMultipart(req.Body, req.Boundary) {
		if p.filename == "" {
			continue // plain form field, not a file
		}
		name := sanitizeFilename(p.filename)
		dst := filepath.Join(dir, name)
		if err := os.WriteFile(dst, p.data, 0o644); err != nil {
			h.Log.Warn("upload write failed",
				zap.String("file", dst), zap.Error(err))
			continue
		}
		h.Log.Debug("upload saved",
			zap.String("file", dst), zap.Int("bytes", len(p.data)))
		saved = append(saved, name)
	}

	if len(saved) == 0 {
		return ErrorResponse(http11.StatusInternalServerError, srv)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><title>Upload complete</title></head>\n<body>\n")
	b.WriteString("<h1>Upload complete</h1>\n<ul>\n")
	for _, name := range saved {
		fmt.Fprintf(&b, "<li>%s</li>\n", name)
	}
	b.WriteString("</ul>\n</body>\n</html>\n")

	resp := http11.NewResponse(http11.StatusOK)
	resp.SetBody([]byte(b.String()), http11.ContentTypeHTML)
	return resp
}
