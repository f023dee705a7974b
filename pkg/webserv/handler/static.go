package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/webserv/pkg/webserv/config"
	"github.com/yourusername/webserv/pkg/webserv/http11"
)

// Static serves GET/HEAD from a location root and handles DELETE.
type Static struct {
	Log *zap.Logger
}

// Serve answers a completed request against the resolved filesystem
// path. The router has already matched the location and checked the
// allowed-method set.
func (h *Static) Serve(req *http11.Request, loc *config.Location, srv *config.Server, fsPath string) *http11.Response {
	switch req.Method {
	case http11.MethodGET, http11.MethodHEAD:
		resp := h.get(req, loc, srv, fsPath)
		if req.Method == http11.MethodHEAD {
			resp.DropBody()
		}
		return resp
	case http11.MethodDELETE:
		return h.delete(loc, srv, fsPath)
	default:
		return ErrorResponse(http11.StatusMethodNotAllowed, srv)
	}
}

func (h *Static) get(req *http11.Request, loc *config.Location, srv *config.Server, fsPath string) *http11.Response {
	info, err := os.Stat(fsPath)
	if err != nil {
		if os.IsPermission(err) {
			return ErrorResponse(http11.StatusForbidden, srv)
		}
		return ErrorResponse(http11.StatusNotFound, srv)
	}

	if info.IsDir() {
		if loc.Index != "" {
			index := filepath.Join(fsPath, loc.Index)
			if fi, err := os.Stat(index); err == nil && fi.Mode().IsRegular() {
				return h.file(index, srv)
			}
		}
		if loc.Autoindex {
			return h.listing(req.Path, fsPath, srv)
		}
		return ErrorResponse(http11.StatusNotFound, srv)
	}

	if !info.Mode().IsRegular() {
		return ErrorResponse(http11.StatusNotFound, srv)
	}
	return h.file(fsPath, srv)
}

// file reads a regular file fully and answers 200 with its MIME type.
func (h *Static) file(path string, srv *config.Server) *http11.Response {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return ErrorResponse(http11.StatusForbidden, srv)
		}
		h.Log.Warn("static read failed", zap.String("path", path), zap.Error(err))
		return ErrorResponse(http11.StatusInternalServerError, srv)
	}
	resp := http11.NewResponse(http11.StatusOK)
	resp.SetBody(data, http11.MimeType(path))
	return resp
}

// listing synthesizes the autoindex page: entries sorted by name,
// directories suffixed with a slash, hidden entries skipped, plus a
// parent link.
func (h *Static) listing(urlPath, fsPath string, srv *config.Server) *http11.Response {
	entries, err := os.ReadDir(fsPath)
	if err != nil {
		if os.IsPermission(err) {
			return ErrorResponse(http11.StatusForbidden, srv)
		}
		return ErrorResponse(http11.StatusNotFound, srv)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	base := urlPath
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html>\n<head><title>Index of %s</title></head>\n<body>\n", urlPath)
	fmt.Fprintf(&b, "<h1>Index of %s</h1>\n<hr>\n<ul>\n", urlPath)
	b.WriteString("<li><a href=\"..\">..</a></li>\n")
	for _, name := range names {
		fmt.Fprintf(&b, "<li><a href=\"%s%s\">%s</a></li>\n", base, name, name)
	}
	b.WriteString("</ul>\n<hr>\n</body>\n</html>\n")

	resp := http11.NewResponse(http11.StatusOK)
	resp.SetBody([]byte(b.String()), http11.ContentTypeHTML)
	return resp
}

// delete removes a regular file. The configured index file is never
// deletable through this handler.
func (h *Static) delete(loc *config.Location, srv *config.Server, fsPath string) *http11.Response {
	info, err := os.Stat(fsPath)
	if err != nil {
		return ErrorResponse(http11.StatusNotFound, srv)
	}
	if !info.Mode().IsRegular() {
		return ErrorResponse(http11.StatusMethodNotAllowed, srv)
	}
	if loc.Index != "" && filepath.Base(fsPath) == loc.Index {
		return h.denied()
	}

	if err := os.Remove(fsPath); err != nil {
		if os.IsPermission(err) {
			return h.denied()
		}
		if os.IsNotExist(err) {
			return ErrorResponse(http11.StatusNotFound, srv)
		}
		h.Log.Warn("delete failed", zap.String("path", fsPath), zap.Error(err))
		return ErrorResponse(http11.StatusInternalServerError, srv)
	}

	resp := http11.NewResponse(http11.StatusOK)
	resp.SetBody([]byte("<html><body><h1>File deleted</h1></body></html>\n"), http11.ContentTypeHTML)
	return resp
}

func (h *Static) denied() *http11.Response {
	resp := http11.NewResponse(http11.StatusMethodNotAllowed)
	resp.SetBody([]byte("<html><body><h1>Permission denied</h1></body></html>\n"), http11.ContentTypeHTML)
	return resp
}
