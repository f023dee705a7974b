package handler

import (
	"fmt"
	"os"

	"github.com/yourusername/webserv/pkg/webserv/config"
	"github.com/yourusername/webserv/pkg/webserv/http11"
)

// inlineErrorPage is the hard-coded fallback body used when no error
// page is configured for a status or the configured file is unreadable.
func inlineErrorPage(status int) []byte {
	phrase := http11.StatusText(status)
	return []byte(fmt.Sprintf(
		"<!DOCTYPE html>\n<html>\n<head><title>%d %s</title></head>\n"+
			"<body>\n<h1>%d %s</h1>\n<hr>\n<p>%s</p>\n</body>\n</html>\n",
		status, phrase, status, phrase, http11.ServerName))
}

// ErrorResponse builds the canned response for an error status,
// preferring the server's configured error page for that code.
func ErrorResponse(status int, srv *config.Server) *http11.Response {
	resp := http11.NewResponse(status)

	var body []byte
	if srv != nil {
		if page, ok := srv.ErrorPages[status]; ok {
			if data, err := os.ReadFile(page); err == nil {
				body = data
			}
		}
	}
	if body == nil {
		body = inlineErrorPage(status)
	}
	resp.SetBody(body, http11.ContentTypeHTML)
	return resp
}
