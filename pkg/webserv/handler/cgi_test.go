package handler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yourusername/webserv/pkg/webserv/config"
	"github.com/yourusername/webserv/pkg/webserv/http11"
)

// The CGI tests drive /bin/sh scripts; nothing else is assumed to be
// installed.

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func cgiServer() *config.Server {
	return &config.Server{
		Host: "127.0.0.1", Port: 8080, Name: "localhost",
		MaxBodySize: 1 << 20, ErrorPages: map[int]string{},
	}
}

func cgiRequest(t *testing.T, wire string) *http11.Request {
	t.Helper()
	req := http11.NewRequest(0)
	if state := req.Feed([]byte(wire)); state != http11.StateComplete {
		t.Fatalf("request did not complete: %v", state)
	}
	return req
}

func TestCGIBasicOutput(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "hello.sh",
		"#!/bin/sh\nprintf 'Content-Type: text/plain\\r\\n\\r\\nMETHOD:%s' \"$REQUEST_METHOD\"\n")

	h := &CGI{Log: zap.NewNop()}
	req := cgiRequest(t, "GET /cgi-bin/hello.sh?x=1 HTTP/1.1\r\n\r\n")
	resp := h.Execute(req, cgiServer(), script, "/bin/sh")

	if resp.StatusCode != http11.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.HeaderValue("Content-Type"); got != "text/plain" {
		t.Errorf("Content-Type = %q", got)
	}
	if string(resp.Body) != "METHOD:GET" {
		t.Errorf("body = %q, want METHOD:GET", resp.Body)
	}
}

func TestCGIEnvironment(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "env.sh",
		"#!/bin/sh\nprintf 'Content-Type: text/plain\\n\\n'\n"+
			"printf 'q=%s;p=%s;proto=%s;gw=%s;port=%s\\n' \"$QUERY_STRING\" \"$PATH_INFO\" \"$SERVER_PROTOCOL\" \"$GATEWAY_INTERFACE\" \"$SERVER_PORT\"\n")

	h := &CGI{Log: zap.NewNop()}
	req := cgiRequest(t, "GET /cgi-bin/env.sh?a=b&c=d HTTP/1.1\r\n\r\n")
	resp := h.Execute(req, cgiServer(), script, "/bin/sh")

	want := "q=a=b&c=d;p=/cgi-bin/env.sh;proto=HTTP/1.1;gw=CGI/1.1;port=8080\n"
	if string(resp.Body) != want {
		t.Errorf("body = %q, want %q", resp.Body, want)
	}
}

func TestCGIPostBody(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "echo.sh",
		"#!/bin/sh\nprintf 'Content-Type: text/plain\\r\\n\\r\\n'\ncat\n")

	h := &CGI{Log: zap.NewNop()}
	req := cgiRequest(t, "POST /cgi-bin/echo.sh HTTP/1.1\r\n"+
		"Content-Type: text/plain\r\nContent-Length: 9\r\n\r\npayload!\n")
	resp := h.Execute(req, cgiServer(), script, "/bin/sh")

	if resp.StatusCode != http11.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != "payload!\n" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestCGIStatusHeader(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "teapot.sh",
		"#!/bin/sh\nprintf 'Status: 404 Not Found\\r\\nContent-Type: text/plain\\r\\n\\r\\ngone'\n")

	h := &CGI{Log: zap.NewNop()}
	req := cgiRequest(t, "GET /cgi-bin/teapot.sh HTTP/1.1\r\n\r\n")
	resp := h.Execute(req, cgiServer(), script, "/bin/sh")

	if resp.StatusCode != http11.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if string(resp.Body) != "gone" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestCGIDefaultContentType(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "bare.sh",
		"#!/bin/sh\nprintf 'X-Custom: yes\\n\\n<p>hi</p>'\n")

	h := &CGI{Log: zap.NewNop()}
	resp := h.Execute(cgiRequest(t, "GET /x.sh HTTP/1.1\r\n\r\n"), cgiServer(), script, "/bin/sh")

	if got := resp.HeaderValue("Content-Type"); got != "text/html" {
		t.Errorf("Content-Type = %q, want text/html", got)
	}
	if string(resp.Body) != "<p>hi</p>" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestCGIMissingScript(t *testing.T) {
	h := &CGI{Log: zap.NewNop()}
	resp := h.Execute(cgiRequest(t, "GET /x.sh HTTP/1.1\r\n\r\n"),
		cgiServer(), "/no/such/script.sh", "/bin/sh")
	if resp.StatusCode != http11.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCGIEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "silent.sh", "#!/bin/sh\nexit 0\n")

	h := &CGI{Log: zap.NewNop()}
	resp := h.Execute(cgiRequest(t, "GET /x.sh HTTP/1.1\r\n\r\n"), cgiServer(), script, "/bin/sh")
	if resp.StatusCode != http11.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestCGIWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data.txt"), "sibling")
	script := writeScript(t, dir, "cwd.sh",
		"#!/bin/sh\nprintf 'Content-Type: text/plain\\n\\n'\ncat data.txt\n")

	h := &CGI{Log: zap.NewNop()}
	resp := h.Execute(cgiRequest(t, "GET /x.sh HTTP/1.1\r\n\r\n"), cgiServer(), script, "/bin/sh")
	if string(resp.Body) != "sibling" {
		t.Errorf("body = %q; child did not run in the script directory", resp.Body)
	}
}

func TestCGIPostEnvDefaults(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "post.sh",
		"#!/bin/sh\nprintf 'Content-Type: text/plain\\n\\nlen=%s type=%s' \"$CONTENT_LENGTH\" \"$CONTENT_TYPE\"\n")

	h := &CGI{Log: zap.NewNop()}
	req := cgiRequest(t, "POST /x.sh HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc")
	resp := h.Execute(req, cgiServer(), script, "/bin/sh")

	got := string(resp.Body)
	if !strings.Contains(got, "len=3") ||
		!strings.Contains(got, "type=application/x-www-form-urlencoded") {
		t.Errorf("body = %q", got)
	}
}
