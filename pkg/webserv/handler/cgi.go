package handler

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/yourusername/webserv/pkg/webserv/config"
	"github.com/yourusername/webserv/pkg/webserv/http11"
)

// cgiReadTimeoutMs bounds each wait for the child's standard output.
// A child that produces no byte for this long is killed.
const cgiReadTimeoutMs = 5000

// CGI executes an interpreter over a script and turns its standard
// output into a response. The executor owns the child's whole lifetime:
// on every path, including the stall abort, the child is reaped before
// Execute returns.
type CGI struct {
	Log *zap.Logger
}

// Execute runs the interpreter with the script as its sole argument,
// feeding the request body on the child's standard input and collecting
// its standard output.
func (h *CGI) Execute(req *http11.Request, srv *config.Server, script, interpreter string) *http11.Response {
	info, err := os.Stat(script)
	if err != nil || !info.Mode().IsRegular() {
		return ErrorResponse(http11.StatusNotFound, srv)
	}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return ErrorResponse(http11.StatusInternalServerError, srv)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		return ErrorResponse(http11.StatusInternalServerError, srv)
	}

	cmd := &exec.Cmd{
		Path:   interpreter,
		Args:   []string{interpreter, script},
		Dir:    filepath.Dir(script),
		Env:    h.environment(req, srv, script),
		Stdin:  stdinR,
		Stdout: stdoutW,
	}
	if err := cmd.Start(); err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		h.Log.Error("cgi start failed",
			zap.String("interpreter", interpreter),
			zap.String("script", script), zap.Error(err))
		return ErrorResponse(http11.StatusInternalServerError, srv)
	}
	// The child holds dups of its pipe ends; drop ours so its EOFs work.
	stdinR.Close()
	stdoutW.Close()

	// Feed the request body, then close to signal EOF on the child's stdin.
	if len(req.Body) > 0 {
		if _, err := stdinW.Write(req.Body); err != nil {
			h.Log.Warn("cgi stdin write failed", zap.Error(err))
		}
	}
	stdinW.Close()

	output, readErr := h.readOutput(stdoutR)
	stdoutR.Close()

	if readErr != nil {
		// Stalled or broken child: force termination, then reap with a
		// blocking wait so no zombie survives this call.
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		h.Log.Warn("cgi aborted",
			zap.String("script", script), zap.Error(readErr))
		return ErrorResponse(http11.StatusInternalServerError, srv)
	}

	if err := cmd.Wait(); err != nil {
		h.Log.Warn("cgi exited with failure",
			zap.String("script", script), zap.Error(err))
	}

	if len(output) == 0 {
		return ErrorResponse(http11.StatusInternalServerError, srv)
	}
	return h.buildResponse(output)
}

// environment builds the CGI/1.1 variable set for the child.
func (h *CGI) environment(req *http11.Request, srv *config.Server, script string) []string {
	abs, err := filepath.Abs(script)
	if err != nil {
		abs = script
	}
	name := srv.Name
	if name == "" {
		name = srv.Host
	}

	env := []string{
		"REQUEST_METHOD=" + req.Method.String(),
		"SCRIPT_FILENAME=" + abs,
		"SCRIPT_NAME=" + req.Path,
		"PATH_INFO=" + req.Path,
		"QUERY_STRING=" + req.Query,
		"SERVER_PROTOCOL=HTTP/1.1",
		"SERVER_NAME=" + name,
		"SERVER_PORT=" + strconv.Itoa(srv.Port),
		"GATEWAY_INTERFACE=CGI/1.1",
		"REDIRECT_STATUS=200",
		"PATH=" + os.Getenv("PATH"),
	}
	if req.Method == http11.MethodPOST {
		ct := req.Header.Get(http11.HeaderContentType)
		if ct == "" {
			ct = http11.ContentTypeForm
		}
		env = append(env,
			"CONTENT_LENGTH="+strconv.Itoa(req.ContentLength),
			"CONTENT_TYPE="+ct)
	}
	return env
}

// readOutput drains the child's standard output, waiting at most
// cgiReadTimeoutMs between successful reads. An elapsed wait without
// data aborts the invocation.
func (h *CGI) readOutput(r *os.File) ([]byte, error) {
	fd := int(r.Fd())
	var out []byte
	buf := make([]byte, 4096)

	for {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, cgiReadTimeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, unix.ETIMEDOUT
		}

		m, err := r.Read(buf)
		if m > 0 {
			out = append(out, buf[:m]...)
		}
		if err != nil {
			// EOF ends the output; the caller reaps the child.
			return out, nil
		}
		if m == 0 {
			return out, nil
		}
	}
}

// buildResponse splits CGI output into its header block and body and
// builds the HTTP response. The header block runs to the first blank
// line; Content-Type defaults to text/html, a Status header may
// override the 200, and a Content-Encoding header is carried over.
func (h *CGI) buildResponse(output []byte) *http11.Response {
	var headerBlock, body []byte

	crlfIdx := bytes.Index(output, []byte("\r\n\r\n"))
	lfIdx := bytes.Index(output, []byte("\n\n"))
	switch {
	case crlfIdx != -1 && (lfIdx == -1 || crlfIdx < lfIdx):
		headerBlock = output[:crlfIdx]
		body = output[crlfIdx+4:]
	case lfIdx != -1:
		headerBlock = output[:lfIdx]
		body = output[lfIdx+2:]
	default:
		// No header block at all; emit the output as the body.
		body = output
	}

	status := http11.StatusOK
	ctype := http11.ContentTypeHTML
	var encoding string

	for _, line := range bytes.Split(headerBlock, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		colon := bytes.IndexByte(line, ':')
		if colon == -1 {
			continue
		}
		name := strings.ToLower(string(bytes.TrimSpace(line[:colon])))
		value := string(bytes.TrimSpace(line[colon+1:]))
		switch name {
		case "content-type":
			if value != "" {
				ctype = value
			}
		case "status":
			if fields := strings.Fields(value); len(fields) > 0 {
				if code, err := strconv.Atoi(fields[0]); err == nil {
					status = code
				}
			}
		case "content-encoding":
			encoding = value
		}
	}

	resp := http11.NewResponse(status)
	resp.SetBody(body, ctype)
	if encoding != "" {
		resp.SetHeader("Content-Encoding", encoding)
	}
	return resp
}
