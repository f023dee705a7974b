package handler

import (
	"bytes"
)

// part is one decoded multipart/form-data part.
type part struct {
	headers  map[string]string // lower-cased name -> value
	name     string            // Content-Disposition name parameter
	filename string            // Content-Disposition filename parameter
	ctype    string            // Content-Type, default application/octet-stream
	data     []byte
}

var (
	crlf     = []byte("\r\n")
	dashDash = []byte("--")
	crlfcrlf = []byte("\r\n\r\n")
)

// decodeMultipart decomposes a body around "--<boundary>" per the
// multipart/form-data framing: preamble skipped, each part's headers
// terminated by a blank line, part data running up to the CRLF that
// precedes the next boundary, the whole thing ended by a boundary
// followed by "--".
func decodeMultipart(body []byte, boundary string) []part {
	delim := []byte("--" + boundary)

	// Skip the preamble before the first boundary.
	idx := bytes.Index(body, delim)
	if idx == -1 {
		return nil
	}
	rest := body[idx+len(delim):]

	var parts []part
	for {
		if bytes.HasPrefix(rest, dashDash) {
			return parts // closing boundary
		}
		// The boundary line ends with CRLF before the part headers.
		if bytes.HasPrefix(rest, crlf) {
			rest = rest[len(crlf):]
		}

		headerEnd := bytes.Index(rest, crlfcrlf)
		if headerEnd == -1 {
			return parts
		}
		p := parsePartHeaders(rest[:headerEnd])
		rest = rest[headerEnd+len(crlfcrlf):]

		next := bytes.Index(rest, delim)
		if next == -1 {
			return parts
		}
		data := rest[:next]
		// Drop the CRLF that precedes the boundary; it is framing, not
		// part content.
		data = bytes.TrimSuffix(data, crlf)
		p.data = data
		parts = append(parts, p)

		rest = rest[next+len(delim):]
	}
}

// parsePartHeaders parses the header block of one part and extracts the
// Content-Disposition name/filename and the Content-Type.
func parsePartHeaders(block []byte) part {
	p := part{
		headers: make(map[string]string),
		ctype:   "application/octet-stream",
	}
	for _, line := range bytes.Split(block, crlf) {
		colon := bytes.IndexByte(line, ':')
		if colon == -1 {
			continue
		}
		name := string(bytes.ToLower(bytes.TrimSpace(line[:colon])))
		value := string(bytes.TrimSpace(line[colon+1:]))
		p.headers[name] = value
	}

	if cd, ok := p.headers["content-disposition"]; ok {
		p.name = headerParam(cd, "name")
		p.filename = headerParam(cd, "filename")
	}
	if ct, ok := p.headers["content-type"]; ok && ct != "" {
		p.ctype = ct
	}
	return p
}

// headerParam extracts a semicolon-separated parameter value from a
// header, stripping surrounding quotes.
func headerParam(header, param string) string {
	for _, field := range bytes.Split([]byte(header), []byte(";")) {
		field = bytes.TrimSpace(field)
		eq := bytes.IndexByte(field, '=')
		if eq == -1 {
			continue
		}
		if !bytes.EqualFold(field[:eq], []byte(param)) {
			continue
		}
		val := bytes.TrimSpace(field[eq+1:])
		val = bytes.Trim(val, `"`)
		return string(val)
	}
	return ""
}

// sanitizeFilename reduces a client-supplied filename to a safe single
// path element: directory components stripped, every byte outside
// [A-Za-z0-9._-] replaced with '_', leading dots removed. An empty or
// dot-only result becomes "uploaded_file".
func sanitizeFilename(name string) string {
	// Strip any directory component, both separators.
	if i := lastIndexAny(name, "/\\"); i != -1 {
		name = name[i+1:]
	}

	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z',
			c >= 'a' && c <= 'z',
			c >= '0' && c <= '9',
			c == '.', c == '_', c == '-':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}

	// Leading dots would hide the file or rebuild a dot segment.
	i := 0
	for i < len(out) && out[i] == '.' {
		i++
	}
	out = out[i:]

	s := string(out)
	if s == "" || s == "." || s == ".." {
		return "uploaded_file"
	}
	return s
}

func lastIndexAny(s, chars string) int {
	for i := len(s) - 1; i >= 0; i-- {
		for j := 0; j < len(chars); j++ {
			if s[i] == chars[j] {
				return i
			}
		}
	}
	return -1
}
