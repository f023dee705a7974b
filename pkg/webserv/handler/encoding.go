package handler

import (
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/valyala/bytebufferpool"

	"github.com/yourusername/webserv/pkg/webserv/http11"
)

// minEncodeSize is the smallest body worth re-encoding; anything below
// it ships identity-coded.
const minEncodeSize = 512

// compressibleTypes are the Content-Type prefixes eligible for a
// content coding.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"application/javascript",
	"application/json",
	"application/xml",
	"image/svg+xml",
}

// NegotiateEncoding re-encodes a compressible response body with the
// best coding the client accepts: brotli first, gzip second. The
// response is left untouched when it is small, already coded, of a
// non-compressible type, or when the coding does not shrink it.
func NegotiateEncoding(req *http11.Request, resp *http11.Response) {
	if len(resp.Body) < minEncodeSize {
		return
	}
	if resp.HeaderValue(http11.HeaderContentEncoding) != "" {
		return
	}
	if !compressible(resp.HeaderValue(http11.HeaderContentType)) {
		return
	}

	accepted := req.Header.Get(http11.HeaderAcceptEncoding)
	var coding string
	switch {
	case acceptsCoding(accepted, "br"):
		coding = "br"
	case acceptsCoding(accepted, "gzip"):
		coding = "gzip"
	default:
		return
	}

	encoded, err := encodeBody(resp.Body, coding)
	if err != nil || len(encoded) >= len(resp.Body) {
		return
	}

	ctype := resp.HeaderValue(http11.HeaderContentType)
	resp.SetBody(encoded, ctype)
	resp.SetHeader("Content-Encoding", coding)
	resp.SetHeader("Vary", "Accept-Encoding")
}

func compressible(ctype string) bool {
	for _, t := range compressibleTypes {
		if len(ctype) >= len(t) && ctype[:len(t)] == t {
			return true
		}
	}
	return false
}

// acceptsCoding reports whether an Accept-Encoding value lists the
// coding. A token with an explicit q=0 does not count.
func acceptsCoding(accepted, coding string) bool {
	for _, field := range strings.Split(accepted, ",") {
		token, q := field, ""
		if i := strings.IndexByte(field, ';'); i != -1 {
			token, q = field[:i], strings.TrimSpace(field[i+1:])
		}
		if strings.TrimSpace(token) != coding {
			continue
		}
		return q != "q=0" && q != "q=0.0"
	}
	return false
}

func encodeBody(body []byte, coding string) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	switch coding {
	case "br":
		w := brotli.NewWriter(buf)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case "gzip":
		w := gzip.NewWriter(buf)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}

	out := make([]byte, len(buf.B))
	copy(out, buf.B)
	return out, nil
}
