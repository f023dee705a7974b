// Package config loads the nginx-like configuration file into the
// immutable model the router and event loop run against. The model never
// changes after Load returns; a change on disk is only reported by the
// watcher, never applied.
package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// DefaultPath is used when the CLI is given no configuration file.
const DefaultPath = "config/webserv.conf"

// DefaultMaxBodySize applies when a server block carries no
// client_max_body_size directive.
const DefaultMaxBodySize = 1 << 20 // 1 MiB

// DefaultUploadDir applies when a location accepts POST uploads without
// an upload_path directive.
const DefaultUploadDir = "./uploads"

// Config is the parsed configuration: one Server per listening endpoint.
type Config struct {
	// Path is the file the configuration was loaded from.
	Path string

	Servers []*Server
}

// Server describes one listening endpoint.
type Server struct {
	Host        string // IPv4 dotted quad, default "0.0.0.0"
	Port        int
	Name        string // server_name, informational
	MaxBodySize int    // client_max_body_size in bytes

	// ErrorPages maps a status code to the page served for it.
	ErrorPages map[int]string

	// Locations in declaration order; first declared wins a prefix tie.
	Locations []*Location
}

// Redirect is a location's `return <code> <target>` directive.
type Redirect struct {
	Code   int // 301 or 302
	Target string
}

// Location binds a URL prefix to a handler policy.
type Location struct {
	Prefix    string
	Root      string
	Index     string
	Autoindex bool

	// methods as written in allowed_methods order, upper-cased.
	// Empty means every supported method is allowed.
	Methods []string

	Redirect  *Redirect
	UploadDir string

	// CGI maps a file extension (with dot) to an interpreter path.
	CGI map[string]string
}

// Addr returns the endpoint in host:port form.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Allows reports whether a method is allowed in this location.
func (l *Location) Allows(method string) bool {
	if len(l.Methods) == 0 {
		return true
	}
	for _, m := range l.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// AllowHeader returns the location's allowed set in Allow-header form.
func (l *Location) AllowHeader() string {
	if len(l.Methods) == 0 {
		return "GET, HEAD, POST, PUT, DELETE"
	}
	return strings.Join(l.Methods, ", ")
}

// Interpreter returns the CGI interpreter bound to a file extension,
// or "" when the location declares none for it.
func (l *Location) Interpreter(ext string) string {
	if l.CGI == nil {
		return ""
	}
	return l.CGI[strings.ToLower(ext)]
}

// Locate returns the location whose prefix best matches the request
// path: longest prefix wins, declaration order breaks ties. Returns nil
// when no prefix matches.
func (s *Server) Locate(path string) *Location {
	var best *Location
	for _, loc := range s.Locations {
		if !strings.HasPrefix(path, loc.Prefix) {
			continue
		}
		if best == nil || len(loc.Prefix) > len(best.Prefix) {
			best = loc
		}
	}
	return best
}

// UploadPath returns the location's upload directory, applying the
// default when the directive is absent.
func (l *Location) UploadPath() string {
	if l.UploadDir == "" {
		return DefaultUploadDir
	}
	return l.UploadDir
}

var knownMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true, "DELETE": true,
}

// Validate checks cross-directive rules the parser cannot see locally:
// at least one server, unique endpoints, sane location blocks.
func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return errors.Errorf("%s: no server block", c.Path)
	}
	seen := make(map[string]bool)
	for _, s := range c.Servers {
		if s.Port <= 0 || s.Port > 65535 {
			return errors.Errorf("%s: server %q: invalid port %d", c.Path, s.Name, s.Port)
		}
		if seen[s.Addr()] {
			return errors.Errorf("%s: duplicate listening endpoint %s", c.Path, s.Addr())
		}
		seen[s.Addr()] = true

		if len(s.Locations) == 0 {
			return errors.Errorf("%s: server %s has no location block", c.Path, s.Addr())
		}
		for _, loc := range s.Locations {
			if !strings.HasPrefix(loc.Prefix, "/") {
				return errors.Errorf("%s: location %q: prefix must start with /", c.Path, loc.Prefix)
			}
			for _, m := range loc.Methods {
				if !knownMethods[m] {
					return errors.Errorf("%s: location %q: unknown method %q", c.Path, loc.Prefix, m)
				}
			}
			if loc.Redirect != nil && loc.Redirect.Code != 301 && loc.Redirect.Code != 302 {
				return errors.Errorf("%s: location %q: return code must be 301 or 302", c.Path, loc.Prefix)
			}
			if loc.Redirect == nil && loc.Root == "" {
				return errors.Errorf("%s: location %q: missing root", c.Path, loc.Prefix)
			}
		}
	}
	return nil
}
