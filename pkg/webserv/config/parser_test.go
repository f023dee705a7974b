package config

import (
	"strings"
	"testing"
)

const sampleConfig = `
# Example configuration
server {
	listen 8080;
	host 127.0.0.1;
	server_name localhost;
	client_max_body_size 1048576;
	error_page 404 www/errors/404.html;
	error_page 500 www/errors/500.html;

	location / {
		root www;
		index index.html;
		autoindex off;
		allowed_methods GET HEAD POST DELETE;
	}

	location /files {
		root www/files;
		autoindex on;
		allowed_methods GET HEAD;
	}

	location /upload {
		root www;
		allowed_methods POST;
		upload_path www/uploads;
	}

	location /cgi-bin {
		root www/cgi-bin;
		allowed_methods GET POST;
		cgi .py /usr/bin/python3;
		cgi .sh /bin/sh;
	}

	location /old {
		return 301 /;
	}
}

server {
	listen 8081;
	host 127.0.0.1;

	location / {
		root alt;
	}
}
`

func TestParseSampleConfig(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if len(cfg.Servers) != 2 {
		t.Fatalf("servers = %d, want 2", len(cfg.Servers))
	}

	srv := cfg.Servers[0]
	if srv.Port != 8080 || srv.Host != "127.0.0.1" || srv.Name != "localhost" {
		t.Errorf("server = %s name %q", srv.Addr(), srv.Name)
	}
	if srv.MaxBodySize != 1048576 {
		t.Errorf("MaxBodySize = %d", srv.MaxBodySize)
	}
	if srv.ErrorPages[404] != "www/errors/404.html" {
		t.Errorf("error_page 404 = %q", srv.ErrorPages[404])
	}
	if len(srv.Locations) != 5 {
		t.Fatalf("locations = %d, want 5", len(srv.Locations))
	}

	root := srv.Locations[0]
	if root.Prefix != "/" || root.Root != "www" || root.Index != "index.html" || root.Autoindex {
		t.Errorf("root location = %+v", root)
	}
	files := srv.Locations[1]
	if !files.Autoindex || files.Allows("POST") {
		t.Errorf("files location = %+v", files)
	}
	cgi := srv.Locations[3]
	if cgi.Interpreter(".py") != "/usr/bin/python3" || cgi.Interpreter(".sh") != "/bin/sh" {
		t.Errorf("cgi map = %v", cgi.CGI)
	}
	if cgi.Interpreter(".pl") != "" {
		t.Errorf("unexpected interpreter for .pl")
	}
	old := srv.Locations[4]
	if old.Redirect == nil || old.Redirect.Code != 301 || old.Redirect.Target != "/" {
		t.Errorf("redirect = %+v", old.Redirect)
	}

	// Second server inherits defaults.
	alt := cfg.Servers[1]
	if alt.MaxBodySize != DefaultMaxBodySize {
		t.Errorf("default MaxBodySize = %d", alt.MaxBodySize)
	}
	if !alt.Locations[0].Allows("DELETE") {
		t.Errorf("absent allowed_methods should allow everything")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		frag string // expected substring of the error
	}{
		{"not a server", "upstream { }", "expected 'server'"},
		{"missing brace", "server listen 80;", "'{'"},
		{"missing semicolon", "server { listen 80 }", "';'"},
		{"unknown server directive", "server { flisten 80; }", "unknown server directive"},
		{"unknown location directive", "server { location / { rooot www; } }", "unknown location directive"},
		{"bad autoindex", "server { location / { autoindex maybe; } }", "autoindex"},
		{"bad cgi ext", "server { location / { cgi py /usr/bin/python3; } }", "must start with a dot"},
		{"bad port", "server { listen eighty; }", "listen"},
		{"bad host", "server { host nowhere; }", "IPv4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.text))
			if err == nil {
				t.Fatalf("Parse accepted %q", tt.text)
			}
			if !strings.Contains(err.Error(), tt.frag) {
				t.Errorf("error %q does not mention %q", err, tt.frag)
			}
		})
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		frag string
	}{
		{"no servers", "", "no server block"},
		{"no port", "server { location / { root www; } }", "invalid port"},
		{"duplicate endpoint",
			"server { listen 80; location / { root a; } } server { listen 80; location / { root b; } }",
			"duplicate listening endpoint"},
		{"no locations", "server { listen 80; }", "no location block"},
		{"bad prefix", "server { listen 80; location relative { root a; } }", "must start with /"},
		{"bad method", "server { listen 80; location / { root a; allowed_methods YEET; } }", "unknown method"},
		{"bad redirect code", "server { listen 80; location / { return 307 /x; } }", "301 or 302"},
		{"missing root", "server { listen 80; location / { autoindex on; } }", "missing root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.text))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			err = cfg.Validate()
			if err == nil {
				t.Fatalf("Validate accepted %q", tt.text)
			}
			if !strings.Contains(err.Error(), tt.frag) {
				t.Errorf("error %q does not mention %q", err, tt.frag)
			}
		})
	}
}

func TestLocateLongestPrefix(t *testing.T) {
	cfg, err := Parse([]byte(`
server {
	listen 80;
	location / { root a; }
	location /static { root b; }
	location /static/img { root c; }
	location /api { root d; }
}
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	srv := cfg.Servers[0]

	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/index.html", "/"},
		{"/static", "/static"},
		{"/static/site.css", "/static"},
		{"/static/img/logo.png", "/static/img"},
		{"/api/items", "/api"},
		{"/apiary", "/api"}, // prefix match is byte-wise
	}
	for _, tt := range tests {
		loc := srv.Locate(tt.path)
		if loc == nil {
			t.Fatalf("Locate(%q) = nil", tt.path)
		}
		if loc.Prefix != tt.want {
			t.Errorf("Locate(%q) = %q, want %q", tt.path, loc.Prefix, tt.want)
		}
	}
}

func TestLocateDeclarationOrderTie(t *testing.T) {
	cfg, err := Parse([]byte(`
server {
	listen 80;
	location /a { root first; }
	location /a { root second; }
}
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	loc := cfg.Servers[0].Locate("/a/x")
	if loc.Root != "first" {
		t.Errorf("tie went to %q, want first declared", loc.Root)
	}
}

func TestLocateNoMatch(t *testing.T) {
	cfg, _ := Parse([]byte("server { listen 80; location /only { root a; } }"))
	if loc := cfg.Servers[0].Locate("/other"); loc != nil {
		t.Errorf("Locate matched %q", loc.Prefix)
	}
}

func TestUploadPathDefault(t *testing.T) {
	loc := &Location{}
	if got := loc.UploadPath(); got != DefaultUploadDir {
		t.Errorf("UploadPath = %q, want %q", got, DefaultUploadDir)
	}
	loc.UploadDir = "/srv/files"
	if got := loc.UploadPath(); got != "/srv/files" {
		t.Errorf("UploadPath = %q", got)
	}
}
