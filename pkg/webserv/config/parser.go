package config

import (
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Load reads, tokenizes, parses and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse parses configuration text into the model without validation.
func Parse(data []byte) (*Config, error) {
	p := &parser{lex: newLexer(data)}
	p.next()

	cfg := &Config{}
	for p.tok.Type != tokenEOF {
		if p.tok.Type != tokenWord || p.tok.Literal != "server" {
			return nil, p.errorf("expected 'server' block, got %q", p.tok.Literal)
		}
		srv, err := p.parseServer()
		if err != nil {
			return nil, err
		}
		cfg.Servers = append(cfg.Servers, srv)
	}
	return cfg, nil
}

type parser struct {
	lex *lexer
	tok Token
}

func (p *parser) next() {
	p.tok = p.lex.NextToken()
}

func (p *parser) errorf(format string, args ...interface{}) error {
	pos := errors.Errorf(format, args...)
	return errors.Wrapf(pos, "line %d:%d", p.tok.Line, p.tok.Column)
}

// expect consumes the current token if it has the wanted type.
func (p *parser) expect(t TokenType, what string) error {
	if p.tok.Type != t {
		return p.errorf("expected %s, got %q", what, p.tok.Literal)
	}
	p.next()
	return nil
}

// args consumes word tokens up to the terminating semicolon.
func (p *parser) args() ([]string, error) {
	var out []string
	for p.tok.Type == tokenWord {
		out = append(out, p.tok.Literal)
		p.next()
	}
	if err := p.expect(tokenSemicolon, "';'"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseServer() (*Server, error) {
	p.next() // consume "server"
	if err := p.expect(tokenLBrace, "'{'"); err != nil {
		return nil, err
	}

	srv := &Server{
		Host:        "0.0.0.0",
		MaxBodySize: DefaultMaxBodySize,
		ErrorPages:  make(map[int]string),
	}

	for p.tok.Type != tokenRBrace {
		if p.tok.Type != tokenWord {
			return nil, p.errorf("expected directive, got %q", p.tok.Literal)
		}
		name := p.tok.Literal
		if name == "location" {
			loc, err := p.parseLocation()
			if err != nil {
				return nil, err
			}
			srv.Locations = append(srv.Locations, loc)
			continue
		}

		p.next()
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		if err := applyServerDirective(srv, name, args); err != nil {
			return nil, errors.Wrapf(err, "line %d", p.tok.Line)
		}
	}
	p.next() // consume '}'
	return srv, nil
}

func (p *parser) parseLocation() (*Location, error) {
	p.next() // consume "location"
	if p.tok.Type != tokenWord {
		return nil, p.errorf("location needs a path prefix")
	}
	loc := &Location{Prefix: p.tok.Literal}
	p.next()
	if err := p.expect(tokenLBrace, "'{'"); err != nil {
		return nil, err
	}

	for p.tok.Type != tokenRBrace {
		if p.tok.Type != tokenWord {
			return nil, p.errorf("expected directive, got %q", p.tok.Literal)
		}
		name := p.tok.Literal
		p.next()
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		if err := applyLocationDirective(loc, name, args); err != nil {
			return nil, errors.Wrapf(err, "line %d", p.tok.Line)
		}
	}
	p.next() // consume '}'
	return loc, nil
}

func applyServerDirective(srv *Server, name string, args []string) error {
	switch name {
	case "listen":
		if len(args) != 1 {
			return errors.New("listen takes one port")
		}
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Wrapf(err, "listen %q", args[0])
		}
		srv.Port = port
	case "host":
		if len(args) != 1 {
			return errors.New("host takes one address")
		}
		if ip := net.ParseIP(args[0]); ip == nil || ip.To4() == nil {
			return errors.Errorf("host %q is not an IPv4 address", args[0])
		}
		srv.Host = args[0]
	case "server_name":
		if len(args) != 1 {
			return errors.New("server_name takes one name")
		}
		srv.Name = args[0]
	case "client_max_body_size":
		if len(args) != 1 {
			return errors.New("client_max_body_size takes one byte count")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return errors.Errorf("client_max_body_size %q", args[0])
		}
		srv.MaxBodySize = n
	case "error_page":
		if len(args) != 2 {
			return errors.New("error_page takes a code and a path")
		}
		code, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Wrapf(err, "error_page %q", args[0])
		}
		srv.ErrorPages[code] = args[1]
	default:
		return errors.Errorf("unknown server directive %q", name)
	}
	return nil
}

func applyLocationDirective(loc *Location, name string, args []string) error {
	switch name {
	case "root":
		if len(args) != 1 {
			return errors.New("root takes one directory")
		}
		loc.Root = args[0]
	case "index":
		if len(args) != 1 {
			return errors.New("index takes one file name")
		}
		loc.Index = args[0]
	case "autoindex":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return errors.New("autoindex takes on|off")
		}
		loc.Autoindex = args[0] == "on"
	case "allowed_methods":
		if len(args) == 0 {
			return errors.New("allowed_methods takes at least one method")
		}
		for _, m := range args {
			loc.Methods = append(loc.Methods, strings.ToUpper(m))
		}
	case "upload_path":
		if len(args) != 1 {
			return errors.New("upload_path takes one directory")
		}
		loc.UploadDir = args[0]
	case "cgi":
		if len(args) != 2 {
			return errors.New("cgi takes an extension and an interpreter")
		}
		ext := strings.ToLower(args[0])
		if !strings.HasPrefix(ext, ".") {
			return errors.Errorf("cgi extension %q must start with a dot", args[0])
		}
		if loc.CGI == nil {
			loc.CGI = make(map[string]string)
		}
		loc.CGI[ext] = args[1]
	case "return":
		if len(args) != 2 {
			return errors.New("return takes a code and a target")
		}
		code, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Wrapf(err, "return %q", args[0])
		}
		loc.Redirect = &Redirect{Code: code, Target: args[1]}
	default:
		return errors.Errorf("unknown location directive %q", name)
	}
	return nil
}
