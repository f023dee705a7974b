// Package router maps a completed request to the handler that produces
// its response: location matching by longest prefix, allowed-method
// enforcement, redirects, CGI dispatch by extension, and method dispatch
// to the static and upload handlers.
package router

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/webserv/pkg/webserv/config"
	"github.com/yourusername/webserv/pkg/webserv/handler"
	"github.com/yourusername/webserv/pkg/webserv/http11"
)

// Router dispatches completed requests for one process.
type Router struct {
	log    *zap.Logger
	static *handler.Static
	upload *handler.Upload
	cgi    *handler.CGI
}

// New builds a router and its handlers around one logger.
func New(log *zap.Logger) *Router {
	return &Router{
		log:    log,
		static: &handler.Static{Log: log},
		upload: &handler.Upload{Log: log},
		cgi:    &handler.CGI{Log: log},
	}
}

// Route produces the response for a completed request against the
// server block of the endpoint it arrived on. It never returns nil.
func (rt *Router) Route(req *http11.Request, srv *config.Server) *http11.Response {
	resp := rt.dispatch(req, srv)
	handler.NegotiateEncoding(req, resp)
	return resp
}

func (rt *Router) dispatch(req *http11.Request, srv *config.Server) *http11.Response {
	loc := srv.Locate(req.Path)
	if loc == nil {
		rt.log.Debug("no location for path", zap.String("path", req.Path))
		return handler.ErrorResponse(http11.StatusNotFound, srv)
	}

	if !loc.Allows(req.Method.String()) {
		resp := handler.ErrorResponse(http11.StatusMethodNotAllowed, srv)
		resp.SetHeader("Allow", loc.AllowHeader())
		return resp
	}

	if loc.Redirect != nil {
		return redirectResponse(loc.Redirect)
	}

	if !handler.SafeURI(req.Path) {
		return handler.ErrorResponse(http11.StatusBadRequest, srv)
	}
	fsPath, ok := handler.Resolve(loc, req.Path)
	if !ok {
		return handler.ErrorResponse(http11.StatusBadRequest, srv)
	}

	if interp := loc.Interpreter(http11.Ext(req.Path)); interp != "" {
		return rt.cgi.Execute(req, srv, fsPath, interp)
	}

	switch req.Method {
	case http11.MethodGET, http11.MethodHEAD, http11.MethodDELETE:
		return rt.static.Serve(req, loc, srv, fsPath)
	case http11.MethodPOST:
		return rt.upload.Serve(req, loc, srv)
	case http11.MethodPUT:
		resp := http11.NewResponse(http11.StatusOK)
		resp.SetBody([]byte("<html><body><h1>PUT acknowledged</h1></body></html>\n"),
			http11.ContentTypeHTML)
		return resp
	default:
		return handler.ErrorResponse(http11.StatusBadRequest, srv)
	}
}

// redirectResponse builds the 301/302 answer for a `return` directive.
func redirectResponse(r *config.Redirect) *http11.Response {
	resp := http11.NewResponse(r.Code)
	resp.SetHeader("Location", r.Target)
	body := fmt.Sprintf(
		"<html><body><h1>%d %s</h1><p><a href=%q>%s</a></p></body></html>\n",
		r.Code, http11.StatusText(r.Code), r.Target, r.Target)
	resp.SetBody([]byte(body), http11.ContentTypeHTML)
	return resp
}
