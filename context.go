// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hrouter

import (
	netcontext "context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Context holds the state of a request being dispatched. It gives access to the request, the response writer, the
// accumulated parameters and the part of the path already consumed by enclosing routers. The Context is not
// thread-safe and must not be retained after the [Handler] returns.
type Context struct {
	w          *recorder
	req        *http.Request
	router     *Router
	params     Params
	scriptName string
	pathInfo   string
}

func newContext(w http.ResponseWriter, r *http.Request, router *Router) *Context {
	return &Context{
		w:        newRecorder(w),
		req:      r,
		router:   router,
		pathInfo: r.URL.EscapedPath(),
	}
}

// NewTestContext returns a new Context for the given request, designed only for testing purpose.
func NewTestContext(w http.ResponseWriter, r *http.Request) *Context {
	return newContext(w, r, nil)
}

// Ctx returns the context associated with the current request.
func (c *Context) Ctx() netcontext.Context {
	return c.req.Context()
}

// Request returns the current *http.Request.
func (c *Context) Request() *http.Request {
	return c.req
}

// Writer returns the ResponseWriter.
func (c *Context) Writer() ResponseWriter {
	return c.w
}

// Params returns the parameters bound by every route matched so far, enclosing mounts included.
func (c *Context) Params() Params {
	return c.params
}

// Param retrieve a matching parameter by name.
func (c *Context) Param(name string) string {
	return c.params.Get(name)
}

// Path returns the part of the escaped request path left to the current destination. For a partial
// route, it is the unmatched remainder, always starting with a slash.
func (c *Context) Path() string {
	return c.pathInfo
}

// ScriptName returns the escaped request path prefix consumed by enclosing routes.
func (c *Context) ScriptName() string {
	return c.scriptName
}

// Router returns the Router dispatching the request. It's nil for a Context created with [NewTestContext].
func (c *Context) Router() *Router {
	return c.router
}

// Redirect sends an HTTP redirect response with the given status code and URL.
func (c *Context) Redirect(code int, url string) error {
	if !validRedirectCode(code) {
		return fmt.Errorf("%w: %d", ErrInvalidRedirectCode, code)
	}
	http.Redirect(c.w, c.req, url, code)
	return nil
}

// String sends a formatted string with the specified status code.
func (c *Context) String(code int, format string, values ...any) error {
	c.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.w.WriteHeader(code)
	_, err := fmt.Fprintf(c.w, format, values...)
	return err
}

func validRedirectCode(code int) bool {
	return code >= http.StatusMultipleChoices && code < http.StatusBadRequest
}

type contextState struct {
	params     Params
	scriptName string
	pathInfo   string
}

func (c *Context) save() contextState {
	return contextState{params: c.params, scriptName: c.scriptName, pathInfo: c.pathInfo}
}

func (c *Context) restore(s contextState) {
	c.params = s.params
	c.scriptName = s.scriptName
	c.pathInfo = s.pathInfo
}

// splitPath splits an escaped path into its raw segments. The root path has no segment, and a trailing slash
// yields a trailing empty segment.
func splitPath(escaped string) []string {
	escaped = strings.TrimPrefix(escaped, "/")
	if escaped == "" {
		return nil
	}
	return strings.Split(escaped, "/")
}

// unescapeSegments decodes every raw segment. Encoded slashes stay inside their segment.
func unescapeSegments(raw []string) []string {
	segs := make([]string, len(raw))
	for i, s := range raw {
		if strings.IndexByte(s, '%') < 0 {
			segs[i] = s
			continue
		}
		decoded, err := url.PathUnescape(s)
		if err != nil {
			decoded = s
		}
		segs[i] = decoded
	}
	return segs
}
