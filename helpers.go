// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hrouter

import (
	netcontext "context"
	"net/http"
	"net/url"
)

// MiddlewareFunc is a function type for implementing [Handler] middleware.
type MiddlewareFunc func(next Handler) Handler

// Chain wraps h with every middleware, the first one being the outermost.
func Chain(h Handler, mws ...MiddlewareFunc) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// WrapF is an adapter for turning a [http.HandlerFunc] into a [Handler]. See [WrapH].
func WrapF(f http.HandlerFunc) Handler {
	return WrapH(f)
}

// WrapH is an adapter for turning a [http.Handler] into a [Handler]. The route parameters are available
// with [ParamsFromContext]. When the route matches partially, the request path seen by h is the unmatched
// remainder, as with [http.StripPrefix].
func WrapH(h http.Handler) Handler {
	return HandlerFunc(func(c *Context) error {
		req := c.Request()
		if len(c.params) > 0 {
			req = req.WithContext(netcontext.WithValue(req.Context(), paramsKey, c.params))
		}
		if c.scriptName != "" && c.pathInfo != "" {
			req = stripRequestPrefix(req, c.pathInfo)
		}
		h.ServeHTTP(c.Writer(), req)
		return nil
	})
}

func stripRequestPrefix(req *http.Request, rawPath string) *http.Request {
	p, err := url.PathUnescape(rawPath)
	if err != nil {
		p = rawPath
	}
	r2 := new(http.Request)
	*r2 = *req
	r2.URL = new(url.URL)
	*r2.URL = *req.URL
	r2.URL.Path = p
	r2.URL.RawPath = ""
	if p != rawPath {
		r2.URL.RawPath = rawPath
	}
	return r2
}
