package hrouter

import (
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Router dispatches requests to the first registered route matching the request path, its conditions and
// predicates. Routes are tried in priority order with backtracking: exact segments first, then regular expression
// segments, variables and globs. A destination may decline a request by returning [ErrPass], in which case the
// search continues with the next candidate.
//
// Routes may be added while the router is serving requests. The route trie is lazily recompiled on the
// next request following a change.
type Router struct {
	tree                  atomic.Pointer[tree]
	noRoute               http.Handler
	errHandler            func(c *Context, err error)
	logger                *slog.Logger
	metrics               *metrics
	urlMount              *URLMount
	named                 map[string]*Route
	routes                []*Route
	mu                    sync.Mutex
	ignoreTrailingSlash   bool
	redirectTrailingSlash bool
}

var (
	_ http.Handler = (*Router)(nil)
	_ Handler      = (*Router)(nil)
	_ URLMounter   = (*Router)(nil)
)

// New returns a ready to use instance of Router.
func New(opts ...GlobalOption) (*Router, error) {
	r := &Router{
		noRoute:             http.NotFoundHandler(),
		errHandler:          defaultErrorHandler,
		logger:              slog.New(slog.DiscardHandler),
		named:               make(map[string]*Route),
		ignoreTrailingSlash: true,
	}

	for _, opt := range opts {
		if err := opt.applyGlob(sealedOption{router: r}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustAdd registers a new route for the given pattern. On success, it returns the newly registered [Route].
// This function is a convenience wrapper for the [Router.Add] function and panics on error.
func (r *Router) MustAdd(pattern string, handler Handler, opts ...RouteOption) *Route {
	rte, err := r.Add(pattern, handler, opts...)
	if err != nil {
		panic(err)
	}
	return rte
}

// Add registers a new route for the given pattern. A pattern is made of '/' separated segments where ":name"
// captures one segment, "*name" captures one or more segments, "(...)" delimits an optional part and "\" escapes
// the next character. A pattern ending with '*' matches partially. If an error occurs, it returns one of the
// following:
//   - [ErrInvalidRoute]: If the pattern is malformed, e.g. with an unbalanced group or a duplicate parameter.
//   - [ErrRouteNameExist]: If the route name is already registered.
//   - [ErrInvalidConfig]: If the provided route options are invalid.
//
// If the handler implements [URLMounter], it receives the mount point of the route. It's safe to add a route
// while the router is serving requests.
func (r *Router) Add(pattern string, handler Handler, opts ...RouteOption) (*Route, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: nil handler", ErrInvalidConfig)
	}
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidRoute)
	}

	rte := newRoute(r, pattern, handler)
	for _, opt := range opts {
		if err := opt.applyRoute(sealedOption{router: r, route: rte}); err != nil {
			return nil, err
		}
	}
	if err := rte.compile(); err != nil {
		return nil, err
	}

	if err := r.register(rte); err != nil {
		return nil, err
	}

	if m, ok := handler.(URLMounter); ok {
		m.SetURLMount(&URLMount{route: rte})
	}

	r.logger.Debug("route added", slog.String("pattern", pattern), slog.Int("variants", len(rte.paths)), slog.String("name", rte.name))
	return rte, nil
}

func (r *Router) register(rte *Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rte.name != "" {
		if conflict, ok := r.named[rte.name]; ok {
			return &RouteNameConflictError{New: rte, Conflict: conflict}
		}
		r.named[rte.name] = rte
	}
	r.routes = append(r.routes, rte)
	r.tree.Store(nil)
	return nil
}

// AddHTTP registers an [http.Handler] as the destination of the route. See [Router.Add].
func (r *Router) AddHTTP(pattern string, handler http.Handler, opts ...RouteOption) (*Route, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: nil handler", ErrInvalidConfig)
	}
	return r.Add(pattern, WrapH(handler), opts...)
}

// AddRedirect registers a route redirecting the client to target with the given status code. Every ":name"
// in target is replaced with the escaped value of the matching parameter. If the status code is not between
// 300 and 399, it returns [ErrInvalidRedirectCode].
func (r *Router) AddRedirect(pattern, target string, code int, opts ...RouteOption) (*Route, error) {
	if !validRedirectCode(code) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRedirectCode, code)
	}
	return r.Add(pattern, HandlerFunc(func(c *Context) error {
		return c.Redirect(code, expandTarget(target, c.Params()))
	}), opts...)
}

// AddStatic registers a route serving static files. If root is a directory, the route matches partially and
// the remaining path is served from the directory. Otherwise, root is served for every request matching the
// pattern. AddStatic fails with [ErrInvalidConfig] if root does not exist.
func (r *Router) AddStatic(pattern, root string, opts ...RouteOption) (*Route, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if fi.IsDir() {
		fs := http.FileServer(http.Dir(root))
		opts = append(opts, WithPartial(true))
		return r.Add(pattern, HandlerFunc(func(c *Context) error {
			req := c.Request().Clone(c.Ctx())
			req.URL.Path = c.Path()
			req.URL.RawPath = ""
			if p, err := url.PathUnescape(c.Path()); err == nil {
				req.URL.Path = p
			}
			fs.ServeHTTP(c.Writer(), req)
			return nil
		}), opts...)
	}

	file := filepath.Clean(root)
	return r.Add(pattern, HandlerFunc(func(c *Context) error {
		http.ServeFile(c.Writer(), c.Request(), file)
		return nil
	}), opts...)
}

// Route returns the registered route by name, or nil.
func (r *Router) Route(name string) *Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.named[name]
}

// Routes returns an iterator over the registered routes, in registration order. It iterates over a snapshot
// of the routes and does not observe routes added during the iteration.
func (r *Router) Routes() iter.Seq[*Route] {
	r.mu.Lock()
	routes := r.routes[:len(r.routes):len(r.routes)]
	r.mu.Unlock()
	return func(yield func(*Route) bool) {
		for _, rte := range routes {
			if !yield(rte) {
				return
			}
		}
	}
}

// Len returns the number of registered routes.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.routes)
}

// Compile builds the route trie. Calling Compile is optional, the trie is compiled on demand.
func (r *Router) Compile() {
	r.getTree()
}

// getTree returns the current compiled trie, compiling it if routes were added since the last compilation.
func (r *Router) getTree() *tree {
	if t := r.tree.Load(); t != nil {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.tree.Load(); t != nil {
		return t
	}

	start := time.Now()
	t := buildTree(r.routes)
	elapsed := time.Since(start)
	r.tree.Store(t)

	r.metrics.compiled(t, elapsed)
	r.logger.Info(
		"route trie compiled",
		slog.Int("routes", t.routes),
		slog.Int("variants", t.variants),
		slog.Int("nodes", t.nodes),
		slog.Duration("duration", roundLatency(elapsed)),
	)
	return t
}

// ServeHTTP is the main entry point to serve a request. It dispatches the request to the first matching route,
// and calls the no route handler if none completes the request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c := newContext(w, req, r)
	w2 := r.newWalker(c, dispatchMode)
	if !w2.run(r.getTree()) {
		r.metrics.dispatched(outcomeNotFound)
		r.logger.Debug("no route", slog.String("method", req.Method), slog.String("path", req.URL.Path))
		r.noRoute.ServeHTTP(c.w, req)
		return
	}
	r.metrics.dispatched(w2.result)
}

// Handle dispatches a request already routed by an enclosing router, matching against the remaining path of c.
// It returns [ErrPass] if no route completes the request, so that the enclosing router resumes its search.
// The dispatch outcome is recorded by the router serving the request, not by r.
func (r *Router) Handle(c *Context) error {
	outer := c.router
	c.router = r
	defer func() { c.router = outer }()

	w := r.newWalker(c, dispatchMode)
	if !w.run(r.getTree()) {
		return ErrPass
	}
	return nil
}

// SetURLMount sets the mount point of the router. It is called when the router is used as a destination.
func (r *Router) SetURLMount(m *URLMount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urlMount = m
}

func (r *Router) mount() *URLMount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.urlMount
}

// Recognize returns the first route matching the request, without invoking its destination. Since destinations
// are not invoked, a route whose destination would pass can be returned. Arbitrary predicates are evaluated.
func (r *Router) Recognize(req *http.Request) (*Match, bool) {
	c := newContext(noopWriter{}, req, r)
	w := r.newWalker(c, recognizeMode)
	w.run(r.getTree())
	if len(w.matches) == 0 {
		return nil, false
	}
	return w.matches[0], true
}

// RecognizeAll returns every route matching the request, in priority order, without invoking any destination.
func (r *Router) RecognizeAll(req *http.Request) []*Match {
	c := newContext(noopWriter{}, req, r)
	w := r.newWalker(c, recognizeAllMode)
	w.run(r.getTree())
	return w.matches
}

// URL generates the URL of the named route from a set of parameters. See [Route.URL].
func (r *Router) URL(name string, params map[string]any) (string, error) {
	rte := r.Route(name)
	if rte == nil {
		return "", fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	return rte.URL(params)
}

// URLArgs generates the URL of the named route from positional parameters. See [Route.URLArgs].
func (r *Router) URLArgs(name string, args ...any) (string, error) {
	rte := r.Route(name)
	if rte == nil {
		return "", fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	return rte.URLArgs(args...)
}

func (r *Router) handleError(c *Context, err error) {
	r.errHandler(c, err)
}

// String returns a human-readable representation of the compiled route trie.
func (r *Router) String() string {
	return r.getTree().root.String()
}

// defaultErrorHandler logs the error and sends a 500 Internal Server Error if nothing was written yet.
func defaultErrorHandler(c *Context, err error) {
	if c.router != nil {
		c.router.logger.Error(
			"destination error",
			slog.String("path", c.Request().URL.Path),
			slog.String("error", err.Error()),
		)
	}
	if !c.Writer().Written() {
		http.Error(c.Writer(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// expandTarget replaces every ":name" in target with the escaped value of the parameter name.
func expandTarget(target string, params Params) string {
	if strings.IndexByte(target, paramDelim) < 0 {
		return target
	}
	sb := new(strings.Builder)
	for i := 0; i < len(target); i++ {
		if target[i] != paramDelim {
			sb.WriteByte(target[i])
			continue
		}
		end := i + 1
		for end < len(target) && isNameChar(target[end]) {
			end++
		}
		name := target[i+1 : end]
		if name == "" || !params.Has(name) {
			sb.WriteString(target[i:end])
		} else {
			sb.WriteString(escapeValue(params.Segments(name)))
		}
		i = end - 1
	}
	return sb.String()
}
