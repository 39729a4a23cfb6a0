package hrouter

import (
	"iter"
	"maps"
	"strings"
)

// Handler responds to a routed request. Returning [ErrPass] declines the request and resumes the route search.
// Any other non-nil error is handed to the router's error handler.
type Handler interface {
	Handle(c *Context) error
}

// HandlerFunc is an adapter to allow the use of ordinary functions as [Handler]. If f is a function with the
// appropriate signature, HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(c *Context) error

// Handle calls f(c).
func (f HandlerFunc) Handle(c *Context) error {
	return f(c)
}

// ArbitraryFunc is a route predicate evaluated with the parameters captured so far. Returning false
// rejects the route for this request.
type ArbitraryFunc func(c *Context, params Params) bool

// ContinueFunc is a route predicate in continuation passing style. Calling next resumes the route search
// below the predicate and reports whether a destination completed the request. Not calling next rejects
// the route for this request.
type ContinueFunc func(c *Context, params Params, next func() bool)

// URLMounter is implemented by handlers that generate URLs relative to where they are mounted.
// The router calls SetURLMount when the route is registered.
type URLMounter interface {
	SetURLMount(m *URLMount)
}

// Route represents an immutable route with its compiled variants.
type Route struct {
	router      *Router
	handler     Handler
	defaults    map[string]any
	matching    map[string]string
	arbitrary   []ContinueFunc
	paths       []*Path
	significant []string
	pattern     string
	path        string
	name        string
	conds       Conditions
	partial     bool
	partialSet  bool
}

func newRoute(router *Router, pattern string, handler Handler) *Route {
	rte := &Route{
		router:  router,
		handler: handler,
		pattern: pattern,
		path:    pattern,
	}
	if strings.HasSuffix(pattern, "*") && !strings.HasSuffix(pattern, `\*`) {
		rte.partial = true
		rte.partialSet = true
		rte.path = pattern[:len(pattern)-1]
	}
	return rte
}

// compile parses the route pattern into its variants. It must be called once all options are applied.
func (r *Route) compile() error {
	specs, err := parsePattern(r.path, r.matching)
	if err != nil {
		return err
	}
	r.paths = make([]*Path, 0, len(specs))
	for _, spec := range specs {
		r.paths = append(r.paths, newPath(r, spec))
	}
	r.significant = significantNames(r.path)
	return nil
}

// weave inserts every variant of the route under root.
func (r *Route) weave(root *node) {
	for _, path := range r.paths {
		n := root
		for _, seg := range path.segments {
			n = n.add(seg)
		}
		if !r.conds.Empty() {
			n = n.addRequest(&r.conds)
		}
		for _, fn := range r.arbitrary {
			n = n.addArbitrary(fn, path)
		}
		n.addDestination(path, r.partial)
	}
}

// Handle calls the route handler with the provided [Context].
func (r *Route) Handle(c *Context) error {
	return r.handler.Handle(c)
}

// Handler returns the route destination.
func (r *Route) Handler() Handler {
	return r.handler
}

// Pattern returns the registered route pattern.
func (r *Route) Pattern() string {
	return r.pattern
}

// Name returns the name of this [Route].
func (r *Route) Name() string {
	return r.name
}

// Partial reports whether the route only matches a prefix of the request path.
func (r *Route) Partial() bool {
	return r.partial
}

// Conditions returns the request conditions of the route.
func (r *Route) Conditions() Conditions {
	return r.conds.clone()
}

// Defaults returns a copy of the route default parameter values.
func (r *Route) Defaults() map[string]any {
	return maps.Clone(r.defaults)
}

// Matching returns the regular expression constraining the parameter name, if any.
func (r *Route) Matching(name string) (string, bool) {
	expr, ok := r.matching[name]
	return expr, ok
}

// Paths returns an iterator over the compiled variants of the route, the variant with the most optional
// groups first.
func (r *Route) Paths() iter.Seq[*Path] {
	return func(yield func(*Path) bool) {
		for _, p := range r.paths {
			if !yield(p) {
				return
			}
		}
	}
}

// PathsLen returns the number of compiled variants of the route.
func (r *Route) PathsLen() int {
	return len(r.paths)
}

func (r *Route) String() string {
	sb := new(strings.Builder)
	sb.WriteString("pattern:")
	sb.WriteString(r.pattern)
	if r.name != "" {
		sb.WriteString(" name:")
		sb.WriteString(r.name)
	}
	if r.partial {
		sb.WriteString(" partial")
	}
	if !r.conds.Empty() {
		sb.WriteString(" conditions:")
		sb.WriteString(r.conds.String())
	}
	if len(r.arbitrary) > 0 {
		sb.WriteString(" arbitrary")
	}
	return sb.String()
}
