// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hrouter

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// tree is an immutable snapshot of the compiled routes.
type tree struct {
	root     *node
	routes   int
	variants int
	nodes    int
}

func buildTree(routes []*Route) *tree {
	t := &tree{root: newRoot(), routes: len(routes)}
	for _, rte := range routes {
		rte.weave(t.root)
		t.variants += len(rte.paths)
	}
	t.nodes = t.root.size()
	return t
}

type walkMode uint8

const (
	// dispatchMode invokes destinations and honors ErrPass.
	dispatchMode walkMode = iota
	// recognizeMode reports the first match without invoking anything.
	recognizeMode
	// recognizeAllMode reports every match without invoking anything.
	recognizeAllMode
)

type outcome uint8

const (
	outcomeNotFound outcome = iota
	outcomeMatched
	outcomeRedirect
	outcomeError
)

// Match is a route recognized for a request, without its destination being invoked.
type Match struct {
	// Path is the matched variant.
	Path *Path
	// Params holds the parameters bound by the variant.
	Params Params
	// Remaining is the escaped unmatched path left by a partial route, empty otherwise.
	Remaining string
}

// Route returns the matched route.
func (m *Match) Route() *Route {
	return m.Path.route
}

// walker carries the state of a single trie walk. A new walker is used per lookup.
type walker struct {
	router  *Router
	c       *Context
	raw     []string
	passed  map[*node]struct{}
	matches []*Match
	result  outcome
	mode    walkMode
}

func (r *Router) newWalker(c *Context, mode walkMode) *walker {
	return &walker{
		router: r,
		c:      c,
		mode:   mode,
		raw:    splitPath(c.pathInfo),
	}
}

// run walks the trie against the context remaining path. It reports whether the walk stopped on a completed
// destination, a redirect or a destination error.
func (w *walker) run(t *tree) bool {
	return w.walk(t.root, unescapeSegments(w.raw), nil)
}

// walk tries every child of n in priority order. It returns true as soon as the search must stop, and false
// when no alternative below n completed.
func (w *walker) walk(n *node, segs []string, caps []capture) bool {
	if len(segs) > 0 {
		seg := segs[0]

		if child, ok := n.lookup[seg]; ok {
			if w.walk(child, segs[1:], caps) {
				return true
			}
		}

		for _, child := range n.matches {
			values := child.re.FindStringSubmatch(seg)
			if values == nil {
				continue
			}
			if w.walk(child, segs[1:], appendSubmatches(caps, child, values)) {
				return true
			}
		}

		if seg != "" {
			for _, child := range n.variables {
				if child.re != nil && !child.re.MatchString(seg) {
					continue
				}
				if w.walk(child, segs[1:], appendCapture(caps, capture{value: seg})) {
					return true
				}
			}
		}

		for _, child := range n.globs {
			var stop bool
			if child.kind == spanningNode {
				stop = w.walkSpanning(child, segs, caps)
			} else {
				stop = w.walkGlob(child, segs, caps)
			}
			if stop {
				return true
			}
		}
	}

	for _, child := range n.guards {
		switch child.kind {
		case requestNode:
			if child.cond.Match(w.c.req) && w.walk(child, segs, caps) {
				return true
			}
		case arbitraryNode:
			if w.walkArbitrary(child, segs, caps) {
				return true
			}
		case destinationNode:
			if w.arrive(child, segs, caps) {
				return true
			}
		}
	}

	return false
}

// walkGlob consumes the longest run of acceptable segments first, then backs off one segment at a time.
func (w *walker) walkGlob(n *node, segs []string, caps []capture) bool {
	max := 0
	for max < len(segs) && segs[max] != "" && (n.re == nil || n.re.MatchString(segs[max])) {
		max++
	}

	for end := max; end > 0; end-- {
		parts := segs[:end:end]
		c := capture{value: strings.Join(parts, "/"), segments: parts}
		if w.walk(n, segs[end:], appendCapture(caps, c)) {
			return true
		}
	}
	return false
}

// walkSpanning matches the segment expression against the joined remaining segments, longest span first.
func (w *walker) walkSpanning(n *node, segs []string, caps []capture) bool {
	for end := len(segs); end > 0; end-- {
		values := n.re.FindStringSubmatch(strings.Join(segs[:end], "/"))
		if values == nil {
			continue
		}
		if w.walk(n, segs[end:], appendSubmatches(caps, n, values)) {
			return true
		}
	}
	return false
}

func (w *walker) walkArbitrary(n *node, segs []string, caps []capture) bool {
	var (
		called bool
		stop   bool
	)
	n.arbitrary(w.c, n.path.bind(caps), func() bool {
		if !called {
			called = true
			stop = w.walk(n, segs, caps)
		}
		return stop && w.result == outcomeMatched
	})
	return stop
}

// arrive completes the walk on a destination node, if the remaining segments allow it.
func (w *walker) arrive(n *node, segs []string, caps []capture) bool {
	r := w.router
	if !n.partial {
		if w.mode == dispatchMode && r.redirectTrailingSlash && isTrailingSlash(segs) && w.c.redirectable() {
			w.redirect()
			return true
		}
		if !(len(segs) == 0 || (r.ignoreTrailingSlash && isTrailingSlash(segs))) {
			return false
		}
	}

	params := n.path.bind(caps)
	consumed := len(w.raw) - len(segs)

	if w.mode != dispatchMode {
		m := &Match{Path: n.path, Params: params}
		if n.partial {
			m.Remaining = "/" + strings.Join(w.raw[consumed:], "/")
		}
		w.matches = append(w.matches, m)
		w.result = outcomeMatched
		return w.mode == recognizeMode
	}

	if _, ok := w.passed[n]; ok {
		return false
	}

	c := w.c
	state := c.save()
	c.params = c.params.Clone().merge(params)
	if n.partial {
		c.scriptName += joinSegments(w.raw[:consumed])
		c.pathInfo = "/" + strings.Join(w.raw[consumed:], "/")
	} else {
		c.scriptName += c.pathInfo
		c.pathInfo = ""
	}

	err := n.path.route.handler.Handle(c)
	if errors.Is(err, ErrPass) {
		c.restore(state)
		if w.passed == nil {
			w.passed = make(map[*node]struct{})
		}
		w.passed[n] = struct{}{}
		r.metrics.pass()
		return false
	}

	w.result = outcomeMatched
	if err != nil {
		w.result = outcomeError
		r.handleError(c, err)
	}
	return true
}

func (w *walker) redirect() {
	req := w.c.req
	target := strings.TrimSuffix(req.URL.EscapedPath(), "/")
	if target == "" {
		target = "/"
	}
	target = escapeLeadingSlashes(target)
	if q := req.URL.RawQuery; q != "" {
		target += "?" + q
	}
	w.router.logger.Debug("redirect trailing slash", slog.String("path", req.URL.Path), slog.String("location", target))
	http.Redirect(w.c.w, req, target, http.StatusFound)
	w.result = outcomeRedirect
}

func (c *Context) redirectable() bool {
	return (c.req.Method == http.MethodGet || c.req.Method == http.MethodHead) && strings.HasSuffix(c.req.URL.Path, "/")
}

func isTrailingSlash(segs []string) bool {
	return len(segs) == 1 && segs[0] == ""
}

func joinSegments(raw []string) string {
	if len(raw) == 0 {
		return ""
	}
	return "/" + strings.Join(raw, "/")
}

// appendCapture returns caps with c appended, never sharing the backing array of caps with sibling branches.
func appendCapture(caps []capture, c capture) []capture {
	return append(caps[:len(caps):len(caps)], c)
}

func appendSubmatches(caps []capture, n *node, values []string) []capture {
	out := caps[:len(caps):len(caps)]
	for _, idx := range n.captures {
		value := values[idx]
		c := capture{value: value}
		if isSplitting(n, idx) {
			c.segments = splitGlob(value)
			c.value = strings.Join(c.segments, "/")
		}
		out = append(out, c)
	}
	return out
}

func isSplitting(n *node, idx int) bool {
	for _, s := range n.splits {
		if s == idx {
			return true
		}
	}
	return false
}

func splitGlob(value string) []string {
	parts := strings.Split(value, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// escapeLeadingSlashes prevents a redirect target starting with "//" from being interpreted as a
// protocol-relative URL.
func escapeLeadingSlashes(path string) string {
	if len(path) > 1 && path[0] == '/' && path[1] == '/' {
		return "/%2F" + strings.TrimLeft(path, "/")
	}
	return path
}
