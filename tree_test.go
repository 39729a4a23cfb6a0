package hrouter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	r := newTestRouter(t)
	r.MustAdd("/users/:id(.:format)", emptyHandler)
	r.MustAdd("/users/new", emptyHandler)
	r.MustAdd("/files/*path", emptyHandler)

	tree := buildTree(slicesOf(r))
	assert.Equal(t, 3, tree.routes)
	assert.Equal(t, 4, tree.variants)
	assert.Equal(t, tree.root.size(), tree.nodes)

	// root, users, match, destination, variable, destination, new, destination, files, glob, destination
	assert.Equal(t, 11, tree.nodes)
}

func TestGetTreeCache(t *testing.T) {
	r := newTestRouter(t)
	r.MustAdd("/a", emptyHandler)

	first := r.getTree()
	assert.Same(t, first, r.getTree())

	r.MustAdd("/b", emptyHandler)
	second := r.getTree()
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, second.routes)
}

func TestWalkerMatches(t *testing.T) {
	r := newTestRouter(t)
	r.MustAdd("/a/*x/b/*y", emptyHandler)

	cases := []struct {
		path  string
		match bool
		x     []string
		y     []string
	}{
		{path: "/a/1/b/2", match: true, x: []string{"1"}, y: []string{"2"}},
		{path: "/a/1/2/b/3/4", match: true, x: []string{"1", "2"}, y: []string{"3", "4"}},
		{path: "/a/1/b/2/b/3", match: true, x: []string{"1", "b", "2"}, y: []string{"3"}},
		{path: "/a/b/2", match: false},
		{path: "/a/1/b", match: false},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			m, ok := r.Recognize(httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.Equal(t, tc.match, ok)
			if !tc.match {
				return
			}
			assert.Equal(t, tc.x, m.Params.Segments("x"))
			assert.Equal(t, tc.y, m.Params.Segments("y"))
		})
	}
}

func TestWalkerNestedPathInfo(t *testing.T) {
	r := newTestRouter(t)
	r.MustAdd("/users/:id", emptyHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/users/42", nil)
	c := newContext(httptest.NewRecorder(), req, r)
	c.scriptName = "/api"
	c.pathInfo = "/users/42"

	w := r.newWalker(c, recognizeMode)
	require.True(t, w.run(r.getTree()))
	require.Len(t, w.matches, 1)
	assert.Equal(t, "42", w.matches[0].Params.Get("id"))
}

func TestAppendCaptureIsolation(t *testing.T) {
	base := make([]capture, 1, 4)
	base[0] = capture{value: "a"}

	left := appendCapture(base, capture{value: "b"})
	right := appendCapture(base, capture{value: "c"})
	assert.Equal(t, "b", left[1].value)
	assert.Equal(t, "c", right[1].value)
}

func TestSplitGlob(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitGlob("a//b/"))
	assert.Equal(t, []string{"a"}, splitGlob("a"))
	assert.Empty(t, splitGlob(""))
}

func TestJoinSegments(t *testing.T) {
	assert.Equal(t, "", joinSegments(nil))
	assert.Equal(t, "/a/b", joinSegments([]string{"a", "b"}))
	assert.Equal(t, "/a/", joinSegments([]string{"a", ""}))
}

func TestEscapeLeadingSlashes(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{path: "/", want: "/"},
		{path: "/foo", want: "/foo"},
		{path: "//foo", want: "/%2Ffoo"},
		{path: "///foo/bar", want: "/%2Ffoo/bar"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, escapeLeadingSlashes(tc.path), tc.path)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "matched", outcomeMatched.String())
	assert.Equal(t, "redirect", outcomeRedirect.String())
	assert.Equal(t, "error", outcomeError.String())
	assert.Equal(t, "not_found", outcomeNotFound.String())
}

func slicesOf(r *Router) []*Route {
	var routes []*Route
	for rte := range r.Routes() {
		routes = append(routes, rte)
	}
	return routes
}
