package hrouter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_Partial(t *testing.T) {
	cases := []struct {
		name        string
		pattern     string
		opts        []RouteOption
		wantPartial bool
		wantPath    string
	}{
		{
			name:     "full match",
			pattern:  "/foo/bar",
			wantPath: "/foo/bar",
		},
		{
			name:        "trailing star",
			pattern:     "/foo*",
			wantPartial: true,
			wantPath:    "/foo",
		},
		{
			name:     "escaped star",
			pattern:  `/foo\*`,
			wantPath: `/foo\*`,
		},
		{
			name:        "partial option",
			pattern:     "/foo/:id",
			opts:        []RouteOption{WithPartial(true)},
			wantPartial: true,
			wantPath:    "/foo/:id",
		},
		{
			name:        "trailing star wins over option",
			pattern:     "/foo*",
			opts:        []RouteOption{WithPartial(false)},
			wantPartial: true,
			wantPath:    "/foo",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t)
			rte, err := r.Add(tc.pattern, emptyHandler, tc.opts...)
			require.NoError(t, err)
			assert.Equal(t, tc.pattern, rte.Pattern())
			assert.Equal(t, tc.wantPartial, rte.Partial())
			assert.Equal(t, tc.wantPath, rte.path)
		})
	}
}

func TestRoute_EscapedStar(t *testing.T) {
	r := newTestRouter(t)
	r.MustAdd(`/foo\*`, named("star"))

	assert.Equal(t, "star", serve(r, http.MethodGet, "/foo*").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/foo/bar").Code)
}

func TestRoute_Accessors(t *testing.T) {
	r := newTestRouter(t)
	rte := r.MustAdd("/users/:id(.:format)", emptyHandler,
		WithName("user"),
		WithMethods(http.MethodGet),
		WithMatching("id", `\d+`),
		WithDefault("format", "json"),
		WithArbitrary(func(c *Context, params Params) bool { return true }),
	)

	assert.Equal(t, "user", rte.Name())
	assert.Equal(t, 2, rte.PathsLen())
	assert.NotNil(t, rte.Handler())

	expr, ok := rte.Matching("id")
	assert.True(t, ok)
	assert.Equal(t, `\d+`, expr)
	_, ok = rte.Matching("format")
	assert.False(t, ok)

	defaults := rte.Defaults()
	assert.Equal(t, map[string]any{"format": "json"}, defaults)
	defaults["format"] = "xml"
	assert.Equal(t, "json", rte.Defaults()["format"])

	conds := rte.Conditions()
	assert.Equal(t, []string{http.MethodGet}, conds.Values(AttrMethod))
	conds.Allow(AttrMethod, http.MethodPost)
	fresh := rte.Conditions()
	assert.Equal(t, []string{http.MethodGet}, fresh.Values(AttrMethod))

	assert.Equal(t, "pattern:/users/:id(.:format) name:user conditions:{request_method:[GET]} arbitrary", rte.String())
}

func TestRoute_Handle(t *testing.T) {
	var called bool
	r := newTestRouter(t)
	rte := r.MustAdd("/foo", HandlerFunc(func(c *Context) error {
		called = true
		return ErrPass
	}))

	c := NewTestContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/foo", nil))
	assert.ErrorIs(t, rte.Handle(c), ErrPass)
	assert.True(t, called)
}

func TestRoute_Weave(t *testing.T) {
	rte := newRoute(nil, "/a(/:b)", emptyHandler)
	rte.conds.Allow(AttrMethod, http.MethodGet)
	require.NoError(t, rte.compile())

	root := newRoot()
	rte.weave(root)

	want := "root\n" +
		"  lookup: \"a\"\n" +
		"    variable\n" +
		"      request: {request_method:[GET]}\n" +
		"        destination: \"/a/:b\"\n" +
		"    request: {request_method:[GET]}\n" +
		"      destination: \"/a\"\n"
	assert.Equal(t, want, root.String())
	assert.Equal(t, 7, root.size())
}
