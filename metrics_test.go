package hrouter

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newTestRouter(t, WithMetrics(reg), WithRedirectTrailingSlash(true))
	r.MustAdd("/ok", passHandler)
	r.MustAdd("/ok", emptyHandler)
	r.MustAdd("/fail", HandlerFunc(func(c *Context) error { return errors.New("boom") }))

	serve(r, http.MethodGet, "/ok")
	serve(r, http.MethodGet, "/ok")
	serve(r, http.MethodGet, "/ok/")
	serve(r, http.MethodGet, "/fail")
	serve(r, http.MethodGet, "/missing")

	m := r.metrics
	require.NotNil(t, m)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.dispatch.WithLabelValues("matched")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dispatch.WithLabelValues("redirect")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dispatch.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dispatch.WithLabelValues("not_found")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.passes))

	// root, ok, request less destinations and fail
	assert.Equal(t, float64(6), testutil.ToFloat64(m.nodes))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.variants))
	assert.Equal(t, 1, testutil.CollectAndCount(m.compile))

	count, err := testutil.GatherAndCount(reg, "hrouter_dispatch_total", "hrouter_pass_total")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestMetricsRecompile(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newTestRouter(t, WithMetrics(reg))
	r.MustAdd("/a", emptyHandler)
	r.Compile()
	assert.Equal(t, float64(1), testutil.ToFloat64(r.metrics.variants))

	r.MustAdd("/b(/c)", emptyHandler)
	r.Compile()
	assert.Equal(t, float64(3), testutil.ToFloat64(r.metrics.variants))
}

func TestMetricsNestedRouterPass(t *testing.T) {
	reg := prometheus.NewRegistry()
	api := newTestRouter(t, WithMetrics(reg))
	api.MustAdd("/users", emptyHandler)

	r := newTestRouter(t, WithMetrics(reg))
	r.MustAdd("/api*", api)

	serve(r, http.MethodGet, "/api/users")
	serve(r, http.MethodGet, "/api/unknown")

	require.Same(t, r.metrics.dispatch, api.metrics.dispatch)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.metrics.dispatch.WithLabelValues("matched")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.metrics.dispatch.WithLabelValues("not_found")))
	// the nested router declining /api/unknown
	assert.Equal(t, float64(1), testutil.ToFloat64(r.metrics.passes))

	count, err := testutil.GatherAndCount(reg, "hrouter_dispatch_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetricsNestedRouterNotRecorded(t *testing.T) {
	api := newTestRouter(t, WithMetrics(prometheus.NewRegistry()))
	api.MustAdd("/users", emptyHandler)

	r := newTestRouter(t)
	r.MustAdd("/api*", api)

	serve(r, http.MethodGet, "/api/users")
	serve(r, http.MethodGet, "/api/unknown")

	assert.Equal(t, float64(0), testutil.ToFloat64(api.metrics.dispatch.WithLabelValues("matched")))
	assert.Equal(t, float64(0), testutil.ToFloat64(api.metrics.dispatch.WithLabelValues("not_found")))
}

func TestNilMetrics(t *testing.T) {
	var m *metrics
	assert.NotPanics(t, func() {
		m.dispatched(outcomeMatched)
		m.pass()
		m.compiled(buildTree(nil), time.Millisecond)
	})
}

func TestMetricsAlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newMetrics(reg)
	require.NoError(t, err)
	second, err := newMetrics(reg)
	require.NoError(t, err)

	first.pass()
	assert.Equal(t, float64(1), testutil.ToFloat64(second.passes))
}
