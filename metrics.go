package hrouter

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hrouter"

// metrics holds the router collectors. A nil *metrics is valid and records nothing.
type metrics struct {
	dispatch *prometheus.CounterVec
	passes   prometheus.Counter
	compile  prometheus.Histogram
	nodes    prometheus.Gauge
	variants prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dispatch_total",
			Help:      "Number of requests dispatched, by outcome.",
		}, []string{"outcome"}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pass_total",
			Help:      "Number of times a destination declined a request.",
		}),
		compile: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "compile_duration_seconds",
			Help:      "Time spent compiling the route trie.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "trie_nodes",
			Help:      "Number of nodes in the compiled route trie.",
		}),
		variants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "route_variants",
			Help:      "Number of compiled route variants.",
		}),
	}

	var err error
	if m.dispatch, err = register(reg, m.dispatch); err != nil {
		return nil, err
	}
	if m.passes, err = register(reg, m.passes); err != nil {
		return nil, err
	}
	if m.compile, err = register(reg, m.compile); err != nil {
		return nil, err
	}
	if m.nodes, err = register(reg, m.nodes); err != nil {
		return nil, err
	}
	if m.variants, err = register(reg, m.variants); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c with reg. If an equivalent collector is already registered, e.g. by another router
// sharing the registerer, the existing one is returned instead.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) dispatched(o outcome) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(o.String()).Inc()
}

func (m *metrics) pass() {
	if m == nil {
		return
	}
	m.passes.Inc()
}

func (m *metrics) compiled(t *tree, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.compile.Observe(elapsed.Seconds())
	m.nodes.Set(float64(t.nodes))
	m.variants.Set(float64(t.variants))
}

func (o outcome) String() string {
	switch o {
	case outcomeMatched:
		return "matched"
	case outcomeRedirect:
		return "redirect"
	case outcomeError:
		return "error"
	default:
		return "not_found"
	}
}
