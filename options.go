// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hrouter

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tigerwill90/hrouter/internal/slogpretty"
)

type GlobalOption interface {
	applyGlob(sealedOption) error
}

type RouteOption interface {
	applyRoute(sealedOption) error
}

type sealedOption struct {
	router *Router
	route  *Route
}

type optionFunc func(sealedOption) error

func (o optionFunc) applyGlob(s sealedOption) error {
	return o(s)
}

func (o optionFunc) applyRoute(s sealedOption) error {
	return o(s)
}

// WithNoRouteHandler register an [http.Handler] which is called when no matching route is found.
// By default, [http.NotFound] is used.
func WithNoRouteHandler(handler http.Handler) GlobalOption {
	return optionFunc(func(s sealedOption) error {
		if handler == nil {
			return fmt.Errorf("%w: no route handler cannot be nil", ErrInvalidConfig)
		}
		s.router.noRoute = handler
		return nil
	})
}

// WithErrorHandler register a function called when a [Handler] returns an error other than [ErrPass].
// By default, the error is logged and a 500 Internal Server Error is sent if nothing was written yet.
func WithErrorHandler(handler func(c *Context, err error)) GlobalOption {
	return optionFunc(func(s sealedOption) error {
		if handler == nil {
			return fmt.Errorf("%w: error handler cannot be nil", ErrInvalidConfig)
		}
		s.router.errHandler = handler
		return nil
	})
}

// WithIgnoreTrailingSlash configures whether a single trailing slash in the request path is ignored when matching
// a non partial route, e.g. /foo/bar/ matches /foo/bar. It's enabled by default.
func WithIgnoreTrailingSlash(enable bool) GlobalOption {
	return optionFunc(func(s sealedOption) error {
		s.router.ignoreTrailingSlash = enable
		return nil
	})
}

// WithRedirectTrailingSlash enables automatic redirection of GET and HEAD requests ending with a trailing slash to
// the same path without it, when a non partial route matches the path without the slash. The redirection takes
// precedence over [WithIgnoreTrailingSlash]. The client is redirected with a 302 status code.
func WithRedirectTrailingSlash(enable bool) GlobalOption {
	return optionFunc(func(s sealedOption) error {
		s.router.redirectTrailingSlash = enable
		return nil
	})
}

// WithURLMount sets the mount point of the router. Every URL generated by the router routes is prefixed with
// the URL of the mount point. Routers used as a destination receive their mount point automatically.
func WithURLMount(m *URLMount) GlobalOption {
	return optionFunc(func(s sealedOption) error {
		if m == nil {
			return fmt.Errorf("%w: url mount cannot be nil", ErrInvalidConfig)
		}
		s.router.urlMount = m
		return nil
	})
}

// WithLogger configures the router to emit structured logs with the provided [slog.Handler]. Route registration
// and trie compilation are logged at debug and info level, destination errors at error level. By default,
// nothing is logged.
func WithLogger(handler slog.Handler) GlobalOption {
	return optionFunc(func(s sealedOption) error {
		if handler == nil {
			return fmt.Errorf("%w: log handler cannot be nil", ErrInvalidConfig)
		}
		s.router.logger = slog.New(handler)
		return nil
	})
}

// WithPrettyLogs configures the router with human-readable, colorized logging optimized for terminal output.
// This option prioritizes readability over performance. For production workloads, prefer [WithLogger] with
// a performance-oriented [slog.Handler].
func WithPrettyLogs() GlobalOption {
	return optionFunc(func(s sealedOption) error {
		s.router.logger = slog.New(slogpretty.DefaultHandler)
		return nil
	})
}

// WithMetrics registers the router collectors with the provided [prometheus.Registerer]. The router counts
// dispatch outcomes and passes, and observes the trie compilation time and size.
func WithMetrics(reg prometheus.Registerer) GlobalOption {
	return optionFunc(func(s sealedOption) error {
		if reg == nil {
			return fmt.Errorf("%w: prometheus registerer cannot be nil", ErrInvalidConfig)
		}
		m, err := newMetrics(reg)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		s.router.metrics = m
		return nil
	})
}

// WithName assigns a name to a route for reverse URL generation. The name must be unique among all other
// routes registered.
func WithName(name string) RouteOption {
	return optionFunc(func(s sealedOption) error {
		if name == "" {
			return fmt.Errorf("%w: empty route name", ErrInvalidConfig)
		}
		s.route.name = name
		return nil
	})
}

// WithPartial configures whether the route matches only a prefix of the request path, leaving the remainder to
// the destination. A pattern ending with '*' is always partial.
func WithPartial(enable bool) RouteOption {
	return optionFunc(func(s sealedOption) error {
		if !s.route.partialSet {
			s.route.partial = enable
		}
		return nil
	})
}

// WithDefault sets the default value of a parameter used for URL generation.
func WithDefault(name string, value any) RouteOption {
	return optionFunc(func(s sealedOption) error {
		if s.route.defaults == nil {
			s.route.defaults = make(map[string]any, 1)
		}
		s.route.defaults[name] = value
		return nil
	})
}

// WithDefaults sets the default values of parameters used for URL generation.
func WithDefaults(values map[string]any) RouteOption {
	return optionFunc(func(s sealedOption) error {
		for k, v := range values {
			if err := WithDefault(k, v).applyRoute(s); err != nil {
				return err
			}
		}
		return nil
	})
}

// WithMatching constrains the parameter name with a regular expression. The expression must match the whole
// segment of a single segment parameter, or every segment of a glob parameter.
func WithMatching(name, expr string) RouteOption {
	return optionFunc(func(s sealedOption) error {
		if name == "" || expr == "" {
			return fmt.Errorf("%w: missing name or expression", ErrInvalidConfig)
		}
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("%w: invalid expression for %q: %w", ErrInvalidConfig, name, err)
		}
		if s.route.matching == nil {
			s.route.matching = make(map[string]string, 1)
		}
		s.route.matching[name] = expr
		return nil
	})
}

// WithConditions restricts the route to requests satisfying every attribute of conds.
func WithConditions(conds Conditions) RouteOption {
	return optionFunc(func(s sealedOption) error {
		for attr := Attribute(0); attr < attrCount; attr++ {
			s.route.conds.allow[attr] = append(s.route.conds.allow[attr], conds.allow[attr]...)
		}
		return nil
	})
}

// WithMethods restricts the route to the given request methods.
func WithMethods(methods ...string) RouteOption {
	return optionFunc(func(s sealedOption) error {
		for _, m := range methods {
			if m == "" || strings.ContainsAny(m, " \t") {
				return fmt.Errorf("%w: invalid method %q", ErrInvalidConfig, m)
			}
			s.route.conds.Allow(AttrMethod, m)
		}
		return nil
	})
}

// WithHosts restricts the route to the given request hosts. Hosts are compared case-insensitively, without port.
func WithHosts(hosts ...string) RouteOption {
	return allowOption(AttrHost, hosts)
}

// WithSchemes restricts the route to the given schemes, e.g. "https".
func WithSchemes(schemes ...string) RouteOption {
	return allowOption(AttrScheme, schemes)
}

// WithUserAgents restricts the route to the given User-Agent values.
func WithUserAgents(agents ...string) RouteOption {
	return allowOption(AttrUserAgent, agents)
}

// WithHostRegexp restricts the route to request hosts matching expr.
func WithHostRegexp(expr string) RouteOption {
	return allowRegexpOption(AttrHost, expr)
}

// WithUserAgentRegexp restricts the route to User-Agent values matching expr.
func WithUserAgentRegexp(expr string) RouteOption {
	return allowRegexpOption(AttrUserAgent, expr)
}

func allowOption(attr Attribute, values []string) RouteOption {
	return optionFunc(func(s sealedOption) error {
		for _, v := range values {
			if v == "" {
				return fmt.Errorf("%w: empty %s condition", ErrInvalidConfig, attr)
			}
		}
		s.route.conds.Allow(attr, values...)
		return nil
	})
}

func allowRegexpOption(attr Attribute, expr string) RouteOption {
	return optionFunc(func(s sealedOption) error {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("%w: invalid %s condition: %w", ErrInvalidConfig, attr, err)
		}
		s.route.conds.AllowRegexp(attr, re)
		return nil
	})
}

// WithArbitrary attaches a predicate to the route. Predicates are evaluated in order once the path and the
// request conditions match.
func WithArbitrary(fn ArbitraryFunc) RouteOption {
	return optionFunc(func(s sealedOption) error {
		if fn == nil {
			return fmt.Errorf("%w: arbitrary predicate cannot be nil", ErrInvalidConfig)
		}
		s.route.arbitrary = append(s.route.arbitrary, func(c *Context, params Params, next func() bool) {
			if fn(c, params) {
				next()
			}
		})
		return nil
	})
}

// WithArbitraryContinue attaches a predicate in continuation passing style to the route. See [ContinueFunc].
func WithArbitraryContinue(fn ContinueFunc) RouteOption {
	return optionFunc(func(s sealedOption) error {
		if fn == nil {
			return fmt.Errorf("%w: arbitrary predicate cannot be nil", ErrInvalidConfig)
		}
		s.route.arbitrary = append(s.route.arbitrary, fn)
		return nil
	})
}
