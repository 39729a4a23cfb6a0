package hrouter

import (
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strings"
)

// URLMount describes where a router or a handler is mounted. URLs generated under a mount point are prefixed
// with the URL of the mount point, rendered with the same parameters.
type URLMount struct {
	route *Route
}

// NewURLMount returns a standalone mount point for the given pattern, e.g. to prefix every URL of a router
// served behind a reverse proxy. Parameters of the pattern are taken from the URL generation parameters, or from
// the defaults provided with [WithDefault].
func NewURLMount(pattern string, opts ...RouteOption) (*URLMount, error) {
	rte := newRoute(nil, pattern, HandlerFunc(func(c *Context) error { return ErrPass }))
	for _, opt := range opts {
		if err := opt.applyRoute(sealedOption{route: rte}); err != nil {
			return nil, err
		}
	}
	if err := rte.compile(); err != nil {
		return nil, err
	}
	return &URLMount{route: rte}, nil
}

// Route returns the route of the mount point.
func (m *URLMount) Route() *Route {
	return m.route
}

// URL renders the mount point with params. Parameters consumed by the mount point are not removed from params.
func (m *URLMount) URL(params map[string]any) (string, error) {
	return m.url(maps.Clone(params))
}

// url renders the mount point and removes from params every key it consumed, so they are not repeated in
// the query string of the mounted URL.
func (m *URLMount) url(params map[string]any) (string, error) {
	opts := m.route.withDefaults(params)
	result, err := m.route.build(nil, opts, false)
	if err != nil {
		return "", err
	}
	for k := range params {
		if _, ok := opts[k]; !ok {
			delete(params, k)
		}
	}
	return result, nil
}

// URL generates the URL of the route from a set of parameters, merged over the route defaults. Nil values remove
// a parameter. The first variant whose parameters are all provided is rendered, variants with the most optional
// groups first. Parameters not used by the path are appended as a query string, sorted by key. Glob parameters
// accept a slice of segments.
//
// URL returns [ErrInvalidRoute] if no variant can be rendered with params, or if a value does not satisfy
// its constraint.
func (r *Route) URL(params map[string]any) (string, error) {
	opts := r.withDefaults(params)
	result, err := r.build(nil, opts, false)
	if err != nil {
		return "", err
	}
	return appendQuery(result, opts), nil
}

// URLArgs generates the URL of the route from positional parameters. If the last argument is a map[string]any,
// it holds named parameters, merged over the route defaults, and extra query parameters. Positional parameters fill
// the variant parameters not given by name, in left-to-right order. It returns [ErrTooManyParams] if some positional
// parameters are not used, and [ErrInvalidRoute] if no variant can be rendered.
func (r *Route) URLArgs(args ...any) (string, error) {
	var params map[string]any
	if n := len(args); n > 0 {
		if m, ok := args[n-1].(map[string]any); ok {
			params = m
			args = args[:n-1]
		}
	}

	opts := r.withDefaults(params)
	result, err := r.build(args, opts, len(args) > 0)
	if err != nil {
		return "", err
	}
	return appendQuery(result, opts), nil
}

// withDefaults returns the defaults of the route overridden by params, without the nil values. Typed nil
// pointers, slices, maps and interfaces are removed as well.
func (r *Route) withDefaults(params map[string]any) map[string]any {
	opts := make(map[string]any, len(r.defaults)+len(params))
	maps.Copy(opts, r.defaults)
	maps.Copy(opts, params)
	maps.DeleteFunc(opts, func(_ string, v any) bool {
		return isNil(v)
	})
	return opts
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// build renders the path of the route, prefixed by the router mount point if any. Consumed parameters are
// removed from opts.
func (r *Route) build(args []any, opts map[string]any, positional bool) (string, error) {
	path := r.matchingPath(args, opts, positional)
	if path == nil {
		return "", fmt.Errorf("%w: no variant of %s can be built with the provided parameters", ErrInvalidRoute, r.pattern)
	}

	result, err := path.url(args, opts)
	if err != nil {
		return "", err
	}

	if r.router == nil {
		return result, nil
	}
	m := r.router.mount()
	if m == nil {
		return result, nil
	}
	prefix, err := m.url(opts)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(prefix, "/") + result, nil
}

// matchingPath selects the variant to render. A route with a single variant always renders it.
func (r *Route) matchingPath(args []any, opts map[string]any, positional bool) *Path {
	if len(r.paths) == 1 {
		return r.paths[0]
	}

	if positional {
		count := len(args)
		for _, name := range r.significant {
			if _, ok := opts[name]; ok {
				count++
			}
		}
		for _, p := range r.paths {
			if len(p.names) == count {
				return p
			}
		}
		return nil
	}

	for _, p := range r.paths {
		if len(opts) == 0 {
			if len(p.names) == 0 {
				return p
			}
			continue
		}
		if p.providedBy(opts) {
			return p
		}
	}
	return nil
}

func (p *Path) providedBy(opts map[string]any) bool {
	for _, name := range p.names {
		if _, ok := opts[name]; !ok {
			return false
		}
	}
	return true
}

// url renders the template of the variant. Named values are taken from opts first, then from args in order.
func (p *Path) url(args []any, opts map[string]any) (string, error) {
	sb := new(strings.Builder)
	for _, part := range p.template {
		if part.param == "" {
			sb.WriteString(part.text)
			continue
		}

		value, ok := opts[part.param]
		if ok {
			delete(opts, part.param)
		} else if len(args) > 0 {
			value, args = args[0], args[1:]
		} else {
			return "", fmt.Errorf("%w: missing parameter %q for %s", ErrInvalidRoute, part.param, p.pattern)
		}

		segs := valueSegments(value, part.glob)
		if err := p.check(part.param, segs); err != nil {
			return "", err
		}
		sb.WriteString(escapeValue(segs))
	}

	if len(args) > 0 {
		return "", fmt.Errorf("%w: %d unused for %s", ErrTooManyParams, len(args), p.pattern)
	}
	return sb.String(), nil
}

// check validates the value of the parameter name against its constraint, if any.
func (p *Path) check(name string, segs []string) error {
	expr, ok := p.route.matching[name]
	if !ok {
		return nil
	}
	// The expression is validated when the route option is applied.
	re := regexp.MustCompile("^(?:" + expr + ")$")
	for _, s := range segs {
		if !re.MatchString(s) {
			return fmt.Errorf("%w: value %q does not match %s for parameter %q", ErrInvalidRoute, s, expr, name)
		}
	}
	return nil
}

// valueSegments formats a parameter value. For glob parameters, slices render one segment per element and strings
// are split on slashes.
func valueSegments(value any, glob bool) []string {
	switch v := value.(type) {
	case string:
		if glob {
			return strings.Split(strings.Trim(v, "/"), "/")
		}
		return []string{v}
	case []string:
		if glob {
			return v
		}
		return []string{strings.Join(v, "/")}
	}

	rv := reflect.ValueOf(value)
	if glob && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		segs := make([]string, rv.Len())
		for i := range segs {
			segs[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return segs
	}
	return []string{fmt.Sprint(value)}
}

func escapeValue(segs []string) string {
	escaped := make([]string, len(segs))
	for i, s := range segs {
		escaped[i] = url.PathEscape(s)
	}
	return strings.Join(escaped, "/")
}

// appendQuery appends params to uri as a query string. Slice values repeat the key with a "[]" suffix, map values
// recurse with a "key[subkey]" naming.
func appendQuery(uri string, params map[string]any) string {
	if len(params) == 0 {
		return uri
	}

	var pairs []string
	for _, k := range slices.Sorted(maps.Keys(params)) {
		pairs = appendQueryValue(pairs, k, reflect.ValueOf(params[k]))
	}
	if len(pairs) == 0 {
		return uri
	}
	return uri + "?" + strings.Join(pairs, "&")
}

func appendQueryValue(pairs []string, key string, rv reflect.Value) []string {
	if rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return pairs
		}
		return appendQueryValue(pairs, key, rv.Elem())
	}

	switch rv.Kind() {
	case reflect.Invalid:
		return pairs
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		for i := 0; i < rv.Len(); i++ {
			pairs = appendQueryValue(pairs, key+"[]", rv.Index(i))
		}
		return pairs
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		values := make(map[string]reflect.Value, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			k := fmt.Sprint(it.Key().Interface())
			keys = append(keys, k)
			values[k] = it.Value()
		}
		slices.Sort(keys)
		for _, k := range keys {
			pairs = appendQueryValue(pairs, key+"["+k+"]", values[k])
		}
		return pairs
	}

	return append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(formatValue(rv)))
}

func formatValue(rv reflect.Value) string {
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return string(rv.Bytes())
	}
	return fmt.Sprint(rv.Interface())
}
