package hrouter

import (
	"iter"
	"strings"
)

// Path is one concrete variant of a [Route] pattern, after optional groups are resolved.
// A Path is immutable.
type Path struct {
	route    *Route
	pattern  string
	names    []string
	template []templatePart
	segments []segment
	dynamic  bool
}

func newPath(route *Route, spec *variantSpec) *Path {
	return &Path{
		route:    route,
		pattern:  spec.path,
		names:    spec.names,
		template: spec.template,
		segments: spec.segments,
		dynamic:  len(spec.names) > 0,
	}
}

// Route returns the route owning this variant.
func (p *Path) Route() *Route {
	return p.route
}

// Pattern returns the expanded pattern of this variant, e.g. "/users/:id.xml".
func (p *Path) Pattern() string {
	return p.pattern
}

// Dynamic reports whether this variant has parameters.
func (p *Path) Dynamic() bool {
	return p.dynamic
}

// Names returns an iterator over the parameter names of this variant, in left-to-right order.
func (p *Path) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range p.names {
			if !yield(name) {
				return
			}
		}
	}
}

// NamesLen returns the number of parameters of this variant.
func (p *Path) NamesLen() int {
	return len(p.names)
}

// Template returns the URL template of this variant with placeholders in the original notation.
func (p *Path) Template() string {
	sb := new(strings.Builder)
	for _, part := range p.template {
		switch {
		case part.param == "":
			sb.WriteString(part.text)
		case part.glob:
			sb.WriteByte(globDelim)
			sb.WriteString(part.param)
		default:
			sb.WriteByte(paramDelim)
			sb.WriteString(part.param)
		}
	}
	return sb.String()
}

// bind zips the parameter names with positional captures.
func (p *Path) bind(values []capture) Params {
	if !p.dynamic || len(values) == 0 {
		return nil
	}
	params := make(Params, 0, len(p.names))
	for i, name := range p.names {
		if i >= len(values) {
			break
		}
		params = append(params, Param{Key: name, Value: values[i].value, Segments: values[i].segments})
	}
	return params
}

func (p *Path) String() string {
	return p.pattern
}

// capture is a positional parameter value collected while walking the trie.
type capture struct {
	value    string
	segments []string
}
