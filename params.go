// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hrouter

import netcontext "context"

type ctxKey struct{}

// paramsKey is the key that holds the Params in a context.Context.
var paramsKey = ctxKey{}

type Param struct {
	Key   string
	Value string
	// Segments holds every path segment captured by a glob parameter. It is nil for single segment parameters.
	Segments []string
}

type Params []Param

// Get the matching parameter value by name. For glob parameters, the value is the captured
// segments joined with a slash.
func (p Params) Get(name string) string {
	for i := range p {
		if p[i].Key == name {
			return p[i].Value
		}
	}
	return ""
}

// Segments returns the segments captured by the glob parameter name. For a single segment
// parameter, it returns a one element slice holding its value.
func (p Params) Segments(name string) []string {
	for i := range p {
		if p[i].Key == name {
			if p[i].Segments != nil {
				return p[i].Segments
			}
			return []string{p[i].Value}
		}
	}
	return nil
}

// Has checks whether the parameter exists by name.
func (p Params) Has(name string) bool {
	for i := range p {
		if p[i].Key == name {
			return true
		}
	}

	return false
}

// Clone make a copy of Params.
func (p Params) Clone() Params {
	cloned := make(Params, len(p))
	copy(cloned, p)
	return cloned
}

// Map returns the params as a name to value mapping. Glob parameters map to their segments.
func (p Params) Map() map[string]any {
	m := make(map[string]any, len(p))
	for _, param := range p {
		if param.Segments != nil {
			m[param.Key] = param.Segments
			continue
		}
		m[param.Key] = param.Value
	}
	return m
}

// merge returns p with other appended. Existing keys are overwritten in place.
func (p Params) merge(other Params) Params {
outer:
	for _, param := range other {
		for i := range p {
			if p[i].Key == param.Key {
				p[i] = param
				continue outer
			}
		}
		p = append(p, param)
	}
	return p
}

// ParamsFromContext allows extracting params from the given context.
func ParamsFromContext(ctx netcontext.Context) Params {
	p, _ := ctx.Value(paramsKey).(Params)

	return p
}
