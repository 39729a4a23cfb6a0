// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hrouter

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrRouteNotFound       = errors.New("route not found")
	ErrRouteNameExist      = errors.New("route name already registered")
	ErrInvalidRoute        = errors.New("invalid route")
	ErrAmbiguousParam      = errors.New("duplicate parameter name")
	ErrUnbalancedGroup     = errors.New("unbalanced optional group")
	ErrInvalidRedirectCode = errors.New("invalid redirect code")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrTooManyParams       = errors.New("too many params")
)

// ErrPass is returned by a [Handler] that accepts a request structurally but declines to serve it. The router
// then resumes its search at the next untried alternative, as if the route had never matched. A handler
// returning ErrPass must not have written anything to the response.
var ErrPass = errors.New("pass")

// PatternError reports a route pattern that cannot be compiled.
type PatternError struct {
	Err     error
	Pattern string
	// Offset is the byte offset in Pattern where the error was detected, or -1 when not applicable.
	Offset int
}

func (e *PatternError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid pattern ")
	sb.WriteString(strconv.Quote(e.Pattern))
	if e.Offset >= 0 {
		sb.WriteString(" at offset ")
		sb.WriteString(strconv.Itoa(e.Offset))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

// Unwrap returns the underlying cause and the sentinel value [ErrInvalidRoute].
func (e *PatternError) Unwrap() []error {
	return []error{ErrInvalidRoute, e.Err}
}

// RouteNameConflictError represents a conflict that occurred during route name registration.
// It contains the route being registered, and the existing route that caused the conflict.
type RouteNameConflictError struct {
	// New is the route that was being registered when the conflict was detected.
	New *Route
	// Conflict is the previously registered route that conflict with New.
	Conflict *Route
}

func (e *RouteNameConflictError) Error() string {
	var sb strings.Builder
	sb.WriteString("route name already registered: new route name ")
	sb.WriteByte('\'')
	sb.WriteString(e.New.name)
	sb.WriteString("' conflicts with route at ")
	sb.WriteString(e.Conflict.pattern)
	return sb.String()
}

func (e *RouteNameConflictError) Unwrap() error {
	return ErrRouteNameExist
}
