package hrouter

import (
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

type nodeKind uint8

const (
	rootNode nodeKind = iota
	lookupNode
	variableNode
	globNode
	matchNode
	spanningNode
	requestNode
	arbitraryNode
	destinationNode
)

var nodeKindNames = [...]string{"root", "lookup", "variable", "glob", "match", "spanning", "request", "arbitrary", "destination"}

func (k nodeKind) String() string {
	return nodeKindNames[k]
}

type node struct {
	// Exact segment children, by segment.
	lookup map[string]*node

	// Single segment regexp children, in declaration order.
	matches []*node

	// Single segment children. Constrained variables are kept before the unconstrained one.
	variables []*node

	// Glob and spanning match children, in declaration order.
	globs []*node

	// Children that do not consume any segment: conditions, arbitrary predicates
	// and destinations, in declaration order.
	guards []*node

	// Constraint of a variable or glob, or the whole segment expression of a match.
	re *regexp.Regexp

	// Request conditions of a request node.
	cond *Conditions

	// Predicate of an arbitrary node.
	arbitrary ContinueFunc

	// The variant reached through an arbitrary or a destination node.
	path *Path

	// Lookup key.
	key string

	// Submatch indices holding a parameter value, and the subset holding a glob.
	captures []int
	splits   []int

	kind    nodeKind
	partial bool
}

func newRoot() *node {
	return &node{kind: rootNode}
}

func (n *node) addLookup(key string) *node {
	if child, ok := n.lookup[key]; ok {
		return child
	}
	if n.lookup == nil {
		n.lookup = make(map[string]*node)
	}
	child := &node{kind: lookupNode, key: key}
	n.lookup[key] = child
	return child
}

// addVariable keeps constrained variables in declaration order, ahead of the unconstrained variable. Only the
// last constrained variable, or the unconstrained one, is reused.
func (n *node) addVariable(re *regexp.Regexp) *node {
	idx := len(n.variables)
	if idx > 0 && n.variables[idx-1].re == nil {
		if re == nil {
			return n.variables[idx-1]
		}
		idx--
	}
	if re != nil && idx > 0 && sameRegexp(n.variables[idx-1].re, re) {
		return n.variables[idx-1]
	}

	child := &node{kind: variableNode, re: re}
	n.variables = slices.Insert(n.variables, idx, child)
	return child
}

func (n *node) addGlob(re *regexp.Regexp) *node {
	if child := last(n.globs); child != nil && child.kind == globNode && sameRegexp(child.re, re) {
		return child
	}
	child := &node{kind: globNode, re: re}
	n.globs = append(n.globs, child)
	return child
}

func (n *node) addMatch(re *regexp.Regexp, captures, splits []int) *node {
	if child := last(n.matches); child != nil && sameRegexp(child.re, re) && slices.Equal(child.captures, captures) {
		return child
	}
	child := &node{kind: matchNode, re: re, captures: captures, splits: splits}
	n.matches = append(n.matches, child)
	return child
}

func (n *node) addSpanningMatch(re *regexp.Regexp, captures, splits []int) *node {
	if child := last(n.globs); child != nil && child.kind == spanningNode && sameRegexp(child.re, re) &&
		slices.Equal(child.captures, captures) && slices.Equal(child.splits, splits) {
		return child
	}
	child := &node{kind: spanningNode, re: re, captures: captures, splits: splits}
	n.globs = append(n.globs, child)
	return child
}

func (n *node) addRequest(cond *Conditions) *node {
	if child := last(n.guards); child != nil && child.kind == requestNode && child.cond.Equal(cond) {
		return child
	}
	child := &node{kind: requestNode, cond: cond}
	n.guards = append(n.guards, child)
	return child
}

// addArbitrary always creates a new node since predicates cannot be compared.
func (n *node) addArbitrary(fn ContinueFunc, path *Path) *node {
	child := &node{kind: arbitraryNode, arbitrary: fn, path: path}
	n.guards = append(n.guards, child)
	return child
}

func (n *node) addDestination(path *Path, partial bool) *node {
	child := &node{kind: destinationNode, path: path, partial: partial}
	n.guards = append(n.guards, child)
	return child
}

// last returns the final entry of an ordered child list. Equivalent children are only shared with it, so that
// sharing never moves a route ahead of the routes declared before it.
func last(children []*node) *node {
	if len(children) == 0 {
		return nil
	}
	return children[len(children)-1]
}

// add weaves a parsed segment under n and returns the node reached.
func (n *node) add(seg segment) *node {
	switch seg.kind {
	case variableSegment:
		return n.addVariable(seg.re)
	case globSegment:
		return n.addGlob(seg.re)
	case matchSegment:
		return n.addMatch(seg.re, seg.captures, seg.splits)
	case spanningSegment:
		return n.addSpanningMatch(seg.re, seg.captures, seg.splits)
	default:
		return n.addLookup(seg.text)
	}
}

// size returns the number of nodes in the subtree rooted at n, n included.
func (n *node) size() int {
	total := 1
	n.each(func(child *node) {
		total += child.size()
	})
	return total
}

// each calls fn for every child of n, in matching priority order.
func (n *node) each(fn func(child *node)) {
	keys := make([]string, 0, len(n.lookup))
	for key := range n.lookup {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fn(n.lookup[key])
	}
	for _, group := range [...][]*node{n.matches, n.variables, n.globs, n.guards} {
		for _, child := range group {
			fn(child)
		}
	}
}

func sameRegexp(a, b *regexp.Regexp) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

func (n *node) String() string {
	sb := new(strings.Builder)
	n.string(sb, 0)
	return sb.String()
}

func (n *node) string(sb *strings.Builder, space int) {
	sb.WriteString(strings.Repeat(" ", space))
	sb.WriteString(n.label())
	sb.WriteByte('\n')
	n.each(func(child *node) {
		child.string(sb, space+2)
	})
}

func (n *node) label() string {
	switch n.kind {
	case rootNode:
		return "root"
	case lookupNode:
		return "lookup: " + strconv.Quote(n.key)
	case variableNode, globNode:
		if n.re == nil {
			return n.kind.String()
		}
		return n.kind.String() + ": " + n.re.String()
	case matchNode, spanningNode:
		return n.kind.String() + ": " + n.re.String()
	case requestNode:
		return "request: " + n.cond.String()
	case arbitraryNode:
		return "arbitrary"
	default:
		label := "destination: " + strconv.Quote(n.path.pattern)
		if n.partial {
			label += " (partial)"
		}
		if name := n.path.route.name; name != "" {
			label += " name:" + name
		}
		return label
	}
}
