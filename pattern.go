package hrouter

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const (
	slashDelim  byte = '/'
	escapeDelim byte = '\\'
	paramDelim  byte = ':'
	globDelim   byte = '*'
	openGroup   byte = '('
	closeGroup  byte = ')'
)

const (
	defaultParamExpr = `[^/]*?`
	defaultGlobExpr  = `.*?`
)

type segmentKind uint8

const (
	lookupSegment segmentKind = iota
	variableSegment
	globSegment
	matchSegment
	spanningSegment
)

// segment describes how one path segment of a variant is woven into the trie.
type segment struct {
	re       *regexp.Regexp
	text     string
	captures []int
	splits   []int
	kind     segmentKind
}

// templatePart is either a literal chunk of a URL, or a placeholder for the named parameter.
type templatePart struct {
	text  string
	param string
	glob  bool
}

// variantSpec is one concrete expansion of a pattern, parsed into segments.
type variantSpec struct {
	path     string
	segments []segment
	names    []string
	template []templatePart
}

// groupPart is either literal text or an optional group of parts.
type groupPart struct {
	text     string
	children []groupPart
	optional bool
}

type groupParser struct {
	pattern string
	i       int
}

// parseGroups parses the pattern into a tree of literal text and optional groups. Escaped parentheses are
// de-escaped, other escape sequences are kept as is for the segment tokenizer.
func parseGroups(pattern string) ([]groupPart, error) {
	p := &groupParser{pattern: pattern}
	parts, err := p.parse(0, -1)
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func (p *groupParser) parse(depth, open int) ([]groupPart, error) {
	var (
		parts []groupPart
		sb    strings.Builder
	)
	flush := func() {
		if sb.Len() > 0 {
			parts = append(parts, groupPart{text: sb.String()})
			sb.Reset()
		}
	}

	for p.i < len(p.pattern) {
		c := p.pattern[p.i]
		switch {
		case c == escapeDelim && p.i+1 < len(p.pattern):
			next := p.pattern[p.i+1]
			if next == openGroup || next == closeGroup {
				sb.WriteByte(next)
			} else {
				sb.WriteString(p.pattern[p.i : p.i+2])
			}
			p.i += 2
		case c == openGroup:
			flush()
			start := p.i
			p.i++
			children, err := p.parse(depth+1, start)
			if err != nil {
				return nil, err
			}
			parts = append(parts, groupPart{children: children, optional: true})
		case c == closeGroup:
			if depth == 0 {
				return nil, &PatternError{Pattern: p.pattern, Offset: p.i, Err: fmt.Errorf("%w: unexpected ')'", ErrUnbalancedGroup)}
			}
			p.i++
			flush()
			return parts, nil
		default:
			sb.WriteByte(c)
			p.i++
		}
	}

	if depth > 0 {
		return nil, &PatternError{Pattern: p.pattern, Offset: open, Err: fmt.Errorf("%w: missing ')'", ErrUnbalancedGroup)}
	}
	flush()
	return parts, nil
}

// expandGroups returns every concrete path described by parts. The variant without any optional group comes first,
// and variants including a group are appended after the variants they extend.
func expandGroups(parts []groupPart) []string {
	paths := []string{""}
	for _, part := range parts {
		if !part.optional {
			for i := range paths {
				paths[i] += part.text
			}
			continue
		}

		sub := expandGroups(part.children)
		expanded := make([]string, 0, len(paths)*(len(sub)+1))
		expanded = append(expanded, paths...)
		for _, path := range paths {
			for _, s := range sub {
				expanded = append(expanded, path+s)
			}
		}
		paths = expanded
	}
	return paths
}

type tokenKind uint8

const (
	textToken tokenKind = iota
	escapeToken
	paramToken
	globToken
)

type token struct {
	value string
	kind  tokenKind
}

// tokenize splits a path segment into escaped literals, :name and *name tokens and runs of plain characters.
// A ':' or '*' not followed by a name character is plain text.
func tokenize(seg string) []token {
	var tokens []token
	appendText := func(s string) {
		if n := len(tokens); n > 0 && tokens[n-1].kind == textToken {
			tokens[n-1].value += s
			return
		}
		tokens = append(tokens, token{kind: textToken, value: s})
	}

	for i := 0; i < len(seg); {
		c := seg[i]
		switch {
		case c == escapeDelim && i+1 < len(seg):
			tokens = append(tokens, token{kind: escapeToken, value: seg[i+1 : i+2]})
			i += 2
		case c == paramDelim || c == globDelim:
			end := i + 1
			for end < len(seg) && isNameChar(seg[end]) {
				end++
			}
			if end == i+1 {
				appendText(seg[i : i+1])
				i++
				continue
			}
			kind := paramToken
			if c == globDelim {
				kind = globToken
			}
			tokens = append(tokens, token{kind: kind, value: seg[i+1 : end]})
			i = end
		default:
			end := i + 1
			for end < len(seg) && seg[end] != escapeDelim && seg[end] != paramDelim && seg[end] != globDelim {
				end++
			}
			appendText(seg[i:end])
			i = end
		}
	}
	return tokens
}

// literalTokens joins tokens made only of plain text and escaped characters.
func literalTokens(tokens []token) (string, bool) {
	var sb strings.Builder
	for _, tk := range tokens {
		if tk.kind != textToken && tk.kind != escapeToken {
			return "", false
		}
		sb.WriteString(tk.value)
	}
	return sb.String(), true
}

func isNameChar(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// parsePattern compiles a route pattern into its concrete variants. The matching map holds the raw regular
// expression constraining a parameter, if any. Variants are returned with the one including the most optional
// groups first.
func parsePattern(pattern string, matching map[string]string) ([]*variantSpec, error) {
	parts, err := parseGroups(pattern)
	if err != nil {
		return nil, err
	}

	paths := expandGroups(parts)
	slices.Reverse(paths)

	specs := make([]*variantSpec, 0, len(paths))
	for _, path := range paths {
		spec, err := parseVariant(path, matching)
		if err != nil {
			return nil, &PatternError{Pattern: pattern, Offset: -1, Err: err}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseVariant(path string, matching map[string]string) (*variantSpec, error) {
	spec := &variantSpec{path: path}

	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		spec.template = appendLiteral(spec.template, "/")

		tokens := tokenize(seg)
		if text, ok := literalTokens(tokens); ok {
			tokens = []token{{kind: textToken, value: text}}
		}
		if len(tokens) == 1 {
			sg, err := spec.singleToken(tokens[0], matching)
			if err != nil {
				return nil, err
			}
			spec.segments = append(spec.segments, sg)
			continue
		}

		sg, err := spec.mixedTokens(tokens, matching)
		if err != nil {
			return nil, err
		}
		spec.segments = append(spec.segments, sg)
	}

	if len(spec.template) == 0 {
		spec.template = appendLiteral(spec.template, "/")
	}

	if dup := firstDuplicate(spec.names); dup != "" {
		return nil, fmt.Errorf("%w: %q in %s", ErrAmbiguousParam, dup, strings.Join(spec.names, ", "))
	}
	return spec, nil
}

func (s *variantSpec) singleToken(tk token, matching map[string]string) (segment, error) {
	switch tk.kind {
	case paramToken:
		s.names = append(s.names, tk.value)
		s.template = append(s.template, templatePart{param: tk.value})
		re, err := anchoredConstraint(tk.value, matching)
		if err != nil {
			return segment{}, err
		}
		return segment{kind: variableSegment, re: re}, nil
	case globToken:
		s.names = append(s.names, tk.value)
		s.template = append(s.template, templatePart{param: tk.value, glob: true})
		re, err := anchoredConstraint(tk.value, matching)
		if err != nil {
			return segment{}, err
		}
		return segment{kind: globSegment, re: re}, nil
	default:
		s.template = appendLiteral(s.template, tk.value)
		return segment{kind: lookupSegment, text: tk.value}, nil
	}
}

func (s *variantSpec) mixedTokens(tokens []token, matching map[string]string) (segment, error) {
	var (
		sb       strings.Builder
		captures []int
		splits   []int
		group    int
	)

	sb.WriteByte('^')
	for _, tk := range tokens {
		switch tk.kind {
		case paramToken:
			group++
			captures = append(captures, group)
			s.names = append(s.names, tk.value)
			s.template = append(s.template, templatePart{param: tk.value})
			expr := defaultParamExpr
			if c, ok := matching[tk.value]; ok {
				expr = c
			}
			sb.WriteString("(" + expr + ")")
		case globToken:
			group++
			captures = append(captures, group)
			splits = append(splits, group)
			s.names = append(s.names, tk.value)
			s.template = append(s.template, templatePart{param: tk.value, glob: true})
			if c, ok := matching[tk.value]; ok {
				sb.WriteString("((?:" + c + "/?)+)")
			} else {
				sb.WriteString("(" + defaultGlobExpr + ")")
			}
		default:
			s.template = appendLiteral(s.template, tk.value)
			sb.WriteString(regexp.QuoteMeta(tk.value))
		}
	}
	sb.WriteByte('$')

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return segment{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	// Constraints may introduce their own groups, so capture indices are remapped against the compiled expression.
	captures, splits = remapGroups(re, captures, splits)

	kind := matchSegment
	if len(splits) > 0 {
		kind = spanningSegment
	}
	return segment{kind: kind, re: re, captures: captures, splits: splits}, nil
}

// remapGroups translates the ordinal of each generated capture group into its submatch index in re.
// Generated groups are the only top level groups of the expression.
func remapGroups(re *regexp.Regexp, captures, splits []int) ([]int, []int) {
	if re.NumSubexp() == len(captures) {
		return captures, splits
	}

	src := re.String()
	var (
		top   []int
		depth int
		index int
	)
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			// Skip character classes, they cannot open a group.
			for i++; i < len(src) && src[i] != ']'; i++ {
				if src[i] == '\\' {
					i++
				}
			}
		case '(':
			capturing := i+1 >= len(src) || src[i+1] != '?' || (i+2 < len(src) && (src[i+2] == 'P' || src[i+2] == '<'))
			if capturing {
				index++
				if depth == 0 {
					top = append(top, index)
				}
			}
			depth++
		case ')':
			depth--
		}
	}

	remapped := make([]int, len(captures))
	remappedSplits := make([]int, 0, len(splits))
	for i, ordinal := range captures {
		remapped[i] = top[ordinal-1]
		if slices.Contains(splits, ordinal) {
			remappedSplits = append(remappedSplits, remapped[i])
		}
	}
	return remapped, remappedSplits
}

func anchoredConstraint(name string, matching map[string]string) (*regexp.Regexp, error) {
	expr, ok := matching[name]
	if !ok {
		return nil, nil
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: constraint for %q: %w", ErrInvalidConfig, name, err)
	}
	return re, nil
}

func appendLiteral(parts []templatePart, s string) []templatePart {
	if n := len(parts); n > 0 && parts[n-1].param == "" {
		parts[n-1].text += s
		return parts
	}
	return append(parts, templatePart{text: s})
}

func firstDuplicate(names []string) string {
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			if names[i] == names[j] {
				return names[i]
			}
		}
	}
	return ""
}

// significantNames returns the parameter names written in the pattern, excluding escaped markers.
func significantNames(pattern string) []string {
	var names []string
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == escapeDelim {
			i++
			continue
		}
		if c != paramDelim && c != globDelim {
			continue
		}
		end := i + 1
		for end < len(pattern) && isNameChar(pattern[end]) {
			end++
		}
		if end > i+1 && !slices.Contains(names, pattern[i+1:end]) {
			names = append(names, pattern[i+1:end])
		}
		i = end - 1
	}
	return names
}
