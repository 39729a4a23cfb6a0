package hrouter

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/tigerwill90/hrouter/internal/netutil"
	"github.com/tigerwill90/hrouter/internal/slicesutil"
	"github.com/tigerwill90/hrouter/internal/stringutil"
)

// Attribute identifies the request attribute a condition applies to.
type Attribute uint8

const (
	// AttrMethod is the request method.
	AttrMethod Attribute = iota
	// AttrHost is the request host, without port.
	AttrHost
	// AttrScheme is the request scheme, either "http" or "https".
	AttrScheme
	// AttrUserAgent is the User-Agent request header.
	AttrUserAgent

	attrCount
)

var attrNames = [attrCount]string{"request_method", "host", "scheme", "user_agent"}

func (a Attribute) String() string {
	if a >= attrCount {
		return "unknown"
	}
	return attrNames[a]
}

type allowValue struct {
	re    *regexp.Regexp
	exact string
}

func (v allowValue) match(attr Attribute, s string) bool {
	if v.re != nil {
		return v.re.MatchString(s)
	}
	switch attr {
	case AttrHost, AttrScheme:
		return stringutil.EqualStringsASCIIIgnoreCase(v.exact, s)
	default:
		return v.exact == s
	}
}

func (v allowValue) equal(o allowValue) bool {
	if (v.re == nil) != (o.re == nil) {
		return false
	}
	if v.re != nil {
		return v.re.String() == o.re.String()
	}
	return v.exact == o.exact
}

func (v allowValue) String() string {
	if v.re != nil {
		return "/" + v.re.String() + "/"
	}
	return v.exact
}

// Conditions restricts a route to requests whose attributes are present in a set of allowed values.
// A request satisfies the conditions when, for every attribute with at least one allowed value, one
// of the values matches. The zero value has no restriction.
type Conditions struct {
	allow [attrCount][]allowValue
}

// Allow adds values to the set of allowed values for attr.
func (c *Conditions) Allow(attr Attribute, values ...string) {
	for _, v := range values {
		c.allow[attr] = append(c.allow[attr], allowValue{exact: v})
	}
}

// AllowRegexp adds a regular expression to the set of allowed values for attr.
func (c *Conditions) AllowRegexp(attr Attribute, re *regexp.Regexp) {
	c.allow[attr] = append(c.allow[attr], allowValue{re: re})
}

// Values returns the allowed values for attr. Regular expressions are rendered between slashes.
func (c *Conditions) Values(attr Attribute) []string {
	values := make([]string, 0, len(c.allow[attr]))
	for _, v := range c.allow[attr] {
		values = append(values, v.String())
	}
	return values
}

// Empty reports whether no attribute is restricted.
func (c *Conditions) Empty() bool {
	for i := range c.allow {
		if len(c.allow[i]) > 0 {
			return false
		}
	}
	return true
}

// Match reports whether the request satisfies the conditions.
func (c *Conditions) Match(r *http.Request) bool {
	for attr := Attribute(0); attr < attrCount; attr++ {
		allowed := c.allow[attr]
		if len(allowed) == 0 {
			continue
		}
		value := requestAttribute(r, attr)
		matched := false
		for _, v := range allowed {
			if v.match(attr, value) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Equal reports whether both conditions allow the same values, regardless of order.
func (c *Conditions) Equal(other *Conditions) bool {
	for i := range c.allow {
		if !slicesutil.EqualUnsortedFunc(c.allow[i], other.allow[i], allowValue.equal) {
			return false
		}
	}
	return true
}

func (c *Conditions) clone() Conditions {
	var cloned Conditions
	for i := range c.allow {
		cloned.allow[i] = append([]allowValue(nil), c.allow[i]...)
	}
	return cloned
}

func (c *Conditions) String() string {
	sb := new(strings.Builder)
	sb.WriteByte('{')
	for attr := Attribute(0); attr < attrCount; attr++ {
		if len(c.allow[attr]) == 0 {
			continue
		}
		if sb.Len() > 1 {
			sb.WriteString(", ")
		}
		sb.WriteString(attr.String())
		sb.WriteString(":[")
		sb.WriteString(strings.Join(c.Values(attr), ","))
		sb.WriteByte(']')
	}
	sb.WriteByte('}')
	return sb.String()
}

func requestAttribute(r *http.Request, attr Attribute) string {
	switch attr {
	case AttrMethod:
		return r.Method
	case AttrHost:
		return netutil.RequestHost(r)
	case AttrScheme:
		return netutil.RequestScheme(r)
	case AttrUserAgent:
		return r.UserAgent()
	default:
		return ""
	}
}
