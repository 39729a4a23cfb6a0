package netutil

import (
	"net"
	"net/http"
	"strings"
)

// StripHostPort returns h without any trailing ":<port>". It also removes trailing period in the hostname.
// Per RFC 3696, The DNS specification permits a trailing period to be used to denote the root, e.g., "a.b.c" and "a.b.c."
// are equivalent.
func StripHostPort(h string) string {
	if h == "" {
		return h
	}
	if !strings.Contains(h, ":") {
		return strings.TrimSuffix(h, ".")
	}

	host, _, err := net.SplitHostPort(h)
	if err != nil {
		return h // on error, return unchanged
	}
	return strings.TrimSuffix(host, ".")
}

// RequestHost returns the host the request was sent to, without port.
func RequestHost(r *http.Request) string {
	if r.Host != "" {
		return StripHostPort(r.Host)
	}
	return StripHostPort(r.URL.Host)
}

// RequestScheme returns the scheme of the request. An absolute request URL wins, then
// the TLS connection state.
func RequestScheme(r *http.Request) string {
	if r.URL != nil && r.URL.Scheme != "" {
		return strings.ToLower(r.URL.Scheme)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
