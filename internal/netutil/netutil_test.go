package netutil

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHostPort(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "host with port",
			input: "example.com:8080",
			want:  "example.com",
		},
		{
			name:  "host without port",
			input: "example.com",
			want:  "example.com",
		},
		{
			name:  "host with trailing dot",
			input: "example.com.",
			want:  "example.com",
		},
		{
			name:  "host with port and trailing dot",
			input: "example.com.:8080",
			want:  "example.com",
		},
		{
			name:  "ipv6 with port",
			input: "[::1]:8080",
			want:  "::1",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "invalid host port returns unchanged",
			input: "[invalid",
			want:  "[invalid",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripHostPort(tc.input))
		})
	}
}

func TestRequestHost(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://a.example.com:8080/foo", nil)
	assert.Equal(t, "a.example.com", RequestHost(req))

	req.Host = ""
	assert.Equal(t, "a.example.com", RequestHost(req))
}

func TestRequestScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/foo", nil)
	assert.Equal(t, "http", RequestScheme(req))

	req.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https", RequestScheme(req))

	req = httptest.NewRequest(http.MethodGet, "HTTPS://example.com/foo", nil)
	assert.Equal(t, "https", RequestScheme(req))
}
