package geolib

import (
	"net"
	"net/http"
	"os"
	"strings"
)

// ClientIPSources is an ordered list of sources which are checked by
// ClientIPDetector. Names follow CGI conventions.
var ClientIPSources = []string{
	"HTTP_X_FORWARDED_IP",
	"HTTP_X_FORWARDED_FOR",
	"HTTP_CLIENT_IP",
	"HTTP_X_REAL_IP",
	"HTTP_X_FORWARDED",
	"HTTP_FORWARDED_FOR",
	"HTTP_FORWARDED",
	"REMOTE_ADDR",
	"HTTP_X_CLUSTER_CLIENT_IP",
	"HTTP_CF_CONNECTING_IP",
}

// ClientIPDetector guesses an IP address of the client based on values
// of proxy and forwarding headers.
type ClientIPDetector struct {
	getter func(string) string
}

// Detect returns the first valid address found in sources. Each source
// can contain a comma-separated proxy chain. If nothing is found,
// DefaultClientIP is returned.
func (c ClientIPDetector) Detect() string {
	for _, source := range ClientIPSources {
		value := c.getter(source)
		if value == "" {
			continue
		}

		for _, chunk := range strings.Split(value, ",") {
			if chunk = strings.TrimSpace(chunk); IsValidIP(chunk) {
				return chunk
			}
		}
	}

	return DefaultClientIP
}

// NewClientIPDetector returns a detector which takes values of sources
// from a given getter.
func NewClientIPDetector(getter func(string) string) ClientIPDetector {
	return ClientIPDetector{
		getter: getter,
	}
}

// NewEnvClientIPDetector returns a detector which reads CGI-style
// environment variables.
func NewEnvClientIPDetector() ClientIPDetector {
	return NewClientIPDetector(os.Getenv)
}

// NewRequestClientIPDetector returns a detector which works with
// headers of HTTP request. HTTP_X_FORWARDED_FOR is mapped to
// X-Forwarded-For header, REMOTE_ADDR is a host of the remote address
// of the request.
func NewRequestClientIPDetector(req *http.Request) ClientIPDetector {
	return NewClientIPDetector(func(source string) string {
		if source == "REMOTE_ADDR" {
			host, _, err := net.SplitHostPort(req.RemoteAddr)
			if err != nil {
				return req.RemoteAddr
			}

			return host
		}

		name := strings.TrimPrefix(source, "HTTP_")
		name = strings.ReplaceAll(name, "_", "-")

		return req.Header.Get(name)
	})
}
