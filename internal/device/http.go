package device

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/version"
)

const defaultHTTPTimeout = 30 * time.Second

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original request's headers
	// which might be shared or reused
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// newHTTPClient returns an http client with a default user-agent set.
// The local gateway serves a self-signed certificate, so local mode
// passes insecureTLS.
func newHTTPClient(insecureTLS bool) *http.Client {
	transport := http.DefaultTransport
	if insecureTLS {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // gateway cert is self-signed
		}
	}

	jar, _ := cookiejar.New(nil)

	return &http.Client{
		Transport: &userAgentTransport{
			transport: transport,
			userAgent: version.UserAgent(),
		},
		Jar:     jar,
		Timeout: defaultHTTPTimeout,
	}
}
