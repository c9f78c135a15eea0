package http

import (
	"net/http"
	"time"
)

type HttpOpts func(*clientConfig)

func WithConnClientTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) {
		c.dialTimeout = timeout
	}
}

func WithRequestTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) {
		c.requestTimeout = timeout
	}
}

func WithClientKeepAlive(keepAlive time.Duration) HttpOpts {
	return func(c *clientConfig) {
		c.keepAlive = keepAlive
	}
}

func WithResponseHeaderTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) {
		c.responseHeaderTimeout = timeout
	}
}

func WithIdleConnTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) {
		c.idleConnTimeout = timeout
	}
}

func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *clientConfig) {
		c.transports = append(c.transports, transport)
	}
}

// WithAuthToken sends token as a bearer credential. An empty token adds nothing.
func WithAuthToken(token string) HttpOpts {
	if token == "" {
		return func(*clientConfig) {}
	}
	return WithStaticHeaders(map[string]string{"Authorization": "Bearer " + token})
}

// WithUserAgent names the calling component on every request.
func WithUserAgent(agent string) HttpOpts {
	return WithStaticHeaders(map[string]string{"User-Agent": agent})
}

// WithStaticHeaders sets headers on every request unless the request already
// carries them.
func WithStaticHeaders(headers map[string]string) HttpOpts {
	if len(headers) == 0 {
		return func(*clientConfig) {}
	}
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &headerTransport{headers: headers, transport: rt}
	})
}

type headerTransport struct {
	headers   map[string]string
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())
	for k, v := range t.headers {
		if reqCopy.Header.Get(k) == "" {
			reqCopy.Header.Set(k, v)
		}
	}
	return t.transport.RoundTrip(reqCopy)
}
