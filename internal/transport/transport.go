// Package transport implements sending rendered requests over HTTP.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.followtheprocess.codes/beekeeper/internal/render"
	"go.followtheprocess.codes/beekeeper/internal/response"
	"go.followtheprocess.codes/log"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultTimeout is the overall request timeout if none is given.
	DefaultTimeout = 30 * time.Second

	// DefaultConnectionTimeout is the timeout for establishing a connection if none is given.
	DefaultConnectionTimeout = 10 * time.Second
)

// Options configure an [HTTP] transport.
type Options struct {
	Timeout           time.Duration // Overall timeout for a request, including reading the body
	ConnectionTimeout time.Duration // Timeout for dialling the server
	NoRedirect        bool          // Return redirect responses rather than following them
}

// HTTP sends requests with a [net/http] client.
//
// Cookies set by responses are kept in a jar and sent with later requests to the
// same site, so a login action followed by others behaves as it would in a browser.
type HTTP struct {
	client *http.Client // The underlying client
	logger *log.Logger  // Debug logs
}

// New returns an [HTTP] transport configured by options, zero timeouts
// take their defaults. logger may be nil.
func New(options Options, logger *log.Logger) *HTTP {
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}

	if options.ConnectionTimeout == 0 {
		options.ConnectionTimeout = DefaultConnectionTimeout
	}

	if logger == nil {
		logger = log.New(io.Discard)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: options.ConnectionTimeout}).DialContext
	transport.TLSHandshakeTimeout = options.ConnectionTimeout

	// cookiejar.New never returns a non-nil error
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint: errcheck

	client := &http.Client{
		Transport: transport,
		Timeout:   options.Timeout,
		Jar:       jar,
	}

	if options.NoRedirect {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &HTTP{
		client: client,
		logger: logger.Prefixed("transport"),
	}
}

// Client returns the underlying HTTP client, tests use it to intercept requests.
func (h *HTTP) Client() *http.Client {
	return h.client
}

// Send sends request and reads the whole response.
//
// A response with an error status is still a response, Send only fails when no
// response is received.
func (h *HTTP) Send(ctx context.Context, request render.Request) (response.Response, error) {
	var body io.Reader
	if request.Body != nil {
		body = bytes.NewReader(request.Body)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.Method, request.URL, body)
	if err != nil {
		return response.Response{}, fmt.Errorf("could not build request: %w", err)
	}

	for key, value := range request.Headers {
		httpRequest.Header.Set(key, value)
	}

	start := time.Now()
	h.logger.Debug("Sending", "method", request.Method, "url", request.URL, "headers", len(request.Headers))

	resp, err := h.client.Do(httpRequest)
	if err != nil {
		return response.Response{}, fmt.Errorf("HTTP: %w", err)
	}

	if resp == nil {
		return response.Response{}, errors.New("nil response")
	}

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response.Response{}, fmt.Errorf("could not read response body: %w", err)
	}

	h.logger.Debug(
		"Received",
		"status", resp.StatusCode,
		"content-type", resp.Header.Get("Content-Type"),
		"bytes", len(data),
		"duration", time.Since(start),
	)

	return response.Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    data,
	}, nil
}
