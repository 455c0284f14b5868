package http

import (
	"bytes"
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"integration-gateway/internal/common/errors"
)

// DefaultMaxResponseSize caps buffered response bodies at 10 MiB
const DefaultMaxResponseSize int64 = 10 * 1024 * 1024

// ErrResponseTooLarge is returned when a response body exceeds the configured limit
var ErrResponseTooLarge = stderrors.New("response body exceeds maximum in-memory size")

// ClientConfig holds HTTP client configuration
type ClientConfig struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DisableKeepAlives   bool
	DisableCompression  bool
	InsecureSkipVerify  bool
	MaxResponseSize     int64
	Transport           http.RoundTripper
	CheckRedirect       func(req *http.Request, via []*http.Request) error
}

// DefaultClientConfig returns default HTTP client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             30 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
		DisableCompression:  false,
		InsecureSkipVerify:  false,
		MaxResponseSize:     DefaultMaxResponseSize,
	}
}

// ClientOption is a function that modifies ClientConfig
type ClientOption func(*ClientConfig)

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithMaxIdleConns sets the maximum number of idle connections
func WithMaxIdleConns(max int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxIdleConns = max
	}
}

// WithMaxIdleConnsPerHost sets the maximum number of idle connections per host
func WithMaxIdleConnsPerHost(max int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxIdleConnsPerHost = max
	}
}

// WithoutKeepAlives disables keep-alives
func WithoutKeepAlives() ClientOption {
	return func(c *ClientConfig) {
		c.DisableKeepAlives = true
	}
}

// WithMaxResponseSize limits how many response bytes are buffered in memory
func WithMaxResponseSize(size int64) ClientOption {
	return func(c *ClientConfig) {
		c.MaxResponseSize = size
	}
}

// WithTransport sets a custom transport
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *ClientConfig) {
		c.Transport = transport
	}
}

// WithCheckRedirect sets a custom redirect policy
func WithCheckRedirect(checkRedirect func(req *http.Request, via []*http.Request) error) ClientOption {
	return func(c *ClientConfig) {
		c.CheckRedirect = checkRedirect
	}
}

// WithInsecureSkipVerify disables SSL certificate verification
func WithInsecureSkipVerify() ClientOption {
	return func(c *ClientConfig) {
		c.InsecureSkipVerify = true
	}
}

// NewHTTPClient creates a new HTTP client with the given options
func NewHTTPClient(opts ...ClientOption) *http.Client {
	cfg := DefaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newClient(cfg)
}

func newClient(cfg ClientConfig) *http.Client {
	var transport http.RoundTripper
	if cfg.Transport != nil {
		transport = cfg.Transport
	} else {
		httpTransport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
			DisableKeepAlives:   cfg.DisableKeepAlives,
			DisableCompression:  cfg.DisableCompression,
		}

		if cfg.InsecureSkipVerify {
			httpTransport.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true,
			}
		}

		transport = httpTransport
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	if cfg.CheckRedirect != nil {
		client.CheckRedirect = cfg.CheckRedirect
	}

	return client
}

// RequestOptions describes a single outbound request
type RequestOptions struct {
	Method  string
	URL     string
	Body    []byte
	Headers map[string]string
}

// Response is a fully buffered HTTP response
type Response struct {
	StatusCode int
	Headers    map[string]string
	RawBody    []byte
	Duration   time.Duration
}

// IsSuccess reports whether the status code is 2xx
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HTTPClientWrapper wraps http.Client with a bounded response reader.
// It performs exactly one attempt per call.
type HTTPClientWrapper struct {
	client          *http.Client
	maxResponseSize int64
}

// NewHTTPClientWrapper creates a wrapped HTTP client
func NewHTTPClientWrapper(opts ...ClientOption) *HTTPClientWrapper {
	cfg := DefaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &HTTPClientWrapper{
		client:          newClient(cfg),
		maxResponseSize: cfg.MaxResponseSize,
	}
}

// Request executes the request and buffers the response body. Any status code
// is returned as a Response; errors are reserved for transport failures,
// including bodies larger than the configured maximum.
func (w *HTTPClientWrapper) Request(ctx context.Context, opts *RequestOptions) (*Response, error) {
	start := time.Now()

	var bodyReader io.Reader
	if opts.Body != nil {
		bodyReader = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, bodyReader)
	if err != nil {
		return nil, errors.InternalError("failed to create request", err)
	}

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.ConnectionError("request failed", err)
	}
	defer resp.Body.Close()

	responseBody, err := readLimited(resp.Body, w.maxResponseSize)
	if err != nil {
		return nil, errors.ConnectionError("failed to read response body", err)
	}

	headers := make(map[string]string)
	for name, values := range resp.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		RawBody:    responseBody,
		Duration:   time.Since(start),
	}, nil
}

// GetHTTPClient returns the underlying HTTP client
func (w *HTTPClientWrapper) GetHTTPClient() *http.Client {
	return w.client
}

// readLimited reads at most limit bytes; one extra byte signals overflow
func readLimited(body io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(body)
	}

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)
	}
	return data, nil
}
