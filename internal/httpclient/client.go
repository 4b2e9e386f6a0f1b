// Package httpclient dispatches the HTTP request described by a test row and
// captures everything the response interpreter needs: status code, headers,
// cookies, raw body bytes, declared content type, and elapsed time.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Logger defines the minimal interface expected from loggers used by the client.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Request captures the normalized request parameters for one test row after
// variable substitution and template parsing.
type Request struct {
	Method      string
	URL         string
	QueryParams map[string]string
	Headers     map[string]string
	Body        []byte
}

// Response is the raw outcome of a dispatched request, before interpretation.
type Response struct {
	StatusCode int
	// Headers keeps one value per header name; when the server repeats a
	// header the last occurrence wins.
	Headers     map[string]string
	Cookies     map[string]string
	Body        []byte
	ContentType string
	Elapsed     time.Duration
}

// TransportError is any connection failure, timeout, or non-HTTP fault. The
// affected row records an Error outcome and the run continues.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Config controls dispatch behavior for the whole run.
type Config struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// Client performs HTTP requests with a bounded per-request timeout.
type Client struct {
	httpClient *http.Client
	logger     Logger
}

// New builds a client from the provided configuration.
func New(cfg Config, logger Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		logger:     logger,
	}
}

// Send dispatches the request synchronously and returns the raw response. A
// transport fault of any kind, including the timeout, is reported as a
// TransportError.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("parsing url %q: %w", req.URL, err)}
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, &TransportError{Err: fmt.Errorf("url %q must be absolute", req.URL)}
	}

	if len(req.QueryParams) > 0 {
		query := target.Query()
		for key, val := range req.QueryParams {
			query.Set(key, val)
		}
		target.RawQuery = query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), bodyReader(req.Body))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("creating request: %w", err)}
	}

	for key, val := range req.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		httpReq.Header.Set(trimmedKey, val)
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.Printf("HTTP %s %s", method, target.Redacted())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TransportError{Err: fmt.Errorf("request timed out after %s", c.httpClient.Timeout)}
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[len(values)-1]
	}

	cookies := make(map[string]string)
	for _, cookie := range resp.Cookies() {
		cookies[cookie.Name] = cookie.Value
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Headers:     headers,
		Cookies:     cookies,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Elapsed:     elapsed,
	}, nil
}

func bodyReader(data []byte) io.Reader {
	if len(data) == 0 {
		return nil
	}
	return bytes.NewReader(data)
}
