package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/logging"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// TransportError reports a request that produced no response: bad URL,
// refused connection, TLS failure, timeout or cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client sends request documents. A Client is safe for concurrent use once
// built.
type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders parser.Headers
	logger         *zap.Logger
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.httpClient = &http.Client{
		Transport:     c.transport(),
		Timeout:       c.timeout,
		CheckRedirect: c.checkRedirect,
	}
	return c
}

func (c *Client) transport() *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}
	if !c.validateSSL {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if c.proxyURL == "" {
		return t
	}
	if u, err := neturl.Parse(c.proxyURL); err == nil {
		t.Proxy = http.ProxyURL(u)
	} else {
		c.logger.Warn("ignoring invalid proxy URL", zap.String("proxy", c.proxyURL), zap.Error(err))
	}
	return t
}

// checkRedirect stops on the last response instead of failing, so a capped
// chain still reports the final 3xx.
func (c *Client) checkRedirect(_ *http.Request, via []*http.Request) error {
	if !c.followRedirect || len(via) >= c.maxRedirects {
		return http.ErrUseLastResponse
	}
	return nil
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(n int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = n
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders.Set(key, value)
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders.Set(k, v)
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Send executes a request document once. Any failure that leaves no response
// is returned as a *TransportError; HTTP error statuses are not errors.
func (c *Client) Send(ctx context.Context, doc *parser.Request) (*Response, error) {
	return c.Do(ctx, BuildRequest(doc))
}

func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	log := c.logger.With(zap.String("method", req.Method), zap.String("url", req.URL))

	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	log.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Duration),
		zap.Int("bytes", len(resp.Body)),
	)
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.toHTTP(ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("sending request", logging.Request(&parser.Request{
		Method:  req.Method,
		URL:     req.URL,
		Headers: req.Headers,
		Body:    parser.NewBody(req.Body),
	})...)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	return newResponse(httpResp, body, time.Since(start)), nil
}

// toHTTP builds the net/http request. Request headers override the client's
// defaults and Host goes to the request's Host field.
func (c *Client) toHTTP(ctx context.Context, req *Request) (*http.Request, error) {
	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	for _, headers := range []parser.Headers{c.defaultHeaders, req.Headers} {
		for _, h := range headers {
			if strings.EqualFold(h.Key, "Host") {
				httpReq.Host = h.Value
				continue
			}
			httpReq.Header.Set(h.Key, h.Value)
		}
	}
	return httpReq, nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
