// Package proxy provides a reverse proxy that records the requests passing
// through it as htup request documents.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/store"
	"go.uber.org/zap"
)

// DefaultSensitiveHeaders are replaced by {{NAME}} placeholders when recorded.
var DefaultSensitiveHeaders = []string{"Authorization", "Cookie", "X-Api-Key", "Api-Key"}

// skipHeaders are transport or proxy headers that do not belong in a document.
var skipHeaders = map[string]bool{
	"Accept-Encoding":   true,
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Proxy-Connection":  true,
	"Te":                true,
	"Trailer":           true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"X-Forwarded-For":   true,
	"X-Forwarded-Host":  true,
	"X-Forwarded-Proto": true,
}

// Recording is one request seen by the proxy and the status it got back.
type Recording struct {
	Timestamp  time.Time
	ID         string
	Request    *parser.Request
	StatusCode int
	Duration   time.Duration
}

// Recorder is an HTTP proxy that records requests
type Recorder struct {
	addr        string
	target      *url.URL
	recordings  []Recording
	mutex       sync.Mutex
	exclude     []string
	sanitize    []string
	deduplicate bool
	seen        map[string]bool
	logger      *zap.Logger
}

// Option is a functional option for Recorder
type Option func(*Recorder)

// WithAddr sets the listen address, e.g. ":8080" or "127.0.0.1:0".
func WithAddr(addr string) Option {
	return func(r *Recorder) {
		r.addr = addr
	}
}

// WithExclude sets path prefixes that are proxied but not recorded.
func WithExclude(paths []string) Option {
	return func(r *Recorder) {
		r.exclude = paths
	}
}

// WithSanitize replaces the list of headers to turn into placeholders.
func WithSanitize(headers []string) Option {
	return func(r *Recorder) {
		r.sanitize = headers
	}
}

// WithDeduplicate records each method and path only once.
func WithDeduplicate(enabled bool) Option {
	return func(r *Recorder) {
		r.deduplicate = enabled
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecorder creates a recording proxy in front of targetURL.
func NewRecorder(targetURL string, opts ...Option) (*Recorder, error) {
	if targetURL == "" {
		return nil, fmt.Errorf("target URL is required")
	}
	target, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" || target.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: want http(s)://host", targetURL)
	}

	r := &Recorder{
		addr:       ":8080",
		target:     target,
		recordings: make([]Recording, 0),
		sanitize:   DefaultSensitiveHeaders,
		seen:       make(map[string]bool),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Handler returns the recording reverse proxy.
func (r *Recorder) Handler() http.Handler {
	target := r.target
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.Host = target.Host
		},
		ModifyResponse: func(resp *http.Response) error {
			r.recordResponse(resp)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, req *http.Request, err error) {
			r.logger.Warn("upstream request failed", zap.String("path", req.URL.Path), zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return r.wrap(proxy)
}

// ListenAndServe serves the proxy until ctx is cancelled. ready, when not nil,
// receives the bound address once the listener is open.
func (r *Recorder) ListenAndServe(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.addr, err)
	}

	server := &http.Server{
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	r.logger.Info("recording proxy started", zap.String("addr", ln.Addr().String()), zap.String("target", r.target.String()))
	if ready != nil {
		ready(ln.Addr().String())
	}

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type recordingKey struct{}

func (r *Recorder) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.shouldExclude(req.URL.Path) {
			r.logger.Debug("excluded", zap.String("method", req.Method), zap.String("path", req.URL.Path))
			next.ServeHTTP(w, req)
			return
		}

		var bodyBytes []byte
		if req.Body != nil {
			bodyBytes, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		recording := &Recording{
			Timestamp: time.Now(),
			Request:   r.toRequest(req, bodyBytes),
		}
		recording.ID = store.SuggestID(req.Method, recording.Request.URL)

		ctx := context.WithValue(req.Context(), recordingKey{}, recording)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// toRequest builds the document for an incoming request, pointed at the
// target instead of the proxy.
func (r *Recorder) toRequest(req *http.Request, body []byte) *parser.Request {
	u := *r.target
	u.Path = singleJoiningSlash(r.target.Path, req.URL.Path)
	u.RawQuery = req.URL.RawQuery

	doc := parser.NewRequest(req.Method, u.String())

	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		values := req.Header[key]
		if len(values) == 0 || skipHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		if r.isSensitive(key) {
			doc.Headers.Set(key, Placeholder(key))
			continue
		}
		doc.Headers.Set(key, strings.Join(values, ", "))
	}

	if len(body) > 0 {
		doc.Body = parser.NewBody(string(body))
	}
	return doc
}

func (r *Recorder) recordResponse(resp *http.Response) {
	recording, ok := resp.Request.Context().Value(recordingKey{}).(*Recording)
	if !ok {
		return
	}
	recording.StatusCode = resp.StatusCode
	recording.Duration = time.Since(recording.Timestamp)

	method := recording.Request.Method
	path := resp.Request.URL.Path

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.deduplicate {
		key := method + ":" + path
		if r.seen[key] {
			r.logger.Debug("skipped duplicate", zap.String("method", method), zap.String("path", path))
			return
		}
		r.seen[key] = true
	}

	r.recordings = append(r.recordings, *recording)
	r.logger.Info("recorded",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", recording.Duration),
	)
}

func (r *Recorder) shouldExclude(path string) bool {
	for _, exclude := range r.exclude {
		if strings.HasPrefix(path, exclude) {
			return true
		}
	}
	return false
}

func (r *Recorder) isSensitive(key string) bool {
	for _, s := range r.sanitize {
		if strings.EqualFold(key, s) {
			return true
		}
	}
	return false
}

// Placeholder returns the variable reference a sensitive header value is
// replaced with, e.g. "{{X_API_KEY}}".
func Placeholder(header string) string {
	return "{{" + strings.ToUpper(strings.ReplaceAll(header, "-", "_")) + "}}"
}

// GetRecordings returns all recorded requests
func (r *Recorder) GetRecordings() []Recording {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	result := make([]Recording, len(r.recordings))
	copy(result, r.recordings)
	return result
}

// Clear clears all recordings
func (r *Recorder) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.recordings = make([]Recording, 0)
	r.seen = make(map[string]bool)
}

func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
