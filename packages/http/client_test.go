package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendGET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Send(context.Background(), parser.NewRequest("GET", server.URL+"/test"))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "application/json", resp.Header("Content-Type"))
	assert.Equal(t, "a, b", resp.Header("x-multi"))
	assert.Contains(t, resp.BodyString(), "hello")
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestClient_SendPOSTWithHeadersAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("X-Trace"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name": "test"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	doc := parser.NewRequest("POST", server.URL)
	doc.Headers.Set("Content-Type", "application/json")
	doc.Headers.Set("X-Trace", "abc")
	doc.Body = parser.NewBody(`{"name": "test"}`)

	resp, err := NewClient().Send(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "Created", resp.Status)
	assert.Contains(t, resp.BodyString(), "123")
}

func TestClient_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), parser.NewRequest("GET", server.URL))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Not Found", resp.Status)
	assert.True(t, resp.IsClientError())
}

func TestClient_DefaultsJSONContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	doc := parser.NewRequest("PUT", server.URL)
	doc.Body = parser.NewBody(`{"a": 1}`)

	_, err := NewClient().Send(context.Background(), doc)
	require.NoError(t, err)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient().Send(context.Background(), parser.NewRequest("GET", url))
	require.Error(t, err)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "GET", terr.Method)
	assert.Equal(t, url, terr.URL)
}

func TestClient_InvalidURLIsTransportError(t *testing.T) {
	_, err := NewClient().Send(context.Background(), parser.NewRequest("GET", "example.com/no-scheme"))

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}

func TestClient_InvalidMethodIsTransportError(t *testing.T) {
	_, err := NewClient().Send(context.Background(), parser.NewRequest("BAD METHOD", "http://localhost"))

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient().Send(ctx, parser.NewRequest("GET", server.URL))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_WithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Send(context.Background(), parser.NewRequest("GET", server.URL))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestClient_WithDefaultHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeader("Authorization", "test-token"))
	resp, err := client.Send(context.Background(), parser.NewRequest("GET", server.URL))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_RequestHeaderOverridesDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "from-doc", r.Header.Get("X-Client"))
		assert.Equal(t, "kept", r.Header.Get("X-Default"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeaders(map[string]string{"X-Client": "default", "X-Default": "kept"}))
	doc := parser.NewRequest("GET", server.URL)
	doc.Headers.Set("x-client", "from-doc")

	_, err := client.Send(context.Background(), doc)
	require.NoError(t, err)
}

func TestClient_FollowRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`final`))
			return
		}
		redirectCount++
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(true))
	resp, err := client.Send(context.Background(), parser.NewRequest("GET", server.URL+"/redirect"))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "final", resp.BodyString())
	assert.Equal(t, 1, redirectCount)
}

func TestClient_NoFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(false))
	resp, err := client.Send(context.Background(), parser.NewRequest("GET", server.URL+"/redirect"))

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "Found", resp.Status)
}

func TestClient_MaxRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirectCount++
		// Infinite redirect loop
		http.Redirect(w, r, "/redirect", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithMaxRedirects(3))
	resp, err := client.Send(context.Background(), parser.NewRequest("GET", server.URL+"/redirect"))

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
	assert.LessOrEqual(t, redirectCount, 4)
}

func TestBuildRequest(t *testing.T) {
	doc := parser.NewRequest("POST", "https://x")
	doc.Body = parser.NewBody("a=1&b=2")

	req := BuildRequest(doc)
	ct, ok := req.Headers.Lookup("Content-Type")
	require.True(t, ok)
	assert.Equal(t, "application/x-www-form-urlencoded", ct)
	assert.Equal(t, "a=1&b=2", req.Body)
	assert.Empty(t, doc.Headers)

	// an explicit content type is kept
	doc.Headers.Set("content-type", "text/plain")
	req = BuildRequest(doc)
	assert.Equal(t, parser.Headers{{Key: "content-type", Value: "text/plain"}}, req.Headers)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "file scheme",
			url:     "file:///etc/passwd",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResponse_IsSuccess(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   bool
	}{
		{200, true},
		{201, true},
		{204, true},
		{299, true},
		{300, false},
		{400, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.statusCode}
		assert.Equal(t, tt.expected, resp.IsSuccess(), "StatusCode: %d", tt.statusCode)
	}
}

func TestResponse_IsJSON(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"application/problem+json", true},
		{"text/html", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		resp := &Response{Headers: map[string]string{"Content-Type": tt.contentType}}
		assert.Equal(t, tt.expected, resp.IsJSON(), "Content-Type: %s", tt.contentType)
	}
}

func TestClient_NonStandardStatusKeepsServerReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(599)
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), parser.NewRequest("GET", server.URL))
	require.NoError(t, err)
	assert.Equal(t, 599, resp.StatusCode)
	assert.Equal(t, "status code 599", resp.Status)
}

func TestClient_HostHeaderSetsRequestHost(t *testing.T) {
	var host string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host = r.Host
	}))
	defer server.Close()

	doc := parser.NewRequest("GET", server.URL)
	doc.Headers.Set("Host", "api.internal")
	_, err := NewClient().Send(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "api.internal", host)
}
