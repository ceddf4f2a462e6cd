package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Layout(t *testing.T) {
	req := NewRequest("POST", "https://x")
	req.Headers.Set("Content-Type", "application/json")
	req.Headers.Set("X-Id", "1")
	req.Body = NewBody("{\n  \"a\": 1\n}")

	want := "POST https://x\nContent-Type: application/json\nX-Id: 1\n\n{\n  \"a\": 1\n}"
	assert.Equal(t, want, Encode(req))
}

func TestEncode_NoBodyStillWritesSeparator(t *testing.T) {
	assert.Equal(t, "GET https://x\n\n", Encode(NewRequest("GET", "https://x")))
}

func TestEncode_UpdatedHeaderKeepsPosition(t *testing.T) {
	req := NewRequest("GET", "https://x")
	req.Headers.Set("A", "1")
	req.Headers.Set("B", "2")
	req.Headers.Set("A", "9")

	assert.Equal(t, "GET https://x\nA: 9\nB: 2\n\n", Encode(req))
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteTo(&buf, NewRequest("GET", "https://x"))
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "GET https://x\n\n", buf.String())
}

func TestEncode_RoundTrip(t *testing.T) {
	withHeaders := NewRequest("PATCH", "https://api.example.com/items/1?x=y")
	withHeaders.Headers.Set("Authorization", "Bearer a:b")
	withHeaders.Headers.Set("accept", "*/*")
	withHeaders.Headers.Set("Accept", "text/plain")

	withBody := NewRequest("POST", "https://x")
	withBody.Headers.Set("Content-Type", "application/json")
	withBody.Body = NewBody("{\n  \"key\": \"value\"\n}")

	leadingBlank := NewRequest("POST", "https://x")
	leadingBlank.Body = NewBody("\n\nafter two blank lines")

	tests := []struct {
		name string
		req  *Request
	}{
		{"bare", NewRequest("GET", "https://x")},
		{"headers", withHeaders},
		{"body", withBody},
		{"body starting with blank lines", leadingBlank},
		{"custom method", NewRequest("PROPFIND", "http://localhost:8080/dav")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.req))
			require.NoError(t, err)
			assert.Equal(t, tt.req, got)
		})
	}
}

func TestEncode_EmptyBodyDecodesAsAbsent(t *testing.T) {
	req := NewRequest("POST", "https://x")
	req.Body = NewBody("")

	got, err := Decode(Encode(req))
	require.NoError(t, err)
	assert.Nil(t, got.Body)
}

func TestValidate(t *testing.T) {
	withHeader := func(key, value string) *Request {
		req := NewRequest("GET", "https://x")
		req.Headers = Headers{{Key: key, Value: value}}
		return req
	}

	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{"valid", NewRequest("patch", "{{base}}/users"), nil},
		{"missing method", NewRequest("", "https://x"), ErrMissingMethod},
		{"missing url", NewRequest("GET", ""), ErrMissingURL},
		{"two word method", NewRequest("GET FOO", "https://x"), ErrInvalidRequestLine},
		{"padded method", NewRequest(" GET", "https://x"), ErrInvalidRequestLine},
		{"url with space", NewRequest("GET", "https://x/a b"), ErrInvalidRequestLine},
		{"header key with colon", withHeader("X:Y", "1"), ErrInvalidHeader},
		{"empty header key", withHeader(" ", "1"), ErrInvalidHeader},
		{"header value with newline", withHeader("X", "a\nb"), ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.want == nil {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
