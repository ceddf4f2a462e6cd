package parser

import (
	"errors"
	"strconv"
	"strings"
)

// Request is a single request document: one .http file.
type Request struct {
	Method  string
	URL     string
	Headers Headers
	Body    *Body
}

// NewRequest returns a request with no headers and no body.
func NewRequest(method, url string) *Request {
	return &Request{Method: method, URL: url}
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	c := &Request{
		Method: r.Method,
		URL:    r.URL,
	}
	if r.Headers != nil {
		c.Headers = make(Headers, len(r.Headers))
		copy(c.Headers, r.Headers)
	}
	if r.Body != nil {
		c.Body = &Body{Raw: r.Body.Raw}
	}
	return c
}

// Expand returns a copy with fn applied to the URL, every header value and the body.
// Method and header names are left alone.
func (r *Request) Expand(fn func(string) string) *Request {
	c := r.Clone()
	c.URL = fn(c.URL)
	for i := range c.Headers {
		c.Headers[i].Value = fn(c.Headers[i].Value)
	}
	if c.Body != nil {
		c.Body.Raw = fn(c.Body.Raw)
	}
	return c
}

// BodyString returns the raw body or "" when the request has none.
func (r *Request) BodyString() string {
	if r.Body == nil {
		return ""
	}
	return r.Body.Raw
}

type Header struct {
	Key   string
	Value string
}

// Headers is an ordered set of headers with unique, case-sensitive names.
type Headers []Header

// Set replaces the value of an existing header in place or appends a new one.
func (h *Headers) Set(key, value string) {
	for i := range *h {
		if (*h)[i].Key == key {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, Header{Key: key, Value: value})
}

func (h Headers) Get(key string) (string, bool) {
	for _, hdr := range h {
		if hdr.Key == key {
			return hdr.Value, true
		}
	}
	return "", false
}

// Lookup is Get with case-insensitive matching, for protocol-level checks
// such as "is a Content-Type already present".
func (h Headers) Lookup(key string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Key, key) {
			return hdr.Value, true
		}
	}
	return "", false
}

func (h *Headers) Del(key string) {
	for i := range *h {
		if (*h)[i].Key == key {
			*h = append((*h)[:i], (*h)[i+1:]...)
			return
		}
	}
}

func (h Headers) Len() int {
	return len(h)
}

// Map returns the headers as a map. Ordering is lost.
func (h Headers) Map() map[string]string {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		m[hdr.Key] = hdr.Value
	}
	return m
}

type Body struct {
	Raw string
}

func NewBody(raw string) *Body {
	return &Body{Raw: raw}
}

type BodyType int

const (
	BodyNone BodyType = iota
	BodyJSON
	BodyForm
	BodyRaw
	BodyXML
)

func (t BodyType) String() string {
	switch t {
	case BodyJSON:
		return "json"
	case BodyForm:
		return "form"
	case BodyXML:
		return "xml"
	case BodyRaw:
		return "raw"
	default:
		return "none"
	}
}

// Type guesses the body encoding from its content.
func (b *Body) Type() BodyType {
	if b == nil {
		return BodyNone
	}
	trimmed := strings.TrimSpace(b.Raw)
	switch {
	case trimmed == "":
		return BodyNone
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return BodyJSON
	case strings.HasPrefix(trimmed, "<"):
		return BodyXML
	case !strings.Contains(trimmed, "\n") && strings.Contains(trimmed, "=") && !strings.ContainsAny(trimmed, " \t"):
		return BodyForm
	default:
		return BodyRaw
	}
}

var (
	ErrMissingMethod = errors.New("missing method")
	ErrMissingURL    = errors.New("missing url")

	// ErrInvalidRequestLine reports a method or URL containing whitespace.
	ErrInvalidRequestLine = errors.New("method and url must be single words")
	ErrInvalidHeader      = errors.New("invalid header")
)

type ParseError struct {
	File    string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.File != "" {
		return e.File + ":" + strconv.Itoa(e.Line) + ": " + msg
	}
	return "line " + strconv.Itoa(e.Line) + ": " + msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
