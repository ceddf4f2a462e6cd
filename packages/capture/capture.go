package capture

import (
	"regexp"
	"strings"

	"github.com/snptkdn/htup/packages/http"
	"github.com/tidwall/gjson"
)

// Source is the part of a response a query reads from.
type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
	SourceDuration
)

// Query addresses one value of a response.
type Query struct {
	Source Source
	// Path is a gjson path for SourceBody or a header name for SourceHeader.
	Path string
}

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// ParseQuery reads expressions such as
//
//	status
//	duration
//	header Content-Type
//	body
//	body.items[0].id
//	items.0.id          (shorthand for body.items.0.id)
func ParseQuery(expr string) Query {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "status":
		return Query{Source: SourceStatus}
	case expr == "duration":
		return Query{Source: SourceDuration}
	case expr == "header" || strings.HasPrefix(expr, "header "):
		return Query{Source: SourceHeader, Path: strings.TrimSpace(strings.TrimPrefix(expr, "header"))}
	case expr == "body":
		return Query{Source: SourceBody}
	case strings.HasPrefix(expr, "body.") || strings.HasPrefix(expr, "body["):
		return Query{Source: SourceBody, Path: normalizePath(strings.TrimPrefix(expr, "body"))}
	default:
		return Query{Source: SourceBody, Path: normalizePath(expr)}
	}
}

// normalizePath turns "items[0].id" or ".items[0]" into gjson's "items.0.id".
func normalizePath(path string) string {
	path = bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(path, ".")
}

type Extractor struct {
	response *http.Response
	bodyJSON gjson.Result
	isJSON   bool
}

// NewExtractor parses the body as JSON when it is valid JSON, whatever the
// declared content type.
func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	if gjson.ValidBytes(resp.Body) && len(strings.TrimSpace(string(resp.Body))) > 0 {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
		e.isJSON = true
	}
	return e
}

// IsJSON reports whether the body parsed as JSON.
func (e *Extractor) IsJSON() bool {
	return e.isJSON
}

func (e *Extractor) Extract(q Query) (any, bool) {
	switch q.Source {
	case SourceBody:
		return e.extractFromBody(q.Path)
	case SourceHeader:
		return e.extractFromHeader(q.Path)
	case SourceStatus:
		return e.response.StatusCode, true
	case SourceDuration:
		return e.response.DurationMs(), true
	default:
		return nil, false
	}
}

// Raw returns the JSON text of a body path, for printing objects and arrays
// as they appeared in the response.
func (e *Extractor) Raw(q Query) (string, bool) {
	if q.Source != SourceBody || !e.isJSON {
		return "", false
	}
	if q.Path == "" {
		return e.bodyJSON.Raw, true
	}
	result := e.bodyJSON.Get(q.Path)
	if !result.Exists() {
		return "", false
	}
	return result.Raw, true
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.isJSON {
		if path == "" {
			return e.response.BodyString(), true
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	if name == "" {
		return e.response.Headers, true
	}
	value := e.response.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

// ExtractAll evaluates named query expressions, skipping values that are absent.
func ExtractAll(resp *http.Response, queries map[string]string) map[string]any {
	extractor := NewExtractor(resp)
	results := make(map[string]any)

	for name, expr := range queries {
		if value, ok := extractor.Extract(ParseQuery(expr)); ok {
			results[name] = value
		}
	}

	return results
}
