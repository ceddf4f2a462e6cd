package http

import (
	"github.com/snptkdn/htup/packages/core/parser"
)

// Request is the wire-level form of a request document.
type Request struct {
	Method  string
	URL     string
	Headers parser.Headers
	Body    string
}

var defaultContentTypes = map[parser.BodyType]string{
	parser.BodyJSON: "application/json",
	parser.BodyForm: "application/x-www-form-urlencoded",
	parser.BodyXML:  "application/xml",
}

// BuildRequest converts a document. A JSON, form or XML body without an
// explicit Content-Type gets one.
func BuildRequest(doc *parser.Request) *Request {
	r := &Request{Method: doc.Method, URL: doc.URL}
	for _, h := range doc.Headers {
		r.Headers.Set(h.Key, h.Value)
	}
	if doc.Body == nil {
		return r
	}

	r.Body = doc.Body.Raw
	if _, ok := r.Headers.Lookup("Content-Type"); !ok {
		if ct, ok := defaultContentTypes[doc.Body.Type()]; ok {
			r.Headers.Set("Content-Type", ct)
		}
	}
	return r
}
