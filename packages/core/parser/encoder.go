package parser

import (
	"fmt"
	"io"
	"strings"
)

// Encode renders a request in the text form read by Parse. A blank line always
// separates the head from the body, even when there is no body.
func Encode(req *Request) string {
	var sb strings.Builder
	_, _ = WriteTo(&sb, req)
	return sb.String()
}

// WriteTo writes the encoded request to w.
func WriteTo(w io.Writer, req *Request) (int64, error) {
	var sb strings.Builder
	sb.WriteString(req.Method)
	sb.WriteByte(' ')
	sb.WriteString(req.URL)
	sb.WriteByte('\n')
	for _, h := range req.Headers {
		sb.WriteString(h.Key)
		sb.WriteString(": ")
		sb.WriteString(h.Value)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	if req.Body != nil {
		sb.WriteString(req.Body.Raw)
	}

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// Validate reports a document whose encoding would not parse back into the
// same request line and headers. Line is the line the encoding would put the
// offending part on.
func Validate(req *Request) *ParseError {
	switch {
	case req.Method == "":
		return &ParseError{Line: 1, Err: ErrMissingMethod}
	case req.URL == "":
		return &ParseError{Line: 1, Err: ErrMissingURL}
	case len(strings.Fields(req.Method)) != 1 || strings.TrimSpace(req.Method) != req.Method,
		len(strings.Fields(req.URL)) != 1 || strings.TrimSpace(req.URL) != req.URL:
		return &ParseError{Line: 1, Err: ErrInvalidRequestLine}
	}
	for i, h := range req.Headers {
		if strings.TrimSpace(h.Key) == "" || strings.ContainsAny(h.Key, ":\r\n") || strings.ContainsAny(h.Value, "\r\n") {
			return &ParseError{Line: i + 2, Message: fmt.Sprintf("invalid header %q", h.Key), Err: ErrInvalidHeader}
		}
	}
	return nil
}
