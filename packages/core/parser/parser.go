package parser

import (
	"os"
	"strings"
)

// ParseFile reads and parses a request document from disk. Parse errors carry
// the path in their File field.
func ParseFile(path string) (*Request, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

// Decode parses text with no file name attached to errors.
func Decode(text string) (*Request, error) {
	return Parse(text, "")
}

// Parse decodes the text form of a request document:
//
//	METHOD URL
//	Name: Value
//	...
//	<blank line>
//	body
//
// Only the first two tokens of the request line are used. Header lines without a
// colon are dropped and a repeated header name keeps the last value. Everything
// after the first whitespace-only line is the body, joined with "\n".
func Parse(input, filename string) (*Request, error) {
	lines := splitLines(input)
	if len(lines) == 0 {
		return nil, &ParseError{File: filename, Line: 1, Message: "empty file", Err: ErrMissingMethod}
	}

	fields := strings.Fields(lines[0])
	switch len(fields) {
	case 0:
		return nil, &ParseError{File: filename, Line: 1, Err: ErrMissingMethod}
	case 1:
		return nil, &ParseError{File: filename, Line: 1, Err: ErrMissingURL}
	}

	req := NewRequest(fields[0], fields[1])

	rest := lines[1:]
	for i, line := range rest {
		if strings.TrimSpace(line) == "" {
			if body := rest[i+1:]; len(body) > 0 {
				req.Body = NewBody(strings.Join(body, "\n"))
			}
			break
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Headers.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	return req, nil
}

// splitLines splits on "\n" without producing a trailing empty line for a
// terminating newline, and strips a trailing "\r" from every line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
