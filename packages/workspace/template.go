package workspace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/snptkdn/htup/packages/core/parser"
)

const (
	DefaultMethod = "GET"
	DefaultURL    = "https://example.com"
	// JSONPlaceholder is the body of a request created from the JSON template.
	JSONPlaceholder = "{\n  \"key\": \"value\"\n}"
)

// Methods offered when creating a request.
var Methods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

// BodyKind selects the template of a new request.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyJSON
)

// BodyKinds offered when creating a request.
var BodyKinds = []BodyKind{BodyEmpty, BodyJSON}

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "JSON"
	default:
		return "Empty"
	}
}

func ParseBodyKind(s string) (BodyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "empty", "none":
		return BodyEmpty, nil
	case "json":
		return BodyJSON, nil
	default:
		return BodyEmpty, fmt.Errorf("unknown body template %q (expected empty or json)", s)
	}
}

// ErrInvalidMethod reports a method that is not a single word.
var ErrInvalidMethod = errors.New("method must be a single word")

// ValidateMethod accepts any single word, in any case; "get" stays "get".
func ValidateMethod(method string) error {
	if len(strings.Fields(method)) != 1 || strings.TrimSpace(method) != method {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	return nil
}

// NewFromTemplate builds the document a new request starts from.
func NewFromTemplate(method string, kind BodyKind) *parser.Request {
	if method == "" {
		method = DefaultMethod
	}
	req := parser.NewRequest(method, DefaultURL)
	if kind == BodyJSON {
		req.Headers.Set("Content-Type", "application/json")
		req.Body = parser.NewBody(JSONPlaceholder)
	}
	return req
}
