package assertions

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpMatches
	OpExists
	OpNotExists
	OpLength
	OpIncludes
	OpIn
	OpType
	OpSchema
)

var operatorSymbols = [...]string{
	OpEquals:         "==",
	OpNotEquals:      "!=",
	OpGreaterThan:    ">",
	OpGreaterOrEqual: ">=",
	OpLessThan:       "<",
	OpLessOrEqual:    "<=",
	OpContains:       "contains",
	OpNotContains:    "!contains",
	OpStartsWith:     "startsWith",
	OpEndsWith:       "endsWith",
	OpMatches:        "matches",
	OpExists:         "exists",
	OpNotExists:      "!exists",
	OpLength:         "length",
	OpIncludes:       "includes",
	OpIn:             "in",
	OpType:           "type",
	OpSchema:         "schema",
}

// operatorNames maps every accepted spelling to its operator.
var operatorNames = func() map[string]Operator {
	m := map[string]Operator{"equals": OpEquals}
	for op, sym := range operatorSymbols {
		m[sym] = Operator(op)
	}
	return m
}()

func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorSymbols) {
		return "unknown"
	}
	return operatorSymbols[o]
}

// Assertion is one check against a response, e.g. `body.id exists`.
type Assertion struct {
	Subject  string
	Operator Operator
	Expected any
}

func (a *Assertion) String() string {
	if a.Operator == OpExists || a.Operator == OpNotExists {
		return a.Subject + " " + a.Operator.String()
	}
	return fmt.Sprintf("%s %s %v", a.Subject, a.Operator, a.Expected)
}

// ExpectStatus checks the status code.
func ExpectStatus(code int) *Assertion {
	return &Assertion{Subject: "status", Operator: OpEquals, Expected: code}
}

// ExpectSchema validates the whole body against a JSON schema file.
func ExpectSchema(path string) *Assertion {
	return &Assertion{Subject: "body", Operator: OpSchema, Expected: path}
}

// Parse reads `<subject> <operator> [expected]`. The subject is a capture
// query, so `header Content-Type contains json` and `body.items length 3` both
// work.
func Parse(expr string) (*Assertion, error) {
	fields := strings.Fields(expr)
	if len(fields) < 2 {
		return nil, fmt.Errorf("invalid check %q: expected <subject> <operator> [value]", expr)
	}

	start := 1
	if fields[0] == "header" {
		start = 2
	}
	for i := start; i < len(fields); i++ {
		op, ok := operatorNames[fields[i]]
		if !ok {
			continue
		}
		a := &Assertion{
			Subject:  strings.Join(fields[:i], " "),
			Operator: op,
		}
		rest := strings.TrimSpace(afterField(expr, i))
		switch op {
		case OpExists, OpNotExists:
			if rest != "" {
				return nil, fmt.Errorf("invalid check %q: %s takes no value", expr, op)
			}
		default:
			if rest == "" {
				return nil, fmt.Errorf("invalid check %q: missing value after %s", expr, op)
			}
			a.Expected = parseValue(rest)
		}
		return a, nil
	}
	return nil, fmt.Errorf("invalid check %q: no operator found", expr)
}

// afterField returns the text following the n-th whitespace separated field,
// keeping the original spacing of the remainder.
func afterField(s string, n int) string {
	rest := s
	for i := 0; i <= n; i++ {
		rest = strings.TrimLeft(rest, " \t")
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return ""
		}
		rest = rest[idx:]
	}
	return rest
}

func parseValue(s string) any {
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		return s[1 : len(s)-1]
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if strings.HasPrefix(s, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			return arr
		}
	}
	return s
}
