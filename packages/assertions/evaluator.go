package assertions

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/snptkdn/htup/packages/capture"
	"github.com/snptkdn/htup/packages/http"
	"github.com/xeipuuv/gojsonschema"
)

// Result is the outcome of one Assertion. Message is empty when it passed.
type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
}

// Evaluator checks assertions against a single response.
type Evaluator struct {
	response  *http.Response
	extractor *capture.Extractor
	baseDir   string
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithBaseDir resolves relative schema paths against dir.
func WithBaseDir(dir string) EvaluatorOption {
	return func(e *Evaluator) {
		e.baseDir = dir
	}
}

func NewEvaluator(resp *http.Response, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		response:  resp,
		extractor: capture.NewExtractor(resp),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateAll runs every assertion against the response.
func EvaluateAll(resp *http.Response, list []*Assertion, opts ...EvaluatorOption) []*Result {
	e := NewEvaluator(resp, opts...)
	results := make([]*Result, 0, len(list))
	for _, a := range list {
		results = append(results, e.Evaluate(a))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []*Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func (e *Evaluator) Evaluate(a *Assertion) *Result {
	actual, _ := e.extractor.Extract(capture.ParseQuery(a.Subject))
	r := &Result{
		Subject:  a.Subject,
		Operator: a.Operator.String(),
		Expected: a.Expected,
		Actual:   actual,
	}

	var err error
	if a.Operator == OpSchema {
		err = e.validateSchema(a.Expected)
	} else if check, ok := checks[a.Operator]; ok {
		err = check(actual, a.Expected)
	} else {
		err = fmt.Errorf("unknown operator: %v", a.Operator)
	}

	if a.Operator == OpLength {
		r.Actual = lengthOf(actual)
	}
	r.Passed = err == nil
	if err != nil {
		r.Message = err.Error()
	}
	return r
}

type checkFunc func(actual, expected any) error

var checks = map[Operator]checkFunc{
	OpEquals:         checkEquals,
	OpNotEquals:      negate(checkEquals, "expected not to equal %v"),
	OpGreaterThan:    ordered(">", func(a, b float64) bool { return a > b }),
	OpGreaterOrEqual: ordered(">=", func(a, b float64) bool { return a >= b }),
	OpLessThan:       ordered("<", func(a, b float64) bool { return a < b }),
	OpLessOrEqual:    ordered("<=", func(a, b float64) bool { return a <= b }),
	OpContains:       textual("contain", strings.Contains),
	OpNotContains:    negate(textual("contain", strings.Contains), "expected not to contain %v"),
	OpStartsWith:     textual("start with", strings.HasPrefix),
	OpEndsWith:       textual("end with", strings.HasSuffix),
	OpMatches:        checkMatches,
	OpExists:         checkExists,
	OpNotExists:      negate(checkExists, "expected not to exist"),
	OpLength:         checkLength,
	OpIncludes:       checkIncludes,
	OpIn:             checkIn,
	OpType:           checkType,
}

func negate(fn checkFunc, format string) checkFunc {
	return func(actual, expected any) error {
		if fn(actual, expected) != nil {
			return nil
		}
		if strings.Contains(format, "%") {
			return fmt.Errorf(format, expected)
		}
		return errors.New(format)
	}
}

func ordered(symbol string, cmp func(a, b float64) bool) checkFunc {
	return func(actual, expected any) error {
		a, aok := number(actual)
		b, bok := number(expected)
		if !aok || !bok {
			return fmt.Errorf("cannot compare non-numeric values: %v %s %v", actual, symbol, expected)
		}
		if !cmp(a, b) {
			return fmt.Errorf("expected %v %s %v", actual, symbol, expected)
		}
		return nil
	}
}

func textual(verb string, match func(s, sub string) bool) checkFunc {
	return func(actual, expected any) error {
		if !match(fmt.Sprint(actual), fmt.Sprint(expected)) {
			return fmt.Errorf("expected '%v' to %s '%v'", actual, verb, expected)
		}
		return nil
	}
}

// checkEquals treats values as equal when they are deeply equal, numerically
// equal, or print the same, so `status == 200` matches a JSON float 200.
func checkEquals(actual, expected any) error {
	if reflect.DeepEqual(actual, expected) {
		return nil
	}
	if a, ok := number(actual); ok {
		if b, ok := number(expected); ok && a == b {
			return nil
		}
	}
	if fmt.Sprint(actual) == fmt.Sprint(expected) {
		return nil
	}
	return fmt.Errorf("expected %v, got %v", expected, actual)
}

func checkMatches(actual, expected any) error {
	pattern := strings.TrimSuffix(strings.TrimPrefix(fmt.Sprint(expected), "/"), "/")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %v", err)
	}
	if !re.MatchString(fmt.Sprint(actual)) {
		return fmt.Errorf("expected '%v' to match /%v/", actual, pattern)
	}
	return nil
}

func checkExists(actual, _ any) error {
	if actual == nil {
		return errors.New("expected to exist")
	}
	return nil
}

func checkLength(actual, expected any) error {
	want, ok := number(expected)
	if !ok || want != math.Trunc(want) {
		return fmt.Errorf("expected length must be a number, got %v", expected)
	}
	got := lengthOf(actual)
	if got < 0 {
		return fmt.Errorf("cannot get length of %T", actual)
	}
	if got != int(want) {
		return fmt.Errorf("expected length %d, got %d", int(want), got)
	}
	return nil
}

func checkIncludes(actual, expected any) error {
	items, ok := actual.([]any)
	if !ok {
		return fmt.Errorf("expected array, got %T", actual)
	}
	for _, item := range items {
		if checkEquals(item, expected) == nil {
			return nil
		}
	}
	return fmt.Errorf("expected array to include %v", expected)
}

func checkIn(actual, expected any) error {
	options, ok := expected.([]any)
	if !ok {
		return fmt.Errorf("expected array for 'in' operator, got %T", expected)
	}
	for _, opt := range options {
		if checkEquals(actual, opt) == nil {
			return nil
		}
	}
	return fmt.Errorf("expected %v to be in %v", actual, expected)
}

func checkType(actual, expected any) error {
	want := fmt.Sprint(expected)
	if got := jsonType(actual); got != want {
		return fmt.Errorf("expected type %s, got %s", want, got)
	}
	return nil
}

// jsonType names a value the way JSON does.
func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := number(v); ok {
		return "number"
	}
	return reflect.TypeOf(v).String()
}

// lengthOf returns -1 for values without a length.
func lengthOf(v any) int {
	if v == nil {
		return -1
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	default:
		return -1
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// validateSchema checks the raw body so numbers and key order reach the
// validator exactly as the server sent them.
func (e *Evaluator) validateSchema(expected any) error {
	path := fmt.Sprint(expected)
	if !filepath.IsAbs(path) && e.baseDir != "" {
		path = filepath.Join(e.baseDir, path)
	}
	schema, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}
	if !json.Valid(e.response.Body) {
		return errors.New("response body is not JSON")
	}

	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(e.response.Body))
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}
