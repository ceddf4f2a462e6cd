package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/snptkdn/htup/packages/assertions"
	"github.com/snptkdn/htup/packages/workspace"
)

// JSONOutput is the document written by JSONFormatter.Flush.
type JSONOutput struct {
	Summary    JSONSummary     `json:"summary"`
	Executions []JSONExecution `json:"executions"`
}

type JSONSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// JSONExecution represents one executed request
type JSONExecution struct {
	Project   string          `json:"project,omitempty"`
	ID        string          `json:"id,omitempty"`
	StartedAt string          `json:"startedAt,omitempty"`
	Passed    bool            `json:"passed"`
	Error     string          `json:"error,omitempty"`
	Request   *JSONRequest    `json:"request,omitempty"`
	Response  *JSONResponse   `json:"response,omitempty"`
	Checks    []JSONAssertion `json:"checks,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONResponse represents response details. JSON bodies are embedded as
// values, anything else as a string.
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
	Size       int               `json:"size"`
	Duration   float64           `json:"duration"`
}

// JSONAssertion represents a check result
type JSONAssertion struct {
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// JSONFormatter collects executions and writes them as one document on Flush.
type JSONFormatter struct {
	writer     io.Writer
	executions []JSONExecution
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:     os.Stdout,
		executions: make([]JSONExecution, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		if w != nil {
			f.writer = w
		}
	}
}

func (f *JSONFormatter) FormatExecution(exec *workspace.Execution, checks []*assertions.Result) {
	out := JSONExecution{
		Project: exec.Project,
		ID:      exec.ID,
		Passed:  exec.Err == nil && assertions.AllPassed(checks),
	}

	if !exec.StartedAt.IsZero() {
		out.StartedAt = exec.StartedAt.Format(time.RFC3339)
	}

	if exec.Err != nil {
		out.Error = exec.Err.Error()
	}

	if exec.Request != nil {
		out.Request = &JSONRequest{
			Method:  exec.Request.Method,
			URL:     exec.Request.URL,
			Headers: exec.Request.Headers.Map(),
		}
	}

	if resp := exec.Response; resp != nil {
		out.Response = &JSONResponse{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Headers:    resp.Headers,
			Size:       resp.Size(),
			Duration:   float64(resp.Duration.Milliseconds()),
		}
		if len(resp.Body) > 0 {
			if json.Valid(resp.Body) {
				out.Response.Body = json.RawMessage(resp.Body)
			} else {
				out.Response.Body = resp.BodyString()
			}
		}
	}

	if len(checks) > 0 {
		out.Checks = make([]JSONAssertion, len(checks))
		for i, c := range checks {
			out.Checks[i] = JSONAssertion{
				Subject:  c.Subject,
				Operator: c.Operator,
				Expected: c.Expected,
				Actual:   c.Actual,
				Passed:   c.Passed,
				Message:  c.Message,
			}
		}
	}

	f.executions = append(f.executions, out)
}

// FormatError records an error that happened outside any execution; it is
// reported as a failed entry so the document stays valid JSON.
func (f *JSONFormatter) FormatError(err error) {
	f.executions = append(f.executions, JSONExecution{Error: err.Error()})
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush() error {
	var passed, failed int
	for _, e := range f.executions {
		if e.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		Summary: JSONSummary{
			Total:  len(f.executions),
			Passed: passed,
			Failed: failed,
		},
		Executions: f.executions,
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return err
	}
	f.executions = make([]JSONExecution, 0)
	return nil
}
