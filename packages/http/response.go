package http

import (
	"net/http"
	"strings"
	"time"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	// Status is the reason phrase, e.g. "Not Found".
	Status string
	// Headers holds one entry per field; repeated fields are joined with ", ".
	Headers  map[string]string
	Body     []byte
	Duration time.Duration
}

func newResponse(resp *http.Response, body []byte, elapsed time.Duration) *Response {
	headers := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = strings.Join(values, ", ")
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     reasonPhrase(resp),
		Headers:    headers,
		Body:       body,
		Duration:   elapsed,
	}
}

func reasonPhrase(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	// non-standard code: keep whatever the server sent after the number
	_, reason, _ := strings.Cut(resp.Status, " ")
	return reason
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Header looks a field up case-insensitively.
func (r *Response) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// IsJSON is true for application/json and any +json media type.
func (r *Response) IsJSON() bool {
	mediaType, _, _ := strings.Cut(r.ContentType(), ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode/100 == 2
}

func (r *Response) IsClientError() bool {
	return r.StatusCode/100 == 4
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

func (r *Response) Size() int {
	return len(r.Body)
}
