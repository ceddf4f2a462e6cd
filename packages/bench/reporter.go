package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Reporter prints run summaries as text or JSON.
type Reporter struct {
	writer io.Writer
}

type ReporterOption func(*Reporter)

func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		if w != nil {
			r.writer = w
		}
	}
}

func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{writer: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	boldText  = color.New(color.Bold)
	greenText = color.New(color.FgGreen)
	redText   = color.New(color.FgRed)
	cyanText  = color.New(color.FgCyan)
	plainText = color.New(color.Reset)
)

// Summary prints a human readable report headed by title.
func (r *Reporter) Summary(title string, s *Summary) {
	w := r.writer
	fmt.Fprintln(w)
	boldText.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("─", 40))

	r.row("Duration", plainText, formatDuration(s.Duration), "")
	r.row("Total", boldText, humanize.Comma(s.Total), fmt.Sprintf(" requests (%.1f req/s)", s.RPS))
	r.row("Success", greenText, humanize.Comma(s.Success), fmt.Sprintf(" (%.1f%%)", s.SuccessRate*100))
	r.row("Failed", alarm(s.Failed), humanize.Comma(s.Failed), "")
	r.row("Errors", alarm(s.Errors), humanize.Comma(s.Errors), "")

	if len(s.StatusCodes) > 0 {
		fmt.Fprintln(w)
		boldText.Fprintln(w, "STATUS CODES")
		for _, sc := range s.StatusCodes {
			statusColor(sc.Code).Fprintf(w, "  %d", sc.Code)
			fmt.Fprintf(w, "  %s\n", humanize.Comma(sc.Count))
		}
	}

	fmt.Fprintln(w)
	boldText.Fprintln(w, "LATENCY (ms)")
	fmt.Fprintf(w, "  p50: %-6s | p95: %-6s | p99: %-6s | max: %s\n",
		formatLatencyMs(s.P50), formatLatencyMs(s.P95), formatLatencyMs(s.P99), formatLatencyMs(s.Max))
	fmt.Fprintf(w, "  min: %-6s | mean: %-5s | stddev: %s\n",
		formatLatencyMs(s.Min), formatLatencyMs(s.Mean), formatLatencyMs(s.StdDev))
	fmt.Fprintln(w)
}

func (r *Reporter) row(label string, c *color.Color, value, suffix string) {
	fmt.Fprintf(r.writer, "%-12s", label+":")
	c.Fprint(r.writer, value)
	fmt.Fprintln(r.writer, suffix)
}

func alarm(n int64) *color.Color {
	if n > 0 {
		return redText
	}
	return plainText
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 400:
		return redText
	case code >= 300:
		return cyanText
	default:
		return greenText
	}
}

type jsonSummary struct {
	Duration    string           `json:"duration"`
	Requests    jsonRequests     `json:"requests"`
	Rates       jsonRates        `json:"rates"`
	StatusCodes map[string]int64 `json:"statusCodes"`
	Latency     jsonLatency      `json:"latency"`
}

type jsonRequests struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
	Errors  int64 `json:"errors"`
}

type jsonRates struct {
	RPS         float64 `json:"rps"`
	SuccessRate float64 `json:"successRate"`
}

// jsonLatency is in milliseconds.
type jsonLatency struct {
	P50    int64 `json:"p50"`
	P95    int64 `json:"p95"`
	P99    int64 `json:"p99"`
	Min    int64 `json:"min"`
	Max    int64 `json:"max"`
	Mean   int64 `json:"mean"`
	StdDev int64 `json:"stddev"`
}

// JSONSummary writes the summary as one indented JSON document.
func (r *Reporter) JSONSummary(s *Summary) error {
	codes := make(map[string]int64, len(s.StatusCodes))
	for _, sc := range s.StatusCodes {
		codes[strconv.Itoa(sc.Code)] = sc.Count
	}

	doc := jsonSummary{
		Duration:    s.Duration.String(),
		Requests:    jsonRequests{Total: s.Total, Success: s.Success, Failed: s.Failed, Errors: s.Errors},
		Rates:       jsonRates{RPS: s.RPS, SuccessRate: s.SuccessRate},
		StatusCodes: codes,
		Latency: jsonLatency{
			P50:    s.P50.Milliseconds(),
			P95:    s.P95.Milliseconds(),
			P99:    s.P99.Milliseconds(),
			Min:    s.Min.Milliseconds(),
			Max:    s.Max.Milliseconds(),
			Mean:   s.Mean.Milliseconds(),
			StdDev: s.StdDev.Milliseconds(),
		},
	}

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m, s := int(d.Minutes()), int(d.Seconds())%60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// formatLatencyMs keeps about three significant digits.
func formatLatencyMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	switch {
	case ms < 1:
		return strconv.FormatFloat(ms, 'f', 2, 64)
	case ms < 10:
		return strconv.FormatFloat(ms, 'f', 1, 64)
	default:
		return strconv.FormatFloat(ms, 'f', 0, 64)
	}
}
