package bench

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// latencies are recorded in microseconds between 1us and 60s
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics collects results of concurrent requests.
type Metrics struct {
	mu sync.Mutex

	total   atomic.Int64
	success atomic.Int64
	failed  atomic.Int64
	errors  atomic.Int64

	histogram   *hdrhistogram.Histogram
	statusCodes map[int]int64

	startTime time.Time
	endTime   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram:   hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		statusCodes: make(map[int]int64),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.startTime = time.Now()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// RecordResponse records a request that produced a response. Statuses of 400
// and above count as failed.
func (m *Metrics) RecordResponse(status int, duration time.Duration) {
	m.total.Add(1)
	if status >= 400 {
		m.failed.Add(1)
	} else {
		m.success.Add(1)
	}

	latencyUs := duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(latencyUs)
	m.statusCodes[status]++
	m.mu.Unlock()
}

// RecordError records a request that produced no response.
func (m *Metrics) RecordError() {
	m.total.Add(1)
	m.errors.Add(1)
}

// StatusCount is the number of responses with one status code.
type StatusCount struct {
	Code  int
	Count int64
}

// Summary is the final result of a run.
type Summary struct {
	Duration time.Duration
	Total    int64
	Success  int64
	// Failed counts responses with status >= 400.
	Failed int64
	// Errors counts requests that got no response.
	Errors int64

	RPS         float64
	SuccessRate float64

	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	// StatusCodes is sorted by code.
	StatusCodes []StatusCount
}

// GetSummary returns the metrics summary
func (m *Metrics) GetSummary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.total.Load()
	success := m.success.Load()

	rps := float64(0)
	if duration.Seconds() > 0 {
		rps = float64(total) / duration.Seconds()
	}
	successRate := float64(0)
	if total > 0 {
		successRate = float64(success) / float64(total)
	}

	summary := &Summary{
		Duration:    duration,
		Total:       total,
		Success:     success,
		Failed:      m.failed.Load(),
		Errors:      m.errors.Load(),
		RPS:         rps,
		SuccessRate: successRate,
		StatusCodes: make([]StatusCount, 0, len(m.statusCodes)),
	}

	if m.histogram.TotalCount() > 0 {
		summary.P50 = time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond
		summary.P95 = time.Duration(m.histogram.ValueAtQuantile(95)) * time.Microsecond
		summary.P99 = time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond
		summary.Min = time.Duration(m.histogram.Min()) * time.Microsecond
		summary.Max = time.Duration(m.histogram.Max()) * time.Microsecond
		summary.Mean = time.Duration(m.histogram.Mean()) * time.Microsecond
		summary.StdDev = time.Duration(m.histogram.StdDev()) * time.Microsecond
	}

	for code, n := range m.statusCodes {
		summary.StatusCodes = append(summary.StatusCodes, StatusCount{Code: code, Count: n})
	}
	sort.Slice(summary.StatusCodes, func(i, j int) bool {
		return summary.StatusCodes[i].Code < summary.StatusCodes[j].Code
	})

	return summary
}
