package bench

import (
	"errors"
	"fmt"
)

const (
	DefaultCount       = 1
	DefaultConcurrency = 1
	// MaxConcurrency caps parallel in-flight requests.
	MaxConcurrency = 256
)

// Config controls a benchmark run.
type Config struct {
	// Count is the number of requests to send.
	Count int
	// Rate is the target requests per second; 0 means unlimited.
	Rate float64
	// Concurrency is the maximum number of requests in flight.
	Concurrency int
}

// DefaultConfig returns a config that sends a single request.
func DefaultConfig() *Config {
	return &Config{
		Count:       DefaultCount,
		Concurrency: DefaultConcurrency,
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	var errs []error

	if c.Count < 1 {
		errs = append(errs, fmt.Errorf("count must be at least 1, got %d", c.Count))
	}
	if c.Rate < 0 {
		errs = append(errs, fmt.Errorf("rate must not be negative, got %g", c.Rate))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Concurrency > MaxConcurrency {
		errs = append(errs, fmt.Errorf("concurrency must be at most %d, got %d", MaxConcurrency, c.Concurrency))
	}

	return errors.Join(errs...)
}
