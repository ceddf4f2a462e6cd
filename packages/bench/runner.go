package bench

import (
	"context"
	"sync"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/http"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Sender performs one request.
type Sender interface {
	Send(ctx context.Context, req *parser.Request) (*http.Response, error)
}

// Runner sends a request Count times.
type Runner struct {
	config  *Config
	sender  Sender
	limiter *rate.Limiter
	sem     chan struct{} // semaphore for max concurrency
	logger  *zap.Logger

	// OnResult is called after every request, from the worker goroutine.
	OnResult func(resp *http.Response, err error)
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner validates cfg and returns a runner for it.
func NewRunner(cfg *Config, sender Sender, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		config: cfg,
		sender: sender,
		sem:    make(chan struct{}, cfg.Concurrency),
		logger: zap.NewNop(),
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Wait waits for the rate limiter, if any.
func (r *Runner) Wait(ctx context.Context) error {
	if r.limiter != nil {
		return r.limiter.Wait(ctx)
	}
	return nil
}

// Acquire acquires a slot from the concurrency semaphore
func (r *Runner) Acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a slot back to the semaphore
func (r *Runner) Release() {
	<-r.sem
}

// Run sends req until Count requests completed or ctx is cancelled. The
// summary covers the requests that were sent; a cancelled run returns it
// together with ctx.Err().
func (r *Runner) Run(ctx context.Context, req *parser.Request) (*Summary, error) {
	metrics := NewMetrics()
	metrics.Start()

	var (
		wg     sync.WaitGroup
		runErr error
	)

	r.logger.Debug("bench started",
		zap.Int("count", r.config.Count),
		zap.Float64("rate", r.config.Rate),
		zap.Int("concurrency", r.config.Concurrency),
	)

	for i := 0; i < r.config.Count; i++ {
		if err := r.Wait(ctx); err != nil {
			runErr = err
			break
		}
		if err := r.Acquire(ctx); err != nil {
			runErr = err
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer r.Release()

			resp, err := r.sender.Send(ctx, req)
			if err != nil {
				metrics.RecordError()
				r.logger.Debug("bench request failed", zap.Error(err))
			} else {
				metrics.RecordResponse(resp.StatusCode, resp.Duration)
			}
			if r.OnResult != nil {
				r.OnResult(resp, err)
			}
		}()
	}

	wg.Wait()
	metrics.Stop()

	summary := metrics.GetSummary()
	r.logger.Debug("bench finished", zap.Int64("total", summary.Total), zap.Duration("duration", summary.Duration))
	return summary, runErr
}
