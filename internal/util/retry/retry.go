package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when the retry budget runs out without the
// operation ever reporting an error, e.g. a poll that kept answering
// "not ready yet".
var ErrExhausted = errors.New("retrier exhausted")

// Config holds retry configuration.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	Interval   time.Duration
	MaxDelay   time.Duration
	// Multiplier grows the interval after every failed attempt. 1 keeps it fixed.
	Multiplier float64
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// Budget is a retry count paired with the delay between attempts.
type Budget struct {
	MaxRetries int           `yaml:"maxRetries" json:"maxRetries"`
	Interval   time.Duration `yaml:"interval" json:"interval"`
}

// Options converts the budget into retry options.
func (b Budget) Options() []Option {
	return []Option{WithMaxRetries(b.MaxRetries), WithInterval(b.Interval)}
}

// Attempts returns the maximum number of invocations the budget allows.
func (b Budget) Attempts() int {
	if b.MaxRetries < 0 {
		return 1
	}
	return b.MaxRetries + 1
}

func newConfig(opts []Option) *Config {
	cfg := &Config{
		MaxRetries: 5,
		Interval:   1 * time.Second,
		Multiplier: 1.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return cfg
}

// Do invokes op until it succeeds or the retry budget is spent.
//
// A successful first attempt returns without any delay. After a failure the
// retrier waits for the configured interval and invokes op again; attempts
// never overlap. Errors wrapped with Fatal() are returned immediately. When
// the budget runs out the last error is returned, wrapped.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts ...Option) (T, error) {
	cfg := newConfig(opts)

	var zero T
	var lastErr error
	delay := cfg.Interval

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if IsFatal(err) {
			return zero, fmt.Errorf("fatal error (not retrying): %w", err)
		}

		if attempt == cfg.MaxRetries {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("context cancelled after %d attempts: %w", attempt+1, err)
		}
		delay = nextDelay(cfg, delay)
	}

	return zero, fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, op func(context.Context) error, opts ...Option) error {
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}

// Poll calls check until it reports done. A (false, nil) answer means "not
// ready yet" and is retried like any other failure. When the budget is spent
// the last error check returned is reported, even if later attempts only
// answered "not ready". ErrExhausted is returned when check never failed.
func Poll(ctx context.Context, check func(context.Context) (bool, error), opts ...Option) error {
	var lastErr error
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		done, err := check(ctx)
		if err != nil {
			lastErr = err
			return struct{}{}, err
		}
		if !done {
			return struct{}{}, errNotReady
		}
		return struct{}{}, nil
	}, opts...)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errNotReady) {
		return err
	}
	if lastErr != nil {
		return fmt.Errorf("poll exhausted, last error: %w", lastErr)
	}
	return ErrExhausted
}

var errNotReady = errors.New("not ready")

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextDelay(cfg *Config, d time.Duration) time.Duration {
	next := time.Duration(float64(d) * cfg.Multiplier)
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		next = cfg.MaxDelay
	}
	return next
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithInterval sets the delay between attempts.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// WithMaxDelay caps the delay when a multiplier is in use.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		c.Multiplier = m
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
