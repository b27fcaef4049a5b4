// Package invoke wraps outbound remote calls: every failure is classified
// into a fault.Record and only transient faults are retried.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/vietddude/orb/internal/fault"
	"github.com/vietddude/orb/internal/metrics"
)

// ErrNoInvoke is the cause recorded for an Operation without an Invoke function.
var ErrNoInvoke = errors.New("operation has no invoke function")

// RetryConfig defines retry behavior for transient faults.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, first call included.
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    200 * time.Millisecond,
	MaxDelay:        5 * time.Second,
	BackoffMultiple: 2.0,
}

// Operation is one remote call.
type Operation struct {
	// Name identifies the operation in logs and metrics (e.g. "company.hire").
	Name string

	// Hint is prefixed to fault messages, e.g. "while fetching weather reading".
	// Falls back to the invoker hint when empty.
	Hint string

	// Invoke performs the call through the transport.
	Invoke func(ctx context.Context) (any, error)
}

// RetryCallback is called before each retry with the attempt number that
// just failed (starting at 1) and its fault.
type RetryCallback func(op string, attempt int, rec *fault.Record)

// Invoker executes operations under a retry budget.
type Invoker struct {
	cfg     RetryConfig
	hint    string
	onRetry RetryCallback
	log     *slog.Logger
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithHint sets the default caller context for fault messages.
func WithHint(hint string) Option {
	return func(i *Invoker) {
		i.hint = hint
	}
}

// WithRetryCallback registers a callback fired before every retry.
func WithRetryCallback(cb RetryCallback) Option {
	return func(i *Invoker) {
		i.onRetry = cb
	}
}

// WithLogger sets the invoker logger.
func WithLogger(log *slog.Logger) Option {
	return func(i *Invoker) {
		i.log = log
	}
}

// New creates an Invoker.
func New(cfg RetryConfig, opts ...Option) *Invoker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffMultiple <= 0 {
		cfg.BackoffMultiple = 1
	}
	i := &Invoker{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Config returns the retry budget.
func (i *Invoker) Config() RetryConfig {
	return i.cfg
}

// Invoke runs op. On failure the returned error is always a *fault.Record.
// CommunicationFailure and Generic faults are returned at once; Transient
// faults are retried until the budget is spent, and the last record is
// returned unchanged. Cancelling ctx abandons the call between attempts.
func (i *Invoker) Invoke(ctx context.Context, op Operation) (any, error) {
	hint := op.Hint
	if hint == "" {
		hint = i.hint
	}

	if op.Invoke == nil {
		metrics.InvocationsTotal.WithLabelValues(op.Name, fault.Generic.String()).Inc()
		return nil, fault.ClassifyWithHint(fmt.Errorf("%s: %w", op.Name, ErrNoInvoke), hint)
	}

	var last *fault.Record
	for attempt := 1; attempt <= i.cfg.MaxAttempts; attempt++ {
		result, err := op.Invoke(ctx)
		if err == nil {
			metrics.InvocationsTotal.WithLabelValues(op.Name, "ok").Inc()
			return result, nil
		}

		last = fault.ClassifyWithHint(err, hint)
		if !last.Kind.Retryable() || attempt == i.cfg.MaxAttempts {
			break
		}

		delay := calculateBackoff(attempt-1, i.cfg)
		i.log.Warn("Transient fault, retrying",
			append([]any{"operation", op.Name, "attempt", attempt, "delay", delay}, last.LogAttrs()...)...)
		if i.onRetry != nil {
			i.onRetry(op.Name, attempt, last)
		}
		metrics.InvocationRetriesTotal.WithLabelValues(op.Name).Inc()

		select {
		case <-ctx.Done():
			metrics.InvocationsTotal.WithLabelValues(op.Name, last.Kind.String()).Inc()
			return nil, last
		case <-time.After(delay):
		}
	}

	metrics.InvocationsTotal.WithLabelValues(op.Name, last.Kind.String()).Inc()
	i.log.Debug("Remote call failed", append([]any{"operation", op.Name}, last.LogAttrs()...)...)
	return nil, last
}

// Call is a typed wrapper around Invoke.
func Call[T any](ctx context.Context, i *Invoker, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	result, err := i.Invoke(ctx, Operation{
		Name: name,
		Invoke: func(ctx context.Context) (any, error) {
			return fn(ctx)
		},
	})
	if err != nil {
		return zero, err
	}
	typed, _ := result.(T)
	return typed, nil
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
