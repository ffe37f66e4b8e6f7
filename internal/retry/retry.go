// Package retry applies a bounded retry policy to data-store work. Only whole
// transactions and idempotent reads go through it; calls with external side
// effects (the payment gateway) must not.
package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/metrics"
	"github.com/jackc/pgx/v5/pgconn"
	goretry "github.com/sethvargo/go-retry"
)

const (
	DefaultMaxRetries = 2
	DefaultBackoff    = 50 * time.Millisecond
)

type Policy struct {
	MaxRetries uint64
	Backoff    time.Duration
	Metrics    *metrics.Fulfillment
}

func Default() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, Backoff: DefaultBackoff}
}

// Do runs fn, retrying transient failures up to MaxRetries extra times.
// Non-transient errors are returned after the first attempt.
func (p Policy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	b := goretry.WithMaxRetries(p.MaxRetries, goretry.NewConstant(backoff))

	attempt := 0
	return goretry.Do(ctx, b, func(ctx context.Context) error {
		if attempt > 0 {
			p.Metrics.IncRetry(operation)
		}
		attempt++

		err := fn(ctx)
		if err != nil && IsTransient(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}

// IsTransient classifies errors that are safe to retry: connection failures,
// serialization failures and deadlocks. Constraint violations, application
// errors and cancellation never are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if apperror.As(err) != nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"):
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01":
			return true
		}
		return false
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
