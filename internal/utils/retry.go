package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// RetryConfig bounds a retried operation
type RetryConfig struct {
	Attempts int           // total attempts, including the first
	Delay    time.Duration // fixed wait between attempts
}

// Retry runs op until it succeeds, returns a permanent error or runs out of
// attempts. The last error is returned when every attempt failed.
func Retry[T any](ctx context.Context, cfg RetryConfig, logger *logrus.Logger, name string, op func(context.Context) (T, error)) (T, error) {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.Delay), uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		return op(ctx)
	}, b, func(err error, wait time.Duration) {
		logger.WithFields(logrus.Fields{
			"op":      name,
			"attempt": attempt,
			"of":      attempts,
			"wait":    wait,
		}).WithError(err).Warn("Attempt failed, retrying")
	})
}

// Permanent marks err so Retry stops immediately
func Permanent(err error) error {
	return backoff.Permanent(err)
}
