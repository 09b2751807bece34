package monitoring

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// linearBackOff waits base, 2*base, 3*base... between attempts
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// retryFetch calls fetch up to attempts times with linear backoff between failures
func retryFetch[T any](ctx context.Context, name string, attempts int, base time.Duration, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if attempts < 1 {
		attempts = 1
	}

	var (
		result []T
		try    int
	)
	operation := func() error {
		try++
		rows, err := fetch(ctx)
		if err != nil {
			logrus.WithError(err).Warnf("%s failed (attempt %d/%d)", name, try, attempts)
			return err
		}
		result = rows
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{base: base}, uint64(attempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}
