package github

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// guard runs call and, on a primary rate limit, waits for
// the reset time and runs it exactly once more. Secondary
// limits are logged and returned as is.
func guard[T any](
	ctx context.Context,
	op string,
	call func() (T, *gh.Response, error),
) (T, error) {
	res, _, err := call()
	if err == nil {
		return res, nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		wait := time.Until(rateErr.Rate.Reset.Time)

		slog.Warn(
			"request quota exhausted, retrying once",
			"op", op,
			"reset", rateErr.Rate.Reset.Time,
			"wait", wait,
		)

		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			var zero T

			return zero, sleepErr
		}

		res, _, err = call()

		return res, err
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		slog.Warn(
			"abuse detected, not retrying",
			"op", op,
			"retry_after", abuseErr.GetRetryAfter(),
		)
	}

	return res, err
}

// sleep waits for d or until ctx is done. A non positive
// d returns at once.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
