package application

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bulkedit/domain"
)

const (
	// defaultCallTimeout bounds every single gateway call.
	defaultCallTimeout = 30 * time.Second

	retryAttempts  = 4
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 8 * time.Second
	retryMaxJitter = 250 * time.Millisecond
)

// withBackoff runs one gateway call under a per-attempt timeout and retries
// it with exponential backoff while the forge keeps answering rate-limited.
// Any other failure returns immediately; once the attempts run out the last
// rate-limit error is returned as-is so the caller classifies it normally.
func withBackoff(
	ctx context.Context,
	timeout time.Duration,
	op string,
	fn func(ctx context.Context) error,
) error {
	return retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return fn(callCtx)
		},
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.RetryIf(domain.IsRateLimited),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(retryBaseDelay),
		retry.MaxDelay(retryMaxDelay),
		retry.MaxJitter(retryMaxJitter),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warnf("[backoff] %s rate limited, retrying (attempt %d): %v", op, attempt+1, err)
		}),
	)
}
