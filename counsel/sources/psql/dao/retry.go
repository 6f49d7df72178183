package dao

import (
	"context"
	"errors"
	"time"

	"counsel/counsel/utils/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
)

const maxUnavailableRetries = 3

// withRetry re-runs op a bounded number of times with backoff when the
// database reports resource exhaustion, then fails with
// service_unavailable instead of blocking.
func withRetry(ctx context.Context, op func() error) error {
	backoff := 50 * time.Millisecond
	var err error
	for attempt := 0; attempt <= maxUnavailableRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		err = op()
		if err == nil || !isResourceExhausted(err) {
			return err
		}
	}
	return apperrors.Wrap(apperrors.KindUnavailable, "storage temporarily unavailable", err)
}

func isResourceExhausted(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "53300", // too_many_connections
		"53400", // configuration_limit_exceeded
		"57P03": // cannot_connect_now
		return true
	}
	return false
}
