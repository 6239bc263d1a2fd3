package server

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/blogkit/session-server/internal/apperrors"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 100 * time.Millisecond
)

// retryOnInfrastructure retries fn with capped exponential backoff while it
// keeps failing with ErrInfrastructure. Any other outcome returns
// immediately; the session service itself never retries.
func retryOnInfrastructure(ctx context.Context, fn func() error) error {
	delay := retryBaseDelay
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, apperrors.ErrInfrastructure) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
