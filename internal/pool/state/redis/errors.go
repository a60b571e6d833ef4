package redis

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"donationpool/pkg/platform/sentinel"
)

func storeErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUnavailable reports whether err came from reaching Redis rather than from
// a command reply. Server replies implement redis.Error; dial failures, pool
// timeouts and closed clients do not.
func isUnavailable(err error) bool {
	if errors.Is(err, redis.Nil) {
		return false
	}
	var replyErr redis.Error
	return !errors.As(err, &replyErr)
}
