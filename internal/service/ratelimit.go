package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	signinFailureLimit  = 5
	signinFailureWindow = 15 * time.Minute
)

func signinFailureKey(email string) string {
	return fmt.Sprintf("rate_limit:signin:%s", email)
}

// SigninLocked reports whether the email has exceeded the failed-signin
// budget. All helpers are nil-safe: with no redis client rate limiting is
// disabled.
func SigninLocked(ctx context.Context, rdb *redis.Client, email string) (bool, error) {
	if rdb == nil {
		return false, nil
	}

	count, err := rdb.Get(ctx, signinFailureKey(email)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check signin rate limit: %w", err)
	}

	return count >= signinFailureLimit, nil
}

func RecordSigninFailure(ctx context.Context, rdb *redis.Client, email string) error {
	if rdb == nil {
		return nil
	}

	key := signinFailureKey(email)
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record signin failure: %w", err)
	}
	if count == 1 {
		rdb.Expire(ctx, key, signinFailureWindow)
	}

	return nil
}

func ClearSigninFailures(ctx context.Context, rdb *redis.Client, email string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, signinFailureKey(email)).Result()
	return err
}
