package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Healthcheck is a function that checks the health of the database.
// It returns an error if the database is not healthy.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := client.Ping(ctx).Result(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Monitor pings client every interval until ctx is done and calls onChange
// whenever reachability flips. The client is assumed reachable at start.
func Monitor(ctx context.Context, client redis.UniversalClient, interval time.Duration, onChange func(up bool)) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	check := Healthcheck(client)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	up := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			healthy := check(pingCtx) == nil
			cancel()

			if ctx.Err() != nil {
				return
			}
			if healthy != up {
				up = healthy
				onChange(up)
			}
		}
	}
}
