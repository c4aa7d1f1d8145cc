// Package redis provides helpers for connecting to a Redis server and
// watching its availability.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the initial ping using the supplied Config.
//   - Healthcheck, for HTTP liveness / readiness probes.
//   - Monitor, a ping loop reporting reachability changes. Session stores use
//     it to emit connect / disconnect events.
//
// Config fields can be populated from environment variables via pkg/config.
//
// # Usage
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	go redis.Monitor(ctx, client, cfg.HealthInterval, func(up bool) {
//	    log.Printf("redis reachable: %v", up)
//	})
package redis
