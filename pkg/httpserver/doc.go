// Package httpserver runs an http.Server with context-driven graceful
// shutdown, start and stop hooks, and liveness/readiness handlers.
//
// # Usage
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg,
//	    httpserver.WithLogger(log),
//	    httpserver.WithStopHook(func(context.Context) error { return store.Close() }),
//	)
//
//	mux.Handle("/healthz", httpserver.LivenessHandler())
//	mux.Handle("/readyz", httpserver.ReadinessHandler(log, 2*time.Second,
//	    httpserver.Check{Name: "sessions", Fn: storePing},
//	))
//	if err := srv.Run(ctx, mux); err != nil {
//	    log.Error("server failed", logger.Error(err))
//	}
//
// Run returns ErrStart when the listener or a start hook fails. Shutdown
// failures are wrapped with ErrShutdown.
package httpserver
