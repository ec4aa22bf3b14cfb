// Package httpserver wraps net/http with graceful shutdown, environment
// configuration and health probes.
//
// Typical usage with the billing API router:
//
//	var cfg httpserver.Config
//	config.MustLoad(&cfg)
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStartHook(func(log *slog.Logger) {
//			log.Info("listening", "addr", cfg.Addr)
//		}),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run blocks until the context is cancelled, SIGINT/SIGTERM arrives or the
// listener fails, then drains in-flight requests within ShutdownTimeout.
package httpserver
