// Package logger builds context-aware slog loggers with consistent
// attribute naming across the project.
//
// The factory wires format, level, static attributes and context
// extractors into a single slog.Logger:
//
//	log := logger.New(
//		logger.WithProduction("billingapi"),
//		logger.WithContextValue("request_id", requestIDKey),
//	)
//	log.InfoContext(ctx, "checkout created",
//		logger.UserID(userID),
//		logger.PriceID(priceID),
//	)
//
// Attribute helpers (Error, UserID, OwnerID, Action, Tier, ...) keep log
// keys uniform so downstream queries do not chase naming drift.
package logger
