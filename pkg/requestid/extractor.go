package requestid

import (
	"context"
	"log/slog"
)

// LoggerExtractor adapts FromContext to the logger package's context
// extractor shape, so every record logged under Middleware carries the
// request_id attribute.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}
