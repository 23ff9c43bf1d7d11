package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/sert121/sql-datagen/internal/config"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	var handler slog.Handler
	if cfg.Observability.LogJSON {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: cfg.Observability.LogLevel})
	} else {
		handler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: cfg.Observability.LogLevel})
	}
	return slog.New(handler).With(
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
		slog.String("model", cfg.AI.Model),
		slog.String("catalog_driver", cfg.Catalog.Driver),
	)
}

// RunLogger scopes logger to one run: the run id carried by ctx and the
// database, schema and table the run targets. Empty values are left out.
func RunLogger(ctx context.Context, logger *slog.Logger, database, schema, table string) *slog.Logger {
	attrs := make([]any, 0, 4)
	for _, attr := range []slog.Attr{
		slog.String("run_id", RunIDFromContext(ctx)),
		slog.String("database", database),
		slog.String("schema", schema),
		slog.String("table", table),
	} {
		if attr.Value.String() != "" {
			attrs = append(attrs, attr)
		}
	}
	return logger.With(attrs...)
}

func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

func RunIDFromContext(ctx context.Context) string {
	value, ok := ctx.Value(runIDKey).(string)
	if !ok {
		return ""
	}
	return value
}
