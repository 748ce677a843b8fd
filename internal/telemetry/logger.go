// Package telemetry wires application-level logging (slog, bridged into
// otel), hot-path engine logging (zap), and tracing (otel) the way
// cmd/fx.go's ProvideLogger wired a single *slog.Logger for the whole
// teacher app — generalized here into one constructor per concern so
// fx can provide each independently.
package telemetry

import (
	"context"
	"log/slog"
	"os"

	otellog "go.opentelemetry.io/otel/log"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.uber.org/zap"
)

// fanoutHandler writes every record to both a local handler (stderr,
// for operators tailing the process directly) and the otel bridge (for
// the configured log exporter). slog ships no built-in multi-handler,
// so this is the small amount of plumbing every otelslog integration in
// the ecosystem ends up writing by hand.
type fanoutHandler struct {
	local, bridge slog.Handler
}

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.local.Enabled(ctx, level) || f.bridge.Enabled(ctx, level)
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := f.local.Handle(ctx, r.Clone()); err != nil {
		return err
	}
	return f.bridge.Handle(ctx, r.Clone())
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return fanoutHandler{local: f.local.WithAttrs(attrs), bridge: f.bridge.WithAttrs(attrs)}
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	return fanoutHandler{local: f.local.WithGroup(name), bridge: f.bridge.WithGroup(name)}
}

// NewLogger builds the application-level structured logger. serviceName
// identifies the emitting process in every record; loggerProvider is
// the otel log pipeline to bridge records into (nil is accepted —
// records are then only ever written to stderr, useful in tests that
// don't stand up a full otel SDK).
func NewLogger(serviceName string, loggerProvider otellog.LoggerProvider) *slog.Logger {
	local := slog.NewJSONHandler(os.Stderr, nil)
	if loggerProvider == nil {
		return slog.New(local)
	}
	bridge := otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(loggerProvider))
	return slog.New(fanoutHandler{local: local, bridge: bridge})
}

// NewEngineLogger builds the *zap.SugaredLogger that fx hands to the
// wiring module and the AMQP ingress adapter, promoted from the
// teacher's indirect zap dependency to direct use here. internal/fabric
// itself does no logging: Emit and Process take no logger.
func NewEngineLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger.Sugar()
}
