package cmd

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/INemesisI/weave/config"
	"github.com/INemesisI/weave/internal/diagnostics"
	"github.com/INemesisI/weave/internal/egress/lp"
	"github.com/INemesisI/weave/internal/egress/ws"
	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/packet"
	amqpingress "github.com/INemesisI/weave/internal/ingress/amqp"
	"github.com/INemesisI/weave/internal/telemetry"
	"github.com/INemesisI/weave/internal/wiring"
)

// NewApp assembles the fx application: configuration, telemetry, the
// fabric registry and packet pool (via wiring.Module), the AMQP
// ingress adapter, and the websocket/long-poll/diagnostics HTTP
// servers — the generalization of the teacher's NewApp, which composed
// postgres.Module/service.Module/grpchandler.Module/grpcsrv.Module
// around a single gRPC delivery path.
func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			func() *slog.Logger { return telemetry.NewLogger(cfg.Telemetry.ServiceName, nil) },
			telemetry.NewEngineLogger,
			newDiagnosticsRegistry,
			newIngressAdapter,
			fx.Annotate(noStaticEdges, fx.ResultTags(`group:"fabric.edges"`)),
		),
		wiring.Module,
		fx.Invoke(startTracing, startIngress, serveWebsocket, serveLongPoll, serveDiagnostics),
	)
}

// startTracing registers the process-wide TracerProvider used by
// telemetry.TracedEmit/TracedProcess on every delivery path, and tears
// it down (flushing any registered exporter) on shutdown. It is an
// fx.Invoke target rather than a plain fx.Provide so it always runs,
// whether or not any other component happens to depend on its return
// value.
func startTracing(lc fx.Lifecycle, cfg *config.Config) {
	tp := telemetry.NewTracerProvider(cfg.Telemetry.ServiceName)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
}

func newDiagnosticsRegistry(cfg *config.Config) *diagnostics.Registry {
	return diagnostics.NewRegistry(cfg.Telemetry.NameCacheSize)
}

// noStaticEdges satisfies wiring.Module's edge value group: this
// deployment wires its egress Sinks dynamically at connect time rather
// than through compile-time-known StaticEdge records.
func noStaticEdges() wiring.StaticEdge {
	return wiring.StaticEdge{}
}

func newIngressAdapter(cfg *config.Config, pool *packet.Pool, logger *zap.SugaredLogger) (*amqpingress.Adapter, error) {
	return amqpingress.New(amqpingress.Config{
		AMQPURL:    cfg.Ingress.AMQPURL,
		Queue:      cfg.Ingress.Queue,
		QueueDepth: cfg.Ingress.QueueDepth,
	}, pool, logger)
}

// startIngress runs the AMQP ingress adapter for the lifetime of the
// application on its own goroutine, and tracks it for the diagnostics
// stats endpoint.
func startIngress(lc fx.Lifecycle, adapter *amqpingress.Adapter, diag *diagnostics.Registry, logger *zap.SugaredLogger) {
	diag.TrackSource("ingress.amqp", adapter.Source)

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := adapter.Run(ctx); err != nil && err != context.Canceled {
					logger.Errorw("ingress adapter stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return adapter.Close()
		},
	})
}

// serveWebsocket mounts the websocket upgrade handler over the ingress
// adapter's Source and starts its listener.
func serveWebsocket(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, adapter *amqpingress.Adapter, reg *fabric.Registry, diag *diagnostics.Registry) {
	handler := ws.New(logger, adapter.Source, reg, diag)
	r := chi.NewRouter()
	r.Get("/ws", handler.ServeHTTP)

	srv := &http.Server{Addr: cfg.Egress.WSListenAddr, Handler: r}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("ws listener stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// serveLongPoll mounts the long-poll handler over the same ingress
// Source and starts its listener.
func serveLongPoll(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, adapter *amqpingress.Adapter, reg *fabric.Registry, diag *diagnostics.Registry) {
	handler := lp.New(adapter.Source, reg, diag)
	r := chi.NewRouter()
	r.Get("/poll/{sinkID}", handler.Poll)

	srv := &http.Server{Addr: cfg.Egress.LPListenAddr, Handler: r}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("lp listener stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// serveDiagnostics mounts the stats endpoint and starts its listener.
func serveDiagnostics(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, diag *diagnostics.Registry) {
	r := chi.NewRouter()
	r.Get("/debug/stats", diag.ServeHTTP)

	srv := &http.Server{Addr: cfg.Telemetry.DiagListenAddr, Handler: r}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("diagnostics listener stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
