package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/INemesisI/weave/config"
	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/packet"
	"github.com/INemesisI/weave/internal/telemetry"
)

const (
	ServiceName      = "weave"
	ServiceNamespace = "im-fabric"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "in-process message fabric: ingress/egress adapters over a packet distribution engine",
		Commands: []*cli.Command{
			serveCmd(),
			benchCmd(),
		},
	}

	return app.Run(os.Args)
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "run the fabric with its configured ingress and egress adapters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, v, err := config.LoadConfig(c.String("config_file"))
			if err != nil {
				return err
			}

			app := NewApp(cfg)
			if err := app.Start(c.Context); err != nil {
				return err
			}

			config.Watch(v, func(fields config.ReloadableFields) {
				slog.Info("config reloaded", "eviction_idle", fields.EvictionIdle, "stats", fields.Stats)
			})

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("shutting down...")
			return app.Stop(context.Background())
		},
	}
}

// benchCmd synthesizes packet emission directly against a throwaway
// fabric.Registry to load-check the distribution engine in isolation,
// without standing up any adapter — the domain-stack "bench" entry
// point SPEC_FULL.md's Domain Stack table names. Sink drain loops run
// under one errgroup and producer goroutines under a second. Once every
// producer has returned, stop is closed so the drain loops exit rather
// than being left stranded, and the first producer error is returned; a
// failing producer does not stop the other producers early.
func benchCmd() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "emit synthetic packets through an in-memory fabric and report throughput",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "sinks", Value: 4, Usage: "number of queued sinks fanned out to"},
			&cli.IntFlag{Name: "producers", Value: 4, Usage: "number of concurrent emitting goroutines"},
			&cli.IntFlag{Name: "count", Value: 100000, Usage: "number of packets to emit per producer"},
			&cli.IntFlag{Name: "pool_size", Value: 1024, Usage: "packet pool capacity"},
		},
		Action: func(c *cli.Context) error {
			sinks := c.Int("sinks")
			producers := c.Int("producers")
			count := c.Int("count")

			tp := telemetry.NewTracerProvider("weave-bench")
			defer tp.Shutdown(context.Background())

			pool := packet.NewPool("bench", c.Int("pool_size"), 256, false, nil)
			reg := fabric.NewRegistry(0)
			src := fabric.NewSource("bench.source", packet.Ops)

			var handled int64
			stop := make(chan struct{})
			drain, ctx := errgroup.WithContext(c.Context)
			for i := 0; i < sinks; i++ {
				sink := packet.NewSink(fmt.Sprintf("bench.sink.%d", i), packet.AnyID, 128, func(buf *packet.Buffer) {
					atomic.AddInt64(&handled, 1)
				})
				if _, err := reg.Connect(src, sink); err != nil {
					return err
				}
				drain.Go(func() error {
					telemetry.TracedRunDrainLoop(ctx, sink.Queue(), 50*time.Millisecond, stop)
					return nil
				})
			}

			emit, _ := errgroup.WithContext(ctx)
			start := time.Now()
			for p := 0; p < producers; p++ {
				emit.Go(func() error {
					for i := 0; i < count; i++ {
						buf, err := pool.Alloc(fabric.Indefinite)
						if err != nil {
							return err
						}
						_, err = telemetry.TracedEmit(ctx, src, buf, time.Second)
						packet.Ops.Unref(buf)
						if err != nil {
							return err
						}
					}
					return nil
				})
			}

			emitErr := emit.Wait()
			elapsed := time.Since(start)
			close(stop)
			_ = drain.Wait()

			if emitErr != nil {
				return emitErr
			}

			total := int64(producers) * int64(count)
			fmt.Printf("emitted %d packets (%d producers, %d sinks) in %s (%.0f emits/sec, %d handled)\n",
				total, producers, sinks, elapsed, float64(total)/elapsed.Seconds(), atomic.LoadInt64(&handled))
			return nil
		},
	}
}
