// Command pipeline-agent is the composition root: it loads
// configuration, wires the generator source into the Datadog Metrics
// and Datadog Archives sinks, and runs until told to stop.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ash2k/stager"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/vectorcore/pipeline/pkg/batch"
	"github.com/vectorcore/pipeline/pkg/ddarchives"
	"github.com/vectorcore/pipeline/pkg/ddmetrics"
	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/generator"
	"github.com/vectorcore/pipeline/pkg/logschema"
	"github.com/vectorcore/pipeline/pkg/shutdown"
)

type cliOptions struct {
	ConfigFile string `long:"config-file" description:"path to a YAML/TOML configuration file" default:"pipeline-agent.yaml"`
}

func main() {
	var opts cliOptions
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	v := viper.New()
	v.SetConfigFile(opts.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			logrus.WithError(err).Fatal("failed to read config file")
		}
		logrus.WithField("path", opts.ConfigFile).Warn("no config file found, using defaults and environment")
	}

	cfg, err := loadConfig(v)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logger := logrus.StandardLogger()
	logger.SetLevel(parseLogLevel(cfg.LogLevel))

	if err := cfg.Generator.ResolveFormat(); err != nil {
		logger.WithError(err).Fatal("invalid generator configuration")
	}

	run(cfg, logger)
}

func run(cfg Config, logger *logrus.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := shutdown.New()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		sig.Fire()
		cancel()
	}()

	httpClient := &http.Client{}

	metricsSink, err := ddmetrics.New(cfg.DDMetrics, cfg.AgentVersion, httpClient, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to construct Datadog Metrics sink")
	}

	s3Client, err := ddarchives.NewS3Client(cfg.DDArchives.AWSS3)
	if err != nil {
		logger.WithError(err).Fatal("failed to construct S3 client")
	}
	archivesSink, err := ddarchives.New(cfg.DDArchives, s3Client, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to construct Datadog Archives sink")
	}

	runStartupHealthchecks(ctx, cfg, httpClient, s3Client, logger)

	generatorOut := make(chan event.Event)
	src, err := generator.New(cfg.Generator, generatorOut, logger)
	if err != nil {
		logger.WithError(err).Fatal("invalid generator configuration")
	}

	depths := &queueDepths{}
	statusSrv := newStatusServer(cfg.Status.ListenAddress, depths)

	stgr := stager.New()
	defer stgr.Shutdown()

	stage := stgr.NextStage()
	stage.StartWithContext(func(ctx context.Context) {
		if err := statusSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("status server exited")
		}
	})
	stage.StartWithContext(func(ctx context.Context) {
		<-ctx.Done()
		_ = statusSrv.Close()
	})

	stage = stgr.NextStage()
	stage.StartWithContext(func(ctx context.Context) {
		metricsSink.Run(ctx)
	})
	stage.StartWithContext(func(ctx context.Context) {
		archivesSink.Run(ctx)
	})

	stage = stgr.NextStage()
	stage.StartWithContext(func(ctx context.Context) {
		fanOut(ctx, generatorOut, metricsSink.In, archivesSink.In, depths)
	})

	stage = stgr.NextStage()
	stage.StartWithContext(func(ctx context.Context) {
		src.Run(sig)
		close(generatorOut)
	})

	<-ctx.Done()
	logger.Info("pipeline-agent stopped")
}

// runStartupHealthchecks probes both sinks' destinations once at
// startup (spec.md §4.6: "Executed once at startup"). A failing
// healthcheck is logged but never fatal - gating the pipeline on it is
// an operator-configured decision outside this core, not this
// composition root's call.
func runStartupHealthchecks(ctx context.Context, cfg Config, httpClient *http.Client, s3Client *s3.S3, logger *logrus.Logger) {
	hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := ddmetrics.Healthcheck(hctx, httpClient, cfg.DDMetrics.APIEndpoint(), cfg.DDMetrics.APIKey); err != nil {
		logger.WithError(err).Warn("Datadog Metrics healthcheck failed")
	}
	if err := ddarchives.Healthcheck(hctx, s3Client, cfg.DDArchives.Bucket); err != nil {
		logger.WithError(err).Warn("Datadog Archives healthcheck failed")
	}
}

// fanOut routes each event from the source to the sink that owns its
// Kind - Archives for Log, Metrics for Metric - closing both sink
// inputs once the source's output channel closes, matching §2's DAG
// teardown order (source closes first, sinks drain and exit next).
// Feeding a sink an event of a Kind it doesn't handle would either leak
// that event's finalizer (the Metrics RequestBuilder does not resolve
// handles for events it skips) or resolve it with the outcome of a
// request that never carried the event (the Archives RequestBuilder
// takes every event's handles), so routing by Kind here is
// load-bearing, not an optimization.
func fanOut(ctx context.Context, in <-chan event.Event, metricsIn, archivesIn chan<- batch.Item, depths *queueDepths) {
	defer close(metricsIn)
	defer close(archivesIn)

	archivesPartition := ddarchives.PartitionFunc(logschema.Get().TimestampKey)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			atomic.AddInt64(&depths.generatorOut, 1)
			switch ev.Kind {
			case event.KindMetric:
				item := batch.Item{PartitionKey: ddmetrics.PartitionKey(ev), Event: ev}
				select {
				case metricsIn <- item:
					atomic.AddInt64(&depths.metricsIn, 1)
				case <-ctx.Done():
					return
				}
			case event.KindLog:
				item := batch.Item{PartitionKey: archivesPartition(ev), Event: ev}
				select {
				case archivesIn <- item:
					atomic.AddInt64(&depths.archivesIn, 1)
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
