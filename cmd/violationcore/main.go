// Command violationcore runs one intersection's traffic-violation detection
// core: it loads the ROI geometry, starts the signal supervisor and
// reporter background workers, and serves the thin operational HTTP façade.
// Feeding per-frame tracks into the running stream.Stream is the embedding
// caller's responsibility (spec's Non-goals exclude the ingestion transport
// proper); this binary demonstrates and operates the core standalone.
package main

import (
	"context"
	"net/http"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "github.com/KimMachineGun/automemlimit/memlimit"
	_ "go.uber.org/automaxprocs"

	"github.com/trafficmind/violation-core/internal/config"
	"github.com/trafficmind/violation-core/internal/httpglue"
	"github.com/trafficmind/violation-core/internal/logging"
	"github.com/trafficmind/violation-core/internal/report"
	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/signal"
	"github.com/trafficmind/violation-core/internal/stream"
)

var (
	configPath     string
	roiPath        string
	intersectionID int
	logLevel       string
	listenAddr     string
)

func main() {
	root := &cobra.Command{
		Use:   "violationcore",
		Short: "Runs one intersection's violation-detection core",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "YAML config file path")
	root.Flags().StringVar(&roiPath, "roi", "", "ROI geometry file path (overrides config)")
	root.Flags().IntVar(&intersectionID, "intersection-id", 0, "intersection id (overrides config)")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level: trace|debug|info|warn|error|off (overrides config)")
	root.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	_ = root.MarkFlagRequired("config")

	if err := root.Execute(); err != nil {
		logrus.WithField("component", "main").Fatalf("exiting: %v", err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	rt, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg := rt.All
	if roiPath != "" {
		cfg.ROI.Path = roiPath
	}
	if intersectionID != 0 {
		cfg.IntersectionID = intersectionID
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if listenAddr != "" {
		cfg.HTTP.ListenAddr = listenAddr
	}

	logging.Init(cfg.LogLevel)
	log := logging.For("main")

	model, err := roiconfig.Load(cfg.ROI.Path)
	if err != nil {
		return err
	}

	sup := signal.NewSupervisor(signal.Mode(cfg.Signal.Mode), cfg.Signal.UpstreamURL, cfg.Signal.UpstreamTimeout)

	client := report.NewHTTPClient(cfg.Records.BaseURL, cfg.Records.UploadTimeout, cfg.Records.SubmitTimeout)
	violationLog := report.NewLog()
	reporter := report.NewReporter(client, cfg.IntersectionID, cfg.Records.QueueSize, cfg.Records.MaxRetries, violationLog)

	st := stream.New(cfg, model, sup, reporter)
	srv := httpglue.New(cfg.Evidence.ScreenshotDir, model)

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Records.Username != "" {
		loginCtx, cancel := context.WithTimeout(ctx, cfg.Records.SubmitTimeout)
		err := client.Login(loginCtx, cfg.Records.Username, cfg.Records.Password)
		cancel()
		if err != nil {
			log.WithField("error", err.Error()).Warn("records service login failed, continuing unauthenticated")
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return sup.Run(groupCtx, cfg.Signal.SyncInterval)
	})

	group.Go(func() error {
		reporter.Run(groupCtx, cfg.Records.DrainGrace)
		return nil
	})

	group.Go(func() error {
		st.RunIdleSweep(groupCtx, func() int64 { return time.Now().UnixMilli() })
		return nil
	})

	httpServer := &http.Server{Addr: cfg.HTTP.ListenAddr, Handler: srv.Handler()}
	group.Go(func() error {
		log.WithField("addr", cfg.HTTP.ListenAddr).Info("starting HTTP façade")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// ProcessFrame is driven by the embedding caller; st is wired and ready.
	log.WithField("intersection_id", cfg.IntersectionID).Info("violation core running")
	return group.Wait()
}
