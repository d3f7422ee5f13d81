package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orrn/batchfarm/internal/api"
	"github.com/orrn/batchfarm/internal/config"
	"github.com/orrn/batchfarm/internal/core"
	"github.com/orrn/batchfarm/internal/logging"
	"github.com/orrn/batchfarm/internal/manifest"
	"github.com/orrn/batchfarm/internal/webhook"
)

func main() {
	configPath := flag.String("config", "farm.yaml", "path to the farm config file")
	jobsPath := flag.String("jobs", "", "optional job manifest to admit at startup")
	flag.Parse()

	if err := run(*configPath, *jobsPath); err != nil {
		fmt.Fprintf(os.Stderr, "farmd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, jobsPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logging.New(cfg.Logging, os.Stderr)

	farm, err := core.NewFarmFromConfig(cfg.Farm, time.Now())
	if err != nil {
		return err
	}

	var sink core.EventSink
	if len(cfg.Webhooks.Targets) > 0 {
		sender := webhook.NewWebhookSender(cfg.Webhooks, log.Named("webhook"))
		sender.Start()
		defer sender.Stop()
		sink = sender
	}

	sched := core.NewScheduler(farm, &cfg.Scheduler, sink, log.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if jobsPath != "" {
		if err := admitManifest(ctx, sched, jobsPath); err != nil {
			return err
		}
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(sched, cfg.Auth, log.Named("api")),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// admitManifest submits every job in the manifest. Jobs too large for the
// farm are logged by the scheduler and skipped.
func admitManifest(ctx context.Context, sched *core.Scheduler, path string) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	for _, job := range m.PrintJobs(time.Now()) {
		if _, err := sched.Submit(ctx, job); err != nil && !errors.Is(err, core.ErrJobTooLarge) {
			return fmt.Errorf("admit %s: %w", job.Name, err)
		}
	}
	return nil
}
