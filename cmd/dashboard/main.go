package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"sector-insights/internal/bootstrap"
	"sector-insights/internal/logger"
	"sector-insights/internal/scheduler"
	"sector-insights/internal/selection"
	"sector-insights/internal/trace"
	"sector-insights/internal/web"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	must(bootstrap.InitializeSystem())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
	}()

	cfg, err := bootstrap.LoadConfig(ctx, *configPath)
	must(err)

	source := bootstrap.DataSource(cfg)
	completer, err := bootstrap.Completer(ctx, cfg)
	must(err)
	driver, rl, err := bootstrap.Driver(ctx, cfg, source, completer)
	must(err)

	if cfg.Schedule.Enabled {
		schedCfg := scheduler.Config{Spec: cfg.Schedule.Spec, Watchlist: cfg.Schedule.Watchlist}
		var sched *scheduler.Scheduler
		if rl != nil {
			schedCfg.RetentionDays = cfg.RunLog.RetentionDays
			sched = scheduler.NewScheduler(driver, rl, schedCfg)
		} else {
			sched = scheduler.NewScheduler(driver, nil, schedCfg)
		}
		must(sched.Start(ctx))
		defer sched.Stop()
	}

	srv, err := web.NewServer(cfg.Server.Addr, web.NewHandlers(selection.NewFlow(source), driver))
	must(err)

	logger.Info(ctx, "Dashboard started",
		"addr", cfg.Server.Addr,
		"provider", completer.Name(),
		"report_date", cfg.Sectors.ReportDate,
		"isolate_panels", cfg.IsolatePanels(),
	)
	if err := srv.Run(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Server stopped", err)
	}
	logger.Info(ctx, "Shutting down...")
}
