package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"shoptrend-go/internal/app"
	"shoptrend-go/internal/config"
	"shoptrend-go/pkg/logger"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	application := &Application{}

	flag.StringVar(&application.configPath, "config", os.Getenv("TRENDS_CONFIG"), "Configuration file path (env: TRENDS_CONFIG)")
	flag.BoolVar(&application.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func (application *Application) Run() error {
	cfg, err := config.NewManager().Load(application.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logConfig := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	if application.debug || cfg.Server.Debug {
		logConfig.Level = "debug"
	}
	log := logger.Init(logConfig).WithField("component", "main")

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("Application panic recovered")
			os.Exit(1)
		}
	}()

	service, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithFields(map[string]interface{}{
		"addr":     cfg.Server.Addr(),
		"source":   cfg.Source.URL,
		"schedule": fmt.Sprintf("%02d:%02d %s", cfg.Schedule.Hour, cfg.Schedule.Minute, cfg.Schedule.Timezone),
		"enabled":  cfg.Schedule.Enabled,
	}).Info("Starting shoptrend server")

	if err := service.Run(ctx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
