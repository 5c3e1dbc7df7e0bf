package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/mthomas-dev/vaccine-analytics/internal/application"
	"github.com/mthomas-dev/vaccine-analytics/internal/config"
	"github.com/mthomas-dev/vaccine-analytics/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("vaccine-pipeline", "Vaccine Analytics Pipeline - computes chart aggregates and key numbers from public-health dataset snapshots")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	inputDir := kingpinApp.Flag("input", "Directory holding dataset snapshots").String()
	outputDir := kingpinApp.Flag("output", "Directory for chart artifacts and key numbers").String()

	runCmd := kingpinApp.Command("run", "Run every pipeline whose snapshot is present, then exit")

	serveCmd := kingpinApp.Command("serve", "Run the pipelines and serve the results for preview")
	port := serveCmd.Flag("port", "HTTP port exposed by the preview server").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	if *inputDir != "" {
		overrides.InputDir = inputDir
	}
	if *outputDir != "" {
		overrides.OutputDir = outputDir
	}
	if *port != "" {
		overrides.Port = port
	}
	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}
	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(command)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if _, err := app.RunPipelines(); err != nil {
		logger.Fatal("pipeline run failed", zap.Error(err))
	}

	if command == runCmd.FullCommand() {
		return
	}
	if err := app.StartServer(); err != nil {
		logger.Fatal("failed to start preview server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.Server.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down preview server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
