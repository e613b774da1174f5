package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	apiserver "github.com/synthbed/tts-api/internal/api_server"
	"github.com/synthbed/tts-api/internal/audiostorage"
	"github.com/synthbed/tts-api/internal/config"
	"github.com/synthbed/tts-api/internal/engine"
	"github.com/synthbed/tts-api/internal/engine/sine"
	"github.com/synthbed/tts-api/internal/service"
	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/webhook"
	"github.com/synthbed/tts-api/internal/worker"
	"github.com/synthbed/tts-api/pkg/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		zap.S().Fatalf("reading configuration: %v", err)
	}

	logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	zap.S().Info("Starting TTS API service")
	defer zap.S().Info("TTS API service stopped")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	s := store.NewStore()
	defer s.Close()

	eng := engine.NewManager(cfg.Engine.SupportedLanguages, cfg.Engine.DefaultLanguage, sine.New())

	storage, err := audiostorage.New(ctx, cfg)
	if err != nil {
		zap.S().Fatalf("initializing audio storage: %v", err)
	}

	dispatcher := webhook.NewDispatcher(s, cfg.Webhook.Secret, cfg.Webhook.Timeout, cfg.Webhook.MaxAttempts)
	jobSrv := service.NewJobService(s, eng, storage, dispatcher, cfg.Pipeline.PendingCeiling)

	w := worker.New(s, eng, storage, dispatcher, cfg.Pipeline.WorkerPollInterval)
	go w.Run(ctx)

	reaper := worker.NewReaper(s, cfg.Pipeline.JobTimeout, cfg.Pipeline.ReaperInterval)
	go reaper.Run(ctx)

	sweeper := audiostorage.NewRetentionSweeper(storage, cfg.Storage.RetentionAge, cfg.Storage.SweepInterval)
	go sweeper.Run(ctx)

	go func() {
		listener, err := newListener(cfg.Service.Address)
		if err != nil {
			zap.S().Fatalf("creating listener: %s", err)
		}

		server := apiserver.New(cfg, jobSrv, eng, s, w, listener)
		if err := server.Run(ctx); err != nil {
			zap.S().Fatalf("Error running server: %s", err)
		}
		cancel()
	}()

	go func() {
		listener, err := newListener(cfg.Service.MetricsAddress)
		if err != nil {
			zap.S().Fatalf("creating metrics listener: %s", err)
		}

		metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
		if err := metricsServer.Run(ctx); err != nil {
			zap.S().Fatalf("Error running metrics server: %s", err)
		}
		cancel()
	}()

	<-ctx.Done()
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
