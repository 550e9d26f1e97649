package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/feichai0017/metadata-extractor/config"
	"github.com/feichai0017/metadata-extractor/internal/service/extract"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
	"github.com/feichai0017/metadata-extractor/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	components, err := extract.GetService(log)
	if err != nil {
		log.Error("Failed to create metadata service", logger.Error(err))
		os.Exit(1)
	}
	defer components.Queue.Close()

	workerCfg := worker.ConfigFromQueue(config.GetQueueConfig())

	extractWorker, err := worker.NewExtractWorker(workerCfg, components.Service, log.Named("worker"))
	if err != nil {
		log.Error("Failed to create extract worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := extractWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker started", logger.Int("concurrency", workerCfg.Concurrency))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	extractWorker.Stop()
	log.Info("Worker stopped")
}
