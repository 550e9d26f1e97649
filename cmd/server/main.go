package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/metadata-extractor/api/handlers"
	"github.com/feichai0017/metadata-extractor/api/routes"
	"github.com/feichai0017/metadata-extractor/config"
	"github.com/feichai0017/metadata-extractor/internal/service/extract"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
)

func main() {
	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/server.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.GetServerConfig()

	// init metadata service
	components, err := extract.GetService(log)
	if err != nil {
		log.Fatal("Failed to get metadata service", logger.Error(err))
	}
	defer components.Queue.Close()

	// init handlers
	h := handlers.NewHandlers(components.Service, components.Validator, map[string]handlers.Check{
		"redis": components.Queue.Ping,
	}, log.Named("api"))
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, log.Named("http"))

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupLoop(ctx, components.Service, cfg.RetentionPeriod, log)

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}

// cleanupLoop drops stored results older than the retention period.
func cleanupLoop(ctx context.Context, svc extract.MetadataService, retention time.Duration, log logger.Logger) {
	interval := retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.CleanupResults(ctx); err != nil {
				log.Warn("Result cleanup failed", logger.Error(err))
			}
		}
	}
}
