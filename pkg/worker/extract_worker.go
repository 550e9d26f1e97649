package worker

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"

	"github.com/feichai0017/metadata-extractor/pkg/logger"
	"github.com/feichai0017/metadata-extractor/pkg/queue"
)

var ErrInvalidTask = errors.New("invalid task data")

// TaskHandler executes one decoded extraction task.
type TaskHandler interface {
	HandleTask(ctx context.Context, task *queue.Task) error
}

type ExtractWorker struct {
	*BaseWorker
	handler TaskHandler
}

func NewExtractWorker(cfg *Config, handler TaskHandler, log logger.Logger) (*ExtractWorker, error) {
	if handler == nil {
		return nil, errors.New("worker: nil task handler")
	}

	w := &ExtractWorker{
		BaseWorker: newBaseWorker(cfg, log),
		handler:    handler,
	}
	w.mux.HandleFunc(queue.TaskTypeMetadataExtract, w.handleExtract)
	return w, nil
}

func (w *ExtractWorker) handleExtract(ctx context.Context, t *asynq.Task) error {
	task, err := queue.DecodeTask(t.Payload())
	if err != nil {
		w.logger.Error("Failed to decode task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	path, ok := task.PayloadString("path")
	if task.ID == "" || !ok || path == "" {
		w.logger.Error("Invalid task data",
			logger.String("taskId", task.ID),
			logger.Any("payload", task.Payload),
		)
		return fmt.Errorf("%w: %w", asynq.SkipRetry, ErrInvalidTask)
	}

	ctx = logger.WithTaskID(ctx, task.ID)
	log := logger.FromContext(ctx, w.logger)
	log.Info("Processing extraction task", logger.String("path", path))

	w.writeResult(t, taskResult{Status: queue.StatusRunning})

	if err := w.handler.HandleTask(ctx, task); err != nil {
		w.writeResult(t, taskResult{Status: queue.StatusFailed, Error: err.Error()})
		log.Error("Extraction task failed", logger.Error(err))
		return err
	}

	w.writeResult(t, taskResult{Status: queue.StatusCompleted, Progress: 100})
	return nil
}

// taskResult is the progress body stored with the asynq task.
type taskResult struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

func (r taskResult) encode() ([]byte, error) {
	return json.Marshal(r)
}

// writeResult is a no-op for tasks not delivered by an asynq server.
func (w *ExtractWorker) writeResult(t *asynq.Task, res taskResult) {
	rw := t.ResultWriter()
	if rw == nil {
		return
	}
	body, err := res.encode()
	if err != nil {
		w.logger.Error("Failed to encode task result", logger.Error(err))
		return
	}
	if _, err := rw.Write(body); err != nil {
		w.logger.Error("Failed to write task result", logger.Error(err))
	}
}
