package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/metadata-extractor/internal/models"
	"github.com/feichai0017/metadata-extractor/internal/service/extract"
	"github.com/feichai0017/metadata-extractor/internal/utils/validator"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
	"github.com/feichai0017/metadata-extractor/pkg/queue"
)

type MetadataHandler struct {
	service   extract.MetadataService
	validator *validator.PathValidator
	logger    logger.Logger
}

type TaskResponse struct {
	TaskID    string `json:"taskId"`
	Status    string `json:"status"`
	Path      string `json:"path"`
	CreatedAt string `json:"createdAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewMetadataHandler(service extract.MetadataService, v *validator.PathValidator, log logger.Logger) *MetadataHandler {
	return &MetadataHandler{
		service:   service,
		validator: v,
		logger:    log,
	}
}

// Extract runs the pipeline synchronously for one path.
func (h *MetadataHandler) Extract(c *gin.Context) {
	var req validator.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.ValidateRequest(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	rec, err := h.service.ExtractNow(c.Request.Context(), req.Path)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to extract metadata", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"failed":   rec.Failed(),
		"metadata": rec,
	})
}

// Batch queues one extraction task per path.
func (h *MetadataHandler) Batch(c *gin.Context) {
	var req validator.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tasks, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to submit batch", err)
		return
	}

	responses := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = TaskResponse{
			TaskID:    task.ID,
			Status:    string(task.Status),
			Path:      task.Path,
			CreatedAt: task.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusAccepted, gin.H{
		"count": len(responses),
		"tasks": responses,
	})
}

func (h *MetadataHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	task, err := h.service.GetStatus(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"taskId":    task.ID,
		"status":    string(task.Status),
		"progress":  task.Progress,
		"error":     task.Error,
		"createdAt": task.CreatedAt.Format(time.RFC3339),
		"updatedAt": task.UpdatedAt.Format(time.RFC3339),
	})
}

func (h *MetadataHandler) GetResult(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	rec, err := h.service.GetResult(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to get result", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"taskId":   taskID,
		"failed":   rec.Failed(),
		"metadata": rec,
	})
}

func (h *MetadataHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	if err := h.service.CancelTask(c.Request.Context(), taskID); err != nil {
		h.handleError(c, statusFor(err), "Failed to cancel task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"taskId":  taskID,
		"status":  string(models.StatusCancelled),
	})
}

func statusFor(err error) int {
	switch {
	case extract.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, queue.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, extract.ErrTaskNotCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *MetadataHandler) handleError(c *gin.Context, status int, message string, err error) {
	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	log := logger.FromContext(c.Request.Context(), h.logger)
	if status >= http.StatusInternalServerError {
		log.Error(message, fields...)
	} else {
		log.Warn(message, fields...)
	}

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}
