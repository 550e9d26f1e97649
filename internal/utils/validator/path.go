package validator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	playground "github.com/go-playground/validator/v10"

	"github.com/feichai0017/metadata-extractor/internal/models"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
)

// PathValidator checks extraction requests before they reach the pipeline.
type PathValidator struct {
	logger   logger.Logger
	config   *ValidatorConfig
	validate *playground.Validate
}

type ValidatorConfig struct {
	// AllowedRoots restricts paths to these directories. Empty allows any
	// path.
	AllowedRoots []string
	MaxBatchSize int
	Categories   *models.CategoryTable
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors is returned by ValidateRequest.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

type FileInfo struct {
	Path      string `json:"path"`
	Exists    bool   `json:"exists"`
	Size      int64  `json:"size,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	Extension string `json:"extension"`
	Category  string `json:"category,omitempty"`
}

// ExtractRequest is the body of a synchronous extraction.
type ExtractRequest struct {
	Path string `json:"path" validate:"required"`
}

// BatchRequest is the body of a queued batch extraction.
type BatchRequest struct {
	Paths    []string `json:"paths" validate:"required,min=1,dive,required"`
	Priority int      `json:"priority" validate:"gte=0,lte=2"`
}

func NewPathValidator(log logger.Logger, config *ValidatorConfig) *PathValidator {
	if config == nil {
		config = &ValidatorConfig{MaxBatchSize: 500}
	}
	if log == nil {
		log = logger.NewNop()
	}

	roots := make([]string, 0, len(config.AllowedRoots))
	for _, r := range config.AllowedRoots {
		if abs, err := filepath.Abs(r); err == nil {
			roots = append(roots, abs)
		}
	}
	cfg := *config
	cfg.AllowedRoots = roots

	return &PathValidator{
		logger:   log,
		config:   &cfg,
		validate: playground.New(),
	}
}

// ValidateRequest checks struct tags and the batch size limit.
func (v *PathValidator) ValidateRequest(req interface{}) error {
	var errs ValidationErrors

	if err := v.validate.Struct(req); err != nil {
		var fieldErrs playground.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{
				Code:    "INVALID_" + strings.ToUpper(fe.Tag()),
				Message: fmt.Sprintf("failed on the %q rule", fe.Tag()),
				Field:   fe.Namespace(),
			})
		}
	}

	if batch, ok := req.(*BatchRequest); ok && v.config.MaxBatchSize > 0 && len(batch.Paths) > v.config.MaxBatchSize {
		errs = append(errs, ValidationError{
			Code:    "BATCH_TOO_LARGE",
			Message: fmt.Sprintf("batch holds %d paths, limit is %d", len(batch.Paths), v.config.MaxBatchSize),
			Field:   "paths",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidatePath checks that path is inside an allowed root. A missing file is
// not a validation error: it produces the pipeline's error record instead.
func (v *PathValidator) ValidatePath(path string) *ValidationResult {
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Path:      path,
			Extension: models.FileExtension(path),
		},
	}

	if strings.TrimSpace(path) == "" {
		result.addError("EMPTY_PATH", "path is empty", "path")
		return result
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		result.addError("INVALID_PATH", err.Error(), "path")
		return result
	}
	result.FileInfo.Path = abs

	if !v.withinRoots(abs) {
		result.addError("PATH_NOT_ALLOWED", fmt.Sprintf("%s is outside the allowed directories", abs), "path")
		return result
	}

	if v.config.Categories != nil {
		result.FileInfo.Category = string(v.config.Categories.Classify(result.FileInfo.Extension))
	}

	fi, err := os.Stat(abs)
	if err != nil || !fi.Mode().IsRegular() {
		return result
	}
	result.FileInfo.Exists = true
	result.FileInfo.Size = fi.Size()

	if mt, err := mimetype.DetectFile(abs); err == nil {
		result.FileInfo.MimeType = mt.String()
	} else {
		v.logger.Debug("MIME detection failed",
			logger.String("path", abs),
			logger.Error(err),
		)
	}

	return result
}

func (v *PathValidator) withinRoots(abs string) bool {
	if len(v.config.AllowedRoots) == 0 {
		return true
	}
	for _, root := range v.config.AllowedRoots {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

func (r *ValidationResult) addError(code, message, field string) {
	r.IsValid = false
	r.Errors = append(r.Errors, ValidationError{Code: code, Message: message, Field: field})
}

// Err returns the result's errors, or nil when valid.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return ValidationErrors(r.Errors)
}
