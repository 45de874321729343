package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrDimensionMismatch   = errors.New("dimension mismatch")
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrTemplateNotFound    = errors.New("template not found")
	ErrGenerationDeclined  = errors.New("generation declined")
	ErrTimeout             = errors.New("operation timed out")
	ErrProjectNotFound     = errors.New("project not found")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrFileNotFound        = errors.New("file not found")
	ErrInvalidFile         = errors.New("invalid file")
)

// Pipeline stages reported by PipelineError.
const (
	StageChunking   = "chunking"
	StageAllocation = "allocation"
	StageInsertion  = "insertion"
	StageEmbedding  = "embedding"
	StageUpsert     = "upsert"
	StageSearch     = "search"
	StagePrompt     = "prompt"
	StageGeneration = "generation"
	StageReset      = "reset"
)

// ValidationError names the record field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidationFailed, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// PipelineError localizes a failure inside the ingestion or query pipeline.
// Succeeded is the number of records committed before the failure.
type PipelineError struct {
	Stage     string
	ProjectID string
	Filename  string
	FileIndex int
	Batch     int
	Succeeded int
	Err       error
}

func (e *PipelineError) Error() string {
	var b strings.Builder
	b.WriteString(e.Stage)
	if e.ProjectID != "" {
		fmt.Fprintf(&b, " [project=%s", e.ProjectID)
		if e.Filename != "" {
			fmt.Fprintf(&b, " file=%s", e.Filename)
		}
		if e.Batch >= 0 && e.Stage == StageUpsert {
			fmt.Fprintf(&b, " batch=%d", e.Batch)
		}
		b.WriteString("]")
	}
	fmt.Fprintf(&b, " succeeded=%d: %v", e.Succeeded, e.Err)
	return b.String()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewPipelineError(stage, projectID string, err error) *PipelineError {
	return &PipelineError{Stage: stage, ProjectID: projectID, Batch: -1, Err: err}
}

// StageOf returns the failing stage of err, or "" when err is not a PipelineError.
func StageOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}

// FromStore classifies a persistence error into the taxonomy.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isTaxonomy(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// FromRemote classifies an error returned by an HTTP backend.
func FromRemote(err error) error {
	if err == nil {
		return nil
	}
	if isTaxonomy(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique-constraint violation
// raised by postgres or sqlite.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func isTaxonomy(err error) bool {
	for _, target := range []error{
		ErrValidationFailed, ErrStoreUnavailable, ErrDuplicateKey, ErrDimensionMismatch,
		ErrCollectionNotFound, ErrTemplateNotFound, ErrGenerationDeclined, ErrTimeout,
		ErrProjectNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
