package service

import (
	"context"
	"strings"
	"time"

	"rag-pipeline-be/pkg/apperror"
)

const (
	defaultPageSize = 10
	maxPageSize     = 500
)

// withTimeout bounds one external call. A zero duration only adds cancellation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func normalizeProjectId(projectId string) (string, error) {
	projectId = strings.TrimSpace(projectId)
	if projectId == "" {
		return "", apperror.NewValidationError("project_id", "must not be empty")
	}
	if len(projectId) > 255 {
		return "", apperror.NewValidationError("project_id", "must be at most 255 characters")
	}
	return projectId, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
