package serverutils

import (
	"errors"

	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusOf maps the error taxonomy onto HTTP status codes.
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperror.ErrValidationFailed), errors.Is(err, apperror.ErrInvalidFile):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrProjectNotFound),
		errors.Is(err, apperror.ErrFileNotFound),
		errors.Is(err, apperror.ErrCollectionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrDuplicateKey), errors.Is(err, apperror.ErrDimensionMismatch):
		return fiber.StatusConflict
	case errors.Is(err, apperror.ErrTimeout):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, apperror.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

type pipelineFailure struct {
	Stage     string `json:"stage"`
	Batch     *int   `json:"batch,omitempty"`
	Succeeded int    `json:"succeeded"`
}

// ErrorHandlerMiddleware renders errors returned by handlers as ErrorResponse.
// Pipeline errors also carry the failing stage and how many records succeeded.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := StatusOf(err)
		details := map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"status": status,
			"error":  err.Error(),
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("http", "Request failed", details)
		} else {
			log.Warn("http", "Request rejected", details)
		}

		res := ErrorResponse(status, err.Error())
		var pe *apperror.PipelineError
		if errors.As(err, &pe) {
			failure := pipelineFailure{Stage: pe.Stage, Succeeded: pe.Succeeded}
			if pe.Stage == apperror.StageUpsert && pe.Batch >= 0 {
				failure.Batch = &pe.Batch
			}
			res.Data = failure
		}
		return ctx.Status(status).JSON(res)
	}
}
