package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// RequestLogger emits one structured log line per request and feeds the
// request counters. Bodies are never logged; auth payloads carry passwords.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			// the error middleware upstream has not written the response yet
			status = apperrors.ToDomainError(err).HTTPStatus
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		}
		if reqID := c.GetRespHeader(fiber.HeaderXRequestID); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		logger.Info("request handled", fields...)

		metrics.RecordRequest(c.Route().Path, c.Method(), status, duration)
		return err
	}
}
