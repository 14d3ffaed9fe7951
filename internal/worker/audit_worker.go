package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/events"
)

// StartAuditWorker subscribes audit handlers that turn auth events into
// structured log records.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	audit := logger.Named("audit")

	dispatcher.Subscribe(events.EventAccountRegistered, func(_ context.Context, e events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", e.ID),
			zap.Int64("account_id", e.AccountID),
			zap.String("email", e.Email),
		}
		if payload, ok := e.Payload.(events.AccountRegisteredPayload); ok {
			fields = append(fields, zap.String("role", string(payload.Role)))
		}
		audit.Info("account registered", fields...)
		return nil
	})

	dispatcher.Subscribe(events.EventLoginSucceeded, func(_ context.Context, e events.Event) error {
		audit.Info("login succeeded",
			zap.String("event_id", e.ID),
			zap.Int64("account_id", e.AccountID),
			zap.String("email", e.Email),
		)
		return nil
	})

	dispatcher.Subscribe(events.EventLoginFailed, func(_ context.Context, e events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", e.ID),
			zap.String("email", e.Email),
		}
		if payload, ok := e.Payload.(events.LoginFailedPayload); ok {
			fields = append(fields, zap.String("reason", payload.Reason))
		}
		audit.Warn("login failed", fields...)
		return nil
	})
}
