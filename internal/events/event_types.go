package events

import (
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered EventType = "account_registered"
	EventLoginSucceeded    EventType = "login_succeeded"
	EventLoginFailed       EventType = "login_failed"
)

// Login failure reasons recorded for auditing. The HTTP response never
// distinguishes them; only internal logging may.
const (
	LoginFailureUnknownEmail = "unknown_email"
	LoginFailureBadPassword  = "bad_password"
)

// Event represents an auth audit event emitted by services. Events carry the
// email involved but never a password or hash.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID int64       `json:"account_id,omitempty"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// AccountRegisteredPayload payload.
type AccountRegisteredPayload struct {
	Role domain.Role `json:"role"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}
