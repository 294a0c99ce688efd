// Package audit logs security-relevant account events in a structured JSON
// form that log pipelines can filter on.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	EventLoginFailure       SecurityEventType = "login_failure"
	EventPasswordChanged    SecurityEventType = "password_changed"
	EventTokenRevoked       SecurityEventType = "token_revoked"
	EventRoleChanged        SecurityEventType = "role_changed"
	EventAccountDeactivated SecurityEventType = "account_deactivated"
)

// SecurityEvent is the JSON payload attached to every audit entry.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	ActorID   string            `json:"actor_id,omitempty"`
	SubjectID string            `json:"subject_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Severity  string            `json:"severity"` // info, warning
}

// SecurityAuditor logs security events under the "security_audit" logger name.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{
		logger: logger.Named("security_audit"),
		now:    time.Now,
	}
}

// LogLoginFailure records a rejected login. The attempted email is kept, the
// password never is.
func (a *SecurityAuditor) LogLoginFailure(email, reason string) {
	a.emit(zapcore.WarnLevel, "Login failed", SecurityEvent{
		EventType: EventLoginFailure,
		Details:   map[string]string{"email": email, "reason": reason},
		Severity:  "warning",
	})
}

func (a *SecurityAuditor) LogPasswordChanged(actor *auth.Identity) {
	a.emit(zapcore.InfoLevel, "Password changed", SecurityEvent{
		EventType: EventPasswordChanged,
		ActorID:   actorID(actor),
		SubjectID: actorID(actor),
		Severity:  "info",
	})
}

// LogTokenRevoked records a logout that placed the token on the denylist.
func (a *SecurityAuditor) LogTokenRevoked(actor *auth.Identity) {
	a.emit(zapcore.InfoLevel, "Token revoked", SecurityEvent{
		EventType: EventTokenRevoked,
		ActorID:   actorID(actor),
		SubjectID: actorID(actor),
		Details:   map[string]string{"token_id": actor.TokenID},
		Severity:  "info",
	})
}

func (a *SecurityAuditor) LogRoleChanged(actor *auth.Identity, subject uuid.UUID, role models.Role) {
	a.emit(zapcore.WarnLevel, "User role changed", SecurityEvent{
		EventType: EventRoleChanged,
		ActorID:   actorID(actor),
		SubjectID: subject.String(),
		Details:   map[string]string{"role": string(role)},
		Severity:  "warning",
	})
}

func (a *SecurityAuditor) LogAccountDeactivated(actor *auth.Identity, subject uuid.UUID) {
	a.emit(zapcore.InfoLevel, "User deactivated", SecurityEvent{
		EventType: EventAccountDeactivated,
		ActorID:   actorID(actor),
		SubjectID: subject.String(),
		Severity:  "info",
	})
}

func (a *SecurityAuditor) emit(level zapcore.Level, msg string, event SecurityEvent) {
	event.Timestamp = a.now().UTC()

	// Marshaling a struct of strings cannot fail.
	eventJSON, _ := json.Marshal(event)

	if ce := a.logger.Check(level, msg); ce != nil {
		ce.Write(
			zap.String("event_json", string(eventJSON)),
			zap.String("event_type", string(event.EventType)),
			zap.String("actor_id", event.ActorID),
			zap.String("subject_id", event.SubjectID),
			zap.String("severity", event.Severity),
		)
	}
}

func actorID(actor *auth.Identity) string {
	if actor == nil {
		return ""
	}
	return actor.ID.String()
}
