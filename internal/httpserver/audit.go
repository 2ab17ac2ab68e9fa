package httpserver

import (
	"log/slog"
	"net/http"
)

// AuditEvent names a security-relevant action.
type AuditEvent string

const (
	AuditLoginSuccess     AuditEvent = "login_success"
	AuditLoginFailure     AuditEvent = "login_failure"
	AuditLoginRateLimited AuditEvent = "login_rate_limited"
	AuditLogout           AuditEvent = "logout"
	AuditPasswordChanged  AuditEvent = "password_changed"
	AuditUploadStored     AuditEvent = "upload_stored"
	AuditUploadDeleted    AuditEvent = "upload_deleted"
)

type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{logger: logger.With("component", "audit")}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
	}
	if id, ok := IdentityFromContext(r.Context()); ok {
		base = append(base, slog.String("user_id", id.UserID))
	}
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", append(base, attrs...)...)
}
