package access

import (
	"crypto/subtle"
	"log/slog"

	apperrors "qsignal/internal/errors"
	"qsignal/internal/session"
)

// Gate admits or blocks sessions based on one shared static access code
// held in process configuration. The code is compared in constant time and
// never logged. There is no lockout or backoff: a failed check simply
// leaves the session unauthenticated and the caller re-prompts.
type Gate struct {
	accessCode []byte
	logger     *slog.Logger
}

// NewGate creates a gate for the configured access code.
func NewGate(accessCode string, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		accessCode: []byte(accessCode),
		logger:     logger.With(slog.String("component", "access_gate")),
	}
}

// Check compares the submitted credential against the configured access
// code. On match the session is marked authenticated; on mismatch the
// session is left unauthenticated and ErrInvalidCredential is returned.
func (g *Gate) Check(sess *session.Session, submitted string) error {
	if subtle.ConstantTimeCompare(g.accessCode, []byte(submitted)) != 1 {
		g.logger.Warn("access check failed",
			slog.String("session_id", sess.ID))
		return apperrors.ErrInvalidCredential
	}

	sess.SetAuthenticated(true)
	g.logger.Info("session authenticated",
		slog.String("session_id", sess.ID))
	return nil
}
