// Package audit records successful mutations of accounts and events as
// structured log entries, separate from the access log.
package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/eventnest/server/internal/api/middleware"
	"github.com/rs/zerolog"
)

// Entry represents a single audit log entry with structured fields
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	ResourceType string            `json:"resource_type"`
	ResourceID   string            `json:"resource_id,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	IPAddress    string            `json:"ip_address,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
}

type Logger struct {
	logger zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "audit").Logger()}
}

// Log writes entry under the "audit" key. A nil Logger discards it.
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.logger.Info().Interface("audit", entry).Msg(entry.Action)
}

// LogFromRequest fills the request ID and client address from r.
func (l *Logger) LogFromRequest(r *http.Request, action, resourceType, resourceID string, details map[string]string) {
	if l == nil {
		return
	}
	l.Log(Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    middleware.GetRequestID(r.Context()),
		IPAddress:    remoteIP(r),
		Details:      details,
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
