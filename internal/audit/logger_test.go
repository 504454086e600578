package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventnest/server/internal/api/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) (map[string]json.RawMessage, Entry) {
	t.Helper()
	var wrapper map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &wrapper))

	var entry Entry
	require.NoError(t, json.Unmarshal(wrapper["audit"], &entry))
	return wrapper, entry
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.Log(Entry{
		Action:       "account.update",
		ResourceType: "account",
		ResourceID:   "7",
		Details:      map[string]string{"fields": "email"},
	})

	wrapper, entry := decodeEntry(t, &buf)
	require.JSONEq(t, `"audit"`, string(wrapper["component"]))
	require.Equal(t, "account.update", entry.Action)
	require.Equal(t, "7", entry.ResourceID)
	require.Equal(t, "email", entry.Details["fields"])
	require.WithinDuration(t, time.Now(), entry.Timestamp, time.Minute)
}

func TestLogger_LogFromRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.LogFromRequest(r, "event.delete", "event", "3", nil)
	})
	handler = middleware.CorrelationID(zerolog.Nop())(handler)

	req := httptest.NewRequest(http.MethodDelete, "/events/3", nil)
	req.RemoteAddr = "192.0.2.10:54321"
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	_, entry := decodeEntry(t, &buf)
	require.Equal(t, "event.delete", entry.Action)
	require.Equal(t, "req-123", entry.RequestID)
	require.Equal(t, "192.0.2.10", entry.IPAddress)
}

func TestLogger_NilIsNoop(t *testing.T) {
	var logger *Logger
	require.NotPanics(t, func() {
		logger.Log(Entry{Action: "account.create"})
		logger.LogFromRequest(httptest.NewRequest(http.MethodPost, "/users/", nil), "account.create", "account", "1", nil)
	})
}
