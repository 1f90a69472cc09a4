package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/itsgate/pkg/controller/http"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		gt.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	return lines
}

func findLog(t *testing.T, lines []map[string]any, msg string) map[string]any {
	t.Helper()
	for _, l := range lines {
		if l["msg"] == msg {
			return l
		}
	}
	t.Fatalf("no %q log line in %v", msg, lines)
	return nil
}

func TestAccessLog(t *testing.T) {
	newServer := func(t *testing.T) (*controller.Server, *bytes.Buffer) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		server, err := controller.NewServer(
			ctxlog.With(context.Background(), logger),
			&mockEventUseCase{},
			controller.WithWebhookSecret("test-secret"),
		)
		gt.NoError(t, err)
		return server, &buf
	}

	t.Run("successful request logged at info", func(t *testing.T) {
		server, buf := newServer(t)

		w := httptest.NewRecorder()
		server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		gt.Equal(t, w.Code, http.StatusOK)

		entry := findLog(t, logLines(t, buf), "HTTP request")
		gt.Equal(t, entry["level"], "INFO")
		gt.Equal(t, entry["method"], "GET")
		gt.Equal(t, entry["path"], "/health")
		gt.Equal[any](t, entry["status"], float64(http.StatusOK))
		gt.True(t, entry["bytes"].(float64) > 0)
		gt.S(t, entry["request_id"].(string)).IsNotEmpty()
	})

	t.Run("rejected webhook logged at warn with handler logs sharing request id", func(t *testing.T) {
		server, buf := newServer(t)

		req := httptest.NewRequest(http.MethodPost, "/hooks/gerrit", strings.NewReader(`{"type":"change-merged"}`))
		req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
		w := httptest.NewRecorder()
		server.Handler.ServeHTTP(w, req)
		gt.Equal(t, w.Code, http.StatusUnauthorized)

		var body map[string]string
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		gt.Equal(t, body["error"], "invalid signature")

		lines := logLines(t, buf)
		access := findLog(t, lines, "HTTP request")
		handler := findLog(t, lines, "Invalid webhook signature")
		gt.Equal(t, access["level"], "WARN")
		gt.Equal[any](t, access["status"], float64(http.StatusUnauthorized))
		gt.Equal(t, handler["request_id"], access["request_id"])
	})
}
