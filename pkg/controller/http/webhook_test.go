package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/itsgate/pkg/controller/http"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
	"github.com/m-mizutani/itsgate/pkg/utils/async"
)

const patchSetCreated = `{"type":"patchset-created","change":{"project":"app","branch":"main","number":1},"patchSet":{"number":1,"revision":"abc"}}`

type mockEventUseCase struct {
	mu          sync.Mutex
	events      []model.Event
	OnEventFunc func(ctx context.Context, event model.Event) error
}

func (m *mockEventUseCase) OnEvent(ctx context.Context, event model.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.OnEventFunc != nil {
		return m.OnEventFunc(ctx, event)
	}
	return nil
}

func (m *mockEventUseCase) received() []model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Event(nil), m.events...)
}

// generateSignature generates HMAC-SHA256 signature for testing
func generateSignature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func waitFor(t *testing.T, d *async.Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	gt.NoError(t, d.Wait(ctx))
}

func TestWebhookHandler_SignatureVerification(t *testing.T) {
	secret := "test-secret"

	tests := []struct {
		name           string
		signature      string
		sign           bool
		wantStatusCode int
	}{
		{name: "Valid signature", sign: true, wantStatusCode: http.StatusAccepted},
		{name: "Invalid signature", signature: "sha256=invalid", wantStatusCode: http.StatusUnauthorized},
		{name: "Missing signature", wantStatusCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockEventUseCase{}
			dispatcher := async.NewDispatcher(0)
			handler := controller.NewWebhookHandler(secret, uc, dispatcher)

			payload := []byte(patchSetCreated)
			signature := tt.signature
			if tt.sign {
				signature = generateSignature(secret, payload)
			}

			req := httptest.NewRequest(http.MethodPost, "/hooks/gerrit", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			if signature != "" {
				req.Header.Set("X-Hub-Signature-256", signature)
			}

			w := httptest.NewRecorder()
			handler.Handle(w, req)
			waitFor(t, dispatcher)

			if w.Code != tt.wantStatusCode {
				t.Errorf("Handle() status = %v, want %v, body = %s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantStatusCode == http.StatusAccepted {
				gt.Number(t, len(uc.received())).Equal(1)
			} else {
				gt.Number(t, len(uc.received())).Equal(0)
			}
		})
	}

	t.Run("No secret skips verification", func(t *testing.T) {
		uc := &mockEventUseCase{}
		dispatcher := async.NewDispatcher(0)
		handler := controller.NewWebhookHandler("", uc, dispatcher)

		req := httptest.NewRequest(http.MethodPost, "/hooks/gerrit", bytes.NewReader([]byte(patchSetCreated)))
		w := httptest.NewRecorder()
		handler.Handle(w, req)
		waitFor(t, dispatcher)

		gt.Equal(t, w.Code, http.StatusAccepted)
		gt.Number(t, len(uc.received())).Equal(1)
	})
}

func TestWebhookHandler_EventParsing(t *testing.T) {
	tests := []struct {
		name           string
		payload        string
		delivery       string
		wantStatusCode int
		wantStatus     string
		wantEvents     int
	}{
		{
			name:           "patch set created",
			payload:        patchSetCreated,
			delivery:       "test-delivery",
			wantStatusCode: http.StatusAccepted,
			wantStatus:     "accepted",
			wantEvents:     1,
		},
		{
			name:           "unsupported event type",
			payload:        `{"type":"reviewer-added"}`,
			wantStatusCode: http.StatusAccepted,
			wantStatus:     "ignored",
		},
		{
			name:           "broken json",
			payload:        `{"type":`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockEventUseCase{}
			dispatcher := async.NewDispatcher(0)
			handler := controller.NewWebhookHandler("", uc, dispatcher)

			req := httptest.NewRequest(http.MethodPost, "/hooks/gerrit", bytes.NewReader([]byte(tt.payload)))
			if tt.delivery != "" {
				req.Header.Set("X-Gerrit-Delivery", tt.delivery)
			}

			w := httptest.NewRecorder()
			handler.Handle(w, req)
			waitFor(t, dispatcher)

			gt.Equal(t, w.Code, tt.wantStatusCode)
			gt.Number(t, len(uc.received())).Equal(tt.wantEvents)
			if tt.wantStatus == "" {
				return
			}

			var response map[string]string
			gt.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			gt.Equal(t, response["status"], tt.wantStatus)
			if tt.delivery != "" {
				gt.Equal(t, response["delivery_id"], tt.delivery)
			} else {
				gt.NotEqual(t, response["delivery_id"], "")
			}
		})
	}

	t.Run("use case error does not change response", func(t *testing.T) {
		uc := &mockEventUseCase{
			OnEventFunc: func(ctx context.Context, event model.Event) error {
				return errors.New("tracker down")
			},
		}
		dispatcher := async.NewDispatcher(0)
		handler := controller.NewWebhookHandler("", uc, dispatcher)

		req := httptest.NewRequest(http.MethodPost, "/hooks/gerrit", bytes.NewReader([]byte(patchSetCreated)))
		w := httptest.NewRecorder()
		handler.Handle(w, req)
		waitFor(t, dispatcher)

		gt.Equal(t, w.Code, http.StatusAccepted)
		gt.Equal(t, uc.received()[0].Kind(), model.EventKindPatchSetCreated)
	})
}

func TestWebhookHandler_Integration(t *testing.T) {
	ctx := context.Background()
	secret := "integration-test-secret"
	uc := &mockEventUseCase{}

	server, err := controller.NewServer(
		ctx,
		uc,
		controller.WithAddr("localhost:0"),
		controller.WithWebhookSecret(secret),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ts := httptest.NewServer(server.Handler)
	defer ts.Close()

	payload := []byte(patchSetCreated)
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/hooks/gerrit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gerrit-Delivery", "integration-test")
	req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer func() {
		_ = resp.Body.Close() // Error ignored in test
	}()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("Status code = %v, want %v", resp.StatusCode, http.StatusAccepted)
	}

	drainCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	gt.NoError(t, server.Drain(drainCtx))
	gt.Number(t, len(uc.received())).Equal(1)
}
