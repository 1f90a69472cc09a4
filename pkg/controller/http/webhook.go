package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
	"github.com/m-mizutani/itsgate/pkg/utils/async"
)

const maxPayloadSize = 5 << 20

// WebhookHandler receives stream-events JSON posted by a webhook plugin
type WebhookHandler struct {
	secret     string
	eventUC    interfaces.EventUseCase
	dispatcher *async.Dispatcher
}

// NewWebhookHandler creates a new WebhookHandler. An empty secret disables signature checks.
func NewWebhookHandler(secret string, eventUC interfaces.EventUseCase, dispatcher *async.Dispatcher) *WebhookHandler {
	if dispatcher == nil {
		dispatcher = async.NewDispatcher(0)
	}
	return &WebhookHandler{
		secret:     secret,
		eventUC:    eventUC,
		dispatcher: dispatcher,
	}
}

// Handle accepts one event and processes it in the background
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadSize))
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeError(w, r, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if h.secret != "" && !h.verifySignature(body, r.Header.Get("X-Hub-Signature-256")) {
		logger.Warn("Invalid webhook signature")
		writeError(w, r, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	deliveryID := r.Header.Get("X-Gerrit-Delivery")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	logger = logger.With("delivery_id", deliveryID)

	ev, err := model.DecodeEvent(body)
	if errors.Is(err, model.ErrUnsupportedEvent) {
		logger.Debug("Ignoring unsupported event", "error", err)
		writeStatus(w, http.StatusAccepted, "ignored", deliveryID)
		return
	}
	if err != nil {
		logger.Error("Failed to decode event", "error", err)
		writeError(w, r, goerr.Wrap(err, "invalid event payload"), http.StatusBadRequest)
		return
	}

	delivery := &model.Delivery{
		ID:         deliveryID,
		Source:     "webhook",
		ReceivedAt: time.Now(),
		Event:      ev,
	}
	logger.Info("Event received",
		"event_type", ev.Kind(),
		"project", ev.ProjectName(),
		"supported", delivery.IsSupported(),
	)

	h.dispatcher.Dispatch(ctxlog.With(ctx, logger), func(ctx context.Context) error {
		return h.eventUC.OnEvent(ctx, delivery.Event)
	})

	writeStatus(w, http.StatusAccepted, "accepted", deliveryID)
}

// verifySignature checks the HMAC-SHA256 of the payload
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}

func writeStatus(w http.ResponseWriter, code int, status, deliveryID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":      status,
		"delivery_id": deliveryID,
	})
}
