package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomkit/gateway/infra/response"
	"github.com/ecomkit/gateway/provider"
)

// maxWebhookBody bounds inbound webhook payloads.
const maxWebhookBody = 1 << 20

// WebhookHandler receives provider webhooks on /webhooks/{provider}.
type WebhookHandler struct {
	service *provider.Service
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(service *provider.Service) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// Receive handles POST /webhooks/{provider}. The delivery is persisted before
// verification and processed synchronously; 200 is returned only when the
// event reached its processed state, so vendors retry anything else.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	providerKey := chi.URLParam(r, "provider")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	receipt, err := h.service.ProcessWebhook(r.Context(), providerKey, headers, body)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Webhook processed", receipt)
}
