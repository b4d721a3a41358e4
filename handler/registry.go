package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomkit/gateway/infra/response"
	"github.com/ecomkit/gateway/provider"
)

// RegistryHandler lists the provider catalog for the admin panel.
type RegistryHandler struct {
	service *provider.Service
}

// NewRegistryHandler creates a new registry handler.
func NewRegistryHandler(service *provider.Service) *RegistryHandler {
	return &RegistryHandler{service: service}
}

type descriptorView struct {
	provider.Descriptor
	Enabled    bool `json:"enabled"`
	Configured bool `json:"configured"`
}

func (h *RegistryHandler) view(r *http.Request, desc provider.Descriptor) descriptorView {
	ctx := r.Context()
	view := descriptorView{Descriptor: desc}

	enabled, err := h.service.Settings().IsEnabled(ctx, desc.Category, desc.Key)
	if err == nil {
		view.Enabled = enabled
	}
	env, err := h.service.Settings().Environment(ctx, desc.Category)
	if err == nil {
		configured, err := h.service.Credentials().IsConfigured(ctx, desc.Category, desc.Key, env)
		if err == nil {
			view.Configured = configured
		}
	}
	return view
}

// List handles GET /v1/providers, optionally filtered by ?category=.
func (h *RegistryHandler) List(w http.ResponseWriter, r *http.Request) {
	var descriptors []provider.Descriptor
	if category := r.URL.Query().Get("category"); category != "" {
		descriptors = h.service.Registry().ByCategory(provider.Category(category))
	} else {
		descriptors = h.service.Registry().All()
	}

	views := make([]descriptorView, 0, len(descriptors))
	for _, desc := range descriptors {
		views = append(views, h.view(r, desc))
	}
	response.Success(w, http.StatusOK, "Provider catalog", views)
}

// Get handles GET /v1/providers/{provider}.
func (h *RegistryHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "provider")
	desc, ok := h.service.Registry().Get(key)
	if !ok {
		response.Error(w, http.StatusNotFound, "Unknown provider", provider.ErrUnknownProvider)
		return
	}
	response.Success(w, http.StatusOK, "Provider descriptor", h.view(r, desc))
}

// WebhookEvents handles GET /v1/webhooks/events for the admin panel.
func (h *RegistryHandler) WebhookEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.Webhooks().Recent(r.Context(), r.URL.Query().Get("provider"), 50)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Webhook events", events)
}
