package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomkit/gateway/infra/response"
	"github.com/ecomkit/gateway/provider"
)

// ConfigHandler serves the admin provider-configuration surface.
type ConfigHandler struct {
	service *provider.Service
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(service *provider.Service) *ConfigHandler {
	return &ConfigHandler{service: service}
}

func pathTuple(r *http.Request) (provider.Category, string) {
	return provider.Category(chi.URLParam(r, "category")), chi.URLParam(r, "provider")
}

func (h *ConfigHandler) environment(r *http.Request, category provider.Category) (provider.Environment, error) {
	if env := r.URL.Query().Get("environment"); env != "" {
		return provider.ParseEnvironment(env), nil
	}
	return h.service.Settings().Environment(r.Context(), category)
}

type saveCredentialsRequest struct {
	Environment string            `json:"environment,omitempty"`
	Fields      map[string]string `json:"fields" validate:"required"`
}

// SaveCredentials handles PUT /v1/config/{category}/{provider}.
func (h *ConfigHandler) SaveCredentials(w http.ResponseWriter, r *http.Request) {
	category, providerKey := pathTuple(r)

	var req saveCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Fields) == 0 {
		response.Error(w, http.StatusBadRequest, "fields are required", nil)
		return
	}

	env, err := h.service.Settings().Environment(r.Context(), category)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Environment != "" {
		env = provider.ParseEnvironment(req.Environment)
	}

	if err := h.service.Credentials().Save(r.Context(), category, providerKey, env, req.Fields); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Credentials saved", map[string]any{
		"category":    category,
		"provider":    providerKey,
		"environment": env,
	})
}

// GetCredentials handles GET /v1/config/{category}/{provider}. Secret fields
// come back masked.
func (h *ConfigHandler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	category, providerKey := pathTuple(r)

	env, err := h.environment(r, category)
	if err != nil {
		writeError(w, err)
		return
	}

	masked, err := h.service.Credentials().Masked(r.Context(), category, providerKey, env)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Provider credentials", map[string]any{
		"environment": env,
		"fields":      masked,
	})
}

// DeleteCredentials handles DELETE /v1/config/{category}/{provider}.
func (h *ConfigHandler) DeleteCredentials(w http.ResponseWriter, r *http.Request) {
	category, providerKey := pathTuple(r)

	env, err := h.environment(r, category)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Credentials().Delete(r.Context(), category, providerKey, env); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Credentials deleted", nil)
}

type enabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetEnabled handles PUT /v1/config/{category}/{provider}/enabled.
func (h *ConfigHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	category, providerKey := pathTuple(r)

	desc, ok := h.service.Registry().Get(providerKey)
	if !ok || desc.Category != category {
		response.Error(w, http.StatusBadRequest, "Unknown provider", provider.ErrUnknownProvider)
		return
	}

	var req enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.service.Settings().SetEnabled(r.Context(), category, providerKey, req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Provider toggled", map[string]any{
		"provider": providerKey,
		"enabled":  req.Enabled,
	})
}

type environmentRequest struct {
	Environment string `json:"environment" validate:"required,oneof=sandbox live"`
}

// SetEnvironment handles PUT /v1/config/{category}/environment.
func (h *ConfigHandler) SetEnvironment(w http.ResponseWriter, r *http.Request) {
	category := provider.Category(chi.URLParam(r, "category"))

	var req environmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := provider.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	env := provider.ParseEnvironment(req.Environment)
	if err := h.service.Settings().SetEnvironment(r.Context(), category, env); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Environment updated", map[string]any{
		"category":    category,
		"environment": env,
	})
}
