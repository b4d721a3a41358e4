package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ecomkit/gateway/infra/response"
	"github.com/ecomkit/gateway/provider"
)

// writeError maps the provider error taxonomy onto HTTP statuses with the
// standard response envelope.
func writeError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		response.Error(w, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, provider.ErrUnknownProvider):
		response.Error(w, http.StatusBadRequest, "Unknown provider", err)
	case errors.Is(err, provider.ErrSignatureInvalid):
		response.Error(w, http.StatusBadRequest, "Webhook signature invalid", err)
	case errors.Is(err, provider.ErrOrderNotFound):
		response.Error(w, http.StatusNotFound, "Order not found", err)
	case errors.Is(err, provider.ErrInvalidOrderState):
		response.Error(w, http.StatusBadRequest, "Invalid order state", err)
	case errors.Is(err, provider.ErrAmbiguousOrderMatch):
		response.Error(w, http.StatusConflict, "Ambiguous order match", err)
	case errors.Is(err, provider.ErrCredentialsNotConfigured):
		response.Error(w, http.StatusConflict, "Provider credentials not configured", err)
	case errors.Is(err, provider.ErrGatewayUnavailable):
		response.Error(w, http.StatusBadGateway, "Provider gateway unavailable", err)
	case errors.Is(err, provider.ErrOTPNotFound), errors.Is(err, provider.ErrOTPMismatch):
		response.Error(w, http.StatusUnauthorized, "OTP verification failed", err)
	default:
		response.Error(w, http.StatusInternalServerError, "Internal error", err)
	}
}
