package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ecomkit/gateway/infra/response"
	"github.com/ecomkit/gateway/provider"
)

// ShippingHandler serves shipment booking, rates and tracking.
type ShippingHandler struct {
	service *provider.Service
}

// NewShippingHandler creates a new shipping handler.
func NewShippingHandler(service *provider.Service) *ShippingHandler {
	return &ShippingHandler{service: service}
}

// CreateShipment handles POST /v1/shipments.
func (h *ShippingHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var req provider.ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	shipment, err := h.service.CreateShipment(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Shipment created", shipment)
}

// CancelShipment handles DELETE /v1/shipments/{shipmentId}.
func (h *ShippingHandler) CancelShipment(w http.ResponseWriter, r *http.Request) {
	shipmentID := chi.URLParam(r, "shipmentId")
	if err := h.service.CancelShipment(r.Context(), shipmentID); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Shipment cancelled", nil)
}

// Rates handles GET /v1/shipments/rates.
func (h *ShippingHandler) Rates(w http.ResponseWriter, r *http.Request) {
	weight, err := strconv.ParseFloat(r.URL.Query().Get("weight"), 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "weight is required", err)
		return
	}
	cod, _ := strconv.ParseBool(r.URL.Query().Get("cod"))

	rates, err := h.service.GetShippingRates(r.Context(), provider.RateQuery{
		PickupPostcode:   r.URL.Query().Get("pickup"),
		DeliveryPostcode: r.URL.Query().Get("delivery"),
		WeightKg:         weight,
		COD:              cod,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Shipping rates", rates)
}

// Track handles GET /v1/shipments/{shipmentId}/track.
func (h *ShippingHandler) Track(w http.ResponseWriter, r *http.Request) {
	shipmentID := chi.URLParam(r, "shipmentId")
	events, err := h.service.TrackShipment(r.Context(), shipmentID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Tracking history", events)
}

// Serviceability handles GET /v1/shipments/serviceability.
func (h *ShippingHandler) Serviceability(w http.ResponseWriter, r *http.Request) {
	weight, err := strconv.ParseFloat(r.URL.Query().Get("weight"), 64)
	if err != nil {
		weight = 0.5
	}

	serviceable, err := h.service.CheckServiceability(r.Context(),
		r.URL.Query().Get("pickup"), r.URL.Query().Get("delivery"), weight)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Serviceability", map[string]bool{"serviceable": serviceable})
}
