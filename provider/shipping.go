package provider

import (
	"context"
	"fmt"

	"github.com/ecomkit/gateway/infra/logger"
)

// resolveShipping returns an initialized shipping adapter for the active
// carrier.
func (s *Service) resolveShipping(ctx context.Context) (ShippingProvider, string, error) {
	providerKey, env, err := s.ActiveProvider(ctx, CategoryShipping)
	if err != nil {
		return nil, "", err
	}
	adapter, err := s.registry.Shipping(providerKey)
	if err != nil {
		return nil, "", err
	}
	creds, err := s.credentials.Resolve(ctx, CategoryShipping, providerKey, env)
	if err != nil {
		return nil, "", err
	}
	if err := adapter.Initialize(creds, env); err != nil {
		return nil, "", fmt.Errorf("failed to initialize %s adapter: %w", providerKey, err)
	}
	return adapter, providerKey, nil
}

// CreateShipment books a shipment with the active carrier for an existing
// order.
func (s *Service) CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.orders.Get(ctx, req.OrderNumber); err != nil {
		return nil, err
	}

	adapter, providerKey, err := s.resolveShipping(ctx)
	if err != nil {
		return nil, err
	}

	shipment, err := adapter.CreateShipment(ctx, req)
	if err != nil {
		logger.Error("Shipment creation failed", err, logger.LogContext{
			Provider: providerKey,
			Fields:   map[string]any{"order_number": req.OrderNumber},
		})
		return nil, err
	}

	logger.Info("Shipment created", logger.LogContext{
		Provider: providerKey,
		Fields: map[string]any{
			"order_number": req.OrderNumber,
			"shipment_id":  shipment.ShipmentID,
			"courier":      shipment.Courier,
		},
	})
	return shipment, nil
}

// CancelShipment cancels a shipment with the active carrier.
func (s *Service) CancelShipment(ctx context.Context, shipmentID string) error {
	adapter, providerKey, err := s.resolveShipping(ctx)
	if err != nil {
		return err
	}
	if err := adapter.CancelShipment(ctx, shipmentID); err != nil {
		logger.Error("Shipment cancellation failed", err, logger.LogContext{
			Provider: providerKey,
			Fields:   map[string]any{"shipment_id": shipmentID},
		})
		return err
	}
	return nil
}

// GetShippingRates quotes courier rates for a route and weight.
func (s *Service) GetShippingRates(ctx context.Context, query RateQuery) ([]Rate, error) {
	if err := ValidateStruct(query); err != nil {
		return nil, err
	}
	adapter, _, err := s.resolveShipping(ctx)
	if err != nil {
		return nil, err
	}
	return adapter.GetRates(ctx, query)
}

// TrackShipment returns the tracking history for a shipment.
func (s *Service) TrackShipment(ctx context.Context, shipmentID string) ([]TrackingEvent, error) {
	adapter, _, err := s.resolveShipping(ctx)
	if err != nil {
		return nil, err
	}
	return adapter.Track(ctx, shipmentID)
}

// CheckServiceability reports whether the active carrier serves a route.
func (s *Service) CheckServiceability(ctx context.Context, pickupPostcode, deliveryPostcode string, weightKg float64) (bool, error) {
	adapter, _, err := s.resolveShipping(ctx)
	if err != nil {
		return false, err
	}
	return adapter.CheckServiceability(ctx, pickupPostcode, deliveryPostcode, weightKg)
}
