package shiprocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ecomkit/gateway/provider"
)

const (
	apiBaseURL = "https://apiv2.shiprocket.in/v1/external"

	endpointLogin          = "/auth/login"
	endpointCreateOrder    = "/orders/create/adhoc"
	endpointCancelOrder    = "/orders/cancel"
	endpointServiceability = "/courier/serviceability/"
	endpointTrack          = "/courier/track/shipment/%s"

	// Shiprocket bearer tokens live for days; an hour keeps re-login rare
	// while bounding the damage of a revoked token.
	tokenTTL = time.Hour
)

// tokens caches login tokens per environment across adapter instances, so a
// fresh adapter per request does not mean a login per request.
var tokens = provider.NewTokenCache(tokenTTL, nil)

// ShiprocketProvider implements provider.ShippingProvider for Shiprocket.
// Authentication is a login call that yields a bearer token; the token is
// cached and refreshed once on a 401.
type ShiprocketProvider struct {
	email          string
	password       string
	pickupLocation string
	environment    provider.Environment
	client         *provider.HTTPClient
	cache          *provider.TokenCache
}

// NewProvider creates a new Shiprocket shipping provider.
func NewProvider() provider.ShippingProvider {
	return &ShiprocketProvider{cache: tokens}
}

// Initialize sets up the provider with authentication credentials.
func (p *ShiprocketProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.email = creds.Get("email")
	p.password = creds.Get("password")
	p.pickupLocation = creds.Get("pickupLocation")
	p.environment = env

	if p.email == "" || p.password == "" {
		return fmt.Errorf("shiprocket: email and password are required: %w", provider.ErrCredentialsNotConfigured)
	}
	if p.pickupLocation == "" {
		p.pickupLocation = "Primary"
	}
	if p.client == nil {
		p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{BaseURL: apiBaseURL})
	}
	return nil
}

func (p *ShiprocketProvider) cacheKey() string {
	return p.email + "|" + string(p.environment)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (p *ShiprocketProvider) login(ctx context.Context) (string, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointLogin,
		Body:     loginRequest{Email: p.email, Password: p.password},
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shiprocket: login failed with HTTP %d", resp.StatusCode)
	}

	var login loginResponse
	if err := p.client.ParseJSONResponse(resp, &login); err != nil {
		return "", fmt.Errorf("shiprocket: failed to parse login response: %w", err)
	}
	if login.Token == "" {
		return "", fmt.Errorf("shiprocket: login returned no token")
	}

	p.cache.Set(p.cacheKey(), login.Token)
	return login.Token, nil
}

// send performs an authorized request, logging in on a cache miss and
// retrying exactly once after a 401.
func (p *ShiprocketProvider) send(ctx context.Context, req *provider.HTTPRequest) (*provider.HTTPResponse, error) {
	token := p.cache.Get(p.cacheKey())
	if token == "" {
		var err error
		if token, err = p.login(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := p.doWithToken(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		p.cache.Invalidate(p.cacheKey())
		if token, err = p.login(ctx); err != nil {
			return nil, err
		}
		return p.doWithToken(ctx, req, token)
	}
	return resp, nil
}

func (p *ShiprocketProvider) doWithToken(ctx context.Context, req *provider.HTTPRequest, token string) (*provider.HTTPResponse, error) {
	headers := map[string]string{"Authorization": "Bearer " + token}
	for k, v := range req.Headers {
		headers[k] = v
	}
	return p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:      req.Method,
		Endpoint:    req.Endpoint,
		Headers:     headers,
		Body:        req.Body,
		QueryParams: req.QueryParams,
	})
}

type orderItem struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Units        int     `json:"units"`
	SellingPrice float64 `json:"selling_price"`
}

type createOrderRequest struct {
	OrderID           string      `json:"order_id"`
	OrderDate         string      `json:"order_date"`
	PickupLocation    string      `json:"pickup_location"`
	BillingName       string      `json:"billing_customer_name"`
	BillingAddress    string      `json:"billing_address"`
	BillingCity       string      `json:"billing_city"`
	BillingState      string      `json:"billing_state"`
	BillingPincode    string      `json:"billing_pincode"`
	BillingCountry    string      `json:"billing_country"`
	BillingPhone      string      `json:"billing_phone"`
	ShippingIsBilling bool        `json:"shipping_is_billing"`
	OrderItems        []orderItem `json:"order_items"`
	PaymentMethod     string      `json:"payment_method"`
	SubTotal          float64     `json:"sub_total"`
	Length            float64     `json:"length"`
	Breadth           float64     `json:"breadth"`
	Height            float64     `json:"height"`
	Weight            float64     `json:"weight"`
}

type createOrderResponse struct {
	OrderID     json.Number `json:"order_id"`
	ShipmentID  json.Number `json:"shipment_id"`
	Status      string      `json:"status"`
	AWBCode     string      `json:"awb_code"`
	CourierName string      `json:"courier_name"`
	Message     string      `json:"message"`
}

// CreateShipment books an adhoc order with Shiprocket.
func (p *ShiprocketProvider) CreateShipment(ctx context.Context, req provider.ShipmentRequest) (*provider.Shipment, error) {
	paymentMethod := "Prepaid"
	if req.CODAmount > 0 {
		paymentMethod = "COD"
	}

	resp, err := p.send(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointCreateOrder,
		Body: createOrderRequest{
			OrderID:        req.OrderNumber,
			OrderDate:      time.Now().Format("2006-01-02"),
			PickupLocation: p.pickupLocation,
			BillingName:    req.DeliveryAddress.Name,
			BillingAddress: req.DeliveryAddress.Line1,
			BillingCity:    req.DeliveryAddress.City,
			BillingState:   req.DeliveryAddress.State,
			BillingPincode: req.DeliveryAddress.Postcode,
			BillingCountry: req.DeliveryAddress.Country,
			BillingPhone:   req.DeliveryAddress.Phone,
			ShippingIsBilling: true,
			OrderItems: []orderItem{{
				Name:  "order " + req.OrderNumber,
				SKU:   req.OrderNumber,
				Units: 1,
			}},
			PaymentMethod: paymentMethod,
			SubTotal:      req.CODAmount,
			Length:        req.LengthCm,
			Breadth:       req.WidthCm,
			Height:        req.HeightCm,
			Weight:        req.WeightKg,
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.wireError(resp)
	}

	var created createOrderResponse
	if err := p.client.ParseJSONResponse(resp, &created); err != nil {
		return nil, fmt.Errorf("shiprocket: failed to parse order response: %w", err)
	}
	return &provider.Shipment{
		ShipmentID: created.ShipmentID.String(),
		AWBCode:    created.AWBCode,
		Courier:    created.CourierName,
		Status:     created.Status,
		Metadata:   map[string]string{"shiprocket_order_id": created.OrderID.String()},
	}, nil
}

// CancelShipment cancels a Shiprocket order by its id.
func (p *ShiprocketProvider) CancelShipment(ctx context.Context, shipmentID string) error {
	id, err := strconv.ParseInt(shipmentID, 10, 64)
	if err != nil {
		return fmt.Errorf("shiprocket: invalid shipment id %q", shipmentID)
	}

	resp, err := p.send(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointCancelOrder,
		Body:     map[string][]int64{"ids": {id}},
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return p.wireError(resp)
	}
	return nil
}

type serviceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCourierCompanies []struct {
			CourierName           string      `json:"courier_name"`
			Rate                  json.Number `json:"rate"`
			EstimatedDeliveryDays json.Number `json:"estimated_delivery_days"`
		} `json:"available_courier_companies"`
	} `json:"data"`
}

func (p *ShiprocketProvider) serviceability(ctx context.Context, pickup, delivery string, weightKg float64, cod bool) (*serviceabilityResponse, error) {
	codFlag := "0"
	if cod {
		codFlag = "1"
	}
	resp, err := p.send(ctx, &provider.HTTPRequest{
		Method:   http.MethodGet,
		Endpoint: endpointServiceability,
		QueryParams: map[string]string{
			"pickup_postcode":   pickup,
			"delivery_postcode": delivery,
			"weight":            strconv.FormatFloat(weightKg, 'f', 2, 64),
			"cod":               codFlag,
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		// Shiprocket answers 404 when no courier serves the route
		return &serviceabilityResponse{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.wireError(resp)
	}

	var result serviceabilityResponse
	if err := p.client.ParseJSONResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("shiprocket: failed to parse serviceability response: %w", err)
	}
	return &result, nil
}

// GetRates quotes courier rates for a route and weight.
func (p *ShiprocketProvider) GetRates(ctx context.Context, query provider.RateQuery) ([]provider.Rate, error) {
	result, err := p.serviceability(ctx, query.PickupPostcode, query.DeliveryPostcode, query.WeightKg, query.COD)
	if err != nil {
		return nil, err
	}

	rates := make([]provider.Rate, 0, len(result.Data.AvailableCourierCompanies))
	for _, courier := range result.Data.AvailableCourierCompanies {
		rate, _ := courier.Rate.Float64()
		days, _ := courier.EstimatedDeliveryDays.Int64()
		rates = append(rates, provider.Rate{
			Courier:       courier.CourierName,
			Amount:        rate,
			Currency:      "INR",
			EstimatedDays: int(days),
		})
	}
	return rates, nil
}

// CheckServiceability reports whether any courier serves the route.
func (p *ShiprocketProvider) CheckServiceability(ctx context.Context, pickupPostcode, deliveryPostcode string, weightKg float64) (bool, error) {
	result, err := p.serviceability(ctx, pickupPostcode, deliveryPostcode, weightKg, false)
	if err != nil {
		return false, err
	}
	return len(result.Data.AvailableCourierCompanies) > 0, nil
}

type trackResponse struct {
	TrackingData struct {
		ShipmentTrackActivities []struct {
			Date     string `json:"date"`
			Status   string `json:"status"`
			Activity string `json:"activity"`
			Location string `json:"location"`
		} `json:"shipment_track_activities"`
	} `json:"tracking_data"`
}

// Track returns the scan history for a shipment.
func (p *ShiprocketProvider) Track(ctx context.Context, shipmentID string) ([]provider.TrackingEvent, error) {
	resp, err := p.send(ctx, &provider.HTTPRequest{
		Method:   http.MethodGet,
		Endpoint: fmt.Sprintf(endpointTrack, shipmentID),
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.wireError(resp)
	}

	var result trackResponse
	if err := p.client.ParseJSONResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("shiprocket: failed to parse tracking response: %w", err)
	}

	events := make([]provider.TrackingEvent, 0, len(result.TrackingData.ShipmentTrackActivities))
	for _, activity := range result.TrackingData.ShipmentTrackActivities {
		ts, _ := time.Parse("2006-01-02 15:04:05", activity.Date)
		status := activity.Status
		if activity.Activity != "" {
			status = activity.Activity
		}
		events = append(events, provider.TrackingEvent{
			Status:    status,
			Location:  activity.Location,
			Timestamp: ts,
		})
	}
	return events, nil
}

func (p *ShiprocketProvider) wireError(resp *provider.HTTPResponse) error {
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("shiprocket: %s", apiErr.Message)
	}
	return fmt.Errorf("shiprocket: unexpected HTTP %d", resp.StatusCode)
}
