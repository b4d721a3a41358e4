package provider

import (
	"context"
	"strings"
	"time"
)

// Category classifies external providers by the capability they serve.
type Category string

const (
	CategoryPayment  Category = "payment"
	CategoryShipping Category = "shipping"
	CategoryEmail    Category = "email"
	CategorySMS      Category = "sms"
	CategoryWhatsApp Category = "whatsapp"
	CategoryPush     Category = "push"
	CategoryAuth     Category = "auth"
	CategoryStorage  Category = "storage"
)

// Environment selects which credential/endpoint set a provider runs against.
type Environment string

const (
	EnvSandbox Environment = "sandbox"
	EnvLive    Environment = "live"
)

// ParseEnvironment normalizes an environment string, defaulting to sandbox.
func ParseEnvironment(s string) Environment {
	if strings.EqualFold(s, string(EnvLive)) || strings.EqualFold(s, "production") {
		return EnvLive
	}
	return EnvSandbox
}

// PaymentStatus is the canonical order payment status, distinct from the
// vendor wire-status strings each adapter maps from.
type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending"
	StatusPaid     PaymentStatus = "paid"
	StatusFailed   PaymentStatus = "failed"
	StatusRefunded PaymentStatus = "refunded"
)

// Terminal reports whether a status admits no further transitions.
func (s PaymentStatus) Terminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusRefunded
}

// IntentStatus is the normalized status of a payment intent at the vendor.
type IntentStatus string

const (
	IntentCreated    IntentStatus = "created"
	IntentPending    IntentStatus = "pending"
	IntentAuthorized IntentStatus = "authorized"
	IntentCaptured   IntentStatus = "captured"
	IntentFailed     IntentStatus = "failed"
)

// CredentialField describes one entry of a provider's credential schema.
// Secret fields are encrypted at rest and masked on admin reads.
type CredentialField struct {
	Key      string `json:"key"`
	Type     string `json:"type"` // "string", "url", "email", "json"
	Required bool   `json:"required"`
	Secret   bool   `json:"secret"`
	Rule     string `json:"rule,omitempty"` // extra validation rule, e.g. "min=8"
}

// TestAction describes the admin-panel connectivity test for a provider.
type TestAction struct {
	Type   string            `json:"type"`
	Inputs []CredentialField `json:"inputs,omitempty"`
}

// Descriptor is an immutable catalog entry for an external provider.
// Descriptors are defined at build time and never mutated.
type Descriptor struct {
	Key              string            `json:"key"`
	Category         Category          `json:"category"`
	DisplayName      string            `json:"displayName"`
	CredentialSchema []CredentialField `json:"credentialSchema"`
	TestAction       TestAction        `json:"testAction"`
}

// CredentialSet holds decrypted credential values for one
// (category, provider, environment) tuple. Adapters receive a transient
// read-only copy; the values must never be logged.
type CredentialSet map[string]string

// Get returns the value for key, or "" when the field is blank or absent.
// Callers must null-check each field: a configured record with blank fields
// resolves to an empty-but-typed set, not an error.
func (c CredentialSet) Get(key string) string {
	return c[key]
}

// Order is the payment-relevant snapshot of an order. The order aggregate
// itself is owned by the order subsystem; this layer reads it and updates
// only PaymentStatus and TransactionID.
type Order struct {
	OrderNumber   string        `json:"orderNumber"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TransactionID string        `json:"transactionId,omitempty"`
}

// PaymentIntentResult is the normalized output of CreateOrder across all
// payment vendors.
type PaymentIntentResult struct {
	PaymentID   string            `json:"paymentId"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
	Status      IntentStatus      `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// WebhookPaymentData is the normalized payload of a verified webhook.
type WebhookPaymentData struct {
	PaymentID   string        `json:"paymentId"`
	OrderNumber string        `json:"orderNumber,omitempty"`
	Status      PaymentStatus `json:"status"`
	Amount      float64       `json:"amount,omitempty"`
	Event       string        `json:"event,omitempty"`
}

// CaptureResult is the normalized output of Capture.
type CaptureResult struct {
	Status        IntentStatus      `json:"status"`
	TransactionID string            `json:"transactionId"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// RefundRequest asks a vendor to refund a captured payment.
// Amount 0 means full refund; partial amounts are validated against the
// captured amount before any vendor call.
type RefundRequest struct {
	PaymentID string  `json:"paymentId" validate:"required"`
	Amount    float64 `json:"amount,omitempty" validate:"gte=0"`
	Reason    string  `json:"reason,omitempty"`
}

// RefundResult is the normalized output of Refund.
type RefundResult struct {
	RefundID string            `json:"refundId"`
	Status   string            `json:"status"`
	Amount   float64           `json:"amount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// StatusResult is the normalized output of FetchStatus.
type StatusResult struct {
	Status   PaymentStatus     `json:"status"`
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PaymentProvider is the contract every payment gateway adapter implements.
// Wire formats differ per vendor; the contract does not.
type PaymentProvider interface {
	// Initialize hands the adapter its decrypted credentials for the given
	// environment. The adapter keeps them for its own lifetime only.
	Initialize(creds CredentialSet, env Environment) error

	// CreateOrder registers the order with the vendor and returns the
	// normalized intent. The order must carry a positive amount and a
	// currency; network failures and vendor 5xx surface as
	// ErrGatewayUnavailable.
	CreateOrder(ctx context.Context, order Order) (*PaymentIntentResult, error)

	// VerifyWebhook checks the vendor signature over the raw body.
	// A mismatch or a malformed payload is a normal rejection: ok=false with
	// a nil error, never a panic. The error return is reserved for adapter
	// misconfiguration such as a missing webhook secret.
	VerifyWebhook(ctx context.Context, body []byte, headers map[string]string) (ok bool, data *WebhookPaymentData, err error)

	// Capture captures an authorized payment. amount 0 captures in full.
	Capture(ctx context.Context, paymentID string, amount float64) (*CaptureResult, error)

	// Refund refunds a captured payment, fully or partially.
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)

	// FetchStatus retrieves the vendor-side status mapped to the canonical
	// enum.
	FetchStatus(ctx context.Context, paymentID string) (*StatusResult, error)
}

// ShipmentRequest describes a shipment to be created with a carrier.
type ShipmentRequest struct {
	OrderNumber     string  `json:"orderNumber" validate:"required"`
	PickupPostcode  string  `json:"pickupPostcode" validate:"required"`
	DeliveryAddress Address `json:"deliveryAddress"`
	WeightKg        float64 `json:"weightKg" validate:"gt=0"`
	LengthCm        float64 `json:"lengthCm,omitempty"`
	WidthCm         float64 `json:"widthCm,omitempty"`
	HeightCm        float64 `json:"heightCm,omitempty"`
	CODAmount       float64 `json:"codAmount,omitempty"`
}

// Address is a delivery address.
type Address struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Shipment is the normalized result of CreateShipment.
type Shipment struct {
	ShipmentID string            `json:"shipmentId"`
	AWBCode    string            `json:"awbCode,omitempty"`
	Courier    string            `json:"courier,omitempty"`
	Status     string            `json:"status"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// RateQuery asks a carrier for shipping rates.
type RateQuery struct {
	PickupPostcode   string  `json:"pickupPostcode" validate:"required"`
	DeliveryPostcode string  `json:"deliveryPostcode" validate:"required"`
	WeightKg         float64 `json:"weightKg" validate:"gt=0"`
	COD              bool    `json:"cod,omitempty"`
}

// Rate is one courier quote.
type Rate struct {
	Courier       string  `json:"courier"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	EstimatedDays int     `json:"estimatedDays,omitempty"`
}

// TrackingEvent is one scan in a shipment's tracking history.
type TrackingEvent struct {
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ShippingProvider is the contract a shipping carrier adapter implements.
type ShippingProvider interface {
	Initialize(creds CredentialSet, env Environment) error
	CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error)
	CancelShipment(ctx context.Context, shipmentID string) error
	GetRates(ctx context.Context, query RateQuery) ([]Rate, error)
	Track(ctx context.Context, shipmentID string) ([]TrackingEvent, error)
	CheckServiceability(ctx context.Context, pickupPostcode, deliveryPostcode string, weightKg float64) (bool, error)
}

// SMSProvider is the contract an SMS vendor adapter implements. OTP
// generation and verification live above the adapter: the adapter only
// delivers messages and never sees more than the rendered text.
type SMSProvider interface {
	Initialize(creds CredentialSet, env Environment) error
	// SendSMS delivers a message and returns the vendor message id.
	SendSMS(ctx context.Context, to, message string) (string, error)
}

// WhatsAppProvider is the contract a WhatsApp vendor adapter implements.
type WhatsAppProvider interface {
	Initialize(creds CredentialSet, env Environment) error
	// SendTemplate sends a pre-approved template with positional parameters
	// and returns the vendor message id.
	SendTemplate(ctx context.Context, to, template string, params []string) (string, error)
	// SendText sends a free-form session message.
	SendText(ctx context.Context, to, text string) (string, error)
}

// Factory types create fresh, uninitialized adapter instances.
type (
	PaymentFactory  func() PaymentProvider
	ShippingFactory func() ShippingProvider
	SMSFactory      func() SMSProvider
	WhatsAppFactory func() WhatsAppProvider
)
