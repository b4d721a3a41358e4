// Package gateway is a multi-provider integration layer for e-commerce
// platforms. It puts payment gateways, shipping carriers and messaging
// channels behind one consistent API, so storefronts talk to a single
// service instead of a dozen vendor SDKs.
//
// # Overview
//
// Every vendor integration is an adapter registered under a catalog key.
// The dispatcher resolves which provider serves a request from runtime
// configuration: which providers are enabled, which environment (sandbox
// or live) is active, and which credentials are stored. Credentials are
// encrypted at rest and handed to adapters only for the lifetime of one
// call.
//
// # Architecture
//
// The request flow follows this pattern:
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│   Storefront    │◄──►│    Gateway      │◄──►│    Vendors      │
//	│   (web, app)    │    │  (this module)  │    │ (Razorpay, ...) │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// Inbound vendor webhooks are persisted before verification, verified
// against the vendor signature scheme, matched to an order and applied
// through a guarded state machine, so redeliveries are idempotent and
// every delivery leaves a trace.
//
// # Supported Providers
//
// Payment: Razorpay, Stripe, Cashfree, PhonePe, PayU.
// Shipping: Shiprocket.
// SMS: MSG91, 2Factor.
// WhatsApp: Meta Cloud API, Gupshup, Interakt.
//
// Additional categories (email, push, auth, storage) are cataloged for
// admin credential management and served by the platform's own senders.
//
// # Configuration
//
// The service is configured through environment variables; see
// infra/config. CREDENTIAL_ENCRYPT_KEY must be set before any provider
// credentials can be stored.
package gateway
