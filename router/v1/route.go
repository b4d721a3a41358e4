package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/ecomkit/gateway/handler"
	"github.com/ecomkit/gateway/provider"
)

// Routes registers the /v1 API surface.
func Routes(r chi.Router, service *provider.Service) {
	paymentHandler := handler.NewPaymentHandler(service)
	configHandler := handler.NewConfigHandler(service)
	registryHandler := handler.NewRegistryHandler(service)
	shippingHandler := handler.NewShippingHandler(service)
	messagingHandler := handler.NewMessagingHandler(service)

	// Provider catalog
	r.Route("/providers", func(r chi.Router) {
		r.Get("/", registryHandler.List)
		r.Get("/{provider}", registryHandler.Get)
	})

	// Provider configuration
	r.Route("/config", func(r chi.Router) {
		r.Put("/{category}/environment", configHandler.SetEnvironment)
		r.Put("/{category}/{provider}", configHandler.SaveCredentials)
		r.Get("/{category}/{provider}", configHandler.GetCredentials)
		r.Delete("/{category}/{provider}", configHandler.DeleteCredentials)
		r.Put("/{category}/{provider}/enabled", configHandler.SetEnabled)
	})

	// Payments
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", paymentHandler.CreatePayment)
		r.Post("/verify", paymentHandler.Verify)
		r.Post("/refund", paymentHandler.Refund)
		r.Post("/capture", paymentHandler.Capture)
		r.Get("/{paymentId}/status", paymentHandler.Status)
	})

	// Order payment state and audit trail
	r.Route("/orders", func(r chi.Router) {
		r.Get("/{orderNumber}/payment", paymentHandler.OrderStatus)
		r.Get("/{orderNumber}/payment/logs", paymentHandler.OrderLogs)
	})

	// Shipping
	r.Route("/shipments", func(r chi.Router) {
		r.Post("/", shippingHandler.CreateShipment)
		r.Get("/rates", shippingHandler.Rates)
		r.Get("/serviceability", shippingHandler.Serviceability)
		r.Delete("/{shipmentId}", shippingHandler.CancelShipment)
		r.Get("/{shipmentId}/track", shippingHandler.Track)
	})

	// Messaging
	r.Post("/sms", messagingHandler.SendSMS)
	r.Route("/otp", func(r chi.Router) {
		r.Post("/send", messagingHandler.SendOTP)
		r.Post("/verify", messagingHandler.VerifyOTP)
	})
	r.Route("/whatsapp", func(r chi.Router) {
		r.Post("/template", messagingHandler.SendWhatsAppTemplate)
		r.Post("/text", messagingHandler.SendWhatsAppText)
	})

	// Webhook audit trail
	r.Get("/webhooks/events", registryHandler.WebhookEvents)
}
