package router

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"github.com/ecomkit/gateway/handler"
	"github.com/ecomkit/gateway/infra/opensearch"
	"github.com/ecomkit/gateway/provider"
	v1 "github.com/ecomkit/gateway/router/v1"

	// Import for side-effect registration
	_ "github.com/ecomkit/gateway/provider/cashfree"
	_ "github.com/ecomkit/gateway/provider/gupshup"
	_ "github.com/ecomkit/gateway/provider/interakt"
	_ "github.com/ecomkit/gateway/provider/metawa"
	_ "github.com/ecomkit/gateway/provider/msg91"
	_ "github.com/ecomkit/gateway/provider/payu"
	_ "github.com/ecomkit/gateway/provider/phonepe"
	_ "github.com/ecomkit/gateway/provider/razorpay"
	_ "github.com/ecomkit/gateway/provider/shiprocket"
	_ "github.com/ecomkit/gateway/provider/stripe"
	_ "github.com/ecomkit/gateway/provider/twofactor"
)

// Deps carries the wired services the routes need.
type Deps struct {
	Service *provider.Service
	DB      *sql.DB
	Search  *opensearch.Client
}

// Routes registers every route on the root router: health and webhooks stay
// outside /v1, the API surface lives under it.
func Routes(r chi.Router, deps *Deps) {
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Search)
	webhookHandler := handler.NewWebhookHandler(deps.Service)

	r.Get("/health", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	// vendor webhooks carry their own signatures; no auth middleware here
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/{provider}", webhookHandler.Receive)
	})

	r.Route("/v1", func(r chi.Router) {
		v1.Routes(r, deps.Service)
	})
}
