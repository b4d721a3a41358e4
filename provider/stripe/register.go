package stripe

import "github.com/ecomkit/gateway/provider"

// Register Stripe provider with the gateway registry
func init() {
	provider.RegisterPayment("stripe", NewProvider)
}
