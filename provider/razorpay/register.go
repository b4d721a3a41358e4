package razorpay

import "github.com/ecomkit/gateway/provider"

// Register Razorpay provider with the gateway registry
func init() {
	provider.RegisterPayment("razorpay", NewProvider)
}
