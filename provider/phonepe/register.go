package phonepe

import "github.com/ecomkit/gateway/provider"

// Register PhonePe provider with the gateway registry
func init() {
	provider.RegisterPayment("phonepe", NewProvider)
}
