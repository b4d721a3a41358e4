package payu

import "github.com/ecomkit/gateway/provider"

// Register PayU provider with the gateway registry
func init() {
	provider.RegisterPayment("payu", NewProvider)
}
