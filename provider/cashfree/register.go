package cashfree

import "github.com/ecomkit/gateway/provider"

// Register Cashfree provider with the gateway registry
func init() {
	provider.RegisterPayment("cashfree", NewProvider)
}
