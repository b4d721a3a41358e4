package shiprocket

import "github.com/ecomkit/gateway/provider"

// Register Shiprocket provider with the gateway registry
func init() {
	provider.RegisterShipping("shiprocket", NewProvider)
}
