package interakt

import "github.com/ecomkit/gateway/provider"

// Register Interakt provider with the gateway registry
func init() {
	provider.RegisterWhatsApp("interakt", NewProvider)
}
