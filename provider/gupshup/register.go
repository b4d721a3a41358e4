package gupshup

import "github.com/ecomkit/gateway/provider"

// Register Gupshup provider with the gateway registry
func init() {
	provider.RegisterWhatsApp("gupshup", NewProvider)
}
