package metawa

import "github.com/ecomkit/gateway/provider"

// Register WhatsApp Cloud API provider with the gateway registry
func init() {
	provider.RegisterWhatsApp("metawa", NewProvider)
}
