package msg91

import "github.com/ecomkit/gateway/provider"

// Register MSG91 provider with the gateway registry
func init() {
	provider.RegisterSMS("msg91", NewProvider)
}
