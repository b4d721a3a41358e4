package twofactor

import "github.com/ecomkit/gateway/provider"

// Register 2Factor provider with the gateway registry
func init() {
	provider.RegisterSMS("twofactor", NewProvider)
}
