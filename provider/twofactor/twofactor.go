package twofactor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ecomkit/gateway/provider"
)

const (
	apiBaseURL = "https://2factor.in"

	endpointTransSMS = "/API/R1/"

	defaultSenderID = "TXTSMS"
)

// TwoFactorProvider implements provider.SMSProvider for 2Factor's
// transactional SMS API.
type TwoFactorProvider struct {
	apiKey      string
	senderID    string
	environment provider.Environment
	client      *provider.HTTPClient
}

// NewProvider creates a new 2Factor SMS provider.
func NewProvider() provider.SMSProvider {
	return &TwoFactorProvider{}
}

// Initialize sets up the provider with authentication credentials.
func (p *TwoFactorProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.apiKey = creds.Get("apiKey")
	p.senderID = creds.Get("senderId")
	p.environment = env

	if p.apiKey == "" {
		return fmt.Errorf("twofactor: apiKey is required: %w", provider.ErrCredentialsNotConfigured)
	}
	if p.senderID == "" {
		p.senderID = defaultSenderID
	}

	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{BaseURL: apiBaseURL})
	return nil
}

type sendResponse struct {
	Status  string `json:"Status"`
	Details string `json:"Details"`
}

// SendSMS delivers one transactional message and returns the session id.
func (p *TwoFactorProvider) SendSMS(ctx context.Context, to, message string) (string, error) {
	resp, err := p.client.SendForm(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointTransSMS,
		FormData: map[string]string{
			"module": "TRANS_SMS",
			"apikey": p.apiKey,
			"to":     to,
			"from":   p.senderID,
			"msg":    message,
		},
	})
	if err != nil {
		return "", err
	}

	var result sendResponse
	if err := p.client.ParseJSONResponse(resp, &result); err != nil {
		return "", fmt.Errorf("twofactor: failed to parse send response: %w", err)
	}
	if result.Status != "Success" {
		return "", fmt.Errorf("twofactor: send rejected: %s", result.Details)
	}
	return result.Details, nil
}
