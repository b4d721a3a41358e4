package msg91

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ecomkit/gateway/provider"
)

const (
	apiBaseURL = "https://api.msg91.com"

	endpointSendSMS = "/api/v2/sendsms"

	defaultRoute = "4" // transactional
)

// MSG91Provider implements provider.SMSProvider for MSG91.
type MSG91Provider struct {
	authKey     string
	senderID    string
	route       string
	environment provider.Environment
	client      *provider.HTTPClient
}

// NewProvider creates a new MSG91 SMS provider.
func NewProvider() provider.SMSProvider {
	return &MSG91Provider{}
}

// Initialize sets up the provider with authentication credentials.
func (p *MSG91Provider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.authKey = creds.Get("authKey")
	p.senderID = creds.Get("senderId")
	p.route = creds.Get("route")
	p.environment = env

	if p.authKey == "" || p.senderID == "" {
		return fmt.Errorf("msg91: authKey and senderId are required: %w", provider.ErrCredentialsNotConfigured)
	}
	if p.route == "" {
		p.route = defaultRoute
	}

	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{
		BaseURL:        apiBaseURL,
		DefaultHeaders: map[string]string{"authkey": p.authKey},
	})
	return nil
}

type smsEntry struct {
	Message string   `json:"message"`
	To      []string `json:"to"`
}

type sendRequest struct {
	Sender  string     `json:"sender"`
	Route   string     `json:"route"`
	Country string     `json:"country"`
	SMS     []smsEntry `json:"sms"`
}

type sendResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SendSMS delivers one message and returns the MSG91 request id.
func (p *MSG91Provider) SendSMS(ctx context.Context, to, message string) (string, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointSendSMS,
		Body: sendRequest{
			Sender:  p.senderID,
			Route:   p.route,
			Country: "91",
			SMS:     []smsEntry{{Message: message, To: []string{normalizePhone(to)}}},
		},
	})
	if err != nil {
		return "", err
	}

	var result sendResponse
	if err := p.client.ParseJSONResponse(resp, &result); err != nil {
		return "", fmt.Errorf("msg91: failed to parse send response: %w", err)
	}
	if result.Type != "success" {
		return "", fmt.Errorf("msg91: send rejected: %s", result.Message)
	}
	return result.Message, nil
}

// normalizePhone strips the leading + MSG91 does not accept.
func normalizePhone(phone string) string {
	return strings.TrimPrefix(phone, "+")
}
