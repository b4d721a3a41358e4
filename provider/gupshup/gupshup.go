package gupshup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ecomkit/gateway/provider"
)

const (
	apiBaseURL = "https://api.gupshup.io"

	endpointMessage  = "/wa/api/v1/msg"
	endpointTemplate = "/wa/api/v1/template/msg"
)

// GupshupProvider implements provider.WhatsAppProvider for Gupshup's
// WhatsApp API. Requests are form-encoded with the message as a JSON field.
type GupshupProvider struct {
	apiKey      string
	appName     string
	source      string
	environment provider.Environment
	client      *provider.HTTPClient
}

// NewProvider creates a new Gupshup WhatsApp provider.
func NewProvider() provider.WhatsAppProvider {
	return &GupshupProvider{}
}

// Initialize sets up the provider with authentication credentials.
func (p *GupshupProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.apiKey = creds.Get("apiKey")
	p.appName = creds.Get("appName")
	p.source = creds.Get("source")
	p.environment = env

	if p.apiKey == "" || p.appName == "" || p.source == "" {
		return fmt.Errorf("gupshup: apiKey, appName and source are required: %w", provider.ErrCredentialsNotConfigured)
	}

	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{
		BaseURL:        apiBaseURL,
		DefaultHeaders: map[string]string{"apikey": p.apiKey},
	})
	return nil
}

type sendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
}

func (p *GupshupProvider) send(ctx context.Context, endpoint string, form map[string]string) (string, error) {
	form["channel"] = "whatsapp"
	form["source"] = p.source
	form["src.name"] = p.appName

	resp, err := p.client.SendForm(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		FormData: form,
	})
	if err != nil {
		return "", err
	}

	var result sendResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("gupshup: failed to parse send response: %w", err)
	}
	if result.Status != "submitted" {
		return "", fmt.Errorf("gupshup: send rejected: %s", result.Message)
	}
	return result.MessageID, nil
}

type templateField struct {
	ID     string   `json:"id"`
	Params []string `json:"params"`
}

// SendTemplate sends a pre-approved template with positional parameters.
func (p *GupshupProvider) SendTemplate(ctx context.Context, to, template string, params []string) (string, error) {
	if params == nil {
		params = []string{}
	}
	tmpl, err := json.Marshal(templateField{ID: template, Params: params})
	if err != nil {
		return "", fmt.Errorf("gupshup: failed to marshal template: %w", err)
	}
	return p.send(ctx, endpointTemplate, map[string]string{
		"destination": to,
		"template":    string(tmpl),
	})
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendText sends a free-form session message.
func (p *GupshupProvider) SendText(ctx context.Context, to, text string) (string, error) {
	msg, err := json.Marshal(textMessage{Type: "text", Text: text})
	if err != nil {
		return "", fmt.Errorf("gupshup: failed to marshal message: %w", err)
	}
	return p.send(ctx, endpointMessage, map[string]string{
		"destination": to,
		"message":     string(msg),
	})
}
