package interakt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ecomkit/gateway/provider"
)

const (
	apiBaseURL = "https://api.interakt.ai"

	endpointMessage = "/v1/public/message/"

	defaultCountryCode = "+91"
	defaultLanguage    = "en"
)

// InteraktProvider implements provider.WhatsAppProvider for Interakt.
type InteraktProvider struct {
	apiKey      string
	environment provider.Environment
	client      *provider.HTTPClient
}

// NewProvider creates a new Interakt WhatsApp provider.
func NewProvider() provider.WhatsAppProvider {
	return &InteraktProvider{}
}

// Initialize sets up the provider with authentication credentials.
func (p *InteraktProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.apiKey = creds.Get("apiKey")
	p.environment = env

	if p.apiKey == "" {
		return fmt.Errorf("interakt: apiKey is required: %w", provider.ErrCredentialsNotConfigured)
	}

	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{
		BaseURL:        apiBaseURL,
		DefaultHeaders: map[string]string{"Authorization": "Basic " + p.apiKey},
	})
	return nil
}

type templateBody struct {
	Name         string   `json:"name"`
	LanguageCode string   `json:"languageCode"`
	BodyValues   []string `json:"bodyValues,omitempty"`
}

type textData struct {
	Message string `json:"message"`
}

type messageRequest struct {
	CountryCode string        `json:"countryCode"`
	PhoneNumber string        `json:"phoneNumber"`
	Type        string        `json:"type"`
	Template    *templateBody `json:"template,omitempty"`
	Data        *textData     `json:"data,omitempty"`
}

type messageResponse struct {
	Result  bool   `json:"result"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// splitPhone separates the country code Interakt wants as its own field.
func splitPhone(phone string) (countryCode, number string) {
	if strings.HasPrefix(phone, "+91") && len(phone) > 3 {
		return "+91", phone[3:]
	}
	if strings.HasPrefix(phone, "+") && len(phone) > 3 {
		return phone[:3], phone[3:]
	}
	return defaultCountryCode, phone
}

func (p *InteraktProvider) send(ctx context.Context, req messageRequest) (string, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointMessage,
		Body:     req,
	})
	if err != nil {
		return "", err
	}

	var result messageResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("interakt: failed to parse send response: %w", err)
	}
	if !result.Result {
		return "", fmt.Errorf("interakt: send rejected: %s", result.Message)
	}
	return result.ID, nil
}

// SendTemplate sends a pre-approved template with positional body values.
func (p *InteraktProvider) SendTemplate(ctx context.Context, to, template string, params []string) (string, error) {
	countryCode, number := splitPhone(to)
	return p.send(ctx, messageRequest{
		CountryCode: countryCode,
		PhoneNumber: number,
		Type:        "Template",
		Template: &templateBody{
			Name:         template,
			LanguageCode: defaultLanguage,
			BodyValues:   params,
		},
	})
}

// SendText sends a free-form session message.
func (p *InteraktProvider) SendText(ctx context.Context, to, text string) (string, error) {
	countryCode, number := splitPhone(to)
	return p.send(ctx, messageRequest{
		CountryCode: countryCode,
		PhoneNumber: number,
		Type:        "Text",
		Data:        &textData{Message: text},
	})
}
