package metawa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ecomkit/gateway/provider"
)

const (
	apiBaseURL = "https://graph.facebook.com/v19.0"

	endpointMessages = "/%s/messages"

	defaultLanguage = "en"
)

// MetaWAProvider implements provider.WhatsAppProvider on the WhatsApp
// Business Cloud API.
type MetaWAProvider struct {
	phoneNumberID string
	accessToken   string
	environment   provider.Environment
	client        *provider.HTTPClient
}

// NewProvider creates a new WhatsApp Cloud API provider.
func NewProvider() provider.WhatsAppProvider {
	return &MetaWAProvider{}
}

// Initialize sets up the provider with authentication credentials.
func (p *MetaWAProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.phoneNumberID = creds.Get("phoneNumberId")
	p.accessToken = creds.Get("accessToken")
	p.environment = env

	if p.phoneNumberID == "" || p.accessToken == "" {
		return fmt.Errorf("metawa: phoneNumberId and accessToken are required: %w", provider.ErrCredentialsNotConfigured)
	}

	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{
		BaseURL:        apiBaseURL,
		DefaultHeaders: map[string]string{"Authorization": "Bearer " + p.accessToken},
	})
	return nil
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templateBody struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type messageRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Template         *templateBody `json:"template,omitempty"`
	Text             *textBody     `json:"text,omitempty"`
}

type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (p *MetaWAProvider) send(ctx context.Context, body messageRequest) (string, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf(endpointMessages, p.phoneNumberID),
		Body:     body,
	})
	if err != nil {
		return "", err
	}

	var result messageResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("metawa: failed to parse message response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("metawa: send rejected: %s (%d)", result.Error.Message, result.Error.Code)
	}
	if len(result.Messages) == 0 {
		return "", fmt.Errorf("metawa: send returned no message id")
	}
	return result.Messages[0].ID, nil
}

// SendTemplate sends a pre-approved template with positional body parameters.
func (p *MetaWAProvider) SendTemplate(ctx context.Context, to, template string, params []string) (string, error) {
	body := &templateBody{
		Name:     template,
		Language: templateLanguage{Code: defaultLanguage},
	}
	if len(params) > 0 {
		component := templateComponent{Type: "body"}
		for _, param := range params {
			component.Parameters = append(component.Parameters, templateParameter{Type: "text", Text: param})
		}
		body.Components = []templateComponent{component}
	}

	return p.send(ctx, messageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template:         body,
	})
}

// SendText sends a free-form session message.
func (p *MetaWAProvider) SendText(ctx context.Context, to, text string) (string, error) {
	return p.send(ctx, messageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: text},
	})
}
