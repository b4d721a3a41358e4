package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ecomkit/gateway/infra/config"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Index names for audit documents.
const (
	IndexPaymentAttempts = "gateway-payment-attempts"
	IndexWebhookEvents   = "gateway-webhook-events"
)

// Client wraps the OpenSearch client used as the audit sink.
type Client struct {
	client *opensearch.Client
}

// NewClient creates a new OpenSearch client from the app configuration.
func NewClient(cfg *config.AppConfig) (*Client, error) {
	osConfig := opensearch.Config{
		Addresses: []string{cfg.OpenSearchURL},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}
	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		osConfig.Username = cfg.OpenSearchUser
		osConfig.Password = cfg.OpenSearchPass
	}

	client, err := opensearch.NewClient(osConfig)
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

// Ping verifies the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req := opensearchapi.PingRequest{}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch ping failed: %s", res.Status())
	}
	return nil
}

// IndexDocument indexes one audit document as a JSON body.
func (c *Client) IndexDocument(ctx context.Context, index string, body []byte) error {
	req := opensearchapi.IndexRequest{
		Index: index,
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index document into %s: %s", index, res.Status())
	}
	return nil
}
