package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"

	"github.com/ecomkit/gateway/provider"
)

const testWebhookSecret = "whsec_test_secret"

func testCredentials() provider.CredentialSet {
	return provider.CredentialSet{
		"publishableKey": "pk_test_12345678",
		"secretKey":      "sk_test_12345678",
		"webhookSecret":  testWebhookSecret,
	}
}

// signPayload builds a Stripe-Signature header the SDK accepts.
func signPayload(secret string, body []byte, at time.Time) string {
	ts := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(body)))
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		creds   provider.CredentialSet
		env     provider.Environment
		wantErr bool
	}{
		{
			name:  "valid sandbox credentials",
			creds: testCredentials(),
			env:   provider.EnvSandbox,
		},
		{
			name: "missing secret key",
			creds: provider.CredentialSet{
				"publishableKey": "pk_test_12345678",
			},
			env:     provider.EnvSandbox,
			wantErr: true,
		},
		{
			name:    "test key in live environment",
			creds:   testCredentials(),
			env:     provider.EnvLive,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider()
			err := p.Initialize(tt.creds, tt.env)
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","object":"payment_intent","amount":49999,"status":"succeeded","metadata":{"order_number":"ORD-2001"}}}}`)

	tests := []struct {
		name      string
		body      []byte
		signature string
		wantOK    bool
	}{
		{
			name:      "valid signature",
			body:      body,
			signature: signPayload(testWebhookSecret, body, time.Now()),
			wantOK:    true,
		},
		{
			name:      "wrong secret",
			body:      body,
			signature: signPayload("whsec_other", body, time.Now()),
			wantOK:    false,
		},
		{
			name:      "stale timestamp",
			body:      body,
			signature: signPayload(testWebhookSecret, body, time.Now().Add(-time.Hour)),
			wantOK:    false,
		},
		{
			name:      "missing signature header",
			body:      body,
			signature: "",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider()
			if err := p.Initialize(testCredentials(), provider.EnvSandbox); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}

			headers := map[string]string{}
			if tt.signature != "" {
				headers[headerSignature] = tt.signature
			}

			ok, data, err := p.VerifyWebhook(context.Background(), tt.body, headers)
			if err != nil {
				t.Fatalf("VerifyWebhook() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("VerifyWebhook() ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK {
				if data == nil {
					t.Fatal("VerifyWebhook() data = nil, want payload")
				}
				if data.PaymentID != "pi_123" {
					t.Errorf("VerifyWebhook() payment id = %v, want pi_123", data.PaymentID)
				}
				if data.OrderNumber != "ORD-2001" {
					t.Errorf("VerifyWebhook() order number = %v, want ORD-2001", data.OrderNumber)
				}
				if data.Status != provider.StatusPaid {
					t.Errorf("VerifyWebhook() status = %v, want %v", data.Status, provider.StatusPaid)
				}
			}
		})
	}
}

func TestVerifyWebhookIgnoredEvent(t *testing.T) {
	body := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	p := NewProvider()
	if err := p.Initialize(testCredentials(), provider.EnvSandbox); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	ok, data, err := p.VerifyWebhook(context.Background(), body, map[string]string{
		headerSignature: signPayload(testWebhookSecret, body, time.Now()),
	})
	if err != nil {
		t.Fatalf("VerifyWebhook() error = %v", err)
	}
	if !ok {
		t.Fatal("VerifyWebhook() ok = false, want true for a verified unrelated event")
	}
	if data.PaymentID != "" || data.OrderNumber != "" {
		t.Errorf("VerifyWebhook() should not attribute unrelated events to a payment, got %+v", data)
	}
}

func TestVerifyWebhookWithoutSecret(t *testing.T) {
	p := NewProvider()
	creds := testCredentials()
	delete(creds, "webhookSecret")
	if err := p.Initialize(creds, provider.EnvSandbox); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	_, _, err := p.VerifyWebhook(context.Background(), []byte(`{}`), map[string]string{})
	if err == nil {
		t.Error("VerifyWebhook() without webhookSecret should return a configuration error")
	}
}

func TestMapIntentStatus(t *testing.T) {
	tests := []struct {
		wire stripeapi.PaymentIntentStatus
		want provider.IntentStatus
	}{
		{stripeapi.PaymentIntentStatusSucceeded, provider.IntentCaptured},
		{stripeapi.PaymentIntentStatusRequiresCapture, provider.IntentAuthorized},
		{stripeapi.PaymentIntentStatusCanceled, provider.IntentFailed},
		{stripeapi.PaymentIntentStatusProcessing, provider.IntentPending},
		{stripeapi.PaymentIntentStatusRequiresPaymentMethod, provider.IntentCreated},
	}

	for _, tt := range tests {
		if got := mapIntentStatus(tt.wire); got != tt.want {
			t.Errorf("mapIntentStatus(%q) = %v, want %v", tt.wire, got, tt.want)
		}
	}
}
