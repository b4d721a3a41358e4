package phonepe

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/ecomkit/gateway/provider"
)

func testCredentials() provider.CredentialSet {
	return provider.CredentialSet{
		"merchantId": "MERCHANTUAT",
		"saltKey":    "salt-key-12345",
		"saltIndex":  "1",
	}
}

func makeCallback(t *testing.T, saltKey, saltIndex, state string) ([]byte, string) {
	t.Helper()
	inner := map[string]any{
		"code": "PAYMENT_SUCCESS",
		"data": map[string]any{
			"merchantTransactionId": "ORD-4001",
			"amount":                75000,
			"state":                 state,
		},
	}
	innerJSON, err := json.Marshal(inner)
	if err != nil {
		t.Fatalf("marshal callback: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(innerJSON)

	body, err := json.Marshal(map[string]string{"response": encoded})
	if err != nil {
		t.Fatalf("marshal wrapper: %v", err)
	}
	sum := sha256.Sum256([]byte(encoded + saltKey))
	return body, hex.EncodeToString(sum[:]) + "###" + saltIndex
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		creds   provider.CredentialSet
		wantErr bool
	}{
		{
			name:  "valid credentials",
			creds: testCredentials(),
		},
		{
			name: "missing salt index",
			creds: provider.CredentialSet{
				"merchantId": "MERCHANTUAT",
				"saltKey":    "salt-key-12345",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider()
			err := p.Initialize(tt.creds, provider.EnvSandbox)
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyWebhook(t *testing.T) {
	body, verify := makeCallback(t, "salt-key-12345", "1", stateCompleted)
	_, wrongVerify := makeCallback(t, "another-salt", "1", stateCompleted)

	tests := []struct {
		name   string
		body   []byte
		verify string
		wantOK bool
	}{
		{
			name:   "valid checksum",
			body:   body,
			verify: verify,
			wantOK: true,
		},
		{
			name:   "wrong salt",
			body:   body,
			verify: wrongVerify,
			wantOK: false,
		},
		{
			name:   "missing header",
			body:   body,
			verify: "",
			wantOK: false,
		},
		{
			name:   "body without response wrapper",
			body:   []byte(`{"foo":"bar"}`),
			verify: verify,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider()
			if err := p.Initialize(testCredentials(), provider.EnvSandbox); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}

			headers := map[string]string{}
			if tt.verify != "" {
				headers[headerVerify] = tt.verify
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
				if data.OrderNumber != "ORD-4001" {
					t.Errorf("VerifyWebhook() order number = %v, want ORD-4001", data.OrderNumber)
				}
				if data.Status != provider.StatusPaid {
					t.Errorf("VerifyWebhook() status = %v, want %v", data.Status, provider.StatusPaid)
				}
				if data.Amount != 750 {
					t.Errorf("VerifyWebhook() amount = %v, want 750", data.Amount)
				}
			}
		})
	}
}

func TestMapState(t *testing.T) {
	tests := []struct {
		wire string
		want provider.PaymentStatus
	}{
		{stateCompleted, provider.StatusPaid},
		{stateFailed, provider.StatusFailed},
		{statePending, provider.StatusPending},
		{"", provider.StatusPending},
	}

	for _, tt := range tests {
		if got := mapState(tt.wire); got != tt.want {
			t.Errorf("mapState(%q) = %v, want %v", tt.wire, got, tt.want)
		}
	}
}
