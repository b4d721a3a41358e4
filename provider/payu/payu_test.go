package payu

import (
	"context"
	"net/url"
	"testing"

	"github.com/ecomkit/gateway/provider"
)

func testCredentials() provider.CredentialSet {
	return provider.CredentialSet{
		"merchantKey":  "gtKFFx",
		"merchantSalt": "eCwWELxi",
	}
}

func initProvider(t *testing.T) *PayUProvider {
	t.Helper()
	p := NewProvider().(*PayUProvider)
	if err := p.Initialize(testCredentials(), provider.EnvSandbox); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return p
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
			name: "missing salt",
			creds: provider.CredentialSet{
				"merchantKey": "gtKFFx",
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

func TestCreateOrderFormFields(t *testing.T) {
	p := initProvider(t)

	result, err := p.CreateOrder(context.Background(), provider.Order{
		OrderNumber:   "ORD-5001",
		Amount:        1999.50,
		Currency:      "INR",
		CustomerEmail: "buyer@example.com",
		CustomerPhone: "+919876543210",
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if result.PaymentID != "ORD-5001" {
		t.Errorf("CreateOrder() payment id = %v, want ORD-5001", result.PaymentID)
	}
	for _, field := range []string{"action_url", "key", "txnid", "amount", "hash"} {
		if result.Metadata[field] == "" {
			t.Errorf("CreateOrder() metadata missing %q", field)
		}
	}
	if result.Metadata["amount"] != "1999.50" {
		t.Errorf("CreateOrder() amount = %v, want 1999.50", result.Metadata["amount"])
	}

	wantHash := p.requestHash("ORD-5001", "1999.50", "order ORD-5001", "customer", "buyer@example.com")
	if result.Metadata["hash"] != wantHash {
		t.Error("CreateOrder() hash does not match the request hash chain")
	}
}

func callbackBody(p *PayUProvider, status, txnid, amount, email string) []byte {
	productinfo := "order " + txnid
	values := url.Values{}
	values.Set("status", status)
	values.Set("txnid", txnid)
	values.Set("amount", amount)
	values.Set("productinfo", productinfo)
	values.Set("firstname", "customer")
	values.Set("email", email)
	values.Set("hash", p.responseHash(status, txnid, amount, productinfo, "customer", email))
	return []byte(values.Encode())
}

func TestVerifyWebhook(t *testing.T) {
	p := initProvider(t)
	valid := callbackBody(p, "success", "ORD-5001", "1999.50", "buyer@example.com")

	other := NewProvider().(*PayUProvider)
	if err := other.Initialize(provider.CredentialSet{
		"merchantKey":  "gtKFFx",
		"merchantSalt": "wrong-salt",
	}, provider.EnvSandbox); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	badHash := callbackBody(other, "success", "ORD-5001", "1999.50", "buyer@example.com")

	tests := []struct {
		name   string
		body   []byte
		wantOK bool
	}{
		{
			name:   "valid callback",
			body:   valid,
			wantOK: true,
		},
		{
			name:   "hash from wrong salt",
			body:   badHash,
			wantOK: false,
		},
		{
			name:   "missing fields",
			body:   []byte("status=success"),
			wantOK: false,
		},
		{
			name:   "not form encoded",
			body:   []byte{0x7f, 0xff, '%'},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, data, err := p.VerifyWebhook(context.Background(), tt.body, nil)
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
				if data.Status != provider.StatusPaid {
					t.Errorf("VerifyWebhook() status = %v, want %v", data.Status, provider.StatusPaid)
				}
				if data.Amount != 1999.50 {
					t.Errorf("VerifyWebhook() amount = %v, want 1999.50", data.Amount)
				}
			}
		})
	}
}

func TestVerifyWebhookFailureStatus(t *testing.T) {
	p := initProvider(t)
	body := callbackBody(p, "failure", "ORD-5002", "100.00", "buyer@example.com")

	ok, data, err := p.VerifyWebhook(context.Background(), body, nil)
	if err != nil {
		t.Fatalf("VerifyWebhook() error = %v", err)
	}
	if !ok {
		t.Fatal("VerifyWebhook() ok = false, want true for a signed failure callback")
	}
	if data.Status != provider.StatusFailed {
		t.Errorf("VerifyWebhook() status = %v, want %v", data.Status, provider.StatusFailed)
	}
}
