package msg91

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecomkit/gateway/provider"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		creds   provider.CredentialSet
		wantErr bool
	}{
		{
			name: "valid credentials",
			creds: provider.CredentialSet{
				"authKey":  "auth_12345",
				"senderId": "ECOMKT",
			},
		},
		{
			name: "missing sender id",
			creds: provider.CredentialSet{
				"authKey": "auth_12345",
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

func TestSendSMS(t *testing.T) {
	var received sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authkey") != "auth_12345" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"type":"success","message":"req_789"}`))
	}))
	defer server.Close()

	p := NewProvider().(*MSG91Provider)
	if err := p.Initialize(provider.CredentialSet{
		"authKey":  "auth_12345",
		"senderId": "ECOMKT",
	}, provider.EnvSandbox); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{
		BaseURL:        server.URL,
		DefaultHeaders: map[string]string{"authkey": "auth_12345"},
	})

	id, err := p.SendSMS(context.Background(), "+919876543210", "Your order has shipped")
	if err != nil {
		t.Fatalf("SendSMS() error = %v", err)
	}
	if id != "req_789" {
		t.Errorf("SendSMS() id = %v, want req_789", id)
	}
	if len(received.SMS) != 1 || received.SMS[0].To[0] != "919876543210" {
		t.Errorf("SendSMS() should strip the + prefix, got %+v", received.SMS)
	}
	if received.Route != defaultRoute {
		t.Errorf("SendSMS() route = %v, want %v", received.Route, defaultRoute)
	}
}

func TestSendSMSRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"error","message":"invalid sender"}`))
	}))
	defer server.Close()

	p := NewProvider().(*MSG91Provider)
	if err := p.Initialize(provider.CredentialSet{
		"authKey":  "auth_12345",
		"senderId": "ECOMKT",
	}, provider.EnvSandbox); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{BaseURL: server.URL})

	if _, err := p.SendSMS(context.Background(), "919876543210", "hello"); err == nil {
		t.Error("SendSMS() should surface vendor rejection")
	}
}
