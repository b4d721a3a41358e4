package shiprocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ecomkit/gateway/provider"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestProvider wires an adapter against a test server with its own token
// cache so tests do not share login state.
func newTestProvider(t *testing.T, serverURL string, clock provider.Clock) *ShiprocketProvider {
	t.Helper()
	p := &ShiprocketProvider{
		cache:  provider.NewTokenCache(tokenTTL, clock),
		client: provider.NewHTTPClient(&provider.HTTPClientConfig{BaseURL: serverURL}),
	}
	err := p.Initialize(provider.CredentialSet{
		"email":    "ops@example.com",
		"password": "secret123",
	}, provider.EnvSandbox)
	if err != nil {
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
			name: "valid credentials",
			creds: provider.CredentialSet{
				"email":    "ops@example.com",
				"password": "secret123",
			},
		},
		{
			name: "missing password",
			creds: provider.CredentialSet{
				"email": "ops@example.com",
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

func TestTokenCachedAcrossCalls(t *testing.T) {
	var logins atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case endpointLogin:
			logins.Add(1)
			w.Write([]byte(`{"token":"tok_1"}`))
		case endpointServiceability:
			w.Write([]byte(`{"status":200,"data":{"available_courier_companies":[{"courier_name":"Delhivery","rate":90.5,"estimated_delivery_days":"3"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, nil)

	for i := 0; i < 3; i++ {
		ok, err := p.CheckServiceability(context.Background(), "110001", "560001", 1.5)
		if err != nil {
			t.Fatalf("CheckServiceability() error = %v", err)
		}
		if !ok {
			t.Fatal("CheckServiceability() = false, want true")
		}
	}

	if got := logins.Load(); got != 1 {
		t.Errorf("login calls = %d, want 1 (token should be cached)", got)
	}
}

func TestTokenExpiryTriggersRelogin(t *testing.T) {
	var logins atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case endpointLogin:
			logins.Add(1)
			w.Write([]byte(`{"token":"tok_1"}`))
		case endpointServiceability:
			w.Write([]byte(`{"status":200,"data":{"available_courier_companies":[]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	clock := &fakeClock{now: time.Now()}
	p := newTestProvider(t, server.URL, clock)

	if _, err := p.CheckServiceability(context.Background(), "110001", "560001", 1.5); err != nil {
		t.Fatalf("CheckServiceability() error = %v", err)
	}
	clock.advance(tokenTTL + time.Minute)
	if _, err := p.CheckServiceability(context.Background(), "110001", "560001", 1.5); err != nil {
		t.Fatalf("CheckServiceability() error = %v", err)
	}

	if got := logins.Load(); got != 2 {
		t.Errorf("login calls = %d, want 2 after TTL expiry", got)
	}
}

func TestUnauthorizedRetriesOnce(t *testing.T) {
	var logins, calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case endpointLogin:
			logins.Add(1)
			w.Write([]byte(`{"token":"tok_fresh"}`))
		case endpointServiceability:
			// first data call fails as if the cached token was revoked
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"status":200,"data":{"available_courier_companies":[{"courier_name":"Bluedart","rate":120,"estimated_delivery_days":"2"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, nil)
	p.cache.Set(p.cacheKey(), "tok_stale")

	rates, err := p.GetRates(context.Background(), provider.RateQuery{
		PickupPostcode:   "110001",
		DeliveryPostcode: "560001",
		WeightKg:         2,
	})
	if err != nil {
		t.Fatalf("GetRates() error = %v", err)
	}
	if len(rates) != 1 || rates[0].Courier != "Bluedart" {
		t.Errorf("GetRates() = %+v, want one Bluedart rate", rates)
	}
	if got := logins.Load(); got != 1 {
		t.Errorf("login calls = %d, want exactly 1 re-login after 401", got)
	}
}

func TestCheckServiceabilityNoCouriers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case endpointLogin:
			w.Write([]byte(`{"token":"tok_1"}`))
		case endpointServiceability:
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, nil)
	ok, err := p.CheckServiceability(context.Background(), "110001", "999999", 1)
	if err != nil {
		t.Fatalf("CheckServiceability() error = %v", err)
	}
	if ok {
		t.Error("CheckServiceability() = true, want false when no courier serves the route")
	}
}
