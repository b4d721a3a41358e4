package provider

import (
	"fmt"
	"sync"
)

// Registry holds the immutable descriptor catalog plus the factory table for
// each implemented category. Factories are registered at startup by the
// adapter packages; a key must exist in the catalog before a factory can be
// bound to it, so unknown keys are rejected at registration time rather than
// on the first request.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	order       []string
	payments    map[string]PaymentFactory
	shippers    map[string]ShippingFactory
	sms         map[string]SMSFactory
	whatsapp    map[string]WhatsAppFactory
}

// NewRegistry creates a registry seeded with the build-time catalog.
// It panics on a duplicate catalog key: that is a programming error, caught
// in tests, not a runtime condition.
func NewRegistry() *Registry {
	r := &Registry{
		descriptors: make(map[string]Descriptor, len(Catalog)),
		payments:    make(map[string]PaymentFactory),
		shippers:    make(map[string]ShippingFactory),
		sms:         make(map[string]SMSFactory),
		whatsapp:    make(map[string]WhatsAppFactory),
	}
	for _, d := range Catalog {
		if _, dup := r.descriptors[d.Key]; dup {
			panic(fmt.Sprintf("provider: duplicate catalog key %q", d.Key))
		}
		r.descriptors[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r
}

// All returns every descriptor in catalog order.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.descriptors[key])
	}
	return out
}

// Get returns the descriptor for key. The second return is false for unknown
// keys; lookup misses are not errors.
func (r *Registry) Get(key string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[key]
	return d, ok
}

// ByCategory returns the descriptors of one category in catalog order, which
// is also the dispatcher's priority order.
func (r *Registry) ByCategory(category Category) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Descriptor
	for _, key := range r.order {
		if d := r.descriptors[key]; d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// checkKey validates that key names a cataloged provider of the expected
// category before a factory may be bound to it.
func (r *Registry) checkKey(key string, category Category) error {
	d, ok := r.descriptors[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, key)
	}
	if d.Category != category {
		return fmt.Errorf("provider %q is %s, not %s", key, d.Category, category)
	}
	return nil
}

// RegisterPayment binds a payment adapter factory to a cataloged key.
func (r *Registry) RegisterPayment(key string, factory PaymentFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkKey(key, CategoryPayment); err != nil {
		return err
	}
	r.payments[key] = factory
	return nil
}

// RegisterShipping binds a shipping adapter factory to a cataloged key.
func (r *Registry) RegisterShipping(key string, factory ShippingFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkKey(key, CategoryShipping); err != nil {
		return err
	}
	r.shippers[key] = factory
	return nil
}

// RegisterSMS binds an SMS adapter factory to a cataloged key.
func (r *Registry) RegisterSMS(key string, factory SMSFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkKey(key, CategorySMS); err != nil {
		return err
	}
	r.sms[key] = factory
	return nil
}

// RegisterWhatsApp binds a WhatsApp adapter factory to a cataloged key.
func (r *Registry) RegisterWhatsApp(key string, factory WhatsAppFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkKey(key, CategoryWhatsApp); err != nil {
		return err
	}
	r.whatsapp[key] = factory
	return nil
}

// Payment returns a fresh, uninitialized payment adapter for key.
func (r *Registry) Payment(key string) (PaymentProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.payments[key]
	if !ok {
		return nil, fmt.Errorf("%w: payment provider %q", ErrUnknownProvider, key)
	}
	return factory(), nil
}

// Shipping returns a fresh, uninitialized shipping adapter for key.
func (r *Registry) Shipping(key string) (ShippingProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.shippers[key]
	if !ok {
		return nil, fmt.Errorf("%w: shipping provider %q", ErrUnknownProvider, key)
	}
	return factory(), nil
}

// SMS returns a fresh, uninitialized SMS adapter for key.
func (r *Registry) SMS(key string) (SMSProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.sms[key]
	if !ok {
		return nil, fmt.Errorf("%w: sms provider %q", ErrUnknownProvider, key)
	}
	return factory(), nil
}

// WhatsApp returns a fresh, uninitialized WhatsApp adapter for key.
func (r *Registry) WhatsApp(key string) (WhatsAppProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.whatsapp[key]
	if !ok {
		return nil, fmt.Errorf("%w: whatsapp provider %q", ErrUnknownProvider, key)
	}
	return factory(), nil
}

// HasPayment reports whether a payment factory is bound for key.
func (r *Registry) HasPayment(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.payments[key]
	return ok
}

// DefaultRegistry is the process-wide registry the adapter packages register
// into from their init functions.
var DefaultRegistry = NewRegistry()

// RegisterPayment binds a payment factory in the default registry.
func RegisterPayment(key string, factory PaymentFactory) {
	if err := DefaultRegistry.RegisterPayment(key, factory); err != nil {
		panic(err)
	}
}

// RegisterShipping binds a shipping factory in the default registry.
func RegisterShipping(key string, factory ShippingFactory) {
	if err := DefaultRegistry.RegisterShipping(key, factory); err != nil {
		panic(err)
	}
}

// RegisterSMS binds an SMS factory in the default registry.
func RegisterSMS(key string, factory SMSFactory) {
	if err := DefaultRegistry.RegisterSMS(key, factory); err != nil {
		panic(err)
	}
}

// RegisterWhatsApp binds a WhatsApp factory in the default registry.
func RegisterWhatsApp(key string, factory WhatsAppFactory) {
	if err := DefaultRegistry.RegisterWhatsApp(key, factory); err != nil {
		panic(err)
	}
}
