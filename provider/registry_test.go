package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistrySeedsCatalog(t *testing.T) {
	r := NewRegistry()

	all := r.All()
	require.Len(t, all, len(Catalog))

	// catalog order is the dispatcher priority order
	for i, d := range Catalog {
		assert.Equal(t, d.Key, all[i].Key)
	}

	d, ok := r.Get("razorpay")
	require.True(t, ok)
	assert.Equal(t, CategoryPayment, d.Category)

	_, ok = r.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistryByCategory(t *testing.T) {
	r := NewRegistry()

	payments := r.ByCategory(CategoryPayment)
	require.NotEmpty(t, payments)
	assert.Equal(t, "razorpay", payments[0].Key)
	for _, d := range payments {
		assert.Equal(t, CategoryPayment, d.Category)
	}

	shipping := r.ByCategory(CategoryShipping)
	require.Len(t, shipping, 1)
	assert.Equal(t, "shiprocket", shipping[0].Key)
}

func TestRegisterRejectsUnknownKey(t *testing.T) {
	r := NewRegistry()

	err := r.RegisterPayment("nonexistent", func() PaymentProvider { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegisterRejectsCategoryMismatch(t *testing.T) {
	r := NewRegistry()

	// shiprocket is cataloged as shipping, not payment
	err := r.RegisterPayment("shiprocket", func() PaymentProvider { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shipping")
}

func TestFactoryLookupBeforeRegistration(t *testing.T) {
	r := NewRegistry()

	_, err := r.Payment("razorpay")
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.False(t, r.HasPayment("razorpay"))
}

func TestFactoryReturnsFreshAdapter(t *testing.T) {
	r := NewRegistry()

	calls := 0
	err := r.RegisterPayment("razorpay", func() PaymentProvider {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.True(t, r.HasPayment("razorpay"))

	_, err = r.Payment("razorpay")
	require.NoError(t, err)
	_, err = r.Payment("razorpay")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "each lookup should invoke the factory")
}
