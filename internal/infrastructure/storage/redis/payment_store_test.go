package redis

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/core/types"
	"billing/internal/domain/payment"
)

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "billing:payment:Sharma%20Traders/B1", StorageKey(payment.Key{Supplier: "Sharma Traders", Batch: "B1"}))

	a := StorageKey(payment.Key{Supplier: "A/B", Batch: "C"})
	b := StorageKey(payment.Key{Supplier: "A", Batch: "B/C"})
	assert.NotEqual(t, a, b)
}

// Runs against a live server when TEST_REDIS_URL is set.
func TestPaymentStore_ConcurrentUpdates(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	store := NewPaymentStore(client)
	k := payment.Key{Supplier: "store-test", Batch: t.Name()}
	require.NoError(t, store.Delete(ctx, k))
	defer store.Delete(ctx, k)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, k, func(cur *payment.Status) (*payment.Status, error) {
				if cur == nil {
					cur = &payment.Status{SupplierName: k.Supplier, BatchNumber: k.Batch, PaidAmount: types.MustMoney("0")}
				}
				cur.PaidAmount = cur.PaidAmount.Add(types.MustMoney("1"))
				return cur, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := store.Get(ctx, k)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "8", st.PaidAmount.String())
}
