package redisx

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only with REDIS_TEST_ADDR, e.g. REDIS_TEST_ADDR=localhost:6379.
func testCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := New(addr)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return NewCache(rdb)
}

func TestCache_ExternalID(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	ext := "ext-" + uuid.NewString()

	id, err := c.OrderIDByExternalID(ctx, ext)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, c.RememberExternalID(ctx, ext, "order-1"))
	id, err = c.OrderIDByExternalID(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, "order-1", id)
}

func TestCache_Status(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	orderID := uuid.NewString()

	s, err := c.Status(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, s)

	at := time.Now()
	require.NoError(t, c.PutStatus(ctx, orderID, orders.StatusPaid, at))
	s, err = c.Status(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, s)
}

func TestCache_StatusIgnoresOlderWrite(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	orderID := uuid.NewString()
	paidAt := time.Now()
	shippedAt := paidAt.Add(time.Millisecond)

	// SHIPPED commits after PAID but its cache write lands first
	require.NoError(t, c.PutStatus(ctx, orderID, orders.StatusShipped, shippedAt))
	require.NoError(t, c.PutStatus(ctx, orderID, orders.StatusPaid, paidAt))

	s, err := c.Status(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusShipped, s)

	require.NoError(t, c.PutStatus(ctx, orderID, orders.StatusDelivered, shippedAt.Add(time.Second)))
	s, err = c.Status(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, s)
}

func TestStatusRevOrdersLikeTime(t *testing.T) {
	a := time.Date(2024, 3, 1, 9, 0, 0, 999, time.UTC)
	b := a.Add(time.Nanosecond)
	assert.Less(t, statusRev(a), statusRev(b))
	assert.Len(t, statusRev(a), 20)
	assert.Less(t, statusRev(time.Unix(9, 0)), statusRev(time.Unix(10, 0)))
}

func TestDeduper(t *testing.T) {
	c := testCache(t)
	d := NewDeduper(c.rdb, "payments-test")
	ctx := context.Background()
	id := uuid.NewString()

	seen, err := d.Seen(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, d.Mark(ctx, id))
	seen, err = d.Seen(ctx, id)
	require.NoError(t, err)
	assert.True(t, seen)
}
