package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb redis.Cmdable, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Cache is the Redis fast path for idempotent create and order status reads.
type Cache struct {
	rdb redis.Cmdable
}

func NewCache(rdb redis.Cmdable) *Cache { return &Cache{rdb: rdb} }

type statusEntry struct {
	Status    orders.Status `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
	Rev       string        `json:"rev"` // UnixNano, zero-padded supaya bisa dibanding sebagai string
}

// putStatusScript sets the entry unless the stored one has a newer rev.
var putStatusScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, e = pcall(cjson.decode, cur)
  if ok and type(e) == 'table' and type(e.rev) == 'string' and e.rev > ARGV[2] then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

func statusRev(at time.Time) string { return fmt.Sprintf("%020d", at.UnixNano()) }

// OrderIDByExternalID returns "" on a miss.
func (c *Cache) OrderIDByExternalID(ctx context.Context, externalID string) (string, error) {
	id, err := c.rdb.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, externalID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

func (c *Cache) RememberExternalID(ctx context.Context, externalID, orderID string) error {
	return c.rdb.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, externalID), orderID, TTLIdempotency).Err()
}

// Status returns "" on a miss.
func (c *Cache) Status(ctx context.Context, orderID string) (orders.Status, error) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var e statusEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return "", err
	}
	return e.Status, nil
}

// PutStatus caches s as of updatedAt. A write older than the cached entry is
// dropped, so racing transitions cannot leave a stale status behind.
func (c *Cache) PutStatus(ctx context.Context, orderID string, s orders.Status, updatedAt time.Time) error {
	e := statusEntry{Status: s, UpdatedAt: updatedAt.UTC(), Rev: statusRev(updatedAt)}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(KeyOrderStatus, orderID)
	return putStatusScript.Run(ctx, c.rdb, []string{key}, b, e.Rev, TTLStatusCache.Milliseconds()).Err()
}

// Deduper remembers processed event ids so redeliveries are acknowledged
// without being applied twice.
type Deduper struct {
	rdb     redis.Cmdable
	service string
}

func NewDeduper(rdb redis.Cmdable, service string) *Deduper {
	return &Deduper{rdb: rdb, service: service}
}

func (d *Deduper) Seen(ctx context.Context, id string) (bool, error) {
	return Exists(ctx, d.rdb, fmt.Sprintf(KeyDedup, d.service, id))
}

func (d *Deduper) Mark(ctx context.Context, id string) error {
	return d.rdb.Set(ctx, fmt.Sprintf(KeyDedup, d.service, id), 1, TTLDedup).Err()
}
