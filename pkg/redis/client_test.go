package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "contact:ip:1.2.3.4", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "contact:ip:1.2.3.4", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "contact:ip:1.2.3.4", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestGetBytesMapsMissingKey(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	if _, err := client.GetBytes(ctx, client.CartKey("abc")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := client.Set(ctx, client.CartKey("abc"), `{"items":[]}`, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	raw, err := client.GetBytes(ctx, client.CartKey("abc"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(raw) != `{"items":[]}` {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("scope", "id"):  "folio:idempotency:scope:id",
		client.RateLimitKey("scope"):          "folio:rate_limit:scope",
		client.AccessSessionKey("jti"):        "folio:session:access:jti",
		client.CartKey("sess-1"):              "folio:cart:sess-1",
		client.CheckoutKey("sess-1"):          "folio:checkout:session:sess-1",
		client.CheckoutReferenceKey("ref_42"): "folio:checkout:ref:ref_42",
		client.IdempotencyKey("scope", " "):   "folio:idempotency:scope",
		client.MaintenanceLeaseKey("prod"):    "folio:maintenance:lease:prod",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected key %s, got %s", want, got)
		}
	}
}

func TestUpdateAgainstRedis(t *testing.T) {
	url := os.Getenv(config.EnvRedisURL)
	if url == "" {
		t.Skip("FOLIO_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := New(ctx, config.RedisConfig{URL: url, PoolSize: 4}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	key := client.buildKey("test", fmt.Sprintf("update-%d", time.Now().UnixNano()))
	defer client.Del(ctx, key)

	for i := 0; i < 3; i++ {
		err := client.Update(ctx, key, time.Minute, func(current []byte) ([]byte, error) {
			return append(current, 'x'), nil
		})
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	raw, err := client.GetBytes(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != "xxx" {
		t.Fatalf("expected xxx, got %q", raw)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Watch(context.Context, func(*redis.Tx) error, ...string) error {
	return errors.New("watch not supported by mock")
}
