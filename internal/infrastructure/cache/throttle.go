package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	appinv "github.com/Erenishere/pharam-sub008/internal/application/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/redis/go-redis/v9"
)

const alertKeyPrefix = "stock-alert:"

// AlertKey identifies an alert for throttling: one window per item and kind
func AlertKey(alert inventory.StockAlert) string {
	return alertKeyPrefix + alert.ItemID.String() + ":" + string(alert.Kind)
}

// RedisAlertThrottle shares the alert window across processes
type RedisAlertThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewRedisAlertThrottle creates a throttle allowing one alert per window
func NewRedisAlertThrottle(client *redis.Client, window time.Duration) *RedisAlertThrottle {
	return &RedisAlertThrottle{client: client, window: window}
}

// Allow uses SETNX so only the first caller within the window is allowed
func (t *RedisAlertThrottle) Allow(ctx context.Context, alert inventory.StockAlert) (bool, error) {
	ok, err := t.client.SetNX(ctx, AlertKey(alert), time.Now().UTC().Format(time.RFC3339), t.window).Result()
	if err != nil {
		return false, fmt.Errorf("throttle stock alert: %w", err)
	}
	return ok, nil
}

type window struct {
	expiresAt time.Time
}

// MemoryAlertThrottle throttles alerts within a single process
type MemoryAlertThrottle struct {
	mu      sync.Mutex
	entries map[string]window
	window  time.Duration
	now     func() time.Time
}

// NewMemoryAlertThrottle creates an in-process throttle
func NewMemoryAlertThrottle(d time.Duration) *MemoryAlertThrottle {
	return &MemoryAlertThrottle{
		entries: make(map[string]window),
		window:  d,
		now:     time.Now,
	}
}

// Allow reports whether the alert's window has elapsed and opens a new one
func (t *MemoryAlertThrottle) Allow(_ context.Context, alert inventory.StockAlert) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	key := AlertKey(alert)
	if w, ok := t.entries[key]; ok && now.Before(w.expiresAt) {
		return false, nil
	}
	t.entries[key] = window{expiresAt: now.Add(t.window)}
	t.prune(now)
	return true, nil
}

// prune drops expired windows; called with mu held
func (t *MemoryAlertThrottle) prune(now time.Time) {
	for key, w := range t.entries {
		if !now.Before(w.expiresAt) {
			delete(t.entries, key)
		}
	}
}

// Size returns the number of open windows
func (t *MemoryAlertThrottle) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

var (
	_ appinv.AlertThrottle = (*RedisAlertThrottle)(nil)
	_ appinv.AlertThrottle = (*MemoryAlertThrottle)(nil)
)
