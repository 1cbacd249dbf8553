package cache

import (
	"context"
	"sync"
	"time"

	"MarketForecast/internal/model"
)

type entry struct {
	v   *model.ForecastResult
	exp time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]entry), now: time.Now}
}

func (c *MemoryStore) Get(_ context.Context, ticker string) (*model.ForecastResult, error) {
	c.mu.RLock()
	e, ok := c.m[ticker]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		c.mu.Lock()
		// A concurrent Set may have replaced the entry since the read lock was released.
		if cur, ok := c.m[ticker]; ok && cur.exp.Equal(e.exp) {
			delete(c.m, ticker)
		}
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return e.v, nil
}

// Set stores res. A ttl <= 0 never expires.
func (c *MemoryStore) Set(_ context.Context, ticker string, res *model.ForecastResult, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.m[ticker] = entry{v: res, exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *MemoryStore) Delete(_ context.Context, ticker string) error {
	c.mu.Lock()
	delete(c.m, ticker)
	c.mu.Unlock()
	return nil
}

func (c *MemoryStore) Close() error { return nil }
