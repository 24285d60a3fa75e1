package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	dashboardKeyPrefix = "housing:dashboard:"
	// 代数键不在前缀通配范围内，失效时不会被删除
	dashboardGenKey = "housing:dashboard-gen"
)

// DashboardCache keeps computed dashboard stats per scope. A nil KV disables caching.
// Entries are tagged with the generation current when their reads began; Invalidate
// moves the generation, so stats computed across a concurrent commit are never served.
type DashboardCache struct {
	kv      store.KV
	ttl     time.Duration
	metrics *Metrics
	logger  *zap.Logger
}

type cachedStats struct {
	Gen   string          `json:"gen"`
	Stats *DashboardStats `json:"stats"`
}

func NewDashboardCache(kv store.KV, ttl time.Duration, metrics *Metrics, logger *zap.Logger) *DashboardCache {
	return &DashboardCache{kv: kv, ttl: ttl, metrics: metrics, logger: logger}
}

func dashboardKey(scope domain.Scope) string {
	return dashboardKeyPrefix + scope.String()
}

// generation returns the current cache generation; read it before loading any data.
func (c *DashboardCache) generation(ctx context.Context) string {
	if c == nil || c.kv == nil {
		return ""
	}
	gen, err := c.kv.Get(ctx, dashboardGenKey)
	if err != nil && !errors.Is(err, store.ErrMiss) {
		c.logger.Warn("dashboard cache generation read failed", zap.Error(err))
	}
	return gen
}

func (c *DashboardCache) get(ctx context.Context, scope domain.Scope, gen string) (*DashboardStats, bool) {
	if c == nil || c.kv == nil {
		return nil, false
	}
	raw, err := c.kv.Get(ctx, dashboardKey(scope))
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			c.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		c.metrics.observeCache(false)
		return nil, false
	}
	var entry cachedStats
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Stats == nil || entry.Gen != gen {
		c.metrics.observeCache(false)
		return nil, false
	}
	c.metrics.observeCache(true)
	return entry.Stats, true
}

// put stores stats computed from reads that began at gen. Nothing is written when an
// invalidation has happened since.
func (c *DashboardCache) put(ctx context.Context, scope domain.Scope, gen string, stats *DashboardStats) {
	if c == nil || c.kv == nil {
		return
	}
	if c.generation(ctx) != gen {
		return
	}
	b, err := json.Marshal(cachedStats{Gen: gen, Stats: stats})
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, dashboardKey(scope), string(b), c.ttl); err != nil {
		c.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}

// Invalidate moves the generation and drops every cached scope. Called after each committed mutation.
func (c *DashboardCache) Invalidate(ctx context.Context) {
	if c == nil || c.kv == nil {
		return
	}
	if err := c.kv.Set(ctx, dashboardGenKey, uuid.NewString(), 0); err != nil {
		c.logger.Warn("dashboard cache generation bump failed", zap.Error(err))
	}
	keys, err := c.kv.ScanKeys(ctx, dashboardKeyPrefix+"*")
	if err != nil {
		c.logger.Warn("dashboard cache scan failed", zap.Error(err))
		return
	}
	if err := c.kv.Delete(ctx, keys...); err != nil {
		c.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
