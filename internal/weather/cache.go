package weather

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// CacheStats tracks snapshot cache performance
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// SnapshotCache caches live weather snapshots in Redis, keyed by the source
// chain scope, coordinates rounded to 0.1° and the hour bucket. Only live
// results are cached; synthetic snapshots are cheap to recompute.
type SnapshotCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	scope  string

	mu    sync.Mutex
	stats CacheStats
}

// NewSnapshotCache creates a Redis-backed snapshot cache. The scope
// discriminates entries fetched under different source chains or
// credentials, see ChainScope.
func NewSnapshotCache(redisClient *redis.Client, ttl time.Duration, scope string) *SnapshotCache {
	return &SnapshotCache{
		redis:  redisClient,
		ttl:    ttl,
		prefix: "weather_snapshot:",
		scope:  scope,
	}
}

// ChainScope derives a short key segment from the source chain identity,
// typically the ordered source names plus any API credential. Reconfiguring
// the chain changes the scope, so entries fetched under the old chain are
// never served within their remaining TTL.
func ChainScope(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:4])
}

// Key builds the cache key for a location and time bucket
func (c *SnapshotCache) Key(loc models.Location, ts time.Time) string {
	lat := math.Round(loc.Latitude*10) / 10
	lon := math.Round(loc.Longitude*10) / 10
	return fmt.Sprintf("%s%s:%.1f:%.1f:%s", c.prefix, c.scope, lat, lon, ts.UTC().Format("2006010215"))
}

// Get retrieves a cached snapshot, reporting whether it was present
func (c *SnapshotCache) Get(ctx context.Context, loc models.Location, ts time.Time) (models.WeatherSnapshot, bool) {
	data, err := c.redis.Get(ctx, c.Key(loc, ts)).Result()
	if err != nil {
		c.miss()
		return models.WeatherSnapshot{}, false
	}

	var snapshot models.WeatherSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		c.miss()
		return models.WeatherSnapshot{}, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	return snapshot, true
}

// Set stores a snapshot for the location's time bucket
func (c *SnapshotCache) Set(ctx context.Context, loc models.Location, ts time.Time, snapshot models.WeatherSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.redis.Set(ctx, c.Key(loc, ts), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}

	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()
	return nil
}

func (c *SnapshotCache) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

// Stats returns a copy of the current cache counters
func (c *SnapshotCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
