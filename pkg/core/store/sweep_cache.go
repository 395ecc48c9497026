// Package store memoizes sensitivity results.
//
// SweepCache is a hybrid cache: an in-process TTL tier in front of either a
// shared Postgres table or, without a database, a directory of JSON files.
// Only derived numbers are stored, never scenarios.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTTL applies when NewSweepCache is given a non-positive ttl.
const DefaultTTL = 10 * time.Minute

// SweepCache implements sensitivity.Cache.
type SweepCache struct {
	memory  *cache.Cache
	pool    *pgxpool.Pool
	fileDir string
}

// NewSweepCache builds the cache. pool and dir are both optional: with a pool
// the database is the persistent tier, otherwise dir is used when set, and
// with neither the cache is memory-only.
func NewSweepCache(pool *pgxpool.Pool, dir string, ttl time.Duration) (*SweepCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if pool == nil && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir: %w", err)
		}
	}
	return &SweepCache{
		memory:  cache.New(ttl, 2*ttl),
		pool:    pool,
		fileDir: dir,
	}, nil
}

// Entry is the persisted form of one cached grid. NaN cells are stored as
// null since JSON has no NaN.
type Entry struct {
	Key       string       `json:"key"`
	Grid      [][]*float64 `json:"grid"`
	CreatedAt time.Time    `json:"created_at"`
}

// Key hashes a canonical request description into a fixed-length cache key.
func Key(description string) string {
	sum := sha256.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])
}

// Get looks up a grid. Persistent-tier read failures count as misses.
func (c *SweepCache) Get(ctx context.Context, description string) ([][]float64, bool) {
	key := Key(description)

	if v, ok := c.memory.Get(key); ok {
		return cloneGrid(v.([][]float64)), true
	}

	var payload []byte
	switch {
	case c.pool != nil:
		const query = `SELECT payload FROM sweep_results WHERE cache_key = $1`
		if err := c.pool.QueryRow(ctx, query, key).Scan(&payload); err != nil {
			return nil, false
		}
	case c.fileDir != "":
		data, err := os.ReadFile(c.path(key))
		if err != nil {
			return nil, false
		}
		payload = data
	default:
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, false
	}
	grid := decodeGrid(entry.Grid)
	c.memory.SetDefault(key, grid)
	return cloneGrid(grid), true
}

// Put stores a grid in memory and in the persistent tier, if any.
func (c *SweepCache) Put(ctx context.Context, description string, grid [][]float64) error {
	key := Key(description)
	c.memory.SetDefault(key, cloneGrid(grid))

	if c.pool == nil && c.fileDir == "" {
		return nil
	}

	payload, err := json.Marshal(Entry{Key: key, Grid: encodeGrid(grid), CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if c.pool != nil {
		const query = `
			INSERT INTO sweep_results (cache_key, payload)
			VALUES ($1, $2)
			ON CONFLICT (cache_key)
			DO UPDATE SET payload = EXCLUDED.payload, created_at = NOW()
		`
		if _, err := c.pool.Exec(ctx, query, key, payload); err != nil {
			return fmt.Errorf("failed to save to db cache: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(c.path(key), payload, 0o644); err != nil {
		return fmt.Errorf("failed to save to file cache: %w", err)
	}
	return nil
}

// Flush drops the in-memory tier only.
func (c *SweepCache) Flush() {
	c.memory.Flush()
}

// Len reports the number of in-memory entries.
func (c *SweepCache) Len() int {
	return c.memory.ItemCount()
}

func (c *SweepCache) path(key string) string {
	return filepath.Join(c.fileDir, key+".json")
}

func encodeGrid(grid [][]float64) [][]*float64 {
	out := make([][]*float64, len(grid))
	for i, row := range grid {
		out[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			v := v
			out[i][j] = &v
		}
	}
	return out
}

func decodeGrid(grid [][]*float64) [][]float64 {
	out := make([][]float64, len(grid))
	for i, row := range grid {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = math.NaN()
				continue
			}
			out[i][j] = *v
		}
	}
	return out
}

func cloneGrid(grid [][]float64) [][]float64 {
	out := make([][]float64, len(grid))
	for i, row := range grid {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
