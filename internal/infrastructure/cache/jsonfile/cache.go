package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// Cache is the persistent classification cache: a flat JSON map from
// document identity to classification. Loaded once at start, flushed
// atomically at the end of the run.
//
// GetOrCompute implements the lookup-or-compute-once contract: even with
// overlapping callers a key's compute function runs at most once, so a
// document is never billed against the oracle twice.
type Cache struct {
	path string

	mu       sync.Mutex
	entries  map[string]domain.Classification
	inflight map[string]chan struct{}
	dirty    bool
}

func Load(path string) (*Cache, error) {
	cache := &Cache{
		path:     path,
		entries:  make(map[string]domain.Classification),
		inflight: make(map[string]chan struct{}),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if err := json.Unmarshal(raw, &cache.entries); err != nil {
		return nil, fmt.Errorf("parse cache file %s: %w", path, err)
	}
	return cache, nil
}

func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (domain.Classification, error)) (domain.Classification, error) {
	for {
		c.mu.Lock()
		if cls, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return cls, nil
		}
		if wait, running := c.inflight[key]; running {
			c.mu.Unlock()
			select {
			case <-ctx.Done():
				return domain.Classification{}, ctx.Err()
			case <-wait:
			}
			// The other caller finished; re-check whether it cached a value.
			continue
		}
		done := make(chan struct{})
		c.inflight[key] = done
		c.mu.Unlock()

		cls, err := compute(ctx)

		c.mu.Lock()
		delete(c.inflight, key)
		if err == nil {
			c.entries[key] = cls
			c.dirty = true
		}
		close(done)
		c.mu.Unlock()
		return cls, err
	}
}

// Len reports the number of cached classifications.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush writes the cache atomically: a temp file in the same directory is
// renamed over the target so a crash never leaves a half-written cache.
func (c *Cache) Flush(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	raw, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cache file: %w", err)
	}
	c.dirty = false
	return nil
}
