// Package cache is a content-addressed summary cache with an in-memory LRU
// tier over an append-only compressed disk log. Keys are content hashes of
// the input dataset and options; values are finished summaries. Both tiers
// are owned by a single long-lived process; concurrent writers from other
// processes would race on the append offset and are not supported.
package cache

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/blunderlab/api/internal/report"
)

// Entry is one cached summary with its cache metadata.
type Entry struct {
	Key       string          `json:"key"`
	Summary   *report.Summary `json:"summary"`
	CreatedAt int64           `json:"createdAt"` // epoch ms
	Version   int             `json:"version"`   // monotonic per key
}

// Config configures the cache.
type Config struct {
	Dir            string
	MemoryCapacity int   // max entries in the memory tier, default 128
	DiskBudget     int64 // live-byte budget for the disk log, default 64MB
	Logger         zerolog.Logger
}

// Cache is the tiered store. Construct once at startup with New; never hold
// it as ambient state.
type Cache struct {
	mem  *memoryTier
	disk *diskTier
	log  zerolog.Logger

	hits   uint64
	misses uint64
	reads  uint64
	writes uint64
}

// Metrics is the diagnostics counter snapshot.
type Metrics struct {
	MemoryItems int    `json:"memoryItems"`
	DiskEntries int    `json:"diskEntries"`
	DiskSize    int64  `json:"diskSize"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Reads       uint64 `json:"reads"`
	Writes      uint64 `json:"writes"`
}

// New opens the cache in cfg.Dir, creating it if needed.
func New(cfg Config) (*Cache, error) {
	if cfg.MemoryCapacity <= 0 {
		cfg.MemoryCapacity = 128
	}
	if cfg.DiskBudget == 0 {
		cfg.DiskBudget = 64 * 1024 * 1024
	}

	disk, err := openDiskTier(cfg.Dir, cfg.DiskBudget, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &Cache{
		mem:  newMemoryTier(cfg.MemoryCapacity),
		disk: disk,
		log:  cfg.Logger,
	}, nil
}

// TryGet returns the cached entry for key if either tier has it. A disk hit
// is promoted into the memory tier. Disk faults surface as misses.
func (c *Cache) TryGet(key string) (*Entry, bool) {
	atomic.AddUint64(&c.reads, 1)

	if e, ok := c.mem.Get(key); ok {
		atomic.AddUint64(&c.hits, 1)
		return &e, true
	}
	if e, ok := c.disk.Get(key); ok {
		c.mem.Put(key, e)
		atomic.AddUint64(&c.hits, 1)
		return &e, true
	}
	atomic.AddUint64(&c.misses, 1)
	return nil, false
}

// Save stores a summary under key in both tiers, bumping the key's version.
func (c *Cache) Save(key string, summary *report.Summary) (*Entry, error) {
	atomic.AddUint64(&c.writes, 1)

	e, err := c.disk.Put(key, Entry{Summary: summary})
	if err != nil {
		return nil, err
	}
	c.mem.Put(key, e)
	return &e, nil
}

// Metrics returns a snapshot of the diagnostics counters.
func (c *Cache) Metrics() Metrics {
	entries, size := c.disk.Stats()
	return Metrics{
		MemoryItems: c.mem.Len(),
		DiskEntries: entries,
		DiskSize:    size,
		Hits:        atomic.LoadUint64(&c.hits),
		Misses:      atomic.LoadUint64(&c.misses),
		Reads:       atomic.LoadUint64(&c.reads),
		Writes:      atomic.LoadUint64(&c.writes),
	}
}

// Close releases the disk tier.
func (c *Cache) Close() error {
	return c.disk.Close()
}
