package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

const (
	logFileName   = "summaries.log"
	indexFileName = "summaries.idx"
)

// indexEntry locates one compressed entry in the append-only log.
type indexEntry struct {
	Offset    int64 `json:"offset"`
	Length    int   `json:"length"` // compressed bytes in the log
	CreatedAt int64 `json:"createdAt"`
	Version   int   `json:"version"`
	Size      int   `json:"size"` // uncompressed bytes
	Deleted   bool  `json:"deleted,omitempty"`
}

// diskTier is an append-only log of independently zstd-compressed entries
// plus a JSON index mapping key to offset/length. Writes always append and
// rewrite the index in full; a crash mid-append leaves an un-indexed tail
// that later appends simply write past. The tier assumes a single owner
// process, so there is no file locking.
type diskTier struct {
	mu      sync.Mutex
	dir     string
	logFile *os.File
	logSize int64 // append offset (current physical end of log)
	index   map[string]indexEntry
	budget  int64 // live-byte budget; 0 disables eviction
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	log     zerolog.Logger
}

func openDiskTier(dir string, budget int64, log zerolog.Logger) (*diskTier, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		encoder.Close()
		decoder.Close()
		return nil, fmt.Errorf("open cache log: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		encoder.Close()
		decoder.Close()
		return nil, err
	}

	d := &diskTier{
		dir:     dir,
		logFile: f,
		logSize: fi.Size(),
		index:   make(map[string]indexEntry),
		budget:  budget,
		encoder: encoder,
		decoder: decoder,
		log:     log,
	}
	d.loadIndex()
	return d, nil
}

// loadIndex reads the JSON index. A missing or corrupt index means an empty
// cache, never a startup failure.
func (d *diskTier) loadIndex() {
	data, err := os.ReadFile(filepath.Join(d.dir, indexFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			d.log.Warn().Err(err).Msg("read cache index failed, starting empty")
		}
		return
	}
	var idx map[string]indexEntry
	if err := json.Unmarshal(data, &idx); err != nil {
		d.log.Warn().Err(err).Msg("corrupt cache index, starting empty")
		return
	}
	// Drop entries pointing past the physical log end (truncated log).
	for key, e := range idx {
		if e.Offset+int64(e.Length) > d.logSize {
			d.log.Warn().Str("key", key).Msg("index entry past log end, dropping")
			delete(idx, key)
		}
	}
	d.index = idx
}

// saveIndexLocked rewrites the full index via temp file + rename.
func (d *diskTier) saveIndexLocked() error {
	data, err := json.MarshalIndent(d.index, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(d.dir, indexFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get reads and decompresses the entry for key. Any fault (missing, deleted,
// short read, decompression or decode failure) is reported as a miss.
func (d *diskTier) Get(key string) (Entry, bool) {
	d.mu.Lock()
	ie, ok := d.index[key]
	d.mu.Unlock()
	if !ok || ie.Deleted {
		return Entry{}, false
	}

	buf := make([]byte, ie.Length)
	if _, err := d.logFile.ReadAt(buf, ie.Offset); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("cache log read failed, treating as miss")
		return Entry{}, false
	}
	raw, err := d.decoder.DecodeAll(buf, nil)
	if err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("cache entry decompress failed, treating as miss")
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("cache entry decode failed, treating as miss")
		return Entry{}, false
	}
	return e, true
}

// Put appends a new compressed entry for key, bumps its version, updates the
// index, and evicts oldest entries if the live size went over budget. The
// stored Entry (with version and timestamp filled in) is returned.
func (d *diskTier) Put(key string, e Entry) (Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e.Key = key
	e.CreatedAt = time.Now().UnixMilli()
	e.Version = d.index[key].Version + 1

	raw, err := json.Marshal(&e)
	if err != nil {
		return Entry{}, fmt.Errorf("encode cache entry: %w", err)
	}
	compressed := d.encoder.EncodeAll(raw, nil)

	offset := d.logSize
	if _, err := d.logFile.WriteAt(compressed, offset); err != nil {
		return Entry{}, fmt.Errorf("append cache entry: %w", err)
	}
	d.logSize = offset + int64(len(compressed))

	d.index[key] = indexEntry{
		Offset:    offset,
		Length:    len(compressed),
		CreatedAt: e.CreatedAt,
		Version:   e.Version,
		Size:      len(raw),
	}
	d.evictLocked()

	if err := d.saveIndexLocked(); err != nil {
		return Entry{}, fmt.Errorf("save cache index: %w", err)
	}
	return e, nil
}

// evictLocked marks oldest-createdAt entries deleted until the live log size
// is back under budget. The bytes stay in the log; only the index forgets
// them. Physical compaction is an external concern.
func (d *diskTier) evictLocked() {
	if d.budget <= 0 {
		return
	}
	for d.liveSizeLocked() > d.budget {
		oldestKey := ""
		var oldest indexEntry
		for key, ie := range d.index {
			if ie.Deleted {
				continue
			}
			if oldestKey == "" || ie.CreatedAt < oldest.CreatedAt {
				oldestKey = key
				oldest = ie
			}
		}
		if oldestKey == "" {
			return
		}
		oldest.Deleted = true
		d.index[oldestKey] = oldest
		d.log.Info().Str("key", oldestKey).Int("bytes", oldest.Length).Msg("evicted cache entry")
	}
}

func (d *diskTier) liveSizeLocked() int64 {
	var total int64
	for _, ie := range d.index {
		if !ie.Deleted {
			total += int64(ie.Length)
		}
	}
	return total
}

// Stats returns the live entry count and live byte size.
func (d *diskTier) Stats() (entries int, size int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ie := range d.index {
		if !ie.Deleted {
			entries++
			size += int64(ie.Length)
		}
	}
	return entries, size
}

func (d *diskTier) Close() error {
	d.encoder.Close()
	d.decoder.Close()
	return d.logFile.Close()
}
