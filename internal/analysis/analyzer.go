// Package analysis is the batch orchestrator: it answers analysis requests
// from the cache when it can, and otherwise fans classification out across
// workers, merges the partial summaries, optionally bootstraps an opening,
// and writes the result back to the cache.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/blunderlab/api/internal/bootstrap"
	"github.com/blunderlab/api/internal/cache"
	"github.com/blunderlab/api/internal/classify"
	"github.com/blunderlab/api/internal/game"
	"github.com/blunderlab/api/internal/report"
)

// ErrNoGames is returned when a request arrives with no usable games.
var ErrNoGames = errors.New("no games to analyze")

// Options are the caller-supplied knobs for one run.
type Options struct {
	OnlyForUsername  string `json:"onlyForUsername,omitempty"`
	BootstrapOpening string `json:"bootstrapOpening,omitempty"`
	Force            bool   `json:"force,omitempty"` // skip the cache fast path and overwrite
}

// Meta describes the cache entry backing a response.
type Meta struct {
	Key       string `json:"key"`
	CreatedAt int64  `json:"createdAt"` // epoch ms
	Version   int    `json:"version"`
	Cached    bool   `json:"cached"` // true when served from the fast path
}

// Response is the full analysis result returned to the request layer.
type Response struct {
	Summary        *report.Summary `json:"summary"`
	ProcessingTime int64           `json:"processingTime"` // ms
	GameCount      int             `json:"gameCount"`
	Workers        int             `json:"workers"`
	RunID          string          `json:"runId"`
	Meta           Meta            `json:"meta"`
}

// Config configures the analyzer.
type Config struct {
	MaxWorkers int // default min(NumCPU, 8)
	TopLimit   int // ranked list length, default report.DefaultTopLimit
	Logger     zerolog.Logger
}

// Analyzer owns the cache and runs batches. Construct once at startup.
type Analyzer struct {
	cfg   Config
	cache *cache.Cache
	boot  *bootstrap.Engine
	log   zerolog.Logger
}

// New creates an analyzer over the given cache.
func New(cfg Config, c *cache.Cache) *Analyzer {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
		if cfg.MaxWorkers > 8 {
			cfg.MaxWorkers = 8
		}
	}
	return &Analyzer{
		cfg:   cfg,
		cache: c,
		boot:  bootstrap.New(cfg.Logger.With().Str("component", "bootstrap").Logger()),
		log:   cfg.Logger,
	}
}

// Analyze runs one batch. Games must already be normalized. The batch either
// completes fully or fails with a single error; there is no partial result.
func (a *Analyzer) Analyze(ctx context.Context, games []game.GameRecord, opts Options) (*Response, error) {
	if len(games) == 0 {
		return nil, ErrNoGames
	}
	start := time.Now()
	runID := uuid.NewString()
	key := cache.ComputeKey(games, opts.OnlyForUsername, opts.BootstrapOpening)

	if !opts.Force {
		if e, ok := a.cache.TryGet(key); ok {
			a.log.Debug().Str("run", runID).Str("key", key).Msg("cache hit")
			return &Response{
				Summary:        e.Summary,
				ProcessingTime: time.Since(start).Milliseconds(),
				GameCount:      len(games),
				Workers:        0,
				RunID:          runID,
				Meta:           Meta{Key: key, CreatedAt: e.CreatedAt, Version: e.Version, Cached: true},
			}, nil
		}
	}

	workers := a.cfg.MaxWorkers
	if opts.BootstrapOpening != "" {
		// The bootstrap engine needs a single global view of every game to
		// build its position index; splitting would hide cross-game matches.
		workers = 1
		games = filterOpening(games, opts.BootstrapOpening)
		if len(games) == 0 {
			return nil, ErrNoGames
		}
	}
	if workers > len(games) {
		workers = len(games)
	}

	merged, events, err := a.runWorkers(ctx, games, opts, workers)
	if err != nil {
		return nil, err
	}

	if opts.BootstrapOpening != "" {
		for _, ev := range a.boot.Run(games, events, opts.BootstrapOpening) {
			merged.Add(ev)
		}
	}
	merged.Finalize(a.cfg.TopLimit)

	meta := Meta{Key: key, CreatedAt: time.Now().UnixMilli(), Version: 0}
	if entry, err := a.cache.Save(key, merged); err != nil {
		// Cache faults never fail a completed run.
		a.log.Warn().Err(err).Str("key", key).Msg("cache save failed")
	} else {
		meta.CreatedAt = entry.CreatedAt
		meta.Version = entry.Version
	}

	elapsed := time.Since(start)
	a.log.Info().
		Str("run", runID).
		Int("games", len(games)).
		Int("workers", workers).
		Int("blunders", merged.Blunders).
		Int("mistakes", merged.Mistakes).
		Int("inaccuracies", merged.Inaccuracies).
		Dur("elapsed", elapsed).
		Msg("batch complete")

	return &Response{
		Summary:        merged,
		ProcessingTime: elapsed.Milliseconds(),
		GameCount:      len(games),
		Workers:        workers,
		RunID:          runID,
		Meta:           meta,
	}, nil
}

type partial struct {
	sum    *report.Summary
	events []classify.MistakeEvent
}

// runWorkers partitions the games into contiguous near-equal chunks,
// classifies each chunk on its own goroutine, and merges. Any worker error
// fails the whole batch; no partial summary escapes.
func (a *Analyzer) runWorkers(ctx context.Context, games []game.GameRecord, opts Options, workers int) (*report.Summary, []classify.MistakeEvent, error) {
	chunks := partition(games, workers)
	results := make([]partial, len(chunks))

	var g errgroup.Group
	for w, chunk := range chunks {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("worker %d: %v", w, r)
				}
			}()
			results[w] = classifyChunk(chunk, opts.OnlyForUsername)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	merged := report.New()
	var events []classify.MistakeEvent
	for _, p := range results {
		merged.Merge(p.sum)
		events = append(events, p.events...)
	}
	return merged, events, nil
}

// classifyChunk runs the classifier over one partition. When a username
// filter is set, games the user did not play contribute nothing.
func classifyChunk(chunk []game.GameRecord, username string) partial {
	p := partial{sum: report.New()}
	for i := range chunk {
		g := &chunk[i]
		var side game.Side
		if username != "" {
			side = g.SideOf(username)
			if side == "" {
				continue
			}
		}
		for _, ev := range classify.Game(g, side) {
			p.sum.Add(ev)
			p.events = append(p.events, ev)
		}
	}
	return p
}

// partition splits games into n contiguous near-equal chunks.
func partition(games []game.GameRecord, n int) [][]game.GameRecord {
	if n <= 1 || len(games) <= 1 {
		return [][]game.GameRecord{games}
	}
	chunks := make([][]game.GameRecord, 0, n)
	size := (len(games) + n - 1) / n
	for start := 0; start < len(games); start += size {
		end := start + size
		if end > len(games) {
			end = len(games)
		}
		chunks = append(chunks, games[start:end])
	}
	return chunks
}

func filterOpening(games []game.GameRecord, opening string) []game.GameRecord {
	out := make([]game.GameRecord, 0, len(games))
	for i := range games {
		if games[i].Opening == opening {
			out = append(out, games[i])
		}
	}
	return out
}

// Metrics exposes the cache diagnostics counters.
func (a *Analyzer) Metrics() cache.Metrics {
	return a.cache.Metrics()
}
