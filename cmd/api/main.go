package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/blunderlab/api/internal/analysis"
	"github.com/blunderlab/api/internal/cache"
	"github.com/blunderlab/api/internal/httpapi"
	"github.com/blunderlab/api/internal/logx"
)

// parseSize parses a size string like "512m", "4g", "1024" into bytes
func parseSize(s string) int64 {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "0" {
		return 0
	}

	multiplier := int64(1)
	if strings.HasSuffix(s, "k") {
		multiplier = 1024
		s = s[:len(s)-1]
	} else if strings.HasSuffix(s, "m") {
		multiplier = 1024 * 1024
		s = s[:len(s)-1]
	} else if strings.HasSuffix(s, "g") {
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n * multiplier
}

func main() {
	var (
		addr     = flag.String("addr", ":8017", "listen address")
		cacheDir = flag.String("cache-dir", "./data/cache", "summary cache directory")

		memCapacity = flag.Int("mem-capacity", 128, "memory tier capacity (entries)")
		diskBudget  = flag.String("disk-budget", "64m", "disk log byte budget (e.g. 512m, 4g)")

		maxWorkers = flag.Int("workers", 0, "max classification workers (0 = min(CPUs, 8))")
		topLimit   = flag.Int("top-limit", 10, "length of the ranked mistake lists")

		logLevel = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	logger := logx.NewLogger(*logLevel)

	summaryCache, err := cache.New(cache.Config{
		Dir:            *cacheDir,
		MemoryCapacity: *memCapacity,
		DiskBudget:     parseSize(*diskBudget),
		Logger:         logger.With().Str("component", "cache").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("open summary cache")
	}
	defer summaryCache.Close()

	metrics := summaryCache.Metrics()
	logger.Info().
		Str("dir", *cacheDir).
		Int("disk_entries", metrics.DiskEntries).
		Int64("disk_size", metrics.DiskSize).
		Msg("opened summary cache")

	analyzer := analysis.New(analysis.Config{
		MaxWorkers: *maxWorkers,
		TopLimit:   *topLimit,
		Logger:     logger.With().Str("component", "analysis").Logger(),
	}, summaryCache)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      httpapi.NewRouter(logger, analyzer),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("api server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}

	metrics = summaryCache.Metrics()
	logger.Info().
		Uint64("hits", metrics.Hits).
		Uint64("misses", metrics.Misses).
		Uint64("writes", metrics.Writes).
		Msg("shutdown complete")
}
