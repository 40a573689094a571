// Package sampled implements the line sampler HTTP service: load text files
// into a shared in-memory pool, sample random lines out of it, inspect and
// clear it.
package sampled

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lineworks/linesampler/config"
	"github.com/lineworks/linesampler/linepool"
	"github.com/lineworks/linesampler/loader"
	"github.com/lineworks/linesampler/metrics"
	"github.com/lineworks/linesampler/stats"
)

type Server struct {
	*http.Server

	cfg     *config.Config
	pool    *linepool.Pool
	loader  *loader.Loader
	metrics *metrics.Metrics
	timings *stats.Registry
	limiter *Limiter
	started time.Time
}

// New builds the service around an existing pool. The pool is passed in
// rather than constructed here so callers control its random source.
func New(cfg *config.Config, pool *linepool.Pool) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	server := &Server{
		cfg:     cfg,
		pool:    pool,
		loader:  loader.New(pool, cfg.MaxFileSizeBytes(), cfg.MaxCacheLines),
		metrics: metrics.New(pool.Size),
		timings: stats.NewRegistry(),
		started: time.Now(),
	}

	load := server.handleLoad
	sample := server.handleSample
	clear := server.handleClear
	reset := server.handleReset
	if cfg.RateLimitRPS > 0 {
		server.limiter = newLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, time.Minute)
		load = server.withLimit(load)
		sample = server.withLimit(sample)
		clear = server.withLimit(clear)
		reset = server.withLimit(reset)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /load", load)
	mux.HandleFunc("POST /sample", sample)
	mux.HandleFunc("GET /stats", server.handleStats)
	mux.HandleFunc("POST /clear", clear)
	mux.HandleFunc("POST /reset", reset)
	mux.HandleFunc("GET /health", server.handleHealth)
	mux.Handle("GET /metrics", server.metrics.Handler())

	server.Server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout: 10 * time.Second,
		// No write timeout: a big sample response takes as long as it takes.
		MaxHeaderBytes: 4096,
		Handler:        withRequestID(server.withObservability(mux)),
	}
	return server, nil
}
