package client

import (
	"context"
	"net/http"

	"github.com/lineworks/linesampler/stats"
)

type LoadResponse struct {
	LinesRead         int `json:"lines_read"`
	TotalLinesInCache int `json:"total_lines_in_cache"`
}

// Load asks the server to read the file at path into its pool. The path is
// resolved on the server's filesystem, not the caller's.
func (p *Client) Load(ctx context.Context, path string, opts ...ReqOpt) (*LoadResponse, error) {
	var resp LoadResponse
	r := p.Req(http.MethodPost, ReqPath("/load"),
		ReqBody(struct {
			Filepath string `json:"filepath"`
		}{path}),
		ReqRespBody(&resp))
	r.ApplyOpts(opts...)
	if err := r.Do(ctx); err != nil {
		return nil, err
	}
	return &resp, nil
}

type SampleResponse struct {
	Lines            []string `json:"lines"`
	Count            int      `json:"count"`
	RemainingInCache int      `json:"remaining_in_cache"`
}

// Sample draws up to n random lines from the server's pool, removing them.
// Count reports how many actually came back; a drained pool returns fewer.
func (p *Client) Sample(ctx context.Context, n int, opts ...ReqOpt) (*SampleResponse, error) {
	var resp SampleResponse
	r := p.Req(http.MethodPost, ReqPath("/sample"),
		ReqBody(struct {
			N int `json:"n"`
		}{n}),
		ReqRespBody(&resp))
	r.ApplyOpts(opts...)
	if err := r.Do(ctx); err != nil {
		return nil, err
	}
	return &resp, nil
}

type StatsResponse struct {
	CurrentLines  int64                    `json:"current_lines"`
	TotalLoaded   int64                    `json:"total_loaded"`
	TotalSampled  int64                    `json:"total_sampled"`
	UptimeSeconds float64                  `json:"uptime_seconds"`
	Timings       map[string]stats.Summary `json:"timings"`
}

// Stats fetches the pool counters and the server's operation timings.
func (p *Client) Stats(ctx context.Context, opts ...ReqOpt) (*StatsResponse, error) {
	var resp StatsResponse
	r := p.Req(http.MethodGet, ReqPath("/stats"), ReqRespBody(&resp))
	r.ApplyOpts(opts...)
	if err := r.Do(ctx); err != nil {
		return nil, err
	}
	return &resp, nil
}

type ClearResponse struct {
	Cleared int `json:"cleared"`
}

// Clear drops every line in the server's pool and reports how many went.
func (p *Client) Clear(ctx context.Context, opts ...ReqOpt) (*ClearResponse, error) {
	var resp ClearResponse
	r := p.Req(http.MethodPost, ReqPath("/clear"), ReqRespBody(&resp))
	r.ApplyOpts(opts...)
	if err := r.Do(ctx); err != nil {
		return nil, err
	}
	return &resp, nil
}

type ResetResponse struct {
	Reset   bool `json:"reset"`
	Cleared int  `json:"cleared"`
}

// Reset clears the pool and zeroes the lifetime counters.
func (p *Client) Reset(ctx context.Context, opts ...ReqOpt) (*ResetResponse, error) {
	var resp ResetResponse
	r := p.Req(http.MethodPost, ReqPath("/reset"), ReqRespBody(&resp))
	r.ApplyOpts(opts...)
	if err := r.Do(ctx); err != nil {
		return nil, err
	}
	return &resp, nil
}

type HealthResponse struct {
	Status string `json:"status"`
}

// Health probes the server's liveness endpoint.
func (p *Client) Health(ctx context.Context, opts ...ReqOpt) (*HealthResponse, error) {
	var resp HealthResponse
	r := p.Req(http.MethodGet, ReqPath("/health"), ReqRespBody(&resp))
	r.ApplyOpts(opts...)
	if err := r.Do(ctx); err != nil {
		return nil, err
	}
	return &resp, nil
}
