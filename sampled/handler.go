package sampled

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/lineworks/linesampler/linepool"
	"github.com/lineworks/linesampler/loader"
	"github.com/lineworks/linesampler/stats"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("handler: encode response: %v", err)
	}
}

// writeError emits the JSON error shape clients expect: {"detail": "..."}.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, struct {
		Detail string `json:"detail"`
	}{detail})
}

type loadRequest struct {
	Filepath string `json:"filepath"`
}

type loadResponse struct {
	LinesRead         int `json:"lines_read"`
	TotalLinesInCache int `json:"total_lines_in_cache"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	defer s.timings.Get("load").AddSince(time.Now())

	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.RecordLoad("error", 0)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Filepath) == "" {
		s.metrics.RecordLoad("error", 0)
		writeError(w, http.StatusBadRequest, "filepath cannot be empty")
		return
	}

	n, err := s.loader.Load(req.Filepath)
	if err != nil {
		s.metrics.RecordLoad("error", n)
		s.writeLoadError(w, r, req.Filepath, err)
		return
	}

	s.metrics.RecordLoad("ok", n)
	writeJSON(w, http.StatusOK, loadResponse{
		LinesRead:         n,
		TotalLinesInCache: s.pool.Size(),
	})
}

// writeLoadError maps loader failures onto the API's status codes. Lines
// appended before a mid-file failure stay in the pool either way.
func (s *Server) writeLoadError(w http.ResponseWriter, r *http.Request, path string, err error) {
	var tooLarge *loader.TooLargeError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "File not found: "+path)
	case errors.Is(err, fs.ErrPermission):
		writeError(w, http.StatusForbidden, "Permission denied: "+path)
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("File too large (%.1fMB). Limit is %dMB.",
			float64(tooLarge.Size)/(1<<20), s.cfg.MaxFileSizeMB))
	case errors.Is(err, linepool.ErrPoolFull):
		writeError(w, http.StatusBadRequest, "Cache limit reached.")
	default:
		log.WithField("request_id", requestID(r.Context())).Errorf("handler: load %s: %v", path, err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

type sampleRequest struct {
	N *int `json:"n"`
}

type sampleResponse struct {
	Lines            []string `json:"lines"`
	Count            int      `json:"count"`
	RemainingInCache int      `json:"remaining_in_cache"`
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	defer s.timings.Get("sample").AddSince(time.Now())

	var req sampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.RecordSample("error", 0)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.N == nil || *req.N < 0 {
		s.metrics.RecordSample("error", 0)
		writeError(w, http.StatusBadRequest, "n must be >= 0")
		return
	}
	if *req.N > s.cfg.MaxSampleSize {
		s.metrics.RecordSample("error", 0)
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("n too large (%d). Limit is %d.", *req.N, s.cfg.MaxSampleSize))
		return
	}

	lines := s.pool.DrawRandom(*req.N)
	if lines == nil {
		lines = []string{}
	}

	s.metrics.RecordSample("ok", len(lines))
	writeJSON(w, http.StatusOK, sampleResponse{
		Lines:            lines,
		Count:            len(lines),
		RemainingInCache: s.pool.Size(),
	})
}

type statsResponse struct {
	CurrentLines  int                      `json:"current_lines"`
	TotalLoaded   int64                    `json:"total_loaded"`
	TotalSampled  int64                    `json:"total_sampled"`
	UptimeSeconds float64                  `json:"uptime_seconds"`
	Timings       map[string]stats.Summary `json:"timings"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.pool.Stats()
	writeJSON(w, http.StatusOK, statsResponse{
		CurrentLines:  st.CurrentLines,
		TotalLoaded:   st.TotalLoaded,
		TotalSampled:  st.TotalSampled,
		UptimeSeconds: time.Since(s.started).Seconds(),
		Timings:       s.timings.SnapshotAll(),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Cleared int `json:"cleared"`
	}{s.pool.Clear()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	cleared := s.pool.Reset()
	writeJSON(w, http.StatusOK, struct {
		Reset   bool `json:"reset"`
		Cleared int  `json:"cleared"`
	}{true, cleared})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{"healthy"})
}
